package model_test

import (
	"testing"
	"time"

	"github.com/solidrange/solidrange-form-flow-sub000/internal/model"
	"github.com/stretchr/testify/assert"
)

// TestFormModel 测试表单数据模型
func TestFormModel(t *testing.T) {
	fm := &model.FormModel{
		ID:        "form-001",
		Title:     "供应商评估表",
		Status:    model.FormStatusDraft,
		Data:      []byte(`{"id":"form-001"}`),
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}

	assert.Equal(t, "forms", model.FormModel{}.TableName())
	assert.NoError(t, fm.Validate())

	// ID 为空
	invalid := *fm
	invalid.ID = ""
	assert.Error(t, invalid.Validate())

	// Data 为空
	invalid = *fm
	invalid.Data = nil
	assert.Error(t, invalid.Validate())
}

// TestSubmissionModel 测试提交数据模型
func TestSubmissionModel(t *testing.T) {
	pct := 85
	sm := &model.SubmissionModel{
		ID:              "sub-001",
		FormID:          "form-001",
		Status:          "approved",
		ApprovalType:    "fully",
		RiskLevel:       "low",
		ScorePercentage: &pct,
		SubmitterEmail:  "vendor@example.com",
		SubmittedAt:     time.Now(),
		Data:            []byte(`{"id":"sub-001"}`),
	}

	assert.Equal(t, "submissions", model.SubmissionModel{}.TableName())
	assert.NoError(t, sm.Validate())

	invalid := *sm
	invalid.FormID = ""
	assert.Error(t, invalid.Validate())

	invalid = *sm
	invalid.Status = ""
	assert.Error(t, invalid.Validate())

	invalid = *sm
	invalid.SubmitterEmail = ""
	assert.Error(t, invalid.Validate())
}

// TestReviewHistoryModel 测试审核历史数据模型
func TestReviewHistoryModel(t *testing.T) {
	rh := &model.ReviewHistoryModel{
		ID:           "hist-001",
		SubmissionID: "sub-001",
		FromStatus:   "submitted",
		ToStatus:     "under_review",
		ReviewedBy:   "reviewer-001",
		CreatedAt:    time.Now(),
	}

	assert.Equal(t, "review_history", model.ReviewHistoryModel{}.TableName())
	assert.NoError(t, rh.Validate())

	invalid := *rh
	invalid.SubmissionID = ""
	assert.Error(t, invalid.Validate())
}
