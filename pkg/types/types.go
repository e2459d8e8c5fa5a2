package types

import (
	"time"
)

// FieldType 表单字段类型
type FieldType string

// 支持的表单字段类型
const (
	FieldTypeText      FieldType = "text"
	FieldTypeEmail     FieldType = "email"
	FieldTypeNumber    FieldType = "number"
	FieldTypeTextarea  FieldType = "textarea"
	FieldTypeSelect    FieldType = "select"
	FieldTypeRadio     FieldType = "radio"
	FieldTypeCheckbox  FieldType = "checkbox"
	FieldTypeDate      FieldType = "date"
	FieldTypeFile      FieldType = "file"
	FieldTypeRating    FieldType = "rating"
	FieldTypeSignature FieldType = "signature"
)

// IsChoice 判断是否为选择类字段(带 options)
func (t FieldType) IsChoice() bool {
	switch t {
	case FieldTypeSelect, FieldTypeRadio, FieldTypeCheckbox:
		return true
	}
	return false
}

// SubmissionStatus 提交状态
type SubmissionStatus string

// 提交状态枚举
const (
	StatusSubmitted   SubmissionStatus = "submitted"
	StatusUnderReview SubmissionStatus = "under_review"
	StatusApproved    SubmissionStatus = "approved"
	StatusRejected    SubmissionStatus = "rejected"
)

// AllStatuses 返回所有合法的提交状态
func AllStatuses() []SubmissionStatus {
	return []SubmissionStatus{StatusSubmitted, StatusUnderReview, StatusApproved, StatusRejected}
}

// Valid 判断状态是否合法
func (s SubmissionStatus) Valid() bool {
	switch s {
	case StatusSubmitted, StatusUnderReview, StatusApproved, StatusRejected:
		return true
	}
	return false
}

// ApprovalType 审批通过类型,仅在状态为 approved 时有意义
type ApprovalType string

// 审批通过类型枚举
const (
	ApprovalFully     ApprovalType = "fully"
	ApprovalPartially ApprovalType = "partially"
)

// Valid 判断审批类型是否合法
func (a ApprovalType) Valid() bool {
	return a == ApprovalFully || a == ApprovalPartially
}

// RiskLevel 风险等级
type RiskLevel string

// 风险等级枚举,按严重程度递增
const (
	RiskLow      RiskLevel = "low"
	RiskMedium   RiskLevel = "medium"
	RiskHigh     RiskLevel = "high"
	RiskCritical RiskLevel = "critical"
)

// Rank 返回风险等级的严重程度排名
// low=1, medium=2, high=3, critical=4, 未知/缺失=0
func (r RiskLevel) Rank() int {
	switch r {
	case RiskLow:
		return 1
	case RiskMedium:
		return 2
	case RiskHigh:
		return 3
	case RiskCritical:
		return 4
	}
	return 0
}

// SubmissionType 提交来源类型
type SubmissionType string

// 提交来源类型枚举
const (
	SubmissionVendor   SubmissionType = "vendor"
	SubmissionInternal SubmissionType = "internal"
	SubmissionExternal SubmissionType = "external"
)

// RiskThresholds 风险阈值配置
// low/medium/high 为百分比下限,按严重程度递减排列
// 要求 Low > Medium > High,由评分引擎在计算前校验
type RiskThresholds struct {
	Low    int `json:"low"`
	Medium int `json:"medium"`
	High   int `json:"high"`
}

// ScoringSettings 表单评分配置
type ScoringSettings struct {
	Enabled        bool           `json:"enabled"`
	MaxTotalPoints int            `json:"max_total_points"`
	PassingScore   int            `json:"passing_score"`
	RiskThresholds RiskThresholds `json:"risk_thresholds"`
}

// ApprovalSettings 表单审批配置
type ApprovalSettings struct {
	Enabled          bool `json:"enabled"`
	RequireApproval  bool `json:"require_approval"`
	AutoApproveScore int  `json:"auto_approve_score"`
}

// FormSettings 表单设置
type FormSettings struct {
	Scoring  ScoringSettings  `json:"scoring"`
	Approval ApprovalSettings `json:"approval"`
}

// FieldScoring 字段级评分配置
type FieldScoring struct {
	Enabled              bool     `json:"enabled"`
	MaxPoints            int      `json:"max_points"`        // 默认 10
	WeightMultiplier     int      `json:"weight_multiplier"` // 默认 1,必须 >= 1
	CorrectAnswers       []string `json:"correct_answers,omitempty"`
	RequiresManualReview bool     `json:"requires_manual_review"`
}

// FormField 表单字段定义
type FormField struct {
	ID       string        `json:"id"`
	Type     FieldType     `json:"type"`
	Label    string        `json:"label"`
	Options  []string      `json:"options,omitempty"` // 仅选择类字段
	Required bool          `json:"required"`
	Scoring  *FieldScoring `json:"scoring,omitempty"`
}

// Form 表单模板
// 在一次审核会话中视为不可变
type Form struct {
	ID          string       `json:"id"`
	Title       string       `json:"title"`
	Description string       `json:"description,omitempty"`
	Fields      []FormField  `json:"fields"`
	Settings    FormSettings `json:"settings"`
}

// FieldByID 根据 ID 查找字段,不存在时返回 nil
func (f *Form) FieldByID(id string) *FormField {
	for i := range f.Fields {
		if f.Fields[i].ID == id {
			return &f.Fields[i]
		}
	}
	return nil
}

// Score 评分结果
// 不携带时间戳,保证相同输入重复评分得到完全相同的结果
type Score struct {
	Total        int       `json:"total"`
	MaxTotal     int       `json:"max_total"`
	Percentage   int       `json:"percentage"`
	RiskLevel    RiskLevel `json:"risk_level"`
	ManualReview []string  `json:"manual_review,omitempty"` // 需要人工评分的字段 ID
}

// ActivityEntry 活动日志条目
// 日志只追加,从不修改或删除
type ActivityEntry struct {
	Action     string    `json:"action"`
	Comments   string    `json:"comments"`
	ReviewedBy string    `json:"reviewed_by"`
	ReviewedAt time.Time `json:"reviewed_at"`
}

// Document 附件引用
// 文件存储在核心之外,这里只保留不透明引用
type Document struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	URL  string `json:"url,omitempty"`
}

// Submission 一次表单提交记录
type Submission struct {
	ID             string           `json:"id"`
	FormID         string           `json:"form_id"`
	SubmitterEmail string           `json:"submitter_email"`
	SubmitterName  string           `json:"submitter_name,omitempty"`
	CompanyName    string           `json:"company_name,omitempty"`
	SubmissionType SubmissionType   `json:"submission_type,omitempty"`
	SubmittedAt    time.Time        `json:"submitted_at"`
	TimeSpent      *int             `json:"time_spent,omitempty"` // 分钟
	Responses      map[string]any   `json:"responses"`
	Documents      []Document       `json:"documents,omitempty"`
	Status         SubmissionStatus `json:"status"`
	ApprovalType   *ApprovalType    `json:"approval_type,omitempty"` // 仅 status=approved 时有值
	Score          *Score           `json:"score,omitempty"`
	ActivityLog    []ActivityEntry  `json:"activity_log,omitempty"`
}

// Clone 深拷贝提交记录
// 状态机在副本上完成整个变更后再返回,保证单条记录的变更原子生效
func (s *Submission) Clone() *Submission {
	c := *s
	if s.TimeSpent != nil {
		v := *s.TimeSpent
		c.TimeSpent = &v
	}
	if s.ApprovalType != nil {
		v := *s.ApprovalType
		c.ApprovalType = &v
	}
	if s.Score != nil {
		sc := *s.Score
		sc.ManualReview = append([]string(nil), s.Score.ManualReview...)
		c.Score = &sc
	}
	if s.Responses != nil {
		c.Responses = make(map[string]any, len(s.Responses))
		for k, v := range s.Responses {
			c.Responses[k] = v
		}
	}
	c.Documents = append([]Document(nil), s.Documents...)
	c.ActivityLog = append([]ActivityEntry(nil), s.ActivityLog...)
	return &c
}

// RiskRank 返回提交的风险排名,未评分时为 0
func (s *Submission) RiskRank() int {
	if s.Score == nil {
		return 0
	}
	return s.Score.RiskLevel.Rank()
}

// ScorePercentage 返回评分百分比,未评分时返回 0 和 false
func (s *Submission) ScorePercentage() (int, bool) {
	if s.Score == nil {
		return 0, false
	}
	return s.Score.Percentage, true
}
