package websocket

import (
	"encoding/json"
	"time"

	"github.com/solidrange/solidrange-form-flow-sub000/pkg/types"
)

// SubmissionEvent 提交生命周期事件
type SubmissionEvent struct {
	Type         string     `json:"type"` // submission.created / submission.status_changed
	SubmissionID string     `json:"submission_id"`
	FormID       string     `json:"form_id"`
	Status       string     `json:"status"`
	RiskLevel    string     `json:"risk_level,omitempty"`
	At           time.Time  `json:"at"`
}

// Publisher 事件发布器
// 实现 service.EventPublisher,把提交事件推送给订阅对应表单的客户端
type Publisher struct {
	hub *Hub
}

// NewPublisher 创建事件发布器
func NewPublisher(hub *Hub) *Publisher {
	return &Publisher{hub: hub}
}

// PublishSubmissionEvent 发布提交生命周期事件
func (p *Publisher) PublishSubmissionEvent(eventType string, sub *types.Submission) {
	if p.hub == nil || sub == nil {
		return
	}

	event := SubmissionEvent{
		Type:         eventType,
		SubmissionID: sub.ID,
		FormID:       sub.FormID,
		Status:       string(sub.Status),
		At:           time.Now(),
	}
	if sub.Score != nil {
		event.RiskLevel = string(sub.Score.RiskLevel)
	}

	data, err := json.Marshal(event)
	if err != nil {
		return
	}
	p.hub.BroadcastToForm(sub.FormID, data)
}
