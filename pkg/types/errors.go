package types

import "fmt"

// ConfigurationError 配置错误
// 表单评分已启用但风险阈值非严格递减,或批量 change_status 缺少目标状态
// 在任何变更发生之前快速失败
type ConfigurationError struct {
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration error: %s", e.Reason)
}

// NewConfigurationError 创建配置错误
func NewConfigurationError(format string, args ...any) *ConfigurationError {
	return &ConfigurationError{Reason: fmt.Sprintf(format, args...)}
}

// TransitionError 状态转换错误
// 例如审批通过时未提供 approval_type,不会产生任何状态变更
type TransitionError struct {
	From   SubmissionStatus
	To     SubmissionStatus
	Reason string
}

func (e *TransitionError) Error() string {
	if e.From != "" || e.To != "" {
		return fmt.Sprintf("transition error (%s -> %s): %s", e.From, e.To, e.Reason)
	}
	return fmt.Sprintf("transition error: %s", e.Reason)
}

// NewTransitionError 创建状态转换错误
func NewTransitionError(from, to SubmissionStatus, format string, args ...any) *TransitionError {
	return &TransitionError{From: from, To: to, Reason: fmt.Sprintf(format, args...)}
}

// NotFoundError 记录不存在错误
// 批量操作中记录为单条失败并继续,单条操作中作为硬失败上抛
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
}

// NewNotFoundError 创建记录不存在错误
func NewNotFoundError(resource, id string) *NotFoundError {
	return &NotFoundError{Resource: resource, ID: id}
}

// NotificationError 通知发送错误
// 单个收件人发送失败,不影响其他收件人或其他操作
type NotificationError struct {
	Recipient string
	Err       error
}

func (e *NotificationError) Error() string {
	return fmt.Sprintf("failed to notify %s: %v", e.Recipient, e.Err)
}

func (e *NotificationError) Unwrap() error {
	return e.Err
}

// NewNotificationError 创建通知发送错误
func NewNotificationError(recipient string, err error) *NotificationError {
	return &NotificationError{Recipient: recipient, Err: err}
}
