// Package scoring 实现提交评分引擎
// 根据表单的字段级评分配置,为单次提交计算总分、百分比和风险等级
// 纯函数实现,不产生任何副作用,评分结果由调用方持久化到提交记录上
package scoring

import (
	"fmt"
	"math"

	"github.com/solidrange/solidrange-form-flow-sub000/pkg/types"
)

// 字段评分配置的默认值
const (
	DefaultMaxPoints        = 10
	DefaultWeightMultiplier = 1
)

// Score 计算一次提交的评分
// 表单未启用评分时返回 (nil, nil)
// 风险阈值配置非法时返回 ConfigurationError,不做任何计算
func Score(form *types.Form, sub *types.Submission) (*types.Score, error) {
	if form == nil || !form.Settings.Scoring.Enabled {
		return nil, nil
	}
	if err := ValidateThresholds(form.Settings.Scoring.RiskThresholds); err != nil {
		return nil, err
	}

	total := 0
	maxTotal := 0
	var manualReview []string

	for i := range form.Fields {
		field := &form.Fields[i]
		if field.Scoring == nil || !field.Scoring.Enabled {
			continue
		}

		points := fieldPoints(field.Scoring)
		// 启用评分的字段无论能否自动判分,满分都计入 maxTotal
		// 未判分的容量保持可见,而不是被静默丢弃
		maxTotal += points

		if field.Scoring.RequiresManualReview {
			// 需要人工评分的字段自动得 0 分,由调用方根据
			// ManualReview 字段列表触发外部的人工覆盖流程
			manualReview = append(manualReview, field.ID)
			continue
		}
		if len(field.Scoring.CorrectAnswers) == 0 {
			// 自由文本/数字/评分等无标准答案的字段无法自动判分
			continue
		}

		response, ok := sub.Responses[field.ID]
		if !ok {
			continue
		}
		if answersMatch(response, field.Scoring.CorrectAnswers) {
			total += points
		}
	}

	percentage := 0
	if maxTotal > 0 {
		percentage = int(math.Round(100 * float64(total) / float64(maxTotal)))
	}

	return &types.Score{
		Total:        total,
		MaxTotal:     maxTotal,
		Percentage:   percentage,
		RiskLevel:    Classify(percentage, form.Settings.Scoring.RiskThresholds),
		ManualReview: manualReview,
	}, nil
}

// ValidateThresholds 校验风险阈值配置
// 阈值必须满足 Low > Medium > High,否则返回 ConfigurationError
func ValidateThresholds(t types.RiskThresholds) error {
	if t.Low > t.Medium && t.Medium > t.High {
		return nil
	}
	return types.NewConfigurationError(
		"risk thresholds must be strictly decreasing: low(%d) > medium(%d) > high(%d)",
		t.Low, t.Medium, t.High)
}

// Classify 根据百分比和阈值推导风险等级
// 阈值为递减的百分比下限: >= low 为低风险, >= medium 为中风险,
// >= high 为高风险,否则为 critical
func Classify(percentage int, t types.RiskThresholds) types.RiskLevel {
	switch {
	case percentage >= t.Low:
		return types.RiskLow
	case percentage >= t.Medium:
		return types.RiskMedium
	case percentage >= t.High:
		return types.RiskHigh
	default:
		return types.RiskCritical
	}
}

// fieldPoints 计算字段满分 = maxPoints * weightMultiplier
func fieldPoints(sc *types.FieldScoring) int {
	maxPoints := sc.MaxPoints
	if maxPoints <= 0 {
		maxPoints = DefaultMaxPoints
	}
	weight := sc.WeightMultiplier
	if weight < 1 {
		weight = DefaultWeightMultiplier
	}
	return maxPoints * weight
}

// answersMatch 判断提交的回答是否命中标准答案
// 多选时要求提交的每个值都在标准答案集合内(子集匹配),全对才得分
func answersMatch(response any, correctAnswers []string) bool {
	values := responseValues(response)
	if len(values) == 0 {
		return false
	}

	correct := make(map[string]struct{}, len(correctAnswers))
	for _, a := range correctAnswers {
		correct[a] = struct{}{}
	}
	for _, v := range values {
		if _, ok := correct[v]; !ok {
			return false
		}
	}
	return true
}

// responseValues 将回答值归一化为字符串列表
// JSON 反序列化后的回答可能是标量、数组或对象
func responseValues(response any) []string {
	switch v := response.(type) {
	case nil:
		return nil
	case string:
		if v == "" {
			return nil
		}
		return []string{v}
	case []string:
		return v
	case []any:
		values := make([]string, 0, len(v))
		for _, item := range v {
			values = append(values, fmt.Sprintf("%v", item))
		}
		return values
	case float64:
		// JSON 数字默认解码为 float64,整数值不保留小数部分
		if v == math.Trunc(v) {
			return []string{fmt.Sprintf("%d", int64(v))}
		}
		return []string{fmt.Sprintf("%v", v)}
	default:
		return []string{fmt.Sprintf("%v", v)}
	}
}
