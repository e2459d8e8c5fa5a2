// Package query 实现提交集合的多条件过滤与排序引擎
// 每个过滤维度是一个独立的谓词函数,所有谓词按逻辑与组合,
// 维度之间相互正交,可以单独测试,新增维度不需要改动已有逻辑
package query

import (
	"sort"
	"strings"
	"time"

	"github.com/solidrange/solidrange-form-flow-sub000/pkg/types"
)

// SortField 排序字段
type SortField string

// 支持的排序字段
const (
	SortByDate    SortField = "date"
	SortByScore   SortField = "score"
	SortByCompany SortField = "company"
	SortByStatus  SortField = "status"
	SortByRisk    SortField = "risk"
)

// SortOrder 排序方向
type SortOrder string

// 排序方向枚举
const (
	OrderAsc  SortOrder = "asc"
	OrderDesc SortOrder = "desc"
)

// DateRange 提交时间范围,边界为闭区间,任一边界可缺失
type DateRange struct {
	Start *time.Time
	End   *time.Time
}

// IntRange 整数闭区间,任一边界可缺失
type IntRange struct {
	Min *int
	Max *int
}

// Spec 过滤与排序规格
// 各过滤维度之间为 AND 关系;集合类维度内部为 OR(成员匹配),
// 空集合表示该维度不做限制
type Spec struct {
	// SearchTerm 对公司名、提交人姓名、提交人邮箱做大小写不敏感的
	// 子串匹配,任一字段命中即通过
	SearchTerm string

	Status         []types.SubmissionStatus
	ApprovalType   []types.ApprovalType
	RiskLevel      []types.RiskLevel
	SubmissionType []types.SubmissionType

	DateRange      DateRange
	ScoreRange     IntRange // 针对 score.percentage,未评分的提交不被此维度排除
	TimeSpentRange IntRange // 未记录耗时的提交不被此维度排除

	Company   string // 公司名大小写不敏感子串过滤
	Submitter string // 提交人大小写不敏感子串过滤

	// HasDocuments 三态: nil 忽略,true 要求至少有一个附件,false 要求没有附件
	HasDocuments *bool

	SortBy    SortField
	SortOrder SortOrder
}

// predicate 单个过滤维度的谓词
type predicate func(*types.Submission) bool

// Apply 对提交集合应用过滤与排序,返回新的切片,不修改输入
// 排序对相等键保持稳定(保留原始相对顺序),保证分页和测试的确定性
func Apply(submissions []*types.Submission, spec Spec) []*types.Submission {
	predicates := buildPredicates(spec)

	result := make([]*types.Submission, 0, len(submissions))
	for _, sub := range submissions {
		if matchAll(sub, predicates) {
			result = append(result, sub)
		}
	}

	sortSubmissions(result, spec.SortBy, spec.SortOrder)
	return result
}

// matchAll 判断提交是否通过所有谓词
func matchAll(sub *types.Submission, predicates []predicate) bool {
	for _, p := range predicates {
		if !p(sub) {
			return false
		}
	}
	return true
}

// buildPredicates 根据规格构建谓词列表,只为生效的维度创建谓词
func buildPredicates(spec Spec) []predicate {
	var predicates []predicate

	if term := strings.ToLower(strings.TrimSpace(spec.SearchTerm)); term != "" {
		predicates = append(predicates, searchPredicate(term))
	}
	if len(spec.Status) > 0 {
		predicates = append(predicates, statusPredicate(spec.Status))
	}
	if len(spec.ApprovalType) > 0 {
		predicates = append(predicates, approvalTypePredicate(spec.ApprovalType))
	}
	if len(spec.RiskLevel) > 0 {
		predicates = append(predicates, riskLevelPredicate(spec.RiskLevel))
	}
	if len(spec.SubmissionType) > 0 {
		predicates = append(predicates, submissionTypePredicate(spec.SubmissionType))
	}
	if spec.DateRange.Start != nil || spec.DateRange.End != nil {
		predicates = append(predicates, dateRangePredicate(spec.DateRange))
	}
	if spec.ScoreRange.Min != nil || spec.ScoreRange.Max != nil {
		predicates = append(predicates, scoreRangePredicate(spec.ScoreRange))
	}
	if spec.TimeSpentRange.Min != nil || spec.TimeSpentRange.Max != nil {
		predicates = append(predicates, timeSpentRangePredicate(spec.TimeSpentRange))
	}
	if company := strings.ToLower(strings.TrimSpace(spec.Company)); company != "" {
		predicates = append(predicates, companyPredicate(company))
	}
	if submitter := strings.ToLower(strings.TrimSpace(spec.Submitter)); submitter != "" {
		predicates = append(predicates, submitterPredicate(submitter))
	}
	if spec.HasDocuments != nil {
		predicates = append(predicates, hasDocumentsPredicate(*spec.HasDocuments))
	}

	return predicates
}

func searchPredicate(term string) predicate {
	return func(sub *types.Submission) bool {
		return strings.Contains(strings.ToLower(sub.CompanyName), term) ||
			strings.Contains(strings.ToLower(sub.SubmitterName), term) ||
			strings.Contains(strings.ToLower(sub.SubmitterEmail), term)
	}
}

func statusPredicate(allowed []types.SubmissionStatus) predicate {
	set := make(map[types.SubmissionStatus]struct{}, len(allowed))
	for _, s := range allowed {
		set[s] = struct{}{}
	}
	return func(sub *types.Submission) bool {
		_, ok := set[sub.Status]
		return ok
	}
}

// approvalTypePredicate 审批类型过滤
// 额外要求状态必须是 approved,非 approved 状态的 approval_type 无定义
func approvalTypePredicate(allowed []types.ApprovalType) predicate {
	set := make(map[types.ApprovalType]struct{}, len(allowed))
	for _, a := range allowed {
		set[a] = struct{}{}
	}
	return func(sub *types.Submission) bool {
		if sub.Status != types.StatusApproved || sub.ApprovalType == nil {
			return false
		}
		_, ok := set[*sub.ApprovalType]
		return ok
	}
}

func riskLevelPredicate(allowed []types.RiskLevel) predicate {
	set := make(map[types.RiskLevel]struct{}, len(allowed))
	for _, r := range allowed {
		set[r] = struct{}{}
	}
	return func(sub *types.Submission) bool {
		if sub.Score == nil {
			return false
		}
		_, ok := set[sub.Score.RiskLevel]
		return ok
	}
}

func submissionTypePredicate(allowed []types.SubmissionType) predicate {
	set := make(map[types.SubmissionType]struct{}, len(allowed))
	for _, t := range allowed {
		set[t] = struct{}{}
	}
	return func(sub *types.Submission) bool {
		_, ok := set[sub.SubmissionType]
		return ok
	}
}

func dateRangePredicate(r DateRange) predicate {
	return func(sub *types.Submission) bool {
		if r.Start != nil && sub.SubmittedAt.Before(*r.Start) {
			return false
		}
		if r.End != nil && sub.SubmittedAt.After(*r.End) {
			return false
		}
		return true
	}
}

// scoreRangePredicate 评分范围过滤
// 未评分的提交直接通过,不被此维度排除
func scoreRangePredicate(r IntRange) predicate {
	return func(sub *types.Submission) bool {
		pct, ok := sub.ScorePercentage()
		if !ok {
			return true
		}
		if r.Min != nil && pct < *r.Min {
			return false
		}
		if r.Max != nil && pct > *r.Max {
			return false
		}
		return true
	}
}

// timeSpentRangePredicate 耗时范围过滤
// 未记录耗时的提交直接通过
func timeSpentRangePredicate(r IntRange) predicate {
	return func(sub *types.Submission) bool {
		if sub.TimeSpent == nil {
			return true
		}
		if r.Min != nil && *sub.TimeSpent < *r.Min {
			return false
		}
		if r.Max != nil && *sub.TimeSpent > *r.Max {
			return false
		}
		return true
	}
}

func companyPredicate(company string) predicate {
	return func(sub *types.Submission) bool {
		return strings.Contains(strings.ToLower(sub.CompanyName), company)
	}
}

func submitterPredicate(submitter string) predicate {
	return func(sub *types.Submission) bool {
		return strings.Contains(strings.ToLower(sub.SubmitterName), submitter)
	}
}

func hasDocumentsPredicate(required bool) predicate {
	return func(sub *types.Submission) bool {
		return (len(sub.Documents) > 0) == required
	}
}

// sortSubmissions 按指定字段稳定排序,缺失值按类型零值参与比较
func sortSubmissions(subs []*types.Submission, sortBy SortField, order SortOrder) {
	if sortBy == "" {
		sortBy = SortByDate
	}
	desc := order == OrderDesc

	less := lessFunc(sortBy)
	sort.SliceStable(subs, func(i, j int) bool {
		if desc {
			return less(subs[j], subs[i])
		}
		return less(subs[i], subs[j])
	})
}

// lessFunc 返回排序字段对应的比较函数
func lessFunc(sortBy SortField) func(a, b *types.Submission) bool {
	switch sortBy {
	case SortByScore:
		return func(a, b *types.Submission) bool {
			ap, _ := a.ScorePercentage()
			bp, _ := b.ScorePercentage()
			return ap < bp
		}
	case SortByCompany:
		return func(a, b *types.Submission) bool {
			return strings.ToLower(a.CompanyName) < strings.ToLower(b.CompanyName)
		}
	case SortByStatus:
		return func(a, b *types.Submission) bool {
			return a.Status < b.Status
		}
	case SortByRisk:
		return func(a, b *types.Submission) bool {
			return a.RiskRank() < b.RiskRank()
		}
	default: // SortByDate
		return func(a, b *types.Submission) bool {
			return a.SubmittedAt.Before(b.SubmittedAt)
		}
	}
}
