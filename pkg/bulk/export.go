package bulk

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"time"

	"github.com/solidrange/solidrange-form-flow-sub000/pkg/types"
)

// exportColumns 导出列,顺序和列名必须保持不变以兼容下游
var exportColumns = []string{
	"id", "company", "submitter", "email", "status", "score", "risk_level", "submitted_at",
}

// ExportCSV 将提交集合物化为 CSV 表格文本
// 列顺序固定: id, company, submitter, email, status, score, risk_level,
// submitted_at(ISO-8601);未评分的提交 score 和 risk_level 留空
func ExportCSV(submissions []*types.Submission) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write(exportColumns); err != nil {
		return nil, fmt.Errorf("failed to write export header: %w", err)
	}

	for _, sub := range submissions {
		score := ""
		riskLevel := ""
		if sub.Score != nil {
			score = fmt.Sprintf("%d", sub.Score.Percentage)
			riskLevel = string(sub.Score.RiskLevel)
		}

		record := []string{
			sub.ID,
			sub.CompanyName,
			sub.SubmitterName,
			sub.SubmitterEmail,
			string(sub.Status),
			score,
			riskLevel,
			sub.SubmittedAt.Format(time.RFC3339),
		}
		if err := w.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write export row: %w", err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("failed to flush export: %w", err)
	}
	return buf.Bytes(), nil
}
