package formatters

import (
	"fmt"
	"strings"

	"atscore/internal/types"
)

// ScoreMarkdownFormatter renders a ScoreResult as Markdown
type ScoreMarkdownFormatter struct{}

func (f *ScoreMarkdownFormatter) Format(data any) (string, error) {
	result, ok := data.(types.ScoreResult)
	if !ok {
		return "", mismatch("ScoreResult", data)
	}
	var out strings.Builder
	writeScoreMarkdown(&out, "# ATS Score", result)
	return out.String(), nil
}

func (f *ScoreMarkdownFormatter) SupportedType() string { return "ScoreResult" }

func writeScoreMarkdown(out *strings.Builder, heading string, result types.ScoreResult) {
	fmt.Fprintf(out, "%s\n\n", heading)
	fmt.Fprintf(out, "**Total:** %.2f/100  \n", result.TotalScore)
	fmt.Fprintf(out, "**Grade:** %s  \n", result.GradeLabel)
	fmt.Fprintf(out, "**Source:** %s\n", result.Source)
	if result.FallbackReason != "" {
		fmt.Fprintf(out, "\n> Fallback: %s\n", result.FallbackReason)
	}

	out.WriteString("\n| Rubric | Score | Max |\n|---|---:|---:|\n")
	for _, r := range result.Breakdown.Values() {
		fmt.Fprintf(out, "| %s | %.2f | %.0f |\n", displayName(r.Name), r.Score, r.Max)
	}

	out.WriteString("\n## Recommendations\n\n")
	if len(result.Recommendations) == 0 {
		out.WriteString("_None_\n")
	}
	for _, rec := range result.Recommendations {
		fmt.Fprintf(out, "- %s\n", rec)
	}
}

// EnhanceMarkdownFormatter wraps the enhanced resume in a code block
type EnhanceMarkdownFormatter struct{}

func (f *EnhanceMarkdownFormatter) Format(data any) (string, error) {
	result, ok := data.(types.EnhanceOutput)
	if !ok {
		return "", mismatch("EnhanceOutput", data)
	}
	return "# Enhanced Resume\n\n```\n" + result.EnhancedText + "\n```\n", nil
}

func (f *EnhanceMarkdownFormatter) SupportedType() string { return "EnhanceOutput" }

// ImproveMarkdownFormatter renders the full pipeline result
type ImproveMarkdownFormatter struct{}

func (f *ImproveMarkdownFormatter) Format(data any) (string, error) {
	result, ok := data.(types.ImproveOutput)
	if !ok {
		return "", mismatch("ImproveOutput", data)
	}

	var out strings.Builder
	out.WriteString("# Resume Improvement\n\n")
	writeReportMarkdown(&out, result.Report)
	out.WriteString("\n")
	writeScoreMarkdown(&out, "## Original Score", result.Original)
	out.WriteString("\n")
	writeScoreMarkdown(&out, "## Enhanced Score", result.Enhanced)
	out.WriteString("\n## Enhanced Resume\n\n```\n")
	out.WriteString(result.EnhancedText)
	out.WriteString("\n```\n")
	return out.String(), nil
}

func (f *ImproveMarkdownFormatter) SupportedType() string { return "ImproveOutput" }

// ReportMarkdownFormatter renders an ImprovementReport
type ReportMarkdownFormatter struct{}

func (f *ReportMarkdownFormatter) Format(data any) (string, error) {
	report, ok := data.(types.ImprovementReport)
	if !ok {
		return "", mismatch("ImprovementReport", data)
	}
	var out strings.Builder
	writeReportMarkdown(&out, report)
	return out.String(), nil
}

func (f *ReportMarkdownFormatter) SupportedType() string { return "ImprovementReport" }

func writeReportMarkdown(out *strings.Builder, report types.ImprovementReport) {
	out.WriteString("| Original | Enhanced | Change | Change % | Status |\n|---:|---:|---:|---:|---|\n")
	fmt.Fprintf(out, "| %.2f | %.2f | %s | %s%% | %s |\n",
		report.OriginalScore, report.EnhancedScore,
		signed(report.Improvement), signed(report.ImprovementPercentage), report.Status)
}

// BatchMarkdownFormatter renders a table of scored files
type BatchMarkdownFormatter struct{}

func (f *BatchMarkdownFormatter) Format(data any) (string, error) {
	batch, ok := data.(types.BatchScoreOutput)
	if !ok {
		return "", mismatch("BatchScoreOutput", data)
	}
	var out strings.Builder
	out.WriteString("| File | Score | Grade | Source |\n|---|---:|---|---|\n")
	for _, r := range batch.Results {
		fmt.Fprintf(&out, "| %s | %.2f | %s | %s |\n", r.File, r.Result.TotalScore, r.Result.Grade, r.Result.Source)
	}
	return out.String(), nil
}

func (f *BatchMarkdownFormatter) SupportedType() string { return "BatchScoreOutput" }

// HistoryMarkdownFormatter renders a score history table
type HistoryMarkdownFormatter struct{}

func (f *HistoryMarkdownFormatter) Format(data any) (string, error) {
	entries, ok := data.([]types.ScoreEntry)
	if !ok {
		return "", mismatch("[]ScoreEntry", data)
	}
	var out strings.Builder
	out.WriteString("| Recorded | Label | Score | Grade | Source |\n|---|---|---:|---|---|\n")
	for _, e := range entries {
		fmt.Fprintf(&out, "| %s | %s | %.2f | %s | %s |\n",
			e.RecordedAt.Format("2006-01-02 15:04:05"), e.Label, e.TotalScore, e.Grade, e.Source)
	}
	return out.String(), nil
}

func (f *HistoryMarkdownFormatter) SupportedType() string { return "ScoreEntries" }
