package formatters

import (
	"fmt"
	"strings"

	"atscore/internal/types"
)

// ScoreTextFormatter renders a ScoreResult as plain text
type ScoreTextFormatter struct{}

func (f *ScoreTextFormatter) Format(data any) (string, error) {
	result, ok := data.(types.ScoreResult)
	if !ok {
		return "", mismatch("ScoreResult", data)
	}
	var out strings.Builder
	writeScoreText(&out, result)
	return out.String(), nil
}

func (f *ScoreTextFormatter) SupportedType() string { return "ScoreResult" }

func writeScoreText(out *strings.Builder, result types.ScoreResult) {
	out.WriteString("=== ATS SCORE ===\n")
	fmt.Fprintf(out, "Total: %.2f/100\n", result.TotalScore)
	fmt.Fprintf(out, "Grade: %s\n", result.GradeLabel)
	fmt.Fprintf(out, "Source: %s\n", result.Source)
	if result.FallbackReason != "" {
		fmt.Fprintf(out, "Fallback reason: %s\n", result.FallbackReason)
	}

	out.WriteString("\n=== BREAKDOWN ===\n")
	for _, r := range result.Breakdown.Values() {
		fmt.Fprintf(out, "%-22s %6.2f / %.0f\n", displayName(r.Name)+":", r.Score, r.Max)
	}

	fmt.Fprintf(out, "\n=== RECOMMENDATIONS (%d) ===\n", result.ImprovementsNeeded)
	if len(result.Recommendations) == 0 {
		out.WriteString("None - resume is well optimized\n")
	}
	for i, rec := range result.Recommendations {
		fmt.Fprintf(out, "%d. %s\n", i+1, rec)
	}
}

// EnhanceTextFormatter prints the enhanced resume only
type EnhanceTextFormatter struct{}

func (f *EnhanceTextFormatter) Format(data any) (string, error) {
	result, ok := data.(types.EnhanceOutput)
	if !ok {
		return "", mismatch("EnhanceOutput", data)
	}
	return result.EnhancedText + "\n", nil
}

func (f *EnhanceTextFormatter) SupportedType() string { return "EnhanceOutput" }

// ImproveTextFormatter renders the full pipeline result
type ImproveTextFormatter struct{}

func (f *ImproveTextFormatter) Format(data any) (string, error) {
	result, ok := data.(types.ImproveOutput)
	if !ok {
		return "", mismatch("ImproveOutput", data)
	}

	var out strings.Builder
	out.WriteString("##### ORIGINAL #####\n")
	writeScoreText(&out, result.Original)
	out.WriteString("\n##### ENHANCED RESUME #####\n")
	out.WriteString(result.EnhancedText)
	out.WriteString("\n\n##### ENHANCED #####\n")
	writeScoreText(&out, result.Enhanced)
	out.WriteString("\n")
	writeReportText(&out, result.Report)
	return out.String(), nil
}

func (f *ImproveTextFormatter) SupportedType() string { return "ImproveOutput" }

// ReportTextFormatter renders an ImprovementReport
type ReportTextFormatter struct{}

func (f *ReportTextFormatter) Format(data any) (string, error) {
	report, ok := data.(types.ImprovementReport)
	if !ok {
		return "", mismatch("ImprovementReport", data)
	}
	var out strings.Builder
	writeReportText(&out, report)
	return out.String(), nil
}

func (f *ReportTextFormatter) SupportedType() string { return "ImprovementReport" }

func writeReportText(out *strings.Builder, report types.ImprovementReport) {
	out.WriteString("=== IMPROVEMENT ===\n")
	fmt.Fprintf(out, "Original: %.2f\n", report.OriginalScore)
	fmt.Fprintf(out, "Enhanced: %.2f\n", report.EnhancedScore)
	fmt.Fprintf(out, "Change:   %s (%s%%)\n", signed(report.Improvement), signed(report.ImprovementPercentage))
	fmt.Fprintf(out, "Status:   %s\n", report.Status)
}

// BatchTextFormatter renders one line per scored file
type BatchTextFormatter struct{}

func (f *BatchTextFormatter) Format(data any) (string, error) {
	batch, ok := data.(types.BatchScoreOutput)
	if !ok {
		return "", mismatch("BatchScoreOutput", data)
	}
	var out strings.Builder
	for _, r := range batch.Results {
		fmt.Fprintf(&out, "%-30s %6.2f  %-3s %s\n", r.File, r.Result.TotalScore, r.Result.Grade, r.Result.Source)
	}
	return out.String(), nil
}

func (f *BatchTextFormatter) SupportedType() string { return "BatchScoreOutput" }

// HistoryTextFormatter renders a score history
type HistoryTextFormatter struct{}

func (f *HistoryTextFormatter) Format(data any) (string, error) {
	entries, ok := data.([]types.ScoreEntry)
	if !ok {
		return "", mismatch("[]ScoreEntry", data)
	}
	var out strings.Builder
	for _, e := range entries {
		fmt.Fprintf(&out, "%s  %-10s %6.2f  %-3s %s\n",
			e.RecordedAt.Format("2006-01-02 15:04:05"), e.Label, e.TotalScore, e.Grade, e.Source)
	}
	return out.String(), nil
}

func (f *HistoryTextFormatter) SupportedType() string { return "ScoreEntries" }
