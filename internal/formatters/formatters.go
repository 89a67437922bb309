package formatters

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"atscore/internal/types"
)

// Formatter renders one data type in one output format
type Formatter interface {
	Format(data any) (string, error)
	SupportedType() string
}

// FormatterRegistry manages all available formatters
type FormatterRegistry struct {
	formatters map[string]map[string]Formatter // format -> type -> formatter
}

// GlobalRegistry holds the default formatters
var GlobalRegistry = NewFormatterRegistry()

// NewFormatterRegistry creates a new formatter registry with default formatters
func NewFormatterRegistry() *FormatterRegistry {
	registry := &FormatterRegistry{
		formatters: make(map[string]map[string]Formatter),
	}

	registry.RegisterFormatter("json", "any", &JSONFormatter{})
	for _, f := range []Formatter{
		&ScoreTextFormatter{}, &EnhanceTextFormatter{}, &ImproveTextFormatter{},
		&ReportTextFormatter{}, &BatchTextFormatter{}, &HistoryTextFormatter{},
	} {
		registry.RegisterFormatter("text", f.SupportedType(), f)
	}
	for _, f := range []Formatter{
		&ScoreMarkdownFormatter{}, &EnhanceMarkdownFormatter{}, &ImproveMarkdownFormatter{},
		&ReportMarkdownFormatter{}, &BatchMarkdownFormatter{}, &HistoryMarkdownFormatter{},
	} {
		registry.RegisterFormatter("markdown", f.SupportedType(), f)
	}

	return registry
}

// RegisterFormatter registers a new formatter for a specific format and data type
func (fr *FormatterRegistry) RegisterFormatter(format, dataType string, formatter Formatter) {
	if fr.formatters[format] == nil {
		fr.formatters[format] = make(map[string]Formatter)
	}
	fr.formatters[format][dataType] = formatter
}

// Format formats data using the appropriate formatter
func (fr *FormatterRegistry) Format(data any, format string) (string, error) {
	data = deref(data)
	dataType := getDataType(data)

	if formatters, exists := fr.formatters[format]; exists {
		if formatter, exists := formatters[dataType]; exists {
			return formatter.Format(data)
		}
		if formatter, exists := formatters["any"]; exists {
			return formatter.Format(data)
		}
	}

	return "", fmt.Errorf("no formatter found for format '%s' and type '%s'", format, dataType)
}

// GetSupportedFormats returns all supported formats, sorted
func (fr *FormatterRegistry) GetSupportedFormats() []string {
	formats := make([]string, 0, len(fr.formatters))
	for format := range fr.formatters {
		formats = append(formats, format)
	}
	sort.Strings(formats)
	return formats
}

func deref(data any) any {
	switch v := data.(type) {
	case *types.ScoreResult:
		return *v
	case *types.EnhanceOutput:
		return *v
	case *types.ImproveOutput:
		return *v
	case *types.ImprovementReport:
		return *v
	case *types.BatchScoreOutput:
		return *v
	}
	return data
}

func getDataType(data any) string {
	switch data.(type) {
	case types.ScoreResult:
		return "ScoreResult"
	case types.EnhanceOutput:
		return "EnhanceOutput"
	case types.ImproveOutput:
		return "ImproveOutput"
	case types.ImprovementReport:
		return "ImprovementReport"
	case types.BatchScoreOutput:
		return "BatchScoreOutput"
	case []types.ScoreEntry:
		return "ScoreEntries"
	default:
		return "any"
	}
}

// JSONFormatter handles JSON formatting for any data type
type JSONFormatter struct{}

func (jf *JSONFormatter) Format(data any) (string, error) {
	jsonData, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return "", err
	}
	return string(jsonData) + "\n", nil
}

func (jf *JSONFormatter) SupportedType() string { return "any" }

func mismatch(want string, data any) error {
	return fmt.Errorf("expected %s, got %T", want, data)
}

// displayName turns a rubric key into a title, e.g. section_completeness -> Section Completeness
func displayName(key string) string {
	words := strings.Split(key, "_")
	for i, w := range words {
		if w != "" {
			words[i] = strings.ToUpper(w[:1]) + w[1:]
		}
	}
	return strings.Join(words, " ")
}

func signed(v float64) string {
	if v > 0 {
		return fmt.Sprintf("+%.2f", v)
	}
	return fmt.Sprintf("%.2f", v)
}
