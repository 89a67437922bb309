package types

import "time"

// Rubric maxima
const (
	MaxSectionCompleteness = 25.0
	MaxKeywordOptimization = 25.0
	MaxFormatting          = 20.0
	MaxContentQuality      = 15.0
	MaxActionWords         = 15.0
	MaxTotalScore          = 100.0
)

// ScoreBreakdown holds the five rubric sub-scores
type ScoreBreakdown struct {
	SectionCompleteness float64 `json:"section_completeness" mapstructure:"section_completeness"`
	KeywordOptimization float64 `json:"keyword_optimization" mapstructure:"keyword_optimization"`
	Formatting          float64 `json:"formatting" mapstructure:"formatting"`
	ContentQuality      float64 `json:"content_quality" mapstructure:"content_quality"`
	ActionWords         float64 `json:"action_words" mapstructure:"action_words"`
}

// RubricScore is a single named entry of a breakdown
type RubricScore struct {
	Name  string  `json:"name"`
	Score float64 `json:"score"`
	Max   float64 `json:"max"`
}

// Values returns the sub-scores in rubric order
func (b ScoreBreakdown) Values() []RubricScore {
	return []RubricScore{
		{Name: "section_completeness", Score: b.SectionCompleteness, Max: MaxSectionCompleteness},
		{Name: "keyword_optimization", Score: b.KeywordOptimization, Max: MaxKeywordOptimization},
		{Name: "formatting", Score: b.Formatting, Max: MaxFormatting},
		{Name: "content_quality", Score: b.ContentQuality, Max: MaxContentQuality},
		{Name: "action_words", Score: b.ActionWords, Max: MaxActionWords},
	}
}

// Total returns the unrounded sum of all sub-scores
func (b ScoreBreakdown) Total() float64 {
	return b.SectionCompleteness + b.KeywordOptimization + b.Formatting + b.ContentQuality + b.ActionWords
}

// Clamped returns a copy with every sub-score limited to its rubric range
func (b ScoreBreakdown) Clamped() ScoreBreakdown {
	return ScoreBreakdown{
		SectionCompleteness: Clamp(b.SectionCompleteness, 0, MaxSectionCompleteness),
		KeywordOptimization: Clamp(b.KeywordOptimization, 0, MaxKeywordOptimization),
		Formatting:          Clamp(b.Formatting, 0, MaxFormatting),
		ContentQuality:      Clamp(b.ContentQuality, 0, MaxContentQuality),
		ActionWords:         Clamp(b.ActionWords, 0, MaxActionWords),
	}
}

// Clamp limits v to [lo, hi]
func Clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// ScoreResult is the outcome of one scoring call
type ScoreResult struct {
	TotalScore         float64        `json:"total_score"`
	Breakdown          ScoreBreakdown `json:"breakdown"`
	Recommendations    []string       `json:"recommendations"`
	Grade              string         `json:"grade"`
	GradeLabel         string         `json:"grade_label"`
	ImprovementsNeeded int            `json:"improvements_needed"`
	Source             string         `json:"source"`
	FallbackReason     string         `json:"fallback_reason,omitempty"`
}

// ImprovementStatus describes the direction of a score change
type ImprovementStatus string

const (
	StatusImproved  ImprovementStatus = "Improved"
	StatusUnchanged ImprovementStatus = "Unchanged"
	StatusDecreased ImprovementStatus = "Decreased"
)

// ImprovementReport compares an original and an enhanced score
type ImprovementReport struct {
	OriginalScore         float64           `json:"original_score"`
	EnhancedScore         float64           `json:"enhanced_score"`
	Improvement           float64           `json:"improvement"`
	ImprovementPercentage float64           `json:"improvement_percentage"`
	Status                ImprovementStatus `json:"status"`
}

// ScoreEntry is one record of a score history log
type ScoreEntry struct {
	ID         string    `json:"id"`
	Label      string    `json:"label"`
	RecordedAt time.Time `json:"recorded_at"`
	TotalScore float64   `json:"total_score"`
	Grade      string    `json:"grade"`
	Source     string    `json:"source"`
}

// ScoreInput is the input for scoring a resume
type ScoreInput struct {
	ResumeText     string `json:"resume_text" validate:"required"`
	JobDescription string `json:"job_description,omitempty"`
}

// EnhanceInput is the input for enhancing a resume
type EnhanceInput struct {
	ResumeText     string       `json:"resume_text" validate:"required"`
	JobDescription string       `json:"job_description,omitempty"`
	Baseline       *ScoreResult `json:"baseline,omitempty"`
}

// EnhanceOutput holds the enhanced resume text
type EnhanceOutput struct {
	EnhancedText string       `json:"enhanced_text"`
	Baseline     *ScoreResult `json:"baseline,omitempty"`
}

// ImproveInput is the input for the score, enhance and rescore pipeline
type ImproveInput struct {
	ResumeText     string `json:"resume_text" validate:"required"`
	JobDescription string `json:"job_description,omitempty"`
}

// ImproveOutput is the result of the full pipeline
type ImproveOutput struct {
	Original     ScoreResult       `json:"original"`
	EnhancedText string            `json:"enhanced_text"`
	Enhanced     ScoreResult       `json:"enhanced"`
	Report       ImprovementReport `json:"report"`
}

// CompareInput is the input for comparing two scores
type CompareInput struct {
	OriginalScore float64 `json:"original_score" validate:"gte=0,lte=100"`
	EnhancedScore float64 `json:"enhanced_score" validate:"gte=0,lte=100"`
}

// FileScore pairs a scored file with its result
type FileScore struct {
	File   string      `json:"file"`
	Result ScoreResult `json:"result"`
}

// BatchScoreOutput is the result of scoring several resumes
type BatchScoreOutput struct {
	Results []FileScore `json:"results"`
}
