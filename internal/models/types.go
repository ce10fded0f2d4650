package models

import (
	"strings"
	"time"
)

// Mood constants
const (
	MoodHappy       = "happy"
	MoodSad         = "sad"
	MoodAnxious     = "anxious"
	MoodGrateful    = "grateful"
	MoodExcited     = "excited"
	MoodCalm        = "calm"
	MoodStressed    = "stressed"
	MoodThoughtful  = "thoughtful"
	MoodContent     = "content"
	MoodOverwhelmed = "overwhelmed"
	MoodFrustrated  = "frustrated"
	MoodHopeful     = "hopeful"
	MoodLonely      = "lonely"
	MoodConfident   = "confident"
	MoodUncertain   = "uncertain"
	MoodMotivated   = "motivated"
	MoodTired       = "tired"
	MoodPeaceful    = "peaceful"
	MoodJoyful      = "joyful"
	MoodReflective  = "reflective"
	MoodBurnout     = "burnout"

	// DefaultMood replaces any mood outside the closed set.
	DefaultMood = MoodThoughtful
)

// Moods is the closed mood set, in display order.
var Moods = []string{
	MoodHappy, MoodSad, MoodAnxious, MoodGrateful, MoodExcited, MoodCalm,
	MoodStressed, MoodThoughtful, MoodContent, MoodOverwhelmed, MoodFrustrated,
	MoodHopeful, MoodLonely, MoodConfident, MoodUncertain, MoodMotivated,
	MoodTired, MoodPeaceful, MoodJoyful, MoodReflective, MoodBurnout,
}

var moodSet = func() map[string]bool {
	m := make(map[string]bool, len(Moods))
	for _, mood := range Moods {
		m[mood] = true
	}
	return m
}()

// IsMood reports whether mood belongs to the closed set.
func IsMood(mood string) bool {
	return moodSet[mood]
}

// Sentiment constants
const (
	SentimentPositive = "positive"
	SentimentNegative = "negative"
	SentimentNeutral  = "neutral"
)

// Level constants shared by intensity, stress, risk and urgency fields
const (
	LevelLow    = "low"
	LevelMedium = "medium"
	LevelHigh   = "high"
)

// AI source tags
const (
	SourceRemote   = "remote"
	SourceFallback = "fallback"
)

// Emotion is one detected emotion with its strength.
type Emotion struct {
	Emotion    string  `json:"emotion"`
	Confidence float64 `json:"confidence"`
	Intensity  string  `json:"intensity"`
}

// StressIndicators describes detected stress signals.
type StressIndicators struct {
	Level             string   `json:"level"`
	Triggers          []string `json:"triggers"`
	PhysicalSigns     []string `json:"physicalSigns"`
	CognitivePatterns []string `json:"cognitivePatterns"`
}

type PsychologicalTheme struct {
	Theme       string  `json:"theme"`
	Confidence  float64 `json:"confidence"`
	Description string  `json:"description"`
}

type PositiveElement struct {
	Element     string `json:"element"`
	Description string `json:"description"`
}

type GrowthOpportunity struct {
	Area        string `json:"area"`
	Description string `json:"description"`
}

type RiskFactor struct {
	Factor      string `json:"factor"`
	Level       string `json:"level"`
	Description string `json:"description"`
}

type Category struct {
	Category    string  `json:"category"`
	Subcategory string  `json:"subcategory"`
	Confidence  float64 `json:"confidence"`
}

type CognitiveDistortion struct {
	Type    string `json:"type"`
	Example string `json:"example"`
}

type CBTInsights struct {
	ThoughtPatterns      []string              `json:"thoughtPatterns"`
	CognitiveDistortions []CognitiveDistortion `json:"cognitiveDistortions"`
	BehavioralPatterns   []string              `json:"behavioralPatterns"`
}

// AnalysisResult is the structured emotional metadata for one journal text.
// It is built once per analysis and not modified afterwards.
type AnalysisResult struct {
	Mood            string       `json:"mood"`
	Confidence      float64      `json:"confidence"`
	Sentiment       string       `json:"sentiment"`
	SentimentScore  float64      `json:"sentimentScore"`
	Emotions        []Emotion    `json:"emotions"`
	Keywords        []string     `json:"keywords"`
	Suggestions     []Suggestion `json:"suggestions"`
	FlatSuggestions []string     `json:"flatSuggestions"`
	Summary         string       `json:"summary"`

	StressIndicators    StressIndicators     `json:"stressIndicators"`
	PsychologicalThemes []PsychologicalTheme `json:"psychologicalThemes"`
	PositiveElements    []PositiveElement    `json:"positiveElements"`
	GrowthOpportunities []GrowthOpportunity  `json:"growthOpportunities"`
	RiskFactors         []RiskFactor         `json:"riskFactors"`
	Categories          []Category           `json:"categories"`
	Labels              []string             `json:"labels"`
	UrgencyLevel        string               `json:"urgencyLevel"`
	FollowUpRecommended bool                 `json:"followUpRecommended"`
	CBTInsights         CBTInsights          `json:"cbtInsights"`

	Enhanced bool   `json:"enhancedAnalysis"`
	AISource string `json:"aiSource"`
}

// EmptyStressIndicators is the default when no stress data was produced.
func EmptyStressIndicators() StressIndicators {
	return StressIndicators{
		Level:             LevelLow,
		Triggers:          []string{},
		PhysicalSigns:     []string{},
		CognitivePatterns: []string{},
	}
}

// JournalEntry is a stored journal record.
type JournalEntry struct {
	ID        string         `json:"id"`
	Actor     string         `json:"actor"`
	Date      time.Time      `json:"date"`
	Text      string         `json:"text"`
	WordCount int            `json:"wordCount"`
	Analysis  AnalysisResult `json:"aiAnalysis"`
	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
}

// Words returns WordCount, falling back to counting the text.
func (e JournalEntry) Words() int {
	if e.WordCount > 0 {
		return e.WordCount
	}
	return CountWords(e.Text)
}

// CountWords counts whitespace-separated words.
func CountWords(text string) int {
	return len(strings.Fields(text))
}

// JournalRequest is the body for creating or updating an entry
type JournalRequest struct {
	Text string `json:"text"`
	Date string `json:"date,omitempty"` // RFC3339, defaults to now
}

// AnalyzeRequest is the body for the analyze-only endpoint
type AnalyzeRequest struct {
	Text string `json:"text"`
}

// Pagination describes a page of list results
type Pagination struct {
	TotalPages  int `json:"totalPages"`
	CurrentPage int `json:"currentPage"`
	Total       int `json:"total"`
	Limit       int `json:"limit"`
}

// JournalListResponse is returned by the list endpoint
type JournalListResponse struct {
	Entries    []JournalEntry `json:"entries"`
	Pagination Pagination     `json:"pagination"`
}

// ExportResponse is returned by the export endpoint
type ExportResponse struct {
	Entries    []JournalEntry `json:"entries"`
	Count      int            `json:"count"`
	ExportedAt string         `json:"exportedAt"`
}

// Reflection is a stored weekly reflection
type Reflection struct {
	ID        string `json:"id"`
	Actor     string `json:"actor"`
	Range     string `json:"range"`
	ForDate   string `json:"forDate"`
	Text      string `json:"text"`
	CreatedAt string `json:"createdAt"`
}

// ReflectionsResponse is returned by the reflections endpoint
type ReflectionsResponse struct {
	Reflections []Reflection `json:"reflections"`
}

// HealthResponse is returned by the health endpoint
type HealthResponse struct {
	Status   string `json:"status"`
	LLM      string `json:"llm"`
	Analysis string `json:"analysis"` // "remote" or "fallback"
	Database string `json:"database"`
	Version  string `json:"version"`
}
