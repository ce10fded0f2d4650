package analysis

import (
	"encoding/json"
	"errors"
	"math"
	"strings"

	"github.com/spf13/cast"

	"github.com/mrwolf/journal-server/internal/models"
)

// ErrUnusable indicates a parsed response lacks every core field.
var ErrUnusable = errors.New("unusable model response")

const (
	maxEmotions    = 5
	maxKeywords    = 10
	maxSuggestions = 4
	maxSummary     = 500

	defaultConfidence = 0.7
	defaultSummary    = "Journal entry processed successfully."
)

// extensionKeys are the optional fields only a remote model produces.
var extensionKeys = []string{
	"stressIndicators", "psychologicalThemes", "positiveElements",
	"growthOpportunities", "riskFactors", "categories", "labels",
	"urgencyLevel", "followUpRecommended", "cbtInsights",
}

var (
	validSentiments = map[string]bool{
		models.SentimentPositive: true,
		models.SentimentNegative: true,
		models.SentimentNeutral:  true,
	}
	validLevels = map[string]bool{
		models.LevelLow:    true,
		models.LevelMedium: true,
		models.LevelHigh:   true,
	}
	validSuggestionCategories = map[string]bool{
		models.SuggestionImmediate:     true,
		models.SuggestionDailyPractice: true,
		models.SuggestionLifestyle:     true,
		models.SuggestionProfessional:  true,
		models.SuggestionSocial:        true,
	}
	validTimeframes = map[string]bool{
		models.TimeframeNow:      true,
		models.TimeframeToday:    true,
		models.TimeframeThisWeek: true,
		models.TimeframeOngoing:  true,
	}
)

// Normalize enforces the analysis contract on a parsed model response.
// It never consults randomness: the same candidate always yields the same result.
func Normalize(candidate map[string]any) (*models.AnalysisResult, error) {
	_, hasMood := candidate["mood"]
	_, hasSuggestions := candidate["suggestions"]
	_, hasSummary := candidate["summary"]
	if !hasMood && !hasSuggestions && !hasSummary {
		return nil, ErrUnusable
	}

	suggestions := normalizeSuggestions(candidate["suggestions"])
	result := &models.AnalysisResult{
		Mood:            normalizeMood(candidate["mood"]),
		Confidence:      clamp(toFloat(candidate["confidence"], defaultConfidence), 0, 1),
		Sentiment:       oneOf(candidate["sentiment"], validSentiments, models.SentimentNeutral),
		SentimentScore:  clamp(toFloat(candidate["sentimentScore"], 0), -1, 1),
		Emotions:        normalizeEmotions(candidate["emotions"]),
		Keywords:        stringList(candidate["keywords"], maxKeywords),
		Suggestions:     suggestions,
		FlatSuggestions: models.FlattenSuggestions(suggestions),
		Summary:         normalizeSummary(candidate["summary"]),

		StressIndicators:    models.EmptyStressIndicators(),
		PsychologicalThemes: []models.PsychologicalTheme{},
		PositiveElements:    []models.PositiveElement{},
		GrowthOpportunities: []models.GrowthOpportunity{},
		RiskFactors:         []models.RiskFactor{},
		Categories:          []models.Category{},
		Labels:              stringList(candidate["labels"], -1),
		UrgencyLevel:        oneOf(candidate["urgencyLevel"], validLevels, models.LevelLow),
		FollowUpRecommended: cast.ToBool(candidate["followUpRecommended"]),
		CBTInsights: models.CBTInsights{
			ThoughtPatterns:      []string{},
			CognitiveDistortions: []models.CognitiveDistortion{},
			BehavioralPatterns:   []string{},
		},
	}

	if decodeInto(candidate["stressIndicators"], &result.StressIndicators) {
		si := &result.StressIndicators
		si.Level = oneOf(si.Level, validLevels, models.LevelLow)
		si.Triggers = nonNil(si.Triggers)
		si.PhysicalSigns = nonNil(si.PhysicalSigns)
		si.CognitivePatterns = nonNil(si.CognitivePatterns)
	}
	decodeInto(candidate["psychologicalThemes"], &result.PsychologicalThemes)
	decodeInto(candidate["positiveElements"], &result.PositiveElements)
	decodeInto(candidate["growthOpportunities"], &result.GrowthOpportunities)
	if decodeInto(candidate["riskFactors"], &result.RiskFactors) {
		for i := range result.RiskFactors {
			result.RiskFactors[i].Level = oneOf(result.RiskFactors[i].Level, validLevels, models.LevelLow)
		}
	}
	decodeInto(candidate["categories"], &result.Categories)
	if decodeInto(candidate["cbtInsights"], &result.CBTInsights) {
		cbt := &result.CBTInsights
		cbt.ThoughtPatterns = nonNil(cbt.ThoughtPatterns)
		cbt.BehavioralPatterns = nonNil(cbt.BehavioralPatterns)
		if cbt.CognitiveDistortions == nil {
			cbt.CognitiveDistortions = []models.CognitiveDistortion{}
		}
	}

	for _, key := range extensionKeys {
		if _, ok := candidate[key]; ok {
			result.Enhanced = true
			break
		}
	}

	return result, nil
}

func normalizeMood(v any) string {
	mood := strings.ToLower(strings.TrimSpace(cast.ToString(v)))
	if models.IsMood(mood) {
		return mood
	}
	return models.DefaultMood
}

func normalizeSummary(v any) string {
	summary, ok := v.(string)
	if !ok || strings.TrimSpace(summary) == "" {
		return defaultSummary
	}
	return truncateRunes(strings.TrimSpace(summary), maxSummary)
}

func normalizeEmotions(v any) []models.Emotion {
	items, _ := v.([]any)
	emotions := []models.Emotion{}
	for _, item := range items {
		if len(emotions) == maxEmotions {
			break
		}
		switch e := item.(type) {
		case string:
			if e = strings.TrimSpace(e); e != "" {
				emotions = append(emotions, models.Emotion{Emotion: e, Confidence: defaultConfidence, Intensity: models.LevelMedium})
			}
		case map[string]any:
			name := strings.TrimSpace(cast.ToString(e["emotion"]))
			if name == "" {
				continue
			}
			emotions = append(emotions, models.Emotion{
				Emotion:    name,
				Confidence: clamp(toFloat(e["confidence"], defaultConfidence), 0, 1),
				Intensity:  oneOf(e["intensity"], validLevels, models.LevelMedium),
			})
		}
	}
	return emotions
}

// normalizeSuggestions accepts a mix of strings and {category, action,
// reason, timeframe} objects. Objects without an action are dropped.
func normalizeSuggestions(v any) []models.Suggestion {
	items, _ := v.([]any)
	suggestions := []models.Suggestion{}
	for _, item := range items {
		if len(suggestions) == maxSuggestions {
			break
		}
		switch s := item.(type) {
		case string:
			if s = strings.TrimSpace(s); s != "" {
				suggestions = append(suggestions, models.PlainSuggestion(s))
			}
		case map[string]any:
			action := strings.TrimSpace(cast.ToString(s["action"]))
			if action == "" {
				continue
			}
			suggestions = append(suggestions, models.StructuredSuggestion(
				oneOf(s["category"], validSuggestionCategories, models.SuggestionDailyPractice),
				action,
				strings.TrimSpace(cast.ToString(s["reason"])),
				oneOf(s["timeframe"], validTimeframes, models.TimeframeOngoing),
			))
		}
	}
	return suggestions
}

// stringList keeps the non-empty string items of v, up to limit (-1 for all).
func stringList(v any, limit int) []string {
	items, _ := v.([]any)
	out := []string{}
	for _, item := range items {
		if limit >= 0 && len(out) == limit {
			break
		}
		s, ok := item.(string)
		if !ok {
			continue
		}
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// toFloat reads numbers and numeric strings ("0.8"); anything else yields def.
func toFloat(v any, def float64) float64 {
	if v == nil {
		return def
	}
	f, err := cast.ToFloat64E(v)
	if err != nil || math.IsNaN(f) {
		return def
	}
	return f
}

func oneOf(v any, valid map[string]bool, def string) string {
	s := strings.ToLower(strings.TrimSpace(cast.ToString(v)))
	if valid[s] {
		return s
	}
	return def
}

// decodeInto re-decodes a generic JSON value into a typed destination.
// A shape mismatch leaves dst untouched and reports false.
func decodeInto[T any](v any, dst *T) bool {
	if v == nil {
		return false
	}
	data, err := json.Marshal(v)
	if err != nil {
		return false
	}
	var decoded T
	if err := json.Unmarshal(data, &decoded); err != nil {
		return false
	}
	*dst = decoded
	return true
}

func nonNil(ss []string) []string {
	if ss == nil {
		return []string{}
	}
	return ss
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

func truncateRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
