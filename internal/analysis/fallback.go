package analysis

import (
	"math"
	"regexp"
	"strings"

	"github.com/mrwolf/journal-server/internal/models"
)

// keywordMood pairs a table keyword with the mood it stands for.
type keywordMood struct {
	word string
	mood string
}

// Keyword tables, in tie-break priority order.
var (
	positiveKeywords = []keywordMood{
		{"happy", models.MoodHappy},
		{"joy", models.MoodJoyful},
		{"great", models.MoodHappy},
		{"wonderful", models.MoodHappy},
		{"amazing", models.MoodExcited},
		{"grateful", models.MoodGrateful},
		{"love", models.MoodHappy},
		{"excited", models.MoodExcited},
		{"perfect", models.MoodHappy},
		{"awesome", models.MoodExcited},
	}
	negativeKeywords = []keywordMood{
		{"sad", models.MoodSad},
		{"stressed", models.MoodStressed},
		{"overwhelmed", models.MoodOverwhelmed},
		{"anxious", models.MoodAnxious},
		{"worried", models.MoodAnxious},
		{"tired", models.MoodTired},
		{"frustrated", models.MoodFrustrated},
		{"angry", models.MoodFrustrated},
		{"difficult", models.MoodStressed},
	}
	calmKeywords = []keywordMood{
		{"peaceful", models.MoodPeaceful},
		{"calm", models.MoodCalm},
		{"relaxed", models.MoodCalm},
		{"content", models.MoodContent},
		{"serene", models.MoodPeaceful},
		{"quiet", models.MoodCalm},
		{"meditative", models.MoodCalm},
	}
)

var fallbackStopwords = map[string]bool{
	"the": true, "a": true, "an": true, "and": true, "or": true, "but": true,
	"in": true, "on": true, "at": true, "to": true, "for": true, "of": true,
	"with": true, "by": true, "is": true, "are": true, "was": true, "were": true,
	"be": true, "been": true, "have": true, "has": true, "had": true, "do": true,
	"does": true, "did": true, "will": true, "would": true, "could": true,
	"should": true, "may": true, "might": true, "must": true, "can": true,
	"i": true, "you": true, "he": true, "she": true, "it": true, "we": true,
	"they": true, "me": true, "him": true, "her": true, "us": true, "them": true,
	"my": true, "your": true, "his": true, "its": true, "our": true, "their": true,
	"that": true, "this": true, "these": true, "those": true, "there": true,
	"then": true, "than": true, "what": true, "when": true, "just": true,
	"very": true, "really": true, "from": true, "about": true, "into": true,
}

var (
	tokenRegex       = regexp.MustCompile(`[a-z0-9']+`)
	punctuationRegex = regexp.MustCompile(`[^\w\s]`)
)

const (
	maxFallbackKeywords = 8
	minKeywordLength    = 4

	detailedWordCount = 100
	briefWordCount    = 50
)

var moodSummaries = map[string]string{
	models.MoodHappy:       "A joyful and positive entry reflecting good emotional well-being.",
	models.MoodJoyful:      "A joyful and positive entry reflecting good emotional well-being.",
	models.MoodExcited:     "An energized entry full of anticipation and enthusiasm.",
	models.MoodGrateful:    "An appreciative reflection showing strong emotional resilience.",
	models.MoodStressed:    "Work or life pressures are affecting your well-being. Focus needed on stress management.",
	models.MoodOverwhelmed: "A lot is competing for your attention right now. Smaller steps may help.",
	models.MoodAnxious:     "Anxiety is present in your thoughts. Consider implementing calming strategies.",
	models.MoodSad:         "A heavier entry that acknowledges difficult feelings honestly.",
	models.MoodTired:       "Fatigue comes through in this entry. Rest deserves a place in your plans.",
	models.MoodFrustrated:  "Frustration is showing up here. Naming it is a useful first step.",
	models.MoodCalm:        "A peaceful and balanced state of mind reflected in your writing.",
	models.MoodPeaceful:    "A peaceful and balanced state of mind reflected in your writing.",
	models.MoodContent:     "A settled, contented entry reflecting a balanced state of mind.",
	models.MoodThoughtful:  "A reflective entry showing good self-awareness and introspection.",
}

var moodSuggestions = map[string][]string{
	models.MoodHappy: {
		"Keep up the positive energy by maintaining your current habits",
		"Share your joy with others to amplify the positive feelings",
		"Consider journaling about what specifically made you happy today",
		"Take a moment to appreciate this positive moment fully",
	},
	models.MoodGrateful: {
		"Continue practicing gratitude - it's clearly benefiting your well-being",
		"Consider writing thank-you notes to people who made a difference",
		"Try a gratitude meditation before bed",
		"Keep a gratitude jar for future reflection",
	},
	models.MoodStressed: {
		"Take regular breaks throughout your day",
		"Try deep breathing exercises: 4 counts in, hold for 4, out for 4",
		"Consider time-blocking to manage your workload better",
		"Schedule some self-care time this week",
	},
	models.MoodAnxious: {
		"Practice grounding techniques: name 5 things you can see, 4 you can hear, 3 you can touch",
		"Try progressive muscle relaxation",
		"Consider talking to someone you trust about your concerns",
		"Limit caffeine and practice gentle movement",
	},
	models.MoodCalm: {
		"Maintain this peaceful state with regular meditation",
		"Spend time in nature to enhance your sense of calm",
		"Consider yoga or gentle stretching",
		"Keep a calm environment around you",
	},
	models.MoodThoughtful: {
		"Your reflective nature is a strength - continue this self-awareness",
		"Consider exploring your thoughts through creative expression",
		"Try mindfulness meditation to deepen your insights",
		"Journal regularly to track your emotional patterns",
	},
}

var defaultSuggestions = []string{
	"Remember to be kind to yourself",
	"Take time for activities that bring you joy",
	"Stay connected with supportive people in your life",
	"Practice mindful breathing when feeling overwhelmed",
}

// tableScore is the outcome of scanning one keyword table.
type tableScore struct {
	total int
	mood  string // mood of the most frequent keyword, first in table order on ties
}

func scoreTable(counts map[string]int, table []keywordMood) tableScore {
	var score tableScore
	best := 0
	for _, kw := range table {
		n := counts[kw.word]
		score.total += n
		if n > best {
			best = n
			score.mood = kw.mood
		}
	}
	return score
}

// AnalyzeLocally produces an analysis from fixed keyword tables without any
// network call. The result depends only on text.
func AnalyzeLocally(text string) models.AnalysisResult {
	lower := strings.ToLower(text)
	counts := make(map[string]int)
	for _, token := range tokenRegex.FindAllString(lower, -1) {
		counts[token]++
	}

	pos := scoreTable(counts, positiveKeywords)
	neg := scoreTable(counts, negativeKeywords)
	calm := scoreTable(counts, calmKeywords)

	mood := models.MoodThoughtful
	sentiment := models.SentimentNeutral
	score := 0.0

	switch {
	case pos.total > neg.total && pos.total > calm.total:
		mood = pos.mood
		sentiment = models.SentimentPositive
		score = 0.3 + float64(pos.total)*0.2
	case neg.total > pos.total:
		mood = neg.mood
		sentiment = models.SentimentNegative
		score = -0.3 - float64(neg.total)*0.2
	case calm.total > 0:
		mood = calm.mood
		sentiment = models.SentimentPositive
		score = 0.2
	}

	matches := pos.total + neg.total + calm.total
	confidence := 0.75 + 0.05*math.Min(float64(matches), 4)

	suggestions := fallbackSuggestions(mood)
	return models.AnalysisResult{
		Mood:           mood,
		Confidence:     confidence,
		Sentiment:      sentiment,
		SentimentScore: clamp(score, -1, 1),
		Emotions: []models.Emotion{
			{Emotion: mood, Confidence: 0.8, Intensity: models.LevelMedium},
			{Emotion: models.MoodReflective, Confidence: 0.6, Intensity: models.LevelLow},
		},
		Keywords:        ExtractKeywords(text),
		Suggestions:     suggestions,
		FlatSuggestions: models.FlattenSuggestions(suggestions),
		Summary:         fallbackSummary(mood, models.CountWords(text)),

		StressIndicators:    models.EmptyStressIndicators(),
		PsychologicalThemes: []models.PsychologicalTheme{},
		PositiveElements:    []models.PositiveElement{},
		GrowthOpportunities: []models.GrowthOpportunity{},
		RiskFactors:         []models.RiskFactor{},
		Categories:          []models.Category{},
		Labels:              []string{},
		UrgencyLevel:        models.LevelLow,
		CBTInsights: models.CBTInsights{
			ThoughtPatterns:      []string{},
			CognitiveDistortions: []models.CognitiveDistortion{},
			BehavioralPatterns:   []string{},
		},
		AISource: models.SourceFallback,
	}
}

// ExtractKeywords returns up to 8 distinct non-stopword tokens of at least
// four characters, in order of first appearance.
func ExtractKeywords(text string) []string {
	cleaned := punctuationRegex.ReplaceAllString(strings.ToLower(text), "")

	seen := make(map[string]bool)
	keywords := []string{}
	for _, word := range strings.Fields(cleaned) {
		if len(keywords) == maxFallbackKeywords {
			break
		}
		if len(word) < minKeywordLength || fallbackStopwords[word] || seen[word] {
			continue
		}
		seen[word] = true
		keywords = append(keywords, word)
	}
	return keywords
}

func fallbackSuggestions(mood string) []models.Suggestion {
	texts, ok := moodSuggestions[mood]
	if !ok {
		texts = defaultSuggestions
	}
	suggestions := make([]models.Suggestion, 0, len(texts))
	for _, t := range texts {
		suggestions = append(suggestions, models.PlainSuggestion(t))
	}
	return suggestions
}

func fallbackSummary(mood string, wordCount int) string {
	base, ok := moodSummaries[mood]
	if !ok {
		base = "A thoughtful entry reflecting your current emotional state."
	}

	switch {
	case wordCount > detailedWordCount:
		return base + " Your detailed reflection shows good self-awareness and emotional processing."
	case wordCount < briefWordCount:
		return base + " Consider expanding on your thoughts in future entries for deeper insights."
	default:
		return base + " This entry shows a healthy level of self-reflection."
	}
}
