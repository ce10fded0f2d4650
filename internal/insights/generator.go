package insights

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/mrwolf/journal-server/internal/models"
)

const (
	positiveThreshold = 0.2
	negativeThreshold = -0.2

	highFrequencyWords   = 200
	mediumFrequencyWords = 100

	minSelfCare = 65
	maxTopMoods = 3
	maxGoals    = 3
	maxTodos    = 4

	recentEntries      = 3
	habitEntries       = 3
	milestoneEntries   = 5
	detailedEntryWords = 200
	positiveEntryScore = 0.3
	positiveEntryShare = 0.6
)

// Keyword sets for wellness indicators. Matching is by substring presence
// per entry, so an entry counts at most once per set.
var (
	positiveAffectWords = []string{"happy", "grateful", "excited", "calm", "content", "peaceful", "joyful", "hopeful", "confident", "motivated"}
	stressWords         = []string{"stressed", "anxious", "sad", "overwhelmed", "frustrated", "lonely", "uncertain", "tired", "burnout"}
	gratitudeWords      = []string{"grateful", "thankful", "appreciate"}

	stressMoods = map[string]bool{
		models.MoodStressed:    true,
		models.MoodAnxious:     true,
		models.MoodOverwhelmed: true,
	}
)

const emptyReflection = "Start journaling to get personalized insights about your emotional patterns and well-being trends."

// GenerateReflection writes a short paragraph about the period. dist must be
// ordered as ComputeDistribution orders it.
func GenerateReflection(entries []models.JournalEntry, dist []MoodShare) string {
	if len(entries) == 0 || len(dist) == 0 {
		return emptyReflection
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Over the past period, you've made %d journal entries. ", len(entries))

	switch avg := averageSentiment(entries); {
	case avg > positiveThreshold:
		b.WriteString("Your overall emotional tone has been quite positive, showing good mental wellness. ")
	case avg < negativeThreshold:
		b.WriteString("You've been processing some challenging emotions. Remember that difficult periods are part of growth. ")
	default:
		b.WriteString("Your emotional state has been balanced, showing good emotional regulation. ")
	}

	dominant := dist[0]
	fmt.Fprintf(&b, "Your most frequent mood was %s, appearing in %d%% of your entries. ", dominant.Mood, dominant.Percentage)

	switch dominant.Mood {
	case models.MoodHappy, models.MoodGrateful:
		b.WriteString("Keep nurturing the activities and mindset that support your positive well-being.")
	case models.MoodStressed, models.MoodAnxious:
		b.WriteString("Consider incorporating more stress-relief techniques and self-care practices into your routine.")
	default:
		b.WriteString("Continue this reflective practice to maintain your emotional awareness and growth.")
	}

	return b.String()
}

// GenerateInsights derives habit and wellness figures. It returns nil for an
// empty entry set. Weekdays and the 7-day consistency window use ref's location.
func GenerateInsights(entries []models.JournalEntry, dist []MoodShare, totalWords int, ref time.Time) *Insights {
	if len(entries) == 0 {
		return nil
	}
	n := len(entries)
	avg := averageSentiment(entries)

	avgWords := int(math.Round(float64(totalWords) / float64(n)))
	frequency := "Low"
	switch {
	case avgWords > highFrequencyWords:
		frequency = "High"
	case avgWords > mediumFrequencyWords:
		frequency = "Medium"
	}

	trend := "neutral"
	switch {
	case avg > positiveThreshold:
		trend = "positive"
	case avg < negativeThreshold:
		trend = "negative"
	}

	top := make([]string, 0, maxTopMoods)
	for i := 0; i < len(dist) && i < maxTopMoods; i++ {
		top = append(top, dist[i].Mood)
	}

	var positive, stress, gratitude int
	for _, e := range entries {
		text := strings.ToLower(e.Text)
		if containsAny(text, positiveAffectWords) {
			positive++
		}
		if containsAny(text, stressWords) {
			stress++
		}
		if containsAny(text, gratitudeWords) {
			gratitude++
		}
	}

	selfCare := int(math.Round(avg*50 + 50))
	selfCare = max(minSelfCare, min(100, selfCare))

	return &Insights{
		MostProductiveDay:   mostProductiveDay(entries, ref.Location()),
		AverageWordsPerDay:  avgWords,
		EmotionalTrend:      trend,
		ConsistencyScore:    consistencyScore(entries, ref),
		TopEmotions:         top,
		JournalingFrequency: frequency,
		WellnessIndicators: WellnessIndicators{
			PositiveThoughts:  min(100, percent(positive, n)),
			StressLevels:      min(100, percent(stress, n)),
			GratitudePractice: min(100, percent(gratitude, n)),
			SelfCare:          selfCare,
		},
	}
}

// GenerateReminders picks goals, todos and achievements by simple rules.
// entries must be ordered most recent first.
func GenerateReminders(entries []models.JournalEntry) Reminders {
	goals := []string{
		"Practice daily gratitude",
		"Maintain consistent journaling",
		"Focus on emotional awareness",
	}
	todos := []string{
		"Reflect on today's positive moments",
		"Set aside 10 minutes for mindfulness",
		"Plan one self-care activity",
	}

	recentStress := false
	for i := 0; i < len(entries) && i < recentEntries; i++ {
		if stressMoods[entries[i].Analysis.Mood] {
			recentStress = true
			break
		}
	}
	if recentStress {
		todos = append([]string{"Try a breathing exercise"}, todos...)
		todos = append(todos, "Consider talking to someone you trust")
		goals = append([]string{"Manage stress levels"}, goals...)
	}

	if len(entries) < habitEntries {
		todos = append([]string{"Write a short journal entry"}, todos...)
		goals = append([]string{"Build a consistent journaling habit"}, goals...)
	}

	var achievements []string
	if len(entries) >= milestoneEntries {
		achievements = append(achievements, fmt.Sprintf("%d journal entries completed!", len(entries)))
	}
	positiveCount := 0
	detailed := false
	for _, e := range entries {
		if e.Words() > detailedEntryWords {
			detailed = true
		}
		if e.Analysis.SentimentScore > positiveEntryScore {
			positiveCount++
		}
	}
	if detailed {
		achievements = append(achievements, "Detailed journaling - great depth!")
	}
	if len(entries) > 0 && float64(positiveCount) > float64(len(entries))*positiveEntryShare {
		achievements = append(achievements, "Maintaining positive mindset")
	}
	if len(achievements) == 0 {
		achievements = []string{"Keep journaling to unlock achievements!"}
	}

	return Reminders{
		CurrentGoals: goals[:min(len(goals), maxGoals)],
		Todos:        todos[:min(len(todos), maxTodos)],
		Achievements: achievements,
	}
}

func averageSentiment(entries []models.JournalEntry) float64 {
	if len(entries) == 0 {
		return 0
	}
	sum := 0.0
	for _, e := range entries {
		sum += clampScore(e.Analysis.SentimentScore)
	}
	return sum / float64(len(entries))
}

// mostProductiveDay returns the weekday with the most entries. Ties go to
// the earlier weekday, Sunday first.
func mostProductiveDay(entries []models.JournalEntry, loc *time.Location) string {
	var counts [7]int
	for _, e := range entries {
		counts[e.Date.In(loc).Weekday()]++
	}
	best := time.Sunday
	for d := time.Sunday; d <= time.Saturday; d++ {
		if counts[d] > counts[best] {
			best = d
		}
	}
	return best.String()
}

// consistencyScore is the share of the 7 calendar days ending at ref that
// have at least one entry.
func consistencyScore(entries []models.JournalEntry, ref time.Time) int {
	loc := ref.Location()
	last := dayOf(ref, loc)
	first := last.AddDate(0, 0, -(trendDays - 1))

	active := make(map[time.Time]bool, trendDays)
	for _, e := range entries {
		d := dayOf(e.Date, loc)
		if !d.Before(first) && !d.After(last) {
			active[d] = true
		}
	}
	return min(100, percent(len(active), trendDays))
}

func containsAny(text string, words []string) bool {
	for _, w := range words {
		if strings.Contains(text, w) {
			return true
		}
	}
	return false
}
