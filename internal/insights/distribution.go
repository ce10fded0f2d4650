package insights

import (
	"math"
	"sort"
	"strings"

	"github.com/mrwolf/journal-server/internal/models"
)

const defaultMoodColor = "#6B7280"

var moodColors = map[string]string{
	models.MoodHappy:       "#10B981",
	models.MoodGrateful:    "#8B5CF6",
	models.MoodExcited:     "#F59E0B",
	models.MoodCalm:        "#3B82F6",
	models.MoodContent:     "#06D6A0",
	models.MoodThoughtful:  "#6B7280",
	models.MoodStressed:    "#EF4444",
	models.MoodAnxious:     "#F97316",
	models.MoodSad:         "#8B5A7D",
	models.MoodOverwhelmed: "#DC2626",
	models.MoodFrustrated:  "#B45309",
	models.MoodHopeful:     "#059669",
	models.MoodLonely:      "#7C3AED",
	models.MoodConfident:   "#0891B2",
	models.MoodUncertain:   "#9CA3AF",
	models.MoodMotivated:   "#16A34A",
	models.MoodTired:       "#6B7280",
	models.MoodPeaceful:    "#0EA5E9",
	models.MoodJoyful:      "#FBBF24",
	models.MoodReflective:  "#8B5CF6",
	models.MoodBurnout:     "#991B1B",
}

// MoodColor returns the display color for a mood.
func MoodColor(mood string) string {
	if c, ok := moodColors[mood]; ok {
		return c
	}
	return defaultMoodColor
}

// ComputeDistribution buckets entries by mood. Percentages are rounded
// against len(entries), so they may not sum to exactly 100.
// Buckets are ordered by count descending, then mood name.
func ComputeDistribution(entries []models.JournalEntry) []MoodShare {
	counts := make(map[string]int)
	for _, e := range entries {
		counts[entryMood(e)]++
	}

	shares := make([]MoodShare, 0, len(counts))
	for mood, count := range counts {
		shares = append(shares, MoodShare{
			Mood:       mood,
			Name:       displayName(mood),
			Count:      count,
			Percentage: percent(count, len(entries)),
			Color:      MoodColor(mood),
		})
	}

	sort.Slice(shares, func(i, j int) bool {
		if shares[i].Count != shares[j].Count {
			return shares[i].Count > shares[j].Count
		}
		return shares[i].Mood < shares[j].Mood
	})
	return shares
}

func entryMood(e models.JournalEntry) string {
	if e.Analysis.Mood == "" {
		return models.DefaultMood
	}
	return e.Analysis.Mood
}

func displayName(mood string) string {
	if mood == "" {
		return ""
	}
	return strings.ToUpper(mood[:1]) + mood[1:]
}

// percent returns round(part/total*100), or 0 when total is 0.
func percent(part, total int) int {
	if total == 0 {
		return 0
	}
	return int(math.Round(float64(part) / float64(total) * 100))
}
