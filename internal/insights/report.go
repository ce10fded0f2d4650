package insights

import (
	"math"
	"sort"
	"time"

	"github.com/mrwolf/journal-server/internal/models"
)

// BuildReport computes the analytics view for one entry snapshot.
//
// Totals, distribution, trend and the generated text cover the window
// [r.Start(ref), ref]. Streaks use every entry up to ref so that a long run
// is not cut off by the window. Entries dated after ref are ignored.
// entries is not modified.
func BuildReport(entries []models.JournalEntry, ref time.Time, r Range) Report {
	if r == "" {
		r = RangeWeek
	}
	start := r.Start(ref)

	history := make([]models.JournalEntry, 0, len(entries))
	window := make([]models.JournalEntry, 0, len(entries))
	for _, e := range entries {
		if e.Date.After(ref) {
			continue
		}
		history = append(history, e)
		if !e.Date.Before(start) {
			window = append(window, e)
		}
	}
	sort.SliceStable(window, func(i, j int) bool {
		return window[i].Date.After(window[j].Date)
	})

	totalWords := 0
	for _, e := range window {
		totalWords += e.Words()
	}
	avgWords := 0
	if len(window) > 0 {
		avgWords = int(math.Round(float64(totalWords) / float64(len(window))))
	}

	streaks := ComputeStreaks(history, ref)
	dist := ComputeDistribution(window)
	trend := ComputeTrend(window, ref)

	return Report{
		TotalEntries:         len(window),
		TotalWords:           totalWords,
		AverageWordsPerEntry: avgWords,
		CurrentStreak:        streaks.Current,
		LongestStreak:        streaks.Longest,
		MoodDistribution:     dist,
		MoodTrend:            trend,
		AverageMood:          averageTrendScore(trend),
		WeeklyReflection:     GenerateReflection(window, dist),
		Insights:             GenerateInsights(window, dist, totalWords, ref),
		Reminders:            GenerateReminders(window),
		Range:                r,
	}
}
