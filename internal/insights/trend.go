package insights

import (
	"math"
	"time"

	"github.com/mrwolf/journal-server/internal/models"
)

const trendDays = 7

// ComputeTrend returns one point per calendar day from ref-6 through ref.
// A day's score maps its average sentiment from [-1,1] onto 0-10; days
// without entries score 0.
func ComputeTrend(entries []models.JournalEntry, ref time.Time) []TrendPoint {
	loc := ref.Location()
	last := dayOf(ref, loc)
	first := last.AddDate(0, 0, -(trendDays - 1))

	type bucket struct {
		sum   float64
		count int
	}
	buckets := make(map[time.Time]*bucket, trendDays)
	for _, e := range entries {
		d := dayOf(e.Date, loc)
		if d.Before(first) || d.After(last) {
			continue
		}
		b, ok := buckets[d]
		if !ok {
			b = &bucket{}
			buckets[d] = b
		}
		b.sum += clampScore(e.Analysis.SentimentScore)
		b.count++
	}

	points := make([]TrendPoint, 0, trendDays)
	for d := first; !d.After(last); d = d.AddDate(0, 0, 1) {
		p := TrendPoint{Date: d.Format("2006-01-02")}
		if b, ok := buckets[d]; ok {
			p.EntryCount = b.count
			p.MoodScore = int(math.Round((b.sum/float64(b.count) + 1) * 5))
		}
		points = append(points, p)
	}
	return points
}

// averageTrendScore is the mean of the trend scores rounded to one decimal.
func averageTrendScore(points []TrendPoint) float64 {
	if len(points) == 0 {
		return 0
	}
	total := 0
	for _, p := range points {
		total += p.MoodScore
	}
	return math.Round(float64(total)/float64(len(points))*10) / 10
}

func clampScore(v float64) float64 {
	return math.Max(-1, math.Min(1, v))
}
