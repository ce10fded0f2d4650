package insights

import (
	"sort"
	"time"

	"github.com/mrwolf/journal-server/internal/models"
)

// ComputeStreaks counts consecutive calendar days with at least one entry.
// Days are taken in now's location; several entries on one day count once.
// The current streak is zero unless the latest day is today or yesterday.
func ComputeStreaks(entries []models.JournalEntry, now time.Time) Streaks {
	days := distinctDays(entries, now.Location())
	if len(days) == 0 {
		return Streaks{}
	}

	var s Streaks

	// longest: chronological pass
	run := 1
	s.Longest = 1
	for i := 1; i < len(days); i++ {
		if days[i-1].AddDate(0, 0, 1).Equal(days[i]) {
			run++
		} else {
			run = 1
		}
		if run > s.Longest {
			s.Longest = run
		}
	}

	today := dayOf(now, now.Location())
	latest := days[len(days)-1]
	if latest.Equal(today) || latest.Equal(today.AddDate(0, 0, -1)) {
		s.Current = 1
		for i := len(days) - 1; i > 0; i-- {
			if !days[i-1].AddDate(0, 0, 1).Equal(days[i]) {
				break
			}
			s.Current++
		}
	}

	return s
}

// distinctDays returns the sorted, deduplicated local midnights of entry dates.
func distinctDays(entries []models.JournalEntry, loc *time.Location) []time.Time {
	seen := make(map[time.Time]bool, len(entries))
	days := make([]time.Time, 0, len(entries))
	for _, e := range entries {
		d := dayOf(e.Date, loc)
		if seen[d] {
			continue
		}
		seen[d] = true
		days = append(days, d)
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Before(days[j]) })
	return days
}

func dayOf(t time.Time, loc *time.Location) time.Time {
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}
