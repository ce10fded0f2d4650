package scheduler

import (
	"fmt"
	"strings"

	"github.com/mrwolf/journal-server/internal/insights"
)

const silenceWeekly = "THIS WEEK: No entries were written this week.\n\nNEXT WEEK: A few lines on any day is enough to start a new streak."

// maxMoodsListed caps the mood line of a weekly reflection
const maxMoodsListed = 3

// FormatWeeklyReflection renders a stored weekly reflection from a week report.
func FormatWeeklyReflection(report insights.Report) string {
	if report.TotalEntries == 0 {
		return silenceWeekly
	}

	var sb strings.Builder
	sb.WriteString("THIS WEEK: ")
	sb.WriteString(report.WeeklyReflection)
	sb.WriteString("\n\nNUMBERS:\n")
	fmt.Fprintf(&sb, "- %d %s, %d words (about %d per entry)\n",
		report.TotalEntries, plural(report.TotalEntries, "entry", "entries"),
		report.TotalWords, report.AverageWordsPerEntry)
	fmt.Fprintf(&sb, "- Streak: %d %s, longest %d\n",
		report.CurrentStreak, plural(report.CurrentStreak, "day", "days"), report.LongestStreak)

	if len(report.MoodDistribution) > 0 {
		moods := make([]string, 0, maxMoodsListed)
		for i, share := range report.MoodDistribution {
			if i == maxMoodsListed {
				break
			}
			moods = append(moods, fmt.Sprintf("%s %d%%", share.Name, share.Percentage))
		}
		sb.WriteString("- Moods: ")
		sb.WriteString(strings.Join(moods, ", "))
		sb.WriteString("\n")
	}

	if len(report.Reminders.Achievements) > 0 {
		sb.WriteString("\nACHIEVEMENTS:\n")
		for _, a := range report.Reminders.Achievements {
			sb.WriteString("- ")
			sb.WriteString(a)
			sb.WriteString("\n")
		}
	}

	if next := nextFocus(report.Reminders); next != "" {
		sb.WriteString("\nNEXT WEEK: ")
		sb.WriteString(next)
	}

	return strings.TrimRight(sb.String(), "\n")
}

func nextFocus(r insights.Reminders) string {
	if len(r.CurrentGoals) > 0 {
		return r.CurrentGoals[0]
	}
	if len(r.Todos) > 0 {
		return r.Todos[0]
	}
	return ""
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
