package insights

import (
	"errors"
	"fmt"
	"time"
)

// Range selects the reporting window that ends at the reference time.
type Range string

const (
	RangeWeek  Range = "week"
	RangeMonth Range = "month"
	RangeYear  Range = "year"
)

// ErrInvalidRange is returned by ParseRange for unknown values.
var ErrInvalidRange = errors.New("range must be week, month, or year")

// ParseRange parses a range query value. Empty means week.
func ParseRange(s string) (Range, error) {
	switch Range(s) {
	case "":
		return RangeWeek, nil
	case RangeWeek, RangeMonth, RangeYear:
		return Range(s), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidRange, s)
	}
}

// Start returns the beginning of the window ending at ref.
func (r Range) Start(ref time.Time) time.Time {
	switch r {
	case RangeMonth:
		return ref.AddDate(0, -1, 0)
	case RangeYear:
		return ref.AddDate(-1, 0, 0)
	default:
		return ref.AddDate(0, 0, -7)
	}
}

// Streaks holds consecutive-day writing counts.
type Streaks struct {
	Current int `json:"currentStreak"`
	Longest int `json:"longestStreak"`
}

// MoodShare is one bucket of the mood distribution.
type MoodShare struct {
	Mood       string `json:"mood"`
	Name       string `json:"name"`
	Count      int    `json:"value"`
	Percentage int    `json:"percentage"`
	Color      string `json:"color"`
}

// TrendPoint is one calendar day of the mood trend.
type TrendPoint struct {
	Date       string `json:"date"` // YYYY-MM-DD
	MoodScore  int    `json:"mood"` // 0-10, 0 when the day has no entries
	EntryCount int    `json:"entries"`
}

// WellnessIndicators are 0-100 scores derived from entry texts and sentiment.
type WellnessIndicators struct {
	PositiveThoughts  int `json:"positiveThoughts"`
	StressLevels      int `json:"stressLevels"`
	GratitudePractice int `json:"gratitudePractice"`
	SelfCare          int `json:"selfCare"`
}

// Insights summarizes writing habits over a window.
type Insights struct {
	MostProductiveDay   string             `json:"mostProductiveDay"`
	AverageWordsPerDay  int                `json:"averageWordsPerDay"`
	EmotionalTrend      string             `json:"emotionalTrend"`
	ConsistencyScore    int                `json:"consistencyScore"`
	TopEmotions         []string           `json:"topEmotions"`
	JournalingFrequency string             `json:"journalingFrequency"`
	WellnessIndicators  WellnessIndicators `json:"wellnessIndicators"`
}

// Reminders are rule-triggered goals, todos and achievements.
type Reminders struct {
	CurrentGoals []string `json:"currentGoals"`
	Todos        []string `json:"todos"`
	Achievements []string `json:"achievements"`
}

// Report is the full analytics view over one entry snapshot.
type Report struct {
	TotalEntries         int          `json:"totalEntries"`
	TotalWords           int          `json:"totalWords"`
	AverageWordsPerEntry int          `json:"averageWordsPerEntry"`
	CurrentStreak        int          `json:"currentStreak"`
	LongestStreak        int          `json:"longestStreak"`
	MoodDistribution     []MoodShare  `json:"moodDistribution"`
	MoodTrend            []TrendPoint `json:"moodTrend"`
	AverageMood          float64      `json:"averageMood"`
	WeeklyReflection     string       `json:"weeklyReflection"`
	Insights             *Insights    `json:"insights"` // nil when the window is empty
	Reminders            Reminders    `json:"reminders"`
	Range                Range        `json:"range"`
}
