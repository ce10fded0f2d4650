package models

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// SuggestionKind tags which shape a Suggestion holds.
type SuggestionKind int

const (
	SuggestionPlain SuggestionKind = iota
	SuggestionStructured
)

// Suggestion categories
const (
	SuggestionImmediate     = "immediate"
	SuggestionDailyPractice = "daily_practice"
	SuggestionLifestyle     = "lifestyle"
	SuggestionProfessional  = "professional"
	SuggestionSocial        = "social"
)

// Suggestion timeframes
const (
	TimeframeNow      = "now"
	TimeframeToday    = "today"
	TimeframeThisWeek = "this_week"
	TimeframeOngoing  = "ongoing"
)

// Suggestion is either a plain sentence or a structured action record.
// It encodes to a JSON string or a JSON object respectively.
type Suggestion struct {
	Kind SuggestionKind

	// Plain
	Text string

	// Structured
	Category  string
	Action    string
	Reason    string
	Timeframe string
}

type structuredSuggestion struct {
	Category  string `json:"category"`
	Action    string `json:"action"`
	Reason    string `json:"reason,omitempty"`
	Timeframe string `json:"timeframe"`
}

// PlainSuggestion builds a plain text suggestion.
func PlainSuggestion(text string) Suggestion {
	return Suggestion{Kind: SuggestionPlain, Text: text}
}

// StructuredSuggestion builds a structured suggestion.
func StructuredSuggestion(category, action, reason, timeframe string) Suggestion {
	return Suggestion{
		Kind:      SuggestionStructured,
		Category:  category,
		Action:    action,
		Reason:    reason,
		Timeframe: timeframe,
	}
}

// String returns the flattened sentence for either shape.
func (s Suggestion) String() string {
	switch s.Kind {
	case SuggestionStructured:
		return s.Action
	default:
		return s.Text
	}
}

func (s Suggestion) MarshalJSON() ([]byte, error) {
	switch s.Kind {
	case SuggestionStructured:
		return json.Marshal(structuredSuggestion{
			Category:  s.Category,
			Action:    s.Action,
			Reason:    s.Reason,
			Timeframe: s.Timeframe,
		})
	case SuggestionPlain:
		return json.Marshal(s.Text)
	default:
		return nil, fmt.Errorf("unknown suggestion kind %d", s.Kind)
	}
}

func (s *Suggestion) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var text string
		if err := json.Unmarshal(data, &text); err != nil {
			return err
		}
		*s = PlainSuggestion(text)
		return nil
	}

	var st structuredSuggestion
	if err := json.Unmarshal(data, &st); err != nil {
		return fmt.Errorf("decoding suggestion: %w", err)
	}
	*s = StructuredSuggestion(st.Category, st.Action, st.Reason, st.Timeframe)
	return nil
}

// FlattenSuggestions returns the plain sentence form of each suggestion.
func FlattenSuggestions(suggestions []Suggestion) []string {
	flat := make([]string, 0, len(suggestions))
	for _, s := range suggestions {
		flat = append(flat, s.String())
	}
	return flat
}
