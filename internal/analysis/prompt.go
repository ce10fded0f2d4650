package analysis

import (
	"fmt"
	"strings"

	"github.com/mrwolf/journal-server/internal/models"
)

const analysisPrompt = `You are an empathetic wellness assistant. Analyze the following journal entry.

Entry:
"""
%s
"""

Choose "mood" from exactly this list: %s

Respond with a single JSON object and nothing else:
{
  "mood": "one mood from the list",
  "confidence": 0.0-1.0,
  "sentiment": "positive|negative|neutral",
  "sentimentScore": -1.0-1.0,
  "emotions": [{"emotion": "name", "confidence": 0.0-1.0, "intensity": "low|medium|high"}],
  "keywords": ["up", "to", "ten", "keywords"],
  "suggestions": [
    {"category": "immediate|daily_practice|lifestyle|professional|social", "action": "what to do", "reason": "why it helps", "timeframe": "now|today|this_week|ongoing"}
  ],
  "summary": "two or three sentences about the entry and emotional state",
  "stressIndicators": {"level": "low|medium|high", "triggers": [], "physicalSigns": [], "cognitivePatterns": []},
  "psychologicalThemes": [{"theme": "name", "confidence": 0.0-1.0, "description": "short"}],
  "positiveElements": [{"element": "name", "description": "short"}],
  "growthOpportunities": [{"area": "name", "description": "short"}],
  "riskFactors": [{"factor": "name", "level": "low|medium|high", "description": "short"}],
  "categories": [{"category": "name", "subcategory": "name", "confidence": 0.0-1.0}],
  "labels": ["short", "labels"],
  "urgencyLevel": "low|medium|high",
  "followUpRecommended": false,
  "cbtInsights": {"thoughtPatterns": [], "cognitiveDistortions": [{"type": "name", "example": "quote"}], "behavioralPatterns": []}
}

Give at most 4 suggestions and 5 emotions. Be supportive and specific.`

// buildPrompt renders the analysis prompt for one entry.
func buildPrompt(text string) string {
	return fmt.Sprintf(analysisPrompt, text, strings.Join(models.Moods, ", "))
}
