// Package nlu carries the AI-derived signals injected into chat-automation
// flows. The engine has no AI logic of its own: an external analyzer
// produces these payloads and they are consumed like any other condition
// input.
package nlu

import (
	"context"

	"github.com/fluxohq/fluxo/pkg/models"
)

// Intent is the classification of an inbound message.
type Intent struct {
	Intent        string         `json:"intent"`
	SubIntent     string         `json:"sub_intent,omitempty"`
	Confidence    float64        `json:"confidence"     validate:"gte=0,lte=1"`
	Urgency       int            `json:"urgency"        validate:"gte=1,lte=10"`
	Entities      map[string]any `json:"entities,omitempty"`
	RequiresHuman bool           `json:"requires_human"`
}

// Sentiment is the tone classification of an inbound message.
type Sentiment struct {
	Sentiment string  `json:"sentiment" validate:"oneof=positive negative neutral"`
	Score     float64 `json:"score"`
}

// Analysis is what the analyzer collaborator returns for one message.
type Analysis struct {
	Intent    Intent    `json:"intent"`
	Sentiment Sentiment `json:"sentiment"`
}

// Analyzer is the external NLU collaborator for message_received flows.
type Analyzer interface {
	Analyze(ctx context.Context, message string) (Analysis, error)
}

// Inject merges the analysis into context variables so condition
// expressions can read intent, intent_confidence, sentiment and friends
// unprefixed.
func Inject(executionCtx *models.ExecutionContext, analysis Analysis) {
	executionCtx.SetVariable("intent", analysis.Intent.Intent)
	executionCtx.SetVariable("sub_intent", analysis.Intent.SubIntent)
	executionCtx.SetVariable("intent_confidence", analysis.Intent.Confidence)
	executionCtx.SetVariable("urgency", analysis.Intent.Urgency)
	executionCtx.SetVariable("entities", analysis.Intent.Entities)
	executionCtx.SetVariable("requires_human", analysis.Intent.RequiresHuman)
	executionCtx.SetVariable("sentiment", analysis.Sentiment.Sentiment)
	executionCtx.SetVariable("sentiment_score", analysis.Sentiment.Score)
}
