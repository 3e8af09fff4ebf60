package classify

import (
	"context"

	"github.com/tidwall/gjson"
	"go.uber.org/zap"
)

// Insights asks the model for an open analytical payload about a guest
// message: sentiment, emotion, implicit needs and similar. The reply shares
// the sanitizer with the classification pipeline but is not validated
// against a closed schema; unknown keys pass through. Being advisory, a
// failure yields an explicit {"error": ...} payload instead of a fallback.
func (c *Classifier) Insights(ctx context.Context, guestMessage string) map[string]any {
	raw, _, err := c.gateway.Invoke(ctx, buildInsightMessages(guestMessage))
	if err != nil {
		c.logger.Error("insight gateway call failed", zap.Error(err))
		return insightError("insights generation failed: " + err.Error())
	}

	text := Sanitize(raw)
	if !gjson.Valid(text) {
		c.logger.Warn("insight reply is not valid JSON", zap.String("reply", truncate(text, parseErrorTextLimit)))
		return insightError("insights response was not valid JSON")
	}

	payload, ok := gjson.Parse(text).Value().(map[string]any)
	if !ok {
		c.logger.Warn("insight reply is not a JSON object")
		return insightError("insights response was not a JSON object")
	}
	return payload
}

func insightError(description string) map[string]any {
	return map[string]any{"error": description}
}
