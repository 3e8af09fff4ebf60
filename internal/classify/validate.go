package classify

import (
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"guestdesk/internal/domain"
)

const parseErrorTextLimit = 300

// ParseError reports that sanitized text was not well-formed JSON. It
// carries the offending text (truncated) so the repair path can hand it
// back to the model, and so logs stay bounded.
type ParseError struct {
	Text string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parsing classification response: %v (response: %s)", e.Err, truncate(e.Text, parseErrorTextLimit))
}

func (e *ParseError) Unwrap() error { return e.Err }

func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	return s[:limit] + fmt.Sprintf("... [truncated, total_length=%d]", len(s))
}

// rawResult is the wire shape the model is asked for. Pointer fields
// distinguish absent from zero during defaulting.
type rawResult struct {
	ShouldCreateTicket      *bool           `json:"should_create_ticket"`
	Categories              []rawAssignment `json:"categories"`
	Confidence              *float64        `json:"confidence"`
	Reasoning               string          `json:"reasoning"`
	SuggestedPriority       string          `json:"suggested_priority"`
	EstimatedCompletionTime *string         `json:"estimated_completion_time"`
}

type rawAssignment struct {
	Category string `json:"category"`
	Message  string `json:"message"`
	Urgency  string `json:"urgency"`
}

// Validate parses sanitized text into a ClassificationResult. A syntax
// error returns a *ParseError and no result. A successful parse always
// yields a result: unknown or incomplete category entries are dropped with
// a warning, scalar defects are defaulted or clamped in place.
func Validate(text string, logger *zap.Logger) (domain.ClassificationResult, error) {
	var raw rawResult
	if err := json.Unmarshal([]byte(text), &raw); err != nil {
		return domain.ClassificationResult{}, &ParseError{Text: text, Err: err}
	}

	result := domain.ClassificationResult{
		Categories:              []domain.CategoryAssignment{},
		Reasoning:               raw.Reasoning,
		SuggestedPriority:       raw.SuggestedPriority,
		EstimatedCompletionTime: raw.EstimatedCompletionTime,
	}

	if raw.ShouldCreateTicket != nil {
		result.ShouldCreateTicket = *raw.ShouldCreateTicket
	}
	if raw.Confidence != nil {
		result.Confidence = clampConfidence(*raw.Confidence, logger)
	}

	for _, entry := range raw.Categories {
		assignment, ok := validateAssignment(entry, logger)
		if !ok {
			continue
		}
		result.Categories = append(result.Categories, assignment)
	}

	if result.Reasoning == "" {
		result.Reasoning = "classification completed"
	}
	result.SuggestedPriority = normalizePriority(result.SuggestedPriority, result.ShouldCreateTicket)

	return result, nil
}

// validateAssignment checks one categories entry against the closed
// taxonomy. Partial validity beats total failure: bad entries are dropped,
// never fatal.
func validateAssignment(entry rawAssignment, logger *zap.Logger) (domain.CategoryAssignment, bool) {
	if !domain.ValidCategory(entry.Category) {
		logger.Warn("dropping category with unknown key", zap.String("category", entry.Category))
		return domain.CategoryAssignment{}, false
	}
	if entry.Message == "" {
		logger.Warn("dropping category without staff message", zap.String("category", entry.Category))
		return domain.CategoryAssignment{}, false
	}
	urgency := entry.Urgency
	if !domain.ValidUrgency(urgency) {
		logger.Warn("coercing unrecognized urgency",
			zap.String("category", entry.Category),
			zap.String("urgency", urgency))
		urgency = domain.UrgencyMedium
	}
	return domain.CategoryAssignment{
		Category: domain.ServiceCategory(entry.Category),
		Message:  entry.Message,
		Urgency:  urgency,
	}, true
}

func clampConfidence(confidence float64, logger *zap.Logger) float64 {
	switch {
	case confidence < 0:
		logger.Warn("clamping out-of-range confidence", zap.Float64("confidence", confidence))
		return 0.0
	case confidence > 1:
		logger.Warn("clamping out-of-range confidence", zap.Float64("confidence", confidence))
		return 1.0
	}
	return confidence
}

// normalizePriority defaults absent priorities to "low" and accepts "none"
// only on no-ticket results.
func normalizePriority(priority string, hasTicket bool) string {
	if priority == domain.PriorityNone && !hasTicket {
		return domain.PriorityNone
	}
	if domain.ValidUrgency(priority) {
		return priority
	}
	return domain.UrgencyLow
}
