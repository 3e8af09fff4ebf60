package classify

import (
	"errors"
	"strings"
	"testing"

	"go.uber.org/zap"

	"guestdesk/internal/domain"
)

func TestValidateParseFailure(t *testing.T) {
	_, err := Validate("{not json at all", zap.NewNop())
	if err == nil {
		t.Fatal("expected parse error")
	}
	var parseErr *ParseError
	if !errors.As(err, &parseErr) {
		t.Fatalf("expected *ParseError, got %T", err)
	}
	if parseErr.Text != "{not json at all" {
		t.Fatalf("offending text not carried: %q", parseErr.Text)
	}
	if !strings.Contains(parseErr.Error(), "{not json at all") {
		t.Fatalf("error message should include offending text: %v", parseErr)
	}
}

func TestValidateTruncatesLongTextInError(t *testing.T) {
	long := "{broken " + strings.Repeat("x", 2000)
	_, err := Validate(long, zap.NewNop())
	var parseErr *ParseError
	if !errors.As(err, &parseErr) {
		t.Fatalf("expected *ParseError, got %T", err)
	}
	msg := parseErr.Error()
	if !strings.Contains(msg, "truncated") {
		t.Fatalf("expected truncation marker in %q", msg)
	}
	if len(msg) > 600 {
		t.Fatalf("error message not bounded, len=%d", len(msg))
	}
	// The repair path still needs the full text.
	if parseErr.Text != long {
		t.Fatal("ParseError.Text must carry the full offending text")
	}
}

func TestValidateDropsUnknownCategory(t *testing.T) {
	text := `{
		"should_create_ticket": true,
		"categories": [
			{"category": "maintenance", "message": "Fix AC in room 410", "urgency": "high"},
			{"category": "spa_services", "message": "Book a massage", "urgency": "low"}
		],
		"confidence": 0.9,
		"reasoning": "two requests",
		"suggested_priority": "high"
	}`
	result, err := Validate(text, zap.NewNop())
	if err != nil {
		t.Fatalf("Validate failed: %v", err)
	}
	if len(result.Categories) != 1 {
		t.Fatalf("expected 1 category after drop, got %d", len(result.Categories))
	}
	if result.Categories[0].Category != domain.CategoryMaintenance {
		t.Fatalf("wrong surviving category: %s", result.Categories[0].Category)
	}
}

func TestValidateDropsCategoryWithoutMessage(t *testing.T) {
	text := `{
		"should_create_ticket": true,
		"categories": [{"category": "housekeeping", "urgency": "low"}],
		"confidence": 0.8
	}`
	result, err := Validate(text, zap.NewNop())
	if err != nil {
		t.Fatalf("Validate failed: %v", err)
	}
	if len(result.Categories) != 0 {
		t.Fatalf("expected incomplete category dropped, got %d", len(result.Categories))
	}
}

func TestValidateCoercesUnrecognizedUrgency(t *testing.T) {
	text := `{
		"should_create_ticket": true,
		"categories": [{"category": "porter", "message": "Bring luggage up", "urgency": "critical"}],
		"confidence": 0.8
	}`
	result, err := Validate(text, zap.NewNop())
	if err != nil {
		t.Fatalf("Validate failed: %v", err)
	}
	if len(result.Categories) != 1 {
		t.Fatalf("expected category kept, got %d", len(result.Categories))
	}
	if result.Categories[0].Urgency != domain.UrgencyMedium {
		t.Fatalf("expected urgency coerced to medium, got %s", result.Categories[0].Urgency)
	}
}

func TestValidateDefaults(t *testing.T) {
	result, err := Validate(`{}`, zap.NewNop())
	if err != nil {
		t.Fatalf("Validate failed: %v", err)
	}
	if result.ShouldCreateTicket {
		t.Fatal("should_create_ticket should default to false")
	}
	if result.Confidence != 0.0 {
		t.Fatalf("confidence should default to 0, got %f", result.Confidence)
	}
	if result.SuggestedPriority != domain.UrgencyLow {
		t.Fatalf("priority should default to low, got %s", result.SuggestedPriority)
	}
	if result.Reasoning == "" {
		t.Fatal("reasoning should get a placeholder")
	}
	if result.EstimatedCompletionTime != nil {
		t.Fatalf("completion time should default to absent, got %v", *result.EstimatedCompletionTime)
	}
	if result.Categories == nil {
		t.Fatal("categories should be an empty slice, not nil")
	}
}

func TestValidateClampsConfidence(t *testing.T) {
	cases := []struct {
		in   string
		want float64
	}{
		{`{"confidence": 1.7}`, 1.0},
		{`{"confidence": -0.3}`, 0.0},
		{`{"confidence": 0.42}`, 0.42},
	}
	for _, tc := range cases {
		result, err := Validate(tc.in, zap.NewNop())
		if err != nil {
			t.Fatalf("Validate(%s) failed: %v", tc.in, err)
		}
		if result.Confidence != tc.want {
			t.Fatalf("Validate(%s) confidence = %f, want %f", tc.in, result.Confidence, tc.want)
		}
	}
}

func TestValidatePriorityNone(t *testing.T) {
	result, err := Validate(`{"should_create_ticket": false, "suggested_priority": "none"}`, zap.NewNop())
	if err != nil {
		t.Fatalf("Validate failed: %v", err)
	}
	if result.SuggestedPriority != domain.PriorityNone {
		t.Fatalf("no-ticket result should keep priority none, got %s", result.SuggestedPriority)
	}

	result, err = Validate(`{"should_create_ticket": true, "categories": [{"category": "reception", "message": "Late checkout", "urgency": "low"}], "suggested_priority": "none"}`, zap.NewNop())
	if err != nil {
		t.Fatalf("Validate failed: %v", err)
	}
	if result.SuggestedPriority != domain.UrgencyLow {
		t.Fatalf("ticket result should normalize none to low, got %s", result.SuggestedPriority)
	}
}
