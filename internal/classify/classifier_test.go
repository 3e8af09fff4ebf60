package classify

import (
	"context"
	"errors"
	"strings"
	"testing"

	"go.uber.org/zap"

	"guestdesk/internal/domain"
	"guestdesk/internal/llm"
)

// scriptedGateway returns canned replies (or errors) in order and counts
// invocations.
type scriptedGateway struct {
	replies []string
	errs    []error
	calls   int
}

func (g *scriptedGateway) Invoke(_ context.Context, _ []llm.Message) (string, llm.Usage, error) {
	i := g.calls
	g.calls++
	if i < len(g.errs) && g.errs[i] != nil {
		return "", llm.Usage{}, g.errs[i]
	}
	if i < len(g.replies) {
		return g.replies[i], llm.Usage{InputTokens: 100, OutputTokens: 20}, nil
	}
	return "", llm.Usage{}, errors.New("no scripted reply left")
}

func newTestClassifier(g llm.Gateway) *Classifier {
	return New(g, zap.NewNop())
}

const greetingReply = `{"should_create_ticket": false, "categories": [], "confidence": 0.98, "reasoning": "greeting", "suggested_priority": "low", "estimated_completion_time": null}`

func TestClassifyGreeting(t *testing.T) {
	gw := &scriptedGateway{replies: []string{greetingReply}}
	c := newTestClassifier(gw)

	result, usage := c.Classify(context.Background(), domain.ClassificationRequest{GuestMessage: "Hello, good morning!"})

	if result.ShouldCreateTicket {
		t.Fatal("greeting must not create a ticket")
	}
	if len(result.Categories) != 0 {
		t.Fatalf("expected no categories, got %d", len(result.Categories))
	}
	if result.Confidence != 0.98 {
		t.Fatalf("confidence = %f, want 0.98", result.Confidence)
	}
	if result.Reasoning != "greeting" {
		t.Fatalf("reasoning = %q", result.Reasoning)
	}
	if result.SuggestedPriority != "low" {
		t.Fatalf("priority = %q", result.SuggestedPriority)
	}
	if result.EstimatedCompletionTime != nil {
		t.Fatalf("completion time = %v, want absent", *result.EstimatedCompletionTime)
	}
	if gw.calls != 1 {
		t.Fatalf("gateway calls = %d, want 1", gw.calls)
	}
	if usage.TotalTokens() != 120 {
		t.Fatalf("usage total = %d, want 120", usage.TotalTokens())
	}
}

func TestClassifySingleCategory(t *testing.T) {
	gw := &scriptedGateway{replies: []string{`{
		"should_create_ticket": true,
		"categories": [{"category": "service_fb", "message": "Deliver coffee to guest", "urgency": "medium"}],
		"confidence": 0.95,
		"reasoning": "explicit beverage request",
		"suggested_priority": "medium",
		"estimated_completion_time": "15 minutes"
	}`}}
	c := newTestClassifier(gw)

	result, _ := c.Classify(context.Background(), domain.ClassificationRequest{GuestMessage: "I need coffee"})

	if !result.ShouldCreateTicket {
		t.Fatal("expected a ticket")
	}
	if len(result.Categories) != 1 {
		t.Fatalf("categories = %d, want 1", len(result.Categories))
	}
	got := result.Categories[0]
	if got.Category != domain.CategoryFoodBeverage || got.Urgency != "medium" {
		t.Fatalf("unexpected assignment: %+v", got)
	}
}

func TestClassifyMultipleCategoriesInOrder(t *testing.T) {
	gw := &scriptedGateway{replies: []string{`{
		"should_create_ticket": true,
		"categories": [
			{"category": "maintenance", "message": "Repair AC unit", "urgency": "high"},
			{"category": "housekeeping", "message": "Deliver fresh towels", "urgency": "medium"}
		],
		"confidence": 0.93,
		"reasoning": "two distinct requests",
		"suggested_priority": "high"
	}`}}
	c := newTestClassifier(gw)

	result, _ := c.Classify(context.Background(), domain.ClassificationRequest{GuestMessage: "My AC is broken and I need towels"})

	if len(result.Categories) != 2 {
		t.Fatalf("categories = %d, want 2", len(result.Categories))
	}
	if result.Categories[0].Category != domain.CategoryMaintenance {
		t.Fatalf("first category = %s, want maintenance", result.Categories[0].Category)
	}
	if result.Categories[1].Category != domain.CategoryHousekeeping {
		t.Fatalf("second category = %s, want housekeeping", result.Categories[1].Category)
	}
	if result.Categories[0].Urgency != "high" || result.Categories[1].Urgency != "medium" {
		t.Fatalf("urgencies wrong: %+v", result.Categories)
	}
}

func TestClassifyFencedReply(t *testing.T) {
	gw := &scriptedGateway{replies: []string{"```json\n" + greetingReply + "\n```"}}
	c := newTestClassifier(gw)

	result, _ := c.Classify(context.Background(), domain.ClassificationRequest{GuestMessage: "Hello"})

	if result.Confidence != 0.98 {
		t.Fatalf("fenced reply not handled, confidence = %f", result.Confidence)
	}
	if gw.calls != 1 {
		t.Fatalf("fenced reply should not need repair, calls = %d", gw.calls)
	}
}

func TestClassifyUnterminatedQuoteInMessage(t *testing.T) {
	gw := &scriptedGateway{replies: []string{`{
"should_create_ticket": true,
"categories": [
  {"category": "housekeeping",
   "urgency": "low",
   "message": "Guest wants "extra" towels
  }
],
"confidence": 0.9,
"reasoning": "towel request",
"suggested_priority": "low"
}`}}
	c := newTestClassifier(gw)

	result, _ := c.Classify(context.Background(), domain.ClassificationRequest{GuestMessage: "more towels please"})

	if gw.calls != 1 {
		t.Fatalf("quote repair should happen in the sanitizer, calls = %d", gw.calls)
	}
	if len(result.Categories) != 1 {
		t.Fatalf("categories = %d, want 1", len(result.Categories))
	}
	if !strings.Contains(result.Categories[0].Message, "'extra'") {
		t.Fatalf("interior quotes not normalized: %q", result.Categories[0].Message)
	}
}

func TestClassifyRepairSucceeds(t *testing.T) {
	gw := &scriptedGateway{replies: []string{"{this is not json", greetingReply}}
	c := newTestClassifier(gw)

	result, _ := c.Classify(context.Background(), domain.ClassificationRequest{GuestMessage: "Hello"})

	if gw.calls != 2 {
		t.Fatalf("gateway calls = %d, want 2 (primary + repair)", gw.calls)
	}
	if result.Confidence != 0.98 {
		t.Fatalf("repaired result not used, confidence = %f", result.Confidence)
	}
}

func TestClassifyRepairBound(t *testing.T) {
	gw := &scriptedGateway{replies: []string{"{broken one", "{broken two", greetingReply}}
	c := newTestClassifier(gw)

	result, _ := c.Classify(context.Background(), domain.ClassificationRequest{GuestMessage: "Hello"})

	if gw.calls != 2 {
		t.Fatalf("gateway calls = %d, want exactly 2, never a third round", gw.calls)
	}
	if result.ShouldCreateTicket || result.Confidence != 0.0 || !result.Fallback {
		t.Fatalf("expected fallback result, got %+v", result)
	}
	if !strings.HasPrefix(result.Reasoning, "classification failed:") {
		t.Fatalf("fallback reasoning missing failure marker: %q", result.Reasoning)
	}
}

func TestClassifyFallbackOnGatewayFailure(t *testing.T) {
	gw := &scriptedGateway{errs: []error{errors.New("connection refused")}}
	c := newTestClassifier(gw)

	result, _ := c.Classify(context.Background(), domain.ClassificationRequest{GuestMessage: "I need towels"})

	if result.ShouldCreateTicket {
		t.Fatal("fallback must not create a ticket")
	}
	if result.Confidence != 0.0 {
		t.Fatalf("fallback confidence = %f, want 0", result.Confidence)
	}
	if !strings.Contains(result.Reasoning, "classification failed") {
		t.Fatalf("fallback reasoning = %q", result.Reasoning)
	}
	if !result.Fallback {
		t.Fatal("fallback flag not set")
	}
	if gw.calls != 1 {
		t.Fatalf("gateway failure must not trigger repair, calls = %d", gw.calls)
	}
}

func TestClassifyRepairCallGatewayFailure(t *testing.T) {
	gw := &scriptedGateway{
		replies: []string{"{broken"},
		errs:    []error{nil, errors.New("rate limited")},
	}
	c := newTestClassifier(gw)

	result, _ := c.Classify(context.Background(), domain.ClassificationRequest{GuestMessage: "Hello"})

	if gw.calls != 2 {
		t.Fatalf("gateway calls = %d, want 2", gw.calls)
	}
	if !strings.Contains(result.Reasoning, "repair call failed") {
		t.Fatalf("fallback reasoning = %q", result.Reasoning)
	}
}

func TestClassifyBatchOrderAndIsolation(t *testing.T) {
	gw := &scriptedGateway{
		replies: []string{greetingReply, "{broken", "{still broken"},
	}
	c := newTestClassifier(gw)

	reqs := []domain.ClassificationRequest{
		{GuestMessage: "Hello"},
		{GuestMessage: "I need coffee"},
	}
	results, usages := c.ClassifyBatch(context.Background(), reqs)

	if len(results) != 2 {
		t.Fatalf("results = %d, want 2", len(results))
	}
	if results[0].Confidence != 0.98 {
		t.Fatalf("first result corrupted by sibling failure: %+v", results[0])
	}
	if !results[1].Fallback || !strings.HasPrefix(results[1].Reasoning, "classification failed:") {
		t.Fatalf("second result should be a fallback: %+v", results[1])
	}
	if len(usages) != 2 {
		t.Fatalf("usages = %d, want one per element", len(usages))
	}
	if usages[0].TotalTokens() != 120 {
		t.Fatalf("first element usage = %d, want 120 (one call)", usages[0].TotalTokens())
	}
	if usages[1].TotalTokens() != 240 {
		t.Fatalf("second element usage = %d, want 240 (primary + repair)", usages[1].TotalTokens())
	}
}

func TestClassifyResultSchemaAlwaysValid(t *testing.T) {
	// Whatever the gateway does, the caller gets a bounded confidence and a
	// non-nil categories slice.
	gateways := []*scriptedGateway{
		{replies: []string{greetingReply}},
		{replies: []string{"{broken", "{broken"}},
		{errs: []error{errors.New("timeout")}},
		{replies: []string{`{"confidence": 9.5, "should_create_ticket": false}`}},
	}
	for i, gw := range gateways {
		result, _ := newTestClassifier(gw).Classify(context.Background(), domain.ClassificationRequest{GuestMessage: "test"})
		if result.Confidence < 0.0 || result.Confidence > 1.0 {
			t.Fatalf("case %d: confidence out of range: %f", i, result.Confidence)
		}
		if result.Categories == nil {
			t.Fatalf("case %d: categories is nil", i)
		}
	}
}
