package classify

import (
	"fmt"
	"sort"
	"strings"

	"guestdesk/internal/domain"
	"guestdesk/internal/llm"
)

// buildClassifyMessages produces the system and user prompt for one
// classification. The system prompt owns the taxonomy, the rules and the
// exact output shape; the user prompt carries only the guest message and
// its context, so the classification logic stays in one auditable place.
func buildClassifyMessages(req domain.ClassificationRequest) []llm.Message {
	return []llm.Message{
		{Role: llm.RoleSystem, Content: classifySystemPrompt()},
		{Role: llm.RoleUser, Content: classifyUserPrompt(req)},
	}
}

func classifySystemPrompt() string {
	var categoryLines strings.Builder
	for _, key := range taxonomyKeys() {
		info := domain.Taxonomy[key]
		categoryLines.WriteString(fmt.Sprintf("- %q: %s\n", string(key), info.Description))
	}

	return fmt.Sprintf(`You are a hotel service request classifier with advanced natural language understanding. Analyze guest messages and decide whether staff action is needed.

SERVICE CATEGORY KEYS (use these exact keys):
%s
URGENCY LEVELS:
- low: routine requests, non-urgent maintenance, general services
- medium: comfort issues, moderate problems, standard room service
- high: safety concerns, significant discomfort, urgent repairs
- urgent: emergencies, security issues, critical breakdowns

CLASSIFICATION RULES:
1. ONLY create tickets for explicit service requests or problem reports
2. NO tickets for: greetings, pleasantries, thank you messages, general questions without service requests
3. Multiple categories ONLY when the guest explicitly mentions multiple distinct services
4. Generate a specific, single-line, actionable message for staff per category
5. Assess urgency and overall priority from the language used
6. Estimate completion time based on service complexity

RESPONSE FORMAT (JSON only, no markdown):
{
  "should_create_ticket": boolean,
  "categories": [
    {
      "category": "service_category_key",
      "message": "Specific, actionable message for staff",
      "urgency": "low/medium/high/urgent"
    }
  ],
  "confidence": 0.0-1.0,
  "reasoning": "Single line explanation of the decision",
  "suggested_priority": "low/medium/high/urgent",
  "estimated_completion_time": "time estimate or null"
}

EXAMPLES:
Input: "Hello, good morning!"
Output: {"should_create_ticket": false, "categories": [], "confidence": 0.98, "reasoning": "Greeting without service request", "suggested_priority": "none", "estimated_completion_time": null}

Input: "I need coffee urgently for my meeting"
Output: {"should_create_ticket": true, "categories": [{"category": "service_fb", "message": "Guest requires urgent coffee delivery for business meeting", "urgency": "high"}], "confidence": 0.95, "reasoning": "Explicit urgent food/beverage request", "suggested_priority": "high", "estimated_completion_time": "10-15 minutes"}

Analyze ONLY explicit content. Return valid JSON only.`, categoryLines.String())
}

func classifyUserPrompt(req domain.ClassificationRequest) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Guest Message: %q", req.GuestMessage)
	if req.GuestID != "" {
		fmt.Fprintf(&b, "\nGuest ID: %s", req.GuestID)
	}
	if req.RoomNumber != "" {
		fmt.Fprintf(&b, "\nRoom Number: %s", req.RoomNumber)
	}
	b.WriteString("\n\nClassify this guest message and provide the JSON response:")
	return b.String()
}

// buildRepairMessages asks the model to fix its own malformed reply. The
// broken text goes in verbatim together with the original guest message.
func buildRepairMessages(brokenText, guestMessage string) []llm.Message {
	prompt := fmt.Sprintf(`The following JSON response is malformed:
%s

Original guest message: %q

Provide a corrected, valid JSON response for this hotel service classification.
Return ONLY valid JSON without any markdown or explanation.`, brokenText, guestMessage)
	return []llm.Message{{Role: llm.RoleUser, Content: prompt}}
}

// buildInsightMessages requests the open analytical payload. No closed
// schema here: the keys below are suggestions to the model, and whatever
// valid JSON comes back passes through.
func buildInsightMessages(guestMessage string) []llm.Message {
	prompt := fmt.Sprintf(`Guest Message: %q

Analyze this hotel guest message and provide detailed psychological and operational insights for staff: sentiment, primary emotion, urgency signals, service complexity, inferred guest profile, communication style, implicit needs, recommended approach and risk factors.

Provide insights in pure JSON format (no markdown):
{
    "sentiment": "...",
    "emotion_detected": "...",
    "urgency_indicators": ["..."],
    "service_complexity": "...",
    "guest_profile": "...",
    "communication_style": "...",
    "implicit_needs": ["..."],
    "recommended_approach": "...",
    "priority_justification": "...",
    "risk_factors": ["..."]
}`, guestMessage)
	return []llm.Message{{Role: llm.RoleUser, Content: prompt}}
}

// taxonomyKeys returns the category keys in stable order so prompts are
// deterministic for a given taxonomy version.
func taxonomyKeys() []domain.ServiceCategory {
	keys := make([]domain.ServiceCategory, 0, len(domain.Taxonomy))
	for key := range domain.Taxonomy {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}
