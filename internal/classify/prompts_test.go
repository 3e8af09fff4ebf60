package classify

import (
	"strings"
	"testing"

	"guestdesk/internal/domain"
	"guestdesk/internal/llm"
)

func TestClassifySystemPromptEnumeratesTaxonomy(t *testing.T) {
	prompt := classifySystemPrompt()
	for key := range domain.Taxonomy {
		if !strings.Contains(prompt, `"`+string(key)+`"`) {
			t.Fatalf("system prompt missing category key %q", key)
		}
	}
	for _, level := range []string{"low", "medium", "high", "urgent"} {
		if !strings.Contains(prompt, level+":") {
			t.Fatalf("system prompt missing urgency level %q", level)
		}
	}
	if !strings.Contains(prompt, "should_create_ticket") {
		t.Fatal("system prompt missing output shape")
	}
	if !strings.Contains(prompt, "NO tickets for: greetings") {
		t.Fatal("system prompt missing no-ticket rule")
	}
}

func TestClassifySystemPromptDeterministic(t *testing.T) {
	if classifySystemPrompt() != classifySystemPrompt() {
		t.Fatal("system prompt must be deterministic for a fixed taxonomy")
	}
}

func TestClassifyUserPromptCarriesOnlyContext(t *testing.T) {
	req := domain.ClassificationRequest{
		GuestMessage: "I need coffee",
		GuestID:      "G-42",
		RoomNumber:   "410",
	}
	prompt := classifyUserPrompt(req)
	if !strings.Contains(prompt, `"I need coffee"`) {
		t.Fatalf("user prompt missing guest message: %q", prompt)
	}
	if !strings.Contains(prompt, "G-42") || !strings.Contains(prompt, "410") {
		t.Fatalf("user prompt missing context: %q", prompt)
	}
	// Rules stay in the system prompt.
	if strings.Contains(prompt, "should_create_ticket") {
		t.Fatalf("user prompt must not embed the output shape: %q", prompt)
	}
}

func TestClassifyUserPromptOmitsAbsentContext(t *testing.T) {
	prompt := classifyUserPrompt(domain.ClassificationRequest{GuestMessage: "Hi"})
	if strings.Contains(prompt, "Guest ID") || strings.Contains(prompt, "Room Number") {
		t.Fatalf("absent context should be omitted: %q", prompt)
	}
}

func TestClassifyMessagesRoles(t *testing.T) {
	messages := buildClassifyMessages(domain.ClassificationRequest{GuestMessage: "Hi"})
	if len(messages) != 2 {
		t.Fatalf("messages = %d, want 2", len(messages))
	}
	if messages[0].Role != llm.RoleSystem || messages[1].Role != llm.RoleUser {
		t.Fatalf("unexpected roles: %s, %s", messages[0].Role, messages[1].Role)
	}
}

func TestRepairMessagesCarryBrokenTextAndOriginal(t *testing.T) {
	messages := buildRepairMessages(`{"broken": `, "I need towels")
	if len(messages) != 1 || messages[0].Role != llm.RoleUser {
		t.Fatalf("unexpected repair messages: %+v", messages)
	}
	if !strings.Contains(messages[0].Content, `{"broken": `) {
		t.Fatal("repair prompt missing malformed text")
	}
	if !strings.Contains(messages[0].Content, "I need towels") {
		t.Fatal("repair prompt missing original guest message")
	}
}

func TestInsightMessagesOpenEnded(t *testing.T) {
	messages := buildInsightMessages("The shower is cold again")
	if len(messages) != 1 || messages[0].Role != llm.RoleUser {
		t.Fatalf("unexpected insight messages: %+v", messages)
	}
	content := messages[0].Content
	if !strings.Contains(content, "The shower is cold again") {
		t.Fatal("insight prompt missing guest message")
	}
	// The insight payload is open; the closed category keys stay out of it.
	if strings.Contains(content, "service_fb") {
		t.Fatal("insight prompt must not embed the category taxonomy")
	}
}
