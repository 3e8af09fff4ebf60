package domain

// ServiceCategory is one of the six fixed hotel service departments a guest
// request can be routed to. The set is closed; unknown keys coming back from
// the model are dropped during validation, never added here.
type ServiceCategory string

const (
	CategoryFoodBeverage ServiceCategory = "service_fb"
	CategoryHousekeeping ServiceCategory = "housekeeping"
	CategoryMaintenance  ServiceCategory = "maintenance"
	CategoryPorter       ServiceCategory = "porter"
	CategoryConcierge    ServiceCategory = "concierge"
	CategoryReception    ServiceCategory = "reception"
)

// CategoryInfo is the static taxonomy metadata for one service category,
// served verbatim by the categories endpoint and embedded into the
// classification system prompt.
type CategoryInfo struct {
	Name           string `json:"name" yaml:"name"`
	Description    string `json:"description" yaml:"description"`
	Department     string `json:"department" yaml:"department"`
	CompletionTime string `json:"typical_completion_time" yaml:"typical_completion_time"`
}

// Taxonomy maps every valid category key to its metadata. Initialized once,
// read-only afterwards.
var Taxonomy = map[ServiceCategory]CategoryInfo{
	CategoryFoodBeverage: {
		Name:           "Food & Beverage",
		Description:    "Food, beverages, room service, restaurant requests, coffee, tea, meals, drinks, dining, kitchen, bar, alcohol, snacks, water, ice",
		Department:     "F&B",
		CompletionTime: "15-30 minutes",
	},
	CategoryHousekeeping: {
		Name:           "Housekeeping",
		Description:    "Room cleaning, towels, linens, bathroom supplies, bed making, trash removal, vacuum, dusting, room tidying, fresh sheets, pillows, blankets",
		Department:     "Housekeeping",
		CompletionTime: "20-45 minutes",
	},
	CategoryMaintenance: {
		Name:           "Maintenance",
		Description:    "Repairs, technical issues, broken items, AC/heating, plumbing, electrical, lights, TV, WiFi, locks, windows, fixtures, appliances",
		Department:     "Engineering",
		CompletionTime: "30-120 minutes",
	},
	CategoryPorter: {
		Name:           "Porter Services",
		Description:    "Luggage assistance, heavy item moving, transportation of bags, carrying items, bell services, package delivery",
		Department:     "Bell Services",
		CompletionTime: "5-15 minutes",
	},
	CategoryConcierge: {
		Name:           "Concierge",
		Description:    "External services, directions, recommendations, bookings outside hotel, tours, tickets, transportation, local information, attractions",
		Department:     "Concierge",
		CompletionTime: "10-60 minutes",
	},
	CategoryReception: {
		Name:           "Reception",
		Description:    "Check-in/out, billing, room changes, hotel policies, complaints, front desk services, reservations, account issues, key cards",
		Department:     "Front Office",
		CompletionTime: "5-20 minutes",
	},
}

// ValidCategory reports whether key is one of the six taxonomy keys.
func ValidCategory(key string) bool {
	_, ok := Taxonomy[ServiceCategory(key)]
	return ok
}

// Urgency levels and priorities share the same closed vocabulary. "none" is
// additionally accepted as a suggested_priority on no-ticket results.
const (
	UrgencyLow    = "low"
	UrgencyMedium = "medium"
	UrgencyHigh   = "high"
	UrgencyUrgent = "urgent"

	PriorityNone = "none"
)

// ValidUrgency reports whether level is one of the four canonical urgency
// values.
func ValidUrgency(level string) bool {
	switch level {
	case UrgencyLow, UrgencyMedium, UrgencyHigh, UrgencyUrgent:
		return true
	}
	return false
}

// CategoryAssignment is one routed service request inside a classification:
// which department handles it, a single-line staff-facing message, and an
// urgency from the canonical four-level set.
type CategoryAssignment struct {
	Category ServiceCategory `json:"category"`
	Message  string          `json:"message"`
	Urgency  string          `json:"urgency"`
}

// ClassificationRequest is the immutable per-message input. GuestID and
// RoomNumber are optional context passed through to the prompt.
type ClassificationRequest struct {
	GuestMessage string `json:"guest_message"`
	GuestID      string `json:"guest_id,omitempty"`
	RoomNumber   string `json:"room_number,omitempty"`
}

// ClassificationResult is the final typed outcome of one classification.
// Constructed exactly once per request and never mutated afterwards.
// Fallback marks results produced by the failure path; it is internal
// bookkeeping and stays off the wire.
type ClassificationResult struct {
	ShouldCreateTicket      bool                 `json:"should_create_ticket"`
	Categories              []CategoryAssignment `json:"categories"`
	Confidence              float64              `json:"confidence"`
	Reasoning               string               `json:"reasoning"`
	SuggestedPriority       string               `json:"suggested_priority"`
	EstimatedCompletionTime *string              `json:"estimated_completion_time"`
	Fallback                bool                 `json:"-"`
}

// FallbackResult is the safe result returned when the pipeline cannot
// produce a validated answer: no ticket, zero confidence, and a reasoning
// line naming the failure.
func FallbackResult(cause string) ClassificationResult {
	return ClassificationResult{
		ShouldCreateTicket: false,
		Categories:         []CategoryAssignment{},
		Confidence:         0.0,
		Reasoning:          "classification failed: " + cause,
		SuggestedPriority:  UrgencyLow,
		Fallback:           true,
	}
}

// Coherent reports whether the ticket flag and the categories list agree:
// no ticket means no categories, a ticket means at least one. Violations
// are a model defect to log, not to crash on.
func (r ClassificationResult) Coherent() bool {
	if r.ShouldCreateTicket {
		return len(r.Categories) > 0
	}
	return len(r.Categories) == 0
}
