package intent

import (
	"time"

	"github.com/shopspring/decimal"
)

// Kind is the taxonomy of actions the assistant can extract from one
// utterance.
type Kind string

const (
	KindCreateTodo     Kind = "create_todo"
	KindCreateExpense  Kind = "create_expense"
	KindCreateCalendar Kind = "create_calendar_event"
	KindUnknown        Kind = "unknown"
)

// Priority levels for todos.
const (
	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"
)

// TodoFields holds the extracted attributes of a create_todo intent.
type TodoFields struct {
	Title    string `json:"title"`
	Priority string `json:"priority,omitempty"`
	DueDate  string `json:"dueDate,omitempty"` // YYYY-MM-DD, already resolved
}

// ExpenseFields holds the extracted attributes of a create_expense intent.
type ExpenseFields struct {
	Amount      decimal.Decimal `json:"amount"`
	Currency    string          `json:"currency,omitempty"`
	Category    string          `json:"category,omitempty"`
	Description string          `json:"description,omitempty"`
	Date        string          `json:"date,omitempty"` // YYYY-MM-DD
}

// EventFields holds the extracted attributes of a create_calendar_event
// intent. Times are HH:MM in the user's local context.
type EventFields struct {
	Title       string `json:"title"`
	Date        string `json:"date"` // YYYY-MM-DD, already resolved
	StartTime   string `json:"startTime,omitempty"`
	EndTime     string `json:"endTime,omitempty"`
	AllDay      bool   `json:"allDay,omitempty"`
	Description string `json:"description,omitempty"`
}

// ParsedIntent is one structured action extracted from an utterance. It lives
// only in session state until confirmed or discarded; it is never persisted.
//
// Exactly one of Todo/Expense/Event is non-nil when Kind is actionable; all
// are nil when Kind is KindUnknown.
type ParsedIntent struct {
	Kind       Kind    `json:"type"`
	Confidence float64 `json:"confidence"`
	SourceText string  `json:"originalText"`

	Todo    *TodoFields    `json:"todo,omitempty"`
	Expense *ExpenseFields `json:"expense,omitempty"`
	Event   *EventFields   `json:"event,omitempty"`
}

// Unknown returns the intent produced when nothing actionable was found.
// SourceText is preserved so the UI can offer manual entry.
func Unknown(sourceText string) ParsedIntent {
	return ParsedIntent{Kind: KindUnknown, SourceText: sourceText}
}

// Actionable reports whether the intent should reach the confirmation UI.
func (p ParsedIntent) Actionable() bool {
	return p.Kind != KindUnknown && p.Kind != ""
}

// ParseContext anchors one parse call. ReferenceDate is the explicit "today"
// every relative date resolves against; it is never taken from the server
// clock so parsing stays deterministic and testable.
type ParseContext struct {
	ReferenceDate time.Time
	Language      string // "en" or "zh"; selects the instruction template
}
