package intent

import (
	"encoding/json"
	"strings"

	"github.com/shopspring/decimal"
)

// rawAction is the loosely-typed shape the model emits for one action.
type rawAction struct {
	Type       string         `json:"type"`
	Kind       string         `json:"kind"`
	Confidence float64        `json:"confidence"`
	Data       map[string]any `json:"data"`
}

func (a rawAction) kind() Kind {
	name := a.Type
	if name == "" {
		name = a.Kind
	}
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "create_todo", "todo", "add_todo", "reminder":
		return KindCreateTodo
	case "create_expense", "expense", "add_expense":
		return KindCreateExpense
	case "create_calendar_event", "create_event", "calendar_event", "calendar", "event":
		return KindCreateCalendar
	default:
		return KindUnknown
	}
}

// normalizeAction validates one raw action against its kind's schema and
// resolves every relative field. Anything that fails validation degrades to
// the unknown intent instead of erroring.
func normalizeAction(raw rawAction, sourceText string, parseCtx ParseContext) ParsedIntent {
	p := ParsedIntent{
		Kind:       raw.kind(),
		Confidence: clampConfidence(raw.Confidence),
		SourceText: sourceText,
	}

	switch p.Kind {
	case KindCreateTodo:
		p.Todo = normalizeTodo(raw.Data, sourceText, parseCtx)
	case KindCreateExpense:
		expense, ok := normalizeExpense(raw.Data)
		if !ok {
			return Unknown(sourceText)
		}
		if expense.Date != "" {
			if resolved, ok := ResolveDate(expense.Date, parseCtx.ReferenceDate); ok {
				expense.Date = resolved
			} else {
				expense.Date = ""
			}
		}
		p.Expense = expense
	case KindCreateCalendar:
		event, ok := normalizeEvent(raw.Data, sourceText, parseCtx)
		if !ok {
			return Unknown(sourceText)
		}
		p.Event = event
	default:
		return Unknown(sourceText)
	}
	return p
}

func normalizeTodo(data map[string]any, sourceText string, parseCtx ParseContext) *TodoFields {
	todo := &TodoFields{
		Title: stringField(data, "title"),
	}
	if todo.Title == "" {
		// The utterance itself is the fallback title so the user never loses
		// what they said.
		todo.Title = sourceText
	}
	switch strings.ToLower(stringField(data, "priority")) {
	case PriorityLow:
		todo.Priority = PriorityLow
	case PriorityMedium:
		todo.Priority = PriorityMedium
	case PriorityHigh:
		todo.Priority = PriorityHigh
	}
	if due := firstStringField(data, "dueDate", "due_date", "due"); due != "" {
		if resolved, ok := ResolveDate(due, parseCtx.ReferenceDate); ok {
			todo.DueDate = resolved
		}
	}
	return todo
}

// normalizeExpense returns false when no usable non-negative amount is
// present; the caller degrades the whole action to unknown.
func normalizeExpense(data map[string]any) (*ExpenseFields, bool) {
	amount, currency, ok := amountField(data)
	if !ok {
		return nil, false
	}
	expense := &ExpenseFields{
		Amount:      amount,
		Currency:    strings.ToUpper(stringField(data, "currency")),
		Category:    stringField(data, "category"),
		Description: stringField(data, "description"),
		Date:        firstStringField(data, "date", "spentAt"),
	}
	if expense.Currency == "" {
		expense.Currency = currency
	}
	return expense, true
}

func normalizeEvent(data map[string]any, sourceText string, parseCtx ParseContext) (*EventFields, bool) {
	date, ok := ResolveDate(firstStringField(data, "date", "day"), parseCtx.ReferenceDate)
	if !ok {
		// A calendar event without a resolvable date is not actionable.
		return nil, false
	}
	event := &EventFields{
		Title:       stringField(data, "title"),
		Date:        date,
		Description: stringField(data, "description"),
	}
	if event.Title == "" {
		event.Title = sourceText
	}
	if start := firstStringField(data, "startTime", "start_time", "time"); start != "" {
		if resolved, ok := ResolveTime(start); ok {
			event.StartTime = resolved
		}
	}
	if end := firstStringField(data, "endTime", "end_time"); end != "" {
		if resolved, ok := ResolveTime(end); ok {
			event.EndTime = resolved
		}
	}
	if allDay, ok := data["allDay"].(bool); ok {
		event.AllDay = allDay
	}
	if event.StartTime == "" && event.EndTime == "" {
		event.AllDay = true
	}
	return event, true
}

// amountField accepts the amount as a JSON number, a numeric string, or a
// currency-tagged string like "$15". Missing, zero, and negative amounts all
// fail so the action degrades to unknown instead of a zero expense.
func amountField(data map[string]any) (decimal.Decimal, string, bool) {
	switch v := data["amount"].(type) {
	case float64:
		d := decimal.NewFromFloat(v)
		if !d.IsPositive() {
			return decimal.Zero, "", false
		}
		return d, "", true
	case json.Number:
		d, err := decimal.NewFromString(v.String())
		if err != nil || !d.IsPositive() {
			return decimal.Zero, "", false
		}
		return d, "", true
	case string:
		return ParseAmount(v)
	default:
		return decimal.Zero, "", false
	}
}

func stringField(data map[string]any, key string) string {
	if v, ok := data[key].(string); ok {
		return strings.TrimSpace(v)
	}
	return ""
}

func firstStringField(data map[string]any, keys ...string) string {
	for _, key := range keys {
		if v := stringField(data, key); v != "" {
			return v
		}
	}
	return ""
}

func clampConfidence(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
