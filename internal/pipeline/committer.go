package pipeline

import (
	"context"
	"fmt"

	"aria/internal/intent"
	"aria/internal/store"
)

// CommitRecord identifies one record persisted from a confirmed intent.
type CommitRecord struct {
	Kind intent.Kind `json:"kind"`
	ID   string      `json:"id"`
}

// Committer copies a confirmed intent's fields into a create request for the
// matching repository. This is the only path from a ParsedIntent to
// persistence; the intent itself is never stored.
type Committer struct {
	stores store.Stores
}

// NewCommitter wires the repositories.
func NewCommitter(stores store.Stores) *Committer {
	return &Committer{stores: stores}
}

// Commit persists one intent for userID.
func (c *Committer) Commit(ctx context.Context, userID string, p intent.ParsedIntent) (CommitRecord, error) {
	switch p.Kind {
	case intent.KindCreateTodo:
		if p.Todo == nil {
			return CommitRecord{}, fmt.Errorf("todo intent without fields")
		}
		todo := &store.Todo{
			UserID:   userID,
			Title:    p.Todo.Title,
			Priority: p.Todo.Priority,
			DueDate:  p.Todo.DueDate,
		}
		if err := c.stores.Todos.Create(ctx, todo); err != nil {
			return CommitRecord{}, fmt.Errorf("create todo: %w", err)
		}
		return CommitRecord{Kind: p.Kind, ID: todo.ID}, nil

	case intent.KindCreateExpense:
		if p.Expense == nil {
			return CommitRecord{}, fmt.Errorf("expense intent without fields")
		}
		expense := &store.Expense{
			UserID:      userID,
			Amount:      p.Expense.Amount,
			Currency:    p.Expense.Currency,
			Category:    p.Expense.Category,
			Description: p.Expense.Description,
			Date:        p.Expense.Date,
		}
		if expense.Description == "" {
			expense.Description = p.SourceText
		}
		if err := c.stores.Expenses.Create(ctx, expense); err != nil {
			return CommitRecord{}, fmt.Errorf("create expense: %w", err)
		}
		return CommitRecord{Kind: p.Kind, ID: expense.ID}, nil

	case intent.KindCreateCalendar:
		if p.Event == nil {
			return CommitRecord{}, fmt.Errorf("calendar intent without fields")
		}
		event := &store.CalendarEvent{
			UserID:      userID,
			Title:       p.Event.Title,
			Date:        p.Event.Date,
			StartTime:   p.Event.StartTime,
			EndTime:     p.Event.EndTime,
			AllDay:      p.Event.AllDay,
			Description: p.Event.Description,
		}
		if err := c.stores.Events.Create(ctx, event); err != nil {
			return CommitRecord{}, fmt.Errorf("create calendar event: %w", err)
		}
		return CommitRecord{Kind: p.Kind, ID: event.ID}, nil

	default:
		return CommitRecord{}, fmt.Errorf("kind %q is not committable", p.Kind)
	}
}
