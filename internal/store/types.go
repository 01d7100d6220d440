package store

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// ErrNotFound is returned when a record does not exist for the given user.
var ErrNotFound = errors.New("record not found")

// Todo is a persisted todo item.
type Todo struct {
	tableName struct{} `pg:"todos"` //nolint:unused

	ID        string    `json:"id" pg:"id,pk"`
	UserID    string    `json:"userId" pg:"user_id"`
	Title     string    `json:"title" pg:"title"`
	Priority  string    `json:"priority,omitempty" pg:"priority"`
	DueDate   string    `json:"dueDate,omitempty" pg:"due_date"`
	Completed bool      `json:"completed" pg:"completed,use_zero"`
	CreatedAt time.Time `json:"createdAt" pg:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" pg:"updated_at"`
}

// Expense is a persisted expense record.
type Expense struct {
	tableName struct{} `pg:"expenses"` //nolint:unused

	ID          string          `json:"id" pg:"id,pk"`
	UserID      string          `json:"userId" pg:"user_id"`
	Amount      decimal.Decimal `json:"amount" pg:"amount,type:numeric"`
	Currency    string          `json:"currency,omitempty" pg:"currency"`
	Category    string          `json:"category,omitempty" pg:"category"`
	Description string          `json:"description,omitempty" pg:"description"`
	Date        string          `json:"date,omitempty" pg:"date"`
	CreatedAt   time.Time       `json:"createdAt" pg:"created_at"`
	UpdatedAt   time.Time       `json:"updatedAt" pg:"updated_at"`
}

// CalendarEvent is a persisted calendar entry.
type CalendarEvent struct {
	tableName struct{} `pg:"calendar_events"` //nolint:unused

	ID          string    `json:"id" pg:"id,pk"`
	UserID      string    `json:"userId" pg:"user_id"`
	Title       string    `json:"title" pg:"title"`
	Date        string    `json:"date" pg:"date"`
	StartTime   string    `json:"startTime,omitempty" pg:"start_time"`
	EndTime     string    `json:"endTime,omitempty" pg:"end_time"`
	AllDay      bool      `json:"allDay" pg:"all_day,use_zero"`
	Description string    `json:"description,omitempty" pg:"description"`
	CreatedAt   time.Time `json:"createdAt" pg:"created_at"`
	UpdatedAt   time.Time `json:"updatedAt" pg:"updated_at"`
}

// TodoRepository is the persistence boundary for todos.
type TodoRepository interface {
	Create(ctx context.Context, todo *Todo) error
	List(ctx context.Context, userID string) ([]Todo, error)
	Get(ctx context.Context, userID, id string) (*Todo, error)
	Update(ctx context.Context, todo *Todo) error
	Delete(ctx context.Context, userID, id string) error
}

// ExpenseRepository is the persistence boundary for expenses.
type ExpenseRepository interface {
	Create(ctx context.Context, expense *Expense) error
	List(ctx context.Context, userID string) ([]Expense, error)
	Get(ctx context.Context, userID, id string) (*Expense, error)
	Update(ctx context.Context, expense *Expense) error
	Delete(ctx context.Context, userID, id string) error
}

// EventRepository is the persistence boundary for calendar events.
type EventRepository interface {
	Create(ctx context.Context, event *CalendarEvent) error
	List(ctx context.Context, userID string) ([]CalendarEvent, error)
	Get(ctx context.Context, userID, id string) (*CalendarEvent, error)
	Update(ctx context.Context, event *CalendarEvent) error
	Delete(ctx context.Context, userID, id string) error
}

// Stores bundles the three repositories the server works against.
type Stores struct {
	Todos    TodoRepository
	Expenses ExpenseRepository
	Events   EventRepository
}
