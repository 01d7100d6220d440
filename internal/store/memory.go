package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Memory is an in-process implementation of all three repositories. It is an
// explicit, injectable value with per-instance lifetime; construct one per
// server (or per test) rather than sharing a package-level singleton, so
// nothing leaks across tests.
type Memory struct {
	mu       sync.RWMutex
	todos    map[string]Todo
	expenses map[string]Expense
	events   map[string]CalendarEvent
	now      func() time.Time
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		todos:    make(map[string]Todo),
		expenses: make(map[string]Expense),
		events:   make(map[string]CalendarEvent),
		now:      time.Now,
	}
}

// Stores returns the repository bundle backed by this instance.
func (m *Memory) Stores() Stores {
	return Stores{
		Todos:    (*memoryTodos)(m),
		Expenses: (*memoryExpenses)(m),
		Events:   (*memoryEvents)(m),
	}
}

type memoryTodos Memory

func (m *memoryTodos) Create(_ context.Context, todo *Todo) error {
	mem := (*Memory)(m)
	mem.mu.Lock()
	defer mem.mu.Unlock()
	if todo.ID == "" {
		todo.ID = uuid.NewString()
	}
	todo.CreatedAt = mem.now()
	todo.UpdatedAt = todo.CreatedAt
	mem.todos[todo.ID] = *todo
	return nil
}

func (m *memoryTodos) List(_ context.Context, userID string) ([]Todo, error) {
	mem := (*Memory)(m)
	mem.mu.RLock()
	defer mem.mu.RUnlock()
	var out []Todo
	for _, todo := range mem.todos {
		if todo.UserID == userID {
			out = append(out, todo)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (m *memoryTodos) Get(_ context.Context, userID, id string) (*Todo, error) {
	mem := (*Memory)(m)
	mem.mu.RLock()
	defer mem.mu.RUnlock()
	todo, ok := mem.todos[id]
	if !ok || todo.UserID != userID {
		return nil, ErrNotFound
	}
	return &todo, nil
}

func (m *memoryTodos) Update(_ context.Context, todo *Todo) error {
	mem := (*Memory)(m)
	mem.mu.Lock()
	defer mem.mu.Unlock()
	existing, ok := mem.todos[todo.ID]
	if !ok || existing.UserID != todo.UserID {
		return ErrNotFound
	}
	todo.CreatedAt = existing.CreatedAt
	todo.UpdatedAt = mem.now()
	mem.todos[todo.ID] = *todo
	return nil
}

func (m *memoryTodos) Delete(_ context.Context, userID, id string) error {
	mem := (*Memory)(m)
	mem.mu.Lock()
	defer mem.mu.Unlock()
	todo, ok := mem.todos[id]
	if !ok || todo.UserID != userID {
		return ErrNotFound
	}
	delete(mem.todos, id)
	return nil
}

type memoryExpenses Memory

func (m *memoryExpenses) Create(_ context.Context, expense *Expense) error {
	mem := (*Memory)(m)
	mem.mu.Lock()
	defer mem.mu.Unlock()
	if expense.ID == "" {
		expense.ID = uuid.NewString()
	}
	expense.CreatedAt = mem.now()
	expense.UpdatedAt = expense.CreatedAt
	mem.expenses[expense.ID] = *expense
	return nil
}

func (m *memoryExpenses) List(_ context.Context, userID string) ([]Expense, error) {
	mem := (*Memory)(m)
	mem.mu.RLock()
	defer mem.mu.RUnlock()
	var out []Expense
	for _, expense := range mem.expenses {
		if expense.UserID == userID {
			out = append(out, expense)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (m *memoryExpenses) Get(_ context.Context, userID, id string) (*Expense, error) {
	mem := (*Memory)(m)
	mem.mu.RLock()
	defer mem.mu.RUnlock()
	expense, ok := mem.expenses[id]
	if !ok || expense.UserID != userID {
		return nil, ErrNotFound
	}
	return &expense, nil
}

func (m *memoryExpenses) Update(_ context.Context, expense *Expense) error {
	mem := (*Memory)(m)
	mem.mu.Lock()
	defer mem.mu.Unlock()
	existing, ok := mem.expenses[expense.ID]
	if !ok || existing.UserID != expense.UserID {
		return ErrNotFound
	}
	expense.CreatedAt = existing.CreatedAt
	expense.UpdatedAt = mem.now()
	mem.expenses[expense.ID] = *expense
	return nil
}

func (m *memoryExpenses) Delete(_ context.Context, userID, id string) error {
	mem := (*Memory)(m)
	mem.mu.Lock()
	defer mem.mu.Unlock()
	expense, ok := mem.expenses[id]
	if !ok || expense.UserID != userID {
		return ErrNotFound
	}
	delete(mem.expenses, id)
	return nil
}

type memoryEvents Memory

func (m *memoryEvents) Create(_ context.Context, event *CalendarEvent) error {
	mem := (*Memory)(m)
	mem.mu.Lock()
	defer mem.mu.Unlock()
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	event.CreatedAt = mem.now()
	event.UpdatedAt = event.CreatedAt
	mem.events[event.ID] = *event
	return nil
}

func (m *memoryEvents) List(_ context.Context, userID string) ([]CalendarEvent, error) {
	mem := (*Memory)(m)
	mem.mu.RLock()
	defer mem.mu.RUnlock()
	var out []CalendarEvent
	for _, event := range mem.events {
		if event.UserID == userID {
			out = append(out, event)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Date != out[j].Date {
			return out[i].Date < out[j].Date
		}
		return out[i].StartTime < out[j].StartTime
	})
	return out, nil
}

func (m *memoryEvents) Get(_ context.Context, userID, id string) (*CalendarEvent, error) {
	mem := (*Memory)(m)
	mem.mu.RLock()
	defer mem.mu.RUnlock()
	event, ok := mem.events[id]
	if !ok || event.UserID != userID {
		return nil, ErrNotFound
	}
	return &event, nil
}

func (m *memoryEvents) Update(_ context.Context, event *CalendarEvent) error {
	mem := (*Memory)(m)
	mem.mu.Lock()
	defer mem.mu.Unlock()
	existing, ok := mem.events[event.ID]
	if !ok || existing.UserID != event.UserID {
		return ErrNotFound
	}
	event.CreatedAt = existing.CreatedAt
	event.UpdatedAt = mem.now()
	mem.events[event.ID] = *event
	return nil
}

func (m *memoryEvents) Delete(_ context.Context, userID, id string) error {
	mem := (*Memory)(m)
	mem.mu.Lock()
	defer mem.mu.Unlock()
	event, ok := mem.events[id]
	if !ok || event.UserID != userID {
		return ErrNotFound
	}
	delete(mem.events, id)
	return nil
}
