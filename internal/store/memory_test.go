package store

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryTodoCRUD(t *testing.T) {
	ctx := context.Background()
	stores := NewMemory().Stores()

	todo := &Todo{UserID: "u1", Title: "buy milk", Priority: "high", DueDate: "2025-06-11"}
	require.NoError(t, stores.Todos.Create(ctx, todo))
	assert.NotEmpty(t, todo.ID)
	assert.False(t, todo.CreatedAt.IsZero())

	got, err := stores.Todos.Get(ctx, "u1", todo.ID)
	require.NoError(t, err)
	assert.Equal(t, "buy milk", got.Title)

	got.Completed = true
	require.NoError(t, stores.Todos.Update(ctx, got))
	updated, err := stores.Todos.Get(ctx, "u1", todo.ID)
	require.NoError(t, err)
	assert.True(t, updated.Completed)

	require.NoError(t, stores.Todos.Delete(ctx, "u1", todo.ID))
	_, err = stores.Todos.Get(ctx, "u1", todo.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryScopesByUser(t *testing.T) {
	ctx := context.Background()
	stores := NewMemory().Stores()

	mine := &Todo{UserID: "u1", Title: "mine"}
	theirs := &Todo{UserID: "u2", Title: "theirs"}
	require.NoError(t, stores.Todos.Create(ctx, mine))
	require.NoError(t, stores.Todos.Create(ctx, theirs))

	list, err := stores.Todos.List(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "mine", list[0].Title)

	// Cross-user access behaves like absence.
	_, err = stores.Todos.Get(ctx, "u1", theirs.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, stores.Todos.Delete(ctx, "u1", theirs.ID), ErrNotFound)
}

func TestMemoryExpenseKeepsDecimalAmount(t *testing.T) {
	ctx := context.Background()
	stores := NewMemory().Stores()

	expense := &Expense{
		UserID:   "u1",
		Amount:   decimal.RequireFromString("15.00"),
		Currency: "USD",
		Category: "food",
	}
	require.NoError(t, stores.Expenses.Create(ctx, expense))

	got, err := stores.Expenses.Get(ctx, "u1", expense.ID)
	require.NoError(t, err)
	assert.True(t, got.Amount.Equal(decimal.RequireFromString("15.00")))
}

func TestMemoryEventListOrdersByDateThenTime(t *testing.T) {
	ctx := context.Background()
	stores := NewMemory().Stores()

	for _, event := range []*CalendarEvent{
		{UserID: "u1", Title: "late", Date: "2025-06-12", StartTime: "18:00"},
		{UserID: "u1", Title: "early", Date: "2025-06-12", StartTime: "09:00"},
		{UserID: "u1", Title: "first", Date: "2025-06-11", StartTime: "12:00"},
	} {
		require.NoError(t, stores.Events.Create(ctx, event))
	}

	list, err := stores.Events.List(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, []string{"first", "early", "late"}, []string{list[0].Title, list[1].Title, list[2].Title})
}

func TestMemoryInstancesAreIsolated(t *testing.T) {
	ctx := context.Background()
	a := NewMemory().Stores()
	b := NewMemory().Stores()

	require.NoError(t, a.Todos.Create(ctx, &Todo{UserID: "u1", Title: "only in a"}))

	list, err := b.Todos.List(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, list)
}
