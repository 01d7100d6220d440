package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-pg/pg/v10"
	"github.com/go-pg/pg/v10/orm"
	"github.com/google/uuid"

	"aria/internal/logging"
)

// Postgres implements the repositories on go-pg.
type Postgres struct {
	db     *pg.DB
	logger logging.Logger
}

// PostgresOptions carries connection settings.
type PostgresOptions struct {
	Addr     string
	User     string
	Password string
	Database string
}

// NewPostgres connects and verifies the connection.
func NewPostgres(ctx context.Context, opts PostgresOptions, logger logging.Logger) (*Postgres, error) {
	db := pg.Connect(&pg.Options{
		Addr:     opts.Addr,
		User:     opts.User,
		Password: opts.Password,
		Database: opts.Database,
	})
	if err := db.Ping(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("postgres ping: %w", err)
	}
	return &Postgres{db: db, logger: logging.OrNop(logger)}, nil
}

// EnsureSchema creates the tables when they do not exist yet.
func (p *Postgres) EnsureSchema(ctx context.Context) error {
	models := []any{(*Todo)(nil), (*Expense)(nil), (*CalendarEvent)(nil)}
	for _, model := range models {
		err := p.db.ModelContext(ctx, model).CreateTable(&orm.CreateTableOptions{IfNotExists: true})
		if err != nil {
			return fmt.Errorf("create table for %T: %w", model, err)
		}
	}
	return nil
}

// Close releases the connection pool.
func (p *Postgres) Close() error {
	return p.db.Close()
}

// Stores returns the repository bundle backed by this database.
func (p *Postgres) Stores() Stores {
	return Stores{
		Todos:    &pgTodos{p},
		Expenses: &pgExpenses{p},
		Events:   &pgEvents{p},
	}
}

func mapPGError(err error) error {
	if errors.Is(err, pg.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

type pgTodos struct{ p *Postgres }

func (r *pgTodos) Create(ctx context.Context, todo *Todo) error {
	if todo.ID == "" {
		todo.ID = uuid.NewString()
	}
	todo.CreatedAt = time.Now().UTC()
	todo.UpdatedAt = todo.CreatedAt
	_, err := r.p.db.ModelContext(ctx, todo).Insert()
	return err
}

func (r *pgTodos) List(ctx context.Context, userID string) ([]Todo, error) {
	var todos []Todo
	err := r.p.db.ModelContext(ctx, &todos).
		Where("user_id = ?", userID).
		Order("created_at ASC").
		Select()
	if err != nil {
		return nil, err
	}
	return todos, nil
}

func (r *pgTodos) Get(ctx context.Context, userID, id string) (*Todo, error) {
	todo := new(Todo)
	err := r.p.db.ModelContext(ctx, todo).
		Where("id = ? AND user_id = ?", id, userID).
		Select()
	if err != nil {
		return nil, mapPGError(err)
	}
	return todo, nil
}

func (r *pgTodos) Update(ctx context.Context, todo *Todo) error {
	todo.UpdatedAt = time.Now().UTC()
	result, err := r.p.db.ModelContext(ctx, todo).
		WherePK().
		Where("user_id = ?", todo.UserID).
		ExcludeColumn("created_at").
		Update()
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *pgTodos) Delete(ctx context.Context, userID, id string) error {
	result, err := r.p.db.ModelContext(ctx, (*Todo)(nil)).
		Where("id = ? AND user_id = ?", id, userID).
		Delete()
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

type pgExpenses struct{ p *Postgres }

func (r *pgExpenses) Create(ctx context.Context, expense *Expense) error {
	if expense.ID == "" {
		expense.ID = uuid.NewString()
	}
	expense.CreatedAt = time.Now().UTC()
	expense.UpdatedAt = expense.CreatedAt
	_, err := r.p.db.ModelContext(ctx, expense).Insert()
	return err
}

func (r *pgExpenses) List(ctx context.Context, userID string) ([]Expense, error) {
	var expenses []Expense
	err := r.p.db.ModelContext(ctx, &expenses).
		Where("user_id = ?", userID).
		Order("created_at ASC").
		Select()
	if err != nil {
		return nil, err
	}
	return expenses, nil
}

func (r *pgExpenses) Get(ctx context.Context, userID, id string) (*Expense, error) {
	expense := new(Expense)
	err := r.p.db.ModelContext(ctx, expense).
		Where("id = ? AND user_id = ?", id, userID).
		Select()
	if err != nil {
		return nil, mapPGError(err)
	}
	return expense, nil
}

func (r *pgExpenses) Update(ctx context.Context, expense *Expense) error {
	expense.UpdatedAt = time.Now().UTC()
	result, err := r.p.db.ModelContext(ctx, expense).
		WherePK().
		Where("user_id = ?", expense.UserID).
		ExcludeColumn("created_at").
		Update()
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *pgExpenses) Delete(ctx context.Context, userID, id string) error {
	result, err := r.p.db.ModelContext(ctx, (*Expense)(nil)).
		Where("id = ? AND user_id = ?", id, userID).
		Delete()
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

type pgEvents struct{ p *Postgres }

func (r *pgEvents) Create(ctx context.Context, event *CalendarEvent) error {
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	event.CreatedAt = time.Now().UTC()
	event.UpdatedAt = event.CreatedAt
	_, err := r.p.db.ModelContext(ctx, event).Insert()
	return err
}

func (r *pgEvents) List(ctx context.Context, userID string) ([]CalendarEvent, error) {
	var events []CalendarEvent
	err := r.p.db.ModelContext(ctx, &events).
		Where("user_id = ?", userID).
		Order("date ASC", "start_time ASC").
		Select()
	if err != nil {
		return nil, err
	}
	return events, nil
}

func (r *pgEvents) Get(ctx context.Context, userID, id string) (*CalendarEvent, error) {
	event := new(CalendarEvent)
	err := r.p.db.ModelContext(ctx, event).
		Where("id = ? AND user_id = ?", id, userID).
		Select()
	if err != nil {
		return nil, mapPGError(err)
	}
	return event, nil
}

func (r *pgEvents) Update(ctx context.Context, event *CalendarEvent) error {
	event.UpdatedAt = time.Now().UTC()
	result, err := r.p.db.ModelContext(ctx, event).
		WherePK().
		Where("user_id = ?", event.UserID).
		ExcludeColumn("created_at").
		Update()
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *pgEvents) Delete(ctx context.Context, userID, id string) error {
	result, err := r.p.db.ModelContext(ctx, (*CalendarEvent)(nil)).
		Where("id = ? AND user_id = ?", id, userID).
		Delete()
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
