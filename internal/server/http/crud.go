package httpserver

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"aria/internal/store"
)

func bindJSON(c *gin.Context, out any) bool {
	if err := c.ShouldBindJSON(out); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("invalid request: %v", err)})
		return false
	}
	return true
}

// Todos

func (s *Server) handleCreateTodo(c *gin.Context) {
	var todo store.Todo
	if !bindJSON(c, &todo) {
		return
	}
	if todo.Title == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "title is required"})
		return
	}
	todo.ID = ""
	todo.UserID = currentUser(c)
	if err := s.deps.Stores.Todos.Create(c.Request.Context(), &todo); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, todo)
}

func (s *Server) handleListTodos(c *gin.Context) {
	todos, err := s.deps.Stores.Todos.List(c.Request.Context(), currentUser(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"todos": todos})
}

func (s *Server) handleGetTodo(c *gin.Context) {
	todo, err := s.deps.Stores.Todos.Get(c.Request.Context(), currentUser(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, todo)
}

func (s *Server) handleUpdateTodo(c *gin.Context) {
	var todo store.Todo
	if !bindJSON(c, &todo) {
		return
	}
	todo.ID = c.Param("id")
	todo.UserID = currentUser(c)
	if err := s.deps.Stores.Todos.Update(c.Request.Context(), &todo); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, todo)
}

func (s *Server) handleDeleteTodo(c *gin.Context) {
	if err := s.deps.Stores.Todos.Delete(c.Request.Context(), currentUser(c), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Expenses

func (s *Server) handleCreateExpense(c *gin.Context) {
	var expense store.Expense
	if !bindJSON(c, &expense) {
		return
	}
	if expense.Amount.IsNegative() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "amount must not be negative"})
		return
	}
	expense.ID = ""
	expense.UserID = currentUser(c)
	if err := s.deps.Stores.Expenses.Create(c.Request.Context(), &expense); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, expense)
}

func (s *Server) handleListExpenses(c *gin.Context) {
	expenses, err := s.deps.Stores.Expenses.List(c.Request.Context(), currentUser(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"expenses": expenses})
}

func (s *Server) handleGetExpense(c *gin.Context) {
	expense, err := s.deps.Stores.Expenses.Get(c.Request.Context(), currentUser(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, expense)
}

func (s *Server) handleUpdateExpense(c *gin.Context) {
	var expense store.Expense
	if !bindJSON(c, &expense) {
		return
	}
	if expense.Amount.IsNegative() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "amount must not be negative"})
		return
	}
	expense.ID = c.Param("id")
	expense.UserID = currentUser(c)
	if err := s.deps.Stores.Expenses.Update(c.Request.Context(), &expense); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, expense)
}

func (s *Server) handleDeleteExpense(c *gin.Context) {
	if err := s.deps.Stores.Expenses.Delete(c.Request.Context(), currentUser(c), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Calendar events

func (s *Server) handleCreateEvent(c *gin.Context) {
	var event store.CalendarEvent
	if !bindJSON(c, &event) {
		return
	}
	if event.Title == "" || event.Date == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "title and date are required"})
		return
	}
	event.ID = ""
	event.UserID = currentUser(c)
	if err := s.deps.Stores.Events.Create(c.Request.Context(), &event); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, event)
}

func (s *Server) handleListEvents(c *gin.Context) {
	events, err := s.deps.Stores.Events.List(c.Request.Context(), currentUser(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"events": events})
}

func (s *Server) handleGetEvent(c *gin.Context) {
	event, err := s.deps.Stores.Events.Get(c.Request.Context(), currentUser(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, event)
}

func (s *Server) handleUpdateEvent(c *gin.Context) {
	var event store.CalendarEvent
	if !bindJSON(c, &event) {
		return
	}
	event.ID = c.Param("id")
	event.UserID = currentUser(c)
	if err := s.deps.Stores.Events.Update(c.Request.Context(), &event); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, event)
}

func (s *Server) handleDeleteEvent(c *gin.Context) {
	if err := s.deps.Stores.Events.Delete(c.Request.Context(), currentUser(c), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
