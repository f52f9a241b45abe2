package models

import (
	"strings"
	"time"

	"todoapp/internal/domain/errors"
)

type Priority string

const (
	PriorityDefault Priority = "DEFAULT"
	PriorityLow     Priority = "LOW"
	PriorityMedium  Priority = "MEDIUM"
	PriorityHigh    Priority = "HIGH"
)

var priorityLabels = map[Priority]string{
	PriorityDefault: "Default",
	PriorityLow:     "Low",
	PriorityMedium:  "Medium",
	PriorityHigh:    "High",
}

// Priorities returns every priority in the order the forms list them.
func Priorities() []Priority {
	return []Priority{PriorityDefault, PriorityLow, PriorityMedium, PriorityHigh}
}

func (p Priority) Label() string {
	return priorityLabels[p]
}

func (p Priority) Valid() bool {
	_, ok := priorityLabels[p]
	return ok
}

// ParsePriority accepts either the stored name ("HIGH") or the label ("High").
// An empty value yields PriorityLow.
func ParsePriority(s string) (Priority, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return PriorityLow, nil
	}
	p := Priority(strings.ToUpper(s))
	if !p.Valid() {
		return "", errors.ErrInvalidPriority
	}
	return p, nil
}

type Todo struct {
	ID        int64     `json:"id"`
	Title     string    `json:"title" validate:"required,max=255"`
	Completed bool      `json:"completed"`
	Priority  Priority  `json:"priority"`
	CreatedAt time.Time `json:"created_at"`
}

type TodoForm struct {
	Title     string `form:"title" validate:"required,max=255"`
	Completed bool   `form:"completed"`
	Priority  string `form:"priority" validate:"omitempty,max=16"`
}

type ListQuery struct {
	Page   int    `form:"page"`
	Size   int    `form:"size"`
	Filter string `form:"filter"`
}

type PageView struct {
	Items       []Todo `json:"items"`
	PageCount   int    `json:"page_count"`
	CurrentPage int    `json:"current_page"`
	HasPrevious bool   `json:"has_previous"`
	HasNext     bool   `json:"has_next"`
	PageSize    int    `json:"page_size"`
	TotalItems  int    `json:"total_items"`
	Filter      string `json:"filter,omitempty"`
}

const (
	RoleUser = "USER"

	// UsernameRules matches the users.username column width.
	UsernameRules = "required,max=50"
)

type User struct {
	ID       string `json:"id" validate:"uuid"`
	Username string `json:"username" validate:"required,max=50"`
	Password string `json:"-"`
	Role     string `json:"role"`
}

type RegisterRequest struct {
	Username        string `form:"username"`
	Password        string `form:"password"`
	ConfirmPassword string `form:"confirmPassword"`
}

type LoginRequest struct {
	Username string `form:"username" validate:"required"`
	Password string `form:"password" validate:"required"`
}
