package model

import (
	"fmt"
	"strings"
)

// Priority ranks a todo. The earliest schema had no priority at all, so the
// zero value reads as Medium.
type Priority string

const (
	PriorityLow    Priority = "Low"
	PriorityMedium Priority = "Medium"
	PriorityHigh   Priority = "High"
)

// Priorities lists the accepted values in cycling order.
var Priorities = []Priority{PriorityLow, PriorityMedium, PriorityHigh}

// ParsePriority accepts any letter case ("high", "HIGH").
func ParsePriority(s string) (Priority, error) {
	for _, p := range Priorities {
		if strings.EqualFold(strings.TrimSpace(s), string(p)) {
			return p, nil
		}
	}
	return "", fmt.Errorf("unknown priority %q (want Low, Medium or High)", s)
}

// OrDefault maps the empty value to Medium.
func (p Priority) OrDefault() Priority {
	if p == "" {
		return PriorityMedium
	}
	return p
}

// Next returns the priority after p, wrapping High back to Low.
func (p Priority) Next() Priority {
	cur := p.OrDefault()
	for i, q := range Priorities {
		if q == cur {
			return Priorities[(i+1)%len(Priorities)]
		}
	}
	return PriorityMedium
}

// TodoItem is a task record as the backend returns it.
type TodoItem struct {
	ID          int64      `json:"id"`
	Description string     `json:"description"`
	Completed   bool       `json:"completed"`
	Priority    Priority   `json:"priority,omitempty"`
	DueDate     *Timestamp `json:"due_date,omitempty"`
	Category    *string    `json:"category,omitempty"`
	CreatedAt   Timestamp  `json:"created_at"`
	UpdatedAt   Timestamp  `json:"updated_at"`
}

// CreateInput is the body of a create request.
type CreateInput struct {
	Description string     `json:"description" validate:"required,max=500"`
	Priority    Priority   `json:"priority,omitempty" validate:"omitempty,oneof=Low Medium High"`
	DueDate     *Timestamp `json:"due_date,omitempty"`
	Category    *string    `json:"category,omitempty" validate:"omitempty,max=50"`
}

// UpdateInput is a partial update. Nil fields are left untouched server-side
// and never appear in the request body.
type UpdateInput struct {
	Description *string    `json:"description,omitempty"`
	Completed   *bool      `json:"completed,omitempty"`
	Priority    *Priority  `json:"priority,omitempty"`
	DueDate     *Timestamp `json:"due_date,omitempty"`
	Category    *string    `json:"category,omitempty"`
}

// IsEmpty reports whether the patch carries no field at all.
func (u UpdateInput) IsEmpty() bool {
	return u.Description == nil && u.Completed == nil && u.Priority == nil &&
		u.DueDate == nil && u.Category == nil
}

// ApplyTo writes the set fields of u onto it. Used for tentative local edits
// before the server confirms them.
func (u UpdateInput) ApplyTo(it *TodoItem) {
	if u.Description != nil {
		it.Description = *u.Description
	}
	if u.Completed != nil {
		it.Completed = *u.Completed
	}
	if u.Priority != nil {
		it.Priority = *u.Priority
	}
	if u.DueDate != nil {
		d := *u.DueDate
		it.DueDate = &d
	}
	if u.Category != nil {
		c := *u.Category
		it.Category = &c
	}
}

// Filter narrows a list request. Nil fields are omitted from the query.
type Filter struct {
	Completed *bool
	Priority  *Priority
	Category  *string
}

// Clone returns a deep copy so callers can keep items out of shared state.
func (t TodoItem) Clone() TodoItem {
	out := t
	if t.DueDate != nil {
		d := *t.DueDate
		out.DueDate = &d
	}
	if t.Category != nil {
		c := *t.Category
		out.Category = &c
	}
	return out
}

// CategoryOrEmpty returns the category or "" when none is set.
func (t TodoItem) CategoryOrEmpty() string {
	if t.Category == nil {
		return ""
	}
	return *t.Category
}
