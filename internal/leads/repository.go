package leads

import (
	"context"
	"time"
)

// ListFilter narrows and pages a lead listing. Zero values mean "no
// constraint"; Page and Limit are normalized by the repository.
type ListFilter struct {
	Status          Status
	ServiceCategory string
	MinScore        *int
	MaxScore        *int
	Intent          Intent
	CreatedAfter    *time.Time
	CreatedBefore   *time.Time
	SortBy          string
	SortDesc        bool
	Page            int
	Limit           int
}

// Repository persists leads.
type Repository interface {
	Create(ctx context.Context, l *Lead) error
	GetByID(ctx context.Context, id string) (*Lead, error)
	List(ctx context.Context, f ListFilter) ([]*Lead, int, error)
	UpdateStatus(ctx context.Context, id string, status Status, flagReason string) (*Lead, error)
}

// AssignmentRepository persists lead-to-provider assignments.
type AssignmentRepository interface {
	Create(ctx context.Context, a *Assignment) error
	ListByLead(ctx context.Context, leadID string) ([]*Assignment, error)
}
