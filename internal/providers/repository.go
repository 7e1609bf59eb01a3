package providers

import "context"

// ListFilter narrows and pages a provider listing.
type ListFilter struct {
	Status          ProviderStatus
	ServiceCategory string
	Page            int
	Limit           int
}

// Repository persists providers and answers matching queries.
type Repository interface {
	Create(ctx context.Context, p *Provider) error
	GetByID(ctx context.Context, id string) (*Provider, error)
	List(ctx context.Context, f ListFilter) ([]*Provider, int, error)
	Update(ctx context.Context, id string, req *UpdateProviderRequest) (*Provider, error)
	Delete(ctx context.Context, id string) (*Provider, error)
	Match(ctx context.Context, category, zipCode string, score int) ([]*Provider, error)
	IncrementLeadsToday(ctx context.Context, id string) error
	Stats(ctx context.Context, id string) (*Stats, error)
}
