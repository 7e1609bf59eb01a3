package providers

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/quoteotter/lead-engine/internal/leads"
	"github.com/quoteotter/lead-engine/pkg/logging"
)

// Service owns provider lifecycle and implements the matcher the lead
// pipeline distributes through.
type Service struct {
	repo   Repository
	logger *logging.Logger
	now    func() time.Time
	newID  func() string
}

func NewService(repo Repository, logger *logging.Logger) *Service {
	if logger == nil {
		logger = logging.New("info")
	}
	return &Service{
		repo:   repo,
		logger: logger,
		now:    time.Now,
		newID:  uuid.NewString,
	}
}

func (s *Service) CreateProvider(ctx context.Context, req *CreateProviderRequest) (*Provider, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	p := req.toProvider(s.newID(), s.now().UTC())
	if err := s.repo.Create(ctx, p); err != nil {
		return nil, err
	}
	s.logger.Info("provider created", "provider_id", p.ID, "business_name", p.BusinessName)
	return p, nil
}

func (s *Service) GetProvider(ctx context.Context, id string) (*Provider, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) ListProviders(ctx context.Context, f ListFilter) ([]*Provider, int, error) {
	return s.repo.List(ctx, f)
}

func (s *Service) UpdateProvider(ctx context.Context, id string, req *UpdateProviderRequest) (*Provider, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	return s.repo.Update(ctx, id, req)
}

// DeleteProvider removes a provider and returns its final state.
func (s *Service) DeleteProvider(ctx context.Context, id string) (*Provider, error) {
	p, err := s.repo.Delete(ctx, id)
	if err != nil {
		return nil, err
	}
	s.logger.Info("provider deleted", "provider_id", p.ID, "business_name", p.BusinessName)
	return p, nil
}

func (s *Service) ProviderStats(ctx context.Context, id string) (*Stats, error) {
	return s.repo.Stats(ctx, id)
}

// Match satisfies the lead pipeline's matcher contract.
func (s *Service) Match(ctx context.Context, category, zipCode string, score int) ([]leads.MatchedProvider, error) {
	matched, err := s.repo.Match(ctx, category, zipCode, score)
	if err != nil {
		return nil, err
	}
	out := make([]leads.MatchedProvider, 0, len(matched))
	for _, p := range matched {
		out = append(out, leads.MatchedProvider{ID: p.ID, BusinessName: p.BusinessName})
	}
	return out, nil
}

// IncrementDailyCount bumps a provider's intake counter after an
// assignment lands. Counters reset out of band at midnight.
func (s *Service) IncrementDailyCount(ctx context.Context, providerID string) error {
	return s.repo.IncrementLeadsToday(ctx, providerID)
}
