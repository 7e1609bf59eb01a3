package leads

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/quoteotter/lead-engine/internal/observability/metrics"
	"github.com/quoteotter/lead-engine/internal/phonerisk"
	"github.com/quoteotter/lead-engine/pkg/logging"
)

// Assessor evaluates phone numbers for fraud risk.
type Assessor interface {
	Assess(ctx context.Context, phone string) (*phonerisk.Assessment, error)
}

// MatchedProvider identifies a provider selected for a lead.
type MatchedProvider struct {
	ID           string
	BusinessName string
}

// ProviderMatcher finds providers eligible for a lead and tracks their
// daily intake.
type ProviderMatcher interface {
	Match(ctx context.Context, category, zipCode string, score int) ([]MatchedProvider, error)
	IncrementDailyCount(ctx context.Context, providerID string) error
}

// ServiceConfig wires the intake pipeline's collaborators. Assessor may
// be nil, in which case phone screening is skipped and leads stay
// pending for manual review.
type ServiceConfig struct {
	Repo        Repository
	Assignments AssignmentRepository
	Assessor    Assessor
	Matcher     ProviderMatcher
	Logger      *logging.Logger
	Metrics     *metrics.PipelineMetrics
}

// Service runs the intake pipeline: validate, score, screen the phone,
// persist, then fan the lead out to matched providers.
type Service struct {
	repo        Repository
	assignments AssignmentRepository
	assessor    Assessor
	matcher     ProviderMatcher
	logger      *logging.Logger
	metrics     *metrics.PipelineMetrics
	now         func() time.Time
	newID       func() string
}

func NewService(cfg ServiceConfig) *Service {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.New("info")
	}
	return &Service{
		repo:        cfg.Repo,
		assignments: cfg.Assignments,
		assessor:    cfg.Assessor,
		matcher:     cfg.Matcher,
		logger:      logger,
		metrics:     cfg.Metrics,
		now:         time.Now,
		newID:       uuid.NewString,
	}
}

// CreateLead takes a raw intake payload through the full pipeline. The
// lead is persisted before distribution, so a returned error after that
// point still leaves the lead queryable.
func (s *Service) CreateLead(ctx context.Context, req *CreateLeadRequest) (*Lead, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	lead := req.toLead(s.newID(), s.now().UTC())
	lead.Score, lead.Intent = ScoreLead(lead)
	s.screenPhone(ctx, lead)

	if err := s.repo.Create(ctx, lead); err != nil {
		return nil, err
	}

	if lead.Status == StatusApproved {
		if err := s.distribute(ctx, lead); err != nil {
			s.metrics.ObserveLeadCreated(string(lead.Status), string(lead.Intent))
			return lead, err
		}
	}

	s.metrics.ObserveLeadCreated(string(lead.Status), string(lead.Intent))
	s.logger.Info("lead created",
		"lead_id", lead.ID,
		"status", string(lead.Status),
		"score", lead.Score,
		"intent", string(lead.Intent))
	return lead, nil
}

// screenPhone attaches a risk assessment and resolves the initial
// status. Assessment failures degrade to pending rather than failing
// the intake.
func (s *Service) screenPhone(ctx context.Context, lead *Lead) {
	if s.assessor == nil {
		lead.PhoneAssessment = &phonerisk.Assessment{Status: "skipped"}
		return
	}

	assessment, err := s.assessor.Assess(ctx, lead.Phone)
	if err != nil {
		s.logger.Error("phone assessment failed", "lead_id", lead.ID, "error", err.Error())
		lead.PhoneAssessment = &phonerisk.Assessment{Status: "error", Reason: err.Error()}
		return
	}

	lead.PhoneAssessment = assessment
	lead.Status, lead.FlagReason = ResolveStatus(lead.Score, assessment)
}

// distribute fans an approved lead out to up to three matched providers.
// Individual assignment failures are logged and skipped; the lead is
// still marked distributed as long as matching succeeded.
func (s *Service) distribute(ctx context.Context, lead *Lead) error {
	matched, err := s.matcher.Match(ctx, lead.ServiceCategory, lead.ZipCode, lead.Score)
	if err != nil {
		s.logger.Error("provider matching failed", "lead_id", lead.ID, "error", err.Error())
		matched = nil
	}
	s.metrics.ObserveMatchedProviders(len(matched))

	if len(matched) == 0 {
		return s.applyStatus(ctx, lead, StatusPending, "No matching providers")
	}

	for _, p := range matched {
		a := &Assignment{
			ID:         s.newID(),
			LeadID:     lead.ID,
			ProviderID: p.ID,
			Status:     AssignmentPending,
			AssignedAt: s.now().UTC(),
		}
		if err := s.assignments.Create(ctx, a); err != nil {
			s.logger.Error("assignment failed",
				"lead_id", lead.ID, "provider_id", p.ID, "error", err.Error())
			s.metrics.ObserveAssignment("failed")
			continue
		}
		s.metrics.ObserveAssignment("created")
		if err := s.matcher.IncrementDailyCount(ctx, p.ID); err != nil {
			s.logger.Warn("daily count update failed", "provider_id", p.ID, "error", err.Error())
		}
	}

	return s.applyStatus(ctx, lead, StatusDistributed, "")
}

func (s *Service) applyStatus(ctx context.Context, lead *Lead, status Status, reason string) error {
	updated, err := s.repo.UpdateStatus(ctx, lead.ID, status, reason)
	if err != nil {
		return fmt.Errorf("leads: finalize status: %w", err)
	}
	lead.Status = updated.Status
	lead.FlagReason = updated.FlagReason
	lead.UpdatedAt = updated.UpdatedAt
	return nil
}

// GetLead fetches one lead with its assignments attached when present.
func (s *Service) GetLead(ctx context.Context, id string) (*Lead, []*Assignment, error) {
	lead, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	assignments, err := s.assignments.ListByLead(ctx, id)
	if err != nil {
		s.logger.Warn("listing assignments failed", "lead_id", id, "error", err.Error())
		assignments = nil
	}
	return lead, assignments, nil
}

// ListLeads pages through stored leads.
func (s *Service) ListLeads(ctx context.Context, f ListFilter) ([]*Lead, int, error) {
	return s.repo.List(ctx, f)
}

// UpdateStatus applies a manual status change.
func (s *Service) UpdateStatus(ctx context.Context, id string, req *UpdateStatusRequest) (*Lead, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	return s.repo.UpdateStatus(ctx, id, req.Status, req.FlagReason)
}
