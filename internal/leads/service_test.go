package leads

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quoteotter/lead-engine/internal/phonerisk"
	"github.com/quoteotter/lead-engine/pkg/logging"
)

type fakeRepo struct {
	mu      sync.Mutex
	leads   map[string]*Lead
	failOn  string
	updates []Status
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{leads: map[string]*Lead{}}
}

func (r *fakeRepo) Create(_ context.Context, l *Lead) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failOn == "create" {
		return errors.New("insert failed")
	}
	cp := *l
	r.leads[l.ID] = &cp
	return nil
}

func (r *fakeRepo) GetByID(_ context.Context, id string) (*Lead, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.leads[id]
	if !ok {
		return nil, ErrLeadNotFound
	}
	cp := *l
	return &cp, nil
}

func (r *fakeRepo) List(_ context.Context, _ ListFilter) ([]*Lead, int, error) {
	return nil, 0, nil
}

func (r *fakeRepo) UpdateStatus(_ context.Context, id string, status Status, reason string) (*Lead, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failOn == "update" {
		return nil, errors.New("update failed")
	}
	l, ok := r.leads[id]
	if !ok {
		return nil, ErrLeadNotFound
	}
	l.Status = status
	l.FlagReason = reason
	l.UpdatedAt = time.Now()
	r.updates = append(r.updates, status)
	cp := *l
	return &cp, nil
}

type fakeAssignments struct {
	mu      sync.Mutex
	created []*Assignment
	failFor map[string]bool
}

func (a *fakeAssignments) Create(_ context.Context, as *Assignment) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.failFor[as.ProviderID] {
		return errors.New("assignment insert failed")
	}
	a.created = append(a.created, as)
	return nil
}

func (a *fakeAssignments) ListByLead(_ context.Context, leadID string) ([]*Assignment, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	var out []*Assignment
	for _, as := range a.created {
		if as.LeadID == leadID {
			out = append(out, as)
		}
	}
	return out, nil
}

type fakeAssessor struct {
	assessment *phonerisk.Assessment
	err        error
}

func (f *fakeAssessor) Assess(_ context.Context, _ string) (*phonerisk.Assessment, error) {
	return f.assessment, f.err
}

type fakeMatcher struct {
	mu         sync.Mutex
	matched    []MatchedProvider
	err        error
	increments []string
}

func (f *fakeMatcher) Match(_ context.Context, _, _ string, _ int) ([]MatchedProvider, error) {
	return f.matched, f.err
}

func (f *fakeMatcher) IncrementDailyCount(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.increments = append(f.increments, id)
	return nil
}

func cleanPhoneAssessment() *phonerisk.Assessment {
	return &phonerisk.Assessment{
		Valid:          true,
		RiskLevel:      phonerisk.RiskLow,
		RiskScore:      95,
		LineType:       phonerisk.LineMobile,
		Recommendation: phonerisk.RecommendApprove,
	}
}

func newTestService(repo *fakeRepo, assignments *fakeAssignments, assessor Assessor, matcher ProviderMatcher) *Service {
	s := NewService(ServiceConfig{
		Repo:        repo,
		Assignments: assignments,
		Assessor:    assessor,
		Matcher:     matcher,
		Logger:      logging.NewWithWriter("error", &discard{}),
	})
	s.now = func() time.Time { return time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC) }
	return s
}

type discard struct{}

func (*discard) Write(p []byte) (int, error) { return len(p), nil }

func validRequest() *CreateLeadRequest {
	return &CreateLeadRequest{
		FirstName:       "Dana",
		LastName:        "Whitfield",
		Email:           "Dana@Example.com",
		Phone:           "+15551234567",
		ZipCode:         "78701",
		ServiceCategory: "roofing",
		ServiceDetails:  "Full roof replacement after hail damage to shingles",
		ProjectTimeline: TimelineImmediate,
		Budget:          "10000-15000",
	}
}

func TestCreateLeadDistributesToMatchedProviders(t *testing.T) {
	repo := newFakeRepo()
	assignments := &fakeAssignments{}
	matcher := &fakeMatcher{matched: []MatchedProvider{
		{ID: "prov-1", BusinessName: "Best Roofing"},
		{ID: "prov-2", BusinessName: "Roof Co"},
	}}
	svc := newTestService(repo, assignments, &fakeAssessor{assessment: cleanPhoneAssessment()}, matcher)

	lead, err := svc.CreateLead(context.Background(), validRequest())
	require.NoError(t, err)

	assert.Equal(t, StatusDistributed, lead.Status)
	assert.Equal(t, 100, lead.Score)
	assert.Equal(t, "dana@example.com", lead.Email)
	require.Len(t, assignments.created, 2)
	assert.Equal(t, lead.ID, assignments.created[0].LeadID)
	assert.Equal(t, "prov-1", assignments.created[0].ProviderID)
	// New assignments await the provider's response.
	assert.Equal(t, AssignmentStatus("pending"), assignments.created[0].Status)
	assert.Equal(t, []string{"prov-1", "prov-2"}, matcher.increments)
}

func TestCreateLeadNoMatchingProvidersFallsBackToPending(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo, &fakeAssignments{}, &fakeAssessor{assessment: cleanPhoneAssessment()}, &fakeMatcher{})

	lead, err := svc.CreateLead(context.Background(), validRequest())
	require.NoError(t, err)

	assert.Equal(t, StatusPending, lead.Status)
	assert.Equal(t, "No matching providers", lead.FlagReason)
}

func TestCreateLeadMatcherErrorTreatedAsNoMatch(t *testing.T) {
	repo := newFakeRepo()
	matcher := &fakeMatcher{err: errors.New("db down")}
	svc := newTestService(repo, &fakeAssignments{}, &fakeAssessor{assessment: cleanPhoneAssessment()}, matcher)

	lead, err := svc.CreateLead(context.Background(), validRequest())
	require.NoError(t, err)

	assert.Equal(t, StatusPending, lead.Status)
	assert.Equal(t, "No matching providers", lead.FlagReason)
}

func TestCreateLeadSkipsFailedAssignments(t *testing.T) {
	repo := newFakeRepo()
	assignments := &fakeAssignments{failFor: map[string]bool{"prov-1": true}}
	matcher := &fakeMatcher{matched: []MatchedProvider{
		{ID: "prov-1"}, {ID: "prov-2"},
	}}
	svc := newTestService(repo, assignments, &fakeAssessor{assessment: cleanPhoneAssessment()}, matcher)

	lead, err := svc.CreateLead(context.Background(), validRequest())
	require.NoError(t, err)

	assert.Equal(t, StatusDistributed, lead.Status)
	require.Len(t, assignments.created, 1)
	assert.Equal(t, "prov-2", assignments.created[0].ProviderID)
	assert.Equal(t, []string{"prov-2"}, matcher.increments)
}

func TestCreateLeadAssessorErrorLeavesPending(t *testing.T) {
	repo := newFakeRepo()
	matcher := &fakeMatcher{matched: []MatchedProvider{{ID: "prov-1"}}}
	svc := newTestService(repo, &fakeAssignments{}, &fakeAssessor{err: errors.New("upstream down")}, matcher)

	lead, err := svc.CreateLead(context.Background(), validRequest())
	require.NoError(t, err)

	assert.Equal(t, StatusPending, lead.Status)
	require.NotNil(t, lead.PhoneAssessment)
	assert.Equal(t, "error", lead.PhoneAssessment.Status)
	assert.Empty(t, matcher.increments)
}

func TestCreateLeadNoAssessorSkipsScreening(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo, &fakeAssignments{}, nil, &fakeMatcher{})

	lead, err := svc.CreateLead(context.Background(), validRequest())
	require.NoError(t, err)

	assert.Equal(t, StatusPending, lead.Status)
	require.NotNil(t, lead.PhoneAssessment)
	assert.Equal(t, "skipped", lead.PhoneAssessment.Status)
}

func TestCreateLeadFlagsRiskyVoIP(t *testing.T) {
	repo := newFakeRepo()
	assessment := cleanPhoneAssessment()
	assessment.VoIP = true
	assessment.RiskScore = 78
	svc := newTestService(repo, &fakeAssignments{}, &fakeAssessor{assessment: assessment}, &fakeMatcher{})

	lead, err := svc.CreateLead(context.Background(), validRequest())
	require.NoError(t, err)

	assert.Equal(t, StatusFlagged, lead.Status)
	assert.Equal(t, "High-risk VoIP number detected", lead.FlagReason)
}

func TestCreateLeadRejectsInvalidPayload(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo, &fakeAssignments{}, nil, &fakeMatcher{})

	req := validRequest()
	req.ZipCode = "not-a-zip"

	_, err := svc.CreateLead(context.Background(), req)
	assert.ErrorIs(t, err, ErrInvalidLead)
	assert.Empty(t, repo.leads)
}

func TestCreateLeadPersistFailureIsFatal(t *testing.T) {
	repo := newFakeRepo()
	repo.failOn = "create"
	svc := newTestService(repo, &fakeAssignments{}, nil, &fakeMatcher{})

	lead, err := svc.CreateLead(context.Background(), validRequest())
	assert.Error(t, err)
	assert.Nil(t, lead)
}

func TestCreateLeadStatusFinalizeFailureStillReturnsLead(t *testing.T) {
	repo := newFakeRepo()
	matcher := &fakeMatcher{matched: []MatchedProvider{{ID: "prov-1"}}}
	svc := newTestService(repo, &fakeAssignments{}, &fakeAssessor{assessment: cleanPhoneAssessment()}, matcher)
	// Fail only the post-insert status update.
	repo.failOn = "update"

	lead, err := svc.CreateLead(context.Background(), validRequest())
	assert.Error(t, err)
	require.NotNil(t, lead)
	assert.Contains(t, repo.leads, lead.ID)
}

func TestGetLeadAttachesAssignments(t *testing.T) {
	repo := newFakeRepo()
	assignments := &fakeAssignments{}
	matcher := &fakeMatcher{matched: []MatchedProvider{{ID: "prov-1"}}}
	svc := newTestService(repo, assignments, &fakeAssessor{assessment: cleanPhoneAssessment()}, matcher)

	created, err := svc.CreateLead(context.Background(), validRequest())
	require.NoError(t, err)

	lead, got, err := svc.GetLead(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, lead.ID)
	require.Len(t, got, 1)
	assert.Equal(t, "prov-1", got[0].ProviderID)
}

func TestUpdateStatusValidatesInput(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo, &fakeAssignments{}, nil, &fakeMatcher{})

	_, err := svc.UpdateStatus(context.Background(), "abc", &UpdateStatusRequest{Status: "bogus"})
	assert.ErrorIs(t, err, ErrInvalidLead)

	_, err = svc.UpdateStatus(context.Background(), "missing", &UpdateStatusRequest{Status: StatusApproved})
	assert.ErrorIs(t, err, ErrLeadNotFound)
}
