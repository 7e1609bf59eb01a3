package phonerisk

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubClient struct {
	mu    sync.Mutex
	calls int
	fn    func(phone string) (*LookupData, error)
}

func (s *stubClient) Lookup(ctx context.Context, phone string) (*LookupData, error) {
	s.mu.Lock()
	s.calls++
	s.mu.Unlock()
	return s.fn(phone)
}

func (s *stubClient) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func intPtr(v int) *int { return &v }

func TestNormalizeNumber(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"555-123-4567", "+15551234567"},
		{"(555) 123-4567", "+15551234567"},
		{"5551234567", "+15551234567"},
		{"+1 555 123 4567", "+15551234567"},
		{"15551234567", "+15551234567"},
		{"not a phone", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, NormalizeNumber(tt.in), "input %q", tt.in)
	}
}

func TestFuseRules(t *testing.T) {
	assessor := NewAssessor(AssessorConfig{Client: &stubClient{}})

	tests := []struct {
		name     string
		data     *LookupData
		valid    bool
		score    int
		level    RiskLevel
		rec      Recommendation
	}{
		{
			name:  "invalid number",
			data:  &LookupData{Valid: false, LineType: "invalid", Carrier: "unknown", Country: "US"},
			valid: false, score: 0, level: RiskCritical, rec: RecommendReject,
		},
		{
			name:  "mobile approves",
			data:  &LookupData{Valid: true, LineType: "mobile", Carrier: "Verizon", Country: "US"},
			valid: true, score: 95, level: RiskLow, rec: RecommendApprove,
		},
		{
			name:  "landline approves",
			data:  &LookupData{Valid: true, LineType: "landline", Carrier: "AT&T", Country: "US"},
			valid: true, score: 95, level: RiskLow, rec: RecommendApprove,
		},
		{
			name:  "voip flags",
			data:  &LookupData{Valid: true, LineType: "voip", Carrier: "Bandwidth", IsVoIP: true, Country: "US"},
			valid: true, score: 60, level: RiskHigh, rec: RecommendReject,
		},
		{
			name:  "high-risk voip carrier rejects harder",
			data:  &LookupData{Valid: true, LineType: "voip", Carrier: "Google Voice LLC", IsVoIP: true, Country: "US"},
			valid: true, score: 40, level: RiskHigh, rec: RecommendReject,
		},
		{
			name:  "unknown line type flags",
			data:  &LookupData{Valid: true, LineType: "unknown", Carrier: "unknown", Country: "US"},
			valid: true, score: 50, level: RiskHigh, rec: RecommendReject,
		},
		{
			name:  "international capped and rejected",
			data:  &LookupData{Valid: true, LineType: "mobile", Carrier: "Rogers", Country: "CA"},
			valid: true, score: 30, level: RiskCritical, rec: RecommendReject,
		},
		{
			name:  "upstream score blended",
			data:  &LookupData{Valid: true, LineType: "mobile", Carrier: "Verizon", Country: "US", RiskScore: intPtr(75)},
			valid: true, score: 85, level: RiskLow, rec: RecommendApprove,
		},
		{
			name:  "blend can downgrade tier",
			data:  &LookupData{Valid: true, LineType: "mobile", Carrier: "Verizon", Country: "US", RiskScore: intPtr(30)},
			valid: true, score: 63, level: RiskHigh, rec: RecommendReject,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := assessor.fuse(tt.data)
			assert.Equal(t, tt.valid, got.Valid)
			assert.Equal(t, tt.score, got.RiskScore)
			assert.Equal(t, tt.level, got.RiskLevel)
			assert.Equal(t, tt.rec, got.Recommendation)
		})
	}
}

func TestVoipScoresStayHighOnAssessment(t *testing.T) {
	// Status resolution reads the raw VoIP risk semantics off the assessment;
	// a plain VoIP number keeps its 60 score and voip marker.
	assessor := NewAssessor(AssessorConfig{Client: &stubClient{}})
	got := assessor.fuse(&LookupData{Valid: true, LineType: "voip", Carrier: "Some VoIP Co", IsVoIP: true, Country: "US"})
	assert.True(t, got.VoIP)
	assert.Equal(t, 60, got.RiskScore)
}

func TestAssessCachesWithinTTL(t *testing.T) {
	client := &stubClient{fn: func(string) (*LookupData, error) {
		return &LookupData{Valid: true, LineType: "mobile", Carrier: "Verizon", Country: "US"}, nil
	}}
	cache := NewMemoryCache()
	now := time.Now()
	cache.now = func() time.Time { return now }

	assessor := NewAssessor(AssessorConfig{Client: client, Cache: cache, TTL: time.Hour})

	first, err := assessor.Assess(context.Background(), "555-123-4567")
	require.NoError(t, err)
	second, err := assessor.Assess(context.Background(), "(555) 123-4567")
	require.NoError(t, err)

	assert.Equal(t, 1, client.callCount(), "second assessment should be served from cache")
	assert.Equal(t, first, second)

	// After expiry a fresh upstream call is made.
	now = now.Add(time.Hour + time.Minute)
	_, err = assessor.Assess(context.Background(), "5551234567")
	require.NoError(t, err)
	assert.Equal(t, 2, client.callCount())
}

func TestAssessUnsuccessfulPayloadRejects(t *testing.T) {
	// The upstream answered but could not validate the number. That is a
	// definitive rejection, not an outage, so no format fallback applies.
	client := &stubClient{fn: func(string) (*LookupData, error) {
		return nil, nil
	}}
	assessor := NewAssessor(AssessorConfig{Client: client})

	got, err := assessor.Assess(context.Background(), "5551234567")
	require.NoError(t, err)
	assert.False(t, got.Valid)
	assert.Equal(t, RiskCritical, got.RiskLevel)
	assert.Equal(t, 0, got.RiskScore)
	assert.Equal(t, RecommendReject, got.Recommendation)
}

func TestAssessFallbackOnLookupError(t *testing.T) {
	client := &stubClient{fn: func(string) (*LookupData, error) {
		return nil, errors.New("connection refused")
	}}
	assessor := NewAssessor(AssessorConfig{Client: client})

	got, err := assessor.Assess(context.Background(), "5551234567")
	require.NoError(t, err)
	assert.True(t, got.Valid)
	assert.Equal(t, RiskMedium, got.RiskLevel)
	assert.Equal(t, 60, got.RiskScore)
	assert.Equal(t, RecommendFlag, got.Recommendation)
	assert.Equal(t, LineUnknown, got.LineType)
}

func TestAssessFallbackRejectsMalformedNumbers(t *testing.T) {
	client := &stubClient{fn: func(string) (*LookupData, error) {
		return nil, errors.New("timeout")
	}}
	assessor := NewAssessor(AssessorConfig{Client: client})

	got, err := assessor.Assess(context.Background(), "12345")
	require.NoError(t, err)
	assert.False(t, got.Valid)
	assert.Equal(t, RiskCritical, got.RiskLevel)
	assert.Equal(t, RecommendReject, got.Recommendation)
}

func TestFallbackResultsAreNotCached(t *testing.T) {
	fail := true
	client := &stubClient{fn: func(string) (*LookupData, error) {
		if fail {
			return nil, errors.New("unavailable")
		}
		return &LookupData{Valid: true, LineType: "mobile", Carrier: "Verizon", Country: "US"}, nil
	}}
	assessor := NewAssessor(AssessorConfig{Client: client})

	first, err := assessor.Assess(context.Background(), "5551234567")
	require.NoError(t, err)
	assert.Equal(t, LineUnknown, first.LineType)

	fail = false
	second, err := assessor.Assess(context.Background(), "5551234567")
	require.NoError(t, err)
	assert.Equal(t, LineMobile, second.LineType, "recovered lookup should not be shadowed by a cached fallback")
}

func TestAssessBatchBounds(t *testing.T) {
	client := &stubClient{fn: func(string) (*LookupData, error) {
		return &LookupData{Valid: true, LineType: "mobile", Carrier: "Verizon", Country: "US"}, nil
	}}
	assessor := NewAssessor(AssessorConfig{Client: client})

	_, err := assessor.AssessBatch(context.Background(), nil)
	assert.ErrorIs(t, err, ErrEmptyBatch)

	big := make([]string, 101)
	for i := range big {
		big[i] = "5551234567"
	}
	_, err = assessor.AssessBatch(context.Background(), big)
	assert.ErrorIs(t, err, ErrBatchTooLarge)
	assert.Equal(t, 0, client.callCount(), "oversized batches must be rejected before any lookup")
}

func TestAssessBatchKeysResultsByInput(t *testing.T) {
	client := &stubClient{fn: func(phone string) (*LookupData, error) {
		if phone == "+15550000000" {
			return nil, errors.New("upstream error")
		}
		return &LookupData{Valid: true, LineType: "mobile", Carrier: "Verizon", Country: "US"}, nil
	}}
	assessor := NewAssessor(AssessorConfig{Client: client, BatchConcurrency: 2})

	inputs := []string{"555-123-4567", "555-000-0000", "garbage"}
	results, err := assessor.AssessBatch(context.Background(), inputs)
	require.NoError(t, err)
	require.Len(t, results, 3)

	assert.Equal(t, LineMobile, results["555-123-4567"].LineType)
	// Individual failure degrades to fallback without dropping the entry.
	assert.Equal(t, LineUnknown, results["555-000-0000"].LineType)
	// Unparseable input yields an invalid assessment, not an error.
	assert.False(t, results["garbage"].Valid)
}

func TestRedisCacheRoundTrip(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	cache := NewRedisCache(client)
	ctx := context.Background()

	assessment := &Assessment{Valid: true, RiskLevel: RiskLow, RiskScore: 95, LineType: LineMobile, Recommendation: RecommendApprove}
	require.NoError(t, cache.Set(ctx, "+15551234567", assessment, time.Hour))

	got, ok, err := cache.Get(ctx, "+15551234567")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, assessment, got)

	stats, err := cache.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Size)
	assert.Equal(t, []string{"+15551234567"}, stats.Keys)

	// TTL expiry forces a miss.
	mr.FastForward(2 * time.Hour)
	_, ok, err = cache.Get(ctx, "+15551234567")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRedisCacheClear(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	cache := NewRedisCache(client)
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, "+15551234567", &Assessment{Valid: true}, time.Hour))
	require.NoError(t, cache.Set(ctx, "+15559876543", &Assessment{Valid: true}, time.Hour))
	require.NoError(t, cache.Clear(ctx))

	stats, err := cache.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, stats.Size)
}
