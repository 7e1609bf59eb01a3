package phonerisk

import (
	"context"
	"errors"
	"math"
	"regexp"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/quoteotter/lead-engine/internal/observability/metrics"
	"github.com/quoteotter/lead-engine/pkg/logging"
)

const maxBatchSize = 100

var (
	// ErrEmptyBatch is returned when a batch request carries no numbers.
	ErrEmptyBatch = errors.New("phonerisk: batch must not be empty")

	// ErrBatchTooLarge is returned for batches above the fixed limit.
	ErrBatchTooLarge = errors.New("phonerisk: batch exceeds 100 numbers")

	// ErrEmptyNumber is returned when the input contains no digits.
	ErrEmptyNumber = errors.New("phonerisk: phone number required")
)

// Carriers whose VoIP numbers show up disproportionately in fraud.
// Matched case-insensitively as substrings of the upstream carrier name.
var highRiskVoIPCarriers = []string{"google voice", "skype", "vonage", "magic jack"}

var fallbackPattern = regexp.MustCompile(`^\+?1?\d{10,11}$`)

// LookupClient fetches reputation data for a normalized number.
type LookupClient interface {
	Lookup(ctx context.Context, phone string) (*LookupData, error)
}

// AssessorConfig wires an Assessor.
type AssessorConfig struct {
	Client           LookupClient
	Cache            Cache
	TTL              time.Duration
	HomeCountry      string
	BatchConcurrency int
	Logger           *logging.Logger
	Metrics          *metrics.PhoneMetrics
}

// Assessor normalizes phone numbers, queries the reputation service and
// fuses the response into a risk assessment. Lookup failures degrade to a
// format-only check and never propagate as errors.
type Assessor struct {
	client      LookupClient
	cache       Cache
	ttl         time.Duration
	homeCountry string
	concurrency int
	logger      *logging.Logger
	metrics     *metrics.PhoneMetrics
}

// NewAssessor creates an Assessor with defaults matching production use:
// 1h cache TTL, 10 concurrent batch lookups, US home country.
func NewAssessor(cfg AssessorConfig) *Assessor {
	cache := cfg.Cache
	if cache == nil {
		cache = NewMemoryCache()
	}
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = time.Hour
	}
	home := strings.TrimSpace(cfg.HomeCountry)
	if home == "" {
		home = "US"
	}
	concurrency := cfg.BatchConcurrency
	if concurrency <= 0 {
		concurrency = 10
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}
	return &Assessor{
		client:      cfg.Client,
		cache:       cache,
		ttl:         ttl,
		homeCountry: home,
		concurrency: concurrency,
		logger:      logger,
		metrics:     cfg.Metrics,
	}
}

// NormalizeNumber reduces a phone number to canonical +<digits> form.
// Ten-digit national numbers get the default country prefix prepended.
func NormalizeNumber(phone string) string {
	var digits strings.Builder
	for _, r := range phone {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
		}
	}
	if digits.Len() == 0 {
		return ""
	}
	s := digits.String()
	if len(s) == 10 {
		s = "1" + s
	}
	return "+" + s
}

// Assess evaluates one phone number, serving from cache when possible.
func (a *Assessor) Assess(ctx context.Context, phone string) (*Assessment, error) {
	normalized := NormalizeNumber(phone)
	if normalized == "" {
		return nil, ErrEmptyNumber
	}

	if cached, ok, err := a.cache.Get(ctx, normalized); err == nil && ok {
		a.metrics.ObserveLookup("cache_hit")
		return cached, nil
	} else if err != nil {
		a.logger.Warn("assessment cache read failed", "error", err)
	}

	if a.client == nil {
		a.metrics.ObserveLookup("fallback")
		return a.fallback(normalized), nil
	}

	start := time.Now()
	data, err := a.client.Lookup(ctx, normalized)
	a.metrics.ObserveLookupLatency(time.Since(start).Seconds())
	if err != nil {
		a.logger.Warn("phone reputation lookup failed, using fallback",
			"phone", normalized,
			"error", err,
		)
		a.metrics.ObserveLookup("fallback")
		return a.fallback(normalized), nil
	}

	assessment := a.fuse(data)
	if err := a.cache.Set(ctx, normalized, assessment, a.ttl); err != nil {
		a.logger.Warn("assessment cache write failed", "error", err)
	}
	a.metrics.ObserveLookup("upstream")
	return assessment, nil
}

// AssessBatch evaluates up to 100 numbers with bounded concurrency. The
// result is keyed by the caller's input value; individual failures produce
// fallback assessments instead of dropping entries.
func (a *Assessor) AssessBatch(ctx context.Context, phones []string) (map[string]*Assessment, error) {
	if len(phones) == 0 {
		return nil, ErrEmptyBatch
	}
	if len(phones) > maxBatchSize {
		return nil, ErrBatchTooLarge
	}

	results := make(map[string]*Assessment, len(phones))
	var mu sync.Mutex

	g := new(errgroup.Group)
	g.SetLimit(a.concurrency)
	for _, phone := range phones {
		g.Go(func() error {
			assessment, err := a.Assess(ctx, phone)
			if err != nil {
				assessment = invalidAssessment("Invalid phone format")
			}
			mu.Lock()
			results[phone] = assessment
			mu.Unlock()
			return nil
		})
	}
	// Workers never return errors; Wait only orders the map writes.
	_ = g.Wait()
	return results, nil
}

// CacheStats reports the assessment cache contents.
func (a *Assessor) CacheStats(ctx context.Context) (CacheStats, error) {
	return a.cache.Stats(ctx)
}

// ClearCache drops every cached assessment.
func (a *Assessor) ClearCache(ctx context.Context) error {
	return a.cache.Clear(ctx)
}

// fuse folds the upstream payload into a risk assessment. Rules run in
// order; the final level/recommendation is re-derived from the blended score.
func (a *Assessor) fuse(data *LookupData) *Assessment {
	if data == nil {
		return invalidAssessment("Phone validation returned no data")
	}

	if !data.Valid || data.LineType == string(LineInvalid) {
		out := invalidAssessment("Invalid or disconnected phone number")
		out.LineType = LineType(data.LineType)
		out.Carrier = data.Carrier
		out.VoIP = data.IsVoIP
		out.Upstream = data
		return out
	}

	riskScore := 100
	var reason string

	switch {
	case data.LineType == string(LineMobile) || data.LineType == string(LineLandline):
		riskScore = 95
		reason = "Valid " + data.LineType + " number from " + data.Carrier
	case data.LineType == string(LineVoIP) || data.IsVoIP:
		riskScore = 60
		reason = "VoIP number detected (" + data.Carrier + "). Requires manual review for fraud risk."
		carrierLower := strings.ToLower(data.Carrier)
		for _, service := range highRiskVoIPCarriers {
			if strings.Contains(carrierLower, service) {
				riskScore = 40
				reason = "High-risk VoIP service detected (" + data.Carrier + "). Common in fraud."
				break
			}
		}
	default:
		riskScore = 50
		reason = "Unable to determine line type. Requires manual verification."
	}

	// International numbers are rejected outright for a single-country service.
	if data.Country != "" && data.Country != a.homeCountry {
		if riskScore > 30 {
			riskScore = 30
		}
		reason = "International phone number from " + data.Country + ". Service is " + a.homeCountry + "-only."
	}

	// Blend with the upstream risk score when supplied (0-100, lower = riskier).
	if data.RiskScore != nil {
		riskScore = int(math.Round(float64(riskScore+*data.RiskScore) / 2))
	}

	level, recommendation := classify(riskScore)
	return &Assessment{
		Valid:          true,
		RiskLevel:      level,
		RiskScore:      riskScore,
		LineType:       LineType(data.LineType),
		Carrier:        data.Carrier,
		VoIP:           data.IsVoIP,
		Recommendation: recommendation,
		Reason:         reason,
		Upstream:       data,
	}
}

// classify maps a blended score to the final risk tier.
func classify(score int) (RiskLevel, Recommendation) {
	switch {
	case score >= 85:
		return RiskLow, RecommendApprove
	case score >= 65:
		return RiskMedium, RecommendFlag
	case score >= 40:
		return RiskHigh, RecommendReject
	default:
		return RiskCritical, RecommendReject
	}
}

// fallback is used when the reputation service is unreachable: a bare format
// check that always requires manual review on success.
func (a *Assessor) fallback(normalized string) *Assessment {
	if !fallbackPattern.MatchString(normalized) {
		return invalidAssessment("Invalid phone format (reputation service unavailable)")
	}
	return &Assessment{
		Valid:          true,
		RiskLevel:      RiskMedium,
		RiskScore:      60,
		LineType:       LineUnknown,
		Carrier:        "unknown",
		Recommendation: RecommendFlag,
		Reason:         "Reputation service unavailable. Basic format check passed but requires manual review.",
	}
}

func invalidAssessment(reason string) *Assessment {
	return &Assessment{
		Valid:          false,
		RiskLevel:      RiskCritical,
		RiskScore:      0,
		LineType:       LineInvalid,
		Carrier:        "unknown",
		Recommendation: RecommendReject,
		Reason:         reason,
	}
}
