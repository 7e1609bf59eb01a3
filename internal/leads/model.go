package leads

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/quoteotter/lead-engine/internal/phonerisk"
)

// Status tracks a lead through the intake pipeline.
type Status string

const (
	StatusPending     Status = "pending"
	StatusApproved    Status = "approved"
	StatusRejected    Status = "rejected"
	StatusFlagged     Status = "flagged"
	StatusDistributed Status = "distributed"
)

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected, StatusFlagged, StatusDistributed:
		return true
	}
	return false
}

// Intent buckets a lead by purchase urgency.
type Intent string

const (
	IntentHot  Intent = "hot"
	IntentWarm Intent = "warm"
	IntentCool Intent = "cool"
)

// Timeline is the buyer's self-reported project window.
type Timeline string

const (
	TimelineImmediate   Timeline = "immediate"
	TimelineWithinWeek  Timeline = "within-week"
	TimelineWithinMonth Timeline = "within-month"
	TimelineFlexible    Timeline = "flexible"
)

func (t Timeline) Valid() bool {
	switch t {
	case TimelineImmediate, TimelineWithinWeek, TimelineWithinMonth, TimelineFlexible:
		return true
	}
	return false
}

// ServiceCategories is the closed set of verticals the marketplace serves.
var ServiceCategories = []string{
	"roofing", "hvac", "plumbing", "electrical", "solar",
	"windows", "siding", "flooring", "painting", "remodeling",
	"auto-insurance", "home-insurance", "health-insurance", "life-insurance",
	"moving-local", "moving-long-distance", "moving-international",
	"personal-injury", "bankruptcy", "estate-planning", "family-law",
	"mortgage", "refinance", "personal-loan", "business-loan",
	"medicare", "pest-control", "landscaping", "tree-service",
}

var serviceCategorySet = func() map[string]struct{} {
	m := make(map[string]struct{}, len(ServiceCategories))
	for _, c := range ServiceCategories {
		m[c] = struct{}{}
	}
	return m
}()

// ValidServiceCategory reports whether c is a known vertical.
func ValidServiceCategory(c string) bool {
	_, ok := serviceCategorySet[c]
	return ok
}

// Lead is a consumer request for quotes, enriched with a quality score,
// an intent class, and the phone risk assessment captured at intake.
type Lead struct {
	ID              string                `json:"id"`
	FirstName       string                `json:"first_name"`
	LastName        string                `json:"last_name"`
	Email           string                `json:"email"`
	Phone           string                `json:"phone"`
	ZipCode         string                `json:"zip_code"`
	ServiceCategory string                `json:"service_category"`
	ServiceDetails  string                `json:"service_details,omitempty"`
	ProjectTimeline Timeline              `json:"project_timeline,omitempty"`
	Budget          string                `json:"budget,omitempty"`
	Notes           string                `json:"notes,omitempty"`
	Source          string                `json:"source,omitempty"`
	UTMSource       string                `json:"utm_source,omitempty"`
	UTMMedium       string                `json:"utm_medium,omitempty"`
	UTMCampaign     string                `json:"utm_campaign,omitempty"`
	Score           int                   `json:"score"`
	Intent          Intent                `json:"intent"`
	Status          Status                `json:"status"`
	FlagReason      string                `json:"flag_reason,omitempty"`
	PhoneAssessment *phonerisk.Assessment `json:"phone_validation,omitempty"`
	CreatedAt       time.Time             `json:"created_at"`
	UpdatedAt       time.Time             `json:"updated_at"`
}

var (
	emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	phonePattern = regexp.MustCompile(`^\+?[1-9]\d{1,14}$`)
	zipPattern   = regexp.MustCompile(`^\d{5}(-\d{4})?$`)
)

// CreateLeadRequest is the intake payload. Optional fields default to
// their zero value.
type CreateLeadRequest struct {
	FirstName       string   `json:"first_name"`
	LastName        string   `json:"last_name"`
	Email           string   `json:"email"`
	Phone           string   `json:"phone"`
	ZipCode         string   `json:"zip_code"`
	ServiceCategory string   `json:"service_category"`
	ServiceDetails  string   `json:"service_details"`
	ProjectTimeline Timeline `json:"project_timeline"`
	Budget          string   `json:"budget"`
	Notes           string   `json:"notes"`
	Source          string   `json:"source"`
	UTMSource       string   `json:"utm_source"`
	UTMMedium       string   `json:"utm_medium"`
	UTMCampaign     string   `json:"utm_campaign"`
}

// Validate checks required fields, formats, and length limits.
func (r *CreateLeadRequest) Validate() error {
	r.FirstName = strings.TrimSpace(r.FirstName)
	r.LastName = strings.TrimSpace(r.LastName)
	r.Email = strings.TrimSpace(r.Email)
	r.Phone = strings.TrimSpace(r.Phone)
	r.ZipCode = strings.TrimSpace(r.ZipCode)

	if l := len(r.FirstName); l < 2 || l > 50 {
		return fmt.Errorf("%w: first_name must be 2-50 characters", ErrInvalidLead)
	}
	if l := len(r.LastName); l < 2 || l > 50 {
		return fmt.Errorf("%w: last_name must be 2-50 characters", ErrInvalidLead)
	}
	if !emailPattern.MatchString(r.Email) {
		return fmt.Errorf("%w: email is not valid", ErrInvalidLead)
	}
	if !phonePattern.MatchString(strings.ReplaceAll(strings.ReplaceAll(strings.ReplaceAll(r.Phone, " ", ""), "-", ""), ".", "")) {
		return fmt.Errorf("%w: phone is not valid", ErrInvalidLead)
	}
	if !zipPattern.MatchString(r.ZipCode) {
		return fmt.Errorf("%w: zip_code must be a 5 or 9 digit US zip", ErrInvalidLead)
	}
	if !ValidServiceCategory(r.ServiceCategory) {
		return fmt.Errorf("%w: unknown service_category %q", ErrInvalidLead, r.ServiceCategory)
	}
	if len(r.ServiceDetails) > 500 {
		return fmt.Errorf("%w: service_details exceeds 500 characters", ErrInvalidLead)
	}
	if r.ProjectTimeline != "" && !r.ProjectTimeline.Valid() {
		return fmt.Errorf("%w: unknown project_timeline %q", ErrInvalidLead, r.ProjectTimeline)
	}
	if len(r.Notes) > 1000 {
		return fmt.Errorf("%w: notes exceeds 1000 characters", ErrInvalidLead)
	}
	return nil
}

func (r *CreateLeadRequest) toLead(id string, now time.Time) *Lead {
	return &Lead{
		ID:              id,
		FirstName:       r.FirstName,
		LastName:        r.LastName,
		Email:           strings.ToLower(r.Email),
		Phone:           r.Phone,
		ZipCode:         r.ZipCode,
		ServiceCategory: r.ServiceCategory,
		ServiceDetails:  r.ServiceDetails,
		ProjectTimeline: r.ProjectTimeline,
		Budget:          r.Budget,
		Notes:           r.Notes,
		Source:          r.Source,
		UTMSource:       r.UTMSource,
		UTMMedium:       r.UTMMedium,
		UTMCampaign:     r.UTMCampaign,
		Status:          StatusPending,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

// UpdateStatusRequest changes a lead's pipeline status by hand.
type UpdateStatusRequest struct {
	Status     Status `json:"status"`
	FlagReason string `json:"flag_reason"`
}

func (r *UpdateStatusRequest) Validate() error {
	if !r.Status.Valid() {
		return fmt.Errorf("%w: unknown status %q", ErrInvalidLead, r.Status)
	}
	if len(r.FlagReason) > 500 {
		return fmt.Errorf("%w: flag_reason exceeds 500 characters", ErrInvalidLead)
	}
	return nil
}

// AssignmentStatus tracks a provider's handling of an assigned lead.
// Assignments start pending; accepted leads either convert or not.
type AssignmentStatus string

const (
	AssignmentPending   AssignmentStatus = "pending"
	AssignmentAccepted  AssignmentStatus = "accepted"
	AssignmentConverted AssignmentStatus = "converted"
	AssignmentRejected  AssignmentStatus = "rejected"
)

// Assignment links a distributed lead to one of its matched providers.
type Assignment struct {
	ID                  string           `json:"id"`
	LeadID              string           `json:"lead_id"`
	ProviderID          string           `json:"provider_id"`
	Status              AssignmentStatus `json:"status"`
	ResponseTimeSeconds *int             `json:"response_time_seconds,omitempty"`
	TimeToConvertHours  *float64         `json:"time_to_convert_hours,omitempty"`
	AssignedAt          time.Time        `json:"assigned_at"`
}
