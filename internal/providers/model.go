package providers

import (
	"fmt"
	"strings"
	"time"

	"github.com/quoteotter/lead-engine/internal/leads"
)

// ProviderStatus controls whether a provider receives leads.
type ProviderStatus string

const (
	StatusActive    ProviderStatus = "active"
	StatusPaused    ProviderStatus = "paused"
	StatusSuspended ProviderStatus = "suspended"
)

func (s ProviderStatus) Valid() bool {
	switch s {
	case StatusActive, StatusPaused, StatusSuspended:
		return true
	}
	return false
}

// Provider is a business that buys leads in one or more verticals.
// ConversionRate and ResponseTimeAvg feed the matching order.
type Provider struct {
	ID                string         `json:"id"`
	BusinessName      string         `json:"business_name"`
	ContactName       string         `json:"contact_name"`
	Email             string         `json:"email"`
	Phone             string         `json:"phone"`
	ServiceCategories []string       `json:"service_categories"`
	ServiceZipCodes   []string       `json:"service_zip_codes"`
	Status            ProviderStatus `json:"status"`
	MaxLeadsPerDay    int            `json:"max_leads_per_day"`
	LeadPrice         float64        `json:"lead_price"`
	LeadsToday        int            `json:"leads_today"`
	QualityThreshold  int            `json:"quality_threshold"`
	ConversionRate    float64        `json:"conversion_rate"`
	ResponseTimeAvg   int            `json:"response_time_avg"`
	CreatedAt         time.Time      `json:"created_at"`
	UpdatedAt         time.Time      `json:"updated_at"`
}

// CreateProviderRequest registers a new provider. Limits default when
// omitted: 10 leads per day and a quality threshold of 50.
type CreateProviderRequest struct {
	BusinessName      string   `json:"business_name"`
	ContactName       string   `json:"contact_name"`
	Email             string   `json:"email"`
	Phone             string   `json:"phone"`
	ServiceCategories []string `json:"service_categories"`
	ServiceZipCodes   []string `json:"service_zip_codes"`
	MaxLeadsPerDay    *int     `json:"max_leads_per_day"`
	LeadPrice         *float64 `json:"lead_price"`
	QualityThreshold  *int     `json:"quality_threshold"`
}

func (r *CreateProviderRequest) Validate() error {
	r.BusinessName = strings.TrimSpace(r.BusinessName)
	r.Email = strings.TrimSpace(r.Email)

	if l := len(r.BusinessName); l < 2 || l > 100 {
		return fmt.Errorf("%w: business_name must be 2-100 characters", ErrInvalidProvider)
	}
	if !strings.Contains(r.Email, "@") {
		return fmt.Errorf("%w: email is not valid", ErrInvalidProvider)
	}
	if len(r.ServiceCategories) == 0 {
		return fmt.Errorf("%w: at least one service_category is required", ErrInvalidProvider)
	}
	for _, c := range r.ServiceCategories {
		if !leads.ValidServiceCategory(c) {
			return fmt.Errorf("%w: unknown service_category %q", ErrInvalidProvider, c)
		}
	}
	if len(r.ServiceZipCodes) == 0 {
		return fmt.Errorf("%w: at least one service_zip_code is required", ErrInvalidProvider)
	}
	if r.MaxLeadsPerDay != nil && (*r.MaxLeadsPerDay < 1 || *r.MaxLeadsPerDay > 1000) {
		return fmt.Errorf("%w: max_leads_per_day must be 1-1000", ErrInvalidProvider)
	}
	if r.LeadPrice == nil {
		return fmt.Errorf("%w: lead_price is required", ErrInvalidProvider)
	}
	if *r.LeadPrice < 0 {
		return fmt.Errorf("%w: lead_price must not be negative", ErrInvalidProvider)
	}
	if r.QualityThreshold != nil && (*r.QualityThreshold < 0 || *r.QualityThreshold > 100) {
		return fmt.Errorf("%w: quality_threshold must be 0-100", ErrInvalidProvider)
	}
	return nil
}

func (r *CreateProviderRequest) toProvider(id string, now time.Time) *Provider {
	maxPerDay := 10
	if r.MaxLeadsPerDay != nil {
		maxPerDay = *r.MaxLeadsPerDay
	}
	threshold := 50
	if r.QualityThreshold != nil {
		threshold = *r.QualityThreshold
	}
	return &Provider{
		ID:                id,
		BusinessName:      r.BusinessName,
		ContactName:       r.ContactName,
		Email:             strings.ToLower(r.Email),
		Phone:             r.Phone,
		ServiceCategories: r.ServiceCategories,
		ServiceZipCodes:   r.ServiceZipCodes,
		Status:            StatusActive,
		MaxLeadsPerDay:    maxPerDay,
		LeadPrice:         *r.LeadPrice,
		QualityThreshold:  threshold,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
}

// UpdateProviderRequest patches a provider. Nil fields are untouched.
type UpdateProviderRequest struct {
	BusinessName      *string         `json:"business_name"`
	ContactName       *string         `json:"contact_name"`
	Phone             *string         `json:"phone"`
	ServiceCategories *[]string       `json:"service_categories"`
	ServiceZipCodes   *[]string       `json:"service_zip_codes"`
	Status            *ProviderStatus `json:"status"`
	MaxLeadsPerDay    *int            `json:"max_leads_per_day"`
	LeadPrice         *float64        `json:"lead_price"`
	QualityThreshold  *int            `json:"quality_threshold"`
}

func (r *UpdateProviderRequest) Validate() error {
	if r.BusinessName == nil && r.ContactName == nil && r.Phone == nil &&
		r.ServiceCategories == nil && r.ServiceZipCodes == nil &&
		r.Status == nil && r.MaxLeadsPerDay == nil && r.LeadPrice == nil &&
		r.QualityThreshold == nil {
		return ErrNoFieldsToUpdate
	}
	if r.Status != nil && !r.Status.Valid() {
		return fmt.Errorf("%w: unknown status %q", ErrInvalidProvider, *r.Status)
	}
	if r.ServiceCategories != nil {
		if len(*r.ServiceCategories) == 0 {
			return fmt.Errorf("%w: service_categories must not be empty", ErrInvalidProvider)
		}
		for _, c := range *r.ServiceCategories {
			if !leads.ValidServiceCategory(c) {
				return fmt.Errorf("%w: unknown service_category %q", ErrInvalidProvider, c)
			}
		}
	}
	if r.MaxLeadsPerDay != nil && (*r.MaxLeadsPerDay < 1 || *r.MaxLeadsPerDay > 1000) {
		return fmt.Errorf("%w: max_leads_per_day must be 1-1000", ErrInvalidProvider)
	}
	if r.LeadPrice != nil && *r.LeadPrice < 0 {
		return fmt.Errorf("%w: lead_price must not be negative", ErrInvalidProvider)
	}
	if r.QualityThreshold != nil && (*r.QualityThreshold < 0 || *r.QualityThreshold > 100) {
		return fmt.Errorf("%w: quality_threshold must be 0-100", ErrInvalidProvider)
	}
	return nil
}

// Stats summarizes a provider's assignment outcomes. Revenue is the
// provider's lead price summed over converted assignments.
type Stats struct {
	ProviderID     string  `json:"provider_id"`
	TotalAssigned  int     `json:"total_assigned"`
	TotalAccepted  int     `json:"total_accepted"`
	TotalConverted int     `json:"total_converted"`
	ConversionRate float64 `json:"conversion_rate"`
	TotalRevenue   float64 `json:"total_revenue"`
}
