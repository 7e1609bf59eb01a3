package phonerisk

// RiskLevel classifies how likely a phone number is to be fraudulent.
type RiskLevel string

const (
	RiskLow      RiskLevel = "low"
	RiskMedium   RiskLevel = "medium"
	RiskHigh     RiskLevel = "high"
	RiskCritical RiskLevel = "critical"
)

// LineType is the carrier line classification reported upstream.
type LineType string

const (
	LineMobile   LineType = "mobile"
	LineLandline LineType = "landline"
	LineVoIP     LineType = "voip"
	LineUnknown  LineType = "unknown"
	LineInvalid  LineType = "invalid"
)

// Recommendation is the verdict attached to an assessment.
type Recommendation string

const (
	RecommendApprove Recommendation = "approve"
	RecommendFlag    Recommendation = "flag"
	RecommendReject  Recommendation = "reject"
)

// Assessment is the outcome of evaluating one phone number.
// RiskScore runs 0-100 where lower means riskier.
type Assessment struct {
	Valid          bool           `json:"is_valid"`
	RiskLevel      RiskLevel      `json:"risk_level"`
	RiskScore      int            `json:"risk_score"`
	LineType       LineType       `json:"line_type"`
	Carrier        string         `json:"carrier"`
	VoIP           bool           `json:"is_voip"`
	Recommendation Recommendation `json:"recommendation"`
	Reason         string         `json:"reason"`
	// Status marks degraded results: "error" when the assessor itself failed,
	// "skipped" when no lookup client is configured.
	Status string `json:"status,omitempty"`
	// Upstream keeps the raw reputation payload for audit.
	Upstream *LookupData `json:"upstream,omitempty"`
}
