package leads

import "github.com/quoteotter/lead-engine/internal/phonerisk"

const (
	approvalScoreFloor  = 50
	rejectionScoreCeil  = 30
	voipRiskScoreFloor  = 70
	flagReasonRiskyVoIP = "High-risk VoIP number detected"
	flagReasonLowScore  = "Low quality score"
)

// ResolveStatus decides a freshly scored lead's initial status from its
// quality score and phone assessment. Rules apply in order; the first
// match wins.
func ResolveStatus(score int, a *phonerisk.Assessment) (Status, string) {
	if a != nil && a.VoIP && a.RiskScore > voipRiskScoreFloor {
		return StatusFlagged, flagReasonRiskyVoIP
	}
	if a != nil && a.Valid && score >= approvalScoreFloor {
		return StatusApproved, ""
	}
	if score < rejectionScoreCeil {
		return StatusRejected, flagReasonLowScore
	}
	return StatusPending, ""
}
