package leads

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/quoteotter/lead-engine/internal/phonerisk"
)

func TestResolveStatus(t *testing.T) {
	tests := []struct {
		name       string
		score      int
		assessment *phonerisk.Assessment
		wantStatus Status
		wantReason string
	}{
		{
			"valid phone and passing score approves",
			72,
			&phonerisk.Assessment{Valid: true, RiskScore: 95},
			StatusApproved, "",
		},
		{
			"voip with high risk score is flagged before approval",
			90,
			&phonerisk.Assessment{Valid: true, VoIP: true, RiskScore: 75},
			StatusFlagged, "High-risk VoIP number detected",
		},
		{
			"voip at the threshold is not flagged",
			90,
			&phonerisk.Assessment{Valid: true, VoIP: true, RiskScore: 70},
			StatusApproved, "",
		},
		{
			"invalid phone with low score rejects",
			20,
			&phonerisk.Assessment{Valid: false, RiskScore: 0},
			StatusRejected, "Low quality score",
		},
		{
			"invalid phone with middling score stays pending",
			45,
			&phonerisk.Assessment{Valid: false, RiskScore: 0},
			StatusPending, "",
		},
		{
			"valid phone below approval floor stays pending",
			40,
			&phonerisk.Assessment{Valid: true, RiskScore: 95},
			StatusPending, "",
		},
		{
			"no assessment with low score still rejects",
			25,
			nil,
			StatusRejected, "Low quality score",
		},
		{
			"no assessment never approves",
			80,
			nil,
			StatusPending, "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, reason := ResolveStatus(tt.score, tt.assessment)
			assert.Equal(t, tt.wantStatus, status)
			assert.Equal(t, tt.wantReason, reason)
		})
	}
}
