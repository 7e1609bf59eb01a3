package leads

import "strings"

// Quality scoring weights. The total is clamped to [0, 100].
const (
	contactCompleteBonus = 25
	contactPartialBonus  = 10
	serviceMatchBonus    = 25
	detailsBonus         = 15
	budgetBonus          = 10
)

var timelineBonus = map[Timeline]int{
	TimelineImmediate:   25,
	TimelineWithinWeek:  15,
	TimelineWithinMonth: 10,
	TimelineFlexible:    0,
}

var urgencyKeywords = []string{
	"emergency", "urgent", "asap", "immediately", "broken", "leak", "not working",
}

// ScoreLead computes a lead's quality score and intent class from the
// intake fields alone. Phone risk is layered on separately.
func ScoreLead(l *Lead) (int, Intent) {
	score := 0

	if l.FirstName != "" && l.LastName != "" && l.Email != "" && l.Phone != "" {
		score += contactCompleteBonus
	} else {
		score += contactPartialBonus
	}
	if l.ServiceCategory != "" && l.ZipCode != "" {
		score += serviceMatchBonus
	}
	if len(l.ServiceDetails) > 20 {
		score += detailsBonus
	}
	score += timelineBonus[l.ProjectTimeline]
	if l.Budget != "" {
		score += budgetBonus
	}

	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}
	return score, detectIntent(l)
}

func detectIntent(l *Lead) Intent {
	text := strings.ToLower(l.ServiceDetails + " " + l.Notes)
	for _, kw := range urgencyKeywords {
		if strings.Contains(text, kw) {
			return IntentHot
		}
	}
	switch l.ProjectTimeline {
	case TimelineImmediate, TimelineWithinWeek:
		return IntentWarm
	}
	return IntentCool
}
