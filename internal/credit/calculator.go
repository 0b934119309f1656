package credit

import (
	"fmt"
	"math"

	"github.com/noah-isme/backend-mandi/internal/pricing"
)

// Segment is one stretch of the repayment slider. The slider divides
// 0-100% evenly across the segments regardless of how many days each one
// spans.
type Segment struct {
	StartDay int     `json:"startDay"`
	EndDay   int     `json:"endDay"`
	Kind     string  `json:"kind"`
	RatePct  float64 `json:"ratePct"`
	Label    string  `json:"label"`
}

// Result is the outcome of a repayment preview at a slider position.
type Result struct {
	Percent  float64       `json:"percent"`
	Days     int           `json:"days"`
	Kind     string        `json:"kind"`
	RatePct  float64       `json:"ratePct"`
	Label    string        `json:"label"`
	Subtotal pricing.Money `json:"subtotal"`
	Amount   pricing.Money `json:"amount"`
	Final    pricing.Money `json:"final"`
}

// standardWindowCeiling bounds the neutral window when no interest tier
// caps it.
const standardWindowCeiling = 999

// Segments lays the configured tiers out along the slider. Discount tiers
// come first, interest tiers last, and any gap between them is filled by
// a neutral standard window. The gap bounds default to day -1 and day 999
// when a side has no tiers, so interest-only rules get a leading neutral
// window, discount-only rules a trailing one, and empty rules a single
// neutral window covering the whole slider.
func Segments(rules Rules) []Segment {
	discounts := sortedByStart(rules.Discounts)
	interests := sortedByStart(rules.Interests)

	var out []Segment
	for _, tier := range discounts {
		out = append(out, segmentFromTier(tier, KindDiscount))
	}
	lastDiscount := -1
	if len(discounts) > 0 {
		lastDiscount = discounts[len(discounts)-1].EndDay
	}
	firstInterest := standardWindowCeiling
	if len(interests) > 0 {
		firstInterest = interests[0].StartDay
	}
	if firstInterest > lastDiscount+1 {
		out = append(out, Segment{
			StartDay: lastDiscount + 1,
			EndDay:   firstInterest - 1,
			Kind:     KindNone,
			Label:    "Standard Window",
		})
	}
	for _, tier := range interests {
		out = append(out, segmentFromTier(tier, KindInterest))
	}
	return out
}

func segmentFromTier(tier Tier, kind string) Segment {
	label := tier.Label
	if label == "" {
		if tier.EndDay > tier.StartDay {
			label = fmt.Sprintf("%d-%d days", tier.StartDay, tier.EndDay)
		} else {
			label = fmt.Sprintf("After %d days", tier.StartDay)
		}
	}
	return Segment{
		StartDay: tier.StartDay,
		EndDay:   tier.EndDay,
		Kind:     kind,
		RatePct:  tier.RatePct,
		Label:    label,
	}
}

// Calculate previews the amount due when repaying at the given slider
// position. The slider spans the segments evenly; within a segment the
// repayment day interpolates linearly across the segment's day range.
func Calculate(subtotal pricing.Money, percent float64, rules Rules) Result {
	percent = math.Max(0, math.Min(100, percent))
	segments := Segments(rules)
	portion := 100.0 / float64(len(segments))
	idx := int(math.Floor(percent / portion))
	if idx >= len(segments) {
		idx = len(segments) - 1
	}
	seg := segments[idx]

	frac := 1.0
	if percent < 100 {
		frac = math.Mod(percent, portion) / portion
	}
	days := int(math.Round(float64(seg.StartDay) + frac*float64(seg.EndDay-seg.StartDay)))

	result := Result{
		Percent:  percent,
		Days:     days,
		Kind:     seg.Kind,
		RatePct:  seg.RatePct,
		Label:    seg.Label,
		Subtotal: subtotal,
		Final:    subtotal,
	}
	switch seg.Kind {
	case KindDiscount:
		result.Amount = pricing.ApplyRate(subtotal, seg.RatePct)
		result.Final = subtotal - result.Amount
	case KindInterest:
		result.Amount = pricing.ApplyRate(subtotal, seg.RatePct)
		result.Final = subtotal + result.Amount
	}
	return result
}
