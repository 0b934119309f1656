package credit

import (
	"fmt"
	"sort"
)

// Tier kinds.
const (
	KindNone     = "none"
	KindDiscount = "discount"
	KindInterest = "interest"
)

// Tier is one repayment window with its rate.
type Tier struct {
	StartDay int     `json:"startDay"`
	EndDay   int     `json:"endDay"`
	RatePct  float64 `json:"ratePct"`
	Label    string  `json:"label"`
}

// Rules groups the configured discount and interest tiers.
type Rules struct {
	Discounts []Tier `json:"discounts"`
	Interests []Tier `json:"interests"`
}

// DefaultRules returns the rules applied when none are configured.
func DefaultRules() Rules {
	return Rules{
		Discounts: []Tier{
			{StartDay: 0, EndDay: 15, RatePct: 5, Label: "Early Bird"},
			{StartDay: 16, EndDay: 30, RatePct: 2, Label: "Standard"},
		},
		Interests: []Tier{
			{StartDay: 45, EndDay: 60, RatePct: 2, Label: "Late Fee"},
			{StartDay: 61, EndDay: 180, RatePct: 5, Label: "Extended Late"},
		},
	}
}

// Normalize sorts tiers by start day and drops unusable ones: negative
// or inverted ranges, negative rates, and tiers overlapping an earlier
// window. Stored rules predating the stricter write validation still
// load cleanly.
func (r Rules) Normalize() Rules {
	return Rules{
		Discounts: normalizeTiers(r.Discounts),
		Interests: normalizeTiers(r.Interests),
	}
}

func normalizeTiers(tiers []Tier) []Tier {
	var out []Tier
	for _, tier := range sortedByStart(tiers) {
		if tier.StartDay < 0 || tier.EndDay <= tier.StartDay || tier.RatePct < 0 {
			continue
		}
		if len(out) > 0 && tier.StartDay <= out[len(out)-1].EndDay {
			continue
		}
		out = append(out, tier)
	}
	return out
}

// IsEmpty reports whether no tiers are configured.
func (r Rules) IsEmpty() bool {
	return len(r.Discounts) == 0 && len(r.Interests) == 0
}

// Validate checks a rule set for admin updates: day ranges must be
// non-negative and strictly increasing, tiers of a kind must not overlap,
// and every discount window must end before the first interest window
// begins.
func (r Rules) Validate() error {
	if err := validateKind(KindDiscount, r.Discounts); err != nil {
		return err
	}
	if err := validateKind(KindInterest, r.Interests); err != nil {
		return err
	}
	if len(r.Discounts) > 0 && len(r.Interests) > 0 {
		lastDiscount := sortedByStart(r.Discounts)
		firstInterest := sortedByStart(r.Interests)
		if lastDiscount[len(lastDiscount)-1].EndDay >= firstInterest[0].StartDay {
			return fmt.Errorf("discount tiers must end before interest tiers begin")
		}
	}
	return nil
}

func validateKind(kind string, tiers []Tier) error {
	sorted := sortedByStart(tiers)
	for i, tier := range sorted {
		if tier.StartDay < 0 {
			return fmt.Errorf("%s tier %q: start day must not be negative", kind, tier.Label)
		}
		if tier.EndDay <= tier.StartDay {
			return fmt.Errorf("%s tier %q: end day must be after start day", kind, tier.Label)
		}
		if tier.RatePct < 0 {
			return fmt.Errorf("%s tier %q: rate must not be negative", kind, tier.Label)
		}
		if i > 0 && tier.StartDay <= sorted[i-1].EndDay {
			return fmt.Errorf("%s tiers %q and %q overlap", kind, sorted[i-1].Label, tier.Label)
		}
	}
	return nil
}

func sortedByStart(tiers []Tier) []Tier {
	out := append([]Tier(nil), tiers...)
	sort.Slice(out, func(i, j int) bool { return out[i].StartDay < out[j].StartDay })
	return out
}
