package credit

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSegmentsEmptyRules(t *testing.T) {
	segments := Segments(Rules{})
	require.Len(t, segments, 1)
	assert.Equal(t, Segment{StartDay: 0, EndDay: 998, Kind: KindNone, Label: "Standard Window"}, segments[0])
}

func TestSegmentsInterestOnlyGetsLeadingWindow(t *testing.T) {
	rules := Rules{Interests: []Tier{{StartDay: 45, EndDay: 60, RatePct: 2, Label: "Late Fee"}}}
	segments := Segments(rules)
	require.Len(t, segments, 2)
	assert.Equal(t, Segment{StartDay: 0, EndDay: 44, Kind: KindNone, Label: "Standard Window"}, segments[0])
	assert.Equal(t, KindInterest, segments[1].Kind)

	// early repayment under interest-only rules is neutral, not charged
	early := Calculate(1000000, 0, rules)
	assert.Equal(t, KindNone, early.Kind)
	assert.Equal(t, int64(1000000), early.Final)
	assert.Equal(t, 0, early.Days)
}

func TestSegmentsInsertsStandardWindow(t *testing.T) {
	rules := Rules{
		Discounts: []Tier{{StartDay: 0, EndDay: 15, RatePct: 5, Label: "Early Bird"}},
		Interests: []Tier{{StartDay: 45, EndDay: 60, RatePct: 2, Label: "Late Fee"}},
	}
	segments := Segments(rules)
	require.Len(t, segments, 3)
	assert.Equal(t, KindDiscount, segments[0].Kind)
	assert.Equal(t, Segment{StartDay: 16, EndDay: 44, Kind: KindNone, Label: "Standard Window"}, segments[1])
	assert.Equal(t, KindInterest, segments[2].Kind)
}

func TestSegmentsNoGapNoStandardWindow(t *testing.T) {
	rules := Rules{
		Discounts: []Tier{{StartDay: 0, EndDay: 30, RatePct: 5}},
		Interests: []Tier{{StartDay: 31, EndDay: 60, RatePct: 2}},
	}
	segments := Segments(rules)
	require.Len(t, segments, 2)
	assert.Equal(t, KindDiscount, segments[0].Kind)
	assert.Equal(t, KindInterest, segments[1].Kind)
}

func TestSegmentsLabelFallback(t *testing.T) {
	rules := Rules{Discounts: []Tier{{StartDay: 0, EndDay: 15, RatePct: 5}}}
	segments := Segments(rules)
	require.Len(t, segments, 2)
	assert.Equal(t, "0-15 days", segments[0].Label)
	// discount-only rules trail off into a neutral window
	assert.Equal(t, Segment{StartDay: 16, EndDay: 998, Kind: KindNone, Label: "Standard Window"}, segments[1])
}

func TestSegmentsSortsTiersByStart(t *testing.T) {
	rules := Rules{
		Discounts: []Tier{
			{StartDay: 16, EndDay: 30, RatePct: 2, Label: "Standard"},
			{StartDay: 0, EndDay: 15, RatePct: 5, Label: "Early Bird"},
		},
	}
	segments := Segments(rules)
	require.Len(t, segments, 2)
	assert.Equal(t, "Early Bird", segments[0].Label)
	assert.Equal(t, "Standard", segments[1].Label)
}

func TestCalculateWorkedExample(t *testing.T) {
	rules := Rules{
		Discounts: []Tier{{StartDay: 0, EndDay: 15, RatePct: 5, Label: "Early Bird"}},
		Interests: []Tier{{StartDay: 45, EndDay: 60, RatePct: 2, Label: "Late Fee"}},
	}

	early := Calculate(10000, 0, rules)
	assert.Equal(t, KindDiscount, early.Kind)
	assert.Equal(t, 0, early.Days)
	assert.Equal(t, int64(500), early.Amount)
	assert.Equal(t, int64(9500), early.Final)

	mid := Calculate(10000, 50, rules)
	assert.Equal(t, KindNone, mid.Kind)
	assert.Equal(t, int64(0), mid.Amount)
	assert.Equal(t, int64(10000), mid.Final)

	late := Calculate(10000, 100, rules)
	assert.Equal(t, KindInterest, late.Kind)
	assert.Equal(t, 60, late.Days)
	assert.Equal(t, int64(200), late.Amount)
	assert.Equal(t, int64(10200), late.Final)
}

func TestCalculateInterpolatesDays(t *testing.T) {
	rules := Rules{Discounts: []Tier{{StartDay: 0, EndDay: 30, RatePct: 5}}}
	// two segments: the discount tier, then the trailing neutral window

	start := Calculate(10000, 0, rules)
	assert.Equal(t, KindDiscount, start.Kind)
	assert.Equal(t, 0, start.Days)

	quarter := Calculate(10000, 25, rules)
	assert.Equal(t, KindDiscount, quarter.Kind)
	assert.Equal(t, 15, quarter.Days)

	full := Calculate(10000, 100, rules)
	assert.Equal(t, KindNone, full.Kind)
	assert.Equal(t, int64(10000), full.Final)
}

func TestCalculateAcceptsFractionalProgress(t *testing.T) {
	rules := Rules{Discounts: []Tier{{StartDay: 0, EndDay: 30, RatePct: 5}}}
	result := Calculate(10000, 12.5, rules)
	assert.Equal(t, 12.5, result.Percent)
	assert.Equal(t, KindDiscount, result.Kind)
	// 12.5% of the slider is a quarter of the first of two segments
	assert.Equal(t, 8, result.Days)
}

func TestCalculateClampsPercent(t *testing.T) {
	rules := DefaultRules()
	low := Calculate(10000, -10, rules)
	assert.Equal(t, float64(0), low.Percent)

	high := Calculate(10000, 150, rules)
	assert.Equal(t, float64(100), high.Percent)
	assert.Equal(t, KindInterest, high.Kind)
}

func TestCalculateNoRules(t *testing.T) {
	result := Calculate(10000, 70, Rules{})
	assert.Equal(t, KindNone, result.Kind)
	assert.Equal(t, int64(10000), result.Final)
	assert.Zero(t, result.Amount)
}

func TestCalculateZeroSubtotal(t *testing.T) {
	result := Calculate(0, 0, DefaultRules())
	assert.Equal(t, int64(0), result.Amount)
	assert.Equal(t, int64(0), result.Final)
}

func TestDefaultRulesAreValid(t *testing.T) {
	require.NoError(t, DefaultRules().Validate())
	segments := Segments(DefaultRules())
	// two discounts, a standard window gap, two interests
	require.Len(t, segments, 5)
	assert.Equal(t, KindNone, segments[2].Kind)
}

func TestNormalizeDropsUnusableTiers(t *testing.T) {
	rules := Rules{
		Discounts: []Tier{
			{StartDay: 16, EndDay: 30, RatePct: 2, Label: "Standard"},
			{StartDay: 0, EndDay: 15, RatePct: 5, Label: "Early Bird"},
			{StartDay: 20, EndDay: 40, RatePct: 1, Label: "Overlaps Standard"},
			{StartDay: 50, EndDay: 50, RatePct: 1, Label: "Inverted"},
		},
		Interests: []Tier{
			{StartDay: 45, EndDay: 60, RatePct: -2, Label: "Negative Rate"},
			{StartDay: 61, EndDay: 90, RatePct: 5, Label: "Extended"},
		},
	}
	normalized := rules.Normalize()
	require.Len(t, normalized.Discounts, 2)
	assert.Equal(t, "Early Bird", normalized.Discounts[0].Label)
	assert.Equal(t, "Standard", normalized.Discounts[1].Label)
	require.Len(t, normalized.Interests, 1)
	assert.Equal(t, "Extended", normalized.Interests[0].Label)
}

func TestNormalizeKeepsValidRules(t *testing.T) {
	assert.Equal(t, DefaultRules(), DefaultRules().Normalize())
}

func TestValidateRejectsOverlap(t *testing.T) {
	rules := Rules{Discounts: []Tier{
		{StartDay: 0, EndDay: 15, RatePct: 5},
		{StartDay: 10, EndDay: 30, RatePct: 2},
	}}
	assert.Error(t, rules.Validate())
}

func TestValidateRejectsInvertedRange(t *testing.T) {
	rules := Rules{Discounts: []Tier{{StartDay: 20, EndDay: 10, RatePct: 5}}}
	assert.Error(t, rules.Validate())
}

func TestValidateRejectsNegativeValues(t *testing.T) {
	assert.Error(t, Rules{Discounts: []Tier{{StartDay: -1, EndDay: 10, RatePct: 5}}}.Validate())
	assert.Error(t, Rules{Discounts: []Tier{{StartDay: 0, EndDay: 10, RatePct: -5}}}.Validate())
}

func TestValidateRejectsDiscountAfterInterest(t *testing.T) {
	rules := Rules{
		Discounts: []Tier{{StartDay: 0, EndDay: 50, RatePct: 5}},
		Interests: []Tier{{StartDay: 45, EndDay: 60, RatePct: 2}},
	}
	assert.Error(t, rules.Validate())
}

func TestValidateAcceptsUnsortedInput(t *testing.T) {
	rules := Rules{
		Discounts: []Tier{
			{StartDay: 16, EndDay: 30, RatePct: 2},
			{StartDay: 0, EndDay: 15, RatePct: 5},
		},
	}
	assert.NoError(t, rules.Validate())
}
