package pricing

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestComputeWaivesDeliveryAtThreshold(t *testing.T) {
	items := []Item{{Qty: 2, UnitPrice: 250000}}
	sum := Compute(items, 500000, 5000)
	assert.Equal(t, Money(500000), sum.Subtotal)
	assert.Equal(t, Money(0), sum.Delivery)
	assert.Equal(t, Money(500000), sum.Total)
}

func TestComputeChargesDeliveryBelowThreshold(t *testing.T) {
	items := []Item{{Qty: 1, UnitPrice: 100000}, {Qty: -2, UnitPrice: 999}}
	sum := Compute(items, 500000, 5000)
	assert.Equal(t, Money(100000), sum.Subtotal)
	assert.Equal(t, Money(5000), sum.Delivery)
	assert.Equal(t, Money(105000), sum.Total)
}

func TestComputeEmptyCart(t *testing.T) {
	sum := Compute(nil, 500000, 5000)
	assert.Equal(t, Money(0), sum.Subtotal)
	assert.Equal(t, Money(0), sum.Delivery)
	assert.Equal(t, Money(0), sum.Total)
}

func TestApplyRateRounds(t *testing.T) {
	assert.Equal(t, Money(50000), ApplyRate(1000000, 5))
	assert.Equal(t, Money(333), ApplyRate(9990, 10.0/3.0))
	assert.Equal(t, Money(0), ApplyRate(0, 5))
}
