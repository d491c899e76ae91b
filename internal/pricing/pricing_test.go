package pricing_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/event-service-booking/internal/model"
	"github.com/iliyamo/event-service-booking/internal/pricing"
)

func coord(v float64) *float64 { return &v }

// baseService returns a service priced simply enough that every
// component of a quote can be verified by hand.
func baseService() *model.Service {
	return &model.Service{
		ID:               7,
		ProviderID:       42,
		Category:         "food-drink",
		Subcategory:      "catering",
		BasePrice:        decimal.NewFromInt(1000),
		DurationHours:    4,
		ExtraHourPrice:   decimal.NewFromInt(100),
		ServiceAreaKm:    10,
		DistanceFeePerKm: decimal.NewFromInt(50),
		AgeGroups:        model.AgeGroups{ChildMin: 3, ChildMax: 12, ChildPrice: decimal.NewFromInt(25)},
		Alcohol:          model.AlcoholOptions{Available: true, PricePerPerson: decimal.NewFromInt(15)},
		Location:         model.Location{Latitude: coord(52.5200), Longitude: coord(13.4050)},
		Active:           true,
	}
}

func baseEvent() *model.Event {
	date := time.Date(2026, time.March, 14, 0, 0, 0, 0, time.UTC)
	return &model.Event{
		ID:        3,
		ClientID:  11,
		Theme:     "garden party",
		Occasion:  model.OccasionBirthday,
		Date:      date,
		StartTime: date.Add(14 * time.Hour),
		EndTime:   date.Add(18 * time.Hour),
		Location:  model.Location{Latitude: coord(52.5200), Longitude: coord(13.4050)},
		Guests:    model.GuestSummary{Total: 3, Adults: 2, Children: 1},
		GuestList: []model.Guest{
			{Name: "Ana", Age: 34},
			{Name: "Bruno", Age: 36, DrinksAlcohol: true},
			{Name: "Caio", Age: 7},
		},
	}
}

func TestDistanceFee(t *testing.T) {
	perKm := decimal.NewFromInt(50)

	tests := []struct {
		name       string
		distanceKm float64
		want       string
	}{
		{"inside service area", 7, "0"},
		{"beyond service area", 15, "250"},
		{"exactly at the boundary", 10, "0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := pricing.DistanceFee(tt.distanceKm, 10, perKm)
			assert.True(t, got.Equal(decimal.RequireFromString(tt.want)),
				"distance %v km: got %s, want %s", tt.distanceKm, got, tt.want)
		})
	}
}

func TestExtraHoursFee(t *testing.T) {
	start := time.Date(2026, time.March, 14, 14, 0, 0, 0, time.UTC)
	perHour := decimal.NewFromInt(100)

	sixHours := pricing.ExtraHours(start, start.Add(6*time.Hour), 4)
	assert.True(t, pricing.ExtraHoursFee(sixHours, perHour).Equal(decimal.NewFromInt(200)))

	threeHours := pricing.ExtraHours(start, start.Add(3*time.Hour), 4)
	assert.True(t, pricing.ExtraHoursFee(threeHours, perHour).Equal(decimal.Zero))
}

func TestPlatformFeeTiers(t *testing.T) {
	tests := []struct {
		subtotal int64
		wantFee  string
	}{
		{5000, "250"},    // 5%
		{12000, "480"},   // 4%
		{25000, "750"},   // 3%
		{10000, "500"},   // boundary is strict: still 5%
		{20000, "800"},   // boundary is strict: still 4%
	}
	for _, tt := range tests {
		sub := decimal.NewFromInt(tt.subtotal)
		fee := sub.Mul(pricing.PlatformFeeRate(sub)).Round(2)
		assert.True(t, fee.Equal(decimal.RequireFromString(tt.wantFee)),
			"subtotal %d: got fee %s, want %s", tt.subtotal, fee, tt.wantFee)
	}
}

func TestHaversineKnownDistance(t *testing.T) {
	// Berlin Alexanderplatz to Potsdam city centre, roughly 27 km.
	d := pricing.HaversineKm(52.5219, 13.4132, 52.4009, 13.0591)
	assert.InDelta(t, 27.2, d, 1.5)
}

func TestQuoteItemizedBreakdown(t *testing.T) {
	e := baseEvent()
	svc := baseService()

	b, err := pricing.Quote(e, svc, pricing.Options{AlcoholService: true})
	require.NoError(t, err)

	// Same coordinates: no distance fee. Span equals included hours:
	// no extra-hours fee. One child in band: 25 surcharge. No seasonal
	// or special-date entries: multipliers 1.
	assert.True(t, b.DistanceFee.Equal(decimal.Zero))
	assert.True(t, b.ExtraHoursFee.Equal(decimal.Zero))
	assert.True(t, b.ChildSurcharge.Equal(decimal.NewFromInt(25)))
	assert.True(t, b.SeasonalMultiplier.Equal(decimal.NewFromInt(1)))
	assert.True(t, b.SpecialDateMultiplier.Equal(decimal.NewFromInt(1)))
	assert.True(t, b.Subtotal.Equal(decimal.NewFromInt(1025)))

	// Alcohol is a flat add-on: 3 guests * 15, excluded from the
	// multiplier-scaled subtotal but included in the total.
	assert.True(t, b.AlcoholFee.Equal(decimal.NewFromInt(45)))
	assert.True(t, b.PlatformFee.Equal(decimal.RequireFromString("51.25")))
	assert.True(t, b.Total.Equal(b.Subtotal.Add(b.AlcoholFee).Add(b.PlatformFee)))
}

func TestQuoteAppliesMultipliers(t *testing.T) {
	e := baseEvent()
	svc := baseService()
	svc.SeasonalPricing = []model.SeasonalRate{
		{Month: 3, Multiplier: decimal.RequireFromString("1.2")},
		{Month: 12, Multiplier: decimal.RequireFromString("1.5")},
	}
	svc.SpecialDates = []model.SpecialDateRate{
		{Date: e.Date, Multiplier: decimal.RequireFromString("2")},
	}

	b, err := pricing.Quote(e, svc, pricing.Options{})
	require.NoError(t, err)

	// (1000 + 25) * 1.2 * 2
	assert.True(t, b.Subtotal.Equal(decimal.NewFromInt(2460)))
	assert.True(t, b.AlcoholFee.Equal(decimal.Zero))
}

func TestQuoteIsDeterministic(t *testing.T) {
	e := baseEvent()
	svc := baseService()
	svc.SeasonalPricing = []model.SeasonalRate{{Month: 3, Multiplier: decimal.RequireFromString("1.1")}}

	first, err := pricing.Quote(e, svc, pricing.Options{AlcoholService: true})
	require.NoError(t, err)
	second, err := pricing.Quote(e, svc, pricing.Options{AlcoholService: true})
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestQuoteInvalidInput(t *testing.T) {
	t.Run("missing event coordinates", func(t *testing.T) {
		e := baseEvent()
		e.Location.Latitude = nil
		_, err := pricing.Quote(e, baseService(), pricing.Options{})
		assert.ErrorIs(t, err, pricing.ErrInvalidInput)
	})

	t.Run("missing service coordinates", func(t *testing.T) {
		svc := baseService()
		svc.Location.Longitude = nil
		_, err := pricing.Quote(baseEvent(), svc, pricing.Options{})
		assert.ErrorIs(t, err, pricing.ErrInvalidInput)
	})

	t.Run("end not after start", func(t *testing.T) {
		e := baseEvent()
		e.EndTime = e.StartTime
		_, err := pricing.Quote(e, baseService(), pricing.Options{})
		assert.ErrorIs(t, err, pricing.ErrInvalidInput)
	})

	t.Run("missing base price", func(t *testing.T) {
		svc := baseService()
		svc.BasePrice = decimal.Zero
		_, err := pricing.Quote(baseEvent(), svc, pricing.Options{})
		assert.ErrorIs(t, err, pricing.ErrInvalidInput)
	})
}
