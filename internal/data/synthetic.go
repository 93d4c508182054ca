package data

import (
	"context"
	"hash/fnv"
	"math"
	"math/rand"
	"time"
)

// synthDataProvider implements Source generating synthetic data.
// Output is a pure function of ticker, expiry and the clock's date, so repeated
// runs see the same chain.
type synthDataProvider struct {
	now func() time.Time
	// Expiries is the number of weekly expirations listed.
	Expiries int
}

// NewSyntheticProvider returns an offline Source for demos and tests.
func NewSyntheticProvider() *synthDataProvider {
	return &synthDataProvider{now: time.Now, Expiries: 6}
}

// NewSyntheticProviderAt is NewSyntheticProvider with a fixed clock.
func NewSyntheticProviderAt(now func() time.Time) *synthDataProvider {
	p := NewSyntheticProvider()
	if now != nil {
		p.now = now
	}
	return p
}

// Expirations lists the next weekly Friday expirations.
func (synthDataProv *synthDataProvider) Expirations(ctx context.Context, ticker string) ([]string, error) {
	day := synthDataProv.now().UTC().Truncate(24 * time.Hour)
	for day.Weekday() != time.Friday {
		day = day.AddDate(0, 0, 1)
	}
	out := make([]string, 0, synthDataProv.Expiries)
	for i := 0; i < synthDataProv.Expiries; i++ {
		out = append(out, day.AddDate(0, 0, 7*i).Format(ExpiryLayout))
	}
	return out, nil
}

// OptionChain builds a bell-shaped open interest profile around the synthetic
// spot, with extra interest on round strikes. Roughly one strike in nine has
// no open interest reported and is dropped.
func (synthDataProv *synthDataProvider) OptionChain(ctx context.Context, ticker, expiry string) (Chain, error) {
	spot := synthSpot(ticker)
	interval := synthStrikeInterval(spot)
	rng := rand.New(rand.NewSource(int64(seedFor(ticker, expiry))))

	lo := math.Floor(spot*0.7/interval) * interval
	hi := math.Ceil(spot*1.3/interval) * interval

	var chain Chain
	for strike := lo; strike <= hi+interval/2; strike += interval {
		k := math.Round(strike*100) / 100
		width := 0.08 * spot
		base := 4000 * math.Exp(-math.Pow((k-spot)/width, 2))
		if math.Mod(k, interval*5) == 0 {
			base *= 1.8
		}

		// calls skew above spot, puts below
		callOI := base*(1+0.4*math.Tanh((k-spot)/width)) + rng.Float64()*60
		putOI := base*(1-0.4*math.Tanh((k-spot)/width)) + rng.Float64()*60

		if leg, ok := synthLeg(rng, k, callOI); ok {
			chain.Calls = append(chain.Calls, leg)
		}
		if leg, ok := synthLeg(rng, k, putOI); ok {
			chain.Puts = append(chain.Puts, leg)
		}
	}
	return chain, nil
}

// PriceHistory returns one regular session of one-minute bars ending at the synthetic spot.
func (synthDataProv *synthDataProvider) PriceHistory(ctx context.Context, ticker string) ([]Bar, error) {
	spot := synthSpot(ticker)
	day := synthDataProv.now().UTC().Truncate(24 * time.Hour)
	open := day.Add(14*time.Hour + 30*time.Minute) // 09:30 New York in UTC, ignoring DST
	rng := rand.New(rand.NewSource(int64(seedFor(ticker, day.Format(ExpiryLayout)))))

	const minutes = 390
	// walk backwards from the close so the last bar lands on spot
	closes := make([]float64, minutes)
	price := spot
	for i := minutes - 1; i >= 0; i-- {
		closes[i] = price
		price -= rng.NormFloat64() * 0.0005 * spot
	}

	out := make([]Bar, 0, minutes)
	prev := price
	for i, c := range closes {
		high := math.Max(prev, c) + math.Abs(rng.NormFloat64()*0.0002*spot)
		low := math.Min(prev, c) - math.Abs(rng.NormFloat64()*0.0002*spot)
		out = append(out, Bar{
			Date:  open.Add(time.Duration(i) * time.Minute),
			Open:  prev,
			High:  high,
			Low:   low,
			Close: c,
			Vol:   float64(1000 + rng.Intn(5000)),
		})
		prev = c
	}
	return out, nil
}

func synthLeg(rng *rand.Rand, strike, oi float64) (OptionLeg, bool) {
	if rng.Intn(9) == 0 {
		return OptionLeg{}, false
	}
	return newLeg(&strike, &oi)
}

// synthSpot maps a ticker to a stable price between 20 and 520.
func synthSpot(ticker string) float64 {
	h := seedFor(ticker)
	return 20 + float64(h%50000)/100
}

func synthStrikeInterval(spot float64) float64 {
	switch {
	case spot < 50:
		return 1
	case spot < 200:
		return 2.5
	default:
		return 5
	}
}

func seedFor(parts ...string) uint32 {
	h := fnv.New32a()
	for _, p := range parts {
		_, _ = h.Write([]byte(p))
		_, _ = h.Write([]byte{0})
	}
	return h.Sum32()
}
