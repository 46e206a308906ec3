package feed

import (
	"math/rand"
	"sort"
	"time"

	"chartfeed/internal/model"
)

// SeedHistory generates a synthetic historical series of n points ending at
// now, spaced step apart, random-walking from the given starting prices. It
// stands in for the external history-fetch collaborator when bootstrapping a
// demo session.
func SeedHistory(n int, start float64, compareStart map[string]float64, step time.Duration, rng *rand.Rand) []model.PricePoint {
	if n <= 0 {
		return nil
	}
	if step <= 0 {
		step = DefaultTickInterval
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	keys := make([]string, 0, len(compareStart))
	for k := range compareStart {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	value := start
	compare := make(map[string]float64, len(compareStart))
	for k, v := range compareStart {
		compare[k] = v
	}

	base := time.Now().UTC().Add(-time.Duration(n-1) * step)
	out := make([]model.PricePoint, n)
	for i := 0; i < n; i++ {
		p := model.PricePoint{
			Date:  base.Add(time.Duration(i) * step).Format(model.TimeFormat),
			Value: value,
		}
		if len(keys) > 0 {
			p.Compare = make(map[string]float64, len(keys))
			for _, k := range keys {
				p.Compare[k] = compare[k]
			}
		}
		out[i] = p

		pct := (rng.Float64()*2 - 1) * maxChange
		value *= 1 + pct
		for _, k := range keys {
			pct := (rng.Float64()*2 - 1) * maxChange
			compare[k] *= 1 + pct
		}
	}
	return out
}
