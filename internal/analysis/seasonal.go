package analysis

import (
	"math"

	"github.com/abelzeko/water-quality-bot/internal/entities"
)

// MinSeasonalSamples is the number of measurements needed before a seasonal table is built
const MinSeasonalSamples = 24

// SeasonalTable maps an hour-of-day bucket (0-23) to the average dissolved oxygen
// observed in it. Buckets without observations are absent.
type SeasonalTable map[int]float64

// HourBucket returns floor(t mod 24), folded into 0-23 for negative t
func HourBucket(t float64) int {
	h := int(math.Floor(math.Mod(t, 24)))
	if h < 0 {
		h += 24
	}
	return h
}

// Offset returns the bucket value for hour, or 0 when the bucket is absent
func (t SeasonalTable) Offset(hour int) float64 {
	return t[hour]
}

// EstimateSeasonal builds the hour-of-day table. With fewer than
// MinSeasonalSamples measurements the table is empty.
func EstimateSeasonal(ms []entities.Measurement) SeasonalTable {
	table := SeasonalTable{}
	if len(ms) < MinSeasonalSamples {
		return table
	}

	sums := make(map[int]float64, 24)
	counts := make(map[int]int, 24)
	for _, m := range ms {
		h := HourBucket(m.Time)
		sums[h] += m.DissolvedOxygen
		counts[h]++
	}
	for h, sum := range sums {
		table[h] = sum / float64(counts[h])
	}

	return table
}
