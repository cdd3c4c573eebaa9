package analysis

import (
	"sort"

	"github.com/abelzeko/water-quality-bot/internal/entities"
)

// group accumulates the sums of one time partition
type group struct {
	time           float64
	doSum          float64
	count          int
	turbiditySum   float64
	turbidityCount int
	phSum          float64
	phCount        int
}

// Consolidate merges measurements sharing an identical time value into one
// measurement holding the arithmetic mean of each field, and returns the result
// sorted ascending by time. Optional fields are averaged only over the members
// that carry them. Sums are accumulated in input order.
func Consolidate(ms []entities.Measurement) []entities.Measurement {
	groups := make(map[float64]*group, len(ms))
	order := make([]float64, 0, len(ms))

	for _, m := range ms {
		g, ok := groups[m.Time]
		if !ok {
			g = &group{time: m.Time}
			groups[m.Time] = g
			order = append(order, m.Time)
		}
		g.doSum += m.DissolvedOxygen
		g.count++
		if m.Turbidity != nil {
			g.turbiditySum += *m.Turbidity
			g.turbidityCount++
		}
		if m.PH != nil {
			g.phSum += *m.PH
			g.phCount++
		}
	}

	result := make([]entities.Measurement, 0, len(order))
	for _, t := range order {
		g := groups[t]
		m := entities.Measurement{
			Time:            g.time,
			DissolvedOxygen: g.doSum / float64(g.count),
		}
		if g.turbidityCount > 0 {
			m.Turbidity = entities.Float(g.turbiditySum / float64(g.turbidityCount))
		}
		if g.phCount > 0 {
			m.PH = entities.Float(g.phSum / float64(g.phCount))
		}
		result = append(result, m)
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].Time < result[j].Time
	})

	return result
}
