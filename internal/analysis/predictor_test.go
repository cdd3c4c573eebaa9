package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abelzeko/water-quality-bot/internal/entities"
)

func doOnly(t, do float64) entities.Measurement {
	return entities.Measurement{Time: t, DissolvedOxygen: do}
}

func TestPredictor_LinearExtrapolation(t *testing.T) {
	store := NewStoreFrom([]entities.Measurement{doOnly(0, 5), doOnly(10, 7)})

	p, err := NewPredictor(Variant{}).Predict(store, 20)
	require.NoError(t, err)
	assert.InDelta(t, 0.2, p.Regression.Slope, 1e-12)
	assert.InDelta(t, 5.0, p.Regression.Intercept, 1e-12)
	assert.InDelta(t, 9.0, p.Value, 1e-12)
	assert.Equal(t, 0.0, p.Offset)
	assert.Equal(t, 2, p.Samples)

	assert.Equal(t, 10.0, p.Segment.From.X)
	assert.InDelta(t, 7.0, p.Segment.From.Y, 1e-12)
	assert.Equal(t, 20.0, p.Segment.To.X)
	assert.InDelta(t, 9.0, p.Segment.To.Y, 1e-12)
}

func TestPredictor_InsufficientData(t *testing.T) {
	predictor := NewPredictor(FullVariant())

	_, err := predictor.Predict(NewStore(), 10)
	assert.ErrorIs(t, err, ErrInsufficientData)

	_, err = predictor.Predict(NewStoreFrom([]entities.Measurement{doOnly(1, 5)}), 10)
	assert.ErrorIs(t, err, ErrInsufficientData)
}

func TestPredictor_SeasonalNeedsEnoughData(t *testing.T) {
	var ms []entities.Measurement
	for i := 0; i < 10; i++ {
		ms = append(ms, doOnly(float64(i), 6+0.1*float64(i)))
	}
	store := NewStoreFrom(ms)

	plain, err := NewPredictor(Variant{}).Predict(store, 30)
	require.NoError(t, err)
	seasonal, err := NewPredictor(Variant{Seasonal: true}).Predict(store, 30)
	require.NoError(t, err)

	assert.Equal(t, plain, seasonal)
}

func TestPredictor_SeasonalOffsetAdded(t *testing.T) {
	var ms []entities.Measurement
	for i := 0; i < 24; i++ {
		ms = append(ms, doOnly(float64(i), 5))
	}
	store := NewStoreFrom(ms)

	p, err := NewPredictor(Variant{Seasonal: true}).Predict(store, 30)
	require.NoError(t, err)
	assert.InDelta(t, 5.0, p.Base, 1e-9)
	assert.InDelta(t, 5.0, p.Offset, 1e-9)
	assert.InDelta(t, 10.0, p.Value, 1e-9)
}

func TestPredictor_SeasonalMissingBucketDefaultsToZero(t *testing.T) {
	var ms []entities.Measurement
	for i := 0; i < 24; i++ {
		ms = append(ms, doOnly(float64(i*2), 5))
	}
	store := NewStoreFrom(ms)

	p, err := NewPredictor(Variant{Seasonal: true}).Predict(store, 25)
	require.NoError(t, err)
	assert.Equal(t, 0.0, p.Offset)
	assert.InDelta(t, p.Base, p.Value, 1e-12)
}

func TestPredictor_DoesNotMutateStore(t *testing.T) {
	store := NewStoreFrom([]entities.Measurement{doOnly(0, 5), doOnly(10, 7), doOnly(20, 8)})
	before := store.All()

	predictor := NewPredictor(FullVariant())
	for _, target := range []float64{25, 100, 1e4} {
		_, err := predictor.Predict(store, target)
		require.NoError(t, err)
	}

	assert.Equal(t, before, store.All())
}

func TestTrend(t *testing.T) {
	store := NewStoreFrom([]entities.Measurement{doOnly(3, 9), doOnly(0, 3), doOnly(1, 5), doOnly(2, 7)})

	trend, err := Trend(store)
	require.NoError(t, err)
	assert.InDelta(t, 2.0, trend.Regression.Slope, 1e-12)
	assert.Equal(t, entities.Point{X: 0, Y: 3}, trend.Segment.From)
	assert.Equal(t, 3.0, trend.Segment.To.X)
	assert.InDelta(t, 9.0, trend.Segment.To.Y, 1e-12)
	assert.Equal(t, 4, trend.Samples)

	_, err = Trend(NewStoreFrom([]entities.Measurement{doOnly(1, 1)}))
	assert.ErrorIs(t, err, ErrInsufficientData)
}
