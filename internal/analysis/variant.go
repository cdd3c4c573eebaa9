package analysis

// Variant selects which optional fields are tracked and whether predictions
// receive the hour-of-day seasonal offset. The time unit stays opaque to the core.
type Variant struct {
	TrackTurbidity bool
	TrackPH        bool
	Seasonal       bool
}

// FullVariant tracks every field and enables the seasonal offset
func FullVariant() Variant {
	return Variant{TrackTurbidity: true, TrackPH: true, Seasonal: true}
}
