package tire

// LoadFilter clamps and remaps the normalized tire load, flattening the
// response at very low and very high loads.
type LoadFilter struct {
	MinNormalisedLoad         float64
	MinFilteredNormalisedLoad float64
	MaxNormalisedLoad         float64
	MaxFilteredNormalisedLoad float64
}

func DefaultLoadFilter() LoadFilter {
	return LoadFilter{
		MinNormalisedLoad:         0,
		MinFilteredNormalisedLoad: 0.2308,
		MaxNormalisedLoad:         3.0,
		MaxFilteredNormalisedLoad: 3.0,
	}
}

func (f LoadFilter) Filter(normalisedLoad float64) float64 {
	if normalisedLoad <= f.MinNormalisedLoad {
		return f.MinFilteredNormalisedLoad
	}
	if normalisedLoad >= f.MaxNormalisedLoad {
		return f.MaxFilteredNormalisedLoad
	}

	x := normalisedLoad - f.MinNormalisedLoad
	return f.MinFilteredNormalisedLoad +
		x*(f.MaxFilteredNormalisedLoad-f.MinFilteredNormalisedLoad)/(f.MaxNormalisedLoad-f.MinNormalisedLoad)
}
