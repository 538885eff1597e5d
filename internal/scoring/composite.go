package scoring

// defaultWeight applies to dimensions that appear in the score map but have
// no entry in the decision type's weight table.
const defaultWeight = 0.1

// Composite combines dimension scores into one weighted score in [0,1].
// Dimensions absent from the map contribute to neither numerator nor
// denominator; an empty map yields 0. The result is deterministic and
// independent of map iteration order.
func Composite(dims map[string]Score, weights map[string]float64) float64 {
	var sum, totalWeight float64

	for name, score := range dims {
		w, ok := weights[name]
		if !ok {
			w = defaultWeight
		}
		sum += score.Value * w
		totalWeight += w
	}

	if totalWeight == 0 {
		return 0
	}
	return Clamp01(sum / totalWeight)
}

// Rescale maps a [0,1] score onto [0,100] for display.
func Rescale(score float64) float64 {
	return Clamp01(score) * 100
}
