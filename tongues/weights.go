package tongues

// Weight is the coefficient of one tongue.
type Weight struct {
	Value          float64
	HarmonicFactor float64
}

// Effective returns Value · HarmonicFactor.
func (w Weight) Effective() float64 {
	return w.Value * w.HarmonicFactor
}

// Weights holds one Weight per tongue.
type Weights struct {
	w [numTongues]Weight
}

var defaultValues = [numTongues]float64{0.20, 0.15, 0.18, 0.17, 0.15, 0.15}

// DefaultWeights returns the balanced default weighting, which sums to 1.
func DefaultWeights() *Weights {
	ws := &Weights{}
	for i, v := range defaultValues {
		ws.w[i] = Weight{Value: v, HarmonicFactor: 1}
	}
	return ws
}

// Get returns the effective weight of t, or 0 for an unknown tongue.
func (ws *Weights) Get(t Tongue) float64 {
	if !t.valid() {
		return 0
	}
	return ws.w[t].Effective()
}

// Set replaces the weight of t. Unknown tongues are ignored.
func (ws *Weights) Set(t Tongue, value, harmonicFactor float64) {
	if t.valid() {
		ws.w[t] = Weight{Value: value, HarmonicFactor: harmonicFactor}
	}
}

// Normalize divides every value by the sum of effective weights so that the
// values sum to 1 when all harmonic factors are 1. A non-positive total is
// left unchanged.
func (ws *Weights) Normalize() {
	var total float64
	for _, w := range ws.w {
		total += w.Effective()
	}
	if total <= 0 {
		return
	}
	for i := range ws.w {
		ws.w[i].Value /= total
	}
}
