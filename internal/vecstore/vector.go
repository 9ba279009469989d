package vecstore

import "math"

// Cosine returns the cosine similarity of a and b, in [-1, 1].
// Vectors of different length are a dimension mismatch; a vector with zero
// magnitude is similar to nothing and scores 0.
func Cosine(a, b []float32) (float64, error) {
	if len(a) != len(b) {
		return 0, ErrDimensionMismatch
	}
	var dot, sqA, sqB float64
	for i, x := range a {
		y := b[i]
		dot += float64(x) * float64(y)
		sqA += float64(x) * float64(x)
		sqB += float64(y) * float64(y)
	}
	if sqA == 0 || sqB == 0 {
		return 0, nil
	}
	return dot / math.Sqrt(sqA*sqB), nil
}

// magnitude is the Euclidean length of v.
func magnitude(v []float32) float64 {
	var sq float64
	for _, x := range v {
		sq += float64(x) * float64(x)
	}
	return math.Sqrt(sq)
}

// NormalizeL2 returns a unit-length copy of v. A zero vector is copied unchanged.
// v itself is never modified.
func NormalizeL2(v []float32) []float32 {
	out := append([]float32(nil), v...)
	m := magnitude(v)
	if m == 0 {
		return out
	}
	for i := range out {
		out[i] = float32(float64(out[i]) / m)
	}
	return out
}
