package vector

import "math"

// Normalize normalizes a vector to unit length.
// Returns a new vector. If the input is a zero vector, returns a zero vector.
func Normalize(v []float32) []float32 {
	if len(v) == 0 {
		return v
	}

	magnitude := Norm(v)

	// Can't normalize zero vector
	if magnitude == 0 {
		return make([]float32, len(v))
	}

	result := make([]float32, len(v))
	for i, val := range v {
		result[i] = val / magnitude
	}
	return result
}

// Norm returns the Euclidean length of v.
func Norm(v []float32) float32 {
	var sum float64
	for _, val := range v {
		sum += float64(val) * float64(val)
	}
	return float32(math.Sqrt(sum))
}

// Dot returns the dot product of two equal-length vectors.
func Dot(a, b []float32) float32 {
	var sum float64
	n := min(len(a), len(b))
	for i := 0; i < n; i++ {
		sum += float64(a[i]) * float64(b[i])
	}
	return float32(sum)
}

// Cosine computes the cosine similarity between two vectors.
// Returns a value in [-1, 1]. Mismatched lengths and zero vectors yield 0.
func Cosine(a, b []float32) float32 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}

	sim := dot / (math.Sqrt(normA) * math.Sqrt(normB))
	// clamp rounding drift
	return float32(math.Max(-1, math.Min(1, sim)))
}

// Matrix is a dense similarity matrix; Matrix[i][j] compares row i to column j.
type Matrix [][]float32

// Similarity builds the cosine similarity matrix between rows and cols.
func Similarity[V ~[]float32](rows, cols []V) Matrix {
	m := make(Matrix, len(rows))
	for i, r := range rows {
		m[i] = make([]float32, len(cols))
		for j, c := range cols {
			m[i][j] = Cosine(r, c)
		}
	}
	return m
}

// Rows returns the number of rows.
func (m Matrix) Rows() int {
	return len(m)
}

// ColumnMax returns the maximum value in column j and whether any row exists.
func (m Matrix) ColumnMax(j int) (float32, bool) {
	if len(m) == 0 {
		return 0, false
	}
	best := float32(math.Inf(-1))
	found := false
	for _, row := range m {
		if j >= len(row) {
			continue
		}
		if row[j] > best {
			best = row[j]
		}
		found = true
	}
	return best, found
}
