package tfidf

// Vector is a sparse vector with Indices sorted ascending. Values produced
// by Transform are L2-normalized, so a dot product between two vectors is
// their cosine similarity.
type Vector struct {
	Indices []int
	Values  []float64
}

// IsZero reports whether the vector has no nonzero components.
func (v Vector) IsZero() bool { return len(v.Indices) == 0 }

// Dot returns the dot product of two sparse vectors.
func (v Vector) Dot(other Vector) float64 {
	var dot float64
	i, j := 0, 0
	for i < len(v.Indices) && j < len(other.Indices) {
		switch {
		case v.Indices[i] == other.Indices[j]:
			dot += v.Values[i] * other.Values[j]
			i++
			j++
		case v.Indices[i] < other.Indices[j]:
			i++
		default:
			j++
		}
	}
	return dot
}

// Matrix is a sparse document-term matrix, one row per document.
type Matrix struct {
	RowVectors []Vector
}

// Rows returns the number of document rows.
func (m *Matrix) Rows() int { return len(m.RowVectors) }

// CosineSimilarities returns the cosine similarity of query against every
// row, in row order. Rows and queries are unit vectors, so this is a plain
// dot product per row.
func (m *Matrix) CosineSimilarities(query Vector) []float64 {
	scores := make([]float64, len(m.RowVectors))
	if query.IsZero() {
		return scores
	}
	for i, row := range m.RowVectors {
		scores[i] = query.Dot(row)
	}
	return scores
}

// Model is one trained sub-model: the fitted vectorizer, the document-term
// matrix, and the post ids aligned 1:1 with matrix rows.
type Model struct {
	Vectorizer *Vectorizer
	Matrix     *Matrix
	PostIDs    []int
}
