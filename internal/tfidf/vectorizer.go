// Package tfidf implements a TF-IDF vectorizer with a sparse document-term
// matrix and cosine similarity over L2-normalized rows.
package tfidf

import (
	"errors"
	"math"
	"regexp"
	"sort"
	"strings"

	"github.com/tailorck/parqr/pkg/utils"
)

// ErrEmptyCorpus is returned by Fit when no document yields any tokens.
var ErrEmptyCorpus = errors.New("empty corpus")

var tokenPattern = regexp.MustCompile(`\p{L}+(?:['’]\p{L}+)*`)

// Vectorizer maps text into a fixed TF-IDF vector space. Fields are exported
// so the fitted model round-trips through encoding/gob.
type Vectorizer struct {
	Vocabulary map[string]int
	IDF        []float64
}

// Fit builds a vectorizer from the corpus: case-folded word tokens with
// English stop-words removed, vocabulary in stable sorted order, and
// smoothed IDF values.
func Fit(corpus []string) (*Vectorizer, error) {
	if len(corpus) == 0 {
		return nil, ErrEmptyCorpus
	}

	df := make(map[string]int)
	for _, text := range corpus {
		seen := make(map[string]struct{})
		for _, tok := range tokenize(text) {
			if _, ok := seen[tok]; ok {
				continue
			}
			seen[tok] = struct{}{}
			df[tok]++
		}
	}
	if len(df) == 0 {
		return nil, ErrEmptyCorpus
	}

	terms := make([]string, 0, len(df))
	for term := range df {
		terms = append(terms, term)
	}
	sort.Strings(terms)

	v := &Vectorizer{
		Vocabulary: make(map[string]int, len(terms)),
		IDF:        make([]float64, len(terms)),
	}
	n := float64(len(corpus))
	for i, term := range terms {
		v.Vocabulary[term] = i
		// Smoothed IDF: log((1+N)/(1+df)) + 1
		v.IDF[i] = math.Log((1+n)/(1+float64(df[term]))) + 1.0
	}
	return v, nil
}

// Dimension returns the size of the vector space.
func (v *Vectorizer) Dimension() int { return len(v.IDF) }

// Transform converts text into an L2-normalized sparse TF-IDF vector.
// Text with no in-vocabulary tokens yields an empty vector.
func (v *Vectorizer) Transform(text string) Vector {
	tf := make(map[int]int)
	total := 0
	for _, tok := range tokenize(text) {
		if idx, ok := v.Vocabulary[tok]; ok {
			tf[idx]++
			total++
		}
	}
	if total == 0 {
		return Vector{}
	}

	indices := make([]int, 0, len(tf))
	for idx := range tf {
		indices = append(indices, idx)
	}
	sort.Ints(indices)

	vec := Vector{
		Indices: indices,
		Values:  make([]float64, len(indices)),
	}
	for i, idx := range indices {
		vec.Values[i] = float64(tf[idx]) / float64(total) * v.IDF[idx]
	}
	utils.NormalizeL2(vec.Values)
	return vec
}

// FitTransform fits a vectorizer on the corpus and transforms every document
// into a matrix row, in corpus order.
func FitTransform(corpus []string) (*Vectorizer, *Matrix, error) {
	v, err := Fit(corpus)
	if err != nil {
		return nil, nil, err
	}
	m := &Matrix{RowVectors: make([]Vector, len(corpus))}
	for i, text := range corpus {
		m.RowVectors[i] = v.Transform(text)
	}
	return v, m, nil
}

func tokenize(text string) []string {
	raw := tokenPattern.FindAllString(strings.ToLower(text), -1)
	out := raw[:0]
	for _, t := range raw {
		if _, stop := englishStopwords[t]; stop {
			continue
		}
		out = append(out, t)
	}
	return out
}
