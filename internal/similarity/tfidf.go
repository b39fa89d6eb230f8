// Package similarity scores free-text closeness with a TF-IDF vector space.
package similarity

import (
	"errors"
	"math"
	"sort"
	"strings"
	"unicode"

	"github.com/spigell/talent-matcher/internal/utils"
)

// NeutralScore is returned when the texts cannot be vectorized.
const NeutralScore = 0.5

// ErrEmptyVocabulary is returned when no document yields a single term,
// for example when the texts are empty or contain only stop words.
var ErrEmptyVocabulary = errors.New("empty vocabulary: documents contain only stop words or no tokens")

// Vectorizer turns a small corpus into L2-normalized TF-IDF vectors.
// It holds configuration only and is safe for concurrent use.
type Vectorizer struct {
	MinN        int
	MaxN        int
	MaxFeatures int
	StopWords   map[string]struct{}
}

var defaultVectorizer = &Vectorizer{
	MinN:        1,
	MaxN:        2,
	MaxFeatures: 1000,
	StopWords:   englishStopWords,
}

// DefaultVectorizer uses unigrams and bigrams, English stop words and at most 1000 terms.
func DefaultVectorizer() *Vectorizer {
	return defaultVectorizer
}

// Similarity returns the cosine similarity of a and b rounded to 2 decimals,
// or NeutralScore when the pair cannot be vectorized.
func (v *Vectorizer) Similarity(a, b string) float64 {
	vectors, _, err := v.Vectorize(a, b)
	if err != nil {
		return NeutralScore
	}
	return utils.Round(Cosine(vectors[0], vectors[1]), 2)
}

// Similarity scores a and b with the default vectorizer.
func Similarity(a, b string) float64 {
	return defaultVectorizer.Similarity(a, b)
}

// Vectorize builds the vocabulary over docs and returns one dense vector per
// document together with the vocabulary, sorted alphabetically.
func (v *Vectorizer) Vectorize(docs ...string) ([][]float64, []string, error) {
	counts := make([]map[string]int, len(docs))
	corpus := make(map[string]int)
	df := make(map[string]int)

	for i, doc := range docs {
		counts[i] = make(map[string]int)
		for _, term := range v.terms(doc) {
			counts[i][term]++
			corpus[term]++
		}
		for term := range counts[i] {
			df[term]++
		}
	}

	if len(corpus) == 0 {
		return nil, nil, ErrEmptyVocabulary
	}

	vocabulary := v.limit(corpus)
	index := make(map[string]int, len(vocabulary))
	for i, term := range vocabulary {
		index[term] = i
	}

	n := float64(len(docs))
	idf := make([]float64, len(vocabulary))
	for i, term := range vocabulary {
		idf[i] = math.Log((1+n)/(1+float64(df[term]))) + 1
	}

	vectors := make([][]float64, len(docs))
	for i := range docs {
		vec := make([]float64, len(vocabulary))
		for term, count := range counts[i] {
			if j, ok := index[term]; ok {
				vec[j] = float64(count) * idf[j]
			}
		}
		normalize(vec)
		vectors[i] = vec
	}

	return vectors, vocabulary, nil
}

// limit keeps the MaxFeatures most frequent terms, ties broken alphabetically,
// and returns them in alphabetical order.
func (v *Vectorizer) limit(corpus map[string]int) []string {
	terms := make([]string, 0, len(corpus))
	for term := range corpus {
		terms = append(terms, term)
	}

	if v.MaxFeatures > 0 && len(terms) > v.MaxFeatures {
		sort.Slice(terms, func(i, j int) bool {
			if corpus[terms[i]] != corpus[terms[j]] {
				return corpus[terms[i]] > corpus[terms[j]]
			}
			return terms[i] < terms[j]
		})
		terms = terms[:v.MaxFeatures]
	}

	sort.Strings(terms)
	return terms
}

// terms tokenizes doc and expands the surviving tokens into n-grams.
func (v *Vectorizer) terms(doc string) []string {
	tokens := tokenize(doc)
	if len(v.StopWords) > 0 {
		kept := tokens[:0]
		for _, t := range tokens {
			if _, stop := v.StopWords[t]; !stop {
				kept = append(kept, t)
			}
		}
		tokens = kept
	}

	minN, maxN := max(v.MinN, 1), max(v.MaxN, 1)
	out := make([]string, 0, len(tokens)*(maxN-minN+1))
	for n := minN; n <= maxN; n++ {
		for i := 0; i+n <= len(tokens); i++ {
			out = append(out, strings.Join(tokens[i:i+n], " "))
		}
	}
	return out
}

// tokenize lower-cases s and returns runs of at least two word runes.
func tokenize(s string) []string {
	var tokens []string
	fields := strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !isWordRune(r)
	})
	for _, f := range fields {
		if len([]rune(f)) >= 2 {
			tokens = append(tokens, f)
		}
	}
	return tokens
}

func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsMark(r)
}

func normalize(vec []float64) {
	var sum float64
	for _, x := range vec {
		sum += x * x
	}
	if sum == 0 {
		return
	}
	norm := math.Sqrt(sum)
	for i := range vec {
		vec[i] /= norm
	}
}

// Cosine returns the cosine of the angle between a and b, 0 when either is a zero vector.
func Cosine(a, b []float64) float64 {
	var dot, na, nb float64
	for i := range a {
		dot += a[i] * b[i]
		na += a[i] * a[i]
		nb += b[i] * b[i]
	}
	if na == 0 || nb == 0 {
		return 0
	}
	c := dot / (math.Sqrt(na) * math.Sqrt(nb))
	return min(max(c, 0), 1)
}
