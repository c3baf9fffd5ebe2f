// Package recognize implements the nearest-embedding classifier used for
// both enrollment consistency checks and attendance matching.
package recognize

import (
	"log"
	"math"
	"sort"

	"face-attend/internal/model/roster_model"
)

// DefaultThreshold is the maximum embedding distance at which two faces
// are considered the same person.
const DefaultThreshold = 0.6

// Distance calculates the Euclidean distance between two face embeddings.
// Lower distance means more similar faces. Returns +Inf for mismatched
// dimensions so a malformed pair can never satisfy a threshold.
func Distance(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return math.Inf(1)
	}

	var sum float64
	for i := range a {
		diff := float64(a[i]) - float64(b[i])
		sum += diff * diff
	}
	return math.Sqrt(sum)
}

// candidate holds one identity's stored vectors.
type candidate struct {
	key     string
	vectors [][]float32
}

// Matcher classifies probe embeddings against a fixed roster of stored
// embeddings. It is immutable after construction and safe for concurrent
// use.
type Matcher struct {
	threshold  float64
	candidates []candidate
}

// NewMatcher builds a matcher over per-identity embedding sets. Candidates
// are ordered by identity key so that exact-distance ties always resolve
// to the lexicographically smallest key. Empty vectors are skipped with a
// warning; vectors whose dimension disagrees with the probe can never
// satisfy the threshold because Distance returns +Inf for them. One
// corrupt record must not block matching for the rest of the roster, so
// no record is ever allowed to define the expected dimension for the
// others.
func NewMatcher(byIdentity map[string][][]float32, threshold float64) *Matcher {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}

	m := &Matcher{threshold: threshold}

	keys := make([]string, 0, len(byIdentity))
	for key := range byIdentity {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		var kept [][]float32
		for i, vec := range byIdentity[key] {
			if len(vec) == 0 {
				log.Printf("skipping empty embedding %d for identity %s", i, key)
				continue
			}
			kept = append(kept, vec)
		}
		if len(kept) > 0 {
			m.candidates = append(m.candidates, candidate{key: key, vectors: kept})
		}
	}

	return m
}

// Threshold returns the configured match threshold.
func (m *Matcher) Threshold() float64 { return m.threshold }

// Len returns the number of identities with at least one usable embedding.
func (m *Matcher) Len() int { return len(m.candidates) }

// Classify finds the identity whose nearest stored embedding is closest to
// the probe. It returns ok=false when no identity comes within the
// threshold. Nearest-neighbor over each identity's embedding set, not a
// centroid.
func (m *Matcher) Classify(probe []float32) (identityKey string, distance float64, ok bool) {

	best := math.Inf(1)
	bestKey := ""

	for _, cand := range m.candidates {
		for _, vec := range cand.vectors {
			if d := Distance(probe, vec); d < best {
				best = d
				bestKey = cand.key
			}
		}
	}

	if bestKey == "" || best > m.threshold {
		return "", 0, false
	}

	return bestKey, best, true
}

// GroupByIdentity adapts stored embedding rows to the matcher's input
// shape, grouping raw vectors by their owning identity.
func GroupByIdentity(embeddings []roster_model.Embedding) map[string][][]float32 {
	byIdentity := make(map[string][][]float32)
	for _, emb := range embeddings {
		byIdentity[emb.IdentityKey] = append(byIdentity[emb.IdentityKey], emb.Vector.Slice())
	}
	return byIdentity
}
