package recognize_test

import (
	"math"
	"testing"

	"face-attend/internal/model/roster_model"
	"face-attend/internal/recognize"

	"github.com/pgvector/pgvector-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func vec(vals ...float32) []float32 { return vals }

func Test_Distance(t *testing.T) {

	tests := []struct {
		name    string
		a       []float32
		b       []float32
		want    float64
		wantInf bool
	}{
		{name: "identical", a: vec(1, 2, 3), b: vec(1, 2, 3), want: 0},
		{name: "pythagorean", a: vec(0, 0), b: vec(3, 4), want: 5},
		{name: "unit apart", a: vec(0), b: vec(1), want: 1},
		{name: "dimension mismatch", a: vec(1, 2), b: vec(1, 2, 3), wantInf: true},
		{name: "empty vectors", a: nil, b: nil, wantInf: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := recognize.Distance(tt.a, tt.b)
			if tt.wantInf {
				assert.True(t, math.IsInf(got, 1))
				return
			}
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}
}

func Test_Matcher_Classify(t *testing.T) {

	byIdentity := map[string][][]float32{
		"s1": {vec(0, 0), vec(10, 10)},
		"s2": {vec(0.9, 0)},
	}

	m := recognize.NewMatcher(byIdentity, 0.6)

	tests := []struct {
		name     string
		probe    []float32
		wantKey  string
		wantDist float64
		wantOk   bool
	}{
		{"nearest within threshold", vec(0.4, 0), "s1", 0.4, true},
		{"runner-up loses", vec(0.6, 0), "s2", 0.3, true},
		{"above threshold", vec(5, 5), "", 0, false},
		{"probe dimension mismatch", vec(1), "", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			key, dist, ok := m.Classify(tt.probe)
			require.Equal(t, tt.wantOk, ok)
			assert.Equal(t, tt.wantKey, key)
			if tt.wantOk {
				assert.InDelta(t, tt.wantDist, dist, 1e-6)
			}
		})
	}
}

func Test_Matcher_Classify_Deterministic(t *testing.T) {

	m := recognize.NewMatcher(map[string][][]float32{
		"s1": {vec(0, 0)},
		"s2": {vec(1, 1)},
	}, 0.6)

	probe := vec(0.1, 0)

	firstKey, firstDist, ok := m.Classify(probe)
	require.True(t, ok)

	for i := 0; i < 10; i++ {
		key, dist, ok := m.Classify(probe)
		require.True(t, ok)
		assert.Equal(t, firstKey, key)
		assert.Equal(t, firstDist, dist)
	}
}

func Test_Matcher_Classify_TieBreak(t *testing.T) {

	// Two identities at the exact same distance from the probe: the
	// lexicographically smallest key must win, regardless of map order.
	byIdentity := map[string][][]float32{
		"zz": {vec(0, 1)},
		"aa": {vec(0, -1)},
		"mm": {vec(0, 1)},
	}

	for i := 0; i < 20; i++ {
		m := recognize.NewMatcher(byIdentity, 1.5)
		key, dist, ok := m.Classify(vec(0, 0))
		require.True(t, ok)
		assert.Equal(t, "aa", key)
		assert.InDelta(t, 1.0, dist, 1e-9)
	}
}

func Test_NewMatcher_SkipsMalformedEmbeddings(t *testing.T) {

	// Empty vectors are dropped at build time; an identity with nothing
	// left contributes no candidate at all.
	byIdentity := map[string][][]float32{
		"alpha":     {vec(0, 0), vec(1, 1)},
		"corrupted": {nil, nil},
		"zeta":      {vec(5, 5), nil},
	}

	m := recognize.NewMatcher(byIdentity, 0.6)

	assert.Equal(t, 2, m.Len())

	key, _, ok := m.Classify(vec(5.1, 5))
	require.True(t, ok)
	assert.Equal(t, "zeta", key)
}

func Test_NewMatcher_CorruptRecordSortingFirstDoesNotBlockRoster(t *testing.T) {

	// A truncated stored embedding whose identity key sorts before every
	// valid one must not define an expected dimension for the index: the
	// rest of the roster still matches, and the truncated record itself
	// sits at +Inf from any probe.
	valid := make([]float32, 128)
	probe := make([]float32, 128)
	probe[0] = 0.1

	byIdentity := map[string][][]float32{
		"aaa-corrupt": {vec(1, 2, 3)},
		"bbb-valid":   {valid},
	}

	m := recognize.NewMatcher(byIdentity, 0.6)

	assert.Equal(t, 2, m.Len())

	key, dist, ok := m.Classify(probe)
	require.True(t, ok)
	assert.Equal(t, "bbb-valid", key)
	assert.InDelta(t, 0.1, dist, 1e-6)
}

func Test_NewMatcher_DefaultThreshold(t *testing.T) {
	m := recognize.NewMatcher(nil, 0)
	assert.Equal(t, recognize.DefaultThreshold, m.Threshold())

	_, _, ok := m.Classify(vec(0, 0))
	assert.False(t, ok)
}

func Test_GroupByIdentity(t *testing.T) {

	embeddings := []roster_model.Embedding{
		{IdentityKey: "s1", Vector: pgvector.NewVector(vec(1, 2))},
		{IdentityKey: "s2", Vector: pgvector.NewVector(vec(3, 4))},
		{IdentityKey: "s1", Vector: pgvector.NewVector(vec(5, 6))},
	}

	grouped := recognize.GroupByIdentity(embeddings)

	require.Len(t, grouped, 2)
	assert.Equal(t, [][]float32{{1, 2}, {5, 6}}, grouped["s1"])
	assert.Equal(t, [][]float32{{3, 4}}, grouped["s2"])
}
