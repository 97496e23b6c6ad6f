package flow

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/zintix-labs/patternlab/rank"
	"github.com/zintix-labs/patternlab/token"
)

func TestInstability(t *testing.T) {
	seq := token.MustParse("A3O", "A4O", "B4E", "B3E", "B3O", "A4E")
	// 前 5 局：3->4 變, 4->4 不變, 4->3 變, 3->3 不變 => 2/4
	assert.Equal(t, 0.5, Instability(seq, 5))
	assert.Equal(t, 1.0, Instability(seq, 2))
	assert.Equal(t, 0.0, Instability(seq, 1))
	assert.Equal(t, 0.0, Instability(nil, 5))
	// 3 對中 2 對改變 => 0.67
	assert.Equal(t, 0.67, Instability(token.MustParse("A3O", "A4O", "A3O", "A3E"), 4))
}

func TestMatchFields(t *testing.T) {
	a := token.MustParse("A3O")[0]
	assert.Equal(t, 3, MatchFields(a, a))
	assert.Equal(t, 2, MatchFields(a, a.FlipSide()))
	assert.Equal(t, 0, MatchFields(a, a.FlipSide().FlipCount().FlipParity()))
	assert.Equal(t, 0, MatchFields(a, token.Invalid))
}

func TestAnalyze(t *testing.T) {
	seq := token.Sequence{token.MustParse("B4E")[0], token.Invalid, token.MustParse("A3O")[0]}
	info := Analyze(seq, 5)
	assert.Equal(t, []string{"B", "?", "A"}, info.Sides)
	assert.Equal(t, []int{4, 0, 3}, info.Counts)
	assert.Equal(t, []string{"E", "?", "O"}, info.Parities)
	assert.Equal(t, 1.0, info.Instability)
}

func TestAdjustApply(t *testing.T) {
	latest := token.MustParse("A3O")[0]
	var s rank.Scores
	s.Add(token.MustParse("A3E")[0], 4)
	s.Add(token.MustParse("B4E")[0], 1)

	Adjust{Weight: 1, Damping: 0.5}.Apply(&s, latest, 0.5)
	// (4 + 2) * 0.75
	assert.Equal(t, 4.5, s.Get(token.MustParse("A3E")[0]))
	// (1 + 0) * 0.75
	assert.Equal(t, 0.75, s.Get(token.MustParse("B4E")[0]))
	assert.Equal(t, 2.25, s.Get(latest))
}
