// Copyright 2025 Zintix Labs
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package matcher

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zintix-labs/patternlab/token"
	"github.com/zintix-labs/patternlab/transform"
)

// 最近的在前
var scenario = token.MustParse("A3O", "A4E", "B3O", "A3O", "A4E", "B3O", "B4E")

func offsets(ms []Match) []int {
	out := make([]int, 0, len(ms))
	for _, m := range ms {
		out = append(out, m.Offset)
	}
	return out
}

func TestScenarioIdentity(t *testing.T) {
	ms := Find(scenario, 3, transform.Must(transform.Identity), Options{})
	require.Len(t, ms, 1)
	assert.Equal(t, Match{
		Offset:      3,
		Predecessor: token.MustParse("B3O")[0],
		Successor:   token.MustParse("B4E")[0],
		Transform:   transform.Identity,
		Size:        3,
	}, ms[0])
}

func TestScenarioReverseOrderHasNoMatch(t *testing.T) {
	tf := transform.Must(transform.ReverseOrder)
	ms := Find(scenario, 3, tf, Options{})
	assert.Empty(t, ms)

	// 暴力驗證：沒有任何候選視窗等於變換後的 reference
	ref := tf.Apply(nil, scenario[:3])
	for i := 1; i <= len(scenario)-3; i++ {
		assert.False(t, scenario[i:i+3].Equal(ref), "offset %d", i)
	}
}

func TestMirrorSideMatch(t *testing.T) {
	seq := token.MustParse("A3O", "B4E", "B3O", "A4E", "A3E")
	ms := Find(seq, 2, transform.Must(transform.MirrorSide), Options{})
	require.Len(t, ms, 1)
	assert.Equal(t, 2, ms[0].Offset)
	assert.Equal(t, "B4E", ms[0].Predecessor.String())
	assert.Equal(t, "A3E", ms[0].Successor.String())

	assert.Empty(t, Find(seq, 2, transform.Must(transform.Identity), Options{}))
}

func TestEmptyWhenWindowTooLarge(t *testing.T) {
	seq := token.MustParse("A3O", "A4E", "B3O", "A3O")
	assert.Empty(t, Find(seq, 5, transform.Must(transform.Identity), Options{}))
	assert.Empty(t, Find(seq, 4, transform.Must(transform.Identity), Options{}))
	assert.Empty(t, Find(seq, 0, transform.Must(transform.Identity), Options{}))
	assert.Empty(t, Find(seq, 2, transform.Must(transform.Identity), Options{Reference: 3}))
	assert.Empty(t, Find(nil, 1, transform.Must(transform.Identity), Options{}))
}

func TestSuccessorNoneAtTail(t *testing.T) {
	seq := token.MustParse("A3O", "B3O", "A3O")
	ms := Find(seq, 1, transform.Must(transform.Identity), Options{})
	require.Len(t, ms, 1)
	assert.Equal(t, 2, ms[0].Offset)
	assert.Equal(t, "B3O", ms[0].Predecessor.String())
	assert.Equal(t, token.None, ms[0].Successor)
}

func TestModesAndOrder(t *testing.T) {
	seq := token.MustParse("A3O", "A3O", "A3O", "A3O", "A3O")
	id := transform.Must(transform.Identity)

	assert.Equal(t, []int{1, 3}, offsets(Find(seq, 2, id, Options{})))
	assert.Equal(t, []int{1, 2, 3}, offsets(Find(seq, 2, id, Options{AllowSelfOverlap: true})))
	assert.Equal(t, []int{3, 1}, offsets(Find(seq, 2, id, Options{Order: OldestFirst})))
	assert.Equal(t, []int{1}, offsets(Find(seq, 2, id, Options{Mode: FirstOnly})))
	assert.Equal(t, []int{3}, offsets(Find(seq, 2, id, Options{Mode: FirstOnly, Order: OldestFirst})))
}

func TestSkipAndReferenceOffset(t *testing.T) {
	seq := token.MustParse("B4E", "A3O", "A4E", "B4E", "A3O", "A4E", "B3E")
	id := transform.Must(transform.Identity)

	ms := Find(seq, 2, id, Options{Reference: 1})
	assert.Equal(t, []int{4}, offsets(ms))
	assert.Equal(t, "B4E", ms[0].Predecessor.String())
	assert.Equal(t, "B3E", ms[0].Successor.String())

	skipped := Find(seq, 2, id, Options{Reference: 1, Skip: func(start, size int) bool { return start == 4 }})
	assert.Empty(t, skipped)
}

func TestInvalidReferenceNeverMatches(t *testing.T) {
	seq := token.Sequence{token.Invalid, token.MustParse("A3O")[0], token.Invalid, token.MustParse("A3O")[0]}
	assert.Empty(t, Find(seq, 2, transform.Must(transform.Identity), Options{}))
}
