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

package alloc

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zintix-labs/patternlab/matcher"
	"github.com/zintix-labs/patternlab/token"
	"github.com/zintix-labs/patternlab/transform"
)

// randomSeq 使用小字母表提高命中率
func randomSeq(r *rand.Rand, n int, alphabet int) token.Sequence {
	all := token.All()
	seq := make(token.Sequence, n)
	for i := range seq {
		seq[i] = all[r.IntN(alphabet)]
	}
	return seq
}

func TestOverlaps(t *testing.T) {
	assert.True(t, Overlaps(0, 3, 2, 3))
	assert.False(t, Overlaps(0, 3, 3, 3))
	assert.True(t, Overlaps(5, 1, 3, 3))
	assert.False(t, Overlaps(5, 1, 6, 1))
}

func TestNonOverlapInvariant(t *testing.T) {
	r := rand.New(rand.NewPCG(7, 11))
	scans := Scans([]int{3, 4, 5, 6}, transform.Defaults(), nil)

	for trial := 0; trial < 50; trial++ {
		seq := randomSeq(r, 300, 2+trial%3)
		results := Run(seq, scans, Options{})

		owner := make(map[int]int) // index -> result idx
		for ri, res := range results {
			for _, m := range res.Matches {
				for i := m.Offset; i < m.End(); i++ {
					prev, taken := owner[i]
					if taken && prev != ri {
						t.Fatalf("trial %d: index %d claimed by scan %d and %d", trial, i, prev, ri)
					}
					owner[i] = ri
				}
			}
		}
	}
}

func TestPriorityOrderIsDescendingSize(t *testing.T) {
	scans := Scans([]int{3, 6, 4, 5}, []transform.Transform{transform.Must(transform.Identity)}, nil)
	results := Run(token.MustParse("A3O", "A3O"), scans, Options{})
	var sizes []int
	for _, r := range results {
		sizes = append(sizes, r.Scan.Size)
	}
	assert.Equal(t, []int{6, 5, 4, 3}, sizes)

	custom := []ScanRequest{
		{Size: 3, Transform: transform.Must(transform.Identity), Priority: 100},
		{Size: 6, Transform: transform.Must(transform.Identity)},
	}
	assert.Equal(t, 3, Sort(custom)[0].Size)
}

func TestLongerWindowClaimsFirst(t *testing.T) {
	// 序列：前 4 個與 index 4..7 相同，長視窗命中後短視窗不能再用同一段
	seq := token.MustParse("A3O", "B4E", "A4O", "B3E", "A3O", "B4E", "A4O", "B3E", "A3E")
	id := transform.Must(transform.Identity)
	scans := []ScanRequest{{Size: 2, Transform: id}, {Size: 4, Transform: id}}

	results := Run(seq, scans, Options{})
	require.Len(t, results, 2)
	require.Equal(t, 4, results[0].Scan.Size)
	require.Len(t, results[0].Matches, 1)
	assert.Equal(t, 4, results[0].Matches[0].Offset)
	assert.Empty(t, results[1].Matches)

	shared := Run(seq, scans, Options{Shared: true})
	assert.Len(t, shared[1].Matches, 1)
}

func TestBaseSkipIsHonoured(t *testing.T) {
	seq := token.MustParse("A3O", "B4E", "A3O", "B4E", "A3O", "B4E")
	id := transform.Must(transform.Identity)
	base := matcher.Options{Skip: func(start, size int) bool { return start == 2 }}
	res := Run(seq, []ScanRequest{{Size: 2, Transform: id}}, Options{Base: base})
	require.Len(t, res[0].Matches, 1)
	assert.Equal(t, 4, res[0].Matches[0].Offset)
}

func TestPreClaimedIndicesAreSkipped(t *testing.T) {
	seq := token.MustParse("A3O", "B4E", "A3O", "B4E", "A3O", "B4E")
	id := transform.Must(transform.Identity)
	claimed := NewClaimedSet(len(seq))
	claimed.Claim(4, 2)

	res := Run(seq, []ScanRequest{{Size: 2, Transform: id}}, Options{Claimed: claimed})
	require.Len(t, res[0].Matches, 1)
	assert.Equal(t, 2, res[0].Matches[0].Offset)
	assert.Equal(t, 4, claimed.Len())
}

func TestClaimedSet(t *testing.T) {
	c := NewClaimedSet(5)
	c.Claim(3, 4)
	c.Claim(4, 1)
	assert.Equal(t, 2, c.Len())
	assert.True(t, c.Contains(4))
	assert.False(t, c.Contains(5))
	assert.True(t, c.Overlaps(0, 4))
	assert.False(t, c.Overlaps(0, 3))
}

func TestEffectiveDefaults(t *testing.T) {
	s := ScanRequest{Size: 5}
	assert.Equal(t, 5, s.EffectivePriority())
	assert.Equal(t, 1.0, s.EffectiveWeight())
	w := Scans([]int{3}, transform.Defaults(), map[string]float64{transform.Identity: 3, transform.MirrorSide: 0})
	assert.Equal(t, 3.0, w[0].EffectiveWeight())
	assert.Equal(t, 0.0, w[1].EffectiveWeight())
	assert.Equal(t, 1.0, w[2].EffectiveWeight())
}
