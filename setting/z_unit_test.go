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

package setting

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zintix-labs/patternlab/errs"
	"github.com/zintix-labs/patternlab/matcher"
	"github.com/zintix-labs/patternlab/rank"
	"github.com/zintix-labs/patternlab/transform"
)

const classic = `
id: ladder-classic
name: Ladder-Classic
sizes: [3, 4, 5, 6, 7]
transforms:
  - {name: identity, weight: 3}
  - {name: mirror-side, weight: 2}
  - {name: mirror-parity, weight: 2}
  - {name: mirror-both, weight: 1}
scan:
  self_overlap: true
rank:
  top_n: 5
  weighting: weighted
  positive_only: true
history:
  limit: 288
flow:
  enabled: true
  weight: 1
  damping: 0.5
long_run:
  enabled: true
  size: 20
  weight: 2
`

func TestByYAML(t *testing.T) {
	es, err := ByYAML([]byte(classic))
	require.NoError(t, err)
	assert.Equal(t, "ladder-classic", es.Name)
	assert.Equal(t, 5, es.Flow.Window)
	assert.Equal(t, matcher.Exhaustive, es.Mode())
	assert.Equal(t, matcher.NewestFirst, es.ScanOrder())
	assert.Equal(t, rank.Predecessor, es.Target())
	assert.Equal(t, rank.Predecessor, es.LongRunTarget())
	assert.Len(t, es.TransformSet(), 4)

	scans := es.Scans()
	require.Len(t, scans, 20)
	assert.Equal(t, 3, scans[0].Size)
	assert.Equal(t, 3.0, scans[0].EffectiveWeight())
	assert.Equal(t, transform.MirrorBoth, scans[3].Transform.Name())

	mo := es.MatcherOptions()
	assert.True(t, mo.AllowSelfOverlap)
	ro := es.RankOptions(100)
	assert.Equal(t, 100, ro.HistoryLen)
	assert.Equal(t, rank.Weighted, ro.Weighting)
}

func TestDefaultsWhenOmitted(t *testing.T) {
	es, err := ByYAML([]byte("id: tiny\nsizes: [2]\n"))
	require.NoError(t, err)
	assert.Len(t, es.TransformSet(), len(transform.Defaults()))
	assert.Equal(t, rank.Count, es.Rank.Weighting)
	assert.Equal(t, "tiny", es.Name)
}

func TestExplicitZeroWeight(t *testing.T) {
	es, err := ByYAML([]byte("id: z\nsizes: [3]\ntransforms: [{name: identity, weight: 3}, {name: mirror-side, weight: 0}, {name: mirror-both}]\n"))
	require.NoError(t, err)
	scans := es.Scans()
	require.Len(t, scans, 3)
	assert.Equal(t, 3.0, scans[0].EffectiveWeight())
	assert.Equal(t, 0.0, scans[1].EffectiveWeight())
	assert.Equal(t, 1.0, scans[2].EffectiveWeight())
	require.NotNil(t, es.Transforms[2].Weight)
	assert.Equal(t, 1.0, *es.Transforms[2].Weight)
}

func TestUnknownFieldsRejected(t *testing.T) {
	_, err := ByYAML([]byte("id: x\nsizes: [3]\nbogus: 1\n"))
	assert.Error(t, err)
	_, err = ByJSON([]byte(`{"id":"x","sizes":[3],"bogus":1}`))
	assert.Error(t, err)
}

func TestValidation(t *testing.T) {
	cases := map[string]string{
		"no id":           "sizes: [3]\n",
		"no sizes":        "id: x\n",
		"zero size":       "id: x\nsizes: [0]\n",
		"dup size":        "id: x\nsizes: [3, 3]\n",
		"bad transform":   "id: x\nsizes: [3]\ntransforms: [{name: rotate}]\n",
		"dup transform":   "id: x\nsizes: [3]\ntransforms: [{name: identity}, {name: IDENTITY}]\n",
		"neg weight":      "id: x\nsizes: [3]\ntransforms: [{name: identity, weight: -1}]\n",
		"bad mode":        "id: x\nsizes: [3]\nscan: {mode: sometimes}\n",
		"bad order":       "id: x\nsizes: [3]\nscan: {order: sideways}\n",
		"bad target":      "id: x\nsizes: [3]\nrank: {target: middle}\n",
		"bad weighting":   "id: x\nsizes: [3]\nrank: {weighting: magic}\n",
		"bad flow":        "id: x\nsizes: [3]\nflow: {enabled: true, window: 1}\n",
		"bad damping":     "id: x\nsizes: [3]\nflow: {enabled: true, damping: 2}\n",
		"bad long run":    "id: x\nsizes: [3]\nlong_run: {enabled: true}\n",
		"unknown prio":    "id: x\nsizes: [3]\nscan: {size_priority: {4: 1}}\n",
		"neg history":     "id: x\nsizes: [3]\nhistory: {limit: -1}\n",
		"bad raw order":   "id: x\nsizes: [3]\nhistory: {order: random}\n",
		"neg reference":   "id: x\nsizes: [3]\nscan: {reference: -1}\n",
		"negative top n":  "id: x\nsizes: [3]\nrank: {top_n: -2}\n",
		"bad tie break":   "id: x\nsizes: [3]\nrank: {tie_break: coin}\n",
		"bad lr target":   "id: x\nsizes: [3]\nlong_run: {enabled: true, size: 4, target: middle}\n",
	}
	for name, raw := range cases {
		_, err := ByYAML([]byte(raw))
		require.Error(t, err, name)
		assert.Equal(t, errs.Fatal, errs.Level(err), name)
	}
}

func TestByExt(t *testing.T) {
	es, err := ByExt("p.json", []byte(`{"id":"j","sizes":[3,4],"scan":{"mode":"first-only","order":"oldest-first"}}`))
	require.NoError(t, err)
	assert.Equal(t, matcher.FirstOnly, es.Mode())
	assert.Equal(t, matcher.OldestFirst, es.ScanOrder())

	_, err = ByExt("p.toml", nil)
	assert.Error(t, err)
}

func TestSizePriority(t *testing.T) {
	es, err := ByYAML([]byte("id: p\nsizes: [3, 6]\ntransforms: [{name: identity}]\nscan: {allocator: true, size_priority: {3: 10}}\n"))
	require.NoError(t, err)
	scans := es.Scans()
	assert.Equal(t, 10, scans[0].EffectivePriority())
	assert.Equal(t, 6, scans[1].EffectivePriority())
}
