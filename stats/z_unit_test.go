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

package stats_test

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zintix-labs/patternlab/predlog"
	"github.com/zintix-labs/patternlab/stats"
	"github.com/zintix-labs/patternlab/token"
)

func tk(s string) token.Token { return token.MustParse(s)[0] }

func buildReport() *stats.AccuracyReport {
	r := stats.NewAccuracyReport("unit", 3)
	r.Record([]token.Token{tk("A3O"), tk("B4E")}, tk("A3O"))                       // top1 hit
	r.Record([]token.Token{tk("A3O"), tk("B4E"), tk("A4E")}, tk("A4E"))            // topk hit
	r.Record([]token.Token{tk("A3O"), tk("B4E"), tk("A4E"), tk("B3O")}, tk("B3O")) // 第 4 名不算
	r.Record(nil, tk("A3E"))                                                       // no prediction
	r.Record([]token.Token{tk("A3O")}, token.Invalid)                              // skipped
	r.Done()
	return r
}

func TestAccuracyCounts(t *testing.T) {
	r := buildReport()
	s := r.Summary
	assert.Equal(t, 4, s.Rounds)
	assert.Equal(t, 3, s.Predicted)
	assert.Equal(t, 1, s.NoPrediction)
	assert.Equal(t, 1, s.Skipped)
	assert.Equal(t, 1, s.Top1Hits)
	assert.Equal(t, 2, s.TopKHits)
	assert.InDelta(t, 1.0/3.0, s.Top1Rate, 1e-12)
	assert.InDelta(t, 0.75, s.Coverage, 1e-12)
	assert.Equal(t, 0.125, s.Baseline)
	assert.Equal(t, 0.375, s.BaselineK)
	assert.InDelta(t, 8.0/3.0, s.Lift, 1e-12)

	assert.Equal(t, 3, r.Dist.Predicted[tk("A3O").Index()])
	assert.Equal(t, 1, r.Dist.Hits[tk("A3O").Index()])
	assert.Equal(t, 1, r.Dist.Actual[tk("A3E").Index()])
}

func TestCIBounds(t *testing.T) {
	r := buildReport()
	ci := r.Summary.Top1CI
	assert.True(t, ci.Lo >= 0 && ci.Lo <= r.Summary.Top1Rate)
	assert.True(t, ci.Hi <= 1 && ci.Hi >= r.Summary.Top1Rate)

	p, c := stats.ProportionCI(0, 0)
	assert.Equal(t, 0.0, p)
	assert.Equal(t, stats.CI{Lo: 0, Hi: 1}, c)

	p, c = stats.ProportionCI(10, 10)
	assert.Equal(t, 1.0, p)
	assert.Equal(t, 1.0, c.Hi)
	assert.Less(t, c.Lo, 1.0)

	// 已知值：k=5, n=10 的 95% CP 區間約 [0.187, 0.813]
	_, c = stats.ProportionCI(5, 10)
	assert.InDelta(t, 0.1871, c.Lo, 1e-3)
	assert.InDelta(t, 0.8129, c.Hi, 1e-3)
}

func TestMerge(t *testing.T) {
	a := buildReport()
	b := buildReport()
	a.Merge(b)
	a.Done()
	assert.Equal(t, 8, a.Summary.Rounds)
	assert.Equal(t, 2, a.Summary.Top1Hits)
	assert.InDelta(t, 1.0/3.0, a.Summary.Top1Rate, 1e-12)
}

func TestEvaluateLog(t *testing.T) {
	entries := []predlog.Entry{
		{Round: 10, Profile: "p", Top: []string{"A3O", "B4E"}},
		{Round: 11, Profile: "p", Top: []string{"B4E"}},
		{Round: 12, Profile: "p", NoPrediction: true},
		{Round: 99, Profile: "p", Top: []string{"B4E"}}, // 沒有實際值
		{Round: 10, Profile: "q", Top: []string{"A3O"}},
	}
	labels := map[int]token.Token{10: tk("A3O"), 11: tk("A3O"), 12: tk("A4E")}

	r := stats.EvaluateLog(entries, labels, "p", 3)
	assert.Equal(t, 3, r.Summary.Rounds)
	assert.Equal(t, 2, r.Summary.Predicted)
	assert.Equal(t, 1, r.Summary.Top1Hits)

	all := stats.EvaluateLog(entries, labels, "", 1)
	assert.Equal(t, "all", all.Summary.Profile)
	assert.Equal(t, 4, all.Summary.Rounds)
	assert.Equal(t, 2, all.Summary.Top1Hits)
}

func TestRenders(t *testing.T) {
	r := buildReport()

	var jb bytes.Buffer
	require.NoError(t, r.WriteWith(&jb, stats.RenderByName("json")))
	var decoded map[string]any
	require.NoError(t, json.Unmarshal(jb.Bytes(), &decoded))
	assert.Contains(t, decoded, "Summary")

	var yb bytes.Buffer
	require.NoError(t, r.WriteWith(&yb, stats.RenderByName("yaml")))
	assert.Contains(t, yb.String(), "tokens: [A3O, A3E, A4O, A4E, B3O, B3E, B4O, B4E]")

	var tb bytes.Buffer
	require.NoError(t, r.WriteWith(&tb, stats.RenderByName("table")))
	lines := strings.Split(strings.TrimSpace(tb.String()), "\n")
	require.NotEmpty(t, lines)
	// 表格每一行等寬
	w := len(lines[0])
	for _, l := range lines[:12] {
		assert.Equal(t, w, len(l), l)
	}
	assert.Contains(t, tb.String(), "Top-3")

	assert.Nil(t, stats.RenderByName("xml"))
}

func TestCompare(t *testing.T) {
	a := buildReport()
	b := stats.NewAccuracyReport("better", 3)
	b.Record([]token.Token{tk("A3O")}, tk("A3O"))

	var buf bytes.Buffer
	require.NoError(t, stats.Compare(&buf, []*stats.AccuracyReport{a, nil, b}))
	out := buf.String()
	assert.Contains(t, out, "Compare")
	assert.Less(t, strings.Index(out, "| better"), strings.Index(out, "| unit"))
	assert.Contains(t, out, "top1 100.00%")
}
