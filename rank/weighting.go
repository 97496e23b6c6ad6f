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

package rank

import (
	"math"
	"sort"
	"strings"
	"sync"

	"github.com/zintix-labs/patternlab/errs"
	"gonum.org/v1/gonum/stat"
)

// Weighting 把一次請求的投票轉成分數
type Weighting func(t *Tally) Scores

const (
	Count      = "count"
	Normalized = "normalized"
	Weighted   = "weighted"
	Freshness  = "freshness"
	Entropy    = "entropy"
)

var (
	weightingsMu sync.RWMutex
	weightings   = map[string]Weighting{
		Count:      byCount,
		Normalized: byNormalized,
		Weighted:   byWeight,
		Freshness:  byFreshness,
		Entropy:    byEntropy,
	}
)

// Register 新增具名權重；名稱重複回傳錯誤
func Register(name string, w Weighting) error {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" || w == nil {
		return errs.NewWarn("weighting name and func are required")
	}
	weightingsMu.Lock()
	defer weightingsMu.Unlock()
	if _, dup := weightings[name]; dup {
		return errs.Warnf("weighting %q already registered", name)
	}
	weightings[name] = w
	return nil
}

func Lookup(name string) (Weighting, bool) {
	weightingsMu.RLock()
	defer weightingsMu.RUnlock()
	w, ok := weightings[weightingName(name)]
	return w, ok
}

// Weightings 已註冊的名稱（排序後）
func Weightings() []string {
	weightingsMu.RLock()
	defer weightingsMu.RUnlock()
	out := make([]string, 0, len(weightings))
	for k := range weightings {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func byCount(t *Tally) Scores {
	var s Scores
	for i, v := range t.Votes {
		s[i] = float64(len(v))
	}
	return s
}

func byNormalized(t *Tally) Scores {
	var s Scores
	for i, p := range t.Distribution() {
		s[i] = p
	}
	return s
}

// byWeight 每票以所屬掃描的權重計分（ladder-classic 為 3/2/2/1）
func byWeight(t *Tally) Scores {
	var s Scores
	for i, votes := range t.Votes {
		for _, v := range votes {
			s[i] += v.Weight
		}
	}
	return s
}

// byFreshness normalized x 平均新鮮度；offset 越小（越近）越接近 1
func byFreshness(t *Tally) Scores {
	s := byNormalized(t)
	n := t.HistoryLen
	if n <= 0 {
		return s
	}
	for i, votes := range t.Votes {
		if len(votes) == 0 {
			continue
		}
		var fresh float64
		for _, v := range votes {
			fresh += 1 - float64(v.Offset)/float64(n)
		}
		s[i] *= fresh / float64(len(votes))
	}
	return s
}

// byEntropy normalized x (1 - H/Hmax)；分佈越集中，分數越接近 normalized
func byEntropy(t *Tally) Scores {
	p := t.Distribution()
	h := stat.Entropy(p)
	hmax := math.Log(float64(len(p) - 1))
	k := 1.0
	if hmax > 0 {
		k = 1 - h/hmax
	}
	if k < 0 {
		k = 0
	}
	var s Scores
	for i := range p {
		s[i] = p[i] * k
	}
	return s
}
