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

// Package rank 把命中結果的目標鄰居彙總成排名。
package rank

import (
	"math"
	"sort"
	"strings"

	"github.com/zintix-labs/patternlab/alloc"
	"github.com/zintix-labs/patternlab/errs"
	"github.com/zintix-labs/patternlab/token"
)

// Target 要投票的鄰居欄位
type Target uint8

const (
	// Predecessor seq[i-1]：時間上緊接在命中之後出現的那一局
	Predecessor Target = iota
	// Successor seq[i+size]：時間上在命中之前的那一局
	Successor
)

func (t Target) String() string {
	if t == Successor {
		return "successor"
	}
	return "predecessor"
}

func ParseTarget(s string) (Target, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "predecessor", "pred":
		return Predecessor, nil
	case "successor", "succ":
		return Successor, nil
	}
	return 0, errs.Warnf("unknown target: %q", s)
}

// TieBreak 同分時的排序鍵
type TieBreak uint8

const (
	Canonical TieBreak = iota // token 固定順序
	FirstSeen                 // 依掃描順序第一次出現
)

func (t TieBreak) String() string {
	if t == FirstSeen {
		return "first-seen"
	}
	return "canonical"
}

func ParseTieBreak(s string) (TieBreak, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "canonical":
		return Canonical, nil
	case "first-seen", "first_seen", "firstseen":
		return FirstSeen, nil
	}
	return 0, errs.Warnf("unknown tie break: %q", s)
}

// Vote 一個命中貢獻的一票
type Vote struct {
	Token     token.Token
	Transform string
	Size      int
	Offset    int
	Weight    float64
}

// Slots 投票槽位：8 個合法 token 加上一個 Invalid（KeepInvalid 時使用）
const Slots = token.Size + 1

const invalidSlot = token.Size

func slot(v token.Token) int {
	if v.IsValid() {
		return v.Index()
	}
	return invalidSlot
}

func slotToken(i int) token.Token {
	if i == invalidSlot {
		return token.Invalid
	}
	return token.All()[i]
}

// Tally 單次請求的投票累計（請求結束即丟棄）
type Tally struct {
	Votes [Slots][]Vote
	// Total 計入排名的票數（不含 None，Invalid 視 KeepInvalid 而定）
	Total   int
	Matches int
	None    int
	Invalid int
	// HistoryLen 給 freshness 計算衰減
	HistoryLen int

	first [Slots]int
	seen  int
}

// Collect 依結果順序（即掃描順序）收集投票
func Collect(results []alloc.ScanResult, target Target, keepInvalid bool, historyLen int) *Tally {
	t := &Tally{HistoryLen: historyLen}
	for i := range t.first {
		t.first[i] = -1
	}
	for _, res := range results {
		w := res.Scan.EffectiveWeight()
		for _, m := range res.Matches {
			v := m.Predecessor
			if target == Successor {
				v = m.Successor
			}
			t.Matches++
			switch {
			case v == token.None:
				t.None++
				continue
			case !v.IsValid():
				t.Invalid++
				if !keepInvalid {
					continue
				}
			}
			idx := slot(v)
			t.Votes[idx] = append(t.Votes[idx], Vote{
				Token:     v,
				Transform: m.Transform,
				Size:      m.Size,
				Offset:    m.Offset,
				Weight:    w,
			})
			if t.first[idx] < 0 {
				t.first[idx] = t.seen
			}
			t.seen++
			t.Total++
		}
	}
	return t
}

// Count 某 token 的票數
func (t *Tally) Count(v token.Token) int {
	if v == token.None {
		return 0
	}
	return len(t.Votes[slot(v)])
}

// Distribution 票數正規化後的分佈（Total 為 0 時全為 0）
func (t *Tally) Distribution() []float64 {
	p := make([]float64, Slots)
	if t.Total == 0 {
		return p
	}
	for i := range t.Votes {
		p[i] = float64(len(t.Votes[i])) / float64(t.Total)
	}
	return p
}

// Detail 某 token 依 transform 名稱分組的票數
func (t *Tally) Detail(v token.Token) map[string]int {
	if v == token.None {
		return nil
	}
	out := make(map[string]int)
	for _, vote := range t.Votes[slot(v)] {
		out[vote.Transform]++
	}
	return out
}

// Scores 依 token 固定順序索引的分數，最後一格為 Invalid
type Scores [Slots]float64

// Add 把 bonus 加到某 token 上
func (s *Scores) Add(v token.Token, bonus float64) {
	if v == token.None {
		return
	}
	s[slot(v)] += bonus
}

// Get 取得某 token 的分數
func (s *Scores) Get(v token.Token) float64 {
	if v == token.None {
		return 0
	}
	return s[slot(v)]
}

// Score 以具名權重計算分數
func (t *Tally) Score(weighting string) (Scores, error) {
	w, ok := Lookup(weighting)
	if !ok {
		return Scores{}, errs.Warnf("unknown weighting: %q", weighting)
	}
	return w(t), nil
}

// Entry 排名中的一項
type Entry struct {
	Token  token.Token    `json:"token"`
	Score  float64        `json:"score"`
	Count  int            `json:"count"`
	Detail map[string]int `json:"detail,omitempty"`
}

// Ranking 彙總結果，建立後唯讀
type Ranking struct {
	Entries      []Entry `json:"entries"`
	NoPrediction bool    `json:"no_prediction"`
	Matches      int     `json:"matches"`
	Votes        int     `json:"votes"`
	// NoMatchRate 命中的目標為 None 的比例
	NoMatchRate  float64 `json:"no_match_rate"`
	InvalidCount int     `json:"invalid_count"`
	Weighting    string  `json:"weighting"`
}

// Top 第一名；NoPrediction 時回傳 None
func (r Ranking) Top() token.Token {
	if r.NoPrediction || len(r.Entries) == 0 {
		return token.None
	}
	return r.Entries[0].Token
}

// Tokens 前 k 名（k <= 0 表示全部）
func (r Ranking) Tokens(k int) []token.Token {
	n := len(r.Entries)
	if k > 0 && k < n {
		n = k
	}
	out := make([]token.Token, 0, n)
	for _, e := range r.Entries[:n] {
		out = append(out, e.Token)
	}
	return out
}

// Contains 前 k 名是否包含 v
func (r Ranking) Contains(v token.Token, k int) bool {
	for _, x := range r.Tokens(k) {
		if x == v {
			return true
		}
	}
	return false
}

type Options struct {
	Target      Target
	TopN        int // 0 表示全部
	TieBreak    TieBreak
	Weighting   string // 空字串為 count
	KeepInvalid bool
	// PositiveOnly 只保留分數 > 0 的 token
	PositiveOnly bool
	HistoryLen   int
}

// Order 依分數排名；只有得到票的 token 會進榜
func Order(t *Tally, s Scores, opt Options) Ranking {
	r := Ranking{
		Matches:      t.Matches,
		Votes:        t.Total,
		InvalidCount: t.Invalid,
		Weighting:    weightingName(opt.Weighting),
	}
	if t.Matches > 0 {
		r.NoMatchRate = float64(t.None) / float64(t.Matches)
	}

	entries := make([]Entry, 0, Slots)
	order := make([]int, 0, Slots)
	for i, votes := range t.Votes {
		if len(votes) == 0 {
			continue
		}
		sc := s[i]
		if math.IsNaN(sc) || (opt.PositiveOnly && sc <= 0) {
			continue
		}
		v := slotToken(i)
		entries = append(entries, Entry{Token: v, Score: sc, Count: len(votes), Detail: t.Detail(v)})
		order = append(order, i)
	}

	key := func(k int) int {
		if opt.TieBreak == FirstSeen {
			return t.first[order[k]]
		}
		return order[k]
	}
	idx := make([]int, len(entries))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		ea, eb := entries[idx[a]], entries[idx[b]]
		if ea.Score != eb.Score {
			return ea.Score > eb.Score
		}
		return key(idx[a]) < key(idx[b])
	})

	sorted := make([]Entry, 0, len(idx))
	for _, i := range idx {
		sorted = append(sorted, entries[i])
	}
	if opt.TopN > 0 && len(sorted) > opt.TopN {
		sorted = sorted[:opt.TopN]
	}
	r.Entries = sorted
	r.NoPrediction = len(sorted) == 0
	return r
}

// Aggregate = Collect + Score + Order
func Aggregate(results []alloc.ScanResult, opt Options) (Ranking, error) {
	t := Collect(results, opt.Target, opt.KeepInvalid, opt.HistoryLen)
	s, err := t.Score(weightingName(opt.Weighting))
	if err != nil {
		return Ranking{}, err
	}
	return Order(t, s, opt), nil
}

func weightingName(s string) string {
	if s == "" {
		return Count
	}
	return strings.ToLower(s)
}
