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

// Package flow 分析最近幾局的走勢，並依走勢調整排名分數。
package flow

import (
	"math"

	"github.com/zintix-labs/patternlab/rank"
	"github.com/zintix-labs/patternlab/token"
)

// Info 最近 n 局的走勢（順序與序列相同，最近的在前）
type Info struct {
	Sides       []string `json:"sides" yaml:"sides,flow"`
	Counts      []int    `json:"counts" yaml:"counts,flow"`
	Parities    []string `json:"parities" yaml:"parities,flow"`
	Instability float64  `json:"instability" yaml:"instability"`
}

// Analyze 取最近 n 局；Invalid 以 "?" / 0 表示
func Analyze(seq token.Sequence, n int) Info {
	n = min(max(n, 0), len(seq))
	info := Info{
		Sides:    make([]string, 0, n),
		Counts:   make([]int, 0, n),
		Parities: make([]string, 0, n),
	}
	for _, v := range seq[:n] {
		if !v.IsValid() {
			info.Sides = append(info.Sides, "?")
			info.Counts = append(info.Counts, 0)
			info.Parities = append(info.Parities, "?")
			continue
		}
		s := v.String()
		info.Sides = append(info.Sides, s[:1])
		info.Counts = append(info.Counts, v.Count().Lines())
		info.Parities = append(info.Parities, s[2:])
	}
	info.Instability = Instability(seq, n)
	return info
}

// Instability 最近 n 局中相鄰兩局線數（3/4）改變的比例，四捨五入到小數 2 位。
// 含 Invalid 的一對視為改變；不足兩局回傳 0。
func Instability(seq token.Sequence, n int) float64 {
	n = min(n, len(seq))
	if n < 2 {
		return 0
	}
	changes := 0
	for i := 0; i+1 < n; i++ {
		a, b := seq[i], seq[i+1]
		if !a.IsValid() || !b.IsValid() || a.Count() != b.Count() {
			changes++
		}
	}
	return Round2(float64(changes) / float64(n-1))
}

// MatchFields 兩個 token 相同欄位的數量（0..3），任一方不合法時為 0
func MatchFields(a, b token.Token) int {
	if !a.IsValid() || !b.IsValid() {
		return 0
	}
	n := 0
	if a.Side() == b.Side() {
		n++
	}
	if a.Count() == b.Count() {
		n++
	}
	if a.Parity() == b.Parity() {
		n++
	}
	return n
}

// Adjust 走勢調整參數
type Adjust struct {
	// Weight 每個與最近一局相同的欄位加的分數
	Weight float64
	// Damping 不穩定度的折扣係數：score *= 1 - instability*Damping
	Damping float64
}

// Apply 就地調整分數：(score + Weight*MatchFields(tok, latest)) * (1 - instability*Damping)，
// 結果四捨五入到小數 2 位。
func (a Adjust) Apply(s *rank.Scores, latest token.Token, instability float64) {
	factor := 1 - instability*a.Damping
	all := token.All()
	for i, v := range all {
		s[i] = Round2((s[i] + a.Weight*float64(MatchFields(v, latest))) * factor)
	}
	// Invalid 槽沒有欄位可比對
	s[len(all)] = Round2(s[len(all)] * factor)
}

func Round2(x float64) float64 {
	return math.Round(x*100) / 100
}
