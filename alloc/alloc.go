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

// Package alloc 在同一份序列上依優先序執行多個掃描，並保證
// 同一次請求中任何歷史 index 只會歸屬於一個 (size, transform) 掃描。
package alloc

import (
	"sort"

	"github.com/zintix-labs/patternlab/matcher"
	"github.com/zintix-labs/patternlab/token"
	"github.com/zintix-labs/patternlab/transform"
)

// ScanRequest 一個掃描請求
type ScanRequest struct {
	Size      int
	Transform transform.Transform
	// Priority 越大越先執行；0 代表使用 Size（長視窗先認領）
	Priority int
	// Weight 給 Aggregator 的 weighted 計分用；nil 代表 1，明確的 0 讓這個掃描不計分
	Weight *float64
}

// Weight 取址，方便組 ScanRequest
func Weight(w float64) *float64 { return &w }

func (s ScanRequest) EffectivePriority() int {
	if s.Priority == 0 {
		return s.Size
	}
	return s.Priority
}

func (s ScanRequest) EffectiveWeight() float64 {
	if s.Weight == nil {
		return 1
	}
	return *s.Weight
}

// ScanResult 一個掃描的結果；Matches 已經過認領過濾
type ScanResult struct {
	Scan    ScanRequest
	Matches []matcher.Match
}

// Options Base 的 Skip 會與 claimed set 合併
type Options struct {
	Base matcher.Options
	// Shared 為 true 時各掃描互不影響（逐 size 各自累計），不建立 claimed set
	Shared bool
	// Claimed 由呼叫端先行認領的 index（例如更高優先序的掃描）；nil 時建立新的
	Claimed *ClaimedSet
}

// Overlaps 兩個半開區間 [a, a+alen) 與 [b, b+blen) 是否相交
func Overlaps(a, alen, b, blen int) bool {
	return max(a, b) < min(a+alen, b+blen)
}

// ClaimedSet 請求範圍內的已認領 index；只增不減，請求結束即丟棄
type ClaimedSet struct {
	bits  []bool
	count int
}

func NewClaimedSet(n int) *ClaimedSet {
	return &ClaimedSet{bits: make([]bool, max(n, 0))}
}

// Overlaps [start, start+size) 是否含有已認領的 index
func (c *ClaimedSet) Overlaps(start, size int) bool {
	lo, hi := max(start, 0), min(start+size, len(c.bits))
	for i := lo; i < hi; i++ {
		if c.bits[i] {
			return true
		}
	}
	return false
}

func (c *ClaimedSet) Claim(start, size int) {
	lo, hi := max(start, 0), min(start+size, len(c.bits))
	for i := lo; i < hi; i++ {
		if !c.bits[i] {
			c.bits[i] = true
			c.count++
		}
	}
}

func (c *ClaimedSet) Contains(i int) bool {
	return i >= 0 && i < len(c.bits) && c.bits[i]
}

// Len 已認領的 index 數量
func (c *ClaimedSet) Len() int { return c.count }

// Sort 依有效優先序由高到低穩定排序（不修改輸入）
func Sort(scans []ScanRequest) []ScanRequest {
	out := append([]ScanRequest(nil), scans...)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].EffectivePriority() > out[j].EffectivePriority()
	})
	return out
}

// Run 依優先序執行所有掃描。
//
// 每個掃描完成後，才把它所有命中涵蓋的 index 加入 claimed set，
// 因此同一掃描內的命中不會互相排除（自身重疊由 matcher 處理）。
func Run(seq token.Sequence, scans []ScanRequest, opt Options) []ScanResult {
	ordered := Sort(scans)
	out := make([]ScanResult, 0, len(ordered))

	if opt.Shared {
		for _, sc := range ordered {
			out = append(out, ScanResult{Scan: sc, Matches: matcher.Find(seq, sc.Size, sc.Transform, opt.Base)})
		}
		return out
	}

	claimed := opt.Claimed
	if claimed == nil {
		claimed = NewClaimedSet(len(seq))
	}
	baseSkip := opt.Base.Skip
	mo := opt.Base
	mo.Skip = func(start, size int) bool {
		if baseSkip != nil && baseSkip(start, size) {
			return true
		}
		return claimed.Overlaps(start, size)
	}

	for _, sc := range ordered {
		ms := matcher.Find(seq, sc.Size, sc.Transform, mo)
		for _, m := range ms {
			claimed.Claim(m.Offset, m.Size)
		}
		out = append(out, ScanResult{Scan: sc, Matches: ms})
	}
	return out
}

// Scans 以 sizes x transforms 展開掃描請求（sizes 在外層）
func Scans(sizes []int, tfs []transform.Transform, weights map[string]float64) []ScanRequest {
	out := make([]ScanRequest, 0, len(sizes)*len(tfs))
	for _, s := range sizes {
		for _, tf := range tfs {
			sc := ScanRequest{Size: s, Transform: tf}
			if w, ok := weights[tf.Name()]; ok {
				sc.Weight = Weight(w)
			}
			out = append(out, sc)
		}
	}
	return out
}
