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

// Package matcher 在歷史序列上滑動固定大小的視窗，找出與 reference window
// （經變換後）相同的歷史位置，並回報其前後鄰居。
//
// 序列慣例：index 0 為最近一局。
package matcher

import (
	"github.com/zintix-labs/patternlab/token"
	"github.com/zintix-labs/patternlab/transform"
)

// Mode 收集模式
type Mode uint8

const (
	Exhaustive Mode = iota // 掃完整個範圍
	FirstOnly              // 依掃描順序找到第一個就停
)

func (m Mode) String() string {
	if m == FirstOnly {
		return "first-only"
	}
	return "exhaustive"
}

// ScanOrder 掃描方向，FirstOnly 的結果取決於它
type ScanOrder uint8

const (
	NewestFirst ScanOrder = iota // i 遞增（由新到舊，標準順序）
	OldestFirst                  // i 遞減（由舊到新）
)

func (o ScanOrder) String() string {
	if o == OldestFirst {
		return "oldest-first"
	}
	return "newest-first"
}

// Match 一個歷史命中
type Match struct {
	Offset      int         `json:"offset"`
	Predecessor token.Token `json:"predecessor"` // seq[Offset-1]
	Successor   token.Token `json:"successor"`   // seq[Offset+Size]，不存在為 None
	Transform   string      `json:"transform"`
	Size        int         `json:"size"`
}

// End 回傳視窗結束位置（不含）
func (m Match) End() int { return m.Offset + m.Size }

type Options struct {
	// Reference 為 reference window 的起點，通常是 0（最近的視窗）
	Reference int
	Mode      Mode
	Order     ScanOrder
	// AllowSelfOverlap 為 true 時，同一次掃描的命中可以彼此重疊
	AllowSelfOverlap bool
	// Skip 回傳 true 的候選位置直接略過（Allocator 用來排除已被認領的 index）
	Skip func(start, size int) bool
}

// Find 回傳所有命中；size 不合法或序列太短時回傳空結果，不回傳錯誤。
//
// 比對規則：candidate == transform(reference)。
// reference window 含 Invalid 時不會有任何命中。
func Find(seq token.Sequence, size int, tf transform.Transform, opt Options) []Match {
	if size < 1 || size >= len(seq) || opt.Reference < 0 {
		return nil
	}
	refWin, ok := seq.Window(opt.Reference, size)
	if !ok {
		return nil
	}
	for _, v := range refWin {
		if !v.IsValid() {
			return nil
		}
	}
	ref := tf.Apply(make(token.Sequence, 0, size), refWin)

	lo, hi := opt.Reference+1, len(seq)-size
	if lo > hi {
		return nil
	}
	start, end, step := lo, hi+1, 1
	if opt.Order == OldestFirst {
		start, end, step = hi, lo-1, -1
	}

	var out []Match
	last := -1
	for i := start; i != end; i += step {
		if opt.Skip != nil && opt.Skip(i, size) {
			continue
		}
		// 掃描是單調的，只需要檢查上一個被接受的命中
		if !opt.AllowSelfOverlap && last >= 0 && absInt(i-last) < size {
			continue
		}
		if !equalAt(seq, i, ref) {
			continue
		}
		out = append(out, Match{
			Offset:      i,
			Predecessor: seq.At(i - 1),
			Successor:   seq.At(i + size),
			Transform:   tf.Name(),
			Size:        size,
		})
		last = i
		if opt.Mode == FirstOnly {
			break
		}
	}
	return out
}

func equalAt(seq token.Sequence, i int, ref token.Sequence) bool {
	for k, v := range ref {
		if seq[i+k] != v {
			return false
		}
	}
	return true
}

func absInt(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
