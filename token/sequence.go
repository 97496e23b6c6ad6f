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

package token

import (
	"strings"

	"github.com/zintix-labs/patternlab/errs"
)

// Order 描述原始資料的排列方向
type Order uint8

const (
	NewestFirst Order = iota
	OldestFirst
)

func (o Order) String() string {
	if o == OldestFirst {
		return "oldest_first"
	}
	return "newest_first"
}

// ParseOrder 空字串視為 newest_first
func ParseOrder(s string) (Order, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "newest_first", "newest-first", "newest":
		return NewestFirst, nil
	case "oldest_first", "oldest-first", "oldest":
		return OldestFirst, nil
	default:
		return NewestFirst, errs.Warnf("unknown order %q", s)
	}
}

// Sequence 一律以 index 0 為最近一局。每次請求重新建立，不做快取。
type Sequence []Token

// FromRecords 正規化並轉成 newest-first 的 Sequence
func FromRecords(recs []Record, order Order) Sequence {
	seq := make(Sequence, len(recs))
	n := len(recs)
	for i, r := range recs {
		if order == OldestFirst {
			seq[n-1-i] = Normalize(r)
		} else {
			seq[i] = Normalize(r)
		}
	}
	return seq
}

// ParseSequence 解析外部傳入的編碼序列（例如 HTTP body）
func ParseSequence(strs []string, order Order) (Sequence, error) {
	seq := make(Sequence, len(strs))
	n := len(strs)
	for i, s := range strs {
		t, err := Parse(strings.TrimSpace(s))
		if err != nil {
			return nil, errs.Wrap(err, "parse sequence")
		}
		if order == OldestFirst {
			seq[n-1-i] = t
		} else {
			seq[i] = t
		}
	}
	return seq, nil
}

// MustParse 測試與範例用
func MustParse(strs ...string) Sequence {
	seq, err := ParseSequence(strs, NewestFirst)
	if err != nil {
		panic(err)
	}
	return seq
}

// At 超出範圍回傳 None
func (s Sequence) At(i int) Token {
	if i < 0 || i >= len(s) {
		return None
	}
	return s[i]
}

// Window 取 [off, off+size)；範圍不合法時 ok=false
func (s Sequence) Window(off, size int) (Sequence, bool) {
	if off < 0 || size < 1 || off+size > len(s) {
		return nil, false
	}
	return s[off : off+size], true
}

func (s Sequence) Equal(o Sequence) bool {
	if len(s) != len(o) {
		return false
	}
	for i := range s {
		if s[i] != o[i] {
			return false
		}
	}
	return true
}

// Invalids 回傳 Invalid 的數量
func (s Sequence) Invalids() int {
	n := 0
	for _, t := range s {
		if t == Invalid {
			n++
		}
	}
	return n
}

func (s Sequence) Strings() []string {
	out := make([]string, len(s))
	for i, t := range s {
		out[i] = t.String()
	}
	return out
}

func (s Sequence) String() string {
	return "[" + strings.Join(s.Strings(), " ") + "]"
}
