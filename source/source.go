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

// Package source 取得歷史開獎紀錄：HTTP feed、SQLite 或固定資料。
package source

import (
	"context"

	"github.com/zintix-labs/patternlab/errs"
	"github.com/zintix-labs/patternlab/token"
)

// Source 歷史資料來源；limit <= 0 表示不限
type Source interface {
	Fetch(ctx context.Context, limit int) (*History, error)
}

// History 一次抓取的結果，Records 一律為 newest-first
type History struct {
	Records []token.Record
}

// NewHistory 依原始順序建立 History
func NewHistory(recs []token.Record, order token.Order) *History {
	out := make([]token.Record, len(recs))
	n := len(recs)
	for i, r := range recs {
		if order == token.OldestFirst {
			out[n-1-i] = r
		} else {
			out[i] = r
		}
	}
	return &History{Records: out}
}

func (h *History) Len() int { return len(h.Records) }

// Sequence 正規化後的序列
func (h *History) Sequence() token.Sequence {
	return token.FromRecords(h.Records, token.NewestFirst)
}

// LatestRound 最近一局的回合編號；沒有資料回傳 0, false
func (h *History) LatestRound() (int, bool) {
	if len(h.Records) == 0 {
		return 0, false
	}
	return int(h.Records[0].Round), true
}

// Labels 回合 -> token；Invalid 不列入
func (h *History) Labels() map[int]token.Token {
	out := make(map[int]token.Token, len(h.Records))
	for _, r := range h.Records {
		if v := token.Normalize(r); v.IsValid() {
			out[int(r.Round)] = v
		}
	}
	return out
}

// Head 前 n 筆（n <= 0 時原樣回傳）
func (h *History) Head(n int) *History {
	if n <= 0 || n >= len(h.Records) {
		return h
	}
	return &History{Records: h.Records[:n]}
}

// Static 固定的記憶體資料，測試與離線回測使用
type Static struct {
	h *History
}

func NewStatic(recs []token.Record, order token.Order) *Static {
	return &Static{h: NewHistory(recs, order)}
}

// StaticSequence 由 newest-first 的序列建立；回合編號從 latestRound 往回遞減
func StaticSequence(seq token.Sequence, latestRound int) *Static {
	recs := make([]token.Record, 0, len(seq))
	for i, v := range seq {
		r, ok := token.Denormalize(v, latestRound-i)
		if !ok {
			r = token.Record{Round: token.FlexInt(latestRound - i)}
		}
		recs = append(recs, r)
	}
	return &Static{h: &History{Records: recs}}
}

func (s *Static) Fetch(ctx context.Context, limit int) (*History, error) {
	if err := ctx.Err(); err != nil {
		return nil, errs.Wrap(err, "static fetch canceled")
	}
	return s.h.Head(limit), nil
}
