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
	"bytes"
	"strconv"
	"strings"
)

// Record 是資料來源給的原始一局結果（ladder feed 的欄位命名）
type Record struct {
	Round      FlexInt `json:"date_round"`
	StartPoint string  `json:"start_point"`
	LineCount  FlexInt `json:"line_count"`
	OddEven    string  `json:"odd_even"`
}

// FlexInt 同時接受 JSON 數字與字串數字（feed 兩種都出現過）
type FlexInt int

func (f *FlexInt) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*f = 0
		return nil
	}
	if b[0] == '"' {
		s, err := strconv.Unquote(string(b))
		if err != nil {
			return err
		}
		b = []byte(strings.TrimSpace(s))
		if len(b) == 0 {
			*f = 0
			return nil
		}
	}
	v, err := strconv.Atoi(string(b))
	if err != nil {
		return err
	}
	*f = FlexInt(v)
	return nil
}

// Normalize 把原始紀錄轉成 Token。
//
// 純函數且全域定義：任何欄位不在兩值域內都回傳 Invalid，不會回傳 error。
func Normalize(r Record) Token {
	var side Side
	switch strings.ToUpper(strings.TrimSpace(r.StartPoint)) {
	case "LEFT":
		side = SideA
	case "RIGHT":
		side = SideB
	default:
		return Invalid
	}
	var count Count
	switch r.LineCount {
	case 3:
		count = Count3
	case 4:
		count = Count4
	default:
		return Invalid
	}
	var parity Parity
	switch strings.ToUpper(strings.TrimSpace(r.OddEven)) {
	case "ODD":
		parity = Odd
	case "EVEN":
		parity = Even
	default:
		return Invalid
	}
	return New(side, count, parity)
}

// Denormalize 是 Normalize 的反向（僅合法 Token），供測試資料與 SQLite 回寫使用
func Denormalize(t Token, round int) (Record, bool) {
	if !t.IsValid() {
		return Record{}, false
	}
	r := Record{Round: FlexInt(round), LineCount: FlexInt(t.Count().Lines())}
	if t.Side() == SideA {
		r.StartPoint = "LEFT"
	} else {
		r.StartPoint = "RIGHT"
	}
	if t.Parity() == Odd {
		r.OddEven = "ODD"
	} else {
		r.OddEven = "EVEN"
	}
	return r, true
}
