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

// Package token 定義一局結果的標準編碼（Token）。
//
// 一局結果由三個二元欄位組成：起點（A=左/B=右）、線數（3/4）、奇偶（O/E），
// 因此合法字母表只有 8 個值，另有兩個哨兵：
//   - Invalid：原始資料欄位不合法（不是錯誤，是一個可以被計數/略過的值）
//   - None：鄰居不存在（例如 match 在序列尾端時的 successor）
package token

import (
	"github.com/zintix-labs/patternlab/errs"
)

type Side uint8

const (
	SideA Side = iota // 左 (LEFT)
	SideB             // 右 (RIGHT)
)

type Count uint8

const (
	Count3 Count = iota
	Count4
)

// Lines 回傳實際線數
func (c Count) Lines() int {
	if c == Count4 {
		return 4
	}
	return 3
}

type Parity uint8

const (
	Odd Parity = iota
	Even
)

// Token 為不可變的值型別，以值比較。
//
// 編碼：合法值 = 1 + (side<<2 | count<<1 | parity)，因此數值順序即為標準順序
// A3O, A3E, A4O, A4E, B3O, B3E, B4O, B4E。
type Token uint8

const (
	Invalid Token = 0
	None    Token = 0xFF
)

const (
	sideBit   uint8 = 1 << 2
	countBit  uint8 = 1 << 1
	parityBit uint8 = 1

	// Size 合法 Token 的數量
	Size int = 8
)

var sideChar = [2]byte{'A', 'B'}
var countChar = [2]byte{'3', '4'}
var parityChar = [2]byte{'O', 'E'}

// New 由三個欄位組出 Token，欄位超出範圍回傳 Invalid
func New(s Side, c Count, p Parity) Token {
	if s > SideB || c > Count4 || p > Even {
		return Invalid
	}
	return Token(1 + (uint8(s) << 2) + (uint8(c) << 1) + uint8(p))
}

// All 以標準順序回傳 8 個合法 Token
func All() []Token {
	out := make([]Token, Size)
	for i := range out {
		out[i] = Token(i + 1)
	}
	return out
}

func (t Token) IsValid() bool { return t >= 1 && t <= Token(Size) }

// Index 回傳標準順序中的位置 [0,8)，非合法值回傳 -1
func (t Token) Index() int {
	if !t.IsValid() {
		return -1
	}
	return int(t) - 1
}

func (t Token) bits() uint8 { return uint8(t) - 1 }

func (t Token) Side() Side     { return Side((t.bits() & sideBit) >> 2) }
func (t Token) Count() Count   { return Count((t.bits() & countBit) >> 1) }
func (t Token) Parity() Parity { return Parity(t.bits() & parityBit) }

func (t Token) flip(mask uint8) Token {
	if !t.IsValid() {
		return t
	}
	return Token(1 + (t.bits() ^ mask))
}

// FlipSide 左右互換；哨兵值原樣回傳
func (t Token) FlipSide() Token { return t.flip(sideBit) }

// FlipCount 3/4 互換；哨兵值原樣回傳
func (t Token) FlipCount() Token { return t.flip(countBit) }

// FlipParity 奇偶互換；哨兵值原樣回傳
func (t Token) FlipParity() Token { return t.flip(parityBit) }

// String 編碼成 3 字元，例如 "A3O"
func (t Token) String() string {
	switch {
	case t == None:
		return "NONE"
	case !t.IsValid():
		return "INVALID"
	}
	return string([]byte{sideChar[t.Side()], countChar[t.Count()], parityChar[t.Parity()]})
}

// Parse 為 String 的反函數，只接受 8 個合法編碼
func Parse(s string) (Token, error) {
	if len(s) != 3 {
		return Invalid, errs.Warnf("invalid token %q: want 3 characters", s)
	}
	var side Side
	switch s[0] {
	case 'A', 'a':
		side = SideA
	case 'B', 'b':
		side = SideB
	default:
		return Invalid, errs.Warnf("invalid token %q: side must be A or B", s)
	}
	var count Count
	switch s[1] {
	case '3':
		count = Count3
	case '4':
		count = Count4
	default:
		return Invalid, errs.Warnf("invalid token %q: count must be 3 or 4", s)
	}
	var parity Parity
	switch s[2] {
	case 'O', 'o':
		parity = Odd
	case 'E', 'e':
		parity = Even
	default:
		return Invalid, errs.Warnf("invalid token %q: parity must be O or E", s)
	}
	return New(side, count, parity), nil
}

func (t Token) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

func (t *Token) UnmarshalText(b []byte) error {
	switch string(b) {
	case "NONE":
		*t = None
		return nil
	case "INVALID":
		*t = Invalid
		return nil
	}
	v, err := Parse(string(b))
	if err != nil {
		return err
	}
	*t = v
	return nil
}
