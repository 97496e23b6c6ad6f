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

// Package transform 提供作用在 Window 上的對稱變換。
//
// 每個變換都是 Token 字母表上的雙射；鏡像類為對合（套用兩次即為 identity）。
// 比對策略全專案只有一種：只對 reference window 套用變換，
// candidate 以原始 Token 和變換後的 reference 比較（見 matcher）。
package transform

import (
	"sort"
	"strings"

	"github.com/zintix-labs/patternlab/errs"
	"github.com/zintix-labs/patternlab/token"
)

const (
	Identity     = "identity"
	MirrorSide   = "mirror-side"
	MirrorParity = "mirror-parity"
	MirrorBoth   = "mirror-both"
	ReverseOrder = "reverse-order"

	// 以下會翻轉線數，只有在 profile 明確指定時才使用
	MirrorCount       = "mirror-count"
	MirrorCountParity = "mirror-count-parity"
	MirrorSideCount   = "mirror-side-count"
)

// Transform Window -> Window 的純函數
type Transform struct {
	name    string
	tok     func(token.Token) token.Token // nil 代表 Token 不變
	reverse bool
}

func (t Transform) Name() string { return t.name }

func (t Transform) String() string { return t.name }

// IsZero 未初始化的 Transform
func (t Transform) IsZero() bool { return t.name == "" }

// Apply 把 w 變換後寫入 dst（會重用 dst 的容量），回傳結果。w 不會被修改。
func (t Transform) Apply(dst, w token.Sequence) token.Sequence {
	dst = append(dst[:0], w...)
	if t.tok != nil {
		for i, v := range dst {
			dst[i] = t.tok(v)
		}
	}
	if t.reverse {
		for i, j := 0, len(dst)-1; i < j; i, j = i+1, j-1 {
			dst[i], dst[j] = dst[j], dst[i]
		}
	}
	return dst
}

// Compose 先 a 後 b。引擎每次掃描只套用一個變換，Compose 給呼叫端自行組合。
func Compose(a, b Transform) Transform {
	var f func(token.Token) token.Token
	switch {
	case a.tok == nil:
		f = b.tok
	case b.tok == nil:
		f = a.tok
	default:
		fa, fb := a.tok, b.tok
		f = func(v token.Token) token.Token { return fb(fa(v)) }
	}
	return Transform{
		name:    a.name + "+" + b.name,
		tok:     f,
		reverse: a.reverse != b.reverse,
	}
}

func flipBoth(v token.Token) token.Token       { return v.FlipSide().FlipParity() }
func flipCountParity(v token.Token) token.Token { return v.FlipCount().FlipParity() }
func flipSideCount(v token.Token) token.Token   { return v.FlipSide().FlipCount() }

var registry = map[string]Transform{
	Identity:          {name: Identity},
	MirrorSide:        {name: MirrorSide, tok: token.Token.FlipSide},
	MirrorParity:      {name: MirrorParity, tok: token.Token.FlipParity},
	MirrorBoth:        {name: MirrorBoth, tok: flipBoth},
	ReverseOrder:      {name: ReverseOrder, reverse: true},
	MirrorCount:       {name: MirrorCount, tok: token.Token.FlipCount},
	MirrorCountParity: {name: MirrorCountParity, tok: flipCountParity},
	MirrorSideCount:   {name: MirrorSideCount, tok: flipSideCount},
}

var defaults = []string{Identity, MirrorSide, MirrorParity, MirrorBoth, ReverseOrder}

// ByName 查詢內建變換（大小寫不敏感，底線視同連字號）
func ByName(name string) (Transform, error) {
	key := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(name)), "_", "-")
	t, ok := registry[key]
	if !ok {
		return Transform{}, errs.Warnf("unknown transform %q", name)
	}
	return t, nil
}

// Must 測試與固定設定用
func Must(name string) Transform {
	t, err := ByName(name)
	if err != nil {
		panic(err)
	}
	return t
}

// Defaults 標準集合：不翻轉線數的五個變換
func Defaults() []Transform {
	out := make([]Transform, len(defaults))
	for i, n := range defaults {
		out[i] = registry[n]
	}
	return out
}

// Names 所有內建變換名稱（排序後）
func Names() []string {
	out := make([]string, 0, len(registry))
	for k := range registry {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
