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

// Package dataset 把歷史序列切成「視窗 x 方向 -> 標籤」的訓練資料，輸出 CSV 或 Parquet。
//
// 每個視窗會套上每一種方向（變換）各產生一列；視窗或標籤含 Invalid 的列直接略過。
package dataset

import (
	"slices"
	"strings"

	"github.com/zintix-labs/patternlab/errs"
	"github.com/zintix-labs/patternlab/rank"
	"github.com/zintix-labs/patternlab/token"
	"github.com/zintix-labs/patternlab/transform"
)

// DefaultWindow 預設視窗大小
const DefaultWindow = 3

// Direction 一種資料擴增方向
type Direction struct {
	Name      string
	Transform transform.Transform
}

// DefaultDirections ladder 資料集的五個方向
func DefaultDirections() []Direction {
	return []Direction{
		{Name: "orig", Transform: transform.Must(transform.Identity)},
		{Name: "flip_full", Transform: transform.Must(transform.MirrorBoth)},
		{Name: "flip_start", Transform: transform.Must(transform.MirrorCountParity)},
		{Name: "flip_odd_even", Transform: transform.Must(transform.MirrorSideCount)},
		{Name: "rotate", Transform: transform.Must(transform.ReverseOrder)},
	}
}

// SelectDirections 依名稱挑選方向；names 為空時回傳全部
func SelectDirections(names []string) ([]Direction, error) {
	all := DefaultDirections()
	if len(names) == 0 {
		return all, nil
	}
	out := make([]Direction, 0, len(names))
	for _, n := range names {
		n = strings.TrimSpace(n)
		i := slices.IndexFunc(all, func(d Direction) bool { return d.Name == n })
		if i < 0 {
			return nil, errs.Warnf("unknown direction: %q", n)
		}
		out = append(out, all[i])
	}
	return out, nil
}

// Row 一列資料；Blocks 已套用方向變換，Label 不變換
type Row struct {
	Offset    int
	Blocks    token.Sequence
	Direction string
	Label     token.Token
}

type Options struct {
	Window int // 0 時為 DefaultWindow
	// Target 標籤取視窗前一局（較新）或後一局（較舊）
	Target     rank.Target
	Directions []Direction // 空時為 DefaultDirections
}

// Build 由 newest-first 序列產生所有資料列，依 offset 再依方向排序
func Build(seq token.Sequence, opt Options) ([]Row, error) {
	w := opt.Window
	if w == 0 {
		w = DefaultWindow
	}
	if w < 1 {
		return nil, errs.Warnf("window must >= 1, got %d", w)
	}
	dirs := opt.Directions
	if len(dirs) == 0 {
		dirs = DefaultDirections()
	}

	lo, hi := 1, len(seq)-w // Predecessor：label = seq[i-1]
	if opt.Target == rank.Successor {
		lo, hi = 0, len(seq)-w-1 // label = seq[i+w]
	}

	rows := make([]Row, 0, max(hi-lo+1, 0)*len(dirs))
	buf := make(token.Sequence, 0, w)
	for i := lo; i <= hi; i++ {
		label := seq.At(i - 1)
		if opt.Target == rank.Successor {
			label = seq.At(i + w)
		}
		if !label.IsValid() {
			continue
		}
		win, ok := seq.Window(i, w)
		if !ok {
			continue
		}
		for _, d := range dirs {
			buf = d.Transform.Apply(buf, win)
			if buf.Invalids() > 0 {
				continue
			}
			rows = append(rows, Row{
				Offset:    i,
				Blocks:    append(token.Sequence(nil), buf...),
				Direction: d.Name,
				Label:     label,
			})
		}
	}
	return rows, nil
}
