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

package setting

import (
	"fmt"
	"strings"

	"github.com/zintix-labs/patternlab/alloc"
	"github.com/zintix-labs/patternlab/errs"
	"github.com/zintix-labs/patternlab/matcher"
	"github.com/zintix-labs/patternlab/rank"
	"github.com/zintix-labs/patternlab/token"
	"github.com/zintix-labs/patternlab/transform"
)

// EngineSetting 一個引擎變體（profile）的完整設定
type EngineSetting struct {
	ID          string             `yaml:"id"          json:"id"`
	Name        string             `yaml:"name"        json:"name"`
	Description string             `yaml:"description" json:"description"`
	Sizes       []int              `yaml:"sizes"       json:"sizes"`
	Transforms  []TransformSetting `yaml:"transforms"  json:"transforms"`
	Scan        ScanSetting        `yaml:"scan"        json:"scan"`
	Rank        RankSetting        `yaml:"rank"        json:"rank"`
	History     HistorySetting     `yaml:"history"     json:"history"`
	Flow        FlowSetting        `yaml:"flow"        json:"flow"`
	LongRun     LongRunSetting     `yaml:"long_run"    json:"long_run"`

	// init 之後才有值
	tfs      []transform.Transform
	mode     matcher.Mode
	order    matcher.ScanOrder
	target   rank.Target
	tieBreak rank.TieBreak
	lrTarget rank.Target
	rawOrder token.Order
}

type TransformSetting struct {
	Name string `yaml:"name"   json:"name"`
	// Weight 未填為 1；填 0 表示這個變換只掃描不計分
	Weight *float64 `yaml:"weight" json:"weight"`
}

type ScanSetting struct {
	Order       string `yaml:"order"        json:"order"`        // newest-first | oldest-first
	Mode        string `yaml:"mode"         json:"mode"`         // exhaustive | first-only
	SelfOverlap bool   `yaml:"self_overlap" json:"self_overlap"` // 同一掃描的命中可重疊
	Allocator   bool   `yaml:"allocator"    json:"allocator"`    // 跨掃描不重疊
	Reference   int    `yaml:"reference"    json:"reference"`
	// SizePriority 覆寫某個 size 的優先序；未列出的 size 以 size 本身為優先序
	SizePriority map[int]int `yaml:"size_priority" json:"size_priority"`
}

type RankSetting struct {
	Target       string `yaml:"target"        json:"target"`
	TopN         int    `yaml:"top_n"         json:"top_n"`
	TieBreak     string `yaml:"tie_break"     json:"tie_break"`
	Weighting    string `yaml:"weighting"     json:"weighting"`
	KeepInvalid  bool   `yaml:"keep_invalid"  json:"keep_invalid"`
	PositiveOnly bool   `yaml:"positive_only" json:"positive_only"`
}

type HistorySetting struct {
	Limit int    `yaml:"limit" json:"limit"` // 0 表示不限
	Order string `yaml:"order" json:"order"` // 原始資料順序
}

type FlowSetting struct {
	Enabled bool    `yaml:"enabled" json:"enabled"`
	Window  int     `yaml:"window"  json:"window"`
	Weight  float64 `yaml:"weight"  json:"weight"`
	Damping float64 `yaml:"damping" json:"damping"`
}

// LongRunSetting 長視窗完全重複的加分
type LongRunSetting struct {
	Enabled bool    `yaml:"enabled" json:"enabled"`
	Size    int     `yaml:"size"    json:"size"`
	Weight  float64 `yaml:"weight"  json:"weight"`
	// Target 加分給哪一側的鄰居；空字串沿用 rank.target
	Target string `yaml:"target" json:"target"`
}

func (es *EngineSetting) init() error {
	es.ID = strings.TrimSpace(es.ID)
	es.Name = strings.ToLower(strings.TrimSpace(es.Name))
	if es.Name == "" {
		es.Name = strings.ToLower(es.ID)
	}
	if len(es.Transforms) == 0 {
		for _, tf := range transform.Defaults() {
			es.Transforms = append(es.Transforms, TransformSetting{Name: tf.Name()})
		}
	}
	for i := range es.Transforms {
		if es.Transforms[i].Weight == nil {
			es.Transforms[i].Weight = alloc.Weight(1)
		}
	}
	if es.Rank.Weighting == "" {
		es.Rank.Weighting = rank.Count
	}
	if es.Flow.Enabled && es.Flow.Window == 0 {
		es.Flow.Window = 5
	}

	var err error
	es.tfs = make([]transform.Transform, 0, len(es.Transforms))
	for _, ts := range es.Transforms {
		tf, e := transform.ByName(ts.Name)
		if e != nil {
			return errs.NewFatal(fmt.Sprintf("profile %s: %v", es.ID, e))
		}
		es.tfs = append(es.tfs, tf)
	}
	if es.mode, err = parseMode(es.Scan.Mode); err != nil {
		return err
	}
	if es.order, err = parseScanOrder(es.Scan.Order); err != nil {
		return err
	}
	if es.target, err = rank.ParseTarget(es.Rank.Target); err != nil {
		return errs.NewFatal(fmt.Sprintf("profile %s: %v", es.ID, err))
	}
	es.lrTarget = es.target
	if strings.TrimSpace(es.LongRun.Target) != "" {
		if es.lrTarget, err = rank.ParseTarget(es.LongRun.Target); err != nil {
			return errs.NewFatal(fmt.Sprintf("profile %s: long_run: %v", es.ID, err))
		}
	}
	if es.tieBreak, err = rank.ParseTieBreak(es.Rank.TieBreak); err != nil {
		return errs.NewFatal(fmt.Sprintf("profile %s: %v", es.ID, err))
	}
	if es.rawOrder, err = token.ParseOrder(es.History.Order); err != nil {
		return errs.NewFatal(fmt.Sprintf("profile %s: %v", es.ID, err))
	}
	return es.valid()
}

// valid 基本檢查
func (es *EngineSetting) valid() error {
	if es.ID == "" {
		return errs.NewFatal("profile id required")
	}
	if len(es.Sizes) == 0 {
		return errs.NewFatal(fmt.Sprintf("profile %s: empty sizes", es.ID))
	}
	seen := map[int]struct{}{}
	for _, s := range es.Sizes {
		if s < 1 {
			return errs.NewFatal(fmt.Sprintf("profile %s: invalid size %d", es.ID, s))
		}
		if _, dup := seen[s]; dup {
			return errs.NewFatal(fmt.Sprintf("profile %s: duplicate size %d", es.ID, s))
		}
		seen[s] = struct{}{}
	}
	for s := range es.Scan.SizePriority {
		if _, ok := seen[s]; !ok {
			return errs.NewFatal(fmt.Sprintf("profile %s: size_priority for unknown size %d", es.ID, s))
		}
	}
	names := map[string]struct{}{}
	for i, ts := range es.Transforms {
		if *ts.Weight < 0 {
			return errs.NewFatal(fmt.Sprintf("profile %s: negative weight for %s", es.ID, ts.Name))
		}
		n := es.tfs[i].Name()
		if _, dup := names[n]; dup {
			return errs.NewFatal(fmt.Sprintf("profile %s: duplicate transform %s", es.ID, n))
		}
		names[n] = struct{}{}
	}
	if es.Scan.Reference < 0 {
		return errs.NewFatal(fmt.Sprintf("profile %s: negative reference offset", es.ID))
	}
	if es.Rank.TopN < 0 {
		return errs.NewFatal(fmt.Sprintf("profile %s: negative top_n", es.ID))
	}
	if _, ok := rank.Lookup(es.Rank.Weighting); !ok {
		return errs.NewFatal(fmt.Sprintf("profile %s: unknown weighting %q", es.ID, es.Rank.Weighting))
	}
	if es.History.Limit < 0 {
		return errs.NewFatal(fmt.Sprintf("profile %s: negative history limit", es.ID))
	}
	if es.Flow.Enabled {
		if es.Flow.Window < 2 {
			return errs.NewFatal(fmt.Sprintf("profile %s: flow window must be >= 2", es.ID))
		}
		if es.Flow.Damping < 0 || es.Flow.Damping > 1 {
			return errs.NewFatal(fmt.Sprintf("profile %s: flow damping must be in [0,1]", es.ID))
		}
	}
	if es.LongRun.Enabled && es.LongRun.Size < 1 {
		return errs.NewFatal(fmt.Sprintf("profile %s: long_run size must be >= 1", es.ID))
	}
	return nil
}

func parseMode(s string) (matcher.Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "exhaustive", "all":
		return matcher.Exhaustive, nil
	case "first-only", "first_only", "first":
		return matcher.FirstOnly, nil
	}
	return 0, errs.NewFatal(fmt.Sprintf("unknown scan mode: %q", s))
}

func parseScanOrder(s string) (matcher.ScanOrder, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "newest-first", "newest_first":
		return matcher.NewestFirst, nil
	case "oldest-first", "oldest_first":
		return matcher.OldestFirst, nil
	}
	return 0, errs.NewFatal(fmt.Sprintf("unknown scan order: %q", s))
}

func (es *EngineSetting) TransformSet() []transform.Transform {
	return append([]transform.Transform(nil), es.tfs...)
}

func (es *EngineSetting) Mode() matcher.Mode          { return es.mode }
func (es *EngineSetting) ScanOrder() matcher.ScanOrder { return es.order }
func (es *EngineSetting) Target() rank.Target          { return es.target }
func (es *EngineSetting) TieBreak() rank.TieBreak      { return es.tieBreak }
func (es *EngineSetting) LongRunTarget() rank.Target   { return es.lrTarget }
func (es *EngineSetting) RawOrder() token.Order        { return es.rawOrder }

// MatcherOptions 給 Allocator 的基本 matcher 選項
func (es *EngineSetting) MatcherOptions() matcher.Options {
	return matcher.Options{
		Reference:        es.Scan.Reference,
		Mode:             es.mode,
		Order:            es.order,
		AllowSelfOverlap: es.Scan.SelfOverlap,
	}
}

// Scans 展開 sizes x transforms 的掃描請求
func (es *EngineSetting) Scans() []alloc.ScanRequest {
	out := make([]alloc.ScanRequest, 0, len(es.Sizes)*len(es.tfs))
	for _, s := range es.Sizes {
		for i, tf := range es.tfs {
			out = append(out, alloc.ScanRequest{
				Size:      s,
				Transform: tf,
				Priority:  es.Scan.SizePriority[s],
				Weight:    alloc.Weight(*es.Transforms[i].Weight),
			})
		}
	}
	return out
}

// RankOptions historyLen 為本次請求的序列長度
func (es *EngineSetting) RankOptions(historyLen int) rank.Options {
	return rank.Options{
		Target:       es.target,
		TopN:         es.Rank.TopN,
		TieBreak:     es.tieBreak,
		Weighting:    es.Rank.Weighting,
		KeepInvalid:  es.Rank.KeepInvalid,
		PositiveOnly: es.Rank.PositiveOnly,
		HistoryLen:   historyLen,
	}
}
