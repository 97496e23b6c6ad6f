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

package patternlab

import (
	"github.com/zintix-labs/patternlab/alloc"
	"github.com/zintix-labs/patternlab/errs"
	"github.com/zintix-labs/patternlab/flow"
	"github.com/zintix-labs/patternlab/matcher"
	"github.com/zintix-labs/patternlab/rank"
	"github.com/zintix-labs/patternlab/setting"
	"github.com/zintix-labs/patternlab/token"
	"github.com/zintix-labs/patternlab/transform"
)

// recentLen 預測結果附帶的最近局數
const recentLen = 5

// ScanStat 單一掃描的命中數
type ScanStat struct {
	Size      int    `json:"size"`
	Transform string `json:"transform"`
	Priority  int    `json:"priority"`
	Matches   int    `json:"matches"`
}

// Prediction 一次預測的完整結果
type Prediction struct {
	Profile    string          `json:"profile"`
	Ranking    rank.Ranking    `json:"ranking"`
	Flow       *flow.Info      `json:"flow,omitempty"`
	Scans      []ScanStat      `json:"scans"`
	LongRun    int             `json:"long_run_matches"`
	Matches    []matcher.Match `json:"matches,omitempty"`
	HistoryLen int             `json:"history_len"`
	Invalids   int             `json:"invalids"`
	Latest     token.Token     `json:"latest"`
	Recent     token.Sequence  `json:"recent"`
	NextRound  int             `json:"next_round,omitempty"`
}

// NoPrediction 是否為明確的無預測
func (p *Prediction) NoPrediction() bool { return p.Ranking.NoPrediction }

// Engine 一個 profile 的預測管線；不持有任何跨請求的可變狀態，可被多個 goroutine 共用
type Engine struct {
	es       *setting.EngineSetting
	scans    []alloc.ScanRequest
	identity transform.Transform
}

func NewEngine(es *setting.EngineSetting) (*Engine, error) {
	if es == nil {
		return nil, errs.NewFatal("engine setting required")
	}
	return &Engine{
		es:       es,
		scans:    alloc.Sort(es.Scans()),
		identity: transform.Must(transform.Identity),
	}, nil
}

func (e *Engine) Setting() *setting.EngineSetting { return e.es }

func (e *Engine) ID() string { return e.es.ID }

// Predict 對一條 newest-first 序列做預測
func (e *Engine) Predict(seq token.Sequence) (*Prediction, error) {
	return e.predict(seq, false)
}

// Explain 同 Predict，另外附上所有原始命中
func (e *Engine) Explain(seq token.Sequence) (*Prediction, error) {
	return e.predict(seq, true)
}

func (e *Engine) predict(seq token.Sequence, withMatches bool) (*Prediction, error) {
	es := e.es
	if lim := es.History.Limit; lim > 0 && len(seq) > lim {
		seq = seq[:lim]
	}

	// 0) 長視窗完全重複：開啟 allocator 時它是最高優先序，先認領自己的區段
	var (
		claimed *alloc.ClaimedSet
		longRun []matcher.Match
	)
	if es.Scan.Allocator {
		claimed = alloc.NewClaimedSet(len(seq))
	}
	if lr := es.LongRun; lr.Enabled {
		mo := matcher.Options{Reference: es.Scan.Reference, AllowSelfOverlap: true}
		if claimed != nil {
			mo.AllowSelfOverlap = false
		}
		longRun = matcher.Find(seq, lr.Size, e.identity, mo)
		if claimed != nil {
			for _, m := range longRun {
				claimed.Claim(m.Offset, m.Size)
			}
		}
	}

	// 1) 依優先序掃描，claimed set 只活在這次請求
	results := alloc.Run(seq, e.scans, alloc.Options{
		Base:    es.MatcherOptions(),
		Shared:  !es.Scan.Allocator,
		Claimed: claimed,
	})

	// 2) 投票並計分
	ropt := es.RankOptions(len(seq))
	tally := rank.Collect(results, ropt.Target, ropt.KeepInvalid, len(seq))
	scores, err := tally.Score(ropt.Weighting)
	if err != nil {
		return nil, err
	}

	p := &Prediction{
		Profile:    es.ID,
		Scans:      make([]ScanStat, 0, len(results)),
		HistoryLen: len(seq),
		Invalids:   seq.Invalids(),
		Latest:     seq.At(0),
		Recent:     append(token.Sequence(nil), seq[:min(recentLen, len(seq))]...),
	}
	for _, res := range results {
		p.Scans = append(p.Scans, ScanStat{
			Size:      res.Scan.Size,
			Transform: res.Scan.Transform.Name(),
			Priority:  res.Scan.EffectivePriority(),
			Matches:   len(res.Matches),
		})
		if withMatches {
			p.Matches = append(p.Matches, res.Matches...)
		}
	}

	// 3) 長視窗完全重複加分（只加在已得票的 token 上）
	if lr := es.LongRun; lr.Enabled {
		p.LongRun = len(longRun)
		for _, m := range longRun {
			v := m.Predecessor
			if es.LongRunTarget() == rank.Successor {
				v = m.Successor
			}
			if v.IsValid() {
				scores.Add(v, lr.Weight)
			}
		}
		if withMatches {
			p.Matches = append(p.Matches, longRun...)
		}
	}

	// 4) 走勢調整
	if fl := es.Flow; fl.Enabled {
		info := flow.Analyze(seq, fl.Window)
		p.Flow = &info
		flow.Adjust{Weight: fl.Weight, Damping: fl.Damping}.Apply(&scores, seq.At(0), info.Instability)
	}

	p.Ranking = rank.Order(tally, scores, ropt)
	return p, nil
}
