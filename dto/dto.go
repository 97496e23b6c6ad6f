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

// Package dto 對外輸出的固定結構，以及 HTTP 請求的解碼。
package dto

import (
	"github.com/zintix-labs/patternlab"
	"github.com/zintix-labs/patternlab/flow"
	"github.com/zintix-labs/patternlab/rank"
	"github.com/zintix-labs/patternlab/token"
	"golang.org/x/text/language"
)

// NoPredictionMessage 無預測時的提示
const NoPredictionMessage = "no prediction: not enough matching history"

type Prediction struct {
	Profile      string      `json:"profile"`
	Round        int         `json:"round,omitempty"` // 預測的回合
	Lang         string      `json:"lang"`
	NoPrediction bool        `json:"no_prediction"`
	Message      string      `json:"message,omitempty"`
	Top          []ScoredDTO `json:"top"`
	Matches      int         `json:"matches"`
	Votes        int         `json:"votes"`
	NoMatchRate  float64     `json:"no_match_rate"`
	Weighting    string      `json:"weighting"`
	Recent       []string    `json:"recent"`
	Flow         *FlowDTO    `json:"flow,omitempty"`
	LongRun      int         `json:"long_run_matches"`
	HistoryLen   int         `json:"history_len"`
	Invalids     int         `json:"invalids"`
	Scans        []ScanDTO   `json:"scans,omitempty"`
	MatchList    []MatchDTO  `json:"match_list,omitempty"`
}

type ScoredDTO struct {
	Rank   int            `json:"rank"`
	Token  string         `json:"token"`
	Label  string         `json:"label"`
	Score  float64        `json:"score"`
	Count  int            `json:"count"`
	Detail map[string]int `json:"detail,omitempty"` // transform -> 票數
}

type FlowDTO struct {
	Sides       []string `json:"sides"`
	Counts      []int    `json:"counts"`
	Parities    []string `json:"parities"`
	Instability float64  `json:"instability"`
}

type ScanDTO struct {
	Size      int    `json:"size"`
	Transform string `json:"transform"`
	Priority  int    `json:"priority"`
	Matches   int    `json:"matches"`
}

type MatchDTO struct {
	Offset      int    `json:"offset"`
	Size        int    `json:"size"`
	Transform   string `json:"transform"`
	Predecessor string `json:"predecessor"`
	Successor   string `json:"successor"`
}

// NewPrediction 轉成對外結構；分數四捨五入到小數 2 位
func NewPrediction(p *patternlab.Prediction, tag language.Tag) Prediction {
	if p == nil {
		return Prediction{NoPrediction: true, Message: NoPredictionMessage, Lang: tag.String()}
	}
	out := Prediction{
		Profile:      p.Profile,
		Round:        p.NextRound,
		Lang:         tag.String(),
		NoPrediction: p.NoPrediction(),
		Top:          newScored(p.Ranking, tag),
		Matches:      p.Ranking.Matches,
		Votes:        p.Ranking.Votes,
		NoMatchRate:  flow.Round2(p.Ranking.NoMatchRate),
		Weighting:    p.Ranking.Weighting,
		Recent:       labels(p.Recent, tag),
		LongRun:      p.LongRun,
		HistoryLen:   p.HistoryLen,
		Invalids:     p.Invalids,
	}
	if out.NoPrediction {
		out.Message = NoPredictionMessage
	}
	if f := p.Flow; f != nil {
		out.Flow = &FlowDTO{
			Sides:       f.Sides,
			Counts:      f.Counts,
			Parities:    f.Parities,
			Instability: f.Instability,
		}
	}
	for _, s := range p.Scans {
		out.Scans = append(out.Scans, ScanDTO(s))
	}
	for _, m := range p.Matches {
		out.MatchList = append(out.MatchList, MatchDTO{
			Offset:      m.Offset,
			Size:        m.Size,
			Transform:   m.Transform,
			Predecessor: m.Predecessor.String(),
			Successor:   m.Successor.String(),
		})
	}
	return out
}

func newScored(r rank.Ranking, tag language.Tag) []ScoredDTO {
	out := make([]ScoredDTO, 0, len(r.Entries))
	for i, e := range r.Entries {
		out = append(out, ScoredDTO{
			Rank:   i + 1,
			Token:  e.Token.String(),
			Label:  Label(e.Token, tag),
			Score:  flow.Round2(e.Score),
			Count:  e.Count,
			Detail: e.Detail,
		})
	}
	return out
}

func labels(seq token.Sequence, tag language.Tag) []string {
	out := make([]string, len(seq))
	for i, v := range seq {
		out[i] = Label(v, tag)
	}
	return out
}
