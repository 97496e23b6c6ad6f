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

// Package patternlab 是整個預測引擎的組裝入口。
//
// Lab 把三樣東西組在一起：
//  1. Catalog：有哪些 profile、各自對應哪個設定檔。
//  2. Source：歷史開獎紀錄從哪裡來（HTTP feed、SQLite、固定資料）。
//  3. PredLog（可選）：每次預測的結果寫入 bbolt，之後用來算命中率。
//
// 設定檔來源一律以 fs.FS 注入，Lab 本身不處理路徑。
// 每個 profile 在 New 時就建好 Engine；Engine 是無狀態的，可以被多個請求同時使用。
//
//	lab, _ := patternlab.New(src, patternlab.Configs(profiles.FS))
//	p, _ := lab.Predict(ctx, "ladder-classic")
package patternlab

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/zintix-labs/patternlab/catalog"
	"github.com/zintix-labs/patternlab/errs"
	"github.com/zintix-labs/patternlab/predlog"
	"github.com/zintix-labs/patternlab/profiles"
	"github.com/zintix-labs/patternlab/source"
	"github.com/zintix-labs/patternlab/stats"
	"github.com/zintix-labs/patternlab/token"
)

// ErrClosed Lab 已 Close 後的所有操作都會回傳包著它的錯誤
var ErrClosed = errors.New("lab closed")

// Configs 把一或多個設定檔來源打包成 New 需要的參數。
// 可以是 go:embed 的 profiles.FS，也可以是 os.DirFS。
func Configs(cfgs ...fs.FS) []fs.FS {
	return cfgs
}

// Option 調整 Lab 的可選元件
type Option func(*Lab)

// WithLogger 指定 logger；未指定時用 slog.Default()
func WithLogger(l *slog.Logger) Option {
	return func(lab *Lab) {
		if l != nil {
			lab.log = l
		}
	}
}

// WithPredLog 每次 Predict 的結果寫入 store
func WithPredLog(s *predlog.Store) Option {
	return func(lab *Lab) { lab.plog = s }
}

// WithDefaultProfile profile 參數為空時使用的 profile
func WithDefaultProfile(key string) Option {
	return func(lab *Lab) { lab.def = key }
}

type Lab struct {
	cat     *catalog.Catalog
	src     source.Source
	log     *slog.Logger
	plog    *predlog.Store
	def     string
	engines map[string]*Engine // key: profile id

	// lifecycle
	done      chan struct{}
	closeOnce sync.Once
	closed    atomic.Bool
	reason    atomic.Value // string
}

// New 建立 Lab：註冊所有設定檔、凍結 catalog、為每個 profile 建好 Engine。
//
// 任何一個設定檔解析失敗都會直接回傳錯誤，不會留下半套 catalog。
func New(src source.Source, cfgs []fs.FS, opts ...Option) (*Lab, error) {
	if src == nil {
		return nil, errs.NewFatal("source required")
	}
	if len(cfgs) == 0 {
		return nil, errs.NewFatal("configs required")
	}
	cat, err := catalog.NewAuto(cfgs...)
	if err != nil {
		return nil, err
	}
	lab := &Lab{
		cat:     cat,
		src:     src,
		log:     slog.Default(),
		def:     profiles.Default,
		engines: make(map[string]*Engine, len(cat.IDs())),
		done:    make(chan struct{}),
	}
	for _, o := range opts {
		o(lab)
	}
	for _, id := range cat.IDs() {
		es, err := cat.SettingByID(id)
		if err != nil {
			return nil, err
		}
		eng, err := NewEngine(es)
		if err != nil {
			return nil, err
		}
		lab.engines[id] = eng
	}
	// 預設 profile 不存在時退回第一個
	if _, ok := cat.Lookup(lab.def); !ok {
		lab.def = cat.IDs()[0]
	}
	return lab, nil
}

func (l *Lab) Catalog() *catalog.Catalog { return l.cat }

func (l *Lab) Source() source.Source { return l.src }

func (l *Lab) Logger() *slog.Logger { return l.log }

func (l *Lab) PredLog() *predlog.Store { return l.plog }

func (l *Lab) DefaultProfile() string { return l.def }

func (l *Lab) Profiles() ([]catalog.Summary, error) {
	return l.cat.Summary()
}

// Engine 依 id 或 name 取得 Engine；空字串為預設 profile
func (l *Lab) Engine(profile string) (*Engine, error) {
	if profile == "" {
		profile = l.def
	}
	ent, ok := l.cat.Lookup(profile)
	if !ok {
		return nil, errs.NewWarn("profile not found: " + profile)
	}
	return l.engines[ent.ID], nil
}

func (l *Lab) check(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return errs.Wrap(ctx.Err(), "predict canceled/timeout")
	case <-l.done:
		l.closed.Store(true)
		return errs.WrapWithExtra(ErrClosed, "lab closed", l.ClosedReason())
	default:
	}
	return nil
}

// Predict 從 Source 抓最新歷史並預測下一局
func (l *Lab) Predict(ctx context.Context, profile string) (*Prediction, error) {
	return l.predictLatest(ctx, profile, false)
}

// ExplainLatest 同 Predict，結果另外附上每一筆比對
func (l *Lab) ExplainLatest(ctx context.Context, profile string) (*Prediction, error) {
	return l.predictLatest(ctx, profile, true)
}

func (l *Lab) predictLatest(ctx context.Context, profile string, explain bool) (*Prediction, error) {
	if err := l.check(ctx); err != nil {
		return nil, err
	}
	eng, err := l.Engine(profile)
	if err != nil {
		return nil, err
	}
	hist, err := l.src.Fetch(ctx, eng.Setting().History.Limit)
	if err != nil {
		return nil, errs.Wrap(err, "fetch history failed")
	}
	if hist.Len() == 0 {
		return nil, errs.NewWarn("history is empty")
	}
	predict := eng.Predict
	if explain {
		predict = eng.Explain
	}
	p, err := predict(hist.Sequence())
	if err != nil {
		return nil, err
	}
	if round, ok := hist.LatestRound(); ok {
		p.NextRound = round + 1
	}
	if l.plog != nil {
		if _, err := l.plog.Append(logEntry(p)); err != nil {
			// 紀錄失敗不影響這次預測
			l.log.Warn("predlog append failed", "profile", p.Profile, "round", p.NextRound, "err", err)
		}
	}
	l.log.Debug("predict",
		"profile", p.Profile,
		"round", p.NextRound,
		"history", p.HistoryLen,
		"top", p.Ranking.Top().String(),
		"no_prediction", p.NoPrediction(),
	)
	return p, nil
}

// PredictSequence 對呼叫端給的序列預測；不讀 Source，不寫 PredLog
func (l *Lab) PredictSequence(ctx context.Context, profile string, seq token.Sequence, explain bool) (*Prediction, error) {
	if err := l.check(ctx); err != nil {
		return nil, err
	}
	eng, err := l.Engine(profile)
	if err != nil {
		return nil, err
	}
	if len(seq) == 0 {
		return nil, errs.NewWarn("sequence is empty")
	}
	if explain {
		return eng.Explain(seq)
	}
	return eng.Predict(seq)
}

// Accuracy 用 Source 的實際結果評估 PredLog 內的預測；profile 為空時評估全部
func (l *Lab) Accuracy(ctx context.Context, profile string, k int) (*stats.AccuracyReport, error) {
	if err := l.check(ctx); err != nil {
		return nil, err
	}
	if l.plog == nil {
		return nil, errs.NewWarn("prediction log disabled")
	}
	if profile != "" {
		ent, ok := l.cat.Lookup(profile)
		if !ok {
			return nil, errs.NewWarn("profile not found: " + profile)
		}
		profile = ent.ID
	}
	entries, err := l.plog.List(0)
	if err != nil {
		return nil, err
	}
	hist, err := l.src.Fetch(ctx, 0)
	if err != nil {
		return nil, errs.Wrap(err, "fetch history failed")
	}
	return stats.EvaluateLog(entries, hist.Labels(), profile, k), nil
}

func logEntry(p *Prediction) predlog.Entry {
	e := predlog.Entry{
		Round:        p.NextRound,
		Profile:      p.Profile,
		Recent:       p.Recent.Strings(),
		NoPrediction: p.NoPrediction(),
	}
	for _, ent := range p.Ranking.Entries {
		e.Top = append(e.Top, ent.Token.String())
		e.All = append(e.All, predlog.Scored{Token: ent.Token.String(), Score: ent.Score})
	}
	return e
}

// Close 讓 Lab 進入關閉狀態，可重複呼叫
func (l *Lab) Close() {
	l.closeWithReason("closed")
}

func (l *Lab) closeWithReason(reason string) {
	l.closeOnce.Do(func() {
		if reason == "" {
			reason = "closed"
		}
		l.reason.Store(reason)
		l.closed.Store(true)
		close(l.done)
	})
}

func (l *Lab) Closed() bool {
	return l.closed.Load()
}

func (l *Lab) ClosedReason() string {
	if v := l.reason.Load(); v != nil {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}
