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
	"context"
	"io"
	"sync"
	"time"

	"github.com/cheggaaa/pb/v3"
	"github.com/zintix-labs/patternlab/errs"
	"github.com/zintix-labs/patternlab/stats"
	"github.com/zintix-labs/patternlab/token"
)

// BacktestOptions
//
//   - Rounds：最多回測幾局（0 表示能跑多少跑多少）
//   - K：Top-K 命中的 K（0 時用 profile 的 top_n，再沒有就 3）
//   - Workers：併發數（<= 0 視為 1）
//   - ShowPB：在 stderr 顯示 pb 進度條
//   - OnStep：每完成一步呼叫一次（可能來自多個 goroutine），給外部自訂進度顯示
type BacktestOptions struct {
	Rounds  int // 0 表示整段歷史都回測
	K       int // top-k 命中的 k，0 用 profile 的 top_n
	Workers int
	ShowPB  bool
	// OnStep 每步完成後呼叫一次；多個 worker 會同時呼叫
	OnStep func()
}

// Backtest 以 walk-forward 方式回測：第 t 步只用 seq[t+1:] 預測，再跟 seq[t] 比對。
// seq 為 newest-first；預測時永遠看不到被預測那一局以及之後的資料。
func Backtest(ctx context.Context, eng *Engine, seq token.Sequence, opt BacktestOptions) (*stats.AccuracyReport, time.Duration, error) {
	if eng == nil {
		return nil, 0, errs.NewFatal("engine required")
	}
	if opt.Rounds < 0 {
		return nil, 0, errs.NewWarn("rounds must >= 0")
	}
	es := eng.Setting()
	k := opt.K
	if k <= 0 {
		k = es.Rank.TopN
	}
	if k <= 0 {
		k = 3
	}
	mp := max(opt.Workers, 1)

	// 至少要有一個最大視窗加上一局可以當目標
	minHist := maxSize(es.Sizes) + 1
	steps := len(seq) - minHist
	if opt.Rounds > 0 && opt.Rounds < steps {
		steps = opt.Rounds
	}
	if steps < 1 {
		return nil, 0, errs.Warnf("history too short for backtest: have %d, need > %d", len(seq), minHist)
	}

	reports := make([]*stats.AccuracyReport, mp)
	for i := range reports {
		reports[i] = stats.NewAccuracyReport(es.ID, k)
	}

	jobs := make(chan int, 2048)
	errCh := make(chan error, mp)
	wg := new(sync.WaitGroup)
	wg.Add(mp)

	bar := pb.StartNew(steps)
	if !opt.ShowPB {
		bar.SetWriter(io.Discard)
	}
	for w := 0; w < mp; w++ {
		go walk(ctx, wg, eng, seq, reports[w], jobs, errCh, bar, opt.OnStep)
	}
	func() {
		defer close(jobs)
		for t := 0; t < steps; t++ {
			select {
			case jobs <- t:
			case <-ctx.Done():
				return
			}
		}
	}()
	wg.Wait()
	used := time.Since(bar.StartTime())
	bar.Finish()

	close(errCh)
	if err := <-errCh; err != nil {
		return nil, used, err
	}
	if err := ctx.Err(); err != nil {
		return nil, used, errs.Wrap(err, "backtest canceled/timeout")
	}

	result := reports[0]
	for _, r := range reports[1:] {
		result.Merge(r)
	}
	result.Done()
	return result, used, nil
}

func walk(ctx context.Context, wg *sync.WaitGroup, eng *Engine, seq token.Sequence, rep *stats.AccuracyReport, jobs <-chan int, errCh chan<- error, bar *pb.ProgressBar, onStep func()) {
	defer wg.Done()
	failed := false
	for t := range jobs {
		if failed || ctx.Err() != nil {
			continue // 把剩下的 job 消化掉，producer 才不會卡住
		}
		p, err := eng.Predict(seq[t+1:])
		if err != nil {
			errCh <- err
			failed = true
			continue
		}
		rep.Record(p.Ranking.Tokens(0), seq[t])
		bar.Increment()
		if onStep != nil {
			onStep()
		}
	}
}

func maxSize(sizes []int) int {
	m := 0
	for _, s := range sizes {
		m = max(m, s)
	}
	return m
}

// Backtest 抓 Source 的歷史後回測指定 profile
func (l *Lab) Backtest(ctx context.Context, profile string, opt BacktestOptions) (*stats.AccuracyReport, time.Duration, error) {
	if err := l.check(ctx); err != nil {
		return nil, 0, err
	}
	eng, err := l.Engine(profile)
	if err != nil {
		return nil, 0, err
	}
	limit := 0
	if lim := eng.Setting().History.Limit; lim > 0 && opt.Rounds > 0 {
		limit = lim + opt.Rounds
	}
	hist, err := l.src.Fetch(ctx, limit)
	if err != nil {
		return nil, 0, errs.Wrap(err, "fetch history failed")
	}
	rep, used, err := Backtest(ctx, eng, hist.Sequence(), opt)
	if err != nil {
		return nil, used, err
	}
	l.log.Info("backtest done",
		"profile", eng.ID(),
		"rounds", rep.Summary.Rounds,
		"top1", rep.Summary.Top1Rate,
		"used", used.String(),
	)
	return rep, used, nil
}
