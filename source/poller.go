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

package source

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/zintix-labs/patternlab/errs"
)

const DefaultPollInterval = 30 * time.Second

// Poller 定期把 Upstream 同步進 Local。
// 實作 Run/Shutdown，可以直接註冊到 server/app.App。
type Poller struct {
	Local    *SQLite
	Upstream Source
	Interval time.Duration
	Log      *slog.Logger

	once   sync.Once
	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
}

func NewPoller(local *SQLite, upstream Source, interval time.Duration, log *slog.Logger) *Poller {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	if log == nil {
		log = slog.Default()
	}
	return &Poller{Local: local, Upstream: upstream, Interval: interval, Log: log}
}

func (p *Poller) init() {
	p.once.Do(func() {
		p.ctx, p.cancel = context.WithCancel(context.Background())
		p.done = make(chan struct{})
	})
}

// Poll 同步一次，回傳寫入筆數
func (p *Poller) Poll(ctx context.Context) (int, error) {
	if p.Local == nil || p.Upstream == nil {
		return 0, errs.NewFatal("poller needs local and upstream")
	}
	ctx, cancel := context.WithTimeout(ctx, p.Interval)
	defer cancel()
	return p.Local.Sync(ctx, p.Upstream, 0)
}

// Run 先同步一次，之後每 Interval 一次，直到 Shutdown。同步失敗只記錄不中止。
func (p *Poller) Run() error {
	p.init()
	defer close(p.done)

	tick := time.NewTicker(p.Interval)
	defer tick.Stop()
	for {
		n, err := p.Poll(p.ctx)
		switch {
		case err != nil && p.ctx.Err() == nil:
			p.Log.Warn("history sync failed", slog.Any("err", err))
		case err == nil:
			p.Log.Debug("history synced", slog.Int("rows", n))
		}
		select {
		case <-p.ctx.Done():
			return nil
		case <-tick.C:
		}
	}
}

func (p *Poller) Shutdown(ctx context.Context) error {
	p.init()
	p.cancel()
	select {
	case <-p.done:
		return nil
	case <-ctx.Done():
		return errs.Wrap(ctx.Err(), "poller shutdown")
	}
}
