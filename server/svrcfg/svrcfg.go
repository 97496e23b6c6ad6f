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

package svrcfg

import (
	"log/slog"
	"time"

	"github.com/zintix-labs/patternlab"
	"github.com/zintix-labs/patternlab/errs"
	"github.com/zintix-labs/patternlab/server/app"
	"github.com/zintix-labs/patternlab/server/logger"
)

const (
	DefaultTimeout         = 5 * time.Second
	DefaultBacktestTimeout = 60 * time.Second
)

type SvrCfg struct {
	Log *slog.Logger
	Lab *patternlab.Lab

	// Addr 監聽位址，空字串為 :5808
	Addr string
	// Timeout 單次預測的上限；BacktestTimeout 給 /v1/backtest
	Timeout         time.Duration
	BacktestTimeout time.Duration
	// CORSOrigins 允許的來源；空表示 "*"
	CORSOrigins []string
	// Workers 與 HTTP server 一起啟停的背景元件（例如歷史資料同步）
	Workers []app.Component
}

func (sc *SvrCfg) Valid() error {
	if sc.Log != nil {
		if ah, ok := sc.Log.Handler().(*logger.AsyncHandler); ok && !ah.Ready() {
			return errs.NewFatal("nil default log handler: async handler is nil")
		}
	} else {
		sc.Log, _ = logger.NewAsync(1024, logger.ModeDev)
	}
	if sc.Timeout <= 0 {
		sc.Timeout = DefaultTimeout
	}
	if sc.BacktestTimeout <= 0 {
		sc.BacktestTimeout = DefaultBacktestTimeout
	}
	if sc.Lab == nil {
		return errs.NewFatal("lab is required")
	}
	return nil
}
