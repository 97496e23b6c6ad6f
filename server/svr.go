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

package server

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/zintix-labs/patternlab/errs"
	"github.com/zintix-labs/patternlab/server/api"
	"github.com/zintix-labs/patternlab/server/app"
	"github.com/zintix-labs/patternlab/server/netsvr"
	"github.com/zintix-labs/patternlab/server/svrcfg"
)

// Run 組裝預設的 HTTP server（chi）、註冊路由，並與 sCfg.Workers 一起啟動，直到收到終止信號。
//
// 所有依賴（Lab、logger、背景元件）都由 SvrCfg 注入，這裡不讀環境變數。
func Run(sCfg *svrcfg.SvrCfg) {
	if err := sCfg.Valid(); err != nil {
		// 防止外層傳入的logger不可用
		fmt.Fprintln(os.Stderr, err)
		return
	}
	svr := netsvr.NewChiServerDefault()
	if sCfg.Addr != "" {
		svr = netsvr.NewChiServer(sCfg.Addr)
	}
	run(sCfg, svr, "[patternlab] listening on http://localhost"+svr.Address())
}

// RunWithSvr 與 Run 相同，但使用呼叫端注入的 NetSvr（自訂 listener、timeout、或掛到既有服務）
func RunWithSvr(sCfg *svrcfg.SvrCfg, svr netsvr.NetSvr) {
	if err := sCfg.Valid(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return
	}
	if svr == nil {
		sCfg.Log.Error(errs.NewFatal("svr is required").Error())
		return
	}
	if s, ok := svr.(*netsvr.ChiAdapter); ok && !s.Ready() {
		sCfg.Log.Error(errs.NewFatal("default server is not ready").Error())
		return
	}
	run(sCfg, svr, "[patternlab] listening")
}

func run(sCfg *svrcfg.SvrCfg, svr netsvr.NetSvr, msg string) {
	if err := api.RegisterRoutes(svr, sCfg); err != nil {
		sCfg.Log.Error("register routes failed", slog.Any("err", err))
		return
	}
	a := app.NewWith(svr).WithLogger(sCfg.Log)
	for _, w := range sCfg.Workers {
		a.Register(w)
	}
	sCfg.Log.Info(msg, slog.Int("workers", len(sCfg.Workers)))
	if err := a.Run(); err != nil {
		sCfg.Log.Error("app stopped", slog.Any("err", err))
	}
	sCfg.Lab.Close()
}
