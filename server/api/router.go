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

// Package api 組裝 middleware 與所有路由。
package api

import (
	"github.com/zintix-labs/patternlab/server/api/index"
	v1 "github.com/zintix-labs/patternlab/server/api/v1"
	"github.com/zintix-labs/patternlab/server/netsvr"
	"github.com/zintix-labs/patternlab/server/netsvr/middleware"
	"github.com/zintix-labs/patternlab/server/svrcfg"
)

// RegisterRoutes 註冊 middleware、主頁與 v1 api
func RegisterRoutes(svr netsvr.NetRouter, sCfg *svrcfg.SvrCfg) error {
	h, err := v1.NewHandler(sCfg)
	if err != nil {
		return err
	}
	registerMiddleware(svr, sCfg)
	registerIndex(svr, h)
	registerV1API(svr, h)
	return nil
}

// 順序：request id → access log → recover → cors → 壓縮
func registerMiddleware(svr netsvr.NetRouter, sCfg *svrcfg.SvrCfg) {
	svr.Use(middleware.RequestID)
	svr.Use(middleware.AccessLog(sCfg.Log))
	svr.Use(middleware.Recover(sCfg.Log))
	svr.Use(middleware.CORS(sCfg.CORSOrigins))
	svr.Use(middleware.Compression)
}

func registerIndex(svr netsvr.NetRouter, h *v1.Handler) {
	svr.Get("/", index.IndexHandlerFn)
	svr.Get("/favicon.svg", index.Favicon)
	svr.Get("/healthz", h.Health)
	// 舊版只有 GET /predict
	svr.Get("/predict", h.Predict)
}

func registerV1API(svr netsvr.NetRouter, h *v1.Handler) {
	svr.Group("/v1", func(vOne netsvr.NetRouter) {
		vOne.Get("/predict", h.Predict)
		vOne.Post("/predict", h.Predict)
		vOne.Get("/latest", h.Latest)
		vOne.Get("/profiles", h.Profiles)
		vOne.Post("/backtest", h.Backtest)
		vOne.Get("/log", h.Log)
		vOne.Get("/log.csv", h.LogCSV)
		vOne.Get("/accuracy", h.Accuracy)
	})
}
