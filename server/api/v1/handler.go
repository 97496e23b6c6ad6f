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

// Package v1 是 /v1 底下的 HTTP handler。
//
// handler 只做三件事：解碼請求（dto）、呼叫 Lab、把結果或錯誤（httperr）寫回。
package v1

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/sugawarayuuta/sonnet"
	"github.com/zintix-labs/patternlab"
	"github.com/zintix-labs/patternlab/errs"
	"github.com/zintix-labs/patternlab/server/httperr"
	"github.com/zintix-labs/patternlab/server/svrcfg"
)

type Handler struct {
	lab       *patternlab.Lab
	log       *slog.Logger
	timeout   time.Duration
	btTimeout time.Duration
}

func NewHandler(sCfg *svrcfg.SvrCfg) (*Handler, error) {
	if sCfg == nil || sCfg.Lab == nil {
		return nil, errs.NewFatal("lab is required")
	}
	return &Handler{
		lab:       sCfg.Lab,
		log:       sCfg.Log,
		timeout:   sCfg.Timeout,
		btTimeout: sCfg.BacktestTimeout,
	}, nil
}

func (h *Handler) withTimeout(r *http.Request, td time.Duration) (context.Context, context.CancelFunc) {
	if td <= 0 {
		td = svrcfg.DefaultTimeout
	}
	return context.WithTimeout(r.Context(), td)
}

// fail 記錄並寫回錯誤
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, msg string, err error) {
	httperr.Log(h.log, msg, err)
	httperr.Errs(w, r, err)
}

// writeJSON 先整個編碼完再寫，避免寫到一半才發生錯誤
func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	b, err := sonnet.Marshal(v)
	if err != nil {
		httperr.Errs(w, r, errs.Wrap(err, "encode response"))
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(append(b, '\n'))
}

type healthResponse struct {
	Status   string `json:"status"`
	Profiles int    `json:"profiles"`
	Reason   string `json:"reason,omitempty"`
}

// Health GET /healthz；Lab 關閉後回 503
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	if h.lab.Closed() {
		writeJSON(w, r, http.StatusServiceUnavailable, healthResponse{Status: "closed", Reason: h.lab.ClosedReason()})
		return
	}
	writeJSON(w, r, http.StatusOK, healthResponse{Status: "ok", Profiles: len(h.lab.Catalog().IDs())})
}
