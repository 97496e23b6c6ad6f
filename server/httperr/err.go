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

package httperr

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/zintix-labs/patternlab"
	"github.com/zintix-labs/patternlab/errs"
	"github.com/zintix-labs/patternlab/server/netsvr/middleware"
)

// Body 錯誤回應的 JSON 結構
type Body struct {
	Error     string `json:"error"`
	Detail    string `json:"detail,omitempty"`
	Level     string `json:"level"`
	RequestID string `json:"request_id,omitempty"`
}

// StatusCode 將錯誤映射成 HTTP status code。
//   - ctx timeout/cancel → 504/408
//   - errs.Warn         → 400
//   - errs.Fatal        → 500；Lab 已關閉時為 503
//
// 放在 server/* 而非 errs，核心錯誤包不依賴 net/http。
func StatusCode(err error) int {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, context.Canceled):
		return http.StatusRequestTimeout
	}
	var e *errs.E
	if errors.As(err, &e) {
		switch e.ErrLv {
		case errs.Warn:
			return http.StatusBadRequest
		case errs.Fatal:
			if errors.Is(err, patternlab.ErrClosed) {
				return http.StatusServiceUnavailable
			}
		}
	}
	return http.StatusInternalServerError
}

// Errs 以 JSON 寫回錯誤；5xx 不回傳內部細節
func Errs(w http.ResponseWriter, r *http.Request, err error) {
	if err == nil {
		return
	}
	status := StatusCode(err)
	body := Body{Error: err.Error(), Level: levelName(err)}
	var e *errs.E
	if errors.As(err, &e) {
		body.Error = e.Message
		body.Detail = e.Extra
	}
	if status >= 500 {
		body.Error = http.StatusText(status)
		body.Detail = ""
	}
	if r != nil {
		body.RequestID = middleware.GetReqId(r)
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// Log 只記錄需要注意的錯誤：408/409/429 為 Warn，5xx 為 Error
func Log(log *slog.Logger, msg string, err error) {
	if err == nil || log == nil {
		return
	}
	status := StatusCode(err)
	switch {
	case status == http.StatusRequestTimeout || status == http.StatusConflict || status == http.StatusTooManyRequests:
		log.Warn(msg, slog.Any("err", err))
	case status >= 500 && status < 600:
		log.Error(msg, slog.Any("err", err))
	}
}

func levelName(err error) string {
	if errs.Level(err) == errs.None {
		return "error"
	}
	return errs.Level(err).String()
}
