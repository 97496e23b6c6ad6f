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

package v1

import (
	"net/http"

	"github.com/zintix-labs/patternlab/dto"
	"github.com/zintix-labs/patternlab/stats"
)

type backtestResponse struct {
	Profile string                `json:"profile"`
	Report  *stats.AccuracyReport `json:"report"`
	UsedMs  int64                 `json:"used_ms"`
}

// Backtest POST /v1/backtest
func (h *Handler) Backtest(w http.ResponseWriter, r *http.Request) {
	req, err := dto.DecodeBacktestRequest(r)
	if err != nil {
		h.fail(w, r, "decode backtest request", err)
		return
	}
	ctx, cancel := h.withTimeout(r, h.btTimeout)
	defer cancel()

	rep, used, err := h.lab.Backtest(ctx, req.Profile, req.Options())
	if err != nil {
		h.fail(w, r, "backtest", err)
		return
	}
	writeJSON(w, r, http.StatusOK, backtestResponse{
		Profile: rep.Summary.Profile,
		Report:  rep,
		UsedMs:  used.Milliseconds(),
	})
}
