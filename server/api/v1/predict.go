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

	"github.com/zintix-labs/patternlab"
	"github.com/zintix-labs/patternlab/dto"
)

// Predict GET|POST /v1/predict
//
// 沒帶 sequence 時從資料來源抓最新歷史（會寫入預測紀錄）；
// 帶了 sequence 就只對該序列計算。
func (h *Handler) Predict(w http.ResponseWriter, r *http.Request) {
	req, err := dto.DecodePredictRequest(r)
	if err != nil {
		h.fail(w, r, "decode predict request", err)
		return
	}
	ctx, cancel := h.withTimeout(r, h.timeout)
	defer cancel()

	var p *patternlab.Prediction
	switch {
	case req.HasSequence():
		seq, perr := req.Parse()
		if perr != nil {
			h.fail(w, r, "parse sequence", perr)
			return
		}
		p, err = h.lab.PredictSequence(ctx, req.Profile, seq, req.Explain)
	case req.Explain:
		p, err = h.lab.ExplainLatest(ctx, req.Profile)
	default:
		p, err = h.lab.Predict(ctx, req.Profile)
	}
	if err != nil {
		h.fail(w, r, "predict", err)
		return
	}
	writeJSON(w, r, http.StatusOK, dto.NewPrediction(p, req.Tag()))
}
