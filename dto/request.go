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

package dto

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/zintix-labs/patternlab"
	"github.com/zintix-labs/patternlab/errs"
	"github.com/zintix-labs/patternlab/token"
	"golang.org/x/text/language"
)

// 防止 body 過大
const maxBody = 1 << 20

type PredictRequest struct {
	Profile string `json:"profile"`
	Lang    string `json:"lang"`
	// Sequence 為空時使用資料來源的最新歷史；可用標準編碼或任一語系的文字
	Sequence []string `json:"sequence,omitempty"`
	Order    string   `json:"order,omitempty"` // Sequence 的順序，預設 newest-first
	Explain  bool     `json:"explain,omitempty"`

	acceptLang string
}

// DecodePredictRequest 把 HTTP 請求解碼成 PredictRequest。
//
//   - GET：query string（profile/lang/sequence/order/explain），sequence 以逗號分隔。
//   - POST：JSON body，未知欄位直接拒絕。
//
// lang 未指定時改用 Accept-Language。這裡只做解碼，profile 是否存在由 Lab 決定。
func DecodePredictRequest(r *http.Request) (*PredictRequest, error) {
	if r == nil {
		return nil, errs.NewWarn("nil request")
	}
	req := new(PredictRequest)
	req.acceptLang = r.Header.Get("Accept-Language")

	switch r.Method {
	case http.MethodGet:
		q := r.URL.Query()
		req.Profile = q.Get("profile")
		req.Lang = q.Get("lang")
		req.Order = q.Get("order")
		if s := q.Get("sequence"); s != "" {
			req.Sequence = strings.Split(s, ",")
		}
		if s := q.Get("explain"); s != "" {
			v, err := strconv.ParseBool(s)
			if err != nil {
				return nil, errs.NewWarn("invalid explain value " + err.Error())
			}
			req.Explain = v
		}
		return req, nil

	case http.MethodPost:
		if err := decodeJSON(r.Body, req); err != nil {
			return nil, err
		}
		return req, nil

	default:
		return nil, errs.NewWarn("method not allowed")
	}
}

// Tag 回應使用的語系
func (pr *PredictRequest) Tag() language.Tag {
	return MatchLang(pr.Lang, pr.acceptLang)
}

// HasSequence 是否由呼叫端提供序列
func (pr *PredictRequest) HasSequence() bool {
	return len(pr.Sequence) > 0
}

// Parse 轉成 newest-first 的序列；無法辨識的文字回傳 Warn
func (pr *PredictRequest) Parse() (token.Sequence, error) {
	order, err := token.ParseOrder(pr.Order)
	if err != nil {
		return nil, err
	}
	seq := make(token.Sequence, 0, len(pr.Sequence))
	for i, s := range pr.Sequence {
		v, err := ParseLabel(s)
		if err != nil {
			return nil, errs.Warnf("sequence[%d]: %v", i, err)
		}
		seq = append(seq, v)
	}
	if order == token.OldestFirst {
		for i, j := 0, len(seq)-1; i < j; i, j = i+1, j-1 {
			seq[i], seq[j] = seq[j], seq[i]
		}
	}
	return seq, nil
}

type BacktestRequest struct {
	Profile string `json:"profile"`
	Rounds  int    `json:"rounds"`
	K       int    `json:"k"`
	Workers int    `json:"workers"`
}

// maxWorkers HTTP 端可要求的最大併發
const maxWorkers = 16

// DecodeBacktestRequest 只接受 POST JSON
func DecodeBacktestRequest(r *http.Request) (*BacktestRequest, error) {
	if r == nil {
		return nil, errs.NewWarn("nil request")
	}
	if r.Method != http.MethodPost {
		return nil, errs.NewWarn("method not allowed")
	}
	req := new(BacktestRequest)
	if err := decodeJSON(r.Body, req); err != nil {
		return nil, err
	}
	if req.Rounds < 0 || req.K < 0 || req.Workers < 0 {
		return nil, errs.NewWarn("rounds, k and workers must be >= 0")
	}
	req.Workers = min(max(req.Workers, 1), maxWorkers)
	return req, nil
}

func (br *BacktestRequest) Options() patternlab.BacktestOptions {
	return patternlab.BacktestOptions{
		Rounds:  br.Rounds,
		K:       br.K,
		Workers: br.Workers,
	}
}

// QueryInt 讀取整數 query 參數；缺省回傳 def
func QueryInt(r *http.Request, key string, def int) (int, error) {
	s := r.URL.Query().Get(key)
	if s == "" {
		return def, nil
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, errs.NewWarn(fmt.Sprintf("invalid %s: %v", key, err))
	}
	return v, nil
}

func decodeJSON(body io.Reader, v any) error {
	if body == nil {
		return errs.NewWarn("empty body")
	}
	dec := json.NewDecoder(io.LimitReader(body, maxBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return errs.NewWithExtra(errs.Warn, "invalid json", err.Error())
	}
	return nil
}
