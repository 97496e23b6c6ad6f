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

package api

import (
	"encoding/csv"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zintix-labs/patternlab"
	"github.com/zintix-labs/patternlab/dto"
	"github.com/zintix-labs/patternlab/predlog"
	"github.com/zintix-labs/patternlab/profiles"
	"github.com/zintix-labs/patternlab/server/httperr"
	"github.com/zintix-labs/patternlab/server/logger"
	"github.com/zintix-labs/patternlab/server/netsvr"
	"github.com/zintix-labs/patternlab/server/svrcfg"
	"github.com/zintix-labs/patternlab/source"
	"github.com/zintix-labs/patternlab/stats"
	"github.com/zintix-labs/patternlab/token"
)

func periodic(n int) token.Sequence {
	pat := token.MustParse("A3O", "A4E", "B3O", "B4E")
	out := make(token.Sequence, n)
	for i := range out {
		out[i] = pat[i%len(pat)]
	}
	return out
}

func newTestServer(t *testing.T) (http.Handler, *patternlab.Lab) {
	t.Helper()
	plog, err := predlog.Open(filepath.Join(t.TempDir(), "predlog.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = plog.Close() })

	log := logger.NewDefaultLogger(logger.ModeSilence)
	lab, err := patternlab.New(source.StaticSequence(periodic(80), 500), patternlab.Configs(profiles.FS),
		patternlab.WithPredLog(plog), patternlab.WithLogger(log))
	require.NoError(t, err)

	cfg := &svrcfg.SvrCfg{Log: log, Lab: lab}
	require.NoError(t, cfg.Valid())
	svr := netsvr.NewChiServer(":0")
	require.NoError(t, RegisterRoutes(svr, cfg))
	return svr.Handler(), lab
}

func do(h http.Handler, method, target, body string, hdr ...string) *httptest.ResponseRecorder {
	var r *http.Request
	if body != "" {
		r = httptest.NewRequest(method, target, strings.NewReader(body))
	} else {
		r = httptest.NewRequest(method, target, nil)
	}
	for i := 0; i+1 < len(hdr); i += 2 {
		r.Header.Set(hdr[i], hdr[i+1])
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)
	return w
}

func TestPredictLatest(t *testing.T) {
	h, _ := newTestServer(t)
	w := do(h, http.MethodGet, "/v1/predict?lang=ko", "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.NotEmpty(t, w.Header().Get("X-Request-Id"))

	var out dto.Prediction
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	assert.Equal(t, profiles.Default, out.Profile)
	assert.Equal(t, 501, out.Round)
	assert.Equal(t, "ko", out.Lang)
	assert.False(t, out.NoPrediction)
	require.NotEmpty(t, out.Top)
	assert.Equal(t, 1, out.Top[0].Rank)
	assert.Equal(t, []string{"좌3홀", "좌4짝", "우3홀", "우4짝", "좌3홀"}, out.Recent)
	assert.Empty(t, out.MatchList)

	// 舊路徑
	w = do(h, http.MethodGet, "/predict", "")
	assert.Equal(t, http.StatusOK, w.Code)

	w = do(h, http.MethodGet, "/v1/log", "")
	require.Equal(t, http.StatusOK, w.Code)
	var entries []predlog.Entry
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &entries))
	require.Len(t, entries, 2)
	assert.Equal(t, 501, entries[0].Round)

	w = do(h, http.MethodGet, "/v1/log.csv", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/csv")
	rows, err := csv.NewReader(w.Body).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, predlog.CSVHeader, rows[0])

	w = do(h, http.MethodGet, "/v1/accuracy?k=3", "")
	require.Equal(t, http.StatusOK, w.Code)
	var rep stats.AccuracyReport
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &rep))
	assert.Equal(t, 3, rep.Summary.K)
	assert.Equal(t, 0, rep.Summary.Rounds, "round 501 尚未開出")
}

func TestPredictSequence(t *testing.T) {
	h, _ := newTestServer(t)
	w := do(h, http.MethodGet, "/v1/predict?profile=first-only&explain=true&sequence=A3O,A4E,B3O,A3O,A4E,B3O,B4E", "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var out dto.Prediction
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	assert.Equal(t, "first-only", out.Profile)
	assert.Zero(t, out.Round)
	assert.NotEmpty(t, out.MatchList)
	assert.Equal(t, "en", out.Lang)

	w = do(h, http.MethodPost, "/v1/predict", `{"sequence":["좌3홀","좌4짝","우3홀"],"lang":"zh-TW"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	assert.Equal(t, []string{"左3單", "左4雙", "右3單"}, out.Recent)
}

func TestErrors(t *testing.T) {
	h, lab := newTestServer(t)

	w := do(h, http.MethodGet, "/v1/predict?profile=missing", "")
	require.Equal(t, http.StatusBadRequest, w.Code)
	var body httperr.Body
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "profile not found: missing", body.Error)
	assert.Equal(t, "warn", body.Level)
	assert.NotEmpty(t, body.RequestID)

	w = do(h, http.MethodGet, "/v1/predict?sequence=A3O,Z9Z", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(h, http.MethodPost, "/v1/backtest", `{"rounds":-1}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(h, http.MethodGet, "/v1/latest?n=0", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(h, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, w.Code)

	lab.Close()
	w = do(h, http.MethodGet, "/v1/predict", "")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "fatal", body.Level)
	assert.Empty(t, body.Detail)

	w = do(h, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestBacktestProfilesLatest(t *testing.T) {
	h, _ := newTestServer(t)

	w := do(h, http.MethodPost, "/v1/backtest", `{"profile":"classic","rounds":10,"k":3,"workers":2}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var bt struct {
		Profile string                `json:"profile"`
		Report  *stats.AccuracyReport `json:"report"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &bt))
	assert.Equal(t, profiles.Default, bt.Profile)
	assert.Equal(t, 10, bt.Report.Summary.Rounds)

	w = do(h, http.MethodGet, "/v1/profiles", "")
	require.Equal(t, http.StatusOK, w.Code)
	var ps struct {
		Default  string `json:"default"`
		Profiles []struct {
			ID string `json:"id"`
		} `json:"profiles"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &ps))
	assert.Equal(t, profiles.Default, ps.Default)
	assert.Len(t, ps.Profiles, 5)

	w = do(h, http.MethodGet, "/v1/latest?n=3", "", "Accept-Language", "ko")
	require.Equal(t, http.StatusOK, w.Code)
	var lt struct {
		Round  int      `json:"round"`
		Tokens []string `json:"tokens"`
		Labels []string `json:"labels"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &lt))
	assert.Equal(t, 500, lt.Round)
	assert.Equal(t, []string{"A3O", "A4E", "B3O"}, lt.Tokens)
	assert.Equal(t, "좌3홀", lt.Labels[0])
}

func TestIndexAndMiddleware(t *testing.T) {
	h, _ := newTestServer(t)

	w := do(h, http.MethodGet, "/", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "<title>patternlab</title>")

	w = do(h, http.MethodGet, "/favicon.svg", "")
	assert.Equal(t, "image/svg+xml", w.Header().Get("Content-Type"))

	w = do(h, http.MethodGet, "/v1/profiles", "", "Accept-Encoding", "gzip")
	assert.Equal(t, "gzip", w.Header().Get("Content-Encoding"))

	w = do(h, http.MethodGet, "/v1/profiles", "", "Accept-Encoding", "gzip;q=0")
	assert.Empty(t, w.Header().Get("Content-Encoding"))

	w = do(h, http.MethodOptions, "/v1/predict", "", "Origin", "http://example.com", "Access-Control-Request-Method", "POST")
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}
