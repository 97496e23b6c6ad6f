package v1

import (
	"bytes"
	"net/http"

	"github.com/zintix-labs/patternlab/dto"
	"github.com/zintix-labs/patternlab/errs"
	"github.com/zintix-labs/patternlab/predlog"
)

const (
	defaultLogLimit = 50
	defaultLatest   = 3
	maxLatest       = 500
)

type latestResponse struct {
	Round  int      `json:"round,omitempty"` // 最新一局
	Tokens []string `json:"tokens"`
	Labels []string `json:"labels"`
}

// Latest GET /v1/latest?n=3&lang=ko 最近 n 局，最近的在前
func (h *Handler) Latest(w http.ResponseWriter, r *http.Request) {
	n, err := dto.QueryInt(r, "n", defaultLatest)
	if err != nil {
		h.fail(w, r, "decode latest request", err)
		return
	}
	if n < 1 || n > maxLatest {
		h.fail(w, r, "decode latest request", errs.Warnf("n must be in [1, %d]", maxLatest))
		return
	}
	ctx, cancel := h.withTimeout(r, h.timeout)
	defer cancel()

	hist, err := h.lab.Source().Fetch(ctx, n)
	if err != nil {
		h.fail(w, r, "fetch latest", errs.Wrap(err, "fetch history failed"))
		return
	}
	seq := hist.Sequence()
	tag := dto.MatchLang(r.URL.Query().Get("lang"), r.Header.Get("Accept-Language"))
	out := latestResponse{Tokens: seq.Strings(), Labels: make([]string, len(seq))}
	for i, v := range seq {
		out.Labels[i] = dto.Label(v, tag)
	}
	if round, ok := hist.LatestRound(); ok {
		out.Round = round
	}
	writeJSON(w, r, http.StatusOK, out)
}

func (h *Handler) predLog() (*predlog.Store, error) {
	if s := h.lab.PredLog(); s != nil {
		return s, nil
	}
	return nil, errs.NewWarn("prediction log disabled")
}

// Log GET /v1/log?limit=50 最新的預測紀錄在前
func (h *Handler) Log(w http.ResponseWriter, r *http.Request) {
	s, err := h.predLog()
	if err != nil {
		h.fail(w, r, "prediction log", err)
		return
	}
	limit, err := dto.QueryInt(r, "limit", defaultLogLimit)
	if err != nil {
		h.fail(w, r, "decode log request", err)
		return
	}
	entries, err := s.List(limit)
	if err != nil {
		h.fail(w, r, "list prediction log", err)
		return
	}
	writeJSON(w, r, http.StatusOK, entries)
}

// LogCSV GET /v1/log.csv 全部紀錄，由舊到新
func (h *Handler) LogCSV(w http.ResponseWriter, r *http.Request) {
	s, err := h.predLog()
	if err != nil {
		h.fail(w, r, "prediction log", err)
		return
	}
	var buf bytes.Buffer
	if err := s.ExportCSV(&buf); err != nil {
		h.fail(w, r, "export prediction log", err)
		return
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="predict_log.csv"`)
	_, _ = w.Write(buf.Bytes())
}

// Accuracy GET /v1/accuracy?profile=&k=3 以實際開獎結果評估預測紀錄
func (h *Handler) Accuracy(w http.ResponseWriter, r *http.Request) {
	k, err := dto.QueryInt(r, "k", 3)
	if err != nil {
		h.fail(w, r, "decode accuracy request", err)
		return
	}
	ctx, cancel := h.withTimeout(r, h.timeout)
	defer cancel()

	rep, err := h.lab.Accuracy(ctx, r.URL.Query().Get("profile"), k)
	if err != nil {
		h.fail(w, r, "accuracy", err)
		return
	}
	writeJSON(w, r, http.StatusOK, rep)
}
