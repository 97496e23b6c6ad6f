package stats

import (
	"fmt"
	"io"
	"time"

	"github.com/zintix-labs/patternlab/token"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var lang language.Tag = language.English

// 信賴區間
type CI struct {
	Lo float64 `json:"Lo" yaml:"lo"`
	Hi float64 `json:"Hi" yaml:"hi"`
}

// AccuracyReport 預測命中率報告
type AccuracyReport struct {
	Summary *SummaryReport `json:"Summary" yaml:"summary"`
	Dist    *DistReport    `json:"Dist"    yaml:"dist"`
	isDone  bool
}

type SummaryReport struct {
	Profile      string  `json:"Profile"      yaml:"profile"`
	K            int     `json:"K"            yaml:"k"`
	Rounds       int     `json:"Rounds"       yaml:"rounds"`        // 有實際值可比對的回合
	Predicted    int     `json:"Predicted"    yaml:"predicted"`     // 有給出預測的回合
	NoPrediction int     `json:"NoPrediction" yaml:"no_prediction"` // 明確無預測
	Skipped      int     `json:"Skipped"      yaml:"skipped"`       // 實際值不合法或缺漏
	Top1Hits     int     `json:"Top1Hits"     yaml:"top1_hits"`
	TopKHits     int     `json:"TopKHits"     yaml:"topk_hits"`
	Top1Rate     float64 `json:"Top1Rate"     yaml:"top1_rate"`
	Top1CI       CI      `json:"Top1CI"       yaml:"top1_ci"`
	TopKRate     float64 `json:"TopKRate"     yaml:"topk_rate"`
	TopKCI       CI      `json:"TopKCI"       yaml:"topk_ci"`
	Coverage     float64 `json:"Coverage"     yaml:"coverage"`
	Baseline     float64 `json:"Baseline"     yaml:"baseline"`   // 均勻猜測的 top-1 命中率
	BaselineK    float64 `json:"BaselineK"    yaml:"baseline_k"` // 均勻猜測的 top-k 命中率
	Lift         float64 `json:"Lift"         yaml:"lift"`       // Top1Rate / Baseline
}

// DistReport 依 token 的分佈（固定順序）
type DistReport struct {
	Tokens    []string `json:"Tokens"    yaml:"tokens,flow"`
	Actual    []int    `json:"Actual"    yaml:"actual,flow"`    // 實際出現次數
	Predicted []int    `json:"Predicted" yaml:"predicted,flow"` // 被預測為第一名的次數
	Hits      []int    `json:"Hits"      yaml:"hits,flow"`      // 第一名命中次數
}

// NewAccuracyReport k 為 top-k 的 k（< 1 時視為 1）
func NewAccuracyReport(profile string, k int) *AccuracyReport {
	k = max(k, 1)
	names := make([]string, 0, token.Size)
	for _, v := range token.All() {
		names = append(names, v.String())
	}
	return &AccuracyReport{
		Summary: &SummaryReport{Profile: profile, K: k},
		Dist: &DistReport{
			Tokens:    names,
			Actual:    make([]int, token.Size),
			Predicted: make([]int, token.Size),
			Hits:      make([]int, token.Size),
		},
	}
}

// Record 記錄一回合：top 為排名（空代表無預測），actual 為實際結果
func (r *AccuracyReport) Record(top []token.Token, actual token.Token) {
	s := r.Summary
	if !actual.IsValid() {
		s.Skipped++
		return
	}
	s.Rounds++
	r.Dist.Actual[actual.Index()]++
	if len(top) == 0 {
		s.NoPrediction++
		return
	}
	s.Predicted++
	if top[0].IsValid() {
		r.Dist.Predicted[top[0].Index()]++
	}
	if top[0] == actual {
		s.Top1Hits++
		r.Dist.Hits[actual.Index()]++
	}
	for i, v := range top {
		if i >= s.K {
			break
		}
		if v == actual {
			s.TopKHits++
			break
		}
	}
	r.isDone = false
}

// Merge 合併另一份報告（平行回測時每個 worker 一份）
func (r *AccuracyReport) Merge(o *AccuracyReport) {
	if o == nil {
		return
	}
	s, t := r.Summary, o.Summary
	s.Rounds += t.Rounds
	s.Predicted += t.Predicted
	s.NoPrediction += t.NoPrediction
	s.Skipped += t.Skipped
	s.Top1Hits += t.Top1Hits
	s.TopKHits += t.TopKHits
	for i := range r.Dist.Actual {
		r.Dist.Actual[i] += o.Dist.Actual[i]
		r.Dist.Predicted[i] += o.Dist.Predicted[i]
		r.Dist.Hits[i] += o.Dist.Hits[i]
	}
	r.isDone = false
}

// Done 將累積計數轉換為比例與信賴區間
//
// 命中率以「有預測的回合」為分母；無預測的回合反映在 Coverage
func (r *AccuracyReport) Done() {
	if r.isDone {
		return
	}
	s := r.Summary
	s.Top1Rate, s.Top1CI = proportionCICP(s.Top1Hits, s.Predicted, 0.95)
	s.TopKRate, s.TopKCI = proportionCICP(s.TopKHits, s.Predicted, 0.95)
	if s.Rounds > 0 {
		s.Coverage = float64(s.Predicted) / float64(s.Rounds)
	}
	s.Baseline = 1.0 / float64(token.Size)
	s.BaselineK = float64(min(s.K, token.Size)) / float64(token.Size)
	s.Lift = s.Top1Rate / s.Baseline
	r.isDone = true
}

func (r *AccuracyReport) WriteWith(w io.Writer, rep Render) error {
	r.Done()
	return rep.Write(w, r)
}

// StdOut 印出表格與耗時
func (r *AccuracyReport) StdOut(ut time.Duration) {
	r.Done()
	formatDuration(ut, r.Summary.Rounds+r.Summary.Skipped)
	keys, msg := r.fmtBasic()
	fmt.Println(fmtTable(r.Summary.Profile, keys, msg))
	fmt.Println(r.fmtDist())
}

// ============================================================
// ** 內部方法 **
// ============================================================

func formatDuration(d time.Duration, steps int) {
	p := message.NewPrinter(lang)
	if d < 0 {
		d = -d
	}
	sec := d.Seconds()
	if sec <= 0 {
		sec = 1e-9
	}
	ps := int(float64(steps) / sec)
	if sec < 60.0 {
		p.Printf("used: %.2f seconds\nrate: %d predictions/sec\n", sec, ps)
		return
	}
	s := int(d.Seconds()) % 60
	m := int(d.Minutes()) % 60
	h := int(d.Hours())
	if h == 0 {
		p.Printf("used: %dm %ds\nrate: %d predictions/sec\n", m, s, ps)
		return
	}
	p.Printf("used: %dh:%dm:%ds\nrate: %d predictions/sec\n", h, m, s, ps)
}

func (r *AccuracyReport) fmtBasic() ([]string, map[string]string) {
	p := message.NewPrinter(lang)
	s := r.Summary
	basic := map[string]string{
		"Profile":       p.Sprintf("%s", s.Profile),
		"Rounds":        p.Sprintf("%d", s.Rounds),
		"Predicted":     p.Sprintf("%d", s.Predicted),
		"No Prediction": p.Sprintf("%d", s.NoPrediction),
		"Skipped":       p.Sprintf("%d", s.Skipped),
		"Coverage":      p.Sprintf("%.2f %%", 100.0*s.Coverage),
		"Top-1":         fmtHatCIpct01(s.Top1Rate, s.Top1CI),
		"Baseline":      p.Sprintf("%.2f %% / %.2f %%", 100.0*s.Baseline, 100.0*s.BaselineK),
		"Lift":          p.Sprintf("%.3f", s.Lift),
	}
	keys := []string{"Profile", "Rounds", "Predicted", "No Prediction", "Skipped", "Coverage", "Top-1"}
	if s.K > 1 {
		topK := fmt.Sprintf("Top-%d", s.K)
		basic[topK] = fmtHatCIpct01(s.TopKRate, s.TopKCI)
		keys = append(keys, topK)
	}
	keys = append(keys, "Baseline", "Lift")
	return keys, basic
}

func (r *AccuracyReport) fmtDist() string {
	p := message.NewPrinter(lang)
	msg := make(map[string]string, token.Size)
	for i, name := range r.Dist.Tokens {
		msg[name] = p.Sprintf("actual %d | top1 %d | hit %d", r.Dist.Actual[i], r.Dist.Predicted[i], r.Dist.Hits[i])
	}
	return fmtTable("Tokens", r.Dist.Tokens, msg)
}

func fmtPct01(x float64) string {
	return fmt.Sprintf("%.2f%%", x*100)
}

func fmtHatCIpct01(hat float64, ci CI) string {
	return fmt.Sprintf("%s [%s, %s]", fmtPct01(hat), fmtPct01(ci.Lo), fmtPct01(ci.Hi))
}
