package stats

import (
	"encoding/json"
	"io"
	"sort"
	"strings"

	"github.com/mattn/go-runewidth"
	"golang.org/x/text/message"
	"gopkg.in/yaml.v3"
)

// Render 定義輸出行為
type Render interface {
	Write(w io.Writer, r *AccuracyReport) error
}

// Json渲染
type JsonRender struct{}

func (jr *JsonRender) Write(w io.Writer, r *AccuracyReport) error {
	return json.NewEncoder(w).Encode(r)
}

// YAML渲染
type YAMLRender struct{}

func (yr *YAMLRender) Write(w io.Writer, r *AccuracyReport) error {
	// 只有「最內層的一維陣列」輸出成 flow style：[..., ...]
	return forceReadableList(w, r)
}

// 表格渲染
type TableRender struct{}

func (tr *TableRender) Write(w io.Writer, r *AccuracyReport) error {
	keys, msg := r.fmtBasic()
	if _, err := io.WriteString(w, fmtTable(r.Summary.Profile, keys, msg)); err != nil {
		return err
	}
	_, err := io.WriteString(w, r.fmtDist())
	return err
}

// RenderByName json | yaml | table（其他值回傳 nil）
func RenderByName(name string) Render {
	switch strings.ToLower(name) {
	case "json":
		return &JsonRender{}
	case "yaml", "yml":
		return &YAMLRender{}
	case "table", "":
		return &TableRender{}
	}
	return nil
}

// YAML 內層方法
func forceReadableList[T any](w io.Writer, t *T) error {
	var node yaml.Node
	if err := node.Encode(t); err != nil {
		return err
	}
	styleReadableSequences(&node)

	enc := yaml.NewEncoder(w)
	defer enc.Close()
	return enc.Encode(&node)
}

func styleReadableSequences(n *yaml.Node) {
	if n == nil {
		return
	}

	switch n.Kind {
	case yaml.DocumentNode, yaml.MappingNode:
		for _, c := range n.Content {
			styleReadableSequences(c)
		}
		return

	case yaml.SequenceNode:
		hasChildSeq := false
		for _, c := range n.Content {
			if c != nil && (c.Kind == yaml.SequenceNode || c.Kind == yaml.MappingNode) {
				hasChildSeq = true
				break
			}
		}
		for _, c := range n.Content {
			styleReadableSequences(c)
		}
		// 最內層一維 => flow style: [a, b, c]
		if !hasChildSeq {
			n.Style = yaml.FlowStyle
		}
		return

	default:
		return
	}
}

func fmtTable(title string, keys []string, msg map[string]string) string {
	p := message.NewPrinter(lang)
	maxKeyLen := runewidth.StringWidth(title)
	maxValLen := 0
	for k, m := range msg {
		if w := runewidth.StringWidth(k); w > maxKeyLen {
			maxKeyLen = w
		}
		if w := runewidth.StringWidth(m); w > maxValLen {
			maxValLen = w
		}
	}
	maxKeyLen += 2
	maxValLen += 2

	divider := "+" + strings.Repeat("-", maxKeyLen) + "+" + strings.Repeat("-", maxValLen) + "+\n"
	top := "+" + strings.Repeat("-", maxKeyLen+1+maxValLen) + "+\n"

	totalInner := maxKeyLen + maxValLen + 1
	titleW := runewidth.StringWidth(title)

	left := (totalInner - titleW) / 2
	right := totalInner - titleW - left

	var sb strings.Builder
	sb.WriteString(top)
	sb.WriteString(p.Sprintf("|%s%s%s|\n", blank(left), title, blank(right)))
	sb.WriteString(divider)
	for _, k := range keys {
		sb.WriteString(p.Sprintf("| %s%s | %s%s |\n", k, blank(maxKeyLen-2-runewidth.StringWidth(k)), msg[k], blank(maxValLen-2-runewidth.StringWidth(msg[k]))))
	}
	sb.WriteString(divider)
	return sb.String()
}

func blank(w int) string {
	if w < 1 {
		return ""
	}
	return strings.Repeat(" ", w)
}

// Compare 多個 profile 的回測結果並排成一張表，依 Top-1 命中率由高到低
func Compare(w io.Writer, reps []*AccuracyReport) error {
	sorted := make([]*AccuracyReport, 0, len(reps))
	for _, r := range reps {
		if r == nil {
			continue
		}
		r.Done()
		sorted = append(sorted, r)
	}
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Summary.Top1Rate > sorted[j].Summary.Top1Rate
	})
	p := message.NewPrinter(lang)
	keys := make([]string, 0, len(sorted))
	msg := make(map[string]string, len(sorted))
	for _, r := range sorted {
		s := r.Summary
		keys = append(keys, s.Profile)
		msg[s.Profile] = p.Sprintf("top1 %s | top%d %s | cov %s | lift %.3f | n %d",
			fmtPct01(s.Top1Rate), s.K, fmtPct01(s.TopKRate), fmtPct01(s.Coverage), s.Lift, s.Rounds)
	}
	_, err := io.WriteString(w, fmtTable("Compare", keys, msg))
	return err
}
