package dto

import (
	"strings"
	"sync"

	"github.com/zintix-labs/patternlab/errs"
	"github.com/zintix-labs/patternlab/token"
	"golang.org/x/text/language"
)

// Labeler 把 token 轉成某個語系的顯示文字
type Labeler func(token.Token) string

type labelTable struct {
	side   [2]string
	count  [2]string
	parity [2]string
	sep    string
}

func (lt labelTable) label(v token.Token) string {
	if !v.IsValid() {
		return v.String()
	}
	return lt.side[v.Side()] + lt.count[v.Count()] + lt.sep + lt.parity[v.Parity()]
}

var (
	labelMu     sync.RWMutex
	labelers    = map[language.Tag]Labeler{}
	tags        []language.Tag // 第一個為 fallback
	langMatcher language.Matcher
)

func init() {
	RegisterLabeler(language.English, labelTable{
		side: [2]string{"L", "R"}, count: [2]string{"3", "4"}, parity: [2]string{"odd", "even"}, sep: " ",
	}.label)
	RegisterLabeler(language.Korean, labelTable{
		side: [2]string{"좌", "우"}, count: [2]string{"3", "4"}, parity: [2]string{"홀", "짝"},
	}.label)
	RegisterLabeler(language.TraditionalChinese, labelTable{
		side: [2]string{"左", "右"}, count: [2]string{"3", "4"}, parity: [2]string{"單", "雙"},
	}.label)
}

// RegisterLabeler 註冊（或覆寫）某語系的顯示方式
func RegisterLabeler(tag language.Tag, fn Labeler) {
	labelMu.Lock()
	defer labelMu.Unlock()
	if _, ok := labelers[tag]; !ok {
		tags = append(tags, tag)
	}
	labelers[tag] = fn
	langMatcher = language.NewMatcher(tags)
}

// MatchLang 依 "ko"、"en-US,en;q=0.8" 之類的字串找出最接近的已註冊語系；
// 無法辨識時回傳 English
func MatchLang(pref ...string) language.Tag {
	labelMu.RLock()
	defer labelMu.RUnlock()
	var want []language.Tag
	for _, p := range pref {
		if p = strings.TrimSpace(p); p == "" {
			continue
		}
		ts, _, err := language.ParseAcceptLanguage(p)
		if err != nil {
			continue
		}
		want = append(want, ts...)
	}
	if len(want) == 0 {
		return tags[0]
	}
	_, idx, conf := langMatcher.Match(want...)
	if conf == language.No {
		return tags[0]
	}
	return tags[idx]
}

// Label token 在 tag 語系下的文字
func Label(v token.Token, tag language.Tag) string {
	labelMu.RLock()
	fn, ok := labelers[tag]
	if !ok {
		fn = labelers[tags[0]]
	}
	labelMu.RUnlock()
	return fn(v)
}

// ParseLabel 接受標準編碼（A3O）或任一已註冊語系的文字（좌3홀、L3 odd）
func ParseLabel(s string) (token.Token, error) {
	s = strings.TrimSpace(s)
	if v, err := token.Parse(strings.ToUpper(s)); err == nil {
		return v, nil
	}
	labelMu.RLock()
	defer labelMu.RUnlock()
	for _, tag := range tags {
		fn := labelers[tag]
		for _, v := range token.All() {
			if strings.EqualFold(fn(v), s) {
				return v, nil
			}
		}
	}
	return token.Invalid, errs.Warnf("unknown token label: %q", s)
}
