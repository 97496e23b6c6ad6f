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

package errs

import (
	"errors"
	"fmt"
)

// ErrLevel 錯誤分級：讓邊界層（HTTP / CLI）知道該怎麼回應
type ErrLevel uint8

const (
	None  ErrLevel = iota
	Fatal          // 系統/設定錯誤，無法繼續
	Warn           // 呼叫端的輸入問題，可修正後重試
	Log            // 僅需記錄
)

func (l ErrLevel) String() string {
	switch l {
	case Fatal:
		return "fatal"
	case Warn:
		return "warn"
	case Log:
		return "log"
	default:
		return ""
	}
}

// E 是本專案統一的錯誤型別。
//
// Message 為主訊息；Extra 為附加上下文（例如 profile 名稱、檔名）；
// Cause 串接下層錯誤；ErrLv 決定邊界層如何映射。
type E struct {
	Message string
	Extra   string
	Cause   error
	ErrLv   ErrLevel
}

func (e *E) Error() string {
	msg := "errlv=" + e.ErrLv.String() + " " + e.Message
	if e.Extra != "" {
		msg += " | extra: " + e.Extra
	}
	if e.Cause != nil {
		msg += fmt.Sprintf(" (cause: %v)", e.Cause)
	}
	return msg
}

// Unwrap 讓 errors.Is / errors.As 可以往下找
func (e *E) Unwrap() error { return e.Cause }

func New(lv ErrLevel, msg string) *E {
	return &E{Message: msg, ErrLv: lv}
}

func NewFatal(msg string) *E { return New(Fatal, msg) }

func NewWarn(msg string) *E { return New(Warn, msg) }

func NewLog(msg string) *E { return New(Log, msg) }

func Fatalf(format string, a ...any) *E { return NewFatal(fmt.Sprintf(format, a...)) }

func Warnf(format string, a ...any) *E { return NewWarn(fmt.Sprintf(format, a...)) }

func Logf(format string, a ...any) *E { return NewLog(fmt.Sprintf(format, a...)) }

// NewWithExtra 同 New，另外附帶一段不影響主訊息的上下文
func NewWithExtra(lv ErrLevel, msg string, extra string) *E {
	e := New(lv, msg)
	e.Extra = extra
	return e
}

// Wrap 包裝下層錯誤。
//
//   - cause 若已是 *E，沿用它的 ErrLv。
//   - 其他來源（標準庫、sqlite、bbolt、網路）一律視為 Fatal。
//
// 已知是呼叫端輸入問題時，請直接 NewWarn，不要 Wrap。
func Wrap(cause error, msg string) *E {
	return WrapWithExtra(cause, msg, "")
}

// WrapWithExtra 同 Wrap，另外附帶上下文
func WrapWithExtra(cause error, msg string, extra string) *E {
	lv := Fatal
	if e, ok := AsErr(cause); ok {
		lv = e.ErrLv
	}
	r := NewWithExtra(lv, msg, extra)
	r.Cause = cause
	return r
}

// AsErr 取出錯誤鏈上的第一個 *E
func AsErr(err error) (*E, bool) {
	var e *E
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// Level 回傳錯誤鏈上的 ErrLv；非 *E 的錯誤視為 Fatal，nil 為 None
func Level(err error) ErrLevel {
	if err == nil {
		return None
	}
	if e, ok := AsErr(err); ok {
		return e.ErrLv
	}
	return Fatal
}
