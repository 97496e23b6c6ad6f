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

package stats

import (
	"strings"

	"github.com/zintix-labs/patternlab/predlog"
	"github.com/zintix-labs/patternlab/token"
)

// EvaluateLog 以實際結果比對預測紀錄。
//
// labels 為 回合 -> 實際 token；沒有實際值的紀錄（尚未開獎或超出範圍）直接略過，
// 不計入 Skipped。profile 不為空時只評估該 profile 的紀錄。
func EvaluateLog(entries []predlog.Entry, labels map[int]token.Token, profile string, k int) *AccuracyReport {
	r := NewAccuracyReport(profile, k)
	if profile == "" {
		r.Summary.Profile = "all"
	}
	for _, e := range entries {
		if profile != "" && !strings.EqualFold(e.Profile, profile) {
			continue
		}
		actual, ok := labels[e.Round]
		if !ok {
			continue
		}
		var top []token.Token
		if !e.NoPrediction {
			for _, s := range e.Top {
				v, err := token.Parse(s)
				if err != nil {
					continue
				}
				top = append(top, v)
			}
		}
		r.Record(top, actual)
	}
	r.Done()
	return r
}
