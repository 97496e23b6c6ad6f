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

package source

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sugawarayuuta/sonnet"
	"github.com/zintix-labs/patternlab/errs"
	"github.com/zintix-labs/patternlab/token"
)

// DefaultFeedURL power ladder 的最近結果
const DefaultFeedURL = "https://ntry.com/data/json/games/power_ladder/recent_result.json"

const maxFeedBytes = 8 << 20

// Feed 以 HTTP GET 取得 JSON 陣列形式的紀錄
type Feed struct {
	URL    string
	Order  token.Order
	Client *http.Client
}

func NewFeed(url string) *Feed {
	if url == "" {
		url = DefaultFeedURL
	}
	return &Feed{
		URL:    url,
		Order:  token.NewestFirst,
		Client: &http.Client{Timeout: 10 * time.Second},
	}
}

func (f *Feed) Fetch(ctx context.Context, limit int) (*History, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.URL, nil)
	if err != nil {
		return nil, errs.Wrap(err, "build feed request")
	}
	req.Header.Set("Accept", "application/json")

	client := f.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, errs.WrapWithExtra(err, "feed request failed", f.URL)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, errs.NewWithExtra(errs.Fatal, fmt.Sprintf("feed status %d", resp.StatusCode), f.URL)
	}
	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxFeedBytes))
	if err != nil {
		return nil, errs.Wrap(err, "read feed body")
	}
	recs, err := DecodeRecords(raw)
	if err != nil {
		return nil, err
	}
	return NewHistory(recs, f.Order).Head(limit), nil
}

// DecodeRecords 解析 feed 的 JSON 陣列
func DecodeRecords(raw []byte) ([]token.Record, error) {
	var recs []token.Record
	if err := sonnet.Unmarshal(raw, &recs); err != nil {
		return nil, errs.Wrap(err, "decode feed json")
	}
	return recs, nil
}
