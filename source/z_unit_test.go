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
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zintix-labs/patternlab/token"
)

const feedBody = `[
 {"date_round": "1001", "start_point": "LEFT",  "line_count": 3, "odd_even": "ODD"},
 {"date_round": 1000,   "start_point": "RIGHT", "line_count": "4", "odd_even": "EVEN"},
 {"date_round": 999,    "start_point": "UP",    "line_count": 3, "odd_even": "ODD"}
]`

func TestFeedFetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(feedBody))
	}))
	defer srv.Close()

	f := NewFeed(srv.URL)
	h, err := f.Fetch(context.Background(), 0)
	require.NoError(t, err)
	require.Equal(t, 3, h.Len())

	round, ok := h.LatestRound()
	require.True(t, ok)
	assert.Equal(t, 1001, round)
	assert.Equal(t, "[A3O B4E INVALID]", h.Sequence().String())
	assert.Len(t, h.Labels(), 2)

	h2, err := f.Fetch(context.Background(), 2)
	require.NoError(t, err)
	assert.Equal(t, 2, h2.Len())

	f.Order = token.OldestFirst
	h3, err := f.Fetch(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, 999, int(h3.Records[0].Round))
}

func TestFeedErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/bad" {
			_, _ = w.Write([]byte("{not json"))
			return
		}
		http.Error(w, "down", http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := NewFeed(srv.URL).Fetch(context.Background(), 0)
	assert.Error(t, err)
	_, err = NewFeed(srv.URL+"/bad").Fetch(context.Background(), 0)
	assert.Error(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = NewFeed(srv.URL).Fetch(ctx, 0)
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestSQLiteRoundTrip(t *testing.T) {
	db, err := OpenSQLite(filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	defer db.Close()
	ctx := context.Background()

	recs, err := DecodeRecords([]byte(feedBody))
	require.NoError(t, err)
	n, err := db.Save(ctx, recs)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	// 覆寫同一回合
	_, err = db.Save(ctx, []token.Record{{Round: 999, StartPoint: "LEFT", LineCount: 4, OddEven: "ODD"}})
	require.NoError(t, err)

	cnt, err := db.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, cnt)

	h, err := db.Fetch(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, "[A3O B4E A4O]", h.Sequence().String())

	h, err = db.Fetch(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, 2, h.Len())
}

func TestSyncAndCached(t *testing.T) {
	db, err := OpenSQLite(filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	defer db.Close()
	ctx := context.Background()

	up := StaticSequence(token.MustParse("B3E", "A4O", "A3E"), 50)
	n, err := db.Sync(ctx, up, 2)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	var syncErr error
	c := &Cached{Local: db, Upstream: failing{}, OnSyncErr: func(err error) { syncErr = err }}
	h, err := c.Fetch(ctx, 0)
	require.NoError(t, err)
	assert.Error(t, syncErr)
	assert.Equal(t, "[B3E A4O]", h.Sequence().String())

	c.Upstream = up
	h, err = c.Fetch(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, 3, h.Len())
}

type failing struct{}

func (failing) Fetch(context.Context, int) (*History, error) {
	return nil, errors.New("upstream down")
}

func TestStatic(t *testing.T) {
	s := StaticSequence(token.MustParse("A3O", "B4E"), 10)
	h, err := s.Fetch(context.Background(), 0)
	require.NoError(t, err)
	round, _ := h.LatestRound()
	assert.Equal(t, 10, round)
	assert.Equal(t, map[int]token.Token{10: token.MustParse("A3O")[0], 9: token.MustParse("B4E")[0]}, h.Labels())

	old := NewStatic([]token.Record{{Round: 1}, {Round: 2}}, token.OldestFirst)
	h, err = old.Fetch(context.Background(), 0)
	require.NoError(t, err)
	round, _ = h.LatestRound()
	assert.Equal(t, 2, round)
}

func TestPoller(t *testing.T) {
	db, err := OpenSQLite(filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	defer db.Close()

	p := NewPoller(db, StaticSequence(token.MustParse("A3O", "B4E", "A4O"), 10), time.Hour, nil)
	done := make(chan error, 1)
	go func() { done <- p.Run() }()

	// Run 啟動時先同步一次
	require.Eventually(t, func() bool {
		n, err := db.Count(context.Background())
		return err == nil && n == 3
	}, 2*time.Second, 10*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, p.Shutdown(ctx))
	require.NoError(t, <-done)

	bad := NewPoller(nil, nil, 0, nil)
	assert.Equal(t, DefaultPollInterval, bad.Interval)
	_, err = bad.Poll(context.Background())
	assert.Error(t, err)
}

func TestOpen(t *testing.T) {
	_, _, err := Open("", "", nil)
	assert.Error(t, err)

	src, c, err := Open("", "http://127.0.0.1:1/feed.json", nil)
	require.NoError(t, err)
	assert.IsType(t, &Feed{}, src)
	assert.NoError(t, c.Close())

	path := filepath.Join(t.TempDir(), "history.db")
	src, c, err = Open(path, "", nil)
	require.NoError(t, err)
	assert.IsType(t, &SQLite{}, src)
	require.NoError(t, c.Close())

	src, c, err = Open(path, "http://127.0.0.1:1/feed.json", nil)
	require.NoError(t, err)
	defer c.Close()
	cached, ok := src.(*Cached)
	require.True(t, ok)
	assert.NotNil(t, cached.Local)
}
