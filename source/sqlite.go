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
	"database/sql"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/zintix-labs/patternlab/errs"
	"github.com/zintix-labs/patternlab/token"
)

const schema = `
CREATE TABLE IF NOT EXISTS rounds (
	round       INTEGER PRIMARY KEY,
	start_point TEXT    NOT NULL,
	line_count  INTEGER NOT NULL,
	odd_even    TEXT    NOT NULL,
	token       TEXT    NOT NULL,
	saved_at    INTEGER NOT NULL
)`

const upsert = `
INSERT INTO rounds (round, start_point, line_count, odd_even, token, saved_at)
VALUES (?, ?, ?, ?, ?, ?)
ON CONFLICT(round) DO UPDATE SET
	start_point = excluded.start_point,
	line_count  = excluded.line_count,
	odd_even    = excluded.odd_even,
	token       = excluded.token,
	saved_at    = excluded.saved_at`

// SQLite 本地歷史庫；round 為主鍵，重複寫入會覆蓋
type SQLite struct {
	db *sql.DB
}

func OpenSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, errs.WrapWithExtra(err, "open sqlite", path)
	}
	// sqlite 單寫者
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, errs.WrapWithExtra(err, "create rounds table", path)
	}
	return &SQLite{db: db}, nil
}

func (s *SQLite) Close() error {
	return s.db.Close()
}

// Save 寫入（或覆蓋）紀錄，回傳寫入筆數
func (s *SQLite) Save(ctx context.Context, recs []token.Record) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, errs.Wrap(err, "begin tx")
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, upsert)
	if err != nil {
		return 0, errs.Wrap(err, "prepare upsert")
	}
	defer stmt.Close()

	now := time.Now().Unix()
	for _, r := range recs {
		if _, err := stmt.ExecContext(ctx, int(r.Round), r.StartPoint, int(r.LineCount), r.OddEven, token.Normalize(r).String(), now); err != nil {
			return 0, errs.WrapWithExtra(err, "upsert round", r.StartPoint)
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, errs.Wrap(err, "commit rounds")
	}
	return len(recs), nil
}

// Fetch 依回合由新到舊
func (s *SQLite) Fetch(ctx context.Context, limit int) (*History, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT round, start_point, line_count, odd_even FROM rounds ORDER BY round DESC LIMIT ?`, limit)
	if err != nil {
		return nil, errs.Wrap(err, "query rounds")
	}
	defer rows.Close()

	recs := make([]token.Record, 0, 512)
	for rows.Next() {
		var (
			r          token.Record
			round, cnt int
		)
		if err := rows.Scan(&round, &r.StartPoint, &cnt, &r.OddEven); err != nil {
			return nil, errs.Wrap(err, "scan round")
		}
		r.Round = token.FlexInt(round)
		r.LineCount = token.FlexInt(cnt)
		recs = append(recs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, errs.Wrap(err, "iterate rounds")
	}
	return &History{Records: recs}, nil
}

func (s *SQLite) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM rounds`).Scan(&n); err != nil {
		return 0, errs.Wrap(err, "count rounds")
	}
	return n, nil
}

// Sync 從另一個來源抓取並寫入
func (s *SQLite) Sync(ctx context.Context, from Source, limit int) (int, error) {
	h, err := from.Fetch(ctx, limit)
	if err != nil {
		return 0, errs.Wrap(err, "sync fetch")
	}
	return s.Save(ctx, h.Records)
}

// Cached 先同步上游再從本地讀；上游失敗時退回本地資料
type Cached struct {
	Local    *SQLite
	Upstream Source
	// OnSyncErr 上游失敗時呼叫（通常是寫 log）
	OnSyncErr func(error)
}

func (c *Cached) Fetch(ctx context.Context, limit int) (*History, error) {
	if c.Upstream != nil {
		if _, err := c.Local.Sync(ctx, c.Upstream, 0); err != nil && c.OnSyncErr != nil {
			c.OnSyncErr(err)
		}
	}
	return c.Local.Fetch(ctx, limit)
}
