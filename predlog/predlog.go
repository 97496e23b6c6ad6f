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

// Package predlog 只能追加的預測紀錄，存放於 bbolt。
package predlog

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"time"

	"github.com/zintix-labs/patternlab/errs"
	"go.etcd.io/bbolt"
)

var (
	bucketEntries = []byte("entries")
	bucketRounds  = []byte("rounds") // round(8) + seq(8) -> nil
)

// Scored 一個預測值與分數
type Scored struct {
	Token string  `json:"token"`
	Score float64 `json:"score"`
}

// Entry 一次預測的紀錄
type Entry struct {
	Seq          uint64    `json:"seq"`
	Timestamp    time.Time `json:"timestamp"`
	Round        int       `json:"round"`
	Profile      string    `json:"profile"`
	Recent       []string  `json:"recent"` // 預測當下最近的幾局，最近的在前
	Top          []string  `json:"top"`
	All          []Scored  `json:"all"`
	NoPrediction bool      `json:"no_prediction"`
}

// Top1 第一名；沒有預測時為空字串
func (e Entry) Top1() string {
	if e.NoPrediction || len(e.Top) == 0 {
		return ""
	}
	return e.Top[0]
}

type Store struct {
	db  *bbolt.DB
	now func() time.Time
}

func Open(path string) (*Store, error) {
	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, errs.WrapWithExtra(err, "open prediction log", path)
	}
	err = db.Update(func(tx *bbolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists(bucketEntries); err != nil {
			return err
		}
		_, err := tx.CreateBucketIfNotExists(bucketRounds)
		return err
	})
	if err != nil {
		db.Close()
		return nil, errs.Wrap(err, "create prediction log buckets")
	}
	return &Store{db: db, now: time.Now}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func u64(v uint64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, v)
	return b
}

// Append 追加一筆紀錄，填入 Seq 與（若為零值）Timestamp 後回傳
func (s *Store) Append(e Entry) (Entry, error) {
	if e.Timestamp.IsZero() {
		e.Timestamp = s.now()
	}
	if e.Round < 0 {
		return e, errs.NewWarn("round must be >= 0")
	}
	err := s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketEntries)
		seq, err := b.NextSequence()
		if err != nil {
			return err
		}
		e.Seq = seq
		raw, err := json.Marshal(e)
		if err != nil {
			return err
		}
		if err := b.Put(u64(seq), raw); err != nil {
			return err
		}
		key := append(u64(uint64(e.Round)), u64(seq)...)
		return tx.Bucket(bucketRounds).Put(key, nil)
	})
	if err != nil {
		return e, errs.Wrap(err, "append prediction")
	}
	return e, nil
}

// List 由新到舊，最多 limit 筆（limit <= 0 表示全部）
func (s *Store) List(limit int) ([]Entry, error) {
	out := make([]Entry, 0, 64)
	err := s.db.View(func(tx *bbolt.Tx) error {
		c := tx.Bucket(bucketEntries).Cursor()
		for k, v := c.Last(); k != nil; k, v = c.Prev() {
			var e Entry
			if err := json.Unmarshal(v, &e); err != nil {
				return err
			}
			out = append(out, e)
			if limit > 0 && len(out) >= limit {
				break
			}
		}
		return nil
	})
	if err != nil {
		return nil, errs.Wrap(err, "list predictions")
	}
	return out, nil
}

// ByRound 某回合的所有紀錄（依追加順序）
func (s *Store) ByRound(round int) ([]Entry, error) {
	var out []Entry
	prefix := u64(uint64(round))
	err := s.db.View(func(tx *bbolt.Tx) error {
		c := tx.Bucket(bucketRounds).Cursor()
		entries := tx.Bucket(bucketEntries)
		for k, _ := c.Seek(prefix); k != nil && bytes.HasPrefix(k, prefix); k, _ = c.Next() {
			raw := entries.Get(k[8:])
			if raw == nil {
				continue
			}
			var e Entry
			if err := json.Unmarshal(raw, &e); err != nil {
				return err
			}
			out = append(out, e)
		}
		return nil
	})
	if err != nil {
		return nil, errs.Wrap(err, "predictions by round")
	}
	return out, nil
}

// Len 紀錄總數
func (s *Store) Len() (int, error) {
	var n int
	err := s.db.View(func(tx *bbolt.Tx) error {
		n = tx.Bucket(bucketEntries).Stats().KeyN
		return nil
	})
	return n, err
}
