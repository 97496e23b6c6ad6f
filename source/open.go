package source

import (
	"io"

	"github.com/zintix-labs/patternlab/errs"
)

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// Open 依 cmd 的參數組出 Source：
//   - db 與 feed 都有：Cached，每次讀取前先把 feed 同步進 db
//   - 只有 db：SQLite
//   - 只有 feed：Feed
//
// 回傳的 io.Closer 負責關閉 db；沒有 db 時為 no-op。
func Open(db, feed string, onSyncErr func(error)) (Source, io.Closer, error) {
	switch {
	case db != "":
		local, err := OpenSQLite(db)
		if err != nil {
			return nil, nil, err
		}
		if feed == "" {
			return local, local, nil
		}
		return &Cached{Local: local, Upstream: NewFeed(feed), OnSyncErr: onSyncErr}, local, nil
	case feed != "":
		return NewFeed(feed), nopCloser{}, nil
	}
	return nil, nil, errs.NewWarn("history source required: set a sqlite db or a feed url")
}
