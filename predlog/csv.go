package predlog

import (
	"encoding/csv"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/zintix-labs/patternlab/errs"
)

// CSVHeader 與舊版 predict_log.csv 相同的欄位
var CSVHeader = []string{"timestamp", "round", "recent_block", "top3", "predictions"}

// ExportCSV 依追加順序（由舊到新）輸出
func (s *Store) ExportCSV(w io.Writer) error {
	entries, err := s.List(0)
	if err != nil {
		return err
	}
	cw := csv.NewWriter(w)
	if err := cw.Write(CSVHeader); err != nil {
		return errs.Wrap(err, "write csv header")
	}
	for i := len(entries) - 1; i >= 0; i-- {
		e := entries[i]
		top := e.Top
		if len(top) > 3 {
			top = top[:3]
		}
		preds := make([]string, 0, len(e.All))
		for _, p := range e.All {
			preds = append(preds, p.Token+":"+strconv.FormatFloat(p.Score, 'f', 2, 64))
		}
		row := []string{
			e.Timestamp.Format(time.DateTime),
			strconv.Itoa(e.Round),
			strings.Join(e.Recent, ","),
			strings.Join(top, ","),
			strings.Join(preds, ","),
		}
		if err := cw.Write(row); err != nil {
			return errs.Wrap(err, "write csv row")
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return errs.Wrap(err, "flush csv")
	}
	return nil
}
