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

package dataset

import (
	"encoding/csv"
	"io"
	"strconv"

	"github.com/xitongsys/parquet-go-source/local"
	"github.com/xitongsys/parquet-go/parquet"
	"github.com/xitongsys/parquet-go/reader"
	"github.com/xitongsys/parquet-go/writer"
	"github.com/zintix-labs/patternlab/errs"
	"github.com/zintix-labs/patternlab/token"
)

// Header block1..blockN,direction,label
func Header(window int) []string {
	h := make([]string, 0, window+2)
	for i := 1; i <= window; i++ {
		h = append(h, "block"+strconv.Itoa(i))
	}
	return append(h, "direction", "label")
}

// WriteCSV 寫出表頭與所有列；window 決定表頭欄數
func WriteCSV(w io.Writer, rows []Row, window int) error {
	if window == 0 {
		window = DefaultWindow
	}
	cw := csv.NewWriter(w)
	if err := cw.Write(Header(window)); err != nil {
		return errs.Wrap(err, "write csv header")
	}
	rec := make([]string, 0, window+2)
	for _, r := range rows {
		if len(r.Blocks) != window {
			return errs.Fatalf("row at offset %d has %d blocks, want %d", r.Offset, len(r.Blocks), window)
		}
		rec = append(rec[:0], r.Blocks.Strings()...)
		rec = append(rec, r.Direction, r.Label.String())
		if err := cw.Write(rec); err != nil {
			return errs.Wrap(err, "write csv row")
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return errs.Wrap(err, "flush csv")
	}
	return nil
}

// ParquetRow Parquet 的一列；Codes/LabelCode 為 token 的 canonical index (0..7)
type ParquetRow struct {
	Offset    int32    `parquet:"name=offset, type=INT32"`
	Blocks    []string `parquet:"name=blocks, type=LIST, valuetype=BYTE_ARRAY, valueconvertedtype=UTF8"`
	Codes     []int32  `parquet:"name=codes, type=LIST, valuetype=INT32"`
	Direction string   `parquet:"name=direction, type=BYTE_ARRAY, convertedtype=UTF8, encoding=PLAIN_DICTIONARY"`
	Label     string   `parquet:"name=label, type=BYTE_ARRAY, convertedtype=UTF8, encoding=PLAIN_DICTIONARY"`
	LabelCode int32    `parquet:"name=label_code, type=INT32"`
}

func toParquet(r Row) ParquetRow {
	codes := make([]int32, len(r.Blocks))
	for i, v := range r.Blocks {
		codes[i] = int32(v.Index())
	}
	return ParquetRow{
		Offset:    int32(r.Offset),
		Blocks:    r.Blocks.Strings(),
		Codes:     codes,
		Direction: r.Direction,
		Label:     r.Label.String(),
		LabelCode: int32(r.Label.Index()),
	}
}

// WriteParquet 寫到本機檔案（SNAPPY 壓縮），np 為寫入併發數
func WriteParquet(path string, rows []Row, np int64) (err error) {
	if np < 1 {
		np = 1
	}
	fw, err := local.NewLocalFileWriter(path)
	if err != nil {
		return errs.Wrap(err, "create parquet file")
	}
	defer func() {
		if cerr := fw.Close(); cerr != nil && err == nil {
			err = errs.Wrap(cerr, "close parquet file")
		}
	}()

	pw, err := writer.NewParquetWriter(fw, new(ParquetRow), np)
	if err != nil {
		return errs.Wrap(err, "create parquet writer")
	}
	pw.CompressionType = parquet.CompressionCodec_SNAPPY
	for _, r := range rows {
		if err := pw.Write(toParquet(r)); err != nil {
			_ = pw.WriteStop()
			return errs.Wrap(err, "write parquet row")
		}
	}
	if err := pw.WriteStop(); err != nil {
		return errs.Wrap(err, "finish parquet")
	}
	return nil
}

// ReadParquet 讀回 WriteParquet 的輸出
func ReadParquet(path string) ([]ParquetRow, error) {
	fr, err := local.NewLocalFileReader(path)
	if err != nil {
		return nil, errs.Wrap(err, "open parquet file")
	}
	defer fr.Close()

	pr, err := reader.NewParquetReader(fr, new(ParquetRow), 1)
	if err != nil {
		return nil, errs.Wrap(err, "create parquet reader")
	}
	defer pr.ReadStop()

	out := make([]ParquetRow, int(pr.GetNumRows()))
	if len(out) == 0 {
		return out, nil
	}
	if err := pr.Read(&out); err != nil {
		return nil, errs.Wrap(err, "read parquet rows")
	}
	return out, nil
}

// LabelToken 把 LabelCode 轉回 token
func (p ParquetRow) LabelToken() token.Token {
	all := token.All()
	if p.LabelCode < 0 || int(p.LabelCode) >= len(all) {
		return token.Invalid
	}
	return all[p.LabelCode]
}
