// dataset 把歷史輸出成訓練資料（CSV 或 Parquet，依副檔名決定）。
//
//	go run ./cmd/dataset -db history.db -out ladder.csv
//	go run ./cmd/dataset -db history.db -out ladder.parquet -window 4 -directions orig,rotate
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/zintix-labs/patternlab/dataset"
	"github.com/zintix-labs/patternlab/rank"
	"github.com/zintix-labs/patternlab/source"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

type config struct {
	db         string
	feed       string
	out        string
	window     int
	target     string
	directions string
	np         int64
}

func bindFlags() *config {
	cfg := new(config)
	flag.StringVar(&cfg.db, "db", os.Getenv("HISTORY_DB"), "sqlite history")
	flag.StringVar(&cfg.feed, "feed", os.Getenv("FEED_URL"), "result feed url")
	flag.StringVar(&cfg.out, "out", "ladder_dataset.csv", "output path (.csv or .parquet)")
	flag.IntVar(&cfg.window, "window", dataset.DefaultWindow, "blocks per row")
	flag.StringVar(&cfg.target, "target", "predecessor", "label: predecessor (newer) | successor (older)")
	flag.StringVar(&cfg.directions, "directions", "", "comma separated: orig,flip_full,flip_start,flip_odd_even,rotate (default all)")
	flag.Int64Var(&cfg.np, "np", 4, "parquet writer parallelism")
	flag.Parse()
	return cfg
}

func main() {
	_ = godotenv.Load()
	cfg := bindFlags()
	if err := run(context.Background(), cfg); err != nil {
		log.Fatal(err)
	}
}

func run(ctx context.Context, cfg *config) error {
	target, err := rank.ParseTarget(cfg.target)
	if err != nil {
		return err
	}
	var names []string
	if cfg.directions != "" {
		names = strings.Split(cfg.directions, ",")
	}
	dirs, err := dataset.SelectDirections(names)
	if err != nil {
		return err
	}

	src, closer, err := source.Open(cfg.db, cfg.feed, nil)
	if err != nil {
		return err
	}
	defer closer.Close()
	h, err := src.Fetch(ctx, 0)
	if err != nil {
		return err
	}
	window := cfg.window
	if window == 0 {
		window = dataset.DefaultWindow
	}
	rows, err := dataset.Build(h.Sequence(), dataset.Options{Window: window, Target: target, Directions: dirs})
	if err != nil {
		return err
	}

	switch strings.ToLower(filepath.Ext(cfg.out)) {
	case ".parquet":
		err = dataset.WriteParquet(cfg.out, rows, cfg.np)
	case ".csv":
		err = writeCSV(cfg.out, rows, window)
	default:
		return fmt.Errorf("unsupported output %q: use .csv or .parquet", cfg.out)
	}
	if err != nil {
		return err
	}
	p := message.NewPrinter(language.English)
	p.Printf("history %d rounds -> %d rows (%d directions) -> %s\n", h.Len(), len(rows), len(dirs), cfg.out)
	return nil
}

func writeCSV(path string, rows []dataset.Row, window int) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := dataset.WriteCSV(f, rows, window); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
