// backtest 以 walk-forward 方式回測 profile 的命中率。
//
//	go run ./cmd/backtest -db history.db -profile classic -rounds 500 -workers 8
//	go run ./cmd/backtest -db history.db -profile all -rounds 500   # 全部 profile 並排比較
//	go run ./cmd/backtest -feed https://... -format yaml -p cpu
package main

import (
	"context"
	"flag"
	"fmt"
	"io/fs"
	"log"
	"os"
	"os/signal"
	"runtime"
	"sync"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/vbauerster/mpb/v8"
	"github.com/vbauerster/mpb/v8/decor"
	"github.com/zintix-labs/patternlab"
	"github.com/zintix-labs/patternlab/perf"
	"github.com/zintix-labs/patternlab/profiles"
	"github.com/zintix-labs/patternlab/server/logger"
	"github.com/zintix-labs/patternlab/source"
	"github.com/zintix-labs/patternlab/stats"
	"github.com/zintix-labs/patternlab/token"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

const allProfiles = "all"

type config struct {
	db          string
	feed        string
	profile     string
	profilesDir string
	rounds      int
	k           int
	workers     int
	format      string
	pprof       string
}

func bindFlags() *config {
	cfg := new(config)
	flag.StringVar(&cfg.db, "db", os.Getenv("HISTORY_DB"), "sqlite history")
	flag.StringVar(&cfg.feed, "feed", os.Getenv("FEED_URL"), "result feed url")
	flag.StringVar(&cfg.profile, "profile", profiles.Default, "profile id or name, or \"all\"")
	flag.StringVar(&cfg.profilesDir, "profiles", os.Getenv("PROFILES_DIR"), "profile yaml directory (default: built-in)")
	flag.IntVar(&cfg.rounds, "rounds", 0, "rounds to backtest (0 = all available)")
	flag.IntVar(&cfg.k, "k", 0, "top-k (0 = profile top_n)")
	flag.IntVar(&cfg.workers, "workers", runtime.NumCPU(), "number of workers")
	flag.StringVar(&cfg.format, "format", "table", "output: table|json|yaml")
	flag.StringVar(&cfg.pprof, "p", "", "pprof: '', cpu, heap, allocs")
	flag.Parse()
	return cfg
}

func (cfg *config) valid() error {
	if cfg.workers < 1 {
		return fmt.Errorf("value err : workers must > 0")
	}
	if cfg.rounds < 0 || cfg.k < 0 {
		return fmt.Errorf("value err : rounds and k must >= 0")
	}
	if stats.RenderByName(cfg.format) == nil {
		return fmt.Errorf("value err : unknown format %q", cfg.format)
	}
	return nil
}

func main() {
	_ = godotenv.Load()
	cfg := bindFlags()
	if err := cfg.valid(); err != nil {
		log.Fatal(err)
	}
	mode, err := perf.ParseMode(cfg.pprof)
	if err != nil {
		log.Fatal(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	lab, hist, err := buildLab(ctx, cfg)
	if err != nil {
		log.Fatal(err)
	}
	defer lab.Close()

	green := "\033[1;32m"
	reset := "\033[0m"
	p := message.NewPrinter(language.English)
	p.Printf("%s[HISTORY:%d] [PROFILE:%s] [ROUNDS:%d] [WORKERS:%d]%s\n", green, hist, cfg.profile, cfg.rounds, cfg.workers, reset)

	var runErr error
	path, err := perf.Run(perf.DefaultDir, mode, func() {
		if cfg.profile == allProfiles {
			runErr = compare(ctx, lab, cfg)
			return
		}
		runErr = single(ctx, lab, cfg)
	})
	if err != nil {
		log.Fatal(err)
	}
	if runErr != nil {
		log.Fatal(runErr)
	}
	if path != "" {
		fmt.Println("pprof:", path)
	}
}

// buildLab 先把歷史一次抓進記憶體，之後每個 profile 都從同一份資料回測
func buildLab(ctx context.Context, cfg *config) (*patternlab.Lab, int, error) {
	src, closer, err := source.Open(cfg.db, cfg.feed, nil)
	if err != nil {
		return nil, 0, err
	}
	defer closer.Close()

	h, err := src.Fetch(ctx, 0)
	if err != nil {
		return nil, 0, err
	}
	var cfgFS fs.FS = profiles.FS
	if cfg.profilesDir != "" {
		cfgFS = os.DirFS(cfg.profilesDir)
	}
	lab, err := patternlab.New(
		source.NewStatic(h.Records, token.NewestFirst),
		patternlab.Configs(cfgFS),
		patternlab.WithLogger(logger.NewDefaultLogger(logger.ModeSilence)),
	)
	if err != nil {
		return nil, 0, err
	}
	return lab, h.Len(), nil
}

func (cfg *config) options() patternlab.BacktestOptions {
	return patternlab.BacktestOptions{Rounds: cfg.rounds, K: cfg.k, Workers: cfg.workers}
}

func single(ctx context.Context, lab *patternlab.Lab, cfg *config) error {
	opt := cfg.options()
	opt.ShowPB = true
	rep, used, err := lab.Backtest(ctx, cfg.profile, opt)
	if err != nil {
		return err
	}
	if cfg.format == "table" {
		rep.StdOut(used)
		return nil
	}
	return rep.WriteWith(os.Stdout, stats.RenderByName(cfg.format))
}

// compare 每個 profile 一條 mpb 進度條，同時跑；workers 平均分給各 profile
func compare(ctx context.Context, lab *patternlab.Lab, cfg *config) error {
	ids := lab.Catalog().IDs()
	per := max(cfg.workers/len(ids), 1)
	estimate := int64(cfg.rounds)

	bars := mpb.NewWithContext(ctx, mpb.WithWidth(60))
	reps := make([]*stats.AccuracyReport, len(ids))
	errsCh := make(chan error, len(ids))
	var wg sync.WaitGroup
	start := time.Now()

	for i, id := range ids {
		bar := bars.AddBar(estimate,
			mpb.PrependDecorators(
				decor.Name(id, decor.WCSyncSpaceR),
				decor.CountersNoUnit("%d / %d", decor.WCSyncSpace),
			),
			mpb.AppendDecorators(
				decor.OnComplete(decor.AverageETA(decor.ET_STYLE_GO), "done"),
			),
		)
		opt := cfg.options()
		opt.Workers = per
		opt.OnStep = func() { bar.Increment() }

		wg.Add(1)
		go func(i int, id string, bar *mpb.Bar) {
			defer wg.Done()
			rep, _, err := lab.Backtest(ctx, id, opt)
			if err != nil {
				bar.Abort(false)
				errsCh <- fmt.Errorf("%s: %w", id, err)
				return
			}
			// rounds=0 時事先不知道總步數，完成後以實際步數收尾
			bar.SetTotal(-1, true)
			reps[i] = rep
		}(i, id, bar)
	}
	wg.Wait()
	bars.Wait()
	close(errsCh)

	for err := range errsCh {
		fmt.Fprintln(os.Stderr, err)
	}
	p := message.NewPrinter(language.English)
	p.Printf("used: %.2f seconds\n", time.Since(start).Seconds())
	if cfg.format != "table" {
		r := stats.RenderByName(cfg.format)
		for _, rep := range reps {
			if rep == nil {
				continue
			}
			if err := rep.WriteWith(os.Stdout, r); err != nil {
				return err
			}
		}
		return nil
	}
	return stats.Compare(os.Stdout, reps)
}
