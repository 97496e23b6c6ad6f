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

// svr 啟動預測 HTTP 服務。
//
// 參數可用旗標或環境變數（也會讀取工作目錄下的 .env）：
//
//	PORT=5808 FEED_URL=... HISTORY_DB=history.db PREDLOG_DB=predict_log.db go run ./cmd/svr
package main

import (
	"flag"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/zintix-labs/patternlab"
	"github.com/zintix-labs/patternlab/predlog"
	"github.com/zintix-labs/patternlab/profiles"
	"github.com/zintix-labs/patternlab/server"
	"github.com/zintix-labs/patternlab/server/app"
	"github.com/zintix-labs/patternlab/server/logger"
	"github.com/zintix-labs/patternlab/server/svrcfg"
	"github.com/zintix-labs/patternlab/source"
)

func main() {
	// .env 不存在不算錯
	_ = godotenv.Load()

	sCfg, cleanup, err := loadConfig()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer cleanup()
	server.Run(sCfg)
}

type config struct {
	port        string
	feed        string
	historyDB   string
	predlogDB   string
	logMode     string
	profile     string
	profilesDir string
	cors        string
	poll        time.Duration
	timeout     time.Duration
}

func env(key, def string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return def
}

func envDuration(key string, def time.Duration) time.Duration {
	if d, err := time.ParseDuration(os.Getenv(key)); err == nil {
		return d
	}
	return def
}

func bindFlags() *config {
	cfg := new(config)
	flag.StringVar(&cfg.port, "port", env("PORT", "5808"), "listen port")
	flag.StringVar(&cfg.feed, "feed", env("FEED_URL", source.DefaultFeedURL), "upstream result feed url (empty to disable)")
	flag.StringVar(&cfg.historyDB, "history-db", env("HISTORY_DB", ""), "sqlite history cache")
	flag.StringVar(&cfg.predlogDB, "predlog-db", env("PREDLOG_DB", "predict_log.db"), "prediction log (bbolt), empty to disable")
	flag.StringVar(&cfg.logMode, "log-mode", env("LOG_MODE", "dev"), "log mode: dev|prod|silence")
	flag.StringVar(&cfg.profile, "profile", env("PROFILE", profiles.Default), "default profile id or name")
	flag.StringVar(&cfg.profilesDir, "profiles", env("PROFILES_DIR", ""), "profile yaml directory (default: built-in)")
	flag.StringVar(&cfg.cors, "cors", env("CORS_ORIGINS", "*"), "comma separated allowed origins")
	flag.DurationVar(&cfg.poll, "poll", envDuration("POLL_INTERVAL", 0), "background feed sync interval; 0 syncs on every request")
	flag.DurationVar(&cfg.timeout, "timeout", envDuration("PREDICT_TIMEOUT", svrcfg.DefaultTimeout), "per request timeout")
	flag.Parse()
	return cfg
}

func loadConfig() (*svrcfg.SvrCfg, func(), error) {
	cfg := bindFlags()

	mode, err := logger.ParseMode(cfg.logMode)
	if err != nil {
		return nil, nil, err
	}
	log, ah := logger.NewAsync(4096, mode)

	var closers []io.Closer
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			_ = closers[i].Close()
		}
		ah.Close()
	}
	fail := func(err error) (*svrcfg.SvrCfg, func(), error) {
		cleanup()
		return nil, nil, err
	}

	var (
		src     source.Source
		workers []app.Component
	)
	if cfg.poll > 0 && cfg.historyDB != "" && cfg.feed != "" {
		local, err := source.OpenSQLite(cfg.historyDB)
		if err != nil {
			return fail(err)
		}
		closers = append(closers, local)
		src = local
		workers = append(workers, source.NewPoller(local, source.NewFeed(cfg.feed), cfg.poll, log))
	} else {
		s, c, err := source.Open(cfg.historyDB, cfg.feed, func(err error) {
			log.Warn("history sync failed, using local data", slog.Any("err", err))
		})
		if err != nil {
			return fail(err)
		}
		closers = append(closers, c)
		src = s
	}

	opts := []patternlab.Option{
		patternlab.WithLogger(log),
		patternlab.WithDefaultProfile(cfg.profile),
	}
	if cfg.predlogDB != "" {
		plog, err := predlog.Open(cfg.predlogDB)
		if err != nil {
			return fail(err)
		}
		closers = append(closers, plog)
		opts = append(opts, patternlab.WithPredLog(plog))
	}

	var cfgFS fs.FS = profiles.FS
	if cfg.profilesDir != "" {
		cfgFS = os.DirFS(cfg.profilesDir)
	}
	lab, err := patternlab.New(src, patternlab.Configs(cfgFS), opts...)
	if err != nil {
		return fail(err)
	}

	var origins []string
	for _, o := range strings.Split(cfg.cors, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	return &svrcfg.SvrCfg{
		Log:         log,
		Lab:         lab,
		Addr:        ":" + strings.TrimPrefix(cfg.port, ":"),
		Timeout:     cfg.timeout,
		CORSOrigins: origins,
		Workers:     workers,
	}, cleanup, nil
}
