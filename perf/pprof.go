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

// Package perf 包一層 runtime/pprof，讓 cmd 可以用旗標開啟 profiling。
//
//	go run ./cmd/backtest -db history.db -p cpu
//	go tool pprof build/profiling/cpu.pprof
//
// cpu.pprof 也可以直接放到 default.pgo 做 PGO。
package perf

import (
	"os"
	"path/filepath"
	"runtime"
	"runtime/pprof"

	"github.com/zintix-labs/patternlab/errs"
)

// DefaultDir pprof 檔案寫入路徑
const DefaultDir = "build/profiling"

type Mode string

const (
	ModeNone   Mode = ""
	ModeCPU    Mode = "cpu"
	ModeHeap   Mode = "heap"
	ModeAllocs Mode = "allocs"
)

func ParseMode(s string) (Mode, error) {
	switch m := Mode(s); m {
	case ModeNone, ModeCPU, ModeHeap, ModeAllocs:
		return m, nil
	}
	return ModeNone, errs.Warnf("unknown pprof mode: %q (cpu|heap|allocs)", s)
}

// Run 依 mode 執行 exe 並在 dir 寫出對應的 profile；ModeNone 只執行 exe。
// 回傳值為寫出的檔案路徑（沒有寫出時為空）。
func Run(dir string, mode Mode, exe func()) (string, error) {
	if mode == ModeNone {
		exe()
		return "", nil
	}
	if dir == "" {
		dir = DefaultDir
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", errs.WrapWithExtra(err, "create pprof dir", dir)
	}
	path := filepath.Join(dir, string(mode)+".pprof")

	if mode == ModeCPU {
		return path, cpu(path, exe)
	}
	exe()
	return path, snapshot(path, mode)
}

func cpu(path string, exe func()) error {
	f, err := os.Create(path)
	if err != nil {
		return errs.WrapWithExtra(err, "create cpu profile", path)
	}
	defer f.Close()
	if err := pprof.StartCPUProfile(f); err != nil {
		return errs.Wrap(err, "start cpu profile")
	}
	defer pprof.StopCPUProfile()
	exe()
	return nil
}

// snapshot heap 為 in-use；allocs 為累積配置（搭配 -sample_index=alloc_space 查看）
func snapshot(path string, mode Mode) error {
	f, err := os.Create(path)
	if err != nil {
		return errs.WrapWithExtra(err, "create profile", path)
	}
	defer f.Close()

	if mode == ModeHeap {
		runtime.GC()
		if err := pprof.WriteHeapProfile(f); err != nil {
			return errs.Wrap(err, "write heap profile")
		}
		return nil
	}
	prof := pprof.Lookup(string(mode))
	if prof == nil {
		return errs.Fatalf("profile %s not found", mode)
	}
	if err := prof.WriteTo(f, 0); err != nil {
		return errs.WrapWithExtra(err, "write profile", string(mode))
	}
	return nil
}
