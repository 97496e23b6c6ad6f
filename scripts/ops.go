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

// ops 取代 Makefile 的小工具：go run ./scripts [task]
package main

import (
	"fmt"
	"os"
	"sort"

	"github.com/fatih/color"
)

type task struct {
	desc string
	run  func(args []string) error
}

var tasks = map[string]task{
	"test": {
		desc: "go test ./... -cover -count=1，只顯示 ok/FAIL",
		run: func([]string) error {
			return goCmd(okFailOnly, "test", "./...", "-cover", "-count=1")
		},
	},
	"test-race": {
		desc: "引擎與回測的併發測試（-race）",
		run: func([]string) error {
			return goCmd(okFailOnly, "test", "-race", "-count=1", ".", "./alloc/...", "./predlog/...", "./source/...", "./server/...")
		},
	},
	"test-detail": {
		desc: "verbose 測試，略過沒有測試檔的套件",
		run: func([]string) error {
			return goCmd(skipNoTestFiles, "test", "./...", "-v", "-count=1")
		},
	},
	"backtest": {
		desc: "對 sqlite 歷史庫跑回測：go run ./scripts backtest -db history.db -rounds 500",
		run: func(args []string) error {
			return goCmd(nil, append([]string{"run", "./cmd/backtest"}, args...)...)
		},
	},
	"dataset": {
		desc: "輸出訓練資料：go run ./scripts dataset -db history.db -out ladder.parquet",
		run: func(args []string) error {
			return goCmd(nil, append([]string{"run", "./cmd/dataset"}, args...)...)
		},
	},
}

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}
	name := os.Args[1]
	t, ok := tasks[name]
	if !ok {
		color.Yellow("unknown task: %s", name)
		usage()
		os.Exit(1)
	}
	color.Green("running %s", name)
	if err := t.run(os.Args[2:]); err != nil {
		color.Red("\n%s finished with errors: %v", name, err)
		os.Exit(1)
	}
}

func usage() {
	names := make([]string, 0, len(tasks))
	for k := range tasks {
		names = append(names, k)
	}
	sort.Strings(names)
	fmt.Println("usage: go run ./scripts [task] [args...]")
	for _, k := range names {
		fmt.Printf("  %-12s %s\n", k, tasks[k].desc)
	}
}
