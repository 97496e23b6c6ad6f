package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	"github.com/fatih/color"
)

var (
	green = color.New(color.FgGreen)
	red   = color.New(color.FgRed)
)

// lineFilter 回傳 false 表示不印出該行
type lineFilter func(line string) bool

func okFailOnly(line string) bool {
	return strings.HasPrefix(line, "ok") || strings.HasPrefix(line, "FAIL") ||
		strings.Contains(line, "build failed") || strings.Contains(line, "setup failed")
}

func skipNoTestFiles(line string) bool {
	return !strings.Contains(line, "[no test files]")
}

// goCmd 執行 go 子指令；filter 為 nil 時直接接到 stdout/stderr
func goCmd(filter lineFilter, args ...string) error {
	cmd := exec.Command("go", args...)
	cmd.Stdin = os.Stdin
	if filter == nil {
		cmd.Stdout = os.Stdout
		cmd.Stderr = os.Stderr
		return cmd.Run()
	}

	pr, pw := io.Pipe()
	cmd.Stdout = pw
	cmd.Stderr = pw
	if err := cmd.Start(); err != nil {
		return err
	}
	done := make(chan struct{})
	go func() {
		defer close(done)
		sc := bufio.NewScanner(pr)
		for sc.Scan() {
			printLine(sc.Text(), filter)
		}
	}()
	err := cmd.Wait()
	pw.Close()
	<-done
	return err
}

func printLine(line string, filter lineFilter) {
	if !filter(line) {
		return
	}
	switch {
	case strings.HasPrefix(line, "ok"):
		green.Println(line)
	case strings.HasPrefix(line, "FAIL"), strings.Contains(line, "failed"):
		red.Println(line)
	default:
		fmt.Println(line)
	}
}
