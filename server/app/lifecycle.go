// Package app 定義長期運行元件的最小生命週期抽象，以及統一啟停它們的 App。
package app

import "context"

// Component 抽象任何「可啟動 / 可關閉」的長生命週期元件。
// - Run() 為阻塞呼叫，直到元件停止為止（正常或錯誤）。
// - Shutdown(ctx) 要求優雅關閉；實作方應尊重 ctx deadline/cancel。
// 目前的實例：HTTP Server（netsvr.ChiAdapter）、歷史資料同步（source.Poller）。
type Component interface {
	Run() error
	Shutdown(ctx context.Context) error
}
