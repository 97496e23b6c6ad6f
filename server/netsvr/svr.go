package netsvr

import (
	"net/http"

	"github.com/zintix-labs/patternlab/server/app"
)

// NetSvr 路由 + 啟停。只交給最外層（server.Run / cmd）使用，其他層只看得到 NetRouter。
// NetSvr 同時是 app.Component，可直接交給 app.App 管理生命週期。
type NetSvr interface {
	NetRouter
	app.Component
	Address() string
}

// NetRouter 純路由行為；handler 與子模組只拿得到這一層，無法控制 server 啟停。
type NetRouter interface {
	Use(middleware func(http.Handler) http.Handler)

	Get(path string, h http.HandlerFunc)
	Post(path string, h http.HandlerFunc)
	Put(path string, h http.HandlerFunc)
	Delete(path string, h http.HandlerFunc)

	Group(path string, fn func(NetRouter))
}
