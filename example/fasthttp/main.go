// FILE: example/fasthttp/main.go
package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/usub/ulog"
	"github.com/usub/ulog/compat"
	"github.com/valyala/fasthttp"
)

func main() {
	logger := ulog.NewLogger()
	err := logger.ApplyConfigString(
		"info_path=/var/log/fasthttp/server.log",
		"queue_capacity=4096",
	)
	if err != nil {
		panic(err)
	}
	if err := logger.Start(); err != nil {
		panic(err)
	}
	defer logger.Shutdown()

	fasthttpAdapter := compat.NewFastHTTPAdapter(
		logger,
		compat.WithDefaultLevel(ulog.LevelInfo),
		compat.WithLevelDetector(customLevelDetector),
	)

	server := &fasthttp.Server{
		Handler: requestHandler,
		Logger:  fasthttpAdapter,

		Name:              "ulog-demo",
		Concurrency:       fasthttp.DefaultConcurrency,
		ReadTimeout:       5 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       120 * time.Second,
		TCPKeepalive:      true,
		ReduceMemoryUsage: true,
	}

	fmt.Println("Starting server on :8080")
	if err := server.ListenAndServe(":8080"); err != nil {
		panic(err)
	}
}

func requestHandler(ctx *fasthttp.RequestCtx) {
	ctx.SetContentType("text/plain")
	fmt.Fprintf(ctx, "Hello, world! Path: %s\n", ctx.Path())
}

func customLevelDetector(msg string) (ulog.Level, bool) {
	if strings.Contains(msg, "connection cannot be served") {
		return ulog.LevelWarn, true
	}
	if strings.Contains(msg, "error when serving connection") {
		return ulog.LevelError, true
	}
	return compat.DetectLogLevel(msg)
}
