// FILE: example/simple/main.go
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/usub/ulog"
)

func main() {
	if err := os.MkdirAll("./temp_logs", 0755); err != nil {
		fmt.Printf("Fatal: %v\n", err)
		os.Exit(1)
	}

	logger := ulog.NewLogger()
	err := logger.ApplyConfigString(
		"info_path=./temp_logs/app.log",
		"error_path=./temp_logs/error.log",
		"flush_interval_ns=2000000",
	)
	if err != nil {
		fmt.Printf("Fatal: could not configure logger: %v\n", err)
		os.Exit(1)
	}
	if err := logger.Start(); err != nil {
		fmt.Printf("Fatal: could not start logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Shutdown(time.Second)

	logger.Info("service starting, pid {}", os.Getpid())
	logger.Debug("verbose detail {0} and again {0}", "twice")
	logger.Warn("queue depth {} of {}", 12, 1024)
	logger.Error("connect to {} failed: {}", "db:5432", fmt.Errorf("refused"))

	// Per-goroutine handles avoid the shared pool on hot paths.
	p := logger.NewProducer()
	for i := 0; i < 5; i++ {
		p.Info("worker tick {}", i)
	}

	logger.Dump(struct {
		Host string
		Port int
	}{"localhost", 5432})

	if err := logger.Flush(time.Second); err != nil {
		fmt.Printf("flush: %v\n", err)
	}

	stats := logger.Stats()
	fmt.Printf("flushed %d records, %d overflows\n", stats.RecordsFlushed, stats.OverflowPushes)
}
