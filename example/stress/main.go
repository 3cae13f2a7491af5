// FILE: example/stress/main.go
package main

import (
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/usub/ulog"
)

const (
	producers = 8
	records   = 100_000
)

// Saturates a small queue from several goroutines and reports the overflow
// counters, demonstrating that no record is dropped.
func main() {
	if err := os.MkdirAll("./temp_logs", 0755); err != nil {
		fmt.Printf("Fatal: %v\n", err)
		os.Exit(1)
	}

	logger, err := ulog.NewBuilder().
		AllPaths("./temp_logs/stress.log").
		QueueCapacity(1024).
		BatchSize(256).
		FlushInterval(time.Millisecond).
		TrackMetrics(true).
		Build()
	if err != nil {
		fmt.Printf("Fatal: %v\n", err)
		os.Exit(1)
	}
	if err := logger.Start(); err != nil {
		fmt.Printf("Fatal: %v\n", err)
		os.Exit(1)
	}

	start := time.Now()
	var wg sync.WaitGroup
	for w := 0; w < producers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			p := logger.NewProducer()
			defer p.Close()
			for i := 0; i < records; i++ {
				p.Info("producer {} record {}", w, i)
			}
		}(w)
	}
	wg.Wait()

	if err := logger.Flush(5 * time.Second); err != nil {
		fmt.Printf("flush: %v\n", err)
	}
	if err := logger.Shutdown(5 * time.Second); err != nil {
		fmt.Printf("shutdown: %v\n", err)
	}

	elapsed := time.Since(start)
	stats := logger.Stats()
	fmt.Printf("produced %d records in %v\n", producers*records, elapsed)
	fmt.Printf("flushed=%d overflow=%d backpressure=%d\n",
		stats.RecordsFlushed, stats.OverflowPushes, stats.BackpressureSpins)
}
