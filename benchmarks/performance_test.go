package benchmarks

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-foundations/conc/executor"
	"github.com/go-foundations/conc/future"
	"github.com/go-foundations/conc/queue"
)

// Benchmark different worker counts running the same workload.
func BenchmarkWorkerCounts(b *testing.B) {
	workerCounts := []int{1, 2, 4, 8, 16}

	for _, numWorkers := range workerCounts {
		b.Run(fmt.Sprintf("Workers_%d", numWorkers), func(b *testing.B) {
			pool := mustPool(b, numWorkers)
			defer pool.Shutdown()
			jobs := makeJobs(100)

			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				runAll(b, pool, jobs)
			}
		})
	}
}

// Benchmark different job-batch sizes on a fixed pool.
func BenchmarkJobSizes(b *testing.B) {
	jobSizes := []int{10, 100, 1000, 10000}

	for _, jobSize := range jobSizes {
		b.Run(fmt.Sprintf("Jobs_%d", jobSize), func(b *testing.B) {
			pool := mustPool(b, 4)
			defer pool.Shutdown()
			jobs := makeJobs(jobSize)

			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				runAll(b, pool, jobs)
			}
		})
	}
}

// Benchmark varying per-task processing time.
func BenchmarkProcessingTimes(b *testing.B) {
	processingTimes := []time.Duration{
		0, // no delay
		1 * time.Microsecond,
		10 * time.Microsecond,
		100 * time.Microsecond,
		1 * time.Millisecond,
	}

	for _, procTime := range processingTimes {
		b.Run(fmt.Sprintf("ProcTime_%v", procTime), func(b *testing.B) {
			pool := mustPool(b, 4)
			defer pool.Shutdown()

			works := make([]future.Work[string], 100)
			for i := range works {
				data := fmt.Sprintf("data_%d", i)
				works[i] = func(ctx context.Context) (string, error) {
					if procTime > 0 {
						time.Sleep(procTime)
					}
					return strings.ToUpper(data), nil
				}
			}

			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				if _, err := executor.InvokeAll(context.Background(), pool, works); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}

// Benchmark raw Execute/callback throughput, without Task/future overhead.
func BenchmarkExecuteThroughput(b *testing.B) {
	pool := mustPool(b, 4)
	defer pool.Shutdown()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		var wg sync.WaitGroup
		wg.Add(100)
		for j := 0; j < 100; j++ {
			if err := pool.Execute(func(ctx context.Context) { wg.Done() }); err != nil {
				b.Fatal(err)
			}
		}
		wg.Wait()
	}
}

// Benchmark the blocking-queue implementations directly under contention.
func BenchmarkQueuePutTake(b *testing.B) {
	queues := map[string]func() queue.BlockingQueue[int]{
		"Linked": func() queue.BlockingQueue[int] { return queue.NewLinked[int](1000) },
		"Array":  func() queue.BlockingQueue[int] { return queue.NewArray[int](1000) },
	}

	for name, factory := range queues {
		b.Run(name, func(b *testing.B) {
			q := factory()
			ctx := context.Background()

			b.ResetTimer()
			var wg sync.WaitGroup
			wg.Add(2)
			go func() {
				defer wg.Done()
				for i := 0; i < b.N; i++ {
					q.Put(ctx, i)
				}
			}()
			go func() {
				defer wg.Done()
				for i := 0; i < b.N; i++ {
					q.Take(ctx)
				}
			}()
			wg.Wait()
		})
	}
}

func mustPool(b *testing.B, workers int) *executor.Pool {
	b.Helper()
	cfg := executor.DefaultConfig()
	cfg.CoreSize, cfg.MaxSize = workers, workers
	pool, err := executor.New(cfg)
	if err != nil {
		b.Fatal(err)
	}
	return pool
}

func makeJobs(n int) []future.Work[string] {
	works := make([]future.Work[string], n)
	for i := range works {
		data := fmt.Sprintf("data_%d", i)
		works[i] = func(ctx context.Context) (string, error) {
			return strings.ToUpper(data), nil
		}
	}
	return works
}

func runAll(b *testing.B, pool *executor.Pool, works []future.Work[string]) {
	b.Helper()
	if _, err := executor.InvokeAll(context.Background(), pool, works); err != nil {
		b.Fatal(err)
	}
}
