// Package bus partitions per-instrument work across a fixed pool of workers
// and gathers the results back in a deterministic order.
package bus

import (
	"context"
	"fmt"
	"log"
	"runtime"
	"sort"
	"sync"
)

// Result is the outcome for one partition.
type Result[T any] struct {
	Key   string
	Value T
	Err   error
}

// Map applies fn to every partition of parts using at most workers
// goroutines and returns one Result per key, sorted by key.
//
// A panic inside fn is contained to its partition and reported as that
// partition's Err. If ctx is cancelled, partitions not yet started carry
// ctx.Err(). workers <= 0 means runtime.NumCPU().
func Map[In, Out any](ctx context.Context, workers int, parts map[string]In, fn func(key string, in In) Out) []Result[Out] {
	keys := make([]string, 0, len(parts))
	for k := range parts {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if workers > len(keys) {
		workers = len(keys)
	}

	results := make([]Result[Out], len(keys))
	jobs := make(chan int)

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				results[i] = runOne(keys[i], parts[keys[i]], fn)
			}
		}()
	}

	next := 0
dispatch:
	for ; next < len(keys); next++ {
		select {
		case <-ctx.Done():
			break dispatch
		case jobs <- next:
		}
	}
	close(jobs)
	wg.Wait()

	for i := next; i < len(keys); i++ {
		results[i] = Result[Out]{Key: keys[i], Err: ctx.Err()}
	}
	return results
}

func runOne[In, Out any](key string, in In, fn func(string, In) Out) (res Result[Out]) {
	res.Key = key
	defer func() {
		if r := recover(); r != nil {
			log.Printf("[bus] partition %s panicked: %v", key, r)
			res.Err = fmt.Errorf("partition %s: %v", key, r)
		}
	}()
	res.Value = fn(key, in)
	return res
}

// Values flattens successful results, in key order. Failed partitions are
// skipped; their errors are returned alongside.
func Values[T any](results []Result[T]) ([]T, []error) {
	out := make([]T, 0, len(results))
	var errs []error
	for _, r := range results {
		if r.Err != nil {
			errs = append(errs, r.Err)
			continue
		}
		out = append(out, r.Value)
	}
	return out, errs
}
