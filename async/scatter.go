// Package async includes helpers for converting multi-processor computation into
// deterministic, order preserving results.
package async

import (
	"errors"
	"runtime"
	"sort"

	"golang.org/x/sync/errgroup"
)

// WorkerResults are the results of a scatter worker.
type WorkerResults struct {
	Offset int
	Extent interface{}
}

// Scatter scatters a computation across multiple goroutines.
// This breaks the task in to a number of chunks and executes those chunks in parallel with the function provided.
// Results returned are collected and presented a a set of WorkerResults, which can be reassembled by the calling function.
// Each worker receives a disjoint [offset, offset+entries) range; results are sorted by offset so the
// reassembled output does not depend on goroutine scheduling.
func Scatter(inputLen int, sFunc func(offset int, entries int) (interface{}, error)) ([]*WorkerResults, error) {
	if inputLen <= 0 {
		return nil, errors.New("input length must be greater than 0")
	}

	chunkSize := calculateChunkSize(inputLen)
	workers := inputLen / chunkSize
	if inputLen%chunkSize != 0 {
		workers++
	}
	results := make([]*WorkerResults, workers)
	var g errgroup.Group
	for worker := 0; worker < workers; worker++ {
		offset := worker * chunkSize
		entries := chunkSize
		if offset+entries > inputLen {
			entries = inputLen - offset
		}
		slot := worker
		g.Go(func() error {
			extent, err := sFunc(offset, entries)
			if err != nil {
				return err
			}
			results[slot] = &WorkerResults{Offset: offset, Extent: extent}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	sort.Slice(results, func(i, j int) bool { return results[i].Offset < results[j].Offset })
	return results, nil
}

// calculateChunkSize calculates a suitable chunk size for the purposes of parallelisation.
func calculateChunkSize(items int) int {
	// Start with a simple even split
	chunkSize := items / runtime.GOMAXPROCS(0)

	// Add 1 if we have leftovers (or if we have fewer items than processors).
	if chunkSize == 0 || items%chunkSize != 0 {
		chunkSize++
	}

	return chunkSize
}
