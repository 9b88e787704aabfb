package vedo

import "sync"

// task fans fn out over the index range [0, count) in contiguous chunks,
// one goroutine per worker. fn must write only to locations owned by its
// index.
func task(workersCount int, count int, fn func(i int)) {
	workersCount = max(1, workersCount)
	chunkSize := (count + workersCount - 1) / workersCount

	var wg sync.WaitGroup
	for workerID := 0; workerID < workersCount; workerID++ {
		wg.Add(1)
		go func(start, end int) {
			defer wg.Done()
			for i := start; i < end; i++ {
				fn(i)
			}
		}(workerID*chunkSize, min((workerID+1)*chunkSize, count))
	}
	wg.Wait()
}
