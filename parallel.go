package kdforest

import "sync"

// Query2NNParallel answers the same queries as Query2NN using multiple
// goroutines. numWorkers controls the degree of parallelism; if <= 1, it
// falls back to the sequential Query2NN.
//
// Queries are independent and the forest is read-only, so the result is
// identical to Query2NN: one Match per query, in query order.
func Query2NNParallel(forest Forest, maxCandidates int, queries []Descriptor, numWorkers int) []Match {
	if numWorkers <= 1 || len(queries) <= 1 {
		return Query2NN(forest, maxCandidates, queries)
	}

	matches := make([]Match, len(queries))

	// Split queries across workers. Worker ranges don't overlap, so no
	// synchronization is needed for writes.
	var wg sync.WaitGroup

	n := len(queries)
	queriesPerWorker := (n + numWorkers - 1) / numWorkers

	for w := 0; w < numWorkers; w++ {
		start := w * queriesPerWorker
		end := start + queriesPerWorker
		if end > n {
			end = n
		}
		if start >= n {
			break
		}

		wg.Add(1)
		go func(start, end int) {
			defer wg.Done()
			var pending subtreeHeap
			for i := start; i < end; i++ {
				matches[i] = query2NNOne(forest, maxCandidates, &queries[i], &pending)
			}
		}(start, end)
	}

	wg.Wait()
	return matches
}
