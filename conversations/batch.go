////////////////////////////////////////////////////////////////////////////////
// Copyright © 2022 xx foundation                                             //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file.                                                              //
////////////////////////////////////////////////////////////////////////////////

package conversations

import "sync"

// runBatches calls fn for every index in [0, n), running at most batchSize
// calls concurrently and waiting for each batch to drain before starting the
// next. Peak outstanding work is bounded by batchSize while a batch still
// parallelizes its fetches.
func runBatches(n, batchSize int, fn func(index int)) {
	if batchSize < 1 {
		batchSize = 1
	}

	for start := 0; start < n; start += batchSize {
		end := start + batchSize
		if end > n {
			end = n
		}

		var wg sync.WaitGroup
		for i := start; i < end; i++ {
			wg.Add(1)
			go func(index int) {
				defer wg.Done()
				fn(index)
			}(i)
		}
		wg.Wait()
	}
}
