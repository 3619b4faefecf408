package feature

import "sync"

// Below this many samples the chunked dispatch costs more than it saves.
const parallelThreshold = 4096

// run splits [0, n) into one contiguous chunk per worker and blocks until
// every chunk is done. fn must only touch indices inside its range; chunks
// never overlap, so no synchronization is needed beyond the final wait.
func (d *Deriver) run(n int, fn func(lo, hi int)) {
	if n == 0 {
		return
	}
	workers := d.workers
	if n < parallelThreshold || workers < 2 {
		fn(0, n)
		return
	}
	if workers > n {
		workers = n
	}

	chunk := (n + workers - 1) / workers
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		lo := w * chunk
		if lo >= n {
			break
		}
		hi := lo + chunk
		if hi > n {
			hi = n
		}
		wg.Add(1)
		go func(lo, hi int) {
			defer wg.Done()
			fn(lo, hi)
		}(lo, hi)
	}
	wg.Wait()
}
