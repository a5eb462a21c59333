package syncer

import (
	"context"
	"sync"
)

// settleAll runs work for every key on a bounded worker pool and waits for all
// of them. One failure does not cancel the rest; errors are keyed by input.
func settleAll(
	ctx context.Context,
	keys []string,
	workers int,
	work func(context.Context, string) error,
) map[string]error {
	errs := make(map[string]error, len(keys))
	if len(keys) == 0 {
		return errs
	}
	if workers <= 0 {
		workers = 1
	}
	if workers > len(keys) {
		workers = len(keys)
	}

	jobs := make(chan string)
	var wg sync.WaitGroup
	var errMu sync.Mutex

	worker := func() {
		defer wg.Done()
		for key := range jobs {
			err := ctx.Err()
			if err == nil {
				err = work(ctx, key)
			}
			errMu.Lock()
			errs[key] = err
			errMu.Unlock()
		}
	}

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go worker()
	}
	for _, key := range keys {
		jobs <- key
	}
	close(jobs)
	wg.Wait()

	return errs
}
