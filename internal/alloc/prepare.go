package alloc

import (
	"fmt"
	"runtime"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/meigma/vault/internal/entry"
	"github.com/meigma/vault/internal/vaulttype"
)

// prepare encrypts pending entries ahead of the sequential write pass.
// workers < 0 forces serial processing, 0 uses GOMAXPROCS.
// Progress events are serialized but arrive in completion order.
func prepare(pending []*entry.Entry, env entry.Env, workers int, progress vaulttype.ProgressFunc) error {
	if len(pending) == 0 {
		return nil
	}
	if workers == 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	if workers < 0 || len(pending) == 1 {
		workers = 1
	}

	var mu sync.Mutex
	report := func(e *entry.Entry) {
		if progress == nil {
			return
		}
		mu.Lock()
		defer mu.Unlock()
		emit(progress, vaulttype.StageEncrypting, e)
	}

	var eg errgroup.Group
	eg.SetLimit(workers)
	for _, e := range pending {
		eg.Go(func() error {
			if err := e.Prepare(env); err != nil {
				return fmt.Errorf("encrypt slot %d: %w", e.Slot(), err)
			}
			report(e)
			return nil
		})
	}
	return eg.Wait()
}
