package geocode

import (
	"context"
	"sync"
	"time"
)

const (
	// DefaultGroupSize is how many names a batch group holds.
	DefaultGroupSize = 5

	// defaultGroupDelay separates consecutive groups so bulk workloads
	// stay inside provider rate limits.
	defaultGroupDelay = 500 * time.Millisecond
)

// BatchItem is the per-name outcome of a batch resolution. A failed item
// carries its error; it never aborts the batch.
type BatchItem struct {
	Name    string
	Results []Result
	Err     error
}

// BatchOptions tunes batch resolution.
type BatchOptions struct {
	Query      Options
	GroupSize  int
	GroupDelay time.Duration
}

// ResolveBatch geocodes names in fixed-size groups: names within a group
// resolve concurrently, groups run one after another with a delay in
// between. Output order matches input order.
func (r *Resolver) ResolveBatch(ctx context.Context, names []string, opts BatchOptions) []BatchItem {
	groupSize := opts.GroupSize
	if groupSize <= 0 {
		groupSize = DefaultGroupSize
	}
	groupDelay := opts.GroupDelay
	if groupDelay <= 0 {
		groupDelay = defaultGroupDelay
	}

	items := make([]BatchItem, len(names))
	for start := 0; start < len(names); start += groupSize {
		if start > 0 {
			if err := r.sleep(ctx, groupDelay); err != nil {
				markCanceled(items, start, names, err)
				return items
			}
		}

		end := start + groupSize
		if end > len(names) {
			end = len(names)
		}

		var wg sync.WaitGroup
		for i := start; i < end; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				results, err := r.Resolve(ctx, names[i], opts.Query)
				items[i] = BatchItem{Name: names[i], Results: results, Err: err}
			}(i)
		}
		wg.Wait()

		if ctx.Err() != nil {
			markCanceled(items, end, names, ctx.Err())
			return items
		}
	}
	return items
}

// markCanceled fills the unprocessed tail with the cancellation error.
func markCanceled(items []BatchItem, from int, names []string, err error) {
	for i := from; i < len(items); i++ {
		items[i] = BatchItem{Name: names[i], Err: err}
	}
}
