package worker

import (
	"context"

	"github.com/pku-software/docman-homework-judge-action/internal/model"
)

// Prefetcher resolves the remote metadata of one citation ahead of time
type Prefetcher interface {
	Prefetch(ctx context.Context, c model.Citation) error
}

// PrefetchJob resolves one citation
type PrefetchJob struct {
	Citation   model.Citation
	Prefetcher Prefetcher
}

// Execute runs the lookup
func (j *PrefetchJob) Execute(ctx context.Context) Result {
	return &PrefetchResult{
		Citation: j.Citation,
		Error:    j.Prefetcher.Prefetch(ctx, j.Citation),
	}
}

// PrefetchResult is the outcome of one lookup
type PrefetchResult struct {
	Citation model.Citation
	Error    error
}

// GetError returns the lookup error
func (r *PrefetchResult) GetError() error {
	return r.Error
}

// BatchPrefetcher warms metadata for many citations concurrently
type BatchPrefetcher struct {
	prefetcher  Prefetcher
	concurrency int
}

// NewBatchPrefetcher creates a batch prefetcher
func NewBatchPrefetcher(p Prefetcher, concurrency int) *BatchPrefetcher {
	return &BatchPrefetcher{prefetcher: p, concurrency: concurrency}
}

// Prefetch resolves every distinct remote citation once. Local kinds are skipped.
func (b *BatchPrefetcher) Prefetch(ctx context.Context, citations []model.Citation) []*PrefetchResult {
	unique := DistinctRemote(citations)
	if len(unique) == 0 {
		return []*PrefetchResult{}
	}

	pool := NewPool(ctx, b.concurrency)
	pool.Start()

	// Submit from a separate goroutine so a full queue cannot deadlock collection
	go func() {
		for _, c := range unique {
			pool.Submit(&PrefetchJob{Citation: c, Prefetcher: b.prefetcher})
		}
		pool.closeQueue()
	}()

	results := pool.collect()
	out := make([]*PrefetchResult, 0, len(results))
	for _, r := range results {
		out = append(out, r.(*PrefetchResult))
	}
	return out
}

// DistinctRemote keeps the first citation per remote subject (ISBN or URL)
func DistinctRemote(citations []model.Citation) []model.Citation {
	seen := make(map[string]bool)
	var out []model.Citation
	for _, c := range citations {
		var subject string
		switch c.Kind {
		case model.KindBook:
			subject = "isbn\x00" + c.ISBN
		case model.KindWebpage:
			subject = "url\x00" + c.URL
		default:
			continue
		}
		if !seen[subject] {
			seen[subject] = true
			out = append(out, c)
		}
	}
	return out
}
