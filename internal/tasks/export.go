package tasks

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/desertthunder/flickx/internal/metrics"
	"github.com/desertthunder/flickx/internal/models"
	"github.com/desertthunder/flickx/internal/shared"
	"golang.org/x/time/rate"
)

// CollectionClient fetches one page of a membership collection.
type CollectionClient interface {
	Collection(ctx context.Context, kind models.MembershipKind, page int) (models.Listing, error)
}

// ExportOpts contains configuration for collection exports.
type ExportOpts struct {
	NumWorkers int     // Concurrent page fetchers (default: 4, max: 10)
	RateLimit  float64 // Page requests per second (default: 5)
	MaxPages   int     // Stop after this many pages; zero means all
}

// PageError records a page that could not be fetched.
type PageError struct {
	Page int
	Err  error
}

// ExportResult is the outcome of [ExportCollection].
type ExportResult struct {
	Kind   models.MembershipKind
	Pages  int
	Items  []models.MovieSummary
	Failed []PageError
}

type pageJob struct {
	page int
}

type pageResult struct {
	page    int
	listing models.Listing
	err     error
}

// ExportCollection fetches every page of kind's collection.
//
// Page 1 is fetched first to learn the page count; a failure there is returned as the error. Later pages are
// fetched by a worker pool behind a rate limiter, and a failed later page is recorded in [ExportResult.Failed]
// while the rest continue. Items come back in page order.
func ExportCollection(
	ctx context.Context,
	client CollectionClient,
	kind models.MembershipKind,
	opts ExportOpts,
	progress chan<- ProgressUpdate,
) (*ExportResult, error) {
	if client == nil {
		return nil, fmt.Errorf("%w: client not initialized", shared.ErrServiceUnavailable)
	}
	if opts.NumWorkers <= 0 {
		opts.NumWorkers = 4
	}
	if opts.NumWorkers > 10 {
		opts.NumWorkers = 10
	}
	if opts.RateLimit <= 0 {
		opts.RateLimit = 5.0
	}

	sendProgress(progress, firstPageUpdate(kind))
	first, err := client.Collection(ctx, kind, 1)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", kind, err)
	}

	total := max(first.TotalPages, 1)
	if opts.MaxPages > 0 && total > opts.MaxPages {
		total = opts.MaxPages
	}

	result := &ExportResult{Kind: kind, Pages: total}
	pages := map[int][]models.MovieSummary{1: first.Results}
	sendProgress(progress, pageFetchedUpdate(1, total, 1, len(first.Results)))

	if total > 1 {
		limiter := rate.NewLimiter(rate.Limit(opts.RateLimit), 1)
		jobs := make(chan pageJob, total-1)
		results := make(chan pageResult, total-1)

		var wg sync.WaitGroup
		for range min(opts.NumWorkers, total-1) {
			wg.Add(1)
			go pageWorker(ctx, &wg, client, kind, limiter, jobs, results)
		}

		for page := 2; page <= total; page++ {
			jobs <- pageJob{page: page}
		}
		close(jobs)

		go func() {
			wg.Wait()
			close(results)
		}()

		completed := 1
		for res := range results {
			completed++
			if res.err != nil {
				result.Failed = append(result.Failed, PageError{Page: res.page, Err: res.err})
				sendProgress(progress, pageFailedUpdate(completed, total, res.page, res.err))
				continue
			}
			pages[res.page] = res.listing.Results
			sendProgress(progress, pageFetchedUpdate(completed, total, res.page, len(res.listing.Results)))
		}
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	order := make([]int, 0, len(pages))
	for page := range pages {
		order = append(order, page)
	}
	sort.Ints(order)
	for _, page := range order {
		result.Items = append(result.Items, pages[page]...)
	}
	sort.Slice(result.Failed, func(i, j int) bool { return result.Failed[i].Page < result.Failed[j].Page })

	metrics.ExportedItems.WithLabelValues(kind.String()).Add(float64(len(result.Items)))
	sendProgress(progress, exportDoneUpdate(result))
	return result, nil
}

// pageWorker fetches pages from jobs until it is closed or ctx is done.
func pageWorker(
	ctx context.Context,
	wg *sync.WaitGroup,
	client CollectionClient,
	kind models.MembershipKind,
	limiter *rate.Limiter,
	jobs <-chan pageJob,
	results chan<- pageResult,
) {
	defer wg.Done()

	for job := range jobs {
		if err := limiter.Wait(ctx); err != nil {
			results <- pageResult{page: job.page, err: err}
			continue
		}
		listing, err := client.Collection(ctx, kind, job.page)
		results <- pageResult{page: job.page, listing: listing, err: err}
	}
}
