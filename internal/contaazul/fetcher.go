package contaazul

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/farxc/contaazul-sync/internal/ingest"
	"github.com/farxc/contaazul-sync/internal/logger"
	"github.com/farxc/contaazul-sync/internal/metrics"
)

// Options tune the page loop.
type Options struct {
	// MaxRetries is how many times one page is re-requested after HTTP 429.
	MaxRetries int
	// MinNewItems ends exhaustion-mode paging when a page brings fewer new IDs.
	MinNewItems int
	// MaxPages caps exhaustion-mode paging.
	MaxPages int
}

func DefaultOptions() Options {
	return Options{MaxRetries: 5, MinNewItems: 10, MaxPages: 100}
}

// Fetcher walks the pages of a resource. It implements ingest.PageSource.
type Fetcher struct {
	client *Client
	opts   Options
	log    *logger.Logger
	sleep  func(ctx context.Context, d time.Duration) error

	mu       sync.Mutex
	limiters map[string]*rate.Limiter
}

func NewFetcher(client *Client, opts Options, log *logger.Logger) *Fetcher {
	return &Fetcher{
		client:   client,
		opts:     opts,
		log:      log,
		sleep:    ingest.Sleep,
		limiters: make(map[string]*rate.Limiter),
	}
}

// limiter returns the pacing limiter of res. It lives as long as the Fetcher,
// so the interval also holds between the scopes of one sync.
func (f *Fetcher) limiter(res ingest.Resource) *rate.Limiter {
	f.mu.Lock()
	defer f.mu.Unlock()

	l, ok := f.limiters[res.Name]
	if !ok {
		l = rate.NewLimiter(rate.Inf, 1)
		if res.Pacing > 0 {
			l = rate.NewLimiter(rate.Every(res.Pacing), 1)
		}
		f.limiters[res.Name] = l
	}
	return l
}

// Fetch requests pages 1, 2, ... of res and hands every page's items to fn.
//
// Paging stops on an empty page, on a page shorter than res.PageSize, or on
// the last page reported by the body. Exhaustion-mode resources ignore the
// reported page count and stop once a page brings fewer than MinNewItems
// unseen IDs or MaxPages pages have been read. Successful pages of the same
// resource are spaced by res.Pacing across calls. A 429 re-requests the same page; after MaxRetries consecutive
// 429s the scope is abandoned with ErrRateLimited. Any other non-2xx status
// aborts immediately with an *UpstreamError.
func (f *Fetcher) Fetch(ctx context.Context, res ingest.Resource, scope ingest.Scope, fn func(items []ingest.Record) error) (ingest.FetchResult, error) {
	const component = "Fetcher"

	var (
		result  ingest.FetchResult
		seen    *ingest.Deduplicator
		limiter = f.limiter(res)
	)
	if res.Exhaustion {
		seen = ingest.NewDeduplicator()
	}

	for pageNum := 1; ; pageNum++ {
		if res.Exhaustion && pageNum > f.opts.MaxPages {
			result.Stop = ingest.StopPageCeiling
			f.log.Warn(component, "Page ceiling reached: resource=%s pages=%d", res.Name, result.Pages)
			return result, nil
		}

		if err := limiter.Wait(ctx); err != nil {
			result.Stop = ingest.StopCanceled
			return result, err
		}

		resp, retries, err := f.getPage(ctx, res, scope, pageNum)
		result.Retries += retries
		if err != nil {
			switch {
			case ctx.Err() != nil:
				result.Stop = ingest.StopCanceled
				return result, ctx.Err()
			case errors.Is(err, ErrRateLimited):
				result.Stop = ingest.StopRateLimited
			default:
				result.Stop = ingest.StopUpstreamError
			}
			metrics.UpstreamErrors.WithLabelValues(res.Name).Inc()
			f.log.Error(component, "Fetch aborted: resource=%s scope=%s page=%d itemsKept=%d error=%v", res.Name, scope, pageNum, result.Items, err)
			return result, err
		}

		p, err := decodePage(resp.body, res.ItemsKeys)
		if err != nil {
			result.Stop = ingest.StopUpstreamError
			metrics.UpstreamErrors.WithLabelValues(res.Name).Inc()
			return result, &UpstreamError{Resource: res.Name, Page: pageNum, StatusCode: resp.status, Body: truncate(resp.body), Err: err}
		}
		result.Pages++
		metrics.PagesFetched.WithLabelValues(res.Name).Inc()

		if len(p.items) == 0 {
			result.Stop = ingest.StopEmptyPage
			return result, nil
		}

		items := p.items
		if res.Exhaustion {
			items = items[:0:0]
			for _, it := range p.items {
				if seen.Offer(it.ID()) {
					items = append(items, it)
				}
			}
			if len(items) == 0 {
				f.log.Info(component, "No new items, paging exhausted: resource=%s page=%d", res.Name, pageNum)
				result.Stop = ingest.StopExhausted
				return result, nil
			}
		}

		f.log.Debug(component, "Page fetched: resource=%s scope=%s page=%d items=%d", res.Name, scope, pageNum, len(items))
		result.Items += len(items)
		if err := fn(items); err != nil {
			result.Stop = ingest.StopCanceled
			return result, err
		}

		switch {
		case res.Exhaustion && len(items) < f.opts.MinNewItems:
			result.Stop = ingest.StopExhausted
			return result, nil
		case res.PageSize > 0 && len(p.items) < res.PageSize:
			result.Stop = ingest.StopShortPage
			return result, nil
		case !res.Exhaustion && p.totalPages > 0 && pageNum >= p.totalPages:
			result.Stop = ingest.StopLastPage
			return result, nil
		}
	}
}

// getPage requests one page, retrying on 429 until the retry cap.
func (f *Fetcher) getPage(ctx context.Context, res ingest.Resource, scope ingest.Scope, pageNum int) (*response, int, error) {
	const component = "Fetcher"
	query := buildQuery(res, scope, pageNum)

	for retries := 0; ; {
		resp, err := f.client.get(ctx, res.Path, query)
		if err != nil {
			return nil, retries, &UpstreamError{Resource: res.Name, Page: pageNum, Err: err}
		}

		switch {
		case resp.status == http.StatusTooManyRequests:
			retries++
			metrics.RateLimited.WithLabelValues(res.Name).Inc()
			if retries > f.opts.MaxRetries {
				return nil, retries, ErrRateLimited
			}
			f.log.Warn(component, "Rate limited, retrying: resource=%s scope=%s page=%d attempt=%d/%d", res.Name, scope, pageNum, retries, f.opts.MaxRetries)
			if err := f.sleep(ctx, res.RetryDelay); err != nil {
				return nil, retries, err
			}
		case resp.status < 200 || resp.status > 299:
			return nil, retries, &UpstreamError{Resource: res.Name, Page: pageNum, StatusCode: resp.status, Body: truncate(resp.body)}
		default:
			return resp, retries, nil
		}
	}
}

func buildQuery(res ingest.Resource, scope ingest.Scope, pageNum int) url.Values {
	q := url.Values{}
	q.Set(res.PageParam, strconv.Itoa(pageNum))
	if res.SizeParam != "" && res.PageSize > 0 {
		q.Set(res.SizeParam, strconv.Itoa(res.PageSize))
	}
	if !scope.Day.IsZero() && res.DateScoped() {
		day := scope.Day.Format(time.DateOnly)
		q.Set(res.DateFromParam, day)
		q.Set(res.DateToParam, day)
	}
	return q
}
