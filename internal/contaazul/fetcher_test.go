package contaazul

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/farxc/contaazul-sync/internal/ingest"
	"github.com/farxc/contaazul-sync/internal/logger"
)

func makeItems(start, n int) []map[string]any {
	out := make([]map[string]any, n)
	for i := range out {
		out[i] = map[string]any{"id": strconv.Itoa(start + i), "total": 10.5}
	}
	return out
}

func writeItems(w http.ResponseWriter, key string, items []map[string]any, extra map[string]any) {
	body := map[string]any{key: items}
	for k, v := range extra {
		body[k] = v
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(body)
}

func newTestFetcher(t *testing.T, h http.HandlerFunc, opts Options) *Fetcher {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	f := NewFetcher(NewClient(srv.URL, "test-token", 5*time.Second), opts, logger.Discard())
	f.sleep = func(context.Context, time.Duration) error { return nil }
	return f
}

func collect(t *testing.T, f *Fetcher, res ingest.Resource, scope ingest.Scope) ([]ingest.Record, ingest.FetchResult, error) {
	t.Helper()
	var got []ingest.Record
	result, err := f.Fetch(context.Background(), res, scope, func(items []ingest.Record) error {
		got = append(got, items...)
		return nil
	})
	return got, result, err
}

func pagedResource(size int) ingest.Resource {
	return ingest.Resource{
		Name:      "test",
		Path:      "/v1/things",
		PageParam: "pagina",
		SizeParam: "tamanho_pagina",
		PageSize:  size,
		ItemsKeys: []string{"itens"},
	}
}

func pageOf(r *http.Request) int {
	n, _ := strconv.Atoi(r.URL.Query().Get("pagina"))
	return n
}

func TestFetchStopsOnShortPage(t *testing.T) {
	var requests atomic.Int32
	f := newTestFetcher(t, func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		switch pageOf(r) {
		case 1:
			writeItems(w, "itens", makeItems(0, 3), nil)
		case 2:
			writeItems(w, "itens", makeItems(3, 3), nil)
		default:
			writeItems(w, "itens", makeItems(6, 1), nil)
		}
	}, DefaultOptions())

	got, result, err := collect(t, f, pagedResource(3), ingest.Scope{})
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len(got) != 7 {
		t.Errorf("items = %d, want 7", len(got))
	}
	if requests.Load() != 3 {
		t.Errorf("requests = %d, want 3", requests.Load())
	}
	if result.Stop != ingest.StopShortPage {
		t.Errorf("stop = %s, want %s", result.Stop, ingest.StopShortPage)
	}
}

func TestFetchStopsOnEmptyPage(t *testing.T) {
	f := newTestFetcher(t, func(w http.ResponseWriter, r *http.Request) {
		if pageOf(r) == 1 {
			writeItems(w, "itens", makeItems(0, 2), nil)
			return
		}
		writeItems(w, "itens", nil, nil)
	}, DefaultOptions())

	got, result, err := collect(t, f, pagedResource(2), ingest.Scope{})
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len(got) != 2 || result.Pages != 2 || result.Stop != ingest.StopEmptyPage {
		t.Errorf("got %d items, result %+v", len(got), result)
	}
}

func TestFetchStopsOnReportedLastPage(t *testing.T) {
	var requests atomic.Int32
	f := newTestFetcher(t, func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		writeItems(w, "itens", makeItems(pageOf(r)*10, 2), map[string]any{
			"paginacao": map[string]any{"pagina_atual": pageOf(r), "total_paginas": 2},
		})
	}, DefaultOptions())

	_, result, err := collect(t, f, pagedResource(2), ingest.Scope{})
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if requests.Load() != 2 || result.Stop != ingest.StopLastPage {
		t.Errorf("requests = %d, result %+v", requests.Load(), result)
	}
}

func TestFetchSendsAuthAndScopeParams(t *testing.T) {
	f := newTestFetcher(t, func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer test-token" {
			t.Errorf("Authorization = %q", got)
		}
		q := r.URL.Query()
		if q.Get("data_vencimento_de") != "2025-03-04" || q.Get("data_vencimento_ate") != "2025-03-04" {
			t.Errorf("unexpected date params: %v", q)
		}
		if q.Get("tamanho_pagina") != "50" {
			t.Errorf("tamanho_pagina = %q", q.Get("tamanho_pagina"))
		}
		writeItems(w, "itens", nil, nil)
	}, DefaultOptions())

	res := pagedResource(50)
	res.DateFromParam = "data_vencimento_de"
	res.DateToParam = "data_vencimento_ate"
	day := time.Date(2025, 3, 4, 0, 0, 0, 0, time.UTC)

	if _, _, err := collect(t, f, res, ingest.Scope{Day: day}); err != nil {
		t.Fatalf("Fetch: %v", err)
	}
}

func TestFetchRetriesRateLimitedPage(t *testing.T) {
	var page2Calls atomic.Int32
	f := newTestFetcher(t, func(w http.ResponseWriter, r *http.Request) {
		switch pageOf(r) {
		case 1:
			writeItems(w, "itens", makeItems(0, 2), nil)
		case 2:
			if page2Calls.Add(1) <= 2 {
				w.WriteHeader(http.StatusTooManyRequests)
				return
			}
			writeItems(w, "itens", makeItems(2, 1), nil)
		}
	}, DefaultOptions())

	got, result, err := collect(t, f, pagedResource(2), ingest.Scope{})
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len(got) != 3 {
		t.Errorf("items = %d, want 3", len(got))
	}
	if result.Retries != 2 {
		t.Errorf("retries = %d, want 2", result.Retries)
	}
}

func TestFetchRetryCounterResetsPerPage(t *testing.T) {
	var mu sync.Mutex
	calls := map[int]int{}
	f := newTestFetcher(t, func(w http.ResponseWriter, r *http.Request) {
		p := pageOf(r)
		mu.Lock()
		calls[p]++
		n := calls[p]
		mu.Unlock()
		// Every page is rate limited twice before succeeding.
		if n <= 2 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		if p < 4 {
			writeItems(w, "itens", makeItems(p*10, 2), nil)
			return
		}
		writeItems(w, "itens", nil, nil)
	}, Options{MaxRetries: 2, MinNewItems: 1, MaxPages: 10})

	got, result, err := collect(t, f, pagedResource(2), ingest.Scope{})
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len(got) != 6 || result.Retries != 8 {
		t.Errorf("items = %d retries = %d, want 6 and 8", len(got), result.Retries)
	}
}

func TestFetchAbandonsAfterMaxRetries(t *testing.T) {
	var page2Calls atomic.Int32
	f := newTestFetcher(t, func(w http.ResponseWriter, r *http.Request) {
		if pageOf(r) == 1 {
			writeItems(w, "itens", makeItems(0, 2), nil)
			return
		}
		page2Calls.Add(1)
		w.WriteHeader(http.StatusTooManyRequests)
	}, DefaultOptions())

	got, result, err := collect(t, f, pagedResource(2), ingest.Scope{})
	if !errors.Is(err, ErrRateLimited) {
		t.Fatalf("err = %v, want ErrRateLimited", err)
	}
	if len(got) != 2 {
		t.Errorf("items kept = %d, want 2", len(got))
	}
	// One initial request plus five retries.
	if page2Calls.Load() != 6 {
		t.Errorf("page 2 requests = %d, want 6", page2Calls.Load())
	}
	if result.Stop != ingest.StopRateLimited {
		t.Errorf("stop = %s", result.Stop)
	}
}

func TestFetchAbortsOnServerErrorWithoutRetry(t *testing.T) {
	var page2Calls atomic.Int32
	f := newTestFetcher(t, func(w http.ResponseWriter, r *http.Request) {
		if pageOf(r) == 1 {
			writeItems(w, "itens", makeItems(0, 2), nil)
			return
		}
		page2Calls.Add(1)
		http.Error(w, "boom", http.StatusInternalServerError)
	}, DefaultOptions())

	got, _, err := collect(t, f, pagedResource(2), ingest.Scope{})
	var upErr *UpstreamError
	if !errors.As(err, &upErr) {
		t.Fatalf("err = %v, want *UpstreamError", err)
	}
	if upErr.StatusCode != http.StatusInternalServerError || upErr.Page != 2 {
		t.Errorf("unexpected error details: %+v", upErr)
	}
	if page2Calls.Load() != 1 {
		t.Errorf("page 2 requests = %d, want 1", page2Calls.Load())
	}
	if len(got) != 2 {
		t.Errorf("items kept = %d, want 2", len(got))
	}
}

func exhaustionResource() ingest.Resource {
	return ingest.Resource{
		Name:       "products",
		Path:       "/v1/produtos",
		PageParam:  "page",
		ItemsKeys:  []string{"items"},
		Exhaustion: true,
	}
}

func TestFetchExhaustionStopsWhenNoNewItems(t *testing.T) {
	var requests atomic.Int32
	f := newTestFetcher(t, func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		// The endpoint ignores the page parameter.
		writeItems(w, "items", makeItems(0, 20), nil)
	}, DefaultOptions())

	got, result, err := collect(t, f, exhaustionResource(), ingest.Scope{})
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len(got) != 20 || requests.Load() != 2 || result.Stop != ingest.StopExhausted {
		t.Errorf("items = %d requests = %d result %+v", len(got), requests.Load(), result)
	}
}

func TestFetchExhaustionStopsBelowThreshold(t *testing.T) {
	var requests atomic.Int32
	f := newTestFetcher(t, func(w http.ResponseWriter, r *http.Request) {
		n := requests.Add(1)
		p, _ := strconv.Atoi(r.URL.Query().Get("page"))
		if n == 1 {
			writeItems(w, "items", makeItems(0, 20), nil)
			return
		}
		// Mostly repeats, only four unseen IDs.
		writeItems(w, "items", append(makeItems(0, 16), makeItems(p*100, 4)...), nil)
	}, DefaultOptions())

	got, result, err := collect(t, f, exhaustionResource(), ingest.Scope{})
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len(got) != 24 || requests.Load() != 2 || result.Stop != ingest.StopExhausted {
		t.Errorf("items = %d requests = %d result %+v", len(got), requests.Load(), result)
	}
}

func TestFetchExhaustionHonoursPageCeiling(t *testing.T) {
	var requests atomic.Int32
	f := newTestFetcher(t, func(w http.ResponseWriter, r *http.Request) {
		n := int(requests.Add(1))
		writeItems(w, "items", makeItems(n*1000, 10), nil)
	}, Options{MaxRetries: 5, MinNewItems: 10, MaxPages: 3})

	got, result, err := collect(t, f, exhaustionResource(), ingest.Scope{})
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if requests.Load() != 3 || len(got) != 30 || result.Stop != ingest.StopPageCeiling {
		t.Errorf("requests = %d items = %d result %+v", requests.Load(), len(got), result)
	}
}

func TestFetchExhaustionIgnoresReportedTotalPages(t *testing.T) {
	var requests atomic.Int32
	f := newTestFetcher(t, func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		p, _ := strconv.Atoi(r.URL.Query().Get("page"))
		// Page metadata claims a single page while new IDs keep coming.
		extra := map[string]any{"paginacao": map[string]any{"total_paginas": 1}}
		writeItems(w, "items", makeItems(min(p, 3)*100, 20), extra)
	}, DefaultOptions())

	got, result, err := collect(t, f, exhaustionResource(), ingest.Scope{})
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len(got) != 60 || requests.Load() != 4 || result.Stop != ingest.StopExhausted {
		t.Errorf("items = %d requests = %d result %+v", len(got), requests.Load(), result)
	}
}

func TestFetchPacesSuccessfulPages(t *testing.T) {
	f := newTestFetcher(t, func(w http.ResponseWriter, r *http.Request) {
		if pageOf(r) < 3 {
			writeItems(w, "itens", makeItems(pageOf(r)*10, 1), nil)
			return
		}
		writeItems(w, "itens", nil, nil)
	}, DefaultOptions())

	res := pagedResource(1)
	res.Pacing = 40 * time.Millisecond

	start := time.Now()
	if _, _, err := collect(t, f, res, ingest.Scope{}); err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	// Three requests need two pacing intervals.
	if elapsed := time.Since(start); elapsed < 80*time.Millisecond {
		t.Errorf("elapsed = %v, want at least 80ms", elapsed)
	}
}

func TestFetchPacesAcrossScopes(t *testing.T) {
	var (
		mu    sync.Mutex
		times []time.Time
	)
	f := newTestFetcher(t, func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		times = append(times, time.Now())
		mu.Unlock()
		writeItems(w, "itens", makeItems(0, 1), nil)
	}, DefaultOptions())

	res := pagedResource(5)
	res.DateFromParam = "data_vencimento_de"
	res.DateToParam = "data_vencimento_ate"
	res.Pacing = 80 * time.Millisecond

	day := time.Date(2025, 3, 4, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 2; i++ {
		if _, _, err := collect(t, f, res, ingest.Scope{Day: day.AddDate(0, 0, i)}); err != nil {
			t.Fatalf("Fetch day %d: %v", i, err)
		}
	}

	mu.Lock()
	defer mu.Unlock()
	if len(times) != 2 {
		t.Fatalf("requests = %d, want 2", len(times))
	}
	if gap := times[1].Sub(times[0]); gap < 70*time.Millisecond {
		t.Errorf("gap between days = %v, want at least the pacing interval", gap)
	}
}

func TestFetchKeepsNumbersExact(t *testing.T) {
	f := newTestFetcher(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"itens":[{"id":"a","total":1234567.89}]}`))
	}, DefaultOptions())

	got, _, err := collect(t, f, pagedResource(50), ingest.Scope{})
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("items = %d", len(got))
	}
	if n, ok := got[0]["total"].(json.Number); !ok || n.String() != "1234567.89" {
		t.Errorf("total = %#v, want json.Number 1234567.89", got[0]["total"])
	}
}

func TestFetchStopsWhenCallbackFails(t *testing.T) {
	f := newTestFetcher(t, func(w http.ResponseWriter, r *http.Request) {
		writeItems(w, "itens", makeItems(pageOf(r)*10, 2), nil)
	}, DefaultOptions())

	stop := fmt.Errorf("stop")
	result, err := f.Fetch(context.Background(), pagedResource(2), ingest.Scope{}, func([]ingest.Record) error { return stop })
	if !errors.Is(err, stop) || result.Pages != 1 {
		t.Errorf("err = %v pages = %d", err, result.Pages)
	}
}
