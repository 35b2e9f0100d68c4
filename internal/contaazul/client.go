// Package contaazul talks to the Conta Azul v2 REST API.
package contaazul

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/farxc/contaazul-sync/internal/ingest"
)

const maxErrorBody = 512

type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

func NewClient(baseURL, token string, timeout time.Duration) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      token,
		httpClient: &http.Client{Timeout: timeout},
	}
}

type response struct {
	status int
	body   []byte
}

func (c *Client) get(ctx context.Context, path string, query url.Values) (*response, error) {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	return &response{status: resp.StatusCode, body: body}, nil
}

// page is a decoded page body.
type page struct {
	items      []ingest.Record
	totalPages int
}

// decodePage finds the item list under the first matching key. A bare JSON
// array is accepted as the item list itself.
func decodePage(body []byte, keys []string) (page, error) {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()

	var raw any
	if err := dec.Decode(&raw); err != nil {
		return page{}, fmt.Errorf("failed to decode page: %w", err)
	}

	var p page
	switch v := raw.(type) {
	case []any:
		p.items = toRecords(v)
	case map[string]any:
		doc := ingest.Record(v)
		for _, k := range keys {
			if list, ok := v[k].([]any); ok {
				p.items = toRecords(list)
				break
			}
		}
		if n, err := json.Number(doc.String("paginacao.total_paginas")).Int64(); err == nil {
			p.totalPages = int(n)
		}
	default:
		return page{}, fmt.Errorf("unexpected page body of type %T", raw)
	}
	return p, nil
}

func toRecords(list []any) []ingest.Record {
	out := make([]ingest.Record, 0, len(list))
	for _, el := range list {
		if obj, ok := el.(map[string]any); ok {
			out = append(out, ingest.Record(obj))
		}
	}
	return out
}

func truncate(b []byte) string {
	if len(b) > maxErrorBody {
		return string(b[:maxErrorBody]) + "..."
	}
	return string(b)
}
