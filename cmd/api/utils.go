package main

import (
	"fmt"
	"net/http"
	"strconv"
)

const (
	defaultLimit = 10
	maxLimit     = 100
)

// parseLimit reads ?limit=, defaulting to 10 and capped at 100.
func parseLimit(r *http.Request) (int, error) {
	param := r.URL.Query().Get("limit")
	if param == "" {
		return defaultLimit, nil
	}
	limit, err := strconv.Atoi(param)
	if err != nil || limit < 1 {
		return 0, fmt.Errorf("invalid limit %q", param)
	}
	return min(limit, maxLimit), nil
}
