package handlers

import (
	"net/http"
	"strconv"

	"github.com/malbeclabs/atomid/sdk/pkg/atomid"
)

const (
	DefaultLimit = atomid.DefaultLeaderboardLimit
	MaxLimit     = 1000
)

// ParseLimit reads the limit query parameter. Missing or invalid values use
// defaultLimit and large values are capped at MaxLimit.
func ParseLimit(r *http.Request, defaultLimit int) int {
	if defaultLimit <= 0 {
		defaultLimit = DefaultLimit
	}

	limit := defaultLimit
	if l := r.URL.Query().Get("limit"); l != "" {
		if parsed, err := strconv.Atoi(l); err == nil && parsed > 0 {
			limit = parsed
			if limit > MaxLimit {
				limit = MaxLimit
			}
		}
	}
	return limit
}
