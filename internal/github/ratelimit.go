package github

import (
	"context"
	"time"
)

// RateLimit is the core REST quota reported by GET /rate_limit.
type RateLimit struct {
	Limit     int
	Remaining int
	Reset     time.Time
}

// RateLimit reports the caller's remaining core quota. The endpoint does not
// count against the quota, which makes it a cheap reachability and token check.
func (c *Client) RateLimit(ctx context.Context) (RateLimit, error) {
	var payload struct {
		Resources struct {
			Core struct {
				Limit     int   `json:"limit"`
				Remaining int   `json:"remaining"`
				Reset     int64 `json:"reset"`
			} `json:"core"`
		} `json:"resources"`
	}
	if _, err := c.get(ctx, "/rate_limit", nil, &payload); err != nil {
		return RateLimit{}, err
	}
	core := payload.Resources.Core
	limit := RateLimit{Limit: core.Limit, Remaining: core.Remaining}
	if core.Reset > 0 {
		limit.Reset = time.Unix(core.Reset, 0).UTC()
	}
	return limit, nil
}
