// Package feed implements the channel preview extraction pipeline: handle
// normalization, post extraction, embed-based video resolution and ranking.
package feed

import (
	"context"
	"time"
)

// Post is one extracted feed item as returned to API clients.
type Post struct {
	ID       *int64  `json:"id"`
	Text     string  `json:"text"`
	Views    int     `json:"views"`
	Date     *string `json:"date"`
	Author   string  `json:"author"`
	PhotoURL string  `json:"photo_url"`
	VideoURL string  `json:"video_url"`
	PostURL  string  `json:"post_url"`
}

// rawPost carries a Post through extraction together with state that never
// leaves the pipeline: the parsed publish timestamp used for ranking and the
// flag marking posts that need a second-pass video lookup.
type rawPost struct {
	Post
	dateTs       int64
	hasVideoHint bool
}

// Result is the successful payload for one feed request.
type Result struct {
	Channel string `json:"channel"`
	Count   int    `json:"count"`
	Posts   []Post `json:"posts"`
}

// PageFetcher retrieves the body of a single URL. Implemented by
// internal/fetcher; redeclared here so the pipeline owns its dependency.
type PageFetcher interface {
	Fetch(ctx context.Context, rawURL string, timeout time.Duration) ([]byte, error)
}
