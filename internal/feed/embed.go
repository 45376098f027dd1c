package feed

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/vmakarov/tgparse/internal/metrics"
)

// embedCandidateChain lists the strategies for recovering a video URL from a
// post's embed view, which exposes media through meta tags the preview page
// does not carry.
var embedCandidateChain = []candidateFunc{
	attrCandidate(`meta[property="og:video"]`, "content"),
	attrCandidate(`meta[property="og:video:url"]`, "content"),
	attrCandidate(`meta[name="twitter:player:stream"]`, "content"),
	attrCandidate("video source", "src"),
	attrCandidate("video", "src"),
	anchorCandidate(".mp4"),
	anchorCandidate("/file/"),
}

// Resolver recovers video URLs for posts whose preview markup showed a
// player without an inline source. Resolution is strictly best-effort: any
// failure degrades to an empty URL and never fails the feed request.
type Resolver struct {
	fetcher PageFetcher
	baseURL string
	timeout time.Duration
	logger  *zap.Logger
}

// NewResolver builds a Resolver that fetches embed views through fetcher
// with the given per-fetch timeout.
func NewResolver(fetcher PageFetcher, baseURL string, timeout time.Duration, logger *zap.Logger) *Resolver {
	return &Resolver{fetcher: fetcher, baseURL: baseURL, timeout: timeout, logger: logger}
}

// ResolveVideo fetches the embed view of one post and returns the first
// direct video URL found there, or "" when none exists or the fetch fails.
func (r *Resolver) ResolveVideo(ctx context.Context, channel string, id int64, ownURL string) string {
	embedURL := fmt.Sprintf("%s/%s/%d?embed=1", r.baseURL, url.PathEscape(channel), id)
	body, err := r.fetcher.Fetch(ctx, embedURL, r.timeout)
	if err != nil {
		metrics.ObserveUpstreamFetch("embed", "error")
		metrics.ObserveVideoResolution("fetch_error")
		r.logger.Debug("embed fetch failed", zap.String("url", embedURL), zap.Error(err))
		return ""
	}
	metrics.ObserveUpstreamFetch("embed", "ok")
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		metrics.ObserveVideoResolution("parse_error")
		r.logger.Debug("embed parse failed", zap.String("url", embedURL), zap.Error(err))
		return ""
	}
	if u := pickMediaURL(embedCandidateChain, doc.Selection, ownURL); u != "" {
		metrics.ObserveVideoResolution("resolved")
		return u
	}
	metrics.ObserveVideoResolution("empty")
	return ""
}
