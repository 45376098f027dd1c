package feed

import (
	"context"
	"fmt"
	"net/url"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/vmakarov/tgparse/internal/metrics"
)

// UpstreamError wraps a failure to fetch or parse the primary channel page.
// The API boundary maps it to a server-side error response.
type UpstreamError struct {
	Err error
}

func (e *UpstreamError) Error() string {
	return "fetch channel page: " + e.Err.Error()
}

func (e *UpstreamError) Unwrap() error { return e.Err }

// Options configures the feed pipeline.
type Options struct {
	BaseURL            string
	ChannelTimeout     time.Duration
	MaxLimit           int
	ResolveConcurrency int
}

// Service runs the normalize, fetch, extract, resolve, rank pipeline for one
// feed request at a time. It holds no per-request state and is safe for
// concurrent use.
type Service struct {
	fetcher  PageFetcher
	resolver *Resolver
	opts     Options
	logger   *zap.Logger
}

// NewService wires the pipeline together.
func NewService(fetcher PageFetcher, resolver *Resolver, opts Options, logger *zap.Logger) *Service {
	if opts.ResolveConcurrency < 1 {
		opts.ResolveConcurrency = 1
	}
	return &Service{fetcher: fetcher, resolver: resolver, opts: opts, logger: logger}
}

// GetPosts returns the most recent posts of a channel, at most limit entries.
// The before cursor, when set, is passed through verbatim to the upstream
// page. Input errors surface as ErrInvalidChannel; a failed primary fetch
// surfaces as *UpstreamError.
func (s *Service) GetPosts(ctx context.Context, rawChannel string, limit int, before string) (Result, error) {
	channel, err := NormalizeChannel(rawChannel)
	if err != nil {
		return Result{}, err
	}
	limit = clampLimit(limit, s.opts.MaxLimit)

	pageURL := fmt.Sprintf("%s/s/%s", s.opts.BaseURL, url.PathEscape(channel))
	if before != "" {
		pageURL += "?before=" + url.QueryEscape(before)
	}
	body, err := s.fetcher.Fetch(ctx, pageURL, s.opts.ChannelTimeout)
	if err != nil {
		metrics.ObserveUpstreamFetch("channel", "error")
		return Result{}, &UpstreamError{Err: err}
	}
	metrics.ObserveUpstreamFetch("channel", "ok")

	doc, err := ParsePreview(body)
	if err != nil {
		return Result{}, &UpstreamError{Err: err}
	}

	posts := ExtractPosts(doc, channel)
	rankPosts(posts)
	if len(posts) > limit {
		posts = posts[:limit]
	}
	s.resolveVideos(ctx, channel, posts)

	s.logger.Debug("feed assembled",
		zap.String("channel", channel),
		zap.Int("posts", len(posts)),
	)
	return Result{Channel: channel, Count: len(posts), Posts: project(posts)}, nil
}

// resolveVideos runs the embed fallback for every retained post that showed
// a video hint without a direct URL. Resolutions target distinct posts and
// run concurrently under a small semaphore; a failed resolution leaves that
// one post's video URL empty.
func (s *Service) resolveVideos(ctx context.Context, channel string, posts []rawPost) {
	var wg sync.WaitGroup
	sem := make(chan struct{}, s.opts.ResolveConcurrency)
	for i := range posts {
		p := &posts[i]
		if !p.hasVideoHint || p.VideoURL != "" || p.ID == nil {
			continue
		}
		wg.Add(1)
		sem <- struct{}{}
		go func() {
			defer wg.Done()
			defer func() { <-sem }()
			p.VideoURL = s.resolver.ResolveVideo(ctx, channel, *p.ID, p.PostURL)
		}()
	}
	wg.Wait()
}
