// Package fetcher performs single-shot HTTP GETs against the Telegram
// preview host using a Colly collector.
package fetcher

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gocolly/colly/v2"
	"go.uber.org/zap"
)

// Config controls the headers sent with every fetch.
type Config struct {
	UserAgent      string
	AcceptLanguage string
}

// Fetcher executes one GET per call with browser-like headers and a bounded
// timeout. It never retries; errors and non-2xx statuses surface to the
// caller, who decides whether the failure is fatal.
type Fetcher struct {
	cfg           Config
	baseCollector *colly.Collector
	logger        *zap.Logger
}

// New builds a Fetcher with a pooled transport shared by all fetches.
func New(cfg Config, logger *zap.Logger) *Fetcher {
	c := colly.NewCollector(colly.Async(false))
	c.IgnoreRobotsTxt = true
	c.AllowURLRevisit = true
	c.WithTransport(&http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout:   15 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		MaxIdleConns:          100,
		IdleConnTimeout:       90 * time.Second,
		ForceAttemptHTTP2:     true,
	})
	return &Fetcher{cfg: cfg, baseCollector: c, logger: logger}
}

// Fetch retrieves one URL and returns the response body. The timeout bounds
// the whole exchange; the context only covers cancellation while waiting.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string, timeout time.Duration) ([]byte, error) {
	collector := f.baseCollector.Clone()
	if f.cfg.UserAgent != "" {
		collector.UserAgent = f.cfg.UserAgent
	}
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	collector.SetRequestTimeout(timeout)

	var (
		body     []byte
		fetchErr error
	)
	collector.OnRequest(func(r *colly.Request) {
		if f.cfg.AcceptLanguage != "" {
			r.Headers.Set("Accept-Language", f.cfg.AcceptLanguage)
		}
	})
	collector.OnResponse(func(r *colly.Response) {
		body = append([]byte(nil), r.Body...)
	})
	collector.OnError(func(r *colly.Response, err error) {
		fetchErr = err
	})

	start := time.Now()
	done := make(chan error, 1)
	go func() {
		done <- collector.Visit(rawURL)
	}()

	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("fetch canceled: %w", ctx.Err())
	case err := <-done:
		if err != nil {
			return nil, fmt.Errorf("visit %s: %w", rawURL, err)
		}
		if fetchErr != nil {
			return nil, fmt.Errorf("fetch %s: %w", rawURL, fetchErr)
		}
		f.logger.Debug("page fetched",
			zap.String("url", rawURL),
			zap.Int("bytes", len(body)),
			zap.Duration("duration", time.Since(start)),
		)
		return body, nil
	}
}
