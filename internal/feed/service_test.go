package feed

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestService(fetcher *fakeFetcher) *Service {
	resolver := NewResolver(fetcher, "https://t.me", time.Second, zap.NewNop())
	return NewService(fetcher, resolver, Options{
		BaseURL:            "https://t.me",
		ChannelTimeout:     time.Second,
		MaxLimit:           100,
		ResolveConcurrency: 2,
	}, zap.NewNop())
}

func TestGetPosts_FullPipeline(t *testing.T) {
	t.Parallel()

	fetcher := &fakeFetcher{pages: map[string]string{
		"https://t.me/s/chan":           previewFixture,
		"https://t.me/chan/102?embed=1": embedFixture,
	}}
	svc := newTestService(fetcher)

	result, err := svc.GetPosts(context.Background(), "@chan", 20, "")
	require.NoError(t, err)
	require.Equal(t, "chan", result.Channel)
	require.Equal(t, 4, result.Count)
	require.Len(t, result.Posts, 4)

	// Ranked id-descending, nil id last.
	require.EqualValues(t, 103, *result.Posts[0].ID)
	require.EqualValues(t, 102, *result.Posts[1].ID)
	require.EqualValues(t, 101, *result.Posts[2].ID)
	require.Nil(t, result.Posts[3].ID)

	// Post 102 had only a player button; the embed pass fills its video URL.
	require.Equal(t, "https://cdn4.telesco.pe/file/vid102.mp4", result.Posts[1].VideoURL)

	// Exactly one embed fetch: 101 has an inline source, 103 has no hint.
	var embeds int
	for _, u := range fetcher.calls() {
		if strings.Contains(u, "embed=1") {
			embeds++
		}
	}
	require.Equal(t, 1, embeds)
}

func TestGetPosts_EmbedFailureKeepsFeedIntact(t *testing.T) {
	t.Parallel()

	fetcher := &fakeFetcher{pages: map[string]string{
		"https://t.me/s/chan": previewFixture,
		// No embed page registered: the resolver fetch fails.
	}}
	svc := newTestService(fetcher)

	result, err := svc.GetPosts(context.Background(), "chan", 20, "")
	require.NoError(t, err)
	require.Equal(t, 4, result.Count)
	require.Equal(t, "", result.Posts[1].VideoURL)
}

func TestGetPosts_LimitTruncatesBeforeResolution(t *testing.T) {
	t.Parallel()

	fetcher := &fakeFetcher{pages: map[string]string{
		"https://t.me/s/chan": previewFixture,
	}}
	svc := newTestService(fetcher)

	result, err := svc.GetPosts(context.Background(), "chan", 1, "")
	require.NoError(t, err)
	require.Equal(t, 1, result.Count)
	require.EqualValues(t, 103, *result.Posts[0].ID)

	// Post 102 fell off the page, so no embed fetch happened at all.
	for _, u := range fetcher.calls() {
		require.NotContains(t, u, "embed=1")
	}
}

func TestGetPosts_LimitClamped(t *testing.T) {
	t.Parallel()

	fetcher := &fakeFetcher{pages: map[string]string{
		"https://t.me/s/chan": previewFixture,
	}}
	svc := newTestService(fetcher)

	result, err := svc.GetPosts(context.Background(), "chan", 0, "")
	require.NoError(t, err)
	require.Equal(t, 1, result.Count)

	result, err = svc.GetPosts(context.Background(), "chan", 500, "")
	require.NoError(t, err)
	require.Equal(t, 4, result.Count)
}

func TestGetPosts_BeforeCursorPassedThrough(t *testing.T) {
	t.Parallel()

	fetcher := &fakeFetcher{pages: map[string]string{
		"https://t.me/s/chan?before=42": previewFixture,
	}}
	svc := newTestService(fetcher)

	_, err := svc.GetPosts(context.Background(), "chan", 20, "42")
	require.NoError(t, err)
	require.Equal(t, "https://t.me/s/chan?before=42", fetcher.calls()[0])
}

func TestGetPosts_InvalidChannel(t *testing.T) {
	t.Parallel()

	svc := newTestService(&fakeFetcher{})
	_, err := svc.GetPosts(context.Background(), "   ", 20, "")
	require.ErrorIs(t, err, ErrInvalidChannel)
}

func TestGetPosts_PrimaryFetchFailure(t *testing.T) {
	t.Parallel()

	svc := newTestService(&fakeFetcher{err: errors.New("upstream down")})
	_, err := svc.GetPosts(context.Background(), "chan", 20, "")

	var upstream *UpstreamError
	require.ErrorAs(t, err, &upstream)
	require.Contains(t, upstream.Error(), "upstream down")
}
