package feed

import (
	"bytes"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

const telegramBase = "https://t.me"

var (
	photoStyleRe = regexp.MustCompile(`url\('([^']+)'\)`)
	nonDigitRe   = regexp.MustCompile(`[^\d]`)
	trailingIDRe = regexp.MustCompile(`/(\d+)$`)

	// directVideoRe classifies a URL as pointing at playable video content
	// rather than a player page. The CDN host shape mirrors Telegram's
	// current file hosts and may under-match if those change.
	directVideoRe = regexp.MustCompile(`(?i)\.mp4(?:[?#]|$)|/file/|^https?://cdn\d+\.telesco\.pe/`)
)

// candidateFunc is one extraction strategy for a media URL. Strategies are
// tried in priority order and the first usable result wins.
type candidateFunc func(*goquery.Selection) string

// videoCandidateChain lists the preview-page strategies for a post's video
// URL, strongest signal first.
var videoCandidateChain = []candidateFunc{
	attrCandidate("video source", "src"),
	attrCandidate("video", "src"),
	attrCandidate("a.tgme_widget_message_video_player", "href"),
	attrCandidate(".tgme_widget_message_video_wrap a", "href"),
	anchorCandidate(".mp4"),
	anchorCandidate("/file/"),
}

// ParsePreview parses a raw preview-page body into a goquery document.
func ParsePreview(body []byte) (*goquery.Document, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse preview page: %w", err)
	}
	return doc, nil
}

// ExtractPosts scans a channel preview document and returns its posts in
// document order. It is a pure function of its inputs and never fails on
// malformed markup: containers without a usable data-post reference are
// skipped, and every optional field falls back to its documented default.
func ExtractPosts(doc *goquery.Document, channel string) []rawPost {
	var posts []rawPost
	doc.Find(".tgme_widget_message_wrap").Each(func(_ int, wrap *goquery.Selection) {
		dataPost, _ := wrap.Find(".tgme_widget_message").First().Attr("data-post")
		if !strings.Contains(dataPost, "/") {
			// Service messages and ad blocks render without a post reference.
			return
		}
		p := rawPost{}
		p.Author = channel
		p.PostURL = telegramBase + "/" + dataPost
		p.ID = parsePostID(dataPost, p.PostURL)
		p.Text = strings.TrimSpace(wrap.Find(".tgme_widget_message_text").First().Text())
		p.Views = parseViews(wrap.Find(".tgme_widget_message_views").First().Text())
		if dt, ok := wrap.Find("time").First().Attr("datetime"); ok && dt != "" {
			p.Date = &dt
			p.dateTs = parseDateTs(dt)
		}
		p.PhotoURL = extractPhotoURL(wrap)
		p.VideoURL = pickMediaURL(videoCandidateChain, wrap, p.PostURL)
		p.hasVideoHint = wrap.Find("video, .tgme_widget_message_video_wrap, a.tgme_widget_message_video_player").Length() > 0
		posts = append(posts, p)
	})
	return posts
}

// parsePostID takes the numeric suffix of the data-post reference, falling
// back to the permalink suffix. Nil when neither carries a number.
func parsePostID(dataPost, postURL string) *int64 {
	parts := strings.Split(dataPost, "/")
	if len(parts) >= 2 {
		if id, err := strconv.ParseInt(parts[1], 10, 64); err == nil {
			return &id
		}
	}
	if m := trailingIDRe.FindStringSubmatch(postURL); m != nil {
		if id, err := strconv.ParseInt(m[1], 10, 64); err == nil {
			return &id
		}
	}
	return nil
}

// parseViews strips everything but digits from a views counter like
// "1.2K views" and parses the remainder. Absent or unparsable counters
// count as zero.
func parseViews(raw string) int {
	digits := nonDigitRe.ReplaceAllString(strings.TrimSpace(raw), "")
	if digits == "" {
		return 0
	}
	n, err := strconv.Atoi(digits)
	if err != nil {
		return 0
	}
	return n
}

func parseDateTs(datetime string) int64 {
	t, err := time.Parse(time.RFC3339, datetime)
	if err != nil {
		return 0
	}
	return t.Unix()
}

// extractPhotoURL pulls the photo attachment out of the wrapper's inline
// background-image style.
func extractPhotoURL(wrap *goquery.Selection) string {
	style, _ := wrap.Find(".tgme_widget_message_photo_wrap").First().Attr("style")
	if m := photoStyleRe.FindStringSubmatch(style); m != nil {
		return m[1]
	}
	return ""
}

// pickMediaURL runs a candidate chain over sel and returns the first
// normalized URL that passes the direct-video test. A candidate equal to the
// post's own permalink is a self-reference, not a video.
func pickMediaURL(chain []candidateFunc, sel *goquery.Selection, ownURL string) string {
	for _, candidate := range chain {
		u := normalizeMediaURL(candidate(sel))
		if u == "" || u == ownURL {
			continue
		}
		if directVideoRe.MatchString(u) {
			return u
		}
	}
	return ""
}

// normalizeMediaURL makes protocol-relative and root-relative URLs absolute.
func normalizeMediaURL(u string) string {
	switch {
	case u == "":
		return ""
	case strings.HasPrefix(u, "//"):
		return "https:" + u
	case strings.HasPrefix(u, "/"):
		return telegramBase + u
	default:
		return u
	}
}

func attrCandidate(selector, attr string) candidateFunc {
	return func(s *goquery.Selection) string {
		v, _ := s.Find(selector).First().Attr(attr)
		return strings.TrimSpace(v)
	}
}

func anchorCandidate(needle string) candidateFunc {
	return func(s *goquery.Selection) string {
		var found string
		s.Find("a[href]").EachWithBreak(func(_ int, a *goquery.Selection) bool {
			href, _ := a.Attr("href")
			if strings.Contains(href, needle) {
				found = strings.TrimSpace(href)
				return false
			}
			return true
		})
		return found
	}
}
