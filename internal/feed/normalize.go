package feed

import (
	"errors"
	"regexp"
	"strings"
)

// Channel input errors, mapped to client failures at the API boundary.
var (
	ErrMissingChannel = errors.New(`query param "channel" is required`)
	ErrInvalidChannel = errors.New("invalid channel value")
)

var channelPrefixRe = regexp.MustCompile(`(?i)^https?://t\.me/`)

// NormalizeChannel reduces any accepted channel spelling to its canonical
// handle. Accepted forms: a full t.me URL, an @handle, a preview path
// ("s/handle"), or a bare handle, each optionally followed by extra path
// segments which are discarded.
func NormalizeChannel(raw string) (string, error) {
	c := channelPrefixRe.ReplaceAllString(strings.TrimSpace(raw), "")
	c = strings.TrimPrefix(c, "@")
	c = strings.TrimPrefix(c, "s/")
	if i := strings.IndexByte(c, '/'); i >= 0 {
		c = c[:i]
	}
	c = strings.TrimSpace(c)
	if c == "" {
		return "", ErrInvalidChannel
	}
	return c, nil
}
