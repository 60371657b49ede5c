package shared

import (
	"fmt"
	"regexp"
	"strings"
)

// sourcePatterns are tried in order; the first match wins.
var sourcePatterns = []*regexp.Regexp{
	regexp.MustCompile(`/folders/([a-zA-Z0-9_-]+)`),
	regexp.MustCompile(`/file/d/([a-zA-Z0-9_-]+)`),
	regexp.MustCompile(`id=([a-zA-Z0-9_-]+)`),
	regexp.MustCompile(`/drive/folders/([a-zA-Z0-9_-]+)`),
	regexp.MustCompile(`/open\?id=([a-zA-Z0-9_-]+)`),
}

var bareID = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

// ParseSourceID extracts a remote item identifier from a share URL or returns a bare identifier unchanged.
func ParseSourceID(ref string) (string, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return "", fmt.Errorf("%w: url is required", ErrInvalidArgument)
	}

	for _, re := range sourcePatterns {
		if m := re.FindStringSubmatch(ref); m != nil {
			return m[1], nil
		}
	}

	if bareID.MatchString(ref) {
		return ref, nil
	}

	return "", fmt.Errorf("%w: could not extract an item id from %q", ErrInvalidArgument, ref)
}
