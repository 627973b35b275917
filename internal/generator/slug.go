package generator

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

var slugStripRe = regexp.MustCompile(`[^\w\s\x{4e00}-\x{9fff}-]`)
var slugSpaceRe = regexp.MustCompile(`\s+`)

// Slugify derives a URL-safe slug from a title. The base-36 nanosecond
// suffix keeps slugs unique within a batch even when two titles slugify
// to the same prefix in the same millisecond.
func Slugify(title string, now time.Time) string {
	slug := strings.ToLower(title)
	slug = slugStripRe.ReplaceAllString(slug, "")
	slug = slugSpaceRe.ReplaceAllString(slug, "-")

	// Cut by runes so a multi-byte Han character is never split.
	if runes := []rune(slug); len(runes) > 50 {
		slug = string(runes[:50])
	}

	return slug + "-" + strconv.FormatInt(now.UnixNano(), 36)
}
