package generator

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/chiawen/aiwriter/internal/model"
)

// Sidecar sentinel pairs. The model is instructed to emit each JSON block
// between its own start/end markers after the article body.
const (
	faqStart    = "---FAQ_START---"
	faqEnd      = "---FAQ_END---"
	imagesStart = "---IMAGES_START---"
	imagesEnd   = "---IMAGES_END---"
	tagsStart   = "---TAGS_START---"
	tagsEnd     = "---TAGS_END---"
	descStart   = "---DESC_START---"
	descEnd     = "---DESC_END---"
)

// Result holds one parsed sidecar. Absence and parse failure are explicit
// states so a malformed block never fails the whole article.
type Result[T any] struct {
	Value   T
	Present bool
	Err     error
}

// Parsed is the outcome of splitting one raw completion response into the
// article body and its sidecars.
type Parsed struct {
	Body          string
	FAQ           Result[[]model.FAQ]
	ImageKeywords Result[map[string]string]
	Tags          Result[[]string]
	Description   Result[string]
}

var codeFenceRe = regexp.MustCompile("(?s)^```(?:json)?\\s*(.*?)\\s*```$")

// ParseResponse extracts sentinel-delimited JSON sidecars from a raw
// completion response. The body is the remaining text with every sidecar
// span removed. Each sidecar parses independently: an invalid FAQ block
// leaves the image keywords intact.
func ParseResponse(raw string) Parsed {
	body := raw

	var p Parsed
	p.FAQ = extractSidecar[[]model.FAQ](&body, faqStart, faqEnd)
	p.ImageKeywords = extractSidecar[map[string]string](&body, imagesStart, imagesEnd)
	p.Tags = extractSidecar[[]string](&body, tagsStart, tagsEnd)
	p.Description = extractSidecar[string](&body, descStart, descEnd)
	p.Body = strings.TrimSpace(body)
	return p
}

// extractSidecar finds the first start/end pair, removes the span from
// body, and JSON-decodes its contents.
func extractSidecar[T any](body *string, start, end string) Result[T] {
	var r Result[T]

	s := strings.Index(*body, start)
	if s < 0 {
		return r
	}
	rest := (*body)[s+len(start):]
	e := strings.Index(rest, end)
	if e < 0 {
		// Unterminated block: drop everything from the start marker so the
		// body does not leak half a JSON object.
		r.Present = true
		r.Err = fmt.Errorf("missing end marker %s", end)
		*body = (*body)[:s]
		return r
	}

	payload := strings.TrimSpace(rest[:e])
	*body = (*body)[:s] + rest[e+len(end):]

	// Some models wrap the JSON in a code fence despite instructions.
	if m := codeFenceRe.FindStringSubmatch(payload); m != nil {
		payload = m[1]
	}

	r.Present = true
	if err := json.Unmarshal([]byte(payload), &r.Value); err != nil {
		r.Err = fmt.Errorf("parsing sidecar JSON: %w", err)
		var zero T
		r.Value = zero
	}
	return r
}

// stripCodeFence removes a surrounding ```json fence from a whole
// response, used by the keyword and title generators whose replies are a
// single JSON array.
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if m := codeFenceRe.FindStringSubmatch(s); m != nil {
		return m[1]
	}
	return s
}
