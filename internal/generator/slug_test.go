package generator

import (
	"strings"
	"testing"
	"time"
)

func TestSlugify(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name  string
		title string
		check func(t *testing.T, slug string)
	}{
		{
			name:  "english title",
			title: "How to Choose Picture Books",
			check: func(t *testing.T, slug string) {
				if !strings.HasPrefix(slug, "how-to-choose-picture-books-") {
					t.Errorf("slug = %q", slug)
				}
			},
		},
		{
			name:  "han characters kept",
			title: "如何挑選適合兩歲寶寶的繪本",
			check: func(t *testing.T, slug string) {
				if !strings.HasPrefix(slug, "如何挑選適合兩歲寶寶的繪本-") {
					t.Errorf("slug = %q", slug)
				}
			},
		},
		{
			name:  "punctuation stripped",
			title: "Best Toys! (2025 Edition)",
			check: func(t *testing.T, slug string) {
				if strings.ContainsAny(slug, "!()") {
					t.Errorf("slug contains punctuation: %q", slug)
				}
			},
		},
		{
			name:  "long title truncated",
			title: strings.Repeat("很長的標題", 30),
			check: func(t *testing.T, slug string) {
				base := strings.TrimSuffix(slug, slug[strings.LastIndex(slug, "-"):])
				if len([]rune(base)) > 50 {
					t.Errorf("base slug has %d runes, want <= 50", len([]rune(base)))
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.check(t, Slugify(tt.title, now))
		})
	}
}

// Two identical titles slugified at nanosecond-distinct times must differ.
func TestSlugifyUniqueWithinMillisecond(t *testing.T) {
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	a := Slugify("同一個標題", base)
	b := Slugify("同一個標題", base.Add(time.Nanosecond))

	if a == b {
		t.Errorf("slugs collide: %q", a)
	}
}
