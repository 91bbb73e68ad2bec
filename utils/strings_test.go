package utils

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSlugify(t *testing.T) {
	tests := []struct {
		name  string
		title string
		want  string
	}{
		{"simple", "Hello, World!", "hello-world"},
		{"extra whitespace", "  Go   Routines & Channels  ", "go-routines-channels"},
		{"already slugged", "already-slugged", "already-slugged"},
		{"digits kept", "Top 10 Tips", "top-10-tips"},
		{"punctuation only", "!!! ???", ""},
		{"empty", "", ""},
		{"unicode letters kept", "Émigré Café", "émigré-café"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Slugify(tt.title))
		})
	}
}

func TestSlugifyCapsLength(t *testing.T) {
	long := strings.Repeat("word ", 40) // 200 chars worth of title
	slug := Slugify(long)
	assert.LessOrEqual(t, len([]rune(slug)), 80)
	assert.False(t, strings.HasPrefix(slug, "-"))
	assert.False(t, strings.HasSuffix(slug, "-"))
}

func TestTruncateWords(t *testing.T) {
	assert.Equal(t, "", TruncateWords("anything", 0))
	assert.Equal(t, "hello world", TruncateWords("hello world", 50))
	assert.Equal(t, "the quick brown fox…",
		TruncateWords("the quick brown fox jumps over the lazy dog", 20))

	// Truncation always stays within limit plus the ellipsis rune.
	out := TruncateWords(strings.Repeat("a", 500), 100)
	assert.LessOrEqual(t, len([]rune(out)), 101)
	assert.True(t, strings.HasSuffix(out, "…"))
}

func TestUniqueStrings(t *testing.T) {
	in := []string{"Go", "go ", "", "Rust", "GO", " rust"}
	assert.Equal(t, []string{"Go", "Rust"}, UniqueStrings(in))
	assert.Equal(t, []string{}, UniqueStrings(nil))
}

func TestEscapeLike(t *testing.T) {
	assert.Equal(t, `50\%\_\\`, EscapeLike(`50%_\`))
	assert.Equal(t, "plain", EscapeLike("plain"))
}

func TestStripHTML(t *testing.T) {
	assert.Equal(t, "Hello World", StripHTML("<p>Hello <b>World</b></p>"))
	assert.Equal(t, "a & b", StripHTML("a &amp; b"))
	assert.Equal(t, "", StripHTML("<img src='x.png'>"))
}

func TestSanitizeDropsScripts(t *testing.T) {
	out := Sanitize(`<p>hi</p><script>alert("x")</script>`)
	assert.Contains(t, out, "<p>hi</p>")
	assert.NotContains(t, out, "script")

	// Safe formatting survives.
	kept := Sanitize(`<a href="https://example.com">link</a>`)
	assert.Contains(t, kept, "example.com")
}
