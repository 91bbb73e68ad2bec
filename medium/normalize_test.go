package medium

import (
	"strings"
	"testing"
	"time"

	"github.com/mmcdole/gofeed"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExternalID(t *testing.T) {
	tests := []struct {
		name string
		item *gofeed.Item
		want string
	}{
		{
			name: "medium story id from guid",
			item: &gofeed.Item{GUID: "https://medium.com/p/0123abcd4567"},
			want: "0123abcd4567",
		},
		{
			name: "trailing slash stripped",
			item: &gofeed.Item{GUID: "https://medium.com/p/abcdef123456/"},
			want: "abcdef123456",
		},
		{
			name: "falls back to link when guid empty",
			item: &gofeed.Item{Link: "https://medium.com/p/feedface0000"},
			want: "feedface0000",
		},
		{
			name: "no identity at all",
			item: &gofeed.Item{},
			want: "",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExternalID(tt.item))
		})
	}
}

func TestExternalIDHashesNonHexGUIDs(t *testing.T) {
	a := ExternalID(&gofeed.Item{GUID: "https://example.com/my-post-title"})
	b := ExternalID(&gofeed.Item{GUID: "https://example.com/my-post-title"})
	c := ExternalID(&gofeed.Item{GUID: "https://example.com/another-post"})

	assert.Len(t, a, 12)
	assert.Equal(t, a, b, "same guid must derive the same id")
	assert.NotEqual(t, a, c)
}

func TestReadingTime(t *testing.T) {
	words := func(n int) string { return strings.TrimSpace(strings.Repeat("word ", n)) }

	assert.Equal(t, 0, ReadingTime(""))
	assert.Equal(t, 1, ReadingTime(words(1)))
	assert.Equal(t, 1, ReadingTime(words(200)))
	assert.Equal(t, 2, ReadingTime(words(201)))
	assert.Equal(t, 2, ReadingTime(words(400)))

	// Markup doesn't count as words.
	assert.Equal(t, 1, ReadingTime("<p><b>"+words(100)+"</b></p>"))
}

func TestFirstImage(t *testing.T) {
	assert.Equal(t, "https://cdn.example.com/a.png",
		FirstImage(`<p>intro</p><img alt="x" src="https://cdn.example.com/a.png"><img src="https://cdn.example.com/b.png">`))
	assert.Equal(t, "https://cdn.example.com/c.png",
		FirstImage(`<img src='https://cdn.example.com/c.png'/>`))
	assert.Equal(t, "", FirstImage("<p>no images here</p>"))
}

func TestNormalize(t *testing.T) {
	published := time.Date(2025, 3, 14, 9, 0, 0, 0, time.UTC)
	longText := strings.TrimSpace(strings.Repeat("lorem ipsum dolor sit amet ", 40))
	categories := []string{
		"go", "web", "backend", "api", "testing", "docker",
		"redis", "mysql", "gin", "gorm", "linux", "devops",
	}

	item := &gofeed.Item{
		GUID:            "https://medium.com/p/deadbeef1234",
		Title:           "  Building a Portfolio Backend  ",
		Link:            "https://medium.com/@mukesh/building-a-portfolio-backend-deadbeef1234",
		Description:     longText,
		Content:         `<img src="https://cdn.example.com/cover.png"><p>` + longText + `</p>`,
		Categories:      categories,
		PublishedParsed: &published,
		Author:          &gofeed.Person{Name: "Mukesh Rawat"},
	}

	post, ok := Normalize(item)
	require.True(t, ok)

	assert.Equal(t, "deadbeef1234", post.ExternalID)
	assert.Equal(t, "Building a Portfolio Backend", post.Title)
	assert.Equal(t, item.Link, post.SourceURL)
	assert.Equal(t, "https://cdn.example.com/cover.png", post.ImageURL)
	assert.Equal(t, "Mukesh Rawat", post.Author)
	assert.Equal(t, published, post.PublishedAt)
	assert.GreaterOrEqual(t, post.ReadingTime, 1)

	assert.LessOrEqual(t, len([]rune(post.Description)), descriptionLimit+1)
	assert.LessOrEqual(t, len([]rune(post.Excerpt)), excerptLimit+1)

	assert.Len(t, post.Tags, maxTags)
	assert.Len(t, post.Categories, maxCategories)
	assert.Equal(t, "go", post.Tags[0])
}

func TestNormalizeRejectsIncompleteEntries(t *testing.T) {
	_, ok := Normalize(&gofeed.Item{Title: "no identity"})
	assert.False(t, ok)

	_, ok = Normalize(&gofeed.Item{GUID: "https://medium.com/p/0123abcd4567"})
	assert.False(t, ok, "entries without a title are rejected")
}

func TestNormalizeFallsBackToDescriptionContent(t *testing.T) {
	item := &gofeed.Item{
		GUID:        "https://medium.com/p/cafebabe0001",
		Title:       "Short note",
		Description: "<p>just a description body</p>",
	}

	post, ok := Normalize(item)
	require.True(t, ok)
	assert.Equal(t, "<p>just a description body</p>", post.Content)
	assert.Equal(t, "just a description body", post.Excerpt)
}
