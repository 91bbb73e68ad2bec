package medium

import (
	"crypto/sha256"
	"encoding/hex"
	"regexp"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"

	"github.com/MukeshRawatMkR/Mukesh-Rawat-Web-Portfolio/models"
	"github.com/MukeshRawatMkR/Mukesh-Rawat-Web-Portfolio/utils"
)

const (
	descriptionLimit = 300
	excerptLimit     = 150
	maxTags          = 10
	maxCategories    = 5
	wordsPerMinute   = 200
)

var (
	// Medium GUIDs end in a hex story id, e.g. https://medium.com/p/0123abcd4567.
	hexIDPattern = regexp.MustCompile(`^[0-9a-f]{8,}$`)
	imgSrcRe     = regexp.MustCompile(`<img[^>]+src=["']([^"'>]+)["']`)
)

// ExternalID derives a stable identifier for a feed entry. The trailing path
// segment of the GUID is used when it looks like a Medium story id; anything
// else is hashed so manual and foreign feeds still get stable keys.
func ExternalID(item *gofeed.Item) string {
	guid := strings.TrimSpace(item.GUID)
	if guid == "" {
		guid = strings.TrimSpace(item.Link)
	}
	if guid == "" {
		return ""
	}
	trimmed := strings.TrimSuffix(guid, "/")
	if idx := strings.LastIndex(trimmed, "/"); idx >= 0 {
		if tail := trimmed[idx+1:]; hexIDPattern.MatchString(tail) {
			return tail
		}
	}
	sum := sha256.Sum256([]byte(guid))
	return hex.EncodeToString(sum[:])[:12]
}

// ReadingTime estimates minutes to read HTML content at 200 words per minute,
// rounding up. Empty content reads in zero minutes.
func ReadingTime(htmlContent string) int {
	words := len(strings.Fields(utils.StripHTML(htmlContent)))
	if words == 0 {
		return 0
	}
	return (words + wordsPerMinute - 1) / wordsPerMinute
}

// FirstImage returns the src of the first <img> tag in the HTML, or "".
func FirstImage(htmlContent string) string {
	m := imgSrcRe.FindStringSubmatch(htmlContent)
	if len(m) < 2 {
		return ""
	}
	return m[1]
}

// Normalize converts a feed entry into a Post ready for reconciliation.
// Entries without a derivable external id or title are rejected.
func Normalize(item *gofeed.Item) (models.Post, bool) {
	externalID := ExternalID(item)
	title := strings.TrimSpace(item.Title)
	if externalID == "" || title == "" {
		return models.Post{}, false
	}

	content := item.Content
	if content == "" {
		content = item.Description
	}

	summary := utils.StripHTML(item.Description)
	if summary == "" {
		summary = utils.StripHTML(content)
	}

	publishedAt := time.Now()
	if item.PublishedParsed != nil {
		publishedAt = *item.PublishedParsed
	}

	labels := utils.UniqueStrings(item.Categories)
	tags := labels
	if len(tags) > maxTags {
		tags = tags[:maxTags]
	}
	categories := labels
	if len(categories) > maxCategories {
		categories = categories[:maxCategories]
	}

	return models.Post{
		ExternalID:  externalID,
		Title:       title,
		Description: utils.TruncateWords(summary, descriptionLimit),
		Content:     content,
		Excerpt:     utils.TruncateWords(summary, excerptLimit),
		Author:      entryAuthor(item),
		SourceURL:   strings.TrimSpace(item.Link),
		ImageURL:    FirstImage(content),
		Tags:        models.StringList(tags),
		Categories:  models.StringList(categories),
		ReadingTime: ReadingTime(content),
		PublishedAt: publishedAt,
	}, true
}

func entryAuthor(item *gofeed.Item) string {
	if item.Author != nil && strings.TrimSpace(item.Author.Name) != "" {
		return strings.TrimSpace(item.Author.Name)
	}
	if item.DublinCoreExt != nil && len(item.DublinCoreExt.Creator) > 0 {
		return strings.TrimSpace(item.DublinCoreExt.Creator[0])
	}
	return ""
}
