// Package medium ingests posts from a Medium RSS feed into the local database.
package medium

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/mmcdole/gofeed"
)

const fetchTimeout = 30 * time.Second

// Client fetches and parses a Medium RSS feed.
type Client struct {
	parser *gofeed.Parser
}

// NewClient builds a feed client with a bounded HTTP timeout.
func NewClient() *Client {
	p := gofeed.NewParser()
	p.Client = &http.Client{Timeout: fetchTimeout}
	p.UserAgent = "PortfolioAPI/1.0 (+https://github.com/MukeshRawatMkR/Mukesh-Rawat-Web-Portfolio)"
	return &Client{parser: p}
}

// Fetch downloads and parses the feed at feedURL, returning its entries.
func (c *Client) Fetch(ctx context.Context, feedURL string) ([]*gofeed.Item, error) {
	feed, err := c.parser.ParseURLWithContext(feedURL, ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch feed: %w", err)
	}
	return feed.Items, nil
}
