// Package scrape builds link previews for queued tracks from the page's
// OpenGraph tags.
package scrape

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

const requestTimeout = 10 * time.Second

// Preview is the metadata a track page advertises for embedding
type Preview struct {
	Title       string
	Description string
	Image       string
	SiteName    string
}

// Client fetches previews with a shared HTTP client
type Client struct {
	http *http.Client
}

// NewClient creates a preview client. A nil httpClient gets a default with a
// sane timeout.
func NewClient(httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: requestTimeout}
	}
	return &Client{http: httpClient}
}

// Fetch downloads the page at url and extracts its OpenGraph preview,
// falling back to the document title when tags are missing
func (c *Client) Fetch(ctx context.Context, url string) (Preview, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return Preview{}, err
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (compatible; groovebox/1.0)")

	resp, err := c.http.Do(req)
	if err != nil {
		return Preview{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Preview{}, fmt.Errorf("preview fetch returned %s", resp.Status)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return Preview{}, err
	}

	p := Preview{
		Title:       metaProperty(doc, "og:title"),
		Description: metaProperty(doc, "og:description"),
		Image:       metaProperty(doc, "og:image"),
		SiteName:    metaProperty(doc, "og:site_name"),
	}
	if p.Title == "" {
		p.Title = strings.TrimSpace(doc.Find("title").First().Text())
	}
	return p, nil
}

func metaProperty(doc *goquery.Document, property string) string {
	content, _ := doc.Find(`meta[property="` + property + `"]`).First().Attr("content")
	return strings.TrimSpace(content)
}
