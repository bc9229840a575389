package fetcher

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/gocolly/colly/v2"
)

// CollyLoader implements the Loader interface using colly (plain HTTP, no JavaScript)
type CollyLoader struct {
	collector *colly.Collector
	body      string
	status    int
}

// NewCollyLoader creates a new CollyLoader instance
func NewCollyLoader(userAgent string, timeout time.Duration) *CollyLoader {
	c := colly.NewCollector(
		colly.UserAgent(userAgent),
		colly.AllowURLRevisit(), // The same profile may appear on several pages
	)
	c.SetRequestTimeout(timeout)

	cl := &CollyLoader{collector: c}

	c.OnResponse(func(r *colly.Response) {
		cl.body = string(r.Body)
		cl.status = r.StatusCode
	})

	c.OnError(func(r *colly.Response, err error) {
		log.Printf("Error fetching %s: %v\n", r.Request.URL, err)
		cl.status = r.StatusCode
	})

	return cl
}

// Load implements the Loader interface
func (cl *CollyLoader) Load(ctx context.Context, url string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	cl.body = ""
	cl.status = 0

	if err := cl.collector.Visit(url); err != nil {
		return "", fmt.Errorf("failed to visit URL: %w", err)
	}
	cl.collector.Wait()

	if cl.body == "" {
		return "", fmt.Errorf("empty response from %s (status %d)", url, cl.status)
	}
	return cl.body, nil
}
