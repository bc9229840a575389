package scraper

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/url"
	"time"

	"provider-scraper/config"
	"provider-scraper/fetcher"
	"provider-scraper/parser"
)

// Summary counts what a traversal visited and skipped
type Summary struct {
	PagesVisited   int
	PagesSkipped   int
	LinksFound     int
	EntriesVisited int
	EntriesSkipped int
}

// Options configures a Traversal
type Options struct {
	ListingURL     func(page int) string
	MaxPage        int
	EntriesPerPage int
	EntryLink      string // Listing readiness selector and entry-link pattern
	ProfileReady   string
	ListingTimeout time.Duration
	ProfileTimeout time.Duration
	Pacer          Pacer
}

// OptionsFromConfig builds traversal options from the configuration
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		ListingURL:     cfg.ListingURL,
		MaxPage:        cfg.Listing.MaxPage,
		EntriesPerPage: cfg.Listing.EntriesPerPage,
		EntryLink:      cfg.Selectors.EntryLink,
		ProfileReady:   cfg.Selectors.ProfileReady,
		ListingTimeout: cfg.Timeouts.Listing,
		ProfileTimeout: cfg.Timeouts.Profile,
		Pacer: Pacer{
			EntryDelay: cfg.Pacing.EntryDelay,
			PageDelay:  cfg.Pacing.PageDelay,
		},
	}
}

// Traversal walks the paginated listing and extracts every visited profile.
// It drives a single page sequentially; it is not safe for concurrent use.
type Traversal struct {
	page   fetcher.Page
	parser *parser.ProfileParser
	opts   Options
}

// NewTraversal creates a new Traversal over the given page
func NewTraversal(page fetcher.Page, profileParser *parser.ProfileParser, opts Options) *Traversal {
	return &Traversal{
		page:   page,
		parser: profileParser,
		opts:   opts,
	}
}

// Run visits listing pages 1..MaxPage in order and appends one record per
// successfully loaded profile. Timeouts and navigation failures skip the
// page or entry; only context cancellation stops the run early.
func (t *Traversal) Run(ctx context.Context, agg *Aggregator) (Summary, error) {
	var summary Summary

	for pageNum := 1; pageNum <= t.opts.MaxPage; pageNum++ {
		if err := t.visitPage(ctx, pageNum, agg, &summary); err != nil {
			return summary, err
		}
		if err := t.opts.Pacer.AfterPage(ctx); err != nil {
			return summary, err
		}
	}

	return summary, nil
}

// visitPage handles one listing page: Requesting -> WaitingForContent -> Ready | TimedOut
func (t *Traversal) visitPage(ctx context.Context, pageNum int, agg *Aggregator, summary *Summary) error {
	listingURL := t.opts.ListingURL(pageNum)
	log.Printf("Opening page %d: %s\n", pageNum, listingURL)

	if err := t.page.Navigate(ctx, listingURL); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		log.Printf("Warning: Failed to open page %d, skipping: %v\n", pageNum, err)
		summary.PagesSkipped++
		return nil
	}

	if err := t.page.WaitFor(ctx, t.opts.EntryLink, t.opts.ListingTimeout); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if errors.Is(err, fetcher.ErrNotReady) {
			log.Printf("Warning: Timeout on page %d, skipping\n", pageNum)
		} else {
			log.Printf("Warning: Failed waiting for page %d, skipping: %v\n", pageNum, err)
		}
		summary.PagesSkipped++
		return nil
	}

	links := t.collectLinks(listingURL)
	summary.PagesVisited++
	summary.LinksFound += len(links)
	log.Printf("Found %d profile links on page %d\n", len(links), pageNum)

	if len(links) > t.opts.EntriesPerPage {
		links = links[:t.opts.EntriesPerPage]
	}

	for _, link := range links {
		if err := t.visitEntry(ctx, link, agg, summary); err != nil {
			return err
		}
		if err := t.opts.Pacer.AfterEntry(ctx); err != nil {
			return err
		}
	}

	log.Printf("Page %d completed (%d records so far)\n", pageNum, agg.Len())
	return nil
}

// visitEntry handles one profile: NavigatingEntry -> WaitingForEntryContent -> ExtractAndAppend | SkipOnTimeout
func (t *Traversal) visitEntry(ctx context.Context, link string, agg *Aggregator, summary *Summary) error {
	log.Printf("Scraping: %s\n", link)

	if err := t.page.Navigate(ctx, link); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		log.Printf("Warning: Failed to open profile %s, skipping: %v\n", link, err)
		summary.EntriesSkipped++
		return nil
	}

	if err := t.page.WaitFor(ctx, t.opts.ProfileReady, t.opts.ProfileTimeout); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		log.Printf("Warning: Profile load timeout, skipping %s: %v\n", link, err)
		summary.EntriesSkipped++
		return nil
	}

	agg.Append(t.parser.Parse(t.page, link))
	summary.EntriesVisited++
	return nil
}

// collectLinks returns the href of every entry link on the current page,
// resolved against the listing URL, in document order
func (t *Traversal) collectLinks(listingURL string) []string {
	base, err := url.Parse(listingURL)
	if err != nil {
		base = nil
	}

	var links []string
	for _, el := range parser.All(t.page, t.opts.EntryLink) {
		href := parser.AttrOf(el, "href")
		if href == "" {
			continue
		}
		links = append(links, resolveLink(base, href))
	}
	return links
}

func resolveLink(base *url.URL, href string) string {
	if base == nil {
		return href
	}
	ref, err := url.Parse(href)
	if err != nil {
		return href
	}
	return base.ResolveReference(ref).String()
}

// String renders the summary for the run log
func (s Summary) String() string {
	return fmt.Sprintf("pages visited: %d, pages skipped: %d, links found: %d, entries visited: %d, entries skipped: %d",
		s.PagesVisited, s.PagesSkipped, s.LinksFound, s.EntriesVisited, s.EntriesSkipped)
}
