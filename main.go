package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"provider-scraper/config"
	"provider-scraper/db"
	"provider-scraper/export"
	"provider-scraper/fetcher"
	"provider-scraper/models"
	"provider-scraper/parser"
	"provider-scraper/scraper"
	"provider-scraper/sheets"
)

// overrides holds command line values that replace configuration fields when set
type overrides struct {
	set            map[string]bool
	maxPage        int
	entriesPerPage int
	renderer       string
	jsonPath       string
	csvPath        string
	spreadsheetURL string
	credentials    string
	sheetsMode     string
	headless       bool
}

func main() {
	var o overrides
	configPath := flag.String("config", "config.yaml", "Path to configuration file")
	flag.IntVar(&o.maxPage, "pages", 0, "Last listing page to visit (overrides listing.max_page)")
	flag.IntVar(&o.entriesPerPage, "limit", 0, "Profiles visited per listing page (overrides listing.entries_per_page)")
	flag.StringVar(&o.renderer, "renderer", "", "Page renderer: rod or static")
	flag.StringVar(&o.jsonPath, "json", "", "Output path for the JSON document")
	flag.StringVar(&o.csvPath, "csv", "", "Output path for the CSV table")
	flag.StringVar(&o.spreadsheetURL, "spreadsheet", "", "Google Sheets URL (optional)")
	flag.StringVar(&o.credentials, "credentials", "", "Path to Google service account credentials JSON file (or use GOOGLE_SHEETS_CREDENTIALS env var)")
	flag.StringVar(&o.sheetsMode, "sheets-mode", "", "Google Sheets write mode: new_sheet or overwrite")
	flag.BoolVar(&o.headless, "headless", true, "Run the browser headless")
	flag.Parse()

	o.set = map[string]bool{}
	flag.Visit(func(f *flag.Flag) {
		o.set[f.Name] = true
	})

	cfg := loadConfig(*configPath)
	applyOverrides(cfg, o)
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v\n", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	result, summary, err := scrapeProfiles(ctx, cfg)
	if err != nil {
		if !errors.Is(err, context.Canceled) {
			log.Fatalf("Scraping failed: %v\n", err)
		}
		log.Printf("Warning: Run interrupted, writing %d profiles collected so far\n", len(result))
	}
	log.Printf("Run summary: %s, records: %d\n", summary, len(result))

	if err := writeOutputs(cfg.Output, result); err != nil {
		log.Fatalf("Failed to write results: %v\n", err)
	}

	// Optional sinks run on a fresh context so an interrupted run is still recorded
	sinkCtx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	writeToSheets(sinkCtx, cfg, result)
	saveToDatabase(sinkCtx, cfg, result, summary, err)
}

// loadConfig loads configuration from file or returns defaults
func loadConfig(configPath string) *config.Config {
	var cfg *config.Config
	if _, err := os.Stat(configPath); err == nil {
		var err error
		cfg, err = config.LoadConfig(configPath)
		if err != nil {
			log.Printf("Warning: Failed to load config file: %v. Using defaults.\n", err)
			cfg = config.GetDefaultConfig()
		}
	} else {
		log.Println("Config file not found. Using default configuration.")
		cfg = config.GetDefaultConfig()
	}
	return cfg
}

// applyOverrides copies explicitly set command line values into cfg
func applyOverrides(cfg *config.Config, o overrides) {
	if o.set["pages"] {
		cfg.Listing.MaxPage = o.maxPage
	}
	if o.set["limit"] {
		cfg.Listing.EntriesPerPage = o.entriesPerPage
	}
	if o.set["renderer"] {
		cfg.Renderer = o.renderer
	}
	if o.set["json"] {
		cfg.Output.JSON = o.jsonPath
	}
	if o.set["csv"] {
		cfg.Output.CSV = o.csvPath
	}
	if o.set["spreadsheet"] {
		cfg.Sheets.SpreadsheetURL = o.spreadsheetURL
	}
	if o.set["credentials"] {
		cfg.Sheets.Credentials = o.credentials
	}
	if o.set["sheets-mode"] {
		cfg.Sheets.Mode = o.sheetsMode
	}
	if o.set["headless"] {
		cfg.Browser.Headless = o.headless
	}
	if cfg.Database.URL == "" {
		cfg.Database.URL = os.Getenv("DATABASE_URL")
	}
}

// newPage creates the rendering backend selected in the configuration
func newPage(cfg *config.Config) (fetcher.Page, error) {
	switch cfg.Renderer {
	case config.RendererStatic:
		loader := fetcher.NewCollyLoader(cfg.Browser.UserAgent, cfg.Timeouts.Listing)
		return fetcher.NewHTMLPage(loader), nil
	case config.RendererRod:
		page, err := fetcher.NewRodPage(cfg.Browser)
		if err != nil {
			return nil, err
		}
		return page, nil
	default:
		return nil, fmt.Errorf("unknown renderer %q", cfg.Renderer)
	}
}

// scrapeProfiles runs one traversal and returns every collected profile.
// On cancellation the profiles gathered so far are returned with the error.
func scrapeProfiles(ctx context.Context, cfg *config.Config) (models.AggregateResult, scraper.Summary, error) {
	page, err := newPage(cfg)
	if err != nil {
		return nil, scraper.Summary{}, fmt.Errorf("failed to create page: %w", err)
	}
	defer func() {
		if err := page.Close(); err != nil {
			log.Printf("Warning: Failed to close page: %v\n", err)
		}
	}()

	agg := scraper.NewAggregator()
	traversal := scraper.NewTraversal(page, parser.NewProfileParser(cfg.Selectors), scraper.OptionsFromConfig(cfg))

	summary, err := traversal.Run(ctx, agg)
	return agg.Drain(), summary, err
}

// writeOutputs serializes the result to the configured JSON and CSV paths
func writeOutputs(out config.OutputConfig, result models.AggregateResult) error {
	if out.JSON != "" {
		if err := export.SaveJSON(out.JSON, result); err != nil {
			return err
		}
		log.Printf("Wrote %d profiles to %s\n", len(result), out.JSON)
	}
	if out.CSV != "" {
		if err := export.SaveCSV(out.CSV, result); err != nil {
			return err
		}
		log.Printf("Wrote %d profiles to %s\n", len(result), out.CSV)
	}
	return nil
}

// profileSheetWriter is the part of sheets.Writer used by a run
type profileSheetWriter interface {
	WriteProfiles(ctx context.Context, result models.AggregateResult, clearFirst bool) error
	CreateSheetAndWriteProfiles(ctx context.Context, sheetName string, result models.AggregateResult, sourceURL string) (string, int64, error)
}

// writeToSheets writes the tabular view when a spreadsheet is configured
func writeToSheets(ctx context.Context, cfg *config.Config, result models.AggregateResult) {
	if cfg.Sheets.SpreadsheetURL == "" || len(result) == 0 {
		return
	}

	spreadsheetID := sheets.ExtractSpreadsheetID(cfg.Sheets.SpreadsheetURL)
	if spreadsheetID == "" {
		log.Printf("Warning: Could not extract spreadsheet ID from URL: %s\n", cfg.Sheets.SpreadsheetURL)
		return
	}

	writer, err := sheets.NewWriter(ctx, spreadsheetID, cfg.Sheets.Credentials)
	if err != nil {
		log.Printf("Warning: Failed to initialize Google Sheets writer: %v\n", err)
		return
	}

	if err := writeSheet(ctx, writer, cfg, result, time.Now()); err != nil {
		log.Printf("Warning: Failed to write to Google Sheets: %v\n", err)
	}
}

// writeSheet dispatches on sheets.mode: overwrite rewrites the first sheet,
// new_sheet inserts a timestamped sheet for this run
func writeSheet(ctx context.Context, writer profileSheetWriter, cfg *config.Config, result models.AggregateResult, now time.Time) error {
	switch cfg.Sheets.Mode {
	case config.SheetsModeOverwrite:
		return writer.WriteProfiles(ctx, result, true)
	case config.SheetsModeNewSheet, "":
		sheetName := fmt.Sprintf("Profiles_%s", now.Format("20060102_150405"))
		_, _, err := writer.CreateSheetAndWriteProfiles(ctx, sheetName, result, cfg.Listing.URLTemplate)
		return err
	default:
		return fmt.Errorf("unknown sheets mode %q", cfg.Sheets.Mode)
	}
}

// saveToDatabase stores the run and its profiles when a database is configured
func saveToDatabase(ctx context.Context, cfg *config.Config, result models.AggregateResult, summary scraper.Summary, runErr error) {
	if cfg.Database.URL == "" {
		return
	}

	database, err := db.NewDB(ctx, cfg.Database.URL)
	if err != nil {
		log.Printf("Warning: Failed to connect to database: %v\n", err)
		return
	}
	defer database.Close()

	run, err := database.CreateRun(ctx, cfg.Listing.URLTemplate)
	if err != nil {
		log.Printf("Warning: %v\n", err)
		return
	}

	status := db.RunDone
	if runErr != nil {
		status = db.RunFailed
	}
	if err := database.SaveProfiles(ctx, run.ID, result); err != nil {
		log.Printf("Warning: Failed to save profiles for run %d: %v\n", run.ID, err)
		status = db.RunFailed
	}
	if err := database.FinishRun(ctx, run.ID, summary, len(result), status); err != nil {
		log.Printf("Warning: %v\n", err)
		return
	}

	log.Printf("Saved run %d with %d profiles to database\n", run.ID, len(result))
}
