package main

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"provider-scraper/config"
	"provider-scraper/export"
	"provider-scraper/fetcher"
	"provider-scraper/models"
)

func TestApplyOverrides(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://db.test/providers")

	cfg := config.GetDefaultConfig()
	applyOverrides(cfg, overrides{
		set:            map[string]bool{"pages": true, "renderer": true, "headless": true},
		maxPage:        2,
		entriesPerPage: 99,
		renderer:       config.RendererStatic,
		headless:       false,
	})

	if cfg.Listing.MaxPage != 2 {
		t.Errorf("MaxPage = %d, want 2", cfg.Listing.MaxPage)
	}
	if cfg.Listing.EntriesPerPage != 5 {
		t.Errorf("EntriesPerPage = %d, want the unset flag ignored", cfg.Listing.EntriesPerPage)
	}
	if cfg.Renderer != config.RendererStatic || cfg.Browser.Headless {
		t.Errorf("Renderer = %q, Headless = %v", cfg.Renderer, cfg.Browser.Headless)
	}
	if cfg.Database.URL != "postgres://db.test/providers" {
		t.Errorf("Database.URL = %q, want DATABASE_URL fallback", cfg.Database.URL)
	}
}

func TestNewPage_Static(t *testing.T) {
	cfg := config.GetDefaultConfig()
	cfg.Renderer = config.RendererStatic

	page, err := newPage(cfg)
	if err != nil {
		t.Fatalf("newPage() error = %v", err)
	}
	defer page.Close()

	if _, ok := page.(*fetcher.HTMLPage); !ok {
		t.Errorf("newPage() = %T, want *fetcher.HTMLPage", page)
	}

	cfg.Renderer = "phantom"
	if _, err := newPage(cfg); err == nil {
		t.Error("newPage() with unknown renderer expected error, got nil")
	}
}

func TestLoadConfig_FallsBackToDefaults(t *testing.T) {
	dir := t.TempDir()
	broken := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(broken, []byte("listing: ["), 0644); err != nil {
		t.Fatal(err)
	}

	for _, path := range []string{broken, filepath.Join(dir, "missing.yaml")} {
		cfg := loadConfig(path)
		if cfg.Listing.MaxPage != config.GetDefaultConfig().Listing.MaxPage {
			t.Errorf("loadConfig(%s) did not fall back to defaults", filepath.Base(path))
		}
	}
}

func TestWriteOutputs(t *testing.T) {
	dir := t.TempDir()
	out := config.OutputConfig{
		JSON: filepath.Join(dir, "doctors.json"),
		CSV:  filepath.Join(dir, "doctors.csv"),
	}
	result := models.AggregateResult{models.NewProfileRecord("https://doctor.test/doctor/a")}

	if err := writeOutputs(out, result); err != nil {
		t.Fatalf("writeOutputs() error = %v", err)
	}

	loaded, err := export.LoadJSON(out.JSON)
	if err != nil {
		t.Fatalf("LoadJSON() error = %v", err)
	}
	if len(loaded) != 1 || loaded[0].ProfileURL != "https://doctor.test/doctor/a" {
		t.Errorf("LoadJSON() = %+v", loaded)
	}
	if _, err := os.Stat(out.CSV); err != nil {
		t.Errorf("CSV not written: %v", err)
	}

	out.JSON = filepath.Join(dir, "missing", "doctors.json")
	if err := writeOutputs(out, result); err == nil {
		t.Error("writeOutputs() into a missing directory expected error, got nil")
	}
}

// fakeSheetWriter records which write path a run took
type fakeSheetWriter struct {
	calls []string
	err   error
}

func (f *fakeSheetWriter) WriteProfiles(ctx context.Context, result models.AggregateResult, clearFirst bool) error {
	if clearFirst {
		f.calls = append(f.calls, "overwrite")
	} else {
		f.calls = append(f.calls, "write")
	}
	return f.err
}

func (f *fakeSheetWriter) CreateSheetAndWriteProfiles(ctx context.Context, sheetName string, result models.AggregateResult, sourceURL string) (string, int64, error) {
	f.calls = append(f.calls, "new "+sheetName+" "+sourceURL)
	return sheetName, 1, f.err
}

func TestWriteSheet(t *testing.T) {
	now := time.Date(2026, 10, 14, 9, 30, 0, 0, time.UTC)
	result := models.AggregateResult{models.NewProfileRecord("https://doctor.test/doctor/a")}

	tests := []struct {
		mode    string
		want    []string
		wantErr bool
	}{
		{config.SheetsModeOverwrite, []string{"overwrite"}, false},
		{config.SheetsModeNewSheet, []string{"new Profiles_20261014_093000 https://directory.test/list?page={page}"}, false},
		{"append", nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.mode, func(t *testing.T) {
			cfg := config.GetDefaultConfig()
			cfg.Listing.URLTemplate = "https://directory.test/list?page={page}"
			cfg.Sheets.Mode = tt.mode

			writer := &fakeSheetWriter{}
			err := writeSheet(context.Background(), writer, cfg, result, now)
			if (err != nil) != tt.wantErr {
				t.Fatalf("writeSheet() error = %v, wantErr %v", err, tt.wantErr)
			}
			if diff := cmp.Diff(tt.want, writer.calls); diff != "" {
				t.Errorf("writeSheet() calls mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestWriteSheet_PropagatesWriterError(t *testing.T) {
	cfg := config.GetDefaultConfig()
	cfg.Sheets.Mode = config.SheetsModeOverwrite

	errQuota := errors.New("quota exceeded")
	err := writeSheet(context.Background(), &fakeSheetWriter{err: errQuota}, cfg, nil, time.Now())
	if !errors.Is(err, errQuota) {
		t.Errorf("writeSheet() error = %v, want %v", err, errQuota)
	}
}
