package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/andybalholm/cascadia"
	"gopkg.in/yaml.v3"
)

// PagePlaceholder is replaced by the page number in the listing URL template
const PagePlaceholder = "{page}"

// Sheets write modes
const (
	SheetsModeNewSheet  = "new_sheet" // Insert a timestamped sheet per run
	SheetsModeOverwrite = "overwrite" // Clear and rewrite the first sheet
)

// Renderer names accepted in the configuration
const (
	RendererRod    = "rod"
	RendererStatic = "static"
)

// Config represents the scraper configuration
type Config struct {
	Listing   ListingConfig  `yaml:"listing"`
	Timeouts  TimeoutConfig  `yaml:"timeouts"`
	Pacing    PacingConfig   `yaml:"pacing"`
	Renderer  string         `yaml:"renderer"`
	Browser   BrowserConfig  `yaml:"browser"`
	Output    OutputConfig   `yaml:"output"`
	Sheets    SheetsConfig   `yaml:"sheets"`
	Database  DatabaseConfig `yaml:"database"`
	Selectors Selectors      `yaml:"selectors"`
}

// ListingConfig describes the paginated listing
type ListingConfig struct {
	URLTemplate    string `yaml:"url_template"`
	MaxPage        int    `yaml:"max_page"`         // Pages 1..MaxPage are visited
	EntriesPerPage int    `yaml:"entries_per_page"` // Only the first N profile links per page are visited
}

// TimeoutConfig holds the readiness wait bounds
type TimeoutConfig struct {
	Listing time.Duration `yaml:"listing"`
	Profile time.Duration `yaml:"profile"`
}

// PacingConfig holds the fixed delays between visits
type PacingConfig struct {
	EntryDelay time.Duration `yaml:"entry_delay"`
	PageDelay  time.Duration `yaml:"page_delay"`
}

// BrowserConfig controls the rod browser
type BrowserConfig struct {
	Headless    bool   `yaml:"headless"`
	Bin         string `yaml:"bin"`
	UserDataDir string `yaml:"user_data_dir"`
	Stealth     bool   `yaml:"stealth"`
	NoSandbox   bool   `yaml:"no_sandbox"`
	UserAgent   string `yaml:"user_agent"`
}

// OutputConfig holds the output file paths
type OutputConfig struct {
	JSON string `yaml:"json"`
	CSV  string `yaml:"csv"`
}

// SheetsConfig configures the optional Google Sheets sink
type SheetsConfig struct {
	SpreadsheetURL string `yaml:"spreadsheet_url"`
	Credentials    string `yaml:"credentials"`
	Mode           string `yaml:"mode"`
}

// DatabaseConfig configures the optional PostgreSQL sink
type DatabaseConfig struct {
	URL string `yaml:"url"`
}

// Selectors holds every CSS selector used against listing and profile pages
type Selectors struct {
	EntryLink    string `yaml:"entry_link"`
	ProfileReady string `yaml:"profile_ready"`

	Name          string `yaml:"name"`
	Image         string `yaml:"image"`
	Specialty     string `yaml:"specialty"`
	AverageRating string `yaml:"average_rating"`
	Phone         string `yaml:"phone"`
	RatingCount   string `yaml:"rating_count"`
	MapLink       string `yaml:"map_link"`
	Experience    string `yaml:"experience"`
	Biography     string `yaml:"biography"`
	Conditions    string `yaml:"conditions"`
	Procedures    string `yaml:"procedures"`

	Review        string `yaml:"review"`
	ReviewRating  string `yaml:"review_rating"`
	ReviewComment string `yaml:"review_comment"`
	ReviewDate    string `yaml:"review_date"`

	Location       string `yaml:"location"`
	LocationName   string `yaml:"location_name"`
	LocationAddr   string `yaml:"location_address"`
	LocationPhone  string `yaml:"location_phone"`
	PhoneAttribute string `yaml:"phone_attribute"`

	CredentialSection string `yaml:"credential_section"`
	CredentialHeading string `yaml:"credential_heading"`
	CredentialEntry   string `yaml:"credential_entry"`
	LicenseText       string `yaml:"license_text"`
	LicenseStatus     string `yaml:"license_status"`
	CertificationName string `yaml:"certification_name"`
	EducationSchool   string `yaml:"education_school"`
	EducationYear     string `yaml:"education_year"`
}

// LoadConfig loads configuration from a YAML file on top of the defaults
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := GetDefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config file: %w", err)
	}

	return cfg, nil
}

// GetDefaultConfig returns a default configuration
func GetDefaultConfig() *Config {
	return &Config{
		Listing: ListingConfig{
			URLTemplate:    "https://doctor.webmd.com/providers/specialty/dermatology?pagenumber={page}",
			MaxPage:        9,
			EntriesPerPage: 5,
		},
		Timeouts: TimeoutConfig{
			Listing: 10 * time.Second,
			Profile: 8 * time.Second,
		},
		Pacing: PacingConfig{
			EntryDelay: 1500 * time.Millisecond,
			PageDelay:  3 * time.Second,
		},
		Renderer: RendererRod,
		Browser: BrowserConfig{
			Headless:  true,
			NoSandbox: true,
			UserAgent: "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
		},
		Output: OutputConfig{
			JSON: "doctors.json",
			CSV:  "doctors.csv",
		},
		Sheets: SheetsConfig{
			Mode: SheetsModeNewSheet,
		},
		Selectors: DefaultSelectors(),
	}
}

// DefaultSelectors returns the selectors matching the provider directory markup
func DefaultSelectors() Selectors {
	return Selectors{
		EntryLink:    "a[href*='doctor/'][class*='prov-name']",
		ProfileReady: "div[class*='profile-topcard-wrap']",

		Name:          "h1[class*='provider-full-name']",
		Image:         "img[class*='loc-co-provim']",
		Specialty:     "span[class*='prov-specialty-name']",
		AverageRating: "span[class*='avg-ratings']",
		Phone:         "span[class*='svgicon-phone'] ~ span",
		RatingCount:   ".loc-co-numrat",
		MapLink:       "div[class*='get-direction'] > a",
		Experience:    "div[class*='years-of-exp']",
		Biography:     "div[class*='lhd-profile-bio']",
		Conditions:    "div[class*='conditions-treated'] li",
		Procedures:    "div[class*='procedures-performed'] li",

		Review:        "div[class*='provider-review']",
		ReviewRating:  "div[class*='webmd-rate']",
		ReviewComment: "section[class='reviewData'] > article",
		ReviewDate:    "li[class*='reviewdate']",

		Location:       "div[class*='webmd-col'][class*='loc-']",
		LocationName:   "div[class*='location-practice-name']",
		LocationAddr:   "div[class*='location-address']",
		LocationPhone:  "a[class*='cta-phone']",
		PhoneAttribute: "formattedphone",

		CredentialSection: "div[class*='education-wrapper'] div[class*='edu-subsection']",
		CredentialHeading: "h3",
		CredentialEntry:   "li",
		LicenseText:       "[class*='license-text']",
		LicenseStatus:     "[class*='license-status']",
		CertificationName: "[class*='cert-name']",
		EducationSchool:   "[class*='edu-school']",
		EducationYear:     "[class*='edu-year']",
	}
}

// Validate checks that the configuration can drive a run
func (c *Config) Validate() error {
	if !strings.Contains(c.Listing.URLTemplate, PagePlaceholder) {
		return fmt.Errorf("listing.url_template must contain %s", PagePlaceholder)
	}
	if c.Listing.MaxPage < 1 {
		return fmt.Errorf("listing.max_page must be at least 1, got %d", c.Listing.MaxPage)
	}
	if c.Listing.EntriesPerPage < 1 {
		return fmt.Errorf("listing.entries_per_page must be at least 1, got %d", c.Listing.EntriesPerPage)
	}
	if c.Timeouts.Listing <= 0 || c.Timeouts.Profile <= 0 {
		return fmt.Errorf("timeouts must be positive")
	}
	if c.Pacing.EntryDelay < 0 || c.Pacing.PageDelay < 0 {
		return fmt.Errorf("pacing delays must not be negative")
	}
	switch c.Renderer {
	case RendererRod, RendererStatic:
	default:
		return fmt.Errorf("unknown renderer %q", c.Renderer)
	}
	switch c.Sheets.Mode {
	case SheetsModeNewSheet, SheetsModeOverwrite:
	default:
		return fmt.Errorf("unknown sheets.mode %q", c.Sheets.Mode)
	}
	if c.Selectors.EntryLink == "" || c.Selectors.ProfileReady == "" {
		return fmt.Errorf("selectors.entry_link and selectors.profile_ready are required")
	}
	for _, ns := range c.Selectors.named() {
		if ns.selector == "" {
			continue
		}
		if _, err := cascadia.ParseGroup(ns.selector); err != nil {
			return fmt.Errorf("selectors.%s is not a valid CSS selector: %w", ns.name, err)
		}
	}
	return nil
}

type namedSelector struct {
	name     string
	selector string
}

// named lists every CSS selector with its YAML key; phone_attribute is an attribute name and is left out
func (s Selectors) named() []namedSelector {
	return []namedSelector{
		{"entry_link", s.EntryLink},
		{"profile_ready", s.ProfileReady},
		{"name", s.Name},
		{"image", s.Image},
		{"specialty", s.Specialty},
		{"average_rating", s.AverageRating},
		{"phone", s.Phone},
		{"rating_count", s.RatingCount},
		{"map_link", s.MapLink},
		{"experience", s.Experience},
		{"biography", s.Biography},
		{"conditions", s.Conditions},
		{"procedures", s.Procedures},
		{"review", s.Review},
		{"review_rating", s.ReviewRating},
		{"review_comment", s.ReviewComment},
		{"review_date", s.ReviewDate},
		{"location", s.Location},
		{"location_name", s.LocationName},
		{"location_address", s.LocationAddr},
		{"location_phone", s.LocationPhone},
		{"credential_section", s.CredentialSection},
		{"credential_heading", s.CredentialHeading},
		{"credential_entry", s.CredentialEntry},
		{"license_text", s.LicenseText},
		{"license_status", s.LicenseStatus},
		{"certification_name", s.CertificationName},
		{"education_school", s.EducationSchool},
		{"education_year", s.EducationYear},
	}
}

// ListingURL returns the listing URL for the given page number
func (c *Config) ListingURL(page int) string {
	return strings.ReplaceAll(c.Listing.URLTemplate, PagePlaceholder, strconv.Itoa(page))
}
