package parser

import (
	"strings"

	"provider-scraper/config"
	"provider-scraper/fetcher"
	"provider-scraper/models"
)

// ProfileParser extracts a provider profile from a rendered detail page
type ProfileParser struct {
	sel         config.Selectors
	subsections *SubsectionParser
}

// NewProfileParser creates a new ProfileParser instance
func NewProfileParser(sel config.Selectors) *ProfileParser {
	return &ProfileParser{
		sel:         sel,
		subsections: NewSubsectionParser(sel),
	}
}

// Parse assembles one profile record from the page. Every field is read
// independently, so any subset may be empty; the record is always returned.
func (pp *ProfileParser) Parse(page fetcher.Element, profileURL string) models.ProfileRecord {
	record := models.NewProfileRecord(profileURL)

	record.Name = Text(page, pp.sel.Name)
	record.ImageURL = Attr(page, pp.sel.Image, "src")
	record.Profession = Text(page, pp.sel.Specialty)
	record.AverageRating = Text(page, pp.sel.AverageRating)
	record.Phone = Text(page, pp.sel.Phone)
	record.TotalRatings = ExtractCount(Text(page, pp.sel.RatingCount))
	record.GoogleMapsURL = Attr(page, pp.sel.MapLink, "href")
	record.Experience = Text(page, pp.sel.Experience)
	record.Biography = Text(page, pp.sel.Biography)

	record.ConditionsTreated = collectSet(page, pp.sel.Conditions)
	record.ProceduresPerformed = collectSet(page, pp.sel.Procedures)

	record.Credentials = pp.subsections.ParseCredentials(page)
	record.Locations = pp.parseLocations(page)
	record.Reviews = pp.subsections.ParseReviews(page)

	return record
}

// parseLocations reads every location block; blocks without a clinic name
// or address are left out
func (pp *ProfileParser) parseLocations(page fetcher.Element) []models.LocationRecord {
	locations := []models.LocationRecord{}
	for _, block := range All(page, pp.sel.Location) {
		clinic := Text(block, pp.sel.LocationName)
		address := Text(block, pp.sel.LocationAddr)

		full := strings.TrimSpace(clinic + " " + address)
		if full == "" {
			continue
		}

		locations = append(locations, models.LocationRecord{
			Address: full,
			Phone:   Attr(block, pp.sel.LocationPhone, pp.sel.PhoneAttribute),
		})
	}
	return locations
}

// collectSet returns the distinct non-empty texts of the matching elements
// in first-seen order
func collectSet(scope fetcher.Element, selector string) []string {
	values := []string{}
	seen := make(map[string]bool)
	for _, el := range All(scope, selector) {
		text := normalizeWhitespace(TextOf(el))
		if text == "" || seen[text] {
			continue
		}
		seen[text] = true
		values = append(values, text)
	}
	return values
}
