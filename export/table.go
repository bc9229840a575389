package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"provider-scraper/models"
)

// Header is the fixed column set of the tabular view
var Header = []string{
	"Doctor Name",
	"Profession",
	"Phone number",
	"Experience",
	"Average Rating",
	"Total Ratings",
	"Biography",
	"Profile Link",
	"Profile Image",
	"Conditions Treated",
	"Procedures Performed",
	"Education & Training",
	"Certifications",
	"Medical License",
	"Locations",
	"Google Maps",
	"Total Reviews",
	"Sample Review",
}

const (
	listSep   = ", "
	recordSep = "; "
	reviewSep = " | "
)

// Row flattens one profile into the tabular column order
func Row(p models.ProfileRecord) []string {
	return []string{
		p.Name,
		p.Profession,
		p.Phone,
		p.Experience,
		p.AverageRating,
		strconv.Itoa(p.TotalRatings),
		p.Biography,
		p.ProfileURL,
		p.ImageURL,
		strings.Join(p.ConditionsTreated, listSep),
		strings.Join(p.ProceduresPerformed, listSep),
		joinEducation(p.Credentials.Education),
		strings.Join(p.Credentials.Certifications, listSep),
		joinLicenses(p.Credentials.Licenses),
		joinLocations(p.Locations),
		p.GoogleMapsURL,
		strconv.Itoa(len(p.Reviews)),
		joinReviews(p.Reviews),
	}
}

// Rows returns the header followed by one row per profile
func Rows(result models.AggregateResult) [][]string {
	rows := make([][]string, 0, len(result)+1)
	rows = append(rows, Header)
	for _, p := range result {
		rows = append(rows, Row(p))
	}
	return rows
}

// WriteCSV writes the tabular view as CSV
func WriteCSV(w io.Writer, result models.AggregateResult) error {
	cw := csv.NewWriter(w)
	if err := cw.WriteAll(Rows(result)); err != nil {
		return fmt.Errorf("failed to write CSV: %w", err)
	}
	return nil
}

// SaveCSV writes the tabular view to path
func SaveCSV(path string, result models.AggregateResult) error {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, result); err != nil {
		return err
	}
	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

func joinLocations(locations []models.LocationRecord) string {
	parts := make([]string, 0, len(locations))
	for _, loc := range locations {
		parts = append(parts, fmt.Sprintf("%s (%s)", loc.Address, loc.Phone))
	}
	return strings.Join(parts, recordSep)
}

func joinLicenses(licenses []models.License) string {
	parts := make([]string, 0, len(licenses))
	for _, l := range licenses {
		parts = append(parts, withQualifier(l.License, l.Status))
	}
	return strings.Join(parts, recordSep)
}

func joinEducation(education []models.Education) string {
	parts := make([]string, 0, len(education))
	for _, e := range education {
		parts = append(parts, withQualifier(e.School, e.Year))
	}
	return strings.Join(parts, recordSep)
}

func joinReviews(reviews []models.ReviewRecord) string {
	parts := make([]string, 0, len(reviews))
	for _, r := range reviews {
		parts = append(parts, r.Comment)
	}
	return strings.Join(parts, reviewSep)
}

// withQualifier renders "main (qualifier)", dropping the parenthetical when qualifier is empty
func withQualifier(main, qualifier string) string {
	if qualifier == "" {
		return main
	}
	if main == "" {
		return "(" + qualifier + ")"
	}
	return main + " (" + qualifier + ")"
}
