package parser

import (
	"strings"

	"provider-scraper/config"
	"provider-scraper/fetcher"
	"provider-scraper/models"
)

// bucket identifies the credential list a sub-section feeds
type bucket int

const (
	bucketUnrecognized bucket = iota
	bucketLicense
	bucketCertification
	bucketEducation
)

// headingBuckets maps normalized heading labels to their output bucket.
// The first label contained in the heading wins.
var headingBuckets = []struct {
	label  string
	bucket bucket
}{
	{"medical license", bucketLicense},
	{"board certifications", bucketCertification},
	{"certifications", bucketCertification},
	{"education & training", bucketEducation},
}

// classifyHeading routes a sub-section heading to its bucket (case-insensitive substring match)
func classifyHeading(heading string) bucket {
	normalized := strings.ToLower(normalizeWhitespace(heading))
	if normalized == "" {
		return bucketUnrecognized
	}
	for _, hb := range headingBuckets {
		if strings.Contains(normalized, hb.label) {
			return hb.bucket
		}
	}
	return bucketUnrecognized
}

// SubsectionParser parses heading-keyed credential groups and flat review groups
type SubsectionParser struct {
	sel config.Selectors
}

// NewSubsectionParser creates a new SubsectionParser instance
func NewSubsectionParser(sel config.Selectors) *SubsectionParser {
	return &SubsectionParser{sel: sel}
}

// ParseCredentials walks every credential sub-section under scope and
// accumulates its entries into the bucket its heading selects
func (sp *SubsectionParser) ParseCredentials(scope fetcher.Element) models.CredentialBlock {
	block := models.CredentialBlock{
		Licenses:       []models.License{},
		Certifications: []string{},
		Education:      []models.Education{},
	}

	for _, section := range All(scope, sp.sel.CredentialSection) {
		b := classifyHeading(Text(section, sp.sel.CredentialHeading))
		if b == bucketUnrecognized {
			continue
		}

		for _, entry := range All(section, sp.sel.CredentialEntry) {
			switch b {
			case bucketLicense:
				if license, ok := sp.parseLicense(entry); ok {
					block.Licenses = append(block.Licenses, license)
				}
			case bucketCertification:
				if name := sp.textOrSelf(entry, sp.sel.CertificationName); name != "" {
					block.Certifications = append(block.Certifications, name)
				}
			case bucketEducation:
				edu := models.Education{
					School: Text(entry, sp.sel.EducationSchool),
					Year:   Text(entry, sp.sel.EducationYear),
				}
				if edu.School != "" || edu.Year != "" {
					block.Education = append(block.Education, edu)
				}
			}
		}
	}

	return block
}

// parseLicense reads a license entry; the status is removed from the license text
func (sp *SubsectionParser) parseLicense(entry fetcher.Element) (models.License, bool) {
	status := Text(entry, sp.sel.LicenseStatus)
	text := sp.textOrSelf(entry, sp.sel.LicenseText)
	license := models.License{
		License: stripStatus(text, status),
		Status:  status,
	}
	return license, license.License != "" || license.Status != ""
}

// textOrSelf reads the selector under entry, falling back to the entry's own text
func (sp *SubsectionParser) textOrSelf(entry fetcher.Element, selector string) string {
	if text := Text(entry, selector); text != "" {
		return normalizeWhitespace(text)
	}
	return normalizeWhitespace(TextOf(entry))
}

const statusSeparators = " \t-–—,;:|·•/"

// stripStatus removes the first case-insensitive occurrence of status from
// text, along with the separator punctuation around it
func stripStatus(text, status string) string {
	text = strings.TrimSpace(text)
	if status == "" {
		return text
	}

	idx := indexFold(text, status)
	if idx < 0 {
		return text
	}

	before := strings.TrimRight(text[:idx], statusSeparators+"(")
	after := strings.TrimLeft(text[idx+len(status):], statusSeparators+")")

	switch {
	case before == "":
		return strings.TrimSpace(after)
	case after == "":
		return strings.TrimSpace(before)
	default:
		return strings.TrimSpace(before) + " " + strings.TrimSpace(after)
	}
}

// indexFold is a case-insensitive strings.Index
func indexFold(s, substr string) int {
	for i := 0; i+len(substr) <= len(s); i++ {
		if strings.EqualFold(s[i:i+len(substr)], substr) {
			return i
		}
	}
	return -1
}

// ParseReviews reads every review block under scope. Blocks are never
// filtered, so an all-empty block still yields a record.
func (sp *SubsectionParser) ParseReviews(scope fetcher.Element) []models.ReviewRecord {
	reviews := []models.ReviewRecord{}
	for _, block := range All(scope, sp.sel.Review) {
		reviews = append(reviews, models.ReviewRecord{
			Rating:  Attr(block, sp.sel.ReviewRating, "aria-valuenow"),
			Comment: Text(block, sp.sel.ReviewComment),
			Date:    Text(block, sp.sel.ReviewDate),
		})
	}
	return reviews
}
