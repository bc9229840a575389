package export

import (
	"bytes"
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"provider-scraper/models"
)

func TestRow(t *testing.T) {
	got := Row(sampleResult()[0])
	want := []string{
		"Dr. Maria Gonzalez, MD",
		"Dermatology",
		"(404) 555-0100",
		"21 Years Experience",
		"4.5",
		"87",
		"Treats <skin> & hair",
		"https://doctor.test/doctor/maria",
		"https://img.test/maria.jpg?w=200&h=200",
		"Acne, Eczema",
		"Biopsy",
		"Emory University (2001); Grady",
		"American Board of Dermatology",
		"FL ME12345 (Active); GA 556677",
		"Peachtree Dermatology 100 Main St ((404) 555-0101); 200 Oak Ave ()",
		"https://maps.test/?q=100+Main",
		"2",
		"Very thorough. | Long wait.",
	}

	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Row() mismatch (-want +got):\n%s", diff)
	}
	if len(got) != len(Header) {
		t.Errorf("Row() has %d columns, header has %d", len(got), len(Header))
	}
}

func TestRow_EmptyRecord(t *testing.T) {
	got := Row(models.NewProfileRecord("https://doctor.test/doctor/empty"))

	for i, value := range got {
		switch Header[i] {
		case "Profile Link":
			if value != "https://doctor.test/doctor/empty" {
				t.Errorf("Profile Link = %q", value)
			}
		case "Total Ratings", "Total Reviews":
			if value != "0" {
				t.Errorf("%s = %q, want 0", Header[i], value)
			}
		default:
			if value != "" {
				t.Errorf("%s = %q, want empty", Header[i], value)
			}
		}
	}
}

func TestWithQualifier(t *testing.T) {
	tests := []struct {
		main      string
		qualifier string
		expected  string
	}{
		{"Emory University", "2001", "Emory University (2001)"},
		{"Emory University", "", "Emory University"},
		{"", "2008", "(2008)"},
		{"", "", ""},
	}

	for _, tt := range tests {
		if got := withQualifier(tt.main, tt.qualifier); got != tt.expected {
			t.Errorf("withQualifier(%q, %q) = %q, want %q", tt.main, tt.qualifier, got, tt.expected)
		}
	}
}

func TestSaveCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "doctors.csv")
	if err := SaveCSV(path, sampleResult()); err != nil {
		t.Fatalf("SaveCSV() error = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read CSV: %v", err)
	}
	records, err := csv.NewReader(bytes.NewReader(data)).ReadAll()
	if err != nil {
		t.Fatalf("Failed to parse CSV: %v", err)
	}

	if len(records) != 3 {
		t.Fatalf("CSV has %d rows, want header plus 2", len(records))
	}
	if diff := cmp.Diff(Header, records[0]); diff != "" {
		t.Errorf("CSV header mismatch (-want +got):\n%s", diff)
	}
	if records[1][0] != "Dr. Maria Gonzalez, MD" || records[2][7] != "https://doctor.test/doctor/empty" {
		t.Errorf("CSV rows out of order: %v", records[1:])
	}
}

func TestWriteCSV_HeaderOnly(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, models.AggregateResult{}); err != nil {
		t.Fatalf("WriteCSV() error = %v", err)
	}

	records, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("Failed to parse CSV: %v", err)
	}
	if len(records) != 1 {
		t.Errorf("CSV has %d rows, want only the header", len(records))
	}
}
