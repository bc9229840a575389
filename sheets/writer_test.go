package sheets

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"provider-scraper/models"

	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

func TestExtractSpreadsheetID(t *testing.T) {
	tests := []struct {
		name     string
		url      string
		expected string
	}{
		{"edit url", "https://docs.google.com/spreadsheets/d/abc123/edit", "abc123"},
		{"sharing url", "https://docs.google.com/spreadsheets/d/abc123/edit?usp=sharing", "abc123"},
		{"anchor", "https://docs.google.com/spreadsheets/d/abc123#gid=0", "abc123"},
		{"bare id", " abc123 ", "abc123"},
		{"unrelated url", "https://example.com/sheet", ""},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExtractSpreadsheetID(tt.url); got != tt.expected {
				t.Errorf("ExtractSpreadsheetID(%q) = %q, want %q", tt.url, got, tt.expected)
			}
		})
	}
}

func TestSanitizeSheetName(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"plain", "Doctors 2026-10-14", "Doctors 2026-10-14"},
		{"invalid chars", "a/b\\c?d*e[f]g'h", "a_b_c_d_e_f_g_h"},
		{"spaces only", "   ", "Sheet1"},
		{"too long", strings.Repeat("x", 150), strings.Repeat("x", 100)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := sanitizeSheetName(tt.input); got != tt.expected {
				t.Errorf("sanitizeSheetName(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestSheetValues(t *testing.T) {
	result := models.AggregateResult{models.NewProfileRecord("https://doctor.test/doctor/a")}

	values := sheetValues(result, "https://directory.test/providers")
	if len(values) != 3 {
		t.Fatalf("sheetValues() returned %d rows, want metadata, header and one profile", len(values))
	}
	if values[0][1] != "https://directory.test/providers" {
		t.Errorf("metadata row = %v", values[0])
	}
	if values[1][0] != "Doctor Name" {
		t.Errorf("header row = %v", values[1])
	}
	if values[2][7] != "https://doctor.test/doctor/a" {
		t.Errorf("profile row = %v", values[2])
	}

	if got := sheetValues(result, ""); len(got) != 2 {
		t.Errorf("sheetValues() without source URL returned %d rows, want 2", len(got))
	}
}

func TestReadCredentials(t *testing.T) {
	dir := t.TempDir()
	valid := filepath.Join(dir, "sa.json")
	if err := os.WriteFile(valid, []byte(`{"type": "service_account"}`), 0600); err != nil {
		t.Fatal(err)
	}
	user := filepath.Join(dir, "user.json")
	if err := os.WriteFile(user, []byte(`{"type": "authorized_user"}`), 0600); err != nil {
		t.Fatal(err)
	}
	broken := filepath.Join(dir, "broken.json")
	if err := os.WriteFile(broken, []byte(`{type`), 0600); err != nil {
		t.Fatal(err)
	}

	if _, err := readCredentials(valid); err != nil {
		t.Errorf("readCredentials(valid) error = %v", err)
	}
	for _, path := range []string{user, broken, filepath.Join(dir, "missing.json")} {
		if _, err := readCredentials(path); err == nil {
			t.Errorf("readCredentials(%s) expected error, got nil", filepath.Base(path))
		}
	}

	t.Setenv("GOOGLE_SHEETS_CREDENTIALS", "  ")
	if _, err := readCredentials(""); err == nil {
		t.Error("readCredentials() with blank env expected error, got nil")
	}
	t.Setenv("GOOGLE_SHEETS_CREDENTIALS", `{"type": "service_account"}`)
	if _, err := readCredentials(""); err != nil {
		t.Errorf("readCredentials() from env error = %v", err)
	}
}

// fakeSheetsAPI serves the Sheets v4 endpoints a Writer calls and records them
type fakeSheetsAPI struct {
	requests []string
	bodies   []string
}

func (f *fakeSheetsAPI) handler(t *testing.T) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		if err != nil {
			t.Errorf("Failed to read request body: %v", err)
		}
		f.requests = append(f.requests, r.Method+" "+r.URL.Path)
		f.bodies = append(f.bodies, string(body))

		w.Header().Set("Content-Type", "application/json")
		if strings.HasSuffix(r.URL.Path, ":batchUpdate") {
			io.WriteString(w, `{"replies": [{"addSheet": {"properties": {"sheetId": 42, "title": "Profiles"}}}]}`)
			return
		}
		io.WriteString(w, `{}`)
	}
}

func newTestWriter(t *testing.T, api *fakeSheetsAPI) *Writer {
	t.Helper()
	srv := httptest.NewServer(api.handler(t))
	t.Cleanup(srv.Close)

	service, err := sheets.NewService(context.Background(),
		option.WithEndpoint(srv.URL+"/"),
		option.WithoutAuthentication(),
		option.WithHTTPClient(srv.Client()),
	)
	if err != nil {
		t.Fatalf("Failed to create sheets service: %v", err)
	}
	return &Writer{service: service, spreadsheetID: "sheet123"}
}

func TestWriter_WriteProfilesOverwrite(t *testing.T) {
	api := &fakeSheetsAPI{}
	writer := newTestWriter(t, api)
	result := models.AggregateResult{models.NewProfileRecord("https://doctor.test/doctor/a")}

	if err := writer.WriteProfiles(context.Background(), result, true); err != nil {
		t.Fatalf("WriteProfiles() error = %v", err)
	}

	if len(api.requests) != 2 {
		t.Fatalf("WriteProfiles() made requests %v, want clear then update", api.requests)
	}
	if !strings.HasPrefix(api.requests[0], "POST ") || !strings.HasSuffix(api.requests[0], ":clear") {
		t.Errorf("first request = %q, want a values clear", api.requests[0])
	}
	if !strings.HasPrefix(api.requests[1], "PUT /v4/spreadsheets/sheet123/values/") {
		t.Errorf("second request = %q, want a values update", api.requests[1])
	}
	if !strings.Contains(api.bodies[1], "Doctor Name") || !strings.Contains(api.bodies[1], "https://doctor.test/doctor/a") {
		t.Errorf("update body = %s, want header and profile row", api.bodies[1])
	}
}

func TestWriter_WriteProfilesEmptyResult(t *testing.T) {
	api := &fakeSheetsAPI{}
	writer := newTestWriter(t, api)

	if err := writer.WriteProfiles(context.Background(), models.AggregateResult{}, true); err != nil {
		t.Fatalf("WriteProfiles() error = %v", err)
	}
	if len(api.requests) != 0 {
		t.Errorf("WriteProfiles() with no profiles made requests %v", api.requests)
	}
}

func TestWriter_CreateSheetAndWriteProfiles(t *testing.T) {
	api := &fakeSheetsAPI{}
	writer := newTestWriter(t, api)
	result := models.AggregateResult{models.NewProfileRecord("https://doctor.test/doctor/a")}

	name, id, err := writer.CreateSheetAndWriteProfiles(context.Background(), "Profiles/2026", result, "https://directory.test/providers")
	if err != nil {
		t.Fatalf("CreateSheetAndWriteProfiles() error = %v", err)
	}
	if name != "Profiles_2026" || id != 42 {
		t.Errorf("CreateSheetAndWriteProfiles() = (%q, %d), want (Profiles_2026, 42)", name, id)
	}

	if len(api.requests) != 2 || !strings.HasSuffix(api.requests[0], ":batchUpdate") {
		t.Fatalf("CreateSheetAndWriteProfiles() made requests %v, want batchUpdate then update", api.requests)
	}
	if !strings.Contains(api.bodies[0], `"title":"Profiles_2026"`) {
		t.Errorf("batchUpdate body = %s, want the sanitized title", api.bodies[0])
	}
	if !strings.Contains(api.bodies[1], "https://directory.test/providers") {
		t.Errorf("update body = %s, want the metadata row", api.bodies[1])
	}
}
