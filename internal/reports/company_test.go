package reports

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"tallybridge/internal/gateway"
)

func TestParseActiveCompany(t *testing.T) {
	body := `<ENVELOPE><COMPANY NAME="Acme Traders"><STARTINGFROM>20250401</STARTINGFROM></COMPANY></ENVELOPE>`
	if got := ParseActiveCompany(body); got != "Acme Traders" {
		t.Errorf("ParseActiveCompany = %q, want Acme Traders", got)
	}
	// No company loaded answers an empty body
	if got := ParseActiveCompany("<ENVELOPE></ENVELOPE>"); got != "" {
		t.Errorf("ParseActiveCompany on empty response = %q, want empty", got)
	}
}

func TestOpenCompanyLineError(t *testing.T) {
	engine := &fakeEngine{body: "<ENVELOPE><LINEERROR>Could not load company Ghost Books</LINEERROR></ENVELOPE>"}

	err := NewService(engine).OpenCompany(context.Background(), "Ghost Books")
	if err == nil {
		t.Fatal("engine LINEERROR did not surface an error")
	}

	engine.body = "<ENVELOPE></ENVELOPE>"
	if err := NewService(engine).OpenCompany(context.Background(), "Acme Traders"); err != nil {
		t.Errorf("clean open failed: %v", err)
	}
	if !payloadContains(engine.lastPayload(), "<SVCURRENTCOMPANY>Acme Traders</SVCURRENTCOMPANY>") {
		t.Error("open request does not select the company")
	}
}

func TestListCompanies(t *testing.T) {
	dataDir := t.TempDir()

	writeBook := func(folder, marker string) {
		t.Helper()
		dir := filepath.Join(dataDir, folder)
		if err := os.MkdirAll(dir, 0755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(filepath.Join(dir, marker), []byte("x"), 0644); err != nil {
			t.Fatal(err)
		}
	}
	writeBook("10001", "Company.900")
	writeBook("20002", "cmpsave.tsf")
	// An empty folder is not a book
	if err := os.MkdirAll(filepath.Join(dataDir, "empty"), 0755); err != nil {
		t.Fatal(err)
	}

	cache := gateway.NewCompanyNameCache(dataDir)
	cache.Remember("10001", "Acme Traders")

	companies, err := ListCompanies(dataDir, cache)
	if err != nil {
		t.Fatalf("ListCompanies failed: %v", err)
	}
	if len(companies) != 2 {
		t.Fatalf("found %d companies, want 2", len(companies))
	}

	// Sorted by folder id
	if companies[0].ID != "10001" || companies[1].ID != "20002" {
		t.Errorf("order = %s, %s", companies[0].ID, companies[1].ID)
	}
	// Marker files identify the engine release case-insensitively
	if companies[0].TallyVersion != "Tally.ERP 9" {
		t.Errorf("version = %q, want Tally.ERP 9", companies[0].TallyVersion)
	}
	if companies[1].TallyVersion != "TallyPrime" {
		t.Errorf("version = %q, want TallyPrime", companies[1].TallyVersion)
	}
	// The cache supplies the display name for a loaded-before book
	if companies[0].Label() != "Acme Traders" {
		t.Errorf("label = %q, want cached display name", companies[0].Label())
	}
	if companies[1].Label() != "20002" {
		t.Errorf("label = %q, want folder id fallback", companies[1].Label())
	}
}

func TestListCompaniesMissingDir(t *testing.T) {
	if _, err := ListCompanies(filepath.Join(t.TempDir(), "absent"), nil); err == nil {
		t.Error("missing data directory did not surface an error")
	}
}
