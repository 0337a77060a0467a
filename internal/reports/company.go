package reports

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"tallybridge/internal/gateway"
	"tallybridge/internal/models"
	bridgeerrors "tallybridge/pkg/errors"
)

// BuildActiveCompanyRequest composes the lightweight status probe asking
// the engine which company is currently loaded
func BuildActiveCompanyRequest() string {
	return NewEnvelope("Active Company").
		Add(Collection{
			Name:  "Active Company",
			Type:  "Company",
			Fetch: []string{"NAME", "STARTINGFROM"},
		}).
		Build()
}

// ParseActiveCompany extracts the loaded company's name from a status probe
// response; empty means no company is loaded
func ParseActiveCompany(body string) string {
	rec := gateway.FirstRecord(body, tagCompany)
	if rec == nil {
		return ""
	}
	return recordName(rec)
}

// ActiveCompany asks the engine which company is loaded. The dispatcher
// caches this answer briefly; callers go through the dispatcher.
func (s *Service) ActiveCompany(ctx context.Context) (string, error) {
	body, err := s.fetch(ctx, BuildActiveCompanyRequest())
	if err != nil {
		return "", err
	}
	return ParseActiveCompany(body), nil
}

// BuildOpenCompanyRequest composes the control request that loads a company
// into the engine
func BuildOpenCompanyRequest(name string) string {
	var b strings.Builder
	b.WriteString("<ENVELOPE>")
	b.WriteString("<HEADER>")
	b.WriteString("<VERSION>1</VERSION>")
	b.WriteString("<TALLYREQUEST>Import</TALLYREQUEST>")
	b.WriteString("<TYPE>Data</TYPE>")
	b.WriteString("<ID>Load Company</ID>")
	b.WriteString("</HEADER>")
	b.WriteString("<BODY><DESC><STATICVARIABLES>")
	b.WriteString("<SVCURRENTCOMPANY>" + gateway.EscapeXML(name) + "</SVCURRENTCOMPANY>")
	b.WriteString("</STATICVARIABLES></DESC></BODY>")
	b.WriteString("</ENVELOPE>")
	return b.String()
}

// OpenCompany asks the engine to load the named company. The engine answers
// a LINEERROR record when the book cannot be loaded.
func (s *Service) OpenCompany(ctx context.Context, name string) error {
	body, err := s.fetch(ctx, BuildOpenCompanyRequest(name))
	if err != nil {
		return err
	}

	if rec := gateway.FirstRecord(body, "LINEERROR"); rec != nil {
		return bridgeerrors.ParseError(bridgeerrors.CodeInvalidResponse,
			"company", strings.TrimSpace(rec.Inner), nil)
	}
	return nil
}

// versionMarkers maps a marker file found inside a company folder to the
// engine release that writes it
var versionMarkers = map[string]string{
	"cmpsave.900":  "Tally.ERP 9",
	"company.900":  "Tally.ERP 9",
	"transmgr.900": "Tally.ERP 9",
	"cmpsave.tsf":  "TallyPrime",
	"company.tsf":  "TallyPrime",
}

// ListCompanies enumerates the accounting books in the engine's data
// directory. The engine only reveals display names for books it has loaded;
// the persisted name cache fills in what it has discovered so far.
func ListCompanies(dataDir string, cache *gateway.CompanyNameCache) ([]models.Company, error) {
	entries, err := os.ReadDir(dataDir)
	if err != nil {
		return nil, bridgeerrors.ConfigurationError(
			bridgeerrors.CodeInvalidConfig, "data_dir", dataDir, err)
	}

	var companies []models.Company
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		folder := filepath.Join(dataDir, entry.Name())
		company := models.Company{ID: entry.Name(), TallyVersion: "unknown"}

		files, err := os.ReadDir(folder)
		if err != nil {
			continue
		}
		var totalBytes int64
		for _, f := range files {
			if f.IsDir() {
				continue
			}
			company.FileCount++
			if info, err := f.Info(); err == nil {
				totalBytes += info.Size()
			}
			if version, ok := versionMarkers[strings.ToLower(f.Name())]; ok {
				company.TallyVersion = version
			}
		}
		// Folders with no data files are not books
		if company.FileCount == 0 {
			continue
		}
		company.SizeMB = float64(totalBytes) / (1024 * 1024)

		if cache != nil {
			if name, ok := cache.Lookup(company.ID); ok {
				company.DisplayName = name
			}
		}
		companies = append(companies, company)
	}

	sort.Slice(companies, func(i, j int) bool {
		return companies[i].ID < companies[j].ID
	})
	return companies, nil
}
