package gateway

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"tallybridge/pkg/logger"
)

// CompanyNameCache persists the folder-id to discovered-display-name mapping
// across engine restarts. The engine only reveals a company's display name
// once that book has been loaded; this cache keeps the names usable while
// the book is closed. It is a best-effort cache colocated with the engine's
// data directory: absence or corruption never fails a request.
type CompanyNameCache struct {
	path  string
	log   logger.Logger
	names map[string]string
}

// NewCompanyNameCache creates a cache backed by the given file and loads
// any existing entries
func NewCompanyNameCache(dataDir string) *CompanyNameCache {
	c := &CompanyNameCache{
		path:  filepath.Join(dataDir, "company_names.json"),
		log:   logger.GetGlobalLogger().WithComponent("companycache"),
		names: make(map[string]string),
	}
	c.load()
	return c
}

func (c *CompanyNameCache) load() {
	data, err := os.ReadFile(c.path)
	if err != nil {
		return
	}

	var names map[string]string
	if err := json.Unmarshal(data, &names); err != nil {
		c.log.WithError(err).Warn("discarding corrupt company name cache")
		return
	}
	c.names = names
}

func (c *CompanyNameCache) save() {
	if dir := filepath.Dir(c.path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			c.log.WithError(err).Warn("could not create cache directory")
			return
		}
	}

	data, err := json.MarshalIndent(c.names, "", "  ")
	if err != nil {
		return
	}
	if err := os.WriteFile(c.path, data, 0644); err != nil {
		c.log.WithError(err).Warn("could not persist company name cache")
	}
}

// Lookup returns the cached display name for a folder id
func (c *CompanyNameCache) Lookup(folderID string) (string, bool) {
	name, ok := c.names[folderID]
	return name, ok
}

// Remember records a discovered display name and persists the cache
func (c *CompanyNameCache) Remember(folderID, displayName string) {
	if folderID == "" || displayName == "" {
		return
	}
	if existing, ok := c.names[folderID]; ok && existing == displayName {
		return
	}
	c.names[folderID] = displayName
	c.save()
}

// Len returns the number of cached names
func (c *CompanyNameCache) Len() int {
	return len(c.names)
}

// String returns a short description of the cache
func (c *CompanyNameCache) String() string {
	return fmt.Sprintf("CompanyNameCache{path: %s, entries: %d}", c.path, len(c.names))
}
