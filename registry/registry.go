// Package registry loads the input shop registry consumed by the batch
// runner. The registry is a JSON document with a shops array and an
// optional options block; unknown fields are ignored.
package registry

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/tnpds-watch/shopcrawl/models"
)

// Options is the registry's run-level configuration block. A missing block
// uses the documented defaults.
type Options struct {
	IncludeDetails bool `json:"include_details"`
	Headless       bool `json:"headless"`
}

// Registry is the parsed input document.
type Registry struct {
	Shops   []models.ShopQuery
	Options Options
}

type rawRegistry struct {
	Shops   []json.RawMessage `json:"shops"`
	Options *rawOptions       `json:"options"`
}

type rawOptions struct {
	IncludeDetails *bool `json:"include_details"`
	Headless       *bool `json:"headless"`
}

// Load reads and parses a registry file.
func Load(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read registry: %w", err)
	}
	return Parse(data)
}

// Parse decodes registry JSON. Shop entries may be objects with id, district
// and taluk, or bare id strings in the legacy format.
func Parse(data []byte) (*Registry, error) {
	var raw rawRegistry
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse registry: %w", err)
	}
	if len(raw.Shops) == 0 {
		return nil, fmt.Errorf("registry contains no shops")
	}

	reg := &Registry{
		Shops: make([]models.ShopQuery, 0, len(raw.Shops)),
		Options: Options{
			IncludeDetails: true,
			Headless:       true,
		},
	}

	for i, entry := range raw.Shops {
		query, err := parseShop(entry)
		if err != nil {
			return nil, fmt.Errorf("shop entry %d: %w", i, err)
		}
		reg.Shops = append(reg.Shops, query)
	}

	if raw.Options != nil {
		if raw.Options.IncludeDetails != nil {
			reg.Options.IncludeDetails = *raw.Options.IncludeDetails
		}
		if raw.Options.Headless != nil {
			reg.Options.Headless = *raw.Options.Headless
		}
	}

	return reg, nil
}

func parseShop(entry json.RawMessage) (models.ShopQuery, error) {
	// Legacy format: a bare shop id string.
	var id string
	if err := json.Unmarshal(entry, &id); err == nil {
		if strings.TrimSpace(id) == "" {
			return models.ShopQuery{}, fmt.Errorf("shop id cannot be empty")
		}
		return models.ShopQuery{ID: strings.TrimSpace(id)}, nil
	}

	var query models.ShopQuery
	if err := json.Unmarshal(entry, &query); err != nil {
		return models.ShopQuery{}, fmt.Errorf("must be an id string or an object: %w", err)
	}
	if strings.TrimSpace(query.ID) == "" {
		return models.ShopQuery{}, fmt.Errorf("id is required")
	}
	query.ID = strings.TrimSpace(query.ID)
	query.District = strings.TrimSpace(query.District)
	query.Taluk = strings.TrimSpace(query.Taluk)
	return query, nil
}
