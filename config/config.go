package config

import (
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/tnpds-watch/shopcrawl/models"
)

// Config holds crawler configuration. It is read once at run start and
// immutable for the run's duration.
type Config struct {
	PortalURL  string
	ReportPath string

	RegistryFile string
	OutputFile   string
	OutputFormat string // json, csv, or dual
	ArtifactsDir string

	Headless       bool
	IncludeDetails bool

	NavigationTimeout time.Duration
	DialogTimeout     time.Duration
	PollInterval      time.Duration

	MaxAttempts int
	RetryPause  time.Duration
	RunDeadline time.Duration // 0 means no global deadline

	// StatusVocabulary maps lowercased indicator tokens to a status.
	// Unmatched text classifies as unknown.
	StatusVocabulary map[string]models.Status

	UserAgent   string
	MetricsAddr string
	Verbose     bool
}

// DefaultConfig returns conservative defaults for the TN PDS portal.
func DefaultConfig() *Config {
	return &Config{
		PortalURL:         "https://www.tnpds.gov.in",
		ReportPath:        "/pages/reports/pds-report-state.xhtml",
		RegistryFile:      "shops.json",
		OutputFile:        "output/shop_status.json",
		OutputFormat:      "json",
		ArtifactsDir:      "output/failures",
		Headless:          true,
		IncludeDetails:    true,
		NavigationTimeout: 20 * time.Second,
		DialogTimeout:     15 * time.Second,
		PollInterval:      250 * time.Millisecond,
		MaxAttempts:       3,
		RetryPause:        2 * time.Second,
		RunDeadline:       0,
		StatusVocabulary:  DefaultVocabulary(),
		UserAgent:         "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/117.0.0.0 Safari/537.36",
		MetricsAddr:       "",
		Verbose:           false,
	}
}

// DefaultVocabulary covers the tokens the portal is known to render.
func DefaultVocabulary() map[string]models.Status {
	return map[string]models.Status{
		"online":  models.StatusOnline,
		"offline": models.StatusOffline,
	}
}

// SearchURL is the absolute URL of the shop-search page.
func (c *Config) SearchURL() string {
	return strings.TrimSuffix(c.PortalURL, "/") + c.ReportPath
}

// Validate ensures all configuration values are coherent.
func (c *Config) Validate() error {
	parsed, err := url.Parse(c.PortalURL)
	if err != nil {
		return fmt.Errorf("invalid portal URL: %w", err)
	}
	if parsed.Host == "" {
		return fmt.Errorf("portal URL must include a host")
	}
	if !strings.HasPrefix(c.ReportPath, "/") {
		return fmt.Errorf("report path must start with /")
	}
	if c.RegistryFile == "" {
		return fmt.Errorf("registry file cannot be empty")
	}
	if c.OutputFile == "" {
		return fmt.Errorf("output file cannot be empty")
	}
	if c.OutputFormat != "json" && c.OutputFormat != "csv" && c.OutputFormat != "dual" {
		return fmt.Errorf("output format must be json, csv, or dual")
	}
	if c.NavigationTimeout <= 0 {
		return fmt.Errorf("navigation timeout must be positive")
	}
	if c.DialogTimeout <= 0 {
		return fmt.Errorf("dialog timeout must be positive")
	}
	if c.PollInterval <= 0 {
		return fmt.Errorf("poll interval must be positive")
	}
	if c.MaxAttempts < 1 {
		return fmt.Errorf("max attempts must be at least 1")
	}
	if c.RetryPause < 0 {
		return fmt.Errorf("retry pause cannot be negative")
	}
	if c.RunDeadline < 0 {
		return fmt.Errorf("run deadline cannot be negative")
	}
	if len(c.StatusVocabulary) == 0 {
		return fmt.Errorf("status vocabulary cannot be empty")
	}
	for token, status := range c.StatusVocabulary {
		if strings.TrimSpace(token) == "" {
			return fmt.Errorf("status vocabulary contains an empty token")
		}
		switch status {
		case models.StatusOnline, models.StatusOffline, models.StatusUnknown:
		default:
			return fmt.Errorf("status vocabulary maps %q to invalid status %q", token, status)
		}
	}
	if c.UserAgent == "" {
		return fmt.Errorf("user agent cannot be empty")
	}
	return nil
}

// LoadVocabulary reads a token-to-status mapping from a JSON file. The
// portal's indicator wording shifts between deployments, so the vocabulary
// is an updatable table rather than a hardcoded list.
func LoadVocabulary(path string) (map[string]models.Status, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read vocabulary file: %w", err)
	}

	var raw map[string]string
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse vocabulary file: %w", err)
	}

	vocab := make(map[string]models.Status, len(raw))
	for token, status := range raw {
		vocab[strings.ToLower(strings.TrimSpace(token))] = models.Status(strings.ToLower(status))
	}
	return vocab, nil
}
