package config

import (
	"fmt"
	"net/mail"
	"net/url"

	"github.com/modoterra/bugreport/pkg/core"
)

// Validate checks the config for structural correctness.
func Validate(c *Config) []error {
	var errs []error

	if c.Version != 1 {
		errs = append(errs, fmt.Errorf("version must be 1, got %d", c.Version))
	}

	// App
	if c.App.Name == "" {
		errs = append(errs, fmt.Errorf("app.name is required"))
	}
	if c.App.IssuesURL == "" && c.App.ReportEmail == "" {
		errs = append(errs, fmt.Errorf("app: issues_url or report_email is required"))
	}
	if c.App.IssuesURL != "" {
		u, err := url.Parse(c.App.IssuesURL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			errs = append(errs, fmt.Errorf("app.issues_url must be an http or https URL; got %q", c.App.IssuesURL))
		}
	}
	if c.App.ReportEmail != "" {
		if _, err := mail.ParseAddress(c.App.ReportEmail); err != nil {
			errs = append(errs, fmt.Errorf("app.report_email: %w", err))
		}
	}

	// Buffer
	if c.Buffer.Capacity < 0 {
		errs = append(errs, fmt.Errorf("buffer.capacity must not be negative, got %d", c.Buffer.Capacity))
	}
	if c.Buffer.MinLevel != "" {
		if _, err := core.ParseLevel(c.Buffer.MinLevel); err != nil {
			errs = append(errs, fmt.Errorf("buffer.min_level: %w", err))
		}
	}

	// Report
	seen := make(map[string]bool, len(c.Report.EscapeKeys))
	for i, k := range c.Report.EscapeKeys {
		if k == "" {
			errs = append(errs, fmt.Errorf("report.escape_keys[%d] is empty", i))
			continue
		}
		if seen[k] {
			errs = append(errs, fmt.Errorf("report.escape_keys: duplicate key %q", k))
		}
		seen[k] = true
	}

	return errs
}
