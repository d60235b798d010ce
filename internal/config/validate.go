package config

import (
	"fmt"
	"path"
	"path/filepath"
	"strings"
)

// Validate checks a Watch configuration for semantic correctness.
func (w Watch) Validate() error {
	var errs []string

	if len(w.Patterns) == 0 {
		errs = append(errs, "at least one include pattern is required")
	}
	errs = append(errs, validatePatterns("patterns", w.Patterns)...)
	errs = append(errs, validatePatterns("ignore_patterns", w.IgnorePatterns)...)

	if strings.TrimSpace(w.BackupDir) == "" {
		errs = append(errs, "'backup_dir' is required")
	}

	switch {
	case strings.TrimSpace(w.LogFile) == "":
		errs = append(errs, "'log_file' is required")
	case w.LogFile == "." || w.LogFile == ".." || filepath.Base(w.LogFile) != w.LogFile || strings.ContainsAny(w.LogFile, `/\`):
		errs = append(errs, fmt.Sprintf("'log_file' must be a plain file name, got %q", w.LogFile))
	}

	if w.SettleDelay < 0 {
		errs = append(errs, fmt.Sprintf("'settle_delay' must not be negative, got %s", w.SettleDelay))
	}

	if len(errs) > 0 {
		return &ValidationError{Errors: errs}
	}
	return nil
}

func validatePatterns(field string, patterns []string) []string {
	var errs []string
	for i, p := range patterns {
		if strings.TrimSpace(p) == "" {
			errs = append(errs, fmt.Sprintf("%s[%d]: empty pattern", field, i))
			continue
		}
		if _, err := path.Match(p, ""); err != nil {
			errs = append(errs, fmt.Sprintf("%s[%d]: invalid pattern %q: %v", field, i, p, err))
		}
	}
	return errs
}
