package common

import (
	"fmt"
	"slices"
)

// ValidateOutputFormat rejects formats outside the configured set. An
// empty set means any format is accepted.
func ValidateOutputFormat(format string, supportedFormats []string) error {
	if len(supportedFormats) == 0 || slices.Contains(supportedFormats, format) {
		return nil
	}
	return fmt.Errorf("unsupported output format '%s'. Supported formats: %v",
		format, supportedFormats)
}

// GetSupportedFormats exposes the configured format list for help text.
func GetSupportedFormats(supportedFormats []string) []string {
	return supportedFormats
}
