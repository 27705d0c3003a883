package common

import (
	"strings"
	"testing"
)

func TestValidateOutputFormat(t *testing.T) {
	configured := []string{"json", "text", "markdown"}

	tests := []struct {
		name        string
		format      string
		supported   []string
		expectError bool
	}{
		{name: "json accepted", format: "json", supported: configured},
		{name: "text accepted", format: "text", supported: configured},
		{name: "markdown accepted", format: "markdown", supported: configured},
		{name: "xml rejected", format: "xml", supported: configured, expectError: true},
		{name: "yaml rejected", format: "yaml", supported: configured, expectError: true},
		{name: "matching is case sensitive", format: "JSON", supported: configured, expectError: true},
		{name: "empty format rejected", format: "", supported: configured, expectError: true},
		{name: "no restrictions accepts anything", format: "csv", supported: nil},
		{name: "no restrictions accepts empty", format: "", supported: []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateOutputFormat(tt.format, tt.supported)
			if tt.expectError {
				if err == nil {
					t.Fatalf("ValidateOutputFormat(%q) expected error, got nil", tt.format)
				}
				if !strings.Contains(err.Error(), tt.format) {
					t.Errorf("error %q should name the rejected format %q", err.Error(), tt.format)
				}
				return
			}
			if err != nil {
				t.Fatalf("ValidateOutputFormat(%q) unexpected error: %v", tt.format, err)
			}
		})
	}
}

func TestGetSupportedFormats(t *testing.T) {
	configured := []string{"json", "text"}
	got := GetSupportedFormats(configured)
	if len(got) != 2 || got[0] != "json" || got[1] != "text" {
		t.Errorf("GetSupportedFormats returned %v, want %v", got, configured)
	}

	if got := GetSupportedFormats(nil); got != nil {
		t.Errorf("GetSupportedFormats(nil) = %v, want nil", got)
	}
}

func BenchmarkValidateOutputFormat(b *testing.B) {
	configured := []string{"json", "text", "markdown"}
	for b.Loop() {
		_ = ValidateOutputFormat("markdown", configured)
	}
}
