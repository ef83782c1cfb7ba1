package errors

import (
	"strings"
	"testing"
)

func TestValidateTemplateName(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"empty allowed", "", false},
		{"simple", "Modern Invoice", false},
		{"unicode", "Facture été", false},
		{"control char", "bad\x07name", true},
		{"newline", "two\nlines", true},
		{"too long", strings.Repeat("a", MaxTemplateNameLength+1), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateTemplateName(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateTemplateName(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}

func TestValidateStorageKey(t *testing.T) {
	tests := []struct {
		key     string
		wantErr bool
	}{
		{"invoice_templates", false},
		{"tell-invoice.v4", false},
		{"", true},
		{"../etc/passwd", true},
		{"a/b", true},
		{`a\b`, true},
		{".hidden", true},
		{"sp ace", true},
		{strings.Repeat("k", 65), true},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			err := ValidateStorageKey(tt.key)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateStorageKey(%q) error = %v, wantErr %v", tt.key, err, tt.wantErr)
			}
			if err != nil && !Is(err, ErrCodeInvalidKey) {
				t.Errorf("expected INVALID_KEY, got %v", GetCode(err))
			}
		})
	}
}

func TestValidateURL(t *testing.T) {
	if err := ValidateURL("mongodb://localhost:27017", "mongodb", "mongodb+srv"); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if err := ValidateURL("mongodb+srv://cluster.example", "mongodb", "mongodb+srv"); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if err := ValidateURL("http://localhost", "mongodb"); err == nil {
		t.Error("expected scheme error")
	}
	if err := ValidateURL("", "mongodb"); err == nil {
		t.Error("expected empty error")
	}
}
