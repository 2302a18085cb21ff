package errors

import (
	"strings"
	"testing"
)

func TestValidateTypeName(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"simple", "PERSON", false},
		{"underscore", "PHONE_CALL", false},
		{"lowercase", "vehicle", false},
		{"with space", "BANK ACCOUNT", false},

		{"empty", "", true},
		{"blank", "   ", true},
		{"too long", strings.Repeat("A", 300), true},
		{"control char", "PER\x01SON", true},
		{"semicolon", "PERSON;PHONE", true},
		{"equals", "CALL=2", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateTypeName(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateTypeName(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if err != nil && !Is(err, ErrCodeInvalidType) {
				t.Errorf("ValidateTypeName(%q) returned wrong error code: %v", tt.input, err)
			}
		})
	}
}

func TestValidatePath(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"valid simple", "nodes.csv", false},
		{"valid nested", "data/case-17/edges.csv", false},
		{"valid absolute", "/var/lib/mmgreduce/nodes.csv", false},
		{"valid relative parent", "../shared/weights.csv", false},

		{"empty", "", true},
		{"too long", strings.Repeat("a", 5000), true},
		{"null byte", "foo\x00bar", true},
		{"control char", "foo\x01bar", true},
		{"newline", "foo\nbar", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePath(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidatePath(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if err != nil && !Is(err, ErrCodeInvalidPath) {
				t.Errorf("ValidatePath(%q) returned wrong error code: %v", tt.input, err)
			}
		})
	}
}

func TestValidateRedisAddr(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"localhost", "localhost:6379", false},
		{"ip", "10.0.0.5:6380", false},

		{"empty", "", true},
		{"no port", "localhost", true},
		{"empty port", "localhost:", true},
		{"empty host", ":6379", true},
		{"named port", "localhost:redis", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateRedisAddr(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateRedisAddr(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}

func TestErrorCodesAreUnique(t *testing.T) {
	codes := []Code{
		ErrCodeInvalidInput,
		ErrCodeInvalidWeight,
		ErrCodeInvalidType,
		ErrCodeInvalidRing,
		ErrCodeInvalidConfig,
		ErrCodeInvalidPath,
		ErrCodeDuplicateID,
		ErrCodeUnknownNode,
		ErrCodeUnknownWeightID,
		ErrCodeNotFound,
		ErrCodeFileNotFound,
		ErrCodePathLimit,
		ErrCodeCancelled,
		ErrCodeInternal,
		ErrCodeUnsupported,
	}

	seen := make(map[Code]bool)
	for _, code := range codes {
		if seen[code] {
			t.Errorf("Duplicate error code: %s", code)
		}
		seen[code] = true
	}
}
