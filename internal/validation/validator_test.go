package validation

import (
	"strings"
	"testing"
)

func TestValidateMessage(t *testing.T) {
	v := NewValidator(500)

	tests := []struct {
		name      string
		input     string
		want      string
		wantError bool
	}{
		{"plain", "Great recipe", "Great recipe", false},
		{"trimmed", "  \n Great recipe \t", "Great recipe", false},
		{"empty", "", "", true},
		{"whitespace only", "   \n\t ", "", true},
		{"at limit", strings.Repeat("a", 500), strings.Repeat("a", 500), false},
		{"over limit", strings.Repeat("a", 501), strings.Repeat("a", 501), true},
		{"limit counted after trim", "  " + strings.Repeat("a", 500) + "  ", strings.Repeat("a", 500), false},
		{"multibyte at limit", strings.Repeat("é", 500), strings.Repeat("é", 500), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, errs := v.ValidateMessage(tt.input)
			if got != tt.want {
				t.Errorf("Expected %q, got %q", tt.want, got)
			}
			if (len(errs) > 0) != tt.wantError {
				t.Errorf("Expected error=%v, got %v", tt.wantError, errs)
			}
		})
	}
}

func TestNewValidator_DefaultBound(t *testing.T) {
	v := NewValidator(0)
	if v.MaxMessageLength() != 500 {
		t.Errorf("Expected default 500, got %d", v.MaxMessageLength())
	}
}

func TestValidateVoteValue(t *testing.T) {
	v := NewValidator(500)
	for _, value := range []int{-1, 0, 1} {
		value := value
		if errs := v.ValidateVoteValue(&value); len(errs) != 0 {
			t.Errorf("value %d should be valid, got %v", value, errs)
		}
	}
	for _, value := range []int{-2, 2, 5} {
		value := value
		if errs := v.ValidateVoteValue(&value); len(errs) == 0 {
			t.Errorf("value %d should be invalid", value)
		}
	}
	if errs := v.ValidateVoteValue(nil); len(errs) == 0 {
		t.Error("missing value should be invalid")
	}
}

func TestValidateParentID(t *testing.T) {
	v := NewValidator(500)
	zero, ok := int64(0), int64(3)
	if errs := v.ValidateParentID(&zero); len(errs) == 0 {
		t.Error("zero parent id should be invalid")
	}
	if errs := v.ValidateParentID(&ok); len(errs) != 0 {
		t.Errorf("parent 3 should be valid, got %v", errs)
	}
	if errs := v.ValidateParentID(nil); len(errs) != 0 {
		t.Error("absent parent is valid")
	}
}

func TestParseID(t *testing.T) {
	if id, err := ParseID("42", "id"); err != nil || id != 42 {
		t.Errorf("Expected 42, got %d (%v)", id, err)
	}
	for _, raw := range []string{"", "abc", "-1", "0", "1.5", "12abc"} {
		if _, err := ParseID(raw, "id"); err == nil {
			t.Errorf("Expected error for %q", raw)
		}
	}
}
