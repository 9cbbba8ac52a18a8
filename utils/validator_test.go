package utils

import "testing"

func TestValidateEmail(t *testing.T) {
	valid := []string{"psto.palawan@region4b.dost.gov.ph", "juan.dela-cruz@example.com"}
	for _, e := range valid {
		if !ValidateEmail(e) {
			t.Errorf("%s should be valid", e)
		}
	}

	invalid := []string{"", "not-an-email", "user@", "@host.com", "user@host"}
	for _, e := range invalid {
		if ValidateEmail(e) {
			t.Errorf("%s should be invalid", e)
		}
	}
}

func TestValidatePassword(t *testing.T) {
	if ok, msg := ValidatePassword("short"); ok || msg == "" {
		t.Fatal("short password must be rejected with a message")
	}
	if ok, _ := ValidatePassword("longenough"); !ok {
		t.Fatal("8+ character password must be accepted")
	}
}

func TestSanitizeInput(t *testing.T) {
	got := SanitizeInput("  user@example.com\x00 ")
	if got != "user@example.com" {
		t.Fatalf("expected trimmed input without null bytes, got %q", got)
	}
}
