package utils

import (
	"strings"
	"testing"
)

func TestGenerateStoredFilename(t *testing.T) {
	name := GenerateStoredFilename("TNA Report.PDF")
	if !strings.HasSuffix(name, ".pdf") {
		t.Fatalf("extension must be kept lowercase, got %s", name)
	}
	if name == GenerateStoredFilename("TNA Report.PDF") {
		t.Fatal("stored filenames must not collide")
	}
}

func TestAllowedDocumentExt(t *testing.T) {
	allowed := []string{"report.pdf", "report.DOCX", "scan.jpeg", "table.xlsx"}
	for _, f := range allowed {
		if !AllowedDocumentExt(f) {
			t.Errorf("%s should be allowed", f)
		}
	}

	denied := []string{"script.sh", "archive.zip", "binary.exe", "noext"}
	for _, f := range denied {
		if AllowedDocumentExt(f) {
			t.Errorf("%s should be denied", f)
		}
	}
}
