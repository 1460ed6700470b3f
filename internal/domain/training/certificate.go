package training

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/jung-kurt/gofpdf"

	"unihr/internal/domain/directory"
)

// GenerateCertificate renders a completion certificate PDF into dir and
// returns the file name stored as the application's certificate reference.
func GenerateCertificate(dir string, emp *directory.Employee, t *Training, completedAt time.Time) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create certificate dir: %w", err)
	}

	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 28)
	pdf.CellFormat(0, 40, "Certificate of Completion", "", 1, "C", false, 0, "")

	pdf.SetFont("Helvetica", "", 14)
	pdf.CellFormat(0, 10, "This certifies that", "", 1, "C", false, 0, "")

	pdf.SetFont("Helvetica", "B", 20)
	pdf.CellFormat(0, 14, fmt.Sprintf("%s %s", emp.FirstName, emp.LastName), "", 1, "C", false, 0, "")

	pdf.SetFont("Helvetica", "", 14)
	pdf.CellFormat(0, 10, "has completed the training", "", 1, "C", false, 0, "")

	pdf.SetFont("Helvetica", "B", 18)
	pdf.CellFormat(0, 14, t.Title, "", 1, "C", false, 0, "")

	pdf.SetFont("Helvetica", "", 12)
	pdf.CellFormat(0, 20, completedAt.Format("2 January 2006"), "", 1, "C", false, 0, "")

	name := uuid.NewString() + ".pdf"
	if err := pdf.OutputFileAndClose(filepath.Join(dir, name)); err != nil {
		return "", fmt.Errorf("write certificate: %w", err)
	}
	return name, nil
}
