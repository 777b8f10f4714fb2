package domain

import (
	"fmt"
	"strings"
	"time"
)

type DocumentStatus string

const (
	DocumentPending   DocumentStatus = "PENDING"
	DocumentValidated DocumentStatus = "VALIDATED"
	DocumentRejected  DocumentStatus = "REJECTED"
)

func ParseDocumentStatus(s string) (DocumentStatus, error) {
	switch st := DocumentStatus(strings.ToUpper(strings.TrimSpace(s))); st {
	case DocumentPending, DocumentValidated, DocumentRejected:
		return st, nil
	default:
		return "", fmt.Errorf("unknown document status %q", s)
	}
}

// Document is written by the upload and verification collaborators. The
// escrow engine only reads it.
type Document struct {
	ID         string
	OrderID    string
	UploadedBy string
	ContentID  string
	Type       string
	Status     DocumentStatus
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// MissingValidatedDocuments returns the required document types that have no
// VALIDATED document attached.
func MissingValidatedDocuments(docs []*Document, required []string) []string {
	validated := make(map[string]bool, len(docs))
	for _, d := range docs {
		if d != nil && d.Status == DocumentValidated {
			validated[d.Type] = true
		}
	}
	var missing []string
	for _, t := range required {
		if !validated[t] {
			missing = append(missing, t)
		}
	}
	return missing
}
