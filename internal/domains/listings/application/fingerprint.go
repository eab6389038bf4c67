package application

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"

	"github.com/Apurer/pet-portal/internal/domains/listings/application/form"
	"github.com/Apurer/pet-portal/internal/domains/listings/domain"
)

type fileFingerprint struct {
	Name        string `json:"name"`
	ContentType string `json:"content_type"`
	Digest      string `json:"digest"`
}

// FingerprintSubmission hashes the draft and the selected files so a reused
// idempotency key can be told apart from a retry of the same submission.
func FingerprintSubmission(submission form.Submission) (string, error) {
	payload := struct {
		Mode       form.Mode         `json:"mode"`
		Draft      domain.Listing    `json:"draft"`
		MainImage  *fileFingerprint  `json:"main_image,omitempty"`
		Additional []fileFingerprint `json:"additional"`
	}{
		Mode:       submission.Mode,
		Draft:      submission.Draft.Normalized(),
		Additional: make([]fileFingerprint, 0, len(submission.AdditionalImages)),
	}
	if submission.MainImage != nil {
		fp := fingerprintFile(*submission.MainImage)
		payload.MainImage = &fp
	}
	for _, file := range submission.AdditionalImages {
		payload.Additional = append(payload.Additional, fingerprintFile(file))
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:]), nil
}

func fingerprintFile(file domain.ImageFile) fileFingerprint {
	sum := sha256.Sum256(file.Data)
	return fileFingerprint{
		Name:        file.Name,
		ContentType: file.DeclaredContentType(),
		Digest:      hex.EncodeToString(sum[:]),
	}
}
