package providers

import (
	"context"

	"github.com/happyroy1004/ocs-patient-alert-sub000/internal/domain/entities"
)

// SpreadsheetLoader turns an uploaded file into sheets.
type SpreadsheetLoader interface {
	Load(ctx context.Context, fileName string, data []byte) (*entities.Workbook, error)
}

// FileClassifier inspects uploaded files.
type FileClassifier interface {
	// IsDailySchedule reports whether a file name denotes a one-day schedule.
	IsDailySchedule(fileName string) bool

	// IsEncrypted reports whether the content is a password-protected workbook.
	IsEncrypted(data []byte) bool
}

// Decryptor removes workbook password protection.
type Decryptor interface {
	Decrypt(data []byte, password string) ([]byte, error)
}
