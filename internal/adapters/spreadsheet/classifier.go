package spreadsheet

import (
	"bytes"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/happyroy1004/ocs-patient-alert-sub000/internal/domain/providers"
)

// cfbSignature opens every OLE compound file. Password-protected xlsx
// workbooks are wrapped in one, whereas plain xlsx files are zip archives.
var cfbSignature = []byte{0xD0, 0xCF, 0x11, 0xE0, 0xA1, 0xB1, 0x1A, 0xE1}

var (
	digitRun       = regexp.MustCompile(`\d+`)
	periodKeywords = []string{"주간", "월간", "weekly", "monthly", "week", "month"}
)

// NameClassifier classifies uploads by file name and content signature.
type NameClassifier struct{}

// NewNameClassifier creates a new file classifier
func NewNameClassifier() providers.FileClassifier {
	return &NameClassifier{}
}

// IsDailySchedule reports whether the file name carries exactly one
// calendar date (MMDD, YYMMDD or YYYYMMDD) and no period keyword such as
// 주간 or weekly. Range names like "0501-0507" are not daily.
func (c *NameClassifier) IsDailySchedule(fileName string) bool {
	base := strings.ToLower(strings.TrimSuffix(filepath.Base(fileName), filepath.Ext(fileName)))

	for _, kw := range periodKeywords {
		if strings.Contains(base, kw) {
			return false
		}
	}

	dates := 0
	for _, run := range digitRun.FindAllString(base, -1) {
		if isDateToken(run) {
			dates++
		}
	}
	return dates == 1
}

// IsEncrypted reports whether data is an OLE container rather than a zip.
func (c *NameClassifier) IsEncrypted(data []byte) bool {
	return bytes.HasPrefix(data, cfbSignature)
}

func isDateToken(s string) bool {
	var layout string
	switch len(s) {
	case 4:
		layout = "0102"
	case 6:
		layout = "060102"
	case 8:
		layout = "20060102"
	default:
		return false
	}
	_, err := time.Parse(layout, s)
	return err == nil
}
