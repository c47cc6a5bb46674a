package services

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/happyroy1004/ocs-patient-alert-sub000/internal/domain/entities"
)

// Summarizer counts patients per department and half-day.
type Summarizer struct {
	boundary int // minutes after midnight; earlier times are morning
}

// NewSummarizer creates a summarizer splitting the day at boundary
// ("HH:MM").
func NewSummarizer(boundary string) (*Summarizer, error) {
	minutes, ok := parseClock(boundary)
	if !ok {
		return nil, fmt.Errorf("invalid afternoon boundary %q", boundary)
	}
	return &Summarizer{boundary: minutes}, nil
}

// Summarize counts rows of the summary departments by their 예약시간 value.
// Rows whose time is missing or unparseable are not counted. Every summary
// department is present in the result, possibly with zero counts.
func (s *Summarizer) Summarize(sheets []entities.StandardizedSheet) entities.AnalysisResult {
	result := make(entities.AnalysisResult, len(entities.SummaryDepartments))
	for _, d := range entities.SummaryDepartments {
		result[d] = entities.SlotCount{}
	}

	for _, sheet := range sheets {
		counts, ok := result[sheet.Department]
		if !ok {
			continue
		}
		for _, row := range sheet.Rows {
			minutes, ok := parseClock(row.Get(entities.ColumnReserveTime))
			if !ok {
				continue
			}
			if minutes < s.boundary {
				counts.Morning++
			} else {
				counts.Afternoon++
			}
		}
		result[sheet.Department] = counts
	}
	return result
}

// parseClock reads HH:MM, HH:MM:SS or HHMM and returns minutes after
// midnight.
func parseClock(value string) (int, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, false
	}

	var hh, mm string
	if strings.Contains(value, ":") {
		parts := strings.Split(value, ":")
		if len(parts) < 2 || len(parts) > 3 {
			return 0, false
		}
		hh, mm = parts[0], parts[1]
		if len(parts) == 3 {
			if _, err := strconv.Atoi(parts[2]); err != nil {
				return 0, false
			}
		}
	} else {
		if len(value) != 4 {
			return 0, false
		}
		hh, mm = value[:2], value[2:]
	}

	h, err := strconv.Atoi(hh)
	if err != nil || h < 0 || h > 23 {
		return 0, false
	}
	m, err := strconv.Atoi(mm)
	if err != nil || len(mm) != 2 || m < 0 || m > 59 {
		return 0, false
	}
	return h*60 + m, true
}
