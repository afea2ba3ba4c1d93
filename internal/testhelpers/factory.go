package testhelpers

import (
	"time"

	"efb/internal/models"
)

// NewCompany returns a registered PG company; fn may adjust any field.
func NewCompany(fn func(c *models.CompanyRecord)) models.CompanyRecord {
	c := models.CompanyRecord{
		SequenceNumber: 1,
		CompanyName:    "테스트업체",
		BusinessTypes:  []models.BusinessType{models.BusinessTypePG},
		RegisteredDate: "2024-01-01",
		Status:         models.StatusRegistered,
	}
	if fn != nil {
		fn(&c)
	}
	return c
}

// NewSnapshot returns an empty snapshot dated 2024-06-01; fn may adjust it.
func NewSnapshot(fn func(s *models.Snapshot)) *models.Snapshot {
	s := &models.Snapshot{
		DataDate:  "2024-06-01",
		FileName:  "전자금융업_등록현황_20240601.xlsx",
		FetchedAt: time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
	}
	if fn != nil {
		fn(s)
	}
	return s
}
