package efinance

import (
	"strings"

	"efb/internal/models"
)

// FilterCompanies returns the registered then cancelled records matching every
// set criterion. An empty name and the 전체 values do not filter.
func FilterCompanies(s *models.Snapshot, args SearchArgs) []models.CompanyRecord {
	keyword := strings.ToLower(args.CompanyName)

	out := make([]models.CompanyRecord, 0)
	for _, c := range s.All() {
		if keyword != "" && !strings.Contains(strings.ToLower(c.CompanyName), keyword) {
			continue
		}
		if args.BusinessType != "" && args.BusinessType != models.BusinessTypeAll && !c.HasBusinessType(args.BusinessType) {
			continue
		}
		if args.Status != "" && args.Status != models.StatusAll && c.Status != args.Status {
			continue
		}
		out = append(out, c)
	}
	return out
}
