package efinance

import (
	"fmt"
	"strings"

	"efb/internal/models"
)

// MaxDisplay caps the number of records listed in a search report.
const MaxDisplay = 50

// FormatSearchResult renders matches as the text report returned by search.
func FormatSearchResult(matches []models.CompanyRecord, s *models.Snapshot) string {
	var b strings.Builder
	b.WriteString("## 전자금융업 등록/말소 현황 검색 결과\n")
	fmt.Fprintf(&b, "기준일: %s | 검색 결과: %d건\n", s.DataDate, len(matches))

	if len(matches) == 0 {
		b.WriteString("\n검색 조건에 맞는 업체가 없습니다.")
		return b.String()
	}

	for i, c := range matches[:min(len(matches), MaxDisplay)] {
		fmt.Fprintf(&b, "\n[%d] %s", i+1, c.CompanyName)
		fmt.Fprintf(&b, "\n    상태: %s", c.Status)
		fmt.Fprintf(&b, "\n    업종: %s", typeList(c.BusinessTypes))
		if c.RegisteredDate != "" {
			fmt.Fprintf(&b, "\n    등록일: %s", c.RegisteredDate)
		}
		if c.CancelledDate != "" {
			fmt.Fprintf(&b, "\n    말소일: %s", c.CancelledDate)
		}
	}

	if len(matches) > MaxDisplay {
		fmt.Fprintf(&b, "\n\n... 외 %d건 (검색 조건을 좁혀주세요)", len(matches)-MaxDisplay)
	}

	return b.String()
}

func typeList(types []models.BusinessType) string {
	if len(types) == 0 {
		return "-"
	}
	return join(types)
}

// TypeCount is one row of the per-business-type table.
type TypeCount struct {
	BusinessType models.BusinessType `json:"business_type"`
	Registered   int                 `json:"registered"`
	Cancelled    int                 `json:"cancelled"`
}

type Statistics struct {
	DataDate            string      `json:"data_date"`
	RegisteredCompanies int         `json:"registered_companies"`
	CancelledCompanies  int         `json:"cancelled_companies"`
	RegisteredTypeTotal int         `json:"registered_type_total"`
	CancelledTypeTotal  int         `json:"cancelled_type_total"`
	ByType              []TypeCount `json:"by_type"`
}

// ComputeStatistics counts companies per status and type memberships per
// business type. A company with N types adds to N rows.
func ComputeStatistics(s *models.Snapshot) Statistics {
	st := Statistics{
		DataDate:            s.DataDate,
		RegisteredCompanies: len(s.Registered),
		CancelledCompanies:  len(s.Cancelled),
		ByType:              make([]TypeCount, len(models.BusinessTypes)),
	}

	index := make(map[models.BusinessType]int, len(models.BusinessTypes))
	for i, t := range models.BusinessTypes {
		st.ByType[i].BusinessType = t
		index[t] = i
	}

	for _, c := range s.Registered {
		for _, t := range c.BusinessTypes {
			if i, ok := index[t]; ok {
				st.ByType[i].Registered++
				st.RegisteredTypeTotal++
			}
		}
	}
	for _, c := range s.Cancelled {
		for _, t := range c.BusinessTypes {
			if i, ok := index[t]; ok {
				st.ByType[i].Cancelled++
				st.CancelledTypeTotal++
			}
		}
	}

	return st
}

// FormatStatistics renders st as a markdown summary with a per-type table.
func FormatStatistics(st Statistics) string {
	var b strings.Builder
	b.WriteString("## 전자금융업 등록/말소 현황 통계\n")
	fmt.Fprintf(&b, "기준일: %s\n\n", st.DataDate)

	b.WriteString("### 전체 현황\n")
	fmt.Fprintf(&b, "- 등록: %d개사 (%d개 업종)\n", st.RegisteredCompanies, st.RegisteredTypeTotal)
	fmt.Fprintf(&b, "- 말소/취소: %d개사 (%d개 업종)\n\n", st.CancelledCompanies, st.CancelledTypeTotal)

	b.WriteString("### 업종별 현황\n")
	b.WriteString("| 업종 | 등록 | 말소 |\n")
	b.WriteString("|------|------|------|\n")
	for _, row := range st.ByType {
		fmt.Fprintf(&b, "| %s | %d건 | %d건 |\n", row.BusinessType, row.Registered, row.Cancelled)
	}

	return b.String()
}
