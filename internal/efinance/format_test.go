package efinance_test

import (
	"fmt"
	"strings"

	"efb/internal/efinance"
	"efb/internal/models"
	"efb/internal/testhelpers"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func companies(n int) []models.CompanyRecord {
	out := make([]models.CompanyRecord, n)
	for i := range out {
		out[i] = testhelpers.NewCompany(func(c *models.CompanyRecord) {
			c.SequenceNumber = i + 1
			c.CompanyName = fmt.Sprintf("회사%03d", i+1)
		})
	}
	return out
}

func sampleSnapshot() *models.Snapshot {
	return testhelpers.NewSnapshot(func(s *models.Snapshot) {
		s.Registered = []models.CompanyRecord{
			testhelpers.NewCompany(func(c *models.CompanyRecord) {
				c.CompanyName = "카카오페이"
				c.BusinessTypes = []models.BusinessType{models.BusinessTypePrepaid, models.BusinessTypePG}
			}),
			testhelpers.NewCompany(func(c *models.CompanyRecord) {
				c.SequenceNumber = 2
				c.CompanyName = "네이버파이낸셜"
				c.BusinessTypes = []models.BusinessType{models.BusinessTypePrepaid, models.BusinessTypePG, models.BusinessTypeEscrow}
			}),
			testhelpers.NewCompany(func(c *models.CompanyRecord) {
				c.SequenceNumber = 3
				c.CompanyName = "Toss Payments"
				c.BusinessTypes = []models.BusinessType{models.BusinessTypePG}
			}),
		}
		s.Cancelled = []models.CompanyRecord{
			testhelpers.NewCompany(func(c *models.CompanyRecord) {
				c.CompanyName = "옛카카오결제"
				c.BusinessTypes = []models.BusinessType{models.BusinessTypeEBPP}
				c.RegisteredDate = ""
				c.CancelledDate = "2023-03-01"
				c.Status = models.StatusCancelled
			}),
		}
	})
}

var _ = Describe("FilterCompanies", func() {
	var s *models.Snapshot

	BeforeEach(func() {
		s = sampleSnapshot()
	})

	all := func(fn func(a *efinance.SearchArgs)) efinance.SearchArgs {
		a := efinance.SearchArgs{BusinessType: models.BusinessTypeAll, Status: models.StatusAll}
		if fn != nil {
			fn(&a)
		}
		return a
	}

	names := func(rs []models.CompanyRecord) []string {
		out := make([]string, len(rs))
		for i, r := range rs {
			out[i] = r.CompanyName
		}
		return out
	}

	It("returns registered then cancelled records with no filter", func() {
		Expect(names(efinance.FilterCompanies(s, all(nil)))).To(Equal(
			[]string{"카카오페이", "네이버파이낸셜", "Toss Payments", "옛카카오결제"},
		))
	})

	It("matches name substrings case-insensitively", func() {
		Expect(names(efinance.FilterCompanies(s, all(func(a *efinance.SearchArgs) { a.CompanyName = "카카오" })))).
			To(Equal([]string{"카카오페이", "옛카카오결제"}))
		Expect(names(efinance.FilterCompanies(s, all(func(a *efinance.SearchArgs) { a.CompanyName = "toss" })))).
			To(Equal([]string{"Toss Payments"}))
	})

	It("returns exactly the members of each business type", func() {
		for _, t := range models.BusinessTypes {
			got := efinance.FilterCompanies(s, all(func(a *efinance.SearchArgs) { a.BusinessType = t }))

			var want []string
			for _, c := range s.All() {
				if c.HasBusinessType(t) {
					want = append(want, c.CompanyName)
				}
			}
			Expect(names(got)).To(ConsistOf(want), string(t))
		}
	})

	It("filters by status", func() {
		Expect(efinance.FilterCompanies(s, all(func(a *efinance.SearchArgs) { a.Status = models.StatusRegistered }))).To(HaveLen(3))
		Expect(names(efinance.FilterCompanies(s, all(func(a *efinance.SearchArgs) { a.Status = models.StatusCancelled })))).
			To(Equal([]string{"옛카카오결제"}))
	})

	It("combines criteria", func() {
		got := efinance.FilterCompanies(s, all(func(a *efinance.SearchArgs) {
			a.CompanyName = "카카오"
			a.BusinessType = models.BusinessTypePG
			a.Status = models.StatusRegistered
		}))
		Expect(names(got)).To(Equal([]string{"카카오페이"}))
	})

	It("returns an empty slice when nothing matches", func() {
		got := efinance.FilterCompanies(s, all(func(a *efinance.SearchArgs) { a.CompanyName = "없는회사" }))
		Expect(got).NotTo(BeNil())
		Expect(got).To(BeEmpty())
	})
})

var _ = Describe("FormatSearchResult", func() {
	var s *models.Snapshot

	BeforeEach(func() {
		s = sampleSnapshot()
	})

	It("reports no matches", func() {
		out := efinance.FormatSearchResult(nil, s)
		Expect(out).To(ContainSubstring("기준일: 2024-06-01 | 검색 결과: 0건"))
		Expect(out).To(HaveSuffix("검색 조건에 맞는 업체가 없습니다."))
	})

	It("lists each match with its details", func() {
		out := efinance.FormatSearchResult(s.All(), s)
		Expect(out).To(HavePrefix("## 전자금융업 등록/말소 현황 검색 결과\n"))
		Expect(out).To(ContainSubstring("검색 결과: 4건"))
		Expect(out).To(ContainSubstring("[1] 카카오페이\n    상태: 등록\n    업종: 선불, PG\n    등록일: 2024-01-01"))
		Expect(out).To(ContainSubstring("[4] 옛카카오결제\n    상태: 말소\n    업종: EBPP\n    말소일: 2023-03-01"))
		Expect(out).NotTo(ContainSubstring("외"))
	})

	It("prints a dash for records without business types", func() {
		c := testhelpers.NewCompany(func(c *models.CompanyRecord) { c.BusinessTypes = nil })
		Expect(efinance.FormatSearchResult([]models.CompanyRecord{c}, s)).To(ContainSubstring("업종: -"))
	})

	It("lists exactly 50 matches without a trailer", func() {
		out := efinance.FormatSearchResult(companies(50), s)
		Expect(out).To(ContainSubstring("[50] 회사050"))
		Expect(out).NotTo(ContainSubstring("외"))
	})

	It("truncates after 50 matches", func() {
		out := efinance.FormatSearchResult(companies(51), s)
		Expect(out).To(ContainSubstring("검색 결과: 51건"))
		Expect(out).To(ContainSubstring("[50] 회사050"))
		Expect(out).NotTo(ContainSubstring("[51]"))
		Expect(out).To(HaveSuffix("... 외 1건 (검색 조건을 좁혀주세요)"))

		out = efinance.FormatSearchResult(companies(60), s)
		Expect(out).To(HaveSuffix("... 외 10건 (검색 조건을 좁혀주세요)"))
		Expect(strings.Count(out, "\n[")).To(Equal(50))
	})
})

var _ = Describe("Statistics", func() {
	It("counts companies and type memberships", func() {
		st := efinance.ComputeStatistics(sampleSnapshot())

		Expect(st.DataDate).To(Equal("2024-06-01"))
		Expect(st.RegisteredCompanies).To(Equal(3))
		Expect(st.CancelledCompanies).To(Equal(1))
		Expect(st.RegisteredTypeTotal).To(Equal(6))
		Expect(st.CancelledTypeTotal).To(Equal(1))
		Expect(st.ByType).To(Equal([]efinance.TypeCount{
			{BusinessType: models.BusinessTypePrepaid, Registered: 2},
			{BusinessType: models.BusinessTypeDebit},
			{BusinessType: models.BusinessTypePG, Registered: 3},
			{BusinessType: models.BusinessTypeEscrow, Registered: 1},
			{BusinessType: models.BusinessTypeEBPP, Cancelled: 1},
		}))
	})

	It("sums per-type counts to the type totals", func() {
		st := efinance.ComputeStatistics(sampleSnapshot())

		reg, can := 0, 0
		for _, row := range st.ByType {
			reg += row.Registered
			can += row.Cancelled
		}
		Expect(reg).To(Equal(st.RegisteredTypeTotal))
		Expect(can).To(Equal(st.CancelledTypeTotal))
	})

	It("renders a markdown table", func() {
		out := efinance.FormatStatistics(efinance.ComputeStatistics(sampleSnapshot()))

		Expect(out).To(HavePrefix("## 전자금융업 등록/말소 현황 통계\n기준일: 2024-06-01\n"))
		Expect(out).To(ContainSubstring("- 등록: 3개사 (6개 업종)"))
		Expect(out).To(ContainSubstring("- 말소/취소: 1개사 (1개 업종)"))
		Expect(out).To(ContainSubstring("| 업종 | 등록 | 말소 |\n|------|------|------|\n"))
		Expect(out).To(ContainSubstring("| 선불 | 2건 | 0건 |"))
		Expect(out).To(ContainSubstring("| 직불 | 0건 | 0건 |"))
		Expect(out).To(ContainSubstring("| PG | 3건 | 0건 |"))
		Expect(out).To(ContainSubstring("| EBPP | 0건 | 1건 |"))
	})

	It("handles an empty snapshot", func() {
		out := efinance.FormatStatistics(efinance.ComputeStatistics(testhelpers.NewSnapshot(nil)))
		Expect(out).To(ContainSubstring("- 등록: 0개사 (0개 업종)"))
	})
})
