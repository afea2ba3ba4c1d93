package models

import "slices"

// BusinessType is one of the five licensed electronic-finance business categories.
type BusinessType string

const (
	BusinessTypePrepaid BusinessType = "선불"     // 선불전자지급수단 발행 및 관리
	BusinessTypeDebit   BusinessType = "직불"     // 직불전자지급수단 발행 및 관리
	BusinessTypePG      BusinessType = "PG"     // 전자지급결제대행
	BusinessTypeEscrow  BusinessType = "ESCROW" // 결제대금예치
	BusinessTypeEBPP    BusinessType = "EBPP"   // 전자고지결제

	// BusinessTypeAll is a filter value meaning "no restriction", not a member.
	BusinessTypeAll BusinessType = "전체"
)

// BusinessTypes lists the members in declaration order, which is also the
// left-to-right column order in the published spreadsheet.
var BusinessTypes = []BusinessType{
	BusinessTypePrepaid,
	BusinessTypeDebit,
	BusinessTypePG,
	BusinessTypeEscrow,
	BusinessTypeEBPP,
}

func (t BusinessType) IsValid() bool {
	return slices.Contains(BusinessTypes, t)
}

// ParseBusinessType accepts a member or the 전체 filter value.
func ParseBusinessType(s string) (BusinessType, bool) {
	t := BusinessType(s)
	return t, t == BusinessTypeAll || t.IsValid()
}

// Status of a record. Fixed when the row is parsed.
type Status string

const (
	StatusRegistered Status = "등록"
	StatusCancelled  Status = "말소"

	// StatusAll is a filter value meaning "no restriction".
	StatusAll Status = "전체"
)

// Statuses lists the accepted filter values.
var Statuses = []Status{StatusRegistered, StatusCancelled, StatusAll}

func ParseStatus(s string) (Status, bool) {
	st := Status(s)
	return st, slices.Contains(Statuses, st)
}

// CompanyRecord is one row of the registered or cancelled sheet.
type CompanyRecord struct {
	SequenceNumber int            `json:"sequence_number"`
	CompanyName    string         `json:"company_name"`
	BusinessTypes  []BusinessType `json:"business_types"`
	RegisteredDate string         `json:"registered_date"`
	CancelledDate  string         `json:"cancelled_date"`
	Status         Status         `json:"status"`
	Remark         string         `json:"remark"`
}

// Date returns whichever date field the record's status populates.
func (c CompanyRecord) Date() string {
	if c.Status == StatusCancelled {
		return c.CancelledDate
	}
	return c.RegisteredDate
}

func (c CompanyRecord) HasBusinessType(t BusinessType) bool {
	return slices.Contains(c.BusinessTypes, t)
}
