package models

import "time"

// UnknownDataDate is used when the spreadsheet file name carries no YYYYMMDD token.
const UnknownDataDate = "알 수 없음"

// Snapshot is the full registered + cancelled dataset from one successful parse.
// It is never mutated after construction; a refresh replaces it wholesale.
type Snapshot struct {
	Registered []CompanyRecord `json:"registered"`
	Cancelled  []CompanyRecord `json:"cancelled"`
	DataDate   string          `json:"data_date"`
	FileName   string          `json:"file_name"`
	FetchedAt  time.Time       `json:"fetched_at"` // set by the cache when stored
}

// All returns registered records followed by cancelled ones in a new slice.
func (s *Snapshot) All() []CompanyRecord {
	all := make([]CompanyRecord, 0, len(s.Registered)+len(s.Cancelled))
	all = append(all, s.Registered...)
	return append(all, s.Cancelled...)
}
