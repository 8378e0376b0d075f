package models

import (
	"fmt"
	"strings"
	"time"
)

// DocketSource tracks where a docket's data originated
type DocketSource string

const (
	DocketSourceRECAP DocketSource = "recap"
	DocketSourceIDB   DocketSource = "idb"
	DocketSourceMerge DocketSource = "recap_and_idb"
)

// Docket is the platform's persisted record for a case.
// Field order matches schema: id, court_id, docket_number, docket_number_core, ...
type Docket struct {
	ID               int64        `json:"id" db:"id"`
	CourtID          string       `json:"court_id" db:"court_id"`
	DocketNumber     string       `json:"docket_number" db:"docket_number"` // As filed, e.g. "1:17-cv-00101"
	DocketNumberCore string       `json:"docket_number_core" db:"docket_number_core"`
	CaseName         string       `json:"case_name" db:"case_name"`
	PacerCaseID      *string      `json:"pacer_case_id,omitempty" db:"pacer_case_id"`
	IDBDataID        *int64       `json:"idb_data_id,omitempty" db:"idb_data_id"`
	Source           DocketSource `json:"source" db:"source"`
	DateFiled        *time.Time   `json:"date_filed,omitempty" db:"date_filed"`
	CreatedAt        time.Time    `json:"created_at" db:"created_at"`
	UpdatedAt        time.Time    `json:"updated_at" db:"updated_at"`
}

func (d *Docket) String() string {
	return fmt.Sprintf("Docket %d (%s %s: %s)", d.ID, d.CourtID, d.DocketNumber, d.CaseName)
}

// caseNameExclusions mark dockets that must never be merged with IDB rows:
// sealed or suppressed matter, and search warrant dockets.
var caseNameExclusions = []string{"sealed", "suppressed", "search warrant"}

// criminalDocketMarker appears in criminal docket numbers ("1:17-cr-00101").
// The IDB civil datasets must never merge into criminal dockets.
const criminalDocketMarker = "cr"

// ExcludedFromMerge reports whether a docket is out of bounds for IDB
// reconciliation. The repository applies the same predicate in SQL; this is
// the shared definition, also applied by the driver on fetched candidates.
func (d *Docket) ExcludedFromMerge() bool {
	name := strings.ToLower(d.CaseName)
	for _, term := range caseNameExclusions {
		if strings.Contains(name, term) {
			return true
		}
	}
	return strings.Contains(strings.ToLower(d.DocketNumber), criminalDocketMarker)
}

// CaseNameExclusionTerms returns the case-name substrings that disqualify a
// docket from merging, for use in repository queries.
func CaseNameExclusionTerms() []string {
	out := make([]string, len(caseNameExclusions))
	copy(out, caseNameExclusions)
	return out
}

// CriminalDocketMarker returns the docket-number substring that marks a
// criminal case, for use in repository queries.
func CriminalDocketMarker() string {
	return criminalDocketMarker
}
