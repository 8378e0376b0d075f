package models

import (
	"fmt"
	"time"
)

// IDBDatasetSource identifies which bulk export an IDB row came from
type IDBDatasetSource string

const (
	IDBDatasetCivil2017 IDBDatasetSource = "cv_2017" // Civil dataset, 2017 export
	IDBDatasetCivil2020 IDBDatasetSource = "cv_2020" // Civil dataset, 2020 export
)

// IDBRecord is one row of the Integrated Database, the bulk federal-court
// reference dataset we reconcile dockets against. Rows are loaded once per
// dataset export and never mutated by the reconciliation pipeline.
// Field order matches schema: id, dataset_source, circuit, district, office, ...
type IDBRecord struct {
	ID            int64            `json:"id" db:"id"`
	DatasetSource IDBDatasetSource `json:"dataset_source" db:"dataset_source"`
	Circuit       string           `json:"circuit" db:"circuit"`
	District      string           `json:"district" db:"district"` // Court identifier, e.g. "nysd"
	Office        string           `json:"office" db:"office"`
	DocketNumber  string           `json:"docket_number" db:"docket_number"` // As filed, e.g. "1:17-cv-00101"
	Plaintiff     string           `json:"plaintiff" db:"plaintiff"`
	Defendant     string           `json:"defendant" db:"defendant"`
	NatureOfSuit  *int             `json:"nature_of_suit,omitempty" db:"nature_of_suit"`
	DateFiled     *time.Time       `json:"date_filed,omitempty" db:"date_filed"`
	DateTerminated *time.Time      `json:"date_terminated,omitempty" db:"date_terminated"`
	CreatedAt     time.Time        `json:"created_at" db:"created_at"`
}

// CaseName returns the two-party caption for the row
func (r *IDBRecord) CaseName() string {
	return fmt.Sprintf("%s v. %s", r.Plaintiff, r.Defendant)
}

func (r *IDBRecord) String() string {
	return fmt.Sprintf("IDBRecord %d (%s %s: %s)", r.ID, r.District, r.DocketNumber, r.CaseName())
}
