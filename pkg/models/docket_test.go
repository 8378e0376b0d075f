package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDocket_ExcludedFromMerge(t *testing.T) {
	tests := []struct {
		name     string
		docket   Docket
		excluded bool
	}{
		{
			name:     "ordinary civil docket",
			docket:   Docket{DocketNumber: "1:17-cv-00101", CaseName: "Smith v. Jones"},
			excluded: false,
		},
		{
			name:     "sealed case name",
			docket:   Docket{DocketNumber: "1:17-cv-00101", CaseName: "SEALED v. SEALED"},
			excluded: true,
		},
		{
			name:     "suppressed case name",
			docket:   Docket{DocketNumber: "1:17-cv-00101", CaseName: "Suppressed v. Suppressed"},
			excluded: true,
		},
		{
			name:     "search warrant docket",
			docket:   Docket{DocketNumber: "1:17-mj-00101", CaseName: "In re Search Warrant"},
			excluded: true,
		},
		{
			name:     "criminal docket number",
			docket:   Docket{DocketNumber: "1:17-cr-00101", CaseName: "United States v. Doe"},
			excluded: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.excluded, tt.docket.ExcludedFromMerge())
		})
	}
}

func TestIDBRecord_CaseName(t *testing.T) {
	row := IDBRecord{Plaintiff: "Smith", Defendant: "Jones"}
	assert.Equal(t, "Smith v. Jones", row.CaseName())
}
