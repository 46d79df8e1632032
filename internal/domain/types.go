package domain

// Sort defines sorting preference.
type Sort struct {
	Field     string `json:"field"`
	Direction string `json:"direction"` // asc / desc
}

// Sort fields understood by the jurisdiction ledger.
const (
	SortJurisdiction      = "jurisdiction"
	SortTotalMiles        = "total_miles"
	SortTaxableMiles      = "taxable_miles"
	SortTaxPaidGallons    = "tax_paid_gallons"
	SortNetTaxableGallons = "net_taxable_gallons"
)

// Desc reports whether the sort direction is descending.
func (s Sort) Desc() bool {
	return s.Direction == "desc" || s.Direction == "DESC"
}
