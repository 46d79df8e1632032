package domain

import (
	"sort"
	"strings"

	"fleetledger/internal/domain/models"
)

// JurisdictionRow is one line of the quarterly fuel-tax aggregate.
type JurisdictionRow struct {
	Jurisdiction   string  `json:"jurisdiction"`
	TotalMiles     float64 `json:"totalMiles"`
	TaxableMiles   float64 `json:"taxableMiles"`
	TaxableGallons float64 `json:"taxableGallons"`
	TaxPaidGallons float64 `json:"taxPaidGallons"`
	// NetTaxableGallons is negative when the jurisdiction owes a credit.
	NetTaxableGallons float64 `json:"netTaxableGallons"`
}

// IsZero reports a row with no mileage and no purchased fuel.
func (r JurisdictionRow) IsZero() bool {
	return r.TotalMiles == 0 && r.TaxPaidGallons == 0
}

// LedgerTotals are the grand totals of an aggregate.
type LedgerTotals struct {
	TotalMiles           float64 `json:"totalMiles"`
	UnapportionedMiles   float64 `json:"unapportionedMiles"`
	TaxableMiles         float64 `json:"taxableMiles"`
	TaxableGallons       float64 `json:"taxableGallons"`
	TotalGallons         float64 `json:"totalGallons"`
	TaxPaidGallons       float64 `json:"taxPaidGallons"`
	NetTaxableGallons    float64 `json:"netTaxableGallons"`
	FleetMPG             float64 `json:"fleetMpg"`
	FleetMPGFromFallback bool    `json:"fleetMpgFromFallback"`
	TripCount            int     `json:"tripCount"`
	FuelPurchaseCount    int     `json:"fuelPurchaseCount"`
	FuelPurchaseAmount   float64 `json:"fuelPurchaseAmount"`
}

// Aggregate is the result of running the ledger over one quarter.
type Aggregate struct {
	UserID  string            `json:"userId"`
	Quarter string            `json:"quarter"`
	Rows    []JurisdictionRow `json:"rows"`
	Totals  LedgerTotals      `json:"totals"`
}

// Ledger accumulates miles and tax-paid gallons per jurisdiction.
type Ledger struct {
	rows map[string]*JurisdictionRow
}

func NewLedger() *Ledger {
	return &Ledger{rows: map[string]*JurisdictionRow{}}
}

// Touch makes sure a row exists for code. Blank codes are ignored.
func (l *Ledger) Touch(code string) *JurisdictionRow {
	code = NormalizeJurisdiction(code)
	if code == "" {
		return nil
	}
	row, ok := l.rows[code]
	if !ok {
		row = &JurisdictionRow{Jurisdiction: code}
		l.rows[code] = row
	}
	return row
}

func (l *Ledger) AddMiles(code string, miles float64) {
	if row := l.Touch(code); row != nil {
		row.TotalMiles += miles
		// no jurisdiction-specific exemptions yet
		row.TaxableMiles += miles
	}
}

func (l *Ledger) AddTaxPaidGallons(code string, gallons float64) {
	if row := l.Touch(code); row != nil {
		row.TaxPaidGallons += gallons
	}
}

// Rows returns the rows ordered by jurisdiction code.
func (l *Ledger) Rows() []JurisdictionRow {
	out := make([]JurisdictionRow, 0, len(l.rows))
	for _, r := range l.rows {
		out = append(out, *r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Jurisdiction < out[j].Jurisdiction })
	return out
}

// BuildAggregate runs the full ledger over a quarter's trips and fuel
// purchases. Every jurisdiction named by a trip endpoint or a purchase gets a
// row, even at zero miles. Rows are ordered by code, then re-sorted stably by
// s when s names a known field.
func BuildAggregate(userID, quarter string, trips []models.TripRecord, fuel []models.FuelPurchaseRecord, fallbackMPG float64, s *Sort) (Aggregate, error) {
	if strings.TrimSpace(userID) == "" {
		return Aggregate{}, InvalidQuery("userId", "userId is required")
	}
	if strings.TrimSpace(quarter) == "" {
		return Aggregate{}, InvalidQuery("quarter", "quarter is required")
	}
	if s != nil && !validSortField(s.Field) {
		return Aggregate{}, InvalidQuery("sort", "unknown sort field "+s.Field)
	}

	ledger := NewLedger()
	for _, t := range trips {
		ledger.Touch(t.StartJurisdiction)
		ledger.Touch(t.EndJurisdiction)
	}
	for _, f := range fuel {
		ledger.Touch(f.Jurisdiction)
	}

	totals := LedgerTotals{TripCount: len(trips), FuelPurchaseCount: len(fuel)}
	for _, t := range trips {
		shares := Apportion(t)
		if len(shares) == 0 && t.TotalMiles > 0 {
			totals.UnapportionedMiles += t.TotalMiles
		}
		for _, sh := range shares {
			ledger.AddMiles(sh.Jurisdiction, sh.Miles)
		}
	}
	for _, f := range fuel {
		ledger.AddTaxPaidGallons(f.Jurisdiction, f.Gallons)
		totals.FuelPurchaseAmount += f.TotalAmount
	}

	eff := EstimateFleetMPG(trips, fallbackMPG)
	totals.TotalMiles = eff.TotalMiles
	totals.TotalGallons = eff.TotalGallons
	totals.FleetMPG = eff.MPG
	totals.FleetMPGFromFallback = eff.UsedFallback

	rows := ledger.Rows()
	for i := range rows {
		rows[i].TaxableGallons = rows[i].TaxableMiles / eff.MPG
		rows[i].NetTaxableGallons = rows[i].TaxableGallons - rows[i].TaxPaidGallons
		totals.TaxableMiles += rows[i].TaxableMiles
		totals.TaxableGallons += rows[i].TaxableGallons
		totals.TaxPaidGallons += rows[i].TaxPaidGallons
		totals.NetTaxableGallons += rows[i].NetTaxableGallons
	}
	SortRows(rows, s)

	return Aggregate{UserID: userID, Quarter: quarter, Rows: rows, Totals: totals}, nil
}

func validSortField(f string) bool {
	switch f {
	case "", SortJurisdiction, SortTotalMiles, SortTaxableMiles, SortTaxPaidGallons, SortNetTaxableGallons:
		return true
	}
	return false
}

// SortRows stably re-orders rows by s. Rows are expected to arrive ordered by
// jurisdiction so ties keep code order.
func SortRows(rows []JurisdictionRow, s *Sort) {
	if s == nil || s.Field == "" {
		return
	}
	key := func(r JurisdictionRow) float64 {
		switch s.Field {
		case SortTotalMiles:
			return r.TotalMiles
		case SortTaxableMiles:
			return r.TaxableMiles
		case SortTaxPaidGallons:
			return r.TaxPaidGallons
		case SortNetTaxableGallons:
			return r.NetTaxableGallons
		}
		return 0
	}
	desc := s.Desc()
	if s.Field == SortJurisdiction {
		sort.SliceStable(rows, func(i, j int) bool {
			if desc {
				return rows[i].Jurisdiction > rows[j].Jurisdiction
			}
			return rows[i].Jurisdiction < rows[j].Jurisdiction
		})
		return
	}
	sort.SliceStable(rows, func(i, j int) bool {
		if desc {
			return key(rows[i]) > key(rows[j])
		}
		return key(rows[i]) < key(rows[j])
	})
}
