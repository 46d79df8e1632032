package services

import (
	"context"
	"fmt"
	"math"
	"sort"

	"fleetledger/internal/domain"
	"fleetledger/internal/domain/models"
)

// Discrepancy levels reported when comparing ELD mileage to the ledger.
const (
	DiscrepancySuccess = "success"
	DiscrepancyWarning = "warning"
	DiscrepancyError   = "error"
)

// DiscrepancyThresholds are percentages. At or below OkPct is a match; at
// or below WarnPct is a warning; anything above is an error.
type DiscrepancyThresholds struct {
	OkPct   float64
	WarnPct float64
}

func (t DiscrepancyThresholds) withDefaults() DiscrepancyThresholds {
	if t.OkPct <= 0 {
		t.OkPct = 1
	}
	if t.WarnPct < t.OkPct {
		t.WarnPct = math.Max(10, t.OkPct)
	}
	return t
}

// Level classifies a discrepancy percentage.
func (t DiscrepancyThresholds) Level(pct float64) string {
	t = t.withDefaults()
	switch {
	case pct <= t.OkPct:
		return DiscrepancySuccess
	case pct <= t.WarnPct:
		return DiscrepancyWarning
	default:
		return DiscrepancyError
	}
}

// EldDiscrepancy compares the ELD summary with mileage already in the ledger
// from other sources. It is advisory and never blocks an import.
type EldDiscrepancy struct {
	EldMiles      float64 `json:"eldMiles"`
	ExistingMiles float64 `json:"existingMiles"`
	Difference    float64 `json:"difference"`
	Percent       float64 `json:"percent"`
	Level         string  `json:"level"`
	Message       string  `json:"message"`
}

// CompareEldMileage computes the discrepancy between ELD and ledger mileage.
func CompareEldMileage(eldMiles, existingMiles float64, t DiscrepancyThresholds) EldDiscrepancy {
	diff := eldMiles - existingMiles
	var pct float64
	switch {
	case existingMiles > 0:
		pct = math.Abs(diff) / existingMiles * 100
	case eldMiles > 0:
		pct = 100
	}
	d := EldDiscrepancy{
		EldMiles:      eldMiles,
		ExistingMiles: existingMiles,
		Difference:    diff,
		Percent:       pct,
		Level:         t.Level(pct),
	}
	switch d.Level {
	case DiscrepancySuccess:
		d.Message = "ELD mileage matches recorded trips"
	case DiscrepancyWarning:
		d.Message = fmt.Sprintf("ELD mileage differs from recorded trips by %.1f%%", pct)
	default:
		d.Message = fmt.Sprintf("ELD mileage differs from recorded trips by %.1f%%, review before filing", pct)
	}
	return d
}

// eldReconciler writes one trip record per jurisdiction of the ELD summary.
type eldReconciler struct {
	eld        EldSource
	trips      TripStore
	thresholds DiscrepancyThresholds
}

func eldRef(quarter, code string) string {
	return quarter + ":" + code
}

func (r eldReconciler) enumerate(ctx context.Context, userID string, window domain.QuarterWindow) (sourceBatch, error) {
	summary, err := r.eld.GetMileageSummary(ctx, userID, window)
	if err != nil {
		return sourceBatch{}, err
	}
	existing, err := r.trips.FindTripRecords(ctx, userID, window.Label)
	if err != nil {
		return sourceBatch{}, fmt.Errorf("load ledger mileage: %w", err)
	}
	var existingMiles float64
	for _, t := range existing {
		if t.SourceKind != models.SourceEldImport {
			existingMiles += t.TotalMiles
		}
	}

	lines := append([]models.EldJurisdictionMiles(nil), summary.PerJurisdiction...)
	sort.SliceStable(lines, func(i, j int) bool {
		return domain.NormalizeJurisdiction(lines[i].Jurisdiction) < domain.NormalizeJurisdiction(lines[j].Jurisdiction)
	})

	var lineTotal float64
	candidates := make([]ImportCandidate, 0, len(lines))
	for _, line := range lines {
		code := domain.NormalizeJurisdiction(line.Jurisdiction)
		if line.Miles > 0 {
			lineTotal += line.Miles
		}
		ref := eldRef(window.Label, code)
		c := ImportCandidate{
			SourceRef:     ref,
			Description:   "ELD mileage " + code,
			Date:          window.End,
			Miles:         line.Miles,
			Jurisdictions: []string{},
		}
		switch {
		case !domain.IsKnownJurisdiction(code):
			c.Error = &domain.TranslationError{Source: string(models.SourceEldImport), SourceRef: ref, Reason: "jurisdiction not recognised", Raw: line.Jurisdiction}
		case line.Miles < 0:
			c.Error = &domain.TranslationError{Source: string(models.SourceEldImport), SourceRef: ref, Reason: fmt.Sprintf("negative miles %.1f", line.Miles)}
		case line.Miles == 0:
			continue
		default:
			c.Records = []models.TripRecord{{
				TripDate:          window.End,
				StartJurisdiction: code,
				EndJurisdiction:   code,
				TotalMiles:        line.Miles,
				SourceRef:         ref,
				Notes:             "ELD summary " + window.Label,
			}}
			c.Jurisdictions = []string{code}
		}
		candidates = append(candidates, c)
	}

	eldMiles := summary.TotalMiles
	if eldMiles <= 0 {
		eldMiles = lineTotal
	}
	d := CompareEldMileage(eldMiles, existingMiles, r.thresholds)
	return sourceBatch{candidates: candidates, discrepancy: &d, importAll: true}, nil
}
