package services

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"fleetledger/internal/domain"
	"fleetledger/internal/domain/models"
	"fleetledger/internal/utils"
)

// ReportKind selects how much of the aggregation input a report carries.
type ReportKind string

const (
	ReportSummary  ReportKind = "summary"
	ReportDetailed ReportKind = "detailed"
)

// ParseReportKind defaults to summary.
func ParseReportKind(raw string) (ReportKind, error) {
	switch ReportKind(raw) {
	case "", ReportSummary:
		return ReportSummary, nil
	case ReportDetailed:
		return ReportDetailed, nil
	}
	return "", domain.ValidationError{Field: "kind", Msg: fmt.Sprintf("unknown report kind %q", raw)}
}

// ReportOptions are report-time filters. They never change the aggregate.
type ReportOptions struct {
	HideZeroRows bool
	Sort         *domain.Sort
}

// ReportTrip is a ledger trip with its apportioned shares, for audit.
type ReportTrip struct {
	models.TripRecord
	VehicleLabel string                `json:"vehicleLabel"`
	Shares       []domain.MileageShare `json:"shares"`
}

// ReportDocument is a built report. Summary documents leave Trips and
// FuelPurchases nil.
type ReportDocument struct {
	Kind          ReportKind                  `json:"kind"`
	UserID        string                      `json:"userId"`
	Quarter       string                      `json:"quarter"`
	PeriodStart   string                      `json:"periodStart"`
	PeriodEnd     string                      `json:"periodEnd"`
	GeneratedAt   time.Time                   `json:"generatedAt"`
	Rows          []domain.JurisdictionRow    `json:"rows"`
	HiddenRows    int                         `json:"hiddenRows"`
	Totals        domain.LedgerTotals         `json:"totals"`
	Trips         []ReportTrip                `json:"trips,omitempty"`
	FuelPurchases []models.FuelPurchaseRecord `json:"fuelPurchases,omitempty"`
}

// ReportService builds report documents from the aggregation.
type ReportService struct {
	Aggregates AggregateService
	Vehicles   VehicleDirectory
	RequestID  string
	Now        func() time.Time
}

func (s ReportService) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return utils.NowUTC()
}

// BuildReport aggregates the quarter and wraps it in a document of kind.
func (s ReportService) BuildReport(ctx context.Context, userID, quarter string, kind ReportKind, opts ReportOptions) (ReportDocument, error) {
	if kind == "" {
		kind = ReportSummary
	}
	if kind != ReportSummary && kind != ReportDetailed {
		return ReportDocument{}, domain.ValidationError{Field: "kind", Msg: fmt.Sprintf("unknown report kind %q", kind)}
	}

	aggSvc := s.Aggregates
	aggSvc.RequestID = s.RequestID
	agg, inputs, err := aggSvc.aggregate(ctx, userID, quarter, opts.Sort)
	if err != nil {
		return ReportDocument{}, err
	}
	window, err := domain.ParseQuarter(agg.Quarter)
	if err != nil {
		return ReportDocument{}, err
	}

	doc := ReportDocument{
		Kind:        kind,
		UserID:      userID,
		Quarter:     agg.Quarter,
		PeriodStart: window.StartDate(),
		PeriodEnd:   window.EndDate(),
		GeneratedAt: s.now(),
		Rows:        agg.Rows,
		Totals:      agg.Totals,
	}
	if opts.HideZeroRows {
		doc.Rows = make([]domain.JurisdictionRow, 0, len(agg.Rows))
		for _, row := range agg.Rows {
			if row.IsZero() {
				doc.HiddenRows++
				continue
			}
			doc.Rows = append(doc.Rows, row)
		}
	}

	if kind == ReportDetailed {
		labels := map[string]string{}
		if s.Vehicles != nil {
			labels, err = s.Vehicles.VehicleLabels(ctx, userID)
			if err != nil {
				return ReportDocument{}, fmt.Errorf("load vehicle labels: %w", err)
			}
		}
		doc.Trips = make([]ReportTrip, 0, len(inputs.Trips))
		for _, t := range inputs.Trips {
			label := labels[t.VehicleID]
			if label == "" {
				label = t.VehicleID
			}
			doc.Trips = append(doc.Trips, ReportTrip{TripRecord: t, VehicleLabel: label, Shares: domain.Apportion(t)})
		}
		doc.FuelPurchases = append([]models.FuelPurchaseRecord{}, inputs.Fuel...)
	}

	utils.LogEvent(s.RequestID, "ifta_report", "build_"+string(kind), "report built",
		zap.String("user_id", userID),
		zap.String("quarter", doc.Quarter),
		zap.Int("rows", len(doc.Rows)),
		zap.Int("hidden_rows", doc.HiddenRows),
	)
	return doc, nil
}
