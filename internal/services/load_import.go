package services

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"fleetledger/internal/domain"
	"fleetledger/internal/domain/models"
	"fleetledger/internal/utils"
)

// loadReconciler turns completed dispatch loads into one trip record each.
type loadReconciler struct {
	loads     LoadSource
	distances DistanceEstimator
}

func (r loadReconciler) enumerate(ctx context.Context, userID string, window domain.QuarterWindow) (sourceBatch, error) {
	loads, err := r.loads.ListCompletedLoads(ctx, userID, window)
	if err != nil {
		return sourceBatch{}, err
	}
	sort.SliceStable(loads, func(i, j int) bool {
		if !loads[i].DeliveryDate.Equal(loads[j].DeliveryDate) {
			return loads[i].DeliveryDate.Before(loads[j].DeliveryDate)
		}
		return loads[i].ID < loads[j].ID
	})

	candidates := make([]ImportCandidate, 0, len(loads))
	for _, load := range loads {
		ref := strings.TrimSpace(load.ID)
		if ref == "" || !window.Contains(load.DeliveryDate) {
			continue
		}
		c := ImportCandidate{
			SourceRef:     ref,
			Description:   utils.NormalizeSpace(load.OriginText + " -> " + load.DestinationText),
			Date:          load.DeliveryDate,
			Jurisdictions: []string{},
		}
		rec, terr := r.translate(load)
		if terr != nil {
			c.Error = terr
		} else {
			c.Records = []models.TripRecord{rec}
			c.Miles = rec.TotalMiles
			c.Jurisdictions = jurisdictionsOf(c.Records)
		}
		candidates = append(candidates, c)
	}
	return sourceBatch{candidates: candidates}, nil
}

func (r loadReconciler) translate(load models.ForeignLoad) (models.TripRecord, *domain.TranslationError) {
	fail := func(reason, raw string) *domain.TranslationError {
		return &domain.TranslationError{Source: string(models.SourceLoadImport), SourceRef: load.ID, Reason: reason, Raw: raw}
	}

	origin := domain.ParseJurisdictionText(load.OriginText)
	if !origin.OK() {
		return models.TripRecord{}, fail("origin jurisdiction not recognised", origin.Unparseable)
	}
	dest := domain.ParseJurisdictionText(load.DestinationText)
	if !dest.OK() {
		return models.TripRecord{}, fail("destination jurisdiction not recognised", dest.Unparseable)
	}

	var miles float64
	switch {
	case load.RecordedDistance != nil && *load.RecordedDistance >= 0:
		miles = *load.RecordedDistance
	case load.RecordedDistance != nil:
		return models.TripRecord{}, fail(fmt.Sprintf("negative recorded distance %.1f", *load.RecordedDistance), "")
	default:
		estimated, ok := r.estimate(origin.Code, dest.Code)
		if !ok {
			return models.TripRecord{}, fail("no recorded distance and no lane estimate for "+origin.Code+"-"+dest.Code, "")
		}
		miles = estimated
	}

	return models.TripRecord{
		VehicleID:         load.VehicleID,
		TripDate:          load.DeliveryDate,
		StartJurisdiction: origin.Code,
		EndJurisdiction:   dest.Code,
		TotalMiles:        miles,
		SourceRef:         load.ID,
		Notes:             "load " + load.ID,
	}, nil
}

func (r loadReconciler) estimate(from, to string) (float64, bool) {
	if r.distances == nil {
		return 0, false
	}
	return r.distances.Estimate(from, to)
}
