package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"sort"
	"strings"

	"github.com/gin-gonic/gin"

	"fleetledger/internal/domain"
	"fleetledger/internal/domain/models"
	"fleetledger/internal/http/middleware"
	"fleetledger/internal/services"
)

// IftaHandler serves the quarterly fuel-tax ledger. Services are built per
// request so each carries the request id.
type IftaHandler struct {
	Trips       services.TripStore
	Fuel        services.FuelPurchaseStore
	Loads       services.LoadSource
	Mileage     services.MileageTrackerSource
	Eld         services.EldSource
	Vehicles    services.VehicleDirectory
	Locks       services.ScopeLocker
	Distances   services.DistanceEstimator
	FallbackMPG float64
	Discrepancy services.DiscrepancyThresholds
}

func (h IftaHandler) aggregates(c *gin.Context) services.AggregateService {
	return services.AggregateService{
		Trips:       h.Trips,
		Fuel:        h.Fuel,
		FallbackMPG: h.FallbackMPG,
		RequestID:   middleware.GetRequestID(c),
	}
}

func (h IftaHandler) reports(c *gin.Context) services.ReportService {
	return services.ReportService{
		Aggregates: h.aggregates(c),
		Vehicles:   h.Vehicles,
		RequestID:  middleware.GetRequestID(c),
	}
}

func (h IftaHandler) imports(c *gin.Context) services.ImportService {
	return services.ImportService{
		Trips:       h.Trips,
		Loads:       h.Loads,
		Mileage:     h.Mileage,
		Eld:         h.Eld,
		Locks:       h.Locks,
		Distances:   h.Distances,
		Discrepancy: h.Discrepancy,
		RequestID:   middleware.GetRequestID(c),
	}
}

func sortFromQuery(c *gin.Context) *domain.Sort {
	field := strings.ToLower(strings.TrimSpace(c.Query("sort")))
	if field == "" {
		return nil
	}
	return &domain.Sort{Field: field, Direction: strings.ToLower(strings.TrimSpace(c.DefaultQuery("dir", "asc")))}
}

func sourceFromParam(c *gin.Context) (models.SourceKind, bool) {
	kind := models.SourceKind(strings.ToLower(strings.TrimSpace(c.Param("source"))))
	if !kind.IsImport() {
		respondError(c, http.StatusBadRequest, "validation_error", "unknown import source "+string(kind), gin.H{"allowed": models.ImportKinds})
		return "", false
	}
	return kind, true
}

// GET /api/ifta/quarters/:quarter/aggregate?sort=&dir=
func (h IftaHandler) Aggregate(c *gin.Context) {
	agg, err := h.aggregates(c).Aggregate(c.Request.Context(), middleware.GetUserID(c), c.Param("quarter"), sortFromQuery(c))
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, agg)
}

// GET /api/ifta/quarters/:quarter/report?kind=&format=&hide_zero=1
func (h IftaHandler) Report(c *gin.Context) {
	kind, err := services.ParseReportKind(strings.ToLower(strings.TrimSpace(c.Query("kind"))))
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	format := strings.ToLower(strings.TrimSpace(c.DefaultQuery("format", services.FormatJSON)))
	hideZero := c.Query("hide_zero") == "1" || strings.EqualFold(c.Query("hide_zero"), "true")
	opts := services.ReportOptions{HideZeroRows: hideZero, Sort: sortFromQuery(c)}

	switch format {
	case services.FormatJSON, services.FormatCSV, services.FormatXLSX, services.FormatPDF:
	default:
		respondError(c, http.StatusBadRequest, "validation_error", "unknown report format "+format, nil)
		return
	}

	doc, err := h.reports(c).BuildReport(c.Request.Context(), middleware.GetUserID(c), c.Param("quarter"), kind, opts)
	if err != nil {
		RespondDomainError(c, err)
		return
	}

	var (
		body        []byte
		contentType string
	)
	switch format {
	case services.FormatJSON:
		c.JSON(http.StatusOK, doc)
		return
	case services.FormatCSV:
		text, err := services.SerializeReport(doc)
		if err != nil {
			RespondDomainError(c, err)
			return
		}
		body, contentType = []byte(text), "text/csv; charset=utf-8"
	case services.FormatXLSX:
		body, err = services.RenderReportXLSX(doc)
		if err != nil {
			RespondDomainError(c, err)
			return
		}
		contentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case services.FormatPDF:
		body, _, err = services.RenderReportPDF(doc)
		if err != nil {
			RespondDomainError(c, err)
			return
		}
		contentType = "application/pdf"
	}

	c.Header("Content-Disposition", "attachment; filename=\""+services.ReportFilename(doc, format)+"\"")
	c.Data(http.StatusOK, contentType, body)
}

// GET /api/ifta/quarters/:quarter/trips
func (h IftaHandler) ListTrips(c *gin.Context) {
	svc := services.TripService{Trips: h.Trips, RequestID: middleware.GetRequestID(c)}
	trips, err := svc.ListTrips(c.Request.Context(), middleware.GetUserID(c), c.Param("quarter"))
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"quarter": strings.ToUpper(strings.TrimSpace(c.Param("quarter"))), "trips": trips})
}

// POST /api/ifta/trips
func (h IftaHandler) CreateTrip(c *gin.Context) {
	var in services.ManualTripInput
	if !BindJSONOrError(c, &in) {
		return
	}
	svc := services.TripService{Trips: h.Trips, RequestID: middleware.GetRequestID(c)}
	rec, err := svc.CreateManualTrip(c.Request.Context(), middleware.GetUserID(c), in)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusCreated, rec)
}

// GET /api/ifta/vehicles
func (h IftaHandler) ListVehicles(c *gin.Context) {
	out := []gin.H{}
	if h.Vehicles != nil {
		labels, err := h.Vehicles.VehicleLabels(c.Request.Context(), middleware.GetUserID(c))
		if err != nil {
			RespondDomainError(c, err)
			return
		}
		ids := make([]string, 0, len(labels))
		for id := range labels {
			ids = append(ids, id)
		}
		sort.Strings(ids)
		for _, id := range ids {
			out = append(out, gin.H{"id": id, "label": labels[id]})
		}
	}
	c.JSON(http.StatusOK, gin.H{"vehicles": out})
}

// GET /api/ifta/quarters/:quarter/imports
func (h IftaHandler) PreviewImports(c *gin.Context) {
	previews, err := h.imports(c).PreviewAll(c.Request.Context(), middleware.GetUserID(c), c.Param("quarter"))
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"previews": previews})
}

// GET /api/ifta/quarters/:quarter/imports/:source
func (h IftaHandler) PreviewImport(c *gin.Context) {
	kind, ok := sourceFromParam(c)
	if !ok {
		return
	}
	preview, err := h.imports(c).Preview(c.Request.Context(), middleware.GetUserID(c), c.Param("quarter"), kind)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, preview)
}

// POST /api/ifta/quarters/:quarter/imports/:source
// An empty body imports every pending candidate.
func (h IftaHandler) RunImport(c *gin.Context) {
	kind, ok := sourceFromParam(c)
	if !ok {
		return
	}

	var sel *services.Selection
	if c.Request.Body != nil {
		raw, err := io.ReadAll(io.LimitReader(c.Request.Body, 1<<20))
		if err != nil {
			RespondError(c, http.StatusBadRequest, "invalid payload", err)
			return
		}
		if len(strings.TrimSpace(string(raw))) > 0 {
			sel = &services.Selection{}
			if err := json.Unmarshal(raw, sel); err != nil {
				RespondError(c, http.StatusBadRequest, "invalid payload", err)
				return
			}
			if !sel.All && len(sel.Refs) == 0 {
				respondError(c, http.StatusBadRequest, "validation_error", "select refs or set all", nil)
				return
			}
		}
	}

	result, err := h.imports(c).Reconcile(c.Request.Context(), middleware.GetUserID(c), c.Param("quarter"), kind, sel)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			// report what was committed before the cancel
			c.JSON(http.StatusRequestTimeout, gin.H{"result": result, "error": err.Error(), "request_id": middleware.GetRequestID(c)})
			return
		}
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}
