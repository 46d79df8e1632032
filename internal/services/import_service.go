package services

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"fleetledger/internal/domain"
	"fleetledger/internal/domain/models"
	"fleetledger/internal/utils"
)

// ImportCandidate is one foreign record eligible for import in a quarter,
// already translated into the trip records it would create.
type ImportCandidate struct {
	SourceKind      models.SourceKind        `json:"sourceKind"`
	SourceRef       string                   `json:"sourceRef"`
	Description     string                   `json:"description"`
	Date            time.Time                `json:"date"`
	Miles           float64                  `json:"miles"`
	Jurisdictions   []string                 `json:"jurisdictions"`
	Records         []models.TripRecord      `json:"records,omitempty"`
	AlreadyImported bool                     `json:"alreadyImported"`
	Error           *domain.TranslationError `json:"error,omitempty"`
}

// ImportPreview is the outcome of candidate enumeration plus the dedup check.
type ImportPreview struct {
	UserID      string            `json:"userId"`
	Quarter     string            `json:"quarter"`
	SourceKind  models.SourceKind `json:"sourceKind"`
	Candidates  []ImportCandidate `json:"candidates"`
	Discrepancy *EldDiscrepancy   `json:"discrepancy,omitempty"`
}

// Pending counts candidates that could still be imported.
func (p ImportPreview) Pending() int {
	n := 0
	for _, c := range p.Candidates {
		if !c.AlreadyImported && c.Error == nil {
			n++
		}
	}
	return n
}

// Selection names the candidates to import. A nil selection, or All, means
// every pending candidate.
type Selection struct {
	Refs []string `json:"refs"`
	All  bool     `json:"all"`
}

// ImportResult reports one reconcile run. Imported counts trip records
// written; ImportedCandidates counts the foreign records they came from.
// SkippedAlreadyImported counts, in the same unit as Imported, the records of
// requested candidates already found in the ledger.
type ImportResult struct {
	UserID                 string                    `json:"userId"`
	Quarter                string                    `json:"quarter"`
	SourceKind             models.SourceKind         `json:"sourceKind"`
	Imported               int                       `json:"imported"`
	ImportedCandidates     int                       `json:"importedCandidates"`
	SkippedAlreadyImported int                       `json:"skippedAlreadyImported"`
	Failed                 int                       `json:"failed"`
	MilesImported          float64                   `json:"milesImported"`
	Jurisdictions          []string                  `json:"jurisdictions"`
	PerRecordErrors        []domain.TranslationError `json:"perRecordErrors"`
	Discrepancy            *EldDiscrepancy           `json:"discrepancy,omitempty"`
}

// sourceBatch is what a reconciler hands the shared pipeline.
type sourceBatch struct {
	candidates  []ImportCandidate
	discrepancy *EldDiscrepancy
	importAll   bool
}

type importSource interface {
	enumerate(ctx context.Context, userID string, window domain.QuarterWindow) (sourceBatch, error)
}

// ImportService runs the three import reconcilers (dispatch loads, state
// mileage tracker, ELD) through one enumerate, dedup, select, persist
// pipeline.
type ImportService struct {
	Trips       TripStore
	Loads       LoadSource
	Mileage     MileageTrackerSource
	Eld         EldSource
	Locks       ScopeLocker
	Distances   DistanceEstimator
	Discrepancy DiscrepancyThresholds
	RequestID   string
}

func (s ImportService) locker() ScopeLocker {
	if s.Locks != nil {
		return s.Locks
	}
	return defaultScopeLocks
}

func (s ImportService) source(kind models.SourceKind) (importSource, error) {
	switch kind {
	case models.SourceLoadImport:
		if s.Loads != nil {
			return loadReconciler{loads: s.Loads, distances: s.Distances}, nil
		}
	case models.SourceMileageTrackerImport:
		if s.Mileage != nil {
			return mileageReconciler{tracker: s.Mileage}, nil
		}
	case models.SourceEldImport:
		if s.Eld != nil {
			return eldReconciler{eld: s.Eld, trips: s.Trips, thresholds: s.Discrepancy}, nil
		}
	default:
		return nil, domain.InvalidQuery("source", fmt.Sprintf("unknown import source %q", kind))
	}
	return nil, domain.InternalError{Msg: fmt.Sprintf("import source %s not configured", kind)}
}

// scope validates the (user, quarter) pair before any I/O.
func scope(userID, quarter string) (domain.QuarterWindow, error) {
	if strings.TrimSpace(userID) == "" {
		return domain.QuarterWindow{}, domain.InvalidQuery("userId", "userId is required")
	}
	if strings.TrimSpace(quarter) == "" {
		return domain.QuarterWindow{}, domain.InvalidQuery("quarter", "quarter is required")
	}
	return domain.ParseQuarter(quarter)
}

func scopeKey(userID, quarter string, kind models.SourceKind) string {
	return "ifta:" + userID + ":" + quarter + ":" + string(kind)
}

// Preview enumerates candidates and marks those already in the ledger.
func (s ImportService) Preview(ctx context.Context, userID, quarter string, kind models.SourceKind) (ImportPreview, error) {
	window, err := scope(userID, quarter)
	if err != nil {
		return ImportPreview{}, err
	}
	src, err := s.source(kind)
	if err != nil {
		return ImportPreview{}, err
	}
	preview, _, err := s.preview(ctx, src, userID, window, kind)
	return preview, err
}

// PreviewAll previews every configured source concurrently. The sources
// read disjoint source-kind partitions of the ledger.
func (s ImportService) PreviewAll(ctx context.Context, userID, quarter string) ([]ImportPreview, error) {
	window, err := scope(userID, quarter)
	if err != nil {
		return nil, err
	}

	out := make([]ImportPreview, len(models.ImportKinds))
	g, gctx := errgroup.WithContext(ctx)
	for i, kind := range models.ImportKinds {
		src, err := s.source(kind)
		if err != nil {
			out[i] = ImportPreview{UserID: userID, Quarter: window.Label, SourceKind: kind, Candidates: []ImportCandidate{}}
			continue
		}
		g.Go(func() error {
			p, _, err := s.preview(gctx, src, userID, window, kind)
			if err != nil {
				return fmt.Errorf("preview %s: %w", kind, err)
			}
			out[i] = p
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func (s ImportService) preview(ctx context.Context, src importSource, userID string, window domain.QuarterWindow, kind models.SourceKind) (ImportPreview, bool, error) {
	batch, err := src.enumerate(ctx, userID, window)
	if err != nil {
		return ImportPreview{}, false, fmt.Errorf("enumerate %s candidates: %w", kind, err)
	}

	refs := []string{}
	for i := range batch.candidates {
		c := &batch.candidates[i]
		c.SourceKind = kind
		for j := range c.Records {
			c.Records[j].UserID = userID
			c.Records[j].Quarter = window.Label
			c.Records[j].SourceKind = kind
			refs = append(refs, c.Records[j].SourceRef)
		}
	}

	found, err := s.Trips.FindTripRecordsBySourceRefs(ctx, userID, window.Label, kind, refs)
	if err != nil {
		return ImportPreview{}, false, fmt.Errorf("dedup %s candidates: %w", kind, err)
	}
	for i := range batch.candidates {
		for _, rec := range batch.candidates[i].Records {
			if found[rec.SourceRef] {
				batch.candidates[i].AlreadyImported = true
				break
			}
		}
	}

	return ImportPreview{
		UserID:      userID,
		Quarter:     window.Label,
		SourceKind:  kind,
		Candidates:  batch.candidates,
		Discrepancy: batch.discrepancy,
	}, batch.importAll, nil
}

// Reconcile imports the selected, not-yet-imported candidates of one source.
// The dedup check and the insert run under the scope lock so two concurrent
// runs for the same scope cannot both insert. Translation failures are
// returned per record; the insert itself is all-or-nothing. If ctx is
// cancelled before the insert nothing is written and Imported is 0.
func (s ImportService) Reconcile(ctx context.Context, userID, quarter string, kind models.SourceKind, sel *Selection) (ImportResult, error) {
	window, err := scope(userID, quarter)
	if err != nil {
		return ImportResult{}, err
	}
	src, err := s.source(kind)
	if err != nil {
		return ImportResult{}, err
	}
	result := ImportResult{
		UserID:          userID,
		Quarter:         window.Label,
		SourceKind:      kind,
		Jurisdictions:   []string{},
		PerRecordErrors: []domain.TranslationError{},
	}

	release, err := s.locker().Acquire(ctx, scopeKey(userID, window.Label, kind))
	if err != nil {
		return result, fmt.Errorf("lock import scope: %w", err)
	}
	defer release()

	preview, importAll, err := s.preview(ctx, src, userID, window, kind)
	if err != nil {
		return result, err
	}
	result.Discrepancy = preview.Discrepancy
	if err := ctx.Err(); err != nil {
		return result, fmt.Errorf("import cancelled before selection: %w", err)
	}

	selected := s.selectCandidates(preview, sel, importAll, &result)
	records := []models.TripRecord{}
	touched := map[string]bool{}
	for _, c := range selected {
		records = append(records, c.Records...)
	}
	if err := ctx.Err(); err != nil {
		return result, fmt.Errorf("import cancelled before write: %w", err)
	}

	if len(records) > 0 {
		if err := s.Trips.InsertTripRecords(ctx, records); err != nil {
			utils.LogError(s.RequestID, "ifta_import", "reconcile_"+string(kind), err,
				zap.String("user_id", userID), zap.String("quarter", window.Label), zap.Int("records", len(records)))
			return result, err
		}
	}

	for _, rec := range records {
		result.MilesImported += rec.TotalMiles
		for _, code := range []string{rec.StartJurisdiction, rec.EndJurisdiction} {
			if code != "" && !touched[code] {
				touched[code] = true
				result.Jurisdictions = append(result.Jurisdictions, code)
			}
		}
	}
	sort.Strings(result.Jurisdictions)
	result.Imported = len(records)
	result.ImportedCandidates = len(selected)

	utils.LogEvent(s.RequestID, "ifta_import", "reconcile_"+string(kind), "import finished",
		zap.String("user_id", userID),
		zap.String("quarter", window.Label),
		zap.Int("candidates", len(preview.Candidates)),
		zap.Int("imported", result.Imported),
		zap.Int("skipped_already_imported", result.SkippedAlreadyImported),
		zap.Int("failed", result.Failed),
	)
	return result, nil
}

func (s ImportService) selectCandidates(preview ImportPreview, sel *Selection, importAll bool, result *ImportResult) []ImportCandidate {
	all := importAll || sel == nil || sel.All
	wanted := map[string]bool{}
	if !all {
		for _, ref := range sel.Refs {
			if ref = strings.TrimSpace(ref); ref != "" {
				wanted[ref] = true
			}
		}
	}

	selected := []ImportCandidate{}
	for _, c := range preview.Candidates {
		if !all && !wanted[c.SourceRef] {
			continue
		}
		delete(wanted, c.SourceRef)
		switch {
		case c.AlreadyImported:
			result.SkippedAlreadyImported += len(c.Records)
		case c.Error != nil:
			result.Failed++
			result.PerRecordErrors = append(result.PerRecordErrors, *c.Error)
		default:
			selected = append(selected, c)
		}
	}

	missing := make([]string, 0, len(wanted))
	for ref := range wanted {
		missing = append(missing, ref)
	}
	sort.Strings(missing)
	for _, ref := range missing {
		result.Failed++
		result.PerRecordErrors = append(result.PerRecordErrors, domain.TranslationError{
			Source:    string(preview.SourceKind),
			SourceRef: ref,
			Reason:    "not an eligible record for " + preview.Quarter,
		})
	}
	return selected
}

func sumMiles(records []models.TripRecord) float64 {
	var total float64
	for _, r := range records {
		total += r.TotalMiles
	}
	return total
}

func jurisdictionsOf(records []models.TripRecord) []string {
	seen := map[string]bool{}
	out := []string{}
	for _, r := range records {
		for _, code := range []string{r.StartJurisdiction, r.EndJurisdiction} {
			if code != "" && !seen[code] {
				seen[code] = true
				out = append(out, code)
			}
		}
	}
	return out
}
