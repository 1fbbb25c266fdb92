package report

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Repository provides the read-only queries the reconciliation run needs
// from the host EHR stores: the unioned appointment/encounter view plus the
// batched billing and copay lookups for the visits it returned.
type Repository interface {
	// VisitsInRange returns the reconciled visit rows for the date range,
	// ordered by (practitioner name, visit date, appointment time). A nil to
	// means a single-day query on from. A nil facilityID means all
	// facilities.
	VisitsInRange(ctx context.Context, from time.Time, to *time.Time, facilityID *uuid.UUID) ([]*ReconciledVisit, error)

	// LineItems returns the active billing line items for the given
	// encounters, keyed by (patient, encounter). Encounters without items
	// are simply absent from the map.
	LineItems(ctx context.Context, encounterIDs []uuid.UUID) (map[VisitKey][]BillingLineItem, error)

	// Copays returns the stored copay adjustment per (patient, encounter).
	// Copays are stored as negative amounts.
	Copays(ctx context.Context, encounterIDs []uuid.UUID) (map[VisitKey]Cents, error)

	// HasCompanionForm reports whether the companion clinical form is on
	// file for the encounter. Consulted only when the companion-form
	// extension is enabled.
	HasCompanionForm(ctx context.Context, patientID, encounterID uuid.UUID) (bool, error)
}
