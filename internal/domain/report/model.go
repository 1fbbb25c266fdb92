package report

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Cents is a currency amount in integer cents. Charges and copays are summed
// in cents to avoid float drift across subtotals.
type Cents int64

// String renders the amount as a plain decimal, e.g. -450 -> "-4.50".
func (c Cents) String() string {
	sign := ""
	if c < 0 {
		sign = "-"
		c = -c
	}
	return fmt.Sprintf("%s%d.%02d", sign, c/100, c%100)
}

// ReconciledVisit is one row of the unioned appointment/encounter query.
// At least one side of the pairing is present: the join predicate cannot
// produce a row with neither an appointment nor an encounter.
type ReconciledVisit struct {
	AppointmentDate  *time.Time `json:"appointment_date,omitempty"`
	AppointmentTime  string     `json:"appointment_time,omitempty"`
	EncounterID      *uuid.UUID `json:"encounter_id,omitempty"`
	EncounterDate    time.Time  `json:"encounter_date"`
	Authorized       bool       `json:"authorized"`
	PatientID        uuid.UUID  `json:"patient_id"`
	FirstName        string     `json:"first_name"`
	LastName         string     `json:"last_name"`
	PractitionerName string     `json:"practitioner_name,omitempty"`
}

// Practitioner returns the grouping name for the visit's provider.
func (v *ReconciledVisit) Practitioner() string {
	if v.PractitionerName == "" {
		return "Unknown"
	}
	return v.PractitionerName
}

// VisitDate is the display date: the appointment date when scheduled,
// otherwise the encounter date.
func (v *ReconciledVisit) VisitDate() time.Time {
	if v.AppointmentDate != nil {
		return *v.AppointmentDate
	}
	return v.EncounterDate
}

// PatientName returns the patient display name.
func (v *ReconciledVisit) PatientName() string {
	return v.FirstName + " " + v.LastName
}

// VisitKey identifies the billing scope of a visit.
type VisitKey struct {
	PatientID   uuid.UUID
	EncounterID uuid.UUID
}

// Key returns the billing key for the visit. EncounterID is uuid.Nil for
// appointment-only rows, which carry no billing items.
func (v *ReconciledVisit) Key() VisitKey {
	k := VisitKey{PatientID: v.PatientID}
	if v.EncounterID != nil {
		k.EncounterID = *v.EncounterID
	}
	return k
}

// BillingLineItem is one billable code attached to an encounter.
type BillingLineItem struct {
	CodeType   string `json:"code_type"`
	Code       string `json:"code"`
	Modifier   string `json:"modifier,omitempty"`
	Authorized bool   `json:"authorized"`
	Billed     bool   `json:"billed"`
	Fee        Cents  `json:"fee_cents"`
	Justified  bool   `json:"justified"`
}

// RowResult is the validation outcome for one reconciled visit.
type RowResult struct {
	Errors  []ErrorKind `json:"errors,omitempty"`
	Charges Cents       `json:"charges_cents"`
	Copays  Cents       `json:"copays_cents"`
	Billed  bool        `json:"billed"`
}

// PractitionerTotals is the running accumulator for one practitioner group.
type PractitionerTotals struct {
	Name       string `json:"name"`
	Charges    Cents  `json:"charges_cents"`
	Copays     Cents  `json:"copays_cents"`
	Encounters int    `json:"encounters"`
}

// GrandTotals accumulates across all practitioner groups.
type GrandTotals struct {
	Charges    Cents `json:"charges_cents"`
	Copays     Cents `json:"copays_cents"`
	Encounters int   `json:"encounters"`
}

// RowKind distinguishes the three row types of the rendered table.
type RowKind int

const (
	RowDetail RowKind = iota
	RowSubtotal
	RowGrandTotal
)

// ReportRow is one output row. Detail rows carry the visit and its
// validation result; subtotal and grand-total rows carry accumulated
// amounts. Practitioner is set on subtotal rows and on the first detail
// row of each group only.
type ReportRow struct {
	Kind         RowKind          `json:"kind"`
	Practitioner string           `json:"practitioner,omitempty"`
	Visit        *ReconciledVisit `json:"visit,omitempty"`
	Result       *RowResult       `json:"result,omitempty"`
	Charges      Cents            `json:"charges_cents,omitempty"`
	Copays       Cents            `json:"copays_cents,omitempty"`
	Encounters   int              `json:"encounters,omitempty"`
}

func (r ReportRow) IsDetail() bool   { return r.Kind == RowDetail }
func (r ReportRow) IsSubtotal() bool { return r.Kind == RowSubtotal }

// Params are the job parameters for one report run.
type Params struct {
	From       time.Time
	To         *time.Time // nil means single-day report on From
	FacilityID *uuid.UUID
	Details    bool
}

// Report is the complete output of one reconciliation run.
type Report struct {
	From        time.Time   `json:"from"`
	To          *time.Time  `json:"to,omitempty"`
	FacilityID  *uuid.UUID  `json:"facility_id,omitempty"`
	Details     bool        `json:"details"`
	Rows        []ReportRow `json:"rows"`
	Grand       GrandTotals `json:"grand_totals"`
	GeneratedAt time.Time   `json:"generated_at"`
}

// ParseDateOr parses a YYYY-MM-DD date, falling back to the given default
// for empty or malformed input. Matches the permissive form handling of the
// report's inputs: a bad date means "today", never a failed run.
func ParseDateOr(s string, fallback time.Time) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return fallback
	}
	return t
}
