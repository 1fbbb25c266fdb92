package report

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/ehr/apptrecon/internal/domain/codes"
)

func testVisit(withEncounter bool) *ReconciledVisit {
	v := &ReconciledVisit{
		EncounterDate:    time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC),
		PatientID:        uuid.MustParse("11111111-1111-1111-1111-111111111111"),
		FirstName:        "Ada",
		LastName:         "Lovelace",
		PractitionerName: "Byron, George",
	}
	if withEncounter {
		id := uuid.MustParse("22222222-2222-2222-2222-222222222222")
		v.EncounterID = &id
	}
	return v
}

func hasError(res RowResult, kind ErrorKind) bool {
	for _, e := range res.Errors {
		if e == kind {
			return true
		}
	}
	return false
}

func TestValidateCleanVisit(t *testing.T) {
	val := NewValidator(RuleConfig{RequireAuthorization: true}, codes.DefaultTypeRules(), nil)

	items := []BillingLineItem{
		{CodeType: "CPT4", Code: "99213", Authorized: true, Billed: true, Fee: 12500, Justified: true},
		{CodeType: "ICD10", Code: "J06.9", Authorized: true, Billed: true, Justified: true},
	}
	res, err := val.Validate(context.Background(), testVisit(true), items, -2000)
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if len(res.Errors) != 0 {
		t.Errorf("errors = %v, want none", res.Errors)
	}
	if !res.Billed {
		t.Error("Billed = false, want true")
	}
	if res.Charges != 12500 {
		t.Errorf("Charges = %d, want 12500", res.Charges)
	}
	if res.Copays != 2000 {
		t.Errorf("Copays = %d, want 2000", res.Copays)
	}
}

func TestValidateNeedsAuth(t *testing.T) {
	items := []BillingLineItem{
		{CodeType: "CPT4", Authorized: false, Billed: true, Fee: 5000, Justified: true},
	}

	val := NewValidator(RuleConfig{RequireAuthorization: true}, codes.DefaultTypeRules(), nil)
	res, err := val.Validate(context.Background(), testVisit(true), items, 0)
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if !hasError(res, ErrNeedsAuth) {
		t.Errorf("errors = %v, want Needs Auth", res.Errors)
	}

	// The same item with authorization disabled raises nothing.
	val = NewValidator(RuleConfig{}, codes.DefaultTypeRules(), nil)
	res, err = val.Validate(context.Background(), testVisit(true), items, 0)
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if hasError(res, ErrNeedsAuth) {
		t.Errorf("errors = %v, want no Needs Auth with authorization disabled", res.Errors)
	}
}

func TestValidateNeedsJustify(t *testing.T) {
	val := NewValidator(RuleConfig{RequireAuthorization: true}, codes.DefaultTypeRules(), nil)
	items := []BillingLineItem{
		{CodeType: "CPT4", Authorized: true, Billed: true, Fee: 5000, Justified: false},
	}
	res, err := val.Validate(context.Background(), testVisit(true), items, 0)
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if !hasError(res, ErrNeedsJustify) {
		t.Errorf("errors = %v, want Needs Justify", res.Errors)
	}
}

func TestValidateMissingFee(t *testing.T) {
	items := []BillingLineItem{
		{CodeType: "CPT4", Authorized: true, Billed: true, Fee: 0, Justified: true},
	}

	val := NewValidator(RuleConfig{RequireAuthorization: true}, codes.DefaultTypeRules(), nil)
	res, err := val.Validate(context.Background(), testVisit(true), items, 0)
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if !hasError(res, ErrMissingFee) {
		t.Errorf("errors = %v, want Missing Fee", res.Errors)
	}

	val = NewValidator(RuleConfig{RequireAuthorization: true, AllowZeroFee: true}, codes.DefaultTypeRules(), nil)
	res, err = val.Validate(context.Background(), testVisit(true), items, 0)
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if hasError(res, ErrMissingFee) {
		t.Errorf("errors = %v, want no Missing Fee with zero fees allowed", res.Errors)
	}
}

func TestValidateFeeNotAllowed(t *testing.T) {
	val := NewValidator(RuleConfig{RequireAuthorization: true}, codes.DefaultTypeRules(), nil)
	items := []BillingLineItem{
		{CodeType: "CPT4", Authorized: true, Billed: true, Fee: 5000, Justified: true},
		{CodeType: "ICD10", Authorized: true, Billed: true, Fee: 100, Justified: true},
	}
	res, err := val.Validate(context.Background(), testVisit(true), items, 0)
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if !hasError(res, ErrFeeNotAllowed) {
		t.Errorf("errors = %v, want Fee is not allowed", res.Errors)
	}
	// Diagnosis fees are flagged, never added to charges.
	if res.Charges != 5000 {
		t.Errorf("Charges = %d, want 5000", res.Charges)
	}
}

func TestValidateNotBilledWording(t *testing.T) {
	items := []BillingLineItem{
		{CodeType: "CPT4", Authorized: true, Billed: false, Fee: 5000, Justified: true},
	}

	val := NewValidator(RuleConfig{RequireAuthorization: true}, codes.DefaultTypeRules(), nil)
	res, err := val.Validate(context.Background(), testVisit(true), items, 0)
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if !hasError(res, ErrNotBilled) || hasError(res, ErrNotCheckedOut) {
		t.Errorf("errors = %v, want Not billed", res.Errors)
	}

	val = NewValidator(RuleConfig{}, codes.DefaultTypeRules(), nil)
	res, err = val.Validate(context.Background(), testVisit(true), items, 0)
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if !hasError(res, ErrNotCheckedOut) || hasError(res, ErrNotBilled) {
		t.Errorf("errors = %v, want Not checked out with authorization disabled", res.Errors)
	}
}

func TestValidateNoVisit(t *testing.T) {
	val := NewValidator(RuleConfig{RequireAuthorization: true}, codes.DefaultTypeRules(), nil)
	res, err := val.Validate(context.Background(), testVisit(false), nil, 0)
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if !hasError(res, ErrNoVisit) {
		t.Errorf("errors = %v, want No visit", res.Errors)
	}
	if res.Billed {
		t.Error("Billed = true, want false for zero-charge visit")
	}
}

// A fully billed visit whose only items carry zero fees ends up with blank
// billed status but no not-billed error: the clear happens after the error
// check.
func TestValidateZeroChargeClearsBilled(t *testing.T) {
	val := NewValidator(RuleConfig{RequireAuthorization: true, AllowZeroFee: true}, codes.DefaultTypeRules(), nil)
	items := []BillingLineItem{
		{CodeType: "CPT4", Authorized: true, Billed: true, Fee: 0, Justified: true},
	}
	res, err := val.Validate(context.Background(), testVisit(true), items, 0)
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if res.Billed {
		t.Error("Billed = true, want false when charges are zero")
	}
	if hasError(res, ErrNotBilled) {
		t.Errorf("errors = %v, want no Not billed", res.Errors)
	}
}

// The authorization and zero-fee toggles act independently: each controls
// only its own error.
func TestValidateToggleIndependence(t *testing.T) {
	items := []BillingLineItem{
		{CodeType: "CPT4", Authorized: false, Billed: true, Fee: 0, Justified: true},
	}
	cases := []struct {
		requireAuth  bool
		allowZeroFee bool
		wantAuth     bool
		wantFee      bool
	}{
		{true, false, true, true},
		{true, true, true, false},
		{false, false, false, true},
		{false, true, false, false},
	}
	for _, tc := range cases {
		cfg := RuleConfig{RequireAuthorization: tc.requireAuth, AllowZeroFee: tc.allowZeroFee}
		val := NewValidator(cfg, codes.DefaultTypeRules(), nil)
		res, err := val.Validate(context.Background(), testVisit(true), items, 0)
		if err != nil {
			t.Fatalf("Validate(%+v): %v", cfg, err)
		}
		if got := hasError(res, ErrNeedsAuth); got != tc.wantAuth {
			t.Errorf("cfg %+v: Needs Auth = %v, want %v", cfg, got, tc.wantAuth)
		}
		if got := hasError(res, ErrMissingFee); got != tc.wantFee {
			t.Errorf("cfg %+v: Missing Fee = %v, want %v", cfg, got, tc.wantFee)
		}
	}
}

type stubCompanion struct {
	required bool
	onFile   bool
	err      error
}

func (s *stubCompanion) CompanionRequired(ctx context.Context, item BillingLineItem) (bool, error) {
	return s.required, s.err
}

func (s *stubCompanion) HasCompanionForm(ctx context.Context, patientID, encounterID uuid.UUID) (bool, error) {
	return s.onFile, s.err
}

func TestValidateCompanionForm(t *testing.T) {
	items := []BillingLineItem{
		{CodeType: "CPT4", Authorized: true, Billed: true, Fee: 5000, Justified: true},
	}
	cfg := RuleConfig{RequireAuthorization: true, EnableCompanionForm: true}

	val := NewValidator(cfg, codes.DefaultTypeRules(), &stubCompanion{required: true, onFile: false})
	res, err := val.Validate(context.Background(), testVisit(true), items, 0)
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if !hasError(res, ErrMissingCompanionForm) {
		t.Errorf("errors = %v, want Companion form is missing", res.Errors)
	}

	val = NewValidator(cfg, codes.DefaultTypeRules(), &stubCompanion{required: true, onFile: true})
	res, err = val.Validate(context.Background(), testVisit(true), items, 0)
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if hasError(res, ErrMissingCompanionForm) {
		t.Errorf("errors = %v, want no companion error when form is on file", res.Errors)
	}

	// Disabled extension skips the checker entirely.
	val = NewValidator(RuleConfig{RequireAuthorization: true}, codes.DefaultTypeRules(), &stubCompanion{required: true})
	res, err = val.Validate(context.Background(), testVisit(true), items, 0)
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if hasError(res, ErrMissingCompanionForm) {
		t.Errorf("errors = %v, want no companion error when extension disabled", res.Errors)
	}
}

func TestValidateCompanionLookupFailure(t *testing.T) {
	wantErr := errors.New("registry unavailable")
	val := NewValidator(
		RuleConfig{RequireAuthorization: true, EnableCompanionForm: true},
		codes.DefaultTypeRules(),
		&stubCompanion{err: wantErr},
	)
	items := []BillingLineItem{
		{CodeType: "CPT4", Authorized: true, Billed: true, Fee: 5000, Justified: true},
	}
	_, err := val.Validate(context.Background(), testVisit(true), items, 0)
	if !errors.Is(err, wantErr) {
		t.Fatalf("Validate error = %v, want %v", err, wantErr)
	}
}
