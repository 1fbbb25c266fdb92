package report

import (
	"context"

	"github.com/google/uuid"

	"github.com/ehr/apptrecon/internal/domain/codes"
)

// RuleConfig holds the global toggles affecting row validation.
type RuleConfig struct {
	// RequireAuthorization enables the per-item authorization check. When
	// disabled, the "not billed" condition is reported as "not checked out"
	// instead, matching front desks that check patients out rather than bill.
	RequireAuthorization bool
	// AllowZeroFee suppresses the missing-fee error for fee-bearing items.
	AllowZeroFee bool
	// EnableCompanionForm turns on the related-code registry check that
	// requires a companion clinical form for certain procedures.
	EnableCompanionForm bool
}

// CompanionChecker resolves the feature-flagged companion-form rule. It is
// consulted only when RuleConfig.EnableCompanionForm is set.
type CompanionChecker interface {
	// CompanionRequired reports whether the line item's related-code
	// cross-reference marks the visit as requiring a companion form.
	CompanionRequired(ctx context.Context, item BillingLineItem) (bool, error)
	// HasCompanionForm reports whether the companion form is on file for the
	// encounter.
	HasCompanionForm(ctx context.Context, patientID, encounterID uuid.UUID) (bool, error)
}

// Validator applies the row validation rules to one reconciled visit at a
// time. Data problems become soft errors on the row; only lookup failures
// are returned as errors.
type Validator struct {
	cfg       RuleConfig
	rules     codes.TypeRules
	companion CompanionChecker
}

func NewValidator(cfg RuleConfig, rules codes.TypeRules, companion CompanionChecker) *Validator {
	return &Validator{cfg: cfg, rules: rules, companion: companion}
}

// Validate scans the visit's billing line items and produces its validation
// result. copay is the patient's stored copay adjustment for the encounter
// (negative by convention); it is subtracted from the copay total.
func (val *Validator) Validate(ctx context.Context, visit *ReconciledVisit, items []BillingLineItem, copay Cents) (RowResult, error) {
	res := RowResult{Billed: true}
	companionRequired := false

	for _, item := range items {
		rule := val.rules.Lookup(item.CodeType)

		if rule.FeeBearing && !item.Billed {
			res.Billed = false
		}
		if val.cfg.RequireAuthorization && !item.Authorized {
			res.Errors = append(res.Errors, ErrNeedsAuth)
		}
		if rule.RequiresJustify && !item.Justified {
			res.Errors = append(res.Errors, ErrNeedsJustify)
		}
		if rule.FeeBearing {
			res.Charges += item.Fee
			if item.Fee == 0 && !val.cfg.AllowZeroFee {
				res.Errors = append(res.Errors, ErrMissingFee)
			}
		} else if item.Fee != 0 {
			res.Errors = append(res.Errors, ErrFeeNotAllowed)
		}

		if val.cfg.EnableCompanionForm && val.companion != nil && rule.FeeBearing && !companionRequired {
			required, err := val.companion.CompanionRequired(ctx, item)
			if err != nil {
				return RowResult{}, err
			}
			companionRequired = required
		}
	}

	res.Copays -= copay

	if companionRequired && visit.EncounterID != nil {
		onFile, err := val.companion.HasCompanionForm(ctx, visit.PatientID, *visit.EncounterID)
		if err != nil {
			return RowResult{}, err
		}
		if !onFile {
			res.Errors = append(res.Errors, ErrMissingCompanionForm)
		}
	}

	if !res.Billed {
		if val.cfg.RequireAuthorization {
			res.Errors = append(res.Errors, ErrNotBilled)
		} else {
			res.Errors = append(res.Errors, ErrNotCheckedOut)
		}
	}
	if visit.EncounterID == nil {
		res.Errors = append(res.Errors, ErrNoVisit)
	}

	// A zero-charge encounter cannot count as billed, whatever the item
	// flags say. Cleared after the not-billed check above: such a visit
	// carries no error but reports blank in the billed column.
	if res.Charges == 0 {
		res.Billed = false
	}

	return res, nil
}
