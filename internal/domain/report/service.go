package report

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/ehr/apptrecon/internal/domain/codes"
)

// Service runs the reconciliation job: query the unioned visit stream,
// validate each row against its billing items, and aggregate per-practitioner
// and grand totals.
type Service struct {
	repo     Repository
	codeRepo codes.Repository
	cfg      RuleConfig
	logger   zerolog.Logger
}

func NewService(repo Repository, codeRepo codes.Repository, cfg RuleConfig, logger zerolog.Logger) *Service {
	return &Service{repo: repo, codeRepo: codeRepo, cfg: cfg, logger: logger}
}

// companionChecker implements the feature-flagged companion-form rule on top
// of the related-code cross-reference and the form store.
type companionChecker struct {
	repo     Repository
	codeRepo codes.Repository
	rules    codes.TypeRules
}

func (c *companionChecker) CompanionRequired(ctx context.Context, item BillingLineItem) (bool, error) {
	rule := c.rules.Lookup(item.CodeType)
	if !rule.FeeBearing {
		return false, nil
	}
	related, err := c.codeRepo.RelatedCodes(ctx, rule.RegistryID, item.Code, item.Modifier)
	if err != nil {
		return false, fmt.Errorf("related-code lookup for %s:%s: %w", item.CodeType, item.Code, err)
	}
	return codes.RequiresCompanionForm(related), nil
}

func (c *companionChecker) HasCompanionForm(ctx context.Context, patientID, encounterID uuid.UUID) (bool, error) {
	return c.repo.HasCompanionForm(ctx, patientID, encounterID)
}

// Run executes one reconciliation report. The visit query and the two batch
// lookups are the only per-run queries; the companion-form check adds at
// most one lookup per flagged line item when the extension is enabled.
func (s *Service) Run(ctx context.Context, p Params) (*Report, error) {
	start := time.Now()

	rules, err := s.codeRepo.TypeRules(ctx)
	if err != nil {
		return nil, fmt.Errorf("load code type rules: %w", err)
	}
	if len(rules) == 0 {
		rules = codes.DefaultTypeRules()
	}

	visits, err := s.repo.VisitsInRange(ctx, p.From, p.To, p.FacilityID)
	if err != nil {
		return nil, fmt.Errorf("query reconciled visits: %w", err)
	}

	// The repository orders rows already; re-sorting here keeps subtotal
	// boundaries correct for any Repository implementation.
	sortVisits(visits)

	encounterIDs := make([]uuid.UUID, 0, len(visits))
	for _, v := range visits {
		if v.EncounterID != nil {
			encounterIDs = append(encounterIDs, *v.EncounterID)
		}
	}

	items, err := s.repo.LineItems(ctx, encounterIDs)
	if err != nil {
		return nil, fmt.Errorf("query billing line items: %w", err)
	}
	copays, err := s.repo.Copays(ctx, encounterIDs)
	if err != nil {
		return nil, fmt.Errorf("query copays: %w", err)
	}

	var companion CompanionChecker
	if s.cfg.EnableCompanionForm {
		companion = &companionChecker{repo: s.repo, codeRepo: s.codeRepo, rules: rules}
	}
	validator := NewValidator(s.cfg, rules, companion)

	agg := NewAggregator(p.Details)
	for _, v := range visits {
		key := v.Key()
		res, err := validator.Validate(ctx, v, items[key], copays[key])
		if err != nil {
			return nil, fmt.Errorf("validate visit for patient %s: %w", v.PatientID, err)
		}
		agg.Add(v, res)
	}
	rows, grand := agg.Finish()

	s.logger.Info().
		Time("from", p.From).
		Int("visits", len(visits)).
		Int("encounters", grand.Encounters).
		Dur("elapsed", time.Since(start)).
		Msg("reconciliation report complete")

	return &Report{
		From:        p.From,
		To:          p.To,
		FacilityID:  p.FacilityID,
		Details:     p.Details,
		Rows:        rows,
		Grand:       grand,
		GeneratedAt: time.Now().UTC(),
	}, nil
}

// sortVisits orders visits the way the report presents them: practitioner
// group, then visit date, then appointment time.
func sortVisits(visits []*ReconciledVisit) {
	sort.SliceStable(visits, func(i, j int) bool {
		a, b := visits[i], visits[j]
		if a.Practitioner() != b.Practitioner() {
			return a.Practitioner() < b.Practitioner()
		}
		if !a.VisitDate().Equal(b.VisitDate()) {
			return a.VisitDate().Before(b.VisitDate())
		}
		return a.AppointmentTime < b.AppointmentTime
	})
}
