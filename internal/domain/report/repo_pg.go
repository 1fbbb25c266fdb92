package report

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

type repoPG struct {
	pool *pgxpool.Pool
}

func NewRepo(pool *pgxpool.Pool) Repository {
	return &repoPG{pool: pool}
}

// The visit query emulates a full outer join between appointments and
// encounters with a UNION of the two one-sided joins: branch one walks
// appointments and picks up any matching encounter, branch two walks
// encounters and catches those with no appointment at all. The set union
// deduplicates the matched pairs that appear in both branches.
//
// The facility filter is asymmetric by necessity: an encounter-only row has
// no appointment facility, so branch two filters on the encounter's
// facility instead.
const visitQueryMatched = `
	SELECT
		a.appointment_date,
		to_char(a.start_time, 'HH24:MI') AS appointment_time,
		e.id AS encounter_id,
		COALESCE(e.encounter_date, a.appointment_date) AS encounter_date,
		COALESCE(f.authorized, FALSE) AS authorized,
		p.id AS patient_id,
		p.first_name,
		p.last_name,
		COALESCE(pr.last_name || ', ' || pr.first_name, '') AS practitioner_name
	FROM appointment a
	LEFT OUTER JOIN encounter e
		ON e.encounter_date = a.appointment_date AND e.patient_id = a.patient_id
	LEFT OUTER JOIN encounter_form f
		ON f.patient_id = e.patient_id AND f.encounter_id = e.id
	LEFT OUTER JOIN patient p ON p.id = a.patient_id
	LEFT OUTER JOIN practitioner pr ON pr.id = e.practitioner_id
	WHERE a.status <> 'cancelled'
		AND a.patient_id IS NOT NULL`

const visitQueryUnmatched = `
	SELECT
		a.appointment_date,
		to_char(a.start_time, 'HH24:MI') AS appointment_time,
		e.id AS encounter_id,
		e.encounter_date,
		COALESCE(f.authorized, FALSE) AS authorized,
		p.id AS patient_id,
		p.first_name,
		p.last_name,
		COALESCE(pr.last_name || ', ' || pr.first_name, '') AS practitioner_name
	FROM encounter e
	LEFT OUTER JOIN appointment a
		ON a.appointment_date = e.encounter_date AND a.patient_id = e.patient_id
		AND a.status <> 'cancelled'
	LEFT OUTER JOIN encounter_form f
		ON f.patient_id = e.patient_id AND f.encounter_id = e.id
	LEFT OUTER JOIN patient p ON p.id = e.patient_id
	LEFT OUTER JOIN practitioner pr ON pr.id = e.practitioner_id
	WHERE TRUE`

func (r *repoPG) VisitsInRange(ctx context.Context, from time.Time, to *time.Time, facilityID *uuid.UUID) ([]*ReconciledVisit, error) {
	end := from
	if to != nil {
		end = *to
	}
	args := []interface{}{from, end}

	apptFilter := ` AND a.appointment_date >= $1 AND a.appointment_date <= $2`
	encFilter := ` AND e.encounter_date >= $1 AND e.encounter_date <= $2`
	if facilityID != nil {
		args = append(args, *facilityID)
		apptFilter += ` AND a.facility_id = $3`
		encFilter += ` AND e.facility_id = $3`
	}

	query := `(` + visitQueryMatched + apptFilter + `) UNION (` + visitQueryUnmatched + encFilter + `)
		ORDER BY practitioner_name, COALESCE(appointment_date, encounter_date), appointment_time`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var visits []*ReconciledVisit
	for rows.Next() {
		var v ReconciledVisit
		var apptTime *string
		err := rows.Scan(
			&v.AppointmentDate, &apptTime, &v.EncounterID, &v.EncounterDate,
			&v.Authorized, &v.PatientID, &v.FirstName, &v.LastName,
			&v.PractitionerName,
		)
		if err != nil {
			return nil, err
		}
		if apptTime != nil {
			v.AppointmentTime = *apptTime
		}
		visits = append(visits, &v)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return visits, nil
}

func (r *repoPG) LineItems(ctx context.Context, encounterIDs []uuid.UUID) (map[VisitKey][]BillingLineItem, error) {
	items := make(map[VisitKey][]BillingLineItem)
	if len(encounterIDs) == 0 {
		return items, nil
	}

	rows, err := r.pool.Query(ctx, `
		SELECT patient_id, encounter_id, code_type, code, COALESCE(modifier, ''),
			authorized, billed, fee_cents, justified
		FROM billing_line_item
		WHERE active AND encounter_id = ANY($1)
		ORDER BY patient_id, encounter_id`, encounterIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var key VisitKey
		var item BillingLineItem
		err := rows.Scan(
			&key.PatientID, &key.EncounterID, &item.CodeType, &item.Code,
			&item.Modifier, &item.Authorized, &item.Billed, &item.Fee,
			&item.Justified,
		)
		if err != nil {
			return nil, err
		}
		items[key] = append(items[key], item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repoPG) Copays(ctx context.Context, encounterIDs []uuid.UUID) (map[VisitKey]Cents, error) {
	copays := make(map[VisitKey]Cents)
	if len(encounterIDs) == 0 {
		return copays, nil
	}

	rows, err := r.pool.Query(ctx, `
		SELECT patient_id, encounter_id, COALESCE(SUM(amount_cents), 0)
		FROM patient_copay
		WHERE encounter_id = ANY($1)
		GROUP BY patient_id, encounter_id`, encounterIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var key VisitKey
		var amount int64
		if err := rows.Scan(&key.PatientID, &key.EncounterID, &amount); err != nil {
			return nil, err
		}
		copays[key] = Cents(amount)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return copays, nil
}

func (r *repoPG) HasCompanionForm(ctx context.Context, patientID, encounterID uuid.UUID) (bool, error) {
	var count int
	err := r.pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM companion_form
		WHERE patient_id = $1 AND encounter_id = $2 AND NOT deleted`,
		patientID, encounterID).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
