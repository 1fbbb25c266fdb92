package codes

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type repoPG struct {
	pool *pgxpool.Pool
}

func NewRepo(pool *pgxpool.Pool) Repository {
	return &repoPG{pool: pool}
}

func (r *repoPG) TypeRules(ctx context.Context) (TypeRules, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT key, registry_id, fee_bearing, requires_justify
		FROM code_type`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	rules := make(TypeRules)
	for rows.Next() {
		var tr TypeRule
		if err := rows.Scan(&tr.Key, &tr.RegistryID, &tr.FeeBearing, &tr.RequiresJustify); err != nil {
			return nil, err
		}
		rules[tr.Key] = tr
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return rules, nil
}

func (r *repoPG) RelatedCodes(ctx context.Context, registryID int, code string, modifier string) (string, error) {
	var related string
	var err error
	if modifier != "" {
		err = r.pool.QueryRow(ctx, `
			SELECT related_code FROM code
			WHERE code_type = $1 AND code = $2 AND modifier = $3
			LIMIT 1`, registryID, code, modifier).Scan(&related)
	} else {
		err = r.pool.QueryRow(ctx, `
			SELECT related_code FROM code
			WHERE code_type = $1 AND code = $2 AND (modifier IS NULL OR modifier = '')
			LIMIT 1`, registryID, code).Scan(&related)
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return related, nil
}
