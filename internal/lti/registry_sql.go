package lti

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
)

// SQLRegistry persists platforms in the gateway database (sqlite or
// postgres via database/sql; see internal/db for the schema).
type SQLRegistry struct {
	db *sql.DB
}

func NewSQLRegistry(db *sql.DB) *SQLRegistry { return &SQLRegistry{db: db} }

func (r *SQLRegistry) Register(ctx context.Context, p Platform) (Platform, error) {
	if err := p.Validate(); err != nil {
		return Platform{}, err
	}
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	deps, err := json.Marshal(p.DeploymentIDs)
	if err != nil {
		return Platform{}, err
	}
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO platforms (id, name, issuer, client_id, auth_login_url, auth_token_url, jwks_url, deployment_ids, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT(issuer) DO UPDATE SET
		  name=excluded.name,
		  client_id=excluded.client_id,
		  auth_login_url=excluded.auth_login_url,
		  auth_token_url=excluded.auth_token_url,
		  jwks_url=excluded.jwks_url,
		  deployment_ids=excluded.deployment_ids`,
		p.ID, p.Name, p.Issuer, p.ClientID, p.AuthLoginURL, p.AuthTokenURL, p.JWKSURL, string(deps), time.Now().Unix(),
	)
	if err != nil {
		return Platform{}, err
	}
	return p, nil
}

func (r *SQLRegistry) LookupByIssuer(ctx context.Context, issuer string) (Platform, error) {
	p, err := r.scanOne(r.db.QueryRowContext(ctx,
		`SELECT id, name, issuer, client_id, auth_login_url, auth_token_url, jwks_url, deployment_ids
		   FROM platforms WHERE issuer=$1`, issuer))
	if errors.Is(err, sql.ErrNoRows) {
		return Platform{}, flowWrap(CodeUnknownPlatform, ErrNotFound)
	}
	return p, err
}

func (r *SQLRegistry) Get(ctx context.Context, id string) (Platform, error) {
	p, err := r.scanOne(r.db.QueryRowContext(ctx,
		`SELECT id, name, issuer, client_id, auth_login_url, auth_token_url, jwks_url, deployment_ids
		   FROM platforms WHERE id=$1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return Platform{}, ErrNotFound
	}
	return p, err
}

func (r *SQLRegistry) List(ctx context.Context) ([]Platform, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, issuer, client_id, auth_login_url, auth_token_url, jwks_url, deployment_ids
		   FROM platforms ORDER BY issuer`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Platform
	for rows.Next() {
		p, err := r.scanOne(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *SQLRegistry) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM platforms WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (r *SQLRegistry) scanOne(row rowScanner) (Platform, error) {
	var p Platform
	var deps string
	if err := row.Scan(&p.ID, &p.Name, &p.Issuer, &p.ClientID, &p.AuthLoginURL, &p.AuthTokenURL, &p.JWKSURL, &deps); err != nil {
		return Platform{}, err
	}
	if deps != "" {
		if err := json.Unmarshal([]byte(deps), &p.DeploymentIDs); err != nil {
			return Platform{}, err
		}
	}
	return p, nil
}
