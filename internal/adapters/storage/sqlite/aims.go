package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/livingsystems/orient/internal/domain"
)

// ─────────────────────────────────────────
// AimStore
// ─────────────────────────────────────────

// CreateAim supersedes any active aim and inserts the new one in a single
// transaction, so readers always see exactly one active aim.
func (s *Store) CreateAim(ctx context.Context, aim *domain.Aim) (*domain.Aim, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("create aim: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`UPDATE aims SET status = ? WHERE status = ?`,
		string(domain.AimSuperseded), string(domain.AimActive)); err != nil {
		return nil, fmt.Errorf("supersede aim: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO aims (id, heart_wish, aim_statement, start_date, end_date, accountability_person, status, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		string(aim.ID), aim.HeartWish, aim.Statement, aim.StartDate, aim.EndDate,
		aim.AccountabilityPerson, string(aim.Status), formatTime(aim.CreatedAt)); err != nil {
		return nil, fmt.Errorf("insert aim: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("create aim: %w", err)
	}

	stored := *aim
	return &stored, nil
}

func (s *Store) UpdateAim(ctx context.Context, id domain.AimID, fields domain.AimUpdate) error {
	var (
		sets []string
		args []any
	)
	if fields.HeartWish != nil {
		sets = append(sets, "heart_wish = ?")
		args = append(args, *fields.HeartWish)
	}
	if fields.Statement != nil {
		sets = append(sets, "aim_statement = ?")
		args = append(args, *fields.Statement)
	}
	if fields.EndDate != nil {
		sets = append(sets, "end_date = ?")
		args = append(args, *fields.EndDate)
	}
	if fields.AccountabilityPerson != nil {
		sets = append(sets, "accountability_person = ?")
		args = append(args, *fields.AccountabilityPerson)
	}
	if fields.Status != nil {
		sets = append(sets, "status = ?")
		args = append(args, string(*fields.Status))
	}
	if len(sets) == 0 {
		return nil
	}
	args = append(args, string(id))

	res, err := s.db.ExecContext(ctx,
		"UPDATE aims SET "+strings.Join(sets, ", ")+" WHERE id = ?", args...)
	if err != nil {
		return fmt.Errorf("update aim: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrAimNotFound
	}
	return nil
}

func (s *Store) CurrentAim(ctx context.Context) (*domain.Aim, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, heart_wish, aim_statement, start_date, end_date, accountability_person, status, created_at
		 FROM aims WHERE status = ? ORDER BY created_at DESC LIMIT 1`,
		string(domain.AimActive))
	aim, err := scanAim(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("current aim: %w", err)
	}
	return aim, nil
}

func (s *Store) ListAims(ctx context.Context, limit int) ([]*domain.Aim, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, heart_wish, aim_statement, start_date, end_date, accountability_person, status, created_at
		 FROM aims ORDER BY created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list aims: %w", err)
	}
	defer rows.Close()

	var out []*domain.Aim
	for rows.Next() {
		aim, err := scanAim(rows)
		if err != nil {
			return nil, fmt.Errorf("scan aim: %w", err)
		}
		out = append(out, aim)
	}
	return out, rows.Err()
}

func scanAim(row rowScanner) (*domain.Aim, error) {
	var aim domain.Aim
	var id, status, createdAt string
	err := row.Scan(&id, &aim.HeartWish, &aim.Statement, &aim.StartDate,
		&aim.EndDate, &aim.AccountabilityPerson, &status, &createdAt)
	if err != nil {
		return nil, err
	}
	aim.ID = domain.AimID(id)
	aim.Status = domain.AimStatus(status)
	aim.CreatedAt = parseTime(createdAt)
	return &aim, nil
}

func (s *Store) AddAimReflection(ctx context.Context, r *domain.AimReflection) (*domain.AimReflection, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO aim_reflections (aim_id, date, reflection, practice_happened, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		string(r.AimID), r.Date, r.Reflection, boolToInt(r.PracticeHappened), formatTime(r.CreatedAt))
	if err != nil {
		return nil, fmt.Errorf("add aim reflection: %w", err)
	}
	stored := *r
	stored.ID, _ = res.LastInsertId()
	return &stored, nil
}

func (s *Store) ListAimReflections(ctx context.Context, aimID domain.AimID, limit int) ([]*domain.AimReflection, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, aim_id, date, reflection, practice_happened, created_at
		 FROM aim_reflections WHERE aim_id = ? ORDER BY date DESC, id DESC LIMIT ?`,
		string(aimID), limit)
	if err != nil {
		return nil, fmt.Errorf("list aim reflections: %w", err)
	}
	defer rows.Close()

	var out []*domain.AimReflection
	for rows.Next() {
		var r domain.AimReflection
		var aid, createdAt string
		var practiced int
		if err := rows.Scan(&r.ID, &aid, &r.Date, &r.Reflection, &practiced, &createdAt); err != nil {
			return nil, fmt.Errorf("scan aim reflection: %w", err)
		}
		r.AimID = domain.AimID(aid)
		r.PracticeHappened = practiced != 0
		r.CreatedAt = parseTime(createdAt)
		out = append(out, &r)
	}
	return out, rows.Err()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// ─────────────────────────────────────────
// OrientationStore
// ─────────────────────────────────────────

func (s *Store) GetOrientation(ctx context.Context) (*domain.Orientation, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT content, updated_at FROM orientation WHERE id = 1`)

	var o domain.Orientation
	var updatedAt string
	err := row.Scan(&o.Content, &updatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get orientation: %w", err)
	}
	o.UpdatedAt = parseTime(updatedAt)
	return &o, nil
}

func (s *Store) SetOrientation(ctx context.Context, content string) (*domain.Orientation, error) {
	now := s.now()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO orientation (id, content, updated_at) VALUES (1, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET content = excluded.content, updated_at = excluded.updated_at`,
		content, formatTime(now))
	if err != nil {
		return nil, fmt.Errorf("set orientation: %w", err)
	}
	return &domain.Orientation{Content: content, UpdatedAt: now}, nil
}

// ─────────────────────────────────────────
// TokenStore
// ─────────────────────────────────────────

func (s *Store) GoogleTokens(ctx context.Context) ([]*domain.GoogleToken, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT account_email, account_label, access_token, refresh_token, expiry, updated_at
		 FROM google_tokens ORDER BY account_email ASC`)
	if err != nil {
		return nil, fmt.Errorf("list google tokens: %w", err)
	}
	defer rows.Close()

	var out []*domain.GoogleToken
	for rows.Next() {
		var tok domain.GoogleToken
		var expiry sql.NullString
		var updatedAt string
		if err := rows.Scan(&tok.AccountEmail, &tok.AccountLabel, &tok.AccessToken,
			&tok.RefreshToken, &expiry, &updatedAt); err != nil {
			return nil, fmt.Errorf("scan google token: %w", err)
		}
		if expiry.Valid {
			tok.Expiry = parseTime(expiry.String)
		}
		tok.UpdatedAt = parseTime(updatedAt)
		out = append(out, &tok)
	}
	return out, rows.Err()
}

func (s *Store) SaveGoogleToken(ctx context.Context, tok *domain.GoogleToken) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO google_tokens (account_email, account_label, access_token, refresh_token, expiry, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(account_email) DO UPDATE SET
		   account_label = excluded.account_label,
		   access_token = excluded.access_token,
		   refresh_token = excluded.refresh_token,
		   expiry = excluded.expiry,
		   updated_at = excluded.updated_at`,
		tok.AccountEmail, tok.AccountLabel, tok.AccessToken, tok.RefreshToken,
		formatTime(tok.Expiry), formatTime(s.now()))
	if err != nil {
		return fmt.Errorf("save google token: %w", err)
	}
	return nil
}

func (s *Store) UpdateGoogleAccessToken(ctx context.Context, email, accessToken string, expiry domain.Timestamp) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE google_tokens SET access_token = ?, expiry = ?, updated_at = ? WHERE account_email = ?`,
		accessToken, formatTime(expiry), formatTime(s.now()), email)
	if err != nil {
		return fmt.Errorf("update google token: %w", err)
	}
	return nil
}

func (s *Store) DeleteGoogleToken(ctx context.Context, email string) error {
	if _, err := s.db.ExecContext(ctx,
		`DELETE FROM google_tokens WHERE account_email = ?`, email); err != nil {
		return fmt.Errorf("delete google token: %w", err)
	}
	return nil
}

func (s *Store) OuraToken(ctx context.Context) (*domain.OuraToken, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT access_token, refresh_token, expiry FROM oura_tokens WHERE id = 1`)

	var tok domain.OuraToken
	var expiry sql.NullString
	err := row.Scan(&tok.AccessToken, &tok.RefreshToken, &expiry)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get oura token: %w", err)
	}
	if expiry.Valid {
		tok.Expiry = parseTime(expiry.String)
	}
	return &tok, nil
}

func (s *Store) SaveOuraToken(ctx context.Context, tok *domain.OuraToken) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO oura_tokens (id, access_token, refresh_token, expiry) VALUES (1, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		   access_token = excluded.access_token,
		   refresh_token = excluded.refresh_token,
		   expiry = excluded.expiry`,
		tok.AccessToken, tok.RefreshToken, formatTime(tok.Expiry))
	if err != nil {
		return fmt.Errorf("save oura token: %w", err)
	}
	return nil
}

func (s *Store) DeleteOuraToken(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM oura_tokens WHERE id = 1`); err != nil {
		return fmt.Errorf("delete oura token: %w", err)
	}
	return nil
}
