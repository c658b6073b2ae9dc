package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/acbay/co2survey/internal/footprint"
	"github.com/acbay/co2survey/internal/models"
)

// SQLStore persists users, factors, surveys and the audit log in sqlite or
// postgres. Queries are written with ? placeholders and rebound per driver.
type SQLStore struct {
	db     *sql.DB
	driver Driver
}

func NewSQLStore(db *sql.DB, driver Driver) (*SQLStore, error) {
	if db == nil {
		return nil, errors.New("nil db")
	}
	return &SQLStore{db: db, driver: driver}, nil
}

func (s *SQLStore) Close() error { return s.db.Close() }

func (s *SQLStore) Ping(ctx context.Context) error { return s.db.PingContext(ctx) }

func (s *SQLStore) rebind(q string) string {
	if s.driver != DriverPostgres {
		return q
	}
	var b strings.Builder
	n := 0
	for _, r := range q {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func (s *SQLStore) exec(ctx context.Context, e execer, q string, args ...any) error {
	_, err := e.ExecContext(ctx, s.rebind(q), args...)
	return err
}

func (s *SQLStore) withTx(ctx context.Context, fn func(*sql.Tx) error) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			_ = tx.Rollback()
			return
		}
		if e := tx.Commit(); e != nil {
			err = fmt.Errorf("commit: %w", e)
		}
	}()
	return fn(tx)
}

func micros(t time.Time) int64 { return t.UTC().UnixMicro() }

func fromMicros(v int64) time.Time { return time.UnixMicro(v).UTC() }

// users

const userColumns = "id, email, name, pass_hash, role, created_at"

type scanner interface {
	Scan(dest ...any) error
}

func scanUser(sc scanner) (*models.User, error) {
	var (
		u       models.User
		role    string
		created int64
	)
	if err := sc.Scan(&u.ID, &u.Email, &u.Name, &u.PassHash, &role, &created); err != nil {
		return nil, err
	}
	u.Role = models.Role(role)
	u.CreatedAt = fromMicros(created)
	return &u, nil
}

func (s *SQLStore) AddUser(ctx context.Context, u *models.User) error {
	err := s.exec(ctx, s.db, "INSERT INTO users ("+userColumns+") VALUES (?, ?, ?, ?, ?, ?)",
		u.ID, u.Email, u.Name, u.PassHash, string(u.Role), micros(u.CreatedAt))
	if err != nil {
		return fmt.Errorf("add user: %w", err)
	}
	return nil
}

func (s *SQLStore) getUser(ctx context.Context, where string, arg any) (*models.User, error) {
	row := s.db.QueryRowContext(ctx, s.rebind("SELECT "+userColumns+" FROM users WHERE "+where), arg)
	u, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return u, nil
}

func (s *SQLStore) GetUser(ctx context.Context, id string) (*models.User, error) {
	return s.getUser(ctx, "id = ?", id)
}

func (s *SQLStore) FindUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.getUser(ctx, "lower(email) = lower(?)", strings.TrimSpace(email))
}

func (s *SQLStore) ListUsers(ctx context.Context) ([]*models.User, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT "+userColumns+" FROM users ORDER BY email")
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()
	out := []*models.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

func (s *SQLStore) UpdateUser(ctx context.Context, u *models.User) error {
	res, err := s.db.ExecContext(ctx, s.rebind("UPDATE users SET email = ?, name = ?, pass_hash = ?, role = ? WHERE id = ?"),
		u.Email, u.Name, u.PassHash, string(u.Role), u.ID)
	if err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("update user %s: %w", u.ID, sql.ErrNoRows)
	}
	return nil
}

func (s *SQLStore) CountUsersByRole(ctx context.Context, roles ...models.Role) (int, error) {
	if len(roles) == 0 {
		return 0, nil
	}
	args := make([]any, len(roles))
	for i, r := range roles {
		args[i] = string(r)
	}
	q := "SELECT COUNT(*) FROM users WHERE role IN (?" + strings.Repeat(", ?", len(roles)-1) + ")"
	var n int
	if err := s.db.QueryRowContext(ctx, s.rebind(q), args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count users: %w", err)
	}
	return n, nil
}

// emission factors

func (s *SQLStore) ReplaceFactors(ctx context.Context, rows []*models.EmissionFactor) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		if err := s.exec(ctx, tx, "DELETE FROM emission_factors"); err != nil {
			return fmt.Errorf("clear factors: %w", err)
		}
		stmt, err := tx.PrepareContext(ctx, s.rebind(
			"INSERT INTO emission_factors (id, batch_id, category, label, value, unit, source, created_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?)"))
		if err != nil {
			return err
		}
		defer stmt.Close()
		for _, f := range rows {
			if _, err := stmt.ExecContext(ctx, f.ID, f.BatchID, string(f.Category), f.Label, f.Value, f.Unit, f.Source, micros(f.CreatedAt)); err != nil {
				return fmt.Errorf("insert factor %q: %w", f.Label, err)
			}
		}
		return nil
	})
}

func (s *SQLStore) ListFactors(ctx context.Context) ([]*models.EmissionFactor, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, batch_id, category, label, value, unit, source, created_at FROM emission_factors ORDER BY created_at, id")
	if err != nil {
		return nil, fmt.Errorf("list factors: %w", err)
	}
	defer rows.Close()
	out := []*models.EmissionFactor{}
	for rows.Next() {
		var (
			f        models.EmissionFactor
			category string
			created  int64
		)
		if err := rows.Scan(&f.ID, &f.BatchID, &category, &f.Label, &f.Value, &f.Unit, &f.Source, &created); err != nil {
			return nil, fmt.Errorf("scan factor: %w", err)
		}
		f.Category = footprint.Category(category)
		f.CreatedAt = fromMicros(created)
		out = append(out, &f)
	}
	return out, rows.Err()
}

// surveys

func (s *SQLStore) insertSurvey(ctx context.Context, e execer, sv *models.Survey) error {
	inputs, err := json.Marshal(sv.Inputs)
	if err != nil {
		return fmt.Errorf("encode inputs: %w", err)
	}
	var total sql.NullFloat64
	if sv.TotalCo2Kg != nil {
		total = sql.NullFloat64{Float64: *sv.TotalCo2Kg, Valid: true}
	}
	return s.exec(ctx, e, "INSERT INTO surveys (id, owner_id, created_at, inputs_json, total_co2_kg) VALUES (?, ?, ?, ?, ?)",
		sv.ID, sv.OwnerID, micros(sv.CreatedAt), string(inputs), total)
}

func (s *SQLStore) AddSurvey(ctx context.Context, sv *models.Survey) error {
	if err := s.insertSurvey(ctx, s.db, sv); err != nil {
		return fmt.Errorf("add survey: %w", err)
	}
	return nil
}

func (s *SQLStore) ReplaceSurveys(ctx context.Context, ownerID string, rows []*models.Survey) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		if err := s.exec(ctx, tx, "DELETE FROM surveys WHERE owner_id = ?", ownerID); err != nil {
			return fmt.Errorf("clear surveys: %w", err)
		}
		for _, sv := range rows {
			if err := s.insertSurvey(ctx, tx, sv); err != nil {
				return fmt.Errorf("insert survey: %w", err)
			}
		}
		return nil
	})
}

func (s *SQLStore) listSurveys(ctx context.Context, where string, args ...any) ([]*models.Survey, error) {
	q := "SELECT id, owner_id, created_at, inputs_json, total_co2_kg FROM surveys"
	if where != "" {
		q += " WHERE " + where
	}
	q += " ORDER BY created_at DESC, id DESC"
	rows, err := s.db.QueryContext(ctx, s.rebind(q), args...)
	if err != nil {
		return nil, fmt.Errorf("list surveys: %w", err)
	}
	defer rows.Close()
	out := []*models.Survey{}
	for rows.Next() {
		var (
			sv      models.Survey
			created int64
			inputs  string
			total   sql.NullFloat64
		)
		if err := rows.Scan(&sv.ID, &sv.OwnerID, &created, &inputs, &total); err != nil {
			return nil, fmt.Errorf("scan survey: %w", err)
		}
		if err := json.Unmarshal([]byte(inputs), &sv.Inputs); err != nil {
			return nil, fmt.Errorf("decode survey %s: %w", sv.ID, err)
		}
		sv.CreatedAt = fromMicros(created)
		if total.Valid {
			v := total.Float64
			sv.TotalCo2Kg = &v
		}
		out = append(out, &sv)
	}
	return out, rows.Err()
}

func (s *SQLStore) ListSurveys(ctx context.Context) ([]*models.Survey, error) {
	return s.listSurveys(ctx, "")
}

func (s *SQLStore) ListSurveysByOwner(ctx context.Context, ownerID string) ([]*models.Survey, error) {
	return s.listSurveys(ctx, "owner_id = ?", ownerID)
}

func (s *SQLStore) UpdateSurveyTotals(ctx context.Context, totals map[string]float64) error {
	if len(totals) == 0 {
		return nil
	}
	return s.withTx(ctx, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, s.rebind("UPDATE surveys SET total_co2_kg = ? WHERE id = ?"))
		if err != nil {
			return err
		}
		defer stmt.Close()
		for id, total := range totals {
			if _, err := stmt.ExecContext(ctx, total, id); err != nil {
				return fmt.Errorf("update total %s: %w", id, err)
			}
		}
		return nil
	})
}

// audit

func (s *SQLStore) AddAudit(ctx context.Context, e models.AuditEntry) error {
	err := s.exec(ctx, s.db, "INSERT INTO audit_log (at, actor, action, target, note) VALUES (?, ?, ?, ?, ?)",
		micros(e.Time), e.Actor, e.Action, e.Target, e.Note)
	if err != nil {
		return fmt.Errorf("add audit: %w", err)
	}
	return nil
}

func (s *SQLStore) ListAudit(ctx context.Context) ([]models.AuditEntry, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT at, actor, action, target, note FROM audit_log ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("list audit: %w", err)
	}
	defer rows.Close()
	out := []models.AuditEntry{}
	for rows.Next() {
		var (
			e  models.AuditEntry
			at int64
		)
		if err := rows.Scan(&at, &e.Actor, &e.Action, &e.Target, &e.Note); err != nil {
			return nil, fmt.Errorf("scan audit: %w", err)
		}
		e.Time = fromMicros(at)
		out = append(out, e)
	}
	return out, rows.Err()
}
