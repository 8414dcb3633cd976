package profile

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

// Store is the SQLite access layer for rule profiles: per-rule enabled state
// and severity, plus per-unit suppressions.
type Store struct {
	db *sql.DB
}

// NewStore opens a SQLite database at dbPath with WAL mode enabled.
func NewStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=ON&_busy_timeout=30000")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Migrate creates the profile tables. Idempotent.
func (s *Store) Migrate() error {
	_, err := s.db.Exec(schemaDDL)
	if err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

const schemaDDL = `
CREATE TABLE IF NOT EXISTS rules (
  id            TEXT PRIMARY KEY,
  display_name  TEXT NOT NULL DEFAULT '',
  enabled       BOOLEAN NOT NULL DEFAULT TRUE,
  severity      TEXT NOT NULL DEFAULT 'warning'
);

CREATE TABLE IF NOT EXISTS suppressions (
  rule_id       TEXT NOT NULL REFERENCES rules(id),
  unit_name     TEXT NOT NULL,
  PRIMARY KEY (rule_id, unit_name)
);

CREATE INDEX IF NOT EXISTS idx_suppressions_unit ON suppressions(unit_name);
`

// RuleRecord is one row of the rules table.
type RuleRecord struct {
	ID          string
	DisplayName string
	Enabled     bool
	Severity    string
}

// UpsertRule inserts or updates a rule's profile row. An existing row keeps
// its enabled and severity settings; only the display name is refreshed.
func (s *Store) UpsertRule(rec RuleRecord) error {
	_, err := s.db.Exec(`
		INSERT INTO rules (id, display_name, enabled, severity)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET display_name = excluded.display_name`,
		rec.ID, rec.DisplayName, rec.Enabled, rec.Severity)
	if err != nil {
		return fmt.Errorf("upsert rule %s: %w", rec.ID, err)
	}
	return nil
}

// SetEnabled flips a rule's enabled state.
func (s *Store) SetEnabled(ruleID string, enabled bool) error {
	res, err := s.db.Exec(`UPDATE rules SET enabled = ? WHERE id = ?`, enabled, ruleID)
	if err != nil {
		return fmt.Errorf("set enabled %s: %w", ruleID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("set enabled %s: %w", ruleID, err)
	}
	if n == 0 {
		return fmt.Errorf("set enabled: unknown rule %s", ruleID)
	}
	return nil
}

// SetSeverity overrides a rule's severity.
func (s *Store) SetSeverity(ruleID, severity string) error {
	res, err := s.db.Exec(`UPDATE rules SET severity = ? WHERE id = ?`, severity, ruleID)
	if err != nil {
		return fmt.Errorf("set severity %s: %w", ruleID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("set severity %s: %w", ruleID, err)
	}
	if n == 0 {
		return fmt.Errorf("set severity: unknown rule %s", ruleID)
	}
	return nil
}

// ListRules returns every rule row ordered by ID.
func (s *Store) ListRules() ([]RuleRecord, error) {
	rows, err := s.db.Query(`SELECT id, display_name, enabled, severity FROM rules ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list rules: %w", err)
	}
	defer rows.Close()

	var recs []RuleRecord
	for rows.Next() {
		var rec RuleRecord
		if err := rows.Scan(&rec.ID, &rec.DisplayName, &rec.Enabled, &rec.Severity); err != nil {
			return nil, fmt.Errorf("scan rule: %w", err)
		}
		recs = append(recs, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list rules: %w", err)
	}
	return recs, nil
}

// AddSuppression silences a rule for one unit name.
func (s *Store) AddSuppression(ruleID, unitName string) error {
	_, err := s.db.Exec(`
		INSERT OR IGNORE INTO suppressions (rule_id, unit_name) VALUES (?, ?)`,
		ruleID, unitName)
	if err != nil {
		return fmt.Errorf("add suppression %s/%s: %w", ruleID, unitName, err)
	}
	return nil
}

// RemoveSuppression lifts a unit-level suppression.
func (s *Store) RemoveSuppression(ruleID, unitName string) error {
	_, err := s.db.Exec(`
		DELETE FROM suppressions WHERE rule_id = ? AND unit_name = ?`,
		ruleID, unitName)
	if err != nil {
		return fmt.Errorf("remove suppression %s/%s: %w", ruleID, unitName, err)
	}
	return nil
}

// Suppressions returns the suppressed unit names per rule ID.
func (s *Store) Suppressions() (map[string]map[string]struct{}, error) {
	rows, err := s.db.Query(`SELECT rule_id, unit_name FROM suppressions`)
	if err != nil {
		return nil, fmt.Errorf("list suppressions: %w", err)
	}
	defer rows.Close()

	out := make(map[string]map[string]struct{})
	for rows.Next() {
		var ruleID, unitName string
		if err := rows.Scan(&ruleID, &unitName); err != nil {
			return nil, fmt.Errorf("scan suppression: %w", err)
		}
		if out[ruleID] == nil {
			out[ruleID] = make(map[string]struct{})
		}
		out[ruleID][unitName] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list suppressions: %w", err)
	}
	return out, nil
}
