package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/roles-cli/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite. It serves local
// and offline runs; the conditional-upsert semantics match Postgres.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS deals (
	id            TEXT NOT NULL,
	workspace_id  TEXT NOT NULL,
	account_id    TEXT NOT NULL,
	name          TEXT NOT NULL DEFAULT '',
	stage         TEXT NOT NULL DEFAULT '',
	closed        INTEGER NOT NULL DEFAULT 0,
	custom_fields TEXT,
	updated_at    DATETIME NOT NULL DEFAULT (datetime('now')),
	PRIMARY KEY (workspace_id, id)
);

CREATE INDEX IF NOT EXISTS idx_deals_account ON deals(workspace_id, account_id);

CREATE TABLE IF NOT EXISTS contacts (
	id           TEXT NOT NULL,
	workspace_id TEXT NOT NULL,
	account_id   TEXT NOT NULL DEFAULT '',
	crm_id       TEXT,
	first_name   TEXT NOT NULL DEFAULT '',
	last_name    TEXT NOT NULL DEFAULT '',
	email        TEXT NOT NULL DEFAULT '',
	title        TEXT,
	seniority    TEXT,
	department   TEXT,
	updated_at   DATETIME NOT NULL DEFAULT (datetime('now')),
	PRIMARY KEY (workspace_id, id)
);

CREATE INDEX IF NOT EXISTS idx_contacts_email ON contacts(workspace_id, email);
CREATE INDEX IF NOT EXISTS idx_contacts_account ON contacts(workspace_id, account_id);

CREATE TABLE IF NOT EXISTS deal_contacts (
	workspace_id TEXT NOT NULL,
	deal_id      TEXT NOT NULL,
	contact_id   TEXT NOT NULL,
	PRIMARY KEY (workspace_id, deal_id, contact_id)
);

CREATE TABLE IF NOT EXISTS activities (
	id           TEXT PRIMARY KEY,
	workspace_id TEXT NOT NULL,
	deal_id      TEXT NOT NULL,
	contact_id   TEXT NOT NULL,
	type         TEXT NOT NULL,
	occurred_at  DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_activities_deal ON activities(workspace_id, deal_id);

CREATE TABLE IF NOT EXISTS conversations (
	id           TEXT PRIMARY KEY,
	workspace_id TEXT NOT NULL,
	deal_id      TEXT NOT NULL,
	participants TEXT NOT NULL DEFAULT '[]',
	occurred_at  DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_conversations_deal ON conversations(workspace_id, deal_id);

CREATE TABLE IF NOT EXISTS field_role_mappings (
	workspace_id TEXT NOT NULL,
	field_name   TEXT NOT NULL,
	role         TEXT NOT NULL,
	PRIMARY KEY (workspace_id, field_name)
);

CREATE TABLE IF NOT EXISTS role_assignments (
	id                  TEXT PRIMARY KEY,
	workspace_id        TEXT NOT NULL,
	deal_id             TEXT NOT NULL,
	contact_id          TEXT NOT NULL,
	source              TEXT NOT NULL,
	buying_role         TEXT NOT NULL DEFAULT 'unknown',
	role_source         TEXT NOT NULL DEFAULT '',
	role_confidence     REAL,
	seniority_verified  TEXT,
	department_verified TEXT,
	enrichment_status   TEXT,
	created_at          DATETIME NOT NULL DEFAULT (datetime('now')),
	updated_at          DATETIME NOT NULL DEFAULT (datetime('now')),
	UNIQUE (workspace_id, deal_id, contact_id, source)
);

CREATE INDEX IF NOT EXISTS idx_role_assignments_pair ON role_assignments(workspace_id, deal_id, contact_id);
CREATE INDEX IF NOT EXISTS idx_role_assignments_contact ON role_assignments(workspace_id, contact_id);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) ListDeals(ctx context.Context, workspaceID string, filter DealFilter) ([]model.Deal, error) {
	query := `SELECT id, workspace_id, account_id, name, stage, closed, custom_fields, updated_at FROM deals WHERE workspace_id = ?`
	args := []any{workspaceID}

	if filter.DealID != "" {
		query += ` AND id = ?`
		args = append(args, filter.DealID)
	}
	if !filter.IncludeClosed {
		query += ` AND closed = 0`
	}
	query += ` ORDER BY updated_at DESC`

	return s.collectDeals(ctx, query, args...)
}

func (s *SQLiteStore) ListAccountDeals(ctx context.Context, workspaceID, accountID string) ([]model.Deal, error) {
	return s.collectDeals(ctx,
		`SELECT id, workspace_id, account_id, name, stage, closed, custom_fields, updated_at
		 FROM deals WHERE workspace_id = ? AND account_id = ? ORDER BY updated_at DESC`,
		workspaceID, accountID,
	)
}

func (s *SQLiteStore) collectDeals(ctx context.Context, query string, args ...any) ([]model.Deal, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list deals")
	}
	defer rows.Close()

	var deals []model.Deal
	for rows.Next() {
		var d model.Deal
		var fieldsJSON sql.NullString
		if err := rows.Scan(&d.ID, &d.WorkspaceID, &d.AccountID, &d.Name, &d.Stage, &d.Closed, &fieldsJSON, &d.UpdatedAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan deal")
		}
		if fieldsJSON.Valid && fieldsJSON.String != "" {
			if err := json.Unmarshal([]byte(fieldsJSON.String), &d.CustomFields); err != nil {
				return nil, eris.Wrap(err, "sqlite: unmarshal custom fields")
			}
		}
		deals = append(deals, d)
	}
	return deals, eris.Wrap(rows.Err(), "sqlite: list deals iterate")
}

const sqliteContactColumns = `id, workspace_id, account_id, crm_id, first_name, last_name, email, title, seniority, department, updated_at`

func (s *SQLiteStore) collectContacts(ctx context.Context, query string, args ...any) ([]model.Contact, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var contacts []model.Contact
	for rows.Next() {
		c, err := scanSQLiteContact(rows.Scan)
		if err != nil {
			return nil, err
		}
		contacts = append(contacts, *c)
	}
	return contacts, rows.Err()
}

func scanSQLiteContact(scan func(dest ...any) error) (*model.Contact, error) {
	var c model.Contact
	var crmID, title, seniority, department sql.NullString
	if err := scan(&c.ID, &c.WorkspaceID, &c.AccountID, &crmID, &c.FirstName, &c.LastName, &c.Email, &title, &seniority, &department, &c.UpdatedAt); err != nil {
		return nil, err
	}
	c.CRMID = crmID.String
	c.Title = title.String
	c.Seniority = seniority.String
	c.Department = department.String
	return &c, nil
}

func (s *SQLiteStore) ListDealContacts(ctx context.Context, workspaceID, dealID string) ([]model.Contact, error) {
	contacts, err := s.collectContacts(ctx,
		`SELECT c.id, c.workspace_id, c.account_id, c.crm_id, c.first_name, c.last_name, c.email, c.title, c.seniority, c.department, c.updated_at
		 FROM contacts c
		 JOIN deal_contacts dc ON dc.workspace_id = c.workspace_id AND dc.contact_id = c.id
		 WHERE dc.workspace_id = ? AND dc.deal_id = ?`,
		workspaceID, dealID,
	)
	return contacts, eris.Wrap(err, "sqlite: list deal contacts")
}

func (s *SQLiteStore) ListAccountContacts(ctx context.Context, workspaceID, accountID string, limit int) ([]model.Contact, error) {
	if limit <= 0 {
		limit = 100
	}
	contacts, err := s.collectContacts(ctx,
		`SELECT `+sqliteContactColumns+` FROM contacts
		 WHERE workspace_id = ? AND account_id = ?
		 ORDER BY updated_at DESC LIMIT ?`,
		workspaceID, accountID, limit,
	)
	return contacts, eris.Wrap(err, "sqlite: list account contacts")
}

func (s *SQLiteStore) GetContact(ctx context.Context, workspaceID, contactID string) (*model.Contact, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+sqliteContactColumns+` FROM contacts WHERE workspace_id = ? AND id = ?`,
		workspaceID, contactID,
	)
	c, err := scanSQLiteContact(row.Scan)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, eris.Wrapf(err, "sqlite: get contact %s", contactID)
	}
	return c, nil
}

func (s *SQLiteStore) FindContactByEmail(ctx context.Context, workspaceID, email string) (*model.Contact, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+sqliteContactColumns+` FROM contacts WHERE workspace_id = ? AND lower(email) = lower(?)`,
		workspaceID, email,
	)
	c, err := scanSQLiteContact(row.Scan)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, eris.Wrap(err, "sqlite: find contact by email")
	}
	return c, nil
}

func (s *SQLiteStore) FindContactByCRMID(ctx context.Context, workspaceID, crmID string) (*model.Contact, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+sqliteContactColumns+` FROM contacts WHERE workspace_id = ? AND crm_id = ?`,
		workspaceID, crmID,
	)
	c, err := scanSQLiteContact(row.Scan)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, eris.Wrap(err, "sqlite: find contact by crm id")
	}
	return c, nil
}

func (s *SQLiteStore) FindContactsByName(ctx context.Context, workspaceID, firstName, lastName, accountID string) ([]model.Contact, error) {
	query := `SELECT ` + sqliteContactColumns + ` FROM contacts
	 WHERE workspace_id = ? AND lower(first_name) = lower(?) AND lower(last_name) = lower(?)`
	args := []any{workspaceID, firstName, lastName}
	if accountID != "" {
		query += ` AND account_id = ?`
		args = append(args, accountID)
	}

	contacts, err := s.collectContacts(ctx, query, args...)
	return contacts, eris.Wrap(err, "sqlite: find contacts by name")
}

func (s *SQLiteStore) ListActivities(ctx context.Context, workspaceID, dealID string) ([]model.Activity, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, workspace_id, deal_id, contact_id, type, occurred_at FROM activities
		 WHERE workspace_id = ? AND deal_id = ? ORDER BY occurred_at`,
		workspaceID, dealID,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list activities")
	}
	defer rows.Close()

	var acts []model.Activity
	for rows.Next() {
		var a model.Activity
		if err := rows.Scan(&a.ID, &a.WorkspaceID, &a.DealID, &a.ContactID, &a.Type, &a.OccurredAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan activity")
		}
		acts = append(acts, a)
	}
	return acts, eris.Wrap(rows.Err(), "sqlite: list activities iterate")
}

func (s *SQLiteStore) ListConversations(ctx context.Context, workspaceID, dealID string) ([]model.Conversation, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, workspace_id, deal_id, participants, occurred_at FROM conversations
		 WHERE workspace_id = ? AND deal_id = ? ORDER BY occurred_at`,
		workspaceID, dealID,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list conversations")
	}
	defer rows.Close()

	var convs []model.Conversation
	for rows.Next() {
		var c model.Conversation
		var participantsJSON string
		if err := rows.Scan(&c.ID, &c.WorkspaceID, &c.DealID, &participantsJSON, &c.OccurredAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan conversation")
		}
		if participantsJSON != "" {
			if err := json.Unmarshal([]byte(participantsJSON), &c.Participants); err != nil {
				return nil, eris.Wrap(err, "sqlite: unmarshal participants")
			}
		}
		convs = append(convs, c)
	}
	return convs, eris.Wrap(rows.Err(), "sqlite: list conversations iterate")
}

func (s *SQLiteStore) HasConversations(ctx context.Context, workspaceID string) (bool, error) {
	var exists int
	err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM conversations WHERE workspace_id = ?)`,
		workspaceID,
	).Scan(&exists)
	return exists == 1, eris.Wrap(err, "sqlite: has conversations")
}

func (s *SQLiteStore) FieldRoleMappings(ctx context.Context, workspaceID string) (map[string]model.Role, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT field_name, role FROM field_role_mappings WHERE workspace_id = ?`,
		workspaceID,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: field role mappings")
	}
	defer rows.Close()

	mappings := make(map[string]model.Role)
	for rows.Next() {
		var name, role string
		if err := rows.Scan(&name, &role); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan field mapping")
		}
		mappings[name] = model.Role(role)
	}
	return mappings, eris.Wrap(rows.Err(), "sqlite: field role mappings iterate")
}

const sqliteAssignmentColumns = `id, workspace_id, deal_id, contact_id, source, buying_role, role_source, role_confidence, seniority_verified, department_verified, enrichment_status, created_at, updated_at`

func scanSQLiteAssignment(scan func(dest ...any) error) (*model.RoleAssignment, error) {
	var a model.RoleAssignment
	var conf sql.NullFloat64
	var seniority, department, status sql.NullString
	if err := scan(&a.ID, &a.WorkspaceID, &a.DealID, &a.ContactID, &a.Source,
		&a.BuyingRole, &a.RoleSource, &conf, &seniority, &department, &status,
		&a.CreatedAt, &a.UpdatedAt); err != nil {
		return nil, err
	}
	a.RoleConfidence = conf.Float64
	a.SeniorityVerified = seniority.String
	a.DepartmentVerified = department.String
	a.EnrichmentStatus = status.String
	return &a, nil
}

func (s *SQLiteStore) collectAssignments(ctx context.Context, query string, args ...any) ([]model.RoleAssignment, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var assignments []model.RoleAssignment
	for rows.Next() {
		a, err := scanSQLiteAssignment(rows.Scan)
		if err != nil {
			return nil, err
		}
		assignments = append(assignments, *a)
	}
	return assignments, rows.Err()
}

func (s *SQLiteStore) ListAssignments(ctx context.Context, workspaceID string, filter AssignmentFilter) ([]model.RoleAssignment, error) {
	query := `SELECT ` + sqliteAssignmentColumns + ` FROM role_assignments WHERE workspace_id = ?`
	args := []any{workspaceID}

	if filter.DealID != "" {
		query += ` AND deal_id = ?`
		args = append(args, filter.DealID)
	}
	if filter.ContactID != "" {
		query += ` AND contact_id = ?`
		args = append(args, filter.ContactID)
	}
	query += ` ORDER BY created_at`
	if filter.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, filter.Limit)
	}

	assignments, err := s.collectAssignments(ctx, query, args...)
	return assignments, eris.Wrap(err, "sqlite: list assignments")
}

func (s *SQLiteStore) PairAssignments(ctx context.Context, workspaceID, dealID, contactID string) ([]model.RoleAssignment, error) {
	assignments, err := s.collectAssignments(ctx,
		`SELECT `+sqliteAssignmentColumns+` FROM role_assignments
		 WHERE workspace_id = ? AND deal_id = ? AND contact_id = ?`,
		workspaceID, dealID, contactID,
	)
	return assignments, eris.Wrap(err, "sqlite: pair assignments")
}

func (s *SQLiteStore) MaxPairConfidence(ctx context.Context, workspaceID, dealID, contactID string) (float64, bool, error) {
	var maxConf float64
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(role_confidence), 0), COUNT(*) FROM role_assignments
		 WHERE workspace_id = ? AND deal_id = ? AND contact_id = ?`,
		workspaceID, dealID, contactID,
	).Scan(&maxConf, &count)
	if err != nil {
		return 0, false, eris.Wrap(err, "sqlite: max pair confidence")
	}
	return maxConf, count > 0, nil
}

func (s *SQLiteStore) UpsertAssignment(ctx context.Context, a model.RoleAssignment) (bool, error) {
	if a.ID == "" {
		a.ID = uuid.New().String()
	}
	now := time.Now().UTC()

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO role_assignments
		 (id, workspace_id, deal_id, contact_id, source, buying_role, role_source, role_confidence, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (workspace_id, deal_id, contact_id, source) DO UPDATE SET
		   buying_role = excluded.buying_role,
		   role_source = excluded.role_source,
		   role_confidence = excluded.role_confidence,
		   updated_at = excluded.updated_at
		 WHERE role_assignments.role_confidence IS NULL
		    OR role_assignments.role_confidence < excluded.role_confidence`,
		a.ID, a.WorkspaceID, a.DealID, a.ContactID, a.Source,
		string(a.BuyingRole), a.RoleSource, a.RoleConfidence, now, now,
	)
	if err != nil {
		return false, eris.Wrap(err, "sqlite: upsert assignment")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, eris.Wrap(err, "sqlite: upsert rows affected")
	}
	return n > 0, nil
}

func (s *SQLiteStore) UpdateAssignmentRole(ctx context.Context, id string, role model.Role) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE role_assignments SET buying_role = ?, updated_at = ? WHERE id = ?`,
		string(role), time.Now().UTC(), id,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: update assignment role %s", id)
	}
	return checkRowsAffected(res, "assignment", id)
}

func (s *SQLiteStore) BoostAssignment(ctx context.Context, id string, confidence float64, roleSource string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE role_assignments SET role_confidence = ?, role_source = ?, updated_at = ? WHERE id = ?`,
		confidence, roleSource, time.Now().UTC(), id,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: boost assignment %s", id)
	}
	return checkRowsAffected(res, "assignment", id)
}

func checkRowsAffected(res sql.Result, entity, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "sqlite: rows affected")
	}
	if n == 0 {
		return eris.Errorf("%s not found: %s", entity, id)
	}
	return nil
}
