package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/sells-group/roles-cli/internal/db"
	"github.com/sells-group/roles-cli/internal/model"
)

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    db.Pool
	closeFn func()
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns := int32(10)
	minConns := int32(2)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS deals (
	id            TEXT NOT NULL,
	workspace_id  TEXT NOT NULL,
	account_id    TEXT NOT NULL,
	name          TEXT NOT NULL DEFAULT '',
	stage         TEXT NOT NULL DEFAULT '',
	closed        BOOLEAN NOT NULL DEFAULT false,
	custom_fields JSONB,
	updated_at    TIMESTAMPTZ NOT NULL DEFAULT now(),
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
	updated_at   TIMESTAMPTZ NOT NULL DEFAULT now(),
	PRIMARY KEY (workspace_id, id)
);

CREATE INDEX IF NOT EXISTS idx_contacts_email ON contacts(workspace_id, lower(email));
CREATE INDEX IF NOT EXISTS idx_contacts_account ON contacts(workspace_id, account_id, updated_at DESC);
CREATE INDEX IF NOT EXISTS idx_contacts_crm_id ON contacts(workspace_id, crm_id);

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
	occurred_at  TIMESTAMPTZ NOT NULL,
	created_at   TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_activities_deal ON activities(workspace_id, deal_id);

CREATE TABLE IF NOT EXISTS conversations (
	id           TEXT PRIMARY KEY,
	workspace_id TEXT NOT NULL,
	deal_id      TEXT NOT NULL,
	participants JSONB NOT NULL DEFAULT '[]',
	occurred_at  TIMESTAMPTZ NOT NULL,
	created_at   TIMESTAMPTZ NOT NULL DEFAULT now()
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
	role_confidence     DOUBLE PRECISION,
	seniority_verified  TEXT,
	department_verified TEXT,
	enrichment_status   TEXT,
	created_at          TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at          TIMESTAMPTZ NOT NULL DEFAULT now(),
	UNIQUE (workspace_id, deal_id, contact_id, source)
);

CREATE INDEX IF NOT EXISTS idx_role_assignments_pair ON role_assignments(workspace_id, deal_id, contact_id);
CREATE INDEX IF NOT EXISTS idx_role_assignments_deal ON role_assignments(workspace_id, deal_id);
CREATE INDEX IF NOT EXISTS idx_role_assignments_contact ON role_assignments(workspace_id, contact_id);
`

func (s *PostgresStore) Ping(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, "SELECT 1")
	return eris.Wrap(err, "postgres: ping")
}

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

const dealColumns = `id, workspace_id, account_id, name, stage, closed, custom_fields, updated_at`

func scanDeal(row pgx.Row) (*model.Deal, error) {
	var d model.Deal
	var fieldsJSON *[]byte
	if err := row.Scan(&d.ID, &d.WorkspaceID, &d.AccountID, &d.Name, &d.Stage, &d.Closed, &fieldsJSON, &d.UpdatedAt); err != nil {
		return nil, err
	}
	if fieldsJSON != nil && len(*fieldsJSON) > 0 {
		if err := json.Unmarshal(*fieldsJSON, &d.CustomFields); err != nil {
			return nil, eris.Wrap(err, "postgres: unmarshal custom fields")
		}
	}
	return &d, nil
}

func (s *PostgresStore) ListDeals(ctx context.Context, workspaceID string, filter DealFilter) ([]model.Deal, error) {
	query := `SELECT ` + dealColumns + ` FROM deals WHERE workspace_id = $1`
	args := []any{workspaceID}

	if filter.DealID != "" {
		query += ` AND id = $2`
		args = append(args, filter.DealID)
	}
	if !filter.IncludeClosed {
		query += ` AND closed = false`
	}
	query += ` ORDER BY updated_at DESC`

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list deals")
	}
	defer rows.Close()

	var deals []model.Deal
	for rows.Next() {
		d, err := scanDeal(rows)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: scan deal")
		}
		deals = append(deals, *d)
	}
	return deals, eris.Wrap(rows.Err(), "postgres: list deals iterate")
}

func (s *PostgresStore) ListAccountDeals(ctx context.Context, workspaceID, accountID string) ([]model.Deal, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+dealColumns+` FROM deals WHERE workspace_id = $1 AND account_id = $2 ORDER BY updated_at DESC`,
		workspaceID, accountID,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list account deals")
	}
	defer rows.Close()

	var deals []model.Deal
	for rows.Next() {
		d, err := scanDeal(rows)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: scan account deal")
		}
		deals = append(deals, *d)
	}
	return deals, eris.Wrap(rows.Err(), "postgres: list account deals iterate")
}

const contactColumns = `id, workspace_id, account_id, crm_id, first_name, last_name, email, title, seniority, department, updated_at`

func scanContact(row pgx.Row) (*model.Contact, error) {
	var c model.Contact
	var crmID, title, seniority, department *string
	if err := row.Scan(&c.ID, &c.WorkspaceID, &c.AccountID, &crmID, &c.FirstName, &c.LastName, &c.Email, &title, &seniority, &department, &c.UpdatedAt); err != nil {
		return nil, err
	}
	if crmID != nil {
		c.CRMID = *crmID
	}
	if title != nil {
		c.Title = *title
	}
	if seniority != nil {
		c.Seniority = *seniority
	}
	if department != nil {
		c.Department = *department
	}
	return &c, nil
}

func (s *PostgresStore) collectContacts(ctx context.Context, query string, args ...any) ([]model.Contact, error) {
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var contacts []model.Contact
	for rows.Next() {
		c, err := scanContact(rows)
		if err != nil {
			return nil, err
		}
		contacts = append(contacts, *c)
	}
	return contacts, rows.Err()
}

const dealContactColumns = `c.id, c.workspace_id, c.account_id, c.crm_id, c.first_name, c.last_name, c.email, c.title, c.seniority, c.department, c.updated_at`

func (s *PostgresStore) ListDealContacts(ctx context.Context, workspaceID, dealID string) ([]model.Contact, error) {
	contacts, err := s.collectContacts(ctx,
		`SELECT `+dealContactColumns+`
		 FROM contacts c
		 JOIN deal_contacts dc ON dc.workspace_id = c.workspace_id AND dc.contact_id = c.id
		 WHERE dc.workspace_id = $1 AND dc.deal_id = $2`,
		workspaceID, dealID,
	)
	return contacts, eris.Wrap(err, "postgres: list deal contacts")
}

func (s *PostgresStore) ListAccountContacts(ctx context.Context, workspaceID, accountID string, limit int) ([]model.Contact, error) {
	if limit <= 0 {
		limit = 100
	}
	contacts, err := s.collectContacts(ctx,
		`SELECT `+contactColumns+` FROM contacts
		 WHERE workspace_id = $1 AND account_id = $2
		 ORDER BY updated_at DESC LIMIT $3`,
		workspaceID, accountID, limit,
	)
	return contacts, eris.Wrap(err, "postgres: list account contacts")
}

func (s *PostgresStore) GetContact(ctx context.Context, workspaceID, contactID string) (*model.Contact, error) {
	c, err := scanContact(s.pool.QueryRow(ctx,
		`SELECT `+contactColumns+` FROM contacts WHERE workspace_id = $1 AND id = $2`,
		workspaceID, contactID,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, eris.Wrapf(err, "postgres: get contact %s", contactID)
	}
	return c, nil
}

func (s *PostgresStore) FindContactByEmail(ctx context.Context, workspaceID, email string) (*model.Contact, error) {
	c, err := scanContact(s.pool.QueryRow(ctx,
		`SELECT `+contactColumns+` FROM contacts WHERE workspace_id = $1 AND lower(email) = lower($2)`,
		workspaceID, email,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, eris.Wrap(err, "postgres: find contact by email")
	}
	return c, nil
}

func (s *PostgresStore) FindContactByCRMID(ctx context.Context, workspaceID, crmID string) (*model.Contact, error) {
	c, err := scanContact(s.pool.QueryRow(ctx,
		`SELECT `+contactColumns+` FROM contacts WHERE workspace_id = $1 AND crm_id = $2`,
		workspaceID, crmID,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, eris.Wrap(err, "postgres: find contact by crm id")
	}
	return c, nil
}

func (s *PostgresStore) FindContactsByName(ctx context.Context, workspaceID, firstName, lastName, accountID string) ([]model.Contact, error) {
	query := `SELECT ` + contactColumns + ` FROM contacts
	 WHERE workspace_id = $1 AND lower(first_name) = lower($2) AND lower(last_name) = lower($3)`
	args := []any{workspaceID, firstName, lastName}
	if accountID != "" {
		query += ` AND account_id = $4`
		args = append(args, accountID)
	}

	contacts, err := s.collectContacts(ctx, query, args...)
	return contacts, eris.Wrap(err, "postgres: find contacts by name")
}

func (s *PostgresStore) ListActivities(ctx context.Context, workspaceID, dealID string) ([]model.Activity, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, workspace_id, deal_id, contact_id, type, occurred_at FROM activities
		 WHERE workspace_id = $1 AND deal_id = $2 ORDER BY occurred_at`,
		workspaceID, dealID,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list activities")
	}
	defer rows.Close()

	var acts []model.Activity
	for rows.Next() {
		var a model.Activity
		if err := rows.Scan(&a.ID, &a.WorkspaceID, &a.DealID, &a.ContactID, &a.Type, &a.OccurredAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan activity")
		}
		acts = append(acts, a)
	}
	return acts, eris.Wrap(rows.Err(), "postgres: list activities iterate")
}

func (s *PostgresStore) ListConversations(ctx context.Context, workspaceID, dealID string) ([]model.Conversation, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, workspace_id, deal_id, participants, occurred_at FROM conversations
		 WHERE workspace_id = $1 AND deal_id = $2 ORDER BY occurred_at`,
		workspaceID, dealID,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list conversations")
	}
	defer rows.Close()

	var convs []model.Conversation
	for rows.Next() {
		var c model.Conversation
		var participantsJSON []byte
		if err := rows.Scan(&c.ID, &c.WorkspaceID, &c.DealID, &participantsJSON, &c.OccurredAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan conversation")
		}
		if len(participantsJSON) > 0 {
			if err := json.Unmarshal(participantsJSON, &c.Participants); err != nil {
				return nil, eris.Wrap(err, "postgres: unmarshal participants")
			}
		}
		convs = append(convs, c)
	}
	return convs, eris.Wrap(rows.Err(), "postgres: list conversations iterate")
}

func (s *PostgresStore) HasConversations(ctx context.Context, workspaceID string) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM conversations WHERE workspace_id = $1)`,
		workspaceID,
	).Scan(&exists)
	return exists, eris.Wrap(err, "postgres: has conversations")
}

func (s *PostgresStore) FieldRoleMappings(ctx context.Context, workspaceID string) (map[string]model.Role, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT field_name, role FROM field_role_mappings WHERE workspace_id = $1`,
		workspaceID,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: field role mappings")
	}
	defer rows.Close()

	mappings := make(map[string]model.Role)
	for rows.Next() {
		var name, role string
		if err := rows.Scan(&name, &role); err != nil {
			return nil, eris.Wrap(err, "postgres: scan field mapping")
		}
		mappings[name] = model.Role(role)
	}
	return mappings, eris.Wrap(rows.Err(), "postgres: field role mappings iterate")
}

const assignmentColumns = `id, workspace_id, deal_id, contact_id, source, buying_role, role_source, role_confidence, seniority_verified, department_verified, enrichment_status, created_at, updated_at`

func scanAssignment(row pgx.Row) (*model.RoleAssignment, error) {
	var a model.RoleAssignment
	var conf *float64
	var seniority, department, status *string
	if err := row.Scan(&a.ID, &a.WorkspaceID, &a.DealID, &a.ContactID, &a.Source,
		&a.BuyingRole, &a.RoleSource, &conf, &seniority, &department, &status,
		&a.CreatedAt, &a.UpdatedAt); err != nil {
		return nil, err
	}
	if conf != nil {
		a.RoleConfidence = *conf
	}
	if seniority != nil {
		a.SeniorityVerified = *seniority
	}
	if department != nil {
		a.DepartmentVerified = *department
	}
	if status != nil {
		a.EnrichmentStatus = *status
	}
	return &a, nil
}

func (s *PostgresStore) ListAssignments(ctx context.Context, workspaceID string, filter AssignmentFilter) ([]model.RoleAssignment, error) {
	query := `SELECT ` + assignmentColumns + ` FROM role_assignments WHERE workspace_id = $1`
	args := []any{workspaceID}
	argIdx := 2

	if filter.DealID != "" {
		query += fmt.Sprintf(` AND deal_id = $%d`, argIdx)
		args = append(args, filter.DealID)
		argIdx++
	}
	if filter.ContactID != "" {
		query += fmt.Sprintf(` AND contact_id = $%d`, argIdx)
		args = append(args, filter.ContactID)
		argIdx++
	}
	query += ` ORDER BY created_at`
	if filter.Limit > 0 {
		query += fmt.Sprintf(` LIMIT $%d`, argIdx)
		args = append(args, filter.Limit)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list assignments")
	}
	defer rows.Close()

	var assignments []model.RoleAssignment
	for rows.Next() {
		a, err := scanAssignment(rows)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: scan assignment")
		}
		assignments = append(assignments, *a)
	}
	return assignments, eris.Wrap(rows.Err(), "postgres: list assignments iterate")
}

func (s *PostgresStore) PairAssignments(ctx context.Context, workspaceID, dealID, contactID string) ([]model.RoleAssignment, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+assignmentColumns+` FROM role_assignments
		 WHERE workspace_id = $1 AND deal_id = $2 AND contact_id = $3`,
		workspaceID, dealID, contactID,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: pair assignments")
	}
	defer rows.Close()

	var assignments []model.RoleAssignment
	for rows.Next() {
		a, err := scanAssignment(rows)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: scan pair assignment")
		}
		assignments = append(assignments, *a)
	}
	return assignments, eris.Wrap(rows.Err(), "postgres: pair assignments iterate")
}

func (s *PostgresStore) MaxPairConfidence(ctx context.Context, workspaceID, dealID, contactID string) (float64, bool, error) {
	var maxConf float64
	var count int
	err := s.pool.QueryRow(ctx,
		`SELECT COALESCE(MAX(role_confidence), 0), COUNT(*) FROM role_assignments
		 WHERE workspace_id = $1 AND deal_id = $2 AND contact_id = $3`,
		workspaceID, dealID, contactID,
	).Scan(&maxConf, &count)
	if err != nil {
		return 0, false, eris.Wrap(err, "postgres: max pair confidence")
	}
	return maxConf, count > 0, nil
}

func (s *PostgresStore) UpsertAssignment(ctx context.Context, a model.RoleAssignment) (bool, error) {
	if a.ID == "" {
		a.ID = uuid.New().String()
	}
	now := time.Now().UTC()

	tag, err := s.pool.Exec(ctx,
		`INSERT INTO role_assignments
		 (id, workspace_id, deal_id, contact_id, source, buying_role, role_source, role_confidence, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $9)
		 ON CONFLICT (workspace_id, deal_id, contact_id, source) DO UPDATE SET
		   buying_role = EXCLUDED.buying_role,
		   role_source = EXCLUDED.role_source,
		   role_confidence = EXCLUDED.role_confidence,
		   updated_at = EXCLUDED.updated_at
		 WHERE role_assignments.role_confidence IS NULL
		    OR role_assignments.role_confidence < EXCLUDED.role_confidence`,
		a.ID, a.WorkspaceID, a.DealID, a.ContactID, a.Source,
		string(a.BuyingRole), a.RoleSource, a.RoleConfidence, now,
	)
	if err != nil {
		return false, eris.Wrap(err, "postgres: upsert assignment")
	}
	return tag.RowsAffected() > 0, nil
}

func (s *PostgresStore) UpdateAssignmentRole(ctx context.Context, id string, role model.Role) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE role_assignments SET buying_role = $1, updated_at = $2 WHERE id = $3`,
		string(role), time.Now().UTC(), id,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: update assignment role %s", id)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("assignment not found: %s", id)
	}
	return nil
}

func (s *PostgresStore) BoostAssignment(ctx context.Context, id string, confidence float64, roleSource string) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE role_assignments SET role_confidence = $1, role_source = $2, updated_at = $3 WHERE id = $4`,
		confidence, roleSource, time.Now().UTC(), id,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: boost assignment %s", id)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("assignment not found: %s", id)
	}
	return nil
}

