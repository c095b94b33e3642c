package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"reconciler/internal/contact/models"
	"reconciler/internal/platform/database"
	"reconciler/pkg/platform/sentinel"
	txcontext "reconciler/pkg/platform/tx"
)

// PostgresStore persists contacts in PostgreSQL. It is pure I/O: merge
// decisions belong to the service. Every method joins the transaction carried
// by ctx when there is one.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed contact store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const contactColumns = `id, email, phone_number, link_precedence, linked_id, created_at, updated_at`

func (s *PostgresStore) FindByEmailOrPhone(ctx context.Context, email, phone *string) ([]*models.Contact, error) {
	query := `
		SELECT ` + contactColumns + `
		FROM contacts
		WHERE email = $1::text OR phone_number = $2::text
		ORDER BY created_at, id
	`
	rows, err := txcontext.Executor(ctx, s.db).QueryContext(ctx, query, nullString(email), nullString(phone))
	if err != nil {
		return nil, database.Classify("find contacts by email or phone", err)
	}
	return scanContacts(rows)
}

func (s *PostgresStore) FindByEmailsOrPhones(ctx context.Context, emails, phones []string) ([]*models.Contact, error) {
	query := `
		SELECT ` + contactColumns + `
		FROM contacts
		WHERE email = ANY($1::text[]) OR phone_number = ANY($2::text[])
		ORDER BY created_at, id
	`
	rows, err := txcontext.Executor(ctx, s.db).QueryContext(ctx, query, pq.Array(emails), pq.Array(phones))
	if err != nil {
		return nil, database.Classify("find contacts by emails or phones", err)
	}
	return scanContacts(rows)
}

func (s *PostgresStore) FindByIdsOrLinkedIds(ctx context.Context, ids []models.ContactID) ([]*models.Contact, error) {
	raw := make([]int64, len(ids))
	for i, id := range ids {
		raw[i] = int64(id)
	}
	query := `
		SELECT ` + contactColumns + `
		FROM contacts
		WHERE id = ANY($1::bigint[]) OR linked_id = ANY($1::bigint[])
		ORDER BY created_at, id
	`
	rows, err := txcontext.Executor(ctx, s.db).QueryContext(ctx, query, pq.Array(raw))
	if err != nil {
		return nil, database.Classify("find contacts by ids or linked ids", err)
	}
	return scanContacts(rows)
}

func (s *PostgresStore) FindByID(ctx context.Context, id models.ContactID) (*models.Contact, error) {
	query := `SELECT ` + contactColumns + ` FROM contacts WHERE id = $1`
	c, err := scanContact(txcontext.Executor(ctx, s.db).QueryRowContext(ctx, query, int64(id)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, database.Classify("find contact by id", err)
	}
	return c, nil
}

func (s *PostgresStore) Insert(ctx context.Context, contact *models.Contact) (*models.Contact, error) {
	if contact == nil {
		return nil, fmt.Errorf("contact is required")
	}
	query := `
		INSERT INTO contacts (email, phone_number, link_precedence, linked_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, COALESCE($5, NOW()), COALESCE($5, NOW()))
		RETURNING ` + contactColumns
	var createdAt any
	if !contact.CreatedAt.IsZero() {
		createdAt = contact.CreatedAt
	}
	stored, err := scanContact(txcontext.Executor(ctx, s.db).QueryRowContext(ctx, query,
		nullString(contact.Email),
		nullString(contact.PhoneNumber),
		string(contact.LinkPrecedence),
		nullID(contact.LinkedID),
		createdAt,
	))
	if err != nil {
		return nil, database.Classify("insert contact", err)
	}
	return stored, nil
}

func (s *PostgresStore) UpdatePrecedence(ctx context.Context, id models.ContactID, precedence models.LinkPrecedence, linkedID *models.ContactID, now time.Time) error {
	query := `
		UPDATE contacts
		SET link_precedence = $2, linked_id = $3, updated_at = $4
		WHERE id = $1
	`
	result, err := txcontext.Executor(ctx, s.db).ExecContext(ctx, query, int64(id), string(precedence), nullID(linkedID), now)
	if err != nil {
		return database.Classify("update contact precedence", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return database.Classify("update contact precedence rows affected", err)
	}
	if rows == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *PostgresStore) RelinkSecondaries(ctx context.Context, from, to models.ContactID, now time.Time) ([]models.ContactID, error) {
	query := `
		UPDATE contacts
		SET linked_id = $2, updated_at = $3
		WHERE linked_id = $1 AND link_precedence = 'secondary'
		RETURNING id
	`
	rows, err := txcontext.Executor(ctx, s.db).QueryContext(ctx, query, int64(from), int64(to), now)
	if err != nil {
		return nil, database.Classify("relink secondaries", err)
	}
	defer rows.Close()

	var moved []models.ContactID
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, database.Classify("scan relinked id", err)
		}
		moved = append(moved, models.ContactID(id))
	}
	if err := rows.Err(); err != nil {
		return nil, database.Classify("iterate relinked ids", err)
	}
	sortIDs(moved)
	return moved, nil
}

type contactRow interface {
	Scan(dest ...any) error
}

func scanContact(row contactRow) (*models.Contact, error) {
	var (
		c          models.Contact
		id         int64
		email      sql.NullString
		phone      sql.NullString
		precedence string
		linkedID   sql.NullInt64
	)
	if err := row.Scan(&id, &email, &phone, &precedence, &linkedID, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return nil, err
	}
	p, err := models.ParseLinkPrecedence(precedence)
	if err != nil {
		return nil, err
	}
	c.ID = models.ContactID(id)
	c.LinkPrecedence = p
	if email.Valid {
		c.Email = &email.String
	}
	if phone.Valid {
		c.PhoneNumber = &phone.String
	}
	if linkedID.Valid {
		linked := models.ContactID(linkedID.Int64)
		c.LinkedID = &linked
	}
	return &c, nil
}

func scanContacts(rows *sql.Rows) ([]*models.Contact, error) {
	defer rows.Close()

	var contacts []*models.Contact
	for rows.Next() {
		c, err := scanContact(rows)
		if err != nil {
			return nil, database.Classify("scan contact", err)
		}
		contacts = append(contacts, c)
	}
	if err := rows.Err(); err != nil {
		return nil, database.Classify("iterate contacts", err)
	}
	return contacts, nil
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func nullID(id *models.ContactID) sql.NullInt64 {
	if id == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*id), Valid: true}
}
