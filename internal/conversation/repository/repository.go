package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"prospectchat_backend/internal/conversation/domain"
	"prospectchat_backend/platform/apperr"
)

// ErrNotFound is returned when a prospect or message lookup misses.
var ErrNotFound = errors.New("not found")

// Message is one stored conversation turn.
type Message struct {
	ID         int64
	ProspectID uuid.UUID
	Sender     string
	Body       string
	CreatedAt  time.Time
}

const (
	SenderUser      = "user"
	SenderAssistant = "assistant"
)

// Repository persists prospects and their conversation transcripts in
// Postgres.
type Repository struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const prospectColumns = `
	id, name, company, email, budget, location, industry, notes,
	status, qualification_score, meeting_link_sent, crm_contact_id,
	channel, channel_address, created_at, updated_at`

// CreateProspect inserts a fresh record for a new conversation.
func (r *Repository) CreateProspect(ctx context.Context, channel domain.Channel, channelAddress *string) (domain.Record, error) {
	const op = "repository.CreateProspect"

	query := `
		INSERT INTO prospects (channel, channel_address)
		VALUES ($1, $2)
		RETURNING` + prospectColumns

	row := r.pool.QueryRow(ctx, query, string(channel), channelAddress)
	rec, err := scanProspect(row)
	if err != nil {
		return domain.Record{}, apperr.Wrap(apperr.KindInternal, op, fmt.Errorf("insert prospect: %w", err))
	}
	return rec, nil
}

// GetProspect loads one record by id.
func (r *Repository) GetProspect(ctx context.Context, id uuid.UUID) (domain.Record, error) {
	const op = "repository.GetProspect"

	query := `SELECT` + prospectColumns + ` FROM prospects WHERE id = $1`

	rec, err := scanProspect(r.pool.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Record{}, fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	if err != nil {
		return domain.Record{}, apperr.Wrap(apperr.KindInternal, op, err)
	}
	return rec, nil
}

// FindByChannelAddress resolves an existing conversation by its
// channel identity, e.g. a WhatsApp phone number.
func (r *Repository) FindByChannelAddress(ctx context.Context, channel domain.Channel, address string) (domain.Record, error) {
	const op = "repository.FindByChannelAddress"

	query := `
		SELECT` + prospectColumns + `
		FROM prospects
		WHERE channel = $1 AND channel_address = $2 AND status != 'closed'
		ORDER BY created_at DESC
		LIMIT 1`

	rec, err := scanProspect(r.pool.QueryRow(ctx, query, string(channel), address))
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Record{}, fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	if err != nil {
		return domain.Record{}, apperr.Wrap(apperr.KindInternal, op, err)
	}
	return rec, nil
}

// UpdateProspect writes the full mutable state of a record back.
func (r *Repository) UpdateProspect(ctx context.Context, rec domain.Record) error {
	const op = "repository.UpdateProspect"

	query := `
		UPDATE prospects SET
			name = $2, company = $3, email = $4, budget = $5,
			location = $6, industry = $7, notes = $8, status = $9,
			qualification_score = $10,
			meeting_link_sent = meeting_link_sent OR $11,
			crm_contact_id = $12, updated_at = now()
		WHERE id = $1`

	tag, err := r.pool.Exec(ctx, query,
		rec.ID, rec.Name, rec.Company, rec.Email, rec.Budget,
		rec.Location, rec.Industry, rec.Notes.String(), string(rec.Status),
		rec.Score, rec.MeetingLinkSent, rec.CRMContactID,
	)
	if err != nil {
		return apperr.Wrap(apperr.KindInternal, op, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	return nil
}

// AppendMessage stores one conversation turn.
func (r *Repository) AppendMessage(ctx context.Context, prospectID uuid.UUID, sender, body string) error {
	const op = "repository.AppendMessage"

	_, err := r.pool.Exec(ctx,
		`INSERT INTO conversation_messages (prospect_id, sender, body) VALUES ($1, $2, $3)`,
		prospectID, sender, body,
	)
	if err != nil {
		return apperr.Wrap(apperr.KindInternal, op, err)
	}
	return nil
}

// ListRecentMessages returns the last limit turns in chronological
// order.
func (r *Repository) ListRecentMessages(ctx context.Context, prospectID uuid.UUID, limit int) ([]Message, error) {
	const op = "repository.ListRecentMessages"

	query := `
		SELECT id, prospect_id, sender, body, created_at
		FROM (
			SELECT id, prospect_id, sender, body, created_at
			FROM conversation_messages
			WHERE prospect_id = $1
			ORDER BY created_at DESC, id DESC
			LIMIT $2
		) latest
		ORDER BY created_at ASC, id ASC`

	rows, err := r.pool.Query(ctx, query, prospectID, limit)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, op, err)
	}
	defer rows.Close()

	var messages []Message
	for rows.Next() {
		var m Message
		if err := rows.Scan(&m.ID, &m.ProspectID, &m.Sender, &m.Body, &m.CreatedAt); err != nil {
			return nil, apperr.Wrap(apperr.KindInternal, op, err)
		}
		messages = append(messages, m)
	}
	return messages, rows.Err()
}

// CountMessages returns the transcript length for one prospect.
func (r *Repository) CountMessages(ctx context.Context, prospectID uuid.UUID) (int, error) {
	const op = "repository.CountMessages"

	var n int
	err := r.pool.QueryRow(ctx,
		`SELECT count(*) FROM conversation_messages WHERE prospect_id = $1`,
		prospectID,
	).Scan(&n)
	if err != nil {
		return 0, apperr.Wrap(apperr.KindInternal, op, err)
	}
	return n, nil
}

// ListUnsynced returns qualified prospects with an email that have not
// been pushed to the CRM yet.
func (r *Repository) ListUnsynced(ctx context.Context) ([]domain.Record, error) {
	const op = "repository.ListUnsynced"

	query := `
		SELECT` + prospectColumns + `
		FROM prospects
		WHERE crm_contact_id IS NULL
		  AND email IS NOT NULL
		  AND status IN ('qualified', 'meeting_sent')
		ORDER BY created_at ASC`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, op, err)
	}
	defer rows.Close()

	var records []domain.Record
	for rows.Next() {
		rec, err := scanProspect(rows)
		if err != nil {
			return nil, apperr.Wrap(apperr.KindInternal, op, err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

func scanProspect(row pgx.Row) (domain.Record, error) {
	var (
		rec    domain.Record
		notes  string
		status string
		chann  string
	)
	err := row.Scan(
		&rec.ID, &rec.Name, &rec.Company, &rec.Email, &rec.Budget,
		&rec.Location, &rec.Industry, &notes, &status, &rec.Score,
		&rec.MeetingLinkSent, &rec.CRMContactID, &chann,
		&rec.ChannelAddress, &rec.CreatedAt, &rec.UpdatedAt,
	)
	if err != nil {
		return domain.Record{}, err
	}
	rec.Notes = domain.ParseJournal(notes)
	rec.Status = domain.ParseStatus(status)
	rec.Channel = domain.Channel(chann)
	return rec, nil
}
