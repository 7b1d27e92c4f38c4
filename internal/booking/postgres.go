package booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/lib/pq"
)

// Querier is the subset of *pgxpool.Pool the Postgres ledger needs.
type Querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresLedger stores bookings in a table with a unique slot_key column.
// The unique index is what makes Reserve atomic across processes.
type PostgresLedger struct {
	db    Querier
	table string
	now   func() time.Time
}

var _ Ledger = (*PostgresLedger)(nil)

// NewPostgresLedger returns a ledger writing to table.
func NewPostgresLedger(db Querier, table string) *PostgresLedger {
	if db == nil {
		panic("booking: postgres pool cannot be nil")
	}
	if table == "" {
		table = "bookings"
	}
	return &PostgresLedger{
		db:    db,
		table: pq.QuoteIdentifier(table),
		now:   func() time.Time { return time.Now().UTC() },
	}
}

func (l *PostgresLedger) IsAvailable(ctx context.Context, slotText string) (bool, error) {
	query := fmt.Sprintf(`SELECT EXISTS (SELECT 1 FROM %s WHERE slot_key = $1)`, l.table)
	var taken bool
	if err := l.db.QueryRow(ctx, query, SlotKey(slotText)).Scan(&taken); err != nil {
		return false, fmt.Errorf("booking: check slot: %w", err)
	}
	return !taken, nil
}

// Reserve inserts the booking unless slot_key already exists.
func (l *PostgresLedger) Reserve(ctx context.Context, req Request) (Booking, error) {
	b := Booking{
		ID:          uuid.NewString(),
		Name:        req.Name,
		Contact:     req.Contact,
		SlotText:    req.SlotText,
		CallerPhone: req.CallerPhone,
		CreatedAt:   l.now(),
	}
	query := fmt.Sprintf(`
		INSERT INTO %s (id, name, contact, slot_text, slot_key, caller_phone, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (slot_key) DO NOTHING
		RETURNING id::text`, l.table)

	var id string
	err := l.db.QueryRow(ctx, query,
		b.ID, b.Name, b.Contact, b.SlotText, SlotKey(b.SlotText), b.CallerPhone, b.CreatedAt,
	).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return Booking{}, ErrSlotTaken
	}
	if err != nil {
		return Booking{}, fmt.Errorf("booking: insert: %w", err)
	}
	b.ID = id
	return b, nil
}

// List returns bookings oldest first.
func (l *PostgresLedger) List(ctx context.Context) ([]Booking, error) {
	query := fmt.Sprintf(`
		SELECT id::text, name, contact, slot_text, caller_phone, created_at
		FROM %s
		ORDER BY created_at, id`, l.table)
	rows, err := l.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("booking: list: %w", err)
	}
	defer rows.Close()

	var out []Booking
	for rows.Next() {
		var b Booking
		if err := rows.Scan(&b.ID, &b.Name, &b.Contact, &b.SlotText, &b.CallerPhone, &b.CreatedAt); err != nil {
			return nil, fmt.Errorf("booking: scan: %w", err)
		}
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("booking: list rows: %w", err)
	}
	return out, nil
}
