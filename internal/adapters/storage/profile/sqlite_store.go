package profile

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"congregation/internal/adapters/realtime"
	"congregation/internal/adapters/storage"
	"congregation/internal/domain/change"
	domain "congregation/internal/domain/profile"
)

// columns is the fixed column set every read selects, in scan order.
var columns = []string{
	"id", "name", "email", "avatar_url", "birth_date", "gender", "phone_mobile",
	"phone_landline", "street", "number", "neighborhood", "city", "conversion_date",
	"baptism_date", "ministry", "member_status", "entry_date", "group_name", "role",
}

// SQLiteStore implements Store using SQLite and reports writes to the change feed.
type SQLiteStore struct {
	db   storage.SQLDB
	feed realtime.Publisher
}

// NewSQLiteStore creates a profile store. feed may be nil.
// PRE: db is migrated
func NewSQLiteStore(db storage.SQLDB, feed realtime.Publisher) *SQLiteStore {
	return &SQLiteStore{db: db, feed: feed}
}

// GetByID fetches the single profile record.
// PRE: id is non-empty
// POST: Returns the profile or ErrNotFound
func (s *SQLiteStore) GetByID(ctx context.Context, id string) (domain.Profile, error) {
	query := "SELECT " + strings.Join(columns, ", ") + " FROM users WHERE id = ?"
	p, err := scanProfile(s.db.QueryRowContext(ctx, query, id).Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Profile{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return p, err
}

// Create inserts the profile made on sign-up.
// PRE: value has been validated
// POST: row inserted; an insert change is published
func (s *SQLiteStore) Create(ctx context.Context, value domain.Profile) error {
	if value.Role == "" {
		value.Role = domain.RoleMember
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(columns)), ", ")
	query := fmt.Sprintf("INSERT INTO users (%s) VALUES (%s)", strings.Join(columns, ", "), placeholders)
	if _, err := s.db.ExecContext(ctx, query, values(value)...); err != nil {
		return err
	}
	s.publish(change.Insert, value)
	return nil
}

// Save replaces every editable column of the record keyed by value.ID.
// The role is never written by Save.
// PRE: value has been validated
// POST: row updated and an update change published, or ErrNotFound
func (s *SQLiteStore) Save(ctx context.Context, value domain.Profile) error {
	var sets []string
	for _, c := range columns {
		if c == "id" || c == "role" {
			continue
		}
		sets = append(sets, c+" = ?")
	}
	query := "UPDATE users SET " + strings.Join(sets, ", ") + " WHERE id = ?"

	all := values(value)
	args := append([]any{}, all[1:len(all)-1]...)
	args = append(args, value.ID)

	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, value.ID)
	}

	// Publish the stored row so the role reflects the database, not the caller.
	stored, err := s.GetByID(ctx, value.ID)
	if err != nil {
		stored = value
	}
	s.publish(change.Update, stored)
	return nil
}

func (s *SQLiteStore) publish(typ change.Type, p domain.Profile) {
	if s.feed == nil {
		return
	}
	s.feed.Publish(change.New(domain.Table, typ, p.ID, p, time.Now().UTC()))
}

// values returns the column values of p in columns order.
func values(p domain.Profile) []any {
	return []any{
		p.ID, p.Name, p.Email, p.AvatarURL, dateValue(p.BirthDate), p.Gender, p.PhoneMobile,
		p.PhoneLandline, p.Street, p.Number, p.Neighborhood, p.City, dateValue(p.ConversionDate),
		dateValue(p.BaptismDate), p.Ministry, p.MemberStatus, dateValue(p.EntryDate), p.GroupName, p.Role,
	}
}

func scanProfile(scan func(dest ...any) error) (domain.Profile, error) {
	var p domain.Profile
	var birth, conversion, baptism, entry sql.NullString
	err := scan(
		&p.ID, &p.Name, &p.Email, &p.AvatarURL, &birth, &p.Gender, &p.PhoneMobile,
		&p.PhoneLandline, &p.Street, &p.Number, &p.Neighborhood, &p.City, &conversion,
		&baptism, &p.Ministry, &p.MemberStatus, &entry, &p.GroupName, &p.Role,
	)
	if err != nil {
		return domain.Profile{}, err
	}
	p.BirthDate = parseDate(birth)
	p.ConversionDate = parseDate(conversion)
	p.BaptismDate = parseDate(baptism)
	p.EntryDate = parseDate(entry)
	return p, nil
}

func dateValue(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.Format(domain.DateLayout)
}

func parseDate(s sql.NullString) *time.Time {
	if !s.Valid {
		return nil
	}
	t, err := domain.ParseDate(s.String)
	if err != nil {
		return nil
	}
	return t
}
