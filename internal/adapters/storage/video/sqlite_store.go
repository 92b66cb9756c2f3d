package video

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"congregation/internal/adapters/realtime"
	"congregation/internal/adapters/storage"
	"congregation/internal/domain/change"
	domain "congregation/internal/domain/video"
)

// createdAtLayout is fixed-width so created_at sorts lexically.
const createdAtLayout = "2006-01-02T15:04:05.000000000Z"

const videoColumns = "id, title, description, url, thumbnail, category, created_at"

// SQLiteStore implements Store using SQLite and reports writes to the change feed.
type SQLiteStore struct {
	db   storage.SQLDB
	feed realtime.Publisher
	now  func() time.Time
}

// NewSQLiteStore creates a video store. feed may be nil.
// PRE: db is migrated
func NewSQLiteStore(db storage.SQLDB, feed realtime.Publisher) *SQLiteStore {
	return &SQLiteStore{db: db, feed: feed, now: time.Now}
}

// List returns the catalog, newest first. An empty category lists every video.
// POST: returns an empty slice, never nil, when nothing matches
func (s *SQLiteStore) List(ctx context.Context, category string) ([]domain.Video, error) {
	var b strings.Builder
	var args []any
	b.WriteString("SELECT " + videoColumns + " FROM videos")
	if category != "" {
		b.WriteString(" WHERE category = ?")
		args = append(args, category)
	}
	b.WriteString(" ORDER BY created_at DESC, rowid DESC")

	rows, err := s.db.QueryContext(ctx, b.String(), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	results := []domain.Video{}
	for rows.Next() {
		v, err := scanVideo(rows.Scan)
		if err != nil {
			return nil, err
		}
		results = append(results, v)
	}
	return results, rows.Err()
}

// GetByID retrieves one video.
// PRE: id is non-empty
// POST: returns the video or video.ErrNotFound
func (s *SQLiteStore) GetByID(ctx context.Context, id string) (domain.Video, error) {
	v, err := scanVideo(s.db.QueryRowContext(ctx, "SELECT "+videoColumns+" FROM videos WHERE id = ?", id).Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Video{}, fmt.Errorf("%w: %s", domain.ErrNotFound, id)
	}
	return v, err
}

// Insert adds a video. The ID is generated when empty; created_at is always server-assigned.
// PRE: value has been validated
// POST: row inserted and an insert change published
func (s *SQLiteStore) Insert(ctx context.Context, value domain.Video) (domain.Video, error) {
	if value.ID == "" {
		value.ID = uuid.New().String()
	}
	value.CreatedAt = s.now().UTC()
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO videos ("+videoColumns+") VALUES (?, ?, ?, ?, ?, ?, ?)",
		value.ID, value.Title, value.Description, value.URL, value.Thumbnail, value.Category,
		value.CreatedAt.Format(createdAtLayout),
	)
	if err != nil {
		return domain.Video{}, err
	}
	s.publish(change.Insert, value.ID, value)
	return value, nil
}

// Update applies a title and description patch.
// PRE: patch has been normalized
// POST: row updated and an update change published, or video.ErrNotFound
func (s *SQLiteStore) Update(ctx context.Context, id string, patch domain.Patch) (domain.Video, error) {
	res, err := s.db.ExecContext(ctx,
		"UPDATE videos SET title = ?, description = ? WHERE id = ?",
		patch.Title, patch.Description, id,
	)
	if err != nil {
		return domain.Video{}, err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return domain.Video{}, fmt.Errorf("%w: %s", domain.ErrNotFound, id)
	}
	v, err := s.GetByID(ctx, id)
	if err != nil {
		return domain.Video{}, err
	}
	s.publish(change.Update, id, v)
	return v, nil
}

// Delete removes a video.
// PRE: id is non-empty
// POST: row removed and a delete change published, or video.ErrNotFound
func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM videos WHERE id = ?", id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: %s", domain.ErrNotFound, id)
	}
	s.publish(change.Delete, id, nil)
	return nil
}

func (s *SQLiteStore) publish(typ change.Type, id string, row any) {
	if s.feed == nil {
		return
	}
	s.feed.Publish(change.New(domain.Table, typ, id, row, s.now().UTC()))
}

func scanVideo(scan func(dest ...any) error) (domain.Video, error) {
	var v domain.Video
	var createdAt string
	if err := scan(&v.ID, &v.Title, &v.Description, &v.URL, &v.Thumbnail, &v.Category, &createdAt); err != nil {
		return domain.Video{}, err
	}
	t, err := time.Parse(time.RFC3339Nano, createdAt)
	if err != nil {
		return domain.Video{}, fmt.Errorf("video %s: created_at %q: %w", v.ID, createdAt, err)
	}
	v.CreatedAt = t
	return v, nil
}
