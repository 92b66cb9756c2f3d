package video

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	_ "modernc.org/sqlite"

	"congregation/internal/adapters/storage"
	"congregation/internal/domain/change"
	domain "congregation/internal/domain/video"
)

type recordingFeed struct {
	changes []change.Change
}

func (f *recordingFeed) Publish(c change.Change) {
	f.changes = append(f.changes, c)
}

// openStore returns a migrated store whose clock advances one second per call.
func openStore(t *testing.T) (*SQLiteStore, *recordingFeed) {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })
	if err := storage.MigrateDB(db, ":memory:"); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	feed := &recordingFeed{}
	s := NewSQLiteStore(db, feed)
	clock := time.Date(2026, 10, 1, 19, 0, 0, 0, time.UTC)
	s.now = func() time.Time {
		clock = clock.Add(time.Second)
		return clock
	}
	return s, feed
}

// TestSQLiteStore_ListFiltersAndOrders tests category filtering and newest-first order.
func TestSQLiteStore_ListFiltersAndOrders(t *testing.T) {
	ctx := context.Background()
	s, _ := openStore(t)

	for _, v := range []domain.Video{
		{Title: "Estudo 1", URL: "https://x/a", Category: domain.CategoryGeneral},
		{Title: "Culto Sábado", URL: "https://x/b", Category: domain.CategoryServices},
		{Title: "Culto Domingo", URL: "https://x/1", Category: domain.CategoryServices},
	} {
		if _, err := s.Insert(ctx, v); err != nil {
			t.Fatalf("Insert: %v", err)
		}
	}

	cultos, err := s.List(ctx, domain.CategoryServices)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(cultos) != 2 || cultos[0].Title != "Culto Domingo" || cultos[1].Title != "Culto Sábado" {
		t.Errorf("cultos = %+v", cultos)
	}

	all, _ := s.List(ctx, "")
	if len(all) != 3 || all[2].Title != "Estudo 1" {
		t.Errorf("all = %+v", all)
	}
	for i := 1; i < len(all); i++ {
		if all[i].CreatedAt.After(all[i-1].CreatedAt) {
			t.Errorf("list not in descending created_at order at %d", i)
		}
	}
}

// TestSQLiteStore_ListEmpty tests that an empty catalog is a valid empty slice.
func TestSQLiteStore_ListEmpty(t *testing.T) {
	s, _ := openStore(t)
	got, err := s.List(context.Background(), "cultos")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if got == nil || len(got) != 0 {
		t.Errorf("got %#v, want empty slice", got)
	}
}

// TestSQLiteStore_InsertPublishes tests server-assigned fields and the insert change.
func TestSQLiteStore_InsertPublishes(t *testing.T) {
	s, feed := openStore(t)
	v, err := s.Insert(context.Background(), domain.Video{Title: "Culto Domingo", URL: "https://x/1", Category: "cultos", CreatedAt: time.Unix(0, 0)})
	if err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if v.ID == "" {
		t.Error("ID should be generated")
	}
	if v.CreatedAt.Year() != 2026 {
		t.Errorf("CreatedAt = %v, want server clock", v.CreatedAt)
	}
	if len(feed.changes) != 1 || feed.changes[0].Type != change.Insert || feed.changes[0].RecordID != v.ID {
		t.Errorf("changes = %+v", feed.changes)
	}
}

// TestSQLiteStore_Update tests the title and description patch.
func TestSQLiteStore_Update(t *testing.T) {
	ctx := context.Background()
	s, feed := openStore(t)
	v, _ := s.Insert(ctx, domain.Video{Title: "Old", Description: "d", URL: "https://x/1", Category: "geral"})

	got, err := s.Update(ctx, v.ID, domain.Patch{Title: "New", Description: "desc"})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if got.Title != "New" || got.Description != "desc" || got.URL != "https://x/1" || got.Category != "geral" {
		t.Errorf("got %+v", got)
	}
	if last := feed.changes[len(feed.changes)-1]; last.Type != change.Update {
		t.Errorf("last change = %+v", last)
	}

	if _, err := s.Update(ctx, "ghost", domain.Patch{Title: "x"}); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("missing update err = %v", err)
	}
}

// TestSQLiteStore_Delete tests removal and the delete change.
func TestSQLiteStore_Delete(t *testing.T) {
	ctx := context.Background()
	s, feed := openStore(t)
	v, _ := s.Insert(ctx, domain.Video{Title: "T", URL: "https://x/1"})

	if err := s.Delete(ctx, v.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := s.GetByID(ctx, v.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("GetByID after delete err = %v", err)
	}
	last := feed.changes[len(feed.changes)-1]
	if last.Type != change.Delete || last.New != nil {
		t.Errorf("last change = %+v", last)
	}
	if err := s.Delete(ctx, v.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("second delete err = %v", err)
	}
}

// TestSQLiteStore_ListQueryError tests that a failing query surfaces the server error.
func TestSQLiteStore_ListQueryError(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	boom := errors.New("relation \"videos\" does not exist")
	mock.ExpectQuery("SELECT (.+) FROM videos WHERE category").WithArgs("cultos").WillReturnError(boom)

	s := NewSQLiteStore(db, nil)
	if _, err := s.List(context.Background(), "cultos"); !errors.Is(err, boom) {
		t.Errorf("err = %v, want %v", err, boom)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

// TestSQLiteStore_InsertError tests that a failed insert publishes nothing.
func TestSQLiteStore_InsertError(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	mock.ExpectExec("INSERT INTO videos").WillReturnError(sql.ErrConnDone)

	feed := &recordingFeed{}
	s := NewSQLiteStore(db, feed)
	if _, err := s.Insert(context.Background(), domain.Video{Title: "T", URL: "u"}); !errors.Is(err, sql.ErrConnDone) {
		t.Errorf("err = %v", err)
	}
	if len(feed.changes) != 0 {
		t.Errorf("published %d changes, want 0", len(feed.changes))
	}
}

// TestSQLiteStore_BadCreatedAt tests that an unreadable timestamp fails the read.
func TestSQLiteStore_BadCreatedAt(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	rows := sqlmock.NewRows([]string{"id", "title", "description", "url", "thumbnail", "category", "created_at"}).
		AddRow("v-1", "Culto", "", "https://youtu.be/abc", "", "cultos", "ontem")
	mock.ExpectQuery("SELECT (.+) FROM videos").WillReturnRows(rows)

	s := NewSQLiteStore(db, nil)
	var parseErr *time.ParseError
	if _, err := s.List(context.Background(), ""); !errors.As(err, &parseErr) {
		t.Errorf("err = %v, want a time.ParseError", err)
	}
}
