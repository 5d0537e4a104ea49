package storage

import (
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
)

func TestFileStore_PersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "storage.json")

	fs, err := OpenFile(path)
	if err != nil {
		t.Fatalf("OpenFile: %v", err)
	}
	if err := fs.Set(KeyCart, `{"items":[]}`); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := fs.Set(KeyToken, "abc"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := fs.Delete(KeyToken); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	reopened, err := OpenFile(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	got, ok, err := reopened.Get(KeyCart)
	if err != nil || !ok {
		t.Fatalf("Get cart = %q, %v, %v", got, ok, err)
	}
	if got != `{"items":[]}` {
		t.Fatalf("cart = %q, want empty items", got)
	}
	if _, ok, _ := reopened.Get(KeyToken); ok {
		t.Fatalf("token survived Delete")
	}
}

func TestFileStore_CorruptFileStartsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "storage.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	fs, err := OpenFile(path)
	if err != nil {
		t.Fatalf("OpenFile: %v", err)
	}
	if _, ok, _ := fs.Get(KeyCart); ok {
		t.Fatalf("expected empty store")
	}
	if err := fs.Set(KeyCart, "x"); err != nil {
		t.Fatalf("Set after corrupt: %v", err)
	}
}

func TestFileStore_ClosedRejectsUse(t *testing.T) {
	fs, err := OpenFile(filepath.Join(t.TempDir(), "storage.json"))
	if err != nil {
		t.Fatalf("OpenFile: %v", err)
	}
	_ = fs.Close()
	if err := fs.Set("k", "v"); !errors.Is(err, ErrClosed) {
		t.Fatalf("Set after Close = %v, want ErrClosed", err)
	}
}

func TestOpen_Drivers(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		driver  string
		wantErr bool
	}{
		{"", false},
		{"file", false},
		{"SQLite", false},
		{"redis", true},
	}
	for _, tt := range tests {
		t.Run(tt.driver, func(t *testing.T) {
			st, err := Open(tt.driver, dir)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("Open(%q) succeeded, want error", tt.driver)
				}
				return
			}
			if err != nil {
				t.Fatalf("Open(%q): %v", tt.driver, err)
			}
			defer st.Close()
			if err := st.Set(KeyAdminToken, "tok"); err != nil {
				t.Fatalf("Set: %v", err)
			}
			got, ok, err := st.Get(KeyAdminToken)
			if err != nil || !ok || got != "tok" {
				t.Fatalf("Get = %q, %v, %v", got, ok, err)
			}
		})
	}
}

func TestOpen_EmptyDir(t *testing.T) {
	if _, err := Open(DriverFile, " "); err == nil {
		t.Fatalf("expected error for empty dir")
	}
}

func TestSQLiteStore_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "storage.db")
	st, err := OpenSQLite(path)
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	if err := st.Set(KeyCart, "one"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := st.Set(KeyCart, "two"); err != nil {
		t.Fatalf("Set overwrite: %v", err)
	}
	_ = st.Close()

	st, err = OpenSQLite(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer st.Close()
	got, ok, err := st.Get(KeyCart)
	if err != nil || !ok || got != "two" {
		t.Fatalf("Get = %q, %v, %v, want two", got, ok, err)
	}
	if err := st.Delete(KeyCart); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, ok, _ := st.Get(KeyCart); ok {
		t.Fatalf("key survived Delete")
	}
}

func TestSQLiteStore_GetMissingKey(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery("SELECT value FROM kv").WithArgs(KeyToken).WillReturnError(sql.ErrNoRows)

	st := NewSQLiteStore(db)
	_, ok, err := st.Get(KeyToken)
	if err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	if ok {
		t.Fatalf("ok = true for missing key")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestSQLiteStore_PropagatesDriverErrors(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	defer db.Close()

	boom := errors.New("disk I/O error")
	mock.ExpectQuery("SELECT value FROM kv").WithArgs(KeyCart).WillReturnError(boom)
	mock.ExpectExec("INSERT INTO kv").WithArgs(KeyCart, "v").WillReturnError(boom)
	mock.ExpectExec("DELETE FROM kv").WithArgs(KeyCart).WillReturnError(boom)

	st := NewSQLiteStore(db)
	if _, _, err := st.Get(KeyCart); !errors.Is(err, boom) {
		t.Fatalf("Get err = %v, want %v", err, boom)
	}
	if err := st.Set(KeyCart, "v"); !errors.Is(err, boom) {
		t.Fatalf("Set err = %v, want %v", err, boom)
	}
	if err := st.Delete(KeyCart); !errors.Is(err, boom) {
		t.Fatalf("Delete err = %v, want %v", err, boom)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestSQLiteStore_SetWritesValue(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	defer db.Close()

	mock.ExpectExec("INSERT INTO kv").WithArgs(KeyAdminUser, `{"id":1}`).WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectQuery("SELECT value FROM kv").WithArgs(KeyAdminUser).
		WillReturnRows(sqlmock.NewRows([]string{"value"}).AddRow(`{"id":1}`))

	st := NewSQLiteStore(db)
	if err := st.Set(KeyAdminUser, `{"id":1}`); err != nil {
		t.Fatalf("Set: %v", err)
	}
	got, ok, err := st.Get(KeyAdminUser)
	if err != nil || !ok || got != `{"id":1}` {
		t.Fatalf("Get = %q, %v, %v", got, ok, err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestMigrate_SchemaVersionReadError(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	defer db.Close()

	locked := errors.New("database is locked")
	mock.ExpectExec("PRAGMA journal_mode").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS meta").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT value FROM meta").WillReturnError(locked)

	if err := migrate(db); !errors.Is(err, locked) {
		t.Fatalf("migrate err = %v, want %v", err, locked)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestMigrate_FreshDatabaseCreatesSchema(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	defer db.Close()

	mock.ExpectExec("PRAGMA journal_mode").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS meta").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT value FROM meta").WillReturnError(sql.ErrNoRows)
	mock.ExpectBegin()
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS kv").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("INSERT INTO meta").WithArgs(schemaVersion).WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	if err := migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}
