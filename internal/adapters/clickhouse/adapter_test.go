package clickhouse

import (
	"context"
	"errors"
	"strings"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"

	"github.com/switchyard-labs/switchyard/internal/classifier"
)

// newMockedAdapter swaps the adapter's lazy handle for a sqlmock database.
func newMockedAdapter(t *testing.T) (*Adapter, sqlmock.Sqlmock) {
	t.Helper()

	adapter, err := NewAdapter(DefaultConfig())
	if err != nil {
		t.Fatalf("NewAdapter failed: %v", err)
	}

	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	if err != nil {
		t.Fatalf("sqlmock.New failed: %v", err)
	}
	adapter.db.Close()
	adapter.db = db
	return adapter, mock
}

// TestAdapter_Identity verifies the registry key and routing label.
func TestAdapter_Identity(t *testing.T) {
	adapter, _ := newMockedAdapter(t)
	defer adapter.Close()

	if adapter.Name() != "clickhouse" {
		t.Errorf("Name = %q, want clickhouse", adapter.Name())
	}
	if adapter.Label() != classifier.LabelColumnar {
		t.Errorf("Label = %q, want columnar", adapter.Label())
	}
}

// TestExecute_RewritesUsersToObjectStore verifies that a statement reading
// the users table is rewritten to scan its Parquet files before it reaches
// the backend.
func TestExecute_RewritesUsersToObjectStore(t *testing.T) {
	adapter, mock := newMockedAdapter(t)
	defer adapter.Close()

	rewritten := "SELECT role, COUNT(*) FROM " +
		"s3('http://minio:9000/lake-data/data/users*/**/*.parquet', 'admin', 'password', 'Parquet')" +
		" GROUP BY role"
	mock.ExpectQuery(rewritten).WillReturnRows(
		sqlmock.NewRows([]string{"role", "count()"}).
			AddRow("Admin", uint64(7)).
			AddRow("User", uint64(35)))

	result, err := adapter.Execute(context.Background(), "SELECT role, COUNT(*) FROM users GROUP BY role")
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}

	if result.RowCount() != 2 {
		t.Errorf("RowCount = %d, want 2", result.RowCount())
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("statement was not rewritten as expected: %v", err)
	}
}

// TestExecute_NoRewriteWithoutGuard verifies that statements not touching
// a rewritten table pass through untouched.
func TestExecute_NoRewriteWithoutGuard(t *testing.T) {
	adapter, mock := newMockedAdapter(t)
	defer adapter.Close()

	mock.ExpectQuery("SELECT COUNT(*) FROM orders").WillReturnRows(
		sqlmock.NewRows([]string{"count()"}).AddRow(uint64(12)))

	if _, err := adapter.Execute(context.Background(), "SELECT COUNT(*) FROM orders"); err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("statement should have passed through untouched: %v", err)
	}
}

// TestExecute_BackendErrorIsWrapped verifies the adapter prefix and cause
// chain on failure.
func TestExecute_BackendErrorIsWrapped(t *testing.T) {
	adapter, mock := newMockedAdapter(t)
	defer adapter.Close()

	cause := errors.New("code: 60, message: Table default.missing does not exist")
	mock.ExpectQuery("SELECT * FROM missing").WillReturnError(cause)

	_, err := adapter.Execute(context.Background(), "SELECT * FROM missing")
	if err == nil {
		t.Fatal("Execute succeeded on a failing backend")
	}
	if !strings.HasPrefix(err.Error(), "clickhouse adapter:") {
		t.Errorf("error = %q, want clickhouse adapter prefix", err)
	}
	if !errors.Is(err, cause) {
		t.Errorf("error does not unwrap to the driver error: %v", err)
	}
}

// TestExecute_FailsWhenClosed verifies that a closed adapter refuses work.
func TestExecute_FailsWhenClosed(t *testing.T) {
	adapter, mock := newMockedAdapter(t)
	mock.ExpectClose()
	if err := adapter.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	if _, err := adapter.Execute(context.Background(), "SELECT 1"); err == nil {
		t.Fatal("Execute succeeded on a closed adapter")
	}
}

// TestCheckHealth verifies the health probe.
func TestCheckHealth(t *testing.T) {
	adapter, mock := newMockedAdapter(t)
	defer adapter.Close()

	mock.ExpectQuery("SELECT 1").WillReturnRows(
		sqlmock.NewRows([]string{"1"}).AddRow(1))

	if err := adapter.CheckHealth(context.Background()); err != nil {
		t.Fatalf("CheckHealth failed: %v", err)
	}
}

// TestClose_Idempotent verifies that Close can be called repeatedly.
func TestClose_Idempotent(t *testing.T) {
	adapter, mock := newMockedAdapter(t)
	mock.ExpectClose()

	if err := adapter.Close(); err != nil {
		t.Fatalf("first Close failed: %v", err)
	}
	if err := adapter.Close(); err != nil {
		t.Fatalf("second Close failed: %v", err)
	}
}

// TestObjectStoreRule verifies the s3() locator layout.
func TestObjectStoreRule(t *testing.T) {
	rule := ObjectStoreRule("users", "minio:9000", "lake-data", "admin", "password")

	wantLocator := "s3('http://minio:9000/lake-data/data/users*/**/*.parquet', 'admin', 'password', 'Parquet')"
	if rule.Locator != wantLocator {
		t.Errorf("Locator = %q, want %q", rule.Locator, wantLocator)
	}
	if len(rule.Guards) != 2 || rule.Guards[0] != "FROM users" || rule.Guards[1] != "from users" {
		t.Errorf("Guards = %v, want [FROM users, from users]", rule.Guards)
	}
}
