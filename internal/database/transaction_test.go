package database

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
)

func openItemsDB(t *testing.T) Database {
	t.Helper()
	ctx := context.Background()
	url := "sqlite:///" + filepath.Join(t.TempDir(), "test.db")

	db, err := NewDatabase(ctx, url)
	if err != nil {
		t.Fatalf("NewDatabase: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	if err := db.Session(ctx).Exec("CREATE TABLE test_items (id INTEGER PRIMARY KEY, name TEXT UNIQUE)").Error; err != nil {
		t.Fatalf("create table: %v", err)
	}
	return db
}

func countItems(t *testing.T, db Database) int64 {
	t.Helper()
	var count int64
	if err := db.Session(context.Background()).Raw("SELECT COUNT(*) FROM test_items").Scan(&count).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	return count
}

func TestTransaction_Commit(t *testing.T) {
	ctx := context.Background()
	db := openItemsDB(t)

	txn, err := NewTransaction(ctx, db)
	if err != nil {
		t.Fatalf("NewTransaction: %v", err)
	}

	if err := txn.Session().Exec("INSERT INTO test_items (name) VALUES (?)", "item1").Error; err != nil {
		t.Fatalf("insert: %v", err)
	}
	if err := txn.Commit(); err != nil {
		t.Fatalf("Commit: %v", err)
	}

	if got := countItems(t, db); got != 1 {
		t.Errorf("expected count 1, got %d", got)
	}

	if err := txn.Commit(); err != nil {
		t.Errorf("second Commit should not error: %v", err)
	}
	if err := txn.Rollback(); err != nil {
		t.Errorf("Rollback after Commit should not error: %v", err)
	}
}

func TestTransaction_Rollback(t *testing.T) {
	ctx := context.Background()
	db := openItemsDB(t)

	txn, err := NewTransaction(ctx, db)
	if err != nil {
		t.Fatalf("NewTransaction: %v", err)
	}

	if err := txn.Database().Session(ctx).Exec("INSERT INTO test_items (name) VALUES (?)", "item1").Error; err != nil {
		t.Fatalf("insert: %v", err)
	}
	if err := txn.Rollback(); err != nil {
		t.Fatalf("Rollback: %v", err)
	}

	if got := countItems(t, db); got != 0 {
		t.Errorf("expected count 0 after rollback, got %d", got)
	}

	if err := txn.Rollback(); err != nil {
		t.Errorf("second Rollback should not error: %v", err)
	}
}

func TestWithTransaction_Success(t *testing.T) {
	ctx := context.Background()
	db := openItemsDB(t)

	err := WithTransaction(ctx, db, func(tx Database) error {
		return tx.Session(ctx).Exec("INSERT INTO test_items (name) VALUES (?)", "item1").Error
	})
	if err != nil {
		t.Fatalf("WithTransaction: %v", err)
	}

	if got := countItems(t, db); got != 1 {
		t.Errorf("expected count 1, got %d", got)
	}
}

func TestWithTransaction_Error(t *testing.T) {
	ctx := context.Background()
	db := openItemsDB(t)

	testErr := errors.New("test error")
	err := WithTransaction(ctx, db, func(tx Database) error {
		if err := tx.Session(ctx).Exec("INSERT INTO test_items (name) VALUES (?)", "item1").Error; err != nil {
			return err
		}
		return testErr
	})
	if !errors.Is(err, testErr) {
		t.Errorf("expected test error, got: %v", err)
	}

	if got := countItems(t, db); got != 0 {
		t.Errorf("expected count 0 after error, got %d", got)
	}
}

func TestWithTransaction_Panic(t *testing.T) {
	ctx := context.Background()
	db := openItemsDB(t)

	func() {
		defer func() { _ = recover() }()
		_ = WithTransaction(ctx, db, func(tx Database) error {
			_ = tx.Session(ctx).Exec("INSERT INTO test_items (name) VALUES (?)", "item1").Error
			panic("boom")
		})
	}()

	if got := countItems(t, db); got != 0 {
		t.Errorf("expected count 0 after panic, got %d", got)
	}
}

func TestWithTransaction_Nested(t *testing.T) {
	ctx := context.Background()
	db := openItemsDB(t)

	err := WithTransaction(ctx, db, func(tx Database) error {
		if err := tx.Session(ctx).Exec("INSERT INTO test_items (name) VALUES (?)", "outer").Error; err != nil {
			return err
		}
		inner := WithTransaction(ctx, tx, func(inner Database) error {
			_ = inner.Session(ctx).Exec("INSERT INTO test_items (name) VALUES (?)", "inner").Error
			return errors.New("inner failed")
		})
		if inner == nil {
			t.Error("expected inner error")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("WithTransaction: %v", err)
	}

	if got := countItems(t, db); got != 1 {
		t.Errorf("expected only the outer row, got %d", got)
	}
}

func TestWithTransactionResult(t *testing.T) {
	ctx := context.Background()
	db := openItemsDB(t)

	result, err := WithTransactionResult(ctx, db, func(tx Database) (int, error) {
		var val int
		if err := tx.Session(ctx).Raw("SELECT 42").Scan(&val).Error; err != nil {
			return 0, err
		}
		return val, nil
	})
	if err != nil {
		t.Fatalf("WithTransactionResult: %v", err)
	}
	if result != 42 {
		t.Errorf("expected result 42, got %d", result)
	}

	testErr := errors.New("test error")
	_, err = WithTransactionResult(ctx, db, func(tx Database) (int, error) {
		return 0, testErr
	})
	if !errors.Is(err, testErr) {
		t.Errorf("expected test error, got: %v", err)
	}
}

func TestIsUniqueViolation(t *testing.T) {
	ctx := context.Background()
	db := openItemsDB(t)

	if err := db.Session(ctx).Exec("INSERT INTO test_items (name) VALUES (?)", "dup").Error; err != nil {
		t.Fatalf("insert: %v", err)
	}
	err := db.Session(ctx).Exec("INSERT INTO test_items (name) VALUES (?)", "dup").Error
	if err == nil {
		t.Fatal("expected unique violation")
	}
	if !IsUniqueViolation(err) {
		t.Errorf("IsUniqueViolation(%v) = false", err)
	}
	if IsUniqueViolation(nil) {
		t.Error("IsUniqueViolation(nil) = true")
	}
	if IsUniqueViolation(errors.New("other")) {
		t.Error("IsUniqueViolation(other) = true")
	}
}
