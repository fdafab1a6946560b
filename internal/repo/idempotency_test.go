package repo

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite" // pure-Go SQLite
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tbourn/go-reminder-bot/internal/domain"
)

func newLedgerDB(t *testing.T) *gorm.DB {
	t.Helper()
	// Use a unique in-memory database per test to avoid state leakage across tests.
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&domain.Delivery{}); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	return db
}

func TestCreateDelivery_DuplicateKey(t *testing.T) {
	db := newLedgerDB(t)
	ctx := context.Background()
	now := time.Now().UTC()

	if _, err := CreateDelivery(ctx, db, "view:V1:h1", "view_submission", now, time.Minute); err != nil {
		t.Fatalf("first create: %v", err)
	}
	rec, err := CreateDelivery(ctx, db, "view:V1:h1", "view_submission", now, time.Minute)
	if rec != nil || !errors.Is(err, ErrDuplicate) {
		t.Fatalf("expected (nil, ErrDuplicate), got (%v, %v)", rec, err)
	}
}

func TestGetDelivery_LiveExpiredMissing(t *testing.T) {
	db := newLedgerDB(t)
	ctx := context.Background()
	now := time.Now().UTC()

	if _, err := CreateDelivery(ctx, db, "live", "view_submission", now, time.Hour); err != nil {
		t.Fatalf("seed live: %v", err)
	}
	if _, err := CreateDelivery(ctx, db, "old", "view_submission", now.Add(-2*time.Hour), time.Hour); err != nil {
		t.Fatalf("seed expired: %v", err)
	}

	rec, err := GetDelivery(ctx, db, "live", now)
	if err != nil || rec.Kind != "view_submission" {
		t.Fatalf("expected live record, got (%v, %v)", rec, err)
	}
	if _, err := GetDelivery(ctx, db, "old", now); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for expired record, got %v", err)
	}
	if _, err := GetDelivery(ctx, db, "missing", now); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for missing record, got %v", err)
	}
}

func TestPurgeExpired(t *testing.T) {
	db := newLedgerDB(t)
	ctx := context.Background()
	now := time.Now().UTC()

	_, _ = CreateDelivery(ctx, db, "a", "k", now.Add(-time.Hour), time.Minute)
	_, _ = CreateDelivery(ctx, db, "b", "k", now.Add(-time.Hour), time.Minute)
	_, _ = CreateDelivery(ctx, db, "c", "k", now, time.Hour)

	n, err := PurgeExpired(ctx, db, now)
	if err != nil || n != 2 {
		t.Fatalf("expected 2 purged, got %d (err=%v)", n, err)
	}
	var left int64
	db.Model(&domain.Delivery{}).Count(&left)
	if left != 1 {
		t.Fatalf("expected 1 record left, got %d", left)
	}
}

func TestDeliveryLedger_Claim(t *testing.T) {
	ledger := NewDeliveryLedger(newLedgerDB(t), 10*time.Minute)
	ctx := context.Background()
	t0 := time.Date(2024, 5, 10, 10, 0, 0, 0, time.UTC)

	first, err := ledger.Claim(ctx, "view:V1:h1", "view_submission", t0)
	if err != nil || !first {
		t.Fatalf("first claim: got (%v, %v)", first, err)
	}
	again, err := ledger.Claim(ctx, "view:V1:h1", "view_submission", t0.Add(time.Minute))
	if err != nil || again {
		t.Fatalf("second claim within TTL must be rejected, got (%v, %v)", again, err)
	}
	other, err := ledger.Claim(ctx, "view:V2:h1", "view_submission", t0.Add(time.Minute))
	if err != nil || !other {
		t.Fatalf("distinct key must be claimable, got (%v, %v)", other, err)
	}
	lapsed, err := ledger.Claim(ctx, "view:V1:h1", "view_submission", t0.Add(11*time.Minute))
	if err != nil || !lapsed {
		t.Fatalf("claim after TTL must succeed, got (%v, %v)", lapsed, err)
	}
}

func TestDeliveryLedger_Claim_LiveRecordSkipsInsert(t *testing.T) {
	db := newLedgerDB(t)
	ledger := NewDeliveryLedger(db, 10*time.Minute)
	ctx := context.Background()
	t0 := time.Date(2024, 5, 10, 10, 0, 0, 0, time.UTC)

	if _, err := CreateDelivery(ctx, db, "view:V9:h", "view_submission", t0, 10*time.Minute); err != nil {
		t.Fatalf("seed: %v", err)
	}
	ok, err := ledger.Claim(ctx, "view:V9:h", "view_submission", t0.Add(time.Minute))
	if err != nil || ok {
		t.Fatalf("live record must block the claim, got (%v, %v)", ok, err)
	}
	rec, err := GetDelivery(ctx, db, "view:V9:h", t0.Add(time.Minute))
	if err != nil || rec.CreatedAt.Unix() != t0.Unix() {
		t.Fatalf("original record must be kept, got (%v, %v)", rec, err)
	}
}

func TestDeliveryLedger_Claim_StorageError(t *testing.T) {
	db := newLedgerDB(t)
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	_ = sqlDB.Close()

	ok, err := NewDeliveryLedger(db, time.Minute).Claim(context.Background(), "k", "view_submission", time.Now())
	if err == nil || ok {
		t.Fatalf("closed database must surface an error, got (%v, %v)", ok, err)
	}
}
