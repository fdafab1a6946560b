package repo

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/go-reminder-bot/internal/domain"
)

// ErrDuplicate indicates that a live delivery record already exists for the key.
var ErrDuplicate = errors.New("duplicate")

// GetDelivery returns a non-expired record or ErrNotFound.
func GetDelivery(ctx context.Context, db *gorm.DB, key string, now time.Time) (*domain.Delivery, error) {
	var rec domain.Delivery
	err := db.WithContext(ctx).
		Where("key = ? AND expires_at > ?", key, now).
		First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	return &rec, err
}

// CreateDelivery inserts a record and returns ErrDuplicate on primary key
// violation.
func CreateDelivery(ctx context.Context, db *gorm.DB, key, kind string, now time.Time, ttl time.Duration) (*domain.Delivery, error) {
	rec := &domain.Delivery{
		Key:       key,
		Kind:      kind,
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
	}
	if err := db.WithContext(ctx).Create(rec).Error; err != nil {
		// glebarez/sqlite often returns plain-text errors for UNIQUE violations.
		low := strings.ToLower(err.Error())
		if errors.Is(err, gorm.ErrDuplicatedKey) ||
			strings.Contains(low, "unique constraint failed") ||
			strings.Contains(low, "constraint failed: unique") {
			return nil, ErrDuplicate
		}
		return nil, err
	}
	return rec, nil
}

// PurgeExpired deletes every record that expired at or before now and
// returns how many were removed.
func PurgeExpired(ctx context.Context, db *gorm.DB, now time.Time) (int64, error) {
	res := db.WithContext(ctx).Where("expires_at <= ?", now).Delete(&domain.Delivery{})
	return res.RowsAffected, res.Error
}

// DeliveryLedger remembers which submissions were handled so that a
// redelivered one is ignored. Records live for TTL.
type DeliveryLedger struct {
	DB  *gorm.DB
	TTL time.Duration
}

// NewDeliveryLedger returns a ledger over db.
func NewDeliveryLedger(db *gorm.DB, ttl time.Duration) *DeliveryLedger {
	return &DeliveryLedger{DB: db, TTL: ttl}
}

// Claim records key and reports true the first time it is seen within TTL.
// A second claim for the same live key reports false. Expired records are
// purged first so that a key can be claimed again after it lapses. The insert
// still guards against two claims racing past the lookup.
func (l *DeliveryLedger) Claim(ctx context.Context, key, kind string, now time.Time) (bool, error) {
	now = now.UTC()
	if _, err := PurgeExpired(ctx, l.DB, now); err != nil {
		return false, err
	}
	switch _, err := GetDelivery(ctx, l.DB, key, now); {
	case err == nil:
		return false, nil
	case !errors.Is(err, ErrNotFound):
		return false, err
	}
	if _, err := CreateDelivery(ctx, l.DB, key, kind, now, l.TTL); err != nil {
		if errors.Is(err, ErrDuplicate) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}
