package domain

import "time"

// Delivery records that an inbound submission has already been acted on.
// Slack may redeliver the same view submission (Socket Mode retries, HTTP
// retries after a slow ack); the ledger keyed by Key makes the second
// delivery a no-op. Records expire after a TTL and are purged lazily.
type Delivery struct {
	Key       string    `gorm:"type:TEXT NOT NULL;primaryKey"`
	Kind      string    `gorm:"type:TEXT NOT NULL"`
	CreatedAt time.Time `gorm:"type:DATETIME NOT NULL;autoCreateTime"`
	ExpiresAt time.Time `gorm:"type:DATETIME NOT NULL;index"`
}

// TableName implements the GORM tabler interface.
func (Delivery) TableName() string { return "deliveries" }
