package migrate

import (
	"fmt"

	"github.com/qrgenpro/qrgen-backend/pkg/db/models"
	"gorm.io/gorm"
)

// AutoMigrateSQLite builds the schema on a SQLite connection, where the goose
// migrations (Postgres SQL) cannot run. Used by the SQLite dev mode and repository tests.
func AutoMigrateSQLite(conn *gorm.DB) error {
	if conn == nil {
		return fmt.Errorf("db is required")
	}
	if err := conn.AutoMigrate(
		&models.User{},
		&models.Subscription{},
		&models.UsageRecord{},
		&models.QRCode{},
		&models.QRScan{},
	); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	stmt := fmt.Sprintf(
		"CREATE UNIQUE INDEX IF NOT EXISTS %s ON subscriptions (user_id) WHERE status IN ('active', 'trialing', 'past_due')",
		models.CurrentSubscriptionIndex,
	)
	if err := conn.Exec(stmt).Error; err != nil {
		return fmt.Errorf("create current subscription index: %w", err)
	}
	return nil
}
