package realtime

import (
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// RegisterChangeFeed publishes a notification for every successful insert, update
// or delete on one of the watched tables. Publish failures are logged and never
// fail the write.
func RegisterChangeFeed(db *gorm.DB, broker Broker, log logrus.FieldLogger, tables ...string) error {
	watched := make(map[string]bool, len(tables))
	for _, t := range tables {
		watched[t] = true
	}

	notify := func(tx *gorm.DB) {
		if tx.Error != nil || tx.Statement == nil || tx.RowsAffected == 0 {
			return
		}
		table := tx.Statement.Table
		if table == "" && tx.Statement.Schema != nil {
			table = tx.Statement.Schema.Table
		}
		if !watched[table] {
			return
		}
		if err := broker.Publish(tx.Statement.Context, table); err != nil {
			log.WithError(err).WithField("collection", table).Warn("realtime publish failed")
		}
	}

	const after = "gorm:commit_or_rollback_transaction"
	if err := db.Callback().Create().After(after).Register("realtime:notify_create", notify); err != nil {
		return err
	}
	if err := db.Callback().Update().After(after).Register("realtime:notify_update", notify); err != nil {
		return err
	}
	return db.Callback().Delete().After(after).Register("realtime:notify_delete", notify)
}
