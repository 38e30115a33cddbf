package realtime

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/scam-spotter/api-go/models"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func received(sub *Subscription) bool {
	select {
	case <-sub.C():
		return true
	case <-time.After(time.Second):
		return false
	}
}

func TestMemoryBroker_PublishSubscribe(t *testing.T) {
	b := NewMemoryBroker()
	defer b.Close()
	ctx := context.Background()

	first, err := b.Subscribe(ctx, "scams")
	require.NoError(t, err)
	second, err := b.Subscribe(ctx, "scams")
	require.NoError(t, err)
	other, err := b.Subscribe(ctx, "users")
	require.NoError(t, err)
	assert.Equal(t, 2, b.Subscribers("scams"))

	require.NoError(t, b.Publish(ctx, "scams"))
	assert.True(t, received(first))
	assert.True(t, received(second))

	select {
	case <-other.C():
		t.Fatal("notification leaked to another collection")
	default:
	}
}

func TestMemoryBroker_Coalesces(t *testing.T) {
	b := NewMemoryBroker()
	ctx := context.Background()

	sub, err := b.Subscribe(ctx, "scams")
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		require.NoError(t, b.Publish(ctx, "scams"))
	}
	assert.True(t, received(sub))

	select {
	case <-sub.C():
		t.Fatal("expected pending notifications to be coalesced")
	default:
	}
}

func TestSubscription_Close(t *testing.T) {
	b := NewMemoryBroker()
	ctx := context.Background()

	sub, err := b.Subscribe(ctx, "scams")
	require.NoError(t, err)
	require.NoError(t, sub.Close())
	require.NoError(t, sub.Close())

	assert.Equal(t, 0, b.Subscribers("scams"))
	select {
	case <-sub.Done():
	default:
		t.Fatal("Done should be closed")
	}

	require.NoError(t, b.Close())
	_, err = b.Subscribe(ctx, "scams")
	assert.ErrorIs(t, err, ErrBrokerClosed)
}

func TestRegisterChangeFeed(t *testing.T) {
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer sqlDB.Close()

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{SkipDefaultTransaction: true})
	require.NoError(t, err)

	log, _ := test.NewNullLogger()
	b := NewMemoryBroker()
	require.NoError(t, RegisterChangeFeed(db, b, log, models.ReportsTable))

	ctx := context.Background()
	sub, err := b.Subscribe(ctx, models.ReportsTable)
	require.NoError(t, err)
	defer sub.Close()

	t.Run("InsertNotifies", func(t *testing.T) {
		mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO "scams"`)).
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))

		require.NoError(t, db.Create(&models.Report{Title: "t", Description: "d", Category: models.CategoryOther}).Error)
		assert.True(t, received(sub))
	})

	t.Run("UpdateNotifies", func(t *testing.T) {
		mock.ExpectExec(regexp.QuoteMeta(`UPDATE "scams" SET "votes"=votes + $1 WHERE id = $2`)).
			WillReturnResult(sqlmock.NewResult(0, 1))

		require.NoError(t, db.Model(&models.Report{}).Where("id = ?", 1).UpdateColumn("votes", gorm.Expr("votes + ?", 1)).Error)
		assert.True(t, received(sub))
	})

	t.Run("FailedWriteDoesNotNotify", func(t *testing.T) {
		mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO "scams"`)).WillReturnError(assert.AnError)

		require.Error(t, db.Create(&models.Report{Title: "t", Description: "d", Category: models.CategoryOther}).Error)
		select {
		case <-sub.C():
			t.Fatal("failed insert must not notify")
		case <-time.After(50 * time.Millisecond):
		}
	})

	require.NoError(t, mock.ExpectationsWereMet())
}
