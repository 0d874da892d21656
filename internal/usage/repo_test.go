package usage

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qrgenpro/qrgen-backend/pkg/db/dbtest"
	"github.com/qrgenpro/qrgen-backend/pkg/db/models"
	"github.com/qrgenpro/qrgen-backend/pkg/enums"
	"github.com/qrgenpro/qrgen-backend/pkg/migrate"
)

func TestIncrementUpsertsOneRowPerDay(t *testing.T) {
	conn := dbtest.Open(t, migrate.AutoMigrateSQLite)
	repo := NewRepository(conn)
	ctx := context.Background()
	userID := uuid.New()
	day := Day(time.Date(2026, 5, 20, 15, 0, 0, 0, time.UTC))

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, repo.Increment(ctx, userID, enums.UsageActionQRGenerated, day, 1))
		}()
	}
	wg.Wait()

	var rows []models.UsageRecord
	require.NoError(t, conn.Where("user_id = ?", userID).Find(&rows).Error)
	require.Len(t, rows, 1)
	assert.EqualValues(t, 20, rows[0].UsageCount)
}

func TestTotalsStayWithinMonth(t *testing.T) {
	conn := dbtest.Open(t, migrate.AutoMigrateSQLite)
	repo := NewRepository(conn)
	ctx := context.Background()
	userID := uuid.New()
	other := uuid.New()

	inc := func(user uuid.UUID, action enums.UsageAction, day time.Time, n int64) {
		require.NoError(t, repo.Increment(ctx, user, action, day, n))
	}
	inc(userID, enums.UsageActionQRGenerated, time.Date(2026, 4, 30, 0, 0, 0, 0, time.UTC), 7)
	inc(userID, enums.UsageActionQRGenerated, time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC), 3)
	inc(userID, enums.UsageActionQRGenerated, time.Date(2026, 5, 31, 0, 0, 0, 0, time.UTC), 2)
	inc(userID, enums.UsageActionAPICall, time.Date(2026, 5, 10, 0, 0, 0, 0, time.UTC), 11)
	inc(other, enums.UsageActionQRGenerated, time.Date(2026, 5, 10, 0, 0, 0, 0, time.UTC), 100)

	from, to := MonthWindow(time.Date(2026, 5, 15, 8, 0, 0, 0, time.UTC))
	total, err := repo.Total(ctx, userID, enums.UsageActionQRGenerated, from, to)
	require.NoError(t, err)
	assert.EqualValues(t, 5, total)

	totals, err := repo.Totals(ctx, userID, from, to)
	require.NoError(t, err)
	assert.EqualValues(t, 5, totals[enums.UsageActionQRGenerated])
	assert.EqualValues(t, 11, totals[enums.UsageActionAPICall])

	empty, err := repo.Total(ctx, uuid.New(), enums.UsageActionQRGenerated, from, to)
	require.NoError(t, err)
	assert.Zero(t, empty)
}

func TestCountActiveDynamic(t *testing.T) {
	conn := dbtest.Open(t, migrate.AutoMigrateSQLite)
	repo := NewRepository(conn)
	userID := uuid.New()

	codes := []models.QRCode{
		{UserID: userID, IsDynamic: true, IsActive: true, ShortCode: ptr("aaaa1111")},
		{UserID: userID, IsDynamic: true, IsActive: true, ShortCode: ptr("aaaa2222")},
		{UserID: userID, IsDynamic: true, IsActive: false, ShortCode: ptr("aaaa3333")},
		{UserID: userID, IsDynamic: false, IsActive: true},
	}
	for i := range codes {
		codes[i].Name = "code"
		codes[i].ContentType = enums.QRContentURL
		codes[i].Content = []byte(`{}`)
		codes[i].Style = []byte(`{}`)
		codes[i].Encoded = "x"
		require.NoError(t, conn.Create(&codes[i]).Error)
	}
	// gorm skips zero-valued fields with defaults on create
	require.NoError(t, conn.Model(&models.QRCode{}).Where("id = ?", codes[2].ID).Update("is_active", false).Error)

	n, err := repo.CountActiveDynamic(context.Background(), userID)
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)
}

func TestMonthWindowAndDay(t *testing.T) {
	start, end := MonthWindow(time.Date(2026, 12, 31, 23, 59, 0, 0, time.UTC))
	assert.Equal(t, time.Date(2026, 12, 1, 0, 0, 0, 0, time.UTC), start)
	assert.Equal(t, time.Date(2027, 1, 1, 0, 0, 0, 0, time.UTC), end)
	assert.Equal(t, time.Date(2026, 12, 31, 0, 0, 0, 0, time.UTC), Day(time.Date(2026, 12, 31, 23, 59, 0, 0, time.UTC)))
}

func ptr(s string) *string { return &s }

func TestDeleteBeforeKeepsBoundaryDay(t *testing.T) {
	conn := dbtest.Open(t, migrate.AutoMigrateSQLite)
	repo := NewRepository(conn)
	ctx := context.Background()
	userID := uuid.New()

	for _, d := range []int{1, 2, 3} {
		day := time.Date(2026, 3, d, 0, 0, 0, 0, time.UTC)
		require.NoError(t, repo.Increment(ctx, userID, enums.UsageActionQRGenerated, day, 1))
	}

	deleted, err := repo.DeleteBefore(ctx, time.Date(2026, 3, 2, 18, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.EqualValues(t, 1, deleted)

	total, err := repo.Total(ctx, userID, enums.UsageActionQRGenerated,
		time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC), time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
}
