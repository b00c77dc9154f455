package services

import (
	"io"
	"testing"
	"time"

	"rental-backend/config"
	"rental-backend/models"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Discard,
	})
	require.NoError(t, err)

	// A single connection keeps every query on the same in-memory database.
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.Property{},
		&models.Booking{},
		&models.Reclamation{},
		&models.SettlementPayout{},
	))
	return db
}

func newTestLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func testSettings() config.Settings {
	return config.Settings{
		NegotiationFloorRatio: 0.70,
		NegotiationTTL:        48 * time.Hour,
		LongStayMinNights:     28,
		SettlementURL:         "http://settlement.test",
		PayoutSweepInterval:   time.Minute,
	}
}

type fixtures struct {
	Tenant   models.User
	Owner    models.User
	Property models.Property
}

func seedFixtures(t *testing.T, db *gorm.DB) fixtures {
	t.Helper()

	f := fixtures{
		Tenant: models.User{FullName: "Mika Tenant", Email: "mika@example.com", Role: models.RoleTenant},
		Owner:  models.User{FullName: "Sam Host", Email: "sam@example.com", Role: models.RoleHost},
	}
	require.NoError(t, db.Create(&f.Tenant).Error)
	require.NoError(t, db.Create(&f.Owner).Error)

	f.Property = models.Property{
		OwnerID:                 f.Owner.ID,
		Title:                   "Canal-side loft",
		NightlyRent:             100,
		Deposit:                 500,
		LongStayDiscountPercent: 10,
	}
	require.NoError(t, db.Create(&f.Property).Error)
	return f
}

func futureDate(t *testing.T, daysAhead int) string {
	t.Helper()
	return time.Now().UTC().AddDate(0, 0, daysAhead).Format("2006-01-02")
}

// seedBookingInStatus creates a booking directly in the given status,
// bypassing the lifecycle, for tests that start mid-flow.
func seedBookingInStatus(t *testing.T, db *gorm.DB, f fixtures, status models.BookingStatus) models.Booking {
	t.Helper()

	now := time.Now().UTC()
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	b := models.Booking{
		ReferenceCode: "test-" + string(status) + "-" + now.Format("150405.000000000"),
		TenantID:      f.Tenant.ID,
		PropertyID:    f.Property.ID,
		CheckIn:       midnight.AddDate(0, 0, 7),
		CheckOut:      midnight.AddDate(0, 0, 10),
		Guests:        2,
		TotalPrice:    300,
		Status:        status,
	}
	require.NoError(t, db.Create(&b).Error)
	return b
}
