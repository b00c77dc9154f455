package config

import (
	"fmt"
	"log"
	"net/url"
	"os"
	"strings"
	"time"

	"rental-backend/models"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var DB *gorm.DB

func envOrDefault(key, def string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	return value
}

func mysqlDSNFromURL(raw string) (string, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", err
	}

	user := u.User.Username()
	pass, _ := u.User.Password()
	host := u.Hostname()
	port := u.Port()
	if port == "" {
		port = "3306"
	}

	dbName := strings.TrimPrefix(u.Path, "/")
	if dbName == "" {
		return "", fmt.Errorf("mysql url missing database name")
	}

	q := u.Query()
	if q.Get("charset") == "" {
		q.Set("charset", "utf8mb4")
	}
	if q.Get("parseTime") == "" {
		q.Set("parseTime", "True")
	}
	if q.Get("loc") == "" {
		q.Set("loc", "Local")
	}

	return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?%s", user, pass, host, port, dbName, q.Encode()), nil
}

func resolveMySQLDSN() (string, error) {
	raw := strings.TrimSpace(os.Getenv("MYSQL_URL"))
	if raw == "" {
		raw = strings.TrimSpace(os.Getenv("DATABASE_URL"))
	}

	if raw != "" {
		if strings.HasPrefix(raw, "mysql://") {
			return mysqlDSNFromURL(raw)
		}
		return raw, nil
	}

	user := envOrDefault("DB_USER", "root")
	pass := envOrDefault("DB_PASS", "")
	host := envOrDefault("DB_HOST", "127.0.0.1")
	port := envOrDefault("DB_PORT", "3306")
	dbName := envOrDefault("DB_NAME", "rental_db")

	return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		user, pass, host, port, dbName,
	), nil
}

// SeedDatabase ensures the context rows the engines read exist on a fresh
// install: a platform admin plus a demo host/tenant pair with listings.
func SeedDatabase() {
	var adminCount int64
	DB.Model(&models.User{}).Where("role = ?", models.RoleAdmin).Count(&adminCount)
	if adminCount == 0 {
		admin := models.User{
			FullName: "Platform Admin",
			Email:    "admin@rental.local",
			Role:     models.RoleAdmin,
		}
		if err := DB.Create(&admin).Error; err != nil {
			log.Printf("warning: failed to create default admin: %v", err)
		} else {
			log.Println("Default admin seeded")
		}
	}

	var userCount int64
	DB.Model(&models.User{}).Where("role <> ?", models.RoleAdmin).Count(&userCount)
	if userCount > 0 {
		return
	}

	host := models.User{FullName: "Demo Host", Email: "host@rental.local", Role: models.RoleHost}
	tenant := models.User{FullName: "Demo Tenant", Email: "tenant@rental.local", Role: models.RoleTenant}
	if err := DB.Create(&host).Error; err != nil {
		log.Printf("warning: failed to seed demo host: %v", err)
		return
	}
	if err := DB.Create(&tenant).Error; err != nil {
		log.Printf("warning: failed to seed demo tenant: %v", err)
		return
	}

	properties := []models.Property{
		{OwnerID: host.ID, Title: "City Loft", NightlyRent: 120, Deposit: 500, LongStayDiscountPercent: 10},
		{OwnerID: host.ID, Title: "Seaside Cottage", NightlyRent: 200, Deposit: 800},
	}
	if err := DB.Create(&properties).Error; err != nil {
		log.Printf("warning: failed to seed demo properties: %v", err)
		return
	}
	log.Println("Demo users and properties seeded")
}

func ConnectDatabase() error {
	dsn, err := resolveMySQLDSN()
	if err != nil {
		return err
	}

	newLogger := logger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		logger.Config{
			SlowThreshold: time.Second,
			LogLevel:      logger.Warn,
			Colorful:      true,
		},
	)

	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{Logger: newLogger})
	if err != nil {
		return err
	}

	DB = db

	// AutoMigrate in parent->child order
	if err := DB.AutoMigrate(
		&models.User{},
		&models.Property{},
		&models.Booking{},
		&models.Reclamation{},
		&models.SettlementPayout{},
	); err != nil {
		return err
	}

	SeedDatabase()
	return nil
}
