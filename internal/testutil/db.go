// Package testutil provides sqlite-backed fixtures for repository and engine
// tests.
package testutil

import (
	"fmt"
	"strings"
	"testing"

	"github.com/angelmondragon/tradelink-backend/pkg/db/models"
	"github.com/angelmondragon/tradelink-backend/pkg/enums"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// NewDB opens a private in-memory sqlite database with every model migrated.
// The pool is pinned to one connection so transactions serialize the way row
// locks would on Postgres.
func NewDB(t testing.TB) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s_%s?mode=memory&cache=shared", sanitize(t.Name()), uuid.NewString())
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := conn.DB()
	if err != nil {
		t.Fatalf("sql handle: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := conn.AutoMigrate(models.All()...); err != nil {
		t.Fatalf("migrate sqlite: %v", err)
	}
	return conn
}

// UserOption tweaks a seeded user.
type UserOption func(*models.User)

// WithCommission sets a per-seller commission override.
func WithCommission(pct string) UserOption {
	return func(u *models.User) {
		d := decimal.RequireFromString(pct)
		u.CommissionPercent = &d
	}
}

// SeedUser inserts a user with the given role.
func SeedUser(t testing.TB, db *gorm.DB, role enums.UserRole, opts ...UserOption) *models.User {
	t.Helper()
	id := uuid.New()
	user := &models.User{
		ID:        id,
		Email:     fmt.Sprintf("%s-%s@example.com", role, id.String()[:8]),
		FirstName: strings.ToUpper(string(role[:1])) + string(role[1:]),
		Role:      role,
	}
	for _, opt := range opts {
		opt(user)
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return user
}

// ProductSpec describes a seeded product. Zero Multiple means 1.
type ProductSpec struct {
	Price    string
	Discount string
	Stock    int
	Multiple int
	Name     string
	Source   *uuid.UUID
}

// SeedProduct inserts a product owned by owner.
func SeedProduct(t testing.TB, db *gorm.DB, owner uuid.UUID, spec ProductSpec) *models.Product {
	t.Helper()
	if spec.Discount == "" {
		spec.Discount = "0"
	}
	if spec.Name == "" {
		spec.Name = "Product"
	}
	product := &models.Product{
		OwnerID:         owner,
		SourceProductID: spec.Source,
		Name:            spec.Name,
		Description:     spec.Name + " description",
		Category:        "general",
		Price:           decimal.RequireFromString(spec.Price),
		Discount:        decimal.RequireFromString(spec.Discount),
		Stock:           spec.Stock,
		Multiple:        spec.Multiple,
	}
	if err := db.Create(product).Error; err != nil {
		t.Fatalf("seed product: %v", err)
	}
	return product
}

// Reload fetches a fresh copy of a model by primary key.
func Reload[T any](t testing.TB, db *gorm.DB, id uuid.UUID) *T {
	t.Helper()
	var out T
	if err := db.Where("id = ?", id).First(&out).Error; err != nil {
		t.Fatalf("reload %T: %v", out, err)
	}
	return &out
}

func sanitize(name string) string {
	return strings.NewReplacer("/", "_", " ", "_").Replace(name)
}
