// Package testutil holds fixtures shared by package tests.
package testutil

import (
	"testing"

	"github.com/mx-space/nodepress/internal/database"
	"github.com/mx-space/nodepress/internal/models"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewDB returns a migrated in-memory SQLite database closed at test cleanup.
func NewDB(t testing.TB) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatal(err)
	}
	// every pooled connection would otherwise get its own empty database
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := database.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

// SeedPost inserts a published article with the given public number.
func SeedPost(t testing.TB, db *gorm.DB, number int64, mutate ...func(*models.PostModel)) *models.PostModel {
	t.Helper()
	post := &models.PostModel{Number: number, Slug: "post", Title: "Post", State: models.PostPublished}
	for _, fn := range mutate {
		fn(post)
	}
	if err := db.Create(post).Error; err != nil {
		t.Fatalf("seed post: %v", err)
	}
	return post
}

// SeedOption stores the site options row.
func SeedOption(t testing.TB, db *gorm.DB, opt models.OptionModel) {
	t.Helper()
	opt.Name = models.SiteOptionName
	if err := db.Create(&opt).Error; err != nil {
		t.Fatalf("seed option: %v", err)
	}
}

// CollideOnce makes the next insert into table lose a race for its number:
// right before the row is written, rival(number) is stored with the same
// number inside the same transaction. The returned counter tracks inserts
// attempted on table, rivals excluded.
func CollideOnce(t testing.TB, db *gorm.DB, table string, rival func(number int64) interface{}) *int {
	t.Helper()
	attempts := 0
	fired, inRival := false, false
	err := db.Callback().Create().Before("gorm:create").Register("testutil:collide", func(tx *gorm.DB) {
		if inRival || tx.Error != nil || tx.Statement.Table != table {
			return
		}
		attempts++
		if fired {
			return
		}
		fired = true
		number := tx.Statement.ReflectValue.FieldByName("Number").Int()
		inRival = true
		defer func() { inRival = false }()
		if err := tx.Session(&gorm.Session{NewDB: true}).Create(rival(number)).Error; err != nil {
			_ = tx.AddError(err)
		}
	})
	if err != nil {
		t.Fatalf("register collide callback: %v", err)
	}
	return &attempts
}
