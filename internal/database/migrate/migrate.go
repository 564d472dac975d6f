// Package migrate owns the schema. It sits outside package database so the
// domain packages can use database in their tests without an import cycle.
package migrate

import (
	"fmt"
	"log"

	"gorm.io/gorm"

	"equipmarket/internal/domain/auth"
	"equipmarket/internal/domain/catalog"
	"equipmarket/internal/domain/history"
)

func Models() []any {
	return []any{
		&auth.User{},
		&catalog.Item{},
		&history.Entry{},
	}
}

// Run auto-migrates every table. It is safe to run repeatedly.
func Run(db *gorm.DB) error {
	for _, m := range Models() {
		if err := db.AutoMigrate(m); err != nil {
			return fmt.Errorf("migrate %T: %w", m, err)
		}
	}
	log.Println("✅ Database migrated")
	return nil
}
