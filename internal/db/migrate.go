package db

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/sujalbistaa/blushbox/internal/models"
)

// confessionBase and commentBase are the tables as first released.
// Columns added later are listed in additiveColumns.
type confessionBase struct {
	ID        uint   `gorm:"primarykey"`
	Content   string `gorm:"not null"`
	Category  string `gorm:"not null"`
	Color     string `gorm:"not null"`
	CreatedAt time.Time
}

func (confessionBase) TableName() string { return "confessions" }

type commentBase struct {
	ID           uint   `gorm:"primarykey"`
	ConfessionID uint   `gorm:"not null;index"`
	Content      string `gorm:"not null"`
	CreatedAt    time.Time
}

func (commentBase) TableName() string { return "comments" }

type column struct {
	model any
	field string
}

// additiveColumns are applied in order on every start. Each one is
// nullable or defaulted so existing rows stay valid.
var additiveColumns = []column{
	{&models.Confession{}, "Mood"},
	{&models.Confession{}, "ReactionLove"},
	{&models.Confession{}, "ReactionRelate"},
	{&models.Confession{}, "ReactionShocked"},
	{&models.Confession{}, "ReactionFunny"},
	{&models.Confession{}, "ReportCount"},
	{&models.Comment{}, "ParentID"},
}

// duplicateColumnErrors match the "column already exists" failures of the
// supported engines.
var duplicateColumnErrors = []string{
	"duplicate column name", // SQLite
	"already exists",        // Postgres (SQLSTATE 42701)
}

// Migrate creates the base tables when missing and then adds every later
// column. It is safe to run against a database at any earlier version.
func Migrate(db *gorm.DB) error {
	m := db.Migrator()

	for _, base := range []any{&confessionBase{}, &commentBase{}} {
		if m.HasTable(base) {
			continue
		}
		if err := m.CreateTable(base); err != nil {
			return fmt.Errorf("create table: %w", err)
		}
	}

	for _, col := range additiveColumns {
		if m.HasColumn(col.model, col.field) {
			continue
		}
		if err := m.AddColumn(col.model, col.field); err != nil {
			if isDuplicateColumn(err) {
				slog.Debug("column already present, skipping", "field", col.field)
				continue
			}
			return fmt.Errorf("add column %s: %w", col.field, err)
		}
		slog.Info("column added", "field", col.field)
	}

	return nil
}

func isDuplicateColumn(err error) bool {
	msg := strings.ToLower(err.Error())
	for _, pattern := range duplicateColumnErrors {
		if strings.Contains(msg, pattern) {
			return true
		}
	}
	return false
}
