package database

import (
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"sort"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/nayochev/schedule-arranger/config"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// SQLite 方言的建表语句，与 migrations/ 保持同一结构（外键、CHECK、级联删除）
//
//go:embed migrations_sqlite/*.sql
var sqliteMigrationsFS embed.FS

// Migrate 按驱动执行迁移
//   - postgres: golang-migrate 执行 migrations/*.sql
//   - sqlite:   执行 migrations_sqlite/*.up.sql（本地开发与测试）
func Migrate(db *gorm.DB, driver string, logger *zap.Logger) error {
	if driver == config.DriverSQLite {
		if err := migrateSQLite(db); err != nil {
			return err
		}
		logger.Info("SQLite 表结构同步完成")
		return nil
	}

	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("获取底层 sql.DB 失败: %w", err)
	}
	return RunMigrations(sqlDB, logger)
}

// migrateSQLite 按文件名顺序执行全部 up 脚本；语句均为 IF NOT EXISTS，可重复执行
func migrateSQLite(db *gorm.DB) error {
	files, err := fs.Glob(sqliteMigrationsFS, "migrations_sqlite/*.up.sql")
	if err != nil {
		return fmt.Errorf("加载 SQLite 迁移文件失败: %w", err)
	}
	sort.Strings(files)

	return db.Transaction(func(tx *gorm.DB) error {
		for _, name := range files {
			content, err := sqliteMigrationsFS.ReadFile(name)
			if err != nil {
				return fmt.Errorf("读取 %s 失败: %w", name, err)
			}
			for _, stmt := range strings.Split(string(content), ";") {
				if strings.TrimSpace(stmt) == "" {
					continue
				}
				if err := tx.Exec(stmt).Error; err != nil {
					return fmt.Errorf("执行 %s 失败: %w", name, err)
				}
			}
		}
		return nil
	})
}

// RunMigrations 执行 PostgreSQL 迁移
// 自动检测当前版本并应用所有未执行的迁移
func RunMigrations(db *sql.DB, logger *zap.Logger) error {
	source, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("加载迁移文件失败: %w", err)
	}

	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("创建迁移驱动失败: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", source, "postgres", driver)
	if err != nil {
		return fmt.Errorf("初始化迁移实例失败: %w", err)
	}

	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("执行迁移失败: %w", err)
	}

	version, dirty, _ := m.Version()
	if dirty {
		logger.Warn("数据库迁移处于 dirty 状态", zap.Uint("version", version))
	} else {
		logger.Info("数据库迁移完成", zap.Uint("version", version))
	}

	return nil
}
