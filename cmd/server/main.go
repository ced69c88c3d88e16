package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/nayochev/schedule-arranger/config"
	"github.com/nayochev/schedule-arranger/pkg/database"
	applogger "github.com/nayochev/schedule-arranger/pkg/logger"
)

var configPath string

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "schedule-arranger",
		Short:         "日程调整服务",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "配置文件路径（默认查找 ./config/config.yaml）")

	root.AddCommand(newServeCmd(), newMigrateCmd())
	return root
}

// bootstrap 加载配置、初始化日志并连接数据库
func bootstrap() (*config.Config, *zap.Logger, *gorm.DB, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("加载配置失败: %w", err)
	}

	logger, err := applogger.NewLogger(&cfg.Log)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("初始化日志失败: %w", err)
	}

	db, err := database.NewDB(&cfg.Database, cfg.Log.Level, logger)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("数据库连接失败: %w", err)
	}
	logger.Info("数据库连接成功", zap.String("driver", cfg.Database.Driver))

	return cfg, logger, db, nil
}

func closeDB(db *gorm.DB) {
	if sqlDB, err := db.DB(); err == nil {
		sqlDB.Close()
	}
}

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "执行数据库迁移后退出",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, db, err := bootstrap()
			if err != nil {
				return err
			}
			defer logger.Sync()
			defer closeDB(db)

			return database.Migrate(db, cfg.Database.Driver, logger)
		},
	}
}
