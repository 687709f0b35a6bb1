package commands

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"coach-center/config"
	"coach-center/pkg/database"
	applogger "coach-center/pkg/logger"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "coachctl",
	Short: "coach-center 运维命令行",
	Long: `coachctl 提供数据库迁移、课次生成预览与重建、开发令牌签发等运维操作。

配置读取方式与服务端一致：--config 指定的 YAML 文件、COACH_ 前缀环境变量与 .env。`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
}

// Execute 执行根命令
func Execute() error {
	rootCmd.SilenceErrors = true
	rootCmd.SilenceUsage = true
	if err := rootCmd.Execute(); err != nil {
		printError(err)
		return err
	}
	return nil
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "配置文件路径（默认查找 ./config/config.yaml）")

	rootCmd.AddCommand(newMigrateCmd())
	rootCmd.AddCommand(newPreviewSessionsCmd())
	rootCmd.AddCommand(newRegenerateSessionsCmd())
	rootCmd.AddCommand(newTokenCmd())
}

// loadRuntime 加载配置与日志；CLI 默认使用 console 格式
func loadRuntime() (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, err
	}
	logCfg := cfg.Log
	logCfg.Format = "console"
	logger, err := applogger.NewLogger(&logCfg)
	if err != nil {
		return nil, nil, err
	}
	return cfg, logger, nil
}

// openDB 连接数据库，调用方负责关闭
func openDB(cfg *config.Config, logger *zap.Logger) (*gorm.DB, func(), error) {
	db, err := database.NewDB(&cfg.Database, logger)
	if err != nil {
		return nil, nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, nil, fmt.Errorf("获取底层 sql.DB 失败: %w", err)
	}
	return db, func() { _ = sqlDB.Close() }, nil
}
