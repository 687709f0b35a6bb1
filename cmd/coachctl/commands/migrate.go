package commands

import (
	"github.com/spf13/cobra"

	"coach-center/pkg/database"
)

func newMigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "数据库迁移",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "执行所有未应用的迁移",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := loadRuntime()
			if err != nil {
				return err
			}
			db, closeDB, err := openDB(cfg, logger)
			if err != nil {
				return err
			}
			defer closeDB()

			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			if err := database.RunMigrations(sqlDB, logger); err != nil {
				return err
			}
			printSuccess("迁移完成")
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "显示当前迁移版本",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := loadRuntime()
			if err != nil {
				return err
			}
			db, closeDB, err := openDB(cfg, logger)
			if err != nil {
				return err
			}
			defer closeDB()

			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			version, dirty, err := database.MigrationVersion(sqlDB)
			if err != nil {
				return err
			}
			if dirty {
				printWarning("当前版本 %d（dirty，需要人工处理）", version)
				return nil
			}
			printSuccess("当前版本 %d", version)
			return nil
		},
	})

	return cmd
}
