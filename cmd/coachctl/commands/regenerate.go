package commands

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"coach-center/internal/repository"
	"coach-center/internal/service"
)

func newRegenerateSessionsCmd() *cobra.Command {
	var actor string

	cmd := &cobra.Command{
		Use:   "regenerate-sessions <batch-id>",
		Short: "按班级当前排课配置删除并重建全部课次",
		Long: `删除班级的全部课次并按当前排课配置重新生成（单事务）。
已有课次的考勤记录会随课次一并删除，执行前请确认。`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			batchID := args[0]
			if _, err := uuid.Parse(batchID); err != nil {
				return fmt.Errorf("班级 ID %q 格式无效", batchID)
			}

			cfg, logger, err := loadRuntime()
			if err != nil {
				return err
			}
			defer logger.Sync()

			db, closeDB, err := openDB(cfg, logger)
			if err != nil {
				return err
			}
			defer closeDB()

			loc := cfg.App.Location()
			svc := service.NewService(cfg, repository.NewRepository(db), nil, service.NewSystemClock(loc), logger)

			batch, err := svc.Batch.RegenerateSessions(cmd.Context(), batchID, actor)
			if err != nil {
				return err
			}

			printSuccess("班级「%s」课次已重建", batch.Name)
			if g := batch.Generation; g != nil {
				fmt.Fprintf(cmd.OutOrStdout(), "请求 %d 节，生成 %d 节\n", g.Requested, g.Created)
				if g.Warning != "" {
					printWarning("%s", g.Warning)
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&actor, "actor", "coachctl", "写入操作日志的操作人 ID")
	return cmd
}
