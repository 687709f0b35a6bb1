package commands

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"coach-center/pkg/jwt"
)

// newTokenCmd 签发本地调试用令牌；生产环境令牌由上游身份服务签发
func newTokenCmd() *cobra.Command {
	var (
		actor string
		name  string
		role  string
		ttl   time.Duration
	)

	cmd := &cobra.Command{
		Use:   "token",
		Short: "使用本地 jwt_secret 签发调试令牌",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := loadRuntime()
			if err != nil {
				return err
			}
			if actor == "" {
				actor = uuid.NewString()
			}

			token, err := jwt.NewManager(&cfg.Auth).Issue(actor, name, role, ttl)
			if err != nil {
				return fmt.Errorf("签发令牌失败: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}

	cmd.Flags().StringVar(&actor, "actor", "", "操作人 ID（默认随机 UUID）")
	cmd.Flags().StringVar(&name, "name", "", "操作人名称")
	cmd.Flags().StringVar(&role, "role", "staff", "角色")
	cmd.Flags().DurationVar(&ttl, "ttl", time.Hour, "有效期")
	return cmd
}
