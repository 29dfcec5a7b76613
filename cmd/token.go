package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"field-service-server/config"
	"field-service-server/services"
	"field-service-server/types"
)

func newTokenCmd() *cobra.Command {
	var (
		tenantID uint
		userID   uint
		role     string
	)

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue a staff access token for a tenant",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if role != types.RoleAdmin && role != types.RoleDispatcher {
				return fmt.Errorf("role must be %s or %s", types.RoleAdmin, types.RoleDispatcher)
			}
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			token, err := services.NewJWTService(cfg.JWT).GenerateAccessToken(userID, tenantID, role)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token.AccessToken)
			return nil
		},
	}

	cmd.Flags().UintVar(&tenantID, "tenant", 0, "tenant id the token is bound to")
	cmd.Flags().UintVar(&userID, "user", 1, "staff user id")
	cmd.Flags().StringVar(&role, "role", types.RoleDispatcher, "admin or dispatcher")
	_ = cmd.MarkFlagRequired("tenant")
	return cmd
}
