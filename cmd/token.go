package cmd

import (
	"errors"
	"fmt"
	"nutrition-catalog/domain"
	"nutrition-catalog/internal/utils"
	"nutrition-catalog/pkg/jwt"
	"time"

	"github.com/spf13/cobra"
)

func newTokenCmd() *cobra.Command {
	var (
		user domain.Identity
		ttl  time.Duration
	)

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint a bearer token for local development",
		Example: `  nutrition-catalog token --user alice --email alice@example.com
  nutrition-catalog token --user mod-1 --role moderator --ttl 8h`,
		RunE: func(cmd *cobra.Command, args []string) error {
			secret := utils.GetConfig("JWT_SECRET")
			if secret == "" {
				return errors.New("JWT_SECRET is not set")
			}
			token, err := jwt.NewJWTService(secret).GenerateToken(user, ttl)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), token)
			return err
		},
	}

	cmd.Flags().StringVar(&user.ID, "user", "", "User id (required)")
	cmd.Flags().StringVar(&user.Email, "email", "", "User email")
	cmd.Flags().StringVar(&user.Role, "role", domain.RoleUser, "Role claim")
	cmd.Flags().DurationVar(&ttl, "ttl", jwt.DefaultTokenTTL, "Token lifetime")
	_ = cmd.MarkFlagRequired("user")

	return cmd
}
