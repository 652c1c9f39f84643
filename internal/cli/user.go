package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/iliyamo/coworking-booking/internal/config"
	"github.com/iliyamo/coworking-booking/internal/database"
	"github.com/iliyamo/coworking-booking/internal/model"
	"github.com/iliyamo/coworking-booking/internal/repository"
	"github.com/iliyamo/coworking-booking/internal/utils"
)

func newUserCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage users",
	}
	cmd.AddCommand(newUserAddCmd())
	return cmd
}

// newUserAddCmd creates accounts of any role.  The HTTP API only
// registers members, so staff and admins are provisioned here.
func newUserAddCmd() *cobra.Command {
	var email, password, role string
	var cost int

	c := &cobra.Command{
		Use:   "add",
		Short: "Add a user with the given role (MEMBER, STAFF or ADMIN)",
		RunE: func(cmd *cobra.Command, args []string) error {
			role = strings.ToUpper(strings.TrimSpace(role))
			if role != model.RoleMember && !model.IsStaffRole(role) {
				return fmt.Errorf("unknown role %q", role)
			}
			if err := utils.CheckPasswordPolicy(password); err != nil {
				return err
			}
			cfg, err := config.LoadDB()
			if err != nil {
				return err
			}

			ctx := context.Background()
			db, err := database.Open(ctx, cfg)
			if err != nil {
				return err
			}
			defer db.Close()

			if _, err := database.Migrate(ctx, db); err != nil {
				return err
			}
			id, err := repository.NewUserRepo(db).Create(ctx, email, password, role, cost)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created %s user %q (id %d)\n", role, strings.ToLower(strings.TrimSpace(email)), id)
			return nil
		},
	}

	c.Flags().StringVar(&email, "email", "", "email address")
	c.Flags().StringVar(&password, "password", "", "password")
	c.Flags().StringVar(&role, "role", model.RoleAdmin, "MEMBER, STAFF or ADMIN")
	c.Flags().IntVar(&cost, "bcrypt-cost", 10, "bcrypt cost")
	_ = c.MarkFlagRequired("email")
	_ = c.MarkFlagRequired("password")
	return c
}
