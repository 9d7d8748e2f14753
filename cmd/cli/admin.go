package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/Tec94/sickass-artist-platform-sub000/internal/config"
	"github.com/Tec94/sickass-artist-platform-sub000/internal/database"
	"github.com/Tec94/sickass-artist-platform-sub000/internal/models"
	"github.com/Tec94/sickass-artist-platform-sub000/internal/repository"
	"github.com/spf13/cobra"
)

var adminCmd = &cobra.Command{
	Use:   "admin",
	Short: "Administrative commands",
	Long: `Administrative commands. "ctr" goes through the API with an admin token;
the others connect to the database configured in the environment.`,
}

var ctrHours int

var adminCTRCmd = &cobra.Command{
	Use:   "ctr",
	Short: "Show related-panel click-through rate per source",
	RunE: func(cmd *cobra.Command, args []string) error {
		var resp struct {
			Metrics []struct {
				Source      string  `json:"source"`
				Impressions int64   `json:"impressions"`
				Clicks      int64   `json:"clicks"`
				CTR         float64 `json:"ctr"`
			} `json:"metrics"`
		}
		body, err := apiRequest("GET", fmt.Sprintf("/api/v1/admin/recommendations/ctr?hours=%d", ctrHours), nil, &resp)
		if err != nil {
			return err
		}
		if printJSON(body) {
			return nil
		}

		fmt.Printf("Related panel CTR, last %d hours\n", ctrHours)
		for _, m := range resp.Metrics {
			fmt.Printf("  %-6s %6d impressions  %5d clicks  %6.2f%%\n", m.Source, m.Impressions, m.Clicks, m.CTR)
		}
		return nil
	},
}

var revokeAdmin bool

var adminPromoteCmd = &cobra.Command{
	Use:   "promote <username>",
	Short: "Grant (or with --revoke, remove) admin privileges",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withUsers(func(ctx context.Context, users repository.UserRepository) error {
			user, err := users.GetUserByUsername(ctx, args[0])
			if errors.Is(err, repository.ErrUserNotFound) {
				return fmt.Errorf("user not found: %s", args[0])
			}
			if err != nil {
				return err
			}

			grant := !revokeAdmin
			if user.IsAdmin == grant {
				fmt.Printf("⚠️  User %s already has admin=%t\n", user.Username, grant)
				return nil
			}
			if err := users.SetAdmin(ctx, user.ID, grant); err != nil {
				return fmt.Errorf("failed to update admin flag: %w", err)
			}
			if grant {
				fmt.Printf("✅ %s is now an admin\n", user.Username)
			} else {
				fmt.Printf("✅ Revoked admin privileges from %s\n", user.Username)
			}
			return nil
		})
	},
}

var adminSetTierCmd = &cobra.Command{
	Use:   "set-tier <username> <free|supporter|vip>",
	Short: "Change a member's tier",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if !models.IsValidTier(args[1]) {
			return fmt.Errorf("unknown tier %q", args[1])
		}
		return withUsers(func(ctx context.Context, users repository.UserRepository) error {
			user, err := users.GetUserByUsername(ctx, args[0])
			if err != nil {
				return fmt.Errorf("user %s: %w", args[0], err)
			}
			if err := users.SetTier(ctx, user.ID, args[1]); err != nil {
				return err
			}
			fmt.Printf("✅ %s is now %s\n", user.Username, args[1])
			return nil
		})
	},
}

var adminMigrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Run database migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		if err := database.Initialize(cfg); err != nil {
			return err
		}
		defer database.Close()

		if err := database.Migrate(database.DB); err != nil {
			return err
		}
		fmt.Println("✅ Migrations complete")
		return nil
	},
}

func init() {
	adminCTRCmd.Flags().IntVar(&ctrHours, "hours", 24, "Window in hours")
	adminPromoteCmd.Flags().BoolVar(&revokeAdmin, "revoke", false, "Revoke admin privileges instead of granting")

	adminCmd.AddCommand(adminCTRCmd)
	adminCmd.AddCommand(adminPromoteCmd)
	adminCmd.AddCommand(adminSetTierCmd)
	adminCmd.AddCommand(adminMigrateCmd)
}

// withUsers opens the configured database for the duration of fn
func withUsers(fn func(ctx context.Context, users repository.UserRepository) error) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if err := database.Initialize(cfg); err != nil {
		return err
	}
	defer database.Close()

	return fn(context.Background(), repository.NewUserRepository(database.DB))
}
