package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/orbitlabs/commune/backend/internal/authz"
	"github.com/orbitlabs/commune/backend/internal/database"
	"github.com/orbitlabs/commune/backend/internal/keylock"
	"github.com/orbitlabs/commune/backend/internal/logger"
	"github.com/orbitlabs/commune/backend/internal/membership"
	"github.com/orbitlabs/commune/backend/internal/models"
	"github.com/orbitlabs/commune/backend/internal/notify"
	"github.com/orbitlabs/commune/backend/internal/store"
	"github.com/orbitlabs/commune/backend/internal/workflow"
	"github.com/spf13/cobra"
)

// Operator CLI for poking at a Commune database directly. Acts on
// behalf of the user given with --as, so authorization rules still
// apply.
var (
	actingUserID string

	st          *store.Store
	memberships *membership.Service
	workflows   *workflow.Service
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "commune-cli",
		Short: "Operator tooling for the Commune backend",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			_ = godotenv.Load()
			if err := logger.Initialize(os.Getenv("LOG_LEVEL"), ""); err != nil {
				return err
			}
			if err := database.Initialize(); err != nil {
				return fmt.Errorf("connect: %w", err)
			}
			st = store.New(database.DB)
			locks := keylock.New()
			dispatcher := notify.New(st, logger.Log)
			memberships = membership.New(st, authz.New(st), dispatcher, locks, logger.Log)
			workflows = workflow.New(st, dispatcher, locks, logger.Log)
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			database.Close()
			logger.Close()
		},
	}
	rootCmd.PersistentFlags().StringVar(&actingUserID, "as", "", "user ID to act as")

	rootCmd.AddCommand(requestsCmd())
	rootCmd.AddCommand(collectivesCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func requireActor() error {
	if actingUserID == "" {
		return fmt.Errorf("--as <user-id> is required")
	}
	return nil
}

func requestsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "requests",
		Short: "Inspect and decide workflow requests",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "pending",
		Short: "List pending requests addressed to the acting user",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireActor(); err != nil {
				return err
			}
			pending, err := workflows.Inbox(actingUserID)
			if err != nil {
				return err
			}
			if len(pending) == 0 {
				fmt.Println("No pending requests")
				return nil
			}
			for _, r := range pending {
				requester := r.RequesterID
				if r.Requester.Username != "" {
					requester = r.Requester.Username
				}
				fmt.Printf("%s  %-8s  from=%s  subject=%s  created=%s\n",
					r.ID, r.Domain, requester, r.SubjectID,
					r.CreatedAt.Format("2006-01-02 15:04"))
			}
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "accept <request-id>",
		Short: "Accept a pending request",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireActor(); err != nil {
				return err
			}
			req, err := workflows.Decide(args[0], actingUserID, models.WorkflowStatusAccepted)
			if err != nil {
				return err
			}
			fmt.Printf("Request %s accepted\n", req.ID)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "deny <request-id>",
		Short: "Deny a pending request",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireActor(); err != nil {
				return err
			}
			req, err := workflows.Decide(args[0], actingUserID, models.WorkflowStatusDenied)
			if err != nil {
				return err
			}
			fmt.Printf("Request %s denied\n", req.ID)
			return nil
		},
	})

	return cmd
}

func collectivesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "collectives",
		Short: "Inspect and manage collectives",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "members <collective-id>",
		Short: "List members of a collective",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			members, err := memberships.Members(args[0])
			if err != nil {
				return err
			}
			for _, m := range members {
				username := m.UserID
				if m.User.Username != "" {
					username = m.User.Username
				}
				fmt.Printf("%-24s  %-6s  joined=%s\n",
					username, m.Role, m.JoinedAt.Format("2006-01-02"))
			}
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "promote <collective-id> <user-id>",
		Short: "Promote a member to admin as the acting user",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireActor(); err != nil {
				return err
			}
			if err := memberships.Promote(args[0], actingUserID, args[1]); err != nil {
				return err
			}
			fmt.Println("Promoted")
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "deactivate <collective-id>",
		Short: "Deactivate a collective as the acting user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireActor(); err != nil {
				return err
			}
			if err := memberships.Deactivate(args[0], actingUserID); err != nil {
				return err
			}
			fmt.Println("Deactivated")
			return nil
		},
	})

	return cmd
}
