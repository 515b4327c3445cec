package cli

import (
	"fmt"
	"os"

	activitydomain "inboxpilot-backend/internal/activity/domain"
	billingdomain "inboxpilot-backend/internal/billing/domain"
	connectiondomain "inboxpilot-backend/internal/connection/domain"
	knowledgedomain "inboxpilot-backend/internal/knowledge/domain"
	organizationdomain "inboxpilot-backend/internal/organization/domain"
	"inboxpilot-backend/pkg/config"
	"inboxpilot-backend/pkg/database"

	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

var cfg *config.Config

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "inboxpilot",
	Short: "InboxPilot backend",
	Long: `InboxPilot connects customer mailboxes, keeps their push subscriptions
registered and stores each organization's reply configuration.

Examples:
  inboxpilot serve                              # run the HTTP API
  inboxpilot migrate                            # create or update tables
  inboxpilot purge --days 90                    # drop old logs and escalations
  inboxpilot org create --name Acme --email ops@acme.com --owner u1
  inboxpilot token --user u1 --org <org-id>     # sign a dashboard token`,
	SilenceUsage: true,
}

// Execute runs the CLI with the loaded config
func Execute(config *config.Config) {
	cfg = config
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(purgeCmd)
	rootCmd.AddCommand(orgCmd)
	rootCmd.AddCommand(tokenCmd)
}

// models lists every table the service owns.
func models() []interface{} {
	return []interface{}{
		&connectiondomain.ConnectedMailbox{},
		&organizationdomain.Organization{},
		&activitydomain.EmailLog{},
		&activitydomain.Escalation{},
		&billingdomain.OrgSubscription{},
		&billingdomain.WebhookEvent{},
		&knowledgedomain.Source{},
	}
}

func openDB() (*gorm.DB, error) {
	db, err := database.NewPostgresConnection(cfg)
	if err != nil {
		return nil, err
	}
	if err := database.AutoMigrate(db, models()...); err != nil {
		return nil, err
	}
	return db, nil
}
