package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	activityRepo "inboxpilot-backend/internal/activity/repository"
	activityUsecase "inboxpilot-backend/internal/activity/usecase"
	authUsecase "inboxpilot-backend/internal/auth/usecase"
	billingdomain "inboxpilot-backend/internal/billing/domain"
	billingRepo "inboxpilot-backend/internal/billing/repository"
	billingUsecase "inboxpilot-backend/internal/billing/usecase"
	organizationRepo "inboxpilot-backend/internal/organization/repository"
	organizationUsecase "inboxpilot-backend/internal/organization/usecase"
	"inboxpilot-backend/pkg/stripe"

	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database tables",
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := openDB(); err != nil {
			return err
		}
		fmt.Println("Migration complete")
		return nil
	},
}

var (
	purgeDays  int
	purgeOrgID string
)

var purgeCmd = &cobra.Command{
	Use:   "purge",
	Short: "Delete email logs and escalations older than --days",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		uc := activityUsecase.NewActivityUsecase(activityRepo.NewActivityRepository(db))
		result, err := uc.PurgeOlderThan(cmd.Context(), purgeOrgID, purgeDays)
		if err != nil {
			return err
		}
		fmt.Printf("Removed %d logs and %d escalations\n", result.Logs, result.Escalations)
		return nil
	},
}

var orgCmd = &cobra.Command{
	Use:   "org",
	Short: "Organization management",
}

var (
	orgName      string
	orgEmail     string
	orgOwner     string
	orgMaxTokens int
)

var orgCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create an organization",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		uc := organizationUsecase.NewOrganizationUsecase(organizationRepo.NewOrganizationRepository(db))
		org, err := uc.CreateOrganization(cmd.Context(), orgName, orgEmail, orgOwner, orgMaxTokens)
		if err != nil {
			return err
		}
		return printJSON(org)
	},
}

var (
	linkOrgID          string
	linkSubscriptionID string
)

var orgLinkCmd = &cobra.Command{
	Use:   "link-subscription",
	Short: "Attach a Stripe subscription to an organization",
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfg.StripeSecretKey == "" {
			return fmt.Errorf("STRIPE_SECRET_KEY is required")
		}
		db, err := openDB()
		if err != nil {
			return err
		}
		uc := billingUsecase.NewBillingUsecase(billingRepo.NewBillingRepository(db),
			stripe.NewClient(cfg.StripeSecretKey, cfg.StripeWebhookSecret), billingdomain.PriceCatalog{}, cfg.AppURL)
		row, err := uc.LinkSubscription(cmd.Context(), linkOrgID, linkSubscriptionID)
		if err != nil {
			return err
		}
		return printJSON(row)
	},
}

var (
	tokenUserID string
	tokenOrgID  string
	tokenTTL    time.Duration
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Sign a dashboard access token",
	RunE: func(cmd *cobra.Command, args []string) error {
		token, err := authUsecase.NewAuthUsecase(cfg).IssueToken(tokenUserID, tokenOrgID, tokenTTL)
		if err != nil {
			return err
		}
		fmt.Println(token)
		return nil
	},
}

func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func init() {
	purgeCmd.Flags().IntVar(&purgeDays, "days", 90, "remove records older than this many days")
	purgeCmd.Flags().StringVar(&purgeOrgID, "org", "", "limit the purge to one organization")

	orgCreateCmd.Flags().StringVar(&orgName, "name", "", "organization name")
	orgCreateCmd.Flags().StringVar(&orgEmail, "email", "", "contact email")
	orgCreateCmd.Flags().StringVar(&orgOwner, "owner", "", "owner user id")
	orgCreateCmd.Flags().IntVar(&orgMaxTokens, "max-tokens", 0, "monthly token ceiling")
	_ = orgCreateCmd.MarkFlagRequired("name")
	_ = orgCreateCmd.MarkFlagRequired("email")
	_ = orgCreateCmd.MarkFlagRequired("owner")

	orgLinkCmd.Flags().StringVar(&linkOrgID, "org", "", "organization id")
	orgLinkCmd.Flags().StringVar(&linkSubscriptionID, "subscription", "", "Stripe subscription id")
	_ = orgLinkCmd.MarkFlagRequired("org")
	_ = orgLinkCmd.MarkFlagRequired("subscription")

	orgCmd.AddCommand(orgCreateCmd)
	orgCmd.AddCommand(orgLinkCmd)

	tokenCmd.Flags().StringVar(&tokenUserID, "user", "", "user id")
	tokenCmd.Flags().StringVar(&tokenOrgID, "org", "", "organization id")
	tokenCmd.Flags().DurationVar(&tokenTTL, "ttl", 0, "token lifetime (defaults to JWT_ACCESS_EXPIRY)")
	_ = tokenCmd.MarkFlagRequired("user")
	_ = tokenCmd.MarkFlagRequired("org")
}
