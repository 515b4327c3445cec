package cli

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	api "inboxpilot-backend/cmd/api"
	activityDelivery "inboxpilot-backend/internal/activity/delivery"
	activityRepo "inboxpilot-backend/internal/activity/repository"
	activityUsecase "inboxpilot-backend/internal/activity/usecase"
	authUsecase "inboxpilot-backend/internal/auth/usecase"
	billingDelivery "inboxpilot-backend/internal/billing/delivery"
	billingdomain "inboxpilot-backend/internal/billing/domain"
	billingRepo "inboxpilot-backend/internal/billing/repository"
	billingUsecase "inboxpilot-backend/internal/billing/usecase"
	connectionDelivery "inboxpilot-backend/internal/connection/delivery"
	connectiondomain "inboxpilot-backend/internal/connection/domain"
	connectionRepo "inboxpilot-backend/internal/connection/repository"
	connectionUsecase "inboxpilot-backend/internal/connection/usecase"
	knowledgeDelivery "inboxpilot-backend/internal/knowledge/delivery"
	knowledgedomain "inboxpilot-backend/internal/knowledge/domain"
	knowledgeRepo "inboxpilot-backend/internal/knowledge/repository"
	knowledgeUsecase "inboxpilot-backend/internal/knowledge/usecase"
	"inboxpilot-backend/internal/notification"
	organizationDelivery "inboxpilot-backend/internal/organization/delivery"
	organizationRepo "inboxpilot-backend/internal/organization/repository"
	organizationUsecase "inboxpilot-backend/internal/organization/usecase"
	"inboxpilot-backend/pkg/chroma"
	"inboxpilot-backend/pkg/config"
	"inboxpilot-backend/pkg/firecrawl"
	"inboxpilot-backend/pkg/gmail"
	"inboxpilot-backend/pkg/outlook"
	"inboxpilot-backend/pkg/ratelimit"
	"inboxpilot-backend/pkg/stripe"

	"github.com/spf13/cobra"
	"golang.org/x/time/rate"
	"gorm.io/gorm"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API and the Gmail push listener",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		db, err := openDB()
		if err != nil {
			return err
		}
		return serve(ctx, db)
	},
}

// priceCatalog maps every configured Stripe price to its plan.
func priceCatalog(prices map[string]config.PlanPrices) billingdomain.PriceCatalog {
	catalog := billingdomain.PriceCatalog{}
	for plan, p := range prices {
		if p.Monthly != "" {
			catalog[p.Monthly] = plan
		}
		if p.Yearly != "" {
			catalog[p.Yearly] = plan
		}
	}
	return catalog
}

func serve(ctx context.Context, db *gorm.DB) error {
	// Repositories
	connectedRepository := connectionRepo.NewConnectedRepository(db)
	organizationRepository := organizationRepo.NewOrganizationRepository(db)
	activityRepository := activityRepo.NewActivityRepository(db)
	billingRepository := billingRepo.NewBillingRepository(db)
	sourceRepository := knowledgeRepo.NewSourceRepository(db)

	// Provider clients
	gmailService := gmail.NewService(cfg.GoogleClientID, cfg.GoogleClientSecret, cfg.GoogleRedirectURI,
		gmail.TopicPath(cfg.GoogleProjectID, cfg.GooglePubSubTopic))
	outlookService := outlook.NewService(outlook.Config{
		ClientID:        cfg.MicrosoftClientID,
		ClientSecret:    cfg.MicrosoftClientSecret,
		Tenant:          cfg.MicrosoftTenant,
		RedirectURL:     cfg.MicrosoftRedirectURI,
		NotificationURL: cfg.OutlookNotificationURL,
		ClientState:     cfg.OutlookClientState,
		GraphBaseURL:    cfg.OutlookGraphBaseURL,
		SubscriptionTTL: cfg.OutlookSubscriptionTTL,
	})

	var billingProvider billingdomain.Provider
	if cfg.StripeSecretKey != "" {
		billingProvider = stripe.NewClient(cfg.StripeSecretKey, cfg.StripeWebhookSecret)
	} else {
		log.Printf("[WARN] STRIPE_SECRET_KEY not set, every organization is on the free plan")
	}

	var indexer knowledgedomain.Indexer
	if cfg.ChromaAPIKey != "" {
		pageIndex, err := chroma.NewPageIndex(cfg)
		if err != nil {
			log.Printf("[WARN] Failed to initialize Chroma (page search disabled): %v", err)
		} else {
			indexer = pageIndex
		}
	}

	// Use cases
	authUc := authUsecase.NewAuthUsecase(cfg)
	billingUc := billingUsecase.NewBillingUsecase(billingRepository, billingProvider, priceCatalog(cfg.StripePrices), cfg.AppURL+"/billing")
	connectionUc := connectionUsecase.NewConnectionUsecase(connectedRepository, map[connectiondomain.Provider]connectiondomain.ProviderClient{
		connectiondomain.ProviderGoogle:  gmailService,
		connectiondomain.ProviderOutlook: outlookService,
	}, billingUc, cfg.EncryptionKey)
	organizationUc := organizationUsecase.NewOrganizationUsecase(organizationRepository)
	activityUc := activityUsecase.NewActivityUsecase(activityRepository)
	var crawler knowledgedomain.Crawler
	if fcClient, err := firecrawl.NewClient(cfg.CrawlerAPIKey, cfg.CrawlerBaseURL); err != nil {
		log.Printf("[WARN] Failed to initialize Firecrawl (website crawling disabled): %v", err)
	} else {
		crawler = fcClient
	}
	knowledgeUc := knowledgeUsecase.NewKnowledgeUsecase(sourceRepository, crawler, indexer, billingUc)

	// Push intake
	intake := notification.NewIntake(connectedRepository, notification.LogDispatcher{})
	if cfg.GoogleProjectID != "" && cfg.GooglePubSubTopic != "" {
		notifService, err := notification.NewService(cfg.GoogleProjectID, cfg.GooglePubSubTopic, cfg.GoogleCredentials, intake)
		if err != nil {
			log.Printf("[ERROR] Failed to initialize notification service: %v", err)
		} else {
			defer notifService.Close()
			go notifService.Start(ctx)
		}
	} else {
		log.Printf("[WARN] Google Pub/Sub not configured, Gmail push intake disabled")
	}

	limiter := ratelimit.NewIPRateLimiter(rate.Limit(cfg.RateLimitPerSecond), cfg.RateLimitBurst, cfg.TrustedProxies)
	limiter.StartCleanup(5*time.Minute, ctx.Done())

	handler := &api.Handler{
		AuthUsecase:     authUc,
		Connection:      connectionDelivery.NewConnectionHandler(connectionUc, cfg.DashboardConnectURL),
		Organization:    organizationDelivery.NewOrganizationHandler(organizationUc),
		Activity:        activityDelivery.NewActivityHandler(activityUc),
		Billing:         billingDelivery.NewBillingHandler(billingUc),
		Knowledge:       knowledgeDelivery.NewKnowledgeHandler(knowledgeUc),
		Outlook:         notification.NewOutlookHandler(intake, cfg.OutlookClientState),
		CallbackLimiter: limiter,
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("Server starting on port %s", cfg.Port)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	log.Printf("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
