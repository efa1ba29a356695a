package main

import (
	"context"
	"log"

	"finai/internal/domain/budget"
	"finai/internal/domain/ledger"
	"finai/internal/domain/notification"
	"finai/internal/domain/openfinance"
	"finai/internal/infrastructure/cache"
	"finai/internal/infrastructure/crypto"
	"finai/internal/infrastructure/exchange"
	"finai/internal/infrastructure/firebase"
	"finai/internal/infrastructure/postgres"
	"finai/internal/infrastructure/provider"
	httphandlers "finai/internal/interfaces/http"
	"finai/internal/shared/auth"
	"finai/internal/shared/config"
)

// Dependencies holds all initialized application components.
type Dependencies struct {
	DB *postgres.DB

	// Handlers
	WebhookHandler      *httphandlers.WebhookHandler
	ItemHandler         *httphandlers.ItemHandler
	AccountHandler      *httphandlers.AccountHandler
	TransactionHandler  *httphandlers.TransactionHandler
	LedgerHandler       *httphandlers.LedgerHandler
	NotificationHandler *httphandlers.NotificationHandler
	ExchangeHandler     *httphandlers.ExchangeHandler

	// Auth
	JWT *auth.JWT

	// Background engine
	Engine *ledger.Engine
}

// NewDependencies initializes all application dependencies.
func NewDependencies(ctx context.Context, cfg *config.Config) (*Dependencies, error) {
	// Connect to database
	db, err := postgres.New(cfg.Database.ConnectionString())
	if err != nil {
		return nil, err
	}
	log.Println("Connected to database")

	// Initialize encryptor; a passphrase is stretched into a 32-byte key
	encryptionKey := cfg.Encryption.Key
	if encryptionKey == "" {
		encryptionKey = crypto.DeriveKey(cfg.Encryption.Passphrase)
	}
	encryptor, err := crypto.NewEncryptor(encryptionKey)
	if err != nil {
		return nil, err
	}

	// Shared TTL cache for provider tokens and exchange rates
	ttlCache, err := cache.New()
	if err != nil {
		return nil, err
	}

	// Initialize repositories
	connectorRepo := postgres.NewConnectorRepository(db)
	itemRepo := postgres.NewItemRepository(db)
	accountRepo := postgres.NewExternalAccountRepository(db, encryptor)
	transactionRepo := postgres.NewExternalTransactionRepository(db)
	ledgerRepo := postgres.NewLedgerRepository(db, encryptor)
	recurringRepo := postgres.NewRecurringRepository(db, encryptor)
	scheduledRepo := postgres.NewScheduledRepository(db, encryptor)
	budgetRepo := postgres.NewBudgetRepository(db)
	notificationRepo := postgres.NewNotificationRepository(db)

	// Push messenger is optional; without credentials notifications are
	// stored but not pushed
	var messenger notification.Messenger
	if cfg.Firebase.CredentialsFile != "" {
		fcm, err := firebase.NewClient(ctx, cfg.Firebase.CredentialsFile)
		if err != nil {
			log.Printf("Warning: Failed to initialize Firebase client: %v", err)
		} else {
			messenger = fcm
		}
	}
	notificationService := notification.NewService(notificationRepo, messenger)

	// Provider client and reconciliation services
	providerClient := provider.NewClient(
		cfg.Provider.BaseURL, cfg.Provider.ClientID, cfg.Provider.ClientSecret,
		cfg.Provider.Timeout, ttlCache,
	)
	reconciler := openfinance.NewReconciler(connectorRepo, itemRepo, accountRepo, transactionRepo)
	orchestrator := openfinance.NewSyncOrchestrator(providerClient, itemRepo, reconciler, notificationService)

	// Budget monitor and schedule engine
	monitor := budget.NewMonitor(budgetRepo, ledgerRepo, notificationService)
	var engine *ledger.Engine
	if cfg.Engine.Enabled {
		engine = ledger.NewEngine(ledgerRepo, recurringRepo, scheduledRepo, monitor, ledger.EngineConfig{
			RecurringInterval: cfg.Engine.RecurringInterval,
			ScheduledInterval: cfg.Engine.ScheduledInterval,
			PollTimeout:       cfg.Engine.PollTimeout,
		})
	}

	// Initialize auth components
	jwt := auth.NewJWT(cfg.JWT.Secret)

	// Initialize handlers
	webhookHandler := httphandlers.NewWebhookHandler(cfg.Provider.WebhookSecret, providerClient, reconciler)
	itemHandler := httphandlers.NewItemHandler(orchestrator, reconciler, itemRepo, providerClient)
	accountHandler := httphandlers.NewAccountHandler(accountRepo)
	transactionHandler := httphandlers.NewTransactionHandler(transactionRepo)
	ledgerHandler := httphandlers.NewLedgerHandler(ledgerRepo)
	notificationHandler := httphandlers.NewNotificationHandler(notificationService)
	exchangeHandler := httphandlers.NewExchangeHandler(exchange.NewService(cfg.Exchange.BaseURL, ttlCache))

	return &Dependencies{
		DB:                  db,
		WebhookHandler:      webhookHandler,
		ItemHandler:         itemHandler,
		AccountHandler:      accountHandler,
		TransactionHandler:  transactionHandler,
		LedgerHandler:       ledgerHandler,
		NotificationHandler: notificationHandler,
		ExchangeHandler:     exchangeHandler,
		JWT:                 jwt,
		Engine:              engine,
	}, nil
}

// Close releases all resources held by dependencies.
func (d *Dependencies) Close() {
	if d.DB != nil {
		d.DB.Close()
	}
}
