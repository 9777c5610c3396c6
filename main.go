package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/sirupsen/logrus"
	"go.temporal.io/sdk/client"
	"go.uber.org/zap"

	"github.com/skyflow-labs/databricks-provisioner/activities"
	appconfig "github.com/skyflow-labs/databricks-provisioner/config"
	"github.com/skyflow-labs/databricks-provisioner/databricks"
	"github.com/skyflow-labs/databricks-provisioner/db"
	"github.com/skyflow-labs/databricks-provisioner/handlers"
	applogger "github.com/skyflow-labs/databricks-provisioner/logger"
	"github.com/skyflow-labs/databricks-provisioner/providers"
	"github.com/skyflow-labs/databricks-provisioner/templates"
	"github.com/skyflow-labs/databricks-provisioner/workers"
)

func main() {
	envFile := flag.String("env", ".env.local", "Env file with workspace and vault settings")
	servicePath := flag.String("config", "service.yaml", "Service configuration file")
	stopQueue := flag.String("stop", "", "Task queue to stop (optional)")
	flag.Parse()

	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.SetLevel(logrus.InfoLevel)

	cfg := appconfig.Load(*envFile, logger)
	svc, err := appconfig.LoadService(*servicePath)
	if err != nil {
		log.Fatalf("Failed to load service configuration: %v", err)
	}

	// Secrets can come from Vault instead of the environment.
	if vaultAddr, ok := os.LookupEnv("VAULT_ADDR"); ok {
		overlayVaultSecrets(cfg, vaultAddr, logger)
	}
	if err := cfg.Validate(); err != nil {
		logger.Warnf("Configuration incomplete, create pipelines will fail preflight: %v", err)
	}

	// Audit trail is optional: without Postgres settings the service still
	// runs pipelines, it just doesn't record submissions.
	dbUser, dbUserExists := os.LookupEnv("POSTGRES_DB_USER")
	dbPassword := os.Getenv("POSTGRES_DB_PASSWORD")
	dbName := os.Getenv("POSTGRES_DB_NAME")
	if dbUserExists {
		if err := db.InitDB(dbUser, dbPassword, dbName); err != nil {
			log.Fatalf("Failed to initialize audit database: %v", err)
		}
	} else {
		logger.Warn("POSTGRES_DB_USER not set, audit trail disabled")
	}

	workspace, err := databricks.NewClient(databricks.Config{
		Host:         cfg.Databricks.Host,
		Token:        cfg.Databricks.Token,
		ClientID:     cfg.Databricks.ClientID,
		ClientSecret: cfg.Databricks.ClientSecret,
		WarehouseID:  cfg.Databricks.WarehouseID,
	})
	if err != nil {
		log.Fatalf("Failed to create workspace client: %v", err)
	}

	zapLogger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("Failed to create zap logger: %v", err)
	}
	temporalOptions := client.Options{
		HostPort: os.Getenv("TEMPORAL_ADDRESS"),
		Logger:   applogger.NewZapAdapter(zapLogger),
	}

	handlers.StartTemporalClient(temporalOptions)

	c, err := client.Dial(temporalOptions)
	if err != nil {
		log.Fatalf("Failed to create Temporal client: %v", err)
	}
	defer c.Close()

	provisioner := activities.NewProvisioner(workspace, templates.NewStore(svc.TemplateRoot), cfg, svc)
	manager := workers.NewWorkerManager(c, provisioner)

	if *stopQueue != "" {
		manager.StopWorker(*stopQueue)
		log.Printf("Stopped worker for task queue: %s\n", *stopQueue)
		os.Exit(0)
	}
	manager.StartWorker(svc.TaskQueue)

	go func() {
		e := echo.New()
		e.HTTPErrorHandler = handlers.CustomHTTPErrorHandler
		e.Use(handlers.RequestIDMiddleware)
		e.Use(middleware.Logger())
		e.Use(middleware.Recover())
		handlers.RegisterRoutes(e, handlers.NewHandler(svc), handlers.GetClient)

		if err := e.Start(svc.ListenAddr); err != nil {
			log.Fatalf("Failed to start Echo server: %v", err)
		}
	}()

	stopChan := make(chan os.Signal, 1)
	signal.Notify(stopChan, syscall.SIGINT, syscall.SIGTERM)
	<-stopChan

	log.Println("Shutting down gracefully...")
	manager.StopWorker(svc.TaskQueue)
}

// overlayVaultSecrets replaces the Skyflow and Databricks credentials with
// values from Vault when a vault is configured. Missing keys keep their
// environment values.
func overlayVaultSecrets(cfg *appconfig.Config, vaultAddr string, logger *logrus.Logger) {
	roleID := os.Getenv("ROLE_ID")
	secretID := os.Getenv("SECRET_ID")
	if roleID == "" || secretID == "" {
		logger.Warn("VAULT_ADDR set but ROLE_ID/SECRET_ID missing, skipping vault secrets")
		return
	}

	provider, err := providers.NewVaultSecretsProvider(
		vaultAddr,
		os.Getenv("VAULT_CACERT"),
		getEnvDefault("VAULT_MOUNT_PATH", "secret"),
		getEnvDefault("VAULT_SECRET_PATH", "skyflow-databricks"),
	)
	if err != nil {
		logger.Errorf("Failed to build vault provider: %v", err)
		return
	}

	ctx := context.Background()
	if err := provider.Login(ctx, roleID, secretID); err != nil {
		logger.Errorf("Vault login failed: %v", err)
		return
	}
	creds, err := provider.Credentials(ctx)
	if err != nil {
		logger.Errorf("Failed to read vault secrets: %v", err)
		return
	}

	if v := creds["skyflow_pat_token"]; v != "" {
		cfg.Skyflow.PATToken = v
	}
	if v := creds["skyflow_vault_id"]; v != "" {
		cfg.Skyflow.VaultID = v
	}
	if v := creds["databricks_pat_token"]; v != "" {
		cfg.Databricks.Token = v
	}
	if v := creds["databricks_client_secret"]; v != "" {
		cfg.Databricks.ClientSecret = v
	}
	logger.Info("Loaded credentials from vault")
}

func getEnvDefault(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok && val != "" {
		return val
	}
	return fallback
}
