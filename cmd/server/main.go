// VendorVault API Server
//
// Usage:
//
//	server                 Start the HTTP server
//	server -migrate        Run database migrations and exit
//	server -create-admin   Create an admin user from ADMIN_EMAIL/ADMIN_PASSWORD and exit
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/vendorvault/vendorvault/internal/api"
	"github.com/vendorvault/vendorvault/internal/audit"
	"github.com/vendorvault/vendorvault/internal/auth"
	"github.com/vendorvault/vendorvault/internal/batch"
	"github.com/vendorvault/vendorvault/internal/crypto"
	"github.com/vendorvault/vendorvault/internal/db"
	"github.com/vendorvault/vendorvault/internal/engine"
	"github.com/vendorvault/vendorvault/internal/fulfillment"
	"github.com/vendorvault/vendorvault/internal/notify"
	"github.com/vendorvault/vendorvault/internal/reconcile"
	"github.com/vendorvault/vendorvault/internal/vault"
)

func main() {
	migrateOnly := flag.Bool("migrate", false, "Run migrations and exit")
	createAdmin := flag.Bool("create-admin", false, "Create an admin user and exit")
	migrationsDir := flag.String("migrations-dir", "migrations", "Path to migrations directory")
	flag.Parse()

	ctx := context.Background()

	// Load config from environment
	databaseURL := requireEnv("DATABASE_URL")
	jwtSecret := requireEnv("JWT_SECRET")
	credentialKey := requireEnv("CREDENTIAL_KEY")
	listenAddr := getEnv("LISTEN_ADDR", ":8443")

	// Connect to database
	database, err := db.New(ctx, databaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.Close()

	// Run migrations
	if err := database.RunMigrations(ctx, *migrationsDir); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}
	log.Println("Migrations complete")

	if *migrateOnly {
		log.Println("Migration-only mode, exiting")
		return
	}

	// Initialize auth
	authSvc := auth.New(jwtSecret)

	if *createAdmin {
		bootstrapAdmin(ctx, database, authSvc)
		return
	}

	// Initialize the credential keychain. A bad key must fail startup, not
	// the first upload.
	keychain, err := crypto.NewKeychain(credentialKey)
	if err != nil {
		log.Fatalf("Failed to initialize credential keychain: %v", err)
	}
	log.Println("Credential keychain initialized")

	// Provider validation rules
	rules := batch.DefaultRules()
	if path := os.Getenv("PROVIDER_RULES_FILE"); path != "" {
		rules, err = batch.LoadRulesFile(path)
		if err != nil {
			log.Fatalf("Failed to load provider rules: %v", err)
		}
		log.Printf("Provider rules loaded from %s", path)
	}

	// Webhook notifier (disabled when WEBHOOK_URL is unset)
	notifier := notify.New(os.Getenv("WEBHOOK_URL"), os.Getenv("WEBHOOK_SECRET"))

	// Wire the fulfillment engine
	ledger := audit.NewLedger(database)
	vaultSvc := vault.New(database, keychain, ledger)
	machine := fulfillment.NewMachine(database, ledger)
	reconciler := reconcile.New(database, ledger)
	eng := engine.New(database, vaultSvc, machine, reconciler, ledger, rules, notifier)

	// Create API server
	apiServer := api.NewServer(database, authSvc, eng)

	// Create HTTP server
	srv := &http.Server{
		Addr:         listenAddr,
		Handler:      apiServer.Handler(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)

	go func() {
		log.Printf("VendorVault API server starting on %s", listenAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	<-done
	log.Println("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("Server shutdown error: %v", err)
	}

	log.Println("Server stopped")
}

// bootstrapAdmin creates an admin account. Admins never come through the
// public registration endpoint.
func bootstrapAdmin(ctx context.Context, database *db.DB, authSvc *auth.Auth) {
	email := requireEnv("ADMIN_EMAIL")
	password := requireEnv("ADMIN_PASSWORD")
	name := getEnv("ADMIN_NAME", "Administrator")

	hash, err := authSvc.HashPassword(password)
	if err != nil {
		log.Fatalf("Failed to hash admin password: %v", err)
	}

	user, err := database.CreateUser(ctx, email, hash, name, auth.RoleAdmin, nil)
	if err != nil {
		log.Fatalf("Failed to create admin user: %v", err)
	}
	log.Printf("Admin user %s created (%s)", user.Email, user.ID)
}

func requireEnv(key string) string {
	val := os.Getenv(key)
	if val == "" {
		fmt.Fprintf(os.Stderr, "Required environment variable %s is not set\n", key)
		os.Exit(1)
	}
	return val
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}
