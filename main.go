package main

import (
	"context"
	"log"
	"net/http"

	"github.com/joho/godotenv"
	"golang.org/x/crypto/bcrypt"

	"pto/config"
	"pto/database"
	"pto/directory"
	"pto/handlers"
	"pto/ledger"
	"pto/middleware"
	"pto/models"
	"pto/notify"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("No .env file loaded: %v", err)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	store, err := openStore(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize storage: %v", err)
	}

	var dir directory.Directory = directory.Static{}
	if cfg.LDAP.Enabled() {
		dir = &directory.LDAP{
			URL:          cfg.LDAP.URL,
			BindDN:       cfg.LDAP.BindDN,
			BindPassword: cfg.LDAP.BindPassword,
			BaseDN:       cfg.LDAP.BaseDN,
		}
	}

	var mailer notify.Mailer
	if cfg.SMTP.Enabled() {
		mailer = notify.NewSMTP(cfg.SMTP.Host, cfg.SMTP.Port, cfg.SMTP.Username, cfg.SMTP.Password)
	} else {
		log.Printf("SMTP_HOST not set, notifications will not be delivered")
	}

	svc := ledger.NewService(store, dir, mailer, nil, ledger.Settings{
		WorkDay:        cfg.WorkDay,
		Week:           cfg.WorkWeek,
		EmailBlacklist: cfg.Policy.EmailBlacklist,
		Notify: notify.Policy{
			HRManagers:  cfg.Policy.HRManagers,
			Fallback:    cfg.Policy.FallbackToAddress,
			Subject:     cfg.Policy.EmailSubject,
			SubjectEdit: cfg.Policy.EmailSubjectEdit,
			Signature:   cfg.Policy.EmailSignature,
		},
	}, nil)
	auth := middleware.NewAuthenticator(cfg.JWTSecret, cfg.JWTExpiration, svc)

	log.Printf("Server starting on port %s (%s storage)", cfg.ServerPort, cfg.Storage)
	log.Printf("Default admin credentials: admin / admin")
	log.Fatal(http.ListenAndServe(":"+cfg.ServerPort, handlers.NewRouter(svc, auth)))
}

func openStore(cfg *config.Config) (ledger.Store, error) {
	if cfg.Storage == config.StorageMemory {
		store := ledger.NewMemoryStore(nil)
		return store, seedMemoryAdmin(store)
	}

	db, err := database.Open(cfg.DatabaseURL, cfg.AutoMigrate)
	if err != nil {
		return nil, err
	}
	if err := database.SeedDefaultAdmin(db); err != nil {
		return nil, err
	}
	return database.NewLedgerStore(db), nil
}

func seedMemoryAdmin(store *ledger.MemoryStore) error {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte("admin"), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	return store.CreateUser(context.Background(), &models.User{
		Username:     "admin",
		FirstName:    "Administrator",
		PasswordHash: string(hashedPassword),
		IsStaff:      true,
		IsSuperuser:  true,
	})
}
