package main

import (
	"context"
	"flag"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"golang.org/x/crypto/bcrypt"

	"github.com/google/uuid"

	"github.com/tasterr/tasterr/internal/config"
	"github.com/tasterr/tasterr/internal/db"
	"github.com/tasterr/tasterr/internal/services"
)

// seed provisions the admin account and, optionally, a sample published
// survey. Registration over the API only ever creates participant accounts.
func main() {
	email := flag.String("email", "admin@tasterr.dev", "admin email")
	password := flag.String("password", "", "admin password (required)")
	sample := flag.Bool("sample", false, "also create a sample published survey")
	flag.Parse()

	if *password == "" {
		log.Fatal("-password is required")
	}
	if len(*password) < 8 {
		log.Fatal("-password must be at least 8 characters")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	store, cleanup, err := openStore(cfg)
	if err != nil {
		log.Fatalf("store: %v", err)
	}
	defer cleanup()

	existing, err := store.FindUserByEmail(*email)
	if err != nil {
		log.Fatalf("looking up %s: %v", *email, err)
	}
	if existing != nil {
		log.Printf("admin %s already exists, skipping", *email)
	} else {
		hash, err := bcrypt.GenerateFromPassword([]byte(*password), bcrypt.DefaultCost)
		if err != nil {
			log.Fatalf("hashing password: %v", err)
		}
		admin := &services.User{
			ID:        uuid.NewString()[:12],
			Email:     *email,
			PassHash:  hash,
			Role:      services.RoleAdmin,
			CreatedAt: time.Now(),
		}
		if err := store.AddUser(admin); err != nil {
			log.Fatalf("creating admin: %v", err)
		}
		log.Printf("created admin %s (%s)", admin.Email, admin.ID)
	}

	if *sample {
		seedSampleSurvey(store, *email)
	}
}

func seedSampleSurvey(store services.Store, adminEmail string) {
	admin, err := store.FindUserByEmail(adminEmail)
	if err != nil || admin == nil {
		log.Fatalf("loading admin %s: %v", adminEmail, err)
	}
	svc := services.NewSurveyService(store)
	ident := services.Identity{UserID: admin.ID, Role: admin.Role}

	survey, err := svc.Create(ident, services.SurveyDraft{
		Title:        "Weekly snack pulse",
		Introduction: "Three quick questions about what you snacked on this week.",
		Audience:     services.AudienceAll,
		Questions: []services.QuestionDraft{
			{Text: "How many snacks did you have this week?", Type: services.QuestionNumber, Required: true},
			{Text: "What was the best one?", Type: services.QuestionShortText, Required: true},
			{Text: "Would you buy it again?", Type: services.QuestionSingleChoice, Required: true,
				Options: []services.QuestionOption{
					{Value: "yes", Label: "Yes"},
					{Value: "maybe", Label: "Maybe"},
					{Value: "no", Label: "No"},
				}},
		},
	})
	if err != nil {
		log.Fatalf("creating sample survey: %v", err)
	}
	if _, err := svc.Publish(ident, survey.ID); err != nil {
		log.Fatalf("publishing sample survey: %v", err)
	}
	log.Printf("created sample survey %s", survey.ID)
}

func openStore(cfg *config.Config) (services.Store, func(), error) {
	switch cfg.Store {
	case config.StoreMongo:
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
		if err != nil {
			return nil, nil, err
		}
		if err := client.Ping(ctx, nil); err != nil {
			return nil, nil, err
		}
		store := db.NewMongoStore(client, cfg.MongoDB)
		if err := store.EnsureIndexes(ctx); err != nil {
			return nil, nil, err
		}
		cleanup := func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = client.Disconnect(ctx)
		}
		return store, cleanup, nil
	default:
		store, err := db.OpenSQLite(cfg.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		if err := db.RunMigrations(store.DB(), cfg.MigrationsDir); err != nil {
			store.Close()
			return nil, nil, err
		}
		return store, func() { store.Close() }, nil
	}
}
