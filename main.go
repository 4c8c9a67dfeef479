package main

import (
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/joho/godotenv"

	"civicfix/ai"
	"civicfix/clock"
	"civicfix/config"
	"civicfix/lifecycle"
	"civicfix/messaging"
	"civicfix/repository"
	"civicfix/routes"
	"civicfix/schema"
	"civicfix/service"
	"civicfix/storage"
	"civicfix/worker"
)

func main() {
	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found, using environment variables")
	}

	// Load configuration
	cfg := config.LoadConfig()

	// Initialize database connection (UTC for consistent timestamps)
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?parseTime=true&charset=utf8mb4&loc=UTC",
		cfg.Database.User,
		cfg.Database.Password,
		cfg.Database.Host,
		cfg.Database.Port,
		cfg.Database.DBName,
	)

	db, err := sql.Open("mysql", dsn)
	if err != nil {
		log.Fatalf("Failed to open database connection: %v", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		log.Fatalf("Failed to ping database: %v", err)
	}
	log.Println("Database connection established")

	// Ensure tables and seed data exist
	schema.InitializeDatabase(db)

	// Initialize repositories
	complaintRepo := repository.NewComplaintRepository(db)
	auditRepo := repository.NewAuditRepository(db)
	proofRepo := repository.NewProofRepository(db)
	signoffRepo := repository.NewSignoffRepository(db)
	upvoteRepo := repository.NewUpvoteRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)
	departmentRepo := repository.NewDepartmentRepository(db)

	// External collaborators
	objects, err := storage.NewLocalStore(cfg.Storage.BasePath)
	if err != nil {
		log.Fatalf("Failed to initialize object storage: %v", err)
	}
	oracle := ai.NewHTTPOracle(cfg.AI.Endpoint, cfg.AI.Timeout)
	var sender messaging.Client = messaging.Noop{}
	if cfg.Messaging.WebhookURL != "" {
		sender = messaging.NewWebhookSender(cfg.Messaging.WebhookURL, cfg.Messaging.Timeout)
	}

	// Initialize services
	clk := clock.System{}
	auditSink := service.NewAuditSink(auditRepo, clk)
	notificationService := service.NewNotificationService(notificationRepo, sender, clk)
	policy := lifecycle.NewPolicy()
	complaintService := service.NewComplaintService(
		complaintRepo, proofRepo, departmentRepo, policy,
		auditSink, notificationService, clk, cfg.AI.ConfidenceThreshold,
	)
	signoffService := service.NewSignoffService(
		complaintService, signoffRepo, proofRepo, departmentRepo,
		auditSink, notificationService, clk,
	)
	communityService := service.NewCommunityService(complaintRepo, upvoteRepo, cfg.Duplicate, clk)
	escalationService := service.NewEscalationService(
		complaintService, complaintRepo, signoffRepo, departmentRepo,
		auditSink, notificationService, cfg.Escalation, clk,
	)
	intakeService := service.NewIntakeService(
		complaintService, communityService, oracle, objects, cfg.AI,
	)

	// Background workers
	escalationWorker := worker.NewEscalationWorker(
		escalationService, cfg.Escalation.Interval, cfg.Escalation.SweepBudget,
	)
	escalationWorker.Start()

	notificationWorker := worker.NewNotificationWorker(
		notificationService, 30*time.Second,
	)
	notificationWorker.Start()

	// Setup routes
	router := routes.SetupRoutes(
		intakeService,
		complaintService,
		signoffService,
		communityService,
		escalationService,
		notificationService,
		auditSink,
		escalationWorker,
		objects,
		cfg.JWTSecret,
	)

	// Add CORS middleware
	corsHandler := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Access-Control-Allow-Origin", "*")
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PATCH, PUT, DELETE, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
			w.Header().Set("Access-Control-Max-Age", "3600")

			if r.Method == "OPTIONS" {
				w.WriteHeader(http.StatusOK)
				return
			}

			next.ServeHTTP(w, r)
		})
	}

	// Start server
	addr := fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port)
	log.Printf("Server starting on %s", addr)
	log.Fatal(http.ListenAndServe(addr, corsHandler(router)))
}
