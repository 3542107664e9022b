package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"time"

	"mindclone_server/routes"
	"mindclone_server/services"
	"mindclone_server/socket"

	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/robfig/cron/v3"
	"github.com/rs/cors"
)

func main() {
	// Load environment variables from .env when present
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	// Initialize DynamoDB client and service
	log.Println("Initializing DynamoDB client...")
	dynamoClient := services.InitializeDynamoDBClient()
	dynamoService := &services.DynamoService{Client: dynamoClient}
	log.Println("DynamoDB client initialized.")

	// External dependencies fail fast: the matching engine is useless without them
	llmService, err := services.NewLLMServiceFromEnv()
	if err != nil {
		log.Fatalf("❌ LLM configuration error: %v", err)
	}
	authService, err := services.NewAuthServiceFromEnv()
	if err != nil {
		log.Fatalf("❌ Auth configuration error: %v", err)
	}

	// Socket.IO server for realtime match notifications
	socketServer := socket.NewSocketServer(authService)
	go func() {
		if err := socketServer.Serve(); err != nil {
			log.Printf("⚠️ Socket server stopped: %v", err)
		}
	}()
	defer socketServer.Close()

	// Initialize services
	profileService := services.NewProfileService(dynamoService)
	stateService := services.NewMatchingStateService(dynamoService)
	matchService := &services.MatchService{Dynamo: dynamoService}
	conversationService := &services.ConversationService{Dynamo: dynamoService}
	notificationService := &services.NotificationService{Dynamo: dynamoService, Socket: socketServer}
	scorer := &services.CompatibilityService{}
	candidateService := &services.CandidateService{
		Profiles: profileService,
		Matches:  matchService,
		States:   stateService,
		Scorer:   scorer,
	}
	conversationEngine := services.NewConversationEngine(conversationService, profileService, llmService)
	approvalService := services.NewApprovalService(matchService, profileService, notificationService, llmService)
	leaseService := services.NewLeaseService(dynamoService)
	heartbeatService := &services.HeartbeatService{
		Matches:       matchService,
		Conversations: conversationService,
		Engine:        conversationEngine,
		Approvals:     approvalService,
		Candidates:    candidateService,
		Profiles:      profileService,
		States:        stateService,
		Leases:        leaseService,
		Now:           time.Now,
	}

	// Schedule autonomous heartbeat ticks
	heartbeatCron := os.Getenv("HEARTBEAT_CRON")
	if heartbeatCron == "" {
		heartbeatCron = "*/30 * * * *"
	}
	scheduler := cron.New()
	if _, err := scheduler.AddFunc(heartbeatCron, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
		defer cancel()
		heartbeatService.RunTick(ctx)
	}); err != nil {
		log.Fatalf("❌ Invalid HEARTBEAT_CRON %q: %v", heartbeatCron, err)
	}
	scheduler.Start()
	defer scheduler.Stop()
	log.Printf("Heartbeat scheduled with cron schedule %q", heartbeatCron)

	// Set up the server port
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	log.Printf("Using server port: %s\n", port)

	// Initialize the router
	r := mux.NewRouter()

	// Register routes
	routes.RegisterRoutes(r)
	routes.RegisterProfileRoutes(r, profileService, authService)
	routes.RegisterMatchRoutes(r, matchService, conversationService, notificationService, authService)
	routes.RegisterHeartbeatRoutes(r, heartbeatService)
	routes.RegisterDocumentRoutes(r, profileService, authService)
	r.Handle("/metrics", promhttp.Handler()).Methods("GET")
	r.Handle("/socket.io/", socketServer)

	// Add CORS middleware
	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   []string{"*"}, // Adjust for specific domains if needed
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization", "X-Admin-Token"},
		AllowCredentials: true,
	}).Handler(r)

	// Start the HTTP server
	log.Printf("Starting server on port %s...\n", port)
	log.Fatal(http.ListenAndServe(":"+port, corsHandler))
}
