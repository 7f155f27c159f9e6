package main

import (
	"context"
	"log"
	"net/http"
	"os"

	"github.com/gorilla/mux"
	"github.com/rs/cors"

	"github.com/hunterpath/backend/internal/auth"
	"github.com/hunterpath/backend/internal/database"
	"github.com/hunterpath/backend/internal/middleware"
	"github.com/hunterpath/backend/internal/progression"
)

// refreshLogger is the server's Signals consumer: clients poll over HTTP,
// so refresh hints just land in the log, with the committed summary for
// status changes.
type refreshLogger struct {
	service *progression.Service
}

func (l refreshLogger) StatusChanged(userID int64) {
	if sum, ok := l.service.CachedSummary(userID); ok {
		log.Printf("[signals] user %d status: level %d, %d gold, rank %s", userID, sum.Level, sum.Gold, sum.Rank)
	}
}

func (l refreshLogger) QuestsChanged(userID int64) {
	log.Printf("[signals] user %d quests changed", userID)
}

func (l refreshLogger) BattlesChanged(userID int64) {
	log.Printf("[signals] user %d battles changed", userID)
}

func main() {
	// Initialize database
	db, err := database.Connect()
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	// Initialize handlers
	authHandler := auth.NewHandler(db)

	store := progression.NewStore(db)
	service := progression.NewService(store, progression.RealClock())
	service.SetSignals(refreshLogger{service: service})
	progressionHandler := progression.NewHandler(service)

	// Background workers
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go service.StartBattleSweepWorker(ctx)
	go service.StartDailyCycleWorker(ctx)

	// Setup router
	r := mux.NewRouter()
	api := r.PathPrefix("/api/v1").Subrouter()

	// Public routes
	api.HandleFunc("/auth/register", authHandler.Register).Methods("POST")
	api.HandleFunc("/auth/login", authHandler.Login).Methods("POST")

	// Protected routes
	protected := api.PathPrefix("").Subrouter()
	protected.Use(middleware.AuthMiddleware)
	protected.HandleFunc("/auth/me", authHandler.GetCurrentUser).Methods("GET")

	protected.HandleFunc("/progress", progressionHandler.GetProgress).Methods("GET")

	protected.HandleFunc("/quests", progressionHandler.ListQuests).Methods("GET")
	protected.HandleFunc("/quests", progressionHandler.CreateQuest).Methods("POST")
	protected.HandleFunc("/quests/complete-all", progressionHandler.CompleteAllQuests).Methods("POST")
	protected.HandleFunc("/quests/{id}/progress", progressionHandler.UpdateQuestProgress).Methods("POST")
	protected.HandleFunc("/quests/{id}/complete", progressionHandler.CompleteQuest).Methods("POST")
	protected.HandleFunc("/quests/{id}", progressionHandler.DeleteQuest).Methods("DELETE")

	protected.HandleFunc("/bosses", progressionHandler.ListBosses).Methods("GET")
	protected.HandleFunc("/battles", progressionHandler.ListBattles).Methods("GET")
	protected.HandleFunc("/battles/{bossID}", progressionHandler.StartBattle).Methods("POST")
	protected.HandleFunc("/battles/{bossID}/progress", progressionHandler.BattleProgress).Methods("POST")

	protected.HandleFunc("/daily/check", progressionHandler.DailyCheck).Methods("POST")
	protected.HandleFunc("/water", progressionHandler.AddWater).Methods("POST")

	protected.HandleFunc("/shop", progressionHandler.GetShop).Methods("GET")
	protected.HandleFunc("/shop/buy", progressionHandler.BuyItem).Methods("POST")
	protected.HandleFunc("/inventory", progressionHandler.ListInventory).Methods("GET")
	protected.HandleFunc("/inventory/{instanceID}/use", progressionHandler.UseItem).Methods("POST")

	protected.HandleFunc("/achievements", progressionHandler.ListAchievements).Methods("GET")
	protected.HandleFunc("/notifications", progressionHandler.ListNotifications).Methods("GET")
	protected.HandleFunc("/notifications/{id}/read", progressionHandler.MarkNotificationRead).Methods("POST")

	// Health check
	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	}).Methods("GET")

	// CORS
	c := cors.New(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		AllowCredentials: true,
	})

	handler := c.Handler(r)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	log.Printf("Server starting on :%s", port)
	if err := http.ListenAndServe(":"+port, handler); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}
