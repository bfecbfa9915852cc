package main

import (
	"context"
	"net/http"

	"github.com/gorilla/mux"
	cron "github.com/robfig/cron/v3"
	"github.com/rs/cors"

	"github.com/ienerzy/auth-service/internal/app"
	"github.com/ienerzy/auth-service/internal/config"
	"github.com/ienerzy/auth-service/internal/controllers"
	"github.com/ienerzy/auth-service/internal/middleware"
	"github.com/ienerzy/auth-service/internal/models"
	"github.com/ienerzy/auth-service/internal/repositories"
	"github.com/ienerzy/auth-service/internal/services"
	"github.com/ienerzy/auth-service/internal/utils"
)

func main() {
	utils.InitLogger(config.AppName)
	cfg := config.LoadConfig()

	application, err := app.NewApp(cfg)
	if err != nil {
		utils.Logger.Fatal("Failed to initialize application:", err)
	}
	defer application.Close()

	//----------------------------------------------------------------------
	// Repositories
	//----------------------------------------------------------------------
	userRepo := repositories.NewUserRepository(application.DB)
	otpRepo := repositories.NewOTPRepository(application.DB)
	sessionRepo := repositories.NewSessionRepository(application.DB)
	blacklistRepo := repositories.NewBlacklistRepository(application.DB)
	rateLimitRepo := repositories.NewRateLimitRepository(application.DB)

	//----------------------------------------------------------------------
	// Services
	//----------------------------------------------------------------------
	tokenService := services.NewTokenService(cfg)
	otpService := services.NewOTPService(otpRepo, cfg.OTPExpiry, cfg.OTPMaxAttempts)
	sessionService := services.NewSessionService(sessionRepo, cfg.RefreshTokenExpiry)
	rateLimiterService := services.NewRateLimiterService(rateLimitRepo, cfg)
	smsService := services.NewSMSService(cfg)
	mailService := services.NewMailService(cfg)

	authService := services.NewAuthService(
		userRepo,
		blacklistRepo,
		otpService,
		sessionService,
		tokenService,
		rateLimiterService,
		smsService,
		mailService,
		cfg,
	)

	cleanupService := services.NewCleanupService(
		otpRepo,
		sessionRepo,
		blacklistRepo,
		rateLimitRepo,
		cfg,
	)

	//----------------------------------------------------------------------
	// Controllers
	//----------------------------------------------------------------------
	authController := controllers.NewAuthController(authService, cfg)
	healthController := controllers.NewHealthController(application)

	//----------------------------------------------------------------------
	// Router & Endpoints
	//----------------------------------------------------------------------
	router := mux.NewRouter()

	// Health
	router.HandleFunc("/health", healthController.HealthCheckHandler).Methods("GET")

	// /auth
	authRouter := router.PathPrefix("/auth").Subrouter()

	// Public endpoints
	authRouter.HandleFunc("/login", authController.Login).Methods("POST")
	authRouter.HandleFunc("/verify-otp", authController.VerifyOTP).Methods("POST")
	authRouter.HandleFunc("/refresh", authController.Refresh).Methods("POST")

	// Protected endpoints require a valid token with a live session
	protected := authRouter.NewRoute().Subrouter()
	protected.Use(middleware.Auth(tokenService, blacklistRepo, sessionService))
	protected.HandleFunc("/logout", authController.Logout).Methods("POST")
	protected.HandleFunc("/logout-all", authController.LogoutAll).Methods("POST")
	protected.HandleFunc("/sessions", authController.Sessions).Methods("GET")
	protected.HandleFunc("/me", authController.Me).Methods("GET")

	// Staff-only surface; consumer tokens are rejected with 403.
	staffOnly := authRouter.PathPrefix("/staff").Subrouter()
	staffOnly.Use(middleware.Auth(tokenService, blacklistRepo, sessionService))
	staffOnly.Use(middleware.RequireRoles(models.RoleAdmin, models.RoleDealer, models.RoleTechnician))
	staffOnly.HandleFunc("/sessions", authController.Sessions).Methods("GET")

	//----------------------------------------------------------------------
	// Setup daily cleanup via cron
	//----------------------------------------------------------------------
	c := cron.New()
	_, schErr := c.AddFunc("0 3 * * *", func() {
		if e := cleanupService.CleanupDaily(context.Background()); e != nil {
			utils.Logger.WithError(e).Error("Scheduled auth cleanup failed")
		}
	})
	if schErr != nil {
		utils.Logger.WithError(schErr).Fatal("Failed to schedule auth cleanup job")
	}
	c.Start()

	co := cors.New(cors.Options{
		AllowedOrigins:   []string{cfg.AppUrl},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		AllowCredentials: true,
	})

	utils.Logger.Infof("Starting %s on port: %s", cfg.AppName, cfg.AppPort)
	if err := http.ListenAndServe(":"+cfg.AppPort, co.Handler(router)); err != nil {
		utils.Logger.Fatal("Failed to start server:", err)
	}
}
