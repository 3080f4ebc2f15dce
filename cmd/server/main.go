package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/sessions"
	redisStore "github.com/gin-contrib/sessions/redis"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/pflag"

	"github.com/devbridge/dev-bridge-manager/internal/board"
	"github.com/devbridge/dev-bridge-manager/internal/cache"
	"github.com/devbridge/dev-bridge-manager/internal/config"
	"github.com/devbridge/dev-bridge-manager/internal/constants"
	"github.com/devbridge/dev-bridge-manager/internal/database"
	"github.com/devbridge/dev-bridge-manager/internal/directory"
	"github.com/devbridge/dev-bridge-manager/internal/handlers"
	"github.com/devbridge/dev-bridge-manager/internal/repository"
	"github.com/devbridge/dev-bridge-manager/internal/services"
)

func main() {
	port := pflag.String("port", "", "port to listen on (overrides PORT)")
	skipMigrate := pflag.Bool("skip-migrate", false, "do not run database migrations on startup")
	pflag.Parse()

	// Load configuration
	cfg := config.Load()
	if *port != "" {
		cfg.Port = *port
	}

	log := newLogger(cfg.LogLevel)
	slog.SetDefault(log)

	// Set Gin mode
	gin.SetMode(cfg.GinMode)

	// Connect to database
	if err := database.Connect(cfg, log); err != nil {
		fatal(log, "failed to connect to database", err)
	}

	// Run migrations
	if !*skipMigrate {
		if err := database.Migrate(log); err != nil {
			fatal(log, "failed to run migrations", err)
		}
	}
	db := database.GetDB()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Principal cache, skipped when redis is unreachable
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr(),
		Password: cfg.RedisPassword,
	})
	defer redisClient.Close()
	var principalCache cache.PrincipalCache = cache.NopPrincipalCache{}
	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.Warn("redis unavailable, principal cache disabled", "addr", cfg.RedisAddr(), "error", err)
	} else {
		principalCache = cache.NewRedisPrincipalCache(redisClient, cfg.PrincipalCacheTTL)
	}

	// Repositories and services
	userRepo := repository.NewUserRepository(db)
	roleRepo := repository.NewRoleRepository(db)
	projectRepo := repository.NewProjectRepository(db)
	boardRepo := repository.NewBoardRepository(db)
	assignmentRepo := repository.NewAssignmentRepository(db)

	roleService := services.NewRoleService(roleRepo, principalCache)
	if err := roleService.EnsureDefaults(ctx); err != nil {
		fatal(log, "failed to seed roles", err)
	}

	userService := services.NewUserService(userRepo, roleRepo, principalCache)
	projectService := services.NewProjectService(projectRepo)
	boardService := services.NewBoardService(boardRepo, projectRepo)
	assignmentService := services.NewAssignmentService(assignmentRepo, projectRepo, userRepo)

	// Initialize AI service
	var aiService *services.AIService
	if cfg.OpenAIAPIKey != "" {
		aiService = services.NewAIService(cfg.OpenAIAPIKey)
	}

	boards := board.NewManager(boardService, log)
	defer boards.CloseAll()

	// Initialize Gin router
	r := gin.Default()

	// Setup session middleware with Redis
	store, err := redisStore.NewStore(
		10,                // Redis pool size
		"tcp",             // network type
		cfg.RedisAddr(),   // Redis address from config
		"",                // username (empty for default user)
		cfg.RedisPassword, // password
		[]byte(cfg.SessionSecret),
	)
	if err != nil {
		fatal(log, "failed to create redis session store", err)
	}
	store.Options(sessions.Options{
		Path:     "/",
		MaxAge:   int(constants.SessionMaxAge.Seconds()),
		HttpOnly: true,
		Secure:   cfg.GinMode == gin.ReleaseMode,
		SameSite: http.SameSiteLaxMode,
	})
	r.Use(sessions.Sessions(constants.SessionCookieName, store))

	handlers.RegisterRoutes(r, handlers.Deps{
		AuthService: services.NewAuthService(userRepo, roleRepo, principalCache),
		RoleService: roleService,
		Tokens:      services.NewTokenService(cfg.JWTSecret, cfg.JWTExpiration),
		Principals:  services.NewPrincipalService(userRepo, principalCache, log),
		Users:       directory.NewUsers(userService, log),
		Projects:    directory.NewProjects(projectService, log),
		Boards:      boards,
		Assignments: assignmentService,
		AIService:   aiService,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info("server starting", "port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			fatal(log, "failed to start server", err)
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", "error", err)
	}
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl}))
}

func fatal(log *slog.Logger, msg string, err error) {
	log.Error(msg, "error", err)
	os.Exit(1)
}
