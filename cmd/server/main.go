package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/tastybites/backend/internal/admin"
	"github.com/tastybites/backend/internal/auth"
	"github.com/tastybites/backend/internal/blog"
	"github.com/tastybites/backend/internal/config"
	"github.com/tastybites/backend/internal/contact"
	"github.com/tastybites/backend/internal/email"
	"github.com/tastybites/backend/internal/logger"
	"github.com/tastybites/backend/internal/middleware"
	"github.com/tastybites/backend/internal/models"
	"github.com/tastybites/backend/internal/otp"
	"github.com/tastybites/backend/internal/rating"
	"github.com/tastybites/backend/internal/recipe"
	"github.com/tastybites/backend/internal/store"
	"github.com/tastybites/backend/internal/upload"
)

func main() {
	cfg := config.Load()
	ctx := context.Background()

	zlog, err := logger.New(cfg.LogLevel, cfg.Environment)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer zlog.Sync()

	// ── MongoDB ──────────────────────────────────────────────
	mongoClient, err := store.Connect(ctx, cfg.MongoURI, 10*time.Second)
	if err != nil {
		zlog.Fatal("mongo connect", zap.Error(err))
	}
	defer mongoClient.Disconnect(ctx)
	db := mongoClient.Database(cfg.MongoDB)
	if err := store.EnsureIndexes(ctx, db); err != nil {
		zlog.Fatal("mongo indexes", zap.Error(err))
	}

	users := store.NewUserStore(db)
	recipes := store.NewRecipeStore(db)
	blogs := store.NewBlogStore(db)
	comments := store.NewCommentStore(db)
	favorites := store.NewFavoriteStore(db)
	ratings := store.NewRatingStore(db)
	otps := store.NewOTPStore(db)

	// ── PostgreSQL ───────────────────────────────────────────
	pgPool, err := pgxpool.New(ctx, cfg.PostgresDSN)
	if err != nil {
		zlog.Fatal("postgres connect", zap.Error(err))
	}
	defer pgPool.Close()
	contacts := store.NewContactStore(pgPool)
	if err := contacts.Migrate(ctx); err != nil {
		zlog.Fatal("postgres migrate", zap.Error(err))
	}

	// ── Redis ────────────────────────────────────────────────
	rdb, err := store.NewRedisClient(ctx, cfg.RedisAddr, cfg.RedisPassword)
	if err != nil {
		zlog.Fatal("redis connect", zap.Error(err))
	}
	defer rdb.Close()
	otpLimiter := store.NewRateLimiter(rdb, "otp", 5, time.Hour)

	// ── MinIO ────────────────────────────────────────────────
	media, err := store.NewMediaStore(
		ctx, cfg.MinioEndpoint, cfg.MinioAccessKey,
		cfg.MinioSecretKey, cfg.MinioBucket, cfg.MinioUseSSL,
	)
	if err != nil {
		zlog.Fatal("minio connect", zap.Error(err))
	}

	// ── Mail ─────────────────────────────────────────────────
	mailer := email.NewSMTPMailer(email.Config{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		Username: cfg.SMTPUsername,
		Password: cfg.SMTPPassword,
		From:     cfg.SMTPFrom,
		FromName: cfg.SMTPFromName,
	})
	if mailer.DevMode() {
		zlog.Warn("smtp credentials missing, outgoing mail is disabled")
	}

	// ── Services ─────────────────────────────────────────────
	tokens := auth.NewTokenManager(cfg.JWTSecret, cfg.IsProduction())
	otpSvc := otp.NewService(otps, otpLimiter, mailer, zlog)
	ratingSvc := rating.NewService(ratings, recipes)

	// ── Handlers ─────────────────────────────────────────────
	authHandler := auth.NewHandler(users, otpSvc, tokens, mailer, zlog, cfg.AllowedOrigins[0])
	recipeHandler := recipe.NewHandler(recipes, favorites, users, ratingSvc, zlog)
	blogHandler := blog.NewHandler(blogs, comments, users, zlog)
	adminHandler := admin.NewHandler(users, recipes, blogs, comments, zlog)
	contactHandler := contact.NewHandler(contacts, mailer, cfg.ContactInbox, zlog)
	uploadHandler := upload.NewHandler(media, zlog)

	requireAuth := middleware.RequireAuth(tokens)
	optionalAuth := middleware.OptionalAuth(tokens)

	// ── Router ───────────────────────────────────────────────
	r := chi.NewRouter()
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)
	r.Use(chimw.RealIP)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":"ok"}`))
	})

	// Auth routes
	r.Route("/api/auth", func(r chi.Router) {
		r.Post("/send-otp", authHandler.SendOTP)
		r.Post("/verify-otp", authHandler.VerifyOTP)
		r.Post("/register", authHandler.Register)
		r.Post("/login", authHandler.Login)
		r.Post("/logout", authHandler.Logout)
		r.Post("/forgot-password", authHandler.ForgotPassword)
		r.Post("/reset-password", authHandler.ResetPassword)
		r.With(requireAuth).Get("/me", authHandler.Me)
	})

	// Profile routes
	r.Route("/api/user", func(r chi.Router) {
		r.Use(requireAuth)
		r.Put("/profile", authHandler.UpdateProfile)
		r.Put("/change-password", authHandler.ChangePassword)
		r.Get("/recipes", recipeHandler.Mine)
	})

	// Recipe routes
	r.Route("/api/recipes", func(r chi.Router) {
		r.Get("/", recipeHandler.List)
		r.Get("/featured", recipeHandler.Featured)
		r.Get("/slug/{slug}", recipeHandler.GetBySlug)
		r.Get("/{id}", recipeHandler.Get)
		r.With(requireAuth).Post("/", recipeHandler.Create)
		r.With(requireAuth).Put("/{id}", recipeHandler.Update)
		r.With(requireAuth).Delete("/{id}", recipeHandler.Delete)
	})

	// Rating routes
	r.Route("/api/ratings", func(r chi.Router) {
		r.Use(requireAuth)
		r.Post("/", recipeHandler.Rate)
		r.Get("/", recipeHandler.MyRating)
	})

	// Favorite routes
	r.Route("/api/favorites", func(r chi.Router) {
		r.Use(requireAuth)
		r.Get("/", recipeHandler.ListFavorites)
		r.Post("/{id}", recipeHandler.AddFavorite)
		r.Get("/{id}", recipeHandler.CheckFavorite)
		r.Delete("/{id}", recipeHandler.RemoveFavorite)
	})

	// Blog routes
	r.Route("/api/blogs", func(r chi.Router) {
		r.With(optionalAuth).Get("/", blogHandler.List)
		r.Get("/featured", blogHandler.Featured)
		r.Get("/slug/{slug}", blogHandler.GetBySlug)
		r.With(requireAuth).Post("/", blogHandler.Create)
		r.With(requireAuth).Put("/{id}", blogHandler.Update)
		r.With(requireAuth).Delete("/{id}", blogHandler.Delete)
	})

	// Comment routes
	r.Route("/api/comments", func(r chi.Router) {
		r.Get("/", blogHandler.ListComments)
		r.With(requireAuth).Post("/", blogHandler.CreateComment)
		r.With(requireAuth).Put("/{id}", blogHandler.UpdateComment)
		r.With(requireAuth).Delete("/{id}", blogHandler.DeleteComment)
	})

	// Contact form
	r.Post("/api/contact", contactHandler.Submit)

	// Uploads
	r.With(requireAuth).Post("/api/upload", uploadHandler.Upload)
	r.Get("/uploads/{key}", uploadHandler.Serve)

	// Admin routes
	r.Route("/api/admin", func(r chi.Router) {
		r.Use(requireAuth)
		r.Use(middleware.RequireRole(models.RoleAdmin))
		r.Get("/stats", adminHandler.Stats)
		r.Get("/users", adminHandler.ListUsers)
		r.Get("/users/{id}", adminHandler.GetUser)
		r.Put("/users/{id}", adminHandler.UpdateUser)
		r.Delete("/users/{id}", adminHandler.DeleteUser)
		r.Get("/recipes/featured", adminHandler.FeaturedRecipes)
		r.Post("/recipes/{id}/featured", adminHandler.SetRecipeFeatured)
		r.Get("/contact", contactHandler.List)
	})

	// ── Server ───────────────────────────────────────────────
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	go func() {
		zlog.Info("listening", zap.String("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zlog.Fatal("server error", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zlog.Info("shutting down")
	shutCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	srv.Shutdown(shutCtx)
}
