package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awscfg "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"sharestuff/internal/auth"
	"sharestuff/internal/avatar"
	"sharestuff/internal/config"
	apphttp "sharestuff/internal/http"
	"sharestuff/internal/repository"
	"sharestuff/internal/repository/memory"
	"sharestuff/internal/repository/sqlite"
	"sharestuff/internal/service"
	"sharestuff/internal/session"
	"sharestuff/internal/storage"
)

type repositories struct {
	users repository.UserRepository
	posts repository.PostRepository
	likes repository.LikeRepository
	close func() error
}

func main() {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("load config: %v", err)
	}
	if level, err := logrus.ParseLevel(cfg.Log.Level); err == nil {
		logger.SetLevel(level)
	} else {
		logger.Warnf("unknown log level %q, using info", cfg.Log.Level)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	repos, err := buildRepositories(ctx, cfg, logger)
	if err != nil {
		logger.Fatalf("setup database: %v", err)
	}
	defer repos.close()

	userService := service.NewUserService(repos.users, cfg.Auth.BcryptCost)
	postService := service.NewPostService(repos.posts, repos.users)
	likeService := service.NewLikeService(repos.likes, repos.posts, repos.users, logger)

	if cfg.App.Seed {
		if err := service.Seed(ctx, userService, postService, logger); err != nil {
			logger.Fatalf("seed data: %v", err)
		}
	}

	sessions := session.NewMemoryStore(time.Duration(cfg.Auth.SessionTTLMinutes) * time.Minute)
	go sessions.RunJanitor(ctx, time.Minute, logger)

	resolvers := auth.Chain{auth.SessionResolver{Sessions: sessions}}
	var tokens *auth.TokenIssuer
	if strings.TrimSpace(cfg.Auth.JWTSecret) != "" {
		tokens = auth.NewTokenIssuer(cfg.Auth.JWTSecret, time.Duration(cfg.Auth.TokenTTLMinutes)*time.Minute)
		resolvers = append(resolvers, auth.BearerResolver{Tokens: tokens, Users: userService})
	} else {
		logger.Warn("auth jwt secret is empty, bearer tokens are disabled")
	}

	storageSvc, err := buildStorage(ctx, cfg, logger)
	if err != nil {
		logger.Fatalf("setup storage: %v", err)
	}

	avatars := avatar.NewService(storageSvc, userService, cfg.Avatar.Size, logger)
	warmer := avatar.NewWarmer(avatars, cfg.Avatar.Workers, 64, logger)
	warmer.Start(ctx)

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	handler := apphttp.NewHandler(apphttp.Config{
		AppName:    cfg.App.Name,
		PostNoun:   cfg.App.PostNoun,
		Users:      userService,
		Posts:      postService,
		Likes:      likeService,
		Sessions:   sessions,
		SessionTTL: sessions.TTL(),
		Identity:   resolvers,
		Tokens:     tokens,
		Avatars:    avatars,
		Warmer:     warmer,
		Metrics:    cfg.Metrics.Enabled,
		Logger:     logger,
	})
	if err := handler.RegisterRoutes(router); err != nil {
		logger.Fatalf("register routes: %v", err)
	}

	srv := &http.Server{
		Addr:    cfg.Server.Addr,
		Handler: router,
	}

	go func() {
		logger.Infof("listening on %s", cfg.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("http server: %v", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warnf("http shutdown: %v", err)
	}
	warmer.Shutdown()

	logger.Info("bye")
}

func buildRepositories(ctx context.Context, cfg config.Config, logger *logrus.Logger) (repositories, error) {
	if cfg.Database.Driver == "memory" {
		db := memory.Open()
		logger.Info("using in-memory store")
		return repositories{
			users: memory.NewUserRepository(db),
			posts: memory.NewPostRepository(db),
			likes: memory.NewLikeRepository(db),
			close: func() error { return nil },
		}, nil
	}

	db, err := sqlite.Open(cfg.Database.Path)
	if err != nil {
		return repositories{}, fmt.Errorf("open database: %w", err)
	}
	repos := repositories{
		users: sqlite.NewUserRepository(db),
		posts: sqlite.NewPostRepository(db),
		likes: sqlite.NewLikeRepository(db),
		close: db.Close,
	}
	if err := initRepositories(ctx, db, repos); err != nil {
		return repositories{}, err
	}
	logger.Infof("using sqlite database %s", cfg.Database.Path)
	return repos, nil
}

func initRepositories(ctx context.Context, db *sql.DB, repos repositories) error {
	if err := repos.users.Init(ctx); err != nil {
		db.Close()
		return fmt.Errorf("init user repository: %w", err)
	}
	if err := repos.posts.Init(ctx); err != nil {
		db.Close()
		return fmt.Errorf("init post repository: %w", err)
	}
	if err := repos.likes.Init(ctx); err != nil {
		db.Close()
		return fmt.Errorf("init like repository: %w", err)
	}
	return nil
}

func buildStorage(ctx context.Context, cfg config.Config, logger *logrus.Logger) (storage.Service, error) {
	if cfg.Storage.Driver == "local" {
		logger.Infof("storing avatars under %s", cfg.Storage.LocalDir)
		return storage.NewLocalService(cfg.Storage.LocalDir)
	}

	loadOpts := []func(*awscfg.LoadOptions) error{
		awscfg.WithRegion(cfg.Storage.Region),
	}
	if cfg.AWS.Profile != "" {
		loadOpts = append(loadOpts, awscfg.WithSharedConfigProfile(cfg.AWS.Profile))
	}

	awsCfg, err := awscfg.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Storage.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Storage.Endpoint)
			o.UsePathStyle = true
		}
	})
	logger.Infof("using s3 bucket %s (region %s)", cfg.Storage.Bucket, cfg.Storage.Region)
	return storage.NewS3Service(client, cfg.Storage.Bucket, cfg.Storage.KeyPrefix), nil
}
