package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/BerniceZTT/feedback_end/config"
	"github.com/BerniceZTT/feedback_end/middleware"
	"github.com/BerniceZTT/feedback_end/repository"
	"github.com/BerniceZTT/feedback_end/routes"
	"github.com/BerniceZTT/feedback_end/service"
	"github.com/BerniceZTT/feedback_end/storage"
	"github.com/BerniceZTT/feedback_end/utils"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
)

var configPath string

func main() {
	root := &cobra.Command{
		Use:          "feedback_end",
		Short:        "Feedback and suggestion tracking API",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context())
		},
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "YAML config file (overrides CONFIG_FILE)")

	root.AddCommand(&cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context())
		},
	})
	root.AddCommand(&cobra.Command{
		Use:   "init-db",
		Short: "Create collections and indexes and seed the admin account",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runInitDB(cmd.Context())
		},
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	utils.InitLogger(cfg.LogLevel, cfg.Debug)
	utils.InitAuth(cfg.JWTKey, time.Duration(cfg.TokenTTLHours)*time.Hour)
	if cfg.Debug {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	if cfg.JWTKey == "" {
		utils.Logger.Warn().Msg("JWT_KEY not set, using the development signing key")
	}
	return cfg, nil
}

// operationLogStore is written by the request logger and pruned daily.
type operationLogStore interface {
	middleware.OperationLogStore
	service.OperationLogPruner
}

// stores bundles the persistence backends chosen by STORE.
type stores struct {
	feedbacks     service.FeedbackStore
	users         service.UserStore
	operationLogs operationLogStore
	dbStatus      func(ctx context.Context) (map[string]interface{}, error)
	close         func(ctx context.Context)
}

func openStores(ctx context.Context, cfg *config.Config) (*stores, error) {
	if cfg.Store == config.StoreMemory {
		users := repository.NewMemoryUserRepository()
		if err := repository.InitializeAdminAccount(ctx, users, cfg.AdminEmail, cfg.AdminPassword); err != nil {
			return nil, err
		}
		utils.Logger.Warn().Msg("using the in-memory store, data is lost on exit")
		return &stores{
			feedbacks:     repository.NewMemoryFeedbackRepository(),
			users:         users,
			operationLogs: repository.NewMemoryOperationLogRepository(),
			dbStatus: func(context.Context) (map[string]interface{}, error) {
				return map[string]interface{}{"connected": true, "store": config.StoreMemory}, nil
			},
			close: func(context.Context) {},
		}, nil
	}

	db, err := repository.InitMongoDB(ctx, cfg.MongoURI, cfg.MongoDB)
	if err != nil {
		return nil, err
	}

	users := repository.NewUserRepository(db)
	if err := repository.InitializeCollections(ctx, db); err != nil {
		utils.Logger.Error().Err(err).Msg("initialize collections failed")
	}
	if err := repository.InitializeAdminAccount(ctx, users, cfg.AdminEmail, cfg.AdminPassword); err != nil {
		utils.Logger.Error().Err(err).Msg("initialize admin account failed")
	}

	return &stores{
		feedbacks:     repository.NewFeedbackRepository(db),
		users:         users,
		operationLogs: repository.NewOperationLogRepository(db),
		dbStatus:      repository.GetDatabaseStatus,
		close:         repository.CloseMongoDB,
	}, nil
}

// openAttachments returns the attachment store and, for local uploads, the
// directory to serve statically.
func openAttachments(ctx context.Context, cfg *config.Config) (storage.AttachmentStore, string, error) {
	if cfg.UploadBackend == config.UploadS3 {
		s3Store, err := storage.NewS3Store(ctx, cfg.S3Bucket, cfg.AWSRegion)
		if err != nil {
			return nil, "", err
		}
		utils.Logger.Info().Str("bucket", cfg.S3Bucket).Str("region", cfg.AWSRegion).Msg("attachments stored in S3")
		return s3Store, "", nil
	}

	local, err := storage.NewLocalStore(cfg.UploadDir)
	if err != nil {
		return nil, "", err
	}
	utils.Logger.Info().Str("dir", local.Dir()).Msg("attachments stored on disk")
	return local, local.Dir(), nil
}

func runServe(ctx context.Context) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	st, err := openStores(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		st.close(closeCtx)
	}()

	attachments, uploadDir, err := openAttachments(ctx, cfg)
	if err != nil {
		return err
	}

	if cfg.LogRetentionDays > 0 {
		service.ScheduleDailyTaskAt(ctx, 3, 0, 0, service.NewLogRetention(st.operationLogs, cfg.LogRetentionDays).Prune)
		utils.Logger.Info().Int("days", cfg.LogRetentionDays).Msg("operation log retention scheduled")
	}

	router := routes.NewRouter(routes.Dependencies{
		Feedbacks:      st.feedbacks,
		Users:          st.users,
		OperationLogs:  st.operationLogs,
		Attachments:    attachments,
		UploadDir:      uploadDir,
		MaxUploadBytes: cfg.MaxUploadBytes(),
		CORSOrigins:    cfg.CORSOrigins,
		DBStatus:       st.dbStatus,
	})

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		utils.Logger.Info().Int("port", cfg.Port).Str("store", cfg.Store).Msg("server started")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	utils.Logger.Info().Msg("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}

	utils.Logger.Info().Msg("server stopped")
	return nil
}

func runInitDB(ctx context.Context) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cfg.Store != config.StoreMongo {
		return fmt.Errorf("init-db needs STORE=%s, got %q", config.StoreMongo, cfg.Store)
	}

	db, err := repository.InitMongoDB(ctx, cfg.MongoURI, cfg.MongoDB)
	if err != nil {
		return err
	}
	defer repository.CloseMongoDB(context.Background())

	if err := repository.InitializeCollections(ctx, db); err != nil {
		return err
	}
	if err := repository.InitializeAdminAccount(ctx, repository.NewUserRepository(db), cfg.AdminEmail, cfg.AdminPassword); err != nil {
		return err
	}

	utils.Logger.Info().Str("database", cfg.MongoDB).Msg("database initialised")
	return nil
}
