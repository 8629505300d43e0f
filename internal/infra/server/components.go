package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/gzip"
	"github.com/gin-contrib/logger"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"go.elastic.co/apm/module/apmgin"

	syncController "github.com/lloydmeta/notesync/internal/api/controllers/sync"
	userController "github.com/lloydmeta/notesync/internal/api/controllers/user"
	"github.com/lloydmeta/notesync/internal/config"
	"github.com/lloydmeta/notesync/internal/domain/account"
	"github.com/lloydmeta/notesync/internal/domain/batch"
	"github.com/lloydmeta/notesync/internal/domain/leader"
	"github.com/lloydmeta/notesync/internal/domain/merge"
	"github.com/lloydmeta/notesync/internal/domain/note"
	"github.com/lloydmeta/notesync/internal/domain/owner"
	"github.com/lloydmeta/notesync/internal/domain/transfer"
	apmTracing "github.com/lloydmeta/notesync/internal/infra/apm/tracing"
	cronAccount "github.com/lloydmeta/notesync/internal/infra/cron/account"
	"github.com/lloydmeta/notesync/internal/infra/elasticsearch/common"
	"github.com/lloydmeta/notesync/internal/infra/elasticsearch/index"
	esLeader "github.com/lloydmeta/notesync/internal/infra/elasticsearch/leader"
	esNote "github.com/lloydmeta/notesync/internal/infra/elasticsearch/note"
	esOwner "github.com/lloydmeta/notesync/internal/infra/elasticsearch/owner"
	"github.com/lloydmeta/notesync/internal/infra/server/binding/validation"
	"github.com/lloydmeta/notesync/internal/infra/server/routing"
	"github.com/lloydmeta/notesync/internal/infra/server/routing/health"
	syncRoutes "github.com/lloydmeta/notesync/internal/infra/server/routing/sync"
	"github.com/lloydmeta/notesync/internal/infra/server/routing/users"
	"github.com/lloydmeta/notesync/internal/infra/sqlite"
)

const (
	defaultBindAddress     = "localhost:8080"
	defaultShutdownTimeout = 10 * time.Second
	setupTimeout           = 1 * time.Minute
	defaultReaperLease     = 30 * time.Minute
	reaperLockName         = "merged-owner-reaper"
)

// Storage holds the Stores of the configured backend
type Storage struct {
	Backend   config.StorageBackend
	Notes     note.Store
	Owners    owner.Store
	Installer Installer
	Ping      func(ctx context.Context) error
	Close     func() error
	// Elects the process that runs the reaper
	ReaperLock leader.Lock
}

// NewStorage connects to the configured storage backend
func NewStorage(conf *config.App) (*Storage, error) {
	switch conf.Storage.Backend {
	case config.ElasticsearchBackend, "":
		esClient, err := common.NewClient(conf.Elasticsearch)
		if err != nil {
			return nil, err
		}
		templates := index.DefaultTemplateSetup(esClient)
		return &Storage{
			Backend:   config.ElasticsearchBackend,
			Notes:     esNote.NewService(esClient, conf.Sync),
			Owners:    esOwner.NewService(esClient),
			Installer: &templates,
			Ping: func(ctx context.Context) error {
				return common.Ping(ctx, esClient)
			},
			Close:      func() error { return nil },
			ReaperLock: esLeader.NewLock(esClient, reaperLockName, reaperLease(conf)),
		}, nil
	case config.SqliteBackend:
		db, err := sqlite.Open(conf.Sqlite)
		if err != nil {
			return nil, err
		}
		return &Storage{
			Backend:   config.SqliteBackend,
			Notes:     sqlite.NewNoteService(db),
			Owners:    sqlite.NewOwnerService(db),
			Installer: sqlite.NewSchema(db),
			Ping: func(ctx context.Context) error {
				return sqlite.Ping(ctx, db)
			},
			Close:      closeDb(db),
			ReaperLock: leader.Solo{},
		}, nil
	default:
		return nil, UnknownStorageBackend{Backend: conf.Storage.Backend}
	}
}

func reaperLease(conf *config.App) time.Duration {
	if conf.Accounts.ReaperLease > 0 {
		return conf.Accounts.ReaperLease
	}
	return defaultReaperLease
}

func closeDb(db *sql.DB) func() error {
	return func() error {
		return db.Close()
	}
}

// Services are the domain services built on top of a Storage
type Services struct {
	Merger   merge.Merger
	Accounts account.Service
}

func NewServices(conf *config.App, storage *Storage) Services {
	dispatcher := batch.NewDispatcher(&conf.Sync)
	engine := merge.NewEngine(storage.Notes, dispatcher)
	transferrer := transfer.NewTransferrer(storage.Notes, storage.Owners, dispatcher)
	manager := account.NewManager(storage.Owners, transferrer)
	return Services{
		Merger:   &engine,
		Accounts: &manager,
	}
}

// Components holds everything needed to run the server
type Components struct {
	storage         *Storage
	reaper          account.Reaper
	httpServer      *http.Server
	shutdownTimeout time.Duration
}

func NewComponents(conf *config.App) (*Components, error) {
	storage, err := NewStorage(conf)
	if err != nil {
		return nil, err
	}

	setupCtx, cancel := context.WithTimeout(context.Background(), setupTimeout)
	defer cancel()
	if err := NewSetup(storage.Installer).RunIfNeeded(setupCtx); err != nil {
		_ = storage.Close()
		return nil, err
	}

	services := NewServices(conf, storage)

	reaper, err := cronAccount.NewReaper(services.Accounts, storage.ReaperLock, apmTracing.NewTracer(), conf.Accounts.ReaperSchedule)
	if err != nil {
		_ = storage.Close()
		return nil, err
	}

	validation.SetUpValidators()
	ginEngine := NewGinEngine()

	healthHandler := health.RoutesHandler{Storage: string(storage.Backend), Ping: storage.Ping}
	healthHandler.RegisterRoutes(ginEngine)

	topLevelGroup := routing.NewTopLevelRoutesGroup(ginEngine)
	syncHandler := syncRoutes.RoutesHandler{
		Controller: syncController.New(services.Merger),
		Accounts:   services.Accounts,
	}
	syncHandler.RegisterRoutes(topLevelGroup)
	usersHandler := users.RoutesHandler{
		Controller: userController.New(services.Accounts),
		Accounts:   services.Accounts,
	}
	usersHandler.RegisterRoutes(topLevelGroup)

	bindAddress := conf.BindAddress
	if bindAddress == "" {
		bindAddress = defaultBindAddress
	}
	shutdownTimeout := conf.ShutdownTimeout
	if shutdownTimeout == 0 {
		shutdownTimeout = defaultShutdownTimeout
	}

	return &Components{
		storage: storage,
		reaper:  reaper,
		httpServer: &http.Server{
			Addr:    bindAddress,
			Handler: ginEngine,
		},
		shutdownTimeout: shutdownTimeout,
	}, nil
}

// NewGinEngine returns an engine with the middleware every route gets
func NewGinEngine() *gin.Engine {
	if !log.Debug().Enabled() {
		gin.SetMode(gin.ReleaseMode)
	}
	ginEngine := gin.New()
	ginEngine.HandleMethodNotAllowed = true
	ginEngine.Use(
		logger.SetLogger(logger.Config{
			Logger:   &log.Logger,
			UTC:      true,
			SkipPath: []string{"/health"},
		}),
		gin.Recovery(),
		apmgin.Middleware(ginEngine),
		gzip.Gzip(gzip.DefaultCompression),
	)
	ginEngine.NoRoute(routing.NoRoute)
	ginEngine.NoMethod(routing.NoMethod)
	return ginEngine
}

// Run starts the server and blocks until it receives SIGINT or SIGTERM, at which
// point it shuts down gracefully.
func (c *Components) Run() {
	c.reaper.Start()

	go func() {
		log.Info().Str("address", c.httpServer.Addr).Object("storage", c.storage).Msg("Starting server")
		if err := c.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	log.Info().Str("signal", sig.String()).Dur("timeout", c.shutdownTimeout).Msg("Shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), c.shutdownTimeout)
	defer cancel()
	if err := c.httpServer.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Server forced to shut down")
	}
	c.reaper.Stop()
	if err := c.storage.Close(); err != nil {
		log.Error().Err(err).Msg("Failed to close storage")
	}
	log.Info().Msg("Server exited")
}

type UnknownStorageBackend struct {
	Backend config.StorageBackend
}

func (e UnknownStorageBackend) Error() string {
	return fmt.Sprintf("Unknown storage backend [%s], expected one of [%s, %s]", e.Backend, config.ElasticsearchBackend, config.SqliteBackend)
}

var _ zerolog.LogObjectMarshaler = (*Storage)(nil)

func (s *Storage) MarshalZerologObject(e *zerolog.Event) {
	e.Str("backend", string(s.Backend))
}
