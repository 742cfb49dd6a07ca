package server

import (
	"context"
	stderrors "errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"schedule-agent/core/cache"
	"schedule-agent/core/config"
	"schedule-agent/core/constants"
	"schedule-agent/core/database"
	"schedule-agent/core/logger"
	"schedule-agent/core/middleware"
	"schedule-agent/core/queue"
	"schedule-agent/modules/agent"
	"schedule-agent/modules/calendar"
	"schedule-agent/modules/media"
	"schedule-agent/modules/notification"
	"schedule-agent/modules/schedule"
	scheduleDto "schedule-agent/modules/schedule/dto"
	scheduleService "schedule-agent/modules/schedule/service"

	"github.com/hibiken/asynq"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/pflag"
	"golang.org/x/crypto/acme/autocert"
)

// horizonCron runs the daily materialization shortly after midnight.
const horizonCron = "5 0 * * *"

type flags struct {
	configFile  string
	envFile     string
	migrateOnly bool
}

func parseFlags(args []string) (flags, error) {
	var f flags
	fs := pflag.NewFlagSet("schedule-agent", pflag.ContinueOnError)
	fs.StringVarP(&f.configFile, "config", "c", "", "path to a config file (yaml, json or toml)")
	fs.StringVar(&f.envFile, "env-file", ".env", "path to a dotenv file")
	fs.BoolVar(&f.migrateOnly, "migrate-only", false, "apply database migrations and exit")
	if err := fs.Parse(args); err != nil {
		return f, err
	}
	return f, nil
}

// App holds the long-lived dependencies of a running server.
type App struct {
	Echo   *echo.Echo
	Config *config.Config
	DB     database.Database
	Redis  *redis.Client
	Queue  *queue.Client
	Worker *queue.Worker

	Booking *scheduleService.BookingService
}

// Run parses flags, builds the app and serves until SIGINT or SIGTERM.
func Run() error {
	f, err := parseFlags(os.Args[1:])
	if err != nil {
		return err
	}

	cfg, err := config.Load(config.Options{ConfigFile: f.configFile, EnvFile: f.envFile})
	if err != nil {
		return err
	}
	logger.Init(cfg.Log.Level, os.Stdout)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := openDatabase(ctx, cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	if f.migrateOnly {
		logger.Info("Server:Run:MigrateOnly:Done")
		return nil
	}

	app, err := New(ctx, cfg, db)
	if err != nil {
		return err
	}
	defer app.Close()

	if _, err := app.Booking.EnsureHorizon(ctx, time.Now(), cfg.Schedule.HorizonDays); err != nil {
		logger.Warn("Server:Run:EnsureHorizon:Error", "error", err)
	}

	return app.Serve(ctx)
}

func openDatabase(ctx context.Context, cfg *config.Config) (database.Database, error) {
	db, err := database.InitDB(database.DatabaseConfig{
		Driver:          cfg.Database.Driver,
		DSN:             cfg.Database.DSN,
		Host:            cfg.Database.Host,
		Port:            cfg.Database.Port,
		User:            cfg.Database.User,
		Password:        cfg.Database.Password,
		DBName:          cfg.Database.DBName,
		SSLMode:         cfg.Database.SSLMode,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
	})
	if err != nil {
		return nil, err
	}
	if err := database.Migrate(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// New wires every module onto a fresh echo instance. Optional collaborators
// (redis, queue, calendar, email, storage, llm) are skipped when not configured.
func New(ctx context.Context, cfg *config.Config, db database.Database) (*App, error) {
	app := &App{Config: cfg, DB: db}

	var c cache.Cache = cache.NewMemoryCache()
	if cfg.Redis.Enabled {
		redisCache, client, err := cache.NewRedisCache(ctx, cache.RedisConfig{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			return nil, err
		}
		c = redisCache
		app.Redis = client
	}

	var enqueuer queue.Enqueuer
	if cfg.Queue.Enabled {
		redisOpt := asynq.RedisClientOpt{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB}
		app.Queue = queue.NewClient(redisOpt)
		app.Worker = queue.NewWorker(redisOpt, cfg.Queue.Concurrency)
		enqueuer = app.Queue
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	middleware.NewMiddleware(cfg.Server.BodyLimit).Apply(e)
	e.GET("/health", app.health)
	app.Echo = e

	api := e.Group("/api/v1")

	calendarService := calendar.Init(ctx, e, cfg, c)

	var notifier scheduleService.Notifier
	if svc := notification.Init(api, db, cfg, enqueuer); svc != nil {
		notifier = svc
		if app.Worker != nil {
			app.Worker.Handle(queue.TaskSendEmail, svc.HandleSendEmailTask)
		}
	}

	var mirror scheduleService.CalendarMirror
	if calendarService != nil {
		mirror = calendarService
	}
	services := schedule.Init(api, db, cfg, mirror, notifier)
	app.Booking = services.Booking

	agent.Init(ctx, api, cfg, services.View, services.Booking)
	media.Init(api, cfg)

	if app.Worker != nil {
		app.Worker.Handle(queue.TaskMaterializeHorizon, services.Booking.HandleMaterializeHorizonTask)
		payload := scheduleDto.MaterializeHorizonPayload{Days: cfg.Schedule.HorizonDays}
		if err := app.Worker.Every(horizonCron, queue.TaskMaterializeHorizon, payload); err != nil {
			return nil, fmt.Errorf("register horizon task: %w", err)
		}
	}

	return app, nil
}

// Serve starts the worker and the HTTP listener and blocks until ctx ends.
func (a *App) Serve(ctx context.Context) error {
	if a.Worker != nil {
		if err := a.Worker.Start(); err != nil {
			return err
		}
	}

	addr := net.JoinHostPort(a.Config.Server.Host, strconv.Itoa(a.Config.Server.Port))
	errCh := make(chan error, 1)
	go func() {
		errCh <- a.listen(addr)
	}()

	select {
	case err := <-errCh:
		if err != nil && !stderrors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("Server:Serve:ShuttingDown")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), constants.ShutdownTimeout)
	defer cancel()
	if err := a.Echo.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server:Serve:Shutdown:Error", "error", err)
		return err
	}
	return nil
}

func (a *App) listen(addr string) error {
	domains := a.Config.Server.AutoTLSDomains
	if len(domains) == 0 {
		logger.Info("Server:Listen", "addr", addr, "env", a.Config.Server.Env)
		return a.Echo.Start(addr)
	}

	a.Echo.AutoTLSManager.Prompt = autocert.AcceptTOS
	a.Echo.AutoTLSManager.HostPolicy = autocert.HostWhitelist(domains...)
	a.Echo.AutoTLSManager.Cache = autocert.DirCache(a.Config.Server.AutoTLSCache)

	// Port 80 answers ACME challenges and redirects everything else to HTTPS.
	go func() {
		redirect := &http.Server{
			Addr:              ":80",
			Handler:           a.Echo.AutoTLSManager.HTTPHandler(nil),
			ReadHeaderTimeout: 5 * time.Second,
		}
		if err := redirect.ListenAndServe(); err != nil {
			logger.Error("Server:Listen:Redirect:Error", "error", err)
		}
	}()

	logger.Info("Server:Listen:AutoTLS", "addr", ":443", "domains", domains)
	return a.Echo.StartAutoTLS(":443")
}

// Close releases queue and redis connections. The database is owned by the caller.
func (a *App) Close() {
	if a.Worker != nil {
		a.Worker.Shutdown()
	}
	if a.Queue != nil {
		_ = a.Queue.Close()
	}
	if a.Redis != nil {
		_ = a.Redis.Close()
	}
}
