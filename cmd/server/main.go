package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"golang.org/x/sync/errgroup"

	"github.com/lord-william/lalalika-logistics/internal/audit"
	"github.com/lord-william/lalalika-logistics/internal/backend"
	"github.com/lord-william/lalalika-logistics/internal/backend/memory"
	"github.com/lord-william/lalalika-logistics/internal/backend/redisdb"
	"github.com/lord-william/lalalika-logistics/internal/driver"
	httpapi "github.com/lord-william/lalalika-logistics/internal/http"
	jwttoken "github.com/lord-william/lalalika-logistics/internal/jwt_token"
	"github.com/lord-william/lalalika-logistics/internal/kiosk"
	"github.com/lord-william/lalalika-logistics/internal/platform/config"
	"github.com/lord-william/lalalika-logistics/internal/platform/httpserver"
	"github.com/lord-william/lalalika-logistics/internal/platform/logger"
	"github.com/lord-william/lalalika-logistics/internal/platform/metrics"
	platformredis "github.com/lord-william/lalalika-logistics/internal/platform/redis"
	"github.com/lord-william/lalalika-logistics/internal/session"
	"github.com/lord-william/lalalika-logistics/internal/track"
)

// main wires the backend client, the flow services, and the HTTP surface,
// then runs the server until interrupted. Business logic lives in the
// internal services packages.
func main() {
	cfg := config.FromEnv()
	log := logger.New()

	if err := run(cfg, log); err != nil {
		log.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run(cfg config.Server, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := metrics.New()

	// Auth stays in-memory in both modes; the data plane switches to Redis
	// when configured. Credentials are seeded from config at boot.
	auth := memory.NewAuth()
	client := &backend.Client{Auth: auth}

	var health func(ctx context.Context) error
	if cfg.RedisURL != "" {
		rc, err := platformredis.New(cfg.RedisURL)
		if err != nil {
			return err
		}
		defer rc.Close()
		client.DB = redisdb.NewDatabase(rc.Client)
		client.Blobs = redisdb.NewBlobStore(rc.Client, cfg.BlobBaseURL)
		health = rc.Health
		log.Info("using redis backend")
	} else {
		mem := memory.NewClient()
		client.DB = mem.DB
		client.Blobs = mem.Blobs
		log.Info("using in-memory backend")
	}

	if err := seedDriverAccounts(ctx, client, auth, cfg.DriverAccounts); err != nil {
		return err
	}

	g, ctx := errgroup.WithContext(ctx)

	activityStore := audit.Store(audit.NewDatabaseStore(client.DB))
	if cfg.PostgresDSN != "" {
		db, err := sql.Open("postgres", cfg.PostgresDSN)
		if err != nil {
			return err
		}
		defer db.Close()
		if err := db.PingContext(ctx); err != nil {
			return err
		}

		inbox := make(chan audit.Entry, 256)
		activityStore = audit.MultiStore{activityStore, audit.NewChannelStore(inbox)}
		worker := audit.NewWorker(audit.NewPostgresStore(db), inbox, log)
		g.Go(func() error {
			if err := worker.Run(ctx); !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		})
		log.Info("activity log mirrored to postgres")
	}
	activity := audit.NewPublisher(activityStore, log)

	tokens := jwttoken.NewJWTService(cfg.JWTSigningKey, "lalalika-logistics", "lalalika-drivers")
	flows := driver.NewFlows(client, driver.NewProjector(client.DB, nil), activity, m, log)

	router := httpapi.NewRouter(httpapi.Deps{
		Kiosk:     kiosk.NewService(client, kiosk.NewGenerator(client.DB), activity, m, log),
		Track:     track.NewService(client.DB, m, log),
		Gate:      session.NewGate(client, session.RoleDriver, log),
		Tokens:    tokens,
		Driver:    driver.NewService(driver.NewQueries(client.DB), flows),
		Validator: jwttoken.NewJWTServiceAdapter(tokens),
		Logger:    log,
		Health:    health,
	})

	srv := httpserver.New(cfg.Addr, router)

	g.Go(func() error {
		log.Info("starting server", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

// seedDriverAccounts registers email:password:uid triples and makes sure a
// minimal profile exists for each uid so a seeded driver can log in before
// dispatch has filled in the rest.
func seedDriverAccounts(ctx context.Context, client *backend.Client, auth *memory.Auth, accounts string) error {
	if accounts == "" {
		return nil
	}
	for _, triple := range strings.Split(accounts, ",") {
		parts := strings.SplitN(strings.TrimSpace(triple), ":", 3)
		if len(parts) != 3 {
			return errors.New("driver accounts must be email:password:uid triples")
		}
		email, password, uid := parts[0], parts[1], parts[2]
		auth.RegisterAccount(email, password, uid)

		if _, err := client.DB.Get(ctx, "users/"+uid); err == nil {
			continue
		}
		err := client.DB.Set(ctx, "users/"+uid, backend.Record{
			"email":  email,
			"role":   session.RoleDriver,
			"status": "approved",
		})
		if err != nil {
			return err
		}
	}
	return nil
}
