package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/jhoicas/logistica-api/docs"
	"github.com/jhoicas/logistica-api/internal/application/auth"
	"github.com/jhoicas/logistica-api/internal/application/comment"
	"github.com/jhoicas/logistica-api/internal/application/dto"
	"github.com/jhoicas/logistica-api/internal/application/invoice"
	"github.com/jhoicas/logistica-api/internal/application/notification"
	"github.com/jhoicas/logistica-api/internal/application/stock"
	"github.com/jhoicas/logistica-api/internal/domain"
	"github.com/jhoicas/logistica-api/internal/domain/entity"
	"github.com/jhoicas/logistica-api/internal/domain/repository"
	"github.com/jhoicas/logistica-api/internal/infrastructure/memory"
	"github.com/jhoicas/logistica-api/internal/infrastructure/postgres"
	"github.com/jhoicas/logistica-api/internal/infrastructure/realtime"
	httpRouter "github.com/jhoicas/logistica-api/internal/interfaces/http"
	"github.com/jhoicas/logistica-api/pkg/config"
	"github.com/jhoicas/logistica-api/pkg/logger"
	"golang.org/x/sync/errgroup"
)

// @title                       Logística API
// @version                     1.0
// @description                 Facturas de entrega con reserva de stock, bitácora, comentarios y notificaciones en tiempo real.
// @BasePath                    /
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:     cfg.App.Env,
		Level:   cfg.Log.Level,
		Service: cfg.App.Name,
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Str("store", cfg.DB.Driver).
		Msg("iniciando aplicación")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, closeStore, err := openStore(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("abrir almacenamiento")
	}
	defer closeStore()

	authUC := auth.NewAuthUseCase(store.Repos().Users, auth.JWTConfig{
		Secret:     cfg.JWT.Secret,
		ExpMinutes: cfg.JWT.Expiration,
		Issuer:     cfg.JWT.Issuer,
	})
	if err := seedAdmin(ctx, authUC, cfg.Seed); err != nil {
		log.Fatal().Err(err).Msg("crear administrador inicial")
	}

	hub := realtime.NewHub(log)
	dispatcher := notification.NewDispatcher(store, hub, log)
	worker := notification.NewOutboxWorker(store, dispatcher, notification.WorkerConfig{
		WorkerID:    cfg.Outbox.WorkerID,
		BatchSize:   cfg.Outbox.BatchSize,
		Interval:    cfg.Outbox.Interval,
		LockTTL:     cfg.Outbox.LockTTL,
		MaxAttempts: cfg.Outbox.MaxAttempts,
		BaseBackoff: cfg.Outbox.BaseBackoff,
		MaxBackoff:  cfg.Outbox.MaxBackoff,
	}, log)
	engine := stock.NewEngine(store, cfg.Stock.DefaultLocation)

	app := httpRouter.NewServer(httpRouter.RouterDeps{
		AppName:   cfg.App.Name,
		AuthUC:    authUC,
		Invoices:  invoice.NewService(store, engine, worker, log),
		Comments:  comment.NewService(store, worker, log),
		Feed:      notification.NewFeedService(store),
		Stock:     engine,
		Hub:       hub,
		JWTSecret: cfg.JWT.Secret,
		Log:       log,
		Docs:      docsHandler(cfg.Docs.FilePath, log),
	})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return worker.Run(gctx)
	})
	g.Go(func() error {
		log.Info().Str("addr", cfg.HTTP.Addr()).Msg("servidor HTTP escuchando")
		return app.Listen(cfg.HTTP.Addr())
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("señal de apagado recibida, cerrando servidor...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
		defer cancel()
		return app.ShutdownWithContext(shutdownCtx)
	})
	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		log.Error().Err(err).Msg("apagado con error")
	}
	log.Info().Msg("aplicación detenida")
}

// openStore abre el Ledger Store según STORE_DRIVER. Con postgres aplica migraciones si DB_MIGRATE.
func openStore(ctx context.Context, cfg *config.Config, log *logger.Logger) (repository.Store, func(), error) {
	if cfg.DB.Driver == config.StoreDriverMemory {
		log.Warn().Msg("store en memoria: los datos se pierden al reiniciar")
		return memory.NewStore(), func() {}, nil
	}
	if cfg.DB.Migrate {
		if err := postgres.Migrate(cfg.DB.ConnectionString()); err != nil {
			return nil, nil, err
		}
		log.Info().Msg("migraciones aplicadas")
	}
	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		return nil, nil, err
	}
	return postgres.NewTxRunner(pool), pool.Close, nil
}

// seedAdmin crea el administrador inicial si se configuró y aún no existe.
func seedAdmin(ctx context.Context, uc *auth.AuthUseCase, seed config.SeedConfig) error {
	if seed.AdminEmail == "" || seed.AdminPassword == "" {
		return nil
	}
	system := entity.Actor{UserID: "system", Role: entity.RoleAdmin}
	_, err := uc.RegisterUser(ctx, system, dto.RegisterRequest{
		Email:    seed.AdminEmail,
		Password: seed.AdminPassword,
		Name:     "Administrador",
		Role:     entity.RoleAdmin,
	})
	if errors.Is(err, domain.ErrDuplicate) {
		return nil
	}
	return err
}

// docsHandler sirve Swagger UI en /docs si existe el swagger.json generado por swag.
func docsHandler(filePath string, log *logger.Logger) fiber.Handler {
	if _, err := os.Stat(filePath); err != nil {
		log.Warn().Str("file", filePath).Msg("swagger.json no encontrado; /docs deshabilitado")
		return nil
	}
	return swagger.New(swagger.Config{
		BasePath: "/",
		FilePath: filePath,
		Path:     "docs",
		Title:    docs.SwaggerInfo.Title,
	})
}
