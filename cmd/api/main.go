package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jhoicas/goldshop-api/internal/application/dto"
	"github.com/jhoicas/goldshop-api/internal/application/usecase"
	infracache "github.com/jhoicas/goldshop-api/internal/infrastructure/cache"
	infrapdf "github.com/jhoicas/goldshop-api/internal/infrastructure/pdf"
	"github.com/jhoicas/goldshop-api/internal/infrastructure/postgres"
	httpRouter "github.com/jhoicas/goldshop-api/internal/interfaces/http"
	"github.com/jhoicas/goldshop-api/pkg/config"
	"github.com/jhoicas/goldshop-api/pkg/jwt"
	"github.com/jhoicas/goldshop-api/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: cfg.Log.Level,
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Msg("iniciando aplicación")

	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a PostgreSQL")
	}
	defer pool.Close()

	healthChecks := map[string]func(context.Context) error{
		"postgres": pool.Ping,
	}

	reportGen, err := infrapdf.NewCategoryReportGenerator(infrapdf.FontConfig{
		Regular: cfg.PDF.FontPath,
		Bold:    cfg.PDF.FontBoldPath,
	})
	if err != nil {
		log.Fatal().Err(err).Str("font", cfg.PDF.FontPath).Msg("fuentes del reporte PDF")
	}
	if cfg.PDF.FontPath == "" {
		log.Warn().Msg("PDF_FONT_PATH vacío: el reporte usa Helvetica y no muestra nombres en persa")
	}

	deps := usecase.CategoryDeps{
		Repo:     postgres.NewCategoryRepository(pool),
		Measures: postgres.NewCategoryMeasuresRepository(pool),
		Tx:       postgres.NewTxRunner(pool),
		Report:   reportGen,
		Log:      log,
	}

	// Redis es opcional: sin él no hay caché y el candado de reubicación es local al proceso.
	if cfg.Redis.Enabled() {
		rdb, err := infracache.NewClient(ctx, cfg.Redis)
		if err != nil {
			log.Fatal().Err(err).Str("addr", cfg.Redis.Addr).Msg("conexión a Redis")
		}
		defer rdb.Close()
		deps.Cache = infracache.NewCategoryCache(rdb, cfg.Redis.CategoryCacheTTL)
		deps.Guard = infracache.NewReparentLock(rdb, cfg.Redis.ReparentLockTTL)
		healthChecks["redis"] = func(ctx context.Context) error { return rdb.Ping(ctx).Err() }
	} else {
		log.Warn().Msg("REDIS_ADDR vacío: sin caché de categorías y candado de reubicación en memoria")
	}

	categoryUC := usecase.NewCategoryUseCase(deps)

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 10,
		IdleTimeout:  time.Second * 60,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code, msg := fiber.StatusInternalServerError, "error interno"
			var fe *fiber.Error
			if errors.As(err, &fe) {
				code, msg = fe.Code, fe.Message
			}
			if code >= fiber.StatusInternalServerError {
				log.Error().Err(err).Str("path", c.Path()).Msg("error no controlado")
			}
			return c.Status(code).JSON(dto.ErrorResponse{Code: "HTTP_ERROR", Message: msg})
		},
	})
	app.Use(recover.New())

	httpRouter.Router(app, httpRouter.RouterDeps{
		CategoryUC:   categoryUC,
		Verifier:     jwt.NewVerifier(cfg.JWT.Secret, cfg.JWT.Issuer),
		Log:          log,
		HealthChecks: healthChecks,
	})

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("señal de apagado recibida, cerrando servidor...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}

	log.Info().Msg("aplicación detenida")
}
