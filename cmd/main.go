package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/deshiwear/storefront/internal/app"
	"github.com/deshiwear/storefront/internal/config"
	"github.com/deshiwear/storefront/internal/events"
	"github.com/deshiwear/storefront/internal/gateway"
	"github.com/deshiwear/storefront/internal/handler"
	"github.com/deshiwear/storefront/internal/middleware"
	"github.com/deshiwear/storefront/internal/postgres"
	"github.com/deshiwear/storefront/internal/repo"
	"github.com/deshiwear/storefront/internal/service"
	"github.com/deshiwear/storefront/pkg/trm"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
)

func main() {
	conf := config.New()
	logger := newLogger(conf.Env)
	panicIfErr("invalid config", conf.Validate())

	db, err := postgres.New(conf.Postgres)
	panicIfErr("failed to connect to db", err)
	defer db.Close()
	logger.Info("postgres connected")

	productRepo := repo.NewProductRepo(db)
	orderRepo := repo.NewOrderRepo(db)
	txManager := trm.NewManager(db)

	bkashTokens := gateway.NewMemoryTokenStore()
	if conf.Redis.Addr != "" {
		client := redis.NewClient(&redis.Options{Addr: conf.Redis.Addr})
		bkashTokens = gateway.NewRedisTokenStore(client, "gateway:bkash:token")
		logger.Info("redis token store enabled", slog.String("addr", conf.Redis.Addr))
	}

	bkash := gateway.NewBkashClient(logger, conf.Bkash, bkashTokens)
	nagad := gateway.NewNagadClient(logger, conf.Nagad)

	publisher := events.NewPublisher(logger, conf.Kafka)

	catalogService := service.NewCatalogService(logger, txManager, productRepo)
	orderService := service.NewOrderService(logger, txManager, orderRepo, productRepo, publisher, conf.Shipping)
	paymentService := service.NewPaymentService(logger, orderService, bkash, nagad, conf.FrontendURL)

	auth := middleware.Auth(conf.JWT.Secret)

	application := app.New(logger, conf)
	application.SetHttpHandlers(
		handler.NewProductHandler(logger, catalogService, auth),
		handler.NewOrderHandler(logger, orderService, auth),
		handler.NewPaymentHandler(logger, paymentService, auth,
			conf.Bkash.WebhookSecret, conf.Nagad.WebhookSecret),
	)
	application.AddClosers(publisher)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	application.Start()
	<-ctx.Done()
	application.Stop()
}

func init() {
	godotenv.Load()
}

func newLogger(env string) *slog.Logger {
	switch env {
	case "production":
		return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	default:
		return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}
}

func panicIfErr(prefix string, err error) {
	if err != nil {
		panic(prefix + ": " + err.Error())
	}
}
