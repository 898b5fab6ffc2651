package main

import (
	"context"
	"net/http"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/KavishaPerera/Wash-TUB-sub000/internal/auth"
	"github.com/KavishaPerera/Wash-TUB-sub000/internal/catalog"
	"github.com/KavishaPerera/Wash-TUB-sub000/internal/config"
	"github.com/KavishaPerera/Wash-TUB-sub000/internal/httpx"
	"github.com/KavishaPerera/Wash-TUB-sub000/internal/migrate"
	"github.com/KavishaPerera/Wash-TUB-sub000/internal/order"
)

func main() {
	log := zerolog.New(os.Stdout).With().Timestamp().Str("service", "laundry-service").Logger()
	cfg := config.Load()
	ctx := context.Background()

	pool, err := pgxpool.New(ctx, cfg.PostgresDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("postgres connection failed")
	}
	defer pool.Close()

	if err := migrate.Run(ctx, pool); err != nil {
		log.Fatal().Err(err).Msg("schema migration failed")
	}

	var rdb *redis.Client
	if cfg.RedisAddr != "" {
		rdb = redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	}

	var events order.EventPublisher
	if len(cfg.KafkaBrokers) > 0 {
		kp := order.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic)
		defer kp.Close()
		events = kp
	}

	fee, err := decimal.NewFromString(cfg.DeliveryFee)
	if err != nil {
		log.Fatal().Err(err).Str("delivery_fee", cfg.DeliveryFee).Msg("invalid delivery fee")
	}

	mgr := catalog.NewManager(catalog.NewPGRepo(pool), rdb)
	svc := order.NewService(order.NewPGRepo(pool), mgr, events, order.Options{
		DeliveryFee:       fee,
		TrustItemSubtotal: cfg.TrustItemSubtotal,
		StrictTransitions: cfg.StrictTransitions,
	})

	r := gin.New()
	r.Use(gin.Recovery(), httpx.RequestID(), httpx.Logger(log))

	r.GET("/healthz", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})
	r.GET("/services", listServicesHandler(mgr))

	authed := r.Group("", auth.Middleware([]byte(cfg.JWTSecret)))
	{
		authed.POST("/orders", placeOrderHandler(svc))
		authed.GET("/orders", listOrdersHandler(svc))
		authed.GET("/orders/mine", listMyOrdersHandler(svc))
		authed.GET("/orders/stats", orderStatsHandler(svc))
		authed.GET("/orders/number/:number", getOrderByNumberHandler(svc))
		authed.GET("/orders/:id", getOrderHandler(svc))
		authed.PUT("/orders/:id/status", updateOrderStatusHandler(svc))

		authed.POST("/services", createServiceHandler(mgr))
		authed.PUT("/services/:id", updateServiceHandler(mgr))
		authed.PUT("/services/:id/active", setServiceActiveHandler(mgr))
		authed.DELETE("/services/:id", deleteServiceHandler(mgr))
		authed.GET("/services/:id/price-history", priceHistoryHandler(mgr))
	}

	log.Info().Str("addr", cfg.HTTPAddr).Msg("listening")
	if err := r.Run(cfg.HTTPAddr); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
}
