package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Domenick1991/bnbchat/api"
	"github.com/Domenick1991/bnbchat/config"
	"github.com/Domenick1991/bnbchat/internal/bootstrap"
	"github.com/Domenick1991/bnbchat/internal/cache"
	"github.com/Domenick1991/bnbchat/internal/kafka"
	"github.com/Domenick1991/bnbchat/internal/logger"
	"github.com/Domenick1991/bnbchat/internal/repository"
	"github.com/Domenick1991/bnbchat/internal/service/booking"
	"github.com/Domenick1991/bnbchat/internal/service/chat"
	"github.com/Domenick1991/bnbchat/internal/service/pricing"
	"github.com/Domenick1991/bnbchat/internal/session"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

func main() {
	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "config.yaml"
	}

	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	zlog, err := logger.New(cfg.Log)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer zlog.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var bookingRepo repository.BookingRepository
	switch cfg.Database.Driver {
	case config.DatabaseDriverMemory:
		zlog.Warn("using in-memory booking store, bookings are lost on restart")
		bookingRepo = repository.NewMemoryBookingRepository()
	default:
		pool, err := pgxpool.New(ctx, cfg.Database.DSN())
		if err != nil {
			zlog.Fatal("connect postgres", zap.Error(err))
		}
		defer pool.Close()

		pgRepo := repository.NewBookingRepository(pool)
		if err := pgRepo.EnsureSchema(ctx); err != nil {
			zlog.Fatal("prepare schema", zap.Error(err))
		}
		bookingRepo = pgRepo
	}

	var producer booking.Producer
	if len(cfg.Kafka.Brokers) > 0 {
		kp := kafka.NewProducer(cfg.Kafka.Brokers, zlog)
		defer kp.Close()

		checkCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
		if err := kp.CheckConnection(checkCtx); err != nil {
			zlog.Warn("kafka brokers unreachable, booking events may be lost",
				zap.Strings("brokers", cfg.Kafka.Brokers),
				zap.Error(err),
			)
		}
		cancel()
		producer = kp
	}

	var sessions chat.SessionStore
	switch cfg.Session.Backend {
	case config.SessionBackendRedis:
		// The lock outlives a full completion call so a slow turn keeps ownership.
		redisStore := cache.NewRedisSessionStore(cfg.Redis, cfg.Session.TTL(), cfg.Chat.CompletionTimeout()+10*time.Second)
		if err := redisStore.Ping(ctx); err != nil {
			zlog.Fatal("connect redis", zap.Error(err))
		}
		defer redisStore.Close()
		sessions = redisStore
	default:
		memStore := session.NewMemoryStore(cfg.Session.TTL())
		go sweepSessions(ctx, memStore, cfg.Session.SweepInterval(), zlog)
		sessions = memStore
	}

	calculator := pricing.NewCalculator(cfg.Booking.NightlyRate)
	bookingService := booking.NewBookingService(
		bookingRepo,
		producer,
		cfg.Kafka.BookingTopic,
		booking.WithNotificationsTopic(cfg.Kafka.NotificationsTopic),
		booking.WithLogger(zlog),
	)

	engine, err := chat.NewEngine(cfg.Chat, sessions, bookingService, calculator, zlog)
	if err != nil {
		zlog.Fatal("init dialogue engine", zap.Error(err))
	}
	zlog.Info("dialogue engine ready", zap.Bool("dev_mode", cfg.Chat.DevMode))

	if err := bootstrap.Run(ctx, cfg, zlog,
		api.NewChatHandler(engine, zlog),
		api.NewBookingHandler(bookingService, calculator),
	); err != nil {
		zlog.Fatal("server error", zap.Error(err))
	}
}

func sweepSessions(ctx context.Context, store *session.MemoryStore, every time.Duration, zlog *zap.Logger) {
	if every <= 0 {
		return
	}
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if n := store.Sweep(); n > 0 {
				zlog.Info("evicted idle sessions", zap.Int("count", n))
			}
		case <-ctx.Done():
			return
		}
	}
}
