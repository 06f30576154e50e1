package main

import (
	"log"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-redisstream/pkg/redisstream"
	"github.com/redis/go-redis/v9"

	"github.com/layer-3/turnstile/adapters/events"
	"github.com/layer-3/turnstile/adapters/ledger"
	"github.com/layer-3/turnstile/adapters/replay"
	"github.com/layer-3/turnstile/adapters/tokenizer"
	"github.com/layer-3/turnstile/config"
	"github.com/layer-3/turnstile/ports"
	"github.com/layer-3/turnstile/service"
	"github.com/layer-3/turnstile/transport/http"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}
	if cfg.InsecureSecret {
		log.Println("WARNING: SESSION_SECRET is unset, using the insecure development default")
	}

	ethLedger, err := ledger.Dial(cfg.RPCURL, cfg.ChainID)
	if err != nil {
		log.Fatalf("Failed to connect to the ledger RPC: %v", err)
	}

	var (
		guard    ports.ReplayGuard
		eventPub ports.EventPublisher
	)

	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			log.Fatalf("Failed to parse Redis URL: %v", err)
		}
		redisClient := redis.NewClient(opts)
		guard = replay.NewRedisStore(redisClient)

		publisher, err := redisstream.NewPublisher(
			redisstream.PublisherConfig{Client: redisClient},
			watermill.NewStdLogger(false, false),
		)
		if err != nil {
			log.Fatalf("Failed to create Redis publisher: %v", err)
		}
		eventPub = events.NewWatermillPublisher(publisher)
	} else {
		store, err := replay.NewMemoryStore(cfg.SnapshotPath)
		if err != nil {
			log.Fatalf("Failed to open the replay snapshot: %v", err)
		}
		defer store.Close()
		guard = store
	}

	verifier := service.NewVerifierService(ethLedger, guard, cfg.LedgerTimeout)
	grantTokenizer := tokenizer.NewJWTTokenizer(cfg.SessionSecret)
	gate := service.NewGateService(verifier, grantTokenizer, eventPub, cfg.Requirement(), cfg.SessionTTL, cfg.SessionTier)

	router := http.SetupRouter(gate)

	log.Printf("Turnstile gateway listening on %s, receiver wallet %s", cfg.ListenAddr, cfg.Receiver.Hex())
	if err := router.Run(cfg.ListenAddr); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
