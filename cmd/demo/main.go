package main

import (
	"flag"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/yourusername/lockfence/lock"
	"github.com/yourusername/lockfence/metrics"
	"github.com/yourusername/lockfence/middleware"
	"github.com/yourusername/lockfence/pkg/lockfence"
	"github.com/yourusername/lockfence/store"
)

func main() {
	// Command-line flags
	port := flag.String("port", "8080", "Port to run the server on")
	configFile := flag.String("config", "cmd/demo/config.yaml", "Path to configuration file")
	redisAddr := flag.String("redis", "", "Redis address for distributed mode (empty = in-process)")
	flag.Parse()

	printBanner()

	log.Println("Loading configuration from:", *configFile)
	fileConfig, err := lockfence.LoadConfigFromFile(*configFile)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	tracker := metrics.New()
	opts := []lockfence.Option{
		lockfence.WithMetrics(tracker),
	}

	// Distributed mode: budgets shared with every other process
	// pointed at the same Redis.
	if *redisAddr != "" {
		log.Println("Distributed mode, Redis at", *redisAddr)
		opts = append(opts,
			lockfence.WithStore(store.NewRedisStore(store.RedisConfig{Addr: *redisAddr})),
			lockfence.WithLocker(lock.NewRedisLocker(lock.RedisLockerConfig{Addr: *redisAddr})),
		)
	} else {
		log.Println("In-process mode (pass -redis to share budgets across processes)")
	}

	manager, err := lockfence.NewManager(fileConfig, opts...)
	if err != nil {
		log.Fatalf("Failed to create limiter manager: %v", err)
	}

	rateLimiter, err := middleware.NewRateLimiter(middleware.Config{
		Manager:    manager,
		LocalRPS:   100,
		LocalBurst: 200,
	})
	if err != nil {
		log.Fatalf("Failed to create middleware: %v", err)
	}

	log.Println("Rate limiter initialized successfully")

	mux := http.NewServeMux()

	// Health check endpoint (no rate limiting)
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprintln(w, "ok")
	})

	// Metrics endpoint (no rate limiting)
	mux.Handle("/metrics", tracker.Handler())

	// API endpoints with rate limiting
	mux.Handle("/api/search", rateLimiter.Middleware(http.HandlerFunc(searchHandler)))
	mux.Handle("/api/create", rateLimiter.Middleware(http.HandlerFunc(createHandler)))

	// Root endpoint
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}

		w.Header().Set("Content-Type", "text/plain")
		fmt.Fprintf(w, `lockfence Demo Server

Available endpoints:
  GET /health      - Health check (not rate limited)
  GET /metrics     - Limiter metrics snapshot (not rate limited)
  GET /api/search  - Rate limited per client
  POST /api/create - Rate limited per client

Hammer an endpoint to see 429s:
  for i in $(seq 1 20); do curl -s -o /dev/null -w "%%{http_code}\n" localhost:%s/api/search; done
`, *port)
	})

	addr := ":" + *port
	log.Println("Listening on", addr)
	if err := http.ListenAndServe(addr, mux); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}

func searchHandler(w http.ResponseWriter, r *http.Request) {
	// Pretend to do some work
	time.Sleep(5 * time.Millisecond)
	w.Header().Set("Content-Type", "application/json")
	fmt.Fprintln(w, `{"results": ["alpha", "beta", "gamma"]}`)
}

func createHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	w.WriteHeader(http.StatusCreated)
	fmt.Fprintln(w, `{"status": "created"}`)
}

func printBanner() {
	fmt.Print(`
 _            _     __
| | ___   ___| | __/ _| ___ _ __   ___ ___
| |/ _ \ / __| |/ / |_ / _ \ '_ \ / __/ _ \
| | (_) | (__|   <|  _|  __/ | | | (_|  __/
|_|\___/ \___|_|\_\_|  \___|_| |_|\___\___|

Distributed, lock-guarded rate limiting demo

`)
}
