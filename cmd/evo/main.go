// Evo continuously rewrites a small set of its own packages with an
// LLM, benchmarks each rewrite against the one it replaces, and keeps
// only the changes that measurably help.
package main

import (
	"context"
	"flag"
	"log"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/evoctl/evo/pkg/api"
	"github.com/evoctl/evo/pkg/applier"
	"github.com/evoctl/evo/pkg/config"
	"github.com/evoctl/evo/pkg/database"
	"github.com/evoctl/evo/pkg/evolvable"
	"github.com/evoctl/evo/pkg/evolvable/bench"
	"github.com/evoctl/evo/pkg/evolvable/budget"
	"github.com/evoctl/evo/pkg/evolvable/fitness"
	"github.com/evoctl/evo/pkg/evolvable/router"
	"github.com/evoctl/evo/pkg/events"
	"github.com/evoctl/evo/pkg/evolver"
	"github.com/evoctl/evo/pkg/guidelines"
	"github.com/evoctl/evo/pkg/historian"
	"github.com/evoctl/evo/pkg/notify"
	"github.com/evoctl/evo/pkg/proposer"
	"github.com/evoctl/evo/pkg/registry"
	"github.com/evoctl/evo/pkg/validator"
	"github.com/evoctl/evo/pkg/version"

	"github.com/gin-gonic/gin"
)

// selfImportPrefix is this module's import path for the evolvable
// packages the Evolver rewrites; threaded through to the Validator so
// Gate 2 can tell a target's own self-import apart from a banned one.
const selfImportPrefix = "github.com/evoctl/evo/pkg/evolvable"

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func main() {
	configDir := flag.String("config-dir",
		getEnv("CONFIG_DIR", "."),
		"Path to configuration directory (evo.yaml, .env)")
	moduleRoot := flag.String("module-root",
		getEnv("MODULE_ROOT", "."),
		"Path to the repository root containing pkg/evolvable and go.mod")
	flag.Parse()

	httpPort := getEnv("HTTP_PORT", "8080")
	gin.SetMode(getEnv("GIN_MODE", "release"))

	log.Printf("starting %s", version.Full())
	log.Printf("config dir: %s, module root: %s", *configDir, *moduleRoot)

	ctx := context.Background()

	cfg, err := config.Initialize(ctx, *configDir)
	if err != nil {
		log.Fatalf("failed to initialize configuration: %v", err)
	}

	root, err := filepath.Abs(*moduleRoot)
	if err != nil {
		log.Fatalf("failed to resolve module root: %v", err)
	}

	dbClient, err := database.NewClient(ctx, cfg.Database)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	defer dbClient.Close()
	log.Println("connected to PostgreSQL database")

	reg := registry.New(root)
	track := evolvable.NewRegistry()
	bencher := bench.New(reg, bench.DefaultBenchmarkNames())
	appl := applier.New(root, track)
	valid := validator.New(selfImportPrefix, root)
	hist := historian.New(dbClient, root)

	bud := budget.New(cfg.DailyBudget)
	bud.StartResetTicker(ctx)

	rt := router.New(cfg.CheapModelTag, cfg.CapableModelTag, cfg.EscalationThreshold)

	prop := proposer.New(bud, rt, proposer.Config{
		Endpoint:         cfg.LLMEndpoint,
		APIKey:           cfg.AnthropicAPIKey,
		MaxTokensPerCall: cfg.MaxTokensPerCall,
		ReceiveTimeout:   cfg.LLMReceiveTimeout,
	})

	var guide *guidelines.Service
	if cfg.Guidelines.Enabled {
		guide = guidelines.New(guidelines.Config{
			SourceURL: joinGuidelinesURL(cfg.Guidelines.RepoURL, cfg.Guidelines.Path),
			Token:     os.Getenv("EVO_GITHUB_TOKEN"),
			TTL:       cfg.Guidelines.CacheTTL,
		})
	}

	var notifier *notify.Service
	if cfg.Notify.Enabled {
		notifier = notify.New(notify.Config{WebhookURL: cfg.Notify.WebhookURL})
	}

	broker := events.NewBroker()

	ev := evolver.New(evolver.Deps{
		Registry:         reg,
		Bench:            bencher,
		Proposer:         prop,
		Validator:        valid,
		Applier:          appl,
		Historian:        hist,
		Router:           rt,
		Guidelines:       guide,
		Broker:           broker,
		SelfImportPrefix: selfImportPrefix,
		FitnessWeights: fitness.Weights{
			Time:   cfg.FitnessWeights.Time,
			Memory: cfg.FitnessWeights.Memory,
			Lines:  cfg.FitnessWeights.Lines,
		},
		FitnessThreshold: cfg.FitnessThreshold,
	}, cfg.Interval, cfg.AutoStart)

	if notifier != nil {
		go watchAndNotify(ctx, broker, dbClient, notifier)
	}

	server := api.NewServer(ev, bud, rt, dbClient, broker)

	r := gin.Default()
	server.Register(r)
	r.GET("/health", func(c *gin.Context) {
		reqCtx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		dbHealth, err := dbClient.Health(reqCtx)
		if err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unhealthy", "database": dbHealth, "error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "healthy", "database": dbHealth, "version": version.Full()})
	})

	log.Printf("HTTP server listening on :%s", httpPort)
	if err := r.Run(":" + httpPort); err != nil {
		log.Fatalf("failed to start server: %v", err)
	}
}

// joinGuidelinesURL combines a configured repo URL and file path into
// the single source URL pkg/guidelines expects. If path is empty,
// repoURL is assumed to already point at the file.
func joinGuidelinesURL(repoURL, path string) string {
	if path == "" {
		return repoURL
	}
	if len(repoURL) > 0 && repoURL[len(repoURL)-1] == '/' {
		return repoURL + path
	}
	return repoURL + "/" + path
}

// watchAndNotify long-polls the broker and forwards each event to the
// Slack notifier, running for the lifetime of the process. Decoupling
// notification from the cycle itself means a slow or unreachable
// webhook never adds latency to an evolution cycle.
func watchAndNotify(ctx context.Context, broker *events.Broker, db *database.Client, notifier *notify.Service) {
	var since int64
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		evts := broker.Wait(ctx, since, 30*time.Second)
		for _, evt := range evts {
			since = evt.Seq
			reasoning := ""
			if g, err := db.GetGeneration(ctx, evt.GenerationNumber); err == nil && g != nil {
				reasoning = g.Reasoning
			} else if err != nil {
				slog.Warn("watchAndNotify: fetching generation for notification failed", "generation", evt.GenerationNumber, "error", err)
			}
			notifier.NotifyGeneration(ctx, notify.GenerationSummary{
				GenerationNumber: evt.GenerationNumber,
				TargetName:       evt.TargetName,
				Status:           evt.Status,
				FitnessScore:     evt.Score,
				Reasoning:        reasoning,
			})
		}
	}
}
