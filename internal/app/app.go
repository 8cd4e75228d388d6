package app

import (
	"context"
	"errors"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/Ayuga01/Quantara/internal/alerting"
	"github.com/Ayuga01/Quantara/internal/api"
	"github.com/Ayuga01/Quantara/internal/config"
	"github.com/Ayuga01/Quantara/internal/identity"
	"github.com/Ayuga01/Quantara/internal/pipeline"
	"github.com/Ayuga01/Quantara/internal/poller"
	"github.com/Ayuga01/Quantara/internal/pricing"
	"github.com/Ayuga01/Quantara/internal/service"
	"github.com/Ayuga01/Quantara/internal/storage"
)

// App aggregates configuration and shared dependencies for the CLI commands.
type App struct {
	Config *config.Config
	Logger zerolog.Logger

	ids    *identity.Manager
	client *api.Client
	oauth  *api.OAuthSession
}

// NewApp constructs a new application handle.
func NewApp(cfg *config.Config, logger zerolog.Logger) *App {
	a := &App{Config: cfg, Logger: logger.With().Str("component", "app").Logger()}

	a.ids = identity.NewManager(cfg.ResolveStateFile(), logger)
	a.client = api.NewClient(api.Options{
		BaseURL:         cfg.API.BaseURL,
		Timeout:         cfg.API.RequestTimeout,
		RequestsPerSec:  cfg.API.RequestsPerSec,
		RetryMaxElapsed: cfg.API.RetryMaxElapsed,
		UserAgent:       cfg.App.Name + "/1.0",
	}, a.ids, logger)
	a.oauth = api.NewOAuthSession(cfg.OAuth.BaseURL, cfg.OAuth.RequestTimeout, logger)

	return a
}

// formatter builds the shared display-price formatter from config.
func (a *App) formatter() pricing.Formatter {
	return pricing.NewFormatter(
		pricing.Currency(strings.ToUpper(a.Config.Display.Currency)),
		a.Config.Display.USDToINR,
	)
}

// resolveIdentity establishes the actor: OAuth session first, backend
// password session second, stored guest otherwise. Anonymous callers get
// a fresh guest identity so requests stay attributable.
func (a *App) resolveIdentity(ctx context.Context) identity.Identity {
	id := a.ids.Resolve(ctx, a.oauth, a.client)
	if id.Kind() == identity.Anonymous {
		id = a.ids.EnsureGuest()
	}
	return id
}

func (a *App) newPipeline() *pipeline.Pipeline {
	return pipeline.New(a.client, a.ids, a.Config.Predict.MaxSteps, a.Logger)
}

func (a *App) newNotifier() alerting.Notifier {
	if a.Config.Alerting.Telegram.Enabled {
		cfg := a.Config.Alerting.Telegram
		return alerting.NewTelegramNotifier(cfg.BotToken, cfg.ChatID, cfg.APIBase, 10*time.Second, a.Logger)
	}
	return nil
}

func (a *App) openStore(ctx context.Context) (*storage.Store, func(), error) {
	if a.Config.Database.DSN == "" {
		return nil, nil, nil
	}

	pool, err := storage.NewPool(ctx, a.Config.Database)
	if err != nil {
		return nil, nil, err
	}

	store := storage.NewStore(pool)
	closer := func() {
		store.Close()
	}
	return store, closer, nil
}

// Run executes the long-running live watch service.
func (a *App) Run(ctx context.Context) error {
	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	a.resolveIdentity(ctx)

	store, closeStore, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	if store == nil {
		a.Logger.Warn().Msg("database.dsn not configured; sample recording disabled")
	}
	if closeStore != nil {
		defer closeStore()
	}

	pol := poller.New(poller.Options{
		Interval:     a.Config.Poller.Interval,
		StartupDelay: a.Config.Poller.StartupDelay,
	}, a.client.CurrentPrices, a.Logger)

	notifier := a.newNotifier()

	var sampleStore storage.SampleStore
	var alertStore storage.AlertStore
	if store != nil {
		sampleStore = store
		alertStore = store
	}

	svc := service.New(a.Config, pol, a.client, sampleStore, alertStore, notifier, a.formatter(), a.Logger)

	a.Logger.Info().Msg("starting live watch service")
	err = svc.Run(ctx)
	if err != nil && !errors.Is(err, context.Canceled) {
		a.Logger.Error().Err(err).Msg("watch service terminated with error")
		return err
	}

	a.Logger.Info().Msg("watch service stopped")
	return nil
}

// PredictOptions hold parameters for the predict command.
type PredictOptions struct {
	Coin        string
	Horizon     string
	StepsAhead  int
	UseLiveData bool
}

// CompareOptions configure the compare command.
type CompareOptions struct {
	Coins []string
}

// SimulateOptions configure the investment simulator.
type SimulateOptions struct {
	Amount float64
	PredictOptions
}

// ExportOptions hold parameters for exporting recorded samples.
type ExportOptions struct {
	Coin      string
	From      *time.Time
	To        *time.Time
	PNGPath   string
	CSVPath   string
	MaxPoints int
}

// ShowOptions configure the show command.
type ShowOptions struct {
	Coin  string
	Limit int
}
