package bootstrap

import (
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"

	"github.com/wolfman30/ayurdiet-portal/internal/apiclient"
	"github.com/wolfman30/ayurdiet-portal/internal/appointment"
	"github.com/wolfman30/ayurdiet-portal/internal/calendar"
	"github.com/wolfman30/ayurdiet-portal/internal/catalog"
	appconfig "github.com/wolfman30/ayurdiet-portal/internal/config"
	"github.com/wolfman30/ayurdiet-portal/internal/observability/metrics"
	"github.com/wolfman30/ayurdiet-portal/internal/sequencer"
	"github.com/wolfman30/ayurdiet-portal/internal/session"
	"github.com/wolfman30/ayurdiet-portal/internal/wizard"
	"github.com/wolfman30/ayurdiet-portal/pkg/logging"
)

// Portal bundles the services every route handler is built from.
type Portal struct {
	API          *apiclient.Client
	Sessions     *session.Store
	Appointments *appointment.Service
	Calendar     *calendar.Service
	Catalog      *catalog.Service
	Board        *catalog.PlanBoard
	Wizard       *wizard.Service
	WizardStore  string
}

// BuildPortal wires the API client and domain services from config. A nil
// redisClient selects the in-memory wizard store.
func BuildPortal(cfg *appconfig.Config, redisClient *redis.Client, upstream *metrics.UpstreamMetrics, portal *metrics.PortalMetrics, logger *logging.Logger) (*Portal, error) {
	if cfg == nil {
		return nil, fmt.Errorf("bootstrap: config is required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	loc := cfg.Location()

	client := apiclient.New(apiclient.Options{
		BaseURL: cfg.APIBaseURL,
		Timeout: cfg.APITimeout,
		Metrics: upstream,
	}, logger)

	locks := sequencer.NewKeyed()
	store, kind := BuildWizardStore(cfg, redisClient)
	var pacer wizard.Pacer = wizard.NoPace
	if cfg.WizardPace > 0 {
		pacer = wizard.Delay(cfg.WizardPace)
	}

	cal := calendar.NewService(client, logger, calendar.Options{
		Location: loc,
		Interval: cfg.SlotInterval,
	})

	p := &Portal{
		API: client,
		Sessions: session.NewStore(session.Options{
			TTL:    cfg.SessionTTL,
			Secure: cfg.CookieSecure,
			Domain: cfg.CookieDomain,
			Secret: cfg.SessionSecret,
		}),
		Appointments: appointment.NewService(client, logger, appointment.ServiceOptions{
			Location:   loc,
			SlotLength: cfg.SlotInterval,
			Locks:      locks,
			Metrics:    portal,
			Schedule:   cal,
		}),
		Calendar:    cal,
		Catalog:     catalog.NewService(client, logger, loc),
		Board:       catalog.NewPlanBoard(client, locks, logger, portal),
		Wizard:      wizard.NewService(store, client, logger, wizard.Options{Pacer: pacer, Metrics: portal}),
		WizardStore: kind,
	}
	logger.Info("portal services ready", "api_base_url", cfg.APIBaseURL, "wizard_store", kind, "timezone", loc.String())
	return p, nil
}

// BuildWizardStore returns the Redis-backed store when a client is available
// and the in-memory store otherwise, along with a label for logs.
func BuildWizardStore(cfg *appconfig.Config, redisClient *redis.Client) (wizard.Store, string) {
	ttl := cfg.WizardTTL
	if redisClient != nil {
		return wizard.NewRedisStore(redisClient, ttl, otel.Tracer("ayurdiet.internal.wizard")), "redis"
	}
	return wizard.NewMemoryStore(ttl), "memory"
}
