package noted

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"

	"github.com/MrEthical07/noted/middleware"
	"github.com/MrEthical07/noted/notes"
	"github.com/MrEthical07/noted/router"
	"github.com/MrEthical07/noted/session"
	"github.com/redis/go-redis/v9"
)

// Builder assembles a [Client]. A builder is single-use.
type Builder struct {
	config    Config
	store     session.Store
	redis     redis.UniversalClient
	routes    *router.Table
	logger    *slog.Logger
	eventSink EventSink
	transport http.RoundTripper

	built bool
}

// New returns a builder holding DefaultConfig.
func New() *Builder {
	return &Builder{
		config: DefaultConfig(),
	}
}

// WithConfig sets the configuration. The default is [DefaultConfig].
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cfg
	return b
}

// WithStore sets the session store, overriding the configured backend.
func (b *Builder) WithStore(store session.Store) *Builder {
	b.store = store
	return b
}

// WithRedis sets the client used by the redis backend. The caller keeps ownership.
func (b *Builder) WithRedis(client redis.UniversalClient) *Builder {
	b.redis = client
	return b
}

// WithRoutes sets the route table, overriding Config.Routes.File.
func (b *Builder) WithRoutes(table *router.Table) *Builder {
	b.routes = table
	return b
}

// WithLogger sets the logger. Without one the client logs nothing.
func (b *Builder) WithLogger(logger *slog.Logger) *Builder {
	b.logger = logger
	return b
}

// WithEventSink sets where events go when Config.Events is enabled.
func (b *Builder) WithEventSink(sink EventSink) *Builder {
	b.eventSink = sink
	return b
}

// WithTransport sets the round tripper under the interceptor pipeline. The default
// is http.DefaultTransport.
func (b *Builder) WithTransport(rt http.RoundTripper) *Builder {
	b.transport = rt
	return b
}

// Build validates the configuration and route table and wires the client. Every
// configuration problem is returned here; a built client never fails on config.
func (b *Builder) Build() (*Client, error) {
	if b.built {
		return nil, ErrBuilderUsed
	}

	cfg := b.config
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger := b.logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	table, err := b.routeTable(cfg.Routes)
	if err != nil {
		return nil, err
	}

	store, ownedRedis, err := b.sessionStore(cfg.Session)
	if err != nil {
		return nil, err
	}
	b.built = true

	sessions := session.NewContext(store, logger)
	nav := router.NewNavigator(router.NewGuard(table, sessions), logger)

	c := &Client{
		config:   cfg,
		logger:   logger,
		sessions: sessions,
		routes:   table,
		nav:      nav,
		metrics:  NewMetrics(cfg.Metrics),
		events:   newEventQueue(cfg.Events, b.eventSink),
		redis:    ownedRedis,
	}
	nav.OnDecision(c.recordDecision)

	pipeline := &middleware.Pipeline{
		Requests: []middleware.RequestInterceptor{
			middleware.RequestID(),
			middleware.Bearer(sessions),
			c.countRequest,
		},
		Responses: []middleware.ResponseInterceptor{
			middleware.StatusCheck(),
			c.observeResponse,
			middleware.Unauthorized(sessionExpiry{c}, c),
			middleware.Logging(logger),
		},
		Base: b.transport,
	}
	c.http = pipeline.Client(cfg.API.Timeout)
	c.notes = notes.NewService(c.http, cfg.ResolvedBaseURL())

	logger.Debug("noted client ready",
		"base_url", c.notes.BaseURL(),
		"session_backend", describeStore(store),
		"routes", len(table.Routes()),
	)
	return c, nil
}

func (b *Builder) routeTable(cfg RoutesConfig) (*router.Table, error) {
	table := b.routes
	if table == nil {
		if cfg.File != "" {
			t, err := router.LoadTable(cfg.File)
			if err != nil {
				return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
			}
			table = t
		} else {
			table = router.DefaultTable()
		}
	}

	opts := table.Options()
	if cfg.Login == "" && cfg.Landing == "" {
		return table, nil
	}
	if cfg.Login != "" {
		opts.Login = cfg.Login
	}
	if cfg.Landing != "" {
		opts.Landing = cfg.Landing
	}
	t, err := router.NewTable(table.Routes(), opts)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return t, nil
}

// sessionStore returns the store and, when Build dialled redis itself, the client
// the Client must close.
func (b *Builder) sessionStore(cfg SessionConfig) (session.Store, redis.UniversalClient, error) {
	if b.store != nil {
		return b.store, nil, nil
	}

	switch cfg.Backend {
	case SessionFile:
		path := cfg.File
		if path == "" {
			p, err := DefaultSessionFile()
			if err != nil {
				return nil, nil, err
			}
			path = p
		}
		return session.NewFileStore(path), nil, nil
	case SessionRedis:
		if b.redis != nil {
			return session.NewRedisStore(b.redis, cfg.RedisPrefix), nil, nil
		}
		if cfg.RedisAddr == "" {
			return nil, nil, ErrRedisRequired
		}
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		return session.NewRedisStore(rdb, cfg.RedisPrefix), rdb, nil
	default:
		return session.NewMemoryStore(), nil, nil
	}
}

// DefaultSessionFile returns ~/.noted/session.json.
func DefaultSessionFile() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("finding home directory: %w", err)
	}
	return filepath.Join(home, ".noted", "session.json"), nil
}

func describeStore(s session.Store) string {
	switch st := s.(type) {
	case *session.MemoryStore:
		return "memory"
	case *session.FileStore:
		return "file:" + st.Path()
	case *session.RedisStore:
		return "redis"
	default:
		return fmt.Sprintf("%T", s)
	}
}
