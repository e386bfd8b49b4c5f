package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/NAVEENKUMARKR777/UnicraftTech-Web-Scraping-Tool-Assignment/internal/config"
	"github.com/NAVEENKUMARKR777/UnicraftTech-Web-Scraping-Tool-Assignment/internal/discover"
	"github.com/NAVEENKUMARKR777/UnicraftTech-Web-Scraping-Tool-Assignment/internal/orchestrator"
	"github.com/NAVEENKUMARKR777/UnicraftTech-Web-Scraping-Tool-Assignment/internal/output"
	"github.com/NAVEENKUMARKR777/UnicraftTech-Web-Scraping-Tool-Assignment/internal/proxy"
	"github.com/NAVEENKUMARKR777/UnicraftTech-Web-Scraping-Tool-Assignment/internal/storage"
)

// Server holds the dependencies for the HTTP server.
type Server struct {
	config     *config.Config
	router     http.Handler
	httpServer *http.Server
	orch       *orchestrator.Orchestrator
	engine     *discover.Engine
	pool       *proxy.Pool
	writer     *output.Writer
	pgStore    *storage.PostgresStore
	redisStore *storage.RedisStore
	logger     *zap.Logger
}

// NewServer wires the HTTP surface. pgStore and redisStore may be nil when
// the corresponding backends are not configured.
func NewServer(cfg *config.Config, orch *orchestrator.Orchestrator, engine *discover.Engine,
	pool *proxy.Pool, writer *output.Writer, ps *storage.PostgresStore, rs *storage.RedisStore,
	l *zap.Logger) *Server {
	s := &Server{
		config:     cfg,
		orch:       orch,
		engine:     engine,
		pool:       pool,
		writer:     writer,
		pgStore:    ps,
		redisStore: rs,
		logger:     l,
	}
	s.router = s.setupRouter()
	return s
}

func (s *Server) Start() error {
	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%s", s.config.ServerPort),
		Handler:      s.router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Minute, // scrape batches run synchronously
	}
	return s.httpServer.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
