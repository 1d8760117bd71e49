// Package server wires the configuration, storage, ledger service, and
// RPC surfaces into one runnable daemon.
package server

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/openxm/marketd/internal/config"
	"github.com/openxm/marketd/internal/core/ledger/genesis"
	"github.com/openxm/marketd/internal/core/ledger/manager"
	"github.com/openxm/marketd/internal/core/ledger/service"
	"github.com/openxm/marketd/internal/rpc"
	"github.com/openxm/marketd/internal/storage/keyvalue"
	"github.com/openxm/marketd/internal/storage/relationaldb"
	"github.com/openxm/marketd/internal/storage/relationaldb/sqlite"
)

// Server owns every component of a running marketd node.
type Server struct {
	cfg     *config.Config
	store   keyvalue.Store
	history relationaldb.Database
	manager *manager.Manager
	service *service.Service

	httpServer *http.Server
	wsServer   *rpc.WebSocketServer
	wsHTTP     *http.Server
}

// New builds a server from the configuration. Nothing listens until
// Run is called.
func New(cfg *config.Config) (*Server, error) {
	store, err := openStore(cfg)
	if err != nil {
		return nil, err
	}

	mgr, err := manager.New(store, manager.Config{
		MaxRecentLedgers: cfg.Database.CacheSize,
		Compressor:       cfg.Database.Compressor,
	})
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("failed to create ledger manager: %w", err)
	}

	var history relationaldb.Database
	if cfg.Database.History {
		history = sqlite.NewDatabase(historyPath(cfg))
	}

	genesisCfg, err := loadGenesis(cfg)
	if err != nil {
		store.Close()
		return nil, err
	}

	svc, err := service.New(service.Config{
		Standalone: cfg.Ledger.Standalone,
		BaseFee:    cfg.Ledger.BaseFee,
		Genesis:    genesisCfg,
		Manager:    mgr,
		History:    history,
	})
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("failed to create ledger service: %w", err)
	}

	s := &Server{
		cfg:     cfg,
		store:   store,
		history: history,
		manager: mgr,
		service: svc,
	}

	rpcServer := rpc.NewServer(svc, cfg.Server.RequestTimeout)
	mux := http.NewServeMux()
	mux.Handle("/", rpcServer)
	mux.HandleFunc("/health", handleHealth)
	s.httpServer = &http.Server{
		Addr:    cfg.Server.HTTPAddress,
		Handler: mux,
	}

	if cfg.Server.WSAddress != "" {
		s.wsServer = rpc.NewWebSocketServer(rpcServer, cfg.Server.RequestTimeout)
		svc.SetEventHooks(s.wsServer.EventHooks())
		s.wsHTTP = &http.Server{
			Addr:    cfg.Server.WSAddress,
			Handler: s.wsServer,
		}
	}

	return s, nil
}

// Service exposes the ledger service, mainly for tests.
func (s *Server) Service() *service.Service {
	return s.service
}

// Run starts the ledger service and the RPC listeners, then blocks
// until the context is cancelled or a listener fails.
func (s *Server) Run(ctx context.Context) error {
	if s.history != nil {
		if err := s.history.Open(ctx); err != nil {
			return fmt.Errorf("failed to open history database: %w", err)
		}
	}
	if err := s.service.Start(ctx); err != nil {
		return fmt.Errorf("failed to start ledger service: %w", err)
	}

	log.Printf("marketd listening on http://%s", s.cfg.Server.HTTPAddress)
	if s.wsHTTP != nil {
		log.Printf("marketd websocket on ws://%s", s.cfg.Server.WSAddress)
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := s.httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server failed: %w", err)
		}
		return nil
	})
	if s.wsHTTP != nil {
		g.Go(func() error {
			if err := s.wsHTTP.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("websocket server failed: %w", err)
			}
			return nil
		})
	}
	g.Go(func() error {
		<-gctx.Done()
		s.shutdown()
		return nil
	})

	err := g.Wait()
	if closeErr := s.close(); err == nil {
		err = closeErr
	}
	return err
}

func (s *Server) shutdown() {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if s.wsServer != nil {
		s.wsServer.Close()
	}
	if s.wsHTTP != nil {
		s.wsHTTP.Shutdown(shutdownCtx)
	}
	s.httpServer.Shutdown(shutdownCtx)
}

func (s *Server) close() error {
	var firstErr error
	if s.history != nil {
		if err := s.history.Close(context.Background()); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if err := s.store.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok","service":"marketd"}`))
}

func openStore(cfg *config.Config) (keyvalue.Store, error) {
	if cfg.Database.Path == "" {
		return keyvalue.NewMemory(), nil
	}
	path := filepath.Join(cfg.Database.Path, "ledgers")
	if err := os.MkdirAll(cfg.Database.Path, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}
	store, err := keyvalue.OpenPebble(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open ledger store: %w", err)
	}
	return store, nil
}

func historyPath(cfg *config.Config) string {
	if cfg.Database.Path == "" {
		return ":memory:"
	}
	return filepath.Join(cfg.Database.Path, "history.db")
}

func loadGenesis(cfg *config.Config) (genesis.Config, error) {
	if cfg.GenesisFile == "" {
		return DevGenesis(), nil
	}
	g, err := config.LoadGenesisJSON(cfg.GenesisFile)
	if err != nil {
		return genesis.Config{}, err
	}
	genesisCfg, err := g.ToGenesisConfig()
	if err != nil {
		return genesis.Config{}, fmt.Errorf("invalid genesis file %s: %w", cfg.GenesisFile, err)
	}
	return genesisCfg, nil
}
