package service

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/saiset-co/sai-storecache/cache"
	"github.com/saiset-co/sai-storecache/config"
	"github.com/saiset-co/sai-storecache/cron"
	"github.com/saiset-co/sai-storecache/health"
	"github.com/saiset-co/sai-storecache/logger"
	"github.com/saiset-co/sai-storecache/metrics"
	"github.com/saiset-co/sai-storecache/notify"
	"github.com/saiset-co/sai-storecache/outputcache"
	"github.com/saiset-co/sai-storecache/server"
	"github.com/saiset-co/sai-storecache/store"
	"github.com/saiset-co/sai-storecache/types"
)

type State int32

const (
	StateStopped State = iota
	StateStarting
	StateRunning
	StateStopping
)

// Service composes the cache coordination stack: config, logging,
// the key-value adapter, monitor, fan-out and optimistic coordinators,
// the relational store, and the optional metrics/notify/cron/server
// components. Cache and store are mandatory; everything else degrades
// to nil when disabled in config.
type Service struct {
	ctx             context.Context
	cancel          context.CancelFunc
	configManager   types.ConfigManager
	loggerManager   types.LoggerManager
	metricsManager  types.MetricsManager
	client          types.CacheClient
	monitor         *cache.Monitor
	output          *outputcache.Memory
	fanout          *cache.FanoutEngine
	optimistic      *cache.OptimisticCoordinator
	queries         *cache.ScopedQueryCache
	storeManager    types.StoreManager
	notifier        types.Notifier
	healthManager   types.HealthManager
	cronManager     types.CronManager
	httpServer      *server.FastHTTPServer
	collections     *CollectionService
	products        *ProductService
	invitations     *InvitationService
	done            chan struct{}
	wg              sync.WaitGroup
	state           atomic.Value
	shutdownTimeout time.Duration
}

func NewService(ctx context.Context, configPath string) (*Service, error) {
	if configPath == "" {
		return nil, types.ErrConfigNotFound
	}

	if _, err := os.Stat(configPath); err != nil {
		return nil, types.WrapError(err, "file does not exist")
	}

	configManager, err := config.NewConfigurationManager(ctx, configPath)
	if err != nil {
		return nil, types.WrapError(err, "failed to register config manager")
	}

	return buildService(ctx, configManager)
}

// NewServiceWithConfig composes the stack around an already-built
// config, used by tests and embedded callers.
func NewServiceWithConfig(ctx context.Context, configManager types.ConfigManager) (*Service, error) {
	return buildService(ctx, configManager)
}

func buildService(ctx context.Context, configManager types.ConfigManager) (*Service, error) {
	serviceCtx, cancel := context.WithCancel(ctx)

	service := &Service{
		ctx:             serviceCtx,
		cancel:          cancel,
		configManager:   configManager,
		done:            make(chan struct{}),
		shutdownTimeout: 30 * time.Second,
	}

	service.state.Store(StateStopped)

	if err := service.registerComponents(); err != nil {
		cancel()
		return nil, types.WrapError(err, "failed to register components")
	}

	return service, nil
}

func (s *Service) registerComponents() error {
	loggerManager, err := logger.NewManager(s.ctx, s.configManager)
	if err != nil {
		return types.WrapError(err, "failed to register logger")
	}
	s.loggerManager = loggerManager

	metricsManager, err := metrics.NewManager(s.ctx, s.configManager, loggerManager)
	if err != nil && !types.IsError(err, types.ErrMetricsIsDisabled) {
		return types.WrapError(err, "failed to register metrics manager")
	}
	s.metricsManager = metricsManager

	client, err := cache.NewCacheClient(s.ctx, s.configManager, loggerManager, s.metricsManager)
	if err != nil {
		return types.WrapError(err, "failed to register cache client")
	}
	s.client = client

	s.monitor = cache.NewMonitor(loggerManager, client)
	s.output = outputcache.NewMemory(loggerManager)
	s.fanout = cache.NewFanoutEngine(loggerManager, client, s.output)
	s.queries = cache.NewScopedQueryCache(loggerManager, client, s.monitor)

	s.optimistic = cache.NewOptimisticCoordinator(loggerManager, client, s.fanout)
	if s.metricsManager != nil {
		s.optimistic.WithAlerting(
			s.metricsManager.Counter("cache_optimistic_failures_total", nil), 0)
	}

	storeManager, err := store.NewManager(s.ctx, s.configManager, loggerManager)
	if err != nil {
		return types.WrapError(err, "failed to register store manager")
	}
	s.storeManager = storeManager

	notifier, err := notify.NewNotifier(s.ctx, s.configManager, loggerManager)
	if err != nil && !types.IsError(err, types.ErrNotifyIsDisabled) {
		return types.WrapError(err, "failed to register notifier")
	}
	s.notifier = notifier

	cfg := s.configManager.GetConfig()

	if cfg.Health != nil && cfg.Health.Enabled {
		healthManager, err := health.NewManager(s.ctx, s.configManager, loggerManager)
		if err != nil {
			return types.WrapError(err, "failed to register health manager")
		}
		healthManager.RegisterChecker("cache", health.CacheChecker(client))
		healthManager.RegisterChecker("store", health.StoreChecker(storeManager))
		if s.notifier != nil {
			healthManager.RegisterChecker("notifier", health.NotifierChecker(s.notifier))
		}
		s.healthManager = healthManager
	}

	if cfg.Cron != nil && cfg.Cron.Enabled {
		cronManager, err := cron.NewManager(s.ctx, s.configManager, loggerManager, s.metricsManager)
		if err != nil {
			return types.WrapError(err, "failed to register cron manager")
		}
		if err := cron.RegisterInsightJob(cronManager, s.configManager, loggerManager, s.monitor, s.metricsManager); err != nil {
			return types.WrapError(err, "failed to register insight job")
		}
		s.cronManager = cronManager
	}

	if cfg.Server != nil && cfg.Server.Enabled {
		httpServer, err := server.NewHTTPServer(s.ctx, s.configManager, loggerManager, s.metricsManager)
		if err != nil {
			return types.WrapError(err, "failed to register HTTP server")
		}
		server.RegisterDiagnostics(httpServer, s.configManager, loggerManager,
			s.healthManager, client, s.monitor, s.metricsManager)
		s.httpServer = httpServer
	}

	s.collections = NewCollectionService(loggerManager, storeManager, s.queries, s.optimistic, s.fanout)
	s.products = NewProductService(loggerManager, storeManager, s.queries, s.optimistic, s.fanout)
	s.invitations = NewInvitationService(loggerManager, storeManager, s.queries, s.optimistic, s.fanout, s.notifier)

	return nil
}

// Start brings the components up and blocks until shutdown.
func (s *Service) Start() error {
	if !s.transitionState(StateStopped, StateStarting) {
		s.loggerManager.Warn("Service is already running")
		return types.ErrServerAlreadyRunning
	}

	var runErr error
	func() {
		defer func() {
			if r := recover(); r != nil {
				buf := make([]byte, 4096)
				n := runtime.Stack(buf, false)
				runErr = fmt.Errorf("service panic: %v", r)
				s.loggerManager.Error("Service run panic", zap.String("stack", string(buf[:n])))
				s.setState(StateStopped)
			}
		}()

		runErr = s.run()
	}()

	return runErr
}

func (s *Service) run() error {
	s.loggerManager.Info("Starting service")

	if err := s.startComponents(); err != nil {
		s.setState(StateStopped)
		return types.WrapError(err, "failed to start components")
	}

	s.setState(StateRunning)
	s.setupSignalHandling()

	s.wg.Add(1)
	go s.contextMonitor()

	s.loggerManager.Info("Service started successfully")

	<-s.done

	if err := s.stopComponents(); err != nil {
		s.loggerManager.Error("Error during service shutdown", zap.Error(err))
	}

	s.wg.Wait()
	s.setState(StateStopped)

	s.loggerManager.Info("Service stopped gracefully")
	return nil
}

func (s *Service) Stop() error {
	if !s.transitionState(StateRunning, StateStopping) {
		s.loggerManager.Warn("Service is not running")
		return types.ErrServerNotRunning
	}

	s.loggerManager.Info("Stopping service...")
	s.cancel()

	return nil
}

func (s *Service) Done() <-chan struct{} {
	return s.done
}

func (s *Service) Context() context.Context {
	return s.ctx
}

func (s *Service) IsRunning() bool {
	return s.getState() == StateRunning
}

func (s *Service) Collections() *CollectionService   { return s.collections }
func (s *Service) Products() *ProductService         { return s.products }
func (s *Service) Invitations() *InvitationService   { return s.invitations }
func (s *Service) Monitor() *cache.Monitor           { return s.monitor }
func (s *Service) OutputCache() *outputcache.Memory  { return s.output }
func (s *Service) CacheClient() types.CacheClient    { return s.client }
func (s *Service) FanoutEngine() *cache.FanoutEngine { return s.fanout }
func (s *Service) Logger() types.Logger              { return s.loggerManager }

func (s *Service) startComponents() error {
	if err := s.loggerManager.Start(); err != nil {
		return types.WrapError(err, "failed to start logger")
	}

	if s.metricsManager != nil {
		if err := s.metricsManager.Start(); err != nil {
			s.loggerManager.Error("Failed to start metrics manager", zap.Error(err))
		}
	}

	if err := s.client.Start(); err != nil {
		return types.WrapError(err, "failed to start cache client")
	}

	if err := s.storeManager.Start(); err != nil {
		return types.WrapError(err, "failed to start store")
	}

	if s.notifier != nil {
		if err := s.notifier.Start(); err != nil {
			s.loggerManager.Error("Failed to start notifier", zap.Error(err))
		}
	}

	if s.healthManager != nil {
		if err := s.healthManager.Start(); err != nil {
			s.loggerManager.Error("Failed to start health manager", zap.Error(err))
		}
	}

	if s.httpServer != nil {
		if err := s.httpServer.Start(); err != nil {
			s.loggerManager.Error("Failed to start HTTP server", zap.Error(err))
		}
	}

	if s.cronManager != nil {
		if err := s.cronManager.Start(); err != nil {
			s.loggerManager.Error("Failed to start cron manager", zap.Error(err))
		}
	}

	s.loggerManager.Info("All components started successfully")
	return nil
}

func (s *Service) stopComponents() error {
	var errs []error

	s.loggerManager.Info("Stopping service components...")

	if s.cronManager != nil {
		if err := s.cronManager.Stop(); err != nil {
			s.loggerManager.Error("Failed to stop cron manager", zap.Error(err))
			errs = append(errs, err)
		}
	}

	if s.httpServer != nil {
		if err := s.httpServer.Stop(); err != nil {
			s.loggerManager.Error("Failed to stop HTTP server", zap.Error(err))
			errs = append(errs, err)
		}
	}

	if s.healthManager != nil {
		if err := s.healthManager.Stop(); err != nil {
			s.loggerManager.Error("Failed to stop health manager", zap.Error(err))
			errs = append(errs, err)
		}
	}

	if s.notifier != nil {
		if err := s.notifier.Stop(); err != nil {
			s.loggerManager.Error("Failed to stop notifier", zap.Error(err))
			errs = append(errs, err)
		}
	}

	if err := s.storeManager.Stop(); err != nil {
		s.loggerManager.Error("Failed to stop store", zap.Error(err))
		errs = append(errs, err)
	}

	if err := s.client.Stop(); err != nil {
		s.loggerManager.Error("Failed to stop cache client", zap.Error(err))
		errs = append(errs, err)
	}

	if s.metricsManager != nil {
		if err := s.metricsManager.Stop(); err != nil {
			s.loggerManager.Error("Failed to stop metrics manager", zap.Error(err))
			errs = append(errs, err)
		}
	}

	if err := s.loggerManager.Stop(); err != nil {
		errs = append(errs, err)
	}

	if len(errs) > 0 {
		return types.NewErrorf("errors during shutdown: %v", errs)
	}

	s.loggerManager.Info("All components stopped successfully")
	return nil
}

func (s *Service) setupSignalHandling() {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan,
		syscall.SIGINT,
		syscall.SIGTERM,
		syscall.SIGQUIT,
	)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		select {
		case sig := <-sigChan:
			s.loggerManager.Info("Received shutdown signal", zap.String("signal", sig.String()))
			if s.transitionState(StateRunning, StateStopping) {
				s.cancel()
			}

		case <-s.ctx.Done():
			s.loggerManager.Info("Service context cancelled")
		}

		signal.Stop(sigChan)
		close(sigChan)
	}()
}

func (s *Service) contextMonitor() {
	defer s.wg.Done()
	defer close(s.done)

	<-s.ctx.Done()

	switch err := s.ctx.Err(); {
	case types.IsError(err, context.Canceled):
		s.loggerManager.Info("Service shutdown: context cancelled")
	case types.IsError(err, context.DeadlineExceeded):
		s.loggerManager.Warn("Service shutdown: context deadline exceeded")
	default:
		s.loggerManager.Info("Service shutdown: context done")
	}
}

func (s *Service) getState() State {
	return s.state.Load().(State)
}

func (s *Service) setState(newState State) bool {
	currentState := s.getState()
	return s.state.CompareAndSwap(currentState, newState)
}

func (s *Service) transitionState(from, to State) bool {
	return s.state.CompareAndSwap(from, to)
}
