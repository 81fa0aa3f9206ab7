package agent

import (
	"context"
	"sync"

	"github.com/mohitkumar/resolveflow/config"
	"github.com/mohitkumar/resolveflow/container"
	"github.com/mohitkumar/resolveflow/flow"
	"github.com/mohitkumar/resolveflow/logger"
	"github.com/mohitkumar/resolveflow/metadata"
	"github.com/mohitkumar/resolveflow/rest"
	"go.uber.org/zap"
)

type Agent struct {
	Config          config.Config
	container       *container.DIContiner
	metadataService metadata.MetadataService
	flowService     *flow.FlowService
	httpServer      *rest.Server
	shutdown        bool
	shutdowns       chan struct{}
	shutdownLock    sync.Mutex
}

func New(config config.Config) (*Agent, error) {
	a := &Agent{
		Config:    config,
		shutdowns: make(chan struct{}),
	}
	setup := []func() error{
		a.setupContainer,
		a.setupMetadataService,
		a.setupCatalog,
		a.setupFlowService,
		a.setupHttpServer,
	}
	for _, fn := range setup {
		if err := fn(); err != nil {
			if a.container != nil {
				_ = a.container.Close()
			}
			return nil, err
		}
	}
	return a, nil
}

func (a *Agent) setupContainer() error {
	a.container = container.NewDiContainer()
	return a.container.Init(a.Config)
}

func (a *Agent) setupMetadataService() error {
	a.metadataService = metadata.NewMetadataService(a.container)
	return nil
}

func (a *Agent) setupCatalog() error {
	if len(a.Config.CatalogFile) == 0 {
		return nil
	}
	return a.metadataService.LoadCatalog(context.Background(), a.Config.CatalogFile)
}

func (a *Agent) setupFlowService() error {
	a.flowService = flow.NewFlowService(a.container)
	return nil
}

func (a *Agent) setupHttpServer() error {
	var err error
	a.httpServer, err = rest.NewServer(a.Config.HttpPort, a.metadataService, a.flowService, a.container.GetStorage())
	if err != nil {
		return err
	}
	return nil
}

func (a *Agent) Start() error {
	go func() {
		if err := a.httpServer.Start(); err != nil {
			logger.Error("http server failed", zap.Error(err))
			_ = a.Shutdown()
		}
	}()
	return nil
}

// Done is closed once Shutdown has run.
func (a *Agent) Done() <-chan struct{} {
	return a.shutdowns
}

func (a *Agent) Shutdown() error {
	logger.Info("shutting down server")
	a.shutdownLock.Lock()
	defer a.shutdownLock.Unlock()
	if a.shutdown {
		return nil
	}
	a.shutdown = true
	close(a.shutdowns)

	shutdown := []func() error{
		a.httpServer.Stop,
		a.container.Close,
		func() error {
			_ = logger.Sync()
			return nil
		},
	}
	for _, fn := range shutdown {
		if err := fn(); err != nil {
			return err
		}
	}
	return nil
}
