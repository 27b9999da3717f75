package container

import (
	"fmt"
	"net/http"

	"go-skin-analyzer/internal/analyzer"
	"go-skin-analyzer/internal/client"
	"go-skin-analyzer/internal/config"
	"go-skin-analyzer/internal/gate"
	"go-skin-analyzer/internal/normalizer"
	"go-skin-analyzer/internal/observer"
	"go-skin-analyzer/internal/service"
	"go-skin-analyzer/internal/storage"
	"go-skin-analyzer/internal/transport"
	"go-skin-analyzer/pkg/validation"

	"github.com/sirupsen/logrus"
)

// Container holds all application dependencies
type Container struct {
	config    *config.Config
	log       *logrus.Logger
	inspector analyzer.PhotoInspector
	service   service.AnalysisService
	handler   http.Handler
}

// NewContainer wires the pipeline for cfg. Close releases the worker pool.
func NewContainer(cfg *config.Config, log *logrus.Logger) (*Container, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	store, err := newSnapshotStore(cfg)
	if err != nil {
		return nil, err
	}

	inspector := analyzer.NewPhotoInspector(analyzer.DefaultOptions(), validation.NewQualityValidator())

	events := observer.NewEventPublisher(log)
	counters := observer.NewCountingObserver()
	events.Subscribe(observer.NewLoggingObserver(log))
	events.Subscribe(counters)

	svc := service.NewAnalysisService(service.Deps{
		Uploads: validation.NewUploadValidator(cfg.MaxUploadSize, cfg.AcceptedMIMETypes),
		Normalizer: normalizer.New(normalizer.Options{
			MaxWidth:  cfg.MaxImageWidth,
			MaxHeight: cfg.MaxImageHeight,
			Quality:   cfg.ImageQuality,
			MaxPixels: cfg.MaxImagePixels,
		}),
		Inspector: inspector,
		Gate:      gate.New(cfg.MinRequestInterval),
		Submitter: client.New(cfg.EndpointURL, cfg.AnalysisTimeout, client.WithLogger(log)),
		Store:     store,
		Events:    events,
		Counters:  counters,
		Log:       log,
	}, service.Options{
		Shop:          cfg.ShopDomain,
		DefaultLocale: cfg.DefaultLocale,
		Archive:       cfg.ArchiveEnabled,
	})

	return &Container{
		config:    cfg,
		log:       log,
		inspector: inspector,
		service:   svc,
		handler:   transport.NewHandler(svc, cfg, log),
	}, nil
}

func newSnapshotStore(cfg *config.Config) (storage.SnapshotStore, error) {
	if !cfg.ArchiveEnabled {
		return storage.NewNoopSnapshotStore(), nil
	}
	store, err := storage.NewAzureSnapshotStore(cfg.StorageAccount, cfg.StorageKey, cfg.ArchiveContainer)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize snapshot archive: %w", err)
	}
	return store, nil
}

// Handler returns the HTTP handler
func (c *Container) Handler() http.Handler {
	return c.handler
}

func (c *Container) Service() service.AnalysisService {
	return c.service
}

// Config returns the configuration
func (c *Container) Config() *config.Config {
	return c.config
}

// Close aborts any submission in flight and stops the worker pool.
func (c *Container) Close() error {
	if c.service.Abort() {
		c.log.Info("Aborted in-flight analysis")
	}
	return c.inspector.Close()
}
