package container

import (
	"fmt"
	"io"

	"github.com/mohitkumar/resolveflow/analytics"
	"github.com/mohitkumar/resolveflow/cache"
	"github.com/mohitkumar/resolveflow/commerce"
	"github.com/mohitkumar/resolveflow/config"
	"github.com/mohitkumar/resolveflow/logger"
	"github.com/mohitkumar/resolveflow/persistence"
	"github.com/mohitkumar/resolveflow/persistence/memory"
	rd "github.com/mohitkumar/resolveflow/persistence/redis"
	"github.com/mohitkumar/resolveflow/persistence/sqldb"
	"github.com/mohitkumar/resolveflow/recommend"
	"go.uber.org/zap"
)

type DIContiner struct {
	initialized bool
	storage     persistence.Storage
	definitions persistence.DefinitionStore
	provider    commerce.Provider
	rules       recommend.Rules
	collector   analytics.Collector
	closers     []io.Closer
}

func (p *DIContiner) setInitialized() {
	p.initialized = true
}

func NewDiContainer() *DIContiner {
	return &DIContiner{
		initialized: false,
	}
}

func (d *DIContiner) Init(conf config.Config) error {
	var storage persistence.Storage
	switch conf.StorageType {
	case config.STORAGE_TYPE_REDIS:
		rdConf := rd.Config{
			Addrs:     conf.RedisConfig.Addrs,
			Namespace: conf.RedisConfig.Namespace,
			Password:  conf.RedisConfig.Password,
		}
		redisStorage := rd.NewRedisStorage(rdConf)
		d.closers = append(d.closers, redisStorage)
		storage = redisStorage
	case config.STORAGE_TYPE_SQL:
		store, err := sqldb.New(sqldb.Config{Driver: string(conf.SQLConfig.Driver), DSN: conf.SQLConfig.DSN})
		if err != nil {
			return err
		}
		d.closers = append(d.closers, store)
		storage = store
	case config.STORAGE_TYPE_INMEM, "":
		storage = memory.NewStorage()
	default:
		return fmt.Errorf("unsupported storage type %s", conf.StorageType)
	}

	provider := commerce.NewStaticProvider()
	if len(conf.CommerceFile) != 0 {
		p, err := commerce.LoadStaticProvider(conf.CommerceFile)
		if err != nil {
			return err
		}
		provider = p
	}

	rules := recommend.DefaultRules()
	if len(conf.RulesFile) != 0 {
		r, err := recommend.LoadRules(conf.RulesFile)
		if err != nil {
			return err
		}
		rules = r
	}

	collector, err := analytics.NewCollector(conf.AnalyticsConfig)
	if err != nil {
		return err
	}
	if closer, ok := collector.(io.Closer); ok {
		d.closers = append(d.closers, closer)
	}

	d.InitWith(storage, provider, rules, collector)
	if conf.CacheTTL > 0 {
		d.definitions = cache.NewDefinitionCache(storage, conf.CacheTTL)
	}
	logger.Info("container initialized", zap.String("storage", string(conf.StorageType)), zap.Duration("cacheTTL", conf.CacheTTL))
	return nil
}

// InitWith wires already built components, definitions are read from storage directly.
func (d *DIContiner) InitWith(storage persistence.Storage, provider commerce.Provider, rules recommend.Rules, collector analytics.Collector) {
	defer d.setInitialized()
	if collector == nil {
		collector = analytics.NoopCollector{}
	}
	d.storage = storage
	d.definitions = storage
	d.provider = provider
	d.rules = rules
	d.collector = collector
}

func (d *DIContiner) GetStorage() persistence.Storage {
	if !d.initialized {
		panic("persistence not initalized")
	}
	return d.storage
}

// GetDefinitionStore returns the cached view of flow and template definitions when caching is on.
func (d *DIContiner) GetDefinitionStore() persistence.DefinitionStore {
	if !d.initialized {
		panic("persistence not initalized")
	}
	return d.definitions
}

func (d *DIContiner) GetCommerceProvider() commerce.Provider {
	if !d.initialized {
		panic("commerce provider not initalized")
	}
	return d.provider
}

func (d *DIContiner) GetRules() recommend.Rules {
	if !d.initialized {
		panic("rules not initalized")
	}
	return d.rules
}

func (d *DIContiner) GetCollector() analytics.Collector {
	if !d.initialized {
		panic("analytics not initalized")
	}
	return d.collector
}

func (d *DIContiner) Close() error {
	var firstErr error
	for _, c := range d.closers {
		if err := c.Close(); err != nil {
			logger.Error("error closing component", zap.Error(err))
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}
