package app

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"go-intents/internal/clients"
	"go-intents/internal/config"
	"go-intents/internal/db"
	"go-intents/internal/events"
	"go-intents/internal/handlers"
	"go-intents/internal/repository"
	"go-intents/internal/services"
	"go-intents/internal/signer"

	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// networkSigner signs both intents and transactions for one network
type networkSigner interface {
	services.IntentSigner
	services.TransactionSigner
}

// NetworkServices the services bound to one configured network
type NetworkServices struct {
	Name         string
	Intents      *services.IntentService
	Transactions *services.BlockchainTransactionService

	client *ethclient.Client
}

// ServiceContainer holds every long-lived service of the process
type ServiceContainer struct {
	// Database
	DB             *gorm.DB
	SubmissionRepo repository.SubmissionRepository

	// Clients
	KMSClient *clients.KMSClient

	// Events
	Emitter *events.SolutionEmitter

	defaultNetwork string
	networks       map[string]*NetworkServices
}

// Global service container instance
var Container *ServiceContainer
var containerOnce sync.Once

// InitializeContainer builds the container from config.AppConfig once
func InitializeContainer(ctx context.Context) (*ServiceContainer, error) {
	var initErr error

	containerOnce.Do(func() {
		if config.AppConfig == nil {
			initErr = fmt.Errorf("config not loaded")
			return
		}
		cfg := config.AppConfig
		logrus.Info("Initializing Service Container...")

		container := &ServiceContainer{
			defaultNetwork: cfg.Blockchain.DefaultNetwork,
			networks:       make(map[string]*NetworkServices),
		}

		// 1. Storage (optional)
		if err := db.InitDB(cfg.Database.DSN); err != nil {
			initErr = fmt.Errorf("failed to initialize database: %w", err)
			return
		}
		if db.DB != nil {
			container.DB = db.DB
			container.SubmissionRepo = repository.NewSubmissionRepository(db.DB)
		}

		// 2. Events (optional)
		if err := events.InitNATSServices(); err != nil {
			logrus.WithError(err).Warn("Event publishing disabled")
		}
		container.Emitter = events.NewSolutionEmitter(events.GetPublisher())

		// 3. KMS
		if cfg.KMS.Enabled {
			container.KMSClient = clients.NewKMSClient(cfg.KMS)
			if err := container.KMSClient.HealthCheck(ctx); err != nil {
				logrus.WithError(err).Warn("KMS health check failed")
			}
		}

		// 4. Networks
		if err := container.initNetworks(ctx, cfg); err != nil {
			initErr = err
			return
		}

		Container = container
		logrus.WithField("networks", container.Networks()).Info("Service Container initialized")
	})

	return Container, initErr
}

// NewServiceContainer builds a container from already constructed networks
func NewServiceContainer(defaultNetwork string, repo repository.SubmissionRepository, networks ...*NetworkServices) *ServiceContainer {
	c := &ServiceContainer{
		SubmissionRepo: repo,
		defaultNetwork: defaultNetwork,
		networks:       make(map[string]*NetworkServices, len(networks)),
	}
	for _, n := range networks {
		c.networks[strings.ToLower(n.Name)] = n
	}
	return c
}

func (c *ServiceContainer) initNetworks(ctx context.Context, cfg *config.Config) error {
	var recorder services.SubmissionRecorder
	if c.SubmissionRepo != nil {
		recorder = c.SubmissionRepo
	}

	for name, networkCfg := range cfg.Blockchain.Networks {
		if !networkCfg.Enabled {
			continue
		}
		log := logrus.WithFields(logrus.Fields{"network": name, "chain_id": networkCfg.ChainID})

		s, err := c.networkSigner(ctx, networkCfg)
		if err != nil {
			return fmt.Errorf("network %s: %w", name, err)
		}

		var intentSigner services.IntentSigner
		if s != nil {
			intentSigner = s
		}
		intentService, err := services.NewIntentService(name, networkCfg, intentSigner)
		if err != nil {
			return err
		}
		ns := &NetworkServices{Name: name, Intents: intentService}

		if s == nil {
			log.Warn("No signer configured; solutions cannot be submitted on this network")
		} else {
			dialCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
			client, err := services.DialChainClient(dialCtx, name, networkCfg)
			cancel()
			if err != nil {
				log.WithError(err).Warn("Blockchain client unavailable; submissions will fail until restart")
			} else {
				tx, err := services.NewBlockchainTransactionService(name, networkCfg, client, s, recorder, c.Emitter)
				if err != nil {
					client.Close()
					return err
				}
				ns.client = client
				ns.Transactions = tx
				if _, err := tx.RefreshSignerBalance(ctx); err != nil {
					log.WithError(err).Warn("Failed to read signer balance")
				}
				log.WithFields(logrus.Fields{
					"signer": s.Name(),
					"from":   s.Address().Hex(),
				}).Info("Solution submission enabled")
			}
		}

		c.networks[strings.ToLower(name)] = ns
	}

	if len(c.networks) == 0 {
		logrus.Warn("No enabled networks configured")
	}
	return nil
}

// networkSigner returns nil when the network has no signing key
func (c *ServiceContainer) networkSigner(ctx context.Context, cfg config.NetworkConfig) (networkSigner, error) {
	if cfg.UsesKMS() {
		if c.KMSClient == nil {
			return nil, fmt.Errorf("kms is disabled")
		}
		return signer.NewKMSSigner(ctx, c.KMSClient, cfg.KMSKeyAlias, cfg.KMSK1, cfg.ChainID)
	}
	if cfg.PrivateKey != "" {
		return signer.NewPrivateKeySigner(cfg.PrivateKey)
	}
	return nil, nil
}

func (c *ServiceContainer) network(name string) (*NetworkServices, error) {
	if name == "" {
		name = c.defaultNetwork
	}
	if name == "" && len(c.networks) == 1 {
		for _, n := range c.networks {
			return n, nil
		}
	}
	n, ok := c.networks[strings.ToLower(name)]
	if !ok {
		return nil, fmt.Errorf("network %q is not configured or disabled", name)
	}
	return n, nil
}

// Intents implements handlers.NetworkServices
func (c *ServiceContainer) Intents(network string) (*services.IntentService, error) {
	n, err := c.network(network)
	if err != nil {
		return nil, err
	}
	return n.Intents, nil
}

// Submitter implements handlers.NetworkServices
func (c *ServiceContainer) Submitter(network string) (handlers.SolutionSubmitter, error) {
	n, err := c.network(network)
	if err != nil {
		return nil, err
	}
	if n.Transactions == nil {
		return nil, fmt.Errorf("solution submission is not available on %s", n.Name)
	}
	return n.Transactions, nil
}

// Networks implements handlers.NetworkServices
func (c *ServiceContainer) Networks() []string {
	names := make([]string, 0, len(c.networks))
	for _, n := range c.networks {
		names = append(names, n.Name)
	}
	sort.Strings(names)
	return names
}

// Cleanup closes clients opened by the container
func (c *ServiceContainer) Cleanup() {
	logrus.Info("Cleaning up Service Container...")

	for _, n := range c.networks {
		if n.client != nil {
			n.client.Close()
		}
	}
	events.Shutdown()
	db.Close()

	logrus.Info("Service Container cleaned up")
}
