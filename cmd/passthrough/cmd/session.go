package cmd

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/hashicorp/go-multierror"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"
	"github.com/sethvargo/go-retry"
	"github.com/spf13/viper"

	"github.com/gaugeflow/passthrough/module/metrics"
	"github.com/gaugeflow/passthrough/orchestration"
	"github.com/gaugeflow/passthrough/registry"
	"github.com/gaugeflow/passthrough/storage"
	badgerstorage "github.com/gaugeflow/passthrough/storage/badger"
	pebblestorage "github.com/gaugeflow/passthrough/storage/pebble"
)

const (
	backendPebble = "pebble"
	backendBadger = "badger"

	openRetryBase = 100 * time.Millisecond
	openRetryMax  = 5
)

// lockMessages identify a database lock held by another open journal.
var lockMessages = []string{
	"lock held by current process",
	"Cannot acquire directory lock",
}

// session is one CLI invocation against a persisted environment.
type session struct {
	settings settings
	journal  storage.Journal
	registry *prometheus.Registry
	env      *registry.Environment
	deployer *orchestration.Deployer
}

func openJournal(backend, dir string) (storage.Journal, error) {
	switch backend {
	case backendPebble:
		return pebblestorage.OpenJournal(filepath.Join(dir, backendPebble))
	case backendBadger:
		return badgerstorage.OpenJournal(filepath.Join(dir, backendBadger))
	default:
		return nil, fmt.Errorf("unknown backend %q, expected %s or %s", backend, backendPebble, backendBadger)
	}
}

// openJournalWithRetry retries while another run still holds the database
// lock. Any other error is returned at once.
func openJournalWithRetry(ctx context.Context, backend, dir string) (storage.Journal, error) {
	expRetry, err := retry.NewExponential(openRetryBase)
	if err != nil {
		return nil, fmt.Errorf("could not create retry mechanism: %w", err)
	}

	var journal storage.Journal
	err = retry.Do(ctx, retry.WithMaxRetries(openRetryMax, expRetry), func(context.Context) error {
		var err error
		journal, err = openJournal(backend, dir)
		if err == nil {
			return nil
		}
		if !isLockError(err) {
			return err
		}
		log.Warn().Err(err).Str("backend", backend).Msg("journal is locked, retrying")
		return retry.RetryableError(err)
	})
	return journal, err
}

func isLockError(err error) bool {
	if errors.Is(err, syscall.EAGAIN) || errors.Is(err, syscall.EWOULDBLOCK) {
		return true
	}
	for _, message := range lockMessages {
		if strings.Contains(err.Error(), message) {
			return true
		}
	}
	return false
}

func openSession() (*session, error) {
	cfg, err := loadSettings(viper.GetViper())
	if err != nil {
		return nil, err
	}

	journal, err := openJournalWithRetry(context.Background(), cfg.Backend, cfg.DataDir)
	if err != nil {
		return nil, err
	}

	reg := prometheus.NewRegistry()
	env, err := registry.Load(journal,
		registry.WithLogger(log.Logger),
		registry.WithMetrics(metrics.NewRegistryCollector(reg)),
	)
	if err != nil {
		return nil, multierror.Append(fmt.Errorf("could not load environment: %w", err), journal.Close())
	}

	network := orchestration.Lookup(cfg.Ecosystem, cfg.Network)
	audit := orchestration.NewAuditLog(cfg.AuditDir, network.Name)

	return &session{
		settings: cfg,
		journal:  journal,
		registry: reg,
		env:      env,
		deployer: orchestration.NewDeployer(log.Logger, env, network, audit, cfg.Account),
	}, nil
}

// Close writes the collected metrics if a metrics file was requested and
// closes the journal.
func (s *session) Close() error {
	var result *multierror.Error
	if path := s.settings.MetricsFile; path != "" {
		if err := prometheus.WriteToTextfile(path, s.registry); err != nil {
			result = multierror.Append(result, fmt.Errorf("could not write metrics: %w", err))
		}
	}
	if err := s.journal.Close(); err != nil {
		result = multierror.Append(result, fmt.Errorf("could not close journal: %w", err))
	}
	return result.ErrorOrNil()
}

// withSession runs fn against a freshly loaded environment and exits on
// failure.
func withSession(name string, fn func(s *session) error) {
	s, err := openSession()
	if err != nil {
		log.Fatal().Err(err).Msg("could not open registry")
	}

	err = fn(s)
	if closeErr := s.Close(); closeErr != nil {
		log.Error().Err(closeErr).Msg("could not close registry")
	}
	if err != nil {
		log.Fatal().Err(err).Msgf("%s failed", name)
	}
}

func mustParseAddress(name, value string) common.Address {
	address, err := orchestration.ParseAddress(name, value)
	if err != nil {
		log.Fatal().Err(err).Msg("invalid flag")
	}
	return address
}

func mustLoadConfig() orchestration.Config {
	cfg, err := orchestration.LoadConfigFromEnv()
	if err != nil {
		log.Fatal().Err(err).Msg("could not load deployment configuration")
	}
	return cfg
}
