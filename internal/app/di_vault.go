package app

import (
	"fmt"
	"sync"

	"github.com/allisson/passvault/internal/database"
	vaultHTTP "github.com/allisson/passvault/internal/vault/http"
	vaultRepository "github.com/allisson/passvault/internal/vault/repository"
	vaultUseCase "github.com/allisson/passvault/internal/vault/usecase"
)

// SessionStoreMemory keeps unlock sessions in process memory; they are lost on restart.
const SessionStoreMemory = "memory"

type vaultComponents struct {
	recordRepo        vaultUseCase.RecordRepository
	sessionRepo       vaultUseCase.SessionRepository
	sessionAuthorizer vaultUseCase.SessionAuthorizer
	vaultStore        vaultUseCase.VaultStore
	vaultUseCase      vaultUseCase.VaultUseCase
	vaultHandler      *vaultHTTP.VaultHandler

	recordRepoInit        sync.Once
	sessionRepoInit       sync.Once
	sessionAuthorizerInit sync.Once
	vaultStoreInit        sync.Once
	vaultUseCaseInit      sync.Once
	vaultHandlerInit      sync.Once
}

// RecordRepository returns the record repository for DB_DRIVER.
func (c *Container) RecordRepository() (vaultUseCase.RecordRepository, error) {
	err := c.once(&c.recordRepoInit, "recordRepo", func() error {
		db, err := c.DB()
		if err != nil {
			return fmt.Errorf("failed to get database for record repository: %w", err)
		}
		switch {
		case database.IsPostgres(c.config.DBDriver):
			c.recordRepo = vaultRepository.NewPostgreSQLRecordRepository(db)
		case c.config.DBDriver == database.DriverMySQL:
			c.recordRepo = vaultRepository.NewMySQLRecordRepository(db)
		default:
			return fmt.Errorf("unsupported database driver: %s", c.config.DBDriver)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return c.recordRepo, nil
}

// SessionRepository returns the session store selected by VAULT_SESSION_STORE.
// The memory store needs no database.
func (c *Container) SessionRepository() (vaultUseCase.SessionRepository, error) {
	err := c.once(&c.sessionRepoInit, "sessionRepo", func() error {
		if c.config.VaultSessionStore == SessionStoreMemory {
			c.sessionRepo = vaultRepository.NewMemorySessionRepository()
			return nil
		}
		db, err := c.DB()
		if err != nil {
			return fmt.Errorf("failed to get database for session repository: %w", err)
		}
		switch {
		case database.IsPostgres(c.config.DBDriver):
			c.sessionRepo = vaultRepository.NewPostgreSQLSessionRepository(db)
		case c.config.DBDriver == database.DriverMySQL:
			c.sessionRepo = vaultRepository.NewMySQLSessionRepository(db)
		default:
			return fmt.Errorf("unsupported database driver: %s", c.config.DBDriver)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return c.sessionRepo, nil
}

// SessionAuthorizer returns the unlock window tracker.
func (c *Container) SessionAuthorizer() (vaultUseCase.SessionAuthorizer, error) {
	err := c.once(&c.sessionAuthorizerInit, "sessionAuthorizer", func() error {
		sessionRepo, err := c.SessionRepository()
		if err != nil {
			return err
		}
		c.sessionAuthorizer = vaultUseCase.NewSessionAuthorizer(
			sessionRepo,
			c.config.VaultSessionTTL,
			database.DefaultRetryPolicy(),
			nil,
		)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return c.sessionAuthorizer, nil
}

// VaultStore returns the record store.
func (c *Container) VaultStore() (vaultUseCase.VaultStore, error) {
	err := c.once(&c.vaultStoreInit, "vaultStore", func() error {
		txManager, err := c.TxManager()
		if err != nil {
			return fmt.Errorf("failed to get tx manager for vault store: %w", err)
		}
		recordRepo, err := c.RecordRepository()
		if err != nil {
			return err
		}
		sessions, err := c.SessionAuthorizer()
		if err != nil {
			return err
		}
		cipher, err := c.Cipher()
		if err != nil {
			return err
		}
		envelopeCodec, err := c.EnvelopeCodec()
		if err != nil {
			return err
		}
		c.vaultStore = vaultUseCase.NewVaultStore(
			txManager,
			recordRepo,
			sessions,
			cipher,
			envelopeCodec,
			database.DefaultRetryPolicy(),
			c.config.VaultDecryptConcurrency,
			nil,
		)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return c.vaultStore, nil
}

// VaultUseCase returns the operations facade, decorated with metrics when enabled.
func (c *Container) VaultUseCase() (vaultUseCase.VaultUseCase, error) {
	err := c.once(&c.vaultUseCaseInit, "vaultUseCase", func() error {
		store, err := c.VaultStore()
		if err != nil {
			return err
		}
		sessions, err := c.SessionAuthorizer()
		if err != nil {
			return err
		}
		useCase := vaultUseCase.NewVaultUseCase(
			store,
			sessions,
			c.PasswordGenerator(),
			c.config.VaultAllowLockedMetadata,
			c.Logger(),
		)
		if c.config.MetricsEnabled {
			bm, err := c.BusinessMetrics()
			if err != nil {
				return err
			}
			useCase = vaultUseCase.NewVaultUseCaseWithMetrics(useCase, bm)
		}
		c.vaultUseCase = useCase
		return nil
	})
	if err != nil {
		return nil, err
	}
	return c.vaultUseCase, nil
}

// VaultHandler returns the HTTP handler for the vault routes.
func (c *Container) VaultHandler() (*vaultHTTP.VaultHandler, error) {
	err := c.once(&c.vaultHandlerInit, "vaultHandler", func() error {
		useCase, err := c.VaultUseCase()
		if err != nil {
			return err
		}
		c.vaultHandler = vaultHTTP.NewVaultHandler(useCase, c.Logger())
		return nil
	})
	if err != nil {
		return nil, err
	}
	return c.vaultHandler, nil
}
