package svc

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib" // register pgx driver
	"github.com/zeromicro/go-zero/core/logx"
	"github.com/zeromicro/go-zero/core/stores/sqlx"

	"github.com/variational-research/variational-go/internal/config"
	"github.com/variational-research/variational-go/internal/ledger"
	"github.com/variational-research/variational-go/pkg/journal"
	"github.com/variational-research/variational-go/pkg/variational"
	"github.com/variational-research/variational-go/pkg/variational/assets"
	"github.com/variational-research/variational-go/pkg/variational/polling"
)

type ServiceContext struct {
	Config  config.Config
	Profile *variational.ProfileConfig

	Client *variational.Client
	Poller *polling.Poller
	Assets *assets.Directory
	// Permits is nil unless the profile carries a private_key.
	Permits *variational.PermitHelper
	Journal *journal.Writer

	// Optional ledger; set only when a Postgres DSN is configured.
	DBConn sqlx.SqlConn
	Ledger ledger.Store
	Syncer *ledger.Syncer
}

// NewServiceContext builds every collaborator and exits the process on
// misconfiguration.
func NewServiceContext(c config.Config) *ServiceContext {
	svc, err := New(c)
	if err != nil {
		log.Fatalf("failed to build service context: %v", err)
	}
	return svc
}

// New builds every collaborator the configuration enables.
func New(c config.Config, extra ...variational.ClientOption) (*ServiceContext, error) {
	profile, err := c.ActiveProfile()
	if err != nil {
		return nil, err
	}
	svc := &ServiceContext{Config: c, Profile: profile}

	svc.Client, err = profile.BuildClient(extra...)
	if err != nil {
		return nil, fmt.Errorf("build variational client: %w", err)
	}

	if profile.PrivateKey != "" {
		signer, err := variational.NewPrivateKeySigner(profile.PrivateKey)
		if err != nil {
			return nil, fmt.Errorf("load permit signer: %w", err)
		}
		if svc.Permits, err = variational.NewPermitHelper(svc.Client, signer); err != nil {
			return nil, err
		}
	}

	var pollOpts []polling.Option
	if c.Journal.Dir != "" {
		svc.Journal, err = journal.NewWriter(c.ResolvePath(c.Journal.Dir))
		if err != nil {
			return nil, err
		}
		pollOpts = append(pollOpts, polling.WithObserver(svc.Journal))
	}
	interval, attempts := profile.PollSettings()
	if svc.Poller, err = polling.New(interval, attempts, pollOpts...); err != nil {
		return nil, err
	}

	dirOpts := []assets.Option{assets.WithTTL(c.Assets.TTL)}
	if c.Redis.Host != "" {
		store, err := assets.NewRedisStore(c.Redis)
		if err != nil {
			// Memory-only caching still works; the listing is just not shared.
			logx.Errorf("asset cache disabled: %v", err)
		} else {
			dirOpts = append(dirOpts, assets.WithStore(store))
		}
	}
	svc.Assets = assets.NewDirectory(svc.Client, dirOpts...)

	if c.Postgres.DSN != "" {
		var syncOpts []ledger.SyncerOption
		if c.Ledger.Pool != "" {
			pool, err := uuid.Parse(c.Ledger.Pool)
			if err != nil {
				return nil, fmt.Errorf("config: ledger.pool: %w", err)
			}
			syncOpts = append(syncOpts, ledger.WithPool(pool))
		}
		conn := sqlx.NewSqlConn("pgx", c.Postgres.DSN)
		svc.DBConn = conn
		svc.Ledger = ledger.NewSQLStore(conn)
		svc.Syncer = ledger.NewSyncer(svc.Client, svc.Ledger, syncOpts...)
	}
	return svc, nil
}

// EnsureLedger creates the ledger schema; it fails when no DSN is configured.
func (s *ServiceContext) EnsureLedger(ctx context.Context) error {
	if s.DBConn == nil {
		return errors.New("ledger: Postgres.DSN not configured")
	}
	return ledger.EnsureSchema(ctx, s.DBConn)
}

func (s *ServiceContext) Close() error {
	if s.Journal != nil {
		return s.Journal.Close()
	}
	return nil
}
