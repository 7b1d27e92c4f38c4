package bootstrap

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/rickd5991-stack/jenny-bot/internal/booking"
	appconfig "github.com/rickd5991-stack/jenny-bot/internal/config"
	"github.com/rickd5991-stack/jenny-bot/pkg/logging"
)

// BuildLedger picks the booking ledger named by LEDGER_BACKEND. The returned
// close func releases backend connections and is never nil.
func BuildLedger(ctx context.Context, cfg *appconfig.Config, awsCfg *aws.Config, logger *logging.Logger) (booking.Ledger, func(), error) {
	noop := func() {}
	if cfg == nil {
		return nil, noop, fmt.Errorf("bootstrap: config is required")
	}
	if logger == nil {
		logger = logging.Default()
	}

	switch cfg.LedgerBackend {
	case "", "memory":
		logger.Warn("booking ledger: memory; bookings are lost on restart")
		return booking.NewMemoryLedger(), noop, nil
	case "postgres":
		if cfg.DatabaseURL == "" {
			return nil, noop, fmt.Errorf("bootstrap: LEDGER_BACKEND=postgres requires DATABASE_URL")
		}
		pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, noop, fmt.Errorf("bootstrap: connect postgres: %w", err)
		}
		if err := pool.Ping(ctx); err != nil {
			pool.Close()
			return nil, noop, fmt.Errorf("bootstrap: ping postgres: %w", err)
		}
		logger.Info("booking ledger: postgres", "table", cfg.BookingsTable)
		return booking.NewPostgresLedger(pool, cfg.BookingsTable), pool.Close, nil
	case "dynamodb":
		if awsCfg == nil {
			return nil, noop, fmt.Errorf("bootstrap: LEDGER_BACKEND=dynamodb requires AWS config")
		}
		logger.Info("booking ledger: dynamodb", "table", cfg.BookingsTable)
		return booking.NewDynamoLedger(dynamodb.NewFromConfig(*awsCfg), cfg.BookingsTable), noop, nil
	default:
		return nil, noop, fmt.Errorf("bootstrap: unknown ledger backend %q", cfg.LedgerBackend)
	}
}
