package clickhouse

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"

	"trending/config"
	"trending/models"
)

// Client archives raw events into ClickHouse. The archive is append-only and
// exists for audit and replay; it is written after the dedup fence, so an
// event lands at most once.
type Client struct {
	conn     driver.Conn
	database string
}

func NewClient(cfg config.ClickHouseConfig) (*Client, error) {
	opts := &clickhouse.Options{
		Addr: []string{fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)},
		Auth: clickhouse.Auth{
			Database: cfg.Database,
			Username: cfg.Username,
			Password: cfg.Password,
		},
		Compression: &clickhouse.Compression{
			Method: clickhouse.CompressionLZ4,
		},
		MaxOpenConns: 10,
		MaxIdleConns: 5,
		DialTimeout:  time.Second * 30,
	}

	// Only use TLS if explicitly needed (when using HTTPS port 8443)
	// For native protocol on port 9000, don't use TLS by default
	if cfg.Port == 8443 {
		opts.TLS = &tls.Config{
			InsecureSkipVerify: true,
		}
	}

	conn, err := clickhouse.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to ClickHouse: %w", err)
	}

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := conn.Ping(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping ClickHouse: %w", err)
	}

	return &Client{
		conn:     conn,
		database: cfg.Database,
	}, nil
}

func (c *Client) Close() error {
	return c.conn.Close()
}

// InsertRawEvent appends one event to the Raw_Event archive table.
func (c *Client) InsertRawEvent(ctx context.Context, evt *models.RawEvent) error {
	query := fmt.Sprintf(`
		INSERT INTO %s.Raw_Event (
			event_id, event_type, actor_id, target_id, target_type,
			occurred_at, metadata, received_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, c.database)

	actorID := ""
	if evt.ActorID != nil {
		actorID = evt.ActorID.String()
	}

	metadata := "{}"
	if len(evt.Metadata) > 0 {
		raw, err := json.Marshal(evt.Metadata)
		if err != nil {
			return fmt.Errorf("marshal event metadata: %w", err)
		}
		metadata = string(raw)
	}

	return c.conn.Exec(ctx, query,
		evt.EventID.String(),
		string(evt.EventType),
		actorID,
		evt.TargetID.String(),
		string(evt.TargetType),
		evt.OccurredAt.UTC(),
		metadata,
		time.Now().UTC(),
	)
}

// CountEventsSince reports how many archived events carry an occurred_at at
// or after the given instant. main logs it at startup as an archive health
// check; replay tooling uses it to size a backfill.
func (c *Client) CountEventsSince(ctx context.Context, since time.Time) (uint64, error) {
	query := fmt.Sprintf(`
		SELECT count() FROM %s.Raw_Event WHERE occurred_at >= ?
	`, c.database)

	row := c.conn.QueryRow(ctx, query, since.UTC())

	var count uint64
	if err := row.Scan(&count); err != nil {
		return 0, fmt.Errorf("count archived events: %w", err)
	}
	return count, nil
}
