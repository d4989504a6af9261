package output

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/yuanmingwang/Profit-Maximizing-Simulation-of-Tim-Hortons-Using-a-Queueing-Network-Model/internal/models"
)

// PostgresSink stores each result row as jsonb, one table per topic kept as a
// (topic, payload) pair so schema changes never need a migration.
type PostgresSink struct {
	pool *pgxpool.Pool
}

const createResultsTable = `
	CREATE TABLE IF NOT EXISTS sim_results (
		id BIGSERIAL PRIMARY KEY,
		topic TEXT NOT NULL,
		payload JSONB NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`

func NewPostgresSink(cfg *models.DatabaseConfig) (*PostgresSink, error) {
	connStr := fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.DBName, cfg.SSLMode,
	)

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, connStr)
	if err != nil {
		return nil, fmt.Errorf("error connecting to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("error pinging database: %w", err)
	}
	if _, err := pool.Exec(ctx, createResultsTable); err != nil {
		pool.Close()
		return nil, fmt.Errorf("error creating results table: %w", err)
	}

	return &PostgresSink{pool: pool}, nil
}

func (p *PostgresSink) WriteMessage(topic string, msg []byte) error {
	_, err := p.pool.Exec(context.Background(),
		"INSERT INTO sim_results (topic, payload) VALUES ($1, $2)", topic, msg)
	if err != nil {
		return fmt.Errorf("failed to insert %s row: %w", topic, err)
	}
	return nil
}

func (p *PostgresSink) Close() error {
	p.pool.Close()
	return nil
}
