package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"tokenEngine/internal/model"
)

// Store provides Postgres persistence for the ledger. Each save replaces
// a collection inside a single transaction, matching the snapshot
// semantics of the file store.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore connects to Postgres and ensures the schema exists.
func NewStore(ctx context.Context, dsn string) (*Store, error) {
	if dsn == "" {
		return nil, fmt.Errorf("pg dsn is required")
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}

	store := &Store{pool: pool}
	if err := store.ensureSchema(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}
	return store, nil
}

// Close releases the connection pool.
func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

func (s *Store) ensureSchema(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS deployments (
			id BIGSERIAL PRIMARY KEY,
			chain_id TEXT NOT NULL,
			name TEXT NOT NULL,
			symbol TEXT NOT NULL,
			partitions TEXT[] NOT NULL DEFAULT '{}',
			owner_address TEXT NOT NULL DEFAULT '',
			wallet_id TEXT NOT NULL DEFAULT '',
			kind TEXT NOT NULL,
			status TEXT NOT NULL,
			custodian_tx_id TEXT NOT NULL DEFAULT '',
			chain_tx_hash TEXT NOT NULL DEFAULT '',
			contract_address TEXT NOT NULL DEFAULT '',
			created_at TEXT NOT NULL DEFAULT '',
			updated_at TEXT NOT NULL DEFAULT ''
		);
		CREATE TABLE IF NOT EXISTS issuance_events (
			tx_ref TEXT PRIMARY KEY,
			tx_ref_kind TEXT NOT NULL,
			chain_id TEXT NOT NULL,
			contract_address TEXT NOT NULL,
			partition TEXT NOT NULL,
			to_address TEXT NOT NULL,
			amount TEXT NOT NULL,
			event_ts BIGINT NOT NULL DEFAULT 0
		);
	`)
	return err
}

// Load reads the full ledger snapshot.
func (s *Store) Load(ctx context.Context) (model.Ledger, error) {
	var led model.Ledger

	rows, err := s.pool.Query(ctx, `
		SELECT chain_id, name, symbol, partitions, owner_address, wallet_id, kind, status,
		       custodian_tx_id, chain_tx_hash, contract_address, created_at, updated_at
		FROM deployments ORDER BY id
	`)
	if err != nil {
		return model.Ledger{}, fmt.Errorf("load deployments: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var d model.Deployment
		var kind, status string
		if err := rows.Scan(
			&d.ChainID, &d.Name, &d.Symbol, &d.Partitions, &d.Owner, &d.WalletID,
			&kind, &status, &d.CustodianTxID, &d.ChainTxHash, &d.ContractAddress,
			&d.CreatedAt, &d.UpdatedAt,
		); err != nil {
			return model.Ledger{}, fmt.Errorf("scan deployment: %w", err)
		}
		if d.Kind, err = model.ParseDeploymentKind(kind); err != nil {
			return model.Ledger{}, err
		}
		if d.Status, err = model.ParseDeploymentStatus(status); err != nil {
			return model.Ledger{}, err
		}
		led.Deployments = append(led.Deployments, d)
	}
	if err := rows.Err(); err != nil {
		return model.Ledger{}, fmt.Errorf("load deployments: %w", err)
	}

	eventRows, err := s.pool.Query(ctx, `
		SELECT tx_ref, tx_ref_kind, chain_id, contract_address, partition, to_address, amount, event_ts
		FROM issuance_events ORDER BY event_ts, tx_ref
	`)
	if err != nil {
		return model.Ledger{}, fmt.Errorf("load events: %w", err)
	}
	defer eventRows.Close()

	for eventRows.Next() {
		var ev model.IssuanceEvent
		var refValue, refKind string
		if err := eventRows.Scan(
			&refValue, &refKind, &ev.ChainID, &ev.ContractAddress,
			&ev.Partition, &ev.ToAddress, &ev.Amount, &ev.Timestamp,
		); err != nil {
			return model.Ledger{}, fmt.Errorf("scan event: %w", err)
		}
		ev.TxRef = model.TxRef{Kind: model.RefKind(refKind), Value: refValue}
		led.Events = append(led.Events, ev)
	}
	if err := eventRows.Err(); err != nil {
		return model.Ledger{}, fmt.Errorf("load events: %w", err)
	}

	return led, nil
}

// SaveDeployments replaces the deployments collection transactionally.
func (s *Store) SaveDeployments(ctx context.Context, deployments []model.Deployment) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM deployments`); err != nil {
		return fmt.Errorf("clear deployments: %w", err)
	}

	batch := &pgx.Batch{}
	for _, d := range deployments {
		batch.Queue(`
			INSERT INTO deployments (
				chain_id, name, symbol, partitions, owner_address, wallet_id, kind, status,
				custodian_tx_id, chain_tx_hash, contract_address, created_at, updated_at
			) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)
		`,
			d.ChainID, d.Name, d.Symbol, d.Partitions, d.Owner, d.WalletID,
			string(d.Kind), string(d.Status), d.CustodianTxID, d.ChainTxHash,
			d.ContractAddress, d.CreatedAt, d.UpdatedAt,
		)
	}
	if err := flushBatch(ctx, tx, batch, len(deployments)); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

// SaveEvents replaces the issuance event collection transactionally.
func (s *Store) SaveEvents(ctx context.Context, events []model.IssuanceEvent) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM issuance_events`); err != nil {
		return fmt.Errorf("clear events: %w", err)
	}

	batch := &pgx.Batch{}
	for _, ev := range events {
		batch.Queue(`
			INSERT INTO issuance_events (
				tx_ref, tx_ref_kind, chain_id, contract_address, partition, to_address, amount, event_ts
			) VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		`,
			ev.TxRef.Value, string(ev.TxRef.Kind), ev.ChainID, ev.ContractAddress,
			ev.Partition, ev.ToAddress, ev.Amount, ev.Timestamp,
		)
	}
	if err := flushBatch(ctx, tx, batch, len(events)); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

func flushBatch(ctx context.Context, tx pgx.Tx, batch *pgx.Batch, count int) error {
	if count == 0 {
		return nil
	}
	br := tx.SendBatch(ctx, batch)
	for i := 0; i < count; i++ {
		if _, err := br.Exec(); err != nil {
			br.Close()
			return fmt.Errorf("insert row: %w", err)
		}
	}
	return br.Close()
}
