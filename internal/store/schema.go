package store

import (
	"context"
	"fmt"

	"github.com/farxc/contaazul-sync/internal/ingest"
)

const syncRunsSchema = `
CREATE TABLE IF NOT EXISTS sync_runs (
	id BIGSERIAL PRIMARY KEY,
	entity VARCHAR(50) NOT NULL,
	trigger_type VARCHAR(20) NOT NULL,
	status VARCHAR(20) NOT NULL,
	window_from DATE,
	window_to DATE,
	pages INTEGER NOT NULL DEFAULT 0,
	fetched INTEGER NOT NULL DEFAULT 0,
	duplicates INTEGER NOT NULL DEFAULT 0,
	written BIGINT NOT NULL DEFAULT 0,
	write_errors INTEGER NOT NULL DEFAULT 0,
	aborted_scopes INTEGER NOT NULL DEFAULT 0,
	error_message TEXT,
	started_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
	finished_at TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_sync_runs_started ON sync_runs(started_at DESC);
`

const crmSchema = `
CREATE TABLE IF NOT EXISTS clientes_clickup (
	id SERIAL,
	cnpj VARCHAR(20) PRIMARY KEY,
	nome VARCHAR(255),
	responsavel VARCHAR(255),
	segmento VARCHAR(255),
	cluster VARCHAR(100),
	status_conta VARCHAR(100),
	atividade VARCHAR(255),
	telefone VARCHAR(50),
	created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
	updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);
`

const delinquentsSchema = `
CREATE TABLE IF NOT EXISTS inadimplentes (
	id SERIAL PRIMARY KEY,
	receber_id VARCHAR(64),
	cliente_id VARCHAR(64),
	nome_cliente VARCHAR(255),
	cnpj_cliente VARCHAR(20),
	valor_nao_pago DECIMAL(15,2),
	data_vencimento DATE,
	status VARCHAR(50),
	created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);
`

// Migrate creates every table the service reads or writes.
func (s *Storage) Migrate(ctx context.Context) error {
	scripts := []string{syncRunsSchema, crmSchema, delinquentsSchema}
	for _, name := range ingest.Names() {
		e, _ := ingest.Lookup(name)
		scripts = append(scripts, e.Schema)
	}

	for _, ddl := range scripts {
		if _, err := s.db.ExecContext(ctx, ddl); err != nil {
			return fmt.Errorf("failed to migrate schema: %w", err)
		}
	}
	return nil
}
