package store

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/farxc/contaazul-sync/internal/db"
)

type DelinquentStore struct {
	db *sqlx.DB
}

// Refresh rebuilds the 'inadimplentes' snapshot from unpaid receivables due
// between from and to. The swap is atomic: readers see the old or the new
// snapshot, never an empty table.
func (ds *DelinquentStore) Refresh(ctx context.Context, from, to time.Time) (int64, error) {
	var inserted int64
	err := db.WithTx(ctx, ds.db, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, delinquentsSchema); err != nil {
			return fmt.Errorf("failed to ensure delinquents table: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM inadimplentes`); err != nil {
			return fmt.Errorf("failed to clear delinquents: %w", err)
		}

		res, err := tx.ExecContext(ctx, `INSERT INTO inadimplentes (
				receber_id, cliente_id, nome_cliente, cnpj_cliente, valor_nao_pago, data_vencimento, status
			)
			SELECT a.id, a.cliente_id, a.cliente_nome, c.cnpj, a.nao_pago, a.data_vencimento, a.status
			FROM a_receber_turbo a
			LEFT JOIN LATERAL (
				SELECT cnpj FROM clientes_turbo WHERE nome = a.cliente_nome ORDER BY updated_at DESC LIMIT 1
			) c ON true
			WHERE a.data_vencimento BETWEEN $1 AND $2
				AND a.nao_pago > 0`, from, to)
		if err != nil {
			return fmt.Errorf("failed to insert delinquents: %w", err)
		}
		inserted, err = res.RowsAffected()
		return err
	})
	if err != nil {
		return 0, err
	}
	return inserted, nil
}
