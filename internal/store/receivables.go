package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
)

type ReceivableStore struct {
	db *sqlx.DB
}

// Receivable represents one 'a_receber_turbo' row with its collection status.
type Receivable struct {
	ID              string              `db:"id" json:"id"`
	Status          *string             `db:"status" json:"status"`
	Total           decimal.NullDecimal `db:"total" json:"total"`
	Descricao       *string             `db:"descricao" json:"descricao"`
	DataVencimento  *time.Time          `db:"data_vencimento" json:"data_vencimento"`
	NaoPago         decimal.NullDecimal `db:"nao_pago" json:"nao_pago"`
	Pago            decimal.NullDecimal `db:"pago" json:"pago"`
	DataCriacao     *time.Time          `db:"data_criacao" json:"data_criacao"`
	DataAlteracao   *time.Time          `db:"data_alteracao" json:"data_alteracao"`
	ClienteID       *string             `db:"cliente_id" json:"cliente_id"`
	ClienteNome     *string             `db:"cliente_nome" json:"cliente_nome"`
	LinkPagamento   *string             `db:"link_pagamento" json:"link_pagamento"`
	StatusClickup   *string             `db:"status_clickup" json:"status_clickup"`
	StatusCobranca  string              `db:"status_cobranca" json:"status_cobranca"`
	OrdemPrioridade int                 `db:"ordem_prioridade" json:"ordem_prioridade"`
}

// ReceivableDetail adds CRM and lifetime value data to a receivable.
type ReceivableDetail struct {
	Receivable
	CRMInfo `json:"crm"`
	LTV     `json:"ltv"`
}

func (rs *ReceivableStore) GetByID(ctx context.Context, id string) (*Receivable, error) {
	query := `SELECT ` + receivableColumns + `
		FROM a_receber_turbo a
		WHERE a.id = $1`

	var r Receivable
	err := rs.db.GetContext(ctx, &r, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query receivable: %w", err)
	}
	return &r, nil
}

// ListByCNPJ returns the full receivable history of a customer, overdue
// first, then due today, then future, then paid.
func (rs *ReceivableStore) ListByCNPJ(ctx context.Context, cnpj string) ([]Receivable, error) {
	query := `SELECT ` + receivableColumns + `
		FROM a_receber_turbo a
		WHERE a.cliente_nome IN (SELECT nome FROM clientes_turbo WHERE cnpj = $1)
		ORDER BY ordem_prioridade, a.data_vencimento DESC`

	result := []Receivable{}
	if err := rs.db.SelectContext(ctx, &result, query, cnpj); err != nil {
		return nil, fmt.Errorf("failed to query receivables by cnpj: %w", err)
	}
	return result, nil
}

// SearchOverdueByName matches customer names case-insensitively and returns
// their unpaid receivables due today or earlier.
func (rs *ReceivableStore) SearchOverdueByName(ctx context.Context, name string) ([]ReceivableDetail, error) {
	query := `SELECT ` + receivableColumns + `,
		` + crmColumns + `,
		` + ltvColumns + `
		FROM a_receber_turbo a
		` + customerByName + `
		` + crmJoin + `
		` + fmt.Sprintf(ltvJoin, "a.cliente_nome") + `
		WHERE a.cliente_nome ILIKE '%' || $1 || '%'
			AND a.nao_pago > 0
			AND a.data_vencimento <= CURRENT_DATE
		ORDER BY a.data_vencimento DESC`

	result := []ReceivableDetail{}
	if err := rs.db.SelectContext(ctx, &result, query, name); err != nil {
		return nil, fmt.Errorf("failed to search receivables by name: %w", err)
	}
	return result, nil
}
