package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
)

type CustomerStore struct {
	db *sqlx.DB
}

// CRMInfo is the account-health data imported from the CRM export.
type CRMInfo struct {
	Responsavel *string `db:"responsavel" json:"responsavel"`
	Segmento    *string `db:"segmento" json:"segmento"`
	Cluster     *string `db:"cluster" json:"cluster"`
	StatusConta *string `db:"status_conta" json:"status_conta"`
	Atividade   *string `db:"atividade" json:"atividade"`
	Telefone    *string `db:"telefone_crm" json:"telefone"`
}

// LTV aggregates a customer's receivables.
type LTV struct {
	TotalPago              float64 `db:"ltv_total_pago" json:"total_pago"`
	TotalFaturas           int64   `db:"ltv_total_faturas" json:"total_faturas"`
	ValorInadimplenteTotal float64 `db:"ltv_valor_inadimplente" json:"valor_inadimplente_total"`
	TotalPendente          float64 `db:"ltv_total_pendente" json:"total_pendente"`
}

type CustomerSummary struct {
	ID       string  `db:"id" json:"id"`
	Nome     *string `db:"nome" json:"nome"`
	CNPJ     *string `db:"cnpj" json:"cnpj"`
	Email    *string `db:"email" json:"email"`
	Telefone *string `db:"telefone" json:"telefone"`
	Endereco *string `db:"endereco" json:"endereco"`
	CRMInfo  `json:"crm"`
	LTV      `json:"ltv"`
}

type CustomerListing struct {
	ID            string  `db:"id" json:"id"`
	Nome          *string `db:"nome" json:"nome"`
	CNPJ          *string `db:"cnpj" json:"cnpj"`
	CRMInfo       `json:"crm"`
	TemPendencias bool `db:"tem_pendencias" json:"tem_pendencias"`
}

type DelinquentCustomer struct {
	ClienteNome          *string    `db:"cliente_nome" json:"cliente_nome"`
	CNPJ                 *string    `db:"cnpj" json:"cnpj"`
	ValorInadimplente    float64    `db:"valor_inadimplente" json:"valor_inadimplente"`
	FaturasVencidas      int64      `db:"faturas_vencidas" json:"faturas_vencidas"`
	VencimentoMaisAntigo *time.Time `db:"vencimento_mais_antigo" json:"vencimento_mais_antigo"`
}

func (cs *CustomerStore) GetSummaryByCNPJ(ctx context.Context, cnpj string) (*CustomerSummary, error) {
	query := `SELECT c.id, c.nome, c.cnpj, c.email, c.telefone, c.endereco,
		` + crmColumns + `,
		` + ltvColumns + `
		FROM clientes_turbo c
		` + crmJoin + `
		` + fmt.Sprintf(ltvJoin, "c.nome") + `
		WHERE c.cnpj = $1
		ORDER BY c.updated_at DESC
		LIMIT 1`

	var summary CustomerSummary
	err := cs.db.GetContext(ctx, &summary, query, cnpj)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query customer summary: %w", err)
	}
	return &summary, nil
}

func (cs *CustomerStore) List(ctx context.Context) ([]CustomerListing, error) {
	query := `SELECT c.id, c.nome, c.cnpj,
		` + crmColumns + `,
		EXISTS (
			SELECT 1 FROM a_receber_turbo a
			WHERE a.cliente_nome = c.nome AND a.nao_pago > 0 AND a.data_vencimento <= CURRENT_DATE
		) AS tem_pendencias
		FROM clientes_turbo c
		` + crmJoin + `
		ORDER BY c.nome`

	result := []CustomerListing{}
	if err := cs.db.SelectContext(ctx, &result, query); err != nil {
		return nil, fmt.Errorf("failed to list customers: %w", err)
	}
	return result, nil
}

func (cs *CustomerStore) TopDelinquent(ctx context.Context, limit int) ([]DelinquentCustomer, error) {
	query := `SELECT a.cliente_nome,
		MAX(c.cnpj) AS cnpj,
		SUM(a.nao_pago)::float8 AS valor_inadimplente,
		COUNT(*) AS faturas_vencidas,
		MIN(a.data_vencimento) AS vencimento_mais_antigo
		FROM a_receber_turbo a
		` + customerByName + `
		WHERE a.nao_pago > 0 AND a.data_vencimento < CURRENT_DATE
		GROUP BY a.cliente_nome
		ORDER BY valor_inadimplente DESC
		LIMIT $1`

	result := []DelinquentCustomer{}
	if err := cs.db.SelectContext(ctx, &result, query, limit); err != nil {
		return nil, fmt.Errorf("failed to query top delinquent customers: %w", err)
	}
	return result, nil
}
