package store

// Shared fragments of the collections queries.

// crmJoin keeps the most recent CRM row per tax ID.
const crmJoin = `LEFT JOIN (
	SELECT DISTINCT ON (cnpj) cnpj, responsavel, segmento, cluster, status_conta, atividade, telefone
	FROM clientes_clickup
	ORDER BY cnpj, id DESC
) ck ON c.cnpj = ck.cnpj`

const crmColumns = `ck.responsavel, ck.segmento, ck.cluster, ck.status_conta, ck.atividade, ck.telefone AS telefone_crm`

// ltvJoin aggregates receivables per customer name. Amounts are cast to
// float8 since they are only ever displayed.
const ltvJoin = `LEFT JOIN (
	SELECT cliente_nome,
		COALESCE(SUM(pago), 0)::float8 AS total_pago,
		COUNT(*) AS total_faturas,
		COALESCE(SUM(CASE WHEN nao_pago > 0 AND data_vencimento < CURRENT_DATE THEN nao_pago ELSE 0 END), 0)::float8 AS valor_inadimplente_total,
		COALESCE(SUM(nao_pago), 0)::float8 AS total_pendente
	FROM a_receber_turbo
	GROUP BY cliente_nome
) ltv ON ltv.cliente_nome = %s`

const ltvColumns = `COALESCE(ltv.total_pago, 0) AS ltv_total_pago,
	COALESCE(ltv.total_faturas, 0) AS ltv_total_faturas,
	COALESCE(ltv.valor_inadimplente_total, 0) AS ltv_valor_inadimplente,
	COALESCE(ltv.total_pendente, 0) AS ltv_total_pendente`

const receivableColumns = `a.id, a.status, a.total, a.descricao, a.data_vencimento, a.nao_pago, a.pago,
	a.data_criacao, a.data_alteracao, a.cliente_id, a.cliente_nome, a.link_pagamento, a.status_clickup,
	CASE
		WHEN a.nao_pago = 0 THEN 'pago'
		WHEN a.nao_pago > 0 AND a.data_vencimento < CURRENT_DATE THEN 'vencido'
		WHEN a.nao_pago > 0 AND a.data_vencimento = CURRENT_DATE THEN 'vence_hoje'
		WHEN a.nao_pago > 0 AND a.data_vencimento > CURRENT_DATE THEN 'futuro'
		ELSE 'indefinido'
	END AS status_cobranca,
	CASE
		WHEN a.nao_pago > 0 AND a.data_vencimento < CURRENT_DATE THEN 1
		WHEN a.nao_pago > 0 AND a.data_vencimento = CURRENT_DATE THEN 2
		WHEN a.nao_pago > 0 AND a.data_vencimento > CURRENT_DATE THEN 3
		WHEN a.nao_pago = 0 THEN 4
		ELSE 5
	END AS ordem_prioridade`

// customerByName resolves the first customer carrying a receivable's name.
const customerByName = `LEFT JOIN LATERAL (
	SELECT cnpj FROM clientes_turbo WHERE nome = a.cliente_nome ORDER BY updated_at DESC LIMIT 1
) c ON true`
