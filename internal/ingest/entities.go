package ingest

import (
	"fmt"
	"sort"
	"strings"
	"time"
	"unicode"
)

const (
	EntityReceivables = "receivables"
	EntityPayables    = "payables"
	EntityCustomers   = "customers"
	EntityProducts    = "products"
	EntityServices    = "services"
	EntitySales       = "sales"
	EntityInvoices    = "invoices"
)

// Sequences are the named multi-entity runs, in execution order.
var Sequences = map[string][]string{
	"finance": {EntityCustomers, EntityReceivables, EntityPayables},
	"catalog": {EntityProducts, EntityServices, EntitySales, EntityInvoices},
	"all": {
		EntityCustomers, EntityReceivables, EntityPayables,
		EntityProducts, EntityServices, EntitySales, EntityInvoices,
	},
}

const financialEventsPath = "/v1/financeiro/eventos-financeiros"

var entities = map[string]Entity{
	EntityReceivables: {
		Name: EntityReceivables,
		Resource: Resource{
			Name:          EntityReceivables,
			Path:          financialEventsPath + "/contas-a-receber/buscar",
			PageParam:     "pagina",
			SizeParam:     "tamanho_pagina",
			PageSize:      50,
			ItemsKeys:     []string{"itens"},
			Pacing:        3 * time.Second,
			DateFromParam: "data_vencimento_de",
			DateToParam:   "data_vencimento_ate",
		},
		Table: Table{
			Name: "a_receber_turbo",
			Key:  "id",
			Columns: Columns(
				financialEventColumns(),
				Promote("cliente", "cliente", "id", "nome"),
				[]Column{From("link_pagamento", "payment_url")},
			),
		},
		Schema:   receivablesSchema,
		DayPause: 150 * time.Millisecond,
	},

	EntityPayables: {
		Name: EntityPayables,
		Resource: Resource{
			Name:          EntityPayables,
			Path:          financialEventsPath + "/contas-a-pagar/buscar",
			PageParam:     "pagina",
			SizeParam:     "tamanho_pagina",
			PageSize:      50,
			ItemsKeys:     []string{"itens"},
			Pacing:        time.Second,
			DateFromParam: "data_vencimento_de",
			DateToParam:   "data_vencimento_ate",
		},
		Table: Table{
			Name: "a_pagar_turbo",
			Key:  "id",
			Columns: Columns(
				financialEventColumns(),
				[]Column{From("fornecedor", "fornecedor.id"), From("nome", "fornecedor.nome")},
			),
		},
		Schema:   payablesSchema,
		DayPause: 150 * time.Millisecond,
	},

	EntityCustomers: {
		Name: EntityCustomers,
		Resource: Resource{
			Name:       EntityCustomers,
			Path:       "/v1/pessoa",
			PageParam:  "pagina",
			SizeParam:  "tamanho_pagina",
			PageSize:   50,
			ItemsKeys:  []string{"itens", "items"},
			Pacing:     time.Second,
			RetryDelay: 10 * time.Second,
		},
		Table: Table{
			Name: "clientes_turbo",
			Key:  "id",
			Columns: []Column{
				Col("id"),
				Col("nome"),
				{Name: "cnpj", Derive: func(r Record) any { return nullIfEmpty(DigitsOnly(r.String("documento"))) }},
				Col("email"),
				Col("telefone"),
				{Name: "endereco", Derive: composeAddress},
			},
		},
		Schema: customersSchema,
	},

	EntityProducts: {
		Name: EntityProducts,
		Resource: Resource{
			Name:       EntityProducts,
			Path:       "/v1/produtos",
			PageParam:  "page",
			ItemsKeys:  []string{"items", "itens"},
			Exhaustion: true,
		},
		Table: Table{
			Name: "produtos_conta_azul",
			Key:  "id",
			Columns: Columns(
				[]Column{
					Col("id"),
					From("codigo", "código"),
					Col("descricao"),
					Col("nome"),
					Col("tipo"),
					Col("status"),
					Col("unidade_medida"),
					From("preco_venda", "valor_venda"),
					From("preco_custo", "custo_medio"),
					Col("preco_compra"),
					Col("margem_lucro"),
				},
				Promote("categoria", "categoria", "id", "nome"),
				Promote("subcategoria", "subcategoria", "id", "nome"),
				[]Column{
					Col("marca"),
					Col("modelo"),
					Col("peso_bruto"),
					Col("peso_liquido"),
					From("altura", "dimensoes.altura"),
					From("largura", "dimensoes.largura"),
					From("profundidade", "dimensoes.profundidade"),
					From("codigo_barras", "ean"),
					Col("codigo_ncm"),
					Col("origem"),
					Col("cest"),
					{Name: "controla_estoque", Default: false},
					From("estoque_atual", "saldo"),
					Col("estoque_minimo"),
					Col("estoque_maximo"),
					Col("localizacao"),
					Col("observacoes"),
					{Name: "ativo", Derive: func(r Record) any { return r.String("status") == "ATIVO" }},
				},
			),
		},
		Schema: productsSchema,
	},

	EntityServices: {
		Name:     EntityServices,
		Resource: catalogResource(EntityServices, "/v1/servicos"),
		Table: Table{
			Name: "servicos_conta_azul",
			Key:  "id",
			Columns: Columns(
				[]Column{
					Col("id"),
					Col("codigo"),
					Col("descricao"),
					Col("nome"),
					Col("tipo_servico"),
					Col("status"),
					Col("preco"),
					Col("custo"),
					Col("margem_lucro"),
					Col("codigo_cnae"),
					Col("codigo_municipio_servico"),
					Col("lei_116"),
					From("natureza_operacional_id", "natureza_operacional.id"),
				},
				Promote("categoria", "categoria", "id", "nome"),
				Promote("subcategoria", "subcategoria", "id", "nome"),
				[]Column{
					Col("unidade_medida"),
					Col("tempo_execucao"),
					Col("observacoes"),
					{Name: "ativo", Default: true},
					Col("id_externo"),
					Col("id_servico"),
				},
			),
		},
		Children: []Child{{
			Table: Table{
				Name: "servicos_cenarios_tributarios",
				Key:  "id",
				Columns: Columns(
					Promote("municipio", "municipio", "codigo", "nome", "uf"),
					[]Column{
						{Name: "inss_aliquota", Float: true},
						{Name: "iss_aliquota", Float: true},
						{Name: "iss_retido", Default: false},
						Col("nome_usuario"),
						Col("ultima_atualizacao"),
					},
				),
			},
			Items:        "lista_cenario_tributario",
			ParentColumn: "servico_id",
			// Scenarios without a municipality fall back to their list position.
			ID: func(parentID string, index int, item Record) string {
				if code := item.String("municipio.codigo"); code != "" {
					return parentID + "_" + code
				}
				return fmt.Sprintf("%s_i%d", parentID, index)
			},
		}},
		Schema: servicesSchema,
	},

	EntitySales: {
		Name:     EntitySales,
		Resource: catalogResource(EntitySales, "/v1/vendas"),
		Table: Table{
			Name: "vendas_conta_azul",
			Key:  "id",
			Columns: Columns(
				[]Column{Col("id"), Col("numero"), Col("data_venda"), Col("data_vencimento")},
				Promote("cliente", "cliente", "id", "nome", "cnpj"),
				Promote("vendedor", "vendedor", "id", "nome"),
				[]Column{
					Col("status"),
					Col("tipo"),
					Col("valor_total"),
					Col("valor_desconto"),
					Col("valor_liquido"),
					Col("observacoes"),
					Col("forma_pagamento"),
					Col("condicao_pagamento"),
				},
				Promote("transportadora", "transportadora", "id", "nome"),
				[]Column{
					Col("peso_bruto"),
					Col("peso_liquido"),
					Col("volume"),
					Col("especie"),
					Col("marca"),
					Col("numero_volumes"),
				},
			),
		},
		Schema: salesSchema,
	},

	EntityInvoices: {
		Name:     EntityInvoices,
		Resource: catalogResource(EntityInvoices, "/v1/notas-fiscais"),
		Table: Table{
			Name: "notas_fiscais_conta_azul",
			Key:  "id",
			Columns: Columns(
				[]Column{
					Col("id"), Col("numero"), Col("serie"), Col("tipo"), Col("modelo"),
					Col("chave_acesso"), Col("data_emissao"), Col("data_vencimento"),
					Col("data_competencia"), Col("status"), Col("situacao"),
				},
				Promote("emitente", "emitente", "id", "nome", "cnpj"),
				[]Column{
					From("emitente_ie", "emitente.inscricao_estadual"),
					{Name: "emitente_endereco", Path: "emitente.endereco", JSON: true},
				},
				Promote("destinatario", "destinatario", "id", "nome", "cnpj", "cpf"),
				[]Column{
					From("destinatario_ie", "destinatario.inscricao_estadual"),
					{Name: "destinatario_endereco", Path: "destinatario.endereco", JSON: true},
				},
				Promote("valores", "valor", "total", "produtos", "servicos", "desconto", "frete", "seguro", "outras_despesas"),
				Promote("valores.impostos", "valor", "ipi", "icms", "pis", "cofins", "iss", "inss", "ir", "csll"),
				[]Column{
					Col("natureza_operacao"),
					Col("cfop"),
					Col("municipio_prestacao_servico"),
					Col("codigo_municipio_prestacao"),
					From("modalidade_frete", "transporte.modalidade_frete"),
				},
				Promote("transporte.transportadora", "transportadora", "id", "nome"),
				[]Column{
					From("peso_bruto", "transporte.peso_bruto"),
					From("peso_liquido", "transporte.peso_liquido"),
					From("volume", "transporte.volume"),
					Col("observacoes"),
					Col("informacoes_adicionais"),
					Col("venda_id"),
				},
			),
		},
		Children: []Child{{
			Table: Table{
				Name: "notas_fiscais_itens",
				Key:  "id",
				Columns: Columns(
					[]Column{
						Col("produto_id"), Col("servico_id"), Col("codigo"), Col("descricao"),
						Col("quantidade"), Col("unidade"), Col("valor_unitario"), Col("valor_total"),
						Col("valor_desconto"), Col("ncm"), Col("cest"), Col("cfop"), Col("origem"),
					},
					Promote("impostos.icms", "icms", "situacao_tributaria", "aliquota", "valor"),
					Promote("impostos.ipi", "ipi", "situacao_tributaria", "aliquota", "valor"),
					Promote("impostos.pis", "pis", "situacao_tributaria", "aliquota", "valor"),
					Promote("impostos.cofins", "cofins", "situacao_tributaria", "aliquota", "valor"),
				),
			},
			Items:        "itens",
			ParentColumn: "nota_fiscal_id",
			ID: func(parentID string, index int, _ Record) string {
				return fmt.Sprintf("%s_%d", parentID, index+1)
			},
		}},
		Schema: invoicesSchema,
	},
}

func financialEventColumns() []Column {
	return []Column{
		Col("id"),
		Col("status"),
		Col("total"),
		Col("descricao"),
		Col("data_vencimento"),
		Col("nao_pago"),
		Col("pago"),
		Col("data_criacao"),
		Col("data_alteracao"),
	}
}

func catalogResource(name, path string) Resource {
	return Resource{
		Name:      name,
		Path:      path,
		PageParam: "page",
		SizeParam: "size",
		PageSize:  100,
		ItemsKeys: []string{"itens", "items"},
	}
}

// Lookup returns the configuration of a named entity.
func Lookup(name string) (Entity, bool) {
	e, ok := entities[strings.ToLower(strings.TrimSpace(name))]
	return e, ok
}

// Names lists every known entity, sorted.
func Names() []string {
	names := make([]string, 0, len(entities))
	for n := range entities {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// DigitsOnly strips formatting from tax IDs and phone numbers.
func DigitsOnly(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsDigit(r) {
			return r
		}
		return -1
	}, s)
}

func composeAddress(r Record) any {
	addr := r.Object("endereco")
	if addr == nil {
		return nil
	}
	return fmt.Sprintf("%s, %s - %s, %s/%s, %s",
		addr.String("logradouro"),
		addr.String("numero"),
		addr.String("bairro"),
		addr.String("cidade"),
		addr.String("estado"),
		addr.String("cep"),
	)
}

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}
