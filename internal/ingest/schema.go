package ingest

const receivablesSchema = `
CREATE TABLE IF NOT EXISTS a_receber_turbo (
	id VARCHAR(64) PRIMARY KEY,
	status VARCHAR(50),
	total DECIMAL(15,2),
	descricao TEXT,
	data_vencimento DATE,
	nao_pago DECIMAL(15,2),
	pago DECIMAL(15,2),
	data_criacao TIMESTAMP,
	data_alteracao TIMESTAMP,
	cliente_id VARCHAR(64),
	cliente_nome VARCHAR(255),
	link_pagamento TEXT,
	status_clickup VARCHAR(100),
	created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
	updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);
ALTER TABLE a_receber_turbo ADD COLUMN IF NOT EXISTS status_clickup VARCHAR(100);
ALTER TABLE a_receber_turbo ADD COLUMN IF NOT EXISTS created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP;
ALTER TABLE a_receber_turbo ADD COLUMN IF NOT EXISTS updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP;
CREATE INDEX IF NOT EXISTS idx_receber_cliente_nome ON a_receber_turbo(cliente_nome);
CREATE INDEX IF NOT EXISTS idx_receber_vencimento ON a_receber_turbo(data_vencimento);
`

const payablesSchema = `
CREATE TABLE IF NOT EXISTS a_pagar_turbo (
	id VARCHAR(64) PRIMARY KEY,
	status VARCHAR(50),
	total DECIMAL(15,2),
	descricao TEXT,
	data_vencimento DATE,
	nao_pago DECIMAL(15,2),
	pago DECIMAL(15,2),
	data_criacao TIMESTAMP,
	data_alteracao TIMESTAMP,
	fornecedor VARCHAR(64),
	nome VARCHAR(255),
	created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
	updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);
ALTER TABLE a_pagar_turbo ADD COLUMN IF NOT EXISTS created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP;
ALTER TABLE a_pagar_turbo ADD COLUMN IF NOT EXISTS updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP;
CREATE INDEX IF NOT EXISTS idx_pagar_vencimento ON a_pagar_turbo(data_vencimento);
`

const customersSchema = `
CREATE TABLE IF NOT EXISTS clientes_turbo (
	id VARCHAR(64) PRIMARY KEY,
	nome VARCHAR(255),
	cnpj VARCHAR(20),
	email VARCHAR(255),
	telefone VARCHAR(50),
	endereco TEXT,
	created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
	updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_clientes_cnpj ON clientes_turbo(cnpj);
CREATE INDEX IF NOT EXISTS idx_clientes_nome ON clientes_turbo(nome);
`

const productsSchema = `
CREATE TABLE IF NOT EXISTS produtos_conta_azul (
	id VARCHAR(64) PRIMARY KEY,
	codigo VARCHAR(100),
	descricao VARCHAR(500),
	nome VARCHAR(255),
	tipo VARCHAR(50),
	status VARCHAR(20),
	unidade_medida VARCHAR(10),
	preco_venda DECIMAL(15,2),
	preco_custo DECIMAL(15,2),
	preco_compra DECIMAL(15,2),
	margem_lucro DECIMAL(5,2),
	categoria_id VARCHAR(64),
	categoria_nome VARCHAR(255),
	subcategoria_id VARCHAR(64),
	subcategoria_nome VARCHAR(255),
	marca VARCHAR(255),
	modelo VARCHAR(255),
	peso_bruto DECIMAL(10,3),
	peso_liquido DECIMAL(10,3),
	altura DECIMAL(10,3),
	largura DECIMAL(10,3),
	profundidade DECIMAL(10,3),
	codigo_barras VARCHAR(50),
	codigo_ncm VARCHAR(20),
	origem INTEGER,
	cest VARCHAR(20),
	controla_estoque BOOLEAN DEFAULT FALSE,
	estoque_atual DECIMAL(15,3),
	estoque_minimo DECIMAL(15,3),
	estoque_maximo DECIMAL(15,3),
	localizacao VARCHAR(255),
	observacoes TEXT,
	ativo BOOLEAN DEFAULT TRUE,
	created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
	updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_produtos_codigo ON produtos_conta_azul(codigo);
CREATE INDEX IF NOT EXISTS idx_produtos_categoria ON produtos_conta_azul(categoria_id);
`

const servicesSchema = `
CREATE TABLE IF NOT EXISTS servicos_conta_azul (
	id VARCHAR(64) PRIMARY KEY,
	codigo VARCHAR(100),
	descricao VARCHAR(500),
	nome VARCHAR(255),
	tipo_servico VARCHAR(50),
	status VARCHAR(20),
	preco DECIMAL(15,2),
	custo DECIMAL(15,2),
	margem_lucro DECIMAL(5,2),
	codigo_cnae VARCHAR(20),
	codigo_municipio_servico VARCHAR(20),
	lei_116 VARCHAR(100),
	natureza_operacional_id VARCHAR(64),
	categoria_id VARCHAR(64),
	categoria_nome VARCHAR(255),
	subcategoria_id VARCHAR(64),
	subcategoria_nome VARCHAR(255),
	unidade_medida VARCHAR(10),
	tempo_execucao INTEGER,
	observacoes TEXT,
	ativo BOOLEAN DEFAULT TRUE,
	id_externo VARCHAR(100),
	id_servico INTEGER,
	created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
	updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE TABLE IF NOT EXISTS servicos_cenarios_tributarios (
	id VARCHAR(128) PRIMARY KEY,
	servico_id VARCHAR(64) REFERENCES servicos_conta_azul(id),
	municipio_codigo INTEGER,
	municipio_nome VARCHAR(255),
	municipio_uf VARCHAR(2),
	inss_aliquota DECIMAL(5,2),
	iss_aliquota DECIMAL(5,2),
	iss_retido BOOLEAN DEFAULT FALSE,
	nome_usuario VARCHAR(255),
	ultima_atualizacao TIMESTAMP,
	created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
	updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_servicos_codigo ON servicos_conta_azul(codigo);
CREATE INDEX IF NOT EXISTS idx_cenarios_servico ON servicos_cenarios_tributarios(servico_id);
`

const salesSchema = `
CREATE TABLE IF NOT EXISTS vendas_conta_azul (
	id VARCHAR(64) PRIMARY KEY,
	numero INTEGER,
	data_venda TIMESTAMP,
	data_vencimento TIMESTAMP,
	cliente_id VARCHAR(64),
	cliente_nome VARCHAR(255),
	cliente_cnpj VARCHAR(20),
	vendedor_id VARCHAR(64),
	vendedor_nome VARCHAR(255),
	status VARCHAR(20),
	tipo VARCHAR(20),
	valor_total DECIMAL(15,2),
	valor_desconto DECIMAL(15,2),
	valor_liquido DECIMAL(15,2),
	observacoes TEXT,
	forma_pagamento VARCHAR(100),
	condicao_pagamento VARCHAR(100),
	transportadora_id VARCHAR(64),
	transportadora_nome VARCHAR(255),
	peso_bruto DECIMAL(10,3),
	peso_liquido DECIMAL(10,3),
	volume INTEGER,
	especie VARCHAR(100),
	marca VARCHAR(100),
	numero_volumes INTEGER,
	created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
	updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_vendas_data_venda ON vendas_conta_azul(data_venda);
CREATE INDEX IF NOT EXISTS idx_vendas_cliente_id ON vendas_conta_azul(cliente_id);
`

const invoicesSchema = `
CREATE TABLE IF NOT EXISTS notas_fiscais_conta_azul (
	id VARCHAR(64) PRIMARY KEY,
	numero INTEGER,
	serie VARCHAR(10),
	tipo VARCHAR(20),
	modelo VARCHAR(10),
	chave_acesso VARCHAR(50),
	data_emissao TIMESTAMP,
	data_vencimento TIMESTAMP,
	data_competencia TIMESTAMP,
	status VARCHAR(30),
	situacao VARCHAR(30),
	emitente_id VARCHAR(64),
	emitente_nome VARCHAR(255),
	emitente_cnpj VARCHAR(20),
	emitente_ie VARCHAR(20),
	emitente_endereco TEXT,
	destinatario_id VARCHAR(64),
	destinatario_nome VARCHAR(255),
	destinatario_cnpj VARCHAR(20),
	destinatario_cpf VARCHAR(15),
	destinatario_ie VARCHAR(20),
	destinatario_endereco TEXT,
	valor_total DECIMAL(15,2),
	valor_produtos DECIMAL(15,2),
	valor_servicos DECIMAL(15,2),
	valor_desconto DECIMAL(15,2),
	valor_frete DECIMAL(15,2),
	valor_seguro DECIMAL(15,2),
	valor_outras_despesas DECIMAL(15,2),
	valor_ipi DECIMAL(15,2),
	valor_icms DECIMAL(15,2),
	valor_pis DECIMAL(15,2),
	valor_cofins DECIMAL(15,2),
	valor_iss DECIMAL(15,2),
	valor_inss DECIMAL(15,2),
	valor_ir DECIMAL(15,2),
	valor_csll DECIMAL(15,2),
	natureza_operacao VARCHAR(255),
	cfop VARCHAR(10),
	municipio_prestacao_servico VARCHAR(255),
	codigo_municipio_prestacao INTEGER,
	modalidade_frete INTEGER,
	transportadora_id VARCHAR(64),
	transportadora_nome VARCHAR(255),
	peso_bruto DECIMAL(10,3),
	peso_liquido DECIMAL(10,3),
	volume INTEGER,
	observacoes TEXT,
	informacoes_adicionais TEXT,
	venda_id VARCHAR(64),
	created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
	updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE TABLE IF NOT EXISTS notas_fiscais_itens (
	id VARCHAR(80) PRIMARY KEY,
	nota_fiscal_id VARCHAR(64) REFERENCES notas_fiscais_conta_azul(id),
	produto_id VARCHAR(64),
	servico_id VARCHAR(64),
	codigo VARCHAR(100),
	descricao VARCHAR(500),
	quantidade DECIMAL(15,3),
	unidade VARCHAR(10),
	valor_unitario DECIMAL(15,2),
	valor_total DECIMAL(15,2),
	valor_desconto DECIMAL(15,2),
	ncm VARCHAR(20),
	cest VARCHAR(20),
	cfop VARCHAR(10),
	origem INTEGER,
	icms_situacao_tributaria VARCHAR(10),
	icms_aliquota DECIMAL(5,2),
	icms_valor DECIMAL(15,2),
	ipi_situacao_tributaria VARCHAR(10),
	ipi_aliquota DECIMAL(5,2),
	ipi_valor DECIMAL(15,2),
	pis_situacao_tributaria VARCHAR(10),
	pis_aliquota DECIMAL(5,2),
	pis_valor DECIMAL(15,2),
	cofins_situacao_tributaria VARCHAR(10),
	cofins_aliquota DECIMAL(5,2),
	cofins_valor DECIMAL(15,2),
	created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
	updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_nf_data_emissao ON notas_fiscais_conta_azul(data_emissao);
CREATE INDEX IF NOT EXISTS idx_nf_venda ON notas_fiscais_conta_azul(venda_id);
CREATE INDEX IF NOT EXISTS idx_nf_itens_nota ON notas_fiscais_itens(nota_fiscal_id);
`
