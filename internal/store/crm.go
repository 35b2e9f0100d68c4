package store

import (
	"context"

	"github.com/farxc/contaazul-sync/internal/ingest"
)

// CRMAccount is one row of the CRM export, keyed by tax ID.
type CRMAccount struct {
	CNPJ        string
	Nome        string
	Responsavel string
	Segmento    string
	Cluster     string
	StatusConta string
	Atividade   string
	Telefone    string
}

type CRMStore struct {
	upserts *UpsertStore
}

var crmColumnNames = []string{"cnpj", "nome", "responsavel", "segmento", "cluster", "status_conta", "atividade", "telefone"}

// UpsertAccounts writes accounts in one transaction. Accounts sharing a
// tax ID collapse to the last one.
func (cs *CRMStore) UpsertAccounts(ctx context.Context, accounts []CRMAccount) (int64, error) {
	if err := cs.upserts.EnsureSchema(ctx, crmSchema); err != nil {
		return 0, err
	}

	batch := &ingest.Batch{Parent: ingest.RowSet{Table: "clientes_clickup", Key: "cnpj", Columns: crmColumnNames}}
	for _, a := range accounts {
		if a.CNPJ == "" {
			continue
		}
		batch.Add(ingest.Row{
			a.CNPJ,
			nullable(a.Nome),
			nullable(a.Responsavel),
			nullable(a.Segmento),
			nullable(a.Cluster),
			nullable(a.StatusConta),
			nullable(a.Atividade),
			nullable(a.Telefone),
		}, nil)
	}
	return cs.upserts.Write(ctx, batch)
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
