// Package crm loads the ClickUp account export into clientes_clickup.
package crm

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/go-gota/gota/dataframe"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	xunicode "golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"github.com/farxc/contaazul-sync/internal/ingest"
	"github.com/farxc/contaazul-sync/internal/logger"
	"github.com/farxc/contaazul-sync/internal/store"
)

type Options struct {
	Encoding  string
	Delimiter rune
}

func DefaultOptions() Options {
	return Options{Encoding: "windows-1252", Delimiter: ';'}
}

type AccountWriter interface {
	UpsertAccounts(ctx context.Context, accounts []store.CRMAccount) (int64, error)
}

type Result struct {
	Rows    int   `json:"rows"`
	Skipped int   `json:"skipped"`
	Written int64 `json:"written"`
}

type Importer struct {
	accounts AccountWriter
	log      *logger.Logger
}

func NewImporter(accounts AccountWriter, log *logger.Logger) *Importer {
	return &Importer{accounts: accounts, log: log}
}

func (im *Importer) ImportFile(ctx context.Context, path string, opts Options) (Result, error) {
	const component = "CRMImport"

	file, err := os.Open(path)
	if err != nil {
		return Result{}, fmt.Errorf("failed to open file %s: %w", path, err)
	}
	defer file.Close()

	accounts, skipped, err := Parse(file, opts)
	if err != nil {
		return Result{}, err
	}
	im.log.Info(component, "Parsed CRM export: file=%s accounts=%d skipped=%d", path, len(accounts), skipped)

	written, err := im.accounts.UpsertAccounts(ctx, accounts)
	if err != nil {
		return Result{}, err
	}
	im.log.Info(component, "CRM import complete: written=%d", written)
	return Result{Rows: len(accounts) + skipped, Skipped: skipped, Written: written}, nil
}

// Parse reads the export and returns one account per row carrying a tax ID.
// Rows without one are counted as skipped.
func Parse(r io.Reader, opts Options) ([]store.CRMAccount, int, error) {
	dec, err := decoder(opts.Encoding)
	if err != nil {
		return nil, 0, err
	}
	delim := opts.Delimiter
	if delim == 0 {
		delim = ';'
	}

	df := dataframe.ReadCSV(transform.NewReader(r, dec),
		dataframe.WithDelimiter(delim),
		dataframe.WithLazyQuotes(true),
		dataframe.DetectTypes(false),
	)
	if err := df.Error(); err != nil {
		return nil, 0, fmt.Errorf("failed to read CRM export: %w", err)
	}

	cols := mapHeaders(df.Names())
	if _, ok := cols[fieldCNPJ]; !ok {
		return nil, 0, fmt.Errorf("CRM export has no CNPJ column (headers: %s)", strings.Join(df.Names(), ", "))
	}

	get := func(field string, row int) string {
		name, ok := cols[field]
		if !ok {
			return ""
		}
		return cell(df.Col(name).Elem(row).String())
	}

	accounts := make([]store.CRMAccount, 0, df.Nrow())
	skipped := 0
	for i := 0; i < df.Nrow(); i++ {
		cnpj := ingest.DigitsOnly(get(fieldCNPJ, i))
		if cnpj == "" {
			skipped++
			continue
		}
		accounts = append(accounts, store.CRMAccount{
			CNPJ:        cnpj,
			Nome:        get(fieldNome, i),
			Responsavel: get(fieldResponsavel, i),
			Segmento:    get(fieldSegmento, i),
			Cluster:     get(fieldCluster, i),
			StatusConta: get(fieldStatusConta, i),
			Atividade:   get(fieldAtividade, i),
			Telefone:    get(fieldTelefone, i),
		})
	}
	return accounts, skipped, nil
}

func decoder(name string) (transform.Transformer, error) {
	var enc encoding.Encoding
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "utf-8", "utf8":
		enc = xunicode.UTF8BOM
	case "windows-1252", "cp1252":
		enc = charmap.Windows1252
	case "iso-8859-1", "latin1", "latin-1":
		enc = charmap.ISO8859_1
	default:
		return nil, fmt.Errorf("unsupported encoding %q", name)
	}
	return enc.NewDecoder(), nil
}

// cell maps the dataframe's missing-value marker back to an empty string.
func cell(s string) string {
	s = strings.TrimSpace(s)
	if s == "NaN" {
		return ""
	}
	return s
}
