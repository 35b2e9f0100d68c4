package main

import (
	"fmt"
	"unicode/utf8"

	"github.com/spf13/cobra"

	"github.com/farxc/contaazul-sync/internal/crm"
)

func importCRMCmd() *cobra.Command {
	defaults := crm.DefaultOptions()
	var (
		file      string
		encoding  string
		delimiter string
	)

	cmd := &cobra.Command{
		Use:   "import-crm",
		Short: "Import the ClickUp account export into clientes_clickup",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			delim, err := parseDelimiter(delimiter)
			if err != nil {
				return err
			}

			a := setup(cmd)
			defer a.Close()

			importer := crm.NewImporter(a.Storage.CRM, a.Log)
			res, err := importer.ImportFile(cmd.Context(), file, crm.Options{Encoding: encoding, Delimiter: delim})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "rows=%d skipped=%d written=%d\n", res.Rows, res.Skipped, res.Written)
			return nil
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "Path to the CSV export")
	cmd.Flags().StringVar(&encoding, "encoding", defaults.Encoding, "File encoding: windows-1252, iso-8859-1, utf-8")
	cmd.Flags().StringVar(&delimiter, "delimiter", string(defaults.Delimiter), "Field delimiter")
	cmd.MarkFlagRequired("file")
	return cmd
}

func parseDelimiter(s string) (rune, error) {
	if s == `\t` {
		return '\t', nil
	}
	if utf8.RuneCountInString(s) != 1 {
		return 0, fmt.Errorf("delimiter must be a single character, got %q", s)
	}
	r, _ := utf8.DecodeRuneInString(s)
	return r, nil
}
