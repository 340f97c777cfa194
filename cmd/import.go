package cmd

import (
	"fmt"
	"os"

	"github.com/theirongolddev/costcmp/internal/cli"
	"github.com/theirongolddev/costcmp/internal/pipeline"
	"github.com/theirongolddev/costcmp/internal/store"

	"github.com/spf13/cobra"
)

var flagForce bool

var importCmd = &cobra.Command{
	Use:   "import FILE|DIR...",
	Short: "Import work order export files into the local store",
	Long: "Import completed work orders from export files into the local store.\n" +
		"Accepts JSON arrays, {\"data\": [...]} envelopes and JSON Lines (.jsonl).\n" +
		"Unchanged files are skipped unless --force is given.",
	Args: cobra.MinimumNArgs(1),
	RunE: runImport,
}

func init() {
	importCmd.Flags().BoolVar(&flagForce, "force", false, "Re-read files even if unchanged since the last import")
	rootCmd.AddCommand(importCmd)
}

func runImport(cmd *cobra.Command, args []string) error {
	st, err := store.Open(dbPath())
	if err != nil {
		return err
	}
	defer func() { _ = st.Close() }()

	progressf("  Scanning export files...\n")
	progressFn := func(current, total int) {
		if flagQuiet {
			return
		}
		fmt.Fprintf(os.Stderr, "\r  Parsing %s", cli.RenderProgressBar(current, total, 30))
		if current == total {
			fmt.Fprintln(os.Stderr)
		}
	}

	res, err := pipeline.ImportFiles(cmd.Context(), st, args, flagForce, progressFn)
	if err != nil {
		return err
	}

	rows := [][]string{
		{"Files found", cli.FormatNumber(int64(res.TotalFiles))},
		{"Unchanged", cli.FormatNumber(int64(res.Unchanged))},
		{"Parsed", cli.FormatNumber(int64(res.ParsedFiles))},
		{"Failed", cli.FormatNumber(int64(res.FileErrors))},
		cli.SeparatorRow,
		{"Records read", cli.FormatNumber(int64(len(res.Records)))},
		{"Duplicates", cli.FormatNumber(int64(res.Duplicates))},
		{"Skipped", cli.FormatNumber(int64(res.Skipped))},
		{"Stored", cli.FormatNumber(int64(res.Stored))},
	}
	fmt.Println()
	fmt.Print(cli.RenderTable(cli.Table{
		Title:   "Import into " + dbPath(),
		Headers: []string{"", "Count"},
		Rows:    rows,
	}))

	for _, e := range res.Errors {
		fmt.Fprintf(os.Stderr, "  failed: %v\n", e)
	}
	return nil
}
