package cmd

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"time"

	"github.com/jottaiandra/lunnor-finance-hub-sub000/export"
	"github.com/jottaiandra/lunnor-finance-hub-sub000/ledger"
	"github.com/jottaiandra/lunnor-finance-hub-sub000/models"
	"github.com/jottaiandra/lunnor-finance-hub-sub000/services"
	"github.com/spf13/cobra"
)

var exportOpts struct {
	userID   string
	format   string
	out      string
	from     string
	to       string
	txType   string
	category string
	search   string
}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export a user's transactions to csv, xlsx or pdf",
	Long: `Export writes the transactions of one user, optionally filtered, in the
same formats the API offers for download.

Example:
  lunnor export --user abc123 --format pdf --out report.pdf --type expense`,
	Args: cobra.NoArgs,
	RunE: runExport,
}

func init() {
	f := exportCmd.Flags()
	f.StringVar(&exportOpts.userID, "user", "", "user id whose transactions are exported (required)")
	f.StringVar(&exportOpts.format, "format", "csv", "csv, xlsx or pdf")
	f.StringVar(&exportOpts.out, "out", "", "output file (default is stdout)")
	f.StringVar(&exportOpts.from, "from", "", "first day to include (YYYY-MM-DD)")
	f.StringVar(&exportOpts.to, "to", "", "last day to include (YYYY-MM-DD)")
	f.StringVar(&exportOpts.txType, "type", "", "income or expense")
	f.StringVar(&exportOpts.category, "category", "", "exact category name")
	f.StringVar(&exportOpts.search, "search", "", "text to look for in description, category or contact")

	exportCmd.MarkFlagRequired("user")
}

// exportFilter builds the filter described by the export flags.
func exportFilter(from, to, txType, category, search string) (ledger.FilterSpec, error) {
	f := ledger.FilterSpec{
		Type:       models.TransactionType(strings.ToLower(txType)),
		Category:   category,
		SearchTerm: search,
	}
	if from != "" {
		d, err := models.ParseDate(from)
		if err != nil {
			return f, fmt.Errorf("--from: %w", err)
		}
		f.StartDate = &d
	}
	if to != "" {
		d, err := models.ParseDate(to)
		if err != nil {
			return f, fmt.Errorf("--to: %w", err)
		}
		f.EndDate = &d
	}
	return f, f.Validate()
}

func runExport(cmd *cobra.Command, args []string) error {
	format, err := export.ParseFormat(exportOpts.format)
	if err != nil {
		return err
	}
	filter, err := exportFilter(exportOpts.from, exportOpts.to, exportOpts.txType, exportOpts.category, exportOpts.search)
	if err != nil {
		return err
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	db, err := openDatabase(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	transactions, err := services.NewTransactionService(db, nil, cfg.Recurrence.OccurrenceCount).
		ListFiltered(context.Background(), exportOpts.userID, filter)
	if err != nil {
		return err
	}

	var w io.Writer = cmd.OutOrStdout()
	if exportOpts.out != "" {
		file, err := os.Create(exportOpts.out)
		if err != nil {
			return fmt.Errorf("failed to create %s: %w", exportOpts.out, err)
		}
		defer file.Close()
		w = file
	}

	if err := export.Write(w, format, transactions, export.Options{GeneratedAt: time.Now()}); err != nil {
		return fmt.Errorf("failed to write export: %w", err)
	}
	log.Printf("Exported %d transactions for user %s as %s", len(transactions), exportOpts.userID, format)
	return nil
}
