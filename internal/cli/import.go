package cli

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/mrlokans/clippings/internal/clippings"
	"github.com/mrlokans/clippings/internal/config"
	"github.com/mrlokans/clippings/internal/database"
	"github.com/mrlokans/clippings/internal/database/runs"
	"github.com/mrlokans/clippings/internal/entities"
	"github.com/mrlokans/clippings/internal/importers"
	"github.com/mrlokans/clippings/internal/services"
)

// ImportCommand imports a Kindle "My Clippings.txt" into the local database,
// skipping entries older than the last successful import.
type ImportCommand struct {
	ClippingsPath    string
	DatabasePath     string
	LockPath         string
	StrictTimestamps bool
	Verbose          bool
	DryRun           bool

	Out io.Writer
}

func NewImportCommand(cfg *config.Config) *ImportCommand {
	return &ImportCommand{
		ClippingsPath:    cfg.Clippings.Path,
		DatabasePath:     cfg.Database.Path,
		LockPath:         cfg.Import.LockPath,
		StrictTimestamps: cfg.Import.StrictTimestamps,
		Out:              os.Stdout,
	}
}

func (cmd *ImportCommand) ParseFlags(args []string) error {
	fs := flag.NewFlagSet("import", flag.ContinueOnError)

	fs.StringVar(&cmd.ClippingsPath, "file", cmd.ClippingsPath, "Path to Kindle 'My Clippings.txt' file (default $CLIPPINGS_PATH)")
	fs.StringVar(&cmd.DatabasePath, "db", cmd.DatabasePath, "Path to the local database file")
	fs.StringVar(&cmd.LockPath, "lock", cmd.LockPath, "Import lock file (default <db>.lock)")
	fs.BoolVar(&cmd.StrictTimestamps, "strict", cmd.StrictTimestamps, "Abort on any malformed 'Added on' timestamp")
	fs.BoolVar(&cmd.Verbose, "verbose", false, "List every entry that would be or was submitted")
	fs.BoolVar(&cmd.DryRun, "dry-run", false, "Show what would be imported without making changes")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s import -file <path> [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Import highlights from Kindle 'My Clippings.txt' to a local database.\n")
		fmt.Fprintf(os.Stderr, "Only entries newer than the last successful import are submitted; entries\n")
		fmt.Fprintf(os.Stderr, "without a date are always submitted. Existing highlights are never duplicated.\n\n")
		fmt.Fprintf(os.Stderr, "The clippings file is typically found at:\n")
		fmt.Fprintf(os.Stderr, "  /Volumes/Kindle/documents/My Clippings.txt\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  %s import -file \"/Volumes/Kindle/documents/My Clippings.txt\"\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s import -file \"My Clippings.txt\" -dry-run -verbose\n", os.Args[0])
	}

	if err := fs.Parse(args); err != nil {
		return err
	}

	if cmd.ClippingsPath == "" {
		return fmt.Errorf("required flag -file not provided")
	}
	if cmd.DatabasePath == "" {
		cmd.DatabasePath = config.DefaultDatabasePath
	}

	return nil
}

func (cmd *ImportCommand) Run(ctx context.Context) error {
	out := cmd.Out
	fmt.Fprintln(out, "Kindle Clippings Import")
	fmt.Fprintln(out, "=======================")

	if cmd.DryRun {
		fmt.Fprintln(out, "DRY RUN MODE - No changes will be made")
		fmt.Fprintln(out)
	}

	if _, err := os.Stat(cmd.ClippingsPath); os.IsNotExist(err) {
		return fmt.Errorf("clippings file not found: %s", cmd.ClippingsPath)
	}
	fmt.Fprintf(out, "File: %s\n", cmd.ClippingsPath)

	absDBPath, err := filepath.Abs(cmd.DatabasePath)
	if err != nil {
		return fmt.Errorf("failed to get absolute path for database: %w", err)
	}
	cmd.DatabasePath = absDBPath
	fmt.Fprintf(out, "Database: %s\n", cmd.DatabasePath)

	db, err := database.NewDatabase(cmd.DatabasePath)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer db.Close()

	lockPath := cmd.LockPath
	if lockPath == "" {
		lockPath = cmd.DatabasePath + ".lock"
	}
	service := services.NewClippingsImportService(db, runs.NewRepository(db.DB), services.ClippingsImportConfig{
		LockPath:         lockPath,
		StrictTimestamps: cmd.StrictTimestamps,
	})

	if cmd.DryRun {
		text, err := clippings.ReadFile(cmd.ClippingsPath)
		if err != nil {
			return err
		}
		result, kept, err := service.Preview(ctx, text)
		if err != nil {
			return err
		}

		printResult(out, result)
		if cmd.Verbose {
			printEntries(out, kept)
		}
		fmt.Fprintf(out, "\n%d entries would be submitted. Use without -dry-run to import.\n", len(kept))
		return nil
	}

	report, err := service.ImportFile(ctx, cmd.ClippingsPath, entities.ImportSourceCLI)
	if report.RunID != "" {
		fmt.Fprintf(out, "Run: %s\n", report.RunID)
	}
	printResult(out, report.Result)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "\nImport complete! Watermark advanced to %s\n", report.Result.Watermark)
	return nil
}

func printResult(out io.Writer, result importers.Result) {
	previous := result.PreviousWatermark
	if previous == "" {
		previous = "(none)"
	}

	fmt.Fprintln(out)
	fmt.Fprintln(out, renderTable(
		[]string{"Metric", "Value"},
		[][]string{
			{"Previous watermark", previous},
			{"Entries parsed", strconv.Itoa(result.Parsed)},
			{"Records skipped", strconv.Itoa(result.Skipped)},
			{"Timestamp errors", strconv.Itoa(len(result.FormatErrors))},
			{"Already imported (by date)", strconv.Itoa(result.Filtered)},
			{"Entries submitted", strconv.Itoa(result.Submitted())},
			{"Highlights created", strconv.Itoa(result.HighlightsCreated)},
			{"Highlights existing", strconv.Itoa(result.HighlightsExisting)},
			{"Entries failed", strconv.Itoa(result.Failed)},
		},
		[]columnAlignment{alignLeft, alignRight},
	))

	if msgs := result.ErrorMessages(); len(msgs) > 0 {
		fmt.Fprintf(out, "\n%d errors occurred:\n", len(msgs))
		for _, msg := range msgs {
			fmt.Fprintf(out, "  [ERROR] %s\n", msg)
		}
	}
}

func printEntries(out io.Writer, entries []clippings.Entry) {
	if len(entries) == 0 {
		return
	}

	rows := make([][]string, 0, len(entries))
	for _, e := range entries {
		author := e.BookAuthor
		if author == "" {
			author = "(no author)"
		}
		added := ""
		if e.AddedAt != nil {
			added = *e.AddedAt
		}
		rows = append(rows, []string{e.BookTitle, author, e.Kind, e.Location, added})
	}

	fmt.Fprintln(out)
	fmt.Fprintln(out, renderTable(
		[]string{"Book", "Author", "Kind", "Location", "Added"},
		rows,
		nil,
	))
}
