package cli

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/mrlokans/clippings/internal/config"
	"github.com/mrlokans/clippings/internal/database"
	"github.com/mrlokans/clippings/internal/database/runs"
)

// StatusCommand prints the watermark, library totals and recent import runs.
type StatusCommand struct {
	DatabasePath string
	Limit        int
	Books        bool

	Out io.Writer
}

func NewStatusCommand(cfg *config.Config) *StatusCommand {
	return &StatusCommand{
		DatabasePath: cfg.Database.Path,
		Limit:        10,
		Out:          os.Stdout,
	}
}

func (cmd *StatusCommand) ParseFlags(args []string) error {
	fs := flag.NewFlagSet("status", flag.ContinueOnError)
	fs.StringVar(&cmd.DatabasePath, "db", cmd.DatabasePath, "Path to the local database file")
	fs.IntVar(&cmd.Limit, "runs", cmd.Limit, "Number of recent import runs to show")
	fs.BoolVar(&cmd.Books, "books", cmd.Books, "List every book with its highlight count")

	if err := fs.Parse(args); err != nil {
		return err
	}
	if cmd.Limit <= 0 {
		return fmt.Errorf("-runs must be positive")
	}
	return nil
}

func (cmd *StatusCommand) Run(ctx context.Context) error {
	db, err := database.NewDatabase(cmd.DatabasePath)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer db.Close()

	watermark, ok, err := db.GetWatermark(ctx)
	if err != nil {
		return err
	}
	if !ok {
		watermark = "(none, next import reads everything)"
	}

	stats, err := db.GetStats(ctx)
	if err != nil {
		return err
	}

	out := cmd.Out
	fmt.Fprintf(out, "Database:   %s\n", cmd.DatabasePath)
	fmt.Fprintf(out, "Watermark:  %s\n", watermark)
	fmt.Fprintf(out, "Books:      %d\n", stats.Books)
	fmt.Fprintf(out, "Highlights: %d\n", stats.Highlights)

	if cmd.Books {
		if err := printBooks(ctx, out, db); err != nil {
			return err
		}
	}

	list, err := runs.NewRepository(db.DB).Recent(ctx, cmd.Limit)
	if err != nil {
		return err
	}
	if len(list) == 0 {
		fmt.Fprintln(out, "\nNo import runs recorded yet.")
		return nil
	}

	colorize := shouldColorize(out)
	rows := make([][]string, 0, len(list))
	for _, run := range list {
		rows = append(rows, []string{
			run.StartedAt.Format("2006-01-02 15:04:05"),
			string(run.Source),
			runStatusCell(run.Status, colorize),
			strconv.Itoa(run.HighlightsCreated),
			strconv.Itoa(run.HighlightsExisting),
			strconv.Itoa(run.EntriesFailed + run.FormatErrors),
			run.Watermark,
		})
	}

	fmt.Fprintln(out)
	fmt.Fprintln(out, renderTable(
		[]string{"Started", "Source", "Status", "Created", "Existing", "Errors", "Watermark"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignRight, alignRight, alignLeft},
	))
	return nil
}

func printBooks(ctx context.Context, out io.Writer, db *database.Database) error {
	books, err := db.ListBooks(ctx)
	if err != nil {
		return fmt.Errorf("failed to list books: %w", err)
	}
	if len(books) == 0 {
		fmt.Fprintln(out, "\nNo books imported yet.")
		return nil
	}

	rows := make([][]string, 0, len(books))
	for _, b := range books {
		author := b.Author
		if author == "" {
			author = "(no author)"
		}
		rows = append(rows, []string{b.Title, author, strconv.FormatInt(b.Highlights, 10)})
	}

	fmt.Fprintln(out)
	fmt.Fprintln(out, renderTable(
		[]string{"Title", "Author", "Highlights"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignRight},
	))
	return nil
}
