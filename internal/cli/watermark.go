package cli

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/mrlokans/clippings/internal/config"
	"github.com/mrlokans/clippings/internal/database"
	"github.com/mrlokans/clippings/internal/database/runs"
	"github.com/mrlokans/clippings/internal/services"
)

// WatermarkCommand shows or resets the import watermark.
type WatermarkCommand struct {
	Action       string // "show" or "reset"
	DatabasePath string
	LockPath     string

	Out io.Writer
}

func NewWatermarkCommand(cfg *config.Config) *WatermarkCommand {
	return &WatermarkCommand{
		Action:       "show",
		DatabasePath: cfg.Database.Path,
		LockPath:     cfg.Import.LockPath,
		Out:          os.Stdout,
	}
}

func (cmd *WatermarkCommand) ParseFlags(args []string) error {
	if len(args) > 0 && (args[0] == "show" || args[0] == "reset") {
		cmd.Action = args[0]
		args = args[1:]
	}

	fs := flag.NewFlagSet("watermark", flag.ContinueOnError)
	fs.StringVar(&cmd.DatabasePath, "db", cmd.DatabasePath, "Path to the local database file")
	fs.StringVar(&cmd.LockPath, "lock", cmd.LockPath, "Import lock file (default <db>.lock)")
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s watermark [show|reset] [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "reset makes the next import resubmit every entry; existing highlights\n")
		fmt.Fprintf(os.Stderr, "are not duplicated.\n\n")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() > 0 {
		return fmt.Errorf("unknown watermark action: %s", fs.Arg(0))
	}
	return nil
}

func (cmd *WatermarkCommand) Run(ctx context.Context) error {
	db, err := database.NewDatabase(cmd.DatabasePath)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer db.Close()

	switch cmd.Action {
	case "reset":
		lockPath := cmd.LockPath
		if lockPath == "" {
			lockPath = cmd.DatabasePath + ".lock"
		}
		service := services.NewClippingsImportService(db, runs.NewRepository(db.DB), services.ClippingsImportConfig{LockPath: lockPath})
		if err := service.ResetWatermark(ctx); err != nil {
			return err
		}
		fmt.Fprintln(cmd.Out, "Watermark cleared. The next import will resubmit every entry.")
		return nil

	default:
		watermark, ok, err := db.GetWatermark(ctx)
		if err != nil {
			return err
		}
		if !ok {
			fmt.Fprintln(cmd.Out, "No watermark set")
			return nil
		}
		fmt.Fprintln(cmd.Out, watermark)
		return nil
	}
}
