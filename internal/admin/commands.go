package admin

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/eventledger/internal/config"
	"github.com/JonMunkholm/eventledger/internal/core"
	"github.com/JonMunkholm/eventledger/internal/logging"
	"github.com/JonMunkholm/eventledger/internal/storage"
)

// Ledger is an opened ledger and the function releasing its storage.
type Ledger struct {
	Service *core.Service
	Close   func() error
}

// OpenFunc opens the ledger the commands operate on.
type OpenFunc func(ctx context.Context) (*Ledger, error)

// OpenFromEnv loads the configuration from the environment, sends logs to
// stderr and opens the configured storage backend.
func OpenFromEnv(ctx context.Context) (*Ledger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	logging.SetupWriter(os.Stderr, cfg.Logging.Level, cfg.Logging.Format)

	store, err := storage.Open(ctx, cfg.Storage)
	if err != nil {
		return nil, fmt.Errorf("open %s storage: %w", cfg.Storage.Backend, err)
	}

	svc := core.NewService(ctx, storage.NewPersister(store), core.ServiceOptions{
		MaxConcurrentImports: cfg.Upload.MaxConcurrent,
		MaxImportWait:        cfg.Upload.MaxWaitTime,
	})
	return &Ledger{Service: svc, Close: store.Close}, nil
}

// NewRootCmd builds the ledgerctl command tree. Every subcommand opens the
// ledger with open before it runs and closes it afterwards, also when it
// fails.
func NewRootCmd(open OpenFunc) *cobra.Command {
	var ledger *Ledger

	root := &cobra.Command{
		Use:           "ledgerctl",
		Short:         "Maintain the event ledger storage",
		Long:          "ledgerctl works directly on the configured storage. Stop the server before writing to the same storage.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			l, err := open(cmd.Context())
			if err != nil {
				return err
			}
			ledger = l
			return nil
		},
	}

	svc := func() *core.Service { return ledger.Service }

	root.AddCommand(
		newExportCmd(svc),
		newImportJSONCmd(svc),
		newImportSheetCmd(svc),
		newResetCmd(svc),
		newListCmd(svc),
		newTypesCmd(svc),
	)

	closeAfterRun(root, func() error {
		if ledger == nil || ledger.Close == nil {
			return nil
		}
		l := ledger
		ledger = nil
		return l.Close()
	})
	return root
}

// closeAfterRun wraps the RunE of cmd and its descendants so closeLedger runs
// once the command returns. PersistentPostRunE is skipped when RunE fails.
func closeAfterRun(cmd *cobra.Command, closeLedger func() error) {
	for _, sub := range cmd.Commands() {
		closeAfterRun(sub, closeLedger)
	}
	if cmd.RunE == nil {
		return
	}

	runE := cmd.RunE
	cmd.RunE = func(cmd *cobra.Command, args []string) (err error) {
		defer func() {
			if cerr := closeLedger(); cerr != nil && err == nil {
				err = fmt.Errorf("close storage: %w", cerr)
			}
		}()
		return runE(cmd, args)
	}
}

func newExportCmd(svc func() *core.Service) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write a JSON backup of all events and types",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			snap, fileName := svc().Export()
			data, err := snap.MarshalIndented()
			if err != nil {
				return fmt.Errorf("encode backup: %w", err)
			}

			if output == "-" {
				_, err := cmd.OutOrStdout().Write(data)
				return err
			}
			if output == "" {
				output = fileName
			}
			if err := os.WriteFile(output, data, 0o644); err != nil {
				return fmt.Errorf("write backup: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "exported %d events and %d types to %s\n",
				len(snap.Events), len(snap.Types), output)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", `Output file (default: event_manager_backup_<date>.json, "-" for stdout)`)
	return cmd
}

func newImportJSONCmd(svc func() *core.Service) *cobra.Command {
	return &cobra.Command{
		Use:   "import-json <file>",
		Short: "Replace all events and types with a JSON backup",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read backup: %w", err)
			}
			res, err := svc().ImportSnapshot(cmd.Context(), data)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "imported %d events and %d types from %s (existing data overwritten)\n",
				res.Events, res.Types, args[0])
			return nil
		},
	}
}

func newImportSheetCmd(svc func() *core.Service) *cobra.Command {
	return &cobra.Command{
		Use:   "import-sheet <file>",
		Short: "Append the rows of an .xlsx, .xls or .csv spreadsheet",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("open spreadsheet: %w", err)
			}
			defer f.Close()

			res, err := svc().ImportSheet(cmd.Context(), filepath.Base(args[0]), f)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "imported %d rows (%d skipped) from %s, import id %s\n",
				res.Added, res.Skipped, res.FileName, res.ImportID)
			return nil
		},
	}
}

func newResetCmd(svc func() *core.Service) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Delete every event and restart ids at 1",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := Reset(cmd.Context(), svc(), yes)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted %d events\n", n)
			return nil
		},
	}

	cmd.Flags().BoolVar(&yes, "yes", false, "Confirm deleting every event")
	return cmd
}

func newListCmd(svc func() *core.Service) *cobra.Command {
	var filter core.EventFilter

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List events, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return writeEvents(cmd.OutOrStdout(), svc().ListEvents(filter))
		},
	}

	cmd.Flags().StringVar(&filter.Type, "type", "", "Only events with this type")
	cmd.Flags().StringVar(&filter.Person, "person", "", "Only events whose person contains this text")
	return cmd
}

func writeEvents(w io.Writer, events []core.Event) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tDATE\tTYPE\tPERSON\tAMOUNT\tNOTES")
	for _, ev := range events {
		amount := ""
		if ev.Amount != nil {
			amount = *ev.Amount
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\n", ev.ID, ev.Date, ev.Type, ev.Person, amount, ev.Notes)
	}
	return tw.Flush()
}

func newTypesCmd(svc func() *core.Service) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "types",
		Short: "Manage the type-tags",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "Print the type-tags in order",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				for _, t := range svc().ListTypes() {
					fmt.Fprintln(cmd.OutOrStdout(), t)
				}
				return nil
			},
		},
		&cobra.Command{
			Use:   "add <name>",
			Short: "Register a type-tag",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				types, err := svc().AddType(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "added %q, %d types\n", args[0], len(types))
				return nil
			},
		},
		&cobra.Command{
			Use:   "remove <name>",
			Short: "Remove a type-tag; events keep their type",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				types, err := svc().RemoveType(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "removed %q, %d types\n", args[0], len(types))
				return nil
			},
		},
	)
	return cmd
}
