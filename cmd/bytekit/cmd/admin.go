package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/ssargent/bytekit/pkg/storage"
)

func newTreesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "trees",
		Short: "List tree names",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDB(cmd, func(db *storage.DB) error {
				names, err := db.TreeNames()
				if err != nil {
					return err
				}
				for _, name := range names {
					fmt.Fprintln(cmd.OutOrStdout(), name)
				}
				return nil
			})
		},
	}
}

func newDropCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "drop <tree>",
		Short: "Drop a tree and all of its entries",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDB(cmd, func(db *storage.DB) error {
				dropped, err := db.DropTree(args[0])
				if err != nil {
					return err
				}
				if !dropped {
					return fmt.Errorf("%w: %q", storage.ErrTreeNotFound, args[0])
				}
				cmd.Printf("Dropped tree '%s'\n", args[0])
				return nil
			})
		},
	}
}

func newChecksumCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "checksum",
		Short: "Print a checksum of the whole store, or of one tree with --tree",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDB(cmd, func(db *storage.DB) error {
				var sum uint64
				var err error
				if cmd.Flags().Changed("tree") {
					tree, lookupErr := treeFlag(cmd, db, false)
					if lookupErr != nil {
						return lookupErr
					}
					sum, err = tree.Checksum()
				} else {
					sum, err = db.Checksum()
				}
				if err != nil {
					return err
				}
				_, err = fmt.Fprintf(cmd.OutOrStdout(), "%016x\n", sum)
				return err
			})
		},
	}
	addTreeFlag(cmd)
	return cmd
}

func newExportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "export <file|->",
		Short: "Export every tree to a file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var w io.Writer = cmd.OutOrStdout()
			if args[0] != "-" {
				f, err := os.Create(args[0])
				if err != nil {
					return fmt.Errorf("failed to create export file: %w", err)
				}
				defer f.Close()
				w = f
			}

			return withDB(cmd, func(db *storage.DB) error {
				n, err := db.Export(w)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.ErrOrStderr(), "Exported %d records\n", n)
				return nil
			})
		},
	}
}

func newImportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import <file|->",
		Short: "Import records from an export file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var r io.Reader = cmd.InOrStdin()
			if args[0] != "-" {
				f, err := os.Open(args[0])
				if err != nil {
					return fmt.Errorf("failed to open import file: %w", err)
				}
				defer f.Close()
				r = f
			}

			return withDB(cmd, func(db *storage.DB) error {
				n, err := db.Import(r)
				if err != nil {
					return fmt.Errorf("import stopped after %d records: %w", n, err)
				}
				fmt.Fprintf(cmd.ErrOrStderr(), "Imported %d records\n", n)
				return nil
			})
		},
	}
}

func newIDCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "id",
		Short: "Generate a unique, monotonically increasing ID",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDB(cmd, func(db *storage.DB) error {
				id, err := db.GenerateID()
				if err != nil {
					return err
				}
				_, err = fmt.Fprintln(cmd.OutOrStdout(), id)
				return err
			})
		},
	}
}
