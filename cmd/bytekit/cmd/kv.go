package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ssargent/bytekit/pkg/api"
	"github.com/ssargent/bytekit/pkg/storage"
)

func newGetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "get <key>",
		Short: "Get the value for a key",
		Long: `Get the value stored under a key. With --format the value is unpacked
and printed as JSON.

Examples:
  bytekit get mykey
  bytekit get --tree points --format "<l l" p1`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			format, _ := cmd.Flags().GetString("format")

			return withDB(cmd, func(db *storage.DB) error {
				tree, err := treeFlag(cmd, db, false)
				if err != nil {
					return err
				}
				if format != "" {
					values, err := tree.GetStruct([]byte(args[0]), format)
					if err != nil {
						return err
					}
					return writeJSON(cmd.OutOrStdout(), api.DisplayValues(values))
				}

				value, err := tree.Get([]byte(args[0]))
				if err != nil {
					return err
				}
				_, err = fmt.Fprintf(cmd.OutOrStdout(), "%s\n", value)
				return err
			})
		},
	}
	addTreeFlag(cmd)
	cmd.Flags().StringP("format", "f", "", "Unpack the value with this format")
	return cmd
}

func newPutCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "put <key> <value | args...>",
		Short: "Put a key-value pair",
		Long: `Store a value under a key. With --format the remaining arguments are
packed into the value.

Examples:
  bytekit put mykey myvalue
  bytekit put --tree points --format "<l l" -- p1 -3 4

Use "--" before arguments that start with a dash.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			format, _ := cmd.Flags().GetString("format")
			if format == "" && len(args) != 2 {
				return fmt.Errorf("put takes exactly one value without --format")
			}

			return withDB(cmd, func(db *storage.DB) error {
				tree, err := treeFlag(cmd, db, true)
				if err != nil {
					return err
				}
				key := []byte(args[0])
				if format != "" {
					err = tree.InsertStruct(key, format, stringArgs(args[1:])...)
				} else {
					err = tree.Insert(key, []byte(args[1]))
				}
				if err != nil {
					return err
				}
				cmd.Printf("Successfully put key '%s' in tree '%s'\n", args[0], tree.Name())
				return nil
			})
		},
	}
	addTreeFlag(cmd)
	cmd.Flags().StringP("format", "f", "", "Pack the remaining arguments with this format")
	return cmd
}

func newDeleteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "delete <key>",
		Short: "Delete a key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDB(cmd, func(db *storage.DB) error {
				tree, err := treeFlag(cmd, db, false)
				if err != nil {
					return err
				}
				removed, err := tree.Remove([]byte(args[0]))
				if err != nil {
					return err
				}
				if !removed {
					return fmt.Errorf("%w: %q", storage.ErrKeyNotFound, args[0])
				}
				cmd.Printf("Deleted key '%s'\n", args[0])
				return nil
			})
		},
	}
	addTreeFlag(cmd)
	return cmd
}

func newScanCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scan",
		Short: "List entries by prefix or inclusive key range",
		Long: `List entries of a tree in key order, one per line as key<TAB>value.

Examples:
  bytekit scan --prefix user:
  bytekit scan --start a --end m --limit 10
  bytekit scan --tree points --format "<l l"`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			prefix, _ := cmd.Flags().GetString("prefix")
			start, _ := cmd.Flags().GetString("start")
			end, _ := cmd.Flags().GetString("end")
			format, _ := cmd.Flags().GetString("format")
			limit, _ := cmd.Flags().GetInt("limit")

			ranged := cmd.Flags().Changed("start") || cmd.Flags().Changed("end")
			if ranged && !(cmd.Flags().Changed("start") && cmd.Flags().Changed("end")) {
				return fmt.Errorf("--start and --end must be given together")
			}
			if ranged && prefix != "" {
				return fmt.Errorf("--prefix cannot be combined with --start/--end")
			}

			return withDB(cmd, func(db *storage.DB) error {
				tree, err := treeFlag(cmd, db, false)
				if err != nil {
					return err
				}

				var it storage.Iterator
				if ranged {
					it, err = tree.Range([]byte(start), []byte(end))
				} else {
					it, err = tree.ScanPrefix([]byte(prefix))
				}
				if err != nil {
					return err
				}
				entries, err := storage.Collect(it, limit)
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				for _, e := range entries {
					if format == "" {
						fmt.Fprintf(out, "%s\t%s\n", e.Key, e.Value)
						continue
					}
					values, err := tree.Unpack(format, e.Value)
					if err != nil {
						return fmt.Errorf("value of %q: %w", e.Key, err)
					}
					fmt.Fprintf(out, "%s\t%v\n", e.Key, api.DisplayValues(values))
				}
				return nil
			})
		},
	}
	addTreeFlag(cmd)
	cmd.Flags().String("prefix", "", "Only keys starting with this prefix")
	cmd.Flags().String("start", "", "First key of an inclusive range")
	cmd.Flags().String("end", "", "Last key of an inclusive range")
	cmd.Flags().StringP("format", "f", "", "Unpack each value with this format")
	cmd.Flags().IntP("limit", "n", 0, "Maximum number of entries (0 = no limit)")
	return cmd
}
