package cmd

import (
	"encoding/hex"
	"fmt"
	"io"
	"strings"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/ssargent/bytekit/pkg/api"
)

// stringArgs turns CLI arguments into codec arguments. Numeric directives
// parse them; byte directives take them verbatim.
func stringArgs(args []string) []any {
	out := make([]any, len(args))
	for i, a := range args {
		out[i] = a
	}
	return out
}

// decodeHex accepts "0x" prefixes and whitespace between bytes.
func decodeHex(s string) ([]byte, error) {
	s = strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	s = strings.Join(strings.Fields(s), "")
	data, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("invalid hex input: %w", err)
	}
	return data, nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func newPackCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pack <format> [args...]",
		Short: "Pack arguments into a binary blob",
		Long: `Pack arguments according to a format string and print the result as hex.

Examples:
  bytekit pack "<H s" 513 hello
  bytekit pack ">d" 3.5 --raw > value.bin
  bytekit pack "<h" -- -2`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := appFrom(cmd)
			if err != nil {
				return err
			}
			raw, _ := cmd.Flags().GetBool("raw")

			blob, err := a.cfg.NewCodec().Pack(args[0], stringArgs(args[1:])...)
			if err != nil {
				return err
			}
			if raw {
				_, err = cmd.OutOrStdout().Write(blob)
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), hex.EncodeToString(blob))
			return err
		},
	}
	cmd.Flags().Bool("raw", false, "Write raw bytes instead of hex")
	return cmd
}

func newUnpackCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "unpack <format> <hex|->",
		Short: "Unpack a binary blob into values",
		Long: `Unpack a hex-encoded blob (or raw bytes from stdin when the second
argument is "-") and print the values as JSON.

Examples:
  bytekit unpack "<H s" 0102050068656c6c6f
  bytekit unpack ">d" - < value.bin`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := appFrom(cmd)
			if err != nil {
				return err
			}

			var data []byte
			if args[1] == "-" {
				data, err = io.ReadAll(cmd.InOrStdin())
			} else {
				data, err = decodeHex(args[1])
			}
			if err != nil {
				return err
			}

			values, err := a.cfg.NewCodec().Unpack(args[0], data)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), api.DisplayValues(values))
		},
	}
	return cmd
}
