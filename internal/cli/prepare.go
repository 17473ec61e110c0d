package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"iter"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/pendergraft/verifyprep/pkg/client"
)

func createPrepareCmd() *cobra.Command {
	var includeUnrelated bool
	var outDir string
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "prepare <deployment-id>",
		Short: "Prepare verification payloads for a deployment",
		Long: `Prepare one verification payload per successfully deployed contract.

Payloads are written as newline delimited JSON, one object per contract in
deployment order. On a terminal a summary table is shown instead, unless
--json is given. With --out every payload is written to its own file.

EXAMPLES:
  # Payloads for the optimism deployment in ./ignition/deployments
  verifyprep prepare chain-10

  # Keep every source of the build info
  verifyprep prepare chain-10 --include-unrelated

  # Write one file per contract
  verifyprep prepare chain-10 --out ./verification

  # Ask a verifyprep server
  verifyprep prepare chain-10 --server https://verifyprep.example.com
`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var include *bool
			if cmd.Flags().Changed("include-unrelated") {
				include = &includeUnrelated
			} else if config := loadProjectConfigSilent(); config != nil {
				include = config.IncludeUnrelated
			}

			if outDir != "" {
				if err := os.MkdirAll(outDir, 0755); err != nil {
					return fmt.Errorf("creating output directory: %w", err)
				}
			}

			b, err := openBackend(cmd.Context())
			if err != nil {
				return err
			}
			defer b.Close()

			seq, err := b.Prepare(cmd.Context(), args[0], include)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			switch {
			case outDir != "":
				return writeFiles(out, outDir, seq)
			case !jsonOutput && isTerminal(out):
				return writeTable(out, seq)
			default:
				return writeNDJSON(out, seq)
			}
		},
	}

	cmd.Flags().BoolVar(&includeUnrelated, "include-unrelated", false, "keep sources the contract does not import")
	cmd.Flags().StringVarP(&outDir, "out", "o", "", "write one JSON file per contract into this directory")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "write NDJSON even on a terminal")

	return cmd
}

// writeNDJSON writes one JSON object per line as results arrive.
func writeNDJSON(w io.Writer, seq iter.Seq2[*client.Verification, error]) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	for v, err := range seq {
		if err != nil {
			return err
		}
		if err := enc.Encode(v); err != nil {
			return err
		}
	}
	return nil
}

func writeTable(w io.Writer, seq iter.Seq2[*client.Verification, error]) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "CONTRACT\tADDRESS\tNETWORK\tCOMPILER\tARGS")
	n := 0
	for v, err := range seq {
		if err != nil {
			tw.Flush()
			return err
		}
		args := "-"
		if v.Info.Args != "" {
			args = fmt.Sprintf("%d bytes", len(v.Info.Args)/2)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", v.Info.Name, v.Info.Address, v.Chain.Network, v.Info.CompilerVersion, args)
		n++
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(w, "\n%d contract(s) ready for verification\n", n)
	return nil
}

// writeFiles writes each payload to <dir>/<contract>-<address>.json. dir
// must exist. Files written before a failure are kept.
func writeFiles(w io.Writer, dir string, seq iter.Seq2[*client.Verification, error]) error {
	for v, err := range seq {
		if err != nil {
			return err
		}

		data, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return err
		}
		path := filepath.Join(dir, payloadFileName(v))
		if err := os.WriteFile(path, append(data, '\n'), 0644); err != nil {
			return fmt.Errorf("writing %s: %w", path, err)
		}
		fmt.Fprintf(w, "✅ %s → %s\n", v.Info.Name, path)
	}
	return nil
}

// payloadFileName names a payload file after the contract and its address.
// Fully qualified names look like contracts/Token.sol:Token.
func payloadFileName(v *client.Verification) string {
	name := v.Info.Name
	if i := strings.LastIndex(name, ":"); i >= 0 {
		name = name[i+1:]
	}
	if name == "" {
		name = "contract"
	}
	return fmt.Sprintf("%s-%s.json", name, strings.ToLower(v.Info.Address))
}
