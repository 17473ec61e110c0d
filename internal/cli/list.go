package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func createListCmd() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List deployments",
		Long: `List the deployments payloads can be prepared for.

EXAMPLES:
  verifyprep list
  verifyprep list --deployments s3://deploys?region=eu-west-1
  verifyprep list --json
`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := openBackend(cmd.Context())
			if err != nil {
				return err
			}
			defer b.Close()

			deployments, err := b.ListDeployments(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to list deployments: %w", err)
			}

			out := cmd.OutOrStdout()
			if jsonOutput {
				return printJSON(out, deployments)
			}
			if len(deployments) == 0 {
				fmt.Fprintln(out, "No deployments found")
				return nil
			}

			w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tCHAIN ID\tRECORDS\tCONTRACTS")
			for _, d := range deployments {
				fmt.Fprintf(w, "%s\t%d\t%d\t%d\n", d.ID, d.ChainID, d.Records, d.Contracts)
			}
			return w.Flush()
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "output as JSON")

	return cmd
}

func createChainsCmd() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "chains",
		Short: "List supported chains",
		Long: `List the chains payloads can be prepared for. Custom chains from
verifyprep.toml come first and override built-in chains with the same id.

EXAMPLES:
  verifyprep chains
  verifyprep chains --json
`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := openBackend(cmd.Context())
			if err != nil {
				return err
			}
			defer b.Close()

			list, err := b.Chains(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to list chains: %w", err)
			}

			out := cmd.OutOrStdout()
			if jsonOutput {
				return printJSON(out, list)
			}

			w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "NETWORK\tCHAIN ID\tEXPLORER")
			for _, c := range list {
				fmt.Fprintf(w, "%s\t%d\t%s\n", c.Network, c.ChainID, c.URLs.BrowserURL)
			}
			return w.Flush()
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "output as JSON")

	return cmd
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
