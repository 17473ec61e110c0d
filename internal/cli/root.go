// Package cli implements the verifyprep command line tool.
package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

var (
	cfgFile     string
	server      string
	deployments string
	verbose     bool
)

const defaultDeploymentsURL = "file://./ignition/deployments"

// Execute runs the CLI
func Execute(ctx context.Context, version string) error {
	return newRootCmd(version).ExecuteContext(ctx)
}

func newRootCmd(version string) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "verifyprep",
		Short: "Prepare block explorer verification payloads for Ignition deployments",
		Long: `verifyprep turns a Hardhat Ignition deployment into the payloads block explorer
verifiers expect: address, compiler version, standard JSON input, contract name
and ABI encoded constructor arguments, plus the chain the contract lives on.

Deployments are read directly from disk or a bucket, or from a verifyprep server
when --server is set.`,
		Version:      version,
		SilenceUsage: true,
	}

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: verifyprep.toml)")
	rootCmd.PersistentFlags().StringVar(&server, "server", "", "verifyprep server URL (default: read deployments locally)")
	rootCmd.PersistentFlags().StringVar(&deployments, "deployments", "", "bucket URL of the Ignition deployments directory (default "+defaultDeploymentsURL+")")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log progress to stderr")

	rootCmd.AddCommand(createPrepareCmd())
	rootCmd.AddCommand(createListCmd())
	rootCmd.AddCommand(createChainsCmd())
	rootCmd.AddCommand(createConfigCmd())

	return rootCmd
}

// getServer returns the server URL from flag, env, project config or global
// config. Empty means local mode.
func getServer() string {
	// 1. Command line flag
	if server != "" {
		return server
	}

	// 2. Environment variable
	if env := os.Getenv("VERIFYPREP_SERVER"); env != "" {
		return env
	}

	// 3. Project config file (TOML)
	if config := loadProjectConfigSilent(); config != nil && config.Server != "" {
		return config.Server
	}

	// 4. Global config (YAML)
	if global := loadGlobalConfigSilent(); global != nil {
		return global.Server
	}

	return ""
}

// getDeployments returns the bucket URL deployments are read from in local
// mode.
func getDeployments() string {
	if deployments != "" {
		return deployments
	}
	if env := os.Getenv("VERIFYPREP_DEPLOYMENTS"); env != "" {
		return env
	}
	if config := loadProjectConfigSilent(); config != nil && config.Deployments != "" {
		return config.Deployments
	}
	return defaultDeploymentsURL
}

func newLogger() *slog.Logger {
	if !verbose {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

// openBackend picks the remote backend when a server is configured and the
// local one otherwise.
func openBackend(ctx context.Context) (backend, error) {
	if url := getServer(); url != "" {
		return newRemoteBackend(url), nil
	}

	b, err := openLocalBackend(ctx, getDeployments(), projectChains(), newLogger())
	if err != nil {
		return nil, fmt.Errorf("opening deployments: %w", err)
	}
	return b, nil
}
