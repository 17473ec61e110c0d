package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/pendergraft/verifyprep/internal/chains"
)

const projectConfigFile = "verifyprep.toml"

// ProjectConfig is the project-level TOML configuration
type ProjectConfig struct {
	Server           string               `toml:"server,omitempty"`
	Deployments      string               `toml:"deployments,omitempty"`
	IncludeUnrelated *bool                `toml:"include_unrelated,omitempty"`
	Chains           []chains.ChainConfig `toml:"chains,omitempty"`
}

// GlobalConfig is the per-user configuration (stored in ~/.verifyprep/config.yaml)
type GlobalConfig struct {
	Server string `yaml:"server"`
}

func createConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration commands",
	}

	cmd.AddCommand(createConfigInitCmd())
	cmd.AddCommand(createConfigShowCmd())

	return cmd
}

func createConfigInitCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create config file",
		Long: `Create a verifyprep.toml configuration file in the current directory.

EXAMPLES:
  verifyprep config init
  verifyprep config init --force
`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigInit(cmd, force)
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "overwrite existing config")

	return cmd
}

func createConfigShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Display current config",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigShow(cmd)
		},
	}
}

const projectConfigTemplate = `# verifyprep project configuration

# Ignition deployments directory, as a bucket URL (file://, s3://, gs://)
deployments = "file://./ignition/deployments"

# Read deployments from a verifyprep server instead
# server = "http://localhost:8080"

# Keep every source of the build info, not only the contract's imports
include_unrelated = false

# Chains not known to verifyprep, or overrides for known ones.
# Custom chains win over the built-in list.
# [[chains]]
# network = "hardhat"
# chain_id = 31337
# urls = { api_url = "http://localhost:4000/api", browser_url = "http://localhost:4000" }
`

func runConfigInit(cmd *cobra.Command, force bool) error {
	path := projectConfigFile
	if cfgFile != "" {
		path = cfgFile
	}

	if _, err := os.Stat(path); err == nil && !force {
		return fmt.Errorf("config file already exists at %s (use --force to overwrite)", path)
	}

	if err := os.WriteFile(path, []byte(projectConfigTemplate), 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Created %s\n", path)
	return nil
}

func runConfigShow(cmd *cobra.Command) error {
	out := cmd.OutOrStdout()

	fmt.Fprintln(out, "Configuration sources (in order of precedence):")
	fmt.Fprintln(out)

	fmt.Fprintln(out, "1. Command line flags")
	fmt.Fprintln(out, "   --server, --deployments, --config")
	fmt.Fprintln(out)

	fmt.Fprintln(out, "2. Environment variables")
	for _, name := range []string{"VERIFYPREP_SERVER", "VERIFYPREP_DEPLOYMENTS"} {
		if v := os.Getenv(name); v != "" {
			fmt.Fprintf(out, "   %s=%s\n", name, v)
		} else {
			fmt.Fprintf(out, "   %s=(not set)\n", name)
		}
	}
	fmt.Fprintln(out)

	fmt.Fprintf(out, "3. Project config (%s)\n", projectConfigFile)
	project, path, err := loadProjectConfig()
	switch {
	case errors.Is(err, fs.ErrNotExist):
		fmt.Fprintln(out, "   (not found)")
	case err != nil:
		fmt.Fprintf(out, "   Error: %v\n", err)
	default:
		fmt.Fprintf(out, "   Loaded from: %s\n", path)
		if project.Server != "" {
			fmt.Fprintf(out, "   server: %s\n", project.Server)
		}
		if project.Deployments != "" {
			fmt.Fprintf(out, "   deployments: %s\n", project.Deployments)
		}
		if project.IncludeUnrelated != nil {
			fmt.Fprintf(out, "   include_unrelated: %t\n", *project.IncludeUnrelated)
		}
		for _, c := range project.Chains {
			fmt.Fprintf(out, "   chain: %s (%d)\n", c.Network, c.ChainID)
		}
	}
	fmt.Fprintln(out)

	fmt.Fprintf(out, "4. Global config (%s)\n", globalConfigPath())
	global, err := loadGlobalConfig()
	switch {
	case errors.Is(err, fs.ErrNotExist):
		fmt.Fprintln(out, "   (not found)")
	case err != nil:
		fmt.Fprintf(out, "   Error: %v\n", err)
	case global.Server != "":
		fmt.Fprintf(out, "   server: %s\n", global.Server)
	}
	fmt.Fprintln(out)

	fmt.Fprintln(out, "Effective configuration:")
	if s := getServer(); s != "" {
		fmt.Fprintf(out, "   Server:      %s\n", s)
	} else {
		fmt.Fprintf(out, "   Deployments: %s\n", getDeployments())
	}

	return nil
}

// loadProjectConfig loads the project config from --config or the current
// directory. Returns the config, the path it was loaded from, and an error.
func loadProjectConfig() (*ProjectConfig, string, error) {
	path := projectConfigFile
	if cfgFile != "" {
		path = cfgFile
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, path, err
	}

	var config ProjectConfig
	if _, err := toml.Decode(string(data), &config); err != nil {
		return nil, path, fmt.Errorf("parsing %s: %w", path, err)
	}
	if err := chains.Validate(config.Chains); err != nil {
		return nil, path, fmt.Errorf("%s: %w", path, err)
	}

	return &config, path, nil
}

// loadProjectConfigSilent loads the project config without returning errors for missing files.
// Parse failures are reported on stderr.
func loadProjectConfigSilent() *ProjectConfig {
	config, _, err := loadProjectConfig()
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			fmt.Fprintf(os.Stderr, "Warning: failed to load project config: %v\n", err)
		}
		return nil
	}
	return config
}

// projectChains returns the custom chains of the project config.
func projectChains() []chains.ChainConfig {
	if config := loadProjectConfigSilent(); config != nil {
		return config.Chains
	}
	return nil
}

func globalConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	return filepath.Join(home, ".verifyprep", "config.yaml")
}

func loadGlobalConfig() (*GlobalConfig, error) {
	data, err := os.ReadFile(globalConfigPath())
	if err != nil {
		return nil, err
	}

	var config GlobalConfig
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("parsing global config: %w", err)
	}
	return &config, nil
}

func loadGlobalConfigSilent() *GlobalConfig {
	config, err := loadGlobalConfig()
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			fmt.Fprintf(os.Stderr, "Warning: failed to load global config: %v\n", err)
		}
		return nil
	}
	return config
}
