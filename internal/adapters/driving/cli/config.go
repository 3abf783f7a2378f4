package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/cobra"
)

var configJSON bool

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show and change configuration",
	Long: `Reads and writes the configuration file. Keys use dotted paths such as
embedding.model or chunking.size. Every change is validated before it is
saved. Environment variables still override the file at run time.`,
}

var configListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored settings",
	Args:  cobra.NoArgs,
	RunE:  runConfigList,
}

var configGetCmd = &cobra.Command{
	Use:   "get [key]",
	Short: "Print one stored setting",
	Args:  cobra.ExactArgs(1),
	RunE:  runConfigGet,
}

var configSetCmd = &cobra.Command{
	Use:   "set [key] [value]",
	Short: "Change one setting",
	Long: `Validates and saves one setting. Numbers and true/false are stored as
such and comma-separated values as lists. When the value of an API key is
omitted it is read from the terminal without echo.

Examples:
  folio config set chunking.size 400
  folio config set extraction.extensions .pdf,.tex,.md
  folio config set sources.local_folders.literature ~/papers
  folio config set embedding.api_key`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runConfigSet,
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the configuration file location",
	Args:  cobra.NoArgs,
	RunE:  runConfigPath,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the effective configuration as TOML",
	Args:  cobra.NoArgs,
	RunE:  runConfigShow,
}

func init() {
	configListCmd.Flags().BoolVar(&configJSON, "json", false, "output as JSON")
	configCmd.AddCommand(configListCmd, configGetCmd, configSetCmd, configPathCmd, configShowCmd)
	rootCmd.AddCommand(configCmd)
}

func runConfigList(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errNotConfigured("settings service")
	}

	settings := settingsService.List()
	for i := range settings {
		settings[i].Value = displayValue(settings[i].Key, settings[i].Value)
	}

	if configJSON {
		return printJSON(cmd, settings)
	}
	if len(settings) == 0 {
		cmd.Printf("No settings stored in %s\n", settingsService.Path())
		return nil
	}
	for _, s := range settings {
		cmd.Printf("%s = %v\n", s.Key, s.Value)
	}
	return nil
}

func runConfigGet(cmd *cobra.Command, args []string) error {
	if settingsService == nil {
		return errNotConfigured("settings service")
	}

	v, ok := settingsService.Get(args[0])
	if !ok {
		return fmt.Errorf("setting %q is not set", args[0])
	}
	cmd.Println(displayValue(args[0], v))
	return nil
}

func runConfigSet(cmd *cobra.Command, args []string) error {
	if settingsService == nil {
		return errNotConfigured("settings service")
	}

	key := args[0]
	var raw string
	switch {
	case len(args) == 2:
		raw = args[1]
	case isSecretKey(key):
		cmd.Printf("%s: ", key)
		raw = readSecret(cmd.InOrStdin())
		cmd.Println()
	default:
		return fmt.Errorf("missing value for %s", key)
	}

	value := parseValue(raw)
	if isSecretKey(key) {
		value = raw
	}
	if err := settingsService.Set(key, value); err != nil {
		return err
	}
	cmd.Printf("Set %s = %v\n", key, displayValue(key, value))
	return nil
}

func runConfigPath(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errNotConfigured("settings service")
	}
	cmd.Println(settingsService.Path())
	return nil
}

func runConfigShow(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errNotConfigured("settings service")
	}

	cfg, err := settingsService.Effective()
	if err != nil {
		return err
	}
	cfg.Embedding.APIKey = maskIfSet(cfg.Embedding.APIKey)
	data, err := toml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal configuration: %w", err)
	}
	cmd.Print(string(data))
	return nil
}

func isSecretKey(key string) bool {
	return strings.HasSuffix(key, "api_key")
}

func displayValue(key string, v any) any {
	if !isSecretKey(key) {
		return v
	}
	s, _ := v.(string)
	return maskIfSet(s)
}

func maskIfSet(s string) string {
	if s == "" {
		return ""
	}
	return maskAPIKey(s)
}

// parseValue converts a command-line value into the type stored in the
// configuration file.
func parseValue(raw string) any {
	s := strings.TrimSpace(raw)
	if strings.Contains(s, ",") {
		parts := strings.Split(s, ",")
		list := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				list = append(list, p)
			}
		}
		return list
	}
	if i, err := strconv.Atoi(s); err == nil {
		return i
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	if b, err := strconv.ParseBool(s); err == nil {
		return b
	}
	return expandHome(s)
}
