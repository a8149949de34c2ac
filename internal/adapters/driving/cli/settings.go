package cli

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Manage application settings",
	Long: `View and change configuration values stored in config.toml.

Keys use dot notation for nested tables, e.g. search.semantic_weight.
Well-known keys:
  search.keyword_weight    keyword signal weight (default 0.4)
  search.semantic_weight   semantic signal weight (default 0.6)
  search.cache_ttl         search cache TTL in seconds (default 300)
  confluence.base_url      Confluence site root
  confluence.email         account email for basic auth
  confluence.api_token     Atlassian API token
  embedding.provider       ollama or openai
  embedding.model          embedding model name`,
	RunE: runSettingsShow,
}

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current settings",
	RunE:  runSettingsShow,
}

var settingsGetCmd = &cobra.Command{
	Use:   "get [key]",
	Short: "Print one setting",
	Args:  cobra.ExactArgs(1),
	RunE:  runSettingsGet,
}

var settingsSetCmd = &cobra.Command{
	Use:   "set [key] [value]",
	Short: "Change a setting",
	Long: `Sets a configuration value and persists it immediately. Values that
parse as booleans, integers, or floats are stored typed; everything
else is stored as a string.`,
	Args: cobra.ExactArgs(2),
	RunE: runSettingsSet,
}

var settingsTokenCmd = &cobra.Command{
	Use:   "token [key]",
	Short: "Set a secret setting without echo",
	Long: `Prompts for a secret value (API token, key) without echoing it to
the terminal and stores it under the given key.`,
	Args: cobra.ExactArgs(1),
	RunE: runSettingsToken,
}

// Suffixes of keys whose values must not be echoed in full.
var secretKeySuffixes = []string{"api_token", "api_key", "token", "secret"}

func init() {
	settingsCmd.AddCommand(settingsShowCmd)
	settingsCmd.AddCommand(settingsGetCmd)
	settingsCmd.AddCommand(settingsSetCmd)
	settingsCmd.AddCommand(settingsTokenCmd)
	rootCmd.AddCommand(settingsCmd)
}

func runSettingsShow(cmd *cobra.Command, _ []string) error {
	if configStore == nil {
		return errors.New("config store not configured")
	}

	keys := configStore.Keys()
	if len(keys) == 0 {
		cmd.Println("No settings stored.")
		return nil
	}
	sort.Strings(keys)

	cmd.Println("Current settings:")
	cmd.Println()
	for _, key := range keys {
		val, _ := configStore.Get(key)
		cmd.Printf("  %s = %s\n", key, displayValue(key, val))
	}
	return nil
}

func runSettingsGet(cmd *cobra.Command, args []string) error {
	if configStore == nil {
		return errors.New("config store not configured")
	}

	val, ok := configStore.Get(args[0])
	if !ok {
		return fmt.Errorf("setting %s is not set", args[0])
	}

	cmd.Printf("%s = %s\n", args[0], displayValue(args[0], val))
	return nil
}

func runSettingsSet(cmd *cobra.Command, args []string) error {
	if configStore == nil {
		return errors.New("config store not configured")
	}

	key := args[0]
	val := parseValue(args[1])
	if err := configStore.Set(key, val); err != nil {
		return fmt.Errorf("failed to set %s: %w", key, err)
	}

	cmd.Printf("%s = %s\n", key, displayValue(key, val))
	return nil
}

func runSettingsToken(cmd *cobra.Command, args []string) error {
	if configStore == nil {
		return errors.New("config store not configured")
	}

	cmd.Printf("Enter value for %s: ", args[0])
	value := readSecret()
	cmd.Println()
	if value == "" {
		return errors.New("no value entered")
	}

	if err := configStore.Set(args[0], value); err != nil {
		return fmt.Errorf("failed to set %s: %w", args[0], err)
	}

	cmd.Printf("%s = %s\n", args[0], maskSecret(value))
	return nil
}

// readSecret reads a line without echo, falling back to plain input
// when stdin is not a terminal.
func readSecret() string {
	if term.IsTerminal(int(os.Stdin.Fd())) {
		if secret, err := term.ReadPassword(int(os.Stdin.Fd())); err == nil {
			return string(secret)
		}
	}
	input, _ := bufio.NewReader(os.Stdin).ReadString('\n') //nolint:errcheck
	return strings.TrimSpace(input)
}

// parseValue stores booleans and numbers typed so TOML round-trips them.
func parseValue(raw string) any {
	if raw == "true" {
		return true
	}
	if raw == "false" {
		return false
	}
	if i, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return i
	}
	if f, err := strconv.ParseFloat(raw, 64); err == nil {
		return f
	}
	return raw
}

func displayValue(key string, val any) string {
	s := fmt.Sprintf("%v", val)
	for _, suffix := range secretKeySuffixes {
		if strings.HasSuffix(key, suffix) {
			return maskSecret(s)
		}
	}
	return s
}

func maskSecret(s string) string {
	if len(s) <= 8 {
		return "****"
	}
	return s[:4] + "..." + s[len(s)-4:]
}
