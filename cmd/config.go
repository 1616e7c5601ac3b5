package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	cfgpkg "github.com/koukiniwa/ai-kouki-backend/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "View or set kouki configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := requireConfig()
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "provider: %s\n", c.Provider)
		fmt.Fprintf(out, "api_key: %s\n", mask(c.APIKey))
		if c.BaseURL != "" {
			fmt.Fprintf(out, "base_url: %s\n", c.BaseURL)
		}
		fmt.Fprintf(out, "model: %s\n", c.Model)
		fmt.Fprintf(out, "max_tokens: %d\n", c.MaxTokens)
		fmt.Fprintf(out, "temperature: %.3f\n", c.Temperature)
		if c.PersonaFile != "" {
			fmt.Fprintf(out, "persona_file: %s\n", c.PersonaFile)
		}
		fmt.Fprintf(out, "store_backend: %s\n", c.StoreBackend)
		switch c.StoreBackend {
		case "sqlite":
			fmt.Fprintf(out, "sqlite_path: %s\n", c.SQLitePath)
		case "redis":
			fmt.Fprintf(out, "redis_addr: %s\n", c.RedisAddr)
			fmt.Fprintf(out, "redis_password: %s\n", mask(c.RedisPassword))
			fmt.Fprintf(out, "redis_db: %d\n", c.RedisDB)
			fmt.Fprintf(out, "redis_key: %s\n", c.RedisKey)
		case "firestore":
			fmt.Fprintf(out, "firestore_project: %s\n", c.FirestoreProject)
			fmt.Fprintf(out, "firestore_collection: %s\n", c.FirestoreCollection)
		default:
			fmt.Fprintf(out, "posts_dir: %s\n", c.PostsDir)
		}
		fmt.Fprintf(out, "cache_ttl_sec: %d\n", c.CacheTTLSec)
		fmt.Fprintf(out, "date_max_results: %d\n", c.DateMaxResults)
		fmt.Fprintf(out, "lexical_max_results: %d\n", c.LexicalMaxResults)
		fmt.Fprintf(out, "recent_max_results: %d\n", c.RecentMaxResults)
		fmt.Fprintf(out, "excerpt_chars: %d\n", c.ExcerptChars)
		fmt.Fprintf(out, "session_max_clients: %d\n", c.SessionMaxClients)
		fmt.Fprintf(out, "session_ttl_min: %d\n", c.SessionTTLMin)
		fmt.Fprintf(out, "port: %d\n", c.Port)
		fmt.Fprintf(out, "cors_allow_origins: %s\n", strings.Join(c.CORSAllowOrigins, ","))
		fmt.Fprintf(out, "http_timeout_sec: %d\n", c.HTTPTimeoutSec)
		fmt.Fprintf(out, "retry_max_attempts: %d\n", c.RetryMaxAttempts)
		fmt.Fprintf(out, "log_level: %s\n", c.LogLevel)
		fmt.Fprintf(out, "log_format: %s\n", c.LogFormat)
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a config value and save to disk",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := requireConfig()
		if err != nil {
			return err
		}
		if err := c.Set(args[0], args[1]); err != nil {
			return err
		}
		if err := cfgpkg.Save(c, cfgFile); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Saved config")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
}

func mask(s string) string {
	if s == "" {
		return ""
	}
	if len(s) <= 6 {
		return "******"
	}
	return s[:3] + "****" + s[len(s)-3:]
}
