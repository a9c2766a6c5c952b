// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the mission-copilot CLI.
package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/mission-copilot/internal/observability"
	"github.com/pdiddy/mission-copilot/internal/secrets"
	"github.com/pdiddy/mission-copilot/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

var (
	// cfg is the resolved configuration after flags, env and file.
	cfg types.CopilotConfig

	// loadedSecrets holds credentials loaded from .secrets/ at startup.
	loadedSecrets secrets.Set

	logger = zerolog.Nop()
)

// rootCmd is the base command for the mission-copilot CLI.
var rootCmd = &cobra.Command{
	Use:   "mission-copilot",
	Short: "Answer questions about a NASA bioscience study catalog",
	Long: `mission-copilot answers free-text questions about a catalog of bioscience
studies. Each question runs through a fixed cascade: greeting and short-input
checks, an optional external answer service, then structured and tokenized
catalog search, ending with an off-topic explainer or a recent-studies listing.

Use ask for one question, chat for an interactive session and serve for the
HTTP conversation API. The studies subcommands manage the catalog.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return loadRuntime()
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./mission-copilot.yaml or ~/.config/mission-copilot/config.yaml)")
	rootCmd.PersistentFlags().String("catalog", "", "SQLite catalog path (overrides catalog.path)")
	rootCmd.PersistentFlags().String("answer-service", "", "answer service base URL (overrides answer_service.base_url)")
	rootCmd.PersistentFlags().String("log-level", "", "log level: trace, debug, info, warn, error")

	viper.BindPFlag("catalog.path", rootCmd.PersistentFlags().Lookup("catalog"))
	viper.BindPFlag("answer_service.base_url", rootCmd.PersistentFlags().Lookup("answer-service"))
	viper.BindPFlag("log.level", rootCmd.PersistentFlags().Lookup("log-level"))
}

func initConfig() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintln(os.Stderr, "warning: reading .env:", err)
	}

	setDefaults(types.DefaultCopilotConfig())

	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("mission-copilot")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "mission-copilot"))
		}
	}

	viper.SetEnvPrefix("MISSION_COPILOT")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// setDefaults registers every key so that environment overrides are seen
// by Unmarshal even when no config file sets them.
func setDefaults(d types.CopilotConfig) {
	defaults := map[string]any{
		"catalog.driver":              string(d.Catalog.Driver),
		"catalog.path":                d.Catalog.Path,
		"catalog.dsn":                 d.Catalog.DSN,
		"catalog.query_timeout":       d.Catalog.QueryTimeout,
		"answer_service.base_url":     d.AnswerService.BaseURL,
		"answer_service.timeout":      d.AnswerService.Timeout,
		"answer_service.user_agent":   d.AnswerService.UserAgent,
		"answer_service.top_k":        d.AnswerService.TopK,
		"cache.backend":               string(d.Cache.Backend),
		"cache.ttl":                   d.Cache.TTL,
		"cache.max_entries":           d.Cache.MaxEntries,
		"cache.redis_addr":            d.Cache.RedisAddr,
		"cache.redis_db":              d.Cache.RedisDB,
		"cache.redis_password":        d.Cache.RedisPassword,
		"cascade.search_limit":        d.Cascade.SearchLimit,
		"cascade.recent_limit":        d.Cascade.RecentLimit,
		"cascade.ranked_limit":        d.Cascade.RankedLimit,
		"cascade.vocabulary_file":     d.Cascade.VocabularyFile,
		"server.addr":                 d.Server.Addr,
		"server.request_timeout":      d.Server.RequestTimeout,
		"server.read_timeout":         d.Server.ReadTimeout,
		"server.write_timeout":        d.Server.WriteTimeout,
		"server.shutdown_grace":       d.Server.ShutdownGrace,
		"server.session_idle_timeout": d.Server.SessionIdleTimeout,
		"server.max_sessions":         d.Server.MaxSessions,
		"log.level":                   d.Log.Level,
		"log.format":                  d.Log.Format,
	}
	for k, v := range defaults {
		viper.SetDefault(k, v)
	}
}

// loadRuntime resolves cfg, secrets and the logger.
func loadRuntime() error {
	resolved := types.DefaultCopilotConfig()
	if err := viper.Unmarshal(&resolved); err != nil {
		return fmt.Errorf("decoding configuration: %w", err)
	}

	logger = observability.NewLogger(resolved.Log, os.Stderr)

	s, err := secrets.Load(".secrets/", logger)
	if err != nil {
		return err
	}
	loadedSecrets = s
	if len(s) > 0 {
		keys := make([]string, 0, len(s))
		for k := range s {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		logger.Debug().Strs("keys", keys).Msg("loaded secrets")
	}
	loadedSecrets.Fill(&resolved.Cache.RedisPassword, secrets.RedisPassword)
	loadedSecrets.Fill(&resolved.Catalog.DSN, secrets.CatalogDSN)

	cfg = resolved
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
