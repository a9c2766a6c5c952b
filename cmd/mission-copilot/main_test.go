// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/mission-copilot/internal/copilot"
	"github.com/pdiddy/mission-copilot/pkg/types"
)

func TestConfigFromEnvironment(t *testing.T) {
	t.Cleanup(viper.Reset)
	t.Setenv("MISSION_COPILOT_CACHE_BACKEND", "memory")
	t.Setenv("MISSION_COPILOT_CATALOG_QUERY_TIMEOUT", "750ms")
	t.Setenv("MISSION_COPILOT_ANSWER_SERVICE_BASE_URL", "http://127.0.0.1:8000")
	t.Setenv("MISSION_COPILOT_LOG_FORMAT", "json")

	initConfig()
	require.NoError(t, loadRuntime())

	assert.Equal(t, types.CacheMemory, cfg.Cache.Backend)
	assert.Equal(t, 750*time.Millisecond, cfg.Catalog.QueryTimeout)
	assert.Equal(t, "http://127.0.0.1:8000", cfg.AnswerService.BaseURL)
	assert.Equal(t, 5, cfg.AnswerService.TopK)
	assert.Equal(t, "data/studies.db", cfg.Catalog.Path)
	assert.Equal(t, 8, cfg.Cascade.SearchLimit)
}

func TestConfigFromFile(t *testing.T) {
	t.Cleanup(viper.Reset)
	path := filepath.Join(t.TempDir(), "copilot.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
catalog:
  path: /tmp/other.db
cascade:
  search_limit: 3
server:
  shutdown_grace: 2s
`), 0o644))
	require.NoError(t, rootCmd.PersistentFlags().Set("config", path))
	t.Cleanup(func() { rootCmd.PersistentFlags().Set("config", "") })

	initConfig()
	require.NoError(t, loadRuntime())

	assert.Equal(t, "/tmp/other.db", cfg.Catalog.Path)
	assert.Equal(t, 3, cfg.Cascade.SearchLimit)
	assert.Equal(t, 5, cfg.Cascade.RecentLimit)
	assert.Equal(t, 2*time.Second, cfg.Server.ShutdownGrace)
}

func TestNewCacheBackends(t *testing.T) {
	c, err := newCache(context.Background(), types.CacheConfig{Backend: types.CacheNone})
	require.NoError(t, err)
	assert.Nil(t, c)

	c, err = newCache(context.Background(), types.CacheConfig{Backend: types.CacheMemory, MaxEntries: 10})
	require.NoError(t, err)
	assert.NotNil(t, c)

	_, err = newCache(context.Background(), types.CacheConfig{Backend: "memcached"})
	assert.Error(t, err)
}

func TestLoadStudiesFileRejectsUnknownExtension(t *testing.T) {
	_, err := loadStudiesFile("studies.txt")
	assert.ErrorContains(t, err, "unsupported file")
}

type scriptedAnswerer struct{}

func (scriptedAnswerer) Answer(_ context.Context, input string) copilot.Result {
	if input == "broken" {
		return copilot.Result{Reply: "Error querying studies: boom", Err: errors.New("boom")}
	}
	return copilot.Result{Reply: "re: " + input}
}

func TestChatLoop(t *testing.T) {
	color.NoColor = true
	conv := copilot.NewConversation(scriptedAnswerer{})
	in := strings.NewReader("bone loss\n\n  \nbroken\nquit\nnever read\n")
	var out bytes.Buffer

	require.NoError(t, chatLoop(context.Background(), conv, in, &out))

	text := out.String()
	assert.Contains(t, text, "copilot> "+copilot.WelcomeMessage)
	assert.Contains(t, text, "copilot> re: bone loss")
	assert.Contains(t, text, "copilot> Error querying studies: boom")
	assert.NotContains(t, text, "never read")
	assert.Len(t, conv.Messages(), 5)
}

func TestChatLoopEOF(t *testing.T) {
	color.NoColor = true
	conv := copilot.NewConversation(scriptedAnswerer{})
	var out bytes.Buffer
	require.NoError(t, chatLoop(context.Background(), conv, strings.NewReader("hello"), &out))
	assert.Contains(t, out.String(), "re: hello")
}

func TestPrintResultJSON(t *testing.T) {
	var buf bytes.Buffer
	res := copilot.Result{
		Reply:   "Here are 1 relevant studies:",
		Intent:  copilot.IntentGeneric,
		Stage:   copilot.StageStructured,
		Sources: []types.Study{{ID: 7}},
	}
	require.NoError(t, printResult(&buf, res, true))
	assert.JSONEq(t, `{"reply":"Here are 1 relevant studies:","intent":"generic","stage":"structured","sources":[7]}`, buf.String())

	buf.Reset()
	require.NoError(t, printResult(&buf, res, false))
	assert.Equal(t, "Here are 1 relevant studies:\n", buf.String())
}

func TestFormatStudiesTable(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, formatStudies(&buf, nil, false))
	assert.Equal(t, "No studies found.\n", buf.String())

	buf.Reset()
	require.NoError(t, formatStudies(&buf, []types.Study{{ID: 1, Year: 2023, Type: types.StudyHuman, Mission: "ISS", Outcome: types.OutcomePositive, Title: "Radiation Shielding Study"}}, false))
	assert.Contains(t, buf.String(), "Radiation Shielding Study")
	assert.Contains(t, buf.String(), "1 study\n")
}
