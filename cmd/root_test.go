package cmd

import (
	"bytes"
	"fmt"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) string {
	t.Helper()
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	require.NoError(t, err, "devfeed %v:\n%s", args, buf.String())
	return buf.String()
}

func TestVersionCommand(t *testing.T) {
	SetVersionInfo("1.2.3", "abc1234", "2026-01-01")
	t.Cleanup(func() { SetVersionInfo("dev", "none", "unknown") })

	out := execute(t, "version")
	assert.Equal(t, "devfeed 1.2.3 (commit: abc1234, built: 2026-01-01)\n", out)
}

func TestAnnotationsSurviveAcrossRuns(t *testing.T) {
	api := newFakeAPI()
	srv := httptest.NewServer(api)
	defer srv.Close()

	dir := t.TempDir()
	dbPath := filepath.Join(dir, "devfeed.db")
	orig := cachePath
	cachePath = func() string { return dbPath }
	t.Cleanup(func() { cachePath = orig })

	cfgPath := filepath.Join(dir, "config.yaml")
	cfgYAML := fmt.Sprintf("api_url: %s\nstorage:\n  backend: file\n  path: %s\n", srv.URL, filepath.Join(dir, "annotations.json"))
	require.NoError(t, os.WriteFile(cfgPath, []byte(cfgYAML), 0o644))
	t.Setenv("DEVFEED_API_URL", "")
	t.Setenv("DEVFEED_STORAGE", "")

	execute(t, "--config", cfgPath, "save", "2")
	execute(t, "--config", cfgPath, "upvote", "1")

	out := execute(t, "--config", cfgPath, "profile")
	assert.Contains(t, out, "Saved articles")
	assert.Contains(t, out, "1 ("+upvoteMark+"1 "+downvoteMark+"0)")

	out = execute(t, "--config", cfgPath, "saved")
	assert.Contains(t, out, "Rust ownership")
	assert.NotContains(t, out, "Intro to Go")

	data, err := os.ReadFile(filepath.Join(dir, "annotations.json"))
	require.NoError(t, err)
	assert.Contains(t, string(data), `"bookmarks"`)
}
