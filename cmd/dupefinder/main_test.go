package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/Nubzie187/Micro-Porject-2-Dupe-Finder/dupefinder/filesystem/common"
	"github.com/Nubzie187/Micro-Porject-2-Dupe-Finder/dupefinder/filesystem/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type cliTestEnv struct {
	base       string
	root       string
	configPath string
}

func setupCLITestEnv(t *testing.T) *cliTestEnv {
	t.Helper()

	base, err := filepath.EvalSymlinks(t.TempDir())
	require.NoError(t, err)

	env := &cliTestEnv{
		base:       base,
		root:       filepath.Join(base, "photos"),
		configPath: filepath.Join(base, "config.yaml"),
	}
	require.NoError(t, os.WriteFile(env.configPath, []byte("log:\n  level: error\n  format: json\nrelocate:\n  workers: 2\n"), 0o644))

	env.write(t, "a.jpg", "same")
	env.write(t, "b.jpg", "same")
	env.write(t, "c.mp4", "clip")
	return env
}

func (e *cliTestEnv) write(t *testing.T, rel, content string) {
	t.Helper()
	path := filepath.Join(e.root, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func (e *cliTestEnv) run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(append([]string{"--config", e.configPath}, args...))
	err := cmd.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}

func TestScanCommandJSON(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := env.run(t, "scan", env.root, "--json")
	require.NoError(t, err)

	var report types.ScanReport
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.Len(t, report.Records, 3)
	require.Len(t, report.DuplicateGroups, 1)
	assert.Equal(t, []string{filepath.Join(env.root, "a.jpg"), filepath.Join(env.root, "b.jpg")}, report.DuplicateGroups[0].Paths)
	assert.Equal(t, 1, report.Summary.Videos)
}

func TestScanCommandTable(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := env.run(t, "scan", env.root)
	require.NoError(t, err)
	assert.Contains(t, out, "Exact duplicates")
	assert.Contains(t, out, "b.jpg")
	assert.Contains(t, out, "Reclaimable")
}

func TestScanCommandEmptyAndMissing(t *testing.T) {
	env := setupCLITestEnv(t)
	empty := filepath.Join(env.base, "empty")
	require.NoError(t, os.MkdirAll(empty, 0o755))

	out, _, err := env.run(t, "scan", empty)
	require.NoError(t, err)
	assert.Contains(t, out, "No media files found in the specified directory.")

	_, _, err = env.run(t, "scan", filepath.Join(env.base, "missing"))
	assert.ErrorIs(t, err, common.ErrDirectoryNotFound)

	_, _, err = env.run(t, "scan")
	assert.Error(t, err)
}

func TestRelocateAndUndoCommands(t *testing.T) {
	env := setupCLITestEnv(t)
	review := filepath.Join(env.base, "review")

	out, _, err := env.run(t, "relocate", env.root, "-d", review, "--dry-run")
	require.NoError(t, err)
	assert.Contains(t, out, "Would move 1")
	assert.FileExists(t, filepath.Join(env.root, "b.jpg"))

	out, _, err = env.run(t, "relocate", env.root, "-d", review, "--json")
	require.NoError(t, err)

	var result types.RelocationResult
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	assert.Equal(t, 1, result.Moved)
	require.Len(t, result.Moves, 1)
	assert.Equal(t, filepath.Join(review, "b.jpg"), result.Moves[0].DestinationPath)
	assert.NoFileExists(t, filepath.Join(env.root, "b.jpg"))

	out, _, err = env.run(t, "undo", filepath.Join(review, "b.jpg"), filepath.Join(env.root, "b.jpg"))
	require.NoError(t, err)
	assert.Contains(t, out, "Restored")

	data, err := os.ReadFile(filepath.Join(env.root, "b.jpg"))
	require.NoError(t, err)
	assert.Equal(t, "same", string(data))

	_, _, err = env.run(t, "undo", filepath.Join(review, "b.jpg"), filepath.Join(env.root, "b.jpg"))
	assert.ErrorIs(t, err, common.ErrSourceNotExist)
}

func TestVersionSkipsConfig(t *testing.T) {
	cmd := newRootCommand()
	var stdout bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetArgs([]string{"--config", "/does/not/exist.yaml", "version"})
	require.NoError(t, cmd.Execute())
	assert.Contains(t, stdout.String(), "dupefinder")
}

func TestInvalidConfigFails(t *testing.T) {
	env := setupCLITestEnv(t)
	require.NoError(t, os.WriteFile(env.configPath, []byte("similarity:\n  threshold: 99\n"), 0o644))

	_, _, err := env.run(t, "scan", env.root)
	assert.Error(t, err)
}

func TestResolveLogFormat(t *testing.T) {
	var buf bytes.Buffer
	assert.Equal(t, "json", resolveLogFormat("auto", &buf))
	assert.Equal(t, "json", resolveLogFormat("", &buf))
	assert.Equal(t, "console", resolveLogFormat("console", &buf))
}
