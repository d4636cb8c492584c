package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aman-CERP/scout/pkg/version"
)

const projectConfig = `
settings:
  converter.day.type: time
  converter.day.format: "2006-01-02"
mappings:
  - alias: article
    properties:
      - name: id
        kind: id
      - name: title
        boost: 2
      - name: published
        type: time
        converter: day
      - name: tags
        kind: collection
        element:
          index: un_tokenized
`

const documentsFile = `
- alias: article
  documents:
    - id: a1
      title: Concurrency in Go
      published: "2026-02-01"
      tags: [go, concurrency]
    - id: a2
      title: Hot swapping search indexes
      published: "2026-03-15"
      tags: [search]
`

// project writes a config and a document file into a fresh directory.
func project(t *testing.T) (dir, docs string) {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	dir = t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".scout.yaml"), []byte(projectConfig), 0o644))
	docs = filepath.Join(dir, "articles.yaml")
	require.NoError(t, os.WriteFile(docs, []byte(documentsFile), 0o644))
	return dir, docs
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCmd()
	buf := &bytes.Buffer{}
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return buf.String(), err
}

func TestRootCmd_RegistersCommands(t *testing.T) {
	cmd := NewRootCmd()

	var names []string
	for _, c := range cmd.Commands() {
		names = append(names, c.Name())
	}

	for _, want := range []string{"index", "search", "status", "watch", "prune", "config", "version"} {
		assert.Contains(t, names, want)
	}
	assert.NotNil(t, cmd.PersistentFlags().Lookup("config"))
	assert.NotNil(t, cmd.PersistentFlags().Lookup("debug"))
}

func TestRootCmd_VersionFlag(t *testing.T) {
	out, err := run(t, "--version")

	require.NoError(t, err)
	assert.Equal(t, "scout version "+version.Version+"\n", out)
}

func TestVersionCmd_Outputs(t *testing.T) {
	out, err := run(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "scout "+version.Version)

	out, err = run(t, "version", "--short")
	require.NoError(t, err)
	assert.Equal(t, version.Version, strings.TrimSpace(out))

	out, err = run(t, "version", "--json")
	require.NoError(t, err)
	var info version.BuildInfo
	require.NoError(t, json.Unmarshal([]byte(out), &info))
	assert.Equal(t, version.Version, info.Version)
}

func TestIndexThenSearch(t *testing.T) {
	// Given: a project with a mapping and documents
	dir, docs := project(t)

	// When: indexing the documents
	out, err := run(t, "-C", dir, "index", "articles", docs, "--json")
	require.NoError(t, err)
	var indexed IndexOutput
	require.NoError(t, json.Unmarshal([]byte(out), &indexed))
	assert.Equal(t, 2, indexed.Documents)

	// Then: a search finds the matching article by its identifier
	out, err = run(t, "-C", dir, "search", "articles", "concurrency", "--field", "title", "--json")
	require.NoError(t, err)
	var found SearchOutput
	require.NoError(t, json.Unmarshal([]byte(out), &found))
	assert.Equal(t, uint64(1), found.Total)
	require.Len(t, found.Hits, 1)
	assert.Equal(t, "a1", found.Hits[0].ID)
	assert.Equal(t, []string{"2026-02-01"}, found.Hits[0].Fields["published"])
}

func TestRebuildAlias_SwapsAndStatusReportsHistory(t *testing.T) {
	// Given: an index built twice through both command names
	dir, docs := project(t)
	_, err := run(t, "-C", dir, "index", "articles", docs)
	require.NoError(t, err)
	_, err = run(t, "-C", dir, "rebuild", "articles", docs)
	require.NoError(t, err)

	// When: asking for the status with history
	out, err := run(t, "-C", dir, "status", "--history", "articles", "--json")

	// Then: one binding, one generation on disk, and two swaps recorded
	require.NoError(t, err)
	var status StatusOutput
	require.NoError(t, json.Unmarshal([]byte(out), &status))
	require.Len(t, status.Bindings, 1)
	assert.Equal(t, "articles", status.Bindings[0].Name)
	assert.Equal(t, uint64(2), status.Bindings[0].Documents)
	assert.Equal(t, []string{status.Bindings[0].Ref}, status.Generations)
	assert.Empty(t, status.Unbound)
	require.Len(t, status.History, 2)
	assert.Equal(t, status.Bindings[0].Ref, status.History[0].Ref)
	assert.Equal(t, []string{"article"}, status.Aliases)
}

func TestPrune_NothingToRemove(t *testing.T) {
	dir, docs := project(t)
	_, err := run(t, "-C", dir, "index", "articles", docs)
	require.NoError(t, err)

	out, err := run(t, "-C", dir, "prune")

	require.NoError(t, err)
	assert.Contains(t, out, "Pruned 0 generations")
}

func TestSearch_UnknownIndex(t *testing.T) {
	dir, _ := project(t)

	_, err := run(t, "-C", dir, "search", "missing", "x")

	assert.Error(t, err)
}

func TestIndex_UnknownConverterFailsBeforeWriting(t *testing.T) {
	// Given: a mapping naming a converter nobody registered
	dir, docs := project(t)
	bad := strings.Replace(projectConfig, "converter: day", "converter: money", 1)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".scout.yaml"), []byte(bad), 0o644))

	// When: indexing
	_, err := run(t, "-C", dir, "index", "articles", docs)

	// Then: the configuration error surfaces and no generation exists
	require.Error(t, err)
	assert.Contains(t, err.Error(), "money")
	entries, _ := os.ReadDir(filepath.Join(dir, ".scout", "generations"))
	assert.Empty(t, entries)
}

func TestConfigInitThenShow(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	dir := t.TempDir()

	out, err := run(t, "-C", dir, "config", "init")
	require.NoError(t, err)
	assert.Contains(t, out, ".scout.yaml")
	assert.FileExists(t, filepath.Join(dir, ".scout.yaml"))

	out, err = run(t, "-C", dir, "config", "init")
	require.NoError(t, err)
	assert.Contains(t, out, "previous config saved")

	out, err = run(t, "-C", dir, "config", "show")
	require.NoError(t, err)
	assert.Contains(t, out, "cache_size: 16")
}

func TestRootCmd_ProfileFlagsWriteFiles(t *testing.T) {
	dir := t.TempDir()
	heap := filepath.Join(dir, "heap.prof")

	_, err := run(t, "--profile-mem", heap, "version", "--short")

	require.NoError(t, err)
	assert.FileExists(t, heap)
}

func TestConfigInitExample_WritesLoadableTemplate(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	dir := t.TempDir()

	// When: writing the example template
	_, err := run(t, "-C", dir, "config", "init", "--example")
	require.NoError(t, err)

	// Then: the effective config carries the sample mapping
	out, err := run(t, "-C", dir, "config", "show")
	require.NoError(t, err)
	assert.Contains(t, out, "alias: article")
	assert.Contains(t, out, "converter.day.format")
}
