package configs

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/Aman-CERP/scout/internal/config"
)

func TestProjectConfigTemplate_BuildsMappings(t *testing.T) {
	// Given: the embedded template decoded over the defaults
	cfg := config.NewConfig()
	require.NoError(t, yaml.Unmarshal([]byte(ProjectConfigTemplate), cfg))

	// When: building its mappings
	require.NoError(t, cfg.Validate())
	nodes, err := cfg.BuildMappings()

	// Then: the sample article mapping is valid
	require.NoError(t, err)
	require.Len(t, nodes, 1)
	assert.Equal(t, "article", nodes[0].Alias())
	assert.Equal(t, []string{"id"}, nodes[0].IDPaths())
}
