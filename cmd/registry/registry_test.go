package registry_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/jonesrussell/newsroom-crawler/cmd/registry"
	"github.com/jonesrussell/newsroom-crawler/internal/config"
)

var sampleOrgs = []config.Organization{
	{Name: "Acme", Seeds: []string{"https://acme.example/news", "https://acme.example/blog"}},
	{Name: "Beta Corp", Seeds: []string{"https://beta.example/press"}},
}

func TestRenderTable(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	registry.RenderTable(&buf, sampleOrgs)

	out := buf.String()
	assert.Contains(t, out, "Acme")
	assert.Contains(t, out, "Beta Corp")
	assert.Contains(t, out, "https://beta.example/press")
	assert.Contains(t, out, "2 ORGANIZATIONS")
}

func TestWriteYAML_RoundTripsThroughConfigShape(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, registry.WriteYAML(&buf, sampleOrgs))

	var doc struct {
		Registry []config.Organization `yaml:"registry"`
	}
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &doc))
	assert.Equal(t, sampleOrgs, doc.Registry)
}
