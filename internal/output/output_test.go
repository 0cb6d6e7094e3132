package output

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/bnema/linkers/internal/cleaner"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

var sample = []cleaner.Link{
	{Original: "https://a.test/?utm_source=x", Cleaned: "https://a.test/", Included: true},
	{Original: "https://b.test/", Cleaned: "https://b.test/"},
	{Original: "https://amp.test/x", Cleaned: "https://c.test/x", Included: true, Stages: []string{"amp"}},
}

func TestWriteText(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, FormatText, sample))
	assert.Equal(t, "https://a.test/\nhttps://c.test/x\n", buf.String())

	buf.Reset()
	require.NoError(t, Write(&buf, "", nil))
	assert.Empty(t, buf.String())
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, "JSON", sample))

	var got []cleaner.Link
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, sample, got)

	buf.Reset()
	require.NoError(t, Write(&buf, FormatJSON, nil))
	assert.Equal(t, "[]\n", buf.String())
}

func TestWriteYAML(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, FormatYAML, sample))

	var got []cleaner.Link
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, sample, got)
	assert.Contains(t, buf.String(), "  stages:")
}

func TestWriteUnknownFormat(t *testing.T) {
	err := Write(&bytes.Buffer{}, "xml", sample)
	assert.ErrorContains(t, err, "unknown format")
}
