package main

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	datalchemy "github.com/StarGazerM/datalchemy"
	"github.com/StarGazerM/datalchemy/internal/loader"
)

const graphDoc = `
name: graph
relations:
  - name: edge
    columns:
      - {name: from, type: int}
      - {name: to, type: int}
  - name: path
    columns:
      - {name: from, type: int}
      - {name: to, type: int}
facts:
  - {relation: edge, values: [1, 2]}
  - {relation: edge, values: [2, 3]}
rules:
  - head: {relation: path, args: ["?f", "?t"]}
    body:
      - {relation: edge, args: ["?f", "?t"]}
  - head: {relation: path, args: ["?f", "?t"]}
    body:
      - {relation: path, args: ["?f", "?m"]}
      - {relation: path, args: ["?m", "?t"]}
outputs: [path]
`

func TestRenderResultPlain(t *testing.T) {
	prog, err := loader.Parse([]byte(graphDoc))
	require.NoError(t, err)
	res, err := datalchemy.Run(prog)
	require.NoError(t, err)

	got := renderResult(prog, res, true)
	want := "path(1, 2).\npath(1, 3).\npath(2, 3).\n"
	assert.Equal(t, want, got)
}

func TestRenderResultTable(t *testing.T) {
	prog, err := loader.Parse([]byte(graphDoc))
	require.NoError(t, err)
	res, err := datalchemy.Run(prog)
	require.NoError(t, err)

	got := renderResult(prog, res, false)
	assert.Contains(t, got, "path (3)")
	assert.Contains(t, got, "from")
	assert.Contains(t, got, "to")
	// One line per tuple plus title, header and divider.
	lines := strings.Count(strings.TrimRight(got, "\n"), "\n") + 1
	assert.Equal(t, 6, lines)
}
