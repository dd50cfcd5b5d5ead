package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codewiresh/gsapi/internal/client"
)

func writeTemp(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "input.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadParams(t *testing.T) {
	path := writeTemp(t, `
- type: number
  name: Speed
  subtype: float
  unit: m/s
  min: 0
  max: 10
  default: 2.5
  decimals: 2
- type: number
  name: Count
  default: 3
- type: string
  name: Output
  subtype: filesave
  default: out.wav
`)
	params, err := loadParams(path)
	require.NoError(t, err)
	assert.Equal(t, []client.Parameter{
		client.Number{Name: "Speed", Type: client.NumberFloat, Unit: "m/s", Max: 10, Default: 2.5, Decimals: 2},
		client.Number{Name: "Count", Type: client.NumberInteger, Default: 3},
		client.String{Name: "Output", Type: client.StringFileSave, Default: "out.wav"},
	}, params)
}

func TestLoadParamsErrors(t *testing.T) {
	for name, content := range map[string]string{
		"unknown type":    "- {type: slider, name: X}",
		"bad subtype":     "- {type: number, name: X, subtype: complex}",
		"bad default":     "- {type: number, name: X, default: [1]}",
		"bad enum choice": "- {type: enum, name: X, choices: [a], default: first}",
		"not a list":      "type: bool",
	} {
		t.Run(name, func(t *testing.T) {
			_, err := loadParams(writeTemp(t, content))
			assert.Error(t, err)
		})
	}
}

func TestLoadDrawingRejectsEmptyAndOutOfRange(t *testing.T) {
	_, err := loadDrawing(writeTemp(t, "[]"))
	assert.Error(t, err)

	_, err = loadDrawing(writeTemp(t, "- {t: 61, x: 0, y: 0, p: 0}"))
	assert.Error(t, err)

	points, err := loadDrawing(writeTemp(t, "- {t: 60, x: 1, y: 0, p: 0.5}"))
	require.NoError(t, err)
	assert.Len(t, points, 1)
}
