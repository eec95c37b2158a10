package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/aukilabs/go-tooling/pkg/logs"
	"github.com/chazu/kerf/pkg/kernel"
	"github.com/segmentio/encoding/json"
	"github.com/stretchr/testify/require"
)

const tableScript = `
(defsolid "leg" (box 5 5 70))
(group "table"
  (box 100 60 3 :paint (paint :texture "walnut"))
  (solid "leg")
  (translate (solid "leg") 95 0 0))
`

func setupLogs(t *testing.T) {
	var mu sync.Mutex
	logs.Encoder = json.Marshal
	logs.SetLogger(func(e logs.Entry) {
		mu.Lock()
		defer mu.Unlock()
		t.Log(e)
	})
	errors.Encoder = json.Marshal
}

func writeScript(t *testing.T, src string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "design.kerf")
	require.NoError(t, os.WriteFile(path, []byte(src), 0o644))
	return path
}

func testConfig(script string) config {
	return config{
		Script:      script,
		Output:      "-",
		Format:      formatJSON,
		Kernel:      kernelBSP,
		Segments:    8,
		Cells:       40,
		EvalTimeout: 5 * time.Second,
		LogLevel:    logs.InfoLevel.String(),
	}
}

func TestValidateConfig(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*config)
		wantErr bool
	}{
		{"valid json", func(*config) {}, false},
		{"valid stl", func(c *config) { c.Format = formatSTL; c.Output = "out" }, false},
		{"no script", func(c *config) { c.Script = "" }, true},
		{"unknown format", func(c *config) { c.Format = "obj" }, true},
		{"sdf kernel", func(c *config) { c.Kernel = kernelSDF }, false},
		{"unknown kernel", func(c *config) { c.Kernel = "brep" }, true},
		{"stl to stdout", func(c *config) { c.Format = formatSTL }, true},
		{"too few segments", func(c *config) { c.Segments = 2 }, true},
		{"zero timeout", func(c *config) { c.EvalTimeout = 0 }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			conf := testConfig("design.kerf")
			tt.mutate(&conf)
			err := validateConfig(conf)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestRunJSON(t *testing.T) {
	setupLogs(t)

	var out bytes.Buffer
	err := run(context.Background(), testConfig(writeScript(t, tableScript)), &out)
	require.NoError(t, err)

	var meshes []kernel.Mesh
	require.NoError(t, json.Unmarshal(out.Bytes(), &meshes))
	require.Len(t, meshes, 3)
	require.Equal(t, "table/0", meshes[0].PartName)
	require.Equal(t, "leg", meshes[1].PartName)
	require.Equal(t, "table/2", meshes[2].PartName)
	for _, m := range meshes {
		require.Equal(t, 12, m.TriangleCount())
	}
}

func TestRunJSONFile(t *testing.T) {
	setupLogs(t)

	conf := testConfig(writeScript(t, `(difference (box 10 10 10) (translate (box 4 4 20) 3 3 -5))`))
	conf.Output = filepath.Join(t.TempDir(), "meshes.json")
	require.NoError(t, run(context.Background(), conf, nil))

	b, err := os.ReadFile(conf.Output)
	require.NoError(t, err)
	var meshes []kernel.Mesh
	require.NoError(t, json.Unmarshal(b, &meshes))
	require.Len(t, meshes, 1)
	require.False(t, meshes[0].IsEmpty())
}

func TestRunSTL(t *testing.T) {
	setupLogs(t)

	conf := testConfig(writeScript(t, tableScript))
	conf.Format = formatSTL
	conf.Output = filepath.Join(t.TempDir(), "parts")
	require.NoError(t, run(context.Background(), conf, nil))

	for _, name := range []string{"table-0.stl", "leg.stl", "table-2.stl"} {
		info, err := os.Stat(filepath.Join(conf.Output, name))
		require.NoError(t, err, name)
		require.Equal(t, int64(84+50*12), info.Size(), name)
	}
}

func TestRunSDFKernel(t *testing.T) {
	setupLogs(t)

	conf := testConfig(writeScript(t, `(difference (box 10 10 10) (translate (cylinder 3 12) 5 5 -1))`))
	conf.Kernel = kernelSDF

	var out bytes.Buffer
	require.NoError(t, run(context.Background(), conf, &out))

	var meshes []kernel.Mesh
	require.NoError(t, json.Unmarshal(out.Bytes(), &meshes))
	require.Len(t, meshes, 1)
	require.NotZero(t, meshes[0].TriangleCount())
	require.Empty(t, meshes[0].Colors)
}

func TestRunScriptErrors(t *testing.T) {
	setupLogs(t)

	tests := []struct {
		name   string
		script string
	}{
		{"syntax", "(box 1 1"},
		{"unknown solid", `(solid "missing")`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := run(context.Background(), testConfig(writeScript(t, tt.script)), &bytes.Buffer{})
			require.Error(t, err)
		})
	}
}

func TestRunMissingScript(t *testing.T) {
	setupLogs(t)

	conf := testConfig(filepath.Join(t.TempDir(), "nope.kerf"))
	require.Error(t, run(context.Background(), conf, &bytes.Buffer{}))
}

func TestRunEmptyDesign(t *testing.T) {
	setupLogs(t)

	var out bytes.Buffer
	require.NoError(t, run(context.Background(), testConfig(writeScript(t, "(+ 1 2)")), &out))
	require.Zero(t, out.Len())
}

func TestSTLName(t *testing.T) {
	tests := []struct {
		part, want string
	}{
		{"leg", "leg.stl"},
		{"table/0", "table-0.stl"},
		{"side panel", "side_panel.stl"},
	}
	for _, tt := range tests {
		require.Equal(t, tt.want, stlName(tt.part))
	}
}
