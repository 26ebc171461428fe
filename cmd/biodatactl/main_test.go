package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/goccy/go-yaml"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeCSV(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func execute(args ...string) (string, error) {
	var out bytes.Buffer
	cmd := newRootCmd(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestPreviewJSON(t *testing.T) {
	path := writeCSV(t, "a.csv", "gene,value\nBRCA1,1.5\nTP53,2\nEGFR,x\n")

	out, err := execute("preview", path, "--offset", "1", "--limit", "1")
	require.NoError(t, err)

	var res struct {
		Success bool `json:"success"`
		Data    struct {
			Headers     []string `json:"headers"`
			Rows        [][]any  `json:"rows"`
			HasMoreData bool     `json:"hasMoreData"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &res))

	assert.True(t, res.Success)
	assert.Equal(t, []string{"gene", "value"}, res.Data.Headers)
	assert.Equal(t, [][]any{{"TP53", float64(2)}}, res.Data.Rows)
	assert.True(t, res.Data.HasMoreData)
}

func TestProfileYAML(t *testing.T) {
	path := writeCSV(t, "b.tsv", "sample\tscore\nS1\t1\nS2\t3\n")

	out, err := execute("profile", path, "--format", "yaml")
	require.NoError(t, err)

	var res struct {
		Success bool `yaml:"success"`
		Data    struct {
			ColumnCount int `yaml:"columnCount"`
			Columns     []struct {
				Name string  `yaml:"name"`
				Type string  `yaml:"type"`
				Mean float64 `yaml:"mean"`
			} `yaml:"columns"`
		} `yaml:"data"`
	}
	require.NoError(t, yaml.Unmarshal([]byte(out), &res))

	assert.True(t, res.Success)
	assert.Equal(t, 2, res.Data.ColumnCount)
	assert.Equal(t, "number", res.Data.Columns[1].Type)
	assert.InDelta(t, 2, res.Data.Columns[1].Mean, 1e-9)
}

func TestFailureResultExitsNonZero(t *testing.T) {
	out, err := execute("preview", filepath.Join(t.TempDir(), "missing.csv"))

	require.ErrorIs(t, err, errResultFailed)
	assert.JSONEq(t, `{"success":false,"message":"File not found"}`, out)
}

func TestInvalidFlags(t *testing.T) {
	path := writeCSV(t, "c.csv", "a\n1\n")

	_, err := execute("preview", path, "--format", "xml")
	assert.ErrorContains(t, err, "invalid format")

	_, err = execute("preview", path, "--limit", "-1")
	assert.Error(t, err)

	_, err = execute("profile")
	assert.Error(t, err)
}

func TestRunReportsErrorsOnStderr(t *testing.T) {
	path := writeCSV(t, "d.csv", "a\n1\n")

	var stdout, stderr bytes.Buffer
	code := run(context.Background(), []string{"preview", path, "--format", "xml"}, &stdout, &stderr)
	assert.Equal(t, 1, code)
	assert.Empty(t, stdout.String())
	assert.Contains(t, stderr.String(), "invalid format: xml")

	stdout.Reset()
	stderr.Reset()
	code = run(context.Background(), []string{"preview", filepath.Join(t.TempDir(), "missing.csv")}, &stdout, &stderr)
	assert.Equal(t, 1, code)
	assert.Empty(t, stderr.String())
	assert.JSONEq(t, `{"success":false,"message":"File not found"}`, stdout.String())

	stdout.Reset()
	code = run(context.Background(), []string{"preview", path}, &stdout, &stderr)
	assert.Equal(t, 0, code)
	assert.Empty(t, stderr.String())
}
