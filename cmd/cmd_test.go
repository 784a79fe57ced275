package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ginjaninja78/sunat-detracciones/internal/ublparser/ubltest"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var buf bytes.Buffer
	rootCmd.SetOut(&buf)
	rootCmd.SetErr(&buf)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetArgs(nil)
	})
	err := rootCmd.Execute()
	return buf.String(), err
}

func TestProcessCommand(t *testing.T) {
	in, out := t.TempDir(), t.TempDir()
	_, err := ubltest.Write(in, "F001-123.xml", ubltest.Valid())
	require.NoError(t, err)

	stdout, err := execute(t, "process",
		"--env-file", filepath.Join(in, "missing.env"),
		"--input", in, "--output", out, "--batch", "250001", "--bundle")
	require.NoError(t, err)

	assert.Contains(t, stdout, "Accepted:  1")
	assert.Contains(t, stdout, "Total:     S/ 50.00")
	assert.Contains(t, stdout, "D20123456789250001.txt")
	assert.FileExists(t, filepath.Join(out, "D20123456789250001.txt"))
	assert.FileExists(t, filepath.Join(out, "detracciones_20123456789.zip"))
}

func TestCountCommand(t *testing.T) {
	in := t.TempDir()
	_, err := ubltest.Write(in, "a.xml", ubltest.Valid())
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(in, "notes.txt"), []byte("x"), 0o644))

	stdout, err := execute(t, "count", "--input", in)
	require.NoError(t, err)
	assert.Contains(t, stdout, "1 XML document(s)")
}

func TestValidateCommandRejectsBadBatch(t *testing.T) {
	_, err := execute(t, "validate", "--batch", "12")
	assert.ErrorContains(t, err, "6 digits")
}

func TestVersionCommand(t *testing.T) {
	stdout, err := execute(t, "version")
	require.NoError(t, err)

	assert.Contains(t, stdout, "SUNAT Detracciones")
	assert.Contains(t, stdout, "Version:    "+Version)
	assert.Contains(t, stdout, "Build Date: "+BuildDate)
	assert.Contains(t, stdout, "Go Version: go")
}
