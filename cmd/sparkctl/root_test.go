package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	buf := &bytes.Buffer{}
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return buf.String(), err
}

func TestRootHelp(t *testing.T) {
	out, err := run(t, "--help")
	require.NoError(t, err)
	for _, name := range []string{"migrate", "export", "reset", "next", "catalog"} {
		assert.Contains(t, out, name)
	}
}

func TestCatalogListsChallenges(t *testing.T) {
	catalogCategory = ""
	out, err := run(t, "catalog", "--category", "Emotional Connection")
	require.NoError(t, err)
	assert.Contains(t, out, "Emotional Connection")
	assert.NotContains(t, out, "Communication Boosters")

	catalogCategory = ""
	_, err = run(t, "catalog", "--category", "Knitting")
	assert.Error(t, err)
}

func TestResetRequiresConfirmation(t *testing.T) {
	resetConfirm = false
	_, err := run(t, "reset", "--owner", "user_1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--yes")
}
