package command

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-logr/logr"
	"github.com/krateoplatformops/provider-runtime/pkg/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnvar(t *testing.T) {
	testCases := []struct {
		flag     string
		expected string
	}{
		{flag: "debug", expected: "OASCONTRACTS_DEBUG"},
		{flag: "base-url", expected: "OASCONTRACTS_BASE_URL"},
		{flag: "max-nodes", expected: "OASCONTRACTS_MAX_NODES"},
	}

	for _, tc := range testCases {
		t.Run(tc.flag, func(t *testing.T) {
			assert.Equal(t, tc.expected, Envar(tc.flag))
		})
	}
}

func TestOptions(t *testing.T) {
	var out bytes.Buffer
	o := &Options{Out: &out, Logger: logging.NewLogrLogger(logr.Discard())}

	o.Printf("%d schemas", 2)
	assert.Equal(t, "2 schemas\n", out.String())

	path := filepath.Join(t.TempDir(), "doc.yaml")
	require.NoError(t, os.WriteFile(path, []byte("openapi: 3.0.3\ninfo:\n  title: t\n  version: \"1\"\npaths: {}\n"), 0o600))
	doc, err := o.Load(context.Background(), path)
	require.NoError(t, err)
	assert.Empty(t, doc.Paths())

	_, err = o.Load(context.Background(), filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
