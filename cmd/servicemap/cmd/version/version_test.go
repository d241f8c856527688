package version

import (
	"bytes"
	"encoding/json"
	"runtime"
	"testing"

	"github.com/goccy/go-yaml"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/servicemap/cmd/application"
)

func runCommand(t *testing.T, format string) string {
	t.Helper()
	app := &application.Mock{
		VersionFunc:      func() string { return "1.2.3" },
		CommitFunc:       func() string { return "abc123" },
		DateFunc:         func() string { return "2024-01-01" },
		OutputFormatFunc: func() string { return format },
	}

	var out bytes.Buffer
	cmd := NewCommand(app)
	cmd.SetOut(&out)
	cmd.SetArgs(nil)
	require.NoError(t, cmd.Execute())
	return out.String()
}

func TestVersionFormats(t *testing.T) {
	want := Info{
		Version:   "1.2.3",
		Commit:    "abc123",
		Date:      "2024-01-01",
		BuiltBy:   "test",
		GoVersion: runtime.Version(),
		Platform:  runtime.GOOS + "/" + runtime.GOARCH,
	}

	t.Run("json", func(t *testing.T) {
		var got Info
		require.NoError(t, json.Unmarshal([]byte(runCommand(t, "json")), &got))
		assert.Equal(t, want, got)
	})

	t.Run("yaml", func(t *testing.T) {
		var got Info
		require.NoError(t, yaml.Unmarshal([]byte(runCommand(t, "yaml")), &got))
		assert.Equal(t, want, got)
	})

	t.Run("table renders properties", func(t *testing.T) {
		out := runCommand(t, "table")
		assert.Contains(t, out, "1.2.3")
		assert.Contains(t, out, "abc123")
		assert.NotContains(t, out, runtime.GOOS+"/"+runtime.GOARCH)
	})

	t.Run("wide adds toolchain", func(t *testing.T) {
		out := runCommand(t, "wide")
		assert.Contains(t, out, "1.2.3")
		assert.Contains(t, out, runtime.GOOS+"/"+runtime.GOARCH)
	})
}
