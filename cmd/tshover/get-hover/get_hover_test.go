package get_hover

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/walteh/tshover/pkg/config"
	"github.com/walteh/tshover/pkg/position"
	"github.com/walteh/tshover/pkg/quickinfo"
	"github.com/walteh/tshover/pkg/setup"
)

type scriptedEngine struct {
	opened map[string]string
	closed bool
}

func (me *scriptedEngine) QuickInfoAt(ctx context.Context, file string, offset position.Offset) (*quickinfo.QuickInfo, error) {
	if _, ok := me.opened[file]; !ok || offset != 6 {
		return nil, nil
	}
	return &quickinfo.QuickInfo{
		DisplayParts:  []quickinfo.DisplayPart{{Text: "const x: number", Kind: "text"}},
		Documentation: []quickinfo.DisplayPart{{Text: "The answer.", Kind: "text"}},
		TextSpan:      position.Span{Start: 6, Length: 1},
	}, nil
}

func (me *scriptedEngine) OpenFile(ctx context.Context, file, content string) error {
	me.opened[file] = content
	return nil
}

func (me *scriptedEngine) CloseFile(ctx context.Context, file string) error {
	delete(me.opened, file)
	return nil
}

func (me *scriptedEngine) Close() error {
	me.closed = true
	return nil
}

func runGetHover(t *testing.T, args ...string) (string, *scriptedEngine, error) {
	t.Helper()

	fs := afero.NewMemMapFs()
	path, err := filepath.Abs("work/a.ts")
	require.NoError(t, err)
	require.NoError(t, afero.WriteFile(fs, path, []byte("const x = 5;"), 0o644))

	engine := &scriptedEngine{opened: map[string]string{}}
	cmd := newCommand(&Handler{
		fs: fs,
		newEngine: func(ctx context.Context, cfg *config.Config) (setup.Engine, error) {
			return engine, nil
		},
	})

	var out, logs bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&logs)
	cmd.SetArgs(append([]string{"work/a.ts"}, args...))

	err = cmd.ExecuteContext(context.Background())
	return out.String(), engine, err
}

func TestGetHover(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{
			name: "markdown",
			args: []string{"--line", "0", "--character", "6"},
			want: "```typescript\nconst x: number\n```\n\nThe answer.\n",
		},
		{
			name: "documentation only",
			args: []string{"--line", "0", "--character", "6", "--documentation-only"},
			want: "The answer.\n",
		},
		{
			name: "nothing there",
			args: []string{"--line", "0", "--character", "1"},
			want: "",
		},
		{
			name: "nothing there as json",
			args: []string{"--line", "0", "--character", "1", "--format", "json"},
			want: "null\n",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, engine, err := runGetHover(t, tt.args...)
			require.NoError(t, err)
			assert.Equal(t, tt.want, out)
			assert.True(t, engine.closed)
		})
	}
}

func TestGetHoverJSON(t *testing.T) {
	out, _, err := runGetHover(t, "--line", "0", "--character", "6", "--format", "json")
	require.NoError(t, err)

	assert.JSONEq(t, `{
		"contents": {"kind": "markdown", "value": "`+"```typescript\\nconst x: number\\n```\\n\\nThe answer."+`"},
		"range": {"start": {"line": 0, "character": 6}, "end": {"line": 0, "character": 7}}
	}`, out)
}

func TestGetHoverErrors(t *testing.T) {
	_, _, err := runGetHover(t, "--format", "html")
	require.Error(t, err)
	assert.ErrorContains(t, err, `unknown format "html"`)

	_, _, err = runGetHover(t, "--config", "/missing.hcl")
	require.Error(t, err)
}
