package envproject

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProject(t *testing.T) {
	tests := []struct {
		name     string
		env      map[string]string
		expected ReplacementMap
	}{
		{
			name:     "nil environment",
			env:      nil,
			expected: ReplacementMap{},
		},
		{
			name:     "no prefixed keys",
			env:      map[string]string{"HOME": "/root", "NODE_ENV": "production", "REACT_APP_X": "1"},
			expected: ReplacementMap{},
		},
		{
			name: "prefixed keys only",
			env: map[string]string{
				"REACT_ENV_API_URL": "https://api.example.com",
				"SECRET_TOKEN":      "abc",
			},
			expected: ReplacementMap{
				"process.env.REACT_ENV_API_URL": `"https://api.example.com"`,
			},
		},
		{
			name: "values are quoted literals",
			env: map[string]string{
				"REACT_ENV_FLAG":  "true",
				"REACT_ENV_EMPTY": "",
				"REACT_ENV_QUOTE": `say "hi"`,
			},
			expected: ReplacementMap{
				"process.env.REACT_ENV_FLAG":  `"true"`,
				"process.env.REACT_ENV_EMPTY": `""`,
				"process.env.REACT_ENV_QUOTE": `"say \"hi\""`,
			},
		},
		{
			name:     "prefix match is case sensitive",
			env:      map[string]string{"react_env_lower": "x"},
			expected: ReplacementMap{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Project(tt.env)
			require.NotNil(t, got)
			require.Equal(t, tt.expected, got)
		})
	}
}

func TestProject_valuesDecodeToInput(t *testing.T) {
	env := map[string]string{
		"REACT_ENV_UNICODE":   "héllo ✓",
		"REACT_ENV_NEWLINE":   "a\nb\tc",
		"REACT_ENV_BACKSLASH": `C:\path\to`,
		"REACT_ENV_HTML":      "<script>&</script>",
	}

	defines := Project(env)
	require.Len(t, defines, len(env))

	for key, value := range env {
		literal, ok := defines[Namespace+key]
		require.True(t, ok, "missing %s", key)

		var decoded string
		require.NoError(t, json.Unmarshal([]byte(literal), &decoded))
		assert.Equal(t, value, decoded)
	}
}

func TestProject_neverLeaksUnprefixedKeys(t *testing.T) {
	env := FromEnviron(os.Environ())
	env["REACT_ENV_PRESENT"] = "yes"

	for key := range Project(env) {
		assert.Contains(t, key, Namespace+Prefix)
	}
}

func TestProjector_notifiesObserver(t *testing.T) {
	var observed ReplacementMap
	p := &Projector{Observer: func(m ReplacementMap) { observed = m }}

	got := p.Project(map[string]string{"REACT_ENV_A": "1", "B": "2"})

	require.Equal(t, got, observed)
	require.Equal(t, []string{"process.env.REACT_ENV_A"}, observed.Keys())
}

func TestProjector_nilObserver(t *testing.T) {
	p := &Projector{}
	require.NotPanics(t, func() {
		got := p.Project(map[string]string{"REACT_ENV_A": "1"})
		require.Len(t, got, 1)
	})
}

func TestLoadDotenv(t *testing.T) {
	t.Run("missing file behaves like an empty environment", func(t *testing.T) {
		env := LoadDotenv(filepath.Join(t.TempDir(), ".env"))
		require.NotNil(t, env)
		require.Empty(t, env)
		require.Empty(t, Project(env))
	})

	t.Run("parses key value pairs", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), ".env")
		content := "# comment\nREACT_ENV_API_URL=https://api.example.com\nexport REACT_ENV_NAME=\"My App\"\nDB_PASSWORD=hunter2\n"
		require.NoError(t, os.WriteFile(path, []byte(content), 0600))

		env := LoadDotenv(path)
		assert.Equal(t, "https://api.example.com", env["REACT_ENV_API_URL"])
		assert.Equal(t, "My App", env["REACT_ENV_NAME"])

		defines := Project(env)
		assert.Equal(t, ReplacementMap{
			"process.env.REACT_ENV_API_URL": `"https://api.example.com"`,
			"process.env.REACT_ENV_NAME":    `"My App"`,
		}, defines)
	})

	t.Run("directory instead of file yields no entries", func(t *testing.T) {
		env := LoadDotenv(t.TempDir())
		require.Empty(t, env)
	})
}

func TestFromEnviron(t *testing.T) {
	env := FromEnviron([]string{"A=1", "B=", "NOEQUALS", "=orphan", "C=x=y"})
	require.Equal(t, map[string]string{"A": "1", "B": "", "C": "x=y"}, env)
}

func TestMerge(t *testing.T) {
	file := map[string]string{"REACT_ENV_A": "file", "REACT_ENV_B": "file"}
	process := map[string]string{"REACT_ENV_B": "process"}

	env := Merge(file, process, nil)
	require.Equal(t, map[string]string{"REACT_ENV_A": "file", "REACT_ENV_B": "process"}, env)
	require.Equal(t, "file", file["REACT_ENV_B"])
}

func TestReplacementMap_Values(t *testing.T) {
	defines := ReplacementMap{
		"process.env.REACT_ENV_NAME": `"My \"App\""`,
		"process.env.NODE_ENV":       `"production"`,
		"__DEV__":                    "false",
		"process.env.REACT_ENV_BAD":  "not-json",
	}

	require.Equal(t, map[string]string{
		"REACT_ENV_NAME": `My "App"`,
		"NODE_ENV":       "production",
	}, defines.Values())
}
