package appconfig

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const descriptor = `[app]
name = Example
author: Jane Doe
installed-apps =
    example
    example.plugins
settings = greeting

[greeting]
name = GREETING
verbose-name = Greeting
type = string
`

type staticValidator bool

func (v staticValidator) IsValid(context.Context, *Config) bool {
	return bool(v)
}

func triples(c *Config) map[string]map[string]string {
	result := map[string]map[string]string{}
	for _, name := range c.SectionNames() {
		result[name] = c.Section(name).Map()
	}
	return result
}

func TestGetList(t *testing.T) {
	c := New()
	c.Section("app").Set("settings", "a\nb\n\nc")

	assert.Equal(t, []string{"a", "b", "c"}, c.Section("app").GetList("settings", nil))
	assert.Equal(t, []string{}, c.Section("app").GetList("missing", nil))
	assert.Equal(t, []string{"x"}, c.Section("app").GetList("missing", []string{"x"}))
}

func TestSectionHandlesShareData(t *testing.T) {
	c := New()
	assert.False(t, c.HasSection("foo"))

	first := c.Section("foo")
	second := c.Section("foo")
	assert.True(t, c.HasSection("foo"))

	first.Set("key", "value")
	assert.Equal(t, "value", second.Get("key", ""))

	second.Delete("key")
	assert.False(t, first.Has("key"))
}

func TestTypedGetters(t *testing.T) {
	c := New()
	s := c.Section("typed")
	s.Set("count", "12")
	s.Set("ratio", "0.5")
	s.Set("flag", "yes")
	s.Set("junk", "twelve")

	n, err := s.GetInt("count", 0)
	require.NoError(t, err)
	assert.Equal(t, 12, n)

	f, err := s.GetFloat("ratio", 0)
	require.NoError(t, err)
	assert.Equal(t, 0.5, f)

	b, err := s.GetBool("flag", false)
	require.NoError(t, err)
	assert.True(t, b)

	n, err = s.GetInt("absent", 7)
	require.NoError(t, err)
	assert.Equal(t, 7, n)

	_, err = s.GetInt("junk", 0)
	var perr *ParseError
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, "junk", perr.Key)
	assert.Equal(t, "int", perr.Kind)

	_, err = s.GetBool("junk", false)
	assert.Error(t, err)

	assert.Equal(t, "fallback", s.Get("absent", "fallback"))
}

func TestLoadMultilineValues(t *testing.T) {
	c, err := Load([]byte(descriptor))
	require.NoError(t, err)

	app := c.Section("app")
	assert.Equal(t, "Example", app.Get("name", ""))
	assert.Equal(t, "Jane Doe", app.Get("author", ""))
	assert.Equal(t, []string{"example", "example.plugins"}, app.GetList("installed-apps", nil))
	assert.Equal(t, []string{"greeting"}, app.GetList("settings", nil))
	assert.Equal(t, []string{"app", "greeting"}, c.SectionNames())
	assert.Equal(t, []string{"name", "author", "installed-apps", "settings"}, app.Keys())
}

func TestLoadSyntaxError(t *testing.T) {
	_, err := Load([]byte("[app\nname = x\n"))

	var serr *SyntaxError
	require.True(t, errors.As(err, &serr))
	assert.Equal(t, "<string>", serr.Source)
}

func TestLoadFileMissing(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "nope.ini"))
	assert.True(t, os.IsNotExist(errors.Cause(err)))
}

func TestRoundTrip(t *testing.T) {
	c := New()
	c.Section("app").Set("name", "Example")
	c.Section("app").Set("installed-apps", "example\nexample.plugins")
	c.Section("app").Set("url", "https://example.com/#readme")
	c.Section("templates").Set("example/plugin.html", "templates/plugin.html")

	path := filepath.Join(t.TempDir(), "example.ini")
	require.NoError(t, c.WriteFile(context.Background(), path, staticValidator(true)))

	loaded, err := LoadFile(path)
	require.NoError(t, err)

	if diff := cmp.Diff(triples(c), triples(loaded)); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestWriteFileInvalid(t *testing.T) {
	c := New()
	c.Section("app").Set("name", "Example")

	path := filepath.Join(t.TempDir(), "example.ini")
	err := c.WriteFile(context.Background(), path, staticValidator(false))

	assert.Equal(t, ErrInvalid, err)
	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr))
}

func TestWriteLayout(t *testing.T) {
	c := New()
	c.Section("app").Set("name", "Example")
	c.Section("app").Set("installed-apps", "example\nexample.plugins")
	c.Section("app").Set("url", "https://example.com/#readme")
	c.Section("app").Set("private", "")
	c.Section("templates").Set("example/plugin.html", "templates/plugin.html")

	data, err := c.Bytes()
	require.NoError(t, err)

	want := "[app]\n" +
		"name = Example\n" +
		"installed-apps = example\n" +
		"    example.plugins\n" +
		"url = https://example.com/#readme\n" +
		"private = \n" +
		"\n" +
		"[templates]\n" +
		"example/plugin.html = templates/plugin.html\n" +
		"\n"
	assert.Equal(t, want, string(data))
}

func TestLoadContinuationGaps(t *testing.T) {
	type gapTest = struct {
		name  string
		input string
		want  []string
	}

	tests := []gapTest{
		{"blank line", "[app]\ninstalled-apps =\n    a\n\n    b\n", []string{"a", "b"}},
		{"comment line", "[app]\ninstalled-apps = a\n    b\n# comment\n    c\n", []string{"a", "b", "c"}},
		{"semicolon comment and blanks", "[app]\ninstalled-apps = a\n\n; note\n\n    b\nname = x\n", []string{"a", "b"}},
		{"trailing blank", "[app]\ninstalled-apps = a\n    b\n\nname = x\n", []string{"a", "b"}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			c, err := Load([]byte(tc.input))
			require.NoError(t, err)
			assert.Equal(t, tc.want, c.Section("app").GetList("installed-apps", nil))
		})
	}
}

func TestLoadKeysCaseInsensitive(t *testing.T) {
	c, err := Load([]byte("[app]\nName = X\nAuthor-Email = alice@example.com\n"))
	require.NoError(t, err)

	app := c.Section("app")
	assert.True(t, app.Has("name"))
	assert.True(t, app.Has("NAME"))
	assert.Equal(t, "X", app.Get("name", ""))
	assert.Equal(t, "alice@example.com", app.Get("author-email", ""))
	assert.Equal(t, []string{"name", "author-email"}, app.Keys())
}
