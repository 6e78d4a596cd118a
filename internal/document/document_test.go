package document_test

import (
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/worgue/magic-pocket/internal/document"
)

func mustDecode(t *testing.T, format document.Format, src string) document.Value {
	t.Helper()
	v, err := document.Decode(format, []byte(src))
	require.NoError(t, err)
	return v
}

func TestMergeKeepsKeysAbsentFromOverlay(t *testing.T) {
	root := mustDecode(t, document.FormatTOML, `
[a]
x = 1
y = 2
[a.nested]
foo = "bar"
`)
	overlay := mustDecode(t, document.FormatTOML, `
[a]
y = 3
z = 4
`)

	merged := document.Merge(root, overlay)

	want := map[string]interface{}{
		"a": map[string]interface{}{
			"x":      int64(1),
			"y":      int64(3),
			"z":      int64(4),
			"nested": map[string]interface{}{"foo": "bar"},
		},
	}
	assert.Equal(t, want, merged.Interface())

	// Inputs are untouched
	y, _ := root.Lookup("a", "y")
	assert.Equal(t, "2", y.String())
}

func TestMergeNestedTablesCombine(t *testing.T) {
	root := mustDecode(t, document.FormatTOML, `
[a.nested]
foo = "bar"
`)
	overlay := mustDecode(t, document.FormatTOML, `
[a.nested]
baz = "qux"
`)

	merged := document.Merge(root, overlay)
	foo, ok := merged.Lookup("a", "nested", "foo")
	require.True(t, ok)
	assert.Equal(t, "bar", foo.String())
	baz, ok := merged.Lookup("a", "nested", "baz")
	require.True(t, ok)
	assert.Equal(t, "qux", baz.String())
}

func TestMergeOverwriteRules(t *testing.T) {
	tests := []struct {
		name    string
		root    string
		overlay string
		path    []string
		want    interface{}
	}{
		{
			name:    "array replaced not appended",
			root:    `list = [1, 2]`,
			overlay: `list = [3]`,
			path:    []string{"list"},
			want:    []interface{}{int64(3)},
		},
		{
			name:    "table replaced by scalar",
			root:    "[t]\nx = 1",
			overlay: `t = "flat"`,
			path:    []string{"t"},
			want:    "flat",
		},
		{
			name:    "scalar replaced by table",
			root:    `t = "flat"`,
			overlay: "[t]\nx = 1",
			path:    []string{"t"},
			want:    map[string]interface{}{"x": int64(1)},
		},
		{
			name:    "empty overlay table keeps root children",
			root:    "[t]\nx = 1",
			overlay: `t = {}`,
			path:    []string{"t"},
			want:    map[string]interface{}{"x": int64(1)},
		},
		{
			name:    "empty overlay table creates missing key",
			root:    `other = 1`,
			overlay: `t = {}`,
			path:    []string{"t"},
			want:    map[string]interface{}{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			merged := document.Merge(
				mustDecode(t, document.FormatTOML, tt.root),
				mustDecode(t, document.FormatTOML, tt.overlay),
			)
			got, ok := merged.Lookup(tt.path...)
			require.True(t, ok)
			assert.Equal(t, tt.want, got.Interface())
		})
	}
}

// TestStringGolden pins the coercion of non-string option values so it does
// not drift with decoder changes.
func TestStringGolden(t *testing.T) {
	ts := time.Date(2024, 5, 1, 12, 30, 0, 0, time.UTC)

	tests := []struct {
		name  string
		value document.Value
		want  string
	}{
		{"string verbatim", document.String("plain"), "plain"},
		{"integer", document.Int(50), "50"},
		{"negative integer", document.Int(-7), "-7"},
		{"whole float keeps fraction", document.Float(2), "2.0"},
		{"float", document.Float(1.5), "1.5"},
		{"inf", document.Float(math.Inf(1)), "inf"},
		{"nan", document.Float(math.NaN()), "nan"},
		{"bool true", document.Bool(true), "true"},
		{"bool false", document.Bool(false), "false"},
		{"datetime", document.Time(ts), "2024-05-01T12:30:00Z"},
		{"null", document.Null(), ""},
		{"array", document.Seq(document.Int(1), document.String("a"), document.Bool(false)), `[1, "a", false]`},
		{"empty table", document.Map(nil), "{}"},
		{"table sorted", document.Map(map[string]document.Value{
			"b": document.String("x"),
			"a": document.Int(1),
		}), `{ a = 1, b = "x" }`},
		{"nested string escapes", document.Seq(document.String("q\"b\\s\n\t\x00\x7f")), `["q\"b\\s\n\t\u0000\u007F"]`},
		{"nested unicode kept", document.Seq(document.String("héllo")), `["héllo"]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.value.String())
		})
	}
}

func TestStringFromDecodedTOML(t *testing.T) {
	v := mustDecode(t, document.FormatTOML, `
length = 50
ratio = 0.25
whole = 3.0
upper = true
chars = ["a", "b"]
`)
	for key, want := range map[string]string{
		"length": "50",
		"ratio":  "0.25",
		"whole":  "3.0",
		"upper":  "true",
		"chars":  `["a", "b"]`,
	} {
		got, ok := v.Get(key)
		require.True(t, ok, key)
		assert.Equal(t, want, got.String(), key)
	}
}

func TestStringTOMLDatetimes(t *testing.T) {
	v := mustDecode(t, document.FormatTOML, `
date = 1979-05-27
clock = 07:32:00
local = 1979-05-27T07:32:00
offset = 1979-05-27T07:32:00-08:00
`)
	for key, want := range map[string]string{
		"date":   "1979-05-27",
		"clock":  "07:32:00",
		"local":  "1979-05-27T07:32:00",
		"offset": "1979-05-27T07:32:00-08:00",
	} {
		got, ok := v.Get(key)
		require.True(t, ok, key)
		assert.Equal(t, want, got.String(), key)
	}
}

func TestInterfaceNonFiniteFloats(t *testing.T) {
	v := mustDecode(t, document.FormatTOML, `
up = inf
down = -inf
odd = nan
ok = 1.5
`)
	assert.Equal(t, map[string]interface{}{
		"up":   "inf",
		"down": "-inf",
		"odd":  "nan",
		"ok":   1.5,
	}, v.Interface())
}

func TestDecodeYAMLMatchesTOML(t *testing.T) {
	fromTOML := mustDecode(t, document.FormatTOML, `
[general]
region = "ap-northeast-1"
stages = ["dev", "prod"]

[awscontainer.handlers.worker]
timeout = 600
sqs = {}
`)
	fromYAML := mustDecode(t, document.FormatYAML, `
general:
  region: ap-northeast-1
  stages: [dev, prod]
awscontainer:
  handlers:
    worker:
      timeout: 600
      sqs: {}
`)
	assert.Equal(t, fromTOML.Interface(), fromYAML.Interface())
}

func TestDecodeErrors(t *testing.T) {
	_, err := document.Decode(document.FormatTOML, []byte("[general\nregion ="))
	assert.ErrorContains(t, err, "invalid TOML")

	_, err = document.Decode(document.FormatYAML, []byte("- just\n- a list"))
	assert.ErrorContains(t, err, "invalid YAML")

	_, err = document.Decode(document.Format("ini"), []byte(""))
	assert.Error(t, err)
}

func TestDecodeEmptyYAML(t *testing.T) {
	v := mustDecode(t, document.FormatYAML, "")
	assert.True(t, v.IsMap())
	assert.Equal(t, 0, v.Len())
}

func TestFormatFor(t *testing.T) {
	assert.Equal(t, document.FormatTOML, document.FormatFor("pocket.toml"))
	assert.Equal(t, document.FormatYAML, document.FormatFor("/a/pocket.YAML"))
	assert.Equal(t, document.FormatYAML, document.FormatFor("pocket.yml"))
	assert.Equal(t, document.FormatTOML, document.FormatFor("pocket"))
}

func TestWithout(t *testing.T) {
	v := mustDecode(t, document.FormatTOML, "a = 1\nb = 2\nc = 3")
	trimmed := v.Without("a", "c", "missing")
	assert.Equal(t, []string{"b"}, trimmed.Keys())
	assert.Equal(t, []string{"a", "b", "c"}, v.Keys())
}

func TestFindSearchesUpward(t *testing.T) {
	root := t.TempDir()
	nested := filepath.Join(root, "app", "src")
	require.NoError(t, os.MkdirAll(nested, 0o755))
	docPath := filepath.Join(root, "pocket.toml")
	require.NoError(t, os.WriteFile(docPath, []byte("[general]\n"), 0o644))

	found, err := document.Find(nested)
	require.NoError(t, err)
	assert.Equal(t, docPath, found)
}

func TestFindPrefersTOML(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "pocket.yaml"), []byte("general: {}\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "pocket.toml"), []byte("[general]\n"), 0o644))

	found, err := document.Find(dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "pocket.toml"), found)
}

func TestReadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "pocket.yml")
	require.NoError(t, os.WriteFile(path, []byte("general:\n  region: us-east-1\n"), 0o644))

	v, err := document.ReadFile(path)
	require.NoError(t, err)
	region, ok := v.Lookup("general", "region")
	require.True(t, ok)
	assert.Equal(t, "us-east-1", region.String())

	_, err = document.ReadFile(filepath.Join(dir, "missing.toml"))
	assert.True(t, os.IsNotExist(err))
}
