package pep508

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanonicalizeName(t *testing.T) {
	tests := map[string]string{
		"zope.hookable":     "zope-hookable",
		"Zope_Hookable":     "zope-hookable",
		"typing_extensions": "typing-extensions",
		"Foo.-_Bar":         "foo-bar",
		"requests":          "requests",
	}
	for in, want := range tests {
		assert.Equal(t, want, CanonicalizeName(in), in)
	}
	assert.True(t, IsValidName("zope.hookable"))
	assert.False(t, IsValidName("-foo"))
}

func TestParseRequirement(t *testing.T) {
	tests := []struct {
		in     string
		name   string
		extras []string
		specs  string
		url    string
		marker string
		str    string
	}{
		{in: "requests", name: "requests", str: "requests"},
		{in: "foo>=1.0,<2", name: "foo", specs: "<2,>=1.0", str: "foo<2,>=1.0"},
		{in: "foo (>=1.0)", name: "foo", specs: ">=1.0", str: "foo>=1.0"},
		{in: "Foo_Bar[b,a]>=1.0,<2; python_version >= '3.9'", name: "Foo_Bar", extras: []string{"a", "b"},
			specs: "<2,>=1.0", marker: `python_version >= "3.9"`, str: `Foo_Bar[a,b]<2,>=1.0; python_version >= "3.9"`},
		{in: "foo@ https://x/y.whl ; os_name == 'nt'", name: "foo", url: "https://x/y.whl",
			marker: `os_name == "nt"`, str: `foo@ https://x/y.whl ; os_name == "nt"`},
		{in: "foo @ https://x/y.whl", name: "foo", url: "https://x/y.whl", str: "foo@ https://x/y.whl"},
		{in: "foo[]", name: "foo", str: "foo"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			r, err := ParseRequirement(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.name, r.Name)
			assert.Equal(t, tt.extras, r.Extras)
			assert.Equal(t, tt.specs, r.Specifiers.String())
			assert.Equal(t, tt.url, r.URL)
			assert.Equal(t, tt.marker, r.Marker.String())
			assert.Equal(t, tt.str, r.String())
		})
	}
}

func TestParseRequirementMalformed(t *testing.T) {
	for _, in := range []string{
		"",
		">=1.0",
		"foo bar",
		"foo>=",
		"foo>=1.0 <2",
		"foo[bar",
		"foo (>=1.0",
		"foo; ",
		"foo; python_version >=",
		"foo; bogus_var == 'x'",
		"foo @",
		"foo @ https://x/y.whl; os_name == 'nt' junk",
	} {
		t.Run(in, func(t *testing.T) {
			_, err := ParseRequirement(in)
			var mre *MalformedRequirementError
			require.ErrorAs(t, err, &mre)
			assert.Equal(t, in, mre.Requirement)
		})
	}
}

func TestWithoutMarker(t *testing.T) {
	r, err := ParseRequirement(`zope.hookable>=5.0; python_version >= "3.9"`)
	require.NoError(t, err)
	assert.Equal(t, "zope.hookable>=5.0", r.WithoutMarker().String())
	assert.NotNil(t, r.Marker)
}

func TestApplies(t *testing.T) {
	env := Environment{PythonVersion: "3.8", PythonFullVersion: "3.8.0"}

	r, err := ParseRequirement(`foo; python_version >= "3.9"`)
	require.NoError(t, err)
	ok, err := r.Applies(env, "raw")
	require.NoError(t, err)
	assert.False(t, ok)

	r, err = ParseRequirement(`foo; python_version ~= "abc"`)
	require.NoError(t, err)
	_, err = r.Applies(env, "raw")
	var mre *MalformedRequirementError
	require.ErrorAs(t, err, &mre)
	assert.Equal(t, "raw", mre.Requirement)

	r, err = ParseRequirement("foo")
	require.NoError(t, err)
	ok, err = r.Applies(env, "foo")
	require.NoError(t, err)
	assert.True(t, ok)
}
