package matchspec

import (
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeCanonicalForms(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"foo", "foo"},
		{"Foo_Bar", "foo_bar"},
		{"foo>=1.0", "foo >=1.0"},
		{"foo  >= 1.0", "foo >=1.0"},
		{"foo>=1.0,<2", "foo >=1.0,<2"},
		{"foo>=1.0 , <2", "foo >=1.0,<2"},
		{"foo<2,>=1.0", "foo <2,>=1.0"},
		{"foo==1.0", "foo 1.0"},
		{"foo ==1.0", "foo 1.0"},
		{"foo==1.*", "foo 1.*"},
		{"foo=1.0", "foo 1.0.*"},
		{"foo~=1.0", "foo ~=1.0"},
		{"foo[bar]>=1.0", "foo >=1.0"},
		{"foo[a,b]<2", "foo <2"},
		{"Foo>=1", "foo >=1"},
		{"foo!=1.5", "foo !=1.5"},
		{"foo!=1.0.*", "foo !=1.0.*"},
		{"foo 1.0 py_0", "foo 1.0 py_0"},
		{"foo=1.0=py_0", "foo 1.0 py_0"},
		{"foo>=1.0|<0.5", "foo >=1.0|<0.5"},
		{"foo==1.0,!=1.0.1", "foo 1.0,!=1.0.1"},
		{`foo[version=">=1"]`, "foo >=1"},
		{"foo==1.0+abc", "foo 1.0+abc"},
		{"foo>=1!1.0", "foo >=1!1.0"},
		{"zope.hookable<2,>=1.0", "zope.hookable <2,>=1.0"},
		{"typing_extensions>=4", "typing_extensions >=4"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			r := Normalize(tt.in)
			require.True(t, r.OK(), r.Warning)
			assert.Equal(t, tt.want, r.Value())
			assert.Equal(t, tt.in, r.Original)
		})
	}
}

func TestNormalizeIsIdempotent(t *testing.T) {
	for _, in := range []string{"foo=1.0", "foo  >= 1.0", "foo[bar]>=1.0,<2", "foo=1.0=py_0", "foo ~=1.4.2"} {
		once := Normalize(in).Value()
		assert.Equal(t, once, Normalize(once).Value(), in)
	}
}

func TestNormalizeFallsBackToOriginal(t *testing.T) {
	for _, in := range []string{
		"foo ^1.0",
		"foo>=",
		"foo<>1",
		"foo>=1.0 <2",
		"foo>=1.0,",
		"foo>==1",
		"foo~1",
		"foo>=@1",
		"foo>=1..0",
		"foo===1.0",
		`foo>=1.0; python_version < "3.8"`,
		"foo@ https://example.com/foo-1.0-py3-none-any.whl",
		"",
	} {
		t.Run(in, func(t *testing.T) {
			r := Normalize(in)
			assert.False(t, r.OK())
			assert.Equal(t, in, r.Value())
			assert.NotEmpty(t, r.Warning)
		})
	}
}

func TestNormalizerLogsWarning(t *testing.T) {
	logger, hook := test.NewNullLogger()
	n := NewNormalizer(logger)

	r := n.Normalize("foo>=1.0")
	assert.Equal(t, "foo >=1.0", r.Value())
	assert.Empty(t, hook.AllEntries())

	r = n.Normalize("foo ^1.0")
	assert.Equal(t, "foo ^1.0", r.Value())
	require.Len(t, hook.AllEntries(), 1)
	assert.Equal(t, logrus.WarnLevel, hook.LastEntry().Level)
	assert.Equal(t, "foo ^1.0", hook.LastEntry().Data["requirement"])
}

func TestParseFields(t *testing.T) {
	ms, err := Parse("numpy >=1.21 py_0")
	require.NoError(t, err)
	assert.Equal(t, MatchSpec{Name: "numpy", Version: ">=1.21", Build: "py_0"}, ms)

	_, err = Parse("numpy[channel=conda-forge]")
	var ime *InvalidMatchSpecError
	assert.ErrorAs(t, err, &ime)
}
