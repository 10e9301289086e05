package pypi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ralt/pupa/internal/utils"
)

const demoMetadata = "Metadata-Version: 2.1\nName: demo-app\nVersion: 1.0\nRequires-Dist: requests>=2\n"

func testClient(url string) *Client {
	c := NewClient(url)
	c.retryDelay = 0
	return c
}

func newIndex(t *testing.T, files []map[string]any, metadata map[string]string) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/simple/demo-app/", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, acceptHeader, r.Header.Get("Accept"))
		w.Header().Set("Content-Type", acceptHeader)
		json.NewEncoder(w).Encode(map[string]any{"name": "demo-app", "files": files})
	})
	mux.HandleFunc("/files/", func(w http.ResponseWriter, r *http.Request) {
		body, ok := metadata[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte(body))
	})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func TestFetchMetadataPrefersPureWheel(t *testing.T) {
	files := []map[string]any{
		{"filename": "demo_app-1.0.tar.gz", "url": "../../files/demo_app-1.0.tar.gz", "hashes": map[string]string{}},
		{
			"filename":      "demo_app-1.0-cp312-cp312-manylinux_2_17_x86_64.whl",
			"url":           "../../files/demo_app-1.0-cp312-cp312-manylinux_2_17_x86_64.whl",
			"core-metadata": true,
		},
		{
			"filename":      "demo_app-1.0-py3-none-any.whl",
			"url":           "../../files/demo_app-1.0-py3-none-any.whl#sha256=abc",
			"core-metadata": map[string]string{"sha256": utils.SHA256Hex([]byte(demoMetadata))},
		},
		{"filename": "demo_app-0.9-py3-none-any.whl", "url": "../../files/demo_app-0.9-py3-none-any.whl", "core-metadata": true},
	}
	server := newIndex(t, files, map[string]string{
		"/files/demo_app-1.0-py3-none-any.whl.metadata":                      demoMetadata,
		"/files/demo_app-1.0-cp312-cp312-manylinux_2_17_x86_64.whl.metadata": "Name: wrong\n",
	})

	d, err := testClient(server.URL+"/simple").FetchMetadata(context.Background(), "Demo_App", "1.0")
	require.NoError(t, err)
	assert.Equal(t, "demo-app", d.Name())
	assert.Equal(t, "1.0", d.Version())
	assert.Equal(t, []string{"requests>=2"}, d.Requires())
}

func TestFetchMetadataLegacyFieldAndVersionNormalization(t *testing.T) {
	files := []map[string]any{
		{"filename": "demo_app-1.0.0-py3-none-any.whl", "url": "/files/demo_app-1.0.0-py3-none-any.whl", "dist-info-metadata": true},
	}
	server := newIndex(t, files, map[string]string{"/files/demo_app-1.0.0-py3-none-any.whl.metadata": demoMetadata})

	d, err := testClient(server.URL+"/simple/").FetchMetadata(context.Background(), "demo-app", "1.0")
	require.NoError(t, err)
	assert.Equal(t, "demo-app", d.Name())
}

func TestFetchMetadataHashMismatch(t *testing.T) {
	files := []map[string]any{
		{"filename": "demo_app-1.0-py3-none-any.whl", "url": "/files/demo_app-1.0-py3-none-any.whl", "core-metadata": map[string]string{"sha256": "00"}},
	}
	server := newIndex(t, files, map[string]string{"/files/demo_app-1.0-py3-none-any.whl.metadata": demoMetadata})

	_, err := testClient(server.URL+"/simple").FetchMetadata(context.Background(), "demo-app", "1.0")
	assert.ErrorIs(t, err, ErrHashMismatch)
}

func TestFetchMetadataErrors(t *testing.T) {
	files := []map[string]any{
		{"filename": "demo_app-1.0-py3-none-any.whl", "url": "/files/demo_app-1.0-py3-none-any.whl"},
	}
	server := newIndex(t, files, nil)
	c := testClient(server.URL + "/simple")

	_, err := c.FetchMetadata(context.Background(), "demo-app", "1.0")
	assert.ErrorIs(t, err, ErrNoMetadata)

	_, err = c.FetchMetadata(context.Background(), "demo-app", "2.0")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = c.FetchMetadata(context.Background(), "missing", "1.0")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = c.FetchMetadata(context.Background(), "../demo-app", "1.0")
	assert.ErrorIs(t, err, ErrInvalidName)
}

func TestFetchMetadataRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	_, err := testClient(server.URL).FetchMetadata(context.Background(), "demo-app", "1.0")
	assert.ErrorIs(t, err, ErrNetwork)
	assert.Equal(t, int32(retries), calls.Load())
}

func TestFileYanked(t *testing.T) {
	tests := []struct {
		raw  string
		want bool
	}{
		{``, false},
		{`false`, false},
		{`true`, true},
		{`"broken build"`, true},
	}
	for _, tt := range tests {
		f := projectFile{Yanked: json.RawMessage(tt.raw)}
		assert.Equal(t, tt.want, f.yanked(), tt.raw)
	}
}

func TestSelectWheelSkipsYanked(t *testing.T) {
	files := []projectFile{
		{Filename: "demo-1.0-py3-none-any.whl", CoreMetadata: json.RawMessage(`true`), Yanked: json.RawMessage(`"bad"`)},
		{Filename: "demo-1.0-cp312-cp312-win_amd64.whl", CoreMetadata: json.RawMessage(`true`)},
	}
	f, ok := selectWheel(files, "1.0")
	require.True(t, ok)
	assert.Equal(t, "demo-1.0-cp312-cp312-win_amd64.whl", f.Filename)
}
