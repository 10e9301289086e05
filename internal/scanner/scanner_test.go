package scanner

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"testing"
)

func writeTestFile(t *testing.T, path string, data []byte) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("Failed to create dir: %v", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatalf("Failed to write %s: %v", path, err)
	}
}

func TestDetectInputType(t *testing.T) {
	tmpDir := t.TempDir()

	zipData := append([]byte{0x50, 0x4B, 0x03, 0x04}, make([]byte, 16)...)
	gzipData := append([]byte{0x1F, 0x8B}, make([]byte, 16)...)

	files := map[string][]byte{
		"demo-1.0-py3-none-any.whl":          zipData,
		"demo-1.0.tar.gz":                    gzipData,
		"demo-1.0.zip":                       zipData,
		"fake-1.0.tar.gz":                    []byte("not gzip at all"),
		"demo-1.0-py3-none-any.whl.metadata": []byte("Name: demo\n"),
		"README.md":                          []byte("# demo\n"),
		"src/pyproject.toml":                 []byte("[project]\n"),
		"demo-1.0.dist-info/METADATA":        []byte("Name: demo\n"),
		"legacy.egg-info/PKG-INFO":           []byte("Name: legacy\n"),
		"empty-1.0.dist-info/RECORD":         []byte(""),
	}
	for name, data := range files {
		writeTestFile(t, filepath.Join(tmpDir, name), data)
	}

	tests := []struct {
		path string
		want InputType
	}{
		{"demo-1.0-py3-none-any.whl", TypeWheel},
		{"demo-1.0.tar.gz", TypeSdist},
		{"demo-1.0.zip", TypeSdist},
		{"fake-1.0.tar.gz", TypeUnknown},
		{"demo-1.0-py3-none-any.whl.metadata", TypeMetadataFile},
		{"README.md", TypeUnknown},
		{"src", TypePyProject},
		{"src/pyproject.toml", TypePyProject},
		{"demo-1.0.dist-info", TypeDistInfo},
		{"legacy.egg-info", TypeEggInfo},
		{"empty-1.0.dist-info", TypeUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			got, err := DetectInputType(filepath.Join(tmpDir, tt.path))
			if err != nil {
				t.Fatalf("DetectInputType failed: %v", err)
			}
			if got != tt.want {
				t.Errorf("DetectInputType(%s) = %s, want %s", tt.path, got, tt.want)
			}
		})
	}

	if _, err := DetectInputType(filepath.Join(tmpDir, "missing.whl")); err == nil {
		t.Error("Expected error for missing path")
	}
}

func TestScan(t *testing.T) {
	tmpDir := t.TempDir()
	zipData := append([]byte{0x50, 0x4B, 0x03, 0x04}, make([]byte, 16)...)

	writeTestFile(t, filepath.Join(tmpDir, "a-1.0.dist-info", "METADATA"), []byte("Name: a\n"))
	writeTestFile(t, filepath.Join(tmpDir, "a-1.0.dist-info", "nested-1.0.dist-info", "METADATA"), []byte("Name: nested\n"))
	writeTestFile(t, filepath.Join(tmpDir, "b-1.0-py3-none-any.whl"), zipData)
	writeTestFile(t, filepath.Join(tmpDir, "sub", "c-1.0-py3-none-any.whl"), zipData)
	writeTestFile(t, filepath.Join(tmpDir, "sub", "PKG-INFO"), []byte("Name: ignored\n"))
	writeTestFile(t, filepath.Join(tmpDir, "project", "pyproject.toml"), []byte("[project]\n"))

	tests := []struct {
		name      string
		recursive bool
		want      []string
	}{
		{"flat", false, []string{"a-1.0.dist-info", "b-1.0-py3-none-any.whl"}},
		{"recursive", true, []string{"a-1.0.dist-info", "b-1.0-py3-none-any.whl", "sub/c-1.0-py3-none-any.whl"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inputs, err := NewFileSystemScanner(tt.recursive).Scan(context.Background(), tmpDir)
			if err != nil {
				t.Fatalf("Scan failed: %v", err)
			}

			var got []string
			for _, in := range inputs {
				rel, _ := filepath.Rel(tmpDir, in.Path)
				got = append(got, filepath.ToSlash(rel))
			}
			sort.Strings(got)

			if len(got) != len(tt.want) {
				t.Fatalf("Scan found %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("Scan found %v, want %v", got, tt.want)
					break
				}
			}
		})
	}
}

func TestResolve(t *testing.T) {
	tmpDir := t.TempDir()
	writeTestFile(t, filepath.Join(tmpDir, "a-1.0.dist-info", "METADATA"), []byte("Name: a\n"))
	writeTestFile(t, filepath.Join(tmpDir, "notes.txt"), []byte("hello"))

	sc := NewFileSystemScanner(false)
	ctx := context.Background()

	inputs, err := sc.Resolve(ctx, filepath.Join(tmpDir, "a-1.0.dist-info"))
	if err != nil || len(inputs) != 1 || inputs[0].Type != TypeDistInfo {
		t.Errorf("Resolve(dist-info) = %v, %v", inputs, err)
	}

	inputs, err = sc.Resolve(ctx, tmpDir)
	if err != nil || len(inputs) != 1 {
		t.Errorf("Resolve(dir) = %v, %v", inputs, err)
	}

	if _, err := sc.Resolve(ctx, filepath.Join(tmpDir, "notes.txt")); err == nil {
		t.Error("Expected error for a file that is not a distribution")
	}

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	if _, err := sc.Scan(cancelled, tmpDir); err == nil {
		t.Error("Expected error for cancelled context")
	}
}

func TestInputTypeHasPayload(t *testing.T) {
	for _, typ := range []InputType{TypeDistInfo, TypeWheel} {
		if !typ.HasPayload() {
			t.Errorf("%s should carry a payload", typ)
		}
	}
	for _, typ := range []InputType{TypeUnknown, TypeEggInfo, TypeMetadataFile, TypeSdist, TypePyProject} {
		if typ.HasPayload() {
			t.Errorf("%s should not carry a payload", typ)
		}
	}
}
