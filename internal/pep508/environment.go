package pep508

import (
	"fmt"
	"runtime"
	"strings"
)

// DefaultPythonVersion is used when no target interpreter is configured.
const DefaultPythonVersion = "3.12"

// Environment holds the values marker variables are evaluated against.
// It is a plain value; copies are independent.
type Environment struct {
	OSName                       string
	SysPlatform                  string
	PlatformMachine              string
	PlatformPythonImplementation string
	PlatformRelease              string
	PlatformSystem               string
	PlatformVersion              string
	PythonVersion                string
	PythonFullVersion            string
	ImplementationName           string
	ImplementationVersion        string
	Extra                        string
}

// Lookup returns the value of a marker variable.
func (e Environment) Lookup(variable string) (string, bool) {
	switch variable {
	case "os_name":
		return e.OSName, true
	case "sys_platform":
		return e.SysPlatform, true
	case "platform_machine":
		return e.PlatformMachine, true
	case "platform_python_implementation":
		return e.PlatformPythonImplementation, true
	case "platform_release":
		return e.PlatformRelease, true
	case "platform_system":
		return e.PlatformSystem, true
	case "platform_version":
		return e.PlatformVersion, true
	case "python_version":
		return e.PythonVersion, true
	case "python_full_version":
		return e.PythonFullVersion, true
	case "implementation_name":
		return e.ImplementationName, true
	case "implementation_version":
		return e.ImplementationVersion, true
	case "extra":
		return e.Extra, true
	}
	return "", false
}

// WithExtra returns a copy of e with the extra variable set.
func (e Environment) WithExtra(extra string) Environment {
	e.Extra = extra
	return e
}

// DefaultEnvironment describes a CPython interpreter of the given version
// running on the current GOOS and GOARCH.
func DefaultEnvironment(pythonVersion string) Environment {
	return newEnvironment(runtime.GOOS, runtime.GOARCH, pythonVersion)
}

// EnvironmentForSubdir describes a CPython interpreter on the platform named
// by a conda subdir such as "linux-64" or "osx-arm64". The noarch subdir
// falls back to the current platform.
func EnvironmentForSubdir(subdir, pythonVersion string) (Environment, error) {
	var goos, goarch string
	switch subdir {
	case "", "noarch":
		return DefaultEnvironment(pythonVersion), nil
	case "linux-64":
		goos, goarch = "linux", "amd64"
	case "linux-aarch64":
		goos, goarch = "linux", "arm64"
	case "linux-ppc64le":
		goos, goarch = "linux", "ppc64le"
	case "osx-64":
		goos, goarch = "darwin", "amd64"
	case "osx-arm64":
		goos, goarch = "darwin", "arm64"
	case "win-64":
		goos, goarch = "windows", "amd64"
	case "win-arm64":
		goos, goarch = "windows", "arm64"
	default:
		return Environment{}, fmt.Errorf("unsupported platform %q", subdir)
	}
	return newEnvironment(goos, goarch, pythonVersion), nil
}

func newEnvironment(goos, goarch, pythonVersion string) Environment {
	if pythonVersion == "" {
		pythonVersion = DefaultPythonVersion
	}
	short, full := pythonVersions(pythonVersion)

	env := Environment{
		PlatformMachine:              machine(goos, goarch),
		PlatformPythonImplementation: "CPython",
		PythonVersion:                short,
		PythonFullVersion:            full,
		ImplementationName:           "cpython",
		ImplementationVersion:        full,
	}
	switch goos {
	case "windows":
		env.OSName, env.SysPlatform, env.PlatformSystem = "nt", "win32", "Windows"
	case "darwin":
		env.OSName, env.SysPlatform, env.PlatformSystem = "posix", "darwin", "Darwin"
	default:
		env.OSName, env.SysPlatform, env.PlatformSystem = "posix", goos, capitalize(goos)
	}
	return env
}

// pythonVersions splits "3.12" or "3.12.4" into python_version and
// python_full_version.
func pythonVersions(v string) (string, string) {
	parts := strings.Split(v, ".")
	if len(parts) < 2 {
		return v, v + ".0.0"
	}
	short := parts[0] + "." + parts[1]
	if len(parts) == 2 {
		return short, v + ".0"
	}
	return short, v
}

func machine(goos, goarch string) string {
	switch goarch {
	case "amd64":
		if goos == "windows" {
			return "AMD64"
		}
		return "x86_64"
	case "arm64":
		switch goos {
		case "darwin":
			return "arm64"
		case "windows":
			return "ARM64"
		}
		return "aarch64"
	case "386":
		return "i686"
	}
	return goarch
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
