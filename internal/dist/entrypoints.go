package dist

import (
	"bufio"
	"fmt"
	"strings"
)

// EntryPoint is one "name = value" line of an entry_points.txt group.
type EntryPoint struct {
	Group string
	Name  string
	Value string
}

// String renders the entry point as "name = value".
func (e EntryPoint) String() string {
	return fmt.Sprintf("%s = %s", e.Name, e.Value)
}

// ParseEntryPoints parses an entry_points.txt document. Order is preserved.
func ParseEntryPoints(content string) []EntryPoint {
	var (
		entryPoints []EntryPoint
		group       string
	)
	scanner := bufio.NewScanner(strings.NewReader(content))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		// Skip empty lines and comments
		if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, ";") {
			continue
		}

		if strings.HasPrefix(line, "[") && strings.HasSuffix(line, "]") {
			group = strings.TrimSpace(strings.Trim(line, "[]"))
			continue
		}

		name, value, ok := strings.Cut(line, "=")
		if !ok || group == "" {
			continue
		}
		entryPoints = append(entryPoints, EntryPoint{
			Group: group,
			Name:  strings.TrimSpace(name),
			Value: strings.TrimSpace(value),
		})
	}
	return entryPoints
}

// parseRequiresTxt converts a setuptools requires.txt into requirement
// strings. Sections "[extra]", "[:marker]" and "[extra:marker]" become
// environment markers on the requirements they contain.
func parseRequiresTxt(content string) []string {
	var (
		requires []string
		section  string
	)
	scanner := bufio.NewScanner(strings.NewReader(content))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if strings.HasPrefix(line, "[") && strings.HasSuffix(line, "]") {
			section = strings.TrimSpace(line[1 : len(line)-1])
			continue
		}
		requires = append(requires, line+sectionMarker(line, section))
	}
	return requires
}

func sectionMarker(requirement, section string) string {
	extra, markers, _ := strings.Cut(section, ":")
	if extra != "" && markers != "" {
		markers = "(" + markers + ")"
	}
	var conditions []string
	if markers != "" {
		conditions = append(conditions, markers)
	}
	if extra != "" {
		conditions = append(conditions, fmt.Sprintf("extra == %q", extra))
	}
	if len(conditions) == 0 {
		return ""
	}
	space := ""
	if strings.Contains(requirement, "@") {
		space = " "
	}
	return space + "; " + strings.Join(conditions, " and ")
}
