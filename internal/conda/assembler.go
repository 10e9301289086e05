package conda

import (
	"fmt"
	"strings"
	"time"

	"github.com/ralt/pupa/internal/dist"
	"github.com/ralt/pupa/internal/pep508"
	"github.com/ralt/pupa/internal/translate"
)

const consoleScriptsGroup = "console_scripts"

// Assembler turns distributions into CondaMetadata. It holds no mutable
// state and may be shared between goroutines.
type Assembler struct {
	mapper     translate.Mapper
	translator *translate.Translator
	clock      func() time.Time
}

// Option configures an Assembler.
type Option func(*Assembler)

// WithClock sets the time source for record timestamps.
func WithClock(clock func() time.Time) Option {
	return func(a *Assembler) {
		a.clock = clock
	}
}

// NewAssembler returns an Assembler that maps the distribution's own name
// through mapper and its requirements through translator.
func NewAssembler(mapper translate.Mapper, translator *translate.Translator, opts ...Option) *Assembler {
	a := &Assembler{mapper: mapper, translator: translator, clock: time.Now}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Assemble builds the CondaMetadata of d. The only error it returns is a
// *pep508.MalformedRequirementError for a requirement that cannot be parsed
// or evaluated; constraint normalization failures are logged and kept.
func (a *Assembler) Assemble(d dist.Distribution) (*CondaMetadata, error) {
	metadata := d.Metadata()

	// Python interpreter constraint first
	depends := []string{pythonConstraint(metadata.Get("Requires-Python"))}

	for req, err := range a.translator.TranslateAll(d.Requires()) {
		if err != nil {
			return nil, fmt.Errorf("failed to translate requirements of %s: %w", d.Name(), err)
		}
		depends = append(depends, req.ConstraintText)
	}

	var consoleScripts []string
	for _, ep := range d.EntryPoints() {
		if ep.Group == consoleScriptsGroup {
			consoleScripts = append(consoleScripts, ep.String())
		}
	}

	about := About{
		Summary:     metadata.Get("Summary"),
		License:     metadata.Get("License"),
		LicenseFile: metadata.Get("License-File"),
	}

	return &CondaMetadata{
		Metadata:       metadata,
		ConsoleScripts: consoleScripts,
		About:          about,
		PackageRecord: PackageRecord{
			BuildNumber:   DefaultBuildNumber,
			Build:         DefaultBuild,
			Depends:       depends,
			LicenseFamily: "",
			License:       about.License,
			Name:          a.mapper.Translate(pep508.CanonicalizeName(d.Name())),
			Noarch:        NoarchPython,
			Subdir:        SubdirNoarch,
			Timestamp:     a.clock().UnixMilli(),
			Version:       d.Version(),
		},
	}, nil
}

func pythonConstraint(requiresPython string) string {
	requiresPython = strings.TrimSpace(requiresPython)
	if requiresPython == "" {
		return "python"
	}
	return "python " + requiresPython
}
