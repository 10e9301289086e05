// Package translate turns Python requirement strings into conda dependency
// strings.
package translate

import (
	"iter"

	"github.com/ralt/pupa/internal/matchspec"
	"github.com/ralt/pupa/internal/pep508"
)

// Mapper translates a canonical PyPI name to a conda package name.
type Mapper interface {
	Translate(name string) string
}

// Normalizer canonicalizes a conda constraint string.
type Normalizer interface {
	Normalize(s string) matchspec.Result
}

// TranslatedRequirement is one dependency after marker evaluation, name
// mapping and constraint normalization.
type TranslatedRequirement struct {
	// Name is the conda package name.
	Name string
	// ConstraintText is the value written to the depends list.
	ConstraintText string
	// Warning is set when ConstraintText is the unnormalized fallback.
	Warning string
}

// Translator converts raw requirements for one target environment.
type Translator struct {
	mapper     Mapper
	env        pep508.Environment
	normalizer Normalizer
}

// New returns a Translator. mapper and normalizer must not be nil.
func New(mapper Mapper, env pep508.Environment, normalizer Normalizer) *Translator {
	return &Translator{mapper: mapper, env: env, normalizer: normalizer}
}

// Translate converts a single requirement. The boolean is false when the
// requirement's marker excludes it from the environment.
func (t *Translator) Translate(raw string) (TranslatedRequirement, bool, error) {
	req, err := pep508.ParseRequirement(raw)
	if err != nil {
		return TranslatedRequirement{}, false, err
	}
	applies, err := req.Applies(t.env, raw)
	if err != nil {
		return TranslatedRequirement{}, false, err
	}
	if !applies {
		return TranslatedRequirement{}, false, nil
	}

	active := req.WithoutMarker()
	active.Name = t.mapper.Translate(pep508.CanonicalizeName(req.Name))

	result := t.normalizer.Normalize(active.String())
	return TranslatedRequirement{
		Name:           active.Name,
		ConstraintText: result.Value(),
		Warning:        result.Warning,
	}, true, nil
}

// TranslateAll lazily translates raw in order, skipping requirements
// excluded by their marker. Iteration stops after the first error.
func (t *Translator) TranslateAll(raw []string) iter.Seq2[TranslatedRequirement, error] {
	return func(yield func(TranslatedRequirement, error) bool) {
		for _, r := range raw {
			tr, ok, err := t.Translate(r)
			if err != nil {
				yield(TranslatedRequirement{}, err)
				return
			}
			if !ok {
				continue
			}
			if !yield(tr, nil) {
				return
			}
		}
	}
}
