// Package manifest loads a target manifest and resolves which targets a set of
// changed files activates, directly through path patterns or transitively
// through activated_by declarations.
package manifest

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"reflect"
	"slices"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/samber/lo"
	"gopkg.in/yaml.v3"
)

// DefaultFileName is the manifest file looked up when none is given.
const DefaultFileName = ".manifest.yaml"

var (
	// ErrMalformed is returned when the manifest document cannot be decoded or
	// is missing required fields.
	ErrMalformed = errors.New("malformed manifest")

	// ErrInvalidPattern is returned when a target path or glob does not compile.
	ErrInvalidPattern = errors.New("invalid glob pattern")
)

// LoadError reports a failure to load a manifest file.
type LoadError struct {
	Path string
	Err  error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("loading manifest %s: %v", e.Path, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// TargetSpec is a target definition as written in the manifest document.
type TargetSpec struct {
	Path        string   `yaml:"path"         validate:"required"`
	Globs       []string `yaml:"globs"`
	ActivatedBy []string `yaml:"activated_by"`

	// ActivatedByAlt is the accepted synonym for activated_by.
	ActivatedByAlt []string `yaml:"activated-by"`
}

// Document is the decoded manifest document.
type Document struct {
	Base    string                `yaml:"base"    validate:"required"`
	Targets map[string]TargetSpec `yaml:"targets" validate:"required,dive,keys,required,endkeys"`
}

// Target is a loaded target definition. Globs and ActivatedBy are sets, kept
// sorted and free of duplicates.
type Target struct {
	Name        string
	Path        string
	Globs       []string
	ActivatedBy []string
}

// Patterns returns every pattern that matches files for this target: its own
// path followed by its globs.
func (t Target) Patterns() []string {
	return lo.Uniq(append([]string{t.Path}, t.Globs...))
}

// Manifest is an immutable, loaded manifest together with the indices derived
// from it.
type Manifest struct {
	base    string
	targets map[string]Target
	names   []string
	index   *PatternIndex
	graph   *ActivationGraph
}

var documentValidate = newDocumentValidator() //nolint:gochecknoglobals // validator caches struct metadata

// newDocumentValidator reports fields by their manifest (yaml) names.
func newDocumentValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("yaml"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// LoadFile reads and parses the manifest at path.
func LoadFile(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &LoadError{Path: path, Err: err}
	}

	m, err := Parse(data)
	if err != nil {
		return nil, &LoadError{Path: path, Err: err}
	}

	return m, nil
}

// Load reads a manifest document from r.
func Load(r io.Reader) (*Manifest, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading manifest: %w", err)
	}

	return Parse(data)
}

// Parse decodes a manifest document and builds its pattern index and
// activation graph. JSON documents are accepted as well as YAML.
func Parse(data []byte) (*Manifest, error) {
	doc, err := decode(data)
	if err != nil {
		return nil, err
	}

	return FromDocument(doc)
}

func decode(data []byte) (*Document, error) {
	var doc Document

	dec := yaml.NewDecoder(bytes.NewReader(data))
	if err := dec.Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: empty document", ErrMalformed)
		}
		return nil, fmt.Errorf("%w: %w", ErrMalformed, err)
	}

	return &doc, nil
}

// FromDocument builds a Manifest from an already decoded document.
func FromDocument(doc *Document) (*Manifest, error) {
	if doc == nil {
		return nil, fmt.Errorf("%w: nil document", ErrMalformed)
	}

	if err := documentValidate.Struct(doc); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrMalformed, describeValidation(err))
	}

	targets := make(map[string]Target, len(doc.Targets))
	for name, spec := range doc.Targets {
		targets[name] = Target{
			Name:        name,
			Path:        spec.Path,
			Globs:       toSet(spec.Globs),
			ActivatedBy: toSet(append(slices.Clone(spec.ActivatedBy), spec.ActivatedByAlt...)),
		}
	}

	names := lo.Keys(targets)
	slices.Sort(names)

	ordered := make([]Target, 0, len(names))
	for _, name := range names {
		ordered = append(ordered, targets[name])
	}

	index, err := NewPatternIndex(ordered)
	if err != nil {
		return nil, err
	}

	return &Manifest{
		base:    doc.Base,
		targets: targets,
		names:   names,
		index:   index,
		graph:   NewActivationGraph(ordered),
	}, nil
}

func describeValidation(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}

	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		field := strings.TrimPrefix(fe.Namespace(), "Document.")
		msgs = append(msgs, fmt.Sprintf("%s is %s", field, fe.Tag()))
	}

	return strings.Join(msgs, "; ")
}

func toSet(items []string) []string {
	out := lo.Uniq(items)
	slices.Sort(out)
	return out
}

// Base returns the default comparison reference configured in the manifest.
func (m *Manifest) Base() string {
	return m.base
}

// Len returns the number of targets.
func (m *Manifest) Len() int {
	return len(m.names)
}

// Names returns every target name, sorted.
func (m *Manifest) Names() []string {
	return slices.Clone(m.names)
}

// Target looks up a target by name.
func (m *Manifest) Target(name string) (Target, bool) {
	t, ok := m.targets[name]
	return t, ok
}

// Targets returns every target, sorted by name.
func (m *Manifest) Targets() []Target {
	out := make([]Target, 0, len(m.names))
	for _, name := range m.names {
		out = append(out, m.targets[name])
	}
	return out
}

// Index returns the pattern index built at load time.
func (m *Manifest) Index() *PatternIndex {
	return m.index
}

// Graph returns the activation graph built at load time.
func (m *Manifest) Graph() *ActivationGraph {
	return m.graph
}
