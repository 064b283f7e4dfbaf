package testplan

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"text/template"

	"feditest/internal/buildinfo"
	"feditest/pkg/logging"

	"github.com/Masterminds/sprig/v3"
	version "github.com/hashicorp/go-version"
	"sigs.k8s.io/yaml"
)

// ErrIncompatibleType is returned when a document carries a type tag other
// than TypeTag.
var ErrIncompatibleType = errors.New("incompatible test plan type")

type loadOptions struct {
	template      bool
	values        map[string]interface{}
	engineVersion string
	name          string
}

// LoadOption customizes Load.
type LoadOption func(*loadOptions)

// WithTemplateValues expands the document as a Go template before decoding
// it. Sprig functions are available and values are reachable as .Values.
func WithTemplateValues(values map[string]interface{}) LoadOption {
	return func(o *loadOptions) {
		o.template = true
		o.values = values
	}
}

// WithEngineVersion overrides the engine version plans are compared with.
func WithEngineVersion(v string) LoadOption {
	return func(o *loadOptions) {
		o.engineVersion = v
	}
}

func newLoadOptions(opts []LoadOption) *loadOptions {
	o := &loadOptions{engineVersion: buildinfo.Version, name: "testplan"}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Load reads a JSON or YAML TestPlan. Unknown fields and values of the
// wrong shape are decode errors. A type tag other than TypeTag is an
// error; a different feditest_version only produces a warning.
func Load(r io.Reader, opts ...LoadOption) (*TestPlan, error) {
	o := newLoadOptions(opts)
	var plan TestPlan
	if err := decode(r, o, &plan); err != nil {
		return nil, err
	}
	if !plan.IsCompatibleType() {
		return nil, fmt.Errorf("%w: %q (expected %q)", ErrIncompatibleType, plan.Type, TypeTag)
	}
	if plan.Type == "" {
		plan.Type = TypeTag
	}
	if !CompatibleVersion(plan.FeditestVersion, o.engineVersion) {
		logging.Warn("TestPlan", "Test plan %s was written for feditest %s, this is feditest %s", plan.String(), plan.FeditestVersion, o.engineVersion)
	}
	return &plan, nil
}

// LoadFile reads a TestPlan from a file.
func LoadFile(path string, opts ...LoadOption) (*TestPlan, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open test plan: %w", err)
	}
	defer f.Close()

	opts = append([]LoadOption{func(o *loadOptions) { o.name = filepath.Base(path) }}, opts...)
	plan, err := Load(f, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load test plan %s: %w", path, err)
	}
	return plan, nil
}

// LoadSession reads a single session, for example a session template.
func LoadSession(r io.Reader, opts ...LoadOption) (*Session, error) {
	var session Session
	if err := decode(r, newLoadOptions(opts), &session); err != nil {
		return nil, err
	}
	return &session, nil
}

// LoadConstellation reads a single constellation.
func LoadConstellation(r io.Reader, opts ...LoadOption) (*Constellation, error) {
	var constellation Constellation
	if err := decode(r, newLoadOptions(opts), &constellation); err != nil {
		return nil, err
	}
	return &constellation, nil
}

func decode(r io.Reader, o *loadOptions, into interface{}) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("failed to read document: %w", err)
	}
	if o.template {
		data, err = expand(o.name, data, o.values)
		if err != nil {
			return err
		}
	}
	if err := yaml.UnmarshalStrict(data, into); err != nil {
		return fmt.Errorf("failed to decode document: %w", err)
	}
	return nil
}

func expand(name string, data []byte, values map[string]interface{}) ([]byte, error) {
	tmpl, err := template.New(name).
		Funcs(sprig.TxtFuncMap()).
		Option("missingkey=error").
		Parse(string(data))
	if err != nil {
		return nil, fmt.Errorf("failed to parse template: %w", err)
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, map[string]interface{}{"Values": values}); err != nil {
		return nil, fmt.Errorf("failed to expand template: %w", err)
	}
	return buf.Bytes(), nil
}

// CompatibleVersion reports whether a plan written for planVersion can be
// run by engineVersion. An empty plan version is always compatible.
func CompatibleVersion(planVersion, engineVersion string) bool {
	if planVersion == "" {
		return true
	}
	pv, perr := version.NewVersion(planVersion)
	ev, eerr := version.NewVersion(engineVersion)
	if perr != nil || eerr != nil {
		return planVersion == engineVersion
	}
	return pv.Equal(ev)
}

// AsJSON renders the plan as indented JSON.
func (p *TestPlan) AsJSON() ([]byte, error) {
	return asJSON(p)
}

// AsYAML renders the plan as YAML.
func (p *TestPlan) AsYAML() ([]byte, error) {
	return yaml.Marshal(p)
}

// Save writes the plan to path, as YAML if the extension says so and as
// JSON otherwise.
func (p *TestPlan) Save(path string) error {
	return save(p, path)
}

// AsJSON renders the session as indented JSON.
func (s *Session) AsJSON() ([]byte, error) {
	return asJSON(s)
}

// AsYAML renders the session as YAML.
func (s *Session) AsYAML() ([]byte, error) {
	return yaml.Marshal(s)
}

// Save writes the session to path.
func (s *Session) Save(path string) error {
	return save(s, path)
}

// AsJSON renders the constellation as indented JSON.
func (c *Constellation) AsJSON() ([]byte, error) {
	return asJSON(c)
}

func asJSON(v interface{}) ([]byte, error) {
	data, err := json.MarshalIndent(v, "", "    ")
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}

func save(v interface{}, path string) error {
	var (
		data []byte
		err  error
	)
	switch filepath.Ext(path) {
	case ".yaml", ".yml":
		data, err = yaml.Marshal(v)
	default:
		data, err = asJSON(v)
	}
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", path, err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
