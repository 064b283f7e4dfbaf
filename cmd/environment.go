package cmd

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"feditest/internal/nodedriver"
	"feditest/internal/nodedrivers"
	"feditest/internal/registry"
	"feditest/internal/testplan"
	"feditest/internal/tests"
	"feditest/pkg/logging"

	"github.com/spf13/cobra"
)

// environment holds the registries a command works with.
type environment struct {
	tests    *registry.Registry
	drivers  *nodedriver.Registry
	prompter *nodedriver.Prompter
}

// newEnvironment registers the built-in tests, the tests found in
// testsDirs and the built-in node drivers.
func newEnvironment(testsDirs []string) (*environment, error) {
	env := &environment{
		tests:    registry.New(),
		drivers:  nodedriver.NewRegistry(),
		prompter: nodedriver.NewConsolePrompter(),
	}
	if err := tests.RegisterAll(env.tests); err != nil {
		return nil, fmt.Errorf("failed to register built-in tests: %w", err)
	}
	if len(testsDirs) > 0 {
		if err := env.tests.LoadFrom(testsDirs...); err != nil {
			return nil, err
		}
	}
	if err := nodedrivers.RegisterDefaults(env.drivers, env.prompter); err != nil {
		return nil, fmt.Errorf("failed to register node drivers: %w", err)
	}
	logging.Debug("CLI", "Registered %d tests and %d node drivers", env.tests.Len(), len(env.drivers.Names()))
	return env, nil
}

// testSelection holds the flags that choose which tests a command works on.
type testSelection struct {
	testsDirs []string
	filter    registry.Filter
}

func (s *testSelection) addFlags(cmd *cobra.Command) {
	cmd.Flags().StringArrayVar(&s.testsDirs, "testsdir", nil, "Directory with compiled test plugins (*.so); may be repeated")
	cmd.Flags().Var(&s.filter.MustMatch, "filter", "Only include tests whose name matches this regex; may be repeated")
	cmd.Flags().Var(&s.filter.MustNotMatch, "skip", "Exclude tests whose name matches this regex; may be repeated")
}

// planSource holds the flags that locate and expand a test plan. A plan
// is either read from --testplan or built by running a session template
// against one or more constellations.
type planSource struct {
	path            string
	sessionTemplate string
	constellations  []string
	set             []string
	template        bool
}

func (p *planSource) addFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&p.path, "testplan", "", "Test plan file (JSON or YAML)")
	cmd.Flags().StringVar(&p.sessionTemplate, "session-template", "", "Session template file to run against --constellation")
	cmd.Flags().StringArrayVar(&p.constellations, "constellation", nil, "Constellation file for --session-template; may be repeated")
	cmd.Flags().StringArrayVar(&p.set, "set", nil, "Template value for the plan files as key=value; may be repeated; implies --template")
	cmd.Flags().BoolVar(&p.template, "template", false, "Expand the plan files as templates even without --set")
	cmd.MarkFlagsOneRequired("testplan", "session-template")
	cmd.MarkFlagsMutuallyExclusive("testplan", "session-template")
	cmd.MarkFlagsMutuallyExclusive("testplan", "constellation")
}

// file returns the file the plan is read from.
func (p *planSource) file() string {
	if p.path != "" {
		return p.path
	}
	return p.sessionTemplate
}

func (p *planSource) load(tests testplan.TestLookup) (*testplan.TestPlan, error) {
	var opts []testplan.LoadOption
	if p.template || len(p.set) > 0 {
		values, err := parseSetValues(p.set)
		if err != nil {
			return nil, err
		}
		opts = append(opts, testplan.WithTemplateValues(values))
	}

	var plan *testplan.TestPlan
	var err error
	if p.path != "" {
		plan, err = testplan.LoadFile(p.path, opts...)
	} else {
		plan, err = p.instantiate(tests, opts...)
	}
	if err != nil {
		return nil, err
	}
	plan.Simplify()
	return plan, nil
}

// instantiate builds a plan with one session per constellation, each
// running the tests of the session template.
func (p *planSource) instantiate(tests testplan.TestLookup, opts ...testplan.LoadOption) (*testplan.TestPlan, error) {
	if len(p.constellations) == 0 {
		return nil, fmt.Errorf("--session-template needs at least one --constellation")
	}
	template, err := loadFrom(p.sessionTemplate, testplan.LoadSession, opts...)
	if err != nil {
		return nil, err
	}
	templateName := template.Name
	if templateName == "" {
		templateName = baseName(p.sessionTemplate)
	}

	sessions := make([]*testplan.Session, 0, len(p.constellations))
	for _, path := range p.constellations {
		constellation, err := loadFrom(path, testplan.LoadConstellation, opts...)
		if err != nil {
			return nil, err
		}
		if constellation.Name == "" {
			constellation.Name = baseName(path)
		}
		session, err := template.InstantiateWithConstellation(constellation, templateName+"/"+constellation.Name, tests)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, session)
	}
	return testplan.New(templateName, sessions...), nil
}

func loadFrom[T any](path string, load func(io.Reader, ...testplan.LoadOption) (T, error), opts ...testplan.LoadOption) (T, error) {
	var zero T
	f, err := os.Open(path)
	if err != nil {
		return zero, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	v, err := load(f, opts...)
	if err != nil {
		return zero, fmt.Errorf("failed to load %s: %w", path, err)
	}
	return v, nil
}

func baseName(path string) string {
	return strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
}

// parseSetValues turns key=value pairs into template values. Later pairs
// override earlier ones.
func parseSetValues(pairs []string) (map[string]interface{}, error) {
	values := make(map[string]interface{}, len(pairs))
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid --set value %q, expected key=value", pair)
		}
		values[key] = value
	}
	return values, nil
}
