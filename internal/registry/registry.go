package registry

import (
	"errors"
	"fmt"
	"reflect"
	"runtime"
	"sort"
	"sync"

	"feditest/pkg/logging"
)

// ErrDuplicateTest is returned when a test name is registered twice.
var ErrDuplicateTest = errors.New("test already registered")

// TestSet groups tests, usually those of one package or plugin directory.
type TestSet struct {
	Name  string
	tests map[string]*Test
}

// Get returns a test of the set by name.
func (s *TestSet) Get(name string) (*Test, bool) {
	t, ok := s.tests[name]
	return t, ok
}

// Tests returns the tests of the set sorted by name.
func (s *TestSet) Tests() []*Test {
	tests := make([]*Test, 0, len(s.tests))
	for _, t := range s.tests {
		tests = append(tests, t)
	}
	sort.Slice(tests, func(i, j int) bool { return tests[i].Name < tests[j].Name })
	return tests
}

// Registry holds every known test, indexed by name and by test set.
type Registry struct {
	mu    sync.RWMutex
	tests map[string]*Test
	sets  map[string]*TestSet
	scope string
}

// Default is the registry compiled-in tests and plugins register with.
var Default = New()

// New creates an empty registry.
func New() *Registry {
	return &Registry{
		tests: make(map[string]*Test),
		sets:  make(map[string]*TestSet),
	}
}

// Register validates def and adds the resulting test.
func (r *Registry) Register(def Definition) (*Test, error) {
	if def.Body == nil {
		return nil, fmt.Errorf("test %q has no body", def.Name)
	}
	if len(def.Roles) == 0 {
		return nil, fmt.Errorf("test %q declares no roles", def.Name)
	}
	seen := make(map[string]bool, len(def.Roles))
	for i, role := range def.Roles {
		if role.Name == "" {
			return nil, fmt.Errorf("test %q: role %d has no name", def.Name, i)
		}
		if seen[role.Name] {
			return nil, fmt.Errorf("test %q: role %q declared twice", def.Name, role.Name)
		}
		seen[role.Name] = true
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	pkg, fn := r.origin(def)
	setName := def.TestSet
	if setName == "" {
		setName = r.scope
	}
	if setName == "" {
		setName = pkg
	}
	name := def.Name
	if name == "" {
		if fn == "" {
			return nil, fmt.Errorf("test in set %q has no name", setName)
		}
		name = setName + "::" + fn
	}

	if _, exists := r.tests[name]; exists {
		return nil, fmt.Errorf("%w: %s", ErrDuplicateTest, name)
	}

	set, ok := r.sets[setName]
	if !ok {
		set = &TestSet{Name: setName, tests: make(map[string]*Test)}
		r.sets[setName] = set
	}
	test := &Test{
		Name:        name,
		Description: def.Description,
		Roles:       append([]Role(nil), def.Roles...),
		TestSet:     set,
		body:        def.Body,
	}
	set.tests[name] = test
	r.tests[name] = test

	logging.Debug("Registry", "Registered test %s with roles %v", name, test.RoleNames())
	return test, nil
}

// MustRegister is like Register but panics on error.
func (r *Registry) MustRegister(def Definition) *Test {
	test, err := r.Register(def)
	if err != nil {
		panic(err)
	}
	return test
}

func (r *Registry) origin(def Definition) (pkg, fn string) {
	origin := def.origin
	if origin == nil {
		origin = def.Body
	}
	v := reflect.ValueOf(origin)
	if v.Kind() != reflect.Func || v.IsNil() {
		return "", ""
	}
	f := runtime.FuncForPC(v.Pointer())
	if f == nil {
		return "", ""
	}
	return symbolName(f.Name())
}

// Get returns a test by name.
func (r *Registry) Get(name string) (*Test, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	t, ok := r.tests[name]
	return t, ok
}

// LocalRoleNames returns the declared role names of a test.
func (r *Registry) LocalRoleNames(name string) ([]string, bool) {
	t, ok := r.Get(name)
	if !ok {
		return nil, false
	}
	return t.RoleNames(), true
}

// All returns a copy of the all-tests index.
func (r *Registry) All() map[string]*Test {
	r.mu.RLock()
	defer r.mu.RUnlock()

	all := make(map[string]*Test, len(r.tests))
	for name, t := range r.tests {
		all[name] = t
	}
	return all
}

// Names returns all test names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.tests))
	for name := range r.tests {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Select returns the tests accepted by filter, sorted by name.
func (r *Registry) Select(filter Filter) []*Test {
	var tests []*Test
	for _, name := range r.Names() {
		if !filter.Accepts(name) {
			continue
		}
		t, _ := r.Get(name)
		tests = append(tests, t)
	}
	return tests
}

// TestSets returns all test sets sorted by name.
func (r *Registry) TestSets() []*TestSet {
	r.mu.RLock()
	defer r.mu.RUnlock()

	sets := make([]*TestSet, 0, len(r.sets))
	for _, s := range r.sets {
		sets = append(sets, s)
	}
	sort.Slice(sets, func(i, j int) bool { return sets[i].Name < sets[j].Name })
	return sets
}

// Len returns the number of registered tests.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.tests)
}

// Reset removes every test and test set.
func (r *Registry) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.tests = make(map[string]*Test)
	r.sets = make(map[string]*TestSet)
	r.scope = ""
}

// withScope makes tests registered during fn default to the test set
// named scope. The previous scope is restored even if fn panics.
func (r *Registry) withScope(scope string, fn func() error) error {
	r.mu.Lock()
	previous := r.scope
	r.scope = scope
	r.mu.Unlock()

	defer func() {
		r.mu.Lock()
		r.scope = previous
		r.mu.Unlock()
	}()
	return fn()
}
