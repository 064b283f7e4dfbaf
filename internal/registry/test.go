package registry

import (
	"context"
	"fmt"
	"reflect"
	"strings"

	"feditest/internal/nodedriver"
)

// Role is a slot in a test that a node has to fill. Kind names the
// capability the node must provide.
type Role struct {
	Name string `json:"name" yaml:"name"`
	Kind string `json:"kind,omitempty" yaml:"kind,omitempty"`
}

// Body is the code of a test. It receives one node per declared role, in
// declaration order.
type Body func(ctx context.Context, nodes []nodedriver.Node) error

// Definition is what a test author hands to Register.
type Definition struct {
	// Name defaults to <testset>::<function name>.
	Name        string
	Description string
	// TestSet defaults to the current load scope or the body's package.
	TestSet string
	Roles   []Role
	Body    Body

	// origin is the author's function, used to derive default names.
	origin interface{}
}

// WithName returns a copy of the definition with the given name.
func (d Definition) WithName(name string) Definition {
	d.Name = name
	return d
}

// WithDescription returns a copy of the definition with the given
// description.
func (d Definition) WithDescription(description string) Definition {
	d.Description = description
	return d
}

// WithTestSet returns a copy of the definition in the given test set.
func (d Definition) WithTestSet(set string) Definition {
	d.TestSet = set
	return d
}

// Test is a registered test. It is immutable.
type Test struct {
	Name        string
	Description string
	Roles       []Role
	TestSet     *TestSet
	body        Body
}

// RoleNames returns the names of the test's roles in declaration order.
func (t *Test) RoleNames() []string {
	names := make([]string, len(t.Roles))
	for i, role := range t.Roles {
		names[i] = role.Name
	}
	return names
}

// Run invokes the test body. Panics are not recovered.
func (t *Test) Run(ctx context.Context, nodes []nodedriver.Node) error {
	if len(nodes) != len(t.Roles) {
		return fmt.Errorf("test %s needs %d nodes, got %d", t.Name, len(t.Roles), len(nodes))
	}
	return t.body(ctx, nodes)
}

func (t *Test) String() string {
	return t.Name
}

// OneNode adapts a body taking a single node capability.
func OneNode[A any](role string, body func(ctx context.Context, a A) error) Definition {
	return Definition{
		Roles: []Role{{Name: role, Kind: kindOf[A]()}},
		Body: func(ctx context.Context, nodes []nodedriver.Node) error {
			a, err := capability[A](nodes[0])
			if err != nil {
				return err
			}
			return body(ctx, a)
		},
		origin: body,
	}
}

// TwoNodes adapts a body taking two node capabilities.
func TwoNodes[A, B any](roleA, roleB string, body func(ctx context.Context, a A, b B) error) Definition {
	return Definition{
		Roles: []Role{
			{Name: roleA, Kind: kindOf[A]()},
			{Name: roleB, Kind: kindOf[B]()},
		},
		Body: func(ctx context.Context, nodes []nodedriver.Node) error {
			a, err := capability[A](nodes[0])
			if err != nil {
				return err
			}
			b, err := capability[B](nodes[1])
			if err != nil {
				return err
			}
			return body(ctx, a, b)
		},
		origin: body,
	}
}

func kindOf[A any]() string {
	return reflect.TypeFor[A]().String()
}

func capability[A any](node nodedriver.Node) (A, error) {
	a, ok := node.(A)
	if !ok {
		var zero A
		return zero, nodedriver.NewNotImplementedByNodeError(node, kindOf[A]())
	}
	return a, nil
}

// symbolName splits a runtime function symbol such as
// "feditest/internal/tests/sandbox.multiply" into the last package path
// element and the function name.
func symbolName(symbol string) (pkg, fn string) {
	dir := ""
	if i := strings.LastIndexByte(symbol, '/'); i >= 0 {
		dir, symbol = symbol[:i+1], symbol[i+1:]
	}
	i := strings.IndexByte(symbol, '.')
	if i < 0 {
		return "", dir + symbol
	}
	return symbol[:i], symbol[i+1:]
}
