package registry

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"plugin"
	"strings"

	"feditest/pkg/logging"
)

// RegisterSymbol is the function a test plugin must export.
const RegisterSymbol = "RegisterTests"

// RegisterFunc is the signature of a plugin's RegisterTests function.
type RegisterFunc = func(*Registry) error

// PluginOpener opens a plugin file and returns its register function.
type PluginOpener func(path string) (RegisterFunc, error)

// LoadFrom walks each directory for test plugins (*.so files) and lets
// every plugin register its tests. Tests registered by a plugin default to
// a test set named after the plugin's directory relative to the root.
func (r *Registry) LoadFrom(dirs ...string) error {
	return r.LoadWith(OpenPlugin, dirs...)
}

// LoadWith is LoadFrom with a custom plugin opener.
func (r *Registry) LoadWith(open PluginOpener, dirs ...string) error {
	for _, dir := range dirs {
		var plugins []string
		err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if !d.IsDir() && strings.HasSuffix(d.Name(), ".so") {
				plugins = append(plugins, path)
			}
			return nil
		})
		if err != nil {
			return fmt.Errorf("failed to scan tests directory %s: %w", dir, err)
		}

		for _, path := range plugins {
			if err := r.loadPlugin(open, dir, path); err != nil {
				return err
			}
		}
	}
	return nil
}

func (r *Registry) loadPlugin(open PluginOpener, root, path string) error {
	register, err := open(path)
	if err != nil {
		return fmt.Errorf("failed to open test plugin %s: %w", path, err)
	}

	scope, err := filepath.Rel(root, filepath.Dir(path))
	if err != nil || scope == "." {
		scope = strings.TrimSuffix(filepath.Base(path), ".so")
	}
	scope = filepath.ToSlash(scope)

	logging.Debug("Registry", "Loading tests from %s into test set %s", path, scope)
	if err := r.withScope(scope, func() error { return register(r) }); err != nil {
		return fmt.Errorf("test plugin %s failed to register: %w", path, err)
	}
	return nil
}

// OpenPlugin opens a Go plugin and looks up its RegisterTests function.
func OpenPlugin(path string) (RegisterFunc, error) {
	p, err := plugin.Open(path)
	if err != nil {
		return nil, err
	}
	sym, err := p.Lookup(RegisterSymbol)
	if err != nil {
		return nil, err
	}
	register, ok := sym.(func(*Registry) error)
	if !ok {
		return nil, fmt.Errorf("%s has type %T, expected func(*registry.Registry) error", RegisterSymbol, sym)
	}
	return register, nil
}
