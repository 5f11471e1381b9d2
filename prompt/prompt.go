// Package prompt holds the text templates sent to the completion service.
package prompt

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"text/template"

	"github.com/Masterminds/sprig"
)

// FileExt is the extension of template override files.
const FileExt = ".tmpl"

// Template is a named, parsed prompt. Referencing a variable that was not
// supplied is a render error, so a template never silently drops context.
type Template struct {
	Name     string
	Content  string
	template *template.Template
}

// NewTemplate parses content. Sprig helpers such as default, join and trunc
// are available.
func NewTemplate(name, content string) (*Template, error) {
	tmpl, err := template.New(name).
		Funcs(sprig.TxtFuncMap()).
		Option("missingkey=error").
		Parse(content)
	if err != nil {
		return nil, fmt.Errorf("parse template %s: %w", name, err)
	}
	return &Template{Name: name, Content: content, template: tmpl}, nil
}

// Render executes the template with vars.
func (t *Template) Render(vars map[string]any) (string, error) {
	var buf strings.Builder
	if err := t.template.Execute(&buf, vars); err != nil {
		return "", fmt.Errorf("render template %s: %w", t.Name, err)
	}
	return buf.String(), nil
}

// Manager is a concurrency-safe set of templates.
type Manager struct {
	mu        sync.RWMutex
	templates map[string]*Template
}

// NewManager returns an empty manager.
func NewManager() *Manager {
	return &Manager{templates: make(map[string]*Template)}
}

// Register adds tmpl. Names are unique.
func (m *Manager) Register(tmpl *Template) error {
	if tmpl.Name == "" {
		return fmt.Errorf("template name cannot be empty")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.templates[tmpl.Name]; exists {
		return fmt.Errorf("template %s already registered", tmpl.Name)
	}
	m.templates[tmpl.Name] = tmpl
	return nil
}

// RegisterString parses and registers content under name.
func (m *Manager) RegisterString(name, content string) error {
	tmpl, err := NewTemplate(name, content)
	if err != nil {
		return err
	}
	return m.Register(tmpl)
}

// MustRegister is RegisterString for built-in templates; it panics on error.
func (m *Manager) MustRegister(name, content string) {
	if err := m.RegisterString(name, content); err != nil {
		panic(err)
	}
}

// Override replaces a registered template. Only known names can be replaced,
// which catches typos in override files.
func (m *Manager) Override(name, content string) error {
	tmpl, err := NewTemplate(name, content)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.templates[name]; !exists {
		return fmt.Errorf("no template %s to override", name)
	}
	m.templates[name] = tmpl
	return nil
}

// LoadDir overrides templates from <dir>/<name>.tmpl files. Other files are
// ignored. It returns the names that were replaced.
func (m *Manager) LoadDir(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read prompt dir: %w", err)
	}
	var loaded []string
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != FileExt {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, e.Name()))
		if err != nil {
			return loaded, fmt.Errorf("read prompt %s: %w", e.Name(), err)
		}
		name := strings.TrimSuffix(e.Name(), FileExt)
		if err := m.Override(name, string(data)); err != nil {
			return loaded, err
		}
		loaded = append(loaded, name)
	}
	return loaded, nil
}

// Get returns the template registered under name.
func (m *Manager) Get(name string) (*Template, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	tmpl, ok := m.templates[name]
	if !ok {
		return nil, fmt.Errorf("template %s not found", name)
	}
	return tmpl, nil
}

// Render renders the template registered under name.
func (m *Manager) Render(name string, vars map[string]any) (string, error) {
	tmpl, err := m.Get(name)
	if err != nil {
		return "", err
	}
	return tmpl.Render(vars)
}

// List returns the registered names, sorted.
func (m *Manager) List() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	names := make([]string, 0, len(m.templates))
	for name := range m.templates {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
