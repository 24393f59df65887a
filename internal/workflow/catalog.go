// Package workflow holds the workflow template catalog and the engine that
// expands templates into gated coordination records.
package workflow

import (
	"bytes"
	"context"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.yaml.in/yaml/v3"

	"github.com/ShayCichocki/agentdesk/pkg/models"
)

//go:embed templates.yaml
var builtinTemplates []byte

// ErrUnknownWorkflowType is returned when no template exists for a workflow type.
var ErrUnknownWorkflowType = errors.New("unknown workflow type")

// Step is one entry of a workflow template.
type Step struct {
	AgentRole models.Role `yaml:"agent_role" json:"agentRole"`
	Task      string      `yaml:"task" json:"task"`
}

// Template is an ordered list of steps keyed by workflow type.
// Steps[0] is the triggering delegation.
type Template struct {
	Type        string `yaml:"-" json:"workflowType"`
	Description string `yaml:"description" json:"description"`
	Steps       []Step `yaml:"steps" json:"steps"`
}

type templateFile struct {
	Workflows map[string]Template `yaml:"workflows"`
}

// Catalog resolves workflow types to templates. Reloads swap the whole
// snapshot, so readers never observe a partially loaded catalog.
type Catalog struct {
	mu        sync.RWMutex
	builtin   map[string]Template
	templates map[string]Template
}

// NewCatalog returns a catalog holding only the built-in templates.
func NewCatalog() (*Catalog, error) {
	builtin, err := parseTemplates(builtinTemplates, "builtin")
	if err != nil {
		return nil, err
	}
	return &Catalog{builtin: builtin, templates: builtin}, nil
}

// Builtin returns the built-in catalog and panics if it does not parse.
func Builtin() *Catalog {
	c, err := NewCatalog()
	if err != nil {
		panic(fmt.Sprintf("workflow: invalid built-in templates: %v", err))
	}
	return c
}

// Lookup returns the template for a workflow type.
func (c *Catalog) Lookup(workflowType string) (Template, error) {
	c.mu.RLock()
	t, ok := c.templates[workflowType]
	c.mu.RUnlock()
	if !ok {
		return Template{}, fmt.Errorf("%w: %q", ErrUnknownWorkflowType, workflowType)
	}
	t.Steps = append([]Step(nil), t.Steps...)
	return t, nil
}

// Types returns the known workflow types, sorted.
func (c *Catalog) Types() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	types := make([]string, 0, len(c.templates))
	for k := range c.templates {
		types = append(types, k)
	}
	sort.Strings(types)
	return types
}

// List returns every template ordered by type.
func (c *Catalog) List() []Template {
	types := c.Types()
	out := make([]Template, 0, len(types))
	for _, typ := range types {
		if t, err := c.Lookup(typ); err == nil {
			out = append(out, t)
		}
	}
	return out
}

// LoadDir replaces the catalog with the built-ins plus every *.yaml or *.yml
// file in dir. Templates in dir override built-ins of the same type.
// On error the current catalog is left untouched.
func (c *Catalog) LoadDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("read workflows dir: %w", err)
	}

	next := make(map[string]Template, len(c.builtin))
	for k, v := range c.builtin {
		next[k] = v
	}

	for _, e := range entries {
		if e.IsDir() || !isTemplateFile(e.Name()) {
			continue
		}
		path := filepath.Join(dir, e.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read %s: %w", path, err)
		}
		loaded, err := parseTemplates(data, path)
		if err != nil {
			return err
		}
		for k, v := range loaded {
			next[k] = v
		}
	}

	c.mu.Lock()
	c.templates = next
	c.mu.Unlock()
	return nil
}

// Watch reloads dir whenever a template file in it changes, until ctx is done.
// Reload failures are logged and keep the previous catalog.
func (c *Catalog) Watch(ctx context.Context, dir string) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}

	// Editors often emit several events per save; coalesce them.
	const settle = 200 * time.Millisecond
	timer := time.NewTimer(settle)
	if !timer.Stop() {
		<-timer.C
	}

	for {
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !isTemplateFile(event.Name) {
				continue
			}
			if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) != 0 {
				timer.Reset(settle)
			}

		case <-timer.C:
			if err := c.LoadDir(dir); err != nil {
				log.Printf("[catalog] reload of %s failed, keeping previous templates: %v", dir, err)
				continue
			}
			log.Printf("[catalog] reloaded %s: %d workflow types", dir, len(c.Types()))

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Printf("[catalog] watcher error: %v", err)
		}
	}
}

func isTemplateFile(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	return ext == ".yaml" || ext == ".yml"
}

func parseTemplates(data []byte, source string) (map[string]Template, error) {
	var f templateFile
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parse templates %s: %w", source, err)
	}

	out := make(map[string]Template, len(f.Workflows))
	for typ, t := range f.Workflows {
		if strings.TrimSpace(typ) == "" {
			return nil, fmt.Errorf("%s: workflow with empty type", source)
		}
		if len(t.Steps) == 0 {
			return nil, fmt.Errorf("%s: workflow %q has no steps", source, typ)
		}
		for i, s := range t.Steps {
			if !s.AgentRole.Valid() {
				return nil, fmt.Errorf("%s: workflow %q step %d: unknown role %q", source, typ, i, s.AgentRole)
			}
		}
		t.Type = typ
		out[typ] = t
	}
	return out, nil
}
