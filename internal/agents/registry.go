package agents

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/yungbote/trainforge-backend/internal/llm"
	"github.com/yungbote/trainforge-backend/internal/platform/apierr"
	"github.com/yungbote/trainforge-backend/internal/platform/logger"
)

//go:embed definitions/*.md
var embedded embed.FS

var (
	errNoFrontmatter = errors.New("agent definition has no frontmatter")
	errMissingName   = errors.New("agent definition missing name")
)

type Definition struct {
	Name        string   `yaml:"name" json:"name"`
	Description string   `yaml:"description" json:"description"`
	Tools       []string `yaml:"tools" json:"tools"`
	Prompt      string   `yaml:"-" json:"-"`
	Source      string   `yaml:"-" json:"source"`
}

// Agent is a resolved definition plus the model that answers it.
type Agent struct {
	Definition
	Model ModelConfig
}

type Registry struct {
	log   *logger.Logger
	defs  map[string]Definition
	model map[string]ModelConfig
	batch map[string]ModelConfig
	def   ModelConfig
}

// Load reads the embedded definitions, then overlays any *.md files from overrideDir.
func Load(overrideDir string, baseLog *logger.Logger) (*Registry, error) {
	sub, err := fs.Sub(embedded, "definitions")
	if err != nil {
		return nil, err
	}
	r := newRegistry(baseLog)
	if err := r.loadFS(sub); err != nil {
		return nil, err
	}
	if dir := strings.TrimSpace(overrideDir); dir != "" {
		if err := r.loadFS(os.DirFS(dir)); err != nil {
			return nil, fmt.Errorf("load agents from %s: %w", dir, err)
		}
	}
	r.log.Info("agent definitions loaded", "count", len(r.defs))
	return r, nil
}

// LoadFS builds a registry from fsys alone.
func LoadFS(fsys fs.FS, baseLog *logger.Logger) (*Registry, error) {
	r := newRegistry(baseLog)
	if err := r.loadFS(fsys); err != nil {
		return nil, err
	}
	return r, nil
}

func newRegistry(baseLog *logger.Logger) *Registry {
	return &Registry{
		log:   baseLog.With("service", "AgentRegistry"),
		defs:  map[string]Definition{},
		model: modelTable,
		batch: batchTable,
		def:   defaultModel,
	}
}

func (r *Registry) loadFS(fsys fs.FS) error {
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return err
	}
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(strings.ToLower(e.Name()), ".md") {
			continue
		}
		raw, err := fs.ReadFile(fsys, e.Name())
		if err != nil {
			return err
		}
		def, err := ParseDefinition(string(raw))
		if err != nil {
			r.log.Warn("skipping agent definition", "file", e.Name(), "error", err.Error())
			continue
		}
		def.Source = path.Clean(e.Name())
		r.defs[def.Name] = def
	}
	return nil
}

// ParseDefinition splits a "---" YAML header from the prompt body.
func ParseDefinition(content string) (Definition, error) {
	content = strings.TrimLeft(content, "\ufeff \t\r\n")
	if !strings.HasPrefix(content, "---") {
		return Definition{}, errNoFrontmatter
	}
	parts := strings.SplitN(content[3:], "\n---", 2)
	if len(parts) < 2 {
		return Definition{}, errNoFrontmatter
	}
	var def Definition
	if err := yaml.Unmarshal([]byte(parts[0]), &def); err != nil {
		return Definition{}, fmt.Errorf("agent frontmatter: %w", err)
	}
	def.Name = strings.TrimSpace(def.Name)
	if def.Name == "" {
		return Definition{}, errMissingName
	}
	def.Prompt = strings.TrimSpace(parts[1])
	return def, nil
}

func (r *Registry) Get(name string) (Definition, error) {
	def, ok := r.defs[name]
	if !ok {
		return Definition{}, apierr.NotFound("agent_not_found", "agent %q is not defined", name)
	}
	return def, nil
}

// Model returns the configured model for name; unknown names get the default entry.
func (r *Registry) Model(name string, batch bool) ModelConfig {
	if batch {
		if m, ok := r.batch[name]; ok {
			return m
		}
	}
	if m, ok := r.model[name]; ok {
		return m
	}
	return r.def
}

func (r *Registry) Resolve(name string, batch bool) (Agent, error) {
	def, err := r.Get(name)
	if err != nil {
		return Agent{}, err
	}
	return Agent{Definition: def, Model: r.Model(name, batch)}, nil
}

func (r *Registry) List() []Definition {
	out := make([]Definition, 0, len(r.defs))
	for _, d := range r.defs {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Request builds the gateway call for this agent from the conversation turns.
func (a Agent) Request(messages ...llm.Message) llm.Request {
	return llm.Request{
		Agent:       a.Name,
		Provider:    a.Model.Provider,
		Model:       a.Model.Model,
		System:      a.Prompt,
		Messages:    messages,
		MaxTokens:   a.Model.MaxTokens,
		Temperature: a.Model.Temperature,
	}
}
