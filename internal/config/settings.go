package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Default settings values.
var (
	DefaultEnabledSCM  = []string{"git", "github"}
	DefaultRefKeywords = []string{"refs", "references", "IssueID"}
	DefaultFixKeywords = []string{"fixes", "closes"}
)

// Settings holds the runtime settings an administrator edits: which SCM kinds
// may be used for new repositories and the commit-message keyword grammar.
type Settings struct {
	enabledSCM       []string
	refKeywords      []string
	fixKeywords      []string
	crossProjectRefs bool
}

// settingsFile is the YAML layout of the settings file.
type settingsFile struct {
	EnabledSCM       []string `yaml:"enabled_scm"`
	RefKeywords      keywords `yaml:"ref_keywords"`
	FixKeywords      keywords `yaml:"fix_keywords"`
	CrossProjectRefs bool     `yaml:"cross_project_refs"`
}

// keywords accepts either a YAML sequence or a comma-separated string.
type keywords []string

// UnmarshalYAML implements yaml.Unmarshaler.
func (k *keywords) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		*k = splitList(node.Value)
		return nil
	case yaml.SequenceNode:
		var list []string
		if err := node.Decode(&list); err != nil {
			return err
		}
		*k = trimAll(list)
		return nil
	default:
		return fmt.Errorf("line %d: keywords must be a string or a list", node.Line)
	}
}

// NewSettings creates Settings with defaults.
func NewSettings() Settings {
	return Settings{
		enabledSCM:  clone(DefaultEnabledSCM),
		refKeywords: clone(DefaultRefKeywords),
		fixKeywords: clone(DefaultFixKeywords),
	}
}

// LoadSettings reads a YAML settings file. A missing file yields defaults.
// Keys absent from the file keep their default.
func LoadSettings(path string) (Settings, error) {
	s := NewSettings()
	if path == "" {
		return s, nil
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return Settings{}, fmt.Errorf("read settings: %w", err)
	}
	return ParseSettings(data)
}

// ParseSettings parses YAML settings content.
func ParseSettings(data []byte) (Settings, error) {
	s := NewSettings()

	var raw settingsFile
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return Settings{}, fmt.Errorf("parse settings: %w", err)
	}

	if raw.EnabledSCM != nil {
		s.enabledSCM = trimAll(raw.EnabledSCM)
	}
	if raw.RefKeywords != nil {
		s.refKeywords = []string(raw.RefKeywords)
	}
	if raw.FixKeywords != nil {
		s.fixKeywords = []string(raw.FixKeywords)
	}
	s.crossProjectRefs = raw.CrossProjectRefs
	return s, nil
}

// EnabledSCM returns the SCM kinds new repositories may use.
func (s Settings) EnabledSCM() []string { return clone(s.enabledSCM) }

// RefKeywords returns the keywords that mark an issue reference.
func (s Settings) RefKeywords() []string { return clone(s.refKeywords) }

// FixKeywords returns the keywords that mark an issue as fixed.
func (s Settings) FixKeywords() []string { return clone(s.fixKeywords) }

// CrossProjectRefs reports whether commits may reference issues of other projects.
func (s Settings) CrossProjectRefs() bool { return s.crossProjectRefs }

// WithEnabledSCM returns a copy with the given enabled kinds.
func (s Settings) WithEnabledSCM(kinds ...string) Settings {
	s.enabledSCM = trimAll(kinds)
	return s
}

// WithRefKeywords returns a copy with the given reference keywords.
func (s Settings) WithRefKeywords(kw ...string) Settings {
	s.refKeywords = trimAll(kw)
	return s
}

// WithFixKeywords returns a copy with the given fix keywords.
func (s Settings) WithFixKeywords(kw ...string) Settings {
	s.fixKeywords = trimAll(kw)
	return s
}

// WithCrossProjectRefs returns a copy with cross-project references toggled.
func (s Settings) WithCrossProjectRefs(enabled bool) Settings {
	s.crossProjectRefs = enabled
	return s
}

// Marshal renders the settings as YAML.
func (s Settings) Marshal() ([]byte, error) {
	return yaml.Marshal(settingsFile{
		EnabledSCM:       s.enabledSCM,
		RefKeywords:      keywords(s.refKeywords),
		FixKeywords:      keywords(s.fixKeywords),
		CrossProjectRefs: s.crossProjectRefs,
	})
}

func trimAll(in []string) []string {
	out := make([]string, 0, len(in))
	for _, v := range in {
		if t := strings.TrimSpace(v); t != "" {
			out = append(out, t)
		}
	}
	return out
}

func clone(in []string) []string {
	out := make([]string, len(in))
	copy(out, in)
	return out
}
