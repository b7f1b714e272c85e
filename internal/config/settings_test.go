package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadSettings_MissingFileUsesDefaults(t *testing.T) {
	s, err := LoadSettings(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)

	assert.Equal(t, DefaultEnabledSCM, s.EnabledSCM())
	assert.Equal(t, DefaultRefKeywords, s.RefKeywords())
	assert.Equal(t, DefaultFixKeywords, s.FixKeywords())
	assert.False(t, s.CrossProjectRefs())
}

func TestParseSettings(t *testing.T) {
	tests := []struct {
		name      string
		yaml      string
		enabled   []string
		refs      []string
		fixes     []string
		crossProj bool
	}{
		{
			name:    "lists",
			yaml:    "enabled_scm: [git]\nref_keywords: [refs, '*']\nfix_keywords: [fixes, closes, resolves]\n",
			enabled: []string{"git"},
			refs:    []string{"refs", "*"},
			fixes:   []string{"fixes", "closes", "resolves"},
		},
		{
			name:      "comma strings",
			yaml:      "ref_keywords: 'refs, see'\nfix_keywords: fixes\ncross_project_refs: true\n",
			enabled:   DefaultEnabledSCM,
			refs:      []string{"refs", "see"},
			fixes:     []string{"fixes"},
			crossProj: true,
		},
		{
			name:    "empty document",
			yaml:    "",
			enabled: DefaultEnabledSCM,
			refs:    DefaultRefKeywords,
			fixes:   DefaultFixKeywords,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := ParseSettings([]byte(tt.yaml))
			require.NoError(t, err)
			assert.Equal(t, tt.enabled, s.EnabledSCM())
			assert.Equal(t, tt.refs, s.RefKeywords())
			assert.Equal(t, tt.fixes, s.FixKeywords())
			assert.Equal(t, tt.crossProj, s.CrossProjectRefs())
		})
	}
}

func TestParseSettings_Invalid(t *testing.T) {
	_, err := ParseSettings([]byte("ref_keywords: {a: b}\n"))
	assert.Error(t, err)
}

func TestSettings_MarshalRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.yaml")
	s := NewSettings().WithEnabledSCM("github").WithFixKeywords("closes").WithCrossProjectRefs(true)

	data, err := s.Marshal()
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, data, 0o644))

	loaded, err := LoadSettings(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"github"}, loaded.EnabledSCM())
	assert.Equal(t, []string{"closes"}, loaded.FixKeywords())
	assert.Equal(t, DefaultRefKeywords, loaded.RefKeywords())
	assert.True(t, loaded.CrossProjectRefs())
}
