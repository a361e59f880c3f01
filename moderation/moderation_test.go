package moderation

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type keywordModerator struct {
	tenantID string
	keywords []string
	preset   string
}

func (m *keywordModerator) ModerateOutputs(_ context.Context, text string) (*Result, error) {
	for _, kw := range m.keywords {
		if kw == text {
			return &Result{Flagged: true, Action: ActionDirectOutput, PresetResponse: m.preset}, nil
		}
	}
	return &Result{Flagged: false}, nil
}

func keywordFactory(tenantID string, config map[string]any) (Moderator, error) {
	preset, _ := config["preset"].(string)
	var keywords []string
	if raw, ok := config["keywords"].([]string); ok {
		keywords = raw
	}
	return &keywordModerator{tenantID: tenantID, keywords: keywords, preset: preset}, nil
}

type staticSource struct {
	cfg *AppConfig
	err error
}

func (s *staticSource) ModerationConfig(context.Context, string) (*AppConfig, error) {
	return s.cfg, s.err
}

func TestRegisterAndNew(t *testing.T) {
	Register("keywords-test", keywordFactory)

	m, err := New("keywords-test", "tenant-1", map[string]any{
		"keywords": []string{"bad"},
		"preset":   "unavailable",
	})
	require.NoError(t, err)

	res, err := m.ModerateOutputs(context.Background(), "bad")
	require.NoError(t, err)
	assert.True(t, res.Flagged)
	assert.Equal(t, ActionDirectOutput, res.Action)
	assert.Equal(t, "unavailable", res.PresetResponse)

	res, err = m.ModerateOutputs(context.Background(), "fine")
	require.NoError(t, err)
	assert.False(t, res.Flagged)
}

func TestNewUnknownBackend(t *testing.T) {
	_, err := New("no-such-backend", "tenant-1", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown backend")
}

func TestServiceModerateOutputs(t *testing.T) {
	Register("keywords-svc", keywordFactory)

	svc := NewService(&staticSource{cfg: &AppConfig{
		Backend: "keywords-svc",
		Config:  map[string]any{"keywords": []string{"flagme"}, "preset": "nope"},
	}})

	res, err := svc.ModerateOutputs(context.Background(), "app-1", "tenant-1", "flagme")
	require.NoError(t, err)
	assert.True(t, res.Flagged)
	assert.Equal(t, "nope", res.PresetResponse)
}

func TestServiceConfigSourceError(t *testing.T) {
	svc := NewService(&staticSource{err: errors.New("db down")})

	_, err := svc.ModerateOutputs(context.Background(), "app-1", "tenant-1", "text")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "app-1")
}
