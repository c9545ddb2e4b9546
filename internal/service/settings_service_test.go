package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/pal-track-api/internal/models"
	"github.com/noah-isme/pal-track-api/pkg/config"
)

type mockSettingsRepo struct {
	settings map[string]*models.Setting
}

func newMockSettingsRepo() *mockSettingsRepo {
	return &mockSettingsRepo{settings: make(map[string]*models.Setting)}
}

func (m *mockSettingsRepo) Find(ctx context.Context, key string) (*models.Setting, error) {
	if s, ok := m.settings[key]; ok {
		copy := *s
		return &copy, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockSettingsRepo) List(ctx context.Context) ([]models.Setting, error) {
	var settings []models.Setting
	for _, s := range m.settings {
		settings = append(settings, *s)
	}
	return settings, nil
}

func (m *mockSettingsRepo) Upsert(ctx context.Context, setting *models.Setting) error {
	copy := *setting
	m.settings[setting.Key] = &copy
	return nil
}

func newSettingsService() (*SettingsService, *mockSettingsRepo) {
	repo := newMockSettingsRepo()
	defaults := config.RulesConfig{MaxCourseSelections: 3, MinTutorGPA: 3.0}
	return NewSettingsService(repo, newMockAuditUserRepo(), nil, defaults), repo
}

func TestSettingsDefaultsWhenUnset(t *testing.T) {
	svc, _ := newSettingsService()
	ctx := context.Background()

	assert.Equal(t, 3, svc.MaxCourseSelections(ctx))
	assert.Equal(t, 3.0, svc.MinTutorGPA(ctx))
}

func TestSettingsUpdateOverridesDefaults(t *testing.T) {
	svc, _ := newSettingsService()
	ctx := context.Background()

	_, err := svc.Update(ctx, SettingMaxCourseSelections, "5", "admin-1")
	require.NoError(t, err)
	_, err = svc.Update(ctx, SettingMinTutorGPA, "3.5", "admin-1")
	require.NoError(t, err)

	assert.Equal(t, 5, svc.MaxCourseSelections(ctx))
	assert.Equal(t, 3.5, svc.MinTutorGPA(ctx))
}

func TestSettingsUpdateValidation(t *testing.T) {
	svc, _ := newSettingsService()
	ctx := context.Background()

	cases := []struct {
		key   string
		value string
	}{
		{SettingMaxCourseSelections, "0"},
		{SettingMaxCourseSelections, "11"},
		{SettingMaxCourseSelections, "three"},
		{SettingMinTutorGPA, "-0.5"},
		{SettingMinTutorGPA, "4.5"},
		{"unknown_key", "1"},
	}
	for _, tc := range cases {
		_, err := svc.Update(ctx, tc.key, tc.value, "admin-1")
		assert.Error(t, err, "key=%s value=%s", tc.key, tc.value)
	}
}

func TestSettingsFallBackOnCorruptValue(t *testing.T) {
	svc, repo := newSettingsService()
	ctx := context.Background()

	repo.settings[SettingMaxCourseSelections] = &models.Setting{
		Key:   SettingMaxCourseSelections,
		Value: "not-a-number",
		Type:  models.SettingTypeInteger,
	}
	assert.Equal(t, 3, svc.MaxCourseSelections(ctx))
}
