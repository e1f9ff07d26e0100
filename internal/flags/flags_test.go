package flags

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"portfolio-backend/internal/models"
)

type memFlags struct {
	rows map[models.FlagKey]*models.FeatureFlag
	err  error
}

func newMemFlags() *memFlags {
	return &memFlags{rows: map[models.FlagKey]*models.FeatureFlag{}}
}

func (m *memFlags) ListFlags(ctx context.Context) ([]*models.FeatureFlag, error) {
	if m.err != nil {
		return nil, m.err
	}
	var out []*models.FeatureFlag
	for _, f := range m.rows {
		out = append(out, f)
	}
	return out, nil
}

func (m *memFlags) Get(ctx context.Context, key models.FlagKey) (*models.FeatureFlag, error) {
	if m.err != nil {
		return nil, m.err
	}
	f, ok := m.rows[key]
	if !ok {
		return nil, models.ErrNotFound
	}
	return f, nil
}

func (m *memFlags) Create(ctx context.Context, f *models.FeatureFlag) error {
	if _, ok := m.rows[f.Key]; ok {
		return errors.New("duplicate key")
	}
	m.rows[f.Key] = f
	return nil
}

func (m *memFlags) SetValue(ctx context.Context, key models.FlagKey, value bool) error {
	f, ok := m.rows[key]
	if !ok {
		f = &models.FeatureFlag{Key: key}
		m.rows[key] = f
	}
	f.Value = value
	return nil
}

func (m *memFlags) SetDescription(ctx context.Context, key models.FlagKey, d *string) error {
	f, ok := m.rows[key]
	if !ok {
		return models.ErrNotFound
	}
	f.Description = d
	return nil
}

func (m *memFlags) Delete(ctx context.Context, key models.FlagKey) error {
	delete(m.rows, key)
	return nil
}

func boolPtr(b bool) *bool { return &b }
func desc(s string) models.OptionalString {
	return models.OptionalString{Present: true, Value: &s}
}

func TestService_EnabledFallsBackToDefault(t *testing.T) {
	store := newMemFlags()
	svc := NewService(store, map[models.FlagKey]bool{models.FlagShowProjectSlider: false}, nil)
	ctx := context.Background()

	if svc.Enabled(ctx, models.FlagShowProjectSlider) {
		t.Fatal("missing flag should use default false")
	}

	svc.Patch(ctx, Input{Key: string(models.FlagShowProjectSlider), Value: boolPtr(true)})
	if !svc.Enabled(ctx, models.FlagShowProjectSlider) {
		t.Fatal("stored true should win")
	}

	store.err = errors.New("connection reset")
	if svc.Enabled(ctx, models.FlagShowProjectSlider) {
		t.Fatal("store error should use default")
	}
}

func TestService_PatchDescriptionOnly(t *testing.T) {
	store := newMemFlags()
	svc := NewService(store, nil, nil)
	ctx := context.Background()
	key := string(models.FlagShowAboutMeButton)

	if err := svc.Create(ctx, Input{Key: key, Value: boolPtr(true)}); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := svc.Patch(ctx, Input{Key: key, Value: boolPtr(false), Description: desc("About button")}); err != nil {
		t.Fatalf("Patch: %v", err)
	}

	f := store.rows[models.FlagShowAboutMeButton]
	if !f.Value {
		t.Fatal("description patch must not touch value")
	}
	if f.Description == nil || *f.Description != "About button" {
		t.Fatalf("description = %v", f.Description)
	}
}

func TestService_PatchDescriptionMissingFlag(t *testing.T) {
	svc := NewService(newMemFlags(), nil, nil)
	err := svc.Patch(context.Background(), Input{Key: string(models.FlagShowDockNavigation), Description: desc("x")})
	if !errors.Is(err, models.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestService_RejectsUnknownKeys(t *testing.T) {
	svc := NewService(newMemFlags(), nil, nil)
	ctx := context.Background()

	tests := []struct {
		name string
		run  func() error
	}{
		{"create unknown", func() error { return svc.Create(ctx, Input{Key: "darkMode", Value: boolPtr(true)}) }},
		{"create blank", func() error { return svc.Create(ctx, Input{}) }},
		{"patch unknown", func() error { return svc.Patch(ctx, Input{Key: "darkMode", Value: boolPtr(true)}) }},
		{"patch no value", func() error { return svc.Patch(ctx, Input{Key: string(models.FlagShowProjectSlider)}) }},
		{"delete blank", func() error { return svc.Delete(ctx, "") }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.run()
			if models.KindOf(err) != models.KindInvalidRequest {
				t.Fatalf("err = %v, want invalid request", err)
			}
		})
	}
}

func TestService_ListNeverNil(t *testing.T) {
	flags, err := NewService(newMemFlags(), nil, nil).List(context.Background())
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if flags == nil {
		t.Fatal("List returned nil slice")
	}
}

func TestService_PatchNullDescriptionClears(t *testing.T) {
	store := newMemFlags()
	svc := NewService(store, nil, nil)
	ctx := context.Background()
	key := string(models.FlagShowExpertiseButton)

	var in Input
	if err := json.Unmarshal([]byte(`{"key":"`+key+`","description":"old"}`), &in); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if err := svc.Create(ctx, in); err != nil {
		t.Fatalf("Create: %v", err)
	}

	in = Input{}
	if err := json.Unmarshal([]byte(`{"key":"`+key+`","description":null}`), &in); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !in.Description.Present {
		t.Fatal("null description should be present")
	}
	if err := svc.Patch(ctx, in); err != nil {
		t.Fatalf("Patch: %v", err)
	}
	if store.rows[models.FlagShowExpertiseButton].Description != nil {
		t.Fatal("description should be cleared")
	}
}
