// Package flags manages the closed set of UI feature flags and answers
// on/off questions for the server.
package flags

import (
	"context"
	"errors"
	"log/slog"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"portfolio-backend/internal/models"
	"portfolio-backend/internal/repository"
)

// Input is a create or patch request body. Value and Description track
// presence so PATCH can tell "not sent" from false, "" or null.
type Input struct {
	Key         string                `json:"key"`
	Value       *bool                 `json:"value"`
	Description models.OptionalString `json:"description"`
}

func (in Input) Validate() error {
	keys := make([]interface{}, len(models.FlagKeys))
	for i, k := range models.FlagKeys {
		keys[i] = string(k)
	}
	return validation.ValidateStruct(&in,
		validation.Field(&in.Key, validation.Required, validation.In(keys...)),
	)
}

type Service struct {
	store    repository.FlagStore
	defaults map[models.FlagKey]bool
	logger   *slog.Logger
}

// NewService builds a Service. defaults answer Enabled when the store has
// no row or cannot be reached.
func NewService(store repository.FlagStore, defaults map[models.FlagKey]bool, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	if defaults == nil {
		defaults = map[models.FlagKey]bool{}
	}
	return &Service{store: store, defaults: defaults, logger: logger}
}

func (s *Service) List(ctx context.Context) ([]*models.FeatureFlag, error) {
	flags, err := s.store.ListFlags(ctx)
	if err != nil {
		return nil, persistence("failed to list flags", err)
	}
	if flags == nil {
		flags = []*models.FeatureFlag{}
	}
	return flags, nil
}

func (s *Service) Create(ctx context.Context, in Input) error {
	if err := in.Validate(); err != nil {
		return models.NewError(models.KindInvalidRequest, "invalid flag", err)
	}
	flag := &models.FeatureFlag{Key: models.FlagKey(in.Key), Description: in.Description.Value}
	if in.Value != nil {
		flag.Value = *in.Value
	}
	if err := s.store.Create(ctx, flag); err != nil {
		return persistence("failed to create flag", err)
	}
	return nil
}

// Patch updates only the description when the field is present, even as
// null, and otherwise upserts the value.
func (s *Service) Patch(ctx context.Context, in Input) error {
	if err := in.Validate(); err != nil {
		return models.NewError(models.KindInvalidRequest, "invalid flag", err)
	}
	key := models.FlagKey(in.Key)

	if in.Description.Present {
		if err := s.store.SetDescription(ctx, key, in.Description.Value); err != nil {
			return persistence("failed to update flag description", err)
		}
		return nil
	}

	if in.Value == nil {
		return models.NewError(models.KindInvalidRequest, "invalid flag", validation.Errors{"value": validation.ErrRequired})
	}
	if err := s.store.SetValue(ctx, key, *in.Value); err != nil {
		return persistence("failed to update flag value", err)
	}
	return nil
}

func (s *Service) Delete(ctx context.Context, key string) error {
	if key == "" {
		return models.NewError(models.KindInvalidRequest, "Missing key", nil)
	}
	if err := s.store.Delete(ctx, models.FlagKey(key)); err != nil {
		return persistence("failed to delete flag", err)
	}
	return nil
}

// Enabled reports the stored value of key, falling back to the configured
// default when the flag is missing or the store errors.
func (s *Service) Enabled(ctx context.Context, key models.FlagKey) bool {
	flag, err := s.store.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, models.ErrNotFound) {
			s.logger.Warn("feature flag lookup failed, using default", "key", string(key), "error", err)
		}
		return s.defaults[key]
	}
	return flag.Value
}

func persistence(msg string, err error) error {
	return models.NewError(models.KindPersistenceFailure, msg, err)
}
