package service

import (
	"context"
	"errors"

	"frontdesk/internal/settings/repository"
	"frontdesk/pkg/config"
	apperrors "frontdesk/pkg/errors"
	"frontdesk/pkg/model"
	"frontdesk/pkg/sanitizer"
	"frontdesk/pkg/validation"

	"github.com/go-playground/validator/v10"
)

type SettingsService interface {
	Get(ctx context.Context) (*model.Settings, error)
	Refresh(ctx context.Context) (*model.Settings, error)
	Update(ctx context.Context, actor model.Actor, update *model.SettingsUpdate) (*model.Settings, error)
}

type settingsService struct {
	repo     repository.SettingsRepository
	cache    *Cache
	validate *validator.Validate
	cfg      *config.Config
}

func NewSettingsService(repo repository.SettingsRepository, cache *Cache, cfg *config.Config) SettingsService {
	return &settingsService{
		repo:     repo,
		cache:    cache,
		validate: validation.New(),
		cfg:      cfg,
	}
}

func (s *settingsService) Get(ctx context.Context) (*model.Settings, error) {
	settings, err := s.cache.Get(ctx)
	if err != nil {
		s.cfg.Log.Error("Failed to load settings", "error", err)
		return nil, apperrors.StoreUnavailable("settings load", err)
	}
	return settings, nil
}

func (s *settingsService) Refresh(ctx context.Context) (*model.Settings, error) {
	settings, err := s.cache.Refresh(ctx)
	if err != nil {
		s.cfg.Log.Error("Failed to refresh settings", "error", err)
		return nil, apperrors.StoreUnavailable("settings refresh", err)
	}
	return settings, nil
}

// Update is restricted to admins.
func (s *settingsService) Update(ctx context.Context, actor model.Actor, update *model.SettingsUpdate) (*model.Settings, error) {
	if !actor.IsAdmin() {
		return nil, apperrors.Forbidden("Only admins can change settings")
	}

	current, err := s.repo.Get(ctx)
	if err != nil {
		return nil, apperrors.StoreUnavailable("settings load", err)
	}

	next := *current
	if update.LogoURL != nil {
		next.LogoURL = sanitizer.NormalizeURL(*update.LogoURL)
	}
	if update.WebhookURL != nil {
		next.WebhookURL = sanitizer.NormalizeURL(*update.WebhookURL)
		if next.WebhookURL == "" && sanitizer.TrimAndNormalize(*update.WebhookURL) != "" {
			return nil, apperrors.Validation("Invalid settings input", map[string]any{"webhook_url": "webhook_url must be an absolute http(s) URL"})
		}
	}
	if update.WebhookFields != nil {
		next.WebhookFields = sanitizer.NormalizeLabels(*update.WebhookFields)
	}

	if err := validation.Struct(s.validate, &next); err != nil {
		s.cfg.Log.Warn("Settings validation failed", "actor_id", actor.ID, "error", err)
		var verrs validation.ValidationErrors
		if errors.As(err, &verrs) {
			return nil, apperrors.Validation("Invalid settings input", verrs.Details())
		}
		return nil, apperrors.Validation("Invalid settings input", map[string]any{"error": err.Error()})
	}

	if err := s.repo.Save(ctx, &next); err != nil {
		s.cfg.Log.Error("Failed to save settings", "error", err)
		return nil, apperrors.Internal("Failed to save settings", err)
	}
	s.cache.Put(&next)

	s.cfg.Log.Info("Settings updated successfully",
		"actor_id", actor.ID,
		"webhook_configured", next.WebhookURL != "",
		"webhook_fields", len(next.WebhookFields),
	)
	return &next, nil
}
