package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"catalog_service/internal/catalog"
	"catalog_service/internal/domain"

	"github.com/sirupsen/logrus"
)

type ConfigUseCase interface {
	GetConfig(ctx context.Context, categoryID int) (*domain.CategoryConfig, error)
	SaveConfig(ctx context.Context, categoryID int, cfg *domain.CategoryConfig) (*domain.CategoryConfig, error)
	DeleteConfig(ctx context.Context, categoryID int) error
	Resolve(ctx context.Context, categoryName string) catalog.Resolution
	Defaults() []domain.CategoryConfig
}

type configUseCase struct {
	configRepo   domain.CategoryConfigRepository
	categoryRepo domain.CategoryRepository
	resolver     *catalog.Resolver
	log          *logrus.Logger
}

func NewConfigUseCase(cfgRepo domain.CategoryConfigRepository, cRepo domain.CategoryRepository, resolver *catalog.Resolver, logger *logrus.Logger) ConfigUseCase {
	return &configUseCase{
		configRepo:   cfgRepo,
		categoryRepo: cRepo,
		resolver:     resolver,
		log:          logger,
	}
}

func (uc *configUseCase) GetConfig(ctx context.Context, categoryID int) (*domain.CategoryConfig, error) {
	if categoryID <= 0 {
		uc.log.Warnf("Use Case: Attempted to get config with invalid category ID: %d", categoryID)
		return nil, errors.New("invalid category ID")
	}

	uc.log.Infof("Use Case: Attempting to get config for category ID %d", categoryID)
	cfg, err := uc.configRepo.GetConfigByCategoryID(ctx, categoryID)
	if err != nil {
		uc.log.Warnf("Use Case: Repository failed to get config for category ID %d: %v", categoryID, err)
		return nil, err
	}
	return cfg, nil
}

func (uc *configUseCase) SaveConfig(ctx context.Context, categoryID int, cfg *domain.CategoryConfig) (*domain.CategoryConfig, error) {
	if categoryID <= 0 {
		uc.log.Warnf("Use Case: Attempted to save config with invalid category ID: %d", categoryID)
		return nil, errors.New("invalid category ID")
	}
	if err := normalizeConfig(cfg); err != nil {
		uc.log.Warnf("Use Case: Rejected config for category ID %d: %v", categoryID, err)
		return nil, err
	}

	category, err := uc.categoryRepo.GetCategoryByID(ctx, categoryID)
	if err != nil {
		uc.log.Warnf("Use Case: Category ID %d not found while saving config: %v", categoryID, err)
		return nil, err
	}
	cfg.CategoryID = category.ID
	cfg.CategoryName = category.Name

	uc.log.Infof("Use Case: Attempting to save config for category '%s' (active: %t)", category.Name, cfg.IsActive)
	saved, err := uc.configRepo.UpsertConfig(ctx, cfg)
	if err != nil {
		uc.log.Errorf("Use Case: Repository failed to save config for category ID %d: %v", categoryID, err)
		return nil, err
	}

	uc.log.Infof("Use Case: Config saved for category '%s'", category.Name)
	return saved, nil
}

func (uc *configUseCase) DeleteConfig(ctx context.Context, categoryID int) error {
	if categoryID <= 0 {
		uc.log.Warnf("Use Case: Attempted to delete config with invalid category ID: %d", categoryID)
		return errors.New("invalid category ID for delete")
	}

	uc.log.Infof("Use Case: Attempting to delete config for category ID %d", categoryID)
	if err := uc.configRepo.DeleteConfig(ctx, categoryID); err != nil {
		uc.log.Warnf("Use Case: Repository failed to delete config for category ID %d: %v", categoryID, err)
		return err
	}
	return nil
}

func (uc *configUseCase) Resolve(ctx context.Context, categoryName string) catalog.Resolution {
	res := uc.resolver.Resolve(ctx, categoryName)
	uc.log.Debugf("Use Case: Resolved category '%s' from %s (fallback: %t)", categoryName, res.Source, res.Fallback)
	return res
}

func (uc *configUseCase) Defaults() []domain.CategoryConfig {
	return catalog.BuiltinConfigs()
}

// normalizeConfig trims labels and keys in place and checks the configuration
// is usable by the settings UI and the projector.
func normalizeConfig(cfg *domain.CategoryConfig) error {
	if cfg == nil {
		return errors.New("invalid config: body cannot be empty")
	}

	tags := make(map[string]struct{}, len(cfg.Dimensions))
	for i := range cfg.Dimensions {
		d := &cfg.Dimensions[i]
		d.Label = strings.TrimSpace(d.Label)
		d.Field = strings.TrimSpace(d.Field)
		if d.Label == "" {
			return fmt.Errorf("invalid variant dimension %d: label cannot be empty", i+1)
		}
		if d.Field == "" {
			return fmt.Errorf("invalid variant dimension '%s': field cannot be empty", d.Label)
		}
		tag := strings.ToLower(d.Field)
		if _, dup := tags[tag]; dup {
			return fmt.Errorf("invalid variant dimension '%s': field '%s' is used twice", d.Label, d.Field)
		}
		tags[tag] = struct{}{}
	}

	keys := make(map[string]struct{}, len(cfg.Fields))
	for i := range cfg.Fields {
		f := &cfg.Fields[i]
		f.Key = strings.TrimSpace(f.Key)
		f.Label = strings.TrimSpace(f.Label)
		f.Unit = strings.TrimSpace(f.Unit)
		if f.Key == "" {
			return fmt.Errorf("invalid field %d: key cannot be empty", i+1)
		}
		if f.Label == "" {
			return fmt.Errorf("invalid field '%s': label cannot be empty", f.Key)
		}
		if f.Type == "" {
			f.Type = domain.FieldTypeText
		}
		if !f.Type.Valid() {
			return fmt.Errorf("invalid field '%s': unknown type '%s'", f.Key, f.Type)
		}
		if f.Type == domain.FieldTypeSelect && len(f.Options) == 0 {
			return fmt.Errorf("invalid field '%s': select fields need at least one option", f.Key)
		}
		key := strings.ToLower(f.Key)
		if _, dup := keys[key]; dup {
			return fmt.Errorf("invalid field '%s': key is used twice", f.Key)
		}
		keys[key] = struct{}{}
	}

	if cfg.SuggestedTypes != nil {
		suggested := make([]string, 0, len(cfg.SuggestedTypes))
		for _, s := range cfg.SuggestedTypes {
			if s = strings.TrimSpace(s); s != "" {
				suggested = append(suggested, s)
			}
		}
		cfg.SuggestedTypes = suggested
	}
	return nil
}
