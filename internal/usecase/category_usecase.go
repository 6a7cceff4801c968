package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"catalog_service/internal/domain"

	"github.com/sirupsen/logrus"
)

type CategoryUseCase interface {
	CreateCategory(ctx context.Context, category *domain.Category) (*domain.Category, error)
	GetCategoryByID(ctx context.Context, id int) (*domain.Category, error)
	UpdateCategory(ctx context.Context, category *domain.Category) (*domain.Category, error)
	DeleteCategory(ctx context.Context, id int) error
	ListCategories(ctx context.Context) ([]domain.Category, error)
}

type categoryUseCase struct {
	categoryRepo domain.CategoryRepository
	configCache  domain.ConfigCache
	log          *logrus.Logger
}

// NewCategoryUseCase builds the category use case. cache may be nil when
// configurations are not cached.
func NewCategoryUseCase(repo domain.CategoryRepository, cache domain.ConfigCache, logger *logrus.Logger) CategoryUseCase {
	return &categoryUseCase{
		categoryRepo: repo,
		configCache:  cache,
		log:          logger,
	}
}

func (uc *categoryUseCase) CreateCategory(ctx context.Context, category *domain.Category) (*domain.Category, error) {
	category.Name = strings.TrimSpace(category.Name)
	if category.Name == "" {
		uc.log.Warn("Use Case: Attempted to create category with empty name")
		return nil, errors.New("category name cannot be empty")
	}

	uc.log.Infof("Use Case: Attempting to create category with name '%s'", category.Name)
	createdCategory, err := uc.categoryRepo.CreateCategory(ctx, category)
	if err != nil {
		uc.log.Errorf("Use Case: Repository failed to create category '%s': %v", category.Name, err)
		return nil, err
	}

	uc.log.Infof("Use Case: Category '%s' created successfully with ID %d", createdCategory.Name, createdCategory.ID)
	return createdCategory, nil
}

func (uc *categoryUseCase) GetCategoryByID(ctx context.Context, id int) (*domain.Category, error) {
	if id <= 0 {
		uc.log.Warnf("Use Case: Attempted to get category with invalid ID: %d", id)
		return nil, errors.New("invalid category ID")
	}

	uc.log.Infof("Use Case: Attempting to get category with ID %d", id)
	category, err := uc.categoryRepo.GetCategoryByID(ctx, id)
	if err != nil {
		uc.log.Warnf("Use Case: Repository failed to get category ID %d: %v", id, err)
		return nil, err
	}

	uc.log.Infof("Use Case: Category retrieved successfully for ID %d", id)
	return category, nil
}

func (uc *categoryUseCase) UpdateCategory(ctx context.Context, category *domain.Category) (*domain.Category, error) {
	if category.ID <= 0 {
		uc.log.Warnf("Use Case: Attempted update with invalid ID: %d", category.ID)
		return nil, errors.New("invalid category ID for update")
	}
	category.Name = strings.TrimSpace(category.Name)
	if category.Name == "" {
		uc.log.Warnf("Use Case: Attempted update for ID %d with empty name", category.ID)
		return nil, errors.New("category name cannot be empty for update")
	}

	uc.log.Infof("Use Case: Attempting to update category ID %d", category.ID)
	previous, err := uc.categoryRepo.GetCategoryByID(ctx, category.ID)
	if err != nil {
		uc.log.Warnf("Use Case: Category ID %d not found for update: %v", category.ID, err)
		return nil, err
	}
	updatedCategory, err := uc.categoryRepo.UpdateCategory(ctx, category)
	if err != nil {
		uc.log.Errorf("Use Case: Repository failed to update category ID %d: %v", category.ID, err)
		return nil, err
	}
	if previous.Name != updatedCategory.Name {
		uc.forgetConfig(ctx, previous.Name)
	}

	uc.log.Infof("Use Case: Category updated successfully for ID %d", updatedCategory.ID)
	return updatedCategory, nil
}

func (uc *categoryUseCase) DeleteCategory(ctx context.Context, id int) error {
	if id <= 0 {
		uc.log.Warnf("Use Case: Attempted delete with invalid ID: %d", id)
		return errors.New("invalid category ID for delete")
	}

	uc.log.Infof("Use Case: Attempting to delete category ID %d", id)
	category, err := uc.categoryRepo.GetCategoryByID(ctx, id)
	if err != nil {
		uc.log.Warnf("Use Case: Category ID %d not found for delete: %v", id, err)
		return err
	}
	if err := uc.categoryRepo.DeleteCategory(ctx, id); err != nil {
		uc.log.Warnf("Use Case: Repository failed to delete category ID %d: %v", id, err)
		return err
	}
	uc.forgetConfig(ctx, category.Name)

	uc.log.Infof("Use Case: Category deleted successfully for ID %d", id)
	return nil
}

func (uc *categoryUseCase) ListCategories(ctx context.Context) ([]domain.Category, error) {
	uc.log.Info("Use Case: Attempting to list all categories")

	categories, err := uc.categoryRepo.ListCategories(ctx)
	if err != nil {
		uc.log.Errorf("Use Case: Repository failed to list categories: %v", err)
		return nil, fmt.Errorf("could not retrieve categories: %w", err)
	}

	uc.log.Infof("Use Case: Retrieved %d categories", len(categories))
	return categories, nil
}

// forgetConfig drops the configuration cached under a category name that no
// longer resolves to the same category.
func (uc *categoryUseCase) forgetConfig(ctx context.Context, name string) {
	if uc.configCache == nil {
		return
	}
	uc.log.Debugf("Use Case: Dropping cached config for category '%s'", name)
	uc.configCache.Forget(ctx, name)
}
