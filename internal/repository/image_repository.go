package repository

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"crypto-persona-backend/internal/model"
)

var ErrImageNotFound = errors.New("profile image not found")

// ImageRepository stores the ledger of generated profile artwork.
type ImageRepository interface {
	SaveImage(image *model.ProfileImage) error
	LatestImage(code string) (*model.ProfileImage, error)
	ListImages() ([]model.ProfileImage, error)
}

type imageRepository struct {
	db *gorm.DB
}

func NewImageRepository(db *gorm.DB) ImageRepository {
	return &imageRepository{db: db}
}

func (r *imageRepository) SaveImage(image *model.ProfileImage) error {
	if err := r.db.Create(image).Error; err != nil {
		return fmt.Errorf("save image for %s: %w", image.Code, err)
	}
	return nil
}

func (r *imageRepository) LatestImage(code string) (*model.ProfileImage, error) {
	var image model.ProfileImage
	err := r.db.Where("code = ?", code).Order("created_at DESC").First(&image).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrImageNotFound
	}
	if err != nil {
		return nil, err
	}
	return &image, nil
}

func (r *imageRepository) ListImages() ([]model.ProfileImage, error) {
	var images []model.ProfileImage
	err := r.db.Order("code, created_at DESC").Find(&images).Error
	return images, err
}
