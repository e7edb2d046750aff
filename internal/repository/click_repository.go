package repository

import (
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/linkak/linkak/internal/models"
)

// ClickRepository defines the data-access methods for click events.
// Clicks are append-only: there is no update or delete.
type ClickRepository interface {
	CreateClick(click *models.Click) error
	GetClicksByLinkID(linkID uint) ([]models.Click, error)
	GetClicksByLinkIDs(linkIDs []uint, from, to time.Time) ([]models.Click, error)
	CountClicksByLinkID(linkID uint) (int64, error)
}

// GormClickRepository is the ClickRepository implementation using GORM.
type GormClickRepository struct {
	db *gorm.DB
}

// NewClickRepository creates and returns a new GormClickRepository.
func NewClickRepository(db *gorm.DB) *GormClickRepository {
	return &GormClickRepository{db: db}
}

// CreateClick inserts a new click record.
func (r *GormClickRepository) CreateClick(click *models.Click) error {
	if err := r.db.Create(click).Error; err != nil {
		return fmt.Errorf("failed to create click: %w", err)
	}
	return nil
}

// GetClicksByLinkID returns a link's full click history, newest first.
func (r *GormClickRepository) GetClicksByLinkID(linkID uint) ([]models.Click, error) {
	var clicks []models.Click
	if err := r.db.Where("link_id = ?", linkID).Order("timestamp DESC").Find(&clicks).Error; err != nil {
		return nil, fmt.Errorf("failed to retrieve clicks for link %d: %w", linkID, err)
	}
	return clicks, nil
}

// GetClicksByLinkIDs returns all clicks on the given links within
// [from, to), newest first. An empty id list yields an empty result
// without touching the database.
func (r *GormClickRepository) GetClicksByLinkIDs(linkIDs []uint, from, to time.Time) ([]models.Click, error) {
	if len(linkIDs) == 0 {
		return nil, nil
	}
	var clicks []models.Click
	err := r.db.Where("link_id IN ?", linkIDs).
		Where("timestamp >= ? AND timestamp < ?", from, to).
		Order("timestamp DESC").
		Find(&clicks).Error
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve clicks for %d links: %w", len(linkIDs), err)
	}
	return clicks, nil
}

// CountClicksByLinkID counts the recorded click rows for a link.
func (r *GormClickRepository) CountClicksByLinkID(linkID uint) (int64, error) {
	var count int64
	if err := r.db.Model(&models.Click{}).Where("link_id = ?", linkID).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count clicks for link %d: %w", linkID, err)
	}
	return count, nil
}
