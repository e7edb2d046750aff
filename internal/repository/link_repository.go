package repository

import (
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	apperrors "github.com/linkak/linkak/internal/errors"
	"github.com/linkak/linkak/internal/models"
)

// LinkRepository defines the data-access methods for shortened links.
// Short-code uniqueness is a property of CreateLink: the unique index
// rejects duplicates at insert time, so callers never need a
// check-then-act existence probe.
type LinkRepository interface {
	CreateLink(link *models.Link) error
	GetLinkByShortCode(shortCode string) (*models.Link, error)
	GetLinksByAccountID(accountID uint) ([]models.Link, error)
	GetActiveLinks() ([]models.Link, error)
	IncrementClickCount(linkID uint) error
}

// GormLinkRepository is the LinkRepository implementation using GORM.
type GormLinkRepository struct {
	db *gorm.DB
}

// NewLinkRepository creates and returns a new GormLinkRepository.
func NewLinkRepository(db *gorm.DB) *GormLinkRepository {
	return &GormLinkRepository{db: db}
}

// CreateLink inserts a new link. A violation of the short-code or alias
// uniqueness constraint surfaces as apperrors.ErrCodeConflict so the
// generator's retry loop (and the alias 409 path) can distinguish it from
// real backend failures.
func (r *GormLinkRepository) CreateLink(link *models.Link) error {
	if err := r.db.Create(link).Error; err != nil {
		if isUniqueViolation(err) {
			return apperrors.ErrCodeConflict
		}
		return fmt.Errorf("failed to create link: %w", err)
	}
	return nil
}

// GetLinkByShortCode retrieves a link by its short code. Returns
// apperrors.ErrShortCodeNotFound when no row matches.
func (r *GormLinkRepository) GetLinkByShortCode(shortCode string) (*models.Link, error) {
	var link models.Link
	if err := r.db.Where("short_code = ?", shortCode).First(&link).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrShortCodeNotFound
		}
		return nil, fmt.Errorf("failed to look up short code %q: %w", shortCode, err)
	}
	return &link, nil
}

// GetLinksByAccountID retrieves all links owned by an account, newest first.
func (r *GormLinkRepository) GetLinksByAccountID(accountID uint) ([]models.Link, error) {
	var links []models.Link
	if err := r.db.Where("account_id = ?", accountID).Order("created_at DESC").Find(&links).Error; err != nil {
		return nil, fmt.Errorf("failed to retrieve links for account %d: %w", accountID, err)
	}
	return links, nil
}

// GetActiveLinks retrieves all links whose active flag is set. Used by the
// target-URL monitor.
func (r *GormLinkRepository) GetActiveLinks() ([]models.Link, error) {
	var links []models.Link
	if err := r.db.Where("is_active = ?", true).Find(&links).Error; err != nil {
		return nil, fmt.Errorf("failed to retrieve active links: %w", err)
	}
	return links, nil
}

// IncrementClickCount atomically bumps a link's click counter by one. The
// increment runs as a single SQL expression, so concurrent redirects never
// lose updates.
func (r *GormLinkRepository) IncrementClickCount(linkID uint) error {
	err := r.db.Model(&models.Link{}).
		Where("id = ?", linkID).
		UpdateColumn("click_count", gorm.Expr("click_count + 1")).Error
	if err != nil {
		return fmt.Errorf("failed to increment click count for link %d: %w", linkID, err)
	}
	return nil
}

// isUniqueViolation detects uniqueness-constraint errors. GORM translates
// them for some drivers; the SQLite message check covers the rest.
func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	return strings.Contains(strings.ToLower(err.Error()), "unique constraint")
}
