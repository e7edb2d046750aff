// Package services contains the business logic layer: link creation and
// resolution, and the analytics rollups.
package services

import (
	"crypto/rand"
	"errors"
	"fmt"
	"log"
	"math/big"
	"net/url"
	"regexp"
	"strings"
	"time"

	apperrors "github.com/linkak/linkak/internal/errors"
	"github.com/linkak/linkak/internal/models"
	"github.com/linkak/linkak/internal/repository"
)

// charset is the alphabet for generated short codes: 62 alphanumeric
// characters, giving 62^6 ≈ 56 billion combinations at the default length.
const charset = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

const (
	defaultCodeLength = 6
	maxURLLength      = 2048
	minAliasLength    = 3
	maxAliasLength    = 50

	// maxRetries bounds the collision retry loop. At a 62^6 code space a
	// second collision is already vanishingly unlikely, so hitting this cap
	// means something else is wrong.
	maxRetries = 5
)

var aliasRe = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// CreateLinkInput carries everything needed to create a shortened link.
type CreateLinkInput struct {
	OriginalURL string
	CustomAlias string
	Domain      string
	AccountID   *uint // nil for anonymous links
	ExpiresDays int   // 0 means no expiry
}

// LinkService provides the create and resolve operations for shortened
// links. It is safe for concurrent use: uniqueness is enforced by the
// store's insert, not by any in-process state.
type LinkService struct {
	linkRepo repository.LinkRepository

	// now is swappable for tests.
	now func() time.Time

	// generate is swappable for tests to force collisions.
	generate func(length int) (string, error)
}

// NewLinkService creates and returns a new LinkService.
func NewLinkService(linkRepo repository.LinkRepository) *LinkService {
	return &LinkService{
		linkRepo: linkRepo,
		now:      time.Now,
		generate: GenerateShortCode,
	}
}

// GenerateShortCode produces a cryptographically random alphanumeric code
// of the given length.
func GenerateShortCode(length int) (string, error) {
	code := make([]byte, length)
	for i := range code {
		num, err := rand.Int(rand.Reader, big.NewInt(int64(len(charset))))
		if err != nil {
			return "", fmt.Errorf("failed to generate random number: %w", err)
		}
		code[i] = charset[num.Int64()]
	}
	return string(code), nil
}

// CreateLink creates a new shortened link. With a custom alias the alias
// becomes the short code and a conflict surfaces as ErrAliasTaken; without
// one a random code is generated, retrying on the store's uniqueness
// rejection. Concurrent creators racing for the same code simply retry —
// there is no check-then-act window.
func (s *LinkService) CreateLink(input CreateLinkInput) (*models.Link, error) {
	if err := validateTargetURL(input.OriginalURL); err != nil {
		return nil, err
	}

	var expiresAt *time.Time
	if input.ExpiresDays > 0 {
		t := s.now().AddDate(0, 0, input.ExpiresDays)
		expiresAt = &t
	}

	if alias := strings.TrimSpace(input.CustomAlias); alias != "" {
		return s.createWithAlias(input, alias, expiresAt)
	}
	return s.createWithGeneratedCode(input, expiresAt)
}

func (s *LinkService) createWithAlias(input CreateLinkInput, alias string, expiresAt *time.Time) (*models.Link, error) {
	if len(alias) < minAliasLength || len(alias) > maxAliasLength || !aliasRe.MatchString(alias) {
		return nil, apperrors.ErrInvalidAlias
	}

	link := &models.Link{
		OriginalURL: input.OriginalURL,
		ShortCode:   alias,
		CustomAlias: &alias,
		Domain:      input.Domain,
		AccountID:   input.AccountID,
		ExpiresAt:   expiresAt,
		IsActive:    true,
	}
	if err := s.linkRepo.CreateLink(link); err != nil {
		if errors.Is(err, apperrors.ErrCodeConflict) {
			return nil, apperrors.ErrAliasTaken
		}
		return nil, err
	}
	return link, nil
}

func (s *LinkService) createWithGeneratedCode(input CreateLinkInput, expiresAt *time.Time) (*models.Link, error) {
	for attempt := 1; attempt <= maxRetries; attempt++ {
		code, err := s.generate(defaultCodeLength)
		if err != nil {
			return nil, fmt.Errorf("failed to generate short code: %w", err)
		}

		link := &models.Link{
			OriginalURL: input.OriginalURL,
			ShortCode:   code,
			Domain:      input.Domain,
			AccountID:   input.AccountID,
			ExpiresAt:   expiresAt,
			IsActive:    true,
		}
		err = s.linkRepo.CreateLink(link)
		if err == nil {
			return link, nil
		}
		if !errors.Is(err, apperrors.ErrCodeConflict) {
			return nil, err
		}
		log.Printf("Short code %q already exists, retrying generation (%d/%d)...", code, attempt, maxRetries)
	}
	return nil, apperrors.ErrGenerationExhausted
}

// Resolve looks up a short code and checks its lifecycle state. It returns
// ErrShortCodeNotFound for unknown codes and ErrLinkGone for links that are
// inactive or past their expiry, even when the active flag is still set.
func (s *LinkService) Resolve(shortCode string) (*models.Link, error) {
	link, err := s.linkRepo.GetLinkByShortCode(shortCode)
	if err != nil {
		return nil, err
	}
	if !link.IsActive {
		return nil, apperrors.ErrLinkGone
	}
	if link.Expired(s.now()) {
		return nil, apperrors.ErrLinkGone
	}
	return link, nil
}

// GetLinkForAccount retrieves a link by short code, scoped to the owning
// account: a link that exists but belongs to someone else (or to nobody)
// is reported as not found rather than leaked.
func (s *LinkService) GetLinkForAccount(shortCode string, accountID uint) (*models.Link, error) {
	link, err := s.linkRepo.GetLinkByShortCode(shortCode)
	if err != nil {
		return nil, err
	}
	if link.AccountID == nil || *link.AccountID != accountID {
		return nil, apperrors.ErrShortCodeNotFound
	}
	return link, nil
}

// GetLinksByAccount lists the account's links, newest first.
func (s *LinkService) GetLinksByAccount(accountID uint) ([]models.Link, error) {
	return s.linkRepo.GetLinksByAccountID(accountID)
}

func validateTargetURL(raw string) error {
	if raw == "" || len(raw) > maxURLLength {
		return apperrors.ErrInvalidURL
	}
	parsed, err := url.Parse(raw)
	if err != nil {
		return apperrors.ErrInvalidURL
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return apperrors.ErrInvalidURL
	}
	if parsed.Host == "" {
		return apperrors.ErrInvalidURL
	}
	return nil
}
