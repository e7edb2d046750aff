package services

import (
	"regexp"
	"sync"
	"testing"
	"time"

	apperrors "github.com/linkak/linkak/internal/errors"
	"github.com/linkak/linkak/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeLinkRepo is an in-memory LinkRepository enforcing the same
// uniqueness contract as the real store.
type fakeLinkRepo struct {
	mu     sync.Mutex
	nextID uint
	byCode map[string]*models.Link
}

func newFakeLinkRepo() *fakeLinkRepo {
	return &fakeLinkRepo{byCode: make(map[string]*models.Link)}
}

func (r *fakeLinkRepo) CreateLink(link *models.Link) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.byCode[link.ShortCode]; exists {
		return apperrors.ErrCodeConflict
	}
	r.nextID++
	link.ID = r.nextID
	cp := *link
	r.byCode[link.ShortCode] = &cp
	return nil
}

func (r *fakeLinkRepo) GetLinkByShortCode(shortCode string) (*models.Link, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	link, ok := r.byCode[shortCode]
	if !ok {
		return nil, apperrors.ErrShortCodeNotFound
	}
	cp := *link
	return &cp, nil
}

func (r *fakeLinkRepo) GetLinksByAccountID(accountID uint) ([]models.Link, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Link
	for _, l := range r.byCode {
		if l.AccountID != nil && *l.AccountID == accountID {
			out = append(out, *l)
		}
	}
	return out, nil
}

func (r *fakeLinkRepo) GetActiveLinks() ([]models.Link, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Link
	for _, l := range r.byCode {
		if l.IsActive {
			out = append(out, *l)
		}
	}
	return out, nil
}

func (r *fakeLinkRepo) IncrementClickCount(linkID uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, l := range r.byCode {
		if l.ID == linkID {
			l.ClickCount++
			return nil
		}
	}
	return apperrors.ErrShortCodeNotFound
}

var codeRe = regexp.MustCompile(`^[A-Za-z0-9]{6}$`)

func TestCreateLink_GeneratesSixCharAlnumCode(t *testing.T) {
	svc := NewLinkService(newFakeLinkRepo())

	link, err := svc.CreateLink(CreateLinkInput{OriginalURL: "https://example.com/a/b/c"})
	require.NoError(t, err)

	assert.Regexp(t, codeRe, link.ShortCode)
	assert.Equal(t, "https://example.com/a/b/c", link.OriginalURL)
	assert.True(t, link.IsActive)
	assert.Nil(t, link.CustomAlias)
}

func TestCreateLink_CodesAreUnique(t *testing.T) {
	repo := newFakeLinkRepo()
	svc := NewLinkService(repo)

	seen := make(map[string]bool)
	for i := 0; i < 200; i++ {
		link, err := svc.CreateLink(CreateLinkInput{OriginalURL: "https://example.com"})
		require.NoError(t, err)
		assert.False(t, seen[link.ShortCode], "code %q issued twice", link.ShortCode)
		seen[link.ShortCode] = true
	}
}

func TestCreateLink_RetriesOnCollision(t *testing.T) {
	repo := newFakeLinkRepo()
	svc := NewLinkService(repo)

	// Occupy the code the stubbed generator produces first.
	require.NoError(t, repo.CreateLink(&models.Link{OriginalURL: "https://x", ShortCode: "taken1", IsActive: true}))

	codes := []string{"taken1", "free99"}
	calls := 0
	svc.generate = func(int) (string, error) {
		code := codes[calls]
		calls++
		return code, nil
	}

	link, err := svc.CreateLink(CreateLinkInput{OriginalURL: "https://example.com"})
	require.NoError(t, err)
	assert.Equal(t, "free99", link.ShortCode)
	assert.Equal(t, 2, calls)
}

func TestCreateLink_GenerationExhausted(t *testing.T) {
	repo := newFakeLinkRepo()
	svc := NewLinkService(repo)

	require.NoError(t, repo.CreateLink(&models.Link{OriginalURL: "https://x", ShortCode: "stuck1", IsActive: true}))
	svc.generate = func(int) (string, error) { return "stuck1", nil }

	_, err := svc.CreateLink(CreateLinkInput{OriginalURL: "https://example.com"})
	assert.ErrorIs(t, err, apperrors.ErrGenerationExhausted)
}

func TestCreateLink_CustomAlias(t *testing.T) {
	svc := NewLinkService(newFakeLinkRepo())

	link, err := svc.CreateLink(CreateLinkInput{
		OriginalURL: "https://example.com",
		CustomAlias: "my-brand",
	})
	require.NoError(t, err)

	assert.Equal(t, "my-brand", link.ShortCode)
	require.NotNil(t, link.CustomAlias)
	assert.Equal(t, "my-brand", *link.CustomAlias)
}

func TestCreateLink_AliasTaken(t *testing.T) {
	repo := newFakeLinkRepo()
	svc := NewLinkService(repo)

	_, err := svc.CreateLink(CreateLinkInput{OriginalURL: "https://example.com", CustomAlias: "promo"})
	require.NoError(t, err)

	_, err = svc.CreateLink(CreateLinkInput{OriginalURL: "https://other.com", CustomAlias: "promo"})
	assert.ErrorIs(t, err, apperrors.ErrAliasTaken)

	// The conflict must not have created a second record.
	links, _ := repo.GetActiveLinks()
	assert.Len(t, links, 1)
}

func TestCreateLink_InvalidAlias(t *testing.T) {
	svc := NewLinkService(newFakeLinkRepo())

	for _, alias := range []string{"ab", "has space", "semi;colon", "☃snow"} {
		_, err := svc.CreateLink(CreateLinkInput{OriginalURL: "https://example.com", CustomAlias: alias})
		assert.ErrorIs(t, err, apperrors.ErrInvalidAlias, "alias %q", alias)
	}
}

func TestCreateLink_InvalidURL(t *testing.T) {
	svc := NewLinkService(newFakeLinkRepo())

	cases := []string{
		"",
		"not a url",
		"ftp://example.com/file",
		"//missing-scheme.com",
		"https://",
	}
	for _, raw := range cases {
		_, err := svc.CreateLink(CreateLinkInput{OriginalURL: raw})
		assert.ErrorIs(t, err, apperrors.ErrInvalidURL, "url %q", raw)
	}
}

func TestCreateLink_ExpiryFromDays(t *testing.T) {
	svc := NewLinkService(newFakeLinkRepo())
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }

	link, err := svc.CreateLink(CreateLinkInput{OriginalURL: "https://example.com", ExpiresDays: 7})
	require.NoError(t, err)

	require.NotNil(t, link.ExpiresAt)
	assert.Equal(t, now.AddDate(0, 0, 7), *link.ExpiresAt)
}

func TestResolve_NotFound(t *testing.T) {
	svc := NewLinkService(newFakeLinkRepo())

	_, err := svc.Resolve("nosuch")
	assert.ErrorIs(t, err, apperrors.ErrShortCodeNotFound)
}

func TestResolve_GoneWhenInactive(t *testing.T) {
	repo := newFakeLinkRepo()
	require.NoError(t, repo.CreateLink(&models.Link{
		OriginalURL: "https://example.com", ShortCode: "dead01", IsActive: false,
	}))
	svc := NewLinkService(repo)

	_, err := svc.Resolve("dead01")
	assert.ErrorIs(t, err, apperrors.ErrLinkGone)
}

func TestResolve_GoneWhenExpired(t *testing.T) {
	repo := newFakeLinkRepo()
	past := time.Now().Add(-time.Hour)
	// Expired links are gone even while the active flag is still set.
	require.NoError(t, repo.CreateLink(&models.Link{
		OriginalURL: "https://example.com", ShortCode: "old001", IsActive: true, ExpiresAt: &past,
	}))
	svc := NewLinkService(repo)

	_, err := svc.Resolve("old001")
	assert.ErrorIs(t, err, apperrors.ErrLinkGone)
}

func TestResolve_Success(t *testing.T) {
	repo := newFakeLinkRepo()
	future := time.Now().Add(time.Hour)
	require.NoError(t, repo.CreateLink(&models.Link{
		OriginalURL: "https://example.com/target", ShortCode: "live01", IsActive: true, ExpiresAt: &future,
	}))
	svc := NewLinkService(repo)

	link, err := svc.Resolve("live01")
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/target", link.OriginalURL)
}

func TestGetLinkForAccount_Scoping(t *testing.T) {
	repo := newFakeLinkRepo()
	owner := uint(7)
	require.NoError(t, repo.CreateLink(&models.Link{
		OriginalURL: "https://example.com", ShortCode: "mine01", IsActive: true, AccountID: &owner,
	}))
	require.NoError(t, repo.CreateLink(&models.Link{
		OriginalURL: "https://example.com", ShortCode: "anon01", IsActive: true,
	}))
	svc := NewLinkService(repo)

	_, err := svc.GetLinkForAccount("mine01", 7)
	assert.NoError(t, err)

	_, err = svc.GetLinkForAccount("mine01", 8)
	assert.ErrorIs(t, err, apperrors.ErrShortCodeNotFound)

	_, err = svc.GetLinkForAccount("anon01", 7)
	assert.ErrorIs(t, err, apperrors.ErrShortCodeNotFound)
}
