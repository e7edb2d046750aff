package ratelimit

import (
	"strings"
	"time"
)

// Category is a rate-limit class with its fixed window budget. Limits are
// configuration constants, not request-tunable knobs.
type Category struct {
	Name   string
	Limit  int
	Window time.Duration
}

// Per-category budgets. Login and registration are tight because they front
// credential guessing; everything else gets the broad API or default budget.
var (
	CategoryLogin    = Category{Name: "login", Limit: 5, Window: 5 * time.Minute}
	CategoryRegister = Category{Name: "register", Limit: 3, Window: time.Hour}
	CategoryAPI      = Category{Name: "api", Limit: 100, Window: time.Hour}
	CategoryDefault  = Category{Name: "default", Limit: 1000, Window: time.Hour}
)

// Categorize maps a request path to its rate-limit category by name and
// prefix matching. The redirect path falls into the default category.
func Categorize(path string) Category {
	switch {
	case strings.HasSuffix(path, "/login"):
		return CategoryLogin
	case strings.HasSuffix(path, "/register"):
		return CategoryRegister
	case strings.HasPrefix(path, "/api/"):
		return CategoryAPI
	default:
		return CategoryDefault
	}
}
