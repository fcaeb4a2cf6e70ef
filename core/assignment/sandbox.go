package assignment

import (
	"regexp"
	"strings"

	"github.com/pkg/errors"

	"github.com/trezcool/coursedash/core/wiki"
)

var (
	// https://<host>/wiki/User:<username>/<page>
	sandboxURLRegex = regexp.MustCompile(`^https://([^/\s]+)/wiki/User:([^/\s]+)/(\S.*)$`)

	ErrSandboxURLFormat = errors.New("invalid sandbox url format")
	ErrSandboxURLWiki   = errors.New("sandbox url does not belong to the assignment's wiki")
)

// SandboxURL is the default draft location of an article in a user's namespace.
func SandboxURL(w wiki.Wiki, username, title string) string {
	return w.BaseURL() + "/wiki/User:" + username + "/" + title
}

// ValidateSandboxURL checks that rawURL points to a user subpage on w.
func ValidateSandboxURL(rawURL string, w wiki.Wiki) error {
	m := sandboxURLRegex.FindStringSubmatch(strings.TrimSpace(rawURL))
	if m == nil {
		return ErrSandboxURLFormat
	}
	if !strings.EqualFold(m[1], w.Domain()) {
		return ErrSandboxURLWiki
	}
	return nil
}
