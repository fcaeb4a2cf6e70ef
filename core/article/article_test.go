package article

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/trezcool/coursedash/core/wiki"
)

func TestNormalizeTitle(t *testing.T) {
	enwiki := wiki.Wiki{ID: 1, Language: "en", Project: "wikipedia"}
	wiktionary := wiki.Wiki{ID: 2, Language: "en", Project: "wiktionary"}
	wikisource := wiki.Wiki{ID: 3, Language: "www", Project: "wikisource"}
	incubator := wiki.Wiki{ID: 4, Language: "incubator", Project: "wikimedia"}

	tests := []struct {
		name    string
		title   string
		wiki    wiki.Wiki
		want    string
		wantErr error
	}{
		{name: "capitalizes first letter", title: "jalapeño", wiki: enwiki, want: "Jalapeño"},
		{name: "capitalizes non-ascii first letter", title: "élan", wiki: enwiki, want: "Élan"},
		{name: "spaces to underscores", title: "  My article ", wiki: enwiki, want: "My_article"},
		{name: "keeps case variants", title: "MY ARTICLE", wiki: enwiki, want: "MY_ARTICLE"},
		{name: "collapses whitespace", title: "Heyder   Cansa", wiki: wikisource, want: "Heyder_Cansa"},
		{name: "keeps subpages", title: "Wp/kiu/Heyder Cansa", wiki: incubator, want: "Wp/kiu/Heyder_Cansa"},
		{name: "wiktionary keeps lower case", title: "selfie", wiki: wiktionary, want: "selfie"},
		{name: "brackets", title: "My [invalid] title", wiki: enwiki, wantErr: ErrInvalidTitle},
		{name: "pipe", title: "a|b", wiki: enwiki, wantErr: ErrInvalidTitle},
		{name: "blank", title: "   ", wiki: enwiki, wantErr: ErrInvalidTitle},
		{name: "longest", title: strings.Repeat("a", MaxTitleLen), wiki: enwiki, want: "A" + strings.Repeat("a", MaxTitleLen-1)},
		{name: "too long", title: strings.Repeat("a", 300), wiki: enwiki, wantErr: ErrInvalidTitle},
		{name: "too long in bytes", title: strings.Repeat("é", 128), wiki: enwiki, wantErr: ErrInvalidTitle},
		{name: "invalid utf-8", title: "ab\xffcd", wiki: enwiki, wantErr: ErrInvalidTitle},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NormalizeTitle(tt.title, tt.wiki)
			assert.Equal(t, tt.wantErr, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDisplayTitle(t *testing.T) {
	assert.Equal(t, "My article", DisplayTitle("My_article"))
}
