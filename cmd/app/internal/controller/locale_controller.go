package controller

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"crypto-persona-backend/internal/locale"
	"crypto-persona-backend/internal/view"
)

const languageKey = "language"

// LocaleMiddleware reads the stored preference and applies a ?lang= override, which is
// also persisted.
func LocaleMiddleware(store *locale.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		lang := store.Load(c.Request)
		if q := c.Query("lang"); q != "" {
			if l, ok := locale.Parse(q); ok {
				store.Save(c.Writer, l)
				lang = l
			}
		}
		c.Set(languageKey, lang)
		c.Next()
	}
}

// resolverFor returns the resolver mounted by LocaleMiddleware, which falls back to the
// default language when no preference is stored. Handlers outside the middleware get
// an unmounted resolver.
func resolverFor(c *gin.Context) *locale.Resolver {
	if v, ok := c.Get(languageKey); ok {
		if lang, ok := v.(locale.Language); ok {
			return locale.Mounted(lang)
		}
	}
	return locale.NewResolver()
}

func pageFor(c *gin.Context) view.Page {
	return view.Page{L: resolverFor(c), Path: c.Request.URL.RequestURI()}
}

type LocaleController struct {
	store *locale.Store
}

func NewLocaleController(store *locale.Store) *LocaleController {
	return &LocaleController{store: store}
}

// SetLanguage persists the preference. Form posts carry a redirect back to the page.
func (lc *LocaleController) SetLanguage(c *gin.Context) {
	lang, ok := locale.Parse(c.Param("lang"))
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unsupported language"})
		return
	}
	lc.store.Save(c.Writer, lang)

	if redirect := c.PostForm("redirect"); isLocalPath(redirect) {
		c.Redirect(http.StatusSeeOther, redirect)
		return
	}
	c.JSON(http.StatusOK, gin.H{"language": lang})
}

func isLocalPath(p string) bool {
	return strings.HasPrefix(p, "/") && !strings.HasPrefix(p, "//") && !strings.Contains(p, "\\")
}
