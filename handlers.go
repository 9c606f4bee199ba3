package blog

import (
	"errors"
	"net/http"
	"path"
	"path/filepath"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/msahib/blog/views"
)

func (a *App) handleIndex(c echo.Context) error {
	tag := c.QueryParam("tag")
	return Render(c, a.indexComponent(a.Cache.ListPages(tag), a.Cache.ListTags(), tag))
}

func (a *App) handlePage(c echo.Context) error {
	slug := c.Param("slug")
	page, err := a.Cache.GetPage(slug)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return echo.ErrNotFound
		}
		return err
	}
	return Render(c, a.pageComponent(page, views.FilterRelatedPages(page, a.Cache.ListPages(""))))
}

func (a *App) handleSitemap(c echo.Context) error {
	return a.renderSitemap(c, a.Cache.ListPages(""))
}

func (a *App) handleFeed(c echo.Context) error {
	return a.renderRSS(c, a.Cache.ListPages(""))
}

func (a *App) handleFonts(c echo.Context) error {
	css, ok := a.Fonts.Stylesheet()
	if !ok {
		css = []byte(fontsPlaceholder)
	}
	return c.Blob(http.StatusOK, "text/css; charset=utf-8", css)
}

// handleFile serves plugin output such as /static assets, sw.js and the web
// app manifest from the build directory.
func (a *App) handleFile(c echo.Context) error {
	rel := path.Clean("/" + c.Param("*"))
	return c.File(filepath.Join(a.Config.OutDir, filepath.FromSlash(rel)))
}

func (a *App) httpErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	var he *echo.HTTPError
	ok := errors.As(err, &he)
	if ok && he.Code == http.StatusNotFound {
		_ = RenderStatus(c, http.StatusNotFound, a.statusComponent(c.Request().URL.Path, views.NotFound(a.home())))
		return
	}
	code := http.StatusInternalServerError
	if ok {
		code = he.Code
	}
	if code >= 500 {
		a.Logger.Error("server error", zap.String("uri", c.Request().RequestURI), zap.Error(err))
		_ = RenderStatus(c, code, a.statusComponent(c.Request().URL.Path, views.ServerError()))
		return
	}
	a.Echo.DefaultHTTPErrorHandler(err, c)
}
