package main

import (
	"context"
	"embed"
	"errors"
	"html/template"
	"io/fs"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/joaogabrielsantos/portfolio/internal/content"
	"github.com/joaogabrielsantos/portfolio/internal/i18n"
	"github.com/joaogabrielsantos/portfolio/internal/pageview"
	"github.com/joaogabrielsantos/portfolio/internal/parallax"
	"github.com/joaogabrielsantos/portfolio/internal/richtext"
	"github.com/joaogabrielsantos/portfolio/internal/store"
	"github.com/joaogabrielsantos/portfolio/internal/visibility"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static
var staticFS embed.FS

type server struct {
	cfg        Config
	content    content.Source
	views      *pageview.Store
	db         *store.SQLite
	mailer     Mailer
	adminToken string
}

func newServer(cfg Config, src content.Source, db *store.SQLite, mailer Mailer) *server {
	s := &server{
		cfg:        cfg,
		content:    src,
		db:         db,
		mailer:     mailer,
		adminToken: generateToken(),
	}
	s.views = pageview.NewStore(
		pageview.WithTTL(cfg.ViewTTL),
		pageview.WithMaxRegions(cfg.MaxRegions),
		pageview.WithRevealHook(s.recordReveal),
	)
	return s
}

var templateFuncs = template.FuncMap{
	"richText": richtext.RenderHTML,
	"safeURL":  func(s string) template.URL { return template.URL(richtext.SafeURL(s)) },
	"css":      func(s string) template.CSS { return template.CSS(s) },
}

func (s *server) router() *gin.Engine {
	r := gin.Default()

	tmpl := template.Must(template.New("").Funcs(templateFuncs).ParseFS(templateFS, "templates/*.html"))
	r.SetHTMLTemplate(tmpl)

	static, err := fs.Sub(staticFS, "static")
	if err != nil {
		log.Fatal("Failed to load static files:", err)
	}
	r.StaticFS("/static", http.FS(static))
	r.Static("/images", s.cfg.ImagesDir)

	r.Use(s.visitorTrackingMiddleware())

	// Home page route
	r.GET("/", s.handleHome)

	// Language toggle keeps the visitor on the page in the other language
	r.GET("/lang/toggle", func(c *gin.Context) {
		lang, _ := i18n.Resolve(c.Request)
		i18n.SetCookie(c.Writer, lang.Toggle())
		c.Redirect(http.StatusFound, "/")
	})

	r.GET("/privacy", func(c *gin.Context) {
		lang, _ := i18n.Resolve(c.Request)
		c.HTML(http.StatusOK, "privacy.html", gin.H{"Lang": lang})
	})

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "views": s.views.Len()})
	})

	api := r.Group("/api/views")
	api.POST("", s.handleOpenView)
	api.POST("/:id/scroll", s.handleScroll)
	api.POST("/:id/layout", s.handleLayout)
	api.DELETE("/:id", s.handleCloseView)
	// sendBeacon can only POST
	api.POST("/:id/close", s.handleCloseView)

	s.setupContactRoutes(r)
	s.setupAdminRoutes(r)

	return r
}

type pageData struct {
	Lang   i18n.Lang
	Other  i18n.Lang
	Site   *content.Site
	T      content.Dictionary
	Rows   []content.Row
	Styles map[string]string
}

func (s *server) handleHome(c *gin.Context) {
	lang, persist := i18n.Resolve(c.Request)
	if persist {
		i18n.SetCookie(c.Writer, lang)
	}

	site := s.content.Site()
	t := site.Dictionary(lang)
	c.HTML(http.StatusOK, "index.html", pageData{
		Lang:   lang,
		Other:  lang.Toggle(),
		Site:   site,
		T:      t,
		Rows:   t.Timeline.Rows(),
		Styles: parallax.Compute(0).Styles(),
	})
}

type viewportRequest struct {
	ScrollY float64 `json:"scrollY"`
	Height  float64 `json:"height" binding:"gt=0"`
}

func (v viewportRequest) viewport() visibility.Viewport {
	return visibility.Viewport{ScrollY: v.ScrollY, Height: v.Height}
}

type regionRequest struct {
	ID        string   `json:"id" binding:"required,max=64"`
	Top       float64  `json:"top"`
	Height    float64  `json:"height" binding:"gte=0"`
	Threshold *float64 `json:"threshold" binding:"omitempty,gte=0,lte=1"`
	Hidden    bool     `json:"hidden"`
}

func toRegions(reqs []regionRequest) []pageview.Region {
	regions := make([]pageview.Region, 0, len(reqs))
	for _, r := range reqs {
		regions = append(regions, pageview.Region{
			ID:        r.ID,
			Top:       r.Top,
			Height:    r.Height,
			Threshold: r.Threshold,
			Hidden:    r.Hidden,
		})
	}
	return regions
}

type openViewRequest struct {
	Lang     string          `json:"lang"`
	Viewport viewportRequest `json:"viewport"`
	Regions  []regionRequest `json:"regions" binding:"dive"`
}

type layoutRequest struct {
	Viewport viewportRequest `json:"viewport"`
	Regions  []regionRequest `json:"regions" binding:"dive"`
}

type viewResponse struct {
	ID       string            `json:"id,omitempty"`
	Revealed []string          `json:"revealed"`
	Effects  parallax.Effects  `json:"effects"`
	Styles   map[string]string `json:"styles"`
}

func newViewResponse(id string, revealed []string, scrollY float64) viewResponse {
	if revealed == nil {
		revealed = []string{}
	}
	effects := parallax.Compute(scrollY)
	return viewResponse{ID: id, Revealed: revealed, Effects: effects, Styles: effects.Styles()}
}

func (s *server) handleOpenView(c *gin.Context) {
	var req openViewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	lang, ok := i18n.Parse(req.Lang)
	if !ok {
		lang, _ = i18n.Resolve(c.Request)
	}

	view, revealed, err := s.views.Open(lang, req.Viewport.viewport(), toRegions(req.Regions))
	if err != nil {
		if errors.Is(err, pageview.ErrTooManyRegions) {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, newViewResponse(view.ID, revealed, req.Viewport.ScrollY))
}

func (s *server) handleScroll(c *gin.Context) {
	var req viewportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	revealed, err := s.views.Scroll(c.Param("id"), req.viewport())
	if errors.Is(err, pageview.ErrViewNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, newViewResponse("", revealed, req.ScrollY))
}

// handleLayout re-reports region geometry after images load or the window
// resizes.
func (s *server) handleLayout(c *gin.Context) {
	var req layoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	revealed, err := s.views.Relayout(c.Param("id"), req.Viewport.viewport(), toRegions(req.Regions))
	switch {
	case errors.Is(err, pageview.ErrViewNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	case errors.Is(err, pageview.ErrTooManyRegions):
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": err.Error()})
		return
	case err != nil:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, newViewResponse("", revealed, req.Viewport.ScrollY))
}

func (s *server) handleCloseView(c *gin.Context) {
	if err := s.views.Close(c.Param("id")); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *server) recordReveal(viewID string, lang i18n.Lang, section string) {
	if s.db == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := s.db.RecordReveal(ctx, viewID, section, lang.String()); err != nil {
		log.Printf("Error recording reveal: %v", err)
	}
}

// run serves until ctx is done.
func (s *server) run(ctx context.Context) error {
	go s.views.Run(ctx, time.Minute)
	go s.cleanupLoop(ctx)

	srv := &http.Server{
		Addr:              ":" + s.cfg.Port,
		Handler:           s.router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		log.Printf("Listening on :%s", s.cfg.Port)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
