// Package web serves the portfolio page and its htmx fragments.
package web

import (
	"embed"
	"errors"
	"html/template"
	"io/fs"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/shyamjith/shyamjith-dev/internal/config"
	"github.com/shyamjith/shyamjith-dev/internal/contact"
	"github.com/shyamjith/shyamjith-dev/internal/content"
	"github.com/shyamjith/shyamjith-dev/internal/nav"
	"github.com/shyamjith/shyamjith-dev/internal/observability"
	"github.com/shyamjith/shyamjith-dev/internal/session"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static
var staticFS embed.FS

// Deps are the collaborators a Server is built from.
type Deps struct {
	Config    *config.Config
	Portfolio *content.Portfolio
	Sender    contact.Sender
	Logger    *zap.Logger
	Metrics   *observability.Metrics
	Gatherer  prometheus.Gatherer
}

type Server struct {
	engine    *gin.Engine
	cfg       *config.Config
	portfolio *content.Portfolio
	sessions  *session.Store
	sender    contact.Sender
	logger    *zap.Logger
	metrics   *observability.Metrics
	navItems  []nav.Item
}

func New(d Deps) (*Server, error) {
	if d.Config == nil || d.Portfolio == nil || d.Sender == nil {
		return nil, errors.New("web: config, portfolio and sender are required")
	}
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	if d.Metrics == nil {
		d.Metrics = observability.NewMetrics(prometheus.NewRegistry())
	}
	if d.Gatherer == nil {
		d.Gatherer = prometheus.DefaultGatherer
	}

	s := &Server{
		cfg:       d.Config,
		portfolio: d.Portfolio,
		sender:    d.Sender,
		logger:    d.Logger,
		metrics:   d.Metrics,
		navItems:  nav.DefaultItems,
	}

	store, err := session.NewStore(d.Config.Server.SessionTTL, s.newSession,
		session.WithLimit(d.Config.Server.MaxSessions),
		session.WithGauge(d.Metrics.ActiveSessions),
		session.WithLogger(d.Logger),
	)
	if err != nil {
		return nil, err
	}
	s.sessions = store

	hasher, err := newIPHasher()
	if err != nil {
		return nil, err
	}

	tmpl, err := template.New("").Funcs(templateFuncs).ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, err
	}
	static, err := fs.Sub(staticFS, "static")
	if err != nil {
		return nil, err
	}

	gin.SetMode(d.Config.Server.Mode)
	r := gin.New()
	r.Use(requestID(), requestLogger(d.Logger, hasher, d.Metrics), recovery(d.Logger))
	r.SetHTMLTemplate(tmpl)
	r.StaticFS("/static", http.FS(static))

	r.GET("/", s.handleIndex)
	r.POST("/nav/active", s.withSession, s.handleNavActive)
	r.GET("/projects", s.handleProjects)
	r.GET("/contact-form", s.withSession, s.handleContactForm)
	r.POST("/contact", s.withSession, s.handleContactSubmit)
	r.GET("/resume", s.handleResume)
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(d.Gatherer, promhttp.HandlerOpts{})))

	s.engine = r
	return s, nil
}

// Handler returns the HTTP handler for the site.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Sessions exposes the visitor store so the caller can run its janitor.
func (s *Server) Sessions() *session.Store {
	return s.sessions
}

// newSession wires one visitor's tracker and submitter. The tracker's
// change subscription is released when the session is evicted.
func (s *Server) newSession(sess *session.Session) error {
	opts := []nav.Option{nav.WithLookahead(s.cfg.Nav.Lookahead)}
	if s.cfg.Nav.HomeSpan == "section" {
		opts = append(opts, nav.WithHomeFromLayout())
	}
	sess.Tracker = nav.NewTracker(s.navItems, opts...)
	sess.OnClose(sess.Tracker.OnChange(func(_, next string) {
		s.metrics.RecordSectionChange(next)
	}))

	sub, err := contact.NewSubmitter(s.sender, contact.Config{
		Recipient:     s.cfg.Contact.Recipient,
		SubjectPrefix: s.cfg.Contact.SubjectPrefix,
	},
		contact.WithLogger(s.logger.With(zap.String("session", sess.ID[:8]))),
		contact.WithRecorder(s.metrics),
	)
	if err != nil {
		return err
	}
	sess.Submitter = sub
	return nil
}
