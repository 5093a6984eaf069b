package web

import (
	"errors"
	"html/template"
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/shyamjith/shyamjith-dev/internal/contact"
	"github.com/shyamjith/shyamjith-dev/internal/content"
	"github.com/shyamjith/shyamjith-dev/internal/nav"
	"github.com/shyamjith/shyamjith-dev/internal/session"
)

const (
	sessionCookie = "portfolio_session"
	sessionKey    = "session"
)

var templateFuncs = template.FuncMap{
	"even": func(i int) bool { return i%2 == 0 },
}

type navItemView struct {
	nav.Item
	Active bool
}

type navView struct {
	Brand  string
	Active string
	Items  []navItemView
}

type filterView struct {
	content.Filter
	Active bool
}

type projectsView struct {
	Active   string
	Filters  []filterView
	Projects []content.Project
}

type contactFormView struct {
	Form   contact.Form
	Errors map[string]string
	Notice *contact.Notice
}

type pageView struct {
	P        *content.Portfolio
	Nav      navView
	Projects projectsView
	Contact  contactFormView
	Year     int
}

func (s *Server) navView(active string) navView {
	v := navView{Brand: s.portfolio.Profile.Brand, Active: active}
	for _, it := range s.navItems {
		v.Items = append(v.Items, navItemView{Item: it, Active: it.ID == active})
	}
	return v
}

func (s *Server) projectsView(category string) projectsView {
	if category == "" {
		category = content.FilterAll
	}
	v := projectsView{Active: category, Projects: s.portfolio.FilterProjects(category)}
	for _, f := range s.portfolio.Projects.Filters {
		v.Filters = append(v.Filters, filterView{Filter: f, Active: f.Value == category})
	}
	return v
}

// withSession attaches the visitor's session, issuing a cookie for new
// visitors.
func (s *Server) withSession(c *gin.Context) {
	id, _ := c.Cookie(sessionCookie)
	sess, created, err := s.sessions.Get(id)
	if errors.Is(err, session.ErrStoreFull) {
		s.logger.Warn("session limit reached", zap.Int("limit", s.cfg.Server.MaxSessions))
		c.Header("Retry-After", "60")
		c.AbortWithStatus(http.StatusServiceUnavailable)
		return
	}
	if err != nil {
		s.logger.Error("creating session", zap.Error(err))
		c.AbortWithStatus(http.StatusInternalServerError)
		return
	}
	if created {
		maxAge := int(s.cfg.Server.SessionTTL / time.Second)
		c.SetSameSite(http.SameSiteLaxMode)
		c.SetCookie(sessionCookie, sess.ID, maxAge, "/", "", s.cfg.Server.SecureCookies, true)
	}
	c.Set(sessionKey, sess)
	c.Next()
}

func sessionFrom(c *gin.Context) *session.Session {
	return c.MustGet(sessionKey).(*session.Session)
}

func (s *Server) handleIndex(c *gin.Context) {
	active := nav.HomeID
	form := contact.Form{}
	if id, err := c.Cookie(sessionCookie); err == nil {
		if sess, ok := s.sessions.Lookup(id); ok {
			active = sess.Tracker.Active()
			form = sess.Submitter.Form()
		}
	}
	c.HTML(http.StatusOK, "index.html", pageView{
		P:        s.portfolio,
		Nav:      s.navView(active),
		Projects: s.projectsView(c.Query("category")),
		Contact:  contactFormView{Form: form},
		Year:     time.Now().Year(),
	})
}

func (s *Server) handleNavActive(c *gin.Context) {
	var layout nav.Layout
	if err := c.ShouldBindJSON(&layout); err != nil {
		c.String(http.StatusBadRequest, "invalid layout")
		return
	}
	sess := sessionFrom(c)
	active, changed := sess.Tracker.Observe(layout)
	c.Header("X-Active-Section", active)
	if !changed && c.GetHeader("X-Nav-Known") == active {
		c.Status(http.StatusNoContent)
		return
	}
	c.HTML(http.StatusOK, "nav-items", s.navView(active))
}

func (s *Server) handleProjects(c *gin.Context) {
	c.HTML(http.StatusOK, "projects", s.projectsView(c.Query("category")))
}

func (s *Server) handleContactForm(c *gin.Context) {
	c.HTML(http.StatusOK, "contact-form", contactFormView{Form: sessionFrom(c).Submitter.Form()})
}

func (s *Server) handleContactSubmit(c *gin.Context) {
	var form contact.Form
	if err := c.ShouldBind(&form); err != nil {
		c.String(http.StatusBadRequest, "invalid form")
		return
	}

	sub := sessionFrom(c).Submitter
	res, err := sub.SubmitForm(c.Request.Context(), form)
	view := contactFormView{Form: sub.Form(), Notice: &res.Notice}

	var verr *contact.ValidationError
	switch {
	case err == nil:
		c.HTML(http.StatusOK, "contact-form", view)
	case errors.As(err, &verr):
		view.Errors = verr.Fields
		c.HTML(http.StatusUnprocessableEntity, "contact-form", view)
	case errors.Is(err, contact.ErrSubmissionInFlight):
		view.Form = form
		c.HTML(http.StatusConflict, "contact-form", view)
	default:
		_ = c.Error(err)
		c.HTML(http.StatusBadGateway, "contact-form", view)
	}
}

func (s *Server) handleResume(c *gin.Context) {
	path := s.cfg.Resume.Path
	if fi, err := os.Stat(path); err != nil || fi.IsDir() {
		c.String(http.StatusNotFound, "resume not available")
		return
	}
	c.FileAttachment(path, s.cfg.Resume.Filename)
}
