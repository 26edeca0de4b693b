// Package dashboard is the admin dashboard host: it holds registered
// widgets, the admin-post action table and the enqueued assets.
package dashboard

import (
	"bytes"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"sync"

	"github.com/georgestephanis/support-widget/pkg/logging"
	"github.com/georgestephanis/support-widget/pkg/middleware"

	"github.com/gin-gonic/gin"
)

const (
	// NoticeParam and NoticeValue mark the redirect after a sent request.
	NoticeParam = "didit"
	NoticeValue = "itdid"

	actionField = "action"
)

// RenderFunc produces a widget's body for the current request.
type RenderFunc func(c *gin.Context) (template.HTML, error)

// Widget is one dashboard box. Control is optional and replaces the body
// when the widget is opened for configuration (?edit=<id>).
type Widget struct {
	ID      string
	Title   string
	Render  RenderFunc
	Control RenderFunc
}

// Asset is a stylesheet or script enqueued on the dashboard.
type Asset interface {
	StyleTag() template.HTML
	ScriptTag() template.HTML
}

type Registry struct {
	mu      sync.RWMutex
	widgets []Widget
	actions map[string]gin.HandlerFunc
	assets  []Asset
	logger  logging.Logger
}

func NewRegistry(logger logging.Logger) *Registry {
	return &Registry{
		actions: make(map[string]gin.HandlerFunc),
		logger:  logger,
	}
}

// Add registers a widget. A second widget with the same id replaces the first.
func (r *Registry) Add(w Widget) error {
	if w.ID == "" || w.Render == nil {
		return fmt.Errorf("dashboard: widget needs an id and a render callback")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.widgets {
		if r.widgets[i].ID == w.ID {
			r.widgets[i] = w
			return nil
		}
	}
	r.widgets = append(r.widgets, w)
	return nil
}

// Widgets returns the registered widgets in registration order.
func (r *Registry) Widgets() []Widget {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]Widget(nil), r.widgets...)
}

// HandleAction binds an admin-post action name to a handler.
func (r *Registry) HandleAction(action string, h gin.HandlerFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.actions[action] = h
}

// Enqueue adds assets to every dashboard page.
func (r *Registry) Enqueue(assets ...Asset) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.assets = append(r.assets, assets...)
}

// AdminPost dispatches POST /admin-post.php on the action field.
func (r *Registry) AdminPost(c *gin.Context) {
	action := c.PostForm(actionField)

	r.mu.RLock()
	h, ok := r.actions[action]
	r.mu.RUnlock()

	if !ok {
		middleware.GetContextLogger(c, r.logger).WithFields(logging.Fields{
			"action": action,
		}).Warn("Unknown admin-post action")
		c.String(http.StatusBadRequest, "unknown action")
		return
	}
	h(c)
}

type boxView struct {
	ID    string
	Title string
	Body  template.HTML
}

type pageView struct {
	Styles  []template.HTML
	Scripts []template.HTML
	Notice  bool
	Boxes   []boxView
}

var pageTemplate = template.Must(template.New("dashboard").Parse(`<!DOCTYPE html>
<html>
<head>
	<meta charset="utf-8" />
	<title>Dashboard</title>
	{{- range .Styles}}
	{{.}}
	{{- end}}
</head>
<body class="wp-admin index-php">
	<h1>Dashboard</h1>
	{{- if .Notice}}
	<div class="notice notice-success is-dismissible"><p>Your support request has been sent.</p></div>
	{{- end}}
	<div id="dashboard-widgets">
	{{- range .Boxes}}
		<div id="{{.ID}}" class="postbox">
			<h2 class="hndle">{{.Title}}</h2>
			<div class="inside">{{.Body}}</div>
		</div>
	{{- end}}
	</div>
	{{- range .Scripts}}
	{{.}}
	{{- end}}
</body>
</html>
`))

// Page renders GET /. A widget that fails to render is logged and shown empty.
func (r *Registry) Page(c *gin.Context) {
	r.mu.RLock()
	widgets := append([]Widget(nil), r.widgets...)
	assets := append([]Asset(nil), r.assets...)
	r.mu.RUnlock()

	view := pageView{Notice: c.Query(NoticeParam) == NoticeValue}
	for _, a := range assets {
		view.Styles = append(view.Styles, a.StyleTag())
		view.Scripts = append(view.Scripts, a.ScriptTag())
	}

	edit := c.Query("edit")
	for _, w := range widgets {
		render := w.Render
		if edit == w.ID && w.Control != nil {
			render = w.Control
		}
		body, err := render(c)
		if err != nil {
			middleware.GetContextLogger(c, r.logger).WithFields(logging.Fields{
				"widget": w.ID,
				"error":  err.Error(),
			}).Error("Failed to render dashboard widget")
		}
		view.Boxes = append(view.Boxes, boxView{ID: w.ID, Title: w.Title, Body: body})
	}

	var buf bytes.Buffer
	if err := pageTemplate.Execute(&buf, view); err != nil {
		middleware.GetContextLogger(c, r.logger).WithError(err).Error("Failed to render dashboard")
		c.String(http.StatusInternalServerError, "failed to render dashboard")
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", buf.Bytes())
}

// Mount wires the dashboard routes. admin carries the session middleware;
// build is served from public under /assets.
func (r *Registry) Mount(admin, public gin.IRoutes, build fs.FS) {
	admin.GET("/", r.Page)
	admin.POST("/admin-post.php", r.AdminPost)
	public.StaticFS("/assets", http.FS(build))
}
