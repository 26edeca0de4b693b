package handlers

import (
	"errors"
	"fmt"
	"html/template"

	"github.com/georgestephanis/support-widget/internal/recipients"
	"github.com/georgestephanis/support-widget/internal/site"
	"github.com/georgestephanis/support-widget/internal/widget"
	"github.com/georgestephanis/support-widget/pkg/auth"

	"github.com/gin-gonic/gin"
)

var errNoSession = errors.New("no session user")

// FormRenderer renders the support widget for the current user.
type FormRenderer struct {
	tokens     TokenIssuer
	recipients *recipients.Registry
	options    site.Source
}

func NewFormRenderer(tokens TokenIssuer, registry *recipients.Registry, options site.Source) *FormRenderer {
	return &FormRenderer{tokens: tokens, recipients: registry, options: options}
}

// Render matches dashboard.RenderFunc.
func (r *FormRenderer) Render(c *gin.Context) (template.HTML, error) {
	user, ok := auth.CurrentUser(c)
	if !ok {
		return "", errNoSession
	}

	opts, err := r.options.Load(c.Request.Context())
	if err != nil {
		return "", fmt.Errorf("load site options: %w", err)
	}

	token, err := r.tokens.Create(widget.Action, user.ID)
	if err != nil {
		return "", fmt.Errorf("issue form token: %w", err)
	}

	eligible := r.recipients.Eligible(user, opts)
	return widget.Render(widget.FormData{
		Recipients: eligible,
		DefaultTo:  r.recipients.Default(eligible, user),
		Nonce:      token,
	})
}
