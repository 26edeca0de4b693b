package handlers

import (
	"context"
	"fmt"
	"html"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/georgestephanis/support-widget/internal/diagnostics"
	"github.com/georgestephanis/support-widget/internal/recipients"
	"github.com/georgestephanis/support-widget/internal/site"
	"github.com/georgestephanis/support-widget/internal/validation"
	"github.com/georgestephanis/support-widget/internal/widget"
	"github.com/georgestephanis/support-widget/pkg/auth"
	"github.com/georgestephanis/support-widget/pkg/email"
	"github.com/georgestephanis/support-widget/pkg/logging"
	"github.com/georgestephanis/support-widget/pkg/middleware"

	"github.com/gin-gonic/gin"
)

// RedirectTarget is where every accepted submission lands.
const RedirectTarget = "/?didit=itdid"

const defaultSendTimeout = 30 * time.Second

type SupportHandler struct {
	mailer      MailSender
	tokens      TokenConsumer
	collector   DiagnosticsCollector
	recipients  *recipients.Registry
	options     site.Source
	logger      logging.Logger
	metrics     *SupportMetrics
	sendTimeout time.Duration
	plainText   bool
}

func NewSupportHandler(
	mailer MailSender,
	tokens TokenConsumer,
	collector DiagnosticsCollector,
	registry *recipients.Registry,
	options site.Source,
	logger logging.Logger,
	metrics *SupportMetrics,
) *SupportHandler {
	return &SupportHandler{
		mailer:      mailer,
		tokens:      tokens,
		collector:   collector,
		recipients:  registry,
		options:     options,
		logger:      logger,
		metrics:     metrics,
		sendTimeout: defaultSendTimeout,
	}
}

// WithPlainText switches outgoing mail to text/plain. The message is sent
// verbatim and diagnostics use the text layout.
func (h *SupportHandler) WithPlainText(on bool) *SupportHandler {
	h.plainText = on
	return h
}

// Handle processes the gs_contact-support admin-post action.
func (h *SupportHandler) Handle(c *gin.Context) {
	log := middleware.GetContextLogger(c, h.logger)

	user, ok := auth.CurrentUser(c)
	if !ok {
		h.metrics.IncSupport("forbidden")
		c.String(http.StatusForbidden, "Sorry, you are not allowed to do that.")
		return
	}

	var req validation.SupportRequest
	if err := c.ShouldBind(&req); err != nil {
		h.metrics.IncSupport("bad_request")
		c.String(http.StatusBadRequest, "Invalid request format")
		return
	}

	ctx := c.Request.Context()

	if err := h.tokens.Consume(ctx, req.Nonce, widget.Action, user.ID); err != nil {
		h.metrics.IncSupport("forbidden")
		log.WithFields(logging.Fields{
			"error": err.Error(),
		}).Warn("Rejected support request token")
		c.String(http.StatusForbidden, "The link you followed has expired.")
		return
	}

	opts, err := h.options.Load(ctx)
	if err != nil {
		h.metrics.IncSupport("options_error")
		log.WithFields(logging.Fields{
			"error": err.Error(),
		}).Error("Failed to load site options")
		c.String(http.StatusInternalServerError, "Failed to load site options")
		return
	}

	rcpt, ok := recipients.Lookup(h.recipients.Eligible(user, opts), req.To)
	if !ok {
		h.metrics.IncSupport("unknown_recipient")
		log.WithFields(logging.Fields{
			"to": req.To,
		}).Warn("Support request for unknown or disallowed recipient")
		c.Redirect(http.StatusFound, RedirectTarget)
		return
	}

	body := "<pre>" + html.EscapeString(req.Message) + "</pre>\r\n\r\n"
	contentType := email.ContentTypeHTML
	if h.plainText {
		body = req.Message + "\r\n\r\n"
		contentType = email.ContentTypeText
	}

	if req.WantsDiagnostics() {
		rec, err := h.collector.Collect(ctx, h.diagnosticsInput(c, req, user, opts))
		if err != nil {
			h.metrics.IncSupport("forbidden")
			log.WithFields(logging.Fields{
				"error": err.Error(),
			}).Warn("Diagnostics token check failed")
			c.String(http.StatusForbidden, "The link you followed has expired.")
			return
		}
		if h.plainText {
			body += diagnostics.RenderText(rec)
		} else {
			body += diagnostics.RenderHTML(rec)
		}
	}

	priority := validation.ParsePriority(req.Priority)
	msg := email.Message{
		To:          rcpt.Address,
		Subject:     Subject(priority, displayName(user), opts.Name),
		Body:        body,
		ReplyTo:     user.Email,
		ContentType: contentType,
		Priority:    priority.Weight,
	}

	sendCtx, cancel := context.WithTimeout(ctx, h.sendTimeout)
	defer cancel()

	if err := h.mailer.Send(sendCtx, msg); err != nil {
		h.metrics.IncSupport("email_error")
		log.WithFields(logging.Fields{
			"error":    err.Error(),
			"to":       redactEmail(rcpt.Address),
			"from":     redactName(user.DisplayName),
			"priority": priority.Key,
		}).Error("Failed to send support request")
	} else {
		h.metrics.IncSupport("success")
		log.WithFields(logging.Fields{
			"to":       redactEmail(rcpt.Address),
			"reply_to": redactEmail(user.Email),
			"priority": priority.Key,
		}).Info("Support request sent")
	}

	c.Redirect(http.StatusFound, RedirectTarget)
}

// Subject formats the mail subject line.
func Subject(p validation.Priority, from, siteName string) string {
	return fmt.Sprintf("%s-Priority Support Request from %s at %s!", p.Title, from, siteName)
}

func displayName(u auth.User) string {
	if u.DisplayName != "" {
		return u.DisplayName
	}
	return u.Email
}

func (h *SupportHandler) diagnosticsInput(c *gin.Context, req validation.SupportRequest, user auth.User, opts site.Options) diagnostics.Input {
	in := diagnostics.Input{
		Token:      req.Nonce,
		Action:     widget.Action,
		UserID:     user.ID,
		ClientJSON: req.Client,
		UserAgent:  c.Request.UserAgent(),
		RemoteAddr: getRemoteIP(c),
		HTTPS:      isHTTPS(c),
		Options:    opts,
	}
	if addr, ok := c.Request.Context().Value(http.LocalAddrContextKey).(net.Addr); ok {
		in.LocalAddr = addr.String()
	}
	return in
}

func getRemoteIP(c *gin.Context) string {
	if cfIP := c.GetHeader("CF-Connecting-IP"); cfIP != "" {
		return cfIP
	}

	if forwarded := c.GetHeader("X-Forwarded-For"); forwarded != "" {
		parts := strings.Split(forwarded, ",")
		return strings.TrimSpace(parts[0])
	}

	return c.ClientIP()
}

func isHTTPS(c *gin.Context) bool {
	if c.Request.TLS != nil {
		return true
	}
	return strings.EqualFold(c.GetHeader("X-Forwarded-Proto"), "https")
}
