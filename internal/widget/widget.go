// Package widget renders the support form shown on the dashboard.
package widget

import (
	"bytes"
	"fmt"
	"html/template"

	"github.com/georgestephanis/support-widget/internal/recipients"
	"github.com/georgestephanis/support-widget/internal/validation"
)

const (
	// ID is the dashboard widget id.
	ID    = "gs_support_widget"
	Title = "Support"

	// Action is the admin-post action the form submits to. Tokens are bound to it.
	Action = "gs_contact-support"

	// ClientFieldID is the hidden input the client script fills in. index.js
	// looks it up by this id.
	ClientFieldID = ID + "__client"

	// PostPath is where the form is submitted.
	PostPath = "/admin-post.php"
)

// FormData is everything the form needs for one render.
type FormData struct {
	Recipients []recipients.Recipient
	// DefaultTo is pre-selected when the select is shown.
	DefaultTo string
	// Nonce is the anti-forgery token for Action and the current user.
	Nonce string
}

type priorityOption struct {
	Value    string
	Label    string
	Selected bool
}

type formView struct {
	PostPath     string
	Action       string
	NonceField   string
	Nonce        string
	Single       bool
	SingleKey    string
	SingleLabel  string
	Recipients   []recipients.Recipient
	DefaultTo    string
	Priorities   []priorityOption
	ClientID     string
	ClientField  string
	ExtraField   string
	MessageField string
}

var formTemplate = template.Must(template.New("form").Parse(`<form action="{{.PostPath}}" method="post">
	<input type="hidden" name="action" value="{{.Action}}" />
	<input type="hidden" name="{{.NonceField}}" value="{{.Nonce}}" />
	<label>
		To:
		{{- if .Single}}
		<input type="hidden" name="to" value="{{.SingleKey}}" />{{.SingleLabel}}
		{{- else}}
		<select name="to" required>
			<option value="">Select …</option>
			{{- range .Recipients}}
			<option value="{{.Key}}"{{if eq .Key $.DefaultTo}} selected{{end}}>{{if .Label}}{{.Label}}{{else}}{{.Key}}{{end}}</option>
			{{- end}}
		</select>
		{{- end}}
	</label>
	<label>
		Priority:
		<select name="priority">
			{{- range .Priorities}}
			<option value="{{.Value}}"{{if .Selected}} selected{{end}}>{{.Label}}</option>
			{{- end}}
		</select>
	</label>
	<label>
		Message:
		<textarea name="{{.MessageField}}" style="width:100%; min-height:3em; field-sizing:content;" required></textarea>
	</label>
	<label>
		<input type="checkbox" name="{{.ExtraField}}" value="true" checked />
		Submit extra diagnostic data?
	</label>
	<input type="hidden" name="{{.ClientField}}" id="{{.ClientID}}" />
	<p class="submit"><input type="submit" class="button button-primary" value="Send" /></p>
</form>
`))

// Render produces the form markup. With fewer than two recipients the
// choice is fixed in a hidden field; an empty list posts an empty key.
func Render(data FormData) (template.HTML, error) {
	view := formView{
		PostPath:     PostPath,
		Action:       Action,
		NonceField:   validation.FieldNonce,
		Nonce:        data.Nonce,
		Recipients:   data.Recipients,
		DefaultTo:    data.DefaultTo,
		ClientID:     ClientFieldID,
		ClientField:  validation.FieldClient,
		ExtraField:   validation.FieldExtraData,
		MessageField: validation.FieldMessage,
	}

	if len(data.Recipients) < 2 {
		view.Single = true
		if len(data.Recipients) == 1 {
			view.SingleKey = data.Recipients[0].Key
			view.SingleLabel = data.Recipients[0].Label
			if view.SingleLabel == "" {
				view.SingleLabel = view.SingleKey
			}
		}
	}

	for _, p := range validation.Priorities {
		view.Priorities = append(view.Priorities, priorityOption{
			Value:    p.Key,
			Label:    p.Title,
			Selected: p.Key == validation.DefaultPriority.Key,
		})
	}

	var buf bytes.Buffer
	if err := formTemplate.Execute(&buf, view); err != nil {
		return "", fmt.Errorf("render support form: %w", err)
	}
	return template.HTML(buf.String()), nil
}
