package cli

import (
	"io"
	"text/template"
	"time"

	"github.com/iudanet/zkvault/internal/client/ui"
	"github.com/iudanet/zkvault/internal/models"
)

const shortIDLen = 8

// itemView - то, что шаблоны знают о записи. Password уже замаскирован,
// если пользователь не просил показать его.
type itemView struct {
	ID       string
	ShortID  string
	Title    string
	Username string
	Password string
	URL      string
	Notes    string
	Category string
	Modified string
	Created  string
	Favorite bool
}

func newItemView(item *models.DecryptedItem, categories map[string]string, reveal bool) itemView {
	v := itemView{
		ID:       item.Item.ID,
		ShortID:  shortID(item.Item.ID),
		Title:    item.Item.Title,
		Username: item.Payload.Username,
		URL:      item.Payload.URL,
		Notes:    item.Payload.Notes,
		Favorite: item.Item.IsFavorite,
		Created:  formatTime(item.Item.CreatedAt),
		Modified: formatTime(item.Item.LastModified),
		Password: ui.Mask(item.Payload.Password),
	}
	if reveal {
		v.Password = item.Payload.Password
	}
	if item.Item.CategoryID != nil {
		v.Category = categories[*item.Item.CategoryID]
	}
	return v
}

func shortID(id string) string {
	if len(id) <= shortIDLen {
		return id
	}
	return id[:shortIDLen]
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Local().Format("2006-01-02 15:04")
}

const itemTemplate = `
=== {{ .Title }} ===

ID:       {{ .ID }}
{{- if .Category }}
Category: {{ .Category }}
{{- end }}
Username: {{ .Username }}
Password: {{ .Password }}
{{- if .URL }}
URL:      {{ .URL }}
{{- end }}
{{- if .Favorite }}
Favorite: yes
{{- end }}
{{- if .Notes }}

Notes:
---
{{ .Notes }}
---
{{- end }}

Created:  {{ .Created }}
Modified: {{ .Modified }}
`

const itemListTemplate = `
=== Vault Items ===
{{ if eq (len .) 0 }}
No items found.

Use 'zkvault add --title <title>' to add your first item.
{{ else }}
Found {{ len . }} item(s):
{{ range . }}
{{ if .Favorite }}*{{ else }}-{{ end }} {{ .Title }}
   ID:       {{ .ShortID }}
   {{- if .Username }}
   Username: {{ .Username }}
   {{- end }}
   {{- if .URL }}
   URL:      {{ .URL }}
   {{- end }}
   {{- if .Category }}
   Category: {{ .Category }}
   {{- end }}
{{ end }}
Passwords are hidden. Use 'zkvault show <id> --reveal' or 'zkvault copy <id>'.
{{ end }}`

const categoryListTemplate = `
=== Categories ===
{{ if eq (len .) 0 }}
No categories yet. Use 'zkvault category add <name>' to create one.
{{ else }}
{{- range . }}
- {{ .Name }}{{ if .Icon }} {{ .Icon }}{{ end }}
   ID: {{ .ID }}{{ if .Color }}  Color: {{ .Color }}{{ end }}
{{- end }}
{{ end }}`

var (
	itemTmpl         = template.Must(template.New("item").Parse(itemTemplate))
	itemListTmpl     = template.Must(template.New("items").Parse(itemListTemplate))
	categoryListTmpl = template.Must(template.New("categories").Parse(categoryListTemplate))
)

func render(w io.Writer, tmpl *template.Template, data any) error {
	return tmpl.Execute(w, data)
}
