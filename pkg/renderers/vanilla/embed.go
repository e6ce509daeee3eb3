package vanilla

import (
	"embed"
	"io/fs"
)

//go:embed templates/*.tmpl
var embeddedTemplates embed.FS

const (
	templateForm  = "templates/form.tmpl"
	templateField = "templates/field.tmpl"
	templateGroup = "templates/group.tmpl"
)

// TemplatesFS exposes the embedded template bundle. Callers overriding the
// chrome with WithTemplatesFS must provide the same three paths.
func TemplatesFS() fs.FS {
	return embeddedTemplates
}
