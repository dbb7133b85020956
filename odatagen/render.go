package odatagen

import (
	"io"
	"text/template"
)

// RenderConfig specifies the settings for generating Go code from a
// service schema.
type RenderConfig struct {
	// PackageName is the name of the Go package for the generated code.
	PackageName string
	// ModulePath is the import path of the go-odata module.
	ModulePath string
	// UseAcronyms, if true, applies Go acronym naming conventions
	// ('ID' instead of 'Id') to generated identifiers.
	UseAcronyms bool
	// SchemaVersion is an optional string included in the generated
	// file header.
	SchemaVersion string
}

// DefaultConfig returns a standard RenderConfig with sensible defaults.
func DefaultConfig() RenderConfig {
	return RenderConfig{
		PackageName: "models",
		ModulePath:  "github.com/SimonThordal/go-odata",
		UseAcronyms: true,
	}
}

// Render writes the generated Go source for the schema to w. Every
// entity type gets a MustNewType declaration, an init that registers it,
// and a typed wrapper with per-field accessors.
func Render(w io.Writer, schema *SchemaSpec, cfg RenderConfig) error {
	if cfg.PackageName == "" {
		cfg.PackageName = "models"
	}
	if cfg.ModulePath == "" {
		cfg.ModulePath = "github.com/SimonThordal/go-odata"
	}

	data := &renderData{
		PackageName:   cfg.PackageName,
		ModulePath:    cfg.ModulePath,
		SchemaVersion: cfg.SchemaVersion,
	}
	for _, e := range schema.Entities {
		ctx := buildEntityCtx(e, cfg)
		for _, f := range ctx.Fields {
			switch f.GoType {
			case "time.Time":
				data.NeedsTime = true
			case "uuid.UUID":
				data.NeedsUUID = true
			}
		}
		data.Entities = append(data.Entities, ctx)
	}

	return renderTemplate.Execute(w, data)
}

// --- Template context types ---

type renderData struct {
	PackageName   string
	ModulePath    string
	SchemaVersion string
	NeedsTime     bool
	NeedsUUID     bool
	Entities      []entityCtx
}

type entityCtx struct {
	GoName     string
	TypeName   string
	Collection string
	Fields     []fieldCtx
	Navs       []navCtx
}

type fieldCtx struct {
	GoName   string
	WireName string
	Ctor     string
	GoType   string
	Key      bool
}

type navCtx struct {
	GoName   string
	WireName string
	Ctor     string
	Target   string
}

// --- Context builders ---

func buildEntityCtx(e EntitySpec, cfg RenderConfig) entityCtx {
	ctx := entityCtx{
		GoName:     goName(e.Name, cfg),
		TypeName:   e.TypeName,
		Collection: e.Collection,
	}
	for _, p := range e.Properties {
		ctor := edmToCtor(p.EdmType)
		ctx.Fields = append(ctx.Fields, fieldCtx{
			GoName:   goName(p.Name, cfg),
			WireName: p.Name,
			Ctor:     ctor,
			GoType:   ctorToGo(ctor),
			Key:      p.Key,
		})
	}
	for _, n := range e.Navs {
		ctor := "Navigation"
		if n.Collection {
			ctor = "NavigationCollection"
		}
		ctx.Navs = append(ctx.Navs, navCtx{
			GoName:   goName(n.Name, cfg),
			WireName: n.Name,
			Ctor:     ctor,
			Target:   n.Target,
		})
	}
	return ctx
}

func goName(name string, cfg RenderConfig) string {
	if cfg.UseAcronyms {
		return ToPascalCaseAcronyms(name)
	}
	return ToPascalCase(name)
}

// ctorToGo maps a property constructor to the Go type its values carry
// after coercion.
func ctorToGo(ctor string) string {
	switch ctor {
	case "Integer":
		return "int64"
	case "Float":
		return "float64"
	case "Boolean":
		return "bool"
	case "Datetime":
		return "time.Time"
	case "Guid":
		return "uuid.UUID"
	default:
		// String and Decimal both carry strings on the wire.
		return "string"
	}
}

// --- Go template ---

var renderTemplate = template.Must(template.New("models").Parse(`// Code generated by odatagen. DO NOT EDIT.
{{- if .SchemaVersion}}
// Schema version: {{.SchemaVersion}}
{{- end}}

package {{.PackageName}}

import (
{{- if .NeedsTime}}
	"time"

{{- end}}
	"{{.ModulePath}}/entity"
{{- if .NeedsUUID}}
	"github.com/google/uuid"
{{- end}}
)
{{range .Entities}}
// {{.GoName}}Type declares the {{.TypeName}} entity type.
var {{.GoName}}Type = entity.MustNewType(
	"{{.TypeName}}", "{{.Collection}}",
{{- range .Fields}}
	entity.{{.Ctor}}("{{.WireName}}"{{if .Key}}, entity.PrimaryKey(){{end}}),
{{- end}}
{{- range .Navs}}
	entity.{{.Ctor}}("{{.WireName}}", "{{.Target}}"),
{{- end}}
)
{{end}}
func init() {
{{- range .Entities}}
	entity.MustRegister({{.GoName}}Type)
{{- end}}
}
{{range $e := .Entities}}
// {{$e.GoName}} is a typed wrapper around a {{$e.TypeName}} instance.
type {{$e.GoName}} struct {
	*entity.Entity
}

// New{{$e.GoName}} constructs an empty {{$e.TypeName}} instance.
func New{{$e.GoName}}() {{$e.GoName}} {
	return {{$e.GoName}}{entity.New({{$e.GoName}}Type)}
}
{{range $e.Fields}}
func (w {{$e.GoName}}) {{.GoName}}() {{.GoType}} {
	v, _ := w.Entity.Get("{{.WireName}}")
	value, _ := v.({{.GoType}})
	return value
}

func (w {{$e.GoName}}) Set{{.GoName}}(value {{.GoType}}) error {
	return w.Entity.Set("{{.WireName}}", value)
}
{{end}}
{{- end}}`))
