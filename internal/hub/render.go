package hub

import (
	_ "embed"
	"fmt"
	"io"
	"strings"
	"text/template"

	"github.com/Masterminds/sprig/v3"
	"gopkg.in/yaml.v3"
)

// Format selects the rendered representation.
type Format string

const (
	// FormatPython renders a jupyterhub_config.py.
	FormatPython Format = "python"

	// FormatYAML renders the settings as YAML.
	FormatYAML Format = "yaml"
)

//go:embed templates/jupyterhub_config.py.tmpl
var pythonTemplate string

var configTemplate = template.Must(
	template.New("jupyterhub_config.py").
		Funcs(sprig.TxtFuncMap()).
		Funcs(template.FuncMap{
			"pyset":  pySet,
			"pybool": pyBool,
		}).
		Parse(pythonTemplate),
)

// Render validates s and writes it to w in the given format.
func Render(w io.Writer, s *Settings, format Format) error {
	if err := s.Validate(); err != nil {
		return err
	}

	switch format {
	case FormatPython, "":
		if err := configTemplate.Execute(w, s); err != nil {
			return fmt.Errorf("rendering hub config: %w", err)
		}
		return nil
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(s); err != nil {
			return fmt.Errorf("encoding hub config: %w", err)
		}
		return enc.Close()
	default:
		return fmt.Errorf("unknown format %q: must be python or yaml", format)
	}
}

// pySet renders a Python set literal of quoted strings.
func pySet(items []string) string {
	quoted := make([]string, len(items))
	for i, it := range items {
		quoted[i] = fmt.Sprintf("%q", it)
	}
	return "{" + strings.Join(quoted, ", ") + "}"
}

func pyBool(b bool) string {
	if b {
		return "True"
	}
	return "False"
}
