package venv

import (
	"embed"
	"text/template"

	"github.com/kballard/go-shellquote"
)

//go:embed templates/pyvenv.cfg.tmpl templates/activate.tmpl
var templateFiles embed.FS

//go:embed templates/_virtualenv.py
var virtualenvBootstrap []byte

const virtualenvBootstrapPth = "import _virtualenv\n"

var templates = template.Must(
	template.New("").
		Funcs(template.FuncMap{
			"shellquote": func(s string) string {
				return shellquote.Join(s)
			},
		}).
		ParseFS(templateFiles, "templates/*.tmpl"))

type pyvenvConfigParameters struct {
	VersionInfo               PythonVersionInfo
	IncludeSystemSitePackages bool
	IncludeUserSitePackages   bool
	RunfilesInterpreter       string
	RunfilesRepo              string
}

type activateParameters struct {
	Debug                bool
	Prompt               string
	EnvironmentVariables []EnvironmentVariable
}
