package settings

import (
	"bytes"
	"os"
	"text/template"

	"github.com/go-home-io/klyqa/plugins/common"
	"github.com/go-home-io/klyqa/providers"
	"github.com/pkg/errors"
)

// ITemplateProvider defines template logic.
type ITemplateProvider interface {
	Process([]byte) ([]byte, error)
}

// Template engine provider.
type provider struct {
	Logger    common.ILoggerProvider
	functions template.FuncMap
}

// Contains data required for a new template.
type constructTemplate struct {
	Logger  common.ILoggerProvider
	Secrets providers.ISecretProvider
}

// Constructs a new template engine.
func newTemplateProvider(ctor *constructTemplate) *provider {
	provider := &provider{
		Logger: ctor.Logger,
	}

	provider.functions = template.FuncMap{
		"env": provider.getEnvVariable,
	}

	if ctor.Secrets != nil {
		provider.functions["sec"] = ctor.Secrets.Get
	}

	return provider
}

// Process applies template functions to the config data, which allows
// reading credentials from environment variables or secrets store.
func (p *provider) Process(rawFile []byte) ([]byte, error) {
	tpl, err := template.New("go-home").Funcs(p.functions).Option("missingkey=error").Parse(string(rawFile))
	if err != nil {
		return nil, errors.Wrap(err, "parse template")
	}

	b := bytes.Buffer{}
	if err := tpl.Execute(&b, nil); err != nil {
		return nil, errors.Wrap(err, "execute template")
	}

	return b.Bytes(), nil
}

// Returns environment variable.
func (p *provider) getEnvVariable(name string) string {
	p.Logger.Debug("Template is requesting environment variable",
		common.LogNameToken, name, common.LogSystemToken, logSystem)
	return os.Getenv(name)
}
