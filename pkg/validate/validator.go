package validate

import (
	"context"
	"fmt"
	"strings"

	"github.com/Masterminds/semver/v3"
	"github.com/koblas/djeese/pkg/appconfig"
	"github.com/koblas/djeese/pkg/printer"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
	"gopkg.in/go-playground/validator.v9"
)

const (
	AppSection       = "app"
	TemplatesSection = "templates"
)

// Diagnostic is one message produced while validating.
type Diagnostic struct {
	Severity printer.Level
	Message  string
}

// Report is the outcome of a validation run. The summary diagnostic is
// always the last one.
type Report struct {
	Valid       bool
	Diagnostics []Diagnostic
}

func (r *Report) add(level printer.Level, format string, args ...interface{}) {
	r.Diagnostics = append(r.Diagnostics, Diagnostic{Severity: level, Message: fmt.Sprintf(format, args...)})
}

// Errors returns the messages of every error diagnostic.
func (r *Report) Errors() []string {
	result := []string{}
	for _, d := range r.Diagnostics {
		if d.Severity == printer.Error {
			result = append(result, d.Message)
		}
	}
	return result
}

func (r *Report) Warnings() []string {
	result := []string{}
	for _, d := range r.Diagnostics {
		if d.Severity == printer.Warning {
			result = append(result, d.Message)
		}
	}
	return result
}

func (r *Report) Print(p *printer.Printer) {
	for _, d := range r.Diagnostics {
		p.Print(d.Severity, d.Message)
	}
}

// Validator checks app descriptors against a Schema.
type Validator struct {
	schema      Schema
	checker     Checker
	concurrency int
	printer     *printer.Printer
	fields      *validator.Validate
}

type Option func(*Validator)

func WithSchema(schema Schema) Option {
	return func(v *Validator) {
		v.schema = schema
	}
}

func WithChecker(checker Checker) Option {
	return func(v *Validator) {
		v.checker = checker
	}
}

// WithConcurrency bounds the number of template checks in flight.
func WithConcurrency(n int) Option {
	return func(v *Validator) {
		if n > 0 {
			v.concurrency = n
		}
	}
}

func WithPrinter(p *printer.Printer) Option {
	return func(v *Validator) {
		v.printer = p
	}
}

func New(opts ...Option) *Validator {
	v := &Validator{
		schema:      schemas[DefaultSchemaVersion],
		checker:     NewLocatorChecker(""),
		concurrency: 8,
		printer:     printer.New(1),
		fields:      validator.New(),
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// IsValid validates c and prints the diagnostics.
func (v *Validator) IsValid(ctx context.Context, c *appconfig.Config) bool {
	report := v.Validate(ctx, c)
	report.Print(v.printer)
	return report.Valid
}

// Validate checks every part of c and collects the diagnostics. It keeps
// going after a failure so that a single run reports every problem.
func (v *Validator) Validate(ctx context.Context, c *appconfig.Config) *Report {
	report := &Report{}
	valid := true

	hasApp := c.HasSection(AppSection)
	if !hasApp {
		report.add(printer.Error, "Section '%s' not found", AppSection)
		valid = false
	} else if !v.validateApp(c.Section(AppSection), report) {
		valid = false
	}

	if c.HasSection(TemplatesSection) {
		if !v.validateTemplates(ctx, c.Section(TemplatesSection), report) {
			valid = false
		}
	}

	if hasApp {
		for _, setting := range c.Section(AppSection).GetList("settings", nil) {
			if !v.validateSetting(c, setting, report) {
				valid = false
			}
		}
	}

	report.Valid = valid
	if valid {
		report.add(printer.Always, "Configuration valid")
	} else {
		report.add(printer.Always, "Configuration invalid")
	}
	return report
}

func (v *Validator) validateApp(app *appconfig.Section, report *Report) bool {
	valid := true
	report.add(printer.Info, "Required section '%s' found", AppSection)

	for _, required := range v.schema.RequiredAppKeys {
		if !app.Has(required) {
			report.add(printer.Error, "Option '%s' not found in '%s' section", required, AppSection)
			valid = false
		} else {
			report.add(printer.Info, "Required option '%s' found in '%s' section", required, AppSection)
		}
	}

	for _, key := range app.Keys() {
		if !v.schema.knownAppKey(key) {
			report.add(printer.Warning, "Unknown option '%s' in '%s' section", key, AppSection)
		}
	}

	if app.Has("version") {
		if _, err := semver.NewVersion(app.Get("version", "")); err != nil {
			report.add(printer.Warning, "Version %q is not a semantic version", app.Get("version", ""))
		}
	}
	v.checkField(app, "author-email", "email", report)
	v.checkField(app, "url", "url", report)
	v.checkField(app, "author-url", "url", report)

	return valid
}

func (v *Validator) checkField(app *appconfig.Section, key, tag string, report *Report) {
	if !app.Has(key) {
		return
	}
	value := app.Get(key, "")
	if err := v.fields.Var(value, tag); err != nil {
		report.add(printer.Warning, "Option '%s' value %q does not look like a valid %s", key, value, tag)
	}
}

func (v *Validator) validateTemplates(ctx context.Context, templates *appconfig.Section, report *Report) bool {
	names := templates.Keys()
	locators := make([]string, len(names))
	for idx, name := range names {
		locators[idx] = templates.Get(name, "")
	}

	// Results are stored by index so templates sharing a locator each get
	// their own answer.
	results := make([]error, len(names))
	group := errgroup.Group{}
	group.SetLimit(v.concurrency)
	for idx := range names {
		idx := idx
		group.Go(func() error {
			results[idx] = v.checkLocator(ctx, locators[idx])
			return nil
		})
	}
	_ = group.Wait()

	valid := true
	for idx, name := range names {
		if err := results[idx]; err != nil {
			report.add(printer.Error, "Could not load template %q from %q: %v", name, locators[idx], err)
			valid = false
		} else {
			report.add(printer.Info, "Successfully loaded %q from %q", name, locators[idx])
		}
	}
	return valid
}

func (v *Validator) checkLocator(ctx context.Context, locator string) error {
	switch {
	case v.schema.Templates == LocatorURL && !IsURL(locator):
		return errors.New("not a URL")
	case v.schema.Templates == LocatorPath && IsURL(locator):
		return errors.New("not a file path")
	}
	return v.checker.Check(ctx, locator)
}

func (v *Validator) validateSetting(c *appconfig.Config, name string, report *Report) bool {
	if !c.HasSection(name) {
		report.add(printer.Error, "Could not find settings section %q", name)
		return false
	}

	valid := true
	setting := c.Section(name)
	for _, required := range v.schema.RequiredSettingKeys {
		if !setting.Has(required) {
			report.add(printer.Error, "Could not find required option %q in settings section %q", required, name)
			valid = false
		}
	}

	if setting.Has("type") {
		typeValue := setting.Get("type", "")
		if !contains(v.schema.SettingTypes, typeValue) {
			report.add(printer.Error, "Setting %q type %q is not valid. Valid choices: %s",
				name, typeValue, strings.Join(v.schema.SettingTypes, ", "))
			valid = false
		}
	}

	for _, key := range []string{"required", "editable"} {
		if _, err := setting.GetBool(key, false); err != nil {
			report.add(printer.Warning, "Setting %q option %q is not a boolean", name, key)
		}
	}
	for _, key := range setting.Keys() {
		if !contains(v.schema.RequiredSettingKeys, key) && !contains(v.schema.OptionalSettingKeys, key) {
			report.add(printer.Warning, "Unknown option %q in settings section %q", key, name)
		}
	}

	if valid {
		report.add(printer.Info, "Settings section %q valid", name)
	}
	return valid
}
