package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/koblas/djeese/pkg/appconfig"
	"github.com/koblas/djeese/pkg/pkginfo"
	"github.com/koblas/djeese/pkg/prompt"
	"github.com/koblas/djeese/pkg/validate"
	"github.com/pkg/errors"
)

var licenseFileCandidates = []string{
	"license",
	"license.txt",
	"LICENSE",
	"LICENSE.txt",
	"LICENSE.TXT",
}

type createAppCommand struct {
	app *application

	Dir string `short:"C" long:"directory" description:"Directory of the app sources" default:"."`
}

// guessLicensePath returns the first license file found in dir.
func guessLicensePath(dir string) string {
	for _, name := range licenseFileCandidates {
		path := filepath.Join(dir, name)
		if info, err := os.Stat(path); err == nil && info.Mode().IsRegular() {
			return path
		}
	}
	return ""
}

// pythonModules lists the packages directly below dir.
func pythonModules(dir string) []string {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}
	modules := []string{}
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		if _, err := os.Stat(filepath.Join(dir, entry.Name(), "__init__.py")); err == nil {
			modules = append(modules, filepath.Join(dir, entry.Name()))
		}
	}
	return modules
}

// guessTemplatePath looks for the template in the templates folder of every
// module.
func guessTemplatePath(name string, modules []string) string {
	for _, module := range modules {
		path := filepath.Join(module, "templates", filepath.FromSlash(name))
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// setter stores non-empty answers into a section.
type setter struct {
	section *appconfig.Section
	err     error
}

func (s *setter) set(key string, ask func() (string, error)) string {
	if s.err != nil {
		return ""
	}
	value, err := ask()
	if err != nil {
		s.err = err
		return ""
	}
	if value != "" {
		s.section.Set(key, value)
	}
	return value
}

func askText(pr *prompt.Prompter, title string, opts ...prompt.AskOption) func() (string, error) {
	return func() (string, error) {
		return pr.Ask(title, opts...)
	}
}

func askBool(pr *prompt.Prompter, title string, def ...bool) func() (string, error) {
	return func() (string, error) {
		value, err := pr.AskBoolean(title, def...)
		return strconv.FormatBool(value), err
	}
}

func askList(pr *prompt.Prompter, title string, minItems int) func() (string, error) {
	return func() (string, error) {
		values, err := pr.AskMulti(title, minItems)
		return strings.Join(values, "\n"), err
	}
}

func (c *createAppCommand) Execute(args []string) error {
	pr := c.app.prompter
	p := c.app.console()
	config := appconfig.New()
	app := &setter{section: config.Section(validate.AppSection)}

	name := app.set("name", askText(pr, "Name", prompt.Validate(prompt.Regex(`^[a-zA-Z]`, "Must start with a letter"))))
	packageName := app.set("packagename", askText(pr, "Package name on PyPI",
		prompt.WithDefault(pkginfo.Slugify(name)), prompt.Validate(prompt.Slug())))
	if app.err != nil {
		return app.err
	}

	ctx, stop := interruptible()
	defer stop()

	meta := pkginfo.Metadata{}
	lookup, err := pr.AskBoolean("Should we try to get additional information from PyPI?", true)
	if err != nil {
		return err
	}
	if lookup {
		if meta, err = c.app.index.Lookup(ctx, packageName); err != nil {
			p.Warningf("Could not get package information: %v", err)
		}
	}

	app.set("private", askBool(pr, "Private", false))
	app.set("url", askText(pr, "URL", prompt.WithDefault(meta.URL)))
	app.set("author", askText(pr, "Author", prompt.WithDefault(meta.Author), prompt.Optional()))
	app.set("author-url", askText(pr, "Author URL (optional)", prompt.WithDefault(meta.AuthorURL), prompt.Optional()))
	app.set("installed-apps", askList(pr, "Installed apps", 1))
	app.set("version", askText(pr, "Version", prompt.WithDefault(meta.Version)))
	app.set("description", askText(pr, "Description (short)", prompt.WithDefault(meta.Description)))
	app.set("license", askText(pr, "License", prompt.WithDefault(meta.License)))
	app.set("license-path", askText(pr, "Path to license file",
		prompt.WithDefault(guessLicensePath(c.Dir)), prompt.Validate(prompt.PathExists())))
	app.set("translation-url", askText(pr, "URL to the translation page, eg transifex (optional)",
		prompt.Optional(), prompt.Validate(prompt.URLReachable(nil))))
	app.set("settings", askList(pr, "Settings (optional)", 0))
	app.set("plugins", askList(pr, "Plugin (class) names (optional)", 0))
	app.set("apphook", askList(pr, "Apphook (class) names (optional)", 0))
	if app.err != nil {
		return app.err
	}

	for _, setting := range app.section.GetList("settings", nil) {
		s := &setter{section: config.Section(setting)}
		s.set("name", askText(pr, fmt.Sprintf("Name of the setting %q (Python)", setting)))
		s.set("verbose-name", askText(pr, fmt.Sprintf("Verbose name of the setting %q", setting)))
		s.set("type", func() (string, error) {
			return pr.AskChoice(fmt.Sprintf("Type of the setting %q", setting), validate.SettingTypes())
		})
		def := s.set("default", askText(pr, fmt.Sprintf("Default value for setting %q (optional)", setting), prompt.Optional()))
		s.set("required", askBool(pr, fmt.Sprintf("Is setting %q required", setting), true))
		if def != "" {
			s.set("editable", askBool(pr, fmt.Sprintf("Is setting %q editable", setting), true))
		}
		if s.err != nil {
			return s.err
		}
	}

	if err := c.askTemplates(config, packageName); err != nil {
		return err
	}

	schema, err := validate.LookupSchema("2")
	if err != nil {
		return err
	}
	validator := validate.New(validate.WithSchema(schema), validate.WithPrinter(p))

	path := filepath.Join(c.Dir, packageName+".ini")
	if err := config.WriteFile(ctx, path, validator); err != nil {
		if errors.Is(err, appconfig.ErrInvalid) {
			return errReported
		}
		return err
	}
	p.Alwaysf("Wrote %s", path)
	return nil
}

func (c *createAppCommand) askTemplates(config *appconfig.Config, packageName string) error {
	pr := c.app.prompter

	expose, err := pr.AskBoolean("Does your application expose templates?", true)
	if err != nil || !expose {
		return err
	}

	modules := pythonModules(c.Dir)
	templates := config.Section(validate.TemplatesSection)
	for more := true; more; {
		name, err := pr.Ask(fmt.Sprintf("Template path (eg %s/plugin.html)", packageName))
		if err != nil {
			return err
		}
		path, err := pr.Ask("Path to the source of the template",
			prompt.WithDefault(guessTemplatePath(name, modules)), prompt.Validate(prompt.PathExists()))
		if err != nil {
			return err
		}
		templates.Set(name, path)

		if more, err = pr.AskBoolean("Are there more templates?"); err != nil {
			return err
		}
	}
	return nil
}
