package main

import (
	"os"

	"github.com/docker/go-units"
	"github.com/koblas/djeese/pkg/appconfig"
	"github.com/koblas/djeese/pkg/remote"
	"github.com/koblas/djeese/pkg/validate"
	"github.com/pkg/errors"
)

type checkAppCommand struct {
	app *application

	Schema string `short:"s" long:"schema" description:"Version of the descriptor schema" choice:"1" choice:"2" default:"1"`
	Args   struct {
		AppFile string `positional-arg-name:"appfile" description:"Path to the app descriptor"`
	} `positional-args:"yes" required:"yes"`
}

func (c *checkAppCommand) Execute(args []string) error {
	path := c.Args.AppFile
	if _, err := os.Stat(path); err != nil {
		return errors.Errorf("App file %q not found.", path)
	}

	config, err := appconfig.LoadFile(path)
	if err != nil {
		return err
	}
	schema, err := validate.LookupSchema(c.Schema)
	if err != nil {
		return err
	}

	ctx, stop := interruptible()
	defer stop()

	validator := validate.New(validate.WithSchema(schema), validate.WithPrinter(c.app.console()))
	if !validator.IsValid(ctx, config) {
		return errReported
	}
	return nil
}

type uploadAppCommand struct {
	app *application

	NoInput bool `long:"noinput" description:"Do not ask for input. Always assume yes."`
	Args    struct {
		SetupFile string `positional-arg-name:"setupfile" description:"Path to the setup.py of the app"`
		AppFile   string `positional-arg-name:"appfile" description:"Path to the app descriptor"`
	} `positional-args:"yes" required:"yes"`
}

func (c *uploadAppCommand) Execute(args []string) error {
	if _, err := os.Stat(c.Args.SetupFile); err != nil {
		return errors.Errorf("Could not find setup.py at %q", c.Args.SetupFile)
	}
	if _, err := os.Stat(c.Args.AppFile); err != nil {
		return errors.Errorf("Could not find app file at %q", c.Args.AppFile)
	}

	p, err := c.app.networkPrinter()
	if err != nil {
		return err
	}
	defer p.Sync()

	config, err := appconfig.LoadFile(c.Args.AppFile)
	if err != nil {
		return err
	}
	name := config.Section(validate.AppSection).Get("name", "")

	ctx, stop := interruptible()
	defer stop()

	client, err := c.app.login(ctx, p, c.NoInput, remote.ActionUpload)
	if err != nil {
		return err
	}

	bundle, err := c.app.bundler.Bundle(ctx, c.Args.SetupFile, config)
	if err != nil {
		return err
	}
	p.Infof("Uploading %s (%s)", name, units.HumanSize(float64(bundle.Len())))

	result, err := client.UploadBundle(ctx, name, bundle)
	if err != nil {
		remote.Report(p, remote.ActionUpload, err)
		return errReported
	}
	p.Alwaysf("Upload successful (%s)", result)
	return nil
}
