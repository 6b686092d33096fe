package main

import (
	"bytes"
	"fmt"
	"net"
	"os"
	"strings"

	box "github.com/Delta456/box-cli-maker/v2"
	"github.com/docker/go-units"
	"github.com/koblas/djeese/pkg/archive"
	"github.com/koblas/djeese/pkg/handler"
	"github.com/koblas/djeese/pkg/remote"
	"github.com/pkg/errors"
)

const defaultStaticDir = "static"

type cloneStaticCommand struct {
	app *application

	NoInput bool `long:"noinput" description:"Do not ask for input. Always assume yes."`
	Args    struct {
		Website   string `positional-arg-name:"website" description:"Name of the website to clone from" required:"yes"`
		OutputDir string `positional-arg-name:"outputdir" description:"Directory to write the files to (default: static)"`
	} `positional-args:"yes"`
}

func (c *cloneStaticCommand) Execute(args []string) error {
	outputDir := c.Args.OutputDir
	if outputDir == "" {
		outputDir = defaultStaticDir
	}

	ok, err := c.app.confirm(c.NoInput, fmt.Sprintf("Are you sure? This will override all files in %s!", outputDir))
	if err != nil || !ok {
		return err
	}

	p, err := c.app.networkPrinter()
	if err != nil {
		return err
	}
	defer p.Sync()

	ctx, stop := interruptible()
	defer stop()

	client, err := c.app.login(ctx, p, c.NoInput, remote.ActionClone)
	if err != nil {
		return err
	}

	body, err := client.CloneStatic(ctx, c.Args.Website)
	if err != nil {
		remote.Report(p, remote.ActionClone, err)
		return errReported
	}
	defer body.Close()

	count, err := archive.ExtractStatic(body, outputDir)
	if err != nil {
		p.Error("Response not a valid tar file.")
		p.LogOnly(err.Error())
		p.Always("Clone failed")
		return errReported
	}
	p.Infof("Clone successful (%d files)", count)
	return nil
}

type pushStaticCommand struct {
	app *application

	NoInput bool `long:"noinput" description:"Do not ask for input. Always assume yes."`
	Args    struct {
		Website   string `positional-arg-name:"website" description:"Name of the website to push to" required:"yes"`
		SourceDir string `positional-arg-name:"sourcedir" description:"Directory holding the files (default: static)"`
	} `positional-args:"yes"`
}

func (c *pushStaticCommand) Execute(args []string) error {
	sourceDir := c.Args.SourceDir
	if sourceDir == "" {
		sourceDir = defaultStaticDir
	}

	ok, err := c.app.confirm(c.NoInput, "Are you sure? This will override all files remotely!")
	if err != nil || !ok {
		return err
	}
	if info, err := os.Stat(sourceDir); err != nil || !info.IsDir() {
		return errors.Errorf("Source directory %q not found", sourceDir)
	}

	p, err := c.app.networkPrinter()
	if err != nil {
		return err
	}
	defer p.Sync()

	ctx, stop := interruptible()
	defer stop()

	client, err := c.app.login(ctx, p, c.NoInput, remote.ActionPush)
	if err != nil {
		return err
	}

	tarball := bytes.Buffer{}
	count, err := archive.BuildStatic(&tarball, sourceDir, p)
	if err != nil {
		return err
	}
	p.Infof("Pushing %d files (%s)", count, units.HumanSize(float64(tarball.Len())))

	if err := client.PushStatic(ctx, c.Args.Website, &tarball); err != nil {
		remote.Report(p, remote.ActionPush, err)
		return errReported
	}
	p.Always("Success")
	return nil
}

type runStaticCommand struct {
	app *application

	Listen string `short:"l" long:"listen" description:"Port or address to listen on (default: 8080)"`
	Debug  bool   `short:"d" long:"debug" description:"Shows debugging information"`
	Config string `short:"c" long:"config" description:"Server defaults file" default:"djeese.json"`
	Args   struct {
		URL          string `positional-arg-name:"url" description:"Website to proxy to" required:"yes"`
		StaticFolder string `positional-arg-name:"staticfolder" description:"Directory served under /static/ (default: static)"`
	} `positional-args:"yes"`
}

func (c *runStaticCommand) serverConfig() (handler.ServerConfig, error) {
	config, err := handler.LoadServerConfiguration(c.Config)
	if err != nil {
		return config, err
	}

	config.Origin = c.Args.URL
	if c.Args.StaticFolder != "" {
		config.StaticDir = c.Args.StaticFolder
	}
	if c.Listen != "" {
		config.Listen = c.Listen
	}
	config.Debug = c.Debug

	if info, err := os.Stat(config.StaticDir); err != nil || !info.IsDir() {
		return config, errors.Errorf("Static folder %q not found.", config.StaticDir)
	}
	return config, config.Validate()
}

func (c *runStaticCommand) Execute(args []string) error {
	config, err := c.serverConfig()
	if err != nil {
		return err
	}

	p := c.app.console()
	server, err := handler.NewServer(config, p, handler.NewLogger(config.Debug))
	if err != nil {
		return err
	}

	if p.Verbosity() > 0 {
		host, port, err := net.SplitHostPort(config.Address())
		if err != nil {
			return errors.Wrapf(err, "listen address %q", config.Address())
		}
		if host == "" {
			host = "localhost"
		}

		bx := box.New(box.Config{Px: 4, Py: 1})
		bx.Println("Serving!", strings.Join([]string{
			fmt.Sprintf("- Local:       http://%s:%s", host, port),
			fmt.Sprintf("- Proxying:    %s", config.Origin),
			fmt.Sprintf("- Static:      %s", config.StaticDir),
		}, "\n"))
	}

	ctx, stop := interruptible()
	defer stop()

	return server.Run(ctx)
}
