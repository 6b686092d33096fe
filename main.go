package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/jessevdk/go-flags"
	"github.com/koblas/djeese/pkg/archive"
	"github.com/koblas/djeese/pkg/credentials"
	"github.com/koblas/djeese/pkg/pkginfo"
	"github.com/koblas/djeese/pkg/printer"
	"github.com/koblas/djeese/pkg/prompt"
	"github.com/koblas/djeese/pkg/remote"
	"github.com/pkg/errors"
)

const logFileName = "djeese.log"

// errReported fails a command whose reason has already been printed.
var errReported = errors.New("command failed")

type Options struct {
	Verbosity int `short:"v" long:"verbosity" description:"Verbosity level; 0=no output, 1=minimal output, 2=extra output, 3=all output" choice:"0" choice:"1" choice:"2" choice:"3" default:"1"`
}

type application struct {
	Options

	out      io.Writer
	logFile  string
	host     string
	prompter *prompt.Prompter
	bundler  *archive.Bundler
	index    *pkginfo.Index
	provider func(noInput bool) (credentials.Provider, error)
}

func newApplication() *application {
	app := &application{
		out:      os.Stdout,
		logFile:  logFileName,
		host:     remote.HostFromEnv(),
		prompter: prompt.NewTerminal(),
		bundler:  archive.NewBundler(),
		index:    pkginfo.NewIndex(),
	}
	app.provider = app.storedCredentials
	return app
}

func (app *application) storedCredentials(noInput bool) (credentials.Provider, error) {
	path, err := credentials.DefaultPath()
	if err != nil {
		return nil, err
	}
	return &credentials.Prompting{
		Store:    &credentials.FileStore{Path: path},
		Prompter: app.prompter,
		NoInput:  noInput,
	}, nil
}

func (app *application) console() *printer.Printer {
	return printer.New(app.Verbosity, printer.WithOutput(app.out))
}

// networkPrinter also records everything in the log file, which is where
// unexpected replies of the service end up.
func (app *application) networkPrinter() (*printer.Printer, error) {
	logger, err := printer.NewLogFile(app.logFile)
	if err != nil {
		return nil, errors.Wrapf(err, "opening %s", app.logFile)
	}
	return printer.New(app.Verbosity, printer.WithOutput(app.out), printer.WithLogger(logger)), nil
}

// login builds a client for the service and opens a session on it.
func (app *application) login(ctx context.Context, p *printer.Printer, noInput bool, action remote.Action) (*remote.Client, error) {
	provider, err := app.provider(noInput)
	if err != nil {
		return nil, err
	}
	creds, err := provider.Credentials(ctx)
	if err != nil {
		return nil, err
	}

	client, err := remote.New(app.host, remote.WithLogger(p.Logger()))
	if err != nil {
		return nil, err
	}
	if err := client.Login(ctx, creds.Username, creds.Password); err != nil {
		remote.Report(p, action, err)
		return nil, errReported
	}
	return client, nil
}

// confirm asks before a destructive operation unless noInput is set.
func (app *application) confirm(noInput bool, question string) (bool, error) {
	if noInput {
		return true, nil
	}
	return app.prompter.AskBoolean(question, true)
}

func interruptible() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func newParser(app *application) *flags.Parser {
	parser := flags.NewParser(&app.Options, flags.HelpFlag|flags.PassDoubleDash)

	parser.AddCommand("checkapp", "Validate a djeese app",
		"Validate the app descriptor in appfile.", &checkAppCommand{app: app})
	parser.AddCommand("createapp", "Create a djeese app",
		"Ask for the details of an app and write <packagename>.ini into the app directory.", &createAppCommand{app: app})
	parser.AddCommand("uploadapp", "Upload an app",
		"Bundle the package built by setupfile with the templates and license named in appfile and upload it.", &uploadAppCommand{app: app})
	parser.AddCommand("clonestatic", "Clone the static files from a website",
		"Download the static files of website into outputdir.", &cloneStaticCommand{app: app})
	parser.AddCommand("pushstatic", "Push static files to a website",
		"Replace the static files of website with the contents of sourcedir.", &pushStaticCommand{app: app})
	parser.AddCommand("runstatic", "Serve static files from a local folder",
		"Serve staticfolder under /static/ and proxy every other request to url.", &runStaticCommand{app: app})

	return parser
}

func run(app *application, args []string) int {
	parser := newParser(app)
	if _, err := parser.ParseArgs(args); err != nil {
		if flags.WroteHelp(err) {
			fmt.Fprintln(app.out, err)
			return 0
		}
		if !errors.Is(err, errReported) {
			fmt.Fprintln(os.Stderr, err)
		}
		return 1
	}
	return 0
}

func main() {
	os.Exit(run(newApplication(), os.Args[1:]))
}
