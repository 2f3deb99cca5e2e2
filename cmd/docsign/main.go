package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/SeakMengs/DocSign/internal/config"
	"github.com/SeakMengs/DocSign/internal/docstore"
	"github.com/SeakMengs/DocSign/internal/env"
	"github.com/SeakMengs/DocSign/internal/util"
	"github.com/SeakMengs/DocSign/pkg/docsign"
	"go.uber.org/zap"
)

const version = "0.1.0"

func init() {
	env.LoadEnv(".env")
}

type command struct {
	name    string
	summary string
	run     func(ctx context.Context, a *cli, args []string) error
}

var commands = []command{
	{"register", "Create an account and store its token", registerCommand},
	{"login", "Log in and store the token", loginCommand},
	{"logout", "Forget the stored token", logoutCommand},
	{"whoami", "Show the logged in user", whoamiCommand},
	{"list", "List your documents", listCommand},
	{"upload", "Upload a PDF document", uploadCommand},
	{"show", "Show document metadata", showCommand},
	{"sign", "Place a signature on a document page", signCommand},
	{"review", "Mark a document as reviewed", reviewCommand},
	{"status", "Set a document's status", statusCommand},
	{"download", "Download the current document", downloadCommand},
	{"delete", "Delete a document", deleteCommand},
}

// cli carries what every command needs.
type cli struct {
	cfg      config.ClientConfig
	logger   *zap.SugaredLogger
	auth     *docsign.AuthContext
	tokens   *docstore.TokenFile
	client   *docstore.Client
	renderer docsign.Renderer
	out      io.Writer
}

func newCLI(cfg config.ClientConfig, logger *zap.SugaredLogger, out io.Writer) (*cli, error) {
	auth := docsign.NewAuthContext("")
	tokens := docstore.NewTokenFile(cfg.TOKEN_FILE)
	if err := tokens.Bind(auth); err != nil {
		return nil, err
	}

	client, err := docstore.NewClient(cfg.BACKEND_URL, auth, docstore.Options{
		Timeout:   cfg.Timeout,
		UserAgent: util.GetUserAgent(version),
		Logger:    logger,
	})
	if err != nil {
		return nil, err
	}

	return &cli{
		cfg:      cfg,
		logger:   logger,
		auth:     auth,
		tokens:   tokens,
		client:   client,
		renderer: docsign.NewPdfcpuRenderer(),
		out:      out,
	}, nil
}

func usage(w io.Writer) {
	fmt.Fprintf(w, "Usage: %s <command> [options] <args>\n\n", os.Args[0])
	fmt.Fprintln(w, "Commands:")
	for _, c := range commands {
		fmt.Fprintf(w, "  %-9s %s\n", c.name, c.summary)
	}
	fmt.Fprintln(w, "")
	fmt.Fprintf(w, "Use '%s <command> -h' for command-specific help\n", os.Args[0])
}

var errUsage = errors.New("usage")

func (a *cli) dispatch(ctx context.Context, args []string) error {
	if len(args) < 1 {
		usage(a.out)
		return errUsage
	}

	switch args[0] {
	case "-h", "--help", "help":
		usage(a.out)
		return nil
	case "version", "--version":
		fmt.Fprintln(a.out, util.GetUserAgent(version))
		return nil
	}

	for _, c := range commands {
		if c.name == args[0] {
			err := c.run(ctx, a, args[1:])
			if docsign.IsAuthError(err) {
				// Only an authentication failure ends the stored session.
				a.auth.Clear()
			}
			return err
		}
	}

	fmt.Fprintf(a.out, "Unknown command: %s\n", args[0])
	usage(a.out)
	return errUsage
}

func main() {
	cfg := config.GetConfig()

	logger := util.NewLogger(cfg.ENV)
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := newCLI(cfg.Client, logger, os.Stdout)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if err := app.dispatch(ctx, os.Args[1:]); err != nil {
		if !errors.Is(err, errUsage) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			if docsign.IsAuthError(err) {
				fmt.Fprintf(os.Stderr, "Run '%s login' to continue.\n", os.Args[0])
			}
		}
		os.Exit(1)
	}
}
