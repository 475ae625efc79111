package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/rskariadi-dev/manrura/internal/assessment"
	"github.com/rskariadi-dev/manrura/internal/checklist"
	"github.com/rskariadi-dev/manrura/internal/cliconfig"
	"github.com/rskariadi-dev/manrura/internal/remote"
	"github.com/rskariadi-dev/manrura/internal/session"
)

const usage = `usage: manrura [-config FILE] [-v] <command> [flags]

commands:
  configure   set the API endpoint and state directory
  login       sign in with email and password
  logout      forget the signed-in user
  whoami      show the signed-in account as the server knows it
  password    change your password
  checklist   print the MANRURA standards and points
  status      show the active period and the scores of a ward
  score       set a score, notes or clear evidence of a point
  upload      attach an evidence file to a point
  summary     per-ward totals and achievement
  add-ward    create a ward (admin)
  add-user    create an account (admin)
  add-period  create an assessment period (admin)
`

type app struct {
	cfgPath   string
	cfg       *cliconfig.Config
	auth      *session.Authenticator
	session   *session.Session
	client    *remote.Client
	engine    *assessment.Engine
	checklist *checklist.Checklist
	logger    *slog.Logger
	out       io.Writer
}

func newApp(cfgPath string, logger *slog.Logger, out io.Writer) (*app, error) {
	cfg, err := cliconfig.Load(cfgPath)
	if err != nil {
		return nil, err
	}

	opts := []remote.Option{
		remote.WithHTTPClient(&http.Client{Timeout: cfg.Timeout()}),
		remote.WithLogger(logger),
	}

	// login is public, the verifier never needs the token
	auth := session.NewAuthenticator(session.NewKeyStore(cfg.State.Dir), remote.New(cfg.API.Endpoint, opts...), logger)
	sess := auth.Init()

	client := remote.New(cfg.API.Endpoint, append(opts, remote.WithTokenSource(sess))...)

	board := assessment.NewStatusBoard()
	board.Subscribe(func(st assessment.Status) { renderStatus(out, st) })

	cl := checklist.Default()
	engine := assessment.NewEngine(assessment.NewStore(), client, sess, cl,
		assessment.WithStatusBoard(board),
		assessment.WithLogger(logger),
	)

	return &app{
		cfgPath:   cfgPath,
		cfg:       cfg,
		auth:      auth,
		session:   sess,
		client:    client,
		engine:    engine,
		checklist: cl,
		logger:    logger,
		out:       out,
	}, nil
}

func main() {
	defaultPath, err := cliconfig.DefaultPath()
	if err != nil {
		defaultPath = "manrura.toml"
	}

	var cfgPath string
	var verbose bool
	flag.StringVar(&cfgPath, "config", defaultPath, "settings file")
	flag.BoolVar(&verbose, "v", false, "log remote calls")
	flag.Usage = func() { fmt.Fprint(os.Stderr, usage) }
	flag.Parse()

	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}

	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	a, err := newApp(cfgPath, logger, os.Stdout)
	if err != nil {
		renderError(os.Stderr, err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := a.run(ctx, flag.Arg(0), flag.Args()[1:]); err != nil {
		var authErr *assessment.AuthorizationError
		switch {
		case errors.Is(err, flag.ErrHelp):
			os.Exit(0)
		case errors.Is(err, remote.ErrConfigMissing):
			fmt.Fprintf(os.Stderr, setupGuide, a.cfgPath)
		case errors.As(err, &authErr) && authErr.Warning():
			renderWarning(os.Stderr, err)
		default:
			renderError(os.Stderr, err)
		}
		os.Exit(1)
	}
}
