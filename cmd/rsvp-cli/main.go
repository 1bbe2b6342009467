package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"text/tabwriter"

	"github.com/rs/zerolog"
	"github.com/rsvp-demo/project/internal/app/events"
	"github.com/rsvp-demo/project/internal/platform/env"
	"github.com/rsvp-demo/project/internal/platform/kv"
	"github.com/rsvp-demo/project/internal/platform/logging"
	"github.com/rsvp-demo/project/internal/rsvpclient"
)

const usage = `usage: rsvp-cli [flags] <command>

commands:
  submit <children>   submit an RSVP (requires -ack)
  history             list RSVPs accepted from this machine
  reset               clear the local history (APP_ENV=development only)

flags:
`

type config struct {
	APIBase    string
	EventID    string
	MirrorFile string
	RedisAddr  string
	RedisPass  string
	RedisDB    int
	Ack        bool
	DevMode    bool
}

func main() {
	envErr := env.Load()
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log := logging.NewWithWriter(os.Stderr, "rsvp-cli", env.String("LOG_LEVEL", "warn"))
	if envErr != nil {
		log.Warn().Err(envErr).Msg("ignoring malformed env file")
	}
	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr, log); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer, log zerolog.Logger) error {
	cfg := config{DevMode: env.DevMode()}
	fs := flag.NewFlagSet("rsvp-cli", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		fmt.Fprint(stderr, usage)
		fs.PrintDefaults()
	}
	fs.StringVar(&cfg.APIBase, "api", env.String("RSVP_API_BASE", env.DefaultAPIBase), "RSVP server base URL")
	fs.StringVar(&cfg.EventID, "event", events.MockEventID, "event id")
	fs.StringVar(&cfg.MirrorFile, "file", env.String("RSVP_MIRROR_FILE", ".rsvp-mirror.json"), "local history file")
	fs.StringVar(&cfg.RedisAddr, "redis", env.String("REDIS_ADDR", ""), "keep history in Redis at this address instead of a file")
	fs.StringVar(&cfg.RedisPass, "redis-password", env.String("REDIS_PASSWORD", ""), "Redis password")
	fs.IntVar(&cfg.RedisDB, "redis-db", env.Int("REDIS_DB", 0), "Redis database")
	fs.BoolVar(&cfg.Ack, "ack", false, "accept the Acknowledgement & Release")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() == 0 {
		fs.Usage()
		return errors.New("missing command")
	}

	store, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	client := rsvpclient.NewClient(cfg.APIBase, env.Duration("RSVP_CLIENT_TIMEOUT", rsvpclient.DefaultTimeout))
	panel := rsvpclient.NewPanel(cfg.EventID, client, rsvpclient.NewMirror(store, cfg.EventID, cfg.DevMode, log))
	defer panel.Close()
	panel.Load(ctx)

	switch cmd := fs.Arg(0); cmd {
	case "submit":
		if fs.NArg() != 2 {
			return errors.New("submit needs exactly one argument: <children>")
		}
		children, err := strconv.Atoi(fs.Arg(1))
		if err != nil {
			return fmt.Errorf("children must be an integer: %w", err)
		}
		return submit(ctx, panel, children, cfg.Ack, stdout)
	case "history":
		printHistory(stdout, panel.State())
		return nil
	case "reset":
		if err := panel.Reset(ctx); err != nil {
			return err
		}
		fmt.Fprintln(stdout, "history cleared")
		return nil
	default:
		fs.Usage()
		return fmt.Errorf("unknown command %q", cmd)
	}
}

func submit(ctx context.Context, panel *rsvpclient.Panel, children int, ack bool, stdout io.Writer) error {
	if !ack {
		return errors.New("you must accept the acknowledgement to RSVP (pass -ack)")
	}
	panel.SetChildren(children)
	if got := panel.State().Children; got != children {
		return fmt.Errorf("children must be between 0 and 6, got %d", children)
	}
	panel.SetAcknowledged(true)
	if !panel.Submit(ctx) {
		return errors.New(panel.State().Error)
	}

	st := panel.State()
	saved := st.Submissions[len(st.Submissions)-1]
	fmt.Fprintf(stdout, "RSVP %d saved: children=%d at %s\n", saved.ID, saved.Children, saved.Timestamp)
	return nil
}

func printHistory(w io.Writer, st rsvpclient.PanelState) {
	fmt.Fprintf(w, "Total RSVPs: %d\n", len(st.Submissions))
	if len(st.Submissions) == 0 {
		return
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tID\tCHILDREN\tTIMESTAMP")
	for i, s := range st.Submissions {
		fmt.Fprintf(tw, "%d\t%d\t%d\t%s\n", i+1, s.ID, s.Children, s.Timestamp)
	}
	_ = tw.Flush()
}

func openStore(ctx context.Context, cfg config) (kv.Store, func(), error) {
	if cfg.RedisAddr == "" {
		return kv.NewFileStore(cfg.MirrorFile), func() {}, nil
	}
	client, err := kv.DialRedis(ctx, cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
	if err != nil {
		return nil, nil, err
	}
	return kv.NewRedisStore(client, ""), func() { _ = client.Close() }, nil
}
