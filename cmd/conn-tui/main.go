package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"os/exec"
	"syscall"

	"github.com/rs/zerolog"

	"github.com/al-bashkir/conn-tui/internal/api"
	"github.com/al-bashkir/conn-tui/internal/config"
	"github.com/al-bashkir/conn-tui/internal/connection"
	"github.com/al-bashkir/conn-tui/internal/logging"
	"github.com/al-bashkir/conn-tui/internal/session"
	"github.com/al-bashkir/conn-tui/internal/store"
	"github.com/al-bashkir/conn-tui/internal/ui"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

// app is what every subcommand needs after startup.
type app struct {
	cfg     config.Config
	cfgPath string
	reg     *session.Registry
	network connection.Network
	log     zerolog.Logger
}

func main() {
	var (
		configPath  string
		serversPath string
		logFile     string
		logLevel    string
		ssid        string
		hwaddr      string
		zone        string
		lat, lon    float64
		debug       bool
		openServer  string
	)

	flag.StringVar(&configPath, "config", "", "path to config.toml (default: XDG config, $"+config.EnvConfigPath+")")
	flag.StringVar(&serversPath, "servers", "", "path to servers.toml (default: next to config.toml)")
	flag.StringVar(&logFile, "log-file", "", "log file (default: XDG state dir)")
	flag.StringVar(&logLevel, "log-level", "", "log level: debug, info, warn, error")
	flag.BoolVar(&debug, "debug", false, "enable debug logging")
	flag.StringVar(&ssid, "ssid", "", "current Wi-Fi SSID, used to pick the internal URL")
	flag.StringVar(&hwaddr, "hwaddr", "", "current network hardware address")
	flag.Float64Var(&lat, "lat", 0, "latitude reported to servers")
	flag.Float64Var(&lon, "lon", 0, "longitude reported to servers")
	flag.StringVar(&zone, "zone", "", "zone name reported when only the zone may be shared")
	flag.StringVar(&openServer, "open", "", "open this server's connection screen on start")
	flag.Usage = usage
	flag.Parse()

	positioned := false
	flag.Visit(func(f *flag.Flag) {
		if f.Name == "lat" || f.Name == "lon" || f.Name == "zone" {
			positioned = true
		}
	})

	env, err := config.LoadEnv()
	if err != nil {
		fatal(err)
	}
	if configPath == "" {
		configPath = env.ConfigPath
	}
	if serversPath == "" {
		serversPath = env.ServersPath
	}
	if logFile == "" {
		logFile = env.LogFile
	}
	if logLevel == "" {
		logLevel = env.LogLevel
	}

	cfg, cfgPathUsed, err := config.Load(configPath)
	if err != nil {
		fatal(err)
	}
	if serversPath == "" {
		serversPath = config.ServersPathFromConfigPath(cfgPathUsed)
	}
	if err := config.Migrate(cfgPathUsed, serversPath); err != nil {
		fatal(fmt.Errorf("migrate servers: %w", err))
	}

	args := flag.Args()

	// Completion output must stay clean, so it skips logging entirely.
	log := zerolog.Nop()
	if len(args) == 0 || args[0] != "__complete" {
		logOpts := logging.Options{File: logFile, Level: logLevel, Debug: debug}
		if len(args) > 0 {
			logOpts.Console = os.Stderr
		}
		l, closeLog, err := logging.New(logOpts)
		if err != nil {
			fatal(err)
		}
		defer func() { _ = closeLog() }()
		log = l
	}

	st, err := store.Open(serversPath)
	if err != nil {
		fatal(err)
	}

	network := connection.StaticNetwork{WiFiSSID: ssid, HWAddr: hwaddr}
	opts := session.OptionsFromDefaults(cfg.Defaults)
	opts.Network = network
	opts.Log = log
	opts.AppVersion = version
	if positioned {
		opts.Location = &api.Location{Latitude: lat, Longitude: lon, Zone: zone}
	}
	reg := session.New(st, opts)
	defer reg.Close()

	a := &app{cfg: cfg, cfgPath: cfgPathUsed, reg: reg, network: network, log: log}

	if len(args) == 0 {
		log.Info().Str("version", version).Int("servers", st.Len()).Msg("starting")
		runTUI(ui.Options{
			ConfigPath: cfgPathUsed,
			Config:     cfg,
			Registry:   reg,
			Log:        log,
			OpenServer: openServerID(st, openServer),
		})
		return
	}

	switch args[0] {
	case "list", "ls":
		a.runList(args[1:])
	case "add":
		a.runAdd(args[1:])
	case "headers", "h":
		a.runHeaders(args[1:])
	case "share":
		a.runShare(args[1:])
	case "open":
		a.runOpen(args[1:])
	case "remove", "rm":
		a.runRemove(args[1:])
	case "completion", "comp":
		runCompletion(args[1:])
	case "__complete":
		a.runInternalComplete(args[1:])
	case "version":
		fmt.Println(version)
	default:
		fatal(fmt.Errorf("unknown command %q\nUsage: conn-tui [flags] [list|add|headers|share|open|remove|completion] ...", args[0]))
	}
}

func openServerID(st *store.Store, key string) string {
	if key == "" {
		return ""
	}
	srv, err := st.Find(key)
	if err != nil {
		fatal(err)
	}
	return srv.ID
}

func runTUI(opts ui.Options) {
	if err := ui.Run(opts); err != nil {
		if errors.Is(err, ui.ErrQuit) {
			return
		}
		fatal(err)
	}
}

// server resolves a SERVER argument by ID or name.
func (a *app) server(key string) config.Server {
	srv, err := a.reg.Store().Find(key)
	if err != nil {
		fatal(err)
	}
	return srv
}

func usage() {
	fmt.Fprintf(os.Stderr, `conn-tui - terminal UI and CLI for server connection settings

Usage:
  conn-tui [flags]                          launch interactive TUI
  conn-tui [flags] list [--json]            print configured servers
  conn-tui [flags] add NAME URL             add a server
  conn-tui [flags] headers get SERVER       print header overrides
  conn-tui [flags] headers set SERVER       replace overrides from stdin
  conn-tui [flags] headers clear SERVER     remove all overrides
  conn-tui [flags] share SERVER             print and copy an invite link
  conn-tui [flags] open SERVER              open the active URL in a browser
  conn-tui [flags] remove SERVER [-y]       revoke tokens and delete a server
  conn-tui completion bash|zsh              print shell completion script

Subcommand aliases:  list=ls  headers=h  remove=rm

Flags:
`)
	flag.PrintDefaults()
}

func fatal(err error) {
	_, _ = fmt.Fprintln(os.Stderr, err)
	os.Exit(1)
}

func execReplace(cmd []string) error {
	if len(cmd) == 0 {
		return errors.New("empty exec command")
	}
	path, err := exec.LookPath(cmd[0])
	if err != nil {
		return err
	}
	// #nosec G204 -- argv is built by the app, no shell involved.
	return syscall.Exec(path, cmd, os.Environ())
}
