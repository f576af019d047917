package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"runtime"
	"strings"
	"syscall"

	"github.com/atotto/clipboard"

	"github.com/al-bashkir/conn-tui/internal/config"
	"github.com/al-bashkir/conn-tui/internal/connection"
	"github.com/al-bashkir/conn-tui/internal/headers"
)

func (a *app) runAdd(args []string) {
	fs := flag.NewFlagSet("add", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	token := fs.String("token", "", "access token")
	refresh := fs.String("refresh", "", "refresh token, revoked when the server is removed")
	internal := fs.Bool("internal", false, "URL is the internal (home network) address")
	ssids := fs.String("ssid", "", "comma separated Wi-Fi SSIDs that select the internal URL")
	if err := fs.Parse(args); err != nil {
		fatal(err)
	}
	if fs.NArg() != 2 {
		fatal(fmt.Errorf("add requires a name and a URL\nUsage: conn-tui add NAME URL [--token T --refresh R]"))
	}
	name, rawURL := strings.TrimSpace(fs.Arg(0)), strings.TrimSpace(fs.Arg(1))
	if _, err := a.reg.Store().Find(name); err == nil {
		fatal(fmt.Errorf("server %q already exists", name))
	}

	srv := config.Server{
		Name:  name,
		Token: config.Token{AccessToken: *token, RefreshToken: *refresh},
	}
	typ := connection.External
	if *internal {
		typ = connection.Internal
		srv.Connection.InternalURL = rawURL
		srv.Connection.InternalSSIDs = splitCSV(*ssids)
	} else {
		srv.Connection.ExternalURL = rawURL
	}
	if u, ok := connection.Address(srv.Connection, typ); !ok || (u.Scheme != "http" && u.Scheme != "https") {
		fatal(fmt.Errorf("invalid URL %q: use http:// or https://", rawURL))
	}

	added, err := a.reg.Store().Add(srv)
	if err != nil {
		fatal(err)
	}
	a.log.Info().Str("server_id", added.ID).Str("name", name).Msg("server added")
	fmt.Println(added.ID)
}

func (a *app) runHeaders(args []string) {
	if len(args) < 2 {
		fatal(fmt.Errorf("headers requires an action and a server\nUsage: conn-tui headers get|set|clear SERVER"))
	}
	if err := a.applyHeaders(args[0], args[1], os.Stdin, os.Stdout); err != nil {
		fatal(err)
	}
}

// applyHeaders runs one headers action against the server named by key.
// set reads the override list from in; get prints it to out.
func (a *app) applyHeaders(action, key string, in io.Reader, out io.Writer) error {
	srv, err := a.reg.Store().Find(key)
	if err != nil {
		return err
	}

	switch action {
	case "get", "g":
		if text := headers.Format(srv.Connection.HTTPAdditionalHeaders); text != "" {
			_, err := fmt.Fprintln(out, text)
			return err
		}
		return nil
	case "set", "s":
		data, err := io.ReadAll(in)
		if err != nil {
			return err
		}
		parsed, err := headers.Parse(string(data))
		if err != nil {
			return fmt.Errorf("stdin: %w", err)
		}
		return a.setHeaders(srv, parsed)
	case "clear", "c":
		return a.setHeaders(srv, nil)
	}
	return fmt.Errorf("unknown headers action %q: use get, set or clear", action)
}

func (a *app) setHeaders(srv config.Server, h map[string]string) error {
	if headers.Equal(h, srv.Connection.HTTPAdditionalHeaders) {
		return nil
	}
	err := a.reg.Store().Update(srv.ID, func(s *config.Server) {
		s.Connection.HTTPAdditionalHeaders = h
	})
	if err != nil {
		return err
	}
	a.log.Info().Str("server_id", srv.ID).Int("count", len(h)).Msg("header overrides saved")
	return nil
}

func (a *app) runShare(args []string) {
	if len(args) != 1 {
		fatal(fmt.Errorf("share requires a server\nUsage: conn-tui share SERVER"))
	}
	srv := a.server(args[0])
	link, err := connection.InvitationURL(srv.Connection, a.cfg.Defaults.InvitationBaseURL)
	if err != nil {
		fatal(err)
	}
	fmt.Println(link)
	if err := clipboard.WriteAll(link); err != nil {
		a.log.Debug().Err(err).Msg("clipboard unavailable")
		return
	}
	fmt.Fprintln(os.Stderr, "copied to clipboard")
}

func (a *app) runOpen(args []string) {
	if len(args) != 1 {
		fatal(fmt.Errorf("open requires a server\nUsage: conn-tui open SERVER"))
	}
	srv := a.server(args[0])
	u, err := connection.ActiveURL(srv.Connection, a.network)
	if err != nil {
		fatal(fmt.Errorf("%s: %w", srv.DisplayName(), err))
	}

	opener := "xdg-open"
	if runtime.GOOS == "darwin" {
		opener = "open"
	}
	a.log.Info().Str("server_id", srv.ID).Str("url", u.String()).Msg("opening")
	if err := execReplace([]string{opener, u.String()}); err != nil {
		fatal(err)
	}
}

func (a *app) runRemove(args []string) {
	fs := flag.NewFlagSet("remove", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	yes := fs.Bool("y", false, "do not ask for confirmation")
	if err := fs.Parse(args); err != nil {
		fatal(err)
	}
	if fs.NArg() != 1 {
		fatal(fmt.Errorf("remove requires a server\nUsage: conn-tui remove SERVER [-y]"))
	}
	srv := a.server(fs.Arg(0))

	if !*yes && !confirm(fmt.Sprintf("Delete %q? Tokens are revoked on every server. [y/N] ", srv.DisplayName())) {
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fmt.Fprintf(os.Stderr, "deleting %s...\n", srv.DisplayName())
	if err := a.reg.RemoveServer(ctx, srv.ID); err != nil {
		fatal(err)
	}
	if a.cfg.Defaults.ActiveServer == srv.ID {
		a.cfg.Defaults.ActiveServer = ""
		if _, err := config.Save(a.cfgPath, a.cfg); err != nil {
			fatal(err)
		}
	}
	fmt.Fprintf(os.Stderr, "deleted %s\n", srv.DisplayName())
}

func confirm(prompt string) bool {
	fmt.Fprint(os.Stderr, prompt)
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil && line == "" {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true
	}
	return false
}

func splitCSV(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
