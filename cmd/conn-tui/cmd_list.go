package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/al-bashkir/conn-tui/internal/config"
	"github.com/al-bashkir/conn-tui/internal/connection"
)

type serverJSON struct {
	ID        string            `json:"id"`
	Name      string            `json:"name"`
	Active    bool              `json:"active"`
	Via       string            `json:"via"`
	URL       string            `json:"url"`
	Internal  string            `json:"internal_url,omitempty"`
	External  string            `json:"external_url,omitempty"`
	Cloud     bool              `json:"use_cloud"`
	Headers   map[string]string `json:"headers"`
	Version   string            `json:"version,omitempty"`
	LoggedOut bool              `json:"logged_out"`
}

func (a *app) runList(args []string) {
	fs := flag.NewFlagSet("list", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	jsonOut := fs.Bool("json", false, "output as JSON")
	if err := fs.Parse(args); err != nil {
		fatal(err)
	}

	servers := a.reg.Store().All()
	if *jsonOut {
		out := make([]serverJSON, 0, len(servers))
		for _, s := range servers {
			out = append(out, a.serverJSON(s))
		}
		printJSON(out)
		return
	}

	if len(servers) == 0 {
		fmt.Fprintln(os.Stderr, "no servers configured; add one with: conn-tui add NAME URL")
		return
	}
	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	for _, s := range servers {
		j := a.serverJSON(s)
		mark := " "
		if j.Active {
			mark = "*"
		}
		hdr := ""
		if n := len(j.Headers); n > 0 {
			hdr = fmt.Sprintf("%d hdr", n)
		}
		fmt.Fprintf(tw, "%s %s\t%s\t%s\t%s\n", mark, j.Name, j.Via, j.URL, hdr)
	}
	_ = tw.Flush()
}

func (a *app) serverJSON(s config.Server) serverJSON {
	typ := connection.ActiveURLType(s.Connection, a.network)
	u := connection.NoValue
	if addr, err := connection.ActiveURL(s.Connection, a.network); err == nil {
		u = addr.String()
	}
	hdrs := s.Connection.HTTPAdditionalHeaders
	if hdrs == nil {
		hdrs = map[string]string{}
	}
	return serverJSON{
		ID:        s.ID,
		Name:      s.DisplayName(),
		Active:    s.ID == a.cfg.Defaults.ActiveServer,
		Via:       typ.String(),
		URL:       u,
		Internal:  s.Connection.InternalURL,
		External:  s.Connection.ExternalURL,
		Cloud:     s.Connection.UseCloud && s.Connection.CanUseCloud,
		Headers:   hdrs,
		Version:   s.Version,
		LoggedOut: s.Token.AccessToken == "",
	}
}

func printJSON(v any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		fatal(err)
	}
}
