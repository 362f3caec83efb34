// Command dayz-monitor queries a DayZ server once and prints what the status bot would show.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/masahide/dayz-monitor/pkg/a2s"
	"github.com/masahide/dayz-monitor/pkg/dayz"
	"github.com/spf13/cobra"
)

type env struct {
	dayz.Env
}

type report struct {
	Address string             `json:"address"`
	Name    string             `json:"name"`
	Online  bool               `json:"online"`
	Status  *dayz.ServerStatus `json:"status,omitempty"`
	Error   string             `json:"error,omitempty"`
	Info    *a2s.Info          `json:"info,omitempty"`
}

// recorder keeps the last raw reply so --raw can print it.
type recorder struct {
	q    dayz.Querier
	info *a2s.Info
}

func (r *recorder) Info(ctx context.Context, addr string) (*a2s.Info, error) {
	info, err := r.q.Info(ctx, addr)
	r.info = info
	return info, err
}

func jsonDump(v any) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}

func printText(w io.Writer, r report) {
	if !r.Online {
		fmt.Fprintf(w, "%s (%s): offline: %s\n", r.Name, r.Address, r.Error)
		return
	}
	fmt.Fprintf(w, "%s (%s): online\n", r.Name, r.Address)
	fmt.Fprintf(w, "Players: %d/%d\n", r.Status.Players, r.Status.MaxPlayers)
	if r.Status.PlayersInQueue != nil {
		fmt.Fprintf(w, "Queue: %d\n", *r.Status.PlayersInQueue)
	}
	if r.Status.ServerTime != nil {
		fmt.Fprintf(w, "Server time: %s\n", *r.Status.ServerTime)
	}
	if r.Info != nil {
		fmt.Fprintf(w, "Map: %s\nVersion: %s\nKeywords: %s\n", r.Info.Map, r.Info.Version, r.Info.Keywords)
	}
}

// newRootCmd builds the command. q overrides the A2S client, for tests.
func newRootCmd(e env, q dayz.Querier) *cobra.Command {
	var (
		asJSON  bool
		raw     bool
		timeout time.Duration
	)
	cmd := &cobra.Command{
		Use:          "dayz-monitor",
		Short:        "Query a DayZ server once over A2S and print its status",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := e.Validate(); err != nil {
				return err
			}
			client := q
			if client == nil {
				client = &a2s.Client{Timeout: timeout}
			}
			rec := &recorder{q: client}
			st, err := dayz.RetrieveServerInfo(cmd.Context(), rec, e.ServerAddress)

			r := report{Address: e.ServerAddress, Name: e.ServerName, Online: err == nil}
			if err != nil {
				r.Error = err.Error()
			} else {
				r.Status = &st
			}
			if raw {
				r.Info = rec.info
			}

			out := cmd.OutOrStdout()
			if asJSON {
				fmt.Fprintln(out, jsonDump(r))
			} else {
				printText(out, r)
			}
			return err
		},
	}
	cmd.Flags().StringVar(&e.ServerAddress, "addr", e.ServerAddress, "A2S query address host:port (env SERVER_ADDRESS)")
	cmd.Flags().StringVar(&e.ServerName, "name", e.ServerName, "display name (env SERVER_NAME)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the result as JSON")
	cmd.Flags().BoolVar(&raw, "raw", false, "include the decoded A2S_INFO reply")
	cmd.Flags().DurationVar(&timeout, "timeout", a2s.DefaultTimeout, "query timeout")
	return cmd
}

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	e := env{}
	if err := envconfig.Process("", &e); err != nil {
		log.Fatal(err)
	}
	if err := newRootCmd(e, nil).ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}
