package main

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"go.klb.dev/cliprelay/internal/relay"
	"go.klb.dev/cliprelay/internal/update"
)

func newStatusCmd() *cobra.Command {
	v := viper.New()

	cmd := &cobra.Command{
		Use:     "status",
		Short:   "Show the relay's current clipboard and connected subscribers",
		Args:    cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, _ []string) error { return bindViper(cmd, v) },
		RunE:    func(_ *cobra.Command, _ []string) error { return runStatus(v) },
	}

	f := cmd.Flags()
	f.String("server", "http://localhost:3000", "relay base URL")
	f.String("api-key", "", "pre-shared key")
	f.Bool("json", false, "output raw JSON")
	addConfigFlag(cmd)

	return cmd
}

func runStatus(v *viper.Viper) error {
	client := newAPIClient(v.GetString("server"), v.GetString("api-key"))

	var cur update.Update
	if err := client.fetch(&cur); err != nil {
		return fmt.Errorf("fetch: %w", err)
	}

	var st struct {
		Subscribers []relay.SubscriberInfo `json:"subscribers"`
	}
	if err := client.status(&st); err != nil {
		return fmt.Errorf("status: %w", err)
	}

	if v.GetBool("json") {
		enc, _ := json.MarshalIndent(map[string]any{
			"clipboard":   cur,
			"subscribers": st.Subscribers,
		}, "", "  ")
		fmt.Println(string(enc))
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 1, 0, 2, ' ', 0)
	fmt.Fprintf(w, "Server:\t%s\n", v.GetString("server"))
	fmt.Fprintf(w, "Clipboard:\t%v\n", cur.FormatNames())
	fmt.Fprintf(w, "Source:\t%s\n", cur.Source)
	fmt.Fprintf(w, "Updated:\t%s\n", fmtAge(time.UnixMilli(cur.Timestamp)))
	fmt.Fprintln(w)
	_ = w.Flush()

	if len(st.Subscribers) == 0 {
		fmt.Println("No push subscribers connected.")
		return nil
	}

	tw := tabwriter.NewWriter(os.Stdout, 1, 0, 2, ' ', 0)
	_, _ = fmt.Fprintf(tw, "SOURCE\tID\tCONNECTED\n")
	_, _ = fmt.Fprintf(tw, "------\t--\t---------\n")
	for _, sub := range st.Subscribers {
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\n", sub.Source, sub.ID, fmtAge(sub.ConnectedAt))
	}
	return tw.Flush()
}

func fmtAge(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	age := time.Since(t).Round(time.Second)
	if age < time.Minute {
		return fmt.Sprintf("%ds ago", int(age.Seconds()))
	}
	if age < time.Hour {
		return fmt.Sprintf("%dm ago", int(age.Minutes()))
	}
	return t.Format("15:04:05")
}
