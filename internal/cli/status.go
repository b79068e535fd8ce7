package cli

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/rcliao/synapse/internal/auth"
	"github.com/rcliao/synapse/internal/model"
	"github.com/rcliao/synapse/internal/store"
)

func init() {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show server, session and local state",
		Run:   runStatus,
	}

	RootCmd.AddCommand(cmd)
}

type statusReport struct {
	APIURL  string       `json:"api_url"`
	Session string       `json:"session"`
	User    *model.User  `json:"user,omitempty"`
	Chats   *int         `json:"chats,omitempty"`
	Local   *store.Stats `json:"local"`
	Error   string       `json:"error,omitempty"`
}

func runStatus(cmd *cobra.Command, args []string) {
	a := openApp(cmd)
	defer a.Close()

	s := a.auth.Session()
	report := statusReport{
		APIURL:  a.client.BaseURL(),
		Session: s.Status.String(),
		User:    s.User,
	}

	var g errgroup.Group
	g.Go(func() error {
		stats, err := a.store.Stats(cmd.Context(), a.cfg.DBPath)
		report.Local = stats
		return err
	})
	if s.Status == auth.Authenticated {
		g.Go(func() error {
			chats, err := a.client.ListChats(cmd.Context())
			if err != nil {
				report.Error = err.Error()
				return nil
			}
			report.Chats = model.Ptr(len(chats))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		exitErr("stats", err)
	}

	if jsonOutput() {
		printJSON(report)
		return
	}

	fmt.Printf("server:  %s\n", report.APIURL)
	if report.User != nil {
		fmt.Printf("session: %s as %s\n", report.Session, report.User.Email)
	} else {
		fmt.Printf("session: %s\n", report.Session)
	}
	if report.Chats != nil {
		fmt.Printf("chats:   %d\n", *report.Chats)
	}
	if report.Error != "" {
		fmt.Printf("server error: %s\n", errColor(report.Error))
	}
	if report.Local != nil {
		fmt.Printf("state:   %s (%s, %d keys)\n", report.Local.DBPath, humanize.Bytes(uint64(report.Local.DBSizeBytes)), report.Local.Keys)
	}
}
