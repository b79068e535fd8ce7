// Package cli implements the synapse CLI commands.
package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/rcliao/synapse/internal/api"
	"github.com/rcliao/synapse/internal/auth"
	"github.com/rcliao/synapse/internal/config"
	"github.com/rcliao/synapse/internal/logging"
	"github.com/rcliao/synapse/internal/model"
	"github.com/rcliao/synapse/internal/session"
	"github.com/rcliao/synapse/internal/store"
)

var (
	apiURL     string
	dbPath     string
	formatFlag string
)

// RootCmd is the top-level command.
var RootCmd = &cobra.Command{
	Use:   "synapse",
	Short: "Client for your second-brain memory server",
	Long:  "Capture, search and chat with the memories stored on a synapse server. The login session is kept in a local SQLite file.",
}

func init() {
	RootCmd.PersistentFlags().StringVar(&apiURL, "api", "", "API base URL (default: $SYNAPSE_API_URL or "+config.DefaultAPIURL+")")
	RootCmd.PersistentFlags().StringVarP(&dbPath, "db", "d", "", "State database path (default: $SYNAPSE_DB or ~/.synapse/state.db)")
	RootCmd.PersistentFlags().StringVarP(&formatFlag, "format", "f", "text", "Output format: json or text")
}

// app is everything a command needs to talk to the server.
type app struct {
	cfg    *config.Config
	log    *zap.Logger
	store  *store.SQLiteStore
	creds  *session.Store
	client *api.Client
	auth   *auth.Controller
}

// openApp loads configuration, restores the stored session and returns once
// the session has settled. It exits the process on failure.
func openApp(cmd *cobra.Command) *app {
	cfg, err := config.Load()
	if err != nil {
		exitErr("config", err)
	}
	if apiURL != "" {
		cfg.APIURL = apiURL
	}
	if dbPath != "" {
		cfg.DBPath = dbPath
	}
	if err := cfg.Validate(); err != nil {
		exitErr("config", err)
	}

	log, err := logging.New(logging.Options{Level: cfg.LogLevel, File: cfg.LogFile})
	if err != nil {
		exitErr("logger", err)
	}

	s, err := store.NewSQLiteStore(cfg.DBPath)
	if err != nil {
		exitErr("open store", err)
	}

	creds := session.New(s)
	client, err := api.New(cfg.APIURL, creds, api.WithTimeout(cfg.Timeout), api.WithLogger(log))
	if err != nil {
		s.Close()
		exitErr("api client", err)
	}

	a := &app{
		cfg:    cfg,
		log:    log,
		store:  s,
		creds:  creds,
		client: client,
		auth:   auth.NewController(client, creds, log),
	}
	a.auth.Start(cmd.Context())
	return a
}

func (a *app) Close() {
	a.log.Sync()
	a.store.Close()
}

// requireAuth exits unless the stored session is valid.
func (a *app) requireAuth() *model.User {
	s := a.auth.Session()
	if s.Status != auth.Authenticated {
		a.Close()
		exitErr("not logged in", errors.New("run `synapse login` first"))
	}
	return s.User
}

func jsonOutput() bool {
	return formatFlag == "json"
}

func printJSON(v any) {
	b, _ := json.MarshalIndent(v, "", "  ")
	fmt.Println(string(b))
}

func exitErr(msg string, err error) {
	fmt.Fprintf(os.Stderr, "error: %s: %v\n", msg, err)
	os.Exit(1)
}
