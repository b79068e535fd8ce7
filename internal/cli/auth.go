package cli

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rcliao/synapse/internal/auth"
	"github.com/rcliao/synapse/internal/model"
)

func init() {
	login := &cobra.Command{
		Use:   "login EMAIL",
		Short: "Log in and remember the session",
		Long:  "Log in with email and password. The password is read from --password or, when omitted, from the first line of stdin.",
		Args:  cobra.ExactArgs(1),
		Run:   runLogin,
	}
	login.Flags().StringP("password", "p", "", "Password (default: read from stdin)")

	signup := &cobra.Command{
		Use:   "signup EMAIL",
		Short: "Create an account and log in",
		Args:  cobra.ExactArgs(1),
		Run:   runSignup,
	}
	signup.Flags().StringP("password", "p", "", "Password (default: read from stdin)")
	signup.Flags().String("name", "", "Display name")

	logout := &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored session",
		Run:   runLogout,
	}

	whoami := &cobra.Command{
		Use:   "whoami",
		Short: "Show the logged-in user",
		Run:   runWhoami,
	}

	RootCmd.AddCommand(login, signup, logout, whoami)
}

func readPassword(cmd *cobra.Command) string {
	pw, _ := cmd.Flags().GetString("password")
	if pw != "" {
		return pw
	}
	fmt.Fprint(os.Stderr, "Password: ")
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil && line == "" {
		exitErr("read password", err)
	}
	return strings.TrimRight(line, "\r\n")
}

func runLogin(cmd *cobra.Command, args []string) {
	password := readPassword(cmd)

	a := openApp(cmd)
	defer a.Close()

	user, err := a.auth.Login(cmd.Context(), args[0], password)
	if err != nil {
		exitErr("login", err)
	}
	if jsonOutput() {
		printJSON(user)
		return
	}
	fmt.Print("Logged in as ")
	writeUser(os.Stdout, user)
}

func runSignup(cmd *cobra.Command, args []string) {
	password := readPassword(cmd)
	var name *string
	if n, _ := cmd.Flags().GetString("name"); n != "" {
		name = &n
	}

	a := openApp(cmd)
	defer a.Close()

	user, err := a.auth.Signup(cmd.Context(), args[0], password, name)
	if err != nil {
		exitErr("signup", err)
	}
	if jsonOutput() {
		printJSON(user)
		return
	}
	fmt.Print("Signed up and logged in as ")
	writeUser(os.Stdout, user)
}

func runLogout(cmd *cobra.Command, args []string) {
	a := openApp(cmd)
	defer a.Close()

	a.auth.Logout(cmd.Context())
	if jsonOutput() {
		fmt.Println(`{"ok":true}`)
		return
	}
	fmt.Println("Logged out.")
}

func runWhoami(cmd *cobra.Command, args []string) {
	a := openApp(cmd)
	defer a.Close()

	s := a.auth.Session()
	if jsonOutput() {
		printJSON(struct {
			Status string      `json:"status"`
			User   *model.User `json:"user"`
		}{s.Status.String(), s.User})
		return
	}
	if s.Status != auth.Authenticated {
		fmt.Println("Not logged in.")
		return
	}
	writeUser(os.Stdout, s.User)
}
