// stockctl is a small CLI around the stockauth session core: log in and out
// of a TechStock server, inspect the current session, and exercise silent
// auto-login. Session state is persisted in the encrypted keyring so it
// survives between invocations.
//
// Configuration comes from the environment (or a .env file):
//
//	STOCKAUTH_BASE_URL            server root, e.g. https://api.techstock.example.com
//	STOCKAUTH_KEYRING_PASSPHRASE  unlocks the keyring
//	STOCKAUTH_KEYRING_PATH        optional, defaults under the user config dir
package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/techstock/stockauth"
	"github.com/techstock/stockauth/secrets/keyring"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	cfg, err := stockauth.LoadConfig()
	if err != nil {
		fatal("failed to load config: %v", err)
	}
	if cfg.BaseURL == "" {
		fatal("STOCKAUTH_BASE_URL is not set")
	}
	if cfg.KeyringPassphrase == "" {
		fatal("STOCKAUTH_KEYRING_PASSPHRASE is not set")
	}

	store, err := keyring.Open(cfg.KeyringPath, cfg.KeyringPassphrase)
	if err != nil {
		fatal("failed to open keyring: %v", err)
	}

	client := stockauth.New(cfg.BaseURL, store, cfg.ClientOptions()...)
	session := client.Session()

	switch os.Args[1] {
	case "login":
		fs := flag.NewFlagSet("login", flag.ExitOnError)
		email := fs.String("email", "", "account email")
		password := fs.String("password", "", "account password")
		remember := fs.Bool("remember", false, "save credentials for silent re-login")
		fs.Parse(os.Args[2:])
		if *email == "" || *password == "" {
			fatal("login requires -email and -password")
		}
		res := session.Login(*email, *password, *remember)
		if !res.Success {
			fatal("login failed: %s", res.Message)
		}
		fmt.Println("logged in as", *email)

	case "logout":
		session.Logout()
		fmt.Println("logged out")

	case "whoami":
		user := session.CurrentUser()
		if user == nil {
			fatal("not logged in")
		}
		fmt.Println("user:", user.UserName)
		if user.ID != "" {
			fmt.Println("id:  ", user.ID)
		}
		if len(user.Roles) > 0 {
			fmt.Println("roles:", strings.Join(user.Roles, ", "))
		}

	case "validate":
		if session.TryRestoreAuthentication() {
			fmt.Println("token is valid")
		} else {
			fatal("token is missing or no longer valid")
		}

	case "autologin":
		if session.TryAutoLogin() {
			fmt.Println("logged in with remembered credentials")
		} else {
			fatal("auto-login failed")
		}

	case "status":
		fmt.Println("server:     ", client.BaseURL())
		fmt.Println("keyring:    ", store.Path())
		fmt.Println("logged in:  ", session.IsAuthenticated())
		fmt.Println("remember-me:", session.IsRememberMeEnabled())

	default:
		usage()
		os.Exit(2)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, `usage: stockctl <command> [flags]

commands:
  login      -email X -password Y [-remember]
  logout     drop the session
  whoami     show the signed-in user from the stored token
  validate   check the stored token against the server
  autologin  log in silently with remembered credentials
  status     show session and configuration state`)
}

func fatal(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
