// stockstub runs the fake TechStock API on a local port so stockctl and
// integration environments have something to talk to. It seeds one account:
// admin@techstock.local / admin (role Admin).
package main

import (
	"log/slog"
	"net/http"
	"os"

	"github.com/techstock/stockauth"
	"github.com/techstock/stockauth/stubserver"
)

func main() {
	cfg, err := stockauth.LoadConfig()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	srv := stubserver.New()
	srv.AddUser("admin@techstock.local", "admin", "Admin")

	slog.Info("stub TechStock API listening", "addr", cfg.StubAddr)
	if err := http.ListenAndServe(cfg.StubAddr, srv.Handler()); err != nil {
		slog.Error("server stopped", "error", err)
		os.Exit(1)
	}
}
