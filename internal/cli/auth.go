package cli

import (
	"bufio"
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	"github.com/idilsaglam/todosync/internal/auth"
	"github.com/idilsaglam/todosync/internal/ui"
)

const authUsage = "usage: todo auth <login|logout|status|whoami>"

func doAuth(args []string, opt Options) int {
	if len(args) == 0 {
		ui.Fail(authUsage)
		return 2
	}
	switch args[0] {
	case "login":
		return doAuthLogin(opt)
	case "logout":
		return doAuthLogout()
	case "status":
		return doAuthStatus()
	case "whoami":
		return doAuthWhoAmI()
	}
	ui.Fail(authUsage)
	return 2
}

func doAuthLogin(opt Options) int {
	fmt.Fprint(ui.Out(), "Paste your token: ")
	line, err := bufio.NewReader(opt.in()).ReadString('\n')
	token := strings.TrimSpace(line)
	if token == "" {
		if err != nil {
			ui.Fail("read token: " + err.Error())
		} else {
			ui.Fail("read token: empty input")
		}
		return 1
	}
	if err := auth.SetToken(token, nil); err != nil {
		ui.Fail("save token: " + err.Error())
		return 1
	}
	ui.OK("logged in")
	return 0
}

func doAuthLogout() int {
	ti, _ := auth.GetToken()
	if ti != nil && ti.Source == "env" {
		ui.OK("token is provided by the " + auth.EnvToken + " env var (nothing to delete)")
		return 0
	}
	if err := auth.DeleteToken(); err != nil {
		ui.Fail("logout: " + err.Error())
		return 1
	}
	ui.OK("logged out")
	return 0
}

func doAuthStatus() int {
	ti, err := auth.GetToken()
	if err != nil {
		ui.Fail("status: " + err.Error())
		return 1
	}
	out := ui.Out()
	if ti == nil {
		ui.Muted("not logged in")
		fmt.Fprintln(out, "Run: todo auth login")
		return 0
	}
	fmt.Fprintf(out, "source: %s\n", ti.Source)
	switch {
	case ti.ExpiresAt == nil:
		fmt.Fprintln(out, "expires: (unknown)")
	case ti.Expired(time.Now()):
		fmt.Fprintf(out, "expires: %s (expired)\n", ti.ExpiresAt.UTC().Format(time.RFC3339))
	default:
		fmt.Fprintf(out, "expires: %s\n", ti.ExpiresAt.UTC().Format(time.RFC3339))
	}
	fmt.Fprintf(out, "env override: %s (or %s)\n", auth.EnvToken, auth.EnvTokenLegacy)
	return 0
}

// whoami decodes a JWT payload locally without verifying it; opaque tokens
// print basic info.
func doAuthWhoAmI() int {
	ti, _ := auth.GetToken()
	if ti == nil {
		ui.Fail("not logged in. Run: todo auth login")
		return 2
	}
	out := ui.Out()
	if parts := strings.Split(ti.Token, "."); len(parts) == 3 {
		if p, err := decodeB64URL(parts[1]); err == nil {
			fmt.Fprintln(out, "JWT payload:")
			fmt.Fprintln(out, p)
			return 0
		}
	}
	fmt.Fprintln(out, "Opaque token (cannot introspect locally).")
	fmt.Fprintln(out, "source:", ti.Source)
	return 0
}

func decodeB64URL(s string) (string, error) {
	dec, err := base64.RawURLEncoding.DecodeString(strings.TrimRight(s, "="))
	if err != nil {
		return "", err
	}
	return string(dec), nil
}
