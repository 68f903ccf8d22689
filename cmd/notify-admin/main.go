// Command notify-admin is a CLI client for the registry's management API.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ---- config/token store ----

type tokenFile struct {
	AccessToken string    `json:"access_token"`
	ExpiresAt   time.Time `json:"expires_at"`
}

func cfgDir() string {
	if v := os.Getenv("XDG_CONFIG_HOME"); v != "" {
		return filepath.Join(v, "notify-admin")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "notify-admin")
}

func tokenPath() string { return filepath.Join(cfgDir(), "token.json") }

func saveToken(tok string, exp time.Time) error {
	_ = os.MkdirAll(cfgDir(), 0o700)
	f, err := os.Create(tokenPath())
	if err != nil {
		return err
	}
	defer f.Close()
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(tokenFile{AccessToken: tok, ExpiresAt: exp})
}

func loadToken() (string, error) {
	b, err := os.ReadFile(tokenPath())
	if err != nil {
		return "", err
	}
	var tf tokenFile
	if err := json.Unmarshal(b, &tf); err != nil {
		return "", err
	}
	if tf.AccessToken == "" || time.Now().After(tf.ExpiresAt) {
		return "", errors.New("no valid token (set-token required)")
	}
	return tf.AccessToken, nil
}

// tokenExpiry reads the exp claim without verifying the signature; the
// server is the verifier, the file only needs a refresh hint.
func tokenExpiry(tok string) time.Time {
	var claims jwt.RegisteredClaims
	_, _ = jwt.ParseWithClaims(tok, &claims, func(*jwt.Token) (any, error) { return nil, nil },
		jwt.WithoutClaimsValidation(),
	)
	if claims.ExpiresAt != nil {
		return claims.ExpiresAt.Time
	}
	return time.Now().Add(15 * time.Minute)
}

// ---- http ----

func call(ctx context.Context, method, u, token string, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var e struct {
			Error string `json:"error"`
		}
		b, _ := io.ReadAll(resp.Body)
		if json.Unmarshal(b, &e) == nil && e.Error != "" {
			return fmt.Errorf("%s: %s", resp.Status, e.Error)
		}
		return errors.New(resp.Status)
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func endpoint(base string, parts ...string) string {
	u := strings.TrimRight(base, "/")
	for _, p := range parts {
		u += "/" + url.PathEscape(p)
	}
	return u
}

// ---- utils ----

func printJSON(v any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}

func fail(err error) {
	fmt.Fprintln(os.Stderr, err)
	os.Exit(1)
}

func usage() {
	fmt.Fprintf(os.Stderr, `notify-admin CLI
Usage:
  notify-admin -addr URL [-token JWT] <cmd> [args]

Commands:
  version
  set-token          -t <jwt>                      (saves token)
  register-project   -project-id <id> -app-domain <domain>
  get-project        -project-id <id>
  subscribers        -project-id <id>
  subscriber-scopes  -project-id <id>
  query              -project-id <id> -accounts <a,b,c>
  subscriber         -topic <topic>
  topics
  sweep
`)
	os.Exit(2)
}

// ---- main ----

var (
	version   = "dev"
	buildDate = "unknown"
)

// main dispatches subcommands against the management API.
func main() {
	// global flags
	addr := flag.String("addr", "http://localhost:8080", "server base URL")
	tokenFlag := flag.String("token", "", "bearer token (overrides saved one)")
	flag.Usage = usage
	flag.Parse()

	if flag.NArg() < 1 {
		usage()
	}
	cmd := flag.Arg(0)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	token := func() string {
		if *tokenFlag != "" {
			return *tokenFlag
		}
		tok, err := loadToken()
		if err != nil {
			fail(err)
		}
		return tok
	}

	switch cmd {

	case "version":
		fmt.Printf("notify-admin %s (%s)\n", version, buildDate)

	case "set-token":
		fs := flag.NewFlagSet("set-token", flag.ExitOnError)
		t := fs.String("t", "", "bearer token (JWT)")
		_ = fs.Parse(flag.Args()[1:])
		if *t == "" {
			fmt.Fprintln(os.Stderr, "need -t")
			os.Exit(1)
		}
		if err := saveToken(*t, tokenExpiry(*t)); err != nil {
			fail(err)
		}
		fmt.Println("ok")

	case "register-project":
		fs := flag.NewFlagSet("register-project", flag.ExitOnError)
		projectID := fs.String("project-id", "", "external project id")
		appDomain := fs.String("app-domain", "", "dapp domain")
		_ = fs.Parse(flag.Args()[1:])
		if *projectID == "" || *appDomain == "" {
			fmt.Fprintln(os.Stderr, "need -project-id and -app-domain")
			os.Exit(1)
		}

		var out any
		err := call(ctx, http.MethodPost, endpoint(*addr, "v1", "projects"), token(),
			map[string]string{"project_id": *projectID, "app_domain": *appDomain}, &out)
		if err != nil {
			fail(err)
		}
		printJSON(out)

	case "get-project":
		fs := flag.NewFlagSet("get-project", flag.ExitOnError)
		projectID := fs.String("project-id", "", "external project id")
		_ = fs.Parse(flag.Args()[1:])
		if *projectID == "" {
			fmt.Fprintln(os.Stderr, "need -project-id")
			os.Exit(1)
		}

		var out any
		if err := call(ctx, http.MethodGet, endpoint(*addr, "v1", "projects", *projectID), token(), nil, &out); err != nil {
			fail(err)
		}
		printJSON(out)

	case "subscribers":
		fs := flag.NewFlagSet("subscribers", flag.ExitOnError)
		projectID := fs.String("project-id", "", "external project id")
		_ = fs.Parse(flag.Args()[1:])
		if *projectID == "" {
			fmt.Fprintln(os.Stderr, "need -project-id")
			os.Exit(1)
		}

		var out any
		if err := call(ctx, http.MethodGet, endpoint(*addr, "v1", "projects", *projectID, "subscribers"), token(), nil, &out); err != nil {
			fail(err)
		}
		printJSON(out)

	case "subscriber-scopes":
		fs := flag.NewFlagSet("subscriber-scopes", flag.ExitOnError)
		projectID := fs.String("project-id", "", "external project id")
		_ = fs.Parse(flag.Args()[1:])
		if *projectID == "" {
			fmt.Fprintln(os.Stderr, "need -project-id")
			os.Exit(1)
		}

		var out any
		if err := call(ctx, http.MethodGet, endpoint(*addr, "v1", "projects", *projectID, "subscriber-scopes"), token(), nil, &out); err != nil {
			fail(err)
		}
		printJSON(out)

	case "query":
		fs := flag.NewFlagSet("query", flag.ExitOnError)
		projectID := fs.String("project-id", "", "external project id")
		accounts := fs.String("accounts", "", "comma-separated account ids")
		_ = fs.Parse(flag.Args()[1:])
		if *projectID == "" || *accounts == "" {
			fmt.Fprintln(os.Stderr, "need -project-id and -accounts")
			os.Exit(1)
		}

		var out any
		err := call(ctx, http.MethodPost, endpoint(*addr, "v1", "projects", *projectID, "subscribers", "query"), token(),
			map[string]any{"accounts": strings.Split(*accounts, ",")}, &out)
		if err != nil {
			fail(err)
		}
		printJSON(out)

	case "subscriber":
		fs := flag.NewFlagSet("subscriber", flag.ExitOnError)
		topic := fs.String("topic", "", "subscriber topic")
		_ = fs.Parse(flag.Args()[1:])
		if *topic == "" {
			fmt.Fprintln(os.Stderr, "need -topic")
			os.Exit(1)
		}

		var out any
		if err := call(ctx, http.MethodGet, endpoint(*addr, "v1", "subscribers", *topic), token(), nil, &out); err != nil {
			fail(err)
		}
		printJSON(out)

	case "topics":
		var out any
		if err := call(ctx, http.MethodGet, endpoint(*addr, "v1", "topics"), token(), nil, &out); err != nil {
			fail(err)
		}
		printJSON(out)

	case "sweep":
		var out any
		if err := call(ctx, http.MethodPost, endpoint(*addr, "v1", "watchers", "sweep"), token(), nil, &out); err != nil {
			fail(err)
		}
		printJSON(out)

	default:
		usage()
	}
}
