package commands

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"os"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// loginTimeout bounds how long we wait for the browser sign-in flow to
// deliver a credential back to the loopback listener.
const loginTimeout = 3 * time.Minute

// NewLoginCmd creates the login command
func NewLoginCmd() *cobra.Command {
	var credential, backendAlias string
	var noBrowser bool

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in with Google and store the session",
		Long: `Sign in to an EcoCollect backend.

By default the Google sign-in page opens in your browser and the
credential is delivered back to the CLI automatically. Use
--credential (or ECOCOLLECT_CREDENTIAL) to pass an identity-provider
credential directly in non-interactive environments.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLogin(credential, backendAlias, noBrowser)
		},
	}

	cmd.Flags().StringVar(&credential, "credential", "", "Identity-provider credential (or set ECOCOLLECT_CREDENTIAL)")
	cmd.Flags().StringVar(&backendAlias, "backend", "", "Backend alias (uses the selected backend if not specified)")
	cmd.Flags().BoolVar(&noBrowser, "no-browser", false, "Never open a browser; prompt for the credential instead")

	return cmd
}

func runLogin(credential, backendAlias string, noBrowser bool) error {
	if credential == "" {
		credential = os.Getenv("ECOCOLLECT_CREDENTIAL")
	}

	e, err := newEnv(backendAlias)
	if err != nil {
		return err
	}

	if credential == "" {
		if noBrowser || !term.IsTerminal(int(syscall.Stdin)) {
			credential, err = promptCredential()
		} else {
			credential, err = browserCredential(e.backend.URL)
		}
		if err != nil {
			return err
		}
	}

	if credential == "" {
		return fmt.Errorf("credential is required (use --credential or ECOCOLLECT_CREDENTIAL)")
	}

	fmt.Fprintf(e.out, "Logging in to %s (%s)...\n", e.backend.Alias, e.backend.URL)

	ctx, cancel := context.WithTimeout(context.Background(), loginTimeout)
	defer cancel()

	user, err := e.shell.Login(ctx, credential)
	if err != nil {
		return fmt.Errorf("login failed: %w", err)
	}

	fmt.Fprintln(e.out, "✓ Login successful!")
	fmt.Fprintf(e.out, "  User: %s (%s)\n", user.Name, user.Email)
	if user.IsAdmin() {
		fmt.Fprintln(e.out, "  Role: Admin")
	}

	return nil
}

// promptCredential reads the credential without echo when stdin is a
// terminal, or as a plain line when piped.
func promptCredential() (string, error) {
	if term.IsTerminal(int(syscall.Stdin)) {
		fmt.Print("Credential: ")
		raw, err := term.ReadPassword(int(syscall.Stdin))
		if err != nil {
			return "", fmt.Errorf("failed to read credential: %w", err)
		}
		fmt.Println()
		return string(raw), nil
	}

	var credential string
	if _, err := fmt.Fscanln(os.Stdin, &credential); err != nil {
		return "", fmt.Errorf("credential is required in non-interactive mode (use --credential or ECOCOLLECT_CREDENTIAL)")
	}
	return credential, nil
}

// browserCredential runs the browser sign-in flow: a one-shot loopback
// listener receives the credential after the backend finishes the
// Google exchange and redirects back.
func browserCredential(backendURL string) (string, error) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return "", fmt.Errorf("failed to open loopback listener: %w", err)
	}
	defer listener.Close()

	callbackURL := fmt.Sprintf("http://%s/callback", listener.Addr().String())
	signinURL := fmt.Sprintf("%s/api/auth/google/start?redirect_uri=%s",
		backendURL, url.QueryEscape(callbackURL))

	type result struct {
		credential string
		err        error
	}
	results := make(chan result, 1)

	server := &http.Server{
		Handler: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			credential := r.URL.Query().Get("credential")
			if credential == "" {
				http.Error(w, "missing credential", http.StatusBadRequest)
				results <- result{err: fmt.Errorf("sign-in flow returned no credential")}
				return
			}
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
			fmt.Fprint(w, "<html><body><p>Signed in. You can close this tab and return to the terminal.</p></body></html>")
			results <- result{credential: credential}
		}),
	}
	go server.Serve(listener)
	defer server.Close()

	fmt.Printf("Opening browser for Google sign-in...\n")
	fmt.Printf("If the browser does not open, visit:\n  %s\n", signinURL)
	if err := openBrowser(signinURL); err != nil {
		fmt.Printf("Warning: failed to open browser: %v\n", err)
	}

	select {
	case res := <-results:
		return res.credential, res.err
	case <-time.After(loginTimeout):
		return "", fmt.Errorf("timed out waiting for sign-in to complete")
	}
}
