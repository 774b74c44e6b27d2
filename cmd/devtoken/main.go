// Command devtoken mints a signed identity token for local development, so
// the API can be called without the hosted identity provider.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"golang.org/x/term"

	"github.com/mmynk/finova/internal/auth"
)

func main() {
	if err := run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr); err != nil {
		if err == flag.ErrHelp {
			os.Exit(0)
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("devtoken", flag.ContinueOnError)
	fs.SetOutput(stderr)

	subject := fs.String("sub", "", "Identity-provider user ID")
	name := fs.String("name", "", "Display name")
	email := fs.String("email", "", "Email address")
	issuer := fs.String("issuer", os.Getenv("JWT_ISSUER"), "Token issuer")
	ttl := fs.Duration("ttl", 24*time.Hour, "Token lifetime")

	if err := fs.Parse(args); err != nil {
		return err
	}

	if *subject == "" {
		fmt.Fprintln(stderr, "Usage: devtoken -sub <user_id> [-name <name>] [-email <email>] [-issuer <iss>] [-ttl <duration>]")
		fs.PrintDefaults()
		return fmt.Errorf("missing required flags: sub")
	}
	if *ttl <= 0 {
		return fmt.Errorf("ttl must be positive")
	}

	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		fmt.Fprint(stderr, "JWT secret: ")
		var err error
		secret, err = readSecret(stdin)
		if err != nil {
			return fmt.Errorf("failed to read secret: %w", err)
		}
		fmt.Fprintln(stderr)
	}
	if strings.TrimSpace(secret) == "" {
		return fmt.Errorf("secret cannot be empty")
	}

	token, err := auth.NewJWTManager(secret, *issuer, *ttl).Generate(auth.Identity{
		Subject: *subject,
		Name:    *name,
		Email:   *email,
	})
	if err != nil {
		return err
	}

	fmt.Fprintln(stdout, token)
	return nil
}

func readSecret(stdin io.Reader) (string, error) {
	if f, ok := stdin.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		b, err := term.ReadPassword(int(f.Fd()))
		if err != nil {
			return "", err
		}
		return string(b), nil
	}

	scanner := bufio.NewScanner(stdin)
	if scanner.Scan() {
		return scanner.Text(), nil
	}
	if err := scanner.Err(); err != nil {
		return "", err
	}
	return "", io.EOF
}
