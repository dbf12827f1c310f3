package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"

	"github.com/rishimanjunath15/acquisitions/client"
)

const usage = `usage: authcli <command> [flags]

commands:
  signup   -name NAME -email EMAIL -password PW -confirm PW
  signin   -email EMAIL -password PW
  whoami
  signout

environment:
  API_BASE_URL   server base URL (default http://localhost:3000)
  STATE_DIR      session state directory (default ~/.acquisitions)
`

func main() {
	_ = godotenv.Load()

	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	c, err := buildClient()
	if err != nil {
		log.Fatalf("failed to initialize client: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	switch os.Args[1] {
	case "signup":
		fs := flag.NewFlagSet("signup", flag.ExitOnError)
		name := fs.String("name", "", "full name")
		email := fs.String("email", "", "email address")
		password := fs.String("password", "", "password")
		confirm := fs.String("confirm", "", "password confirmation")
		fs.Parse(os.Args[2:])

		user, err := c.SignUp(ctx, *name, *email, *password, *confirm)
		if err != nil {
			fail(err)
		}
		fmt.Printf("account created, signed in as %s <%s>\n", user.Name, user.Email)

	case "signin":
		fs := flag.NewFlagSet("signin", flag.ExitOnError)
		email := fs.String("email", "", "email address")
		password := fs.String("password", "", "password")
		fs.Parse(os.Args[2:])

		user, err := c.SignIn(ctx, *email, *password)
		if err != nil {
			fail(err)
		}
		fmt.Printf("signed in as %s <%s>\n", user.Name, user.Email)

	case "whoami":
		user, err := c.Me(ctx)
		if err != nil {
			fail(err)
		}
		fmt.Printf("%s <%s> (id %s)\n", user.Name, user.Email, user.ID)

	case "signout":
		c.SignOut()
		fmt.Println("signed out")

	default:
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}
}

func buildClient() (*client.Client, error) {
	baseURL := os.Getenv("API_BASE_URL")
	if baseURL == "" {
		baseURL = "http://localhost:3000"
	}
	stateDir := os.Getenv("STATE_DIR")
	if stateDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, err
		}
		stateDir = filepath.Join(home, ".acquisitions")
	}
	session, err := client.NewSessionStore(stateDir)
	if err != nil {
		return nil, err
	}
	return client.New(baseURL, session), nil
}

func fail(err error) {
	var apiErr *client.APIError
	switch {
	case errors.As(err, &apiErr):
		fmt.Fprintf(os.Stderr, "server rejected request: %v\n", apiErr)
	case errors.Is(err, client.ErrPasswordMismatch):
		fmt.Fprintln(os.Stderr, client.ErrPasswordMismatch.Error())
	default:
		fmt.Fprintf(os.Stderr, "request failed: %v\n", err)
	}
	os.Exit(1)
}
