package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"
	"syscall"

	"golang.org/x/term"

	"github.com/trezcool/darasa/core/nav"
	"github.com/trezcool/darasa/core/quiz"
	"github.com/trezcool/darasa/core/session"
	"github.com/trezcool/darasa/services/lmsapi"
)

var (
	readPasswordFunc = term.ReadPassword // mockable

	errHelp             = errors.New("help provided")
	errNotLoggedIn      = errors.New("not logged in; run: portal login -username USERNAME")
	errPermissionDenied = errors.New("permission denied")
)

type commandLine struct {
	sessions *session.Store
	guard    *nav.Guard
	api      *lmsapi.Client
	engine   *quiz.Engine
	out      io.Writer
	in       io.Reader
}

func (cli *commandLine) printUsage() {
	fmt.Fprintln(cli.out, "Usage:")
	fmt.Fprintln(cli.out, "  login -username USERNAME - log in; the password will be prompted next")
	fmt.Fprintln(cli.out, "  logout                   - log out and clear the saved session")
	fmt.Fprintln(cli.out, "  whoami                   - show the current identity and navigation")
	fmt.Fprintln(cli.out, "  preview -quiz QUIZ_ID    - run a quiz preview (admins and instructors)")
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	loginCmd := flag.NewFlagSet("login", flag.ExitOnError)
	loginUname := loginCmd.String("username", "", "The username. The password will be prompted next.")

	previewCmd := flag.NewFlagSet("preview", flag.ExitOnError)
	previewQuiz := previewCmd.String("quiz", "", "The quiz ID to preview.")

	switch args[1] {
	case "login":
		if err := loginCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *loginUname == "" {
			loginCmd.Usage()
			return errHelp
		}
		fmt.Fprint(cli.out, "Enter password:")
		pwd, err := readPasswordFunc(syscall.Stdin)
		fmt.Fprintln(cli.out)
		if err != nil {
			return err
		}
		if len(pwd) == 0 {
			loginCmd.Usage()
			return errHelp
		}
		return cli.login(*loginUname, string(pwd))
	case "logout":
		cli.sessions.Logout()
		fmt.Fprintln(cli.out, "Logged out.")
		return nil
	case "whoami":
		return cli.whoami()
	case "preview":
		if err := previewCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *previewQuiz == "" {
			previewCmd.Usage()
			return errHelp
		}
		return cli.preview(*previewQuiz)
	default:
		cli.printUsage()
		return errHelp
	}
}

func (cli *commandLine) login(uname, pwd string) error {
	token, err := cli.api.Authenticate(context.Background(), lmsapi.Credentials{
		Username: uname,
		Password: pwd,
	})
	if err != nil {
		return err
	}
	if err := cli.sessions.Login(token); err != nil {
		return err
	}
	id, _ := cli.sessions.Identity()
	fmt.Fprintf(cli.out, "Welcome %s! -> %s\n", id.Subject, nav.LandingPath(id.Highest))
	return nil
}

func (cli *commandLine) whoami() error {
	if d := cli.guard.Check(); !d.Allow {
		return errNotLoggedIn
	}
	id, _ := cli.sessions.Identity()
	landing := nav.LandingPath(id.Highest)
	fmt.Fprintf(cli.out, "%s (%s)\n", id.Subject, strings.Join(id.Roles, ", "))
	fmt.Fprintf(cli.out, "landing: %s\n", landing)

	st := nav.Resolve(id.Highest, landing)
	for _, item := range nav.Menu(id.Highest) {
		cli.printMenuItem(item, "", st)
	}
	return nil
}

func (cli *commandLine) printMenuItem(item nav.MenuItem, indent string, st nav.MenuState) {
	marker := " "
	if item.Path != "" && item.Path == st.ActivePath {
		marker = "*"
	}
	if item.Children == nil {
		fmt.Fprintf(cli.out, "%s%s %s (%s)\n", indent, marker, item.Label, item.Path)
		return
	}
	fmt.Fprintf(cli.out, "%s  %s\n", indent, item.Label)
	for _, child := range item.Children {
		cli.printMenuItem(child, indent+"  ", st)
	}
}
