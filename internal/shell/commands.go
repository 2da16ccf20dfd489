package shell

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"dcrclient/internal/flow"
)

// errExit is returned by the exit command to end the loop.
var errExit = errors.New("exit")

// Command is one shell command.
type Command struct {
	Name        string
	Aliases     []string
	Description string
	Run         func(ctx context.Context, args []string) error
}

// registry holds commands by name and alias.
type registry struct {
	commands map[string]*Command
	aliases  map[string]string
}

func newRegistry() *registry {
	return &registry{
		commands: make(map[string]*Command),
		aliases:  make(map[string]string),
	}
}

func (r *registry) register(cmd *Command) {
	r.commands[cmd.Name] = cmd
	for _, alias := range cmd.Aliases {
		r.aliases[alias] = cmd.Name
	}
}

func (r *registry) get(name string) (*Command, bool) {
	if target, ok := r.aliases[name]; ok {
		name = target
	}
	cmd, ok := r.commands[name]
	return cmd, ok
}

// names returns the command names in sorted order.
func (r *registry) names() []string {
	names := make([]string, 0, len(r.commands))
	for name := range r.commands {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (s *Shell) registerCommands() {
	s.commands.register(&Command{
		Name:        "register",
		Description: "Register a new client with Dynamic Client Registration",
		Run: func(ctx context.Context, _ []string) error {
			return s.started("register", s.session.Registration().StartLogin(ctx))
		},
	})
	s.commands.register(&Command{
		Name:        "login",
		Description: "Log in with the registered client",
		Run: func(ctx context.Context, _ []string) error {
			return s.started("login", s.session.Unauthenticated().StartLogin(ctx))
		},
	})
	s.commands.register(&Command{
		Name:        "tokens",
		Aliases:     []string{"whoami"},
		Description: "Show the current tokens and the ID token subject",
		Run:         s.runTokens,
	})
	s.commands.register(&Command{
		Name:        "refresh",
		Description: "Refresh the access token",
		Run: func(ctx context.Context, _ []string) error {
			return s.started("refresh", s.session.Authenticated().RefreshAccessToken(ctx))
		},
	})
	s.commands.register(&Command{
		Name:        "logout",
		Description: "Log out of the provider and drop the tokens",
		Run: func(context.Context, []string) error {
			return s.started("logout", s.session.Authenticated().StartLogout())
		},
	})
	s.commands.register(&Command{
		Name:        "status",
		Description: "Show the session state and the client registration",
		Run:         s.runStatus,
	})
	s.commands.register(&Command{
		Name:        "help",
		Aliases:     []string{"?"},
		Description: "List commands",
		Run:         s.runHelp,
	})
	s.commands.register(&Command{
		Name:        "exit",
		Aliases:     []string{"quit"},
		Description: "Leave the shell",
		Run:         func(context.Context, []string) error { return errExit },
	})
}

// started turns the synchronous result of a flow Start call into user
// feedback. The outcome itself arrives later as an event.
func (s *Shell) started(action string, err error) error {
	if errors.Is(err, flow.ErrInvalidState) {
		return fmt.Errorf("cannot %s while %s", action, s.session.State())
	}
	return err
}

// executeCommand parses and runs one input line.
func (s *Shell) executeCommand(ctx context.Context, input string) error {
	parts := strings.Fields(input)
	if len(parts) == 0 {
		return nil
	}

	cmd, ok := s.commands.get(strings.ToLower(parts[0]))
	if !ok {
		return fmt.Errorf("unknown command: %s. Type 'help' for available commands", parts[0])
	}
	return cmd.Run(ctx, parts[1:])
}

func (s *Shell) runHelp(context.Context, []string) error {
	fmt.Fprintln(s.out, "Available commands:")
	for _, name := range s.commands.names() {
		cmd := s.commands.commands[name]
		fmt.Fprintf(s.out, "  %-10s %s\n", name, cmd.Description)
	}
	return nil
}

func (s *Shell) runStatus(context.Context, []string) error {
	state := s.session.State()
	fmt.Fprintf(s.out, "State: %s\n", state)

	snapshot := s.session.Store().Snapshot()
	RenderRegistration(s.out, snapshot.Registration)

	if details, ok := s.session.Current().LastError(); ok {
		printError(s.out, details)
	}
	return nil
}

func (s *Shell) runTokens(context.Context, []string) error {
	view, err := s.session.Authenticated().ProcessTokens()
	if errors.Is(err, flow.ErrInvalidState) {
		return fmt.Errorf("no tokens while %s", s.session.State())
	}
	if err != nil {
		return err
	}

	RenderTokens(s.out, view)
	if details, ok := s.session.Authenticated().LastError(); ok {
		printError(s.out, details)
	}
	return nil
}
