package shell

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"dcrclient/internal/flow"
	"dcrclient/internal/oauth"
	"dcrclient/pkg/logging"

	"github.com/chzyer/readline"
	"github.com/jedib0t/go-pretty/v6/text"
)

const (
	promptChevron = "»"
	historyFile   = ".dcrclient_history"
)

// Shell is the interactive front end of a flow.Session.
type Shell struct {
	session    *flow.Session
	redirector Redirector
	out        io.Writer
	historyDir string

	commands *registry
	rl       *readline.Instance
	outputMu sync.Mutex
	wg       sync.WaitGroup
}

// Option configures a Shell.
type Option func(*Shell)

// WithRedirector replaces the browser redirector.
func WithRedirector(r Redirector) Option {
	return func(s *Shell) { s.redirector = r }
}

// WithOutput sets where output goes when no terminal is attached.
func WithOutput(w io.Writer) Option {
	return func(s *Shell) { s.out = w }
}

// WithHistoryDir sets the directory for the command history file. Empty
// disables history.
func WithHistoryDir(dir string) Option {
	return func(s *Shell) { s.historyDir = dir }
}

// New creates a shell for session. By default redirects open the system
// browser with a spinner while waiting.
func New(session *flow.Session, opts ...Option) *Shell {
	s := &Shell{
		session:  session,
		out:      os.Stdout,
		commands: newRegistry(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.redirector == nil {
		s.redirector = NewSpinnerRedirector(&oauth.BrowserRedirector{}, s.out)
	}
	s.registerCommands()
	return s
}

// Run reads commands until exit, EOF or ctx cancellation. The session must
// already be running.
func (s *Shell) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer func() {
		cancel()
		s.wg.Wait()
	}()

	cfg := &readline.Config{
		Prompt:            s.buildPrompt(),
		AutoComplete:      s.createCompleter(),
		InterruptPrompt:   "^C",
		EOFPrompt:         "exit",
		HistorySearchFold: true,
	}
	if s.historyDir != "" {
		cfg.HistoryFile = filepath.Join(s.historyDir, historyFile)
	}

	rl, err := readline.NewEx(cfg)
	if err != nil {
		return fmt.Errorf("failed to create readline instance: %w", err)
	}
	defer rl.Close()
	s.rl = rl
	s.out = rl.Stdout()

	s.wg.Add(1)
	go s.pumpEvents(ctx)

	fmt.Fprintf(s.out, "dcrclient shell (%s). Type 'help' for available commands.\n", s.session.State())

	for {
		select {
		case <-ctx.Done():
			logging.Debug("Shell", "Shell shutting down")
			return nil
		default:
		}

		rl.SetPrompt(s.buildPrompt())
		line, err := rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			continue
		} else if errors.Is(err, io.EOF) {
			fmt.Fprintln(s.out, "Goodbye!")
			return nil
		} else if err != nil {
			return fmt.Errorf("readline error: %w", err)
		}

		input := strings.TrimSpace(line)
		if input == "" {
			continue
		}

		if err := s.executeCommand(ctx, input); err != nil {
			if errors.Is(err, errExit) {
				fmt.Fprintln(s.out, "Goodbye!")
				return nil
			}
			fmt.Fprintf(s.out, "%s %v\n", text.FgRed.Sprint("Error:"), err)
		}
	}
}

// buildPrompt shows the session state while an operation is in flight.
func (s *Shell) buildPrompt() string {
	state := s.session.State()
	label := state.String()
	if state.Busy() {
		label = text.FgYellow.Sprint(label)
	}
	return fmt.Sprintf("dcrclient [%s] %s ", label, promptChevron)
}

func (s *Shell) createCompleter() readline.AutoCompleter {
	items := make([]readline.PrefixCompleterInterface, 0, len(s.commands.commands))
	for _, name := range s.commands.names() {
		items = append(items, readline.PcItem(name))
	}
	return readline.NewPrefixCompleter(items...)
}

// beginOutput clears the input line so event output does not mix with
// what the user is typing.
func (s *Shell) beginOutput() {
	s.outputMu.Lock()
	if s.rl != nil {
		_, _ = s.rl.Stdout().Write([]byte("\r\033[K"))
	}
}

func (s *Shell) endOutput() {
	if s.rl != nil {
		s.rl.SetPrompt(s.buildPrompt())
		s.rl.Refresh()
	}
	s.outputMu.Unlock()
}
