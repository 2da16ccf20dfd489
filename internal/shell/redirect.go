package shell

import (
	"context"
	"io"
	"time"

	"dcrclient/internal/oauth"

	"github.com/briandowns/spinner"
	"github.com/jedib0t/go-pretty/v6/text"
)

// Redirector runs the browser step of a redirect and reports how it ended.
// *oauth.BrowserRedirector implements it.
type Redirector interface {
	Redirect(ctx context.Context, url, redirectURI string) oauth.RedirectResult
}

// spinnerRedirector shows a spinner while the wrapped Redirector waits for
// the browser to come back.
type spinnerRedirector struct {
	next Redirector
	out  io.Writer
}

// NewSpinnerRedirector wraps next with a waiting indicator written to out.
func NewSpinnerRedirector(next Redirector, out io.Writer) Redirector {
	return &spinnerRedirector{next: next, out: out}
}

func (r *spinnerRedirector) Redirect(ctx context.Context, url, redirectURI string) oauth.RedirectResult {
	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriter(r.out))
	s.Suffix = " Waiting for the browser to return..."
	s.Start()

	result := r.next.Redirect(ctx, url, redirectURI)

	if result.Cancelled {
		s.FinalMSG = text.FgYellow.Sprint("Browser step did not complete") + "\n"
	} else {
		s.FinalMSG = text.FgGreen.Sprint("Browser step complete") + "\n"
	}
	s.Stop()
	return result
}
