package shell

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"dcrclient/internal/flow"
	pkgoauth "dcrclient/pkg/oauth"
	dcrstrings "dcrclient/pkg/strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

const maxClaimValueLength = 60

func newTable(w io.Writer) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleRounded)
	return t
}

func header(titles ...string) table.Row {
	row := make(table.Row, len(titles))
	for i, title := range titles {
		row[i] = text.FgHiCyan.Sprint(title)
	}
	return row
}

// RenderRegistration prints reg as a key/value table. The client secret
// is never shown, only whether one exists.
func RenderRegistration(w io.Writer, reg *pkgoauth.ClientRegistration) {
	if reg == nil {
		fmt.Fprintf(w, "%s\n", text.FgYellow.Sprint("No client is registered. Run 'register' first."))
		return
	}

	t := newTable(w)
	t.AppendHeader(header("REGISTRATION", "VALUE"))
	t.AppendRow(table.Row{"Client ID", reg.ClientID})
	t.AppendRow(table.Row{"Client secret", yesNo(reg.HasSecret())})
	if expiry := reg.SecretExpiresAt(); !expiry.IsZero() {
		t.AppendRow(table.Row{"Secret expires", expiry.Format(time.RFC3339)})
	}
	t.AppendRow(table.Row{"Issuer", reg.Issuer})
	t.AppendRow(table.Row{"Redirect URIs", strings.Join(reg.RedirectURIs, "\n")})
	if len(reg.PostLogoutRedirectURIs) > 0 {
		t.AppendRow(table.Row{"Post-logout URIs", strings.Join(reg.PostLogoutRedirectURIs, "\n")})
	}
	t.AppendRow(table.Row{"Scope", reg.Scope})
	t.Render()
}

// RenderTokens prints which tokens are held, when the access token
// expires and the ID token claims. Token values are never shown.
func RenderTokens(w io.Writer, view flow.TokenView) {
	t := newTable(w)
	t.AppendHeader(header("TOKEN", "VALUE"))
	t.AppendRow(table.Row{"Access token", yesNo(view.HasAccessToken)})
	t.AppendRow(table.Row{"Refresh token", yesNo(view.HasRefreshToken)})
	t.AppendRow(table.Row{"ID token", yesNo(view.HasIDToken)})
	t.AppendRow(table.Row{"Expires", formatExpiry(view.ExpiresAt)})
	if view.Expired {
		t.AppendRow(table.Row{"", text.FgYellow.Sprint("Run 'refresh' to get a new access token")})
	}
	if view.Scope != "" {
		t.AppendRow(table.Row{"Scope", view.Scope})
	}
	if view.Subject != "" {
		t.AppendRow(table.Row{"Subject", text.FgHiGreen.Sprint(view.Subject)})
	}
	t.Render()

	if len(view.Claims) == 0 {
		return
	}

	keys := make([]string, 0, len(view.Claims))
	for key := range view.Claims {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	claims := newTable(w)
	claims.AppendHeader(header("CLAIM", "VALUE"))
	for _, key := range keys {
		value := dcrstrings.Truncate(fmt.Sprintf("%v", view.Claims[key]), maxClaimValueLength)
		claims.AppendRow(table.Row{key, value})
	}
	claims.Render()
}

func printError(w io.Writer, details flow.ErrorDetails) {
	fmt.Fprintf(w, "%s %s\n", text.FgRed.Sprint(details.Title+":"), details.Description)
}

func yesNo(v bool) string {
	if v {
		return text.FgGreen.Sprint("yes")
	}
	return text.FgYellow.Sprint("no")
}

func formatExpiry(t time.Time) string {
	if t.IsZero() {
		return "unknown"
	}
	remaining := time.Until(t).Round(time.Second)
	if remaining <= 0 {
		return text.FgRed.Sprintf("%s (expired)", t.Format(time.RFC3339))
	}
	return fmt.Sprintf("%s (in %s)", t.Format(time.RFC3339), remaining)
}
