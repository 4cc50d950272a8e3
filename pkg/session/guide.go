package session

import (
	"fmt"
	"io"
	"strings"
)

// PrintCookieGuide explains how to copy the session cookie out of a browser
func PrintCookieGuide(w io.Writer) {
	rule := strings.Repeat("=", 72)
	fmt.Fprintln(w, rule)
	fmt.Fprintln(w, "REDDIT SESSION COOKIE")
	fmt.Fprintln(w, rule)
	fmt.Fprintln(w)
	fmt.Fprintln(w, "A session is optional: public profiles download without one.")
	fmt.Fprintln(w, "Use one when Reddit starts answering 403 or 429 to anonymous requests.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "1. Log in at https://www.reddit.com in your browser.")
	fmt.Fprintln(w, "2. Open the developer tools (F12) and find the cookie storage:")
	fmt.Fprintln(w, "     Chrome/Edge: Application > Cookies > https://www.reddit.com")
	fmt.Fprintln(w, "     Firefox:     Storage > Cookies > https://www.reddit.com")
	fmt.Fprintf(w, "3. Copy the value of the %q cookie.\n", CookieName)
	fmt.Fprintln(w, "4. Paste it when prompted, or set it for a single shell:")
	fmt.Fprintf(w, "     export %s=<value>\n", EnvCookie)
	fmt.Fprintln(w)
	fmt.Fprintln(w, "A full Cookie header (name=value; name=value) is accepted as well.")
	fmt.Fprintln(w, rule)
}
