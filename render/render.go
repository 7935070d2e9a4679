// Package render accumulates streamed markdown fragments and derives a styled
// HTML document from the full buffer on every append. Re-rendering everything
// per increment is deliberate: partially streamed markup (an unterminated list
// or code fence) can only be resolved correctly once more text has arrived.
package render

import (
	"bytes"
	"fmt"
	"html"
	"log"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

const themedTemplate = `<html>
<head>
<meta charset="utf-8">
<style>
    body { color: #ffffff; background: transparent; font-size: 18px; text-align: center; }
    a { color: #9cd3ff; }
    code, pre { background: rgba(255,255,255,0.08); border-radius: 6px; padding: 0.2em 0.4em; }
    pre { padding: 12px; overflow-x: auto; }
    table { border-collapse: collapse; width: 100%%; }
    th, td { border: 1px solid rgba(255,255,255,0.25); padding: 6px 8px; }
    h1, h2, h3, h4 { margin-top: 0.6em; }
    ul, ol { padding-left: 1.4em; }
</style>
</head>
<body>%s</body>
</html>`

// Renderer owns the stream buffer for one session. Fragments are concatenated
// in append order, never reordered, never truncated.
type Renderer struct {
	fragments []string
	md        goldmark.Markdown
	htmlDoc   string
	failed    bool
	errMsg    string
}

func New() *Renderer {
	return &Renderer{
		md: goldmark.New(
			goldmark.WithExtensions(extension.Table, extension.Strikethrough),
		),
	}
}

// Append adds one streamed fragment and recomputes the rendered document from
// the complete buffer.
func (r *Renderer) Append(fragment string) {
	r.fragments = append(r.fragments, fragment)
	r.rerender()
}

// RenderError renders a fixed-format error message after whatever content was
// already streamed. Delivered fragments are never retracted; a failure mid
// stream leaves the partial translation visible with the error below it.
func (r *Renderer) RenderError(msg string) {
	r.failed = true
	r.errMsg = msg

	var body bytes.Buffer
	if len(r.fragments) > 0 {
		if err := r.md.Convert([]byte(r.Plain()), &body); err != nil {
			body.Reset()
			body.WriteString("<pre>" + html.EscapeString(r.Plain()) + "</pre>")
		}
	}
	fmt.Fprintf(&body, "<p><strong>Error:</strong> %s</p>", html.EscapeString(msg))
	r.htmlDoc = fmt.Sprintf(themedTemplate, body.String())
}

// Reset clears the buffer at the start of a new streaming phase.
func (r *Renderer) Reset() {
	r.fragments = nil
	r.htmlDoc = ""
	r.failed = false
	r.errMsg = ""
}

// HTML returns the themed document for the current buffer, or the error
// document after RenderError.
func (r *Renderer) HTML() string { return r.htmlDoc }

// Plain returns the raw accumulated markdown text, used for clipboard
// delivery and for surfaces that cannot display HTML.
func (r *Renderer) Plain() string { return strings.Join(r.fragments, "") }

// Failed reports whether the last rendered document is an error message.
func (r *Renderer) Failed() bool { return r.failed }

// ErrorText returns the message passed to RenderError, empty otherwise.
func (r *Renderer) ErrorText() string { return r.errMsg }

// Empty reports whether no fragment has arrived yet.
func (r *Renderer) Empty() bool { return len(r.fragments) == 0 && !r.failed }

func (r *Renderer) rerender() {
	r.failed = false
	r.errMsg = ""

	var body bytes.Buffer
	if err := r.md.Convert([]byte(r.Plain()), &body); err != nil {
		// Conversion failure must not lose streamed text; fall back to the
		// escaped raw buffer.
		log.Printf("Render: markdown conversion failed: %v", err)
		r.htmlDoc = fmt.Sprintf(themedTemplate,
			"<pre>"+html.EscapeString(r.Plain())+"</pre>")
		return
	}
	r.htmlDoc = fmt.Sprintf(themedTemplate, body.String())
}
