package render

import (
	"strings"
	"testing"
)

func TestAppendAccumulatesInOrder(t *testing.T) {
	r := New()

	steps := []struct {
		fragment string
		want     string
	}{
		{"He", "He"},
		{"llo", "Hello"},
		{" world", "Hello world"},
	}

	for _, step := range steps {
		r.Append(step.fragment)
		if got := r.Plain(); got != step.want {
			t.Errorf("after %q: buffer = %q, want %q", step.fragment, got, step.want)
		}
		if !strings.Contains(r.HTML(), step.want) {
			t.Errorf("after %q: HTML does not contain %q", step.fragment, step.want)
		}
	}
}

func TestFullRerenderResolvesStreamedMarkup(t *testing.T) {
	r := New()

	// A heading split across fragments only renders correctly because the
	// whole buffer is reinterpreted on every append.
	r.Append("# Tit")
	r.Append("le\n")
	r.Append("body text")

	html := r.HTML()
	if !strings.Contains(html, "<h1>Title</h1>") {
		t.Errorf("expected rendered heading, got: %s", html)
	}
	if !strings.Contains(html, "body text") {
		t.Errorf("expected body text in output, got: %s", html)
	}
	if r.Plain() != "# Title\nbody text" {
		t.Errorf("Plain() = %q", r.Plain())
	}
}

func TestRenderErrorKeepsPartialContent(t *testing.T) {
	r := New()
	r.Append("some partial content")

	r.RenderError("network unreachable")

	if !r.Failed() {
		t.Error("Failed() should report true after RenderError")
	}
	if r.Plain() != "some partial content" {
		t.Errorf("delivered fragments must survive the error, got %q", r.Plain())
	}
	html := r.HTML()
	if !strings.Contains(html, "some partial content") {
		t.Errorf("partial content missing from error document: %s", html)
	}
	if !strings.Contains(html, "Error:") || !strings.Contains(html, "network unreachable") {
		t.Errorf("error document missing fixed-format message: %s", html)
	}
	if strings.Index(html, "some partial content") > strings.Index(html, "Error:") {
		t.Error("error indicator must follow the partial content")
	}
}

func TestRenderErrorWithoutContent(t *testing.T) {
	r := New()
	r.RenderError("timeout")

	if !strings.Contains(r.HTML(), "Error:") {
		t.Errorf("error document missing message: %s", r.HTML())
	}
	if r.ErrorText() != "timeout" {
		t.Errorf("ErrorText() = %q", r.ErrorText())
	}
}

func TestRenderErrorEscapesMessage(t *testing.T) {
	r := New()
	r.RenderError(`bad response: <script>alert("x")</script>`)

	if strings.Contains(r.HTML(), "<script>") {
		t.Error("error message must be HTML-escaped")
	}
}

func TestResetClearsEverything(t *testing.T) {
	r := New()
	r.Append("old session text")
	r.RenderError("old error")

	r.Reset()

	if !r.Empty() {
		t.Error("renderer should be empty after Reset")
	}
	if r.HTML() != "" || r.Plain() != "" || r.Failed() {
		t.Error("Reset must clear document, buffer and failure flag")
	}
}

func TestAppendAfterErrorStartsFresh(t *testing.T) {
	r := New()
	r.RenderError("boom")
	r.Append("new text")

	if r.Failed() {
		t.Error("a new fragment clears the failure state")
	}
	if !strings.Contains(r.HTML(), "new text") {
		t.Errorf("HTML missing new fragment: %s", r.HTML())
	}
}

func TestTableExtension(t *testing.T) {
	r := New()
	r.Append("| a | b |\n|---|---|\n| 1 | 2 |\n")

	if !strings.Contains(r.HTML(), "<table>") {
		t.Errorf("expected table rendering, got: %s", r.HTML())
	}
}
