package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"

	"github.com/dannyswat/xmldelta"
)

// newLogger builds the command's logger. Flags take precedence over the configuration file.
func newLogger(w io.Writer, cfg LogConfig, level, format string) (*slog.Logger, error) {
	if level == "" {
		level = cfg.Level
	}
	if format == "" {
		format = cfg.Format
	}

	var slogLevel slog.Level
	switch strings.ToLower(level) {
	case "debug":
		slogLevel = slog.LevelDebug
	case "", "info":
		slogLevel = slog.LevelInfo
	case "warn", "warning":
		slogLevel = slog.LevelWarn
	case "error":
		slogLevel = slog.LevelError
	default:
		return nil, fmt.Errorf("unknown log level %q", level)
	}

	opts := &slog.HandlerOptions{
		Level: slogLevel,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey {
				return slog.String(slog.TimeKey, a.Value.Time().Format(time.RFC3339))
			}
			return a
		},
	}
	switch strings.ToLower(format) {
	case "", "text":
		return slog.New(slog.NewTextHandler(w, opts)), nil
	case "json":
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	default:
		return nil, fmt.Errorf("unknown log format %q", format)
	}
}

// printer writes documents and conflicts to the command's output.
type printer struct {
	w      io.Writer
	pretty bool
	ns     xmldelta.Namespaces

	deleted *color.Color
	changed *color.Color
	moved   *color.Color
	header  *color.Color
}

func newPrinter(w io.Writer, mode string, pretty bool, ns xmldelta.Namespaces) *printer {
	p := &printer{
		w:       w,
		pretty:  pretty,
		ns:      ns,
		deleted: color.New(color.FgRed),
		changed: color.New(color.FgGreen),
		moved:   color.New(color.FgYellow),
		header:  color.New(color.FgCyan, color.Bold),
	}
	enabled := mode == "always"
	if mode == "auto" {
		if f, ok := w.(*os.File); ok {
			enabled = isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
		}
	}
	for _, c := range []*color.Color{p.deleted, p.changed, p.moved, p.header} {
		if enabled {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return p
}

// document prints text. With pretty set, a parseable document is printed one element per line
// and patch instructions are colored.
func (p *printer) document(text string) error {
	if !p.pretty {
		_, err := fmt.Fprintln(p.w, text)
		return err
	}
	el, err := xmldelta.Parse(text)
	if err != nil {
		_, err := fmt.Fprintln(p.w, text)
		return err
	}
	for _, line := range strings.Split(xmldelta.RenderIndent(el, "  "), "\n") {
		if _, err := fmt.Fprintln(p.w, p.colorLine(line)); err != nil {
			return err
		}
	}
	return nil
}

func (p *printer) colorLine(line string) string {
	switch {
	case strings.Contains(line, " "+p.ns.Patch+`:d="1"`):
		return p.deleted.Sprint(line)
	case strings.Contains(line, " "+p.ns.Patch+":before=") || strings.Contains(line, " "+p.ns.Patch+":after="):
		return p.moved.Sprint(line)
	case strings.Contains(line, " "+p.ns.Set+":") || strings.Contains(line, " "+p.ns.Patch+":remove="):
		return p.changed.Sprint(line)
	}
	return line
}

func (p *printer) conflicts(conflicts []xmldelta.Conflict) error {
	for _, c := range conflicts {
		_, err := fmt.Fprintf(p.w, "%s %s: %s\n",
			p.header.Sprint(c.Type), strings.Join(c.Path, "/"), c.Description)
		if err != nil {
			return err
		}
	}
	return nil
}
