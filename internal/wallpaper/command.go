package wallpaper

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"os/exec"
	"path/filepath"
	"strings"

	"apod/internal/services"
)

var commandContext = exec.CommandContext

// CommandSetter runs an external program to change the background.
type CommandSetter struct {
	template []string
}

// NewCommandSetter builds a setter from a command template.
func NewCommandSetter(template []string) *CommandSetter {
	return &CommandSetter{template: append([]string(nil), template...)}
}

// Set expands the template for path and runs it.
func (c *CommandSetter) Set(ctx context.Context, path string) error {
	args := ExpandTemplate(c.template, path)
	if len(args) == 0 {
		return services.Wrap(services.ErrUnsupported, "wallpaper", "set", "no wallpaper command configured for this platform", nil)
	}

	var stderr bytes.Buffer
	cmd := commandContext(ctx, args[0], args[1:]...) //nolint:gosec
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		detail := fmt.Sprintf("run %s", args[0])
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			detail += ": " + msg
		}
		return services.Wrap(services.ErrExternalTool, "wallpaper", "set", detail, err)
	}
	return nil
}

// ExpandTemplate substitutes {path} and {uri} in every template element.
// Empty elements are dropped.
func ExpandTemplate(template []string, path string) []string {
	uri := fileURI(path)
	out := make([]string, 0, len(template))
	for _, part := range template {
		part = strings.ReplaceAll(part, "{path}", path)
		part = strings.ReplaceAll(part, "{uri}", uri)
		if strings.TrimSpace(part) == "" {
			continue
		}
		out = append(out, part)
	}
	return out
}

func fileURI(path string) string {
	u := url.URL{Scheme: "file", Path: filepath.ToSlash(path)}
	if !strings.HasPrefix(u.Path, "/") {
		u.Path = "/" + u.Path
	}
	return u.String()
}
