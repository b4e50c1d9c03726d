// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package log

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math/big"
	"os"
	"reflect"

	ethlog "github.com/ethereum/go-ethereum/log"
	"github.com/mattn/go-isatty"
)

// Format selects the record encoding of a handler.
type Format string

const (
	FormatTerminal Format = "terminal"
	FormatJSON     Format = "json"
	FormatLogfmt   Format = "logfmt"
)

type discardHandler struct{}

// DiscardHandler returns a no-op handler
func DiscardHandler() slog.Handler {
	return &discardHandler{}
}

func (h *discardHandler) Handle(_ context.Context, _ slog.Record) error { return nil }

func (h *discardHandler) Enabled(_ context.Context, _ slog.Level) bool { return false }

func (h *discardHandler) WithGroup(_ string) slog.Handler { return h }

func (h *discardHandler) WithAttrs(_ []slog.Attr) slog.Handler { return h }

// NewHandler returns a handler writing records at or above level in the given format.
// Passing a *slog.LevelVar lets the level change at runtime.
// Terminal output is colored only when w is a terminal.
func NewHandler(w io.Writer, format Format, level slog.Leveler) slog.Handler {
	switch format {
	case FormatJSON:
		return slog.NewJSONHandler(w, &slog.HandlerOptions{
			ReplaceAttr: replaceJSON,
			Level:       level,
		})
	case FormatLogfmt:
		return slog.NewTextHandler(w, &slog.HandlerOptions{
			ReplaceAttr: replaceLogfmt,
			Level:       level,
		})
	default:
		// the terminal handler keeps a fixed level, so it formats everything and
		// levelHandler does the filtering
		return &levelHandler{
			inner: ethlog.NewTerminalHandlerWithLevel(w, LevelTrace, useColor(w)),
			level: level,
		}
	}
}

// levelHandler filters records by a level that may change after creation.
type levelHandler struct {
	inner slog.Handler
	level slog.Leveler
}

func (h *levelHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

func (h *levelHandler) Handle(ctx context.Context, r slog.Record) error {
	return h.inner.Handle(ctx, r)
}

func (h *levelHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &levelHandler{inner: h.inner.WithAttrs(attrs), level: h.level}
}

func (h *levelHandler) WithGroup(name string) slog.Handler {
	return &levelHandler{inner: h.inner.WithGroup(name), level: h.level}
}

const timeFormat = "2006-01-02T15:04:05-0700"

func replaceLogfmt(_ []string, attr slog.Attr) slog.Attr {
	return replaceAttr(attr, true)
}

func replaceJSON(_ []string, attr slog.Attr) slog.Attr {
	return replaceAttr(attr, false)
}

func replaceAttr(attr slog.Attr, logfmt bool) slog.Attr {
	switch attr.Key {
	case slog.TimeKey:
		if attr.Value.Kind() == slog.KindTime {
			if logfmt {
				return slog.String("t", attr.Value.Time().Format(timeFormat))
			}
			return slog.Attr{Key: "t", Value: attr.Value}
		}
	case slog.LevelKey:
		if l, ok := attr.Value.Any().(slog.Level); ok {
			return slog.String("lvl", ethlog.LevelString(l))
		}
	}

	switch v := attr.Value.Any().(type) {
	case *big.Int:
		if v == nil {
			attr.Value = slog.StringValue("<nil>")
		} else {
			attr.Value = slog.StringValue(v.String())
		}
	case fmt.Stringer:
		if v == nil || (reflect.ValueOf(v).Kind() == reflect.Pointer && reflect.ValueOf(v).IsNil()) {
			attr.Value = slog.StringValue("<nil>")
		} else {
			attr.Value = slog.StringValue(v.String())
		}
	}
	return attr
}

func useColor(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// ModuleHandler applies a dedicated level to loggers created with a matching "pkg" context,
// e.g. to raise verbosity of the rewards engine only.
type ModuleHandler struct {
	inner   slog.Handler
	modules map[string]slog.Level
	level   *slog.Level
}

// NewModuleHandler wraps inner. Records of modules not listed in modules are passed through
// to inner unchanged.
func NewModuleHandler(inner slog.Handler, modules map[string]slog.Level) *ModuleHandler {
	return &ModuleHandler{inner: inner, modules: modules}
}

func (h *ModuleHandler) Enabled(ctx context.Context, level slog.Level) bool {
	if h.level != nil {
		return level >= *h.level
	}
	return h.inner.Enabled(ctx, level)
}

func (h *ModuleHandler) Handle(ctx context.Context, r slog.Record) error {
	return h.inner.Handle(ctx, r)
}

func (h *ModuleHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := &ModuleHandler{inner: h.inner.WithAttrs(attrs), modules: h.modules, level: h.level}
	for _, attr := range attrs {
		if attr.Key != "pkg" {
			continue
		}
		if lvl, ok := h.modules[attr.Value.String()]; ok {
			next.level = &lvl
		}
	}
	return next
}

func (h *ModuleHandler) WithGroup(name string) slog.Handler {
	return &ModuleHandler{inner: h.inner.WithGroup(name), modules: h.modules, level: h.level}
}
