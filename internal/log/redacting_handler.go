package log

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"regexp"
	"strings"
	"unicode/utf8"
)

// credentialKeys contains attribute keys whose values are always masked.
var credentialKeys = map[string]bool{
	"authorization":       true,
	"proxy-authorization": true,
	"cookie":              true,
	"x-api-key":           true,
	"auth_key":            true,
	"authkey":             true,
	"api_key":             true,
	"apikey":              true,
	"access_key":          true,
	"accesskey":           true,
	"secret_key":          true,
	"secretkey":           true,
	"access_token":        true,
	"refresh_token":       true,
	"password":            true,
	"client_secret":       true,
}

// contentKeys contains attribute keys that carry document text.
// Their values are replaced with a length summary instead of being masked
// outright, so logs still show how much text moved through a step.
var contentKeys = map[string]bool{
	"text":          true,
	"chunk_text":    true,
	"masked_text":   true,
	"paragraph":     true,
	"fallback_text": true,
	"output":        true,
	"body":          true,
}

// credentialPatterns match values that look like secrets regardless of key.
var credentialPatterns = []*regexp.Regexp{
	// JWT tokens
	regexp.MustCompile(`^eyJ[A-Za-z0-9_-]*\.eyJ[A-Za-z0-9_-]*\.[A-Za-z0-9_-]*$`),

	// Bearer tokens
	regexp.MustCompile(`(?i)^bearer\s+.+`),

	// Basic auth
	regexp.MustCompile(`(?i)^basic\s+[A-Za-z0-9+/=]+$`),

	// Long opaque keys
	regexp.MustCompile(`^[a-zA-Z0-9]{32,}$`),

	// AWS-style access keys (MinIO uses the same shape)
	regexp.MustCompile(`^AKIA[0-9A-Z]{16}$`),
}

// MaskValue is the string used to replace credential values.
const MaskValue = "***REDACTED***"

// RedactingHandler wraps an slog.Handler and rewrites attributes that carry
// credentials or document text before passing records on.
//
// Design decision: We use a handler wrapper rather than a custom logger so
// every component keeps using plain *slog.Logger and works with any
// underlying handler (text, JSON).
type RedactingHandler struct {
	handler slog.Handler
}

// NewRedactingHandler creates a new RedactingHandler wrapping the given handler.
// If handler is nil, slog.Default().Handler() is used.
func NewRedactingHandler(handler slog.Handler) *RedactingHandler {
	if handler == nil {
		handler = slog.Default().Handler()
	}
	return &RedactingHandler{handler: handler}
}

// Enabled delegates to the underlying handler.
func (h *RedactingHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.handler.Enabled(ctx, level)
}

// Handle redacts the record's attributes and passes it on.
func (h *RedactingHandler) Handle(ctx context.Context, r slog.Record) error {
	redacted := slog.NewRecord(r.Time, r.Level, r.Message, r.PC)
	r.Attrs(func(a slog.Attr) bool {
		redacted.AddAttrs(redactAttr(a))
		return true
	})
	return h.handler.Handle(ctx, redacted)
}

// WithAttrs returns a new handler with the given attributes redacted and added.
func (h *RedactingHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	redacted := make([]slog.Attr, len(attrs))
	for i, a := range attrs {
		redacted[i] = redactAttr(a)
	}
	return &RedactingHandler{handler: h.handler.WithAttrs(redacted)}
}

// WithGroup returns a new handler with the given group name.
func (h *RedactingHandler) WithGroup(name string) slog.Handler {
	return &RedactingHandler{handler: h.handler.WithGroup(name)}
}

// redactAttr rewrites a single attribute, recursing into groups.
func redactAttr(a slog.Attr) slog.Attr {
	a.Value = a.Value.Resolve()

	if a.Value.Kind() == slog.KindGroup {
		attrs := a.Value.Group()
		redacted := make([]slog.Attr, len(attrs))
		for i, ga := range attrs {
			redacted[i] = redactAttr(ga)
		}
		return slog.Attr{Key: a.Key, Value: slog.GroupValue(redacted...)}
	}

	key := strings.ToLower(a.Key)
	if credentialKeys[key] || containsCredentialKeyword(key) {
		return slog.String(a.Key, MaskValue)
	}
	if contentKeys[key] {
		return slog.String(a.Key, Summarize(a.Value.String()))
	}

	if a.Value.Kind() == slog.KindString && isCredentialValue(a.Value.String()) {
		return slog.String(a.Key, MaskValue)
	}
	return a
}

// Summarize replaces text with its length so logs never carry document content.
func Summarize(text string) string {
	if text == "" {
		return "[empty]"
	}
	return fmt.Sprintf("[%d chars redacted]", utf8.RuneCountInString(text))
}

// containsCredentialKeyword checks if the key contains a credential keyword.
// The bare "key" keyword is left out because it matches harmless keys such as
// "object_key".
func containsCredentialKeyword(key string) bool {
	for _, keyword := range []string{"password", "secret", "token", "credential", "auth_"} {
		if strings.Contains(key, keyword) {
			return true
		}
	}
	return false
}

func isCredentialValue(value string) bool {
	for _, pattern := range credentialPatterns {
		if pattern.MatchString(value) {
			return true
		}
	}
	return false
}

// NewRedactingLogger creates a text slog.Logger that redacts credentials
// and document text.
// verbose selects slog.LevelDebug; otherwise only warnings and errors are logged.
func NewRedactingLogger(w io.Writer, verbose bool) *slog.Logger {
	return slog.New(NewRedactingHandler(slog.NewTextHandler(w, handlerOptions(verbose))))
}

// NewRedactingJSONLogger is NewRedactingLogger with JSON output, for log
// aggregation.
func NewRedactingJSONLogger(w io.Writer, verbose bool) *slog.Logger {
	return slog.New(NewRedactingHandler(slog.NewJSONHandler(w, handlerOptions(verbose))))
}

func handlerOptions(verbose bool) *slog.HandlerOptions {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return &slog.HandlerOptions{Level: level}
}
