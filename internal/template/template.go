// Copyright (C) 2026 Noldarim
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package template implements the `${VAR}` / `${VAR:-default}` /
// `${VAR|filter:arg}` substitution grammar used to rewrite scalar strings in
// a parsed configuration document before schema validation runs. This is
// deliberately not text/template: the grammar needs default-value fallback
// and typed-scalar results that text/template's mini-language does not
// express directly.
package template

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/oceanrun/oceanrun/internal/errs"
)

// Expand rewrites every scalar string in doc, resolving `${...}` expressions
// against env. The returned tree has the same shape as doc; strings that are
// exactly one template expression are replaced by the expression's result,
// which is a time.Time when the last filter is as_datetime or shift and a
// string otherwise (numeric and boolean values are not converted to int64,
// float64 or bool); strings with embedded expressions are replaced by their
// fully-substituted string form.
func Expand(doc any, env map[string]string) (any, error) {
	return expandValue(doc, env, nil)
}

func appendPath(path []string, elem string) []string {
	out := make([]string, len(path)+1)
	copy(out, path)
	out[len(path)] = elem
	return out
}

func expandValue(v any, env map[string]string, path []string) (any, error) {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			expanded, err := expandValue(val, env, appendPath(path, k))
			if err != nil {
				return nil, err
			}
			out[k] = expanded
		}
		return out, nil
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			expanded, err := expandValue(val, env, appendPath(path, fmt.Sprintf("[%d]", i)))
			if err != nil {
				return nil, err
			}
			out[i] = expanded
		}
		return out, nil
	case string:
		return expandString(t, env, path)
	default:
		return v, nil
	}
}

// expandString evaluates all `${...}` spans in s. When s consists of exactly
// one such span with nothing else around it, the expression's typed result
// is returned directly; otherwise every span is stringified and spliced back
// into the surrounding text.
func expandString(s string, env map[string]string, path []string) (any, error) {
	spans, err := scan(s)
	if err != nil {
		return nil, err
	}
	if len(spans) == 0 {
		return s, nil
	}

	if len(spans) == 1 && spans[0].start == 0 && spans[0].end == len(s) {
		return evalExpr(spans[0].expr, env, path)
	}

	var b strings.Builder
	last := 0
	for _, sp := range spans {
		b.WriteString(s[last:sp.start])
		val, err := evalExpr(sp.expr, env, path)
		if err != nil {
			return nil, err
		}
		b.WriteString(stringify(val))
		last = sp.end
	}
	b.WriteString(s[last:])
	return b.String(), nil
}

type span struct {
	start, end int
	expr       string
}

// scan finds all top-level `${...}` spans in s, respecting nested braces so
// filter arguments may themselves contain `{`/`}` incidentally.
func scan(s string) ([]span, error) {
	var spans []span
	i := 0
	for i < len(s) {
		if s[i] == '$' && i+1 < len(s) && s[i+1] == '{' {
			depth := 1
			j := i + 2
			for j < len(s) && depth > 0 {
				switch s[j] {
				case '{':
					depth++
				case '}':
					depth--
				}
				j++
			}
			if depth != 0 {
				return nil, &errs.TemplateError{Kind: errs.TemplateUndefined, Cause: fmt.Errorf("unterminated template expression in %q", s)}
			}
			spans = append(spans, span{start: i, end: j, expr: s[i+2 : j-1]})
			i = j
			continue
		}
		i++
	}
	return spans, nil
}

func stringify(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case time.Time:
		return t.Format(time.RFC3339)
	default:
		return fmt.Sprint(t)
	}
}

// evalExpr evaluates the body of a single `${...}` expression. A `:-`
// default replaces a variable that is unset or set to the empty string.
func evalExpr(expr string, env map[string]string, path []string) (any, error) {
	name, def, filterChain, err := parseExpr(expr)
	if err != nil {
		return nil, err
	}

	raw, present := env[name]
	if def != nil && (!present || raw == "") {
		return *def, nil
	}
	if !present {
		return nil, &errs.TemplateError{Kind: errs.TemplateUndefined, Name: name, Path: path}
	}

	var current any = raw
	for _, f := range filterChain {
		current, err = applyFilter(current, f, path)
		if err != nil {
			return nil, err
		}
	}
	return current, nil
}

type filterSpec struct {
	name string
	arg  string
}

// parseExpr splits an expression body into its variable name and either a
// default literal (`:-default`) or a filter chain (`|filter:arg|...`).
func parseExpr(expr string) (name string, def *string, filters []filterSpec, err error) {
	pipe := strings.Index(expr, "|")
	if idx := strings.Index(expr, ":-"); idx >= 0 && (pipe < 0 || idx < pipe) {
		name = strings.TrimSpace(expr[:idx])
		d := expr[idx+2:]
		return name, &d, nil, nil
	}

	parts := strings.Split(expr, "|")
	name = strings.TrimSpace(parts[0])
	for _, p := range parts[1:] {
		if colon := strings.Index(p, ":"); colon >= 0 {
			filters = append(filters, filterSpec{name: p[:colon], arg: p[colon+1:]})
		} else {
			filters = append(filters, filterSpec{name: p})
		}
	}
	return name, nil, filters, nil
}

func applyFilter(value any, f filterSpec, path []string) (any, error) {
	switch f.name {
	case "as_datetime":
		s, ok := value.(string)
		if !ok {
			return nil, &errs.TemplateError{Kind: errs.TemplateTypeMismatch, Path: path}
		}
		t, err := parseISO8601(s)
		if err != nil {
			return nil, &errs.TemplateError{Kind: errs.TemplateBadDatetime, Path: path, Cause: err}
		}
		return t, nil

	case "strftime":
		t, err := asTime(value, path)
		if err != nil {
			return nil, err
		}
		return t.Format(strftimeToGo(f.arg)), nil

	case "shift":
		t, err := asTime(value, path)
		if err != nil {
			return nil, err
		}
		d, err := parseShift(f.arg)
		if err != nil {
			return nil, &errs.TemplateError{Kind: errs.TemplateTypeMismatch, Path: path, Cause: err}
		}
		return t.Add(d), nil

	default:
		return nil, &errs.TemplateError{Kind: errs.TemplateUnknownFilter, Name: f.name, Path: path}
	}
}

// asTime coerces value to a time.Time for the strftime/shift filters: a
// time.Time (typically produced by an earlier as_datetime in the chain)
// passes through unchanged, and a plain string (the common case, since NAME
// always binds to the raw env/config string) is parsed as ISO-8601.
func asTime(value any, path []string) (time.Time, error) {
	switch v := value.(type) {
	case time.Time:
		return v, nil
	case string:
		t, err := parseISO8601(v)
		if err != nil {
			return time.Time{}, &errs.TemplateError{Kind: errs.TemplateTypeMismatch, Path: path, Cause: err}
		}
		return t, nil
	default:
		return time.Time{}, &errs.TemplateError{Kind: errs.TemplateTypeMismatch, Path: path}
	}
}

func parseISO8601(s string) (time.Time, error) {
	layouts := []string{
		time.RFC3339,
		"2006-01-02T15:04:05",
		"2006-01-02T15:04",
		"2006-01-02T15",
		"2006-01-02",
	}
	var lastErr error
	for _, layout := range layouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		} else {
			lastErr = err
		}
	}
	return time.Time{}, lastErr
}

// parseShift parses `[+|-]<n><unit>` where unit is one of d, h, m, s.
func parseShift(spec string) (time.Duration, error) {
	if spec == "" {
		return 0, fmt.Errorf("empty shift spec")
	}
	sign := time.Duration(1)
	if spec[0] == '+' {
		spec = spec[1:]
	} else if spec[0] == '-' {
		sign = -1
		spec = spec[1:]
	}
	if spec == "" {
		return 0, fmt.Errorf("empty shift magnitude")
	}
	unit := spec[len(spec)-1]
	numPart := spec[:len(spec)-1]
	n, err := strconv.ParseInt(numPart, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid shift magnitude %q: %w", numPart, err)
	}

	var unitDur time.Duration
	switch unit {
	case 'd':
		unitDur = 24 * time.Hour
	case 'h':
		unitDur = time.Hour
	case 'm':
		unitDur = time.Minute
	case 's':
		unitDur = time.Second
	default:
		return 0, fmt.Errorf("unknown shift unit %q", string(unit))
	}

	return sign * time.Duration(n) * unitDur, nil
}

// strftimeToGo converts the common subset of strftime directives used by
// oceanrun configs into a Go reference-time layout string.
func strftimeToGo(format string) string {
	replacer := strings.NewReplacer(
		"%Y", "2006",
		"%m", "01",
		"%d", "02",
		"%H", "15",
		"%M", "04",
		"%S", "05",
		"%%", "%",
	)
	return replacer.Replace(format)
}
