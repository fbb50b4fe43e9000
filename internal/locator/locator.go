// Package locator routes opaque resource addresses like
// slack://channels/{channelId}/threads to registered content generators.
// Resolution is an ordered scan: exact static addresses first, then
// single-placeholder templates, in registration order.
package locator

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/yosida95/uritemplate/v3"

	"loom/internal/faults"
)

// Content is what a generator produces for one address.
type Content struct {
	URI         string
	ContentType string
	Text        string
}

// Request carries the resolved parameters into a generator.
type Request struct {
	Address    string
	PathParams map[string]string
	Query      url.Values
}

// Generator renders the content behind one resolved address. Generators
// validate their own required query parameters; the locator stops at
// syntactic resolution.
type Generator func(ctx context.Context, req Request) (*Content, error)

// Descriptor describes one registered address template. Registered once at
// startup, immutable afterward.
type Descriptor struct {
	Template           string
	Name               string
	Description        string
	ContentType        string
	RequiresRemoteAuth bool
}

// IsTemplate reports whether the descriptor has a placeholder segment.
func (d Descriptor) IsTemplate() bool {
	return strings.Contains(d.Template, "{")
}

type entry struct {
	desc Descriptor
	tmpl *uritemplate.Template
	vars []string
	gen  Generator
}

// Resolution is the outcome of resolving an address.
type Resolution struct {
	Descriptor Descriptor
	Generator  Generator
	PathParams map[string]string
	Query      url.Values
}

// Locator holds the registered templates. Not safe for concurrent
// registration; Resolve is read-only and safe once registration is done.
type Locator struct {
	entries   []entry
	templates map[string]struct{}
}

func New() *Locator {
	return &Locator{templates: map[string]struct{}{}}
}

// Register adds a template. Re-registering the same template string is an
// error rather than last-writer-wins, so a duplicate cannot silently shadow
// an earlier generator. Templates are limited to one placeholder segment.
func (l *Locator) Register(d Descriptor, g Generator) error {
	if strings.TrimSpace(d.Template) == "" {
		return fmt.Errorf("empty template")
	}
	if g == nil {
		return fmt.Errorf("register %s: nil generator", d.Template)
	}
	if _, dup := l.templates[d.Template]; dup {
		return fmt.Errorf("template %q already registered", d.Template)
	}

	e := entry{desc: d, gen: g}
	if d.IsTemplate() {
		if strings.Count(d.Template, "{") > 1 {
			return fmt.Errorf("template %q: multiple placeholders are not supported", d.Template)
		}
		tmpl, err := uritemplate.New(d.Template)
		if err != nil {
			return fmt.Errorf("parse template %q: %w", d.Template, err)
		}
		e.tmpl = tmpl
		e.vars = tmpl.Varnames()
	}

	l.templates[d.Template] = struct{}{}
	l.entries = append(l.entries, e)
	return nil
}

// Resolve maps an address to its generator and parameter set. Query
// parameters parse permissively; generators ignore unknown keys.
func (l *Locator) Resolve(address string) (*Resolution, error) {
	base, rawQuery, _ := strings.Cut(address, "?")
	query, err := url.ParseQuery(rawQuery)
	if err != nil {
		// Keep whatever parsed; a broken pair should not fail resolution.
		if query == nil {
			query = url.Values{}
		}
	}

	// Exact static addresses win over any template that also fits.
	for _, e := range l.entries {
		if e.tmpl == nil && e.desc.Template == base {
			return &Resolution{
				Descriptor: e.desc,
				Generator:  e.gen,
				PathParams: map[string]string{},
				Query:      query,
			}, nil
		}
	}

	for _, e := range l.entries {
		if e.tmpl == nil {
			continue
		}
		match := e.tmpl.Match(base)
		if match == nil {
			continue
		}
		params := make(map[string]string, len(e.vars))
		for _, name := range e.vars {
			params[name] = match.Get(name).String()
		}
		return &Resolution{
			Descriptor: e.desc,
			Generator:  e.gen,
			PathParams: params,
			Query:      query,
		}, nil
	}

	return nil, faults.NotFound("no resource matches %q", base)
}

// Descriptors lists every registered template in registration order.
func (l *Locator) Descriptors() []Descriptor {
	out := make([]Descriptor, 0, len(l.entries))
	for _, e := range l.entries {
		out = append(out, e.desc)
	}
	return out
}
