// Package vars resolves {{token}} placeholders in outbound text against
// recipient and context data.
package vars

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/mehdry/flowline/pkg/domain"
)

var tokenPattern = regexp.MustCompile(`\{\{\s*([a-zA-Z0-9_]+)\s*\}\}`)

// Clock supplies the current time, injectable for tests.
type Clock func() time.Time

// Resolver substitutes variable tokens. A value that is empty after all
// substitution keeps the literal token; the resolver never silently drops a
// placeholder, so a broken template stays visible in the transcript.
type Resolver struct {
	now Clock
}

// Option configures the Resolver.
type Option func(*Resolver)

// WithClock injects a custom time source.
func WithClock(c Clock) Option {
	return func(r *Resolver) {
		r.now = c
	}
}

// New creates a Resolver.
func New(opts ...Option) *Resolver {
	r := &Resolver{now: time.Now}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve substitutes every known token in text using the variable context.
// Unknown or empty tokens are kept literally.
func (r *Resolver) Resolve(text string, vc domain.VariableContext) string {
	return tokenPattern.ReplaceAllStringFunc(text, func(match string) string {
		name := tokenPattern.FindStringSubmatch(match)[1]
		if value, ok := r.lookup(name, vc); ok && value != "" {
			return value
		}
		return match
	})
}

// ResolveTemplate substitutes positional tokens ({{1}}, {{2}}, ...) using the
// template's declared variables list, then resolves named tokens. Positional
// values are themselves resolved before insertion.
func (r *Resolver) ResolveTemplate(text string, variables []string, vc domain.VariableContext) string {
	out := tokenPattern.ReplaceAllStringFunc(text, func(match string) string {
		name := tokenPattern.FindStringSubmatch(match)[1]
		idx, err := strconv.Atoi(name)
		if err != nil {
			return match
		}
		if idx < 1 || idx > len(variables) {
			return match
		}
		value := vc.Values[variables[idx-1]]
		resolved := r.Resolve(value, vc)
		if resolved == "" {
			return match
		}
		return resolved
	})
	return r.Resolve(out, vc)
}

func (r *Resolver) lookup(name string, vc domain.VariableContext) (string, bool) {
	contact := vc.Contact
	if contact == nil {
		contact = &domain.Contact{}
	}

	switch name {
	case "name":
		if contact.WhatsappName != "" {
			return contact.WhatsappName, true
		}
		if contact.Name != "" {
			return contact.Name, true
		}
		return vc.Recipient, true
	case "phone":
		return vc.Recipient, true
	case "first_name":
		if contact.FirstName != "" {
			return contact.FirstName, true
		}
		return splitName(contact, 0), true
	case "last_name":
		if contact.LastName != "" {
			return contact.LastName, true
		}
		return splitName(contact, 1), true
	case "company":
		return contact.Company, true
	case "date":
		return r.now().Format("Jan 2, 2006"), true
	case "time":
		return r.now().Format("3:04 PM"), true
	}

	if v, ok := vc.Extra[name]; ok {
		return v, true
	}
	return "", false
}

// splitName derives first/last parts from the display name on whitespace.
func splitName(contact *domain.Contact, part int) string {
	full := contact.WhatsappName
	if full == "" {
		full = contact.Name
	}
	fields := strings.Fields(full)
	if part == 0 {
		if len(fields) > 0 {
			return fields[0]
		}
		return ""
	}
	if len(fields) > 1 {
		return strings.Join(fields[1:], " ")
	}
	return ""
}
