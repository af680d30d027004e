// Copyright 2022 Sylvain Müller. All rights reserved.
// Mount of this source code is governed by a Apache-2.0 license that can be found
// at https://github.com/tigerwill90/urlpattern/blob/master/LICENSE.txt.

// Package urlpattern compiles URL patterns into immutable, reusable matchers.
//
// A pattern is expressed either as a single annotated string
// ("https://example.com/books/:id") or as a [Descriptor] with one
// sub-pattern per URL component. Compilation translates the pattern grammar
// (named parameters, optional and repeat modifiers, literal regexp groups,
// delimiter groups, wildcards and escapes) into one anchored regular
// expression per component. A compiled [Pattern] is deeply immutable and
// safe for concurrent use; Test and Exec are pure functions of the pattern
// and the input.
package urlpattern

import (
	"net/url"
	"strings"

	"github.com/tigerwill90/urlpattern/internal/netutil"
)

// Descriptor is a structured pattern or input, one optional sub-pattern per
// URL component. A nil field matches anything for that component unless the
// component is inherited from BaseURL.
type Descriptor struct {
	Protocol *string
	Username *string
	Password *string
	Hostname *string
	Port     *string
	Pathname *string
	Search   *string
	Hash     *string
	BaseURL  *string
}

// Pattern is a compiled URL pattern. It holds one compiled component per
// specified descriptor field (pathname is always compiled, defaulting to a
// full wildcard) and is immutable after construction: a single Pattern can
// serve any number of concurrent Test and Exec calls.
type Pattern struct {
	protocol *compiledComponent
	username *compiledComponent
	password *compiledComponent
	hostname *compiledComponent
	port     *compiledComponent
	pathname *compiledComponent
	hash     *compiledComponent

	search searchMatcher

	resolved   Descriptor
	ignoreCase bool
}

// ComponentResult reports one component of a successful match: the concrete
// input the component regexp ran against and its named captures.
type ComponentResult struct {
	Input  string
	Groups map[string]string
}

// Result is the outcome of a successful [Pattern.Exec]. Params merges the
// captures of every component; per-component results keep them separate.
type Result struct {
	Inputs []string
	Params Params

	Protocol ComponentResult
	Username ComponentResult
	Password ComponentResult
	Hostname ComponentResult
	Port     ComponentResult
	Pathname ComponentResult
	Search   ComponentResult
	Hash     ComponentResult
}

// New compiles a pattern string. It fails with a [SyntaxError] for any
// grammar or validation violation.
func New(pattern string, opts ...Option) (*Pattern, error) {
	return NewWithBase(pattern, "", opts...)
}

// NewWithBase compiles a pattern string whose unspecified components are
// inherited from baseURL. A relative pattern (no protocol) requires a base.
func NewWithBase(pattern, baseURL string, opts ...Option) (*Pattern, error) {
	d, err := parseConstructorString(pattern)
	if err != nil {
		return nil, err
	}
	if baseURL == "" && d.Protocol == nil {
		return nil, newSyntaxError(ErrMissingBaseURL, "", pattern)
	}
	if baseURL != "" {
		d.BaseURL = &baseURL
	}
	return NewFromDescriptor(d, opts...)
}

// NewFromDescriptor compiles a structured pattern descriptor.
func NewFromDescriptor(d Descriptor, opts ...Option) (*Pattern, error) {
	cfg := new(config)
	for _, opt := range opts {
		opt.apply(cfg)
	}

	init, err := processDescriptor(d, modePattern)
	if err != nil {
		return nil, err
	}

	// Default-port elision: a literal port equal to the default port of a
	// literal special scheme can never appear in a parsed URL.
	if init.Protocol != nil && init.Port != nil {
		if dp := defaultPort(*init.Protocol); dp != "" && dp == *init.Port {
			init.Port = ptr("")
		}
	}

	p := &Pattern{ignoreCase: cfg.ignoreCase}

	if init.Protocol != nil {
		p.protocol, err = compileComponent(*init.Protocol, compileOptions{encode: canonicalizeProtocol})
		if err != nil {
			return nil, newSyntaxError(err, "protocol", *init.Protocol)
		}
	}
	if init.Username != nil {
		p.username, err = compileComponent(*init.Username, compileOptions{encode: canonicalizeUsername})
		if err != nil {
			return nil, newSyntaxError(err, "username", *init.Username)
		}
	}
	if init.Password != nil {
		p.password, err = compileComponent(*init.Password, compileOptions{encode: canonicalizePassword})
		if err != nil {
			return nil, newSyntaxError(err, "password", *init.Password)
		}
	}
	if init.Hostname != nil {
		encode := canonicalizeHostname
		if hostnamePatternIsIPv6(*init.Hostname) {
			encode = canonicalizeIPv6Hostname
		}
		p.hostname, err = compileComponent(*init.Hostname, compileOptions{encode: encode, delimiter: '.', hostname: true})
		if err != nil {
			return nil, newSyntaxError(err, "hostname", *init.Hostname)
		}
	}
	if init.Port != nil {
		p.port, err = compileComponent(*init.Port, compileOptions{encode: func(s string) (string, error) { return canonicalizePort(s, "") }})
		if err != nil {
			return nil, newSyntaxError(err, "port", *init.Port)
		}
	}

	pathname := "*"
	if init.Pathname != nil {
		pathname = *init.Pathname
	}
	pathOpts := compileOptions{encode: canonicalizeOpaquePathname, ignoreCase: cfg.ignoreCase}
	if p.protocolMatchesSpecialScheme() {
		pathOpts = compileOptions{encode: canonicalizePathname, delimiter: '/', prefix: '/', ignoreCase: cfg.ignoreCase}
	}
	p.pathname, err = compileComponent(pathname, pathOpts)
	if err != nil {
		return nil, newSyntaxError(err, "pathname", pathname)
	}

	if init.Search != nil {
		if strings.Contains(*init.Search, "=") {
			p.search, err = parseFlexibleSearch(*init.Search)
			if err != nil {
				return nil, newSyntaxError(err, "search", *init.Search)
			}
		} else {
			c, cerr := compileComponent(*init.Search, compileOptions{encode: canonicalizeSearch, ignoreCase: cfg.ignoreCase})
			if cerr != nil {
				return nil, newSyntaxError(cerr, "search", *init.Search)
			}
			p.search = &strictSearch{c: c}
		}
	}
	if init.Hash != nil {
		p.hash, err = compileComponent(*init.Hash, compileOptions{encode: canonicalizeHash, ignoreCase: cfg.ignoreCase})
		if err != nil {
			return nil, newSyntaxError(err, "hash", *init.Hash)
		}
	}

	init.Pathname = &pathname
	init.BaseURL = nil
	p.resolved = init

	return p, nil
}

// protocolMatchesSpecialScheme reports whether the protocol component can
// match a special scheme. An unspecified protocol can.
func (p *Pattern) protocolMatchesSpecialScheme() bool {
	if p.protocol == nil {
		return true
	}
	for scheme := range specialSchemes {
		if p.protocol.re.MatchString(scheme) {
			return true
		}
	}
	return false
}

// hostnamePatternIsIPv6 reports whether the hostname sub-pattern denotes a
// bracketed IPv6 literal, possibly behind a group or an escape.
func hostnamePatternIsIPv6(pattern string) bool {
	if len(pattern) < 2 {
		return false
	}
	if pattern[0] == '[' {
		return true
	}
	return (pattern[0] == '{' || pattern[0] == '\\') && pattern[1] == '['
}

// IgnoreCase reports whether the pattern was compiled with [WithIgnoreCase].
func (p *Pattern) IgnoreCase() bool {
	return p.ignoreCase
}

// HasRegexpGroups reports whether any component carries a literal regexp
// group.
func (p *Pattern) HasRegexpGroups() bool {
	for _, c := range []*compiledComponent{p.protocol, p.username, p.password, p.hostname, p.port, p.pathname, p.hash} {
		if c != nil && c.hasRegexpGroups {
			return true
		}
	}
	if s, ok := p.search.(*strictSearch); ok {
		return s.c.hasRegexpGroups
	}
	return false
}

func resolvedText(s *string) string {
	if s == nil {
		return "*"
	}
	return *s
}

// Protocol returns the resolved protocol sub-pattern text.
func (p *Pattern) Protocol() string { return resolvedText(p.resolved.Protocol) }

// Username returns the resolved username sub-pattern text.
func (p *Pattern) Username() string { return resolvedText(p.resolved.Username) }

// Password returns the resolved password sub-pattern text.
func (p *Pattern) Password() string { return resolvedText(p.resolved.Password) }

// Hostname returns the resolved hostname sub-pattern text.
func (p *Pattern) Hostname() string { return resolvedText(p.resolved.Hostname) }

// Port returns the resolved port sub-pattern text.
func (p *Pattern) Port() string { return resolvedText(p.resolved.Port) }

// Pathname returns the resolved pathname sub-pattern text.
func (p *Pattern) Pathname() string { return resolvedText(p.resolved.Pathname) }

// Search returns the resolved search sub-pattern text.
func (p *Pattern) Search() string { return resolvedText(p.resolved.Search) }

// Hash returns the resolved hash sub-pattern text.
func (p *Pattern) Hash() string { return resolvedText(p.resolved.Hash) }

// String returns a canonical constructor-style rendering of the pattern.
func (p *Pattern) String() string {
	var sb strings.Builder
	sb.WriteString(p.Protocol())
	sb.WriteString("://")
	if user, pass := p.Username(), p.Password(); user != "*" || pass != "*" {
		sb.WriteString(user)
		if pass != "*" {
			sb.WriteString(":")
			sb.WriteString(pass)
		}
		sb.WriteString("@")
	}
	sb.WriteString(p.Hostname())
	if port := p.Port(); port != "*" && port != "" {
		sb.WriteString(":")
		sb.WriteString(port)
	}
	sb.WriteString(p.Pathname())
	if search := p.Search(); search != "*" && search != "" {
		sb.WriteString("?")
		sb.WriteString(search)
	}
	if hash := p.Hash(); hash != "*" && hash != "" {
		sb.WriteString("#")
		sb.WriteString(hash)
	}
	return sb.String()
}

// urlComponents is the concrete, canonicalized value of each component of a
// candidate URL.
type urlComponents struct {
	protocol string
	username string
	password string
	hostname string
	port     string
	pathname string
	search   string
	hash     string
}

// Test reports whether the absolute URL string input satisfies the pattern.
// A string that cannot be parsed as an absolute URL never matches.
func (p *Pattern) Test(input string) bool {
	return p.Exec(input) != nil
}

// TestWithBase is like [Pattern.Test] with input resolved against baseURL.
func (p *Pattern) TestWithBase(input, baseURL string) bool {
	return p.ExecWithBase(input, baseURL) != nil
}

// TestURL reports whether the parsed URL satisfies the pattern.
func (p *Pattern) TestURL(u *url.URL) bool {
	return p.ExecURL(u) != nil
}

// TestDescriptor reports whether a partial URL descriptor satisfies the
// pattern. Missing fields are inherited from the descriptor's BaseURL when
// present, and default to the empty string otherwise.
func (p *Pattern) TestDescriptor(d Descriptor) bool {
	return p.ExecDescriptor(d) != nil
}

// Exec matches the absolute URL string input and extracts captures. It
// returns nil if and only if [Pattern.Test] would return false.
func (p *Pattern) Exec(input string) *Result {
	return p.ExecWithBase(input, "")
}

// ExecWithBase is like [Pattern.Exec] with input resolved against baseURL.
func (p *Pattern) ExecWithBase(input, baseURL string) *Result {
	u, err := url.Parse(input)
	if err != nil {
		return nil
	}
	inputs := []string{input}
	if baseURL != "" {
		base, err := url.Parse(baseURL)
		if err != nil {
			return nil
		}
		u = base.ResolveReference(u)
		inputs = append(inputs, baseURL)
	}
	if !u.IsAbs() {
		return nil
	}
	uc, ok := extractComponents(u)
	if !ok {
		return nil
	}
	return p.exec(uc, inputs)
}

// ExecURL matches a parsed URL and extracts captures.
func (p *Pattern) ExecURL(u *url.URL) *Result {
	if u == nil || !u.IsAbs() {
		return nil
	}
	uc, ok := extractComponents(u)
	if !ok {
		return nil
	}
	return p.exec(uc, []string{u.String()})
}

// ExecDescriptor matches a partial URL descriptor and extracts captures.
// A descriptor that cannot be processed, for instance an illegal protocol or
// a relative pathname that no base can resolve, never matches.
func (p *Pattern) ExecDescriptor(d Descriptor) *Result {
	init, err := processDescriptor(d, modeURL)
	if err != nil {
		return nil
	}
	uc := urlComponents{
		protocol: deref(init.Protocol),
		username: deref(init.Username),
		password: deref(init.Password),
		hostname: deref(init.Hostname),
		port:     deref(init.Port),
		pathname: deref(init.Pathname),
		search:   deref(init.Search),
		hash:     deref(init.Hash),
	}
	if canonical, perr := canonicalizePort(uc.port, uc.protocol); perr == nil {
		uc.port = canonical
	}
	var inputs []string
	if d.BaseURL != nil {
		inputs = []string{*d.BaseURL}
	}
	return p.exec(uc, inputs)
}

// extractComponents pulls the concrete component values out of a parsed URL
// and canonicalizes them the same way pattern literals are canonicalized, so
// that matching compares like with like.
func extractComponents(u *url.URL) (urlComponents, bool) {
	var uc urlComponents
	uc.protocol = u.Scheme
	uc.username = u.User.Username()
	uc.password, _ = u.User.Password()

	host, port := netutil.SplitHostPort(u.Host)
	hostname, err := canonicalizeHostname(host)
	if err != nil {
		return uc, false
	}
	uc.hostname = hostname

	uc.port, err = canonicalizePort(port, u.Scheme)
	if err != nil {
		return uc, false
	}

	if u.Opaque != "" {
		uc.pathname, _ = canonicalizeOpaquePathname(u.Opaque)
	} else {
		pathname, _ := canonicalizePathname(u.EscapedPath())
		// A special-scheme URL with an authority always has a path.
		if pathname == "" && isSpecialScheme(uc.protocol) {
			pathname = "/"
		}
		uc.pathname = pathname
	}

	uc.search = u.RawQuery
	uc.hash = u.EscapedFragment()
	return uc, true
}

// exec runs every compiled component against the candidate components. An
// absent compiled component passes automatically. Captures merge into the
// unified params with pathname first, then search, so query captures never
// clobber path captures.
func (p *Pattern) exec(uc urlComponents, inputs []string) *Result {
	type pair struct {
		c     *compiledComponent
		input string
		out   *ComponentResult
	}

	res := &Result{Inputs: inputs}

	ordered := []pair{
		{p.pathname, uc.pathname, &res.Pathname},
		{p.hostname, uc.hostname, &res.Hostname},
		{p.protocol, uc.protocol, &res.Protocol},
		{p.username, uc.username, &res.Username},
		{p.password, uc.password, &res.Password},
		{p.port, uc.port, &res.Port},
		{p.hash, uc.hash, &res.Hash},
	}

	for _, pr := range ordered {
		pr.out.Input = pr.input
		pr.out.Groups = map[string]string{}
		if pr.c == nil {
			continue
		}
		idx, ok := pr.c.match(pr.input)
		if !ok {
			return nil
		}
		pr.out.Groups = pr.c.groups(pr.input, idx)
	}

	res.Search.Input = uc.search
	res.Search.Groups = map[string]string{}
	var searchExtra []Param
	if p.search != nil {
		groups, extra, ok := p.search.exec(uc.search)
		if !ok {
			return nil
		}
		if groups != nil {
			res.Search.Groups = groups
		}
		searchExtra = extra
	}

	// Merge order fixes capture precedence: pathname, then the remaining
	// ordered components, then search captures and extra query keys.
	for _, pr := range ordered {
		for _, name := range componentNames(pr.c) {
			if v, ok := pr.out.Groups[name]; ok {
				res.Params = res.Params.set(name, v)
			}
		}
	}
	if s, ok := p.search.(*strictSearch); ok {
		for _, name := range s.c.names {
			if v, ok := res.Search.Groups[name]; ok {
				res.Params = res.Params.set(name, v)
			}
		}
	} else {
		for name, v := range res.Search.Groups {
			res.Params = res.Params.set(name, v)
		}
	}
	for _, extra := range searchExtra {
		res.Params = res.Params.set(extra.Key, extra.Value)
	}

	return res
}

func componentNames(c *compiledComponent) []string {
	if c == nil {
		return nil
	}
	return c.names
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
