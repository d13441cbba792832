package pagecache

import (
	"net/url"
	"slices"
	"sort"
	"strings"
)

// URL identity resolution.
//
// URLs arrive from heterogeneous sources (regex extraction, LLM extraction,
// human edits) and differ in encoding, scheme, trailing slashes, and
// tracking parameters far more often than they differ in actual target
// resource. Identity is therefore layered: an exact canonical key, a looser
// comparable form, and a bounded enumeration of the string variants a prior
// run might have stored.

// CanonicalURL returns the stored form of a URL: fragment stripped,
// percent-escapes decoded, and a single trailing slash trimmed unless the
// path is just the root. This key is used for hashing and as the store's
// index key.
func CanonicalURL(raw string) string {
	u := stripFragment(raw)
	u = decodeEscapes(u)
	return trimTrailingSlash(u)
}

// ComparableURL reduces a URL to the form used for equality checks: the
// canonical form with the scheme forced to https, any leading "www." host
// label dropped, utm_* tracking parameters removed, lowercased. Two URLs
// with equal ComparableURL results denote the same resource.
func ComparableURL(raw string) string {
	u := StripTrackingParams(raw)
	u = stripFragment(u)
	u = decodeEscapes(u)
	u = trimTrailingSlash(u)
	// Decoding can reveal previously escaped query parameters. Stripping
	// them re-encodes the URL, so canonicalize once more to keep the
	// comparable form independent of the input's encoding.
	u = StripTrackingParams(u)
	u = decodeEscapes(u)
	u = trimTrailingSlash(u)
	if strings.HasPrefix(u, "http://") {
		u = "https://" + strings.TrimPrefix(u, "http://")
	}
	u = strings.Replace(u, "://www.", "://", 1)
	return strings.ToLower(u)
}

// StripTrackingParams removes all query parameters whose name starts with
// "utm_". URLs without tracking parameters are returned unchanged.
func StripTrackingParams(raw string) string {
	parsed, err := url.Parse(raw)
	if err != nil || parsed.RawQuery == "" {
		return raw
	}
	q := parsed.Query()
	changed := false
	for k := range q {
		if strings.HasPrefix(strings.ToLower(k), "utm_") {
			q.Del(k)
			changed = true
		}
	}
	if !changed {
		return raw
	}
	parsed.RawQuery = q.Encode()
	return parsed.String()
}

// trackingSuffixes are the tracking-parameter forms observed verbatim in
// URLs stored by earlier runs. The list is deliberately closed: agent
// outputs carry these specific suffixes, not arbitrary ones.
var trackingSuffixes = []string{
	"?utm_source=chatgpt.com",
	"?utm_source=openai.com",
}

// encodingSafeSets are the percent-encoding strategies enumerated per base
// variant: default, query-preserving, common-reserved, bracketed-reserved,
// full RFC 3986 reserved set, and minimal. The fully decoded form and the
// original string are always included as well.
var encodingSafeSets = []string{
	"/",
	":/?#",
	":/?#@!$&'*+,;=",
	":/?#[]@!$&'*+,;=",
	":/?#[]@!$&'()*+,;=",
	":/",
}

// URLVariants enumerates the bounded set of strings a prior run might have
// stored for the same resource: trailing slash toggled, http/https swapped,
// www-less host, several percent-encoding strategies, and known tracking
// suffixes appended. The result is deduplicated and order-stable. It is
// used only as a fallback lookup after the canonical key and the
// comparable-form scan both miss.
func URLVariants(raw string) []string {
	noFrag := stripFragment(raw)

	base := []string{
		raw,
		noFrag,
		StripTrackingParams(raw),
		StripTrackingParams(noFrag),
	}
	for _, suffix := range trackingSuffixes {
		base = append(base, raw+suffix, noFrag+suffix)
		if !strings.HasSuffix(raw, "/") {
			base = append(base, raw+"/"+suffix)
		}
		if !strings.HasSuffix(noFrag, "/") {
			base = append(base, noFrag+"/"+suffix)
		}
	}
	for _, prefix := range []string{"http://www.", "https://www."} {
		if strings.HasPrefix(raw, prefix) {
			base = append(base, strings.TrimSuffix(prefix, "www.")+strings.TrimPrefix(raw, prefix))
		}
	}
	for _, u := range slices.Clone(base) {
		if swapped := swapScheme(u); swapped != "" {
			base = append(base, swapped)
		}
	}

	var variants []string
	for _, b := range base {
		forms := []string{b, decodeEscapes(b)}
		for _, safe := range encodingSafeSets {
			forms = append(forms, percentEncode(b, safe))
		}
		for _, form := range forms {
			variants = append(variants, form, toggleTrailingSlash(form))
		}
	}

	seen := make(map[string]struct{}, len(variants))
	unique := variants[:0]
	for _, v := range variants {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		unique = append(unique, v)
	}
	return unique
}

// DedupeVariants collapses a URL list so that at most one representative
// survives per resource (grouped by ComparableURL). Within a group, https
// is preferred over http, then shorter strings, then lexicographic order.
// Input order of first appearance is preserved across groups.
func DedupeVariants(urls []string) []string {
	groups := make(map[string][]string)
	var order []string
	for _, u := range urls {
		key := ComparableURL(u)
		if _, ok := groups[key]; !ok {
			order = append(order, key)
		}
		groups[key] = append(groups[key], u)
	}

	out := make([]string, 0, len(order))
	for _, key := range order {
		group := groups[key]
		sort.SliceStable(group, func(i, j int) bool {
			hi := strings.HasPrefix(group[i], "https://")
			hj := strings.HasPrefix(group[j], "https://")
			if hi != hj {
				return hi
			}
			if len(group[i]) != len(group[j]) {
				return len(group[i]) < len(group[j])
			}
			return strings.ToLower(group[i]) < strings.ToLower(group[j])
		})
		out = append(out, group[0])
	}
	return out
}

func stripFragment(raw string) string {
	if i := strings.Index(raw, "#"); i != -1 {
		return raw[:i]
	}
	return raw
}

// decodeEscapes percent-decodes best-effort: malformed escapes leave the
// input unchanged rather than failing.
func decodeEscapes(raw string) string {
	decoded, err := url.PathUnescape(raw)
	if err != nil {
		return raw
	}
	return decoded
}

func trimTrailingSlash(u string) string {
	if strings.HasSuffix(u, "/") && len(u) > 1 && !strings.HasSuffix(u, "://") {
		return u[:len(u)-1]
	}
	return u
}

func toggleTrailingSlash(u string) string {
	if strings.HasSuffix(u, "/") {
		if len(u) > 1 && !strings.HasSuffix(u, "://") {
			return u[:len(u)-1]
		}
		return u
	}
	return u + "/"
}

func swapScheme(u string) string {
	switch {
	case strings.HasPrefix(u, "http://"):
		return "https://" + strings.TrimPrefix(u, "http://")
	case strings.HasPrefix(u, "https://"):
		return "http://" + strings.TrimPrefix(u, "https://")
	}
	return ""
}

// percentEncode escapes every byte that is neither unreserved (RFC 3986)
// nor listed in safe. Existing escape sequences are not recognized, so a
// strategy that excludes '%' from safe re-encodes them; this mirrors the
// double-encoded forms that occur in stored URLs from prior runs.
func percentEncode(s, safe string) string {
	const hex = "0123456789ABCDEF"
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if isUnreserved(c) || strings.IndexByte(safe, c) >= 0 {
			b.WriteByte(c)
			continue
		}
		b.WriteByte('%')
		b.WriteByte(hex[c>>4])
		b.WriteByte(hex[c&0xf])
	}
	return b.String()
}

func isUnreserved(c byte) bool {
	return c >= 'a' && c <= 'z' ||
		c >= 'A' && c <= 'Z' ||
		c >= '0' && c <= '9' ||
		c == '-' || c == '.' || c == '_' || c == '~'
}
