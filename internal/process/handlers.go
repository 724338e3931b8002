// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package process

import (
	"net/url"
	"strings"
)

// DomainHandler rewrites a paper landing URL into direct PDF candidates
// for one family of hosts.
type DomainHandler interface {
	// Matches reports whether this handler covers the given host.
	Matches(host string) bool

	// PDFCandidates returns direct-download URL candidates for a landing
	// page URL, best first. May be empty when no rewrite is known.
	PDFCandidates(pageURL string) []string
}

// handlerRegistry selects the first matching handler, falling back to a
// generic one that only accepts URLs that already look like PDFs.
type handlerRegistry struct {
	handlers []DomainHandler
}

func newHandlerRegistry() *handlerRegistry {
	return &handlerRegistry{
		handlers: []DomainHandler{
			arxivHandler{},
			openRepositoryHandler{},
			publisherHandler{},
		},
	}
}

// candidatesFor resolves PDF candidates for one URL via the matching
// handler, defaulting to the generic rule.
func (r *handlerRegistry) candidatesFor(pageURL string) []string {
	u, err := url.Parse(pageURL)
	if err != nil || u.Host == "" {
		return nil
	}
	host := strings.ToLower(u.Host)
	for _, h := range r.handlers {
		if h.Matches(host) {
			return h.PDFCandidates(pageURL)
		}
	}
	return genericHandler{}.PDFCandidates(pageURL)
}

// arxivHandler covers arxiv.org and its export mirror: abstract pages
// rewrite directly to the PDF endpoint.
type arxivHandler struct{}

func (arxivHandler) Matches(host string) bool {
	return strings.HasSuffix(host, "arxiv.org")
}

func (arxivHandler) PDFCandidates(pageURL string) []string {
	if strings.Contains(pageURL, "/pdf/") {
		return []string{pageURL}
	}
	if i := strings.Index(pageURL, "/abs/"); i >= 0 {
		return []string{strings.Replace(pageURL, "/abs/", "/pdf/", 1)}
	}
	return nil
}

// openRepositoryHandler covers open repositories whose landing pages link
// a sibling "pdf" path (OpenReview, ACL Anthology, institutional
// repositories).
type openRepositoryHandler struct{}

func (openRepositoryHandler) Matches(host string) bool {
	for _, h := range []string{"openreview.net", "aclanthology.org", "biorxiv.org", "ssrn.com"} {
		if strings.HasSuffix(host, h) {
			return true
		}
	}
	return false
}

func (openRepositoryHandler) PDFCandidates(pageURL string) []string {
	if strings.HasSuffix(pageURL, ".pdf") {
		return []string{pageURL}
	}
	var out []string
	if strings.Contains(pageURL, "openreview.net/forum") {
		out = append(out, strings.Replace(pageURL, "/forum", "/pdf", 1))
	}
	out = append(out, strings.TrimSuffix(pageURL, "/")+".pdf")
	return out
}

// publisherHandler covers paywalled publisher hosts, where a direct PDF
// fetch rarely works; only an explicit .pdf URL is attempted.
type publisherHandler struct{}

func (publisherHandler) Matches(host string) bool {
	for _, h := range []string{"ieee.org", "acm.org", "springer.com", "sciencedirect.com", "wiley.com"} {
		if strings.HasSuffix(host, h) {
			return true
		}
	}
	return false
}

func (publisherHandler) PDFCandidates(pageURL string) []string {
	if strings.HasSuffix(strings.ToLower(pageURL), ".pdf") {
		return []string{pageURL}
	}
	return nil
}

// genericHandler accepts URLs that already point at a PDF.
type genericHandler struct{}

func (genericHandler) Matches(string) bool { return true }

func (genericHandler) PDFCandidates(pageURL string) []string {
	if strings.Contains(strings.ToLower(pageURL), ".pdf") {
		return []string{pageURL}
	}
	return nil
}
