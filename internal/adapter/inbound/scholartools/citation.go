package scholartools

import (
	"fmt"
	"strings"

	"github.com/tidwall/gjson"
)

const unknownJournal = "Unknown Journal"

// citation holds the bibliographic fields shared by the citation formats.
type citation struct {
	authors []string
	title   string
	year    string
	journal string // journal name, else venue, else unknownJournal
	venue   string
	volume  string
	issue   string
	pages   string
	doi     string
	url     string

	// hasJournal is set when the API returned a journal name.
	hasJournal bool
}

func newCitation(p gjson.Result) citation {
	c := citation{
		title:  text(p.Get("title"), "Untitled"),
		year:   text(p.Get("year"), "n.d."),
		venue:  p.Get("venue").String(),
		volume: strings.TrimSpace(p.Get("journal.volume").String()),
		issue:  p.Get("journal.issue").String(),
		pages:  strings.TrimSpace(p.Get("journal.pages").String()),
		doi:    p.Get("externalIds.DOI").String(),
		url:    p.Get("url").String(),
	}
	for _, a := range p.Get("authors").Array() {
		c.authors = append(c.authors, a.Get("name").String())
	}
	if len(c.authors) == 0 {
		c.authors = []string{"Unknown Author"}
	}

	switch name := p.Get("journal.name").String(); {
	case name != "":
		c.journal, c.hasJournal = name, true
	case c.venue != "":
		c.journal = c.venue
	default:
		c.journal = unknownJournal
	}
	return c
}

func (c citation) apa() string {
	var sb strings.Builder
	switch len(c.authors) {
	case 1:
		fmt.Fprintf(&sb, "%s. ", c.authors[0])
	case 2:
		fmt.Fprintf(&sb, "%s & %s. ", c.authors[0], c.authors[1])
	default:
		fmt.Fprintf(&sb, "%s et al. ", c.authors[0])
	}
	fmt.Fprintf(&sb, "(%s). %s. ", c.year, c.title)

	if c.journal != unknownJournal {
		fmt.Fprintf(&sb, "*%s*", c.journal)
		if c.volume != "" {
			fmt.Fprintf(&sb, ", %s", c.volume)
			if c.issue != "" {
				fmt.Fprintf(&sb, "(%s)", c.issue)
			}
		}
		if c.pages != "" {
			fmt.Fprintf(&sb, ", %s", c.pages)
		}
	}
	if c.doi != "" {
		fmt.Fprintf(&sb, ". %s%s", doiURL, c.doi)
	}
	return sb.String()
}

func (c citation) mla() string {
	var sb strings.Builder
	first := c.authors[0]
	if parts := strings.Fields(first); len(parts) > 1 {
		fmt.Fprintf(&sb, "%s, %s", parts[len(parts)-1], strings.Join(parts[:len(parts)-1], " "))
	} else if first != "" {
		sb.WriteString(first)
	} else {
		sb.WriteString("Unknown Author")
	}
	if len(c.authors) > 1 {
		sb.WriteString(", et al")
	}

	fmt.Fprintf(&sb, ". \"%s.\" *%s*", c.title, c.journal)
	if c.volume != "" {
		fmt.Fprintf(&sb, ", vol. %s", c.volume)
	}
	if c.issue != "" {
		fmt.Fprintf(&sb, ", no. %s", c.issue)
	}
	if c.year != "n.d." {
		fmt.Fprintf(&sb, ", %s", c.year)
	}
	if c.pages != "" {
		fmt.Fprintf(&sb, ", pp. %s", c.pages)
	}
	if c.doi != "" {
		fmt.Fprintf(&sb, ", doi:%s", c.doi)
	}
	sb.WriteString(".")
	return sb.String()
}

// entryType picks the BibTeX entry type from the journal or venue name.
func (c citation) entryType() string {
	switch {
	case strings.Contains(c.journal, "Conference") || strings.Contains(c.journal, "Proceedings"):
		return "inproceedings"
	case strings.Contains(c.journal, "Thesis"):
		return "phdthesis"
	case !c.hasJournal && c.volume == "":
		return "misc"
	}
	return "article"
}

// key is the first author's lowercased last name followed by the year.
func (c citation) key() string {
	last := "unknown"
	if parts := strings.Fields(c.authors[0]); len(parts) > 0 {
		last = strings.ToLower(parts[len(parts)-1])
	}
	return last + c.year
}

func (c citation) bibtex() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "@%s{%s,\n", c.entryType(), c.key())
	fmt.Fprintf(&sb, "  title = {%s},\n", c.title)
	fmt.Fprintf(&sb, "  author = {%s},\n", strings.Join(c.authors, " and "))
	fmt.Fprintf(&sb, "  year = {%s},\n", c.year)
	if c.hasJournal {
		fmt.Fprintf(&sb, "  journal = {%s},\n", c.journal)
	} else if c.venue != "" {
		fmt.Fprintf(&sb, "  booktitle = {%s},\n", c.venue)
	}
	for _, f := range []struct{ name, value string }{
		{"volume", c.volume},
		{"number", c.issue},
		{"pages", c.pages},
		{"doi", c.doi},
		{"url", c.url},
	} {
		if f.value != "" {
			fmt.Fprintf(&sb, "  %s = {%s},\n", f.name, f.value)
		}
	}
	sb.WriteString("}")
	return sb.String()
}

func writeCitationFormats(sb *strings.Builder, c citation) {
	fmt.Fprintf(sb, "**APA:**\n```\n%s\n```\n\n", c.apa())
	fmt.Fprintf(sb, "**MLA:**\n```\n%s\n```\n\n", c.mla())
	fmt.Fprintf(sb, "**BibTeX:**\n```bibtex\n%s\n```\n", c.bibtex())
}
