package scholartools

import (
	"strconv"
	"strings"
	"time"

	"github.com/tidwall/gjson"
)

const (
	paperURL  = "https://www.semanticscholar.org/paper/"
	authorURL = "https://www.semanticscholar.org/author/"
	doiURL    = "https://doi.org/"
	arxivURL  = "https://arxiv.org/abs/"
)

// text returns r as a string, or def when r is missing, null or empty.
func text(r gjson.Result, def string) string {
	if !r.Exists() || r.Type == gjson.Null {
		return def
	}
	s := r.String()
	if s == "" {
		return def
	}
	return s
}

// commas formats n with thousands separators: 1234567 -> "1,234,567".
func commas(n int64) string {
	sign, mag := "", uint64(n)
	if n < 0 {
		// Two's complement negation also covers math.MinInt64.
		sign, mag = "-", -mag
	}
	return sign + groupDigits(strconv.FormatUint(mag, 10))
}

func groupDigits(s string) string {
	if len(s) <= 3 {
		return s
	}

	var sb strings.Builder
	head := len(s) % 3
	if head == 0 {
		head = 3
	}
	sb.WriteString(s[:head])
	for i := head; i < len(s); i += 3 {
		sb.WriteByte(',')
		sb.WriteString(s[i : i+3])
	}
	return sb.String()
}

// count renders a numeric field with separators, or "N/A" when it is not a number.
func count(r gjson.Result) string {
	if r.Type != gjson.Number {
		return "N/A"
	}
	return commas(r.Int())
}

// strs returns the string items of an array field.
func strs(r gjson.Result) []string {
	var out []string
	for _, item := range r.Array() {
		if s := item.String(); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// authorNames joins the first n author names, adding " et al." when the
// list is longer.
func authorNames(authors gjson.Result, n int) string {
	all := authors.Array()
	names := make([]string, 0, min(n, len(all)))
	for _, a := range all[:min(n, len(all))] {
		names = append(names, a.Get("name").String())
	}
	s := strings.Join(names, ", ")
	if len(all) > n {
		s += " et al."
	}
	return s
}

// authorLinks renders the first n authors as profile links followed by
// "and N others".
func authorLinks(authors gjson.Result, n int) string {
	all := authors.Array()
	links := make([]string, 0, min(n, len(all)))
	for _, a := range all[:min(n, len(all))] {
		name := a.Get("name").String()
		if id := a.Get("authorId").String(); id != "" {
			links = append(links, "["+name+"]("+authorURL+id+")")
		} else {
			links = append(links, name)
		}
	}
	s := strings.Join(links, ", ")
	if len(all) > n {
		s += " and " + strconv.Itoa(len(all)-n) + " others"
	}
	return s
}

// publishedDate renders an ISO publication date as "January 02, 2006".
// Values that do not parse are returned as-is.
func publishedDate(s string) string {
	for _, layout := range []string{"2006-01-02", time.RFC3339} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format("January 02, 2006")
		}
	}
	return s
}

// truncate shortens s to n runes, appending "..." when it was cut.
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}

// paperLink prefers the paper's own url and falls back to its Semantic
// Scholar page.
func paperLink(p gjson.Result) string {
	if u := p.Get("url").String(); u != "" {
		return u
	}
	if id := p.Get("paperId").String(); id != "" {
		return paperURL + id
	}
	return ""
}

// normalizePaperID turns a bare DOI into the DOI: form the API expects.
// IDs that already carry a prefix such as "ARXIV:" or "URL:" are kept.
func normalizePaperID(id string) string {
	id = strings.TrimSpace(id)
	if i := strings.Index(id, ":"); i > 0 && !strings.Contains(id[:i], "/") && !strings.Contains(id[:i], ".") {
		return id
	}
	if strings.HasPrefix(id, "10.") || strings.Contains(id, "/") {
		return "DOI:" + id
	}
	return id
}
