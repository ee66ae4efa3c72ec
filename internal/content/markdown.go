package content

import (
	"regexp"
	"strings"
)

var (
	inlineHeader  = regexp.MustCompile(`([^\n#])[ \t]*(#{1,6}\s)`)
	tripleStar    = regexp.MustCompile(`\*\*\*\s*([^*]+?)\s*\*\*\*`)
	boldSpan      = regexp.MustCompile(`([a-zA-Z0-9]?)\*\*\s*(.*?)\s*\*\*([a-zA-Z0-9]?)`)
	spaceComma    = regexp.MustCompile(`\s+,`)
	spacePeriod   = regexp.MustCompile(`\s+\.`)
	repeatedBlank = regexp.MustCompile(`[ \t]{2,}`)

	htmlBreak   = regexp.MustCompile(`(?i)<br\s*/?>`)
	htmlParaEnd = regexp.MustCompile(`(?i)</p>`)
	htmlHeading = regexp.MustCompile(`(?i)<h[1-6]>(.*?)</h[1-6]>`)
	htmlStrong  = regexp.MustCompile(`(?i)<strong>(.*?)</strong>`)
	htmlB       = regexp.MustCompile(`(?i)<b>(.*?)</b>`)
	htmlEm      = regexp.MustCompile(`(?i)<em>(.*?)</em>`)
	htmlI       = regexp.MustCompile(`(?i)<i>(.*?)</i>`)
	htmlLink    = regexp.MustCompile(`(?i)<a href="(.*?)">(.*?)</a>`)
	htmlImg     = regexp.MustCompile(`(?i)<img[^>]+src="([^">]+)"[^>]*>`)
	htmlTag     = regexp.MustCompile(`<[^>]+>`)

	nonSlug = regexp.MustCompile(`[^a-z0-9]+`)
)

// CleanMarkdown normalises imported Markdown before it is served.
func CleanMarkdown(text string) string {
	if text == "" {
		return ""
	}
	text = inlineHeader.ReplaceAllString(text, "${1}\n\n${2}")
	text = tripleStar.ReplaceAllString(text, "*${1}*")
	text = fixBold(text)
	text = spaceComma.ReplaceAllString(text, ",")
	text = spacePeriod.ReplaceAllString(text, ".")
	text = repeatedBlank.ReplaceAllString(text, " ")
	return text
}

// fixBold trims whitespace inside **bold** spans and separates them from
// adjacent letters or digits.
func fixBold(text string) string {
	matches := boldSpan.FindAllStringSubmatchIndex(text, -1)
	if len(matches) == 0 {
		return text
	}
	var b strings.Builder
	last := 0
	for _, m := range matches {
		b.WriteString(text[last:m[0]])
		prefix, inner, suffix := text[m[2]:m[3]], text[m[4]:m[5]], text[m[6]:m[7]]
		if prefix != "" {
			b.WriteString(prefix)
			b.WriteByte(' ')
		}
		b.WriteString("**")
		b.WriteString(inner)
		b.WriteString("**")
		if suffix != "" {
			b.WriteByte(' ')
			b.WriteString(suffix)
		}
		last = m[1]
	}
	b.WriteString(text[last:])
	return b.String()
}

// HTMLToMarkdown converts the small HTML subset used by feed items.
func HTMLToMarkdown(html string) string {
	if html == "" {
		return ""
	}
	md := htmlBreak.ReplaceAllString(html, "\n")
	md = htmlParaEnd.ReplaceAllString(md, "\n\n")
	md = htmlHeading.ReplaceAllString(md, "## ${1}\n")
	md = htmlStrong.ReplaceAllString(md, "**${1}**")
	md = htmlB.ReplaceAllString(md, "**${1}**")
	md = htmlEm.ReplaceAllString(md, "*${1}*")
	md = htmlI.ReplaceAllString(md, "*${1}*")
	md = htmlLink.ReplaceAllString(md, "[${2}](${1})")
	md = htmlImg.ReplaceAllString(md, "\n![Image](${1})\n")
	md = htmlTag.ReplaceAllString(md, "")
	md = strings.ReplaceAll(md, "&nbsp;", " ")
	md = strings.ReplaceAll(md, "&amp;", "&")
	md = strings.ReplaceAll(md, "&lt;", "<")
	md = strings.ReplaceAll(md, "&gt;", ">")
	return md
}

// Slug derives a blog id from its title.
func Slug(title string) string {
	return nonSlug.ReplaceAllString(strings.ToLower(title), "-")
}
