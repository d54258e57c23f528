// Package previewer renders TypeScript documentation comments and JSDoc tags
// as markdown.
package previewer

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/walteh/tshover/pkg/quickinfo"
)

// LinkResolver maps an engine file path to a URI the client can open.
type LinkResolver func(path string) string

// Markdown is the default documentation renderer.
type Markdown struct{}

var (
	inlineLinkRegexp = regexp.MustCompile(`(?i)\{@(link|linkplain|linkcode) (https?://[^ |}]+?)(?:[| ]([^{}\n]+?))?\}`)
	paramBodyRegexp  = regexp.MustCompile(`^(\S+)\s*-?\s*`)
	captionRegexp    = regexp.MustCompile(`<caption>(.*?)</caption>\s*(\r\n|\n)`)
	authorRegexp     = regexp.MustCompile(`(.+)\s<([-.\w]+@[-.\w]+)>`)
	fencedRegexp     = regexp.MustCompile("(?m)^\\s*[~`]{3}")
	newlineRegexp    = regexp.MustCompile(`\r\n|\n`)
)

// Render returns false when there is neither documentation nor a tag to show.
func (Markdown) Render(documentation []quickinfo.DisplayPart, tags []quickinfo.Tag, resolve LinkResolver) (string, bool) {
	links := newLinkCache(resolve)

	blocks := make([]string, 0, 2)

	if doc := convertLinkTags(documentation, links); doc != "" {
		blocks = append(blocks, doc)
	}

	if preview := tagsPreview(tags, links); preview != "" {
		blocks = append(blocks, preview)
	}

	if len(blocks) == 0 {
		return "", false
	}

	return strings.Join(blocks, "\n\n"), true
}

// linkCache calls the resolver at most once per distinct path.
type linkCache struct {
	resolve LinkResolver
	seen    map[string]string
}

func newLinkCache(resolve LinkResolver) *linkCache {
	return &linkCache{resolve: resolve, seen: map[string]string{}}
}

func (me *linkCache) uri(path string) string {
	if u, ok := me.seen[path]; ok {
		return u
	}
	u := path
	if me.resolve != nil {
		u = me.resolve(path)
	}
	me.seen[path] = u
	return u
}

type pendingLink struct {
	name    string
	text    string
	hasText bool
	target  *quickinfo.LinkTarget
}

// convertLinkTags flattens parts, turning link/linkName/linkText/link runs
// into markdown links.
func convertLinkTags(parts []quickinfo.DisplayPart, links *linkCache) string {
	var out strings.Builder
	var current *pendingLink

	for _, part := range parts {
		switch part.Kind {
		case quickinfo.KindLink:
			if current == nil {
				current = &pendingLink{}
				continue
			}

			text := current.name
			if current.hasText {
				text = current.text
			}

			if current.target != nil {
				out.WriteString(fmt.Sprintf("[%s](%s)", text, targetURI(current.target, links)))
			} else if text != "" {
				out.WriteString(text)
			}
			current = nil
		case quickinfo.KindLinkName:
			if current != nil {
				current.name = part.Text
				current.target = part.Target
			}
		case quickinfo.KindLinkText:
			if current != nil {
				current.text = part.Text
				current.hasText = true
			}
		default:
			out.WriteString(part.Text)
		}
	}

	return processInlineTags(out.String())
}

func targetURI(target *quickinfo.LinkTarget, links *linkCache) string {
	u := links.uri(target.File)
	if target.Start != nil {
		u += fmt.Sprintf("#L%d,%d", target.Start.Line, target.Start.Column)
	}
	return u
}

// processInlineTags rewrites {@link https://... text} style references that
// the engine left as plain text.
func processInlineTags(text string) string {
	return inlineLinkRegexp.ReplaceAllStringFunc(text, func(match string) string {
		m := inlineLinkRegexp.FindStringSubmatch(match)
		tag, link, label := strings.ToLower(m[1]), m[2], m[3]
		if label == "" {
			label = link
		}
		if tag == "linkcode" {
			return fmt.Sprintf("[`%s`](%s)", label, link)
		}
		return fmt.Sprintf("[%s](%s)", label, link)
	})
}

func tagsPreview(tags []quickinfo.Tag, links *linkCache) string {
	out := make([]string, 0, len(tags))
	for _, tag := range tags {
		out = append(out, tagDocumentation(tag, links))
	}
	return strings.Join(out, "  \n\n")
}

func tagDocumentation(tag quickinfo.Tag, links *linkCache) string {
	switch tag.Name {
	case "augments", "extends", "param", "template":
		body := convertLinkTags(tag.Text, links)
		if m := paramBodyRegexp.FindStringSubmatchIndex(body); m != nil {
			param := body[m[2]:m[3]]
			doc := body[m[1]:]
			label := fmt.Sprintf("*@%s* `%s`", tag.Name, param)
			if doc == "" {
				return label
			}
			return label + separated(processInlineTags(doc))
		}
	}

	label := fmt.Sprintf("*@%s*", tag.Name)
	text := tagBodyText(tag, links)
	if text == "" {
		return label
	}
	return label + separated(text)
}

// separated puts multi-line bodies on their own line and single-line bodies
// after a dash.
func separated(text string) string {
	if newlineRegexp.MatchString(text) {
		return "  \n" + text
	}
	return " — " + text
}

func tagBodyText(tag quickinfo.Tag, links *linkCache) string {
	if len(tag.Text) == 0 {
		return ""
	}

	text := convertLinkTags(tag.Text, links)

	switch tag.Name {
	case "example":
		if m := captionRegexp.FindStringSubmatchIndex(text); m != nil && m[0] == 0 {
			return text[m[2]:m[3]] + "\n" + makeCodeblock(text[m[1]:])
		}
		return makeCodeblock(text)
	case "author":
		m := authorRegexp.FindStringSubmatch(text)
		if m == nil {
			return text
		}
		return m[1] + " " + m[2]
	case "default":
		return makeCodeblock(text)
	}

	return processInlineTags(text)
}

func makeCodeblock(text string) string {
	if fencedRegexp.MatchString(text) {
		return text
	}
	return "```\n" + text + "\n```"
}
