package sandbox

import (
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Report summarizes the structure of a sandbox document.
type Report struct {
	Title          string   `json:"title"`
	Generation     string   `json:"generation"`
	RuntimeScripts []string `json:"runtimeScripts"`
	PlainScripts   int      `json:"plainScripts"`
	BabelScripts   int      `json:"babelScripts"`
	Styles         []string `json:"styles"`
	HasRoot        bool     `json:"hasRoot"`
	Placeholder    string   `json:"placeholder,omitempty"`
}

// Inspect parses a built document and reports what it contains.
func Inspect(document string) (Report, error) {
	node, err := html.Parse(strings.NewReader(document))
	if err != nil {
		return Report{}, err
	}

	var report Report
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.DataAtom {
			case atom.Title:
				report.Title = textOf(n)
			case atom.Meta:
				if attr(n, "name") == "jsxlive-generation" {
					report.Generation = attr(n, "content")
				}
			case atom.Style:
				report.Styles = append(report.Styles, textOf(n))
			case atom.Script:
				switch {
				case attr(n, "src") != "":
					report.RuntimeScripts = append(report.RuntimeScripts, attr(n, "src"))
				case attr(n, "type") == "text/babel":
					report.BabelScripts++
				default:
					report.PlainScripts++
				}
			case atom.Div:
				if attr(n, "id") == "root" {
					report.HasRoot = true
				}
			}
			if v := attr(n, "data-preview-placeholder"); v != "" && report.Placeholder == "" {
				report.Placeholder = v
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(node)

	return report, nil
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}

	return ""
}

func textOf(n *html.Node) string {
	var b strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.TextNode {
			b.WriteString(c.Data)
		}
	}

	return b.String()
}
