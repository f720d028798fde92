package pubmed

import (
	"encoding/xml"
	"fmt"
	"io"
	"strings"

	"github.com/hyperjump/paperindex/internal/models"
)

type articleSet struct {
	Articles []pubmedArticle `xml:"PubmedArticle"`
}

type pubmedArticle struct {
	PMID     string `xml:"MedlineCitation>PMID"`
	Title    text   `xml:"MedlineCitation>Article>ArticleTitle"`
	Abstract []text `xml:"MedlineCitation>Article>Abstract>AbstractText"`
	Year     string `xml:"MedlineCitation>Article>Journal>JournalIssue>PubDate>Year"`
}

// text collects the character data of an element and all of its children,
// so titles with inline markup such as <i> keep their words.
type text string

func (t *text) UnmarshalXML(d *xml.Decoder, start xml.StartElement) error {
	var b strings.Builder
	for {
		tok, err := d.Token()
		if err != nil {
			return err
		}
		switch tk := tok.(type) {
		case xml.CharData:
			b.Write(tk)
		case xml.EndElement:
			if tk.Name == start.Name {
				*t = text(strings.Join(strings.Fields(b.String()), " "))
				return nil
			}
		}
	}
}

func parseArticles(r io.Reader) ([]models.Article, error) {
	var set articleSet
	if err := xml.NewDecoder(r).Decode(&set); err != nil {
		return nil, fmt.Errorf("decode efetch response: %w", err)
	}
	out := make([]models.Article, 0, len(set.Articles))
	for _, a := range set.Articles {
		sections := make([]string, 0, len(a.Abstract))
		for _, s := range a.Abstract {
			if s != "" {
				sections = append(sections, string(s))
			}
		}
		out = append(out, models.Article{
			ID:       strings.TrimSpace(a.PMID),
			Title:    string(a.Title),
			Abstract: strings.Join(sections, " "),
			Year:     strings.TrimSpace(a.Year),
		})
	}
	return out, nil
}
