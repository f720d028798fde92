package pubmed

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

const efetchXML = `<?xml version="1.0" ?>
<!DOCTYPE PubmedArticleSet PUBLIC "-//NLM//DTD PubMedArticle, 1st January 2024//EN" "https://dtd.nlm.nih.gov/ncbi/pubmed/out/pubmed_240101.dtd">
<PubmedArticleSet>
  <PubmedArticle>
    <MedlineCitation Status="MEDLINE" Owner="NLM">
      <PMID Version="1">111</PMID>
      <Article PubModel="Print">
        <Journal>
          <JournalIssue CitedMedium="Internet">
            <PubDate><Year>2024</Year><Month>Jan</Month></PubDate>
          </JournalIssue>
        </Journal>
        <ArticleTitle>Statins in <i>older</i> adults.</ArticleTitle>
        <Abstract>
          <AbstractText Label="BACKGROUND">Statins &amp; outcomes.</AbstractText>
          <AbstractText Label="RESULTS">Mortality fell.</AbstractText>
        </Abstract>
      </Article>
    </MedlineCitation>
  </PubmedArticle>
  <PubmedArticle>
    <MedlineCitation>
      <PMID Version="1">222</PMID>
      <Article>
        <Journal><JournalIssue><PubDate><MedlineDate>2023 Winter</MedlineDate></PubDate></JournalIssue></Journal>
        <ArticleTitle>No abstract here</ArticleTitle>
      </Article>
    </MedlineCitation>
  </PubmedArticle>
</PubmedArticleSet>`

type fakeEutils struct {
	esearchStatus int
	esearchBody   string
	efetchStatus  int
	efetchBody    string
	queries       map[string]string
}

func (f *fakeEutils) server(t *testing.T) *httptest.Server {
	t.Helper()
	f.queries = make(map[string]string)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.queries[r.URL.Path] = r.URL.RawQuery
		switch r.URL.Path {
		case "/esearch.fcgi":
			w.WriteHeader(f.esearchStatus)
			_, _ = w.Write([]byte(f.esearchBody))
		case "/efetch.fcgi":
			w.WriteHeader(f.efetchStatus)
			_, _ = w.Write([]byte(f.efetchBody))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestFetchByKeyword(t *testing.T) {
	f := &fakeEutils{
		esearchStatus: http.StatusOK,
		esearchBody:   `{"header":{},"esearchresult":{"count":"2","idlist":["111","222"]}}`,
		efetchStatus:  http.StatusOK,
		efetchBody:    efetchXML,
	}
	srv := f.server(t)
	c := NewClient(Options{BaseURL: srv.URL + "/", APIKey: "k123"}, nil)

	articles, err := c.FetchByKeyword(context.Background(), "  statins ", 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(articles) != 2 {
		t.Fatalf("got %d articles, want 2", len(articles))
	}
	first := articles[0]
	if first.ID != "111" || first.Year != "2024" {
		t.Errorf("first = %+v", first)
	}
	if first.Title != "Statins in older adults." {
		t.Errorf("title = %q", first.Title)
	}
	if first.Abstract != "Statins & outcomes. Mortality fell." {
		t.Errorf("abstract = %q", first.Abstract)
	}
	second := articles[1]
	if second.ID != "222" || second.Abstract != "" || second.Year != "" {
		t.Errorf("second = %+v", second)
	}

	search := f.queries["/esearch.fcgi"]
	for _, want := range []string{"db=pubmed", "term=statins", "retmax=2", "retmode=json", "api_key=k123"} {
		if !strings.Contains(search, want) {
			t.Errorf("esearch query %q missing %q", search, want)
		}
	}
	fetch := f.queries["/efetch.fcgi"]
	for _, want := range []string{"id=111%2C222", "retmode=xml"} {
		if !strings.Contains(fetch, want) {
			t.Errorf("efetch query %q missing %q", fetch, want)
		}
	}
}

func TestFetchByKeyword_Errors(t *testing.T) {
	tests := []struct {
		name    string
		keyword string
		f       fakeEutils
		wantIs  error
	}{
		{name: "blank keyword", keyword: "   ", wantIs: ErrInvalidKeyword},
		{
			name:    "no ids",
			keyword: "zzz",
			f:       fakeEutils{esearchStatus: http.StatusOK, esearchBody: `{"esearchresult":{"idlist":[]}}`},
			wantIs:  ErrNoResults,
		},
		{
			name:    "esearch status",
			keyword: "x",
			f:       fakeEutils{esearchStatus: http.StatusTooManyRequests, esearchBody: `{}`},
		},
		{
			name:    "esearch bad json",
			keyword: "x",
			f:       fakeEutils{esearchStatus: http.StatusOK, esearchBody: `not json`},
		},
		{
			name:    "efetch status",
			keyword: "x",
			f: fakeEutils{
				esearchStatus: http.StatusOK,
				esearchBody:   `{"esearchresult":{"idlist":["1"]}}`,
				efetchStatus:  http.StatusInternalServerError,
			},
		},
		{
			name:    "efetch bad xml",
			keyword: "x",
			f: fakeEutils{
				esearchStatus: http.StatusOK,
				esearchBody:   `{"esearchresult":{"idlist":["1"]}}`,
				efetchStatus:  http.StatusOK,
				efetchBody:    `<PubmedArticleSet><PubmedArticle>`,
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := tt.f.server(t)
			c := NewClient(Options{BaseURL: srv.URL}, nil)
			articles, err := c.FetchByKeyword(context.Background(), tt.keyword, 3)
			if err == nil {
				t.Fatalf("expected error, got %v", articles)
			}
			if tt.wantIs != nil && !errors.Is(err, tt.wantIs) {
				t.Errorf("error %v is not %v", err, tt.wantIs)
			}
			if articles != nil {
				t.Errorf("expected nil articles on error, got %v", articles)
			}
		})
	}
}
