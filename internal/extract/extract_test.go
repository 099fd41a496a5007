package extract

import (
	"net/url"
	"strings"
	"testing"
)

func TestFromHTML_PrefersParagraphsAndHeadings(t *testing.T) {
	html := `<!doctype html>
    <html>
      <head><title>Test   Page</title></head>
      <body>
        <header><h1>Site banner</h1></header>
        <nav><p>Nav should be ignored</p></nav>
        <div>Loose div text</div>
        <h1>Main Heading</h1>
        <p>This is the   main
           content paragraph.</p>
        <h3>Sub</h3>
        <aside><p>Aside text</p></aside>
        <form><p>Newsletter</p></form>
        <footer>Footer text</footer>
        <script>var x = "script";</script>
      </body>
    </html>`

	doc := FromHTML([]byte(html))
	if doc.Title != "Test Page" {
		t.Fatalf("expected title 'Test Page', got %q", doc.Title)
	}
	if doc.FromBody {
		t.Fatalf("did not expect body fallback")
	}
	want := "Main Heading This is the main content paragraph. Sub"
	if doc.Text != want {
		t.Fatalf("unexpected text:\n got %q\nwant %q", doc.Text, want)
	}
	for _, bad := range []string{"Site banner", "Nav should", "Loose div", "Aside", "Newsletter", "Footer", "script"} {
		if strings.Contains(doc.Text, bad) {
			t.Fatalf("did not expect %q in %q", bad, doc.Text)
		}
	}
}

func TestFromHTML_FallbackToBody(t *testing.T) {
	html := `<!doctype html>
    <html>
      <head><title>No Paragraphs</title></head>
      <body>
        <nav>menu</nav>
        <div>Body   text only</div>
        <ul><li>item one</li><li>item two</li></ul>
      </body>
    </html>`

	doc := FromHTML([]byte(html))
	if !doc.FromBody {
		t.Fatalf("expected body fallback")
	}
	if doc.Text != "Body text only item one item two" {
		t.Fatalf("unexpected text %q", doc.Text)
	}
}

func TestFromHTML_SkipsConsentBanner(t *testing.T) {
	html := `<html><body class="cookie-consent-open">
      <div id="cookie-banner"><p>We use cookies</p></div>
      <p>Real content here.</p>
    </body></html>`
	doc := FromHTML([]byte(html))
	if doc.Text != "Real content here." {
		t.Fatalf("unexpected text %q", doc.Text)
	}
}

func TestFromHTML_KeepsContentAboutConsent(t *testing.T) {
	body := "Die Datenschutz-Grundverordnung regelt, wie personenbezogene Daten verarbeitet werden und welche Rechte Betroffene haben."
	html := `<html><body>
      <div class="main" data-topic="gdpr-explained"><p>` + body + `</p></div>
      <section id="informed-consent"><p>Informed consent is required.</p></section>
      <div class="consent-manager"><p>Accept all</p></div>
    </body></html>`
	doc := FromHTML([]byte(html))
	if doc.Text != body+" Informed consent is required." {
		t.Fatalf("unexpected text %q", doc.Text)
	}
}

func TestReadabilityExtractor_FallsBackOnEmpty(t *testing.T) {
	u, _ := url.Parse("https://example.com/x")
	doc := ReadabilityExtractor{}.Extract([]byte("<html><body></body></html>"), u)
	if doc.Text != "" {
		t.Fatalf("expected empty text, got %q", doc.Text)
	}
}

func TestByName(t *testing.T) {
	if _, ok := ByName("Readability").(ReadabilityExtractor); !ok {
		t.Fatalf("expected readability extractor")
	}
	if _, ok := ByName("").(HeuristicExtractor); !ok {
		t.Fatalf("expected heuristic extractor by default")
	}
}
