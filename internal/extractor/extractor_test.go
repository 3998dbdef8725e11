package extractor_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonesrussell/newsroom-crawler/internal/extractor"
)

// fixedNow is the clock used when no date is present on the page.
var fixedNow = time.Date(2025, 2, 14, 9, 30, 0, 0, time.UTC)

const fullArticleHTML = `<!DOCTYPE html>
<html>
<head><title>Acme Newsroom</title><style>h1 { color: red; }</style></head>
<body>
  <nav><h2>Navigation</h2></nav>
  <h1>  Acme and Beta announce
      strategic alliance </h1>
  <time datetime="2024-05-02T10:00:00Z">May 2, 2024</time>
  <article>
    <p>Acme and Beta will build a joint solution.</p>
    <script>track("pageview");</script>
    <p>The data platform launches next year.</p>
  </article>
</body>
</html>`

func TestExtract(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		html      string
		wantOK    bool
		wantTitle string
		wantBody  string
		wantDate  string
	}{
		{
			name:      "full article",
			html:      fullArticleHTML,
			wantOK:    true,
			wantTitle: "Acme and Beta announce strategic alliance",
			wantBody:  "Acme and Beta will build a joint solution. The data platform launches next year.",
			wantDate:  "May 2, 2024",
		},
		{
			name:      "h2 when h1 empty",
			html:      `<html><body><h1> </h1><h2>Second heading</h2><div class="entry-content">Entry body</div></body></html>`,
			wantOK:    true,
			wantTitle: "Second heading",
			wantBody:  "Entry body",
			wantDate:  "2025-02-14",
		},
		{
			name:      "post title class",
			html:      `<html><body><div class="post-title">Post</div><div class="post-content">Text</div><span class="post-date">01/02/2023</span></body></html>`,
			wantOK:    true,
			wantTitle: "Post",
			wantBody:  "Text",
			wantDate:  "01/02/2023",
		},
		{
			name:      "time datetime attribute when text empty",
			html:      `<html><body><h1>Title</h1><time datetime="2022-11-30"></time><p>a</p></body></html>`,
			wantOK:    true,
			wantTitle: "Title",
			wantBody:  "a",
			wantDate:  "2022-11-30",
		},
		{
			name:      "time datetime attribute over relative text",
			html:      `<html><body><h1>Title</h1><time datetime="2023-05-01">2 days ago</time><p>a</p></body></html>`,
			wantOK:    true,
			wantTitle: "Title",
			wantBody:  "a",
			wantDate:  "2023-05-01",
		},
		{
			name:      "time text without attribute",
			html:      `<html><body><h1>Title</h1><time>March 3, 2022</time><p>a</p></body></html>`,
			wantOK:    true,
			wantTitle: "Title",
			wantBody:  "a",
			wantDate:  "March 3, 2022",
		},
		{
			name:      "paragraph fallback body",
			html:      `<html><body><h1>Title</h1><p>First   para.</p><div><p>Second para.</p></div><p> </p></body></html>`,
			wantOK:    true,
			wantTitle: "Title",
			wantBody:  "First para. Second para.",
			wantDate:  "2025-02-14",
		},
		{
			name:      "empty body permitted",
			html:      `<html><body><h1>Only a title</h1></body></html>`,
			wantOK:    true,
			wantTitle: "Only a title",
			wantBody:  "",
			wantDate:  "2025-02-14",
		},
		{
			name:   "no title is no data",
			html:   `<html><body><p>Body without heading</p></body></html>`,
			wantOK: false,
		},
	}

	ex := extractor.New(extractor.WithClock(func() time.Time { return fixedNow }))

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, ok := ex.Extract([]byte(tt.html))
			require.Equal(t, tt.wantOK, ok)
			if !ok {
				return
			}
			assert.Equal(t, tt.wantTitle, got.Title)
			assert.Equal(t, tt.wantBody, got.Body)
			assert.Equal(t, tt.wantDate, got.PublishedRaw)
		})
	}
}

func TestExtract_CustomChains(t *testing.T) {
	t.Parallel()

	ex := extractor.New(extractor.WithChains(
		extractor.Selectors(".headline"),
		nil,
		extractor.Chain{{Selector: "meta[property='article:published_time']", Attr: "content"}},
	))

	got, ok := ex.Extract([]byte(`<html><head>
<meta property="article:published_time" content="2023-07-04"></head>
<body><h1>Ignored</h1><div class="headline">Custom</div><article>Body</article></body></html>`))
	require.True(t, ok)

	assert.Equal(t, "Custom", got.Title)
	assert.Equal(t, "Body", got.Body)
	assert.Equal(t, "2023-07-04", got.PublishedRaw)
}

func TestPageText(t *testing.T) {
	t.Parallel()

	text, err := extractor.PageText([]byte(`<html><head><title>Acme</title><script>var x = 1;</script></head>
<body>
   <p>First line</p>
   <div>Left  Right</div>
   <style>.a{}</style>
</body></html>`))
	require.NoError(t, err)

	assert.Equal(t, "Acme\nFirst line\nLeft\nRight", text)
}
