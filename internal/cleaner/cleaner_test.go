package cleaner

import (
	"context"
	"os"
	"regexp"
	"sync"
	"testing"

	"github.com/bnema/linkers/internal/pipeline"
	"github.com/bnema/linkers/internal/rules"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mapResolver struct {
	name    string
	results map[string]string
}

func (m mapResolver) Name() string { return m.name }

func (m mapResolver) Resolve(_ context.Context, rawURL string) (string, error) {
	return m.results[rawURL], nil
}

func exampleRules() *rules.RuleSet {
	return rules.NewRuleSet(&rules.Provider{
		Name:       "example",
		URLPattern: regexp.MustCompile(`example\.com`),
		Rules:      []*regexp.Regexp{regexp.MustCompile(`^utm_`)},
		Exceptions: []*regexp.Regexp{regexp.MustCompile(`example\.com/keep`)},
	})
}

func fixtureRules(t *testing.T) *rules.RuleSet {
	t.Helper()
	f, err := os.Open("../rules/testdata/providers.json")
	require.NoError(t, err)
	defer f.Close()

	doc, err := rules.Parse(f)
	require.NoError(t, err)
	set, _ := rules.Compile(doc, rules.CompileOptions{})
	return set
}

func TestCandidates(t *testing.T) {
	text := "a http://x.test/1 b\nhttps://y.test/2?q=1\tc ftp://no.test https://x.test/1"
	assert.Equal(t, []string{
		"http://x.test/1",
		"https://y.test/2?q=1",
		"https://x.test/1",
	}, Candidates(text))
	assert.Empty(t, Candidates("no links here"))
}

func TestCandidatesUnicodeWhitespace(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string
	}{
		{"no-break space", "siehe https://a.test/x?k=1\u00a0und mehr", []string{"https://a.test/x?k=1"}},
		{"ideographic space", "https://a.test/1\u3000https://b.test/2", []string{"https://a.test/1", "https://b.test/2"}},
		{"vertical tab", "https://a.test/1\vweiter", []string{"https://a.test/1"}},
		{"next line", "https://a.test/1\u0085weiter", []string{"https://a.test/1"}},
		{"line separator", "https://a.test/1\u2028weiter", []string{"https://a.test/1"}},
		{"non-ascii path kept", "https://a.test/grüße?x=ä", []string{"https://a.test/grüße?x=ä"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Candidates(tt.text))
		})
	}
}

func TestCleanStopsAtNoBreakSpace(t *testing.T) {
	c := New(exampleRules(), nil)
	got := c.Clean(context.Background(), "siehe https://example.com/x?utm_source=a&keep=1\u00a0und mehr")
	assert.Equal(t, []string{"https://example.com/x?keep=1"}, got)
}

func TestCleanScenarios(t *testing.T) {
	ctx := context.Background()

	t.Run("strips tracking", func(t *testing.T) {
		c := New(exampleRules(), nil)
		got := c.Clean(ctx, "see https://example.com/x?utm_source=a&keep=1")
		assert.Equal(t, []string{"https://example.com/x?keep=1"}, got)
	})

	t.Run("untracked urls yield nothing", func(t *testing.T) {
		c := New(exampleRules(), nil)
		got := c.Clean(ctx, "https://other.test/a?b=c and https://example.com/x?keep=1")
		assert.Empty(t, got)
	})

	t.Run("amp canonical without provider match is reported", func(t *testing.T) {
		amp := mapResolver{name: "amp", results: map[string]string{
			"https://amp.news.test/story.amp": "https://news.test/story",
		}}
		c := New(exampleRules(), pipeline.New(pipeline.Stage{Resolver: amp}))

		got := c.Clean(ctx, "look https://amp.news.test/story.amp")
		assert.Equal(t, []string{"https://news.test/story"}, got)
	})

	t.Run("canonical target longer than original is still reported", func(t *testing.T) {
		redirect := mapResolver{name: "redirect", results: map[string]string{
			"https://t.test/a": "https://destination.test/a/very/long/path",
		}}
		c := New(exampleRules(), pipeline.New(pipeline.Stage{Resolver: redirect}))

		got := c.Clean(ctx, "https://t.test/a")
		assert.Equal(t, []string{"https://destination.test/a/very/long/path"}, got)
	})

	t.Run("redirect without result leaves url out", func(t *testing.T) {
		redirect := mapResolver{name: "redirect"}
		c := New(exampleRules(), pipeline.New(pipeline.Stage{Resolver: redirect}))

		assert.Empty(t, c.Clean(ctx, "https://t.test/a"))
	})

	t.Run("canonical target is stripped afterwards", func(t *testing.T) {
		redirect := mapResolver{name: "redirect", results: map[string]string{
			"https://t.test/a": "https://example.com/post?utm_medium=social&id=4",
		}}
		c := New(exampleRules(), pipeline.New(pipeline.Stage{Resolver: redirect}))

		assert.Equal(t, []string{"https://example.com/post?id=4"}, c.Clean(ctx, "https://t.test/a"))
	})

	t.Run("exception veto", func(t *testing.T) {
		c := New(exampleRules(), nil)
		assert.Empty(t, c.Clean(ctx, "https://example.com/keep?utm_source=a"))
	})

	t.Run("exception after canonicalization keeps canonical form", func(t *testing.T) {
		redirect := mapResolver{name: "redirect", results: map[string]string{
			"https://t.test/k": "https://example.com/keep?utm_source=a",
		}}
		c := New(exampleRules(), pipeline.New(pipeline.Stage{Resolver: redirect}))

		assert.Equal(t, []string{"https://example.com/keep?utm_source=a"}, c.Clean(ctx, "https://t.test/k"))
	})
}

func TestCleanKeepsOrderAndDuplicates(t *testing.T) {
	c := New(fixtureRules(t), nil)

	phoronix := "https://www.phoronix.com/scan.php?page=news_item&px=Ioquake3-Auto-Updater"
	text := "test3 https://enteentelos.de buzz " +
		"https://www.google.de/search?q=google&source=hp&ei=LgC7ZJb4Oq6Gxc8Pke6SuAw&uact=5&oq=google&sclient=gws-wiz aft3ge  " +
		phoronix + "&utm_source=feedburner&utm_medium=feed " +
		"again " + phoronix + "&utm_campaign=Feed%3A+Phoronix+(Phoronix)"

	got := c.Clean(context.Background(), text)
	assert.Equal(t, []string{
		"https://www.google.de/search?q=google",
		phoronix,
		phoronix,
	}, got)
}

func TestCleanIsIdempotent(t *testing.T) {
	c := New(fixtureRules(t), nil)
	ctx := context.Background()

	first := c.Clean(ctx, "https://www.phoronix.com/scan.php?page=news_item&utm_source=x https://www.google.com/search?q=a&ved=1")
	require.Len(t, first, 2)

	for _, link := range first {
		assert.Empty(t, c.Clean(ctx, link), "cleaning %s again must find nothing", link)
	}
}

func TestInspect(t *testing.T) {
	redirect := mapResolver{name: "redirect", results: map[string]string{
		"https://t.test/a": "https://example.com/a?utm_source=x",
	}}
	c := New(exampleRules(), pipeline.New(pipeline.Stage{Resolver: redirect}))

	links := c.Inspect(context.Background(), "https://t.test/a https://plain.test/")
	require.Len(t, links, 2)

	assert.Equal(t, Link{
		Original: "https://t.test/a",
		Cleaned:  "https://example.com/a",
		Included: true,
		Stages:   []string{"redirect"},
	}, links[0])
	assert.Equal(t, Link{Original: "https://plain.test/", Cleaned: "https://plain.test/"}, links[1])
}

func TestCleanURL(t *testing.T) {
	c := New(exampleRules(), nil)

	got, ok := c.CleanURL(context.Background(), "https://example.com/?utm_term=z")
	assert.True(t, ok)
	assert.Equal(t, "https://example.com/", got)

	_, ok = c.CleanURL(context.Background(), "https://example.com/?id=1")
	assert.False(t, ok)
}

func TestCleanConcurrent(t *testing.T) {
	c := New(fixtureRules(t), nil)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got := c.Clean(ctx, "https://www.google.de/search?q=x&ei=1 https://news.test/?fbclid=abc")
			assert.Equal(t, []string{"https://www.google.de/search?q=x", "https://news.test/"}, got)
		}()
	}
	wg.Wait()
}

func TestReply(t *testing.T) {
	tests := []struct {
		name  string
		links []string
		want  string
	}{
		{name: "nothing", links: nil, want: ReplyNothingFound},
		{name: "one", links: []string{"https://a.test/"}, want: "Hier der Link ohne Tracking:\n- https://a.test/\n"},
		{
			name:  "several",
			links: []string{"https://a.test/", "https://b.test/"},
			want:  "Hier die Links ohne Tracking:\n- https://a.test/\n- https://b.test/\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Reply(tt.links))
		})
	}
}
