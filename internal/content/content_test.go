package content

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"testing/fstest"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joaogabrielsantos/portfolio/internal/i18n"
	"github.com/joaogabrielsantos/portfolio/internal/richtext"
)

const minimal = `
name = "Ana"

[languages.PT.hero]
greeting = "Olá"
[languages.PT.about]
bio = "Sou **Ana**."
[languages.PT.timeline]
title = "Jornada"
[[languages.PT.timeline.events]]
year = "2024"
title = "Início"
description = "Veja [aqui](https://example.com)."
[languages.PT.toolkit]
title = "Ferramentas"
[languages.PT.contact]
title = "Contato"
email = "ana@example.com"

[languages.EN.hero]
greeting = "Hello"
[languages.EN.about]
bio = "I am **Ana**."
[languages.EN.timeline]
title = "Journey"
[[languages.EN.timeline.events]]
year = "2024"
title = "Start"
description = "See [here](https://example.com)."
[languages.EN.toolkit]
title = "Toolkit"
[languages.EN.contact]
title = "Contact"
email = "ana@example.com"
`

func TestLoadEmbedded(t *testing.T) {
	site, err := LoadEmbedded()
	require.NoError(t, err)

	assert.Equal(t, "João Gabriel dos Santos", site.Name)
	assert.Empty(t, site.Social)

	pt := site.Dictionary(i18n.PT)
	en := site.Dictionary(i18n.EN)
	assert.Equal(t, "Olá eu sou...", pt.Hero.Greeting)
	assert.Equal(t, "Hello, I am...", en.Hero.Greeting)
	assert.Len(t, pt.Timeline.Events, 6)
	assert.Len(t, en.Timeline.Events, 6)
	assert.Len(t, en.Toolkit.Items, 3)
}

func TestEmbeddedBioRendersStyledSpans(t *testing.T) {
	site, err := LoadEmbedded()
	require.NoError(t, err)

	tokens := richtext.Render(site.Dictionary(i18n.EN).About.Bio)
	require.NotEmpty(t, tokens)
	assert.Equal(t, richtext.Plain, tokens[0].Kind)
	assert.Equal(t, richtext.Bold, tokens[1].Kind)
	assert.Equal(t, "Belo Horizonte", tokens[1].Text)

	last := tokens[len(tokens)-1]
	assert.Equal(t, richtext.BoldItalic, last.Kind)
	assert.Equal(t, "Artificial Intelligence, Growth Marketing, and the Crypto market.", last.Text)
}

func TestDictionary_Links(t *testing.T) {
	site, err := LoadEmbedded()
	require.NoError(t, err)

	links := site.Dictionary(i18n.PT).Links()
	require.Len(t, links, 2)
	assert.Equal(t, "missão internacional em Barcelona", links[0].Text)
	assert.Equal(t, "https://inteligencia.sebraemg.com.br/isdel", links[1].URL)
}

func TestDictionary_FallsBackToDefault(t *testing.T) {
	site, err := Parse([]byte(minimal))
	require.NoError(t, err)

	assert.Equal(t, "Olá", site.Dictionary(i18n.Lang("FR")).Hero.Greeting)
}

func TestLoad(t *testing.T) {
	fsys := fstest.MapFS{"site.toml": {Data: []byte(minimal)}}

	site, err := Load(fsys, "site.toml")
	require.NoError(t, err)
	assert.Equal(t, "Ana", site.Name)

	_, err = Load(fsys, "missing.toml")
	assert.Error(t, err)
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		data    string
		wantErr string
	}{
		{name: "bad toml", data: "name = ", wantErr: "decoding content"},
		{name: "missing language", data: strings.Split(minimal, "[languages.EN.hero]")[0], wantErr: "language EN missing"},
		{
			name:    "timeline mismatch",
			data:    minimal + "\n[[languages.EN.timeline.events]]\nyear = \"2025\"\ntitle = \"More\"\ndescription = \"x\"\n",
			wantErr: "2 timeline events, want 1",
		},
		{
			name:    "unsafe link",
			data:    strings.Replace(minimal, "[here](https://example.com)", "[here](javascript:void)", 1),
			wantErr: "unsupported url",
		},
		{
			name:    "social link without url",
			data:    minimal + "\n[[social]]\nlabel = \"GitHub\"\nurl = \"\"\n",
			wantErr: `social "GitHub": invalid url`,
		},
		{
			name:    "empty greeting",
			data:    strings.Replace(minimal, `greeting = "Hello"`, `greeting = ""`, 1),
			wantErr: "hero.greeting is empty",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.data))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestTimelineRows(t *testing.T) {
	events := func(n int) Timeline {
		tl := Timeline{}
		for i := 0; i < n; i++ {
			tl.Events = append(tl.Events, Event{Year: string(rune('a' + i))})
		}
		return tl
	}

	assert.Empty(t, events(0).Rows())

	rows := events(5).Rows()
	require.Len(t, rows, 3)
	assert.True(t, rows[0].Forward)
	assert.False(t, rows[1].Forward)
	assert.True(t, rows[2].Forward)
	assert.Equal(t, "c", rows[1].First.Year)
	assert.Equal(t, "d", rows[1].Second.Year)
	assert.Nil(t, rows[2].Second)
	assert.True(t, rows[2].Last)
	assert.False(t, rows[0].Last)

	rows = events(6).Rows()
	require.Len(t, rows, 3)
	assert.NotNil(t, rows[2].Second)
}

func TestWatcher_Reload(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "site.toml")
	require.NoError(t, os.WriteFile(path, []byte(minimal), 0o644))

	w, err := NewWatcher(path)
	require.NoError(t, err)
	assert.Equal(t, "Ana", w.Site().Name)

	require.NoError(t, os.WriteFile(path, []byte(strings.Replace(minimal, `"Ana"`, `"Bia"`, 1)), 0o644))
	require.NoError(t, w.Reload())
	assert.Equal(t, "Bia", w.Site().Name)

	require.NoError(t, os.WriteFile(path, []byte("name = "), 0o644))
	assert.Error(t, w.Reload())
	assert.Equal(t, "Bia", w.Site().Name)
}

func TestWatcher_RunPicksUpWrites(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "site.toml")
	require.NoError(t, os.WriteFile(path, []byte(minimal), 0o644))

	w, err := NewWatcher(path)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		<-done
	})

	updated := []byte(strings.Replace(minimal, `"Ana"`, `"Caio"`, 1))
	assert.Eventually(t, func() bool {
		// rewrite until the watcher is attached and sees it
		_ = os.WriteFile(path, updated, 0o644)
		return w.Site().Name == "Caio"
	}, 5*time.Second, 50*time.Millisecond)
}

func TestNewWatcher_MissingFile(t *testing.T) {
	_, err := NewWatcher(filepath.Join(t.TempDir(), "nope.toml"))
	assert.Error(t, err)
}

func TestStatic(t *testing.T) {
	site := &Site{Name: "x"}
	assert.Same(t, site, Static(site).Site())
}

func TestParse_SocialLinks(t *testing.T) {
	data := minimal + "\n[[social]]\nlabel = \"GitHub\"\nurl = \"https://github.com/ana\"\n"
	site, err := Parse([]byte(data))
	require.NoError(t, err)
	assert.Equal(t, []SocialLink{{Label: "GitHub", URL: "https://github.com/ana"}}, site.Social)
}
