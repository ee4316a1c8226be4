package cleanerml_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/beevik/etree"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lakshaymaurya-felt/cleanml/internal/action"
	"github.com/lakshaymaurya-felt/cleanml/internal/cleaner"
	"github.com/lakshaymaurya-felt/cleanml/internal/cleanerml"
	"github.com/lakshaymaurya-felt/cleanml/internal/platform"
	"github.com/lakshaymaurya-felt/cleanml/internal/vars"
)

func loader(plat string) *cleanerml.Loader {
	l := cleanerml.NewLoader()
	l.Matcher = platform.Matcher{Platform: plat}
	return l
}

func load(t *testing.T, l *cleanerml.Loader, doc string) *cleaner.Cleaner {
	t.Helper()
	c, err := l.Load(strings.NewReader(doc), "test.xml")
	require.NoError(t, err)
	return c
}

func commandStrings(t *testing.T, c *cleaner.Cleaner, option string) []string {
	t.Helper()
	cmds, err := c.Commands(option)
	require.NoError(t, err)
	var out []string
	for cmd, err := range cmds {
		require.NoError(t, err)
		out = append(out, cmd.String())
	}
	return out
}

func TestLoadFull(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "profile"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "profile", "cache.db"), []byte("x"), 0o644))

	doc := `<?xml version="1.0" encoding="UTF-8"?>
<cleaner id="example">
  <label translate="true">Example</label>
  <description translators="app name">Example application</description>
  <var name="base">
    <value>` + filepath.Join(dir, "old") + `</value>
    <value os="windows">C:\Example</value>
  </var>
  <var name="base">
    <value>` + filepath.Join(dir, "profile") + `</value>
  </var>
  <option id="cache">
    <label>Cache</label>
    <description>Delete the cache</description>
    <action command="delete" search="file" path="$$base$$/cache.db"/>
    <action command="delete" os="windows" path="C:\never"/>
  </option>
  <option id="history">
    <label translate="false">History</label>
    <description>Delete the history</description>
    <warning>History cannot be restored.</warning>
    <action command="delete" search="glob" path="` + dir + `/*.history"/>
  </option>
  <running type="exe">example</running>
  <running type="pathname" os="windows">%APPDATA%\lock</running>
</cleaner>`

	var strs []string
	l := loader("linux")
	l.Translate = func(msgid, translators string) {
		if translators != "" {
			msgid += " #" + translators
		}
		strs = append(strs, msgid)
	}
	c := load(t, l, doc)
	require.NotNil(t, c)

	assert.Equal(t, "example", c.ID)
	assert.Equal(t, "Example", c.Name)
	assert.Equal(t, "Example application", c.Description)
	assert.True(t, c.IsUsable())
	assert.Len(t, c.Options(), 2)

	assert.Equal(t, []string{"Delete " + filepath.Join(dir, "profile", "cache.db")}, commandStrings(t, c, "cache"))
	assert.Empty(t, commandStrings(t, c, "history"))

	w, ok := c.Warning("history")
	assert.True(t, ok)
	assert.Equal(t, "History cannot be restored.", w)

	assert.Equal(t, []cleaner.RunningTest{{Type: "exe", Value: "example"}}, c.Running())
	assert.Equal(t, []string{
		"Example",
		"Example application #app name",
		"Cache",
		"Delete the cache",
		"Delete the history",
		"History cannot be restored.",
	}, strs)
}

func TestRootOSMismatchYieldsNothing(t *testing.T) {
	c, err := loader("linux").Load(strings.NewReader(`<cleaner id="w" os="windows"><label>W</label></cleaner>`), "w.xml")
	require.NoError(t, err)
	assert.Nil(t, c)
}

func TestUnknownPlatform(t *testing.T) {
	_, err := loader("linux").Load(strings.NewReader(`<cleaner id="w" os="bogus"><label>W</label></cleaner>`), "w.xml")
	assert.ErrorIs(t, err, platform.ErrUnsupportedPlatform)
}

func TestExtractionModeMatchesEverything(t *testing.T) {
	l := loader("linux")
	l.Matcher.Extraction = true
	c := load(t, l, `<cleaner id="w" os="windows"><label>W</label>
	  <option id="o"><label>O</label><description>D</description>
	    <action command="delete" os="windows" path="C:\x"/></option></cleaner>`)
	require.NotNil(t, c)
	assert.True(t, c.IsUsable())
}

func TestMalformed(t *testing.T) {
	docs := map[string]string{
		"not xml":  `<cleaner`,
		"no root":  `<other id="x"/>`,
		"no id":    `<cleaner><label>X</label></cleaner>`,
		"no label": `<cleaner id="x"><description>d</description></cleaner>`,
	}
	for name, doc := range docs {
		t.Run(name, func(t *testing.T) {
			_, err := loader("linux").Load(strings.NewReader(doc), name)
			assert.ErrorIs(t, err, cleanerml.ErrMalformed)
		})
	}
}

func TestBadOptionIsIsolated(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "b.log")
	require.NoError(t, os.WriteFile(target, []byte("x"), 0o644))

	c := load(t, loader("linux"), `<cleaner id="x"><label>X</label>
	  <option id="a"><label>A</label><description>A</description>
	    <action command="delete" path="`+filepath.Join(dir, "a.log")+`"/>
	    <action command="frobnicate" path="/x"/>
	  </option>
	  <option id="b"><label>B</label><description>B</description>
	    <action command="delete" path="`+target+`"/>
	  </option>
	  <option id="c"><label>C</label>
	    <action command="delete" path="/x"/>
	  </option>
	  <option id="d"><label>D</label><description>D</description>
	    <action command="delete" search="sideways" path="/x"/>
	  </option>
	</cleaner>`)
	require.NotNil(t, c)

	assert.True(t, c.IsUsable())
	assert.Equal(t, []cleaner.Option{{ID: "b", Name: "B", Description: "B"}}, c.Options())
	assert.Equal(t, []string{"Delete " + target}, commandStrings(t, c, "b"))

	_, err := c.Commands("a")
	assert.ErrorIs(t, err, cleaner.ErrUnknownOption)
}

func TestNoSurvivingActionsIsUnusable(t *testing.T) {
	c := load(t, loader("linux"), `<cleaner id="x"><label>X</label>
	  <option id="a"><label>A</label><description>A</description>
	    <action command="delete" os="windows" path="C:\x"/>
	  </option>
	</cleaner>`)
	require.NotNil(t, c)
	assert.False(t, c.IsUsable())
}

type catalog struct{ tags []string }

func (c *catalog) AddXML(el *etree.Element) { c.tags = append(c.tags, el.Tag) }

func TestLocalizations(t *testing.T) {
	doc := `<cleaner id="x"><label>X</label>
	  <localizations><path location="/usr/share/locale"/><path location="/usr/share/man"/></localizations>
	</cleaner>`

	cat := &catalog{}
	l := loader("linux")
	l.Locales = cat
	c := load(t, l, doc)
	assert.True(t, c.IsUsable(), "localization keeps the cleaner usable")
	assert.Equal(t, []string{"path", "path"}, cat.tags)
	assert.False(t, c.HasOption(cleanerml.LocalizationOption))

	c = load(t, loader("win32"), doc)
	assert.False(t, c.IsUsable())
}

func TestLocalizationsVisitedInExtraction(t *testing.T) {
	cat := &catalog{}
	l := loader("win32")
	l.Matcher.Extraction = true
	l.Locales = cat
	c := load(t, l, `<cleaner id="x"><label>X</label>
	  <localizations><path location="/usr/share/locale"/></localizations>
	</cleaner>`)
	assert.True(t, c.IsUsable())
	assert.Equal(t, []string{"path"}, cat.tags)
}

func TestActionAttributes(t *testing.T) {
	actions := action.NewRegistry()
	var got action.Attributes
	actions.MustRegister("inspect", func(attrs action.Attributes, _ *vars.Table) (action.Provider, error) {
		got = attrs
		return action.Noop(), nil
	})
	l := loader("linux")
	l.Actions = actions
	load(t, l, `<cleaner id="x"><label>X</label>
	  <option id="a"><label>A</label><description>A</description>
	    <action command="inspect" path="~/p" address="a/b"/>
	  </option></cleaner>`)
	assert.Equal(t, "~/p", got["path"])
	assert.Equal(t, "a/b", got["address"])
	assert.Equal(t, "inspect", got["command"])
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "x.xml")
	require.NoError(t, os.WriteFile(path, []byte(`<cleaner id="x"/>`), 0o644))
	_, err := loader("linux").LoadFile(path)
	assert.ErrorIs(t, err, cleanerml.ErrMalformed)
	assert.Contains(t, err.Error(), path)

	_, err = loader("linux").LoadFile(filepath.Join(t.TempDir(), "missing.xml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestSelfReferentialVarLoads(t *testing.T) {
	c := load(t, loader("linux"), `<cleaner id="loop"><label>Loop</label>
	  <var name="a"><value>$$a$$/x</value></var>
	  <option id="o"><label>O</label><description>D</description>
	    <action command="delete" path="$$a$$"/>
	  </option></cleaner>`)
	require.NotNil(t, c)
	assert.True(t, c.IsUsable())
	assert.Empty(t, commandStrings(t, c, "o"))
}
