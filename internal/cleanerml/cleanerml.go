// Package cleanerml builds cleaners from CleanerML, the XML dialect that
// declares a cleaner's options, actions, variables and running tests.
package cleanerml

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/beevik/etree"

	"github.com/lakshaymaurya-felt/cleanml/internal/action"
	"github.com/lakshaymaurya-felt/cleanml/internal/cleaner"
	"github.com/lakshaymaurya-felt/cleanml/internal/logging"
	"github.com/lakshaymaurya-felt/cleanml/internal/platform"
	"github.com/lakshaymaurya-felt/cleanml/internal/vars"
)

// ErrMalformed is returned when a definition lacks a required element or
// attribute.
var ErrMalformed = errors.New("malformed cleaner definition")

// LocalizationOption is the option id owning the no-op action registered
// for a <localizations> block.
const LocalizationOption = "localization"

// StringCallback receives every translatable string of a definition with
// its translators note, which may be empty.
type StringCallback func(msgid, translators string)

// LocaleCatalog receives the children of <localizations> blocks.
type LocaleCatalog interface {
	AddXML(el *etree.Element)
}

// Loader parses CleanerML documents. Matcher and Actions are required.
type Loader struct {
	Matcher platform.Matcher
	Actions *action.Registry

	// Translate, when set, is called for every translatable string.
	Translate StringCallback

	// Locales, when set, receives <localizations> children.
	Locales LocaleCatalog

	// Processes is assigned to every loaded cleaner.
	Processes cleaner.ProcessLookup
}

// NewLoader returns a loader for the host platform with the built-in
// actions.
func NewLoader() *Loader {
	return &Loader{
		Matcher: platform.Host(),
		Actions: action.Default(),
	}
}

// LoadFile parses the definition at path.
func (l *Loader) LoadFile(path string) (*cleaner.Cleaner, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	c, err := l.Load(f, path)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return c, nil
}

// Load parses one definition. name identifies it in log messages. A root
// os attribute that excludes the platform yields a nil cleaner and no
// error. Options that fail to load are logged and skipped.
func (l *Loader) Load(r io.Reader, name string) (*cleaner.Cleaner, error) {
	doc := etree.NewDocument()
	if _, err := doc.ReadFrom(r); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	root := doc.SelectElement("cleaner")
	if root == nil {
		return nil, fmt.Errorf("%w: missing <cleaner> root", ErrMalformed)
	}

	ok, err := l.Matcher.Match(root.SelectAttrValue("os", ""))
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}

	id := root.SelectAttrValue("id", "")
	if id == "" {
		return nil, fmt.Errorf("%w: <cleaner> without id", ErrMalformed)
	}
	label := root.SelectElement("label")
	if label == nil {
		return nil, fmt.Errorf("%w: cleaner %q has no <label>", ErrMalformed, id)
	}

	c := cleaner.New(id, text(label), "")
	c.Processes = l.Processes
	if boolAttr(label, "translate", false) {
		l.translate(c.Name, "")
	}
	if desc := root.SelectElement("description"); desc != nil {
		c.Description = text(desc)
		l.translate(c.Description, desc.SelectAttrValue("translators", ""))
	}

	table := vars.New(l.Matcher)
	for _, v := range root.SelectElements("var") {
		if err := l.declareVar(table, v); err != nil {
			return nil, fmt.Errorf("cleaner %q: %w", id, err)
		}
	}

	logger := logging.GetLogger("cleanerml").With().Str("cleaner", id).Str("file", name).Logger()
	for _, opt := range root.SelectElements("option") {
		if err := l.loadOption(c, table, opt); err != nil {
			logger.Error().Err(err).Str("option", opt.SelectAttrValue("id", "")).Msg("Skipping option")
		}
	}

	for _, run := range root.SelectElements("running") {
		ok, err := l.Matcher.Match(run.SelectAttrValue("os", ""))
		if err != nil {
			return nil, fmt.Errorf("cleaner %q: %w", id, err)
		}
		if ok {
			c.AddRunning(run.SelectAttrValue("type", ""), text(run))
		}
	}

	l.loadLocalizations(c, root.SelectElements("localizations"))
	return c, nil
}

func (l *Loader) declareVar(table *vars.Table, v *etree.Element) error {
	name := v.SelectAttrValue("name", "")
	if name == "" {
		return fmt.Errorf("%w: <var> without name", ErrMalformed)
	}
	for _, value := range v.SelectElements("value") {
		isGlob := value.SelectAttrValue("search", "") == "glob"
		if err := table.Declare(name, text(value), value.SelectAttrValue("os", ""), isGlob); err != nil {
			return err
		}
	}
	return nil
}

// loadOption registers an option and its actions, or nothing at all. A
// panic in an action factory is reported as an error.
func (l *Loader) loadOption(c *cleaner.Cleaner, table *vars.Table, opt *etree.Element) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()

	id := opt.SelectAttrValue("id", "")
	if id == "" {
		return fmt.Errorf("%w: <option> without id", ErrMalformed)
	}
	label := opt.SelectElement("label")
	if label == nil {
		return fmt.Errorf("%w: option %q has no <label>", ErrMalformed, id)
	}
	desc := opt.SelectElement("description")
	if desc == nil {
		return fmt.Errorf("%w: option %q has no <description>", ErrMalformed, id)
	}

	var providers []action.Provider
	for _, act := range opt.SelectElements("action") {
		ok, err := l.Matcher.Match(act.SelectAttrValue("os", ""))
		if err != nil {
			return err
		}
		if !ok {
			continue
		}
		p, err := l.Actions.Build(act.SelectAttrValue("command", ""), attributes(act), table)
		if err != nil {
			return err
		}
		providers = append(providers, p)
	}

	name := text(label)
	if boolAttr(label, "translate", true) {
		l.translate(name, label.SelectAttrValue("translators", ""))
	}
	description := text(desc)
	l.translate(description, desc.SelectAttrValue("translators", ""))

	for _, p := range providers {
		c.AddAction(id, p)
	}
	c.AddOption(id, name, description)
	if w := opt.SelectElement("warning"); w != nil {
		if warning := text(w); warning != "" {
			c.SetWarning(id, warning)
			l.translate(warning, "")
		}
	}
	return nil
}

func (l *Loader) loadLocalizations(c *cleaner.Cleaner, blocks []*etree.Element) {
	if len(blocks) == 0 || !l.Matcher.IsPOSIX() {
		return
	}
	if l.Locales != nil {
		for _, block := range blocks {
			for _, child := range block.ChildElements() {
				l.Locales.AddXML(child)
			}
		}
	}
	c.AddAction(LocalizationOption, action.Noop())
}

func (l *Loader) translate(msgid, translators string) {
	if l.Translate != nil && msgid != "" {
		l.Translate(msgid, translators)
	}
}

func text(el *etree.Element) string {
	return strings.TrimSpace(el.Text())
}

func boolAttr(el *etree.Element, key string, def bool) bool {
	v := el.SelectAttrValue(key, "")
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

// attributes flattens an action element's attributes. Namespaced keys keep
// their prefix.
func attributes(el *etree.Element) action.Attributes {
	attrs := make(action.Attributes, len(el.Attr))
	for _, a := range el.Attr {
		attrs[a.FullKey()] = a.Value
	}
	return attrs
}
