package cleaner

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/beevik/etree"

	"github.com/lakshaymaurya-felt/cleanml/internal/action"
	"github.com/lakshaymaurya-felt/cleanml/internal/command"
	"github.com/lakshaymaurya-felt/cleanml/internal/envutil"
	"github.com/lakshaymaurya-felt/cleanml/internal/fileutil"
	"github.com/lakshaymaurya-felt/cleanml/internal/platform"
)

// OpenOfficeOrg returns the built-in cleaner for OpenOffice.org profiles.
func OpenOfficeOrg(m platform.Matcher) *Cleaner {
	o := &office{}
	if m.IsPOSIX() {
		o.prefixes = append(o.prefixes, "~/.ooo-2.0", "~/.openoffice.org2", "~/.openoffice.org2.0", "~/.openoffice.org/3", "~/.ooo-dev3")
	}
	if m.IsWindows() {
		o.prefixes = append(o.prefixes, `$APPDATA\OpenOffice.org\3`, `$APPDATA\OpenOffice.org2`)
	}

	c := New("openofficeorg", "OpenOffice.org", "Office suite")
	c.AddOption("cache", "Cache", "Delete the cache")
	c.AddAction("cache", action.Func(o.cache))
	c.AddOption("recent_documents", "Most recently used", "Delete the list of recently used documents")
	c.AddAction("recent_documents", action.Func(o.recentDocuments))
	return c
}

type office struct {
	prefixes []string
}

// each yields every existing match of suffix below each profile prefix.
func (o *office) each(suffix string, fn func(path string) bool) bool {
	for _, prefix := range o.prefixes {
		for _, path := range envutil.ExpandGlobJoin(prefix, filepath.FromSlash(suffix)) {
			if !fn(filepath.Clean(path)) {
				return false
			}
		}
	}
	return true
}

func (o *office) cache(yield func(command.Command, error) bool) {
	o.each("user/registry/cache", func(dir string) bool {
		for path := range fileutil.Children(dir, false) {
			if !yield(command.Delete{Path: path}, nil) {
				return false
			}
		}
		return true
	})
}

func (o *office) recentDocuments(yield func(command.Command, error) bool) {
	for _, suffix := range []string{
		"user/registry/data/org/openoffice/Office/Histories.xcu",
		"user/registry/cache/org.openoffice.Office.Histories.dat",
		"user/registry/cache/org.openoffice.Office.Common.dat",
	} {
		ok := o.each(suffix, func(path string) bool {
			return yield(command.Delete{Path: path}, nil)
		})
		if !ok {
			return
		}
	}

	ok := o.each("user/registry/data/org/openoffice/Office/Common.xcu", func(path string) bool {
		return yield(command.Function{Path: path, Label: "Delete the usage history", Effect: deleteOfficeHistory}, nil)
	})
	if !ok {
		return
	}
	o.each("user/registrymodifications.xcu", func(path string) bool {
		return yield(command.Function{Path: path, Label: "Delete the usage history", Effect: deleteOfficeModifications}, nil)
	})
}

// deleteOfficeHistory removes the first <node oor:name="History"> from an
// OpenOffice.org Common.xcu registry file.
func deleteOfficeHistory(path string, _ func(float64) bool) (int64, error) {
	return editXML(path, func(root *etree.Element) bool {
		return removeFirst(root, func(el *etree.Element) bool {
			return el.Tag == "node" && el.SelectAttrValue("oor:name", "") == "History"
		})
	})
}

var historyPrefixes = []string{
	"/org.openoffice.Office.Histories/Histories",
	"/org.openoffice.Office.Common/History/",
}

// deleteOfficeModifications removes history <item>s from a
// registrymodifications.xcu file.
func deleteOfficeModifications(path string, _ func(float64) bool) (int64, error) {
	return editXML(path, func(root *etree.Element) bool {
		changed := false
		for _, item := range root.SelectElements("item") {
			p := item.SelectAttrValue("oor:path", "")
			for _, prefix := range historyPrefixes {
				if strings.HasPrefix(p, prefix) {
					root.RemoveChild(item)
					changed = true
					break
				}
			}
		}
		return changed
	})
}

func removeFirst(parent *etree.Element, match func(*etree.Element) bool) bool {
	for _, child := range parent.ChildElements() {
		if match(child) {
			parent.RemoveChild(child)
			return true
		}
		if removeFirst(child, match) {
			return true
		}
	}
	return false
}

// editXML applies edit to the document root and rewrites the file when it
// reports a change. It returns the number of bytes saved.
func editXML(path string, edit func(root *etree.Element) bool) (int64, error) {
	before := fileutil.Size(path)
	doc := etree.NewDocument()
	if err := doc.ReadFromFile(path); err != nil {
		return 0, err
	}
	root := doc.Root()
	if root == nil || !edit(root) {
		return 0, nil
	}
	info, err := os.Stat(path)
	if err != nil {
		return 0, err
	}
	data, err := doc.WriteToBytes()
	if err != nil {
		return 0, err
	}
	if err := os.WriteFile(path, data, info.Mode().Perm()); err != nil {
		return 0, err
	}
	return max(before-int64(len(data)), 0), nil
}
