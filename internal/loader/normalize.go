package loader

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/nao1215/showcase/internal/config"
	"github.com/nao1215/showcase/internal/crawler"
	"github.com/nao1215/showcase/internal/model"
)

var (
	// ErrRootNotFound is returned when the configured root key path is
	// missing from the document.
	ErrRootNotFound = errors.New("root key not found")

	// ErrUnexpectedShape is returned when the container at the root does not
	// match the gallery layout.
	ErrUnexpectedShape = errors.New("document shape does not match layout")
)

// Entry is a normalized record plus the name of its body file, if the
// mapping has one.
type Entry struct {
	Record   model.Record
	BodyFile string
}

// Normalizer maps decoded documents onto records for one gallery.
type Normalizer struct {
	gallery config.Gallery
}

// NewNormalizer returns a normalizer for a merged gallery definition.
func NewNormalizer(g config.Gallery) *Normalizer {
	return &Normalizer{gallery: g}
}

// Normalize extracts entries from doc in document order. Items that are not
// objects are skipped with a warning.
func (n *Normalizer) Normalize(doc any) ([]Entry, []string, error) {
	container, err := n.root(doc)
	if err != nil {
		return nil, nil, err
	}

	var (
		entries  []Entry
		warnings []string
	)
	add := func(items []any, group, where string) {
		for i, item := range items {
			obj, ok := item.(*Object)
			if !ok {
				warnings = append(warnings, fmt.Sprintf("%s[%d]: skipped non-object item", where, i))
				continue
			}
			entries = append(entries, n.entry(obj, group))
		}
	}

	switch n.gallery.Layout {
	case config.LayoutGrouped:
		obj, ok := container.(*Object)
		if !ok {
			return nil, nil, fmt.Errorf("%w: grouped layout needs an object of arrays", ErrUnexpectedShape)
		}
		for _, key := range obj.Keys() {
			v, _ := obj.Get(key)
			items, ok := v.([]any)
			if !ok {
				warnings = append(warnings, fmt.Sprintf("group %q: skipped non-array value", key))
				continue
			}
			add(items, key, key)
		}
	case config.LayoutGroups:
		groups, err := n.groups(container)
		if err != nil {
			return nil, nil, err
		}
		for _, g := range groups {
			v, ok := g.obj.Get(n.gallery.ItemsKey)
			if !ok {
				warnings = append(warnings, fmt.Sprintf("group %q: no %q array", g.name, n.gallery.ItemsKey))
				continue
			}
			items, ok := v.([]any)
			if !ok {
				warnings = append(warnings, fmt.Sprintf("group %q: %q is not an array", g.name, n.gallery.ItemsKey))
				continue
			}
			add(items, g.name, g.name)
		}
	default:
		items, ok := container.([]any)
		if !ok {
			return nil, nil, fmt.Errorf("%w: list layout needs an array", ErrUnexpectedShape)
		}
		add(items, "", "items")
	}

	if entries == nil {
		entries = []Entry{}
	}
	return entries, warnings, nil
}

func (n *Normalizer) root(doc any) (any, error) {
	if n.gallery.Root == "" {
		return doc, nil
	}
	obj, ok := doc.(*Object)
	if !ok {
		return nil, fmt.Errorf("%w: %q (document is not an object)", ErrRootNotFound, n.gallery.Root)
	}
	v, ok := obj.Path(n.gallery.Root)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrRootNotFound, n.gallery.Root)
	}
	return v, nil
}

type group struct {
	name string
	obj  *Object
}

// groups accepts [{name, items}] arrays and {name: {items}} objects.
func (n *Normalizer) groups(container any) ([]group, error) {
	switch c := container.(type) {
	case []any:
		out := make([]group, 0, len(c))
		for i, v := range c {
			obj, ok := v.(*Object)
			if !ok {
				continue
			}
			name := scalarString(first(obj, config.Keys{n.gallery.NameKey}))
			if name == "" {
				name = "group " + strconv.Itoa(i+1)
			}
			out = append(out, group{name: name, obj: obj})
		}
		return out, nil
	case *Object:
		out := make([]group, 0, c.Len())
		for _, key := range c.Keys() {
			v, _ := c.Get(key)
			if obj, ok := v.(*Object); ok {
				out = append(out, group{name: key, obj: obj})
			}
		}
		return out, nil
	default:
		return nil, fmt.Errorf("%w: groups layout needs an array or object of groups", ErrUnexpectedShape)
	}
}

func (n *Normalizer) entry(obj *Object, groupName string) Entry {
	g := n.gallery
	f := g.Fields

	rec := model.Record{
		Title:       strings.TrimSpace(scalarString(first(obj, f.Title))),
		Description: strings.TrimSpace(scalarString(first(obj, f.Description))),
		Body:        bodyString(first(obj, f.Body)),
		Tags:        tagList(first(obj, f.Tags)),
		Date:        strings.TrimSpace(scalarString(first(obj, f.Date))),
		URL:         strings.TrimSpace(scalarString(first(obj, f.URL))),
	}

	rawCategory := strings.TrimSpace(scalarString(first(obj, f.Category)))
	if rawCategory == "" {
		rawCategory = groupName
	}
	if rawCategory != "" {
		rawCategory = g.Label(rawCategory)
	}
	rec.Category = model.NormalizeCategory(rawCategory)

	if rec.Date == "" && g.DateFromTitle {
		rec.Date = DateFromTitle(rec.Title)
	}
	if rec.Description == "" && g.DeriveExcerpt {
		rec.Description = Excerpt(rec.Body, model.DefaultExcerptLength)
	}

	var bodyFile string
	if len(f.BodyFile) > 0 {
		bodyFile = strings.TrimSpace(scalarString(first(obj, f.BodyFile)))
	}
	return Entry{Record: rec, BodyFile: bodyFile}
}

// first returns the value of the first key present with a non-null value.
// Keys may be dotted paths.
func first(obj *Object, keys config.Keys) any {
	for _, k := range keys {
		if k == "" {
			continue
		}
		if v, ok := obj.Path(k); ok && v != nil {
			return v
		}
	}
	return nil
}

func scalarString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case json.Number:
		return t.String()
	case bool:
		return strconv.FormatBool(t)
	default:
		return ""
	}
}

// bodyString accepts a string or an array of lines.
func bodyString(v any) string {
	if arr, ok := v.([]any); ok {
		lines := make([]string, 0, len(arr))
		for _, item := range arr {
			lines = append(lines, scalarString(item))
		}
		return strings.Join(lines, "\n")
	}
	return scalarString(v)
}

// tagList accepts an array of scalars or a comma separated string.
func tagList(v any) []string {
	tags := make([]string, 0)
	switch t := v.(type) {
	case []any:
		for _, item := range t {
			if s := strings.TrimSpace(scalarString(item)); s != "" {
				tags = append(tags, s)
			}
		}
	case string:
		for _, s := range strings.FieldsFunc(t, func(r rune) bool { return r == ',' || r == '，' || r == '、' }) {
			if s = strings.TrimSpace(s); s != "" {
				tags = append(tags, s)
			}
		}
	}
	return tags
}

var (
	date8 = regexp.MustCompile(`^(\d{4})(\d{2})(\d{2})`)
	date6 = regexp.MustCompile(`^(\d{2})(\d{2})(\d{2})`)
)

// DateFromTitle derives YYYY-MM-DD from a YYYYMMDD or YYMMDD title prefix.
// Six-digit prefixes are read as 20YY. It returns "" when the title has no
// such prefix or the month or day is out of range.
func DateFromTitle(title string) string {
	title = strings.TrimSpace(title)
	var y, m, d string
	if mm := date8.FindStringSubmatch(title); mm != nil {
		y, m, d = mm[1], mm[2], mm[3]
	} else if mm := date6.FindStringSubmatch(title); mm != nil {
		y, m, d = "20"+mm[1], mm[2], mm[3]
	} else {
		return ""
	}
	month, _ := strconv.Atoi(m)
	day, _ := strconv.Atoi(d)
	if month < 1 || month > 12 || day < 1 || day > 31 {
		return ""
	}
	return y + "-" + m + "-" + d
}

// SortByDateDesc orders records newest first. Undated records keep their
// relative order after all dated ones.
func SortByDateDesc(records []model.Record) {
	sort.SliceStable(records, func(i, j int) bool {
		di, dj := records[i].Date, records[j].Date
		if di == "" || dj == "" {
			return di != "" && dj == ""
		}
		return di > dj
	})
}

var (
	mdImage  = regexp.MustCompile(`!\[([^\]]*)\]\([^)]*\)`)
	mdLink   = regexp.MustCompile(`\[([^\]]+)\]\([^)]*\)`)
	mdMarker = strings.NewReplacer("**", "", "__", "", "`", "")
)

// Excerpt returns the first n runes of body's readable text: HTML removed,
// markdown images and links reduced to their text and block markers dropped.
func Excerpt(body string, n int) string {
	if strings.TrimSpace(body) == "" {
		return ""
	}
	lines := strings.Split(body, "\n")
	kept := make([]string, 0, len(lines))
	inFence := false
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "```") {
			inFence = !inFence
			continue
		}
		if inFence || trimmed == "---" || trimmed == "***" {
			continue
		}
		kept = append(kept, strings.TrimLeft(trimmed, "#> -*"))
	}
	text := strings.Join(kept, " ")
	text = mdImage.ReplaceAllString(text, "$1")
	text = mdLink.ReplaceAllString(text, "$1")
	text = mdMarker.Replace(text)
	return model.Truncate(crawler.PlainText(text), n)
}
