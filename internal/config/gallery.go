package config

import (
	"fmt"
	"net/url"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Layout names describe where records sit in a source document.
const (
	// LayoutList is an array of records at the root or under Root.
	LayoutList = "list"
	// LayoutGrouped is an object mapping category names to record arrays.
	LayoutGrouped = "grouped"
	// LayoutGroups is an array (or object) of group objects, each holding a
	// record array under ItemsKey.
	LayoutGroups = "groups"
)

// Order names.
const (
	OrderSource   = "source"
	OrderDateDesc = "date_desc"
)

// Markdown engine names.
const (
	EngineBuiltin  = "builtin"
	EngineGoldmark = "goldmark"
)

// Keys is an ordered list of JSON keys tried in turn. In YAML it may be
// written as a single string or a sequence.
type Keys []string

// UnmarshalYAML accepts a scalar or a sequence of scalars.
func (k *Keys) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.ScalarNode:
		if value.Value == "" {
			*k = nil
			return nil
		}
		*k = Keys{value.Value}
		return nil
	case yaml.SequenceNode:
		var keys []string
		if err := value.Decode(&keys); err != nil {
			return err
		}
		*k = keys
		return nil
	default:
		return fmt.Errorf("line %d: field keys must be a string or a list of strings", value.Line)
	}
}

// Mapping names the JSON keys that hold each canonical record field.
type Mapping struct {
	Title       Keys `yaml:"title,omitempty"`
	Category    Keys `yaml:"category,omitempty"`
	Description Keys `yaml:"description,omitempty"`
	Body        Keys `yaml:"body,omitempty"`
	Tags        Keys `yaml:"tags,omitempty"`
	Date        Keys `yaml:"date,omitempty"`
	URL         Keys `yaml:"url,omitempty"`
	// BodyFile names a key whose value is a file under Gallery.FilesDir
	// holding the body.
	BodyFile Keys `yaml:"body_file,omitempty"`
}

// DefaultMapping covers the field names used by the common source shapes.
func DefaultMapping() Mapping {
	return Mapping{
		Title:       Keys{"title", "name"},
		Category:    Keys{"category"},
		Description: Keys{"description", "summary", "excerpt"},
		Body:        Keys{"body", "content", "text"},
		Tags:        Keys{"tags", "parameters"},
		Date:        Keys{"date"},
		URL:         Keys{"url", "link", "href"},
	}
}

// merge returns m with empty fields taken from base.
func (m Mapping) merge(base Mapping) Mapping {
	pick := func(own, fallback Keys) Keys {
		if len(own) > 0 {
			return own
		}
		return fallback
	}
	return Mapping{
		Title:       pick(m.Title, base.Title),
		Category:    pick(m.Category, base.Category),
		Description: pick(m.Description, base.Description),
		Body:        pick(m.Body, base.Body),
		Tags:        pick(m.Tags, base.Tags),
		Date:        pick(m.Date, base.Date),
		URL:         pick(m.URL, base.URL),
		BodyFile:    pick(m.BodyFile, base.BodyFile),
	}
}

// Gallery is the definition of one gallery.
type Gallery struct {
	// Title is the display title.
	Title string `yaml:"title,omitempty"`

	// Source is a file path (relative to the config file), a file:// URL or
	// an http(s) URL.
	Source string `yaml:"source,omitempty"`

	// Layout is list, grouped or groups. Defaults to list.
	Layout string `yaml:"layout,omitempty"`

	// Root is a dotted key path to the record container, e.g.
	// "prompts_by_category" or "data.items". Empty means the document root.
	Root string `yaml:"root,omitempty"`

	// ItemsKey is the record array key inside each group (groups layout).
	ItemsKey string `yaml:"items_key,omitempty"`

	// NameKey is the group name key inside each group (groups layout).
	NameKey string `yaml:"name_key,omitempty"`

	// Fields maps canonical fields to JSON keys.
	Fields Mapping `yaml:"fields,omitempty"`

	// CategoryLabels maps raw category keys to display labels. Keys are
	// matched case-insensitively.
	CategoryLabels map[string]string `yaml:"category_labels,omitempty"`

	// FilesDir is the directory body files are read from.
	FilesDir string `yaml:"files_dir,omitempty"`

	// DateFromTitle derives Date from a YYYYMMDD or YYMMDD title prefix.
	DateFromTitle bool `yaml:"date_from_title,omitempty"`

	// Order is source or date_desc.
	Order string `yaml:"order,omitempty"`

	// DeriveExcerpt fills an empty description from the body text.
	DeriveExcerpt bool `yaml:"derive_excerpt,omitempty"`

	// PageSize is the number of cards per page.
	PageSize int `yaml:"page_size,omitempty"`

	// WindowThreshold is the record count above which lists are windowed.
	WindowThreshold int `yaml:"window_threshold,omitempty"`

	// ItemHeight is the card height used by the scroll window.
	ItemHeight int `yaml:"item_height,omitempty"`

	// Gated hides record bodies until the reading gate is unlocked.
	Gated bool `yaml:"gated,omitempty"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	// Addr is the listen address.
	Addr string `yaml:"addr,omitempty"`
	// RequestTimeout bounds each request.
	RequestTimeout time.Duration `yaml:"request_timeout,omitempty"`
}

// MarkdownConfig holds body rendering settings.
type MarkdownConfig struct {
	// Engine is builtin or goldmark.
	Engine string `yaml:"engine,omitempty"`
	// ImageProxy is a URL prefix; image URLs on RewriteHosts are rewritten
	// to ImageProxy + escaped original URL.
	ImageProxy string `yaml:"image_proxy,omitempty"`
	// RewriteHosts lists image hosts routed through ImageProxy.
	RewriteHosts []string `yaml:"rewrite_hosts,omitempty"`
}

// GateConfig holds reading gate settings.
type GateConfig struct {
	// PasswordHash is a bcrypt hash of the gate password.
	PasswordHash string `yaml:"password_hash,omitempty"`
	// TTL is how long an unlock lasts.
	TTL time.Duration `yaml:"ttl,omitempty"`
}

// File is the structure of the .showcase configuration file.
type File struct {
	// Galleries maps gallery names to definitions.
	Galleries map[string]Gallery `yaml:"galleries,omitempty"`

	// Defaults apply to every gallery unless overridden.
	Defaults Gallery `yaml:"defaults,omitempty"`

	Server   ServerConfig   `yaml:"server,omitempty"`
	Markdown MarkdownConfig `yaml:"markdown,omitempty"`
	Gate     GateConfig     `yaml:"gate,omitempty"`

	// baseDir is the directory relative sources are resolved against.
	baseDir string
}

// SetBaseDir sets the directory relative sources are resolved against.
func (cf *File) SetBaseDir(dir string) { cf.baseDir = dir }

// BaseDir returns the directory relative sources are resolved against.
func (cf *File) BaseDir() string { return cf.baseDir }

// Names returns the gallery names in sorted order.
func (cf *File) Names() []string {
	names := make([]string, 0, len(cf.Galleries))
	for name := range cf.Galleries {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// GetGallery returns the definition of name merged over Defaults and the
// built-in defaults. ok is false when name is not configured.
func (cf *File) GetGallery(name string) (Gallery, bool) {
	own, ok := cf.Galleries[name]
	if !ok {
		return Gallery{}, false
	}
	g := own.mergeOver(cf.Defaults)
	g.Fields = g.Fields.merge(DefaultMapping())
	if g.Title == "" {
		g.Title = name
	}
	if g.Layout == "" {
		g.Layout = LayoutList
	}
	if g.Order == "" {
		g.Order = OrderSource
	}
	if g.ItemsKey == "" {
		g.ItemsKey = "items"
	}
	if g.NameKey == "" {
		g.NameKey = "name"
	}
	g.PageSize = ClampPageSize(g.PageSize, DefaultPageSize)
	if g.WindowThreshold <= 0 {
		g.WindowThreshold = DefaultWindowThreshold
	}
	if g.ItemHeight <= 0 {
		g.ItemHeight = DefaultItemHeight
	}
	g.Source = cf.ResolvePath(g.Source)
	if g.FilesDir != "" {
		g.FilesDir = cf.ResolvePath(g.FilesDir)
	}
	return g, true
}

// mergeOver returns g with zero fields taken from base.
func (g Gallery) mergeOver(base Gallery) Gallery {
	out := base
	if g.Title != "" {
		out.Title = g.Title
	}
	if g.Source != "" {
		out.Source = g.Source
	}
	if g.Layout != "" {
		out.Layout = g.Layout
	}
	if g.Root != "" {
		out.Root = g.Root
	}
	if g.ItemsKey != "" {
		out.ItemsKey = g.ItemsKey
	}
	if g.NameKey != "" {
		out.NameKey = g.NameKey
	}
	out.Fields = g.Fields.merge(base.Fields)
	if len(g.CategoryLabels) > 0 {
		labels := make(map[string]string, len(base.CategoryLabels)+len(g.CategoryLabels))
		for k, v := range base.CategoryLabels {
			labels[k] = v
		}
		for k, v := range g.CategoryLabels {
			labels[k] = v
		}
		out.CategoryLabels = labels
	}
	if g.FilesDir != "" {
		out.FilesDir = g.FilesDir
	}
	if g.Order != "" {
		out.Order = g.Order
	}
	if g.PageSize != 0 {
		out.PageSize = g.PageSize
	}
	if g.WindowThreshold != 0 {
		out.WindowThreshold = g.WindowThreshold
	}
	if g.ItemHeight != 0 {
		out.ItemHeight = g.ItemHeight
	}
	out.DateFromTitle = out.DateFromTitle || g.DateFromTitle
	out.DeriveExcerpt = out.DeriveExcerpt || g.DeriveExcerpt
	out.Gated = out.Gated || g.Gated
	return out
}

// ResolvePath turns a configured source or directory into a readable
// location. URLs are returned unchanged, file:// URLs become paths and
// relative paths are joined to the config file's directory.
func (cf *File) ResolvePath(p string) string {
	if p == "" || IsRemote(p) {
		return p
	}
	if strings.HasPrefix(p, "file://") {
		if u, err := url.Parse(p); err == nil {
			p = u.Path
		}
	}
	if filepath.IsAbs(p) || cf.baseDir == "" {
		return p
	}
	return filepath.Join(cf.baseDir, p)
}

// IsRemote reports whether source is an http(s) URL.
func IsRemote(source string) bool {
	return strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://")
}

// Label returns the display label for a raw category key.
func (g Gallery) Label(raw string) string {
	if len(g.CategoryLabels) == 0 {
		return raw
	}
	if label, ok := g.CategoryLabels[raw]; ok {
		return label
	}
	for k, label := range g.CategoryLabels {
		if strings.EqualFold(k, raw) {
			return label
		}
	}
	return raw
}

// Validate checks every gallery definition and the global sections.
func (cf *File) Validate() error {
	for _, name := range cf.Names() {
		if cf.Galleries[name].PageSize < 0 {
			return fmt.Errorf("gallery %q: %w", name, ErrInvalidPageSize)
		}
		g, _ := cf.GetGallery(name)
		if err := g.Validate(); err != nil {
			return fmt.Errorf("gallery %q: %w", name, err)
		}
	}
	switch cf.Markdown.Engine {
	case "", EngineBuiltin, EngineGoldmark:
	default:
		return ErrUnknownEngine
	}
	if cf.Server.RequestTimeout < 0 {
		return ErrInvalidTimeout
	}
	return nil
}

// Validate checks a single merged gallery definition.
func (g Gallery) Validate() error {
	if strings.TrimSpace(g.Source) == "" {
		return ErrMissingSource
	}
	switch g.Layout {
	case "", LayoutList, LayoutGrouped, LayoutGroups:
	default:
		return ErrUnknownLayout
	}
	switch g.Order {
	case "", OrderSource, OrderDateDesc:
	default:
		return ErrUnknownOrder
	}
	if g.PageSize < 0 {
		return ErrInvalidPageSize
	}
	return nil
}
