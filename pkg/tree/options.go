package tree

import "fmt"

// DisplayStyle changes which nodes a tree shows.
type DisplayStyle string

const (
	DisplayDefault    DisplayStyle = "default"
	DisplayBreadcrumb DisplayStyle = "breadcrumb"
)

// ParseDisplayStyle validates a display style name. An empty name maps to
// DisplayDefault.
func ParseDisplayStyle(s string) (DisplayStyle, error) {
	switch DisplayStyle(s) {
	case "", DisplayDefault:
		return DisplayDefault, nil
	case DisplayBreadcrumb:
		return DisplayBreadcrumb, nil
	}
	return "", fmt.Errorf("unknown display style %q", s)
}

// DefaultViewRangeSize is used until a viewport height is known.
const DefaultViewRangeSize = 20

// viewRangeDivisor splits the view range into quarters: one before the
// viewport, two inside, one after.
const viewRangeDivisor = 4

// Options configures a Tree.
type Options struct {
	LazyExpandingEnabled bool         `yaml:"lazy_expanding_enabled" json:"lazyExpandingEnabled"`
	Checkable            bool         `yaml:"checkable" json:"checkable"`
	MultiCheck           bool         `yaml:"multi_check" json:"multiCheck"`
	AutoCheckChildren    bool         `yaml:"auto_check_children" json:"autoCheckChildren"`
	DisplayStyle         DisplayStyle `yaml:"display_style" json:"displayStyle"`

	// ViewRangeSize overrides the window size derived from the viewport.
	ViewRangeSize int `yaml:"view_range_size,omitempty" json:"viewRangeSize,omitempty"`

	TextFilterEnabled bool `yaml:"text_filter_enabled" json:"textFilterEnabled"`
	FuzzyTextFilter   bool `yaml:"fuzzy_text_filter" json:"fuzzyTextFilter"`
	Animated          bool `yaml:"animated" json:"animated"`

	DefaultNodeHeight  int  `yaml:"default_node_height" json:"defaultNodeHeight"`
	NodePaddingLevel   int  `yaml:"node_padding_level" json:"nodePaddingLevel"`
	ContextMenuEnabled bool `yaml:"context_menu_enabled" json:"contextMenuEnabled"`

	// ExpandOnFirstInsert expands a parent when it receives its first children.
	ExpandOnFirstInsert bool `yaml:"expand_on_first_insert" json:"expandOnFirstInsert"`
}

// DefaultOptions returns the options of a plain tree.
func DefaultOptions() Options {
	return Options{
		LazyExpandingEnabled: true,
		MultiCheck:           true,
		DisplayStyle:         DisplayDefault,
		TextFilterEnabled:    true,
		DefaultNodeHeight:    1,
		NodePaddingLevel:     2,
		ContextMenuEnabled:   true,
	}
}

// outlinePaddingLevel is the indentation step of an outline.
const outlinePaddingLevel = 3

// Outline returns o with the outline policy applied: no context menu and
// wider indentation.
func (o Options) Outline() Options {
	o.ContextMenuEnabled = false
	o.NodePaddingLevel = outlinePaddingLevel
	return o
}

// OutlineOptions returns the default options with the outline policy.
func OutlineOptions() Options {
	return DefaultOptions().Outline()
}

// Validate reports options that cannot work.
func (o Options) Validate() error {
	if _, err := ParseDisplayStyle(string(o.DisplayStyle)); err != nil {
		return err
	}
	if o.ViewRangeSize < 0 {
		return fmt.Errorf("view range size must not be negative, got %d", o.ViewRangeSize)
	}
	if o.ViewRangeSize > 0 && o.ViewRangeSize < viewRangeDivisor {
		return fmt.Errorf("view range size must be at least %d, got %d", viewRangeDivisor, o.ViewRangeSize)
	}
	if o.DefaultNodeHeight < 0 {
		return fmt.Errorf("default node height must not be negative, got %d", o.DefaultNodeHeight)
	}
	return nil
}

func (o Options) normalized() Options {
	if o.DisplayStyle == "" {
		o.DisplayStyle = DisplayDefault
	}
	if o.DefaultNodeHeight <= 0 {
		o.DefaultNodeHeight = 1
	}
	return o
}
