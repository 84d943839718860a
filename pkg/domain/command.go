package domain

// Kind discriminates the two shapes a Command can take.
type Kind int

const (
	// KindLeaf is a base command carrying its own activity flag.
	KindLeaf Kind = iota
	// KindGroup is a composite command whose activity derives from its children.
	KindGroup
)

func (k Kind) String() string {
	switch k {
	case KindLeaf:
		return "leaf"
	case KindGroup:
		return "group"
	default:
		return "unknown"
	}
}

// Command is a node of the command tree.
// The set of shapes is closed: callers switch on Kind.
type Command struct {
	Kind Kind
	Name string

	// Active is only meaningful for KindLeaf.
	Active bool

	// Children is only meaningful for KindGroup. It may be empty.
	Children []Command
}

// Leaf builds a base command.
func Leaf(name string, active bool) Command {
	return Command{Kind: KindLeaf, Name: name, Active: active}
}

// Group builds a composite command.
func Group(name string, children ...Command) Command {
	if children == nil {
		children = []Command{}
	}
	return Command{Kind: KindGroup, Name: name, Children: children}
}

// IsLeaf reports whether the command is a base command.
func (c Command) IsLeaf() bool { return c.Kind == KindLeaf }

// HasChildren reports whether the command is a group.
func (c Command) HasChildren() bool { return c.Kind == KindGroup }

// Subsystem owns a single root command.
type Subsystem struct {
	Name string
	// Root is nil when the subsystem reports no command at all.
	Root *Command
}

// Snapshot is one decoded instance of the full command tree.
type Snapshot struct {
	Subsystems []Subsystem
	Scheduled  []Command
}
