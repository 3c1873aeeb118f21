package vm

// Config controls collector pacing and runtime limits.
type Config struct {
	// GCCheckInterval: heap weight is measured before instruction pc when
	// (pc+1) % GCCheckInterval == 0.
	GCCheckInterval int
	// GCThreshold is the heap weight above which a collection runs.
	GCThreshold int
	// GCHistorySize bounds the recorded heap weight history.
	GCHistorySize int
	// MaxInlineString is the longest string StoreVar keeps inline; longer
	// strings are promoted to the heap.
	MaxInlineString int
	// MaxFrames bounds call depth.
	MaxFrames int

	Weights Weights
	Legacy  Legacy
}

// Weights are the per-kind heap weight contributions.
type Weights struct {
	ArrayBase    int
	ArrayElement int
	StringBase   int // plus one per byte
	ObjectBase   int
	ObjectEntry  int
	Other        int
}

// Legacy toggles reproduce the historical runtime behaviour. All default
// to false.
type Legacy struct {
	// DynamicScoping resolves LoadVar by searching frames innermost-out
	// for the first bound slot, ignoring the instruction's depth.
	DynamicScoping bool
	// NarrowEquality makes Equal true only for Number/Number and
	// String/String; booleans are never equal.
	NarrowEquality bool
	// FlattenArrays degrades pointer and function elements to null when an
	// array is created.
	FlattenArrays bool
	// IgnoreStackRoots excludes the operand stack from the root set.
	IgnoreStackRoots bool
}

// DefaultWeights returns the standard heap weight table.
func DefaultWeights() Weights {
	return Weights{
		ArrayBase:    8,
		ArrayElement: 2,
		StringBase:   4,
		ObjectBase:   8,
		ObjectEntry:  4,
		Other:        1,
	}
}

// DefaultConfig returns the standard configuration.
func DefaultConfig() Config {
	return Config{
		GCCheckInterval: 64,
		GCThreshold:     1024,
		GCHistorySize:   8,
		MaxInlineString: 64,
		MaxFrames:       4096,
		Weights:         DefaultWeights(),
	}
}

// normalized fills zero fields with defaults.
func (c Config) normalized() Config {
	d := DefaultConfig()
	if c.GCCheckInterval <= 0 {
		c.GCCheckInterval = d.GCCheckInterval
	}
	if c.GCThreshold <= 0 {
		c.GCThreshold = d.GCThreshold
	}
	if c.GCHistorySize <= 0 {
		c.GCHistorySize = d.GCHistorySize
	}
	if c.MaxInlineString <= 0 {
		c.MaxInlineString = d.MaxInlineString
	}
	if c.MaxFrames <= 0 {
		c.MaxFrames = d.MaxFrames
	}
	if c.Weights == (Weights{}) {
		c.Weights = d.Weights
	}
	return c
}
