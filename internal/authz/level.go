package authz

// Level is an ordered permission tier. ADMIN includes WRITE which
// includes READ.
type Level string

// Permission levels, lowest to highest.
const (
	LevelRead  Level = "READ"
	LevelWrite Level = "WRITE"
	LevelAdmin Level = "ADMIN"
)

var levelRank = map[Level]int{
	LevelRead:  1,
	LevelWrite: 2,
	LevelAdmin: 3,
}

// ParseLevel validates a permission level received from a caller.
func ParseLevel(s string) (Level, bool) {
	l := Level(s)
	_, ok := levelRank[l]
	return l, ok
}

// Meets reports whether l grants at least the required level.
func (l Level) Meets(required Level) bool {
	return levelRank[l] >= levelRank[required]
}

// minLevel returns the lower of two levels.
func minLevel(a, b Level) Level {
	if levelRank[b] < levelRank[a] {
		return b
	}
	return a
}
