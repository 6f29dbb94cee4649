package douban

// Action is the playlist request type code. It tells the server why a
// playlist is being requested so it can adapt recommendations.
type Action string

const (
	ActionNew    Action = "n" // Fresh playlist (new channel or reset)
	ActionPlay   Action = "p" // Continuation while playing
	ActionEnd    Action = "e" // Song finished naturally
	ActionLike   Action = "r" // Song liked
	ActionUnlike Action = "u" // Like removed
	ActionBan    Action = "b" // Song banned
	ActionSkip   Action = "s" // Song skipped
)

// String returns the human-readable action name.
func (a Action) String() string {
	switch a {
	case ActionNew:
		return "new"
	case ActionPlay:
		return "play"
	case ActionEnd:
		return "end"
	case ActionLike:
		return "like"
	case ActionUnlike:
		return "unlike"
	case ActionBan:
		return "ban"
	case ActionSkip:
		return "skip"
	default:
		return "unknown"
	}
}

// Valid reports whether a is a known action code.
func (a Action) Valid() bool {
	return a.String() != "unknown"
}
