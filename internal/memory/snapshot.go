package memory

// SchemaVersion is the snapshot wire-format version stored alongside the
// data in both the cache and the durable session row.
const SchemaVersion = 1

// Entry is one remembered conversation turn.
type Entry struct {
	Role     string                 `json:"role"`
	Content  string                 `json:"content"`
	Metadata map[string]interface{} `json:"metadata"`
}

// Snapshot is the bounded, cached representation of a conversation's recent
// context. The durable session row is authoritative; the cache copy is an
// expendable replica with a fixed TTL.
type Snapshot struct {
	Version             int      `json:"version"`
	Context             string   `json:"context"`
	Summary             string   `json:"summary"`
	KeyPoints           []string `json:"key_points"`
	ConversationHistory []Entry  `json:"conversation_history"`
}

// EmptySnapshot returns the default snapshot for a conversation with no
// remembered context.
func EmptySnapshot() *Snapshot {
	return &Snapshot{
		Version:             SchemaVersion,
		KeyPoints:           []string{},
		ConversationHistory: []Entry{},
	}
}
