// Package channel provides the Channel domain entity.
package channel

// Well-known channel IDs that exist regardless of the server directory.
const (
	IDPersonal    = 0   // Personal radio
	IDFavorites   = -3  // Liked songs
	IDEditorPicks = -10 // Editor's picks (also the default channel)
)

// Creator represents the curator of a channel.
type Creator struct {
	ID   int
	Name string
	URL  string
}

// RelatedArtist represents an artist associated with a channel.
type RelatedArtist struct {
	ID    string
	Name  string
	Cover string
}

// Channel represents a curated radio station.
type Channel struct {
	ID             int             // Channel ID (unique key)
	Name           string          // Display name
	Creator        Creator         // Curator
	Intro          string          // Description text
	RecReason      string          // Recommendation reason
	Banner         string          // Banner image URL
	Cover          string          // Cover image URL
	SongToStart    string          // Song the channel starts with (optional)
	SongNum        int             // Number of songs
	Collected      bool            // Collected by the current user
	Shareable      bool            // Can be shared
	ArtistID       string          // Artist ID for artist channels
	RelatedArtists []RelatedArtist // Related artists
}

// Fixed returns the channels that always exist, keyed by ID.
// A fresh map is returned on every call.
func Fixed() map[int]Channel {
	return map[int]Channel{
		IDPersonal:  {ID: IDPersonal, Name: "我的私人"},
		IDFavorites: {ID: IDFavorites, Name: "红心"},
		IDEditorPicks: {
			ID:        IDEditorPicks,
			Name:      "豆瓣精选",
			Intro:     "豆瓣好评音乐精选",
			Shareable: true,
		},
	}
}

// IsFixed reports whether the channel ID belongs to a fixed channel.
func IsFixed(id int) bool {
	switch id {
	case IDPersonal, IDFavorites, IDEditorPicks:
		return true
	default:
		return false
	}
}
