// Package song provides the Song domain entity.
package song

import "time"

// Singer represents a performer credited on a song.
type Singer struct {
	ID            string
	Name          string
	NameUsual     string
	Region        []string
	Genre         []string
	Style         []string
	Avatar        string
	RelatedSiteID int
	IsSiteArtist  bool
}

// Release represents the album release a song belongs to.
type Release struct {
	ID    string
	SSID  string
	Title string
	Cover string
	Link  string
}

// Song represents a playable song returned in a playlist batch.
// SID is only unique within a single batch.
type Song struct {
	SID              string   // Server song ID
	SSID             string   // Server song signature
	Title            string   // Song title
	Artist           string   // Artist display name
	AlbumTitle       string   // Album title
	Album            string   // Album page URL
	URL              string   // Audio URL
	Picture          string   // Cover picture URL
	FileExt          string   // Audio file extension
	Kbps             string   // Bitrate as reported by the server
	Length           int      // Length in seconds
	Like             int      // Like count
	Status           int      // Server status flag
	IsDoubanPlayable bool     // Playable on the service
	IsRoyal          bool     // Royalty-restricted
	AlertMsg         string   // Message shown instead of playback
	PublicTime       string   // Release year
	UpdateTime       int64    // Last update (unix seconds)
	SHA256           string   // Audio checksum
	AID              string   // Album ID
	Subtype          string   // Song subtype
	Singers          []Singer // Credited singers
	Release          Release  // Release info
}

// Duration returns the song length as a duration.
func (s *Song) Duration() time.Duration {
	return time.Duration(s.Length) * time.Second
}

// Playable reports whether the song can be streamed.
func (s *Song) Playable() bool {
	return s.URL != "" && s.IsDoubanPlayable
}

// SingerNames returns the names of all credited singers.
func (s *Song) SingerNames() []string {
	names := make([]string, 0, len(s.Singers))
	for _, sg := range s.Singers {
		names = append(names, sg.Name)
	}
	return names
}
