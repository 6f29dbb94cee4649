// Package main obtains a Spotify refresh token for mirroring liked songs.
package main

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/alecthomas/kingpin/v2"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
	spotifyauth "github.com/zmb3/spotify/v2/auth"
	"golang.org/x/oauth2"
)

var (
	app          = kingpin.New("fmcli-auth", "Authorize fmcli to edit a Spotify playlist")
	clientID     = app.Flag("client-id", "Spotify Client ID").Envar("SPOTIFY_CLIENT_ID").Required().String()
	clientSecret = app.Flag("client-secret", "Spotify Client Secret").Envar("SPOTIFY_CLIENT_SECRET").Required().String()
	port         = app.Flag("port", "Callback server port").Default("8888").Int()
	timeout      = app.Flag("timeout", "How long to wait for the browser").Default("5m").Duration()
)

type result struct {
	token *oauth2.Token
	err   error
}

func main() {
	_ = godotenv.Load()
	kingpin.MustParse(app.Parse(os.Args[1:]))

	auth := spotifyauth.New(
		spotifyauth.WithRedirectURL(fmt.Sprintf("http://127.0.0.1:%d/callback", *port)),
		spotifyauth.WithClientID(*clientID),
		spotifyauth.WithClientSecret(*clientSecret),
		spotifyauth.WithScopes(
			spotifyauth.ScopePlaylistModifyPublic,
			spotifyauth.ScopePlaylistModifyPrivate,
			spotifyauth.ScopePlaylistReadPrivate,
		),
	)
	state := uuid.New().String()
	results := make(chan result, 1)

	mux := http.NewServeMux()
	mux.HandleFunc("/callback", func(w http.ResponseWriter, r *http.Request) {
		if st := r.FormValue("state"); st != state {
			http.Error(w, "State mismatch", http.StatusForbidden)
			return
		}
		token, err := auth.Token(r.Context(), state, r)
		if err != nil {
			http.Error(w, "Failed to get token", http.StatusForbidden)
			deliver(results, result{err: err})
			return
		}
		fmt.Fprintln(w, "fmcli is authorized. You can close this window.")
		deliver(results, result{token: token})
	})

	listener, err := net.Listen("tcp", fmt.Sprintf("127.0.0.1:%d", *port))
	kingpin.FatalIfError(err, "failed to listen on port %d", *port)
	server := &http.Server{Handler: mux, ReadHeaderTimeout: 10 * time.Second}
	go func() { _ = server.Serve(listener) }()

	fmt.Println("Please visit the following URL to authorize fmcli:")
	fmt.Println()
	fmt.Println(auth.AuthURL(state))
	fmt.Println()
	fmt.Println("Waiting for authorization...")

	var res result
	select {
	case res = <-results:
	case <-time.After(*timeout):
		res = result{err: fmt.Errorf("no authorization within %s", *timeout)}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = server.Shutdown(ctx)

	kingpin.FatalIfError(res.err, "authorization failed")

	fmt.Println()
	fmt.Println("Add this to config/fmcli.yaml:")
	fmt.Println()
	fmt.Println("spotify:")
	fmt.Println("  enabled: true")
	fmt.Printf("  refresh_token: %q\n", res.token.RefreshToken)
	fmt.Println("  playlist_url: \"https://open.spotify.com/playlist/...\"")
	fmt.Println()
	fmt.Println("Or set as environment variable:")
	fmt.Printf("export SPOTIFY_REFRESH_TOKEN=%q\n", res.token.RefreshToken)
}

// deliver keeps only the first callback result.
func deliver(results chan<- result, r result) {
	select {
	case results <- r:
	default:
	}
}
