package audio

import (
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/xf8b/xf8bot/music"
)

func TestSearchQuery(t *testing.T) {
	cases := []struct {
		in     string
		query  string
		search bool
	}{
		{"https://www.youtube.com/watch?v=dQw4w9WgXcQ", "https://www.youtube.com/watch?v=dQw4w9WgXcQ", false},
		{"  http://example.com/song.mp3 ", "http://example.com/song.mp3", false},
		{"never gonna give you up", "ytsearch1:never gonna give you up", true},
		{"youtube.com/watch?v=dQw4w9WgXcQ", "ytsearch1:youtube.com/watch?v=dQw4w9WgXcQ", true},
	}
	for _, tc := range cases {
		q, search := searchQuery(tc.in)
		if q != tc.query || search != tc.search {
			t.Errorf("searchQuery(%q) = %q, %v; want %q, %v", tc.in, q, search, tc.query, tc.search)
		}
	}
}

const videoJSON = `{
	"_type": "video",
	"id": "dQw4w9WgXcQ",
	"title": "Rick Astley - Never Gonna Give You Up (Official Music Video)",
	"uploader": "Rick Astley",
	"duration": 212.0,
	"webpage_url": "https://www.youtube.com/watch?v=dQw4w9WgXcQ",
	"url": "https://rr1---sn-example.googlevideo.com/videoplayback?expire=1",
	"formats": [{"format_id": "251"}]
}`

const playlistJSON = `{
	"_type": "playlist",
	"id": "PLFgquLnL59alCl_2TQvOiD5Vgm1hCaGSI",
	"title": "Memes",
	"entries": [
		{"_type": "url", "id": "y6120QOlsfU", "url": "https://www.youtube.com/watch?v=y6120QOlsfU", "title": "Darude - Sandstorm", "channel": "Darude", "duration": 233},
		{"_type": "url", "id": "private", "title": "[Private video]", "duration": null},
		{"_type": "url", "id": "L_jWHffIx5E", "url": "https://www.youtube.com/watch?v=L_jWHffIx5E", "title": "Smash Mouth - All Star", "uploader": "Smash Mouth", "duration": 200.5}
	]
}`

const searchJSON = `{
	"_type": "playlist",
	"id": "never gonna give you up",
	"title": "never gonna give you up",
	"entries": [
		{"_type": "url", "id": "dQw4w9WgXcQ", "url": "https://www.youtube.com/watch?v=dQw4w9WgXcQ", "title": "Rick Astley - Never Gonna Give You Up (Official Music Video)", "channel": "Rick Astley", "duration": 212}
	]
}`

func TestParseInfo(t *testing.T) {
	rickroll := music.Track{
		Identifier: "https://www.youtube.com/watch?v=dQw4w9WgXcQ",
		Title:      "Rick Astley - Never Gonna Give You Up (Official Music Video)",
		Author:     "Rick Astley",
		Duration:   212 * time.Second,
		Source:     "https://www.youtube.com/watch?v=dQw4w9WgXcQ",
	}

	cases := []struct {
		name   string
		json   string
		search bool
		want   Result
	}{
		{
			name: "video",
			json: videoJSON,
			want: Result{Tracks: []music.Track{rickroll}},
		},
		{
			name: "playlist",
			json: playlistJSON,
			want: Result{Playlist: "Memes", Tracks: []music.Track{
				{
					Identifier: "https://www.youtube.com/watch?v=y6120QOlsfU",
					Title:      "Darude - Sandstorm",
					Author:     "Darude",
					Duration:   233 * time.Second,
					Source:     "https://www.youtube.com/watch?v=y6120QOlsfU",
				},
				{
					Identifier: "https://www.youtube.com/watch?v=L_jWHffIx5E",
					Title:      "Smash Mouth - All Star",
					Author:     "Smash Mouth",
					Duration:   200*time.Second + 500*time.Millisecond,
					Source:     "https://www.youtube.com/watch?v=L_jWHffIx5E",
				},
			}},
		},
		{
			name:   "search",
			json:   searchJSON,
			search: true,
			want:   Result{Tracks: []music.Track{rickroll}},
		},
		{
			name:   "no search results",
			json:   `{"_type": "playlist", "id": "asdfghjkl", "title": "asdfghjkl", "entries": []}`,
			search: true,
			want:   Result{},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := parseInfo([]byte(tc.json), tc.search)
			if err != nil {
				t.Fatal(err)
			}
			if diff := cmp.Diff(tc.want, got); diff != "" {
				t.Errorf("wrong result (-want +got):\n%s", diff)
			}
		})
	}

	if _, err := parseInfo([]byte("not json"), false); err == nil {
		t.Error("no error for invalid output")
	}
}

func TestFFmpegArgs(t *testing.T) {
	y := NewYTDLP("", "")
	defer y.Close()

	args := strings.Join(y.ffmpegArgs("https://example.com/audio", 90*time.Second, 150), " ")
	for _, want := range []string{
		"-ss 90.000 -i https://example.com/audio",
		"-af volume=1.50",
		"-c:a libopus",
		"-frame_duration 20",
		"-ar 48000 -ac 2 -f opus pipe:1",
	} {
		if !strings.Contains(args, want) {
			t.Errorf("args %q don't contain %q", args, want)
		}
	}
}
