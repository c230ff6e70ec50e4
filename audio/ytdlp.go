package audio

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"emperror.dev/errors"
	"github.com/ReneKroon/ttlcache/v2"
	"github.com/go-json-experiment/json"
	"github.com/xf8b/xf8bot/common/log"
	"github.com/xf8b/xf8bot/music"
)

// Audio format sent to Discord.
const (
	SampleRate    = 48000
	Channels      = 2
	FrameDuration = 20 * time.Millisecond
)

// streamURLExpiry is how long resolved stream URLs are reused.
// YouTube's signed URLs are valid for a few hours.
const streamURLExpiry = time.Hour

// YTDLP loads tracks with yt-dlp and streams them through ffmpeg.
type YTDLP struct {
	// YTDLPPath and FFmpegPath are the executables, looked up in $PATH if not absolute.
	YTDLPPath  string
	FFmpegPath string
	// Bitrate is the Opus bitrate, such as "96k".
	Bitrate string

	urls *ttlcache.Cache
}

var (
	_ Loader   = (*YTDLP)(nil)
	_ Streamer = (*YTDLP)(nil)
)

// NewYTDLP returns a YTDLP using the given executables.
func NewYTDLP(ytdlp, ffmpeg string) *YTDLP {
	if ytdlp == "" {
		ytdlp = "yt-dlp"
	}
	if ffmpeg == "" {
		ffmpeg = "ffmpeg"
	}

	urls := ttlcache.NewCache()
	_ = urls.SetTTL(streamURLExpiry)

	return &YTDLP{
		YTDLPPath:  ytdlp,
		FFmpegPath: ffmpeg,
		Bitrate:    "96k",
		urls:       urls,
	}
}

// Close stops the stream URL cache.
func (y *YTDLP) Close() error {
	return y.urls.Close()
}

func isURL(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}

// searchQuery returns what to pass to yt-dlp for identifier.
// Anything that isn't a URL is searched for on YouTube.
func searchQuery(identifier string) (query string, search bool) {
	identifier = strings.TrimSpace(identifier)
	if isURL(identifier) {
		return identifier, false
	}
	return "ytsearch1:" + identifier, true
}

// Load resolves identifier with "yt-dlp -J".
func (y *YTDLP) Load(ctx context.Context, identifier string) (Result, error) {
	query, search := searchQuery(identifier)

	cmd := exec.CommandContext(ctx, y.YTDLPPath, "-J", "--flat-playlist", "--no-warnings", "--", query)
	out, err := cmd.Output()
	if err != nil {
		return Result{}, commandError("yt-dlp", err)
	}

	return parseInfo(out, search)
}

// commandError turns a failed command's stderr into an error users can read.
func commandError(name string, err error) error {
	var ee *exec.ExitError
	if !errors.As(err, &ee) || len(ee.Stderr) == 0 {
		return errors.Wrapf(err, "running %v", name)
	}

	lines := strings.Split(strings.TrimSpace(string(ee.Stderr)), "\n")
	msg := strings.TrimPrefix(lines[len(lines)-1], "ERROR: ")
	return errors.New(msg)
}

// ytdlpInfo is the subset of yt-dlp's info JSON used to build tracks.
type ytdlpInfo struct {
	Type       string      `json:"_type"`
	ID         string      `json:"id"`
	Title      string      `json:"title"`
	Uploader   string      `json:"uploader"`
	Channel    string      `json:"channel"`
	Duration   float64     `json:"duration"`
	WebpageURL string      `json:"webpage_url"`
	URL        string      `json:"url"`
	Entries    []ytdlpInfo `json:"entries"`
}

func (i ytdlpInfo) track() music.Track {
	page := i.WebpageURL
	if page == "" {
		page = i.URL
	}

	author := i.Uploader
	if author == "" {
		author = i.Channel
	}

	title := i.Title
	if title == "" {
		title = page
	}

	return music.Track{
		Identifier: page,
		Title:      title,
		Author:     author,
		Duration:   time.Duration(i.Duration * float64(time.Second)),
		Source:     page,
	}
}

// parseInfo builds a Result from yt-dlp's JSON output.
// Search results are a playlist of one entry, and are returned as a single track.
func parseInfo(b []byte, search bool) (Result, error) {
	var info ytdlpInfo
	if err := json.Unmarshal(b, &info); err != nil {
		return Result{}, errors.Wrap(err, "parsing yt-dlp output")
	}

	if info.Type != "playlist" {
		return Result{Tracks: []music.Track{info.track()}}, nil
	}

	var r Result
	if !search {
		r.Playlist = info.Title
		if r.Playlist == "" {
			r.Playlist = info.ID
		}
	}
	for _, e := range info.Entries {
		if e.WebpageURL == "" && e.URL == "" {
			continue
		}
		r.Tracks = append(r.Tracks, e.track())
		if search {
			break
		}
	}
	return r, nil
}

// streamURL returns the direct audio URL of t.
func (y *YTDLP) streamURL(ctx context.Context, t music.Track) (string, error) {
	if v, err := y.urls.Get(t.Source); err == nil {
		return v.(string), nil
	}

	cmd := exec.CommandContext(ctx, y.YTDLPPath, "-f", "bestaudio/best", "-g", "--no-playlist", "--no-warnings", "--", t.Source)
	out, err := cmd.Output()
	if err != nil {
		return "", commandError("yt-dlp", err)
	}

	link, _, _ := strings.Cut(strings.TrimSpace(string(out)), "\n")
	if link == "" {
		return "", errors.New("yt-dlp returned no stream URL")
	}

	if err := y.urls.Set(t.Source, link); err != nil {
		log.Errorf("Error caching stream URL for %v: %v", t.Source, err)
	}
	return link, nil
}

// ffmpegArgs returns the arguments transcoding link to Ogg Opus,
// starting at offset with the given volume in percent.
func (y *YTDLP) ffmpegArgs(link string, offset time.Duration, volume int) []string {
	return []string{
		"-hide_banner",
		"-loglevel", "error",
		"-reconnect", "1",
		"-reconnect_streamed", "1",
		"-reconnect_delay_max", "5",
		"-ss", fmt.Sprintf("%.3f", offset.Seconds()),
		"-i", link,
		"-vn",
		"-af", "volume=" + strconv.FormatFloat(float64(volume)/100, 'f', 2, 64),
		"-c:a", "libopus",
		"-b:a", y.Bitrate,
		"-frame_duration", strconv.Itoa(int(FrameDuration / time.Millisecond)),
		"-ar", strconv.Itoa(SampleRate),
		"-ac", strconv.Itoa(Channels),
		"-f", "opus",
		"pipe:1",
	}
}

// Stream starts ffmpeg for t and returns its Ogg Opus output.
// Closing the stream kills ffmpeg.
func (y *YTDLP) Stream(ctx context.Context, t music.Track, offset time.Duration, volume int) (io.ReadCloser, error) {
	link, err := y.streamURL(ctx, t)
	if err != nil {
		return nil, err
	}

	cmd := exec.CommandContext(ctx, y.FFmpegPath, y.ffmpegArgs(link, offset, volume)...)

	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, errors.Wrap(err, "getting ffmpeg stderr")
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, errors.Wrap(err, "getting ffmpeg stdout")
	}

	if err := cmd.Start(); err != nil {
		return nil, errors.Wrap(err, "starting ffmpeg")
	}

	go func() {
		s := bufio.NewScanner(stderr)
		for s.Scan() {
			log.Warnf("ffmpeg (%v): %v", t.Title, s.Text())
		}
	}()

	return &process{ReadCloser: stdout, cmd: cmd}, nil
}

// process is the stdout of a running command.
type process struct {
	io.ReadCloser
	cmd *exec.Cmd
}

func (p *process) Close() error {
	if p.cmd.Process != nil {
		_ = p.cmd.Process.Kill()
	}
	_ = p.ReadCloser.Close()
	// the exit status of a killed process isn't interesting
	_ = p.cmd.Wait()
	return nil
}
