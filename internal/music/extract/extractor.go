package extract

import (
	"bytes"
	"context"
	"encoding/json"
	"os/exec"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"groovebox/internal/music"
)

const (
	defaultResolveTimeout  = 30 * time.Second
	defaultPlaylistTimeout = 120 * time.Second
	defaultFetchTimeout    = 180 * time.Second

	// flat playlist entries missing metadata are hydrated with this many
	// concurrent yt-dlp calls
	hydrateConcurrency = 4
)

// Options configures an Extractor
type Options struct {
	YtdlpPath       string
	FfmpegPath      string
	ResolveTimeout  time.Duration
	PlaylistTimeout time.Duration
	FetchTimeout    time.Duration
	Logger          *zap.Logger
}

// Extractor wraps the external yt-dlp binary as a subprocess. Every call is a
// single attempt with its own timeout; retries belong to the caller.
type Extractor struct {
	ytdlp           string
	ffmpeg          string
	resolveTimeout  time.Duration
	playlistTimeout time.Duration
	fetchTimeout    time.Duration
	logger          *zap.Logger
}

// New creates an Extractor
func New(opts Options) *Extractor {
	if opts.YtdlpPath == "" {
		opts.YtdlpPath = "yt-dlp"
	}
	if opts.FfmpegPath == "" {
		opts.FfmpegPath = "ffmpeg"
	}
	if opts.ResolveTimeout <= 0 {
		opts.ResolveTimeout = defaultResolveTimeout
	}
	if opts.PlaylistTimeout <= 0 {
		opts.PlaylistTimeout = defaultPlaylistTimeout
	}
	if opts.FetchTimeout <= 0 {
		opts.FetchTimeout = defaultFetchTimeout
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &Extractor{
		ytdlp:           opts.YtdlpPath,
		ffmpeg:          opts.FfmpegPath,
		resolveTimeout:  opts.ResolveTimeout,
		playlistTimeout: opts.PlaylistTimeout,
		fetchTimeout:    opts.FetchTimeout,
		logger:          opts.Logger,
	}
}

// Resolve turns a URL or free-text query into track metadata. Non-URL input
// is resolved as a search for the best single match.
func (e *Extractor) Resolve(ctx context.Context, urlOrQuery string) (music.Track, error) {
	target := urlOrQuery
	if !isURL(urlOrQuery) {
		target = "ytsearch1:" + urlOrQuery
	}

	args := []string{"--dump-json", "--quiet", "--no-warnings", "--no-playlist", target}

	stdout, err := e.run(ctx, e.resolveTimeout, args)
	if err != nil {
		return music.Track{}, err
	}

	var info videoInfo
	if err := json.Unmarshal(stdout, &info); err != nil {
		return music.Track{}, music.NewError(
			music.KindMalformedOutput,
			"yt-dlp emitted unparseable JSON",
			"Could not read track information from the source",
			err,
		)
	}

	track, ok := info.toTrack()
	if !ok {
		return music.Track{}, music.NewError(
			music.KindUnsupportedSource,
			"resolved entry is not playable: "+info.Title,
			"That track is unavailable",
			nil,
		)
	}
	return track, nil
}

// ResolvePlaylist expands a playlist URL into track metadata. Unplayable
// entries (deleted, private) are skipped; flat entries missing a duration are
// hydrated with bounded concurrency.
func (e *Extractor) ResolvePlaylist(ctx context.Context, url string) ([]music.Track, error) {
	args := []string{"--flat-playlist", "--dump-json", "--quiet", "--no-warnings", url}

	stdout, err := e.run(ctx, e.playlistTimeout, args)
	if err != nil {
		return nil, err
	}

	var tracks []music.Track
	for _, line := range bytes.Split(stdout, []byte("\n")) {
		line = bytes.TrimSpace(line)
		if len(line) == 0 {
			continue
		}
		var info videoInfo
		if err := json.Unmarshal(line, &info); err != nil {
			continue
		}
		if track, ok := info.toTrack(); ok {
			tracks = append(tracks, track)
		}
	}
	if len(tracks) == 0 {
		return nil, music.NewError(
			music.KindMalformedOutput,
			"playlist expansion produced no playable entries",
			"Could not find any playable tracks in that playlist",
			nil,
		)
	}

	e.hydrate(ctx, tracks)
	return tracks, nil
}

// hydrate fills in metadata that flat playlist extraction leaves blank.
// Failures keep the flat entry as-is.
func (e *Extractor) hydrate(ctx context.Context, tracks []music.Track) {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(hydrateConcurrency)

	for i := range tracks {
		if tracks[i].Duration > 0 || tracks[i].URL == "" {
			continue
		}
		g.Go(func() error {
			full, err := e.Resolve(ctx, tracks[i].URL)
			if err != nil {
				e.logger.Debug("playlist entry hydration failed",
					zap.String("url", tracks[i].URL), zap.Error(err))
				return nil
			}
			full.RequesterID = tracks[i].RequesterID
			tracks[i] = full
			return nil
		})
	}
	_ = g.Wait()
}

// run executes yt-dlp with a per-call timeout and classifies failures
func (e *Extractor) run(ctx context.Context, timeout time.Duration, args []string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, e.ytdlp, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	e.logger.Debug("running yt-dlp", zap.Strings("args", args))
	err := cmd.Run()

	if ctx.Err() == context.DeadlineExceeded {
		return nil, music.NewError(
			music.KindNetworkFailure,
			"yt-dlp timed out after "+timeout.String(),
			"The source took too long to respond",
			ctx.Err(),
		)
	}
	if err != nil {
		detail := strings.TrimSpace(stderr.String())
		if detail == "" {
			detail = strings.TrimSpace(stdout.String())
		}
		return nil, classifyFailure(detail, err)
	}
	return bytes.TrimSpace(stdout.Bytes()), nil
}

func isURL(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}

// IsPlaylistURL reports whether a URL points at a playlist rather than a
// single track
func IsPlaylistURL(url string) bool {
	u := strings.ToLower(url)

	if strings.Contains(u, "list=") {
		return true
	}
	if strings.Contains(u, "music.youtube.com") && strings.Contains(u, "/playlist") {
		return true
	}
	if strings.Contains(u, "spotify.com") &&
		(strings.Contains(u, "/playlist/") || strings.Contains(u, "/album/")) {
		return true
	}
	if strings.Contains(u, "soundcloud.com") && strings.Contains(u, "/sets/") {
		return true
	}
	return false
}
