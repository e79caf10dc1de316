package extract

import (
	"bytes"
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"groovebox/internal/music"
)

// Fetch downloads a track's audio into destDir and converts it to an OGG
// Opus file named <id>.opus, returning the final path. An existing converted
// file is reused. Cancelling the context kills the subprocesses and removes
// any partial output.
func (e *Extractor) Fetch(ctx context.Context, track music.Track, destDir string) (string, error) {
	opusPath := filepath.Join(destDir, track.ID+".opus")
	if _, err := os.Stat(opusPath); err == nil {
		return opusPath, nil
	}

	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return "", err
	}

	ctx, cancel := context.WithTimeout(ctx, e.fetchTimeout)
	defer cancel()

	template := filepath.Join(destDir, track.ID+".%(ext)s")
	args := []string{
		"--format", "bestaudio/best",
		"--output", template,
		"--no-playlist",
		"--quiet",
		"--no-warnings",
		track.URL,
	}

	cmd := exec.CommandContext(ctx, e.ytdlp, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	e.logger.Debug("downloading track",
		zap.String("id", track.ID), zap.String("title", track.Title))

	if err := cmd.Run(); err != nil {
		e.removePartials(destDir, track.ID)
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", classifyFailure(stderr.String(), err)
	}

	raw, err := e.findDownloaded(destDir, track.ID)
	if err != nil {
		return "", err
	}

	if err := e.convertToOpus(ctx, raw, opusPath); err != nil {
		e.removePartials(destDir, track.ID)
		return "", err
	}
	return opusPath, nil
}

// convertToOpus transcodes the downloaded file to OGG Opus and removes the
// original regardless of outcome
func (e *Extractor) convertToOpus(ctx context.Context, input, output string) error {
	defer os.Remove(input)

	args := []string{
		"-i", input,
		"-c:a", "libopus",
		"-b:a", "128k",
		"-vbr", "on",
		"-application", "audio",
		"-ar", "48000",
		"-ac", "2",
		"-loglevel", "error",
		"-y",
		output,
	}

	cmd := exec.CommandContext(ctx, e.ffmpeg, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		os.Remove(output)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return music.NewError(
			music.KindExtractionFailed,
			"ffmpeg conversion failed: "+firstLine(stderr.String()),
			"Could not prepare the audio for playback",
			err,
		)
	}
	return nil
}

// findDownloaded locates the raw (pre-conversion) download for a track
func (e *Extractor) findDownloaded(dir, trackID string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", err
	}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		ext := filepath.Ext(name)
		if strings.TrimSuffix(name, ext) == trackID && ext != ".opus" {
			return filepath.Join(dir, name), nil
		}
	}
	return "", music.NewError(
		music.KindExtractionFailed,
		"download finished but no file was produced for "+trackID,
		"Could not load that track",
		nil,
	)
}

// removePartials deletes any leftover files for a track, converted or not
func (e *Extractor) removePartials(dir, trackID string) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return
	}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		// yt-dlp writes in-progress downloads as <id>.<ext>.part, so strip
		// every extension before comparing
		stem := entry.Name()
		for ext := filepath.Ext(stem); ext != ""; ext = filepath.Ext(stem) {
			stem = strings.TrimSuffix(stem, ext)
		}
		if stem == trackID {
			os.Remove(filepath.Join(dir, entry.Name()))
		}
	}
}
