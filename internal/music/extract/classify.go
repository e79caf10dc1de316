package extract

import (
	"strings"

	"groovebox/internal/music"
)

// stderr fragments yt-dlp emits for each failure category. Checked in order;
// the first hit wins.
var failurePatterns = []struct {
	kind        music.Kind
	userMessage string
	patterns    []string
}{
	{
		kind:        music.KindUnsupportedSource,
		userMessage: "This video is age-restricted and cannot be played",
		patterns: []string{
			"confirm your age", "age-restricted", "inappropriate for some users",
		},
	},
	{
		kind:        music.KindUnsupportedSource,
		userMessage: "This video is blocked on copyright grounds",
		patterns: []string{
			"copyright grounds", "blocked it", "content owner", "has blocked",
		},
	},
	{
		kind:        music.KindUnsupportedSource,
		userMessage: "This video is not available in your region",
		patterns:    []string{"not available in your country"},
	},
	{
		kind:        music.KindUnsupportedSource,
		userMessage: "This video is private",
		patterns:    []string{"private video", "sign in if you've been granted access"},
	},
	{
		kind:        music.KindUnsupportedSource,
		userMessage: "This video is no longer available",
		patterns: []string{
			"video unavailable", "this video is unavailable",
			"no longer available", "has been removed", "account has been terminated",
		},
	},
	{
		kind:        music.KindUnsupportedSource,
		userMessage: "No extractor supports this link",
		patterns:    []string{"unsupported url", "no suitable extractor"},
	},
	{
		kind:        music.KindRateLimited,
		userMessage: "The source is rate-limiting us, try again in a bit",
		patterns: []string{
			"429", "too many requests", "rate-limit",
			"confirm you're not a bot", "sign in to confirm",
		},
	},
	{
		kind:        music.KindNetworkFailure,
		userMessage: "Could not reach the source, check the connection",
		patterns: []string{
			"unable to download", "failed to resolve", "getaddrinfo",
			"connection reset", "connection refused", "network is unreachable",
			"timed out", "temporary failure in name resolution",
		},
	},
}

// classifyFailure maps yt-dlp diagnostic output to a structured error
func classifyFailure(stderr string, cause error) *music.Error {
	lower := strings.ToLower(stderr)

	for _, f := range failurePatterns {
		for _, p := range f.patterns {
			if strings.Contains(lower, p) {
				return music.NewError(f.kind, firstLine(stderr), f.userMessage, cause)
			}
		}
	}

	message := firstLine(stderr)
	if message == "" {
		message = "yt-dlp exited with an error"
	}
	return music.NewError(
		music.KindExtractionFailed,
		message,
		"Could not load that track",
		cause,
	)
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	return s
}
