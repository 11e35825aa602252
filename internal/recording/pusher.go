// Package recording implements the conference-control capability the dialog
// submits to: an ffmpeg process pushing the conference media source to an
// RTMP ingest endpoint under the submitted stream key.
package recording

import (
	"context"
	"os"
	"os/exec"
	"strings"
	"sync"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/confmedia/livestream/internal/dialog"
)

type Pusher struct {
	ingestURL string
	sourceURL string
	logger    zerolog.Logger

	mu        sync.Mutex
	cancel    context.CancelFunc
	waitGroup sync.WaitGroup
}

// NewPusher creates a pusher targeting ingestURL (e.g.
// "rtmp://a.rtmp.youtube.com/live2") and relaying sourceURL, the conference
// mix output.
func NewPusher(ingestURL, sourceURL string, logger zerolog.Logger) *Pusher {
	return &Pusher{
		ingestURL: ingestURL,
		sourceURL: sourceURL,
		logger:    logger,
	}
}

// StartRecording implements dialog.Conference. The dialog fires and forgets;
// failures here are logged, never reported back.
func (p *Pusher) StartRecording(options dialog.RecordingOptions) {
	if options.Mode != dialog.RecordingModeStream {
		p.logger.Warn().Str("mode", string(options.Mode)).Msg("unsupported recording mode, ignoring")
		return
	}

	p.mu.Lock()
	if p.cancel != nil {
		p.logger.Warn().Msg("live stream already running, ignoring start")
		p.mu.Unlock()
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	p.cancel = cancel
	p.mu.Unlock()

	target := IngestTarget(p.ingestURL, options.StreamId)

	p.logger.Info().
		Str("broadcastId", options.BroadcastId).
		Str("target", redactKey(target, options.StreamId)).
		Msg("starting rtmp push...")

	p.waitGroup.Add(1)
	go func() {
		defer p.waitGroup.Done()
		defer p.reset()

		if err := p.runFFmpeg(ctx, target); err != nil && ctx.Err() != context.Canceled {
			p.logger.Err(err).Msg("ffmpeg failed")
		}
	}()
}

// Stop terminates a running push and waits for the process to exit.
func (p *Pusher) Stop() {
	p.mu.Lock()
	cancel := p.cancel
	p.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	p.waitGroup.Wait()
}

// Running reports whether a push is in flight.
func (p *Pusher) Running() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.cancel != nil
}

func (p *Pusher) reset() {
	p.mu.Lock()
	p.cancel = nil
	p.mu.Unlock()
}

func (p *Pusher) runFFmpeg(ctx context.Context, target string) error {
	args := BuildFFmpegArgs(p.sourceURL, target)

	p.logger.Debug().Msgf("running ffmpeg %s", strings.Join(args, " "))

	cmd := exec.CommandContext(ctx, "ffmpeg", args...)
	cmd.Stderr = os.Stderr

	return errors.WithStack(cmd.Run())
}

// BuildFFmpegArgs assembles the relay command line: read the source in real
// time, transcode to the H.264/AAC flavor RTMP ingest expects, and wrap it
// in FLV.
func BuildFFmpegArgs(source, target string) []string {
	return []string{
		"-re",
		"-v", "info",
		"-i", source,
		"-map", "0:a:0",
		"-acodec", "aac", "-ab", "128k", "-ac", "2", "-ar", "44100",
		"-map", "0:v:0",
		"-pix_fmt", "yuv420p", "-c:v", "libx264", "-preset", "veryfast", "-b:v", "2500k",
		"-f", "flv",
		target,
	}
}

// IngestTarget joins the ingest endpoint and the stream key.
func IngestTarget(ingestURL, streamKey string) string {
	return strings.TrimRight(ingestURL, "/") + "/" + streamKey
}

func redactKey(target, key string) string {
	if key == "" {
		return target
	}
	return strings.Replace(target, key, "***", 1)
}
