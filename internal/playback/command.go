package playback

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"strings"
	"sync"
	"time"
)

// DefaultCommand plays a file or URL and exits when it finishes.
var DefaultCommand = []string{"ffplay", "-nodisp", "-autoexit", "-loglevel", "quiet"}

// CommandPlayer runs an external audio player per clip. Data URIs are
// written to a temp file first and their length read from the mp3 frames;
// other URLs are handed to the command as is with an unknown length.
type CommandPlayer struct {
	command []string
	logger  *slog.Logger
}

func NewCommandPlayer(command []string, logger *slog.Logger) *CommandPlayer {
	if len(command) == 0 {
		command = DefaultCommand
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &CommandPlayer{command: command, logger: logger}
}

type commandHandle struct {
	cancel   context.CancelFunc
	duration time.Duration
	stopOnce sync.Once
}

func (h *commandHandle) Stop() {
	h.stopOnce.Do(h.cancel)
}

func (h *commandHandle) Duration() time.Duration { return h.duration }

func (p *CommandPlayer) Start(ctx context.Context, url string, cb Callbacks) (Handle, error) {
	target, audio, cleanup, err := materialize(url)
	if err != nil {
		return nil, err
	}

	runCtx, cancel := context.WithCancel(ctx)
	args := append(append([]string{}, p.command[1:]...), target)
	cmd := exec.CommandContext(runCtx, p.command[0], args...)

	if err := cmd.Start(); err != nil {
		cancel()
		cleanup()
		return nil, fmt.Errorf("failed to start audio player %s: %w", p.command[0], err)
	}
	if cb.OnPlayStart != nil {
		cb.OnPlayStart()
	}

	go func() {
		defer cleanup()
		defer cancel()
		if err := cmd.Wait(); err != nil && runCtx.Err() == nil {
			p.logger.Warn("audio player exited with error", "error", err)
		}
		if cb.OnEnded != nil {
			cb.OnEnded()
		}
	}()

	return &commandHandle{cancel: cancel, duration: MP3Duration(audio)}, nil
}

// materialize turns a base64 data URI into a temp file path and returns
// the decoded audio. The returned cleanup removes the file.
func materialize(url string) (string, []byte, func(), error) {
	if !strings.HasPrefix(url, "data:") {
		return url, nil, func() {}, nil
	}

	audio, err := DecodeDataURI(url)
	if err != nil {
		return "", nil, nil, err
	}
	f, err := os.CreateTemp("", "portfolio-audio-*.mp3")
	if err != nil {
		return "", nil, nil, fmt.Errorf("failed to create audio file: %w", err)
	}
	if _, err := f.Write(audio); err != nil {
		f.Close()
		os.Remove(f.Name())
		return "", nil, nil, fmt.Errorf("failed to write audio file: %w", err)
	}
	f.Close()
	return f.Name(), audio, func() { os.Remove(f.Name()) }, nil
}

// DecodeDataURI returns the payload of a base64 data URI.
func DecodeDataURI(uri string) ([]byte, error) {
	header, payload, ok := strings.Cut(strings.TrimPrefix(uri, "data:"), ",")
	if !ok || !strings.HasPrefix(uri, "data:") {
		return nil, errors.New("malformed data URI")
	}
	if !strings.HasSuffix(header, ";base64") {
		return nil, errors.New("data URI is not base64 encoded")
	}
	return base64.StdEncoding.DecodeString(payload)
}
