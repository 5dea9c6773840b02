// Package ffmpeg implements the media tool on top of the ffmpeg and ffprobe
// binaries.
package ffmpeg

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/bnema/retell/internal/domain"
	"github.com/bnema/retell/internal/port"
)

var (
	ErrEmptyPath   = errors.New("path is empty")
	ErrInvalidPath = errors.New("path contains invalid characters")
	ErrNoInputs    = errors.New("no inputs to concatenate")
)

// validatePath rejects paths that could not be handed to ffmpeg verbatim.
func validatePath(path string) error {
	if path == "" {
		return ErrEmptyPath
	}
	if strings.ContainsRune(path, 0) {
		return ErrInvalidPath
	}
	return nil
}

// CommandLog captures one external command invocation.
type CommandLog struct {
	Command  string   `json:"command"`
	Args     []string `json:"args"`
	ExitCode int      `json:"exitCode"`
	Stdout   string   `json:"stdout"`
	Stderr   string   `json:"stderr"`
}

// ToolError is returned when ffmpeg or ffprobe fails. It carries the
// command output so the pipeline can log it.
type ToolError struct {
	Op         string
	CommandLog CommandLog
	Err        error
}

func (e *ToolError) Error() string {
	if e == nil {
		return ""
	}
	if e.CommandLog.Command == "" {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("%s: %v (cmd=%s exit=%d)", e.Op, e.Err, e.CommandLog.Command, e.CommandLog.ExitCode)
}

func (e *ToolError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

type commandResult struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

type commandRunner interface {
	Run(ctx context.Context, name string, args ...string) (commandResult, error)
}

type execRunner struct{}

func (r *execRunner) Run(ctx context.Context, name string, args ...string) (commandResult, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	result := commandResult{Stdout: stdout.String(), Stderr: stderr.String()}
	if err != nil {
		result.ExitCode = -1
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			result.ExitCode = exitErr.ExitCode()
		}
		return result, err
	}
	return result, nil
}

type Tool struct {
	ffmpegPath  string
	ffprobePath string
	runner      commandRunner
}

func NewTool() *Tool {
	return &Tool{
		ffmpegPath:  "ffmpeg",
		ffprobePath: "ffprobe",
		runner:      &execRunner{},
	}
}

// Available reports whether the ffmpeg binary can be found on PATH.
func Available() bool {
	_, err := exec.LookPath("ffmpeg")
	return err == nil
}

func (t *Tool) ExtractAudio(ctx context.Context, videoPath, outPath string) error {
	if err := validatePaths(videoPath, outPath); err != nil {
		return err
	}
	args := []string{
		"-hide_banner", "-nostdin", "-y",
		"-i", videoPath,
		"-vn",
		"-ac", "1",
		"-ar", "16000",
		"-c:a", "pcm_s16le",
		"-map_metadata", "-1",
		"-fflags", "+bitexact",
		outPath,
	}
	return t.ffmpeg(ctx, "extract audio", args)
}

func (t *Tool) ExtractSegment(ctx context.Context, videoPath, outPath string, start, duration float64) error {
	if err := validatePaths(videoPath, outPath); err != nil {
		return err
	}
	if duration <= 0 {
		return fmt.Errorf("extract segment: invalid duration %v", duration)
	}
	args := []string{
		"-hide_banner", "-nostdin", "-y",
		"-ss", formatSeconds(start),
		"-i", videoPath,
		"-t", formatSeconds(duration),
		"-c", "copy",
		outPath,
	}
	return t.ffmpeg(ctx, "extract segment", args)
}

// Concat joins clips with the concat demuxer. The list file is written next
// to the output and removed afterwards.
func (t *Tool) Concat(ctx context.Context, inputs []string, outPath string) error {
	if len(inputs) == 0 {
		return ErrNoInputs
	}
	if err := validatePaths(append([]string{outPath}, inputs...)...); err != nil {
		return err
	}

	var list strings.Builder
	for _, in := range inputs {
		abs, err := filepath.Abs(in)
		if err != nil {
			return fmt.Errorf("resolve %s: %w", in, err)
		}
		fmt.Fprintf(&list, "file '%s'\n", strings.ReplaceAll(abs, "'", `'\''`))
	}
	listPath := outPath + ".list.txt"
	if err := os.WriteFile(listPath, []byte(list.String()), 0600); err != nil {
		return fmt.Errorf("write concat list: %w", err)
	}
	defer os.Remove(listPath) //nolint:errcheck

	args := []string{
		"-hide_banner", "-nostdin", "-y",
		"-f", "concat",
		"-safe", "0",
		"-i", listPath,
		"-c", "copy",
		outPath,
	}
	return t.ffmpeg(ctx, "concat", args)
}

// ReplaceAudio copies the first video stream and re-encodes the narration
// as AAC, ending with the shorter of the two.
func (t *Tool) ReplaceAudio(ctx context.Context, videoPath, audioPath, outPath string) error {
	if err := validatePaths(videoPath, audioPath, outPath); err != nil {
		return err
	}
	args := []string{
		"-hide_banner", "-nostdin", "-y",
		"-i", videoPath,
		"-i", audioPath,
		"-c:v", "copy",
		"-c:a", "aac",
		"-shortest",
		"-map", "0:v:0",
		"-map", "1:a:0",
		outPath,
	}
	return t.ffmpeg(ctx, "replace audio", args)
}

// MixAudio lays a music bed under the narration. The music is trimmed to
// the narration length and never looped.
func (t *Tool) MixAudio(ctx context.Context, videoPath, narrationPath, musicPath, outPath string, musicVolume float64) error {
	if err := validatePaths(videoPath, narrationPath, musicPath, outPath); err != nil {
		return err
	}
	filter := fmt.Sprintf(
		"[1:a]volume=1.0[n];[2:a]volume=%s[m];[n][m]amix=inputs=2:duration=first:dropout_transition=0[a]",
		strconv.FormatFloat(musicVolume, 'f', 2, 64),
	)
	args := []string{
		"-hide_banner", "-nostdin", "-y",
		"-i", videoPath,
		"-i", narrationPath,
		"-i", musicPath,
		"-filter_complex", filter,
		"-map", "0:v:0",
		"-map", "[a]",
		"-c:v", "copy",
		"-c:a", "aac",
		"-shortest",
		outPath,
	}
	return t.ffmpeg(ctx, "mix audio", args)
}

func (t *Tool) Probe(ctx context.Context, path string) (*domain.ProbeResult, error) {
	if err := validatePath(path); err != nil {
		return nil, err
	}
	args := []string{
		"-v", "quiet",
		"-print_format", "json",
		"-show_format",
		"-show_streams",
		path,
	}
	res, log, err := t.run(ctx, t.ffprobePath, args)
	if err != nil {
		return nil, &ToolError{Op: "probe", CommandLog: log, Err: err}
	}

	var probe domain.ProbeResult
	if err := json.Unmarshal([]byte(res.Stdout), &probe); err != nil {
		return nil, &ToolError{Op: "probe", CommandLog: log, Err: domain.Malformed("ffprobe output", err)}
	}
	return &probe, nil
}

func (t *Tool) ffmpeg(ctx context.Context, op string, args []string) error {
	_, log, err := t.run(ctx, t.ffmpegPath, args)
	if err != nil {
		return &ToolError{Op: op, CommandLog: log, Err: err}
	}
	return nil
}

func (t *Tool) run(ctx context.Context, name string, args []string) (commandResult, CommandLog, error) {
	start := time.Now()
	res, err := t.runner.Run(ctx, name, args...)
	log := CommandLog{
		Command:  name,
		Args:     args,
		ExitCode: res.ExitCode,
		Stdout:   res.Stdout,
		Stderr:   res.Stderr,
	}
	slog.Debug("media.command",
		"command", name,
		"exit_code", res.ExitCode,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	if err != nil && ctx.Err() != nil {
		err = errors.Join(err, ctx.Err())
	}
	return res, log, err
}

func validatePaths(paths ...string) error {
	for _, p := range paths {
		if err := validatePath(p); err != nil {
			return fmt.Errorf("%w: %q", err, p)
		}
	}
	return nil
}

func formatSeconds(s float64) string {
	return strconv.FormatFloat(s, 'f', 3, 64)
}

var _ port.MediaTool = (*Tool)(nil)
