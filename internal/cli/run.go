package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/bnema/retell/internal/adapter/http/validation"
	"github.com/bnema/retell/internal/domain"
	"github.com/spf13/cobra"
)

var (
	runVideo      string
	runAudience   string
	runSegment    bool
	runMaxSegment float64
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Adapt one video synchronously and print the result",
	Example: `  retell run --video lesson.mp4 --audience kids.json
  retell run --video talk.webm --audience adults.json --segment --max-segment 8`,
	RunE: runRun,
}

func init() {
	runCmd.Flags().StringVarP(&runVideo, "video", "v", "", "source video file")
	runCmd.Flags().StringVarP(&runAudience, "audience", "a", "", "audience descriptor JSON file (default: empty descriptor)")
	runCmd.Flags().BoolVar(&runSegment, "segment", false, "cut the video into clips at sentence boundaries (overrides SEGMENT_VIDEO)")
	runCmd.Flags().Float64Var(&runMaxSegment, "max-segment", 0, "maximum clip length in seconds (overrides MAX_SEGMENT_SECONDS)")
	_ = runCmd.MarkFlagRequired("video")
}

func runRun(cmd *cobra.Command, args []string) error {
	audience, err := readAudience(runAudience)
	if err != nil {
		return err
	}

	video, err := os.Open(runVideo)
	if err != nil {
		return fmt.Errorf("open video: %w", err)
	}
	defer video.Close()

	if _, err := validation.DetectVideo(video); err != nil {
		return fmt.Errorf("%s: %w", runVideo, err)
	}

	opts := domain.RunOptions{
		Segment:            cfg.SegmentVideo,
		MaxSegmentDuration: cfg.MaxSegmentSeconds,
	}
	if cmd.Flags().Changed("segment") {
		opts.Segment = runSegment
	}
	if runMaxSegment > 0 {
		opts.MaxSegmentDuration = runMaxSegment
	}

	a, err := newApp(cfg, log)
	if err != nil {
		return err
	}
	defer a.Close()

	result, err := a.jobs.RunNow(cmd.Context(), video, audience, opts)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}

// readAudience loads and validates a descriptor file. An empty path yields
// the empty descriptor, which normalizes to defaults.
func readAudience(path string) (domain.RawAudience, error) {
	var audience domain.RawAudience
	if path == "" {
		return audience, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return audience, fmt.Errorf("read audience: %w", err)
	}
	if err := validation.ValidateAudience(data); err != nil {
		return audience, fmt.Errorf("%s: %w", path, err)
	}
	if err := json.Unmarshal(data, &audience); err != nil {
		return audience, fmt.Errorf("parse audience: %w", err)
	}
	return audience, nil
}
