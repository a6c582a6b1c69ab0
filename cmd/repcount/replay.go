package main

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/schollz/progressbar/v3"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/2beens/gymreps/internal/reps"
	"github.com/2beens/gymreps/internal/sessions/client"
	"github.com/2beens/gymreps/internal/sessions/disk"
)

// a frame line carries at most 33 points
const maxFrameLineBytes = 64 << 10

type replayOptions struct {
	*rootOptions
	framesPath string
	username   string
	exercises  string
	fps        float64
	saveFile   string
	noProgress bool
}

func newReplayCmd(root *rootOptions) *cobra.Command {
	opts := &replayOptions{rootOptions: root}

	cmd := &cobra.Command{
		Use:   "replay",
		Short: "Replay recorded landmark frames through a session and print its summary",
		Long: "Replay reads one JSON frame per line (null for frames without a pose), counts\n" +
			"the repetitions of the selected exercises and prints the session summary.\n" +
			"With --api the summary is also posted to the service.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReplay(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.framesPath, "frames", "", "path of the JSON lines frames file")
	cmd.Flags().StringVar(&opts.username, "username", "", "user the session belongs to")
	cmd.Flags().StringVar(&opts.exercises, "exercises", "", "comma separated exercises (default \"Leg Squats\")")
	cmd.Flags().Float64Var(&opts.fps, "fps", 30, "frame rate of the recording, 0 uses the wall clock")
	cmd.Flags().StringVar(&opts.saveFile, "save-file", "", "also append the summary to this sessions JSON file")
	cmd.Flags().BoolVar(&opts.noProgress, "no-progress", false, "do not show the progress bar")
	_ = cmd.MarkFlagRequired("frames")
	_ = cmd.MarkFlagRequired("username")

	return cmd
}

func runReplay(cmd *cobra.Command, opts *replayOptions) error {
	ctx := cmd.Context()

	frames, err := loadFrames(opts.framesPath)
	if err != nil {
		return err
	}

	exercises := reps.ParseExercises(opts.exercises)
	if len(exercises) == 0 {
		exercises = reps.DefaultExercises
	}
	for _, e := range exercises {
		if !reps.IsSupported(e) {
			log.Warnf("exercise [%s] has no counter, it will be reported with no reps", e)
		}
	}

	clock := newFrameClock(time.Now().UTC(), opts.fps)
	session := reps.NewSession(
		opts.username,
		exercises,
		reps.WithID(uuid.NewString()),
		reps.WithClock(clock.Now),
	)

	bar := progressbar.NewOptions(len(frames),
		progressbar.OptionSetDescription("replaying frames"),
		progressbar.OptionSetWriter(cmd.ErrOrStderr()),
		progressbar.OptionShowCount(),
		progressbar.OptionSetVisibility(!opts.noProgress),
		progressbar.OptionClearOnFinish(),
	)
	for _, frame := range frames {
		if err := ctx.Err(); err != nil {
			log.Warnf("replay interrupted, summarizing %d processed frames", clock.frames)
			break
		}
		session.ProcessFrame(frame)
		clock.Tick()
		_ = bar.Add(1)
	}
	_ = bar.Finish()

	summary := session.Finalize()
	total, detected := session.Frames()
	log.Infof("replayed %d frames, %d with a pose", total, detected)

	summaryJson, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal summary: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(summaryJson))

	// the summary is already printed, storing it is best effort from here on
	if opts.saveFile != "" {
		if err := saveToFile(ctx, opts.saveFile, summary); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "warning: summary not saved to %s: %s\n", opts.saveFile, err)
		}
	}

	if opts.apiURL != "" {
		apiClient := client.New(opts.apiURL, opts.apiToken, opts.timeout)
		resp, err := apiClient.Save(ctx, opts.username, summary)
		if err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "warning: summary not stored by %s: %s\n", opts.apiURL, err)
		} else {
			fmt.Fprintln(cmd.ErrOrStderr(), resp.Message)
		}
	}

	return nil
}

func saveToFile(ctx context.Context, path string, summary reps.SessionSummary) error {
	store, err := disk.NewStore(path)
	if err != nil {
		return err
	}
	return store.Append(ctx, summary.Username, summary)
}

// loadFrames reads a JSON lines file of frames; blank lines are skipped.
func loadFrames(path string) ([]*reps.LandmarkFrame, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open frames file: %w", err)
	}
	defer func() {
		if err := f.Close(); err != nil {
			log.Warnf("close frames file: %s", err)
		}
	}()

	return readFrames(f)
}

func readFrames(r io.Reader) ([]*reps.LandmarkFrame, error) {
	var frames []*reps.LandmarkFrame
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 4096), maxFrameLineBytes)

	line := 0
	for scanner.Scan() {
		line++
		data := scanner.Bytes()
		if len(bytes.TrimSpace(data)) == 0 {
			continue
		}
		frame, err := reps.DecodeFrame(data)
		if err != nil {
			return nil, fmt.Errorf("frames line %d: %w", line, err)
		}
		frames = append(frames, frame)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read frames: %w", err)
	}
	return frames, nil
}

// frameClock derives session time from the frame position, so a replay
// reports the duration of the recording rather than of the replay itself.
type frameClock struct {
	start  time.Time
	fps    float64
	frames int
}

func newFrameClock(start time.Time, fps float64) *frameClock {
	return &frameClock{start: start, fps: fps}
}

func (c *frameClock) Tick() {
	c.frames++
}

func (c *frameClock) Now() time.Time {
	if c.fps <= 0 {
		return time.Now().UTC()
	}
	return c.start.Add(time.Duration(float64(c.frames) / c.fps * float64(time.Second)))
}
