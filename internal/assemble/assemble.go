package assemble

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"

	"github.com/JetJadeja/celebxplain/internal/providers/visuals"
)

// Composer renders the final video by stacking the avatar footage on top of
// a generated visuals track, using the ffmpeg binary on the host.
type Composer struct {
	ffmpegPath string
}

// Options describes one composition run.
type Options struct {
	AvatarPath string
	Plan       *visuals.Plan
	Duration   float64
	OutputPath string
}

func NewComposer(ffmpegPath string) *Composer {
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}
	return &Composer{ffmpegPath: ffmpegPath}
}

// Compose runs ffmpeg once: the avatar video is scaled to a fixed width, a
// caption track is synthesized from the plan, and the two are stacked
// vertically. Audio is carried over from the avatar input.
func (c *Composer) Compose(ctx context.Context, opts Options) error {
	if opts.AvatarPath == "" {
		return fmt.Errorf("avatar path is required")
	}
	if opts.OutputPath == "" {
		return fmt.Errorf("output path is required")
	}
	duration := opts.Duration
	if duration <= 0 {
		duration = 60
	}

	args := []string{
		"-y",
		"-i", opts.AvatarPath,
		"-f", "lavfi",
		"-i", fmt.Sprintf("color=c=black:s=720x360:d=%.2f", duration),
		"-filter_complex", buildFilter(opts.Plan),
		"-map", "[out]",
		"-map", "0:a?",
		"-c:v", "libx264",
		"-c:a", "aac",
		"-pix_fmt", "yuv420p",
		"-shortest",
		opts.OutputPath,
	}

	cmd := exec.CommandContext(ctx, c.ffmpegPath, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("ffmpeg compose: %w: %s", err, lastLine(stderr.String()))
	}
	return nil
}

// buildFilter scales the avatar, draws one caption per plan segment onto the
// lower band, and stacks the two streams.
func buildFilter(plan *visuals.Plan) string {
	var b strings.Builder
	b.WriteString("[0:v]scale=720:-2[top];[1:v]")
	if plan != nil {
		for _, seg := range plan.Segments {
			caption := seg.Caption
			if caption == "" && len(seg.Keywords) > 0 {
				caption = strings.Join(seg.Keywords, ", ")
			}
			if caption == "" {
				continue
			}
			fmt.Fprintf(&b,
				"drawtext=text='%s':fontcolor=white:fontsize=28:x=(w-text_w)/2:y=(h-text_h)/2:enable='between(t,%.2f,%.2f)',",
				escapeDrawtext(caption), seg.StartsAt, seg.EndsAt,
			)
		}
	}
	b.WriteString("format=yuv420p[bottom];[top][bottom]vstack=inputs=2[out]")
	return b.String()
}

// escapeDrawtext neutralizes the characters drawtext treats specially.
func escapeDrawtext(s string) string {
	r := strings.NewReplacer(
		`\`, `\\`,
		`'`, `\'`,
		`:`, `\:`,
		`%`, `\%`,
	)
	return r.Replace(s)
}

func lastLine(s string) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	if len(lines) == 0 {
		return ""
	}
	return strings.TrimSpace(lines[len(lines)-1])
}
