package video

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/draw"
	"io"
	"os/exec"

	"github.com/ivlev/airtour/internal/config"
)

// VideoEncoder turns a stream of rendered preview frames into a video file
type VideoEncoder interface {
	Start(ctx context.Context, output string, params config.SegmentParams, opts Options) (FrameWriter, error)
}

// FrameWriter accepts frames in presentation order
type FrameWriter interface {
	WriteFrame(img image.Image) error
	Close() error
}

// Options are encoder settings that do not describe the picture
type Options struct {
	Encoder   string
	Quality   int
	AudioPath string
}

// FFmpegEncoder pipes raw RGBA frames into an ffmpeg process over stdin
type FFmpegEncoder struct {
	Binary string
}

func (e *FFmpegEncoder) Start(ctx context.Context, output string, params config.SegmentParams, opts Options) (FrameWriter, error) {
	bin := e.Binary
	if bin == "" {
		bin = "ffmpeg"
	}
	args := e.buildFFmpegArgs(output, params, opts)
	cmd := exec.CommandContext(ctx, bin, args...)

	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("stdin pipe error: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("ffmpeg start error: %w", err)
	}

	return &ffmpegStream{
		cmd:    cmd,
		stdin:  stdin,
		log:    &out,
		width:  params.Width,
		height: params.Height,
	}, nil
}

func (e *FFmpegEncoder) buildFFmpegArgs(output string, params config.SegmentParams, opts Options) []string {
	args := []string{
		"-y",
		"-f", "rawvideo",
		"-pixel_format", "rgba",
		"-video_size", fmt.Sprintf("%dx%d", params.Width, params.Height),
		"-framerate", fmt.Sprintf("%d", params.FPS),
		"-i", "-",
	}
	if opts.AudioPath != "" {
		args = append(args, "-i", opts.AudioPath, "-map", "0:v", "-map", "1:a", "-c:a", "aac", "-shortest")
	}
	if params.Filter != "" {
		args = append(args, "-vf", params.Filter)
	}

	encoderName := opts.Encoder
	if encoderName == "" {
		encoderName = "libx264"
	}
	args = append(args, "-pix_fmt", "yuv420p", "-c:v", encoderName)

	// Качество в зависимости от энкодера
	switch encoderName {
	case "h264_videotoolbox":
		bitrate := opts.Quality * 100
		args = append(args, "-b:v", fmt.Sprintf("%dk", bitrate))
	case "h264_nvenc":
		args = append(args, "-cq", fmt.Sprintf("%d", opts.Quality))
	default: // libx264
		args = append(args, "-crf", fmt.Sprintf("%d", opts.Quality), "-preset", "medium")
	}

	args = append(args, output)
	return args
}

type ffmpegStream struct {
	cmd    *exec.Cmd
	stdin  io.WriteCloser
	log    *bytes.Buffer
	width  int
	height int
	closed bool
}

func (s *ffmpegStream) WriteFrame(img image.Image) error {
	if b := img.Bounds(); b.Dx() != s.width || b.Dy() != s.height {
		return fmt.Errorf("frame %dx%d does not match stream %dx%d", b.Dx(), b.Dy(), s.width, s.height)
	}
	if err := writeRawRGBA(s.stdin, img); err != nil {
		return fmt.Errorf("write raw error: %w\nLog: %s", err, s.log.String())
	}
	return nil
}

// Close flushes stdin and waits for ffmpeg to finish the file
func (s *ffmpegStream) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	s.stdin.Close()
	if err := s.cmd.Wait(); err != nil {
		return fmt.Errorf("ffmpeg wait error: %w\nLog: %s", err, s.log.String())
	}
	return nil
}

func writeRawRGBA(w io.Writer, img image.Image) error {
	bounds := img.Bounds()
	rgba, ok := img.(*image.RGBA)
	if !ok || rgba.Stride != bounds.Dx()*4 || rgba.Rect.Min.X != 0 || rgba.Rect.Min.Y != 0 {
		rgba = image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
		draw.Draw(rgba, rgba.Bounds(), img, bounds.Min, draw.Src)
	}
	_, err := w.Write(rgba.Pix)
	return err
}
