// Command picfix edits a single image headlessly: it loads a file, replays an
// edit script, optionally re-encodes to a target size and writes the result.
// A one-line JSON summary is printed on stdout.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	"picfix"
	"picfix/internal/encode"
	"picfix/internal/jpegmeta"
)

const Signature = "picfix"

var Version = "dev"

type FinalOutput struct {
	Status        string   `json:"status"`
	Input         string   `json:"input"`
	Output        string   `json:"output"`
	Session       string   `json:"session"`
	Width         int      `json:"width"`
	Height        int      `json:"height"`
	SizeBefore    int64    `json:"size_before_bytes"`
	SizeAfter     int64    `json:"size_after_bytes"`
	GainPercent   float64  `json:"gain_percent"`
	Ops           int      `json:"ops_applied"`
	HistoryLen    int      `json:"history_len"`
	HistoryIndex  int      `json:"history_index"`
	HistoryCap    int      `json:"history_capacity"`
	Filters       string   `json:"filters"`
	Encoder       string   `json:"encoder,omitempty"`
	TargetBytes   int      `json:"target_bytes,omitempty"`
	Quality       int      `json:"best_q,omitempty"`
	Iterations    int      `json:"iterations,omitempty"`
	Converged     *bool    `json:"converged,omitempty"` // set whenever a target size was requested
	MSE           float64  `json:"mse,omitempty"`
	SSIM          float64  `json:"ssim,omitempty"`
	PSNR          float64  `json:"psnr_db,omitempty"`
	Butteraugli   float64  `json:"butteraugli,omitempty"`
	Warnings      []string `json:"warnings,omitempty"`
	ExecutionTime string   `json:"execution_time"`
}

type options struct {
	input, output string
	ops           string
	targetKB      string
	jpegOutput    bool
	keepAll       bool
	cfg           picfix.Config
}

func main() {
	input := flag.String("input", "", "Source image (required)")
	output := flag.String("output", "", "Destination file (default: timestamped name next to the input)")
	ops := flag.String("ops", "", "Comma separated edits: rotate:90, rotate:-90, flip:h, flip:v, crop:x:y:w:h, brightness:N, contrast:N, blur:N, auto, undo, redo, reset, removebg")
	targetKB := flag.String("target-kb", "", "Re-encode as JPEG close to this size in KB")
	jpegOutput := flag.Bool("jpeg-output", false, "Write JPEG instead of PNG")
	useJpegli := flag.Bool("jpegli", false, "Use the Jpegli encoder")
	chroma := flag.String("chroma", "", "Jpegli chroma subsampling: 444, 422, 420")
	metrics := flag.Bool("metrics", false, "Report PSNR/SSIM/MSE for the re-encoded image")
	perceptual := flag.Bool("butteraugli", false, "Also report the butteraugli distance (slow)")
	keepAll := flag.Bool("keep-all-metadata", false, "Keep all JPEG metadata")
	configPath := flag.String("config", "", "YAML configuration file")
	quiet := flag.Bool("quiet", false, "Quiet mode")
	debug := flag.Bool("debug", false, "Debug mode")
	version := flag.Bool("version", false, "Show version")

	flag.Parse()

	if *version {
		fmt.Printf("picfix version %s\n", Version)
		os.Exit(0)
	}
	if len(os.Args) < 2 {
		flag.CommandLine.SetOutput(os.Stderr)
		flag.Usage()
		os.Exit(0)
	}
	if *input == "" {
		fail("The -input option is required", nil)
	}

	if *debug {
		picfix.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug})))
	}

	cfg := picfix.DefaultConfig()
	if *configPath != "" {
		var err error
		if cfg, err = picfix.LoadConfig(*configPath); err != nil {
			fail("Invalid configuration", err)
		}
	}
	if *useJpegli {
		cfg.Encoder.Name = "jpegli"
	}
	if *chroma != "" {
		cfg.Encoder.Chroma = *chroma
	}
	cfg.Metrics.Enabled = cfg.Metrics.Enabled || *metrics || *perceptual
	cfg.Metrics.Perceptual = cfg.Metrics.Perceptual || *perceptual
	if err := cfg.Validate(); err != nil {
		fail("Invalid configuration", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	out, err := run(ctx, options{
		input:      *input,
		output:     *output,
		ops:        *ops,
		targetKB:   *targetKB,
		jpegOutput: *jpegOutput,
		keepAll:    *keepAll,
		cfg:        cfg,
	})
	if err != nil {
		fail("Processing failed", err)
	}
	if !*quiet {
		jsonBytes, _ := json.Marshal(out)
		fmt.Println(string(jsonBytes))
	}
}

// fail prints a JSON error on stderr and exits 1.
func fail(msg string, err error) {
	payload := map[string]string{"error": msg}
	if err != nil {
		payload["details"] = err.Error()
	}
	b, _ := json.Marshal(payload)
	fmt.Fprintln(os.Stderr, string(b))
	os.Exit(1)
}

func run(ctx context.Context, o options) (FinalOutput, error) {
	startTime := time.Now()
	res := FinalOutput{Status: "SUCCESS", Input: o.input}

	script, err := parseOps(o.ops)
	if err != nil {
		return res, err
	}

	absSrc, err := filepath.Abs(o.input)
	if err != nil {
		return res, err
	}
	srcInfo, err := os.Stat(absSrc)
	if err != nil {
		return res, err
	}
	srcData, err := os.ReadFile(absSrc)
	if err != nil {
		return res, err
	}
	res.SizeBefore = srcInfo.Size()

	// A file we already wrote with no further edits requested has nothing
	// left to do.
	if len(script) == 0 && jpegmeta.HasSignature(srcData, Signature) {
		res.Status = "SKIPPED"
		res.Output = absSrc
		if o.output != "" {
			if err := os.MkdirAll(filepath.Dir(o.output), 0755); err != nil {
				return res, err
			}
			if err := copyFile(absSrc, o.output); err != nil {
				return res, err
			}
			res.Status = "COPIED_NO_GAIN"
			res.Output = o.output
		}
		res.SizeAfter = res.SizeBefore
		res.ExecutionTime = time.Since(startTime).Round(time.Millisecond).String()
		return res, nil
	}

	cropper := &scriptCropper{}
	s := picfix.New(picfix.WithConfig(o.cfg), picfix.WithCropper(cropper))
	if err := s.Load(bytes.NewReader(srcData)); err != nil {
		return res, err
	}
	res.Session = s.ID().String()
	res.SizeBefore = int64(s.SourceSize())

	for _, step := range script {
		warning, err := apply(s, cropper, step)
		if err != nil {
			return res, fmt.Errorf("%s: %w", step, err)
		}
		if warning != "" {
			res.Warnings = append(res.Warnings, fmt.Sprintf("%s: %s", step, warning))
		}
		res.Ops++
	}

	jpegOut := o.jpegOutput || o.targetKB != ""
	dst := o.output
	if dst == "" {
		dst = filepath.Join(filepath.Dir(absSrc), s.ExportName())
		if jpegOut {
			dst = strings.TrimSuffix(dst, ".png") + ".jpg"
		}
	}
	res.Output = dst

	var data []byte
	switch {
	case o.targetKB != "":
		p, err := s.Compress(ctx, o.targetKB)
		if err != nil {
			return res, err
		}
		if _, err := s.ApplyCompression(p, picfix.AutoConfirm); err != nil {
			return res, err
		}
		res.Encoder = p.Encoder
		res.TargetBytes = p.Target
		res.Quality = encode.QualityPercent(p.Quality)
		res.Iterations = p.Iterations
		converged := p.Converged
		res.Converged = &converged
		if p.Report != nil {
			res.MSE = p.Report.MSE
			res.SSIM = p.Report.SSIM
			res.PSNR = math.Round(p.Report.PSNR*10) / 10
			if p.Report.Butteraugli >= 0 {
				res.Butteraugli = p.Report.Butteraugli
			}
		}
		data = stampJPEG(p.Payload, srcData, o.keepAll)
	case jpegOut:
		img, err := s.Working()
		if err != nil {
			return res, err
		}
		enc, err := encode.New(o.cfg.Encoder.Name, o.cfg.Encoder.Chroma)
		if err != nil {
			return res, err
		}
		payload, err := enc.Encode(img, o.cfg.Compress.InitialQuality)
		if err != nil {
			return res, err
		}
		res.Encoder = enc.Name()
		res.Quality = encode.QualityPercent(o.cfg.Compress.InitialQuality)
		data = stampJPEG(payload, srcData, o.keepAll)
	default:
		var buf bytes.Buffer
		if err := s.Export(&buf); err != nil {
			return res, err
		}
		data = buf.Bytes()
	}

	if err := writeFile(dst, data, srcInfo.Mode()); err != nil {
		return res, err
	}

	b := s.Bounds()
	res.Width, res.Height = b.Dx(), b.Dy()
	res.SizeAfter = int64(len(data))
	if res.SizeBefore > 0 {
		gain := 100 - (float64(res.SizeAfter) / float64(res.SizeBefore) * 100)
		res.GainPercent = math.Round(gain*10) / 10
	}
	res.HistoryLen = s.HistoryLen()
	res.HistoryIndex = s.HistoryIndex()
	res.HistoryCap = s.HistoryCapacity()
	res.Filters = s.Filters().String()
	res.ExecutionTime = time.Since(startTime).Round(time.Millisecond).String()
	return res, nil
}

// stampJPEG carries the source's APPn metadata over to payload and marks it
// with Signature. Non-JPEG sources contribute no segments.
func stampJPEG(payload, src []byte, keepAll bool) []byte {
	var segments [][]byte
	if bytes.HasPrefix(src, []byte{0xFF, 0xD8}) {
		segments = jpegmeta.Segments(src, keepAll)
	}
	return jpegmeta.Splice(payload, segments, Signature)
}

// writeFile writes through a temporary file so dst is never left half written.
func writeFile(dst string, data []byte, mode os.FileMode) error {
	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return fmt.Errorf("error creating directory: %w", err)
	}
	tempPath := dst + ".tmp_picfix"
	if err := os.WriteFile(tempPath, data, 0644); err != nil {
		return fmt.Errorf("error writing temp file: %w", err)
	}
	defer os.Remove(tempPath)
	if err := moveFile(tempPath, dst); err != nil {
		return fmt.Errorf("error moving final file: %w", err)
	}
	return os.Chmod(dst, mode.Perm())
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	srcInfo, err := in.Stat()
	if err != nil {
		return err
	}

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	if err := out.Close(); err != nil {
		return err
	}
	return os.Chmod(dst, srcInfo.Mode())
}

func moveFile(src, dst string) error {
	err := os.Rename(src, dst)
	if err == nil {
		return nil
	}
	// Cross-device rename: copy then remove.
	var linkErr *os.LinkError
	if !errors.As(err, &linkErr) {
		return err
	}
	if err := copyFile(src, dst); err != nil {
		return err
	}
	return os.Remove(src)
}
