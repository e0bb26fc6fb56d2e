package main

import (
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	webcodecs "github.com/embedkit/webcodecs-core"
	"github.com/embedkit/webcodecs-core/internal/chunkenc"
	"github.com/embedkit/webcodecs-core/internal/codeclib"
	"github.com/embedkit/webcodecs-core/internal/codecerr"
	"github.com/embedkit/webcodecs-core/internal/dispatch"
	"github.com/embedkit/webcodecs-core/internal/mediaresource"
	"github.com/embedkit/webcodecs-core/internal/state"
)

func newRoundtripCmd() *cobra.Command {
	var (
		width, height int
		codecName     string
		frameCount    int
		softThreshold int
		hardCap       int
	)

	cmd := &cobra.Command{
		Use:   "roundtrip",
		Short: "Encode synthetic frames then decode them back, printing queue activity",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRoundtrip(roundtripOpts{
				width: uint32(width), height: uint32(height),
				codec: codecName, frameCount: frameCount,
				softThreshold: softThreshold, hardCap: hardCap,
			})
		},
	}

	cmd.Flags().IntVar(&width, "width", 64, "frame width")
	cmd.Flags().IntVar(&height, "height", 64, "frame height")
	cmd.Flags().StringVar(&codecName, "codec", "vp8", "codec string, e.g. vp8, av01.0.04M.08")
	cmd.Flags().IntVar(&frameCount, "frames", 4, "number of synthetic frames to encode")
	cmd.Flags().IntVar(&softThreshold, "soft-threshold", 0, "CWQ soft threshold (0 = default)")
	cmd.Flags().IntVar(&hardCap, "hard-cap", 0, "CWQ hard cap (0 = default)")
	return cmd
}

type roundtripOpts struct {
	width, height          uint32
	codec                  string
	frameCount             int
	softThreshold, hardCap int
}

func runRoundtrip(opts roundtripOpts) error {
	reporter := dispatch.NewTerminalReporter()
	interactive := term.IsTerminal(int(os.Stderr.Fd()))
	library := codeclib.NewSyntheticLibrary()

	var (
		mu     sync.Mutex
		chunks []*chunkenc.Chunk
	)

	encoder, err := webcodecs.NewVideoEncoder(
		func(out any) {
			wrapped, ok := out.(webcodecs.EncodedVideoChunkOutput)
			if !ok {
				return
			}
			mu.Lock()
			chunks = append(chunks, wrapped.Chunk)
			mu.Unlock()
			reporter.Output(state.VideoEncoder, fmt.Sprintf("chunk %s, %d bytes", wrapped.Chunk.Type(), wrapped.Chunk.ByteLength()))
		},
		func(err error) { reporter.Error(state.VideoEncoder, err) },
		webcodecs.WithLibrary(library),
		webcodecs.WithQueueThresholds(opts.softThreshold, opts.hardCap),
		webcodecs.WithRegistry(nil),
	)
	if err != nil {
		return err
	}

	reporter.CodecConfigured(state.VideoEncoder, "synthetic-video-encoder")
	if interactive {
		reporter.StartQueueBar(maxInt(opts.hardCap, 64))
	}

	if err := encoder.Configure(&webcodecs.VideoEncoderConfig{
		Codec:  opts.codec,
		Width:  opts.width,
		Height: opts.height,
	}); err != nil {
		return fmt.Errorf("configure video encoder: %w", err)
	}

	frameSize := int(opts.width) * int(opts.height) * 3 / 2 // I420
	for i := 0; i < opts.frameCount; i++ {
		buf := make([]byte, frameSize)
		for j := range buf {
			buf[j] = byte((i*7 + j) % 256)
		}
		frame := mediaresource.NewVideoFrame(buf, nil, mediaresource.VideoFrame{
			Format:      "I420",
			CodedWidth:  opts.width,
			CodedHeight: opts.height,
			TimestampUs: int64(i) * 33_000,
		})
		if err := encoder.Encode(frame); err != nil {
			frame.Close()
			return fmt.Errorf("encode frame %d: %w", i, err)
		}
		frame.Close()
		if interactive {
			reporter.QueueDepth(encoder.QueueSize(), defaultSoft(opts.softThreshold))
		}
	}

	future, err := encoder.Flush()
	if err != nil {
		return fmt.Errorf("flush video encoder: %w", err)
	}
	select {
	case <-future.Done():
	case <-time.After(10 * time.Second):
		return fmt.Errorf("timed out waiting for encoder flush")
	}
	if err := future.Wait(); err != nil {
		return fmt.Errorf("video encoder flush rejected: %w", err)
	}

	reporter.Closed(state.VideoEncoder, nil)
	_ = encoder.Close()

	mu.Lock()
	encoded := chunks
	mu.Unlock()
	fmt.Printf("encoded %d chunk(s)\n", len(encoded))

	decoder, err := webcodecs.NewVideoDecoder(
		func(out any) {
			frame, ok := out.(*mediaresource.VideoFrame)
			if !ok {
				return
			}
			reporter.Output(state.VideoDecoder, fmt.Sprintf("frame %dx%d @ %dus", frame.CodedWidth, frame.CodedHeight, frame.TimestampUs))
			frame.Close()
		},
		func(err error) { reporter.Error(state.VideoDecoder, err) },
		webcodecs.WithLibrary(library),
		webcodecs.WithRegistry(nil),
	)
	if err != nil {
		return err
	}
	reporter.CodecConfigured(state.VideoDecoder, "synthetic-video-decoder")

	if err := decoder.Configure(&webcodecs.VideoDecoderConfig{
		Codec:  opts.codec,
		Width:  opts.width,
		Height: opts.height,
	}); err != nil {
		return fmt.Errorf("configure video decoder: %w", err)
	}

	for _, c := range encoded {
		if err := decoder.Decode(c); err != nil {
			return fmt.Errorf("decode chunk: %w", err)
		}
	}
	dflush, err := decoder.Flush()
	if err != nil {
		return fmt.Errorf("flush video decoder: %w", err)
	}
	if err := dflush.Wait(); err != nil && !codecerr.IsAbort(err) {
		return fmt.Errorf("video decoder flush rejected: %w", err)
	}
	reporter.Closed(state.VideoDecoder, nil)
	_ = decoder.Close()
	return nil
}

func defaultSoft(soft int) int {
	if soft <= 0 {
		return 16
	}
	return soft
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
