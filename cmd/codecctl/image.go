package main

import (
	"encoding/binary"
	"fmt"

	"github.com/spf13/cobra"

	webcodecs "github.com/embedkit/webcodecs-core"
	"github.com/embedkit/webcodecs-core/internal/codeclib"
	"github.com/embedkit/webcodecs-core/internal/mediaresource"
)

func newImageCmd() *cobra.Command {
	var width, height int
	var mimeType string

	cmd := &cobra.Command{
		Use:   "image",
		Short: "Decode a synthetic in-memory image source and print the resulting frame",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImage(uint32(width), uint32(height), mimeType)
		},
	}

	cmd.Flags().IntVar(&width, "width", 32, "image width")
	cmd.Flags().IntVar(&height, "height", 32, "image height")
	cmd.Flags().StringVar(&mimeType, "mime-type", "image/png", "mime type of the synthetic source")
	return cmd
}

func runImage(width, height uint32, mimeType string) error {
	library := codeclib.NewSyntheticImageLibrary()

	supported, err := webcodecs.ImageTypeSupported(library, mimeType)
	if err != nil {
		return err
	}
	fmt.Printf("%s supported=%v\n", mimeType, supported)
	if !supported {
		return fmt.Errorf("synthetic image library does not support %q", mimeType)
	}

	decoder, err := webcodecs.NewImageDecoder(library, &webcodecs.ImageDecoderConfig{MimeType: mimeType})
	if err != nil {
		return fmt.Errorf("new image decoder: %w", err)
	}
	defer decoder.Close()

	header := make([]byte, 12)
	copy(header[:4], []byte("SIMG"))
	binary.BigEndian.PutUint32(header[4:8], width)
	binary.BigEndian.PutUint32(header[8:12], height)
	payload := make([]byte, int(width)*int(height)*3/2)
	for i := range payload {
		payload[i] = byte(i % 256)
	}

	if err := decoder.Feed(header, false); err != nil {
		return fmt.Errorf("feed header: %w", err)
	}
	if err := decoder.Feed(payload, true); err != nil {
		return fmt.Errorf("feed payload: %w", err)
	}

	<-decoder.Tracks().Ready()
	fmt.Printf("tracks: %d\n", decoder.Tracks().Len())

	result, err := decoder.Decode(webcodecs.DecodeOptions{FrameIndex: 0})
	if err != nil {
		return fmt.Errorf("decode frame 0: %w", err)
	}
	frame, ok := result.Image.(*mediaresource.VideoFrame)
	if !ok {
		return fmt.Errorf("decode frame 0: unexpected output type %T", result.Image)
	}
	defer frame.Close()
	fmt.Printf("decoded frame %dx%d, complete=%v\n", frame.CodedWidth, frame.CodedHeight, result.Complete)
	return nil
}
