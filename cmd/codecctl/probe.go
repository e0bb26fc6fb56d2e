package main

import (
	"fmt"

	"github.com/spf13/cobra"

	webcodecs "github.com/embedkit/webcodecs-core"
	"github.com/embedkit/webcodecs-core/internal/codeclib"
)

func newProbeCmd() *cobra.Command {
	var (
		kind          string
		codecName     string
		width, height int
	)

	cmd := &cobra.Command{
		Use:   "probe",
		Short: "Report whether the synthetic library supports a codec configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			library := codeclib.NewSyntheticLibrary()

			var supported bool
			var err error
			switch kind {
			case "video-encoder":
				supported, _, err = webcodecs.IsVideoEncoderConfigSupported(library, &webcodecs.VideoEncoderConfig{
					Codec: codecName, Width: uint32(width), Height: uint32(height),
				})
			case "video-decoder":
				supported, _, err = webcodecs.IsVideoDecoderConfigSupported(library, &webcodecs.VideoDecoderConfig{
					Codec: codecName, Width: uint32(width), Height: uint32(height),
				})
			case "audio-encoder":
				supported, _, err = webcodecs.IsAudioEncoderConfigSupported(library, &webcodecs.AudioEncoderConfig{
					Codec: codecName, SampleRate: 48000, NumberOfChannels: 2,
				})
			case "audio-decoder":
				supported, _, err = webcodecs.IsAudioDecoderConfigSupported(library, &webcodecs.AudioDecoderConfig{
					Codec: codecName, SampleRate: 48000, NumberOfChannels: 2,
				})
			default:
				return fmt.Errorf("unknown kind %q (want video-encoder, video-decoder, audio-encoder, or audio-decoder)", kind)
			}
			if err != nil {
				return err
			}

			fmt.Printf("%s %q: supported=%v\n", kind, codecName, supported)
			return nil
		},
	}

	cmd.Flags().StringVar(&kind, "kind", "video-encoder", "codec kind to probe")
	cmd.Flags().StringVar(&codecName, "codec", "vp8", "codec string")
	cmd.Flags().IntVar(&width, "width", 64, "width (video kinds only)")
	cmd.Flags().IntVar(&height, "height", 64, "height (video kinds only)")
	return cmd
}
