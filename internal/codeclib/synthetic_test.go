package codeclib

import (
	"testing"

	"github.com/embedkit/webcodecs-core/internal/config"
	"github.com/embedkit/webcodecs-core/internal/mediaresource"
	"github.com/embedkit/webcodecs-core/internal/state"
)

func TestSyntheticLibraryIsConfigSupportedRejectsUnknownCodec(t *testing.T) {
	lib := NewSyntheticLibrary()
	ok, err := lib.IsConfigSupported(state.VideoEncoder, &config.VideoEncoderConfig{
		Codec: "made-up-codec", Width: 640, Height: 480,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok {
		t.Error("expected unknown codec to be unsupported")
	}
}

func TestSyntheticLibraryIsConfigSupportedRejectsInvalidConfig(t *testing.T) {
	lib := NewSyntheticLibrary()
	ok, err := lib.IsConfigSupported(state.VideoEncoder, &config.VideoEncoderConfig{Codec: "vp8"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok {
		t.Error("expected zero-dimension config to be unsupported")
	}
}

func TestSyntheticLibraryCreateRejectsNotSupported(t *testing.T) {
	lib := NewSyntheticLibrary()
	_, err := lib.Create(state.VideoEncoder, &config.VideoEncoderConfig{
		Codec: "made-up-codec", Width: 640, Height: 480,
	})
	if err == nil {
		t.Fatal("expected a *not-supported* error")
	}
}

func TestSyntheticVideoRoundTrip(t *testing.T) {
	lib := NewSyntheticLibrary()
	enc, err := lib.Create(state.VideoEncoder, &config.VideoEncoderConfig{Codec: "vp8", Width: 4, Height: 2})
	if err != nil {
		t.Fatalf("Create encoder: %v", err)
	}
	defer enc.Free()

	raw := []byte{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12}
	frame := mediaresource.NewVideoFrame(raw, nil, mediaresource.VideoFrame{
		CodedWidth: 4, CodedHeight: 2, TimestampUs: 1000,
	})
	defer frame.Close()

	if err := enc.SendInput(frame); err != nil {
		t.Fatalf("SendInput: %v", err)
	}
	outs, err := enc.ReceiveOutputs()
	if err != nil {
		t.Fatalf("ReceiveOutputs: %v", err)
	}
	if len(outs) != 1 {
		t.Fatalf("expected 1 chunk, got %d", len(outs))
	}

	dec, err := lib.Create(state.VideoDecoder, &config.VideoDecoderConfig{Codec: "vp8", Width: 4, Height: 2})
	if err != nil {
		t.Fatalf("Create decoder: %v", err)
	}
	defer dec.Free()

	if err := dec.SendInput(outs[0]); err != nil {
		t.Fatalf("decode SendInput: %v", err)
	}
	decOuts, err := dec.ReceiveOutputs()
	if err != nil {
		t.Fatalf("decode ReceiveOutputs: %v", err)
	}
	if len(decOuts) != 1 {
		t.Fatalf("expected 1 decoded frame, got %d", len(decOuts))
	}

	decoded := decOuts[0].(*mediaresource.VideoFrame)
	defer decoded.Close()
	bytes, err := decoded.Bytes()
	if err != nil {
		t.Fatalf("Bytes: %v", err)
	}
	if string(bytes) != string(raw) {
		t.Errorf("round-tripped bytes differ: got %v, want %v", bytes, raw)
	}
	if decoded.TimestampUs != 1000 {
		t.Errorf("timestamp not preserved: got %d", decoded.TimestampUs)
	}
}

func TestSyntheticAudioRoundTrip(t *testing.T) {
	lib := NewSyntheticLibrary()
	enc, err := lib.Create(state.AudioEncoder, &config.AudioEncoderConfig{
		Codec: "opus", SampleRate: 48000, NumberOfChannels: 2,
	})
	if err != nil {
		t.Fatalf("Create encoder: %v", err)
	}
	defer enc.Free()

	raw := make([]byte, 48000/1000*2*2) // 1ms of 48kHz stereo 16-bit
	data := mediaresource.NewAudioData(raw, nil, mediaresource.AudioData{
		SampleRate: 48000, NumberOfChannels: 2, NumberOfFrames: 48, TimestampUs: 500,
	})
	defer data.Close()

	if err := enc.SendInput(data); err != nil {
		t.Fatalf("SendInput: %v", err)
	}
	outs, err := enc.Flush()
	if err != nil {
		t.Fatalf("Flush: %v", err)
	}
	if len(outs) != 1 {
		t.Fatalf("expected 1 chunk from flush, got %d", len(outs))
	}
}

func TestSyntheticHandleUseAfterFreeFails(t *testing.T) {
	lib := NewSyntheticLibrary()
	enc, err := lib.Create(state.VideoEncoder, &config.VideoEncoderConfig{Codec: "vp8", Width: 2, Height: 2})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	enc.Free()

	frame := mediaresource.NewVideoFrame([]byte{1, 2}, nil, mediaresource.VideoFrame{})
	defer frame.Close()
	if err := enc.SendInput(frame); err == nil {
		t.Error("expected *invalid-state* error after Free")
	}
}
