package codecerr

import (
	"errors"
	"testing"
)

func TestErrorKindString(t *testing.T) {
	tests := []struct {
		kind     ErrorKind
		expected string
	}{
		{Type, "TypeError"},
		{NotSupported, "NotSupportedError"},
		{InvalidState, "InvalidStateError"},
		{Data, "DataError"},
		{Encoding, "EncodingError"},
		{Range, "RangeError"},
		{Abort, "AbortError"},
		{QuotaExceeded, "QuotaExceededError"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			if got := tt.kind.String(); got != tt.expected {
				t.Errorf("ErrorKind.String() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestCodecErrorError(t *testing.T) {
	underlying := errors.New("underlying error")
	err := &CodecError{
		Kind:       Encoding,
		Message:    "test message",
		Underlying: underlying,
	}

	got := err.Error()
	expected := "EncodingError: test message: underlying error"
	if got != expected {
		t.Errorf("CodecError.Error() = %v, want %v", got, expected)
	}

	err2 := &CodecError{
		Kind:    InvalidState,
		Message: "configure called while closed",
	}

	got2 := err2.Error()
	expected2 := "InvalidStateError: configure called while closed"
	if got2 != expected2 {
		t.Errorf("CodecError.Error() = %v, want %v", got2, expected2)
	}
}

func TestCodecErrorUnwrap(t *testing.T) {
	underlying := errors.New("underlying error")
	err := &CodecError{
		Kind:       Encoding,
		Message:    "test",
		Underlying: underlying,
	}

	if err.Unwrap() != underlying {
		t.Error("Unwrap() should return underlying error")
	}
}

func TestCodecErrorIs(t *testing.T) {
	err1 := &CodecError{Kind: Data, Message: "test1"}
	err2 := &CodecError{Kind: Data, Message: "test2"}
	err3 := &CodecError{Kind: Range, Message: "test3"}

	if !err1.Is(err2) {
		t.Error("Same kind errors should match")
	}

	if err1.Is(err3) {
		t.Error("Different kind errors should not match")
	}
}

func TestErrorConstructors(t *testing.T) {
	t.Run("NewTypeError", func(t *testing.T) {
		err := NewTypeError("bad argument: %s", "timestamp")
		if err.Kind != Type {
			t.Errorf("Expected Type, got %v", err.Kind)
		}
	})

	t.Run("NewNotSupportedError", func(t *testing.T) {
		err := NewNotSupportedError("codec profile not supported")
		if err.Kind != NotSupported {
			t.Errorf("Expected NotSupported, got %v", err.Kind)
		}
	})

	t.Run("NewInvalidStateError", func(t *testing.T) {
		err := NewInvalidStateError("codec is closed")
		if err.Kind != InvalidState {
			t.Errorf("Expected InvalidState, got %v", err.Kind)
		}
	})

	t.Run("NewDataError", func(t *testing.T) {
		err := NewDataError("first chunk after configure must be a key chunk")
		if err.Kind != Data {
			t.Errorf("Expected Data, got %v", err.Kind)
		}
	})

	t.Run("NewEncodingError", func(t *testing.T) {
		err := NewEncodingError("codec library rejected frame")
		if err.Kind != Encoding {
			t.Errorf("Expected Encoding, got %v", err.Kind)
		}
	})

	t.Run("NewRangeError", func(t *testing.T) {
		err := NewRangeError("frame index %d out of range", 7)
		if err.Kind != Range {
			t.Errorf("Expected Range, got %v", err.Kind)
		}
	})

	t.Run("NewAbortError", func(t *testing.T) {
		err := NewAbortError("pending flush aborted by reset")
		if err.Kind != Abort {
			t.Errorf("Expected Abort, got %v", err.Kind)
		}
	})

	t.Run("NewQuotaExceededError", func(t *testing.T) {
		err := NewQuotaExceededError("codec work queue hard cap reached")
		if err.Kind != QuotaExceeded {
			t.Errorf("Expected QuotaExceeded, got %v", err.Kind)
		}
	})
}

func TestIsKind(t *testing.T) {
	err := NewNotSupportedError("test")

	if !IsKind(err, NotSupported) {
		t.Error("IsKind should return true for matching kind")
	}

	if IsKind(err, Data) {
		t.Error("IsKind should return false for non-matching kind")
	}

	if IsKind(errors.New("plain error"), NotSupported) {
		t.Error("IsKind should return false for non-CodecError")
	}
}

func TestIsAbort(t *testing.T) {
	abortErr := NewAbortError("reset called")
	if !IsAbort(abortErr) {
		t.Error("IsAbort should return true for abort error")
	}

	otherErr := NewNotSupportedError("test")
	if IsAbort(otherErr) {
		t.Error("IsAbort should return false for non-abort error")
	}
}

func TestIsQuotaExceeded(t *testing.T) {
	quotaErr := NewQuotaExceededError("hard cap reached")
	if !IsQuotaExceeded(quotaErr) {
		t.Error("IsQuotaExceeded should return true for quota-exceeded error")
	}

	otherErr := NewNotSupportedError("test")
	if IsQuotaExceeded(otherErr) {
		t.Error("IsQuotaExceeded should return false for other errors")
	}
}

func TestWrappedErrorIsMatching(t *testing.T) {
	base := NewDataError("malformed chunk")
	wrapped := Wrap(Data, "decode failed", base)

	if !IsKind(wrapped, Data) {
		t.Error("wrapped error should still report its own Kind via IsKind")
	}
}
