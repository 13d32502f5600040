package errors

import (
	stderrors "errors"
	"fmt"
	"testing"
)

func TestIsCode(t *testing.T) {
	err := New(CodeDeviceLost, "render target invalid")

	if !IsCode(err, CodeDeviceLost) {
		t.Error("IsCode should match the error's own code")
	}
	if IsCode(err, CodeBackend) {
		t.Error("IsCode should not match a different code")
	}
	if IsCode(nil, CodeDeviceLost) {
		t.Error("IsCode(nil) should be false")
	}
}

func TestIsCodeWrapped(t *testing.T) {
	inner := New(CodeDeviceLost, "target must be recreated")
	outer := fmt.Errorf("present failed: %w", inner)

	if !IsCode(outer, CodeDeviceLost) {
		t.Error("IsCode should find the code through fmt.Errorf wrapping")
	}

	wrapped := Wrap(stderrors.New("socket closed"), CodeBackend, "translate request failed")
	if !IsCode(wrapped, CodeBackend) {
		t.Error("IsCode should match the wrapping AppError's code")
	}
	if IsCode(wrapped, CodeDeviceLost) {
		t.Error("IsCode should not match an absent code")
	}
}

func TestUnwrap(t *testing.T) {
	cause := stderrors.New("connection refused")
	err := Wrap(cause, CodeUnavailable, "backend unreachable")

	if !stderrors.Is(err, cause) {
		t.Error("errors.Is should reach the cause through Unwrap")
	}
}

func TestRetryable(t *testing.T) {
	if !IsRetryable(New(CodeBackendRateLimited, "429")) {
		t.Error("rate-limited should be retryable")
	}
	if IsRetryable(New(CodeConfigInvalid, "bad color")) {
		t.Error("config errors should not be retryable")
	}
	if IsRetryable(stderrors.New("plain")) {
		t.Error("non-AppError should not be retryable")
	}
}
