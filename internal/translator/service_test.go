package translator

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// backendFunc adapts a function to Backend.
type backendFunc func(ctx context.Context, req Request) Result

func (f backendFunc) Translate(ctx context.Context, req Request) Result {
	return f(ctx, req)
}

func TestTranslateTextReturnsModelAnswer(t *testing.T) {
	fake := &fakeChatModel{reply: replyWith("مرحبا")}
	svc := NewService(NewChatBackend(fake, "m", 500), time.Second)

	assert.Equal(t, "مرحبا", svc.TranslateText(context.Background(), "Hello", "arabic", ""))
	assert.Contains(t, fake.lastInput[0].Content, "into arabic")
}

func TestTranslateTextIdentityBackend(t *testing.T) {
	svc := NewService(NewChatBackend(&fakeChatModel{reply: echoUser}, "m", 500), time.Second)

	for _, text := range []string{"Bonjour le monde", "Déjà vu.\nSecond line", "مرحبا"} {
		assert.Equal(t, text, svc.TranslateText(context.Background(), text, "french", ""))
	}
}

func TestTranslateTextNeverFails(t *testing.T) {
	svc := NewService(backendFunc(func(ctx context.Context, req Request) Result {
		return Degrade(req, errors.New("service unavailable"))
	}), time.Second)

	assert.Equal(t, "Hello", svc.TranslateText(context.Background(), "Hello", "arabic", ""))
}

func TestServiceSkipsEmptyInput(t *testing.T) {
	var calls atomic.Int32
	svc := NewService(backendFunc(func(ctx context.Context, req Request) Result {
		calls.Add(1)
		return Result{Text: "x", Status: StatusTranslated}
	}), time.Second)

	for _, text := range []string{"", "   ", "\n\t"} {
		result := svc.Translate(context.Background(), Request{Text: text, TargetLanguage: "french"})
		assert.Equal(t, StatusSkipped, result.Status)
		assert.Equal(t, text, result.Text)
	}
	assert.Equal(t, int32(0), calls.Load())
}

func TestServiceAppliesCallTimeout(t *testing.T) {
	svc := NewService(backendFunc(func(ctx context.Context, req Request) Result {
		<-ctx.Done()
		return Degrade(req, ctx.Err())
	}), 20*time.Millisecond)

	start := time.Now()
	result := svc.Translate(context.Background(), Request{Text: "Hello", TargetLanguage: "french"})

	assert.True(t, result.Degraded())
	assert.ErrorIs(t, result.Err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestServiceCancelledContextSkipsBackend(t *testing.T) {
	var calls atomic.Int32
	svc := NewService(backendFunc(func(ctx context.Context, req Request) Result {
		calls.Add(1)
		return Result{Text: "x", Status: StatusTranslated}
	}), time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result := svc.Translate(ctx, Request{Text: "Hello", TargetLanguage: "french"})
	assert.True(t, result.Degraded())
	assert.ErrorIs(t, result.Err, context.Canceled)
	assert.Equal(t, int32(0), calls.Load())
}

func TestServiceRecoversBackendPanic(t *testing.T) {
	svc := NewService(backendFunc(func(ctx context.Context, req Request) Result {
		panic("nil map write")
	}), time.Second)

	result := svc.Translate(context.Background(), Request{Text: "Hello", TargetLanguage: "french"})
	require.True(t, result.Degraded())
	assert.Equal(t, "Hello", result.Text)
	assert.Contains(t, result.Err.Error(), "nil map write")
}

func TestServiceAbandonsBackendIgnoringTimeout(t *testing.T) {
	release := make(chan struct{})
	defer close(release)

	svc := NewService(backendFunc(func(ctx context.Context, req Request) Result {
		select {
		case <-release:
		case <-time.After(500 * time.Millisecond):
		}
		return Result{Text: "late", Status: StatusTranslated}
	}), 20*time.Millisecond)

	start := time.Now()
	result := svc.Translate(context.Background(), Request{Text: "Hello", TargetLanguage: "french"})

	assert.True(t, result.Degraded())
	assert.Equal(t, "Hello", result.Text)
	assert.ErrorIs(t, result.Err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), 400*time.Millisecond)
}

func TestServiceAbandonsCallOnCancel(t *testing.T) {
	release := make(chan struct{})
	defer close(release)

	svc := NewService(backendFunc(func(ctx context.Context, req Request) Result {
		<-release
		return Result{Text: "late", Status: StatusTranslated}
	}), 0)

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(20*time.Millisecond, cancel)

	result := svc.Translate(ctx, Request{Text: "Hello", TargetLanguage: "french"})
	assert.True(t, result.Degraded())
	assert.ErrorIs(t, result.Err, context.Canceled)
}

func TestServiceDegradesResultPastDeadline(t *testing.T) {
	svc := NewService(backendFunc(func(ctx context.Context, req Request) Result {
		<-ctx.Done()
		return Result{Text: "late", Status: StatusTranslated}
	}), 20*time.Millisecond)

	result := svc.Translate(context.Background(), Request{Text: "Hello", TargetLanguage: "french"})
	assert.True(t, result.Degraded())
	assert.Equal(t, "Hello", result.Text)
}
