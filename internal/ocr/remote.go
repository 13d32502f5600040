package ocr

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/Rangesa/Game-Translator/internal/capture"
	"github.com/Rangesa/Game-Translator/internal/config"
	"github.com/Rangesa/Game-Translator/internal/errors"
	"github.com/Rangesa/Game-Translator/internal/resilience"
	"github.com/Rangesa/Game-Translator/internal/trace"
)

const recognizeMethod = "/gametranslator.Recognizer/Recognize"

type recognizeRequest struct {
	ImagePNG []byte `json:"image_png"`
	Language string `json:"language"`
}

type recognizeResponse struct {
	Lines []recognizerLine `json:"lines"`
}

// remoteEngine delegates recognition to a gRPC sidecar, typically a host
// running a heavier OCR model than the desktop has locally.
type remoteEngine struct {
	conn     *grpc.ClientConn
	language string
}

func newRemote(cfg config.OCRConfig) (Engine, error) {
	conn, err := grpc.NewClient(cfg.RemoteAddr,
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithDefaultCallOptions(grpc.CallContentSubtype(jsonCodecName)),
		grpc.WithChainUnaryInterceptor(trace.UnaryClientInterceptor()),
	)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeOCRInit, "dial recognizer")
	}
	return &remoteEngine{conn: conn, language: cfg.Language}, nil
}

func (e *remoteEngine) Recognize(ctx context.Context, frame *capture.Frame) ([]Line, error) {
	data, err := encodePNG(frame)
	if err != nil {
		return nil, err
	}
	req := &recognizeRequest{ImagePNG: data, Language: e.language}

	var resp recognizeResponse
	err = resilience.Retry(ctx, resilience.OCRRetryConfig(), func() error {
		resp = recognizeResponse{}
		return e.conn.Invoke(ctx, recognizeMethod, req, &resp)
	})
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeOCRFailed, "remote recognize")
	}

	lines := make([]Line, 0, len(resp.Lines))
	for _, l := range resp.Lines {
		lines = append(lines, Line{Text: l.Text, X: l.X, Y: l.Y, Width: l.W, Height: l.H})
	}
	return lines, nil
}

func (e *remoteEngine) Close() error {
	return e.conn.Close()
}
