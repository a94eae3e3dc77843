package grpcclient

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"

	"github.com/example/allergen-scan/internal/classifier"
	"github.com/example/allergen-scan/internal/logging"
	proto "github.com/example/allergen-scan/proto"
)

// Dial returns a ready-to-use gRPC-backed classifier client. callTimeout
// bounds every Classify call so a stuck model surfaces as a timeout failure
// instead of hanging the evaluation.
func Dial(ctx context.Context, addr string, callTimeout time.Duration, logger *zap.Logger) (classifier.Client, *grpc.ClientConn, error) {
	dialCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	conn, err := grpc.DialContext(
		dialCtx,
		addr,
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithBlock(),
	)
	if err != nil {
		wrapped := logging.NewOperationError("grpcclient.dial_classifier", "", err)
		logger.Error("failed to dial classifier", zap.Error(wrapped), zap.String("addr", addr))
		return nil, nil, wrapped
	}
	client := proto.NewFoodClassifierClient(conn)
	return &grpcClassifier{client: client, callTimeout: callTimeout, logger: logger}, conn, nil
}

type grpcClassifier struct {
	client      proto.FoodClassifierClient
	callTimeout time.Duration
	logger      *zap.Logger
}

func (g *grpcClassifier) Classify(ctx context.Context, image []byte) (*classifier.Prediction, error) {
	if g.callTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.callTimeout)
		defer cancel()
	}

	resp, err := g.client.Classify(ctx, &proto.ClassifyRequest{ImageData: image})
	if err != nil {
		wrapped := wrapRPCError("grpcclient.classify", err)
		g.logger.Error("classifier call failed", zap.Error(wrapped), zap.Bool("timeout", wrapped.Timeout))
		return nil, wrapped
	}

	confidence := resp.GetConfidence()
	if confidence < 0 {
		confidence = 0
	}
	if confidence > 1 {
		confidence = 1
	}
	return &classifier.Prediction{
		Label:      classifier.DisplayName(resp.GetLabel()),
		Confidence: confidence,
	}, nil
}

func wrapRPCError(op string, err error) *classifier.ClassificationError {
	if errors.Is(err, context.DeadlineExceeded) || status.Code(err) == codes.DeadlineExceeded {
		return &classifier.ClassificationError{Op: op, Timeout: true, Err: err}
	}
	return classifier.NewError(op, err)
}
