package transcriber

import (
	"context"
	"errors"
	"fmt"
	"strings"

	config "github.com/xilidan/lingua/config/web"
	"github.com/xilidan/lingua/services/transcriber/entity"
	pb "github.com/xilidan/lingua/specs/proto/transcriber"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

type Client struct {
	conn *grpc.ClientConn
	pb.TranscriberServiceClient
}

func New(cfg *config.ServiceConfig) (*Client, error) {
	address := fmt.Sprintf("%s:%d", cfg.Url, cfg.Port)

	conn, err := grpc.NewClient(
		address,
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithDefaultCallOptions(
			grpc.MaxCallSendMsgSize(pb.MaxMessageSize),
			grpc.MaxCallRecvMsgSize(pb.MaxMessageSize),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create grpc connection: %w", err)
	}

	return NewWithConn(conn), nil
}

func NewWithConn(conn *grpc.ClientConn) *Client {
	return &Client{
		conn:                     conn,
		TranscriberServiceClient: pb.NewTranscriberServiceClient(conn),
	}
}

func (c *Client) Close() error {
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}

func (c *Client) Transcribe(ctx context.Context, input entity.Input) (entity.Transcript, error) {
	resp, err := c.TranscriberServiceClient.Transcribe(ctx, pb.NewTranscribeRequest(input))
	if err != nil {
		return nil, &entity.TranscriptionError{Cause: fromStatus(err)}
	}

	items, err := pb.ParseItemsResponse(resp)
	if err != nil {
		return nil, &entity.TranscriptionError{Cause: err}
	}
	return items, nil
}

func (c *Client) Translate(ctx context.Context, items entity.Transcript, lang entity.Language) (entity.Transcript, error) {
	resp, err := c.TranscriberServiceClient.Translate(ctx, pb.NewTranslateRequest(items, lang))
	if err != nil {
		return nil, &entity.TranslationError{Cause: fromStatus(err)}
	}

	out, err := pb.ParseItemsResponse(resp)
	if err != nil {
		return nil, &entity.TranslationError{Cause: err}
	}
	return out, nil
}

func (c *Client) Healthy(ctx context.Context) bool {
	resp, err := c.HealthCheck(ctx, &structpb.Struct{})
	if err != nil {
		return false
	}
	return pb.ParseHealthResponse(resp)
}

// fromStatus restores the sentinel a status code stands for so callers can
// keep matching with errors.Is across the process boundary.
func fromStatus(err error) error {
	st, ok := status.FromError(err)
	if !ok {
		return err
	}

	msg := st.Message()
	switch st.Code() {
	case codes.InvalidArgument:
		return withSentinel(entity.ErrInvalidInput, msg)
	case codes.DataLoss:
		return withSentinel(entity.ErrFormat, msg)
	case codes.DeadlineExceeded:
		return withSentinel(context.DeadlineExceeded, msg)
	case codes.Canceled:
		return withSentinel(context.Canceled, msg)
	default:
		return errors.New(msg)
	}
}

func withSentinel(sentinel error, msg string) error {
	rest := strings.TrimPrefix(msg, sentinel.Error())
	if rest == "" {
		return sentinel
	}
	if rest != msg {
		return fmt.Errorf("%w%s", sentinel, rest)
	}
	return fmt.Errorf("%w: %s", sentinel, msg)
}
