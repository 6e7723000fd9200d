package server

import (
	"context"
	"errors"
	"log/slog"

	"github.com/xilidan/lingua/services/transcriber/entity"
	"github.com/xilidan/lingua/services/transcriber/usecase"
	pb "github.com/xilidan/lingua/specs/proto/transcriber"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

type Server struct {
	usecase usecase.Usecase
	log     *slog.Logger
}

func NewServerOptions(usecase usecase.Usecase, log *slog.Logger) *Server {
	return &Server{
		usecase: usecase,
		log:     log,
	}
}

func (s *Server) NewServer() (*grpc.Server, error) {
	srv := grpc.NewServer(
		grpc.MaxRecvMsgSize(pb.MaxMessageSize),
		grpc.MaxSendMsgSize(pb.MaxMessageSize),
	)
	pb.RegisterTranscriberServiceServer(srv, s)
	return srv, nil
}

func (s *Server) HealthCheck(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	return pb.NewHealthResponse(true), nil
}

func (s *Server) Transcribe(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	input, err := pb.ParseTranscribeRequest(req)
	if err != nil {
		return nil, toStatus(err)
	}

	items, err := s.usecase.Transcribe(ctx, input)
	if err != nil {
		return nil, toStatus(err)
	}

	return pb.NewItemsResponse(items), nil
}

func (s *Server) Translate(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	items, lang, err := pb.ParseTranslateRequest(req)
	if err != nil {
		return nil, toStatus(err)
	}

	s.log.Debug("translate request",
		slog.String("language", lang.ID),
		slog.Int("items", len(items)))

	out, err := s.usecase.Translate(ctx, items, lang)
	if err != nil {
		return nil, toStatus(err)
	}

	return pb.NewItemsResponse(out), nil
}

// toStatus carries the stage cause as the status message; the client
// rebuilds the stage error around it.
func toStatus(err error) error {
	msg := err.Error()
	var transcriptionErr *entity.TranscriptionError
	var translationErr *entity.TranslationError
	switch {
	case errors.As(err, &transcriptionErr):
		msg = transcriptionErr.Cause.Error()
	case errors.As(err, &translationErr):
		msg = translationErr.Cause.Error()
	}

	switch {
	case errors.Is(err, entity.ErrInvalidInput):
		return status.Error(codes.InvalidArgument, msg)
	case errors.Is(err, entity.ErrFormat):
		return status.Error(codes.DataLoss, msg)
	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, msg)
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, msg)
	default:
		return status.Error(codes.Unavailable, msg)
	}
}
