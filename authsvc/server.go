package authsvc

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	spiralverse "github.com/issdandavis/Spiralverse-AetherMoore"
	"github.com/issdandavis/Spiralverse-AetherMoore/crypto"
	"github.com/issdandavis/Spiralverse-AetherMoore/limits"
)

// MaxMessageSize is the largest request the service needs to accept: an
// exported token plus room for the remaining request fields.
const MaxMessageSize = limits.MaxExportedToken + 64*1024

// Server exposes a spiralverse.System over the Authority gRPC service.
type Server struct {
	UnimplementedAuthorityServer
	System *spiralverse.System
	// Replay, when set, makes every token verify successfully at most once
	// within the guard's window.
	Replay *crypto.ReplayGuard
	// Metrics, when set, records every Issue and Verify outcome.
	Metrics *Monitor
}

// NewServer creates a server for system with a fresh Monitor. replay may be nil.
func NewServer(system *spiralverse.System, replay *crypto.ReplayGuard) *Server {
	return &Server{System: system, Replay: replay, Metrics: NewMonitor()}
}

func requestLogger(method string) *crypto.LoggerHelper {
	return crypto.NewPackageLogger("authsvc", method).WithField("request_id", uuid.NewString())
}

func stringField(in *structpb.Struct, name string) (string, error) {
	v, ok := in.GetFields()[name]
	if !ok {
		return "", status.Errorf(codes.InvalidArgument, "missing field %q", name)
	}
	s, ok := v.GetKind().(*structpb.Value_StringValue)
	if !ok {
		return "", status.Errorf(codes.InvalidArgument, "field %q must be a string", name)
	}
	return s.StringValue, nil
}

func (s *Server) ready(ctx context.Context) error {
	if s == nil || s.System == nil {
		return status.Error(codes.FailedPrecondition, "missing authorization system")
	}
	if err := ctx.Err(); err != nil {
		return status.FromContextError(err).Err()
	}
	return nil
}

// Issue creates a token and returns its exported form.
func (s *Server) Issue(ctx context.Context, in *structpb.Struct) (*wrapperspb.StringValue, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}
	logger := requestLogger("Issue")

	subject, err := stringField(in, "subject")
	if err != nil {
		return nil, err
	}
	passphrase, err := stringField(in, "passphrase")
	if err != nil {
		return nil, err
	}
	payloadValue, ok := in.GetFields()["payload"]
	if !ok || payloadValue.GetStructValue() == nil {
		return nil, status.Error(codes.InvalidArgument, "field \"payload\" must be an object")
	}

	start := time.Now()
	token, err := s.System.CreateAuthorization(subject, payloadValue.GetStructValue().AsMap(), passphrase)
	if s.Metrics != nil {
		s.Metrics.RecordIssue(time.Since(start), err == nil)
	}
	if err != nil {
		logger.WithError(err, "create_error", "issue").Warn("Authorization not issued")
		if errors.Is(err, spiralverse.ErrPayloadEncoding) ||
			errors.Is(err, limits.ErrMessageEmpty) ||
			errors.Is(err, limits.ErrMessageTooLarge) ||
			errors.Is(err, limits.ErrInvalidUTF8) {
			return nil, status.Error(codes.InvalidArgument, err.Error())
		}
		return nil, status.Error(codes.Internal, "token creation failed")
	}

	exported, err := s.System.ExportToken(token)
	if err != nil {
		return nil, status.Error(codes.Internal, "token export failed")
	}

	logger.WithField("token_id", token.TokenID).Info("Authorization issued")
	return wrapperspb.String(exported), nil
}

// Verify checks an exported token against a passphrase. Every failure,
// including an undecodable token or a replayed one, yields valid=false.
func (s *Server) Verify(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}
	logger := requestLogger("Verify")

	exported, err := stringField(in, "token")
	if err != nil {
		return nil, err
	}
	passphrase, err := stringField(in, "passphrase")
	if err != nil {
		return nil, err
	}

	start := time.Now()
	invalid := func() (*structpb.Struct, error) {
		if s.Metrics != nil {
			s.Metrics.RecordVerify(time.Since(start), false)
		}
		return structpb.NewStruct(map[string]any{"valid": false})
	}

	token, err := s.System.ImportToken(exported)
	if err != nil {
		logger.WithError(err, "import_error", "verify").Debug("Token not importable")
		return invalid()
	}
	logger.WithField("token_id", token.TokenID)

	valid, payload := s.System.VerifyAuthorization(token, passphrase)
	if !valid {
		logger.Warn("Authorization rejected")
		return invalid()
	}

	if s.Replay != nil {
		if err := s.Replay.Consume(token.TokenID); err != nil {
			logger.WithError(err, "replay", "verify").Warn("Authorization replayed")
			if s.Metrics != nil {
				s.Metrics.RecordReplay()
			}
			return invalid()
		}
	}

	reply, err := structpb.NewStruct(map[string]any{"valid": true, "payload": map[string]any(payload)})
	if err != nil {
		return nil, status.Error(codes.Internal, "payload encoding failed")
	}
	if s.Metrics != nil {
		s.Metrics.RecordVerify(time.Since(start), true)
	}
	logger.Info("Authorization verified")
	return reply, nil
}

// TokenID returns the content identifier of an exported token.
func (s *Server) TokenID(ctx context.Context, in *wrapperspb.StringValue) (*wrapperspb.StringValue, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}

	token, err := s.System.ImportToken(in.GetValue())
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	id, err := token.ContentID()
	if err != nil {
		return nil, status.Error(codes.Internal, "content id computation failed")
	}

	requestLogger("TokenID").WithField("token_id", token.TokenID).WithField("cid", id.String()).Debug("Content id computed")
	return wrapperspb.String(id.String()), nil
}

// TimeoutInterceptor bounds every unary call by d. A non-positive d leaves
// the caller's deadline alone.
func TimeoutInterceptor(d time.Duration) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		if d <= 0 {
			return handler(ctx, req)
		}
		ctx, cancel := context.WithTimeout(ctx, d)
		defer cancel()
		return handler(ctx, req)
	}
}
