package gateway

import (
	"context"
	"fmt"
	"net/http"

	"connectrpc.com/connect"
	"connectrpc.com/grpcreflect"
	"github.com/mcdev12/pong/go/internal/pong/events"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// SessionRPC serves pong.v1.SessionService over connect
type SessionRPC struct {
	sessions *SessionHandler
}

// NewSessionRPC creates the connect service on top of the session handler
func NewSessionRPC(sessions *SessionHandler) *SessionRPC {
	return &SessionRPC{sessions: sessions}
}

func (s *SessionRPC) CreateSession(
	ctx context.Context,
	req *connect.Request[emptypb.Empty],
) (*connect.Response[wrapperspb.StringValue], error) {
	session, err := s.sessions.Create(ctx)
	if err != nil {
		return nil, connect.NewError(connect.CodeInternal, fmt.Errorf("create session: %w", err))
	}
	return connect.NewResponse(wrapperspb.String(session.ID)), nil
}

func (s *SessionRPC) LookupSession(
	ctx context.Context,
	req *connect.Request[wrapperspb.StringValue],
) (*connect.Response[wrapperspb.BoolValue], error) {
	_, ok, err := s.sessions.Lookup(ctx, req.Msg.GetValue())
	if err != nil {
		return nil, connect.NewError(connect.CodeInternal, fmt.Errorf("lookup session: %w", err))
	}
	return connect.NewResponse(wrapperspb.Bool(ok)), nil
}

// RegisterRoutes mounts both procedures and gRPC reflection for grpcurl
func (s *SessionRPC) RegisterRoutes(mux *http.ServeMux) error {
	files, err := events.SessionFiles()
	if err != nil {
		return err
	}
	create, err := events.SessionMethod("CreateSession")
	if err != nil {
		return err
	}
	lookup, err := events.SessionMethod("LookupSession")
	if err != nil {
		return err
	}

	mux.Handle(events.CreateSessionProcedure, connect.NewUnaryHandler(
		events.CreateSessionProcedure,
		s.CreateSession,
		connect.WithSchema(create),
	))
	mux.Handle(events.LookupSessionProcedure, connect.NewUnaryHandler(
		events.LookupSessionProcedure,
		s.LookupSession,
		connect.WithSchema(lookup),
		connect.WithIdempotency(connect.IdempotencyNoSideEffects),
	))

	reflector := grpcreflect.NewReflector(
		grpcreflect.NamerFunc(func() []string { return []string{events.SessionServiceName} }),
		grpcreflect.WithDescriptorResolver(files),
	)
	mux.Handle(grpcreflect.NewHandlerV1(reflector))
	mux.Handle(grpcreflect.NewHandlerV1Alpha(reflector))
	return nil
}
