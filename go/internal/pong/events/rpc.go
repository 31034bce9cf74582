package events

import (
	"fmt"
	"sync"

	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/reflect/protodesc"
	"google.golang.org/protobuf/reflect/protoreflect"
	"google.golang.org/protobuf/reflect/protoregistry"
	"google.golang.org/protobuf/types/descriptorpb"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// Connect procedures served by the relay. The messages are protobuf
// well-known types, so no generated stubs are needed on either side.
const (
	SessionServiceName = "pong.v1.SessionService"

	// CreateSessionProcedure takes google.protobuf.Empty and returns the new
	// code as google.protobuf.StringValue.
	CreateSessionProcedure = "/" + SessionServiceName + "/CreateSession"

	// LookupSessionProcedure takes a code as StringValue and reports whether a
	// joinable session exists as BoolValue.
	LookupSessionProcedure = "/" + SessionServiceName + "/LookupSession"
)

// GameNotFound is the relay's message for an unknown or expired code
const GameNotFound = "Game not found"

var sessionFiles = sync.OnceValues(buildSessionFiles)

// SessionFiles returns a registry holding pong/v1/session.proto and its
// imports, for reflection and connect schemas.
func SessionFiles() (*protoregistry.Files, error) {
	return sessionFiles()
}

// SessionMethod looks up a SessionService method descriptor by name
func SessionMethod(name string) (protoreflect.MethodDescriptor, error) {
	files, err := SessionFiles()
	if err != nil {
		return nil, err
	}
	desc, err := files.FindDescriptorByName(protoreflect.FullName(SessionServiceName + "." + name))
	if err != nil {
		return nil, fmt.Errorf("find method %s: %w", name, err)
	}
	method, ok := desc.(protoreflect.MethodDescriptor)
	if !ok {
		return nil, fmt.Errorf("%s is not a method", name)
	}
	return method, nil
}

func buildSessionFiles() (*protoregistry.Files, error) {
	fdp := &descriptorpb.FileDescriptorProto{
		Name:    proto.String("pong/v1/session.proto"),
		Package: proto.String("pong.v1"),
		Syntax:  proto.String("proto3"),
		Dependency: []string{
			emptypb.File_google_protobuf_empty_proto.Path(),
			wrapperspb.File_google_protobuf_wrappers_proto.Path(),
		},
		Service: []*descriptorpb.ServiceDescriptorProto{{
			Name: proto.String("SessionService"),
			Method: []*descriptorpb.MethodDescriptorProto{
				{
					Name:       proto.String("CreateSession"),
					InputType:  proto.String(".google.protobuf.Empty"),
					OutputType: proto.String(".google.protobuf.StringValue"),
				},
				{
					Name:       proto.String("LookupSession"),
					InputType:  proto.String(".google.protobuf.StringValue"),
					OutputType: proto.String(".google.protobuf.BoolValue"),
				},
			},
		}},
	}

	fd, err := protodesc.NewFile(fdp, protoregistry.GlobalFiles)
	if err != nil {
		return nil, fmt.Errorf("build session descriptor: %w", err)
	}

	files := new(protoregistry.Files)
	for _, f := range []protoreflect.FileDescriptor{
		emptypb.File_google_protobuf_empty_proto,
		wrapperspb.File_google_protobuf_wrappers_proto,
		fd,
	} {
		if err := files.RegisterFile(f); err != nil {
			return nil, fmt.Errorf("register %s: %w", f.Path(), err)
		}
	}
	return files, nil
}
