package grpc

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/davicafu/hexatask/internal/task/application"
	taskDomain "github.com/davicafu/hexatask/internal/task/domain"
)

const serviceName = "hexatask.TaskService"

// TaskServiceServer es el contrato del servicio gRPC.
type TaskServiceServer interface {
	CreateTask(context.Context, *CreateTaskRequest) (*TaskReply, error)
	GetTask(context.Context, *GetTaskRequest) (*TaskReply, error)
	TransitionTask(context.Context, *TransitionTaskRequest) (*TaskReply, error)
	AssignTask(context.Context, *AssignTaskRequest) (*TaskReply, error)
}

// GrpcTaskServer adapta TaskService al contrato gRPC.
type GrpcTaskServer struct {
	service *application.TaskService
	log     *zap.Logger
}

func NewGrpcTaskServer(service *application.TaskService, log *zap.Logger) *GrpcTaskServer {
	return &GrpcTaskServer{service: service, log: log}
}

// Register publica el servicio en el servidor gRPC.
func Register(s *grpc.Server, srv TaskServiceServer) {
	s.RegisterService(&TaskServiceDesc, srv)
}

func (s *GrpcTaskServer) CreateTask(ctx context.Context, req *CreateTaskRequest) (*TaskReply, error) {
	in := application.CreateTaskInput{
		Title:       req.Title,
		Description: req.Description,
		Priority:    taskDomain.PriorityMedium,
		DueDate:     req.DueDate,
	}
	if req.Priority != "" {
		p, err := taskDomain.ParsePriority(req.Priority)
		if err != nil {
			return nil, toStatus(err)
		}
		in.Priority = p
	}
	if req.AssigneeID != "" {
		id, err := uuid.Parse(req.AssigneeID)
		if err != nil {
			return nil, status.Error(codes.InvalidArgument, "invalid assignee_id format")
		}
		in.AssigneeID = &id
	}

	task, err := s.service.CreateTask(ctx, in)
	return s.reply(task, err)
}

func (s *GrpcTaskServer) GetTask(ctx context.Context, req *GetTaskRequest) (*TaskReply, error) {
	id, err := uuid.Parse(req.ID)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, "invalid id format")
	}
	task, err := s.service.GetTaskByID(ctx, id)
	return s.reply(task, err)
}

func (s *GrpcTaskServer) TransitionTask(ctx context.Context, req *TransitionTaskRequest) (*TaskReply, error) {
	id, err := uuid.Parse(req.ID)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, "invalid id format")
	}
	next, err := taskDomain.ParseStatus(req.Status)
	if err != nil {
		return nil, toStatus(err)
	}
	task, err := s.service.TransitionTask(ctx, id, next)
	return s.reply(task, err)
}

func (s *GrpcTaskServer) AssignTask(ctx context.Context, req *AssignTaskRequest) (*TaskReply, error) {
	id, err := uuid.Parse(req.ID)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, "invalid id format")
	}
	userID, err := uuid.Parse(req.AssigneeID)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, "invalid assignee_id format")
	}
	task, err := s.service.AssignTask(ctx, id, userID)
	return s.reply(task, err)
}

func (s *GrpcTaskServer) reply(task *taskDomain.Task, err error) (*TaskReply, error) {
	if err != nil {
		st := toStatus(err)
		if status.Code(st) == codes.Internal {
			s.log.Error("gRPC task call failed", zap.Error(err))
		}
		return nil, st
	}
	return toReply(task, s.service.Now()), nil
}

// --- Descriptor del servicio ---

func unaryHandler[Req any](call func(TaskServiceServer, context.Context, *Req) (*TaskReply, error), method string) func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	return func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
		in := new(Req)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(TaskServiceServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + serviceName + "/" + method}
		handler := func(ctx context.Context, req interface{}) (interface{}, error) {
			return call(srv.(TaskServiceServer), ctx, req.(*Req))
		}
		return interceptor(ctx, in, info, handler)
	}
}

// TaskServiceDesc describe el servicio sin código generado.
var TaskServiceDesc = grpc.ServiceDesc{
	ServiceName: serviceName,
	HandlerType: (*TaskServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "CreateTask", Handler: unaryHandler(TaskServiceServer.CreateTask, "CreateTask")},
		{MethodName: "GetTask", Handler: unaryHandler(TaskServiceServer.GetTask, "GetTask")},
		{MethodName: "TransitionTask", Handler: unaryHandler(TaskServiceServer.TransitionTask, "TransitionTask")},
		{MethodName: "AssignTask", Handler: unaryHandler(TaskServiceServer.AssignTask, "AssignTask")},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "hexatask/task.proto",
}

var _ TaskServiceServer = (*GrpcTaskServer)(nil)
