package grpc

import (
	"context"

	"google.golang.org/grpc"
)

// TaskClient invoca TaskService con el códec JSON.
type TaskClient struct {
	cc grpc.ClientConnInterface
}

func NewTaskClient(cc grpc.ClientConnInterface) *TaskClient {
	return &TaskClient{cc: cc}
}

func (c *TaskClient) invoke(ctx context.Context, method string, in interface{}) (*TaskReply, error) {
	out := new(TaskReply)
	err := c.cc.Invoke(ctx, "/"+serviceName+"/"+method, in, out, grpc.CallContentSubtype(CodecName))
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (c *TaskClient) CreateTask(ctx context.Context, in *CreateTaskRequest) (*TaskReply, error) {
	return c.invoke(ctx, "CreateTask", in)
}

func (c *TaskClient) GetTask(ctx context.Context, in *GetTaskRequest) (*TaskReply, error) {
	return c.invoke(ctx, "GetTask", in)
}

func (c *TaskClient) TransitionTask(ctx context.Context, in *TransitionTaskRequest) (*TaskReply, error) {
	return c.invoke(ctx, "TransitionTask", in)
}

func (c *TaskClient) AssignTask(ctx context.Context, in *AssignTaskRequest) (*TaskReply, error) {
	return c.invoke(ctx, "AssignTask", in)
}
