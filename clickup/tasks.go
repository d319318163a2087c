package clickup

import (
	"context"
	"net/http"
	"net/url"
)

// TasksPageSize is the fixed number of tasks per page of a list listing.
const TasksPageSize = 100

// TasksService covers tasks and their attachments.
type TasksService struct {
	conn *Connection
}

func taskPath(taskID string) string {
	return "task/" + url.PathEscape(taskID)
}

// GetTask returns one task. The result is nil when the body was empty.
func (s *TasksService) GetTask(ctx context.Context, taskID string) (*Task, error) {
	return doFor[Task](ctx, s.conn, &Request{
		Method:    http.MethodGet,
		Path:      taskPath(taskID),
		Operation: "tasks.get",
	})
}

type tasksResponse struct {
	Tasks    []Task `json:"tasks"`
	LastPage *bool  `json:"last_page"`
}

// GetTasks returns one page of the tasks in a list. The endpoint reports
// only whether this is the last page, so totals are UnknownCount.
func (s *TasksService) GetTasks(ctx context.Context, listID string, opts *GetTasksOptions) (Page[Task], error) {
	var page int
	if opts != nil {
		page = opts.Page
	}

	query, err := EncodeQuery(opts)
	if err != nil {
		return Page[Task]{}, &Error{Kind: KindClient, Method: http.MethodGet, Message: err.Error(), Err: err}
	}

	resp, err := doFor[tasksResponse](ctx, s.conn, &Request{
		Method:    http.MethodGet,
		Path:      "list/" + url.PathEscape(listID) + "/task",
		Query:     query,
		Operation: "tasks.list",
	})
	if err != nil {
		return Page[Task]{}, err
	}
	if resp == nil {
		return EmptyPage[Task](page, TasksPageSize), nil
	}

	hasNext := len(resp.Tasks) == TasksPageSize
	if resp.LastPage != nil {
		hasNext = !*resp.LastPage
	}
	return NewCursorPage(resp.Tasks, page, TasksPageSize, hasNext), nil
}

// IterateTasks walks every page of a list listing, starting at opts.Page.
func (s *TasksService) IterateTasks(listID string, opts *GetTasksOptions) *PageIterator[Task] {
	base := GetTasksOptions{}
	if opts != nil {
		base = *opts
	}
	return NewPageIterator(func(ctx context.Context, page int) (Page[Task], error) {
		o := base
		o.Page = page
		return s.GetTasks(ctx, listID, &o)
	}, base.Page)
}

// CreateTask creates a task in a list.
func (s *TasksService) CreateTask(ctx context.Context, listID string, req CreateTaskRequest) (*Task, error) {
	return doFor[Task](ctx, s.conn, &Request{
		Method:    http.MethodPost,
		Path:      "list/" + url.PathEscape(listID) + "/task",
		Body:      req,
		Operation: "tasks.create",
	})
}

// UpdateTask changes the non-nil fields of req.
func (s *TasksService) UpdateTask(ctx context.Context, taskID string, req UpdateTaskRequest) (*Task, error) {
	return doFor[Task](ctx, s.conn, &Request{
		Method:    http.MethodPut,
		Path:      taskPath(taskID),
		Body:      req,
		Operation: "tasks.update",
	})
}

// DeleteTask deletes a task.
func (s *TasksService) DeleteTask(ctx context.Context, taskID string) error {
	return s.conn.Do(ctx, &Request{
		Method:    http.MethodDelete,
		Path:      taskPath(taskID),
		Operation: "tasks.delete",
	}, nil)
}

// CreateTaskAttachment uploads pre-built multipart content, typically
// from NewMultipart with a FilePart named "attachment".
func (s *TasksService) CreateTaskAttachment(ctx context.Context, taskID string, content *Multipart) (*Attachment, error) {
	if content == nil {
		return nil, &Error{Kind: KindClient, Method: http.MethodPost, Path: taskPath(taskID) + "/attachment", Message: "multipart content is required"}
	}
	return doFor[Attachment](ctx, s.conn, &Request{
		Method:    http.MethodPost,
		Path:      taskPath(taskID) + "/attachment",
		Multipart: content,
		Operation: "tasks.attach",
	})
}
