package clickup

// User is a workspace member.
type User struct {
	ID             int    `json:"id"`
	Username       string `json:"username"`
	Email          string `json:"email"`
	Color          string `json:"color"`
	Initials       string `json:"initials,omitempty"`
	ProfilePicture string `json:"profilePicture,omitempty"`
	Timezone       string `json:"timezone,omitempty"`
}

// Status is a task status as configured on a space or list.
type Status struct {
	ID         string `json:"id,omitempty"`
	Status     string `json:"status"`
	Type       string `json:"type,omitempty"`
	Color      string `json:"color,omitempty"`
	OrderIndex int    `json:"orderindex"`
}

// Space is a top-level container inside a workspace.
type Space struct {
	ID                string   `json:"id"`
	Name              string   `json:"name"`
	Private           bool     `json:"private"`
	Color             string   `json:"color,omitempty"`
	Avatar            string   `json:"avatar,omitempty"`
	Statuses          []Status `json:"statuses,omitempty"`
	MultipleAssignees bool     `json:"multiple_assignees"`
	Archived          bool     `json:"archived"`
}

// Ref is a lightweight reference to a list, folder or space.
type Ref struct {
	ID     string `json:"id"`
	Name   string `json:"name,omitempty"`
	Access *bool  `json:"access,omitempty"`
}

// Tag is a task tag.
type Tag struct {
	Name       string `json:"name"`
	Foreground string `json:"tag_fg,omitempty"`
	Background string `json:"tag_bg,omitempty"`
}

// Priority is a task priority.
type Priority struct {
	ID       string `json:"id"`
	Priority string `json:"priority"`
	Color    string `json:"color,omitempty"`
}

// Task is a unit of work in a list.
type Task struct {
	ID           string    `json:"id"`
	CustomID     *string   `json:"custom_id,omitempty"`
	Name         string    `json:"name"`
	TextContent  string    `json:"text_content,omitempty"`
	Description  string    `json:"description,omitempty"`
	Status       Status    `json:"status"`
	Archived     bool      `json:"archived"`
	DateCreated  Timestamp `json:"date_created"`
	DateUpdated  Timestamp `json:"date_updated"`
	DateClosed   Timestamp `json:"date_closed"`
	DateDone     Timestamp `json:"date_done"`
	DueDate      Timestamp `json:"due_date"`
	StartDate    Timestamp `json:"start_date"`
	TimeEstimate *int64    `json:"time_estimate,omitempty"`
	Creator      User      `json:"creator"`
	Assignees    []User    `json:"assignees,omitempty"`
	Tags         []Tag     `json:"tags,omitempty"`
	Parent       *string   `json:"parent,omitempty"`
	Priority     *Priority `json:"priority,omitempty"`
	URL          string    `json:"url,omitempty"`
	TeamID       string    `json:"team_id,omitempty"`
	List         Ref       `json:"list"`
	Folder       Ref       `json:"folder"`
	Space        Ref       `json:"space"`
}

// CreateTaskRequest is the body of a task creation.
type CreateTaskRequest struct {
	Name         string     `json:"name"`
	Description  string     `json:"description,omitempty"`
	Assignees    []int      `json:"assignees,omitempty"`
	Tags         []string   `json:"tags,omitempty"`
	Status       string     `json:"status,omitempty"`
	Priority     *int       `json:"priority,omitempty"`
	DueDate      *Timestamp `json:"due_date,omitempty"`
	DueDateTime  bool       `json:"due_date_time,omitempty"`
	StartDate    *Timestamp `json:"start_date,omitempty"`
	TimeEstimate *int64     `json:"time_estimate,omitempty"`
	NotifyAll    bool       `json:"notify_all,omitempty"`
	Parent       *string    `json:"parent,omitempty"`
}

// AssigneeChanges adds and removes assignees in an update.
type AssigneeChanges struct {
	Add    []int `json:"add,omitempty"`
	Remove []int `json:"rem,omitempty"`
}

// UpdateTaskRequest is the body of a task update. Nil fields are left
// unchanged.
type UpdateTaskRequest struct {
	Name        *string          `json:"name,omitempty"`
	Description *string          `json:"description,omitempty"`
	Status      *string          `json:"status,omitempty"`
	Priority    *int             `json:"priority,omitempty"`
	DueDate     *Timestamp       `json:"due_date,omitempty"`
	StartDate   *Timestamp       `json:"start_date,omitempty"`
	Archived    *bool            `json:"archived,omitempty"`
	Assignees   *AssigneeChanges `json:"assignees,omitempty"`
}

// GetTasksOptions filters a task listing. Zero fields are not sent.
type GetTasksOptions struct {
	Page          int
	Archived      bool
	OrderBy       string
	Reverse       bool
	Subtasks      bool
	IncludeClosed bool
	Statuses      []string
	Assignees     []string
	Tags          []string
	DueDateGt     Timestamp
	DueDateLt     Timestamp
	DateUpdatedGt Timestamp
}

// Attachment is a file attached to a task.
type Attachment struct {
	ID             string    `json:"id"`
	Version        string    `json:"version,omitempty"`
	Date           Timestamp `json:"date"`
	Title          string    `json:"title"`
	Extension      string    `json:"extension,omitempty"`
	ThumbnailSmall string    `json:"thumbnail_small,omitempty"`
	ThumbnailLarge string    `json:"thumbnail_large,omitempty"`
	URL            string    `json:"url"`
}

// WebhookHealth reports delivery health of a webhook.
type WebhookHealth struct {
	Status    string `json:"status"`
	FailCount int    `json:"fail_count"`
}

// Webhook is an event subscription.
type Webhook struct {
	ID       string        `json:"id"`
	UserID   int           `json:"userid"`
	TeamID   int           `json:"team_id"`
	Endpoint string        `json:"endpoint"`
	ClientID string        `json:"client_id,omitempty"`
	Events   []string      `json:"events"`
	TaskID   *string       `json:"task_id,omitempty"`
	ListID   *int          `json:"list_id,omitempty"`
	FolderID *int          `json:"folder_id,omitempty"`
	SpaceID  *int          `json:"space_id,omitempty"`
	Health   WebhookHealth `json:"health"`
	Secret   string        `json:"secret,omitempty"`
}

// CreateWebhookRequest is the body of a webhook creation.
type CreateWebhookRequest struct {
	Endpoint string   `json:"endpoint"`
	Events   []string `json:"events"`
	SpaceID  *int     `json:"space_id,omitempty"`
	FolderID *int     `json:"folder_id,omitempty"`
	ListID   *int     `json:"list_id,omitempty"`
	TaskID   *string  `json:"task_id,omitempty"`
}
