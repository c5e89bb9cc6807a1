package models

import "time"

// Comment is a note left on a task. Comments live inside their task and
// are removed with it.
type Comment struct {
	ID        string     `json:"id"`
	TaskID    uint64     `json:"taskId"`
	UserID    uint64     `json:"userId"`
	UserName  string     `json:"userName"`
	Text      string     `json:"text"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt *time.Time `json:"updatedAt,omitempty"`
}

func (c Comment) Clone() Comment {
	out := c
	if c.UpdatedAt != nil {
		updated := *c.UpdatedAt
		out.UpdatedAt = &updated
	}
	return out
}
