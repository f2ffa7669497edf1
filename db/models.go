package db

import "time"

// Round statuses.
const (
	RoundOpen   = "open"
	RoundClosed = "closed"
)

// Delayed action statuses.
const (
	ActionPending = "pending"
	ActionDone    = "done"
)

type Tenant struct {
	ID          uint   `gorm:"primaryKey"`
	TenantID    string `gorm:"uniqueIndex;not null"`
	Name        string
	AccessToken string `gorm:"not null"` // encrypted at rest
	BotUserID   string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type Member struct {
	ID          uint   `gorm:"primaryKey"`
	TenantID    string `gorm:"uniqueIndex:idx_tenant_member;not null"`
	MemberID    string `gorm:"uniqueIndex:idx_tenant_member;not null"`
	RealName    string
	DMChannelID string // cached direct channel, refreshed on send failure
	UpdatedAt   time.Time
}

type SchedulePreference struct {
	ID          uint   `gorm:"primaryKey"`
	TenantID    string `gorm:"uniqueIndex;not null"`
	ChannelID   string
	StandupTime string // local wall clock, HH:MM
	Timezone    string // IANA name
	UpdatedAt   time.Time
}

// TriggerEntry mirrors one live registry entry per tenant. Rows are
// overwritten on every refresh, never deleted.
type TriggerEntry struct {
	Name      string `gorm:"primaryKey"`
	TenantID  string `gorm:"index;not null"`
	Spec      string `gorm:"not null"` // cron spec, UTC
	Action    string `gorm:"not null"`
	ChannelID string
	UpdatedAt time.Time
}

type Round struct {
	RoundID   string `gorm:"primaryKey"`
	TenantID  string `gorm:"index;not null"`
	Status    string `gorm:"not null"`
	CreatedBy string
	CreatedAt time.Time
	ClosedAt  *time.Time
}

type Response struct {
	ID         uint   `gorm:"primaryKey"`
	TenantID   string `gorm:"index;not null"`
	RoundID    string `gorm:"index;not null"`
	MemberID   string `gorm:"not null"`
	Text       string `gorm:"not null"`
	ReceivedAt time.Time
}

// DelayedAction is one durable one-shot action. The dispatcher claims a row
// by flipping pending to done, so a restart between insert and due time
// cannot lose it.
type DelayedAction struct {
	ID        string `gorm:"primaryKey"`
	Action    string `gorm:"not null"`
	Argument  string
	DueAt     time.Time `gorm:"index;not null"`
	Status    string    `gorm:"index;not null"`
	CreatedAt time.Time
}

// WorkflowCheckpoint is the durable resumption point for one round's
// workflow, addressed solely by ThreadID. Retained after completion.
type WorkflowCheckpoint struct {
	ThreadID  string `gorm:"primaryKey"`
	TenantID  string `gorm:"index;not null"`
	RoundID   string
	ChannelID string
	Step      string `gorm:"not null"`
	Suspended bool
	Log       string // JSON array of step messages
	Result    string
	CreatedAt time.Time
	UpdatedAt time.Time
}
