// Package store provides persistent state for the cleanup service: user
// profiles, per-photo action records, session logs, async job state, runtime
// config, and the Aurora activity marker.
//
// The package uses a single-table DynamoDB design. Partition keys group
// records by owner (USER#{uid}, PHONE#{phone}, CONFIG, ACTIVITY#aurora) and
// sort keys distinguish record types: PROFILE, LOOKUP, ACTION#, SESSION#,
// JOB#, KEY#. Session logs expire after 90 days and job records after 7 days
// via the expiresAt TTL attribute; profiles and action records are permanent.
package store

import (
	"context"
	"time"
)

// Record TTLs. Action records and profiles never expire: actions are the
// authoritative "already decided" set that scopes future cleanup passes.
const (
	SessionLogTTL = 90 * 24 * time.Hour
	JobTTL        = 7 * 24 * time.Hour
)

// Cleanup session modes as reported by clients.
const (
	ModeQuick      = 0
	ModeDeep       = 1
	ModeTimeTravel = 2
)

// Photo action types. Values match what clients sync and what lands in the
// Aurora sync_photo_actions table.
const (
	ActionKeep     = 0
	ActionDelete   = 1
	ActionFavorite = 2
)

// Job lifecycle states.
const (
	JobPending  = "pending"
	JobRunning  = "running"
	JobComplete = "complete"
	JobError    = "error"
)

// Store defines the persistence interface for the cleanup service.
// Each method is safe for concurrent use. All Get methods return
// (nil, nil) when the requested record does not exist; all Put methods
// perform full-item replacement unless documented otherwise.
type Store interface {
	// --- Users ---

	// CreateUser writes a new profile and its phone lookup record. The
	// lookup write is conditional; if another login created the user
	// first, CreateUser returns the existing uid and discards the new
	// profile.
	CreateUser(ctx context.Context, user *User) (uid string, err error)

	// GetUser retrieves a profile by uid. Returns nil, nil if not found.
	GetUser(ctx context.Context, uid string) (*User, error)

	// GetUIDByPhone resolves a phone number to a uid. Returns "" if the
	// phone has never logged in.
	GetUIDByPhone(ctx context.Context, phone string) (string, error)

	// TouchLastLogin updates the profile's lastLoginAt to now.
	TouchLastLogin(ctx context.Context, uid string) error

	// SetPro updates the profile's pro entitlement fields.
	SetPro(ctx context.Context, uid string, isPro bool, expiresAt int64) error

	// AddTotals atomically increments the profile's lifetime counters.
	AddTotals(ctx context.Context, uid string, savedBytes, deletedCount int64) error

	// --- Photo actions ---

	// PutActions writes a batch of per-photo action records.
	PutActions(ctx context.Context, uid string, actions []PhotoAction) error

	// GetActions retrieves every action record for a user.
	GetActions(ctx context.Context, uid string) ([]PhotoAction, error)

	// --- Session logs ---

	// PutSessionLog writes a cleanup session log record.
	PutSessionLog(ctx context.Context, uid string, rec *SessionLog) error

	// GetSessionLog retrieves a session log. Returns nil, nil if not
	// found. Used to make sync uploads idempotent on client retry.
	GetSessionLog(ctx context.Context, uid, sessionID string) (*SessionLog, error)

	// --- Async jobs ---

	// PutJob creates or replaces an async job record.
	PutJob(ctx context.Context, uid string, job *Job) error

	// GetJob retrieves an async job. Returns nil, nil if not found.
	GetJob(ctx context.Context, uid, jobID string) (*Job, error)

	// --- Runtime config ---

	// ConfigValues retrieves all config key-value overrides.
	ConfigValues(ctx context.Context) (map[string]string, error)

	// PutConfigValue writes a single config override.
	PutConfigValue(ctx context.Context, key, value string) error

	// --- Aurora activity marker ---

	// TouchActivity records that the Aurora cluster was just used, so the
	// auto-stop Lambda knows the database is not idle.
	TouchActivity(ctx context.Context) error

	// LastActivity reads the activity marker. Returns the zero time if
	// the marker has never been written.
	LastActivity(ctx context.Context) (time.Time, error)
}

// --- Domain types ---
//
// Each type maps to a DynamoDB record. Fields derived from PK/SK are
// excluded from DynamoDB attributes via dynamodbav:"-" and filled in
// on read.

// User is a profile record (SK = PROFILE).
type User struct {
	UID               string `json:"uid" dynamodbav:"-"`
	Phone             string `json:"-" dynamodbav:"phone"`
	Nickname          string `json:"nickname,omitempty" dynamodbav:"nickname,omitempty"`
	AvatarURL         string `json:"avatarUrl,omitempty" dynamodbav:"avatarUrl,omitempty"`
	IsPro             bool   `json:"isPro" dynamodbav:"isPro"`
	ProExpireAt       int64  `json:"proExpireAt,omitempty" dynamodbav:"proExpireAt,omitempty"`
	CurrentEnergy     int64  `json:"currentEnergy" dynamodbav:"currentEnergy"`
	TotalSavedBytes   int64  `json:"totalSavedBytes" dynamodbav:"totalSavedBytes"`
	TotalDeletedCount int64  `json:"totalDeletedCount" dynamodbav:"totalDeletedCount"`
	LastLoginAt       int64  `json:"lastLoginAt,omitempty" dynamodbav:"lastLoginAt,omitempty"`
	CreatedAt         int64  `json:"createdAt" dynamodbav:"createdAt"`
}

// PhotoAction is a per-photo decision record (SK = ACTION#{photoID}).
// PhotoID is the content MD5 the client computed for the photo.
type PhotoAction struct {
	PhotoID      string `json:"photoId" dynamodbav:"-"`
	ActionType   int    `json:"actionType" dynamodbav:"actionType"`
	ActionSource string `json:"actionSource,omitempty" dynamodbav:"actionSource,omitempty"`
	SessionID    string `json:"sessionId,omitempty" dynamodbav:"sessionId,omitempty"`
	SizeBytes    int64  `json:"sizeBytes,omitempty" dynamodbav:"sizeBytes,omitempty"`
	ActionTimeMs int64  `json:"actionTimeMs" dynamodbav:"actionTimeMs"`
}

// SessionLog is a completed cleanup pass record (SK = SESSION#{sessionID}).
// SessionID is client-generated, at most 64 characters.
type SessionLog struct {
	SessionID     string `json:"sessionId" dynamodbav:"-"`
	Mode          int    `json:"mode" dynamodbav:"mode"`
	KeptCount     int    `json:"keptCount" dynamodbav:"keptCount"`
	DeletedCount  int    `json:"deletedCount" dynamodbav:"deletedCount"`
	FavoriteCount int    `json:"favoriteCount" dynamodbav:"favoriteCount"`
	SavedBytes    int64  `json:"savedBytes" dynamodbav:"savedBytes"`
	StartTimeMs   int64  `json:"startTimeMs" dynamodbav:"startTimeMs"`
	EndTimeMs     int64  `json:"endTimeMs" dynamodbav:"endTimeMs"`
	DeviceID      string `json:"deviceId,omitempty" dynamodbav:"deviceId,omitempty"`
}

// Job is an async job record (SK = JOB#{jobID}).
type Job struct {
	ID        string `json:"id" dynamodbav:"-"`
	UID       string `json:"-" dynamodbav:"-"`
	Type      string `json:"type" dynamodbav:"jobType"`
	Status    string `json:"status" dynamodbav:"status"`
	CreatedAt int64  `json:"createdAt" dynamodbav:"createdAt"`

	// Export results: one part per ZIP archive.
	Parts []ExportPart `json:"parts,omitempty" dynamodbav:"parts,omitempty"`

	// Poster results.
	PosterKey string `json:"posterKey,omitempty" dynamodbav:"posterKey,omitempty"`
	PosterURL string `json:"posterUrl,omitempty" dynamodbav:"posterUrl,omitempty"`

	// Best-shot results: one pick per burst.
	Picks []BestPick `json:"picks,omitempty" dynamodbav:"picks,omitempty"`

	Error string `json:"error,omitempty" dynamodbav:"error,omitempty"`
}

// ExportPart is a single ZIP archive within an export job.
type ExportPart struct {
	Name        string `json:"name" dynamodbav:"name"`
	ZipKey      string `json:"zipKey,omitempty" dynamodbav:"zipKey,omitempty"`
	DownloadURL string `json:"downloadUrl,omitempty" dynamodbav:"downloadUrl,omitempty"`
	FileCount   int    `json:"fileCount" dynamodbav:"fileCount"`
	TotalSize   int64  `json:"totalSize" dynamodbav:"totalSize"`
	ZipSize     int64  `json:"zipSize,omitempty" dynamodbav:"zipSize,omitempty"`
}

// BestPick is the model's choice of best photo within one burst.
type BestPick struct {
	GroupIndex int    `json:"groupIndex" dynamodbav:"groupIndex"`
	PhotoID    string `json:"photoId" dynamodbav:"photoId"`
	Reason     string `json:"reason,omitempty" dynamodbav:"reason,omitempty"`
}
