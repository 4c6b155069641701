// ABOUTME: Shape of the state blob written by the retired client
// ABOUTME: Every group is optional so partially written blobs still decode

package legacy

import (
	"encoding/json"

	"github.com/2389/skystate/internal/persisted"
)

// Schema is the legacy serialized state. Every nested group is a pointer
// and may be nil; leaves are plain values whose zero value means "not set".
// Groups that are not migrated are kept as raw JSON and never decoded.
type Schema struct {
	Shell        *Shell          `json:"shell,omitempty"`
	Session      *Session        `json:"session,omitempty"`
	Me           json.RawMessage `json:"me,omitempty"` // cached profile, not migrated
	Onboarding   *Onboarding     `json:"onboarding,omitempty"`
	Preferences  *Preferences    `json:"preferences,omitempty"`
	InvitedUsers *InvitedUsers   `json:"invitedUsers,omitempty"`
	MutedThreads *MutedThreads   `json:"mutedThreads,omitempty"`
	Reminders    *Reminders      `json:"reminders,omitempty"`
}

// Shell holds UI shell settings.
type Shell struct {
	ColorMode persisted.ColorMode `json:"colorMode,omitempty"`
}

// Session holds the legacy session. Data identifies the current account.
type Session struct {
	Data     *SessionData        `json:"data,omitempty"`
	Accounts []persisted.Account `json:"accounts,omitempty"`
}

// SessionData points at the account that was signed in.
type SessionData struct {
	Service string `json:"service,omitempty"`
	DID     string `json:"did,omitempty"`
}

// Onboarding holds the onboarding step.
type Onboarding struct {
	Step string `json:"step,omitempty"`
}

// Preferences holds legacy preferences. ContentLabels, SavedFeeds and
// PinnedFeeds are not migrated.
type Preferences struct {
	PrimaryLanguage       string          `json:"primaryLanguage,omitempty"`
	ContentLanguages      []string        `json:"contentLanguages,omitempty"`
	PostLanguage          string          `json:"postLanguage,omitempty"`
	PostLanguageHistory   []string        `json:"postLanguageHistory,omitempty"`
	ContentLabels         json.RawMessage `json:"contentLabels,omitempty"`
	SavedFeeds            json.RawMessage `json:"savedFeeds,omitempty"`
	PinnedFeeds           json.RawMessage `json:"pinnedFeeds,omitempty"`
	RequireAltTextEnabled bool            `json:"requireAltTextEnabled,omitempty"`
}

// InvitedUsers tracks invite activity. SeenDids is not migrated.
type InvitedUsers struct {
	SeenDids      json.RawMessage `json:"seenDids,omitempty"`
	CopiedInvites []string        `json:"copiedInvites,omitempty"`
}

// MutedThreads lists muted thread root URIs.
type MutedThreads struct {
	URIs []string `json:"uris,omitempty"`
}

// Reminders holds reminder timestamps.
type Reminders struct {
	LastEmailConfirm string `json:"lastEmailConfirm,omitempty"`
}
