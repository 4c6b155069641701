// ABOUTME: Lenient decoding of the legacy state groups that get migrated
// ABOUTME: A value of the wrong type decodes as unset and falls back to its default

package legacy

import (
	"encoding/json"

	"github.com/2389/skystate/internal/persisted"
)

// fields is a JSON object split into its members.
type fields map[string]json.RawMessage

// objectFields splits data into its members. Anything but an object yields
// nil, which reads as every member missing.
func objectFields(data []byte) fields {
	var f fields
	if err := json.Unmarshal(data, &f); err != nil {
		return nil
	}
	return f
}

// leaf decodes member key as a T. A missing member or one of another type
// yields the zero value.
func leaf[T any](f fields, key string) T {
	var v T
	raw, ok := f[key]
	if !ok {
		return v
	}
	if err := json.Unmarshal(raw, &v); err != nil {
		var zero T
		return zero
	}
	return v
}

// accounts decodes the account list one entry at a time, skipping entries
// that are null or not account objects.
func accounts(f fields) []persisted.Account {
	items := leaf[[]json.RawMessage](f, "accounts")
	if items == nil {
		return nil
	}

	out := make([]persisted.Account, 0, len(items))
	for _, item := range items {
		if string(item) == "null" {
			continue
		}
		var acct persisted.Account
		if err := json.Unmarshal(item, &acct); err != nil {
			continue
		}
		out = append(out, acct)
	}
	return out
}

func (s *Shell) UnmarshalJSON(data []byte) error {
	f := objectFields(data)

	mode := persisted.ColorMode(leaf[string](f, "colorMode"))
	if !mode.Valid() {
		mode = ""
	}
	*s = Shell{ColorMode: mode}
	return nil
}

func (s *Session) UnmarshalJSON(data []byte) error {
	f := objectFields(data)
	*s = Session{
		Data:     leaf[*SessionData](f, "data"),
		Accounts: accounts(f),
	}
	return nil
}

func (d *SessionData) UnmarshalJSON(data []byte) error {
	f := objectFields(data)
	*d = SessionData{
		Service: leaf[string](f, "service"),
		DID:     leaf[string](f, "did"),
	}
	return nil
}

func (o *Onboarding) UnmarshalJSON(data []byte) error {
	*o = Onboarding{Step: leaf[string](objectFields(data), "step")}
	return nil
}

func (p *Preferences) UnmarshalJSON(data []byte) error {
	f := objectFields(data)
	*p = Preferences{
		PrimaryLanguage:       leaf[string](f, "primaryLanguage"),
		ContentLanguages:      leaf[[]string](f, "contentLanguages"),
		PostLanguage:          leaf[string](f, "postLanguage"),
		PostLanguageHistory:   leaf[[]string](f, "postLanguageHistory"),
		ContentLabels:         f["contentLabels"],
		SavedFeeds:            f["savedFeeds"],
		PinnedFeeds:           f["pinnedFeeds"],
		RequireAltTextEnabled: leaf[bool](f, "requireAltTextEnabled"),
	}
	return nil
}

func (i *InvitedUsers) UnmarshalJSON(data []byte) error {
	f := objectFields(data)
	*i = InvitedUsers{
		SeenDids:      f["seenDids"],
		CopiedInvites: leaf[[]string](f, "copiedInvites"),
	}
	return nil
}

func (m *MutedThreads) UnmarshalJSON(data []byte) error {
	*m = MutedThreads{URIs: leaf[[]string](objectFields(data), "uris")}
	return nil
}

func (r *Reminders) UnmarshalJSON(data []byte) error {
	*r = Reminders{LastEmailConfirm: leaf[string](objectFields(data), "lastEmailConfirm")}
	return nil
}
