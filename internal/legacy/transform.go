// ABOUTME: Pure mapping from the legacy state blob to the current schema
// ABOUTME: Missing or falsy legacy values fall back to the schema defaults

package legacy

import (
	"slices"

	"github.com/2389/skystate/internal/persisted"
)

// Transform maps legacy state onto the current schema using persisted.Defaults.
// A nil legacy value is treated as an empty blob.
func Transform(legacy *Schema) persisted.Schema {
	return TransformWithDefaults(legacy, persisted.Defaults())
}

// TransformWithDefaults maps legacy state onto the current schema, taking every
// missing or falsy field from defaults. It never fails and never aliases
// slices of either argument.
func TransformWithDefaults(legacy *Schema, defaults persisted.Schema) persisted.Schema {
	if legacy == nil {
		legacy = &Schema{}
	}
	d := defaults.Clone()

	var (
		shell        = deref(legacy.Shell)
		session      = deref(legacy.Session)
		prefs        = deref(legacy.Preferences)
		invitedUsers = deref(legacy.InvitedUsers)
		mutedThreads = deref(legacy.MutedThreads)
		reminders    = deref(legacy.Reminders)
		onboarding   = deref(legacy.Onboarding)
	)

	return persisted.Schema{
		ColorMode: or(shell.ColorMode, d.ColorMode),
		Session: persisted.Session{
			Accounts:       orSlice(session.Accounts, d.Session.Accounts),
			CurrentAccount: currentAccount(session, d.Session.CurrentAccount),
		},
		Reminders: persisted.Reminders{
			LastEmailConfirm: or(reminders.LastEmailConfirm, d.Reminders.LastEmailConfirm),
		},
		LanguagePrefs: persisted.LanguagePrefs{
			PrimaryLanguage:     or(prefs.PrimaryLanguage, d.LanguagePrefs.PrimaryLanguage),
			ContentLanguages:    orSlice(prefs.ContentLanguages, d.LanguagePrefs.ContentLanguages),
			PostLanguage:        or(prefs.PostLanguage, d.LanguagePrefs.PostLanguage),
			PostLanguageHistory: orSlice(prefs.PostLanguageHistory, d.LanguagePrefs.PostLanguageHistory),
		},
		RequireAltTextEnabled: or(prefs.RequireAltTextEnabled, d.RequireAltTextEnabled),
		MutedThreads:          orSlice(mutedThreads.URIs, d.MutedThreads),
		Invites: persisted.Invites{
			CopiedInvites: orSlice(invitedUsers.CopiedInvites, d.Invites.CopiedInvites),
		},
		Onboarding: persisted.Onboarding{
			Step: or(onboarding.Step, d.Onboarding.Step),
		},
	}
}

// currentAccount finds the first account whose DID matches session.data.did.
func currentAccount(session Session, fallback *persisted.Account) *persisted.Account {
	if session.Data == nil || session.Data.DID == "" {
		return fallback
	}
	i := slices.IndexFunc(session.Accounts, func(a persisted.Account) bool {
		return a.DID == session.Data.DID
	})
	if i < 0 {
		return fallback
	}
	acct := session.Accounts[i]
	return &acct
}

// deref returns *p, or the zero value when p is nil.
func deref[T any](p *T) T {
	if p == nil {
		var zero T
		return zero
	}
	return *p
}

// or returns v unless it is the zero value, in which case it returns def.
func or[T comparable](v, def T) T {
	var zero T
	if v == zero {
		return def
	}
	return v
}

// orSlice returns a copy of v unless it is empty, in which case it returns def.
func orSlice[T any](v, def []T) []T {
	if len(v) == 0 {
		return def
	}
	return slices.Clone(v)
}
