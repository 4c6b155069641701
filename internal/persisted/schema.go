// ABOUTME: Persisted state schema and defaults for the client
// ABOUTME: Defines Schema, Account and the defaults every field falls back to

package persisted

import "slices"

// ColorMode is the UI color scheme preference
type ColorMode string

// ColorMode values
const (
	ColorModeSystem ColorMode = "system"
	ColorModeLight  ColorMode = "light"
	ColorModeDark   ColorMode = "dark"
)

// Valid reports whether m is one of the known color modes.
func (m ColorMode) Valid() bool {
	switch m {
	case ColorModeSystem, ColorModeLight, ColorModeDark:
		return true
	}
	return false
}

// Account is a signed-in account as stored on device.
type Account struct {
	Service        string `json:"service"`
	DID            string `json:"did"`
	RefreshJwt     string `json:"refreshJwt,omitempty"`
	AccessJwt      string `json:"accessJwt,omitempty"`
	Handle         string `json:"handle"`
	Email          string `json:"email,omitempty"`
	DisplayName    string `json:"displayName,omitempty"`
	AviURL         string `json:"aviUrl,omitempty"`
	EmailConfirmed bool   `json:"emailConfirmed,omitempty"`
}

// Session holds the known accounts. CurrentAccount is nil when signed out.
type Session struct {
	Accounts       []Account `json:"accounts"`
	CurrentAccount *Account  `json:"currentAccount,omitempty"`
}

// Reminders tracks when reminders were last shown. Empty means never.
type Reminders struct {
	LastEmailConfirm string `json:"lastEmailConfirm,omitempty"`
}

// LanguagePrefs holds language settings.
type LanguagePrefs struct {
	PrimaryLanguage     string   `json:"primaryLanguage"`
	ContentLanguages    []string `json:"contentLanguages"`
	PostLanguage        string   `json:"postLanguage"`        // comma separated codes
	PostLanguageHistory []string `json:"postLanguageHistory"` // most recent first
}

// Invites tracks invite codes the user has copied.
type Invites struct {
	CopiedInvites []string `json:"copiedInvites"`
}

// Onboarding tracks the onboarding flow position.
type Onboarding struct {
	Step string `json:"step"`
}

// Schema is the complete persisted state.
type Schema struct {
	ColorMode             ColorMode     `json:"colorMode"`
	Session               Session       `json:"session"`
	Reminders             Reminders     `json:"reminders"`
	LanguagePrefs         LanguagePrefs `json:"languagePrefs"`
	RequireAltTextEnabled bool          `json:"requireAltTextEnabled"`
	MutedThreads          []string      `json:"mutedThreads"`
	Invites               Invites       `json:"invites"`
	Onboarding            Onboarding    `json:"onboarding"`
}

// OnboardingStepHome is the step of a user who has finished onboarding
const OnboardingStepHome = "Home"

// PostLanguageHistoryLimit caps languagePrefs.postLanguageHistory
const PostLanguageHistoryLimit = 6

var (
	defaultLocales           = []string{"en"}
	fallbackHistoryLanguages = []string{"en", "ja", "pt", "de"}
)

// Defaults returns the default state for an English-locale device.
func Defaults() Schema {
	return NewDefaults(defaultLocales)
}

// NewDefaults returns the default state for a device reporting the given
// locales, most preferred first. Every call returns fresh slices.
func NewDefaults(deviceLocales []string) Schema {
	primary := "en"
	if len(deviceLocales) > 0 && deviceLocales[0] != "" {
		primary = deviceLocales[0]
	}

	history := make([]string, 0, PostLanguageHistoryLimit)
	for _, code := range slices.Concat(deviceLocales, fallbackHistoryLanguages) {
		if code == "" || slices.Contains(history, code) {
			continue
		}
		history = append(history, code)
		if len(history) == PostLanguageHistoryLimit {
			break
		}
	}

	content := make([]string, 0, len(deviceLocales))
	for _, code := range deviceLocales {
		if code != "" {
			content = append(content, code)
		}
	}

	return Schema{
		ColorMode: ColorModeSystem,
		Session: Session{
			Accounts:       []Account{},
			CurrentAccount: nil,
		},
		Reminders: Reminders{},
		LanguagePrefs: LanguagePrefs{
			PrimaryLanguage:     primary,
			ContentLanguages:    content,
			PostLanguage:        primary,
			PostLanguageHistory: history,
		},
		RequireAltTextEnabled: false,
		MutedThreads:          []string{},
		Invites:               Invites{CopiedInvites: []string{}},
		Onboarding:            Onboarding{Step: OnboardingStepHome},
	}
}

// Clone returns a deep copy of s.
func (s Schema) Clone() Schema {
	out := s
	out.Session.Accounts = cloneSlice(s.Session.Accounts)
	if s.Session.CurrentAccount != nil {
		acct := *s.Session.CurrentAccount
		out.Session.CurrentAccount = &acct
	}
	out.LanguagePrefs.ContentLanguages = cloneSlice(s.LanguagePrefs.ContentLanguages)
	out.LanguagePrefs.PostLanguageHistory = cloneSlice(s.LanguagePrefs.PostLanguageHistory)
	out.MutedThreads = cloneSlice(s.MutedThreads)
	out.Invites.CopiedInvites = cloneSlice(s.Invites.CopiedInvites)
	return out
}

// normalize replaces nil lists with empty ones so the stored JSON never
// carries null where a list is expected.
func (s *Schema) normalize() {
	if s.Session.Accounts == nil {
		s.Session.Accounts = []Account{}
	}
	if s.LanguagePrefs.ContentLanguages == nil {
		s.LanguagePrefs.ContentLanguages = []string{}
	}
	if s.LanguagePrefs.PostLanguageHistory == nil {
		s.LanguagePrefs.PostLanguageHistory = []string{}
	}
	if s.MutedThreads == nil {
		s.MutedThreads = []string{}
	}
	if s.Invites.CopiedInvites == nil {
		s.Invites.CopiedInvites = []string{}
	}
}

// fillFrom sets every unset field of s from d. A list is unset only when it
// is missing or null; an empty list is kept.
func (s *Schema) fillFrom(d Schema) {
	if !s.ColorMode.Valid() {
		s.ColorMode = d.ColorMode
	}
	if s.Session.Accounts == nil {
		s.Session.Accounts = cloneSlice(d.Session.Accounts)
	}

	prefs := &s.LanguagePrefs
	if prefs.PrimaryLanguage == "" {
		prefs.PrimaryLanguage = d.LanguagePrefs.PrimaryLanguage
	}
	if prefs.ContentLanguages == nil {
		prefs.ContentLanguages = cloneSlice(d.LanguagePrefs.ContentLanguages)
	}
	if prefs.PostLanguage == "" {
		prefs.PostLanguage = d.LanguagePrefs.PostLanguage
	}
	if prefs.PostLanguageHistory == nil {
		prefs.PostLanguageHistory = cloneSlice(d.LanguagePrefs.PostLanguageHistory)
	}

	if s.MutedThreads == nil {
		s.MutedThreads = cloneSlice(d.MutedThreads)
	}
	if s.Invites.CopiedInvites == nil {
		s.Invites.CopiedInvites = cloneSlice(d.Invites.CopiedInvites)
	}
	if s.Onboarding.Step == "" {
		s.Onboarding.Step = d.Onboarding.Step
	}
	s.normalize()
}

// cloneSlice copies src, keeping nil as nil and empty as empty.
func cloneSlice[T any](src []T) []T {
	if src == nil {
		return nil
	}
	out := make([]T, len(src))
	copy(out, src)
	return out
}
