package legacy

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/2389/skystate/internal/persisted"
)

func testAccount(did, handle string) persisted.Account {
	return persisted.Account{
		Service:        "https://bsky.social",
		DID:            did,
		RefreshJwt:     "refresh-" + handle,
		AccessJwt:      "access-" + handle,
		Handle:         handle,
		Email:          handle + "@example.com",
		DisplayName:    "User " + handle,
		AviURL:         "https://cdn.example.com/" + handle + ".jpg",
		EmailConfirmed: true,
	}
}

func fullLegacy() *Schema {
	return &Schema{
		Shell: &Shell{ColorMode: persisted.ColorModeDark},
		Session: &Session{
			Data: &SessionData{Service: "https://bsky.social", DID: "did:plc:b"},
			Accounts: []persisted.Account{
				testAccount("did:plc:a", "alice.test"),
				testAccount("did:plc:b", "bob.test"),
			},
		},
		Me:         json.RawMessage(`{"did":"did:plc:b","handle":"bob.test"}`),
		Onboarding: &Onboarding{Step: "Welcome"},
		Preferences: &Preferences{
			PrimaryLanguage:       "de",
			ContentLanguages:      []string{"de", "en"},
			PostLanguage:          "de,en",
			PostLanguageHistory:   []string{"de,en", "de"},
			ContentLabels:         json.RawMessage(`{"nsfw":"hide"}`),
			SavedFeeds:            json.RawMessage(`["at://feed/1"]`),
			PinnedFeeds:           json.RawMessage(`["at://feed/1"]`),
			RequireAltTextEnabled: true,
		},
		InvitedUsers: &InvitedUsers{
			SeenDids:      json.RawMessage(`["did:plc:c"]`),
			CopiedInvites: []string{"bsky-social-abcde"},
		},
		MutedThreads: &MutedThreads{URIs: []string{"at://did:plc:a/app.bsky.feed.post/1"}},
		Reminders:    &Reminders{LastEmailConfirm: "2023-11-01T12:00:00.000Z"},
	}
}

func TestTransform_Empty(t *testing.T) {
	assert.Equal(t, persisted.Defaults(), Transform(&Schema{}))
}

func TestTransform_Nil(t *testing.T) {
	assert.Equal(t, persisted.Defaults(), Transform(nil))
}

func TestTransform_Full(t *testing.T) {
	got := Transform(fullLegacy())

	assert.Equal(t, persisted.ColorModeDark, got.ColorMode)
	require.Len(t, got.Session.Accounts, 2)
	assert.Equal(t, "did:plc:a", got.Session.Accounts[0].DID)
	assert.Equal(t, "did:plc:b", got.Session.Accounts[1].DID)
	require.NotNil(t, got.Session.CurrentAccount)
	assert.Equal(t, testAccount("did:plc:b", "bob.test"), *got.Session.CurrentAccount)
	assert.Equal(t, "2023-11-01T12:00:00.000Z", got.Reminders.LastEmailConfirm)
	assert.Equal(t, persisted.LanguagePrefs{
		PrimaryLanguage:     "de",
		ContentLanguages:    []string{"de", "en"},
		PostLanguage:        "de,en",
		PostLanguageHistory: []string{"de,en", "de"},
	}, got.LanguagePrefs)
	assert.True(t, got.RequireAltTextEnabled)
	assert.Equal(t, []string{"at://did:plc:a/app.bsky.feed.post/1"}, got.MutedThreads)
	assert.Equal(t, []string{"bsky-social-abcde"}, got.Invites.CopiedInvites)
	assert.Equal(t, "Welcome", got.Onboarding.Step)
}

func TestTransform_CurrentAccount(t *testing.T) {
	accounts := []persisted.Account{
		testAccount("did:plc:a", "alice.test"),
		testAccount("did:plc:b", "bob.test"),
	}

	tests := []struct {
		name    string
		session *Session
		want    *persisted.Account
	}{
		{
			name:    "matches second account",
			session: &Session{Data: &SessionData{DID: "did:plc:b"}, Accounts: accounts},
			want:    &accounts[1],
		},
		{
			name:    "unknown did",
			session: &Session{Data: &SessionData{DID: "did:plc:zzz"}, Accounts: accounts},
			want:    nil,
		},
		{
			name:    "no session data",
			session: &Session{Accounts: accounts},
			want:    nil,
		},
		{
			name:    "no accounts",
			session: &Session{Data: &SessionData{DID: "did:plc:a"}},
			want:    nil,
		},
		{
			name:    "no session",
			session: nil,
			want:    nil,
		},
		{
			name: "first of duplicates wins",
			session: &Session{
				Data: &SessionData{DID: "did:plc:a"},
				Accounts: []persisted.Account{
					testAccount("did:plc:a", "first.test"),
					testAccount("did:plc:a", "second.test"),
				},
			},
			want: func() *persisted.Account {
				a := testAccount("did:plc:a", "first.test")
				return &a
			}(),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Transform(&Schema{Session: tt.session})
			assert.Equal(t, tt.want, got.Session.CurrentAccount)
		})
	}
}

func TestTransform_CurrentAccountDoesNotAlias(t *testing.T) {
	legacy := fullLegacy()
	got := Transform(legacy)

	got.Session.CurrentAccount.Handle = "changed"
	assert.Equal(t, "bob.test", got.Session.Accounts[1].Handle)
	assert.Equal(t, "bob.test", legacy.Session.Accounts[1].Handle)

	got.MutedThreads[0] = "changed"
	assert.Equal(t, "at://did:plc:a/app.bsky.feed.post/1", legacy.MutedThreads.URIs[0])
}

func TestTransform_FalsyValuesUseDefaults(t *testing.T) {
	legacy := &Schema{
		Shell:        &Shell{ColorMode: ""},
		Session:      &Session{Accounts: []persisted.Account{}},
		Onboarding:   &Onboarding{Step: ""},
		MutedThreads: &MutedThreads{URIs: []string{}},
		Reminders:    &Reminders{LastEmailConfirm: ""},
		Preferences: &Preferences{
			PrimaryLanguage:       "",
			ContentLanguages:      []string{},
			RequireAltTextEnabled: false,
		},
		InvitedUsers: &InvitedUsers{CopiedInvites: []string{}},
	}

	assert.Equal(t, persisted.Defaults(), Transform(legacy))
}

func TestTransformWithDefaults(t *testing.T) {
	defaults := persisted.NewDefaults([]string{"pt"})
	defaults.Onboarding.Step = "Welcome"

	got := TransformWithDefaults(&Schema{
		Preferences: &Preferences{PostLanguage: "ja"},
	}, defaults)

	assert.Equal(t, "pt", got.LanguagePrefs.PrimaryLanguage)
	assert.Equal(t, "ja", got.LanguagePrefs.PostLanguage)
	assert.Equal(t, "Welcome", got.Onboarding.Step)

	// Mutating the result must not leak into the defaults
	got.LanguagePrefs.ContentLanguages[0] = "xx"
	assert.Equal(t, "pt", defaults.LanguagePrefs.ContentLanguages[0])
}

func TestParse_PartialBlob(t *testing.T) {
	legacy, err := Parse([]byte(`{"shell":{"colorMode":"light"},"session":null,"preferences":{}}`))
	require.NoError(t, err)

	got := Transform(legacy)
	assert.Equal(t, persisted.ColorModeLight, got.ColorMode)
	assert.Nil(t, got.Session.CurrentAccount)
	assert.Equal(t, persisted.Defaults().LanguagePrefs, got.LanguagePrefs)
}

func TestParse_DropsUnmigratedFields(t *testing.T) {
	legacy, err := Parse([]byte(`{
		"me": {"did": "did:plc:a", "handle": "alice.test"},
		"invitedUsers": {"seenDids": ["did:plc:x"]},
		"preferences": {"savedFeeds": ["at://f"], "pinnedFeeds": ["at://f"], "contentLabels": {"gore": "warn"}}
	}`))
	require.NoError(t, err)
	assert.Equal(t, persisted.Defaults(), Transform(legacy))
}

func TestParse_Errors(t *testing.T) {
	for _, raw := range []string{`{bad json`, `null`, `[1,2,3]`, `"root"`, `42`} {
		t.Run(raw, func(t *testing.T) {
			_, err := Parse([]byte(raw))
			assert.Error(t, err)
		})
	}
}

func TestParse_DroppedFieldsOfAnyShape(t *testing.T) {
	legacy, err := Parse([]byte(`{
		"me": "stale",
		"invitedUsers": {"seenDids": {"did:plc:x": true}, "copiedInvites": ["bsky-social-abcde"]},
		"preferences": {"savedFeeds": 3, "pinnedFeeds": "x", "contentLabels": [1], "primaryLanguage": "ja"},
		"session": {"accounts": [{"service": "https://bsky.social", "did": "did:plc:a", "handle": "alice.test"}]}
	}`))
	require.NoError(t, err)

	got := Transform(legacy)
	require.Len(t, got.Session.Accounts, 1)
	assert.Equal(t, "alice.test", got.Session.Accounts[0].Handle)
	assert.Equal(t, "ja", got.LanguagePrefs.PrimaryLanguage)
	assert.Equal(t, []string{"bsky-social-abcde"}, got.Invites.CopiedInvites)
}

func TestParse_WrongTypesFallBackToDefaults(t *testing.T) {
	legacy, err := Parse([]byte(`{
		"shell": {"colorMode": 7},
		"session": {
			"data": "did:plc:a",
			"accounts": [
				null,
				"not an account",
				{"service": "https://bsky.social", "did": "did:plc:a", "handle": "alice.test"}
			]
		},
		"preferences": {
			"primaryLanguage": ["de"],
			"contentLanguages": "de",
			"postLanguage": "de",
			"postLanguageHistory": [1, 2],
			"requireAltTextEnabled": "yes"
		},
		"mutedThreads": ["at://thread"],
		"onboarding": {"step": 2},
		"reminders": {"lastEmailConfirm": false},
		"invitedUsers": "none"
	}`))
	require.NoError(t, err)

	got := Transform(legacy)
	defaults := persisted.Defaults()

	assert.Equal(t, defaults.ColorMode, got.ColorMode)
	require.Len(t, got.Session.Accounts, 1)
	assert.Equal(t, "did:plc:a", got.Session.Accounts[0].DID)
	assert.Nil(t, got.Session.CurrentAccount)
	assert.Equal(t, defaults.LanguagePrefs.PrimaryLanguage, got.LanguagePrefs.PrimaryLanguage)
	assert.Equal(t, defaults.LanguagePrefs.ContentLanguages, got.LanguagePrefs.ContentLanguages)
	assert.Equal(t, "de", got.LanguagePrefs.PostLanguage)
	assert.Equal(t, defaults.LanguagePrefs.PostLanguageHistory, got.LanguagePrefs.PostLanguageHistory)
	assert.False(t, got.RequireAltTextEnabled)
	assert.Equal(t, defaults.MutedThreads, got.MutedThreads)
	assert.Equal(t, defaults.Onboarding, got.Onboarding)
	assert.Equal(t, defaults.Reminders, got.Reminders)
	assert.Equal(t, defaults.Invites, got.Invites)
}

func TestParse_UnknownColorModeFallsBack(t *testing.T) {
	legacy, err := Parse([]byte(`{"shell": {"colorMode": "sepia"}}`))
	require.NoError(t, err)
	assert.Equal(t, persisted.ColorModeSystem, Transform(legacy).ColorMode)
}
