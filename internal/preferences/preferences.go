// ABOUTME: Preference mutations over the persisted state store
// ABOUTME: Language, color mode, alt text, muted threads, invites and onboarding

package preferences

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"golang.org/x/text/language"

	"github.com/2389/skystate/internal/persisted"
)

// Errors
var (
	ErrInvalidLanguage  = errors.New("invalid language code")
	ErrInvalidColorMode = errors.New("invalid color mode")
)

// Service mutates preferences held in a persisted store.
type Service struct {
	store  *persisted.Store
	logger *slog.Logger
}

// NewService creates a preferences service. Pass nil logger for default.
func NewService(store *persisted.Store, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		store:  store,
		logger: logger.With("component", "preferences"),
	}
}

// LanguagePrefs returns the current language preferences.
func (s *Service) LanguagePrefs() persisted.LanguagePrefs {
	return s.store.Get().LanguagePrefs
}

// SetPrimaryLanguage sets the language used for translations. Setting the
// current value is a no-op.
func (s *Service) SetPrimaryLanguage(ctx context.Context, code string) error {
	code, err := normalizeCode(code)
	if err != nil {
		return err
	}
	if s.store.Get().LanguagePrefs.PrimaryLanguage == code {
		return nil
	}
	return s.store.Update(ctx, func(state *persisted.Schema) {
		state.LanguagePrefs.PrimaryLanguage = code
	})
}

// SetContentLanguages replaces the content language list. An empty list
// means all languages are shown.
func (s *Service) SetContentLanguages(ctx context.Context, codes []string) error {
	normalized := make([]string, 0, len(codes))
	for _, code := range codes {
		c, err := normalizeCode(code)
		if err != nil {
			return err
		}
		if !slices.Contains(normalized, c) {
			normalized = append(normalized, c)
		}
	}
	return s.store.Update(ctx, func(state *persisted.Schema) {
		state.LanguagePrefs.ContentLanguages = normalized
	})
}

// ToggleContentLanguage adds code to the content languages, or removes it if
// already present.
func (s *Service) ToggleContentLanguage(ctx context.Context, code string) error {
	code, err := normalizeCode(code)
	if err != nil {
		return err
	}
	return s.store.Update(ctx, func(state *persisted.Schema) {
		langs := state.LanguagePrefs.ContentLanguages
		if i := slices.Index(langs, code); i >= 0 {
			state.LanguagePrefs.ContentLanguages = slices.Delete(langs, i, i+1)
		} else {
			state.LanguagePrefs.ContentLanguages = append(langs, code)
		}
	})
}

// SetPostLanguage sets the language(s) new posts are tagged with.
// commaSeparated may hold several codes, e.g. "en,ja".
func (s *Service) SetPostLanguage(ctx context.Context, commaSeparated string) error {
	parts := strings.Split(commaSeparated, ",")
	codes := make([]string, 0, len(parts))
	for _, part := range parts {
		c, err := normalizeCode(part)
		if err != nil {
			return err
		}
		if !slices.Contains(codes, c) {
			codes = append(codes, c)
		}
	}
	return s.store.Update(ctx, func(state *persisted.Schema) {
		state.LanguagePrefs.PostLanguage = strings.Join(codes, ",")
	})
}

// SavePostLanguageToHistory moves the current post language to the front of
// the history, dropping older duplicates and capping its length.
func (s *Service) SavePostLanguageToHistory(ctx context.Context) error {
	return s.store.Update(ctx, func(state *persisted.Schema) {
		prefs := &state.LanguagePrefs
		prefs.PostLanguageHistory = pushFront(prefs.PostLanguageHistory, prefs.PostLanguage, persisted.PostLanguageHistoryLimit)
	})
}

// SetColorMode sets the UI color scheme.
func (s *Service) SetColorMode(ctx context.Context, mode persisted.ColorMode) error {
	if !mode.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidColorMode, mode)
	}
	return s.store.Update(ctx, func(state *persisted.Schema) {
		state.ColorMode = mode
	})
}

// SetRequireAltTextEnabled toggles the alt text requirement for image posts.
func (s *Service) SetRequireAltTextEnabled(ctx context.Context, enabled bool) error {
	return s.store.Update(ctx, func(state *persisted.Schema) {
		state.RequireAltTextEnabled = enabled
	})
}

// ToggleMutedThread mutes the thread rooted at uri, or unmutes it if it is
// already muted. It reports whether the thread is muted afterwards.
func (s *Service) ToggleMutedThread(ctx context.Context, uri string) (bool, error) {
	if strings.TrimSpace(uri) == "" {
		return false, errors.New("thread uri is required")
	}

	var muted bool
	err := s.store.Update(ctx, func(state *persisted.Schema) {
		if i := slices.Index(state.MutedThreads, uri); i >= 0 {
			state.MutedThreads = slices.Delete(state.MutedThreads, i, i+1)
			muted = false
			return
		}
		state.MutedThreads = append(state.MutedThreads, uri)
		muted = true
	})
	if err != nil {
		return false, err
	}
	s.logger.Debug("toggled thread mute", "uri", uri, "muted", muted)
	return muted, nil
}

// IsThreadMuted reports whether the thread rooted at uri is muted.
func (s *Service) IsThreadMuted(uri string) bool {
	return slices.Contains(s.store.Get().MutedThreads, uri)
}

// MarkInviteCopied records that an invite code was copied. Codes are kept once.
func (s *Service) MarkInviteCopied(ctx context.Context, code string) error {
	if slices.Contains(s.store.Get().Invites.CopiedInvites, code) {
		return nil
	}
	return s.store.Update(ctx, func(state *persisted.Schema) {
		if !slices.Contains(state.Invites.CopiedInvites, code) {
			state.Invites.CopiedInvites = append(state.Invites.CopiedInvites, code)
		}
	})
}

// SetOnboardingStep records the current onboarding step.
func (s *Service) SetOnboardingStep(ctx context.Context, step string) error {
	if step == "" {
		step = persisted.OnboardingStepHome
	}
	return s.store.Update(ctx, func(state *persisted.Schema) {
		state.Onboarding.Step = step
	})
}

// normalizeCode validates a BCP 47 language code and returns its canonical form.
func normalizeCode(code string) (string, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return "", fmt.Errorf("%w: empty", ErrInvalidLanguage)
	}
	tag, err := language.Parse(code)
	if err != nil {
		return "", fmt.Errorf("%w: %q: %v", ErrInvalidLanguage, code, err)
	}
	return tag.String(), nil
}

// pushFront returns list with v first, other occurrences of v removed,
// truncated to limit.
func pushFront(list []string, v string, limit int) []string {
	out := make([]string, 0, limit)
	out = append(out, v)
	for _, item := range list {
		if item == v {
			continue
		}
		out = append(out, item)
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}
