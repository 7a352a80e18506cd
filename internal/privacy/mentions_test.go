package privacy

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitizeMentions_Single(t *testing.T) {
	assert.Equal(t, "<plain>@markov</plain>", SanitizeMentions("@markov"))
}

func TestSanitizeMentions_Instance(t *testing.T) {
	assert.Equal(t, "<plain>@markov@mldchan.dev</plain>", SanitizeMentions("@markov@mldchan.dev"))
}

func TestSanitizeMentions_Multiple(t *testing.T) {
	got := SanitizeMentions("@markov@mldchan.dev @markov")
	assert.Equal(t, "<plain>@markov@mldchan.dev</plain> <plain>@markov</plain>", got)
}

func TestSanitizeMentions_NoMentions(t *testing.T) {
	for _, text := range []string{
		"",
		"plain text with no handles",
		"mail me at example dot com",
		"trailing at sign @",
		"@ alone",
		"ünïcödé and emoji 🎉",
	} {
		assert.Equal(t, text, SanitizeMentions(text), text)
	}
}

func TestSanitizeMentions_InSentence(t *testing.T) {
	got := SanitizeMentions("hello @alice, have you met @bob@example.social? bye")
	assert.Equal(t, "hello <plain>@alice</plain>, have you met <plain>@bob@example.social</plain>? bye", got)
}

func TestSanitizeMentions_Adjacent(t *testing.T) {
	// Without whitespace the second handle is read as the first one's host.
	assert.Equal(t, "<plain>@a@b</plain><plain>@c</plain>", SanitizeMentions("@a@b@c"))
	assert.Equal(t, "<plain>@a</plain> <plain>@b</plain> <plain>@c</plain>", SanitizeMentions("@a @b @c"))
}

func TestSanitizeMentions_HostStopsAtNonWord(t *testing.T) {
	assert.Equal(t, "<plain>@user_01@host</plain>-less-x", SanitizeMentions("@user_01@host-less-x"))
	assert.Equal(t, "<plain>@bob@sub.example.org</plain>", SanitizeMentions("@bob@sub.example.org"))
}

func TestSanitizeMentions_WrapsEachOnce(t *testing.T) {
	got := SanitizeMentions("@alice and @bob@example.org")
	assert.Equal(t, "<plain>@alice</plain> and <plain>@bob@example.org</plain>", got)
	assert.Equal(t, 2, strings.Count(got, "<plain>"))
	assert.Equal(t, 2, strings.Count(got, "</plain>"))
	assert.NotContains(t, got, "<plain><plain>")
}

func TestSanitizeMentions_UnicodeHandles(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"@josé", "<plain>@josé</plain>"},
		{"@ミク", "<plain>@ミク</plain>"},
		{"@user@münchen.social", "<plain>@user@münchen.social</plain>"},
		{"@café@host", "<plain>@café@host</plain>"},
		{"hi @Ñandú_2, bye", "hi <plain>@Ñandú_2</plain>, bye"},
		// combining acute accent after a base letter
		{"@jose\u0301", "<plain>@jose\u0301</plain>"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, SanitizeMentions(tt.in), tt.in)
	}
}
