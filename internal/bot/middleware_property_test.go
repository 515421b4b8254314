package bot

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tele "gopkg.in/telebot.v3"
	"pgregory.net/rapid"

	"duel-game-bot/internal/config"
	"duel-game-bot/internal/pkg/ratelimit"
)

// fakeContext implements the parts of tele.Context the middleware uses.
type fakeContext struct {
	tele.Context

	sender    *tele.User
	chat      *tele.Chat
	cb        *tele.Callback
	replies   []string
	responses int
}

func (c *fakeContext) Sender() *tele.User        { return c.sender }
func (c *fakeContext) Chat() *tele.Chat          { return c.chat }
func (c *fakeContext) Callback() *tele.Callback { return c.cb }
func (c *fakeContext) Text() string              { return "/cmd" }

func (c *fakeContext) Reply(what interface{}, _ ...interface{}) error {
	c.replies = append(c.replies, what.(string))
	return nil
}

func (c *fakeContext) Respond(_ ...*tele.CallbackResponse) error {
	c.responses++
	return nil
}

// run passes c through mw and reports whether the inner handler ran.
func run(mw tele.MiddlewareFunc, c tele.Context) (bool, error) {
	called := false
	err := mw(func(tele.Context) error {
		called = true
		return nil
	})(c)
	return called, err
}

func userIn(ids []int64, id int64) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

// TestAdminMiddlewareProperty checks that exactly the configured admins
// reach admin handlers.
func TestAdminMiddlewareProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		adminIDs := rapid.SliceOfN(rapid.Int64Range(1, 1000), 1, 10).Draw(t, "admins")
		userID := rapid.Int64Range(1, 1000).Draw(t, "user")
		cfg := &config.Config{Admin: config.AdminConfig{IDs: adminIDs}}

		c := &fakeContext{sender: &tele.User{ID: userID}, chat: &tele.Chat{ID: -1, Type: tele.ChatGroup}}
		called, err := run(AdminMiddleware(cfg), c)
		if err != nil {
			t.Fatalf("middleware: %v", err)
		}

		want := userIn(adminIDs, userID)
		if called != want {
			t.Fatalf("user %d admins %v: handler ran=%v, want %v", userID, adminIDs, called, want)
		}
		if !want && len(c.replies) != 1 {
			t.Fatalf("non-admin got %d replies, want 1", len(c.replies))
		}
	})
}

// TestWhitelistMiddlewareProperty checks that group updates pass exactly
// when the chat is whitelisted, or the whitelist is empty.
func TestWhitelistMiddlewareProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		chats := rapid.SliceOfN(rapid.Int64Range(-1000, -1), 0, 10).Draw(t, "chats")
		chatID := rapid.Int64Range(-1000, -1).Draw(t, "chat")
		cfg := &config.Config{Whitelist: config.WhitelistConfig{Chats: chats}}

		c := &fakeContext{sender: &tele.User{ID: 7}, chat: &tele.Chat{ID: chatID, Type: tele.ChatSuperGroup}}
		called, err := run(WhitelistMiddleware(cfg), c)
		if err != nil {
			t.Fatalf("middleware: %v", err)
		}

		want := len(chats) == 0 || userIn(chats, chatID)
		if called != want {
			t.Fatalf("chat %d whitelist %v: handler ran=%v, want %v", chatID, chats, called, want)
		}
	})
}

func TestWhitelistMiddleware_PrivateChatAfterGroup(t *testing.T) {
	cfg := &config.Config{Whitelist: config.WhitelistConfig{Chats: []int64{-100}}}
	mw := WhitelistMiddleware(cfg)
	user := &tele.User{ID: 5}
	private := &tele.Chat{ID: 5, Type: tele.ChatPrivate}

	called, err := run(mw, &fakeContext{sender: user, chat: private})
	require.NoError(t, err)
	assert.False(t, called, "unknown users are ignored in private chat")

	called, err = run(mw, &fakeContext{sender: user, chat: &tele.Chat{ID: -100, Type: tele.ChatGroup}})
	require.NoError(t, err)
	assert.True(t, called)

	called, err = run(mw, &fakeContext{sender: user, chat: private})
	require.NoError(t, err)
	assert.True(t, called, "users seen in a whitelisted group may use private chat")
}

func TestRateLimitMiddleware(t *testing.T) {
	mw := RateLimitMiddleware(ratelimit.New(1.0/3600, 1))
	user := &tele.User{ID: 9}

	called, _ := run(mw, &fakeContext{sender: user})
	assert.True(t, called)

	c := &fakeContext{sender: user, cb: &tele.Callback{Data: "g|rps|k|rock"}}
	called, _ = run(mw, c)
	assert.False(t, called)
	assert.Equal(t, 1, c.responses, "throttled button presses are answered")
}

func TestRecoveryMiddleware(t *testing.T) {
	c := &fakeContext{sender: &tele.User{ID: 1}}
	err := RecoveryMiddleware()(func(tele.Context) error {
		panic("boom")
	})(c)
	require.NoError(t, err)
	require.Len(t, c.replies, 1)
	assert.Contains(t, c.replies[0], "Internal error")

	want := errors.New("handler failed")
	err = RecoveryMiddleware()(func(tele.Context) error { return want })(c)
	assert.ErrorIs(t, err, want)
}
