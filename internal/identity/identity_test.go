package identity

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func testManager(t *testing.T) (*Manager, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "identity.json")
	return NewManager(path, zerolog.Nop()), path
}

func TestEnsureGuestIsStable(t *testing.T) {
	m, path := testManager(t)

	first := m.EnsureGuest()
	if !strings.HasPrefix(first.GuestID, "guest_") {
		t.Fatalf("guest id 应带 guest_ 前缀, 实际 %q", first.GuestID)
	}
	if second := m.EnsureGuest(); second.GuestID != first.GuestID {
		t.Fatalf("guest 模式内 id 应保持不变: %q vs %q", first.GuestID, second.GuestID)
	}

	// 重新加载状态文件应得到同一个 id。
	reloaded := NewManager(path, zerolog.Nop())
	if got := reloaded.Current().GuestID; got != first.GuestID {
		t.Fatalf("重启后应恢复原 guest id, 实际 %q", got)
	}
}

func TestHeaderPrecedence(t *testing.T) {
	id := Identity{Email: "a@b.c", GuestID: "guest_x"}
	key, value, ok := id.Header()
	if !ok || key != HeaderUserEmail || value != "a@b.c" {
		t.Fatalf("登录态应优先使用邮箱头: %s=%s ok=%v", key, value, ok)
	}

	key, value, ok = Identity{GuestID: "guest_x"}.Header()
	if !ok || key != HeaderGuestID || value != "guest_x" {
		t.Fatalf("guest 态应使用 X-Guest-ID: %s=%s ok=%v", key, value, ok)
	}

	if _, _, ok := (Identity{}).Header(); ok {
		t.Fatal("匿名态不应携带任何归属头")
	}
}

func TestSetAuthenticatedReplacesGuest(t *testing.T) {
	m, _ := testManager(t)
	m.EnsureGuest()
	m.SetAuthenticated("a@b.c")

	current := m.Current()
	if current.Kind() != Authenticated || current.GuestID != "" {
		t.Fatalf("登录应整体替换身份而非合并: %#v", current)
	}
}

func TestClearForgetsGuestID(t *testing.T) {
	m, path := testManager(t)
	first := m.EnsureGuest()

	m.Clear()
	if m.Current().Kind() != Anonymous {
		t.Fatal("Clear 后应回到匿名态")
	}
	if _, err := os.Stat(path); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("状态文件应被删除, 实际 err=%v", err)
	}

	if second := m.EnsureGuest(); second.GuestID == first.GuestID {
		t.Fatal("登出后的新 guest id 不应复用旧值")
	}
}

type staticSource struct {
	email string
	err   error
}

func (s staticSource) SessionEmail(context.Context) (string, error) {
	return s.email, s.err
}

func TestResolveFirstEmailWins(t *testing.T) {
	m, _ := testManager(t)
	m.EnsureGuest()

	id := m.Resolve(context.Background(),
		nil,
		staticSource{err: errors.New("oauth down")},
		staticSource{email: "first@b.c"},
		staticSource{email: "second@b.c"},
	)

	if id.Kind() != Authenticated || id.Email != "first@b.c" {
		t.Fatalf("应采用第一个可用会话的邮箱, 实际 %#v", id)
	}
}

func TestResolveKeepsGuestWithoutSession(t *testing.T) {
	m, _ := testManager(t)
	guest := m.EnsureGuest()

	id := m.Resolve(context.Background(), staticSource{})
	if id.Kind() != Guest || id.GuestID != guest.GuestID {
		t.Fatalf("无会话时应保留存储的 guest 身份, 实际 %#v", id)
	}
}
