package bot

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/diamondburned/arikawa/v3/discord"
)

type fakeConn struct {
	mu      sync.Mutex
	channel discord.ChannelID
	left    bool
}

func (c *fakeConn) Write(b []byte) (int, error) { return len(b), nil }

func (c *fakeConn) JoinChannel(_ context.Context, ch discord.ChannelID, _, _ bool) error {
	c.mu.Lock()
	c.channel = ch
	c.mu.Unlock()
	return nil
}

func (c *fakeConn) Leave(context.Context) error {
	c.mu.Lock()
	c.left = true
	c.mu.Unlock()
	return nil
}

func TestVoiceJoinDoesNotBlockOtherGuilds(t *testing.T) {
	v := newVoiceManager(nil)

	release := make(chan struct{})
	dialing := make(chan struct{})
	v.dial = func(ctx context.Context, guildID discord.GuildID, ch discord.ChannelID) (voiceConn, error) {
		if guildID == 1 {
			close(dialing)
			<-release
		}
		return &fakeConn{channel: ch}, nil
	}

	if _, err := v.Join(context.Background(), 2, 20); err != nil {
		t.Fatal(err)
	}

	joined := make(chan error, 1)
	go func() {
		_, err := v.Join(context.Background(), 1, 10)
		joined <- err
	}()
	<-dialing

	done := make(chan struct{})
	go func() {
		if ch, ok := v.Channel(2); !ok || ch != 20 {
			t.Errorf("Channel(2) = %v, %v", ch, ok)
		}
		if _, ok := v.Channel(1); ok {
			t.Error("guild 1 has a channel before its join finished")
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Channel blocked while another guild was joining")
	}

	close(release)
	if err := <-joined; err != nil {
		t.Fatal(err)
	}
	if ch, ok := v.Channel(1); !ok || ch != 10 {
		t.Errorf("Channel(1) = %v, %v after joining", ch, ok)
	}
}

func TestVoiceMoveAndLeave(t *testing.T) {
	v := newVoiceManager(nil)

	conn := &fakeConn{}
	dials := 0
	v.dial = func(_ context.Context, _ discord.GuildID, ch discord.ChannelID) (voiceConn, error) {
		dials++
		conn.channel = ch
		return conn, nil
	}

	ctx := context.Background()
	for _, ch := range []discord.ChannelID{10, 10, 11} {
		if _, err := v.Join(ctx, 1, ch); err != nil {
			t.Fatal(err)
		}
	}
	if dials != 1 {
		t.Errorf("dialed %d times, want 1", dials)
	}
	if got, _ := v.Channel(1); got != 11 || conn.channel != 11 {
		t.Errorf("channel = %v, connection in %v, want 11", got, conn.channel)
	}

	if err := v.Leave(ctx, 1); err != nil {
		t.Fatal(err)
	}
	if !conn.left {
		t.Error("connection wasn't closed")
	}
	if _, ok := v.Channel(1); ok {
		t.Error("still in a channel after leaving")
	}
	if err := v.Leave(ctx, 1); err != nil {
		t.Errorf("second leave: %v", err)
	}
}
