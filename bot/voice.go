package bot

import (
	"context"
	"io"
	"sync"

	"emperror.dev/errors"
	"github.com/diamondburned/arikawa/v3/discord"
	"github.com/diamondburned/arikawa/v3/voice"
	"github.com/diamondburned/arikawa/v3/voice/voicegateway"
	"github.com/xf8b/xf8bot/common/log"
	"github.com/xf8b/xf8bot/music"
)

// VoiceManager holds the bot's voice connections, at most one per guild.
type VoiceManager struct {
	// dial opens a new connection to a voice channel.
	dial func(ctx context.Context, guildID discord.GuildID, channelID discord.ChannelID) (voiceConn, error)
	bot  *Bot

	mu       sync.Mutex
	sessions map[discord.GuildID]*voiceSession
	// locks serialize joining and leaving per guild.
	locks map[discord.GuildID]*sync.Mutex
}

// voiceConn is a voice connection Opus frames are written to.
type voiceConn interface {
	io.Writer
	JoinChannel(ctx context.Context, channelID discord.ChannelID, mute, deaf bool) error
	Leave(ctx context.Context) error
}

type voiceSession struct {
	voiceConn
	channelID discord.ChannelID
}

func newVoiceManager(bot *Bot) *VoiceManager {
	v := &VoiceManager{
		bot:      bot,
		sessions: make(map[discord.GuildID]*voiceSession),
		locks:    make(map[discord.GuildID]*sync.Mutex),
	}
	v.dial = v.dialSession
	return v
}

// UserChannel returns the voice channel the user is in.
func (v *VoiceManager) UserChannel(_ context.Context, guildID discord.GuildID, userID discord.UserID) (discord.ChannelID, bool) {
	s, _ := v.bot.Router.StateFromGuildID(guildID)

	vs, err := s.VoiceState(guildID, userID)
	if err != nil || !vs.ChannelID.IsValid() {
		return 0, false
	}
	return vs.ChannelID, true
}

// Channel returns the voice channel the bot is connected to.
func (v *VoiceManager) Channel(guildID discord.GuildID) (discord.ChannelID, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()

	vs, ok := v.sessions[guildID]
	if !ok {
		return 0, false
	}
	return vs.channelID, true
}

func (v *VoiceManager) guildLock(guildID discord.GuildID) *sync.Mutex {
	v.mu.Lock()
	defer v.mu.Unlock()

	l, ok := v.locks[guildID]
	if !ok {
		l = &sync.Mutex{}
		v.locks[guildID] = l
	}
	return l
}

// Join connects to channelID, moving the existing connection if there is one.
// Audio written to the returned writer must be Opus frames.
func (v *VoiceManager) Join(ctx context.Context, guildID discord.GuildID, channelID discord.ChannelID) (io.Writer, error) {
	l := v.guildLock(guildID)
	l.Lock()
	defer l.Unlock()

	v.mu.Lock()
	vs, ok := v.sessions[guildID]
	v.mu.Unlock()

	if ok {
		if vs.channelID == channelID {
			return vs, nil
		}

		if err := vs.JoinChannel(ctx, channelID, false, true); err != nil {
			return nil, errors.Wrap(err, "moving voice connection")
		}

		v.mu.Lock()
		vs.channelID = channelID
		v.mu.Unlock()
		return vs, nil
	}

	conn, err := v.dial(ctx, guildID, channelID)
	if err != nil {
		return nil, err
	}

	log.Debugf("Joined voice channel %v in guild %v", channelID, guildID)

	vs = &voiceSession{voiceConn: conn, channelID: channelID}
	v.mu.Lock()
	v.sessions[guildID] = vs
	v.mu.Unlock()
	return vs, nil
}

func (v *VoiceManager) dialSession(ctx context.Context, guildID discord.GuildID, channelID discord.ChannelID) (voiceConn, error) {
	s, _ := v.bot.Router.StateFromGuildID(guildID)
	sess, err := voice.NewSession(s)
	if err != nil {
		return nil, errors.Wrap(err, "creating voice session")
	}

	if err := sess.JoinChannel(ctx, channelID, false, true); err != nil {
		return nil, errors.Wrap(err, "joining voice channel")
	}

	if err := sess.Speaking(ctx, voicegateway.Microphone); err != nil {
		_ = sess.Leave(ctx)
		return nil, errors.Wrap(err, "setting speaking state")
	}
	return sess, nil
}

// Leave disconnects from the guild's voice channel. It is a no-op if the bot isn't connected.
func (v *VoiceManager) Leave(ctx context.Context, guildID discord.GuildID) error {
	l := v.guildLock(guildID)
	l.Lock()
	defer l.Unlock()

	v.mu.Lock()
	vs, ok := v.sessions[guildID]
	delete(v.sessions, guildID)
	v.mu.Unlock()

	if !ok {
		return nil
	}

	log.Debugf("Leaving voice channel %v in guild %v", vs.channelID, guildID)
	return errors.Wrap(vs.Leave(ctx), "leaving voice channel")
}

// onEvict disconnects expired sessions.
func (v *VoiceManager) onEvict(h *music.Handler) {
	ctx, cancel := context.WithTimeout(context.Background(), voiceTimeout)
	defer cancel()

	if err := v.Leave(ctx, h.GuildID); err != nil {
		log.Errorf("Error leaving voice in guild %v: %v", h.GuildID, err)
	}
}

// Close disconnects from every voice channel.
func (v *VoiceManager) Close() {
	v.mu.Lock()
	guilds := make([]discord.GuildID, 0, len(v.sessions))
	for id := range v.sessions {
		guilds = append(guilds, id)
	}
	v.mu.Unlock()

	for _, id := range guilds {
		ctx, cancel := context.WithTimeout(context.Background(), voiceTimeout)
		if err := v.Leave(ctx, id); err != nil {
			log.Errorf("Error leaving voice in guild %v: %v", id, err)
		}
		cancel()
	}
}
