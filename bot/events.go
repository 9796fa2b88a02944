package bot

import (
	"context"
	"time"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"

	"github.com/miyasty1919/discordmaidbot/handler"
	"github.com/miyasty1919/discordmaidbot/handler/roles"
	"github.com/miyasty1919/discordmaidbot/handler/system"
)

func (b *Bot) registerEventHandlers() {
	s := b.session
	s.AddHandler(handler.OnInteractionCreate)
	s.AddHandler(b.onReady)

	// 容器被外部改动时丢弃解析缓存
	index := b.ledger.Index()
	s.AddHandler(func(_ *discordgo.Session, m *discordgo.MessageUpdate) {
		index.Invalidate(m.ChannelID, m.ID)
	})
	s.AddHandler(func(_ *discordgo.Session, m *discordgo.MessageDelete) {
		index.Invalidate(m.ChannelID, m.ID)
	})
	s.AddHandler(func(_ *discordgo.Session, m *discordgo.MessageDeleteBulk) {
		for _, id := range m.Messages {
			index.Invalidate(m.ChannelID, id)
		}
	})
	s.AddHandler(func(_ *discordgo.Session, c *discordgo.ChannelDelete) {
		index.InvalidateChannel(c.ID)
	})

	s.AddHandler(roles.OnGuildCreate)
	s.AddHandler(roles.OnMemberUpdate)
	s.AddHandler(roles.OnMemberRemove)
	s.AddHandler(roles.OnMemberAdd)
	s.AddHandler(system.OnMemberAdd)

	// 设置必要的intents
	s.Identify.Intents = discordgo.IntentsGuilds | discordgo.IntentsGuildMessages | discordgo.IntentsGuildMembers
}

func (b *Bot) onReady(s *discordgo.Session, r *discordgo.Ready) {
	b.logger.Info("gateway ready", zap.String("user", r.User.Username), zap.Int("guilds", len(r.Guilds)))
	b.startupOnce.Do(func() {
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			system.AnnounceStartup(ctx, s, b.store)
		}()
	})
}
