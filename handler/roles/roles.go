package roles

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"

	"github.com/miyasty1919/discordmaidbot/command/def"
	"github.com/miyasty1919/discordmaidbot/handler"
	"github.com/miyasty1919/discordmaidbot/model"
	"github.com/miyasty1919/discordmaidbot/utils"
)

const assignButtonPrefix = "role_assign"

var deps *handler.Deps

// RegisterHandlers registers the role panel handlers.
func RegisterHandlers(d *handler.Deps) {
	deps = d
	handler.AddCommandHandler(def.RolePanelCommand.Name, panelCommandHandler)
	handler.AddComponentHandler(assignButtonPrefix, assignButtonHandler)
}

func buttonStyle(color string) discordgo.ButtonStyle {
	switch color {
	case "blue":
		return discordgo.PrimaryButton
	case "red":
		return discordgo.DangerButton
	case "grey", "gray":
		return discordgo.SecondaryButton
	}
	return discordgo.SuccessButton
}

type panelRole struct {
	ID    string
	Label string
}

func panelMessage(title string, style discordgo.ButtonStyle, roles []panelRole) *discordgo.MessageSend {
	var desc strings.Builder
	desc.WriteString("以下のボタンを押すと、ロールを付けたり外したりできます！\n\n")
	buttons := make([]discordgo.MessageComponent, 0, len(roles))
	for _, r := range roles {
		buttons = append(buttons, discordgo.Button{
			Label:    r.Label,
			Style:    style,
			CustomID: assignButtonPrefix + ":" + r.ID,
		})
		fmt.Fprintf(&desc, "🔘 **%s** : <@&%s>\n", r.Label, r.ID)
	}
	return &discordgo.MessageSend{
		Embeds: []*discordgo.MessageEmbed{{
			Title:       title,
			Description: desc.String(),
			Color:       0xf1c40f,
		}},
		Components: []discordgo.MessageComponent{discordgo.ActionsRow{Components: buttons}},
	}
}

func panelCommandHandler(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if !handler.DeferEphemeral(s, i) {
		return
	}
	handler.Async(s, i, "role_panel", func(ctx context.Context) {
		if !handler.RequireModerator(s, i, discordgo.PermissionManageRoles) {
			return
		}
		opts := handler.Options(i)
		var roles []panelRole
		for n := 1; n <= def.MaxPanelRoles; n++ {
			o, ok := opts[fmt.Sprintf("role%d", n)]
			if !ok {
				continue
			}
			role := o.RoleValue(s, i.GuildID)
			label := role.Name
			if l, ok := opts[fmt.Sprintf("label%d", n)]; ok && l.StringValue() != "" {
				label = l.StringValue()
			}
			roles = append(roles, panelRole{ID: role.ID, Label: label})
		}
		if len(roles) == 0 {
			handler.EditReply(s, i, "ロールを少なくとも1つ選んでください💦")
			return
		}

		msg := panelMessage(opts["title"].StringValue(), buttonStyle(opts["color"].StringValue()), roles)
		if _, err := s.ChannelMessageSendComplex(i.ChannelID, msg, discordgo.WithContext(ctx)); err != nil {
			handler.EditReplyf(s, i, "エラーが発生しました💦\n`%v`", err)
			return
		}
		handler.EditReply(s, i, "パネルを設置しました！✨")
	})
}

func assignButtonHandler(s *discordgo.Session, i *discordgo.InteractionCreate) {
	args := handler.CustomIDArgs(i.MessageComponentData().CustomID)
	if len(args) != 1 || i.Member == nil {
		return
	}
	if !handler.DeferEphemeral(s, i) {
		return
	}
	roleID := args[0]
	handler.Async(s, i, "role_assign", func(ctx context.Context) {
		userID := utils.InteractionUserID(i)
		var err error
		if slices.Contains(i.Member.Roles, roleID) {
			err = s.GuildMemberRoleRemove(i.GuildID, userID, roleID, discordgo.WithContext(ctx))
			if err == nil {
				handler.EditReplyf(s, i, "🗑️ <@&%s> を外しました！", roleID)
				return
			}
		} else {
			err = s.GuildMemberRoleAdd(i.GuildID, userID, roleID, discordgo.WithContext(ctx))
			if err == nil {
				handler.EditReplyf(s, i, "✅ <@&%s> を付けました！", roleID)
				return
			}
		}
		utils.Logger().Warn("role toggle failed", zap.String("role_id", roleID), zap.String("user_id", userID), zap.Error(err))
		handler.EditReply(s, i, "⚠️ ロールを変更できませんでした。Botの権限やロールの順番を確認してください。")
	})
}

// keptRoles picks the roles worth restoring: not @everyone and not managed
// by an integration.
func keptRoles(guildID string, memberRoles []string, guildRoles []*discordgo.Role) []string {
	managed := make(map[string]bool, len(guildRoles))
	for _, r := range guildRoles {
		managed[r.ID] = r.Managed
	}
	var out []string
	for _, id := range memberRoles {
		if id == guildID || managed[id] {
			continue
		}
		out = append(out, id)
	}
	return out
}

// memberRoles mirrors the role lists of guild members. The state cache
// forgets a member before the leave event reaches handlers, and the event
// itself carries no roles.
type memberRoles struct {
	mu    sync.Mutex
	roles map[string][]string
}

var mirror = &memberRoles{roles: make(map[string][]string)}

func (m *memberRoles) set(guildID, userID string, roles []string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.roles[guildID+":"+userID] = slices.Clone(roles)
}

func (m *memberRoles) take(guildID, userID string) []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := guildID + ":" + userID
	roles := m.roles[key]
	delete(m.roles, key)
	return roles
}

// OnGuildCreate seeds the mirror from the initial member list.
func OnGuildCreate(_ *discordgo.Session, g *discordgo.GuildCreate) {
	for _, mem := range g.Members {
		if mem.User != nil {
			mirror.set(g.ID, mem.User.ID, mem.Roles)
		}
	}
}

// OnMemberUpdate keeps the mirror current.
func OnMemberUpdate(_ *discordgo.Session, m *discordgo.GuildMemberUpdate) {
	if m.Member != nil && m.User != nil {
		mirror.set(m.GuildID, m.User.ID, m.Roles)
	}
}

// OnMemberRemove remembers the roles of a leaving member.
func OnMemberRemove(s *discordgo.Session, m *discordgo.GuildMemberRemove) {
	if m.Member == nil || m.User == nil {
		return
	}
	roles := mirror.take(m.GuildID, m.User.ID)
	if len(roles) == 0 {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), handler.Timeout)
	defer cancel()

	var guildRoles []*discordgo.Role
	if g, err := s.State.Guild(m.GuildID); err == nil {
		guildRoles = g.Roles
	}
	kept := keptRoles(m.GuildID, roles, guildRoles)
	if len(kept) == 0 {
		return
	}
	if err := deps.Store.SaveRoleKeep(ctx, model.RoleKeep{GuildID: m.GuildID, UserID: m.User.ID, RoleIDs: kept}); err != nil {
		utils.Logger().Error("failed to save kept roles", zap.String("user_id", m.User.ID), zap.Error(err))
		return
	}
	utils.Logger().Info("roles kept", zap.String("user_id", m.User.ID), zap.Int("count", len(kept)))
}

// OnMemberAdd restores remembered roles to a returning member.
func OnMemberAdd(s *discordgo.Session, m *discordgo.GuildMemberAdd) {
	if m.Member == nil || m.User == nil || m.User.Bot {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), handler.Timeout)
	defer cancel()

	k, err := deps.Store.TakeRoleKeep(ctx, m.GuildID, m.User.ID)
	if err != nil {
		utils.Logger().Error("failed to load kept roles", zap.String("user_id", m.User.ID), zap.Error(err))
		return
	}
	roles := slices.Clone(m.Roles)
	restored := 0
	for _, roleID := range k.RoleIDs {
		if err := s.GuildMemberRoleAdd(m.GuildID, m.User.ID, roleID, discordgo.WithContext(ctx)); err != nil {
			utils.Logger().Warn("failed to restore role", zap.String("role_id", roleID), zap.Error(err))
			continue
		}
		roles = append(roles, roleID)
		restored++
	}
	mirror.set(m.GuildID, m.User.ID, roles)
	if restored > 0 {
		utils.Logger().Info("roles restored", zap.String("user_id", m.User.ID), zap.Int("count", restored))
	}
}
