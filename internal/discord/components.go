package discord

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/bwmarrin/discordgo"

	"duel-game-bot/internal/game"
	"duel-game-bot/internal/model"
	"duel-game-bot/internal/present"
)

const (
	customIDPrefix = "g"
	customIDSep    = "|"

	// inertPrefix marks buttons that do nothing. Discord requires unique
	// custom ids within a message, so inert ids carry their position.
	inertPrefix = "-"
)

// EncodeCustomID packs a move payload into a button custom id.
func EncodeCustomID(variant model.Variant, key, payload string) string {
	return strings.Join([]string{customIDPrefix, string(variant), key, payload}, customIDSep)
}

// DecodeCustomID reverses EncodeCustomID.
func DecodeCustomID(id string) (variant model.Variant, key, payload string, ok bool) {
	parts := strings.Split(id, customIDSep)
	if len(parts) != 4 || parts[0] != customIDPrefix || parts[1] == "" || parts[2] == "" || parts[3] == "" {
		return "", "", "", false
	}
	return model.Variant(parts[1]), parts[2], parts[3], true
}

func isInert(payload string) bool {
	return strings.HasPrefix(payload, inertPrefix)
}

// Components turns a view's button grid into action rows.
func Components(v present.View, variant model.Variant, key string) []discordgo.MessageComponent {
	rows := make([]discordgo.MessageComponent, 0, len(v.Buttons))
	for r, row := range v.Buttons {
		buttons := make([]discordgo.MessageComponent, 0, len(row))
		for c, b := range row {
			btn := discordgo.Button{
				Label:    b.Label,
				Style:    discordgo.SecondaryButton,
				CustomID: EncodeCustomID(variant, key, b.Payload),
			}
			switch {
			case b.Payload == "":
				btn.Disabled = true
				btn.CustomID = EncodeCustomID(variant, key, fmt.Sprintf("%s%d.%d", inertPrefix, r, c))
			case b.Payload == game.ForfeitPayload:
				btn.Style = discordgo.DangerButton
			}
			buttons = append(buttons, btn)
		}
		rows = append(rows, discordgo.ActionsRow{Components: buttons})
	}
	return rows
}

// parseSnowflake converts a Discord id to the int64 form used for players
// and guilds.
func parseSnowflake(id string) (int64, error) {
	n, err := strconv.ParseInt(id, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid snowflake %q: %w", id, err)
	}
	return n, nil
}

// playerFromUser converts a Discord user.
func playerFromUser(u *discordgo.User) (game.Player, error) {
	id, err := parseSnowflake(u.ID)
	if err != nil {
		return game.Player{}, err
	}
	name := u.GlobalName
	if name == "" {
		name = u.Username
	}
	return game.Player{ID: id, Name: name, Bot: u.Bot}, nil
}

// interactionUser returns the user behind an interaction in a guild or DM.
func interactionUser(i *discordgo.Interaction) *discordgo.User {
	if i.Member != nil && i.Member.User != nil {
		return i.Member.User
	}
	return i.User
}

// scopeID is the rating scope of an interaction: the guild, or the channel
// for direct messages.
func scopeID(i *discordgo.Interaction) (int64, error) {
	if i.GuildID != "" {
		return parseSnowflake(i.GuildID)
	}
	return parseSnowflake(i.ChannelID)
}
