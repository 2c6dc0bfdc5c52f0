package discord

import "github.com/bwmarrin/discordgo"

// Slash command names.
const (
	CommandSetup      = "setup"
	CommandClose      = "close"
	CommandTicketInfo = "ticket_info"

	optionChannel  = "channel"
	optionTicketID = "ticket_id"
)

var manageGuildPermission int64 = discordgo.PermissionManageGuild

// Commands returns the application commands synced at startup.
func Commands() []*discordgo.ApplicationCommand {
	return []*discordgo.ApplicationCommand{
		{
			Name:                     CommandSetup,
			Description:              "Setup the ticket system panel",
			DefaultMemberPermissions: &manageGuildPermission,
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:         discordgo.ApplicationCommandOptionChannel,
					Name:         optionChannel,
					Description:  "Channel to send the ticket panel to",
					ChannelTypes: []discordgo.ChannelType{discordgo.ChannelTypeGuildText},
				},
			},
		},
		{
			Name:        CommandClose,
			Description: "Close a ticket (Staff only)",
			Options: []*discordgo.ApplicationCommandOption{
				ticketIDOption("The ticket ID to close"),
			},
		},
		{
			Name:        CommandTicketInfo,
			Description: "Get information about a ticket",
			Options: []*discordgo.ApplicationCommandOption{
				ticketIDOption("The ticket ID to check"),
			},
		},
	}
}

func ticketIDOption(description string) *discordgo.ApplicationCommandOption {
	return &discordgo.ApplicationCommandOption{
		Type:        discordgo.ApplicationCommandOptionString,
		Name:        optionTicketID,
		Description: description,
		Required:    true,
	}
}

func stringOption(options []*discordgo.ApplicationCommandInteractionDataOption, name string) string {
	for _, opt := range options {
		if opt.Name == name && opt.Type == discordgo.ApplicationCommandOptionString {
			return opt.StringValue()
		}
	}
	return ""
}

func channelOption(options []*discordgo.ApplicationCommandInteractionDataOption, name string) string {
	for _, opt := range options {
		if opt.Name == name && opt.Type == discordgo.ApplicationCommandOptionChannel {
			// A nil session makes ChannelValue return a stub carrying only the ID.
			return opt.ChannelValue(nil).ID
		}
	}
	return ""
}
