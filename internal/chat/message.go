package chat

import "time"

// ButtonStyle selects the visual weight of a button.
type ButtonStyle int

const (
	ButtonPrimary ButtonStyle = iota + 1
	ButtonSecondary
	ButtonSuccess
	ButtonDanger
)

// Button is a persistent interactive component. CustomID is returned
// verbatim when the button is pressed.
type Button struct {
	Label    string
	Style    ButtonStyle
	CustomID string
}

// EmbedField is one name/value row of an embed.
type EmbedField struct {
	Name   string
	Value  string
	Inline bool
}

// Embed is a rich content block.
type Embed struct {
	Title         string
	Description   string
	Color         int
	Fields        []EmbedField
	AuthorName    string
	AuthorIconURL string
	Footer        string
	Timestamp     time.Time
}

// Message is an outbound message. A message with no buttons clears any
// components when used to update an existing message.
type Message struct {
	Content string
	Embeds  []Embed
	Buttons []Button
}

// Text builds a plain content message.
func Text(content string) Message {
	return Message{Content: content}
}

// Member is a chat user as seen in a guild or a direct channel.
type Member struct {
	ID        string
	Name      string
	AvatarURL string
	Bot       bool
	RoleIDs   []string
	// CanManageGuild is set when the member may change server settings in
	// the guild the event came from.
	CanManageGuild bool
}

// Mention renders the platform mention markup for the member.
func (m Member) Mention() string {
	return "<@" + m.ID + ">"
}

// HasRole reports whether the member holds roleID.
func (m Member) HasRole(roleID string) bool {
	for _, id := range m.RoleIDs {
		if id == roleID {
			return true
		}
	}
	return false
}

// RoleMention renders the mention markup for a role.
func RoleMention(roleID string) string {
	return "<@&" + roleID + ">"
}

// UserMention renders the mention markup for a user ID.
func UserMention(userID string) string {
	return "<@" + userID + ">"
}
