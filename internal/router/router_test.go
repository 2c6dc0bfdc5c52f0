package router

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/spec-kit/ticket-relay/internal/chat"
	"github.com/spec-kit/ticket-relay/internal/config"
	"github.com/spec-kit/ticket-relay/internal/domain"
	"github.com/spec-kit/ticket-relay/internal/observability"
	"github.com/spec-kit/ticket-relay/internal/repository"
	"github.com/spec-kit/ticket-relay/internal/service"
)

const (
	supportGuildID = "200"
	staffRoleID    = "300"
)

var (
	user  = chat.Member{ID: "u1", Name: "alice", AvatarURL: "https://cdn/alice.png"}
	staff = chat.Member{ID: "s1", Name: "sam", AvatarURL: "https://cdn/sam.png", RoleIDs: []string{staffRoleID}}
	owner = chat.Member{ID: "o1", Name: "olga", CanManageGuild: true}
	guest = chat.Member{ID: "g1", Name: "gary"}
)

type harness struct {
	router   *Router
	store    *repository.MemoryStore
	tickets  *service.TicketService
	gateway  *fakeGateway
	channels *fakeChannels
	metrics  *observability.Metrics
}

type harnessOption func(*Dependencies)

func withCompleter(c service.Completer) harnessOption {
	return func(d *Dependencies) {
		d.Assistant = service.NewAssistService(c, config.AssistConfig{TriggerPrefix: "ai:", MaxTokens: 150, Temperature: 0.7}, nil)
	}
}

func withLimiter(l RateLimiter) harnessOption {
	return func(d *Dependencies) { d.Limiter = l }
}

// withOpenErr makes every OpenTicket call fail with err.
func withOpenErr(err error) harnessOption {
	return func(d *Dependencies) {
		d.Tickets = failingOpen{Tickets: d.Tickets, err: err}
	}
}

func newHarness(t *testing.T, opts ...harnessOption) *harness {
	t.Helper()
	store := repository.NewMemoryStore()
	channels := &fakeChannels{}
	tickets := service.NewTicketService(service.TicketDependencies{
		TicketRepo:  store.Tickets(),
		MessageRepo: store.Messages(),
		Channels:    channels,
	})
	gateway := &fakeGateway{}
	metrics := observability.NewMetrics()

	deps := Dependencies{
		Tickets:   tickets,
		Assistant: service.NewAssistService(nil, config.AssistConfig{TriggerPrefix: "ai:"}, nil),
		Gateway:   gateway,
		Options:   Options{SupportGuildID: supportGuildID, StaffRoleID: staffRoleID},
		Metrics:   metrics,
	}
	for _, opt := range opts {
		opt(&deps)
	}
	r := New(deps)
	r.now = func() time.Time { return time.Date(2026, 3, 4, 5, 6, 7, 0, time.UTC) }

	return &harness{router: r, store: store, tickets: tickets, gateway: gateway, channels: channels, metrics: metrics}
}

func (h *harness) interaction(member chat.Member) (chat.Interaction, *fakeResponder) {
	resp := &fakeResponder{deferredAt: -1}
	return chat.Interaction{GuildID: "100", ChannelID: "panel-chan", User: member, Responder: resp}, resp
}

func (h *harness) openTicket(t *testing.T) *domain.Ticket {
	t.Helper()
	in, _ := h.interaction(user)
	if err := h.router.HandleCreateTicket(context.Background(), in); err != nil {
		t.Fatalf("create ticket: %v", err)
	}
	ticket, err := h.tickets.GetOpenTicketForUser(context.Background(), user.ID)
	if err != nil {
		t.Fatalf("ticket should be open: %v", err)
	}
	return ticket
}

func dm(content string) chat.InboundMessage {
	return chat.InboundMessage{ID: "m1", ChannelID: "dm-u1", Direct: true, Author: user, Content: content}
}

func staffMsg(channelID, content string) chat.InboundMessage {
	return chat.InboundMessage{
		ID:          "m2",
		ChannelID:   channelID,
		ChannelName: "ticket-alice",
		GuildID:     supportGuildID,
		Author:      staff,
		Content:     content,
	}
}

func TestAIQuestionWithoutProviderCreatesNothing(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	if err := h.router.HandleDirectMessage(ctx, dm("ai: how do I reset my password?")); err != nil {
		t.Fatalf("handle: %v", err)
	}

	replies := h.gateway.sentTo("dm-u1")
	if len(replies) != 1 || replies[0].Embeds[0].Description != service.AssistNotConfigured {
		t.Fatalf("expected not-configured answer, got %+v", replies)
	}
	if _, err := h.tickets.GetOpenTicketForUser(ctx, user.ID); !errors.Is(err, domain.ErrTicketNotFound) {
		t.Fatalf("no ticket should be created, got %v", err)
	}
	if h.channels.next != 0 {
		t.Fatalf("no channel should be created")
	}
}

func TestAIQuestionAnsweredWithHint(t *testing.T) {
	completer := &fakeCompleter{}
	h := newHarness(t, withCompleter(completer))

	if err := h.router.HandleDirectMessage(context.Background(), dm("AI: reset password?")); err != nil {
		t.Fatalf("handle: %v", err)
	}
	replies := h.gateway.sentTo("dm-u1")
	if len(replies) != 1 || completer.calls != 1 {
		t.Fatalf("expected one provider call and one reply, got %d/%d", completer.calls, len(replies))
	}
	embed := replies[0].Embeds[0]
	if embed.Description != "Use the reset link on the login page." {
		t.Fatalf("unexpected answer %q", embed.Description)
	}
	if len(embed.Fields) == 0 || !strings.Contains(embed.Fields[0].Value, "create a ticket") {
		t.Fatalf("answer should carry the ticket hint: %+v", embed.Fields)
	}
}

func TestAIQuestionThrottled(t *testing.T) {
	completer := &fakeCompleter{}
	var key string
	h := newHarness(t, withCompleter(completer), withLimiter(fakeLimiter{allowFn: func(k string) (bool, error) {
		key = k
		return false, nil
	}}))

	_ = h.router.HandleDirectMessage(context.Background(), dm("ai: hello"))
	if completer.calls != 0 {
		t.Fatalf("provider must not be called when throttled")
	}
	if key != user.ID {
		t.Fatalf("limiter keyed by %q", key)
	}
	replies := h.gateway.sentTo("dm-u1")
	if len(replies) != 1 || replies[0].Content != msgAIThrottled {
		t.Fatalf("expected throttle reply, got %+v", replies)
	}
}

func TestAILimiterFailureFailsOpen(t *testing.T) {
	completer := &fakeCompleter{}
	h := newHarness(t, withCompleter(completer), withLimiter(fakeLimiter{allowFn: func(string) (bool, error) {
		return false, errors.New("redis down")
	}}))

	_ = h.router.HandleDirectMessage(context.Background(), dm("ai: hello"))
	if completer.calls != 1 {
		t.Fatalf("limiter errors should not block the provider")
	}
}

func TestDirectMessageWithoutTicketPromptsCreate(t *testing.T) {
	h := newHarness(t)

	if err := h.router.HandleDirectMessage(context.Background(), dm("hello, I need help")); err != nil {
		t.Fatalf("handle: %v", err)
	}
	replies := h.gateway.sentTo("dm-u1")
	if len(replies) != 1 {
		t.Fatalf("expected one prompt, got %d", len(replies))
	}
	if len(replies[0].Buttons) != 1 || replies[0].Buttons[0].CustomID != CreateTicketButtonID {
		t.Fatalf("prompt should carry the create button: %+v", replies[0].Buttons)
	}
	if _, err := h.tickets.GetOpenTicketForUser(context.Background(), user.ID); !errors.Is(err, domain.ErrTicketNotFound) {
		t.Fatalf("prompt must not create a ticket")
	}
}

func TestCreateTicketAnnouncesAndWelcomes(t *testing.T) {
	h := newHarness(t)
	in, resp := h.interaction(user)

	if err := h.router.HandleCreateTicket(context.Background(), in); err != nil {
		t.Fatalf("create: %v", err)
	}
	ticket, err := h.tickets.GetOpenTicketForUser(context.Background(), user.ID)
	if err != nil {
		t.Fatalf("ticket not created: %v", err)
	}

	announcements := h.gateway.sentTo(ticket.SupportChannelID)
	if len(announcements) != 1 {
		t.Fatalf("expected one announcement, got %d", len(announcements))
	}
	a := announcements[0]
	if a.Content != "<@&"+staffRoleID+">" {
		t.Fatalf("announcement should tag staff, got %q", a.Content)
	}
	if len(a.Buttons) != 1 || a.Buttons[0].CustomID != CloseTicketButtonID(ticket.TicketID) {
		t.Fatalf("announcement should carry the close button: %+v", a.Buttons)
	}

	if len(h.gateway.directTo(user.ID)) != 1 {
		t.Fatalf("owner should receive a welcome DM")
	}
	if !resp.ephemeral[0] || !strings.Contains(resp.lastReply(), "Check your DMs") || !strings.Contains(resp.lastReply(), ticket.TicketID) {
		t.Fatalf("unexpected reply %q", resp.lastReply())
	}
}

func TestCreateTicketDefersBeforeReplying(t *testing.T) {
	h := newHarness(t)
	in, resp := h.interaction(user)

	if err := h.router.HandleCreateTicket(context.Background(), in); err != nil {
		t.Fatalf("create: %v", err)
	}
	if resp.deferredAt != 0 {
		t.Fatalf("expected defer before any reply, deferredAt=%d", resp.deferredAt)
	}
	if len(resp.replies) != 1 || !strings.Contains(resp.lastReply(), "Ticket created") {
		t.Fatalf("unexpected replies %+v", resp.replies)
	}
}

func TestCreateTicketRepliesWhenDeferFails(t *testing.T) {
	h := newHarness(t)
	in, resp := h.interaction(user)
	resp.deferErr = chat.ErrUndeliverable

	if err := h.router.HandleCreateTicket(context.Background(), in); err != nil {
		t.Fatalf("create: %v", err)
	}
	if len(resp.replies) != 1 {
		t.Fatalf("expected a reply despite the failed defer, got %d", len(resp.replies))
	}
}

func TestCreateTicketToleratesDMFailure(t *testing.T) {
	h := newHarness(t)
	h.gateway.sendDirectFn = func(string) error { return chat.ErrUndeliverable }
	in, resp := h.interaction(user)

	if err := h.router.HandleCreateTicket(context.Background(), in); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := h.tickets.GetOpenTicketForUser(context.Background(), user.ID); err != nil {
		t.Fatalf("ticket should still be created: %v", err)
	}
	if !strings.Contains(resp.lastReply(), "couldn't send you a DM") {
		t.Fatalf("unexpected reply %q", resp.lastReply())
	}
}

func TestCreateTicketTwiceReportsExisting(t *testing.T) {
	h := newHarness(t)
	first := h.openTicket(t)

	in, resp := h.interaction(user)
	if err := h.router.HandleCreateTicket(context.Background(), in); err != nil {
		t.Fatalf("second create: %v", err)
	}
	if resp.lastReply() != alreadyOpenReply(first) {
		t.Fatalf("unexpected reply %q", resp.lastReply())
	}
	if h.channels.next != 1 {
		t.Fatalf("expected a single staff channel, got %d", h.channels.next)
	}
}

func TestCreateTicketExistingButUnknown(t *testing.T) {
	h := newHarness(t, withOpenErr(&domain.AlreadyOpenError{}))
	in, resp := h.interaction(user)

	if err := h.router.HandleCreateTicket(context.Background(), in); err != nil {
		t.Fatalf("create: %v", err)
	}
	if resp.lastReply() != "You already have an open ticket." {
		t.Fatalf("unexpected reply %q", resp.lastReply())
	}
}

func TestCreateTicketMissingCategory(t *testing.T) {
	h := newHarness(t)
	h.channels.createErr = &chat.MissingResourceError{Kind: chat.ResourceTicketCategory, ID: "400"}
	in, resp := h.interaction(user)

	if err := h.router.HandleCreateTicket(context.Background(), in); err != nil {
		t.Fatalf("create: %v", err)
	}
	if resp.lastReply() != msgCategoryMissing {
		t.Fatalf("unexpected reply %q", resp.lastReply())
	}
	if _, err := h.tickets.GetOpenTicketForUser(context.Background(), user.ID); !errors.Is(err, domain.ErrTicketNotFound) {
		t.Fatalf("no ticket record should be written")
	}
	if h.metrics.Snapshot().Failures[ActionOpenTicket+"|resource_missing"] != 1 {
		t.Fatalf("failure should be counted: %+v", h.metrics.Snapshot().Failures)
	}
}

func TestUserMessageRelayedToStaff(t *testing.T) {
	h := newHarness(t)
	ticket := h.openTicket(t)
	ctx := context.Background()

	if err := h.router.HandleDirectMessage(ctx, dm("ai: my order is late")); err != nil {
		t.Fatalf("relay: %v", err)
	}

	relayed := h.gateway.sentTo(ticket.SupportChannelID)
	last := relayed[len(relayed)-1]
	if last.Embeds[0].Description != "ai: my order is late" || !strings.Contains(last.Embeds[0].Title, user.Name) {
		t.Fatalf("unexpected relay %+v", last.Embeds[0])
	}
	history, _ := h.tickets.History(ctx, ticket.TicketID)
	if len(history) != 1 || history[0].TicketID != ticket.TicketID || history[0].AuthorID != user.ID {
		t.Fatalf("unexpected history %+v", history)
	}
	if len(h.gateway.reactions) != 1 || h.gateway.reactions[0] != "dm-u1/m1/"+ackEmoji {
		t.Fatalf("expected acknowledgement reaction, got %v", h.gateway.reactions)
	}
}

func TestUserMessageStaffChannelUnavailable(t *testing.T) {
	h := newHarness(t)
	ticket := h.openTicket(t)
	h.gateway.sendFn = func(channelID string) error {
		if channelID == ticket.SupportChannelID {
			return chat.ErrResourceNotFound
		}
		return nil
	}

	if err := h.router.HandleDirectMessage(context.Background(), dm("still there?")); err != nil {
		t.Fatalf("relay: %v", err)
	}
	replies := h.gateway.sentTo("dm-u1")
	if len(replies) != 1 || replies[0].Content != msgStaffRelayFailed {
		t.Fatalf("user should be warned, got %+v", replies)
	}
	if len(h.gateway.reactions) != 0 {
		t.Fatalf("undelivered message must not be acknowledged")
	}
}

func TestStaffMessageRelayedToUser(t *testing.T) {
	h := newHarness(t)
	ticket := h.openTicket(t)
	ctx := context.Background()
	welcome := len(h.gateway.directTo(user.ID))

	if err := h.router.HandleStaffMessage(ctx, staffMsg(ticket.SupportChannelID, "please confirm your email")); err != nil {
		t.Fatalf("relay: %v", err)
	}

	dms := h.gateway.directTo(user.ID)
	if len(dms) != welcome+1 {
		t.Fatalf("expected one relayed DM, got %d", len(dms)-welcome)
	}
	embed := dms[len(dms)-1].Embeds[0]
	if embed.Description != "please confirm your email" || embed.AuthorName != staff.Name || embed.AuthorIconURL != staff.AvatarURL {
		t.Fatalf("unexpected relay %+v", embed)
	}

	history, _ := h.tickets.History(ctx, ticket.TicketID)
	if len(history) != 1 || history[0].AuthorID != staff.ID || history[0].MessageContent != "please confirm your email" {
		t.Fatalf("unexpected history %+v", history)
	}
	want := ticket.SupportChannelID + "/m2/" + ackEmoji
	if len(h.gateway.reactions) != 1 || h.gateway.reactions[0] != want {
		t.Fatalf("expected reaction %q, got %v", want, h.gateway.reactions)
	}
}

func TestStaffMessageUserUnreachable(t *testing.T) {
	h := newHarness(t)
	ticket := h.openTicket(t)
	h.gateway.sendDirectFn = func(string) error { return chat.ErrUndeliverable }
	ctx := context.Background()

	if err := h.router.HandleStaffMessage(ctx, staffMsg(ticket.SupportChannelID, "hello?")); err != nil {
		t.Fatalf("relay: %v", err)
	}
	msgs := h.gateway.sentTo(ticket.SupportChannelID)
	if msgs[len(msgs)-1].Content != msgUserDMFailed {
		t.Fatalf("staff should be warned, got %+v", msgs[len(msgs)-1])
	}
	if count, _ := h.tickets.MessageCount(ctx, ticket.TicketID); count != 1 {
		t.Fatalf("history append must not be rolled back, count=%d", count)
	}
}

func TestStaffMessageIgnoredOutsideTickets(t *testing.T) {
	h := newHarness(t)
	ticket := h.openTicket(t)
	ctx := context.Background()
	before := len(h.gateway.direct)

	other := staffMsg(ticket.SupportChannelID, "x")
	other.ChannelName = "general"
	_ = h.router.HandleStaffMessage(ctx, other)

	wrongGuild := staffMsg(ticket.SupportChannelID, "x")
	wrongGuild.GuildID = "999"
	_ = h.router.HandleStaffMessage(ctx, wrongGuild)

	unknown := staffMsg("staff-chan-404", "x")
	if err := h.router.HandleStaffMessage(ctx, unknown); err != nil {
		t.Fatalf("unknown ticket channel should be ignored silently: %v", err)
	}

	bot := staffMsg(ticket.SupportChannelID, "x")
	bot.Author.Bot = true
	_ = h.router.HandleStaffMessage(ctx, bot)

	if len(h.gateway.direct) != before {
		t.Fatalf("nothing should be relayed")
	}
	if count, _ := h.tickets.MessageCount(ctx, ticket.TicketID); count != 0 {
		t.Fatalf("nothing should be appended, got %d", count)
	}
}

func TestCloseTicketByCommandTwice(t *testing.T) {
	h := newHarness(t)
	ticket := h.openTicket(t)
	ctx := context.Background()

	in, resp := h.interaction(staff)
	if err := h.router.HandleCloseTicket(ctx, in, ticket.TicketID, false); err != nil {
		t.Fatalf("close: %v", err)
	}
	if resp.lastReply() != closedReply(ticket.TicketID) {
		t.Fatalf("unexpected reply %q", resp.lastReply())
	}
	notices := h.gateway.sentTo(ticket.SupportChannelID)
	if notices[len(notices)-1].Embeds[0].Fields[0].Value != "🔴 Closed" {
		t.Fatalf("closed notice should be posted to the ticket channel")
	}
	dms := h.gateway.directTo(user.ID)
	if !strings.Contains(dms[len(dms)-1].Embeds[0].Description, staff.Mention()) {
		t.Fatalf("owner DM should name the closer: %+v", dms[len(dms)-1].Embeds[0])
	}

	in2, resp2 := h.interaction(staff)
	if err := h.router.HandleCloseTicket(ctx, in2, ticket.TicketID, false); err != nil {
		t.Fatalf("second close: %v", err)
	}
	if resp2.lastReply() != msgTicketAlreadyClosed {
		t.Fatalf("unexpected reply %q", resp2.lastReply())
	}
	closed, _ := h.tickets.GetTicket(ctx, ticket.TicketID)
	if closed.Status != domain.TicketStatusClosed {
		t.Fatalf("status should remain CLOSED")
	}
}

func TestCloseTicketOwnerUnreachable(t *testing.T) {
	h := newHarness(t)
	ticket := h.openTicket(t)
	h.gateway.sendDirectFn = func(string) error { return chat.ErrUndeliverable }

	in, resp := h.interaction(staff)
	if err := h.router.HandleCloseTicket(context.Background(), in, ticket.TicketID, false); err != nil {
		t.Fatalf("close: %v", err)
	}
	if resp.lastReply() != closedReply(ticket.TicketID) {
		t.Fatalf("staff should get a success reply, got %q", resp.lastReply())
	}
	closed, _ := h.tickets.GetTicket(context.Background(), ticket.TicketID)
	if closed.Status != domain.TicketStatusClosed {
		t.Fatalf("closure must not be rolled back")
	}
}

func TestCloseTicketByButtonEditsAnnouncement(t *testing.T) {
	h := newHarness(t)
	ticket := h.openTicket(t)

	in, resp := h.interaction(staff)
	if err := h.router.HandleCloseTicket(context.Background(), in, ticket.TicketID, true); err != nil {
		t.Fatalf("close: %v", err)
	}
	if len(resp.updates) != 1 || len(resp.replies) != 0 {
		t.Fatalf("button close should update in place, updates=%d replies=%d", len(resp.updates), len(resp.replies))
	}
	if len(resp.updates[0].Buttons) != 0 {
		t.Fatalf("close button should be removed")
	}
	dms := h.gateway.directTo(user.ID)
	if !strings.Contains(dms[len(dms)-1].Embeds[0].Description, "our support team") {
		t.Fatalf("unexpected owner DM %+v", dms[len(dms)-1].Embeds[0])
	}
}

func TestCloseTicketRequiresStaff(t *testing.T) {
	h := newHarness(t)
	ticket := h.openTicket(t)

	in, resp := h.interaction(guest)
	if err := h.router.HandleCloseTicket(context.Background(), in, ticket.TicketID, true); err != nil {
		t.Fatalf("close: %v", err)
	}
	if resp.lastReply() != msgStaffOnlyClose || !resp.ephemeral[0] {
		t.Fatalf("unexpected reply %q", resp.lastReply())
	}
	still, _ := h.tickets.GetTicket(context.Background(), ticket.TicketID)
	if !still.IsOpen() {
		t.Fatalf("ticket must stay open")
	}
}

func TestCloseUnknownTicket(t *testing.T) {
	h := newHarness(t)
	in, resp := h.interaction(staff)
	_ = h.router.HandleCloseTicket(context.Background(), in, "ticket-nope", false)
	if resp.lastReply() != msgTicketNotFound {
		t.Fatalf("unexpected reply %q", resp.lastReply())
	}
}

func TestTicketInfo(t *testing.T) {
	h := newHarness(t)
	ticket := h.openTicket(t)
	ctx := context.Background()
	_ = h.router.HandleDirectMessage(ctx, dm("first"))

	in, resp := h.interaction(staff)
	if err := h.router.HandleTicketInfo(ctx, in, ticket.TicketID); err != nil {
		t.Fatalf("info: %v", err)
	}
	embed := resp.replies[0].Embeds[0]
	fields := map[string]string{}
	for _, f := range embed.Fields {
		fields[f.Name] = f.Value
	}
	if fields["Status"] != "🟢 Open" || fields["Messages"] != "1" {
		t.Fatalf("unexpected fields %+v", fields)
	}
	if fields["User"] != "<@u1> (alice)" {
		t.Fatalf("unexpected user field %q", fields["User"])
	}
	if _, ok := fields["Closed"]; ok {
		t.Fatalf("open ticket has no closed field")
	}

	in2, resp2 := h.interaction(guest)
	_ = h.router.HandleTicketInfo(ctx, in2, ticket.TicketID)
	if resp2.lastReply() != msgStaffOnlyInfo {
		t.Fatalf("unexpected reply %q", resp2.lastReply())
	}

	in3, resp3 := h.interaction(staff)
	_ = h.router.HandleTicketInfo(ctx, in3, "ticket-nope")
	if resp3.lastReply() != msgTicketNotFound {
		t.Fatalf("unexpected reply %q", resp3.lastReply())
	}
}

func TestSetupPostsPanel(t *testing.T) {
	h := newHarness(t)
	in, resp := h.interaction(owner)

	if err := h.router.HandleSetup(context.Background(), in, "help-desk"); err != nil {
		t.Fatalf("setup: %v", err)
	}
	panels := h.gateway.sentTo("help-desk")
	if len(panels) != 1 || panels[0].Buttons[0].CustomID != CreateTicketButtonID {
		t.Fatalf("panel not posted: %+v", panels)
	}
	if resp.lastReply() != "✅ Ticket panel set up in <#help-desk>!" {
		t.Fatalf("unexpected reply %q", resp.lastReply())
	}

	in2, _ := h.interaction(owner)
	_ = h.router.HandleSetup(context.Background(), in2, "")
	if len(h.gateway.sentTo("panel-chan")) != 1 {
		t.Fatalf("setup without a channel should use the invoking channel")
	}
}

func TestSetupRequiresManageGuild(t *testing.T) {
	for _, member := range []chat.Member{user, staff} {
		h := newHarness(t)
		in, resp := h.interaction(member)

		if err := h.router.HandleSetup(context.Background(), in, "help-desk"); err != nil {
			t.Fatalf("setup: %v", err)
		}
		if len(h.gateway.sentTo("help-desk")) != 0 {
			t.Fatalf("%s should not be able to post the panel", member.Name)
		}
		if resp.lastReply() != msgSetupPermission {
			t.Fatalf("unexpected reply %q", resp.lastReply())
		}
		if h.metrics.Snapshot().Failures[ActionSetup+"|permission_denied"] != 1 {
			t.Fatalf("denial should be counted: %+v", h.metrics.Snapshot().Failures)
		}
	}
}

func TestCloseButtonIDRoundTrip(t *testing.T) {
	id, ok := ParseCloseTicketButtonID(CloseTicketButtonID("ticket-u1-abc"))
	if !ok || id != "ticket-u1-abc" {
		t.Fatalf("round trip failed: %q %v", id, ok)
	}
	for _, bad := range []string{"close_ticket", "close_ticket:", "create_ticket", ""} {
		if _, ok := ParseCloseTicketButtonID(bad); ok {
			t.Fatalf("%q should not parse", bad)
		}
	}
}
